package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tumbleweedd/two_services_system/registration_service/internal/app"
	"github.com/tumbleweedd/two_services_system/registration_service/internal/config"
	"github.com/tumbleweedd/two_services_system/registration_service/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.InitConfig()

	log := logger.NewSlogLogger(logger.SlogEnvironment(cfg.Env))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	application, err := app.NewApp(ctx, log, &cfg)
	if err != nil {
		panic(fmt.Sprintf("failed to create app: %v", err))
	}

	go application.HTTPServer.RunWithPanic()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, shutdownTimeout)
	defer shutdownCancel()

	if err = application.Stop(shutdownCtx); err != nil {
		panic(fmt.Sprintf("failed to stop app: %v", err))
	}

	log.Info("application stopped")
}
