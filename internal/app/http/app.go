package httpapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/tumbleweedd/two_services_system/registration_service/internal/config"
	"github.com/tumbleweedd/two_services_system/registration_service/pkg/logger"
)

type App struct {
	log        logger.Logger
	httpServer *http.Server
	port       int
}

func NewApp(log logger.Logger, handler http.Handler, cfg *config.HTTPConfig) *App {
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &App{
		log:        log,
		httpServer: httpServer,
		port:       cfg.Port,
	}
}

func (a *App) RunWithPanic() {
	if err := a.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic(fmt.Sprintf("failed to run http server: %v", err))
	}
}

func (a *App) Run() error {
	const op = "httpapp.run"

	log := a.log.With(logger.String("op", op), logger.Int("port", a.port))

	log.Info("starting http server")

	return a.httpServer.ListenAndServe()
}

func (a *App) Stop(ctx context.Context) error {
	const op = "httpapp.stop"

	log := a.log.With(logger.String("op", op))

	log.Info("stopping http server")

	return a.httpServer.Shutdown(ctx)
}
