package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	httpapp "github.com/tumbleweedd/two_services_system/registration_service/internal/app/http"
	"github.com/tumbleweedd/two_services_system/registration_service/internal/cache_impl"
	"github.com/tumbleweedd/two_services_system/registration_service/internal/config"
	registration_service_http "github.com/tumbleweedd/two_services_system/registration_service/internal/delivery/http"
	registerHandler "github.com/tumbleweedd/two_services_system/registration_service/internal/delivery/http/registration/register"
	statusHandler "github.com/tumbleweedd/two_services_system/registration_service/internal/delivery/http/registration/status"
	webhookHandler "github.com/tumbleweedd/two_services_system/registration_service/internal/delivery/http/registration/webhook"
	"github.com/tumbleweedd/two_services_system/registration_service/internal/domain/models"
	"github.com/tumbleweedd/two_services_system/registration_service/internal/gateway"
	"github.com/tumbleweedd/two_services_system/registration_service/internal/metrics"
	"github.com/tumbleweedd/two_services_system/registration_service/internal/ratelimit"
	"github.com/tumbleweedd/two_services_system/registration_service/internal/repository/settings"
	registerService "github.com/tumbleweedd/two_services_system/registration_service/internal/services/registration/register"
	statusService "github.com/tumbleweedd/two_services_system/registration_service/internal/services/registration/status"
	webhookService "github.com/tumbleweedd/two_services_system/registration_service/internal/services/registration/webhook"
	"github.com/tumbleweedd/two_services_system/registration_service/internal/ticket"
	"github.com/tumbleweedd/two_services_system/registration_service/pkg/logger"
)

type App struct {
	log logger.Logger

	HTTPServer *httpapp.App
	backend    *Backend
}

func NewApp(ctx context.Context, log logger.Logger, cfg *config.Config) (*App, error) {
	const op = "app.NewApp"

	backend, err := NewBackend(ctx, log, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	checkout, err := gateway.NewClient(gateway.Config{
		BaseURL:      cfg.Gateway.BaseURL,
		ClientID:     cfg.Gateway.ClientID,
		ClientSecret: cfg.Gateway.ClientSecret,
		APIVersion:   cfg.Gateway.APIVersion,
		ReturnURL:    cfg.Gateway.ReturnURL,
		NotifyURL:    cfg.Gateway.NotifyURL,
		Timeout:      cfg.Gateway.Timeout,
	}, nil)
	if err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	prices := settings.New(log, backend.DB.GetDB(), models.Price{Amount: cfg.Pricing.Amount, Currency: cfg.Pricing.Currency})
	cache := cache_impl.NewCache(log, cfg.StatusCache.Size, cfg.StatusCache.TTL)

	registerSvc := registerService.New(log, setupLimiter(log, backend, cfg.RateLimit), prices, backend.Orders, checkout)
	webhookSvc := webhookService.New(log, cfg.Webhook.Secret, backend.Orders, ticket.New(), backend.Notifier)
	statusSvc := statusService.New(log, cache, backend.Orders)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Register(reg)

	handler := registration_service_http.NewHandler(
		registerHandler.NewHandler(log, registerSvc),
		webhookHandler.NewHandler(log, webhookSvc, cfg.Webhook.SignatureHeader, cfg.Webhook.MaxBodyBytes),
		statusHandler.NewHandler(log, statusSvc),
		reg,
		cfg.HTTP.RequestTimeout,
	)

	return &App{
		log:        log,
		HTTPServer: httpapp.NewApp(log, handler.InitRoutes(), &cfg.HTTP),
		backend:    backend,
	}, nil
}

func (a *App) Stop(ctx context.Context) error {
	const op = "app.Stop"

	var errs []error
	if err := a.HTTPServer.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		errs = append(errs, err)
	}
	if err := a.backend.Close(); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	a.log.Info("postgres db closed")

	return nil
}

func setupLimiter(log logger.Logger, backend *Backend, cfg config.RateLimitConfig) ratelimit.Limiter {
	if cfg.Disabled {
		return ratelimit.NewUnavailable(log, "rate limiting disabled by configuration")
	}

	return ratelimit.NewPostgresLimiter(log, backend.DB.GetDB(), cfg.Limit, cfg.Window, cfg.Timeout)
}
