package registration_service_http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tumbleweedd/two_services_system/registration_service/internal/delivery/http/registration/register"
	"github.com/tumbleweedd/two_services_system/registration_service/internal/delivery/http/registration/status"
	"github.com/tumbleweedd/two_services_system/registration_service/internal/delivery/http/registration/webhook"
)

type Handler struct {
	register *register.Handler
	webhook  *webhook.Handler
	status   *status.Handler
	gatherer prometheus.Gatherer
	timeout  time.Duration
}

func NewHandler(
	register *register.Handler,
	webhook *webhook.Handler,
	status *status.Handler,
	gatherer prometheus.Gatherer,
	timeout time.Duration,
) *Handler {
	return &Handler{
		register: register,
		webhook:  webhook,
		status:   status,
		gatherer: gatherer,
		timeout:  timeout,
	}
}

func (h *Handler) InitRoutes() http.Handler {
	mux := chi.NewRouter()

	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Recoverer)
	if h.timeout > 0 {
		mux.Use(middleware.Timeout(h.timeout))
	}

	mux.Route("/registrations", func(r chi.Router) {
		r.Post("/", h.register.Register)
		r.Get("/{orderID}", h.status.Status)
	})

	mux.Post("/webhooks/payment", h.webhook.Payment)

	mux.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	mux.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return mux
}
