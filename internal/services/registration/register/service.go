package register

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tumbleweedd/two_services_system/registration_service/internal/domain/models"
	"github.com/tumbleweedd/two_services_system/registration_service/internal/gateway"
	internalErrors "github.com/tumbleweedd/two_services_system/registration_service/internal/lib/errors"
	"github.com/tumbleweedd/two_services_system/registration_service/internal/lib/validate"
	"github.com/tumbleweedd/two_services_system/registration_service/internal/metrics"
	"github.com/tumbleweedd/two_services_system/registration_service/internal/ratelimit"
	"github.com/tumbleweedd/two_services_system/registration_service/pkg/logger"
)

//go:generate mockgen -source=service.go -destination=mocks/mock.go -package=mocks

type Limiter interface {
	Allow(ctx context.Context, identity string) ratelimit.Decision
}

type PriceSource interface {
	CurrentPrice(ctx context.Context) (models.Price, error)
}

type OrderCreator interface {
	CreatePending(ctx context.Context, order *models.Order) error
}

type CheckoutCreator interface {
	CreateOrder(ctx context.Context, req gateway.CheckoutRequest) (*gateway.Checkout, error)
}

// Result carries what the registrant needs to continue to the hosted checkout.
type Result struct {
	OrderID        string `json:"order_id"`
	CheckoutHandle string `json:"payment_session_id"`
}

type Service struct {
	log logger.Logger

	limiter  Limiter
	prices   PriceSource
	orders   OrderCreator
	checkout CheckoutCreator

	newOrderID func() string
}

func New(log logger.Logger, limiter Limiter, prices PriceSource, orders OrderCreator, checkout CheckoutCreator) *Service {
	return &Service{
		log:        log,
		limiter:    limiter,
		prices:     prices,
		orders:     orders,
		checkout:   checkout,
		newOrderID: NewOrderID,
	}
}

// NewOrderID returns talent_<unix ms>_<8 random hex>.
func NewOrderID() string {
	return fmt.Sprintf("talent_%d_%s", time.Now().UnixMilli(), strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func (s *Service) Register(ctx context.Context, identity string, sub Submission) (*Result, error) {
	const op = "services.registration.Register"

	decision := s.limiter.Allow(ctx, identity)
	metrics.RateLimitDecisions.WithLabelValues(decision.String()).Inc()
	if !decision.Permits() {
		metrics.Registrations.WithLabelValues("rate_limited").Inc()
		return nil, internalErrors.ErrRateLimited
	}

	sub.normalize()
	if err := validate.Struct(&sub); err != nil {
		metrics.Registrations.WithLabelValues("invalid").Inc()
		return nil, err
	}

	price, err := s.prices.CurrentPrice(ctx)
	if err != nil {
		metrics.Registrations.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%s: current price: %w", op, err)
	}

	order := &models.Order{
		Amount:     price.Amount,
		Currency:   price.Currency,
		Registrant: sub.registrant(),
	}
	if err = s.createPending(ctx, order); err != nil {
		metrics.Registrations.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	started := time.Now()
	checkout, err := s.checkout.CreateOrder(ctx, gateway.CheckoutRequest{
		OrderID:  order.OrderID,
		Amount:   order.Amount,
		Currency: order.Currency,
		Customer: gateway.Customer{
			ID:    order.GuardianIDCode,
			Name:  order.GuardianName,
			Phone: order.Phone,
			Email: order.Email,
		},
	})
	metrics.GatewayLatency.Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.Registrations.WithLabelValues("gateway_error").Inc()
		s.log.WarnContext(ctx, op,
			logger.String("order_id", order.OrderID),
			logger.Err(err),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	metrics.Registrations.WithLabelValues("created").Inc()
	s.log.InfoContext(ctx, op,
		logger.String("order_id", order.OrderID),
		logger.String("decision", decision.String()),
	)

	return &Result{OrderID: order.OrderID, CheckoutHandle: checkout.Handle}, nil
}

// createPending retries once with a fresh id; a second collision is a real fault.
func (s *Service) createPending(ctx context.Context, order *models.Order) error {
	const op = "services.registration.createPending"

	order.OrderID = s.newOrderID()
	err := s.orders.CreatePending(ctx, order)
	if errors.Is(err, internalErrors.ErrDuplicateOrderID) {
		s.log.WarnContext(ctx, op, logger.String("order_id", order.OrderID), logger.Err(err))

		order.OrderID = s.newOrderID()
		err = s.orders.CreatePending(ctx, order)
	}
	if err != nil {
		return fmt.Errorf("%s: create pending order: %w", op, err)
	}

	return nil
}
