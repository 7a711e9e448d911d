package webhook

import (
	"context"
	"errors"
	"fmt"

	"github.com/tumbleweedd/two_services_system/registration_service/internal/domain/models"
	internalErrors "github.com/tumbleweedd/two_services_system/registration_service/internal/lib/errors"
	"github.com/tumbleweedd/two_services_system/registration_service/internal/metrics"
	"github.com/tumbleweedd/two_services_system/registration_service/pkg/logger"
)

const (
	EventSignatureInvalid = "webhook.signature_invalid"
	EventOrderNotFound    = "webhook.order_not_found"
	EventAlreadyProcessed = "webhook.already_processed"
	EventAmountMismatch   = "webhook.amount_mismatch"
)

type Outcome int

const (
	Transitioned Outcome = iota + 1
	// AlreadyProcessed covers replays and deliveries that lost the transition race.
	AlreadyProcessed
	// Ignored is any status other than paid; nothing is changed.
	Ignored
)

func (o Outcome) String() string {
	switch o {
	case Transitioned:
		return "transitioned"
	case AlreadyProcessed:
		return "already_processed"
	case Ignored:
		return "ignored"
	default:
		return "unknown"
	}
}

type orderStore interface {
	Find(ctx context.Context, orderID string) (*models.Order, error)
	TransitionToPaid(ctx context.Context, orderID, ticketCode string) (bool, error)
}

type ticketIssuer interface {
	Issue(orderID string) string
}

type orderNotifier interface {
	NotifyAll(ctx context.Context, order *models.Order) error
}

type Service struct {
	log    logger.Logger
	secret string

	store    orderStore
	issuer   ticketIssuer
	notifier orderNotifier
}

func New(log logger.Logger, secret string, store orderStore, issuer ticketIssuer, notifier orderNotifier) *Service {
	return &Service{
		log:      log,
		secret:   secret,
		store:    store,
		issuer:   issuer,
		notifier: notifier,
	}
}

// Handle authenticates and applies one gateway callback. It is safe to call
// any number of times, concurrently, for the same order.
func (s *Service) Handle(ctx context.Context, rawBody []byte, signature string) (Outcome, error) {
	const op = "services.webhook.Handle"

	if !Verify(s.secret, rawBody, signature) {
		s.log.WarnContext(ctx, op, logger.Event(EventSignatureInvalid), logger.Int("body_bytes", len(rawBody)))
		metrics.Webhooks.WithLabelValues("unauthenticated").Inc()
		return 0, internalErrors.ErrUnauthenticatedWebhook
	}

	p, err := decodePayload(rawBody)
	if err != nil {
		metrics.Webhooks.WithLabelValues("invalid").Inc()
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	orderID := p.Data.Order.OrderID
	log := s.log.With(logger.String("order_id", orderID))

	if !p.isPaid() {
		log.InfoContext(ctx, op, logger.String("order_status", p.Data.Order.Status))
		return s.done(Ignored), nil
	}

	order, err := s.store.Find(ctx, orderID)
	if err != nil {
		if errors.Is(err, internalErrors.ErrOrderNotFound) {
			log.WarnContext(ctx, op, logger.Event(EventOrderNotFound))
			metrics.Webhooks.WithLabelValues("not_found").Inc()
			return 0, internalErrors.ErrOrderNotFound
		}
		return 0, fmt.Errorf("%s: find order: %w", op, err)
	}

	if !p.matches(order) {
		log.ErrorContext(ctx, op,
			logger.Event(EventAmountMismatch),
			logger.String("order_status", string(order.Status)),
		)
		metrics.Webhooks.WithLabelValues("amount_mismatch").Inc()
		return 0, internalErrors.ErrAmountMismatch
	}

	if order.IsPaid() {
		log.InfoContext(ctx, op, logger.Event(EventAlreadyProcessed))
		s.notify(ctx, order)
		return s.done(AlreadyProcessed), nil
	}

	// the code is persisted only by the conditional update below; a losing delivery drops it unsaved
	code := s.issuer.Issue(orderID)

	transitioned, err := s.store.TransitionToPaid(ctx, orderID, code)
	if err != nil {
		return 0, fmt.Errorf("%s: transition to paid: %w", op, err)
	}

	// the winner's stored state is the one to notify from
	paid, err := s.store.Find(ctx, orderID)
	if err != nil {
		return 0, fmt.Errorf("%s: reload order: %w", op, err)
	}

	if !transitioned {
		log.InfoContext(ctx, op, logger.Event(EventAlreadyProcessed), logger.String("race", "lost"))
		s.notify(ctx, paid)
		return s.done(AlreadyProcessed), nil
	}

	log.InfoContext(ctx, op, logger.String("ticket_code", paid.Ticket()))
	s.notify(ctx, paid)

	return s.done(Transitioned), nil
}

// notify never fails the webhook; the flags left false are picked up by the sweep.
func (s *Service) notify(ctx context.Context, order *models.Order) {
	const op = "services.webhook.notify"

	if err := s.notifier.NotifyAll(context.WithoutCancel(ctx), order); err != nil {
		s.log.WarnContext(ctx, op, logger.String("order_id", order.OrderID), logger.Err(err))
	}
}

func (s *Service) done(o Outcome) Outcome {
	metrics.Webhooks.WithLabelValues(o.String()).Inc()
	return o
}
