// Package notifier delivers the side effects of a paid order. Each channel is
// tracked by its own flag on the order and claimed before sending, so replays
// and concurrent deliveries never send the same channel twice.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tumbleweedd/two_services_system/registration_service/internal/domain/models"
	internalErrors "github.com/tumbleweedd/two_services_system/registration_service/internal/lib/errors"
	"github.com/tumbleweedd/two_services_system/registration_service/internal/metrics"
	"github.com/tumbleweedd/two_services_system/registration_service/pkg/logger"
)

const (
	EventFailed      = "notification.failed"
	EventUnavailable = "notification.unavailable"
)

type Result int

const (
	Sent Result = iota + 1
	// Skipped means the channel was already sent or another delivery holds the claim.
	Skipped
	Failed
)

func (r Result) String() string {
	switch r {
	case Sent:
		return "sent"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

type Sender interface {
	Channel() models.Channel
	Send(ctx context.Context, order *models.Order) error
}

type notificationStore interface {
	ClaimNotification(ctx context.Context, orderID string, ch models.Channel, lease time.Duration) (bool, error)
	MarkNotified(ctx context.Context, orderID string, ch models.Channel) error
	ReleaseNotification(ctx context.Context, orderID string, ch models.Channel) error
	RecordNotificationFailure(ctx context.Context, orderID string, ch models.Channel, reason string) error
}

type Notifier struct {
	log     logger.Logger
	store   notificationStore
	senders map[models.Channel]Sender
	lease   time.Duration
	timeout time.Duration
}

func New(log logger.Logger, store notificationStore, lease, timeout time.Duration, senders ...Sender) *Notifier {
	bySender := make(map[models.Channel]Sender, len(senders))
	for _, s := range senders {
		bySender[s.Channel()] = s
	}

	return &Notifier{
		log:     log,
		store:   store,
		senders: bySender,
		lease:   lease,
		timeout: timeout,
	}
}

// Notify performs one channel for a paid order at most once across all callers.
func (n *Notifier) Notify(ctx context.Context, order *models.Order, ch models.Channel) (Result, error) {
	const op = "notifier.Notify"

	if order.NotificationSent(ch) {
		return n.count(ch, Skipped), nil
	}

	claimed, err := n.store.ClaimNotification(ctx, order.OrderID, ch, n.lease)
	if err != nil {
		return n.count(ch, Failed), fmt.Errorf("%s: claim %s: %w: %w", op, ch, internalErrors.ErrNotificationFailure, err)
	}
	if !claimed {
		return n.count(ch, Skipped), nil
	}

	sendErr := n.send(ctx, order, ch)

	// bookkeeping must survive a send that ran out of time
	bookCtx := context.WithoutCancel(ctx)

	if sendErr != nil {
		n.fail(bookCtx, order.OrderID, ch, sendErr)
		return n.count(ch, Failed), fmt.Errorf("%s: %s: %w: %w", op, ch, internalErrors.ErrNotificationFailure, sendErr)
	}

	if err = n.store.MarkNotified(bookCtx, order.OrderID, ch); err != nil {
		n.log.ErrorContext(ctx, op,
			logger.String("order_id", order.OrderID),
			logger.String("channel", string(ch)),
			logger.Err(err),
		)
		return n.count(ch, Sent), fmt.Errorf("%s: mark %s: %w", op, ch, err)
	}

	order.SetNotificationSent(ch)

	return n.count(ch, Sent), nil
}

// NotifyAll runs every channel independently; a failing channel never stops the others.
func (n *Notifier) NotifyAll(ctx context.Context, order *models.Order) error {
	errs := make([]error, len(models.Channels))

	// each goroutine works on its own copy because Notify updates the flags
	var g errgroup.Group
	for i, ch := range models.Channels {
		g.Go(func() error {
			_, errs[i] = n.Notify(ctx, order.Clone(), ch)
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

func (n *Notifier) send(ctx context.Context, order *models.Order, ch models.Channel) error {
	sender, ok := n.senders[ch]
	if !ok {
		return fmt.Errorf("no sender for channel %s: %w", ch, internalErrors.ErrNotifierUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	return sender.Send(ctx, order)
}

func (n *Notifier) fail(ctx context.Context, orderID string, ch models.Channel, cause error) {
	const op = "notifier.fail"

	event := EventFailed
	if errors.Is(cause, internalErrors.ErrNotifierUnavailable) {
		event = EventUnavailable
	}

	n.log.WarnContext(ctx, op,
		logger.Event(event),
		logger.String("order_id", orderID),
		logger.String("channel", string(ch)),
		logger.Err(cause),
	)

	if err := n.store.ReleaseNotification(ctx, orderID, ch); err != nil {
		n.log.ErrorContext(ctx, op, logger.String("order_id", orderID), logger.Err(err))
	}
	if err := n.store.RecordNotificationFailure(ctx, orderID, ch, cause.Error()); err != nil {
		n.log.ErrorContext(ctx, op, logger.String("order_id", orderID), logger.Err(err))
	}
}

func (n *Notifier) count(ch models.Channel, r Result) Result {
	metrics.Notifications.WithLabelValues(string(ch), r.String()).Inc()
	return r
}
