// Package sweep redelivers notifications left unsent by the webhook path.
package sweep

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/tumbleweedd/two_services_system/registration_service/internal/domain/models"
	"github.com/tumbleweedd/two_services_system/registration_service/pkg/logger"
)

type pendingLister interface {
	PendingNotifications(ctx context.Context, after models.PendingCursor, limit int) ([]models.Order, error)
}

type orderNotifier interface {
	NotifyAll(ctx context.Context, order *models.Order) error
}

type Report struct {
	Scanned int
	Failed  int
}

type Service struct {
	log         logger.Logger
	lister      pendingLister
	notifier    orderNotifier
	batchSize   int
	concurrency int
}

const defaultBatchSize = 100

func New(log logger.Logger, lister pendingLister, notifier orderNotifier, batchSize, concurrency int) *Service {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	return &Service{
		log:         log,
		lister:      lister,
		notifier:    notifier,
		batchSize:   batchSize,
		concurrency: concurrency,
	}
}

// Run walks the whole backlog of paid orders with unsent channels, batchSize
// orders per page. Pages are keyed on (paid_at, order_id) so orders that keep
// failing never hide newer ones. Per-order failures are counted, not returned.
func (s *Service) Run(ctx context.Context) (Report, error) {
	const op = "services.sweep.Run"

	var (
		report Report
		cursor models.PendingCursor
	)
	for {
		orders, err := s.lister.PendingNotifications(ctx, cursor, s.batchSize)
		if err != nil {
			return report, fmt.Errorf("%s: list pending: %w", op, err)
		}

		failed, err := s.deliver(ctx, orders)
		report.Scanned += len(orders)
		report.Failed += failed
		if err != nil {
			return report, fmt.Errorf("%s: %w", op, err)
		}

		if len(orders) < s.batchSize {
			break
		}
		cursor = models.CursorOf(&orders[len(orders)-1])
	}

	s.log.InfoContext(ctx, op, logger.Int("scanned", report.Scanned), logger.Int("failed", report.Failed))

	return report, nil
}

func (s *Service) deliver(ctx context.Context, orders []models.Order) (int, error) {
	const op = "services.sweep.deliver"

	var failed atomic.Int32

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i := range orders {
		order := &orders[i]
		g.Go(func() error {
			if err := s.notifier.NotifyAll(gCtx, order); err != nil {
				failed.Add(1)
				s.log.WarnContext(gCtx, op, logger.String("order_id", order.OrderID), logger.Err(err))
			}
			return gCtx.Err()
		})
	}

	err := g.Wait()

	return int(failed.Load()), err
}
