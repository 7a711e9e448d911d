package status

import (
	"context"
	"errors"
	"fmt"

	"github.com/tumbleweedd/two_services_system/registration_service/internal/cache_impl"
	"github.com/tumbleweedd/two_services_system/registration_service/internal/domain/models"
	internalErrors "github.com/tumbleweedd/two_services_system/registration_service/internal/lib/errors"
	"github.com/tumbleweedd/two_services_system/registration_service/pkg/logger"
)

type orderGetter interface {
	Find(ctx context.Context, orderID string) (*models.Order, error)
}

type Service struct {
	log   logger.Logger
	cache cache_impl.CacheI

	orderGetter orderGetter
}

func New(log logger.Logger, cache cache_impl.CacheI, orderGetter orderGetter) *Service {
	return &Service{
		log:         log,
		cache:       cache,
		orderGetter: orderGetter,
	}
}

// Status returns the current state of an order. Only paid orders are cached,
// a pending order may change at any moment.
func (s *Service) Status(ctx context.Context, orderID string) (*models.Order, error) {
	const op = "services.status.Status"

	if order, ok := s.cache.Get(orderID); ok && order != nil {
		s.log.DebugContext(ctx, op, logger.String("order_id", orderID), logger.String("source", "cache"))
		return order, nil
	}

	order, err := s.orderGetter.Find(ctx, orderID)
	if err != nil {
		if errors.Is(err, internalErrors.ErrOrderNotFound) {
			return nil, internalErrors.ErrOrderNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if order.IsPaid() {
		_ = s.cache.Add(orderID, order)
	}

	return order, nil
}
