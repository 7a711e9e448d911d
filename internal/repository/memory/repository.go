package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tumbleweedd/two_services_system/registration_service/internal/domain/models"
	internalErrors "github.com/tumbleweedd/two_services_system/registration_service/internal/lib/errors"
)

type Failure struct {
	OrderID string
	Channel models.Channel
	Reason  string
}

type claimKey struct {
	orderID string
	channel models.Channel
}

// Repository mirrors the postgres order store semantics under a single mutex.
type Repository struct {
	mu       sync.Mutex
	orders   map[string]*models.Order
	claims   map[claimKey]time.Time
	failures []Failure
	now      func() time.Time
}

func New() *Repository {
	return &Repository{
		orders: make(map[string]*models.Order),
		claims: make(map[claimKey]time.Time),
		now:    time.Now,
	}
}

func (r *Repository) CreatePending(_ context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.OrderID]; exists {
		return fmt.Errorf("repository.memory.CreatePending: %w", internalErrors.ErrDuplicateOrderID)
	}

	order.Status = models.OrderStatusPending
	order.CreatedAt = r.now()
	order.TicketCode = nil
	order.PaidAt = nil

	r.orders[order.OrderID] = order.Clone()

	return nil
}

func (r *Repository) Find(_ context.Context, orderID string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[orderID]
	if !ok {
		return nil, internalErrors.ErrOrderNotFound
	}

	return order.Clone(), nil
}

func (r *Repository) TransitionToPaid(_ context.Context, orderID, ticketCode string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[orderID]
	if !ok || order.Status != models.OrderStatusPending {
		return false, nil
	}

	paidAt := r.now()
	code := ticketCode
	order.Status = models.OrderStatusPaid
	order.TicketCode = &code
	order.PaidAt = &paidAt

	return true, nil
}

func (r *Repository) ClaimNotification(_ context.Context, orderID string, ch models.Channel, lease time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[orderID]
	if !ok || !order.IsPaid() || order.NotificationSent(ch) {
		return false, nil
	}

	key := claimKey{orderID: orderID, channel: ch}
	if claimedAt, held := r.claims[key]; held && r.now().Sub(claimedAt) < lease {
		return false, nil
	}

	r.claims[key] = r.now()

	return true, nil
}

func (r *Repository) MarkNotified(_ context.Context, orderID string, ch models.Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[orderID]
	if !ok {
		return internalErrors.ErrOrderNotFound
	}

	order.SetNotificationSent(ch)
	delete(r.claims, claimKey{orderID: orderID, channel: ch})

	return nil
}

func (r *Repository) ReleaseNotification(_ context.Context, orderID string, ch models.Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order, ok := r.orders[orderID]; ok && !order.NotificationSent(ch) {
		delete(r.claims, claimKey{orderID: orderID, channel: ch})
	}

	return nil
}

func (r *Repository) RecordNotificationFailure(_ context.Context, orderID string, ch models.Channel, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.failures = append(r.failures, Failure{OrderID: orderID, Channel: ch, Reason: reason})

	return nil
}

func (r *Repository) PendingNotifications(_ context.Context, after models.PendingCursor, limit int) ([]models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]models.Order, 0)
	for _, order := range r.orders {
		if order.IsPaid() && (!order.TicketSent || !order.ReportSent) && after.Precedes(order) {
			result = append(result, *order.Clone())
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return models.CursorOf(&result[i]).Precedes(&result[j])
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

func (r *Repository) Failures() []Failure {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Failure(nil), r.failures...)
}
