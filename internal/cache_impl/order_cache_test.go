package cache_impl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tumbleweedd/two_services_system/registration_service/internal/domain/models"
	"github.com/tumbleweedd/two_services_system/registration_service/pkg/logger"
)

func TestCacheCopies(t *testing.T) {
	c := NewCache(logger.NewDiscard(), 8, time.Minute)
	code := "TLT-AB12CD34-0F0F0F"
	order := &models.Order{OrderID: "talent_1_ab12cd34", Status: models.OrderStatusPaid, TicketCode: &code}

	c.Add(order.OrderID, order)
	order.Status = models.OrderStatusPending

	got, ok := c.Get("talent_1_ab12cd34")
	require.True(t, ok)
	require.Equal(t, models.OrderStatusPaid, got.Status)

	*got.TicketCode = "changed"
	again, ok := c.Get("talent_1_ab12cd34")
	require.True(t, ok)
	require.Equal(t, "TLT-AB12CD34-0F0F0F", again.Ticket())
}

func TestCacheExpiresAndEvicts(t *testing.T) {
	c := NewCache(logger.NewDiscard(), 1, 30*time.Millisecond)

	require.False(t, c.Add("a", &models.Order{OrderID: "a"}))
	require.True(t, c.Add("b", &models.Order{OrderID: "b"}))

	_, ok := c.Get("a")
	require.False(t, ok)

	require.Eventually(t, func() bool {
		_, ok := c.Get("b")
		return !ok
	}, time.Second, 10*time.Millisecond)
}
