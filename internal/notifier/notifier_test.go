package notifier

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tumbleweedd/two_services_system/registration_service/internal/domain/models"
	internalErrors "github.com/tumbleweedd/two_services_system/registration_service/internal/lib/errors"
	"github.com/tumbleweedd/two_services_system/registration_service/internal/repository/memory"
	"github.com/tumbleweedd/two_services_system/registration_service/pkg/logger"
)

type countingSender struct {
	channel models.Channel
	calls   atomic.Int32
	err     error
	delay   time.Duration
}

func (s *countingSender) Channel() models.Channel { return s.channel }

func (s *countingSender) Send(ctx context.Context, _ *models.Order) error {
	s.calls.Add(1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return s.err
}

func paidOrder(t *testing.T, store *memory.Repository, orderID string) *models.Order {
	t.Helper()

	ctx := context.Background()
	require.NoError(t, store.CreatePending(ctx, &models.Order{
		OrderID:  orderID,
		Amount:   100,
		Currency: "INR",
		Registrant: models.Registrant{
			ParticipantName: "Asha",
			Phone:           "9876543210",
		},
	}))

	ok, err := store.TransitionToPaid(ctx, orderID, "TLT-AB12CD34-0F0F0F")
	require.NoError(t, err)
	require.True(t, ok)

	order, err := store.Find(ctx, orderID)
	require.NoError(t, err)

	return order
}

func TestNotifySendsOnce(t *testing.T) {
	store := memory.New()
	ticket := &countingSender{channel: models.ChannelTicket}
	n := New(logger.NewDiscard(), store, time.Minute, time.Second, ticket)

	order := paidOrder(t, store, "talent_1_ab12cd34")
	ctx := context.Background()

	res, err := n.Notify(ctx, order, models.ChannelTicket)
	require.NoError(t, err)
	require.Equal(t, Sent, res)
	require.True(t, order.TicketSent)

	fresh, err := store.Find(ctx, order.OrderID)
	require.NoError(t, err)
	require.True(t, fresh.TicketSent)

	res, err = n.Notify(ctx, fresh, models.ChannelTicket)
	require.NoError(t, err)
	require.Equal(t, Skipped, res)

	// a stale copy still carries the old flag, the claim stops it
	stale := fresh.Clone()
	stale.TicketSent = false
	res, err = n.Notify(ctx, stale, models.ChannelTicket)
	require.NoError(t, err)
	require.Equal(t, Skipped, res)

	require.EqualValues(t, 1, ticket.calls.Load())
}

func TestNotifyFailure(t *testing.T) {
	tCases := []struct {
		name        string
		sender      Sender
		unavailable bool
	}{
		{
			name:   "provider_error",
			sender: &countingSender{channel: models.ChannelTicket, err: errors.New("provider down")},
		},
		{
			name:        "unavailable",
			sender:      NewUnavailable(models.ChannelTicket, "sms disabled"),
			unavailable: true,
		},
	}

	for _, tCase := range tCases {
		t.Run(tCase.name, func(t *testing.T) {
			store := memory.New()
			n := New(logger.NewDiscard(), store, time.Minute, time.Second, tCase.sender)
			order := paidOrder(t, store, "talent_1_ab12cd34")
			ctx := context.Background()

			res, err := n.Notify(ctx, order, models.ChannelTicket)
			require.Equal(t, Failed, res)
			require.ErrorIs(t, err, internalErrors.ErrNotificationFailure)
			if tCase.unavailable {
				require.ErrorIs(t, err, internalErrors.ErrNotifierUnavailable)
			}

			fresh, err := store.Find(ctx, order.OrderID)
			require.NoError(t, err)
			require.False(t, fresh.TicketSent)
			require.Equal(t, "TLT-AB12CD34-0F0F0F", fresh.Ticket())

			failures := store.Failures()
			require.Len(t, failures, 1)
			require.Equal(t, models.ChannelTicket, failures[0].Channel)

			// the claim was released, a working sender can deliver now
			retry := New(logger.NewDiscard(), store, time.Minute, time.Second,
				&countingSender{channel: models.ChannelTicket})
			res, err = retry.Notify(ctx, fresh, models.ChannelTicket)
			require.NoError(t, err)
			require.Equal(t, Sent, res)
		})
	}
}

func TestNotifyMissingSender(t *testing.T) {
	store := memory.New()
	n := New(logger.NewDiscard(), store, time.Minute, time.Second)
	order := paidOrder(t, store, "talent_1_ab12cd34")

	res, err := n.Notify(context.Background(), order, models.ChannelReport)
	require.Equal(t, Failed, res)
	require.ErrorIs(t, err, internalErrors.ErrNotifierUnavailable)
}

func TestNotifyTimeout(t *testing.T) {
	store := memory.New()
	slow := &countingSender{channel: models.ChannelReport, delay: time.Second}
	n := New(logger.NewDiscard(), store, time.Minute, 20*time.Millisecond, slow)
	order := paidOrder(t, store, "talent_1_ab12cd34")

	res, err := n.Notify(context.Background(), order, models.ChannelReport)
	require.Equal(t, Failed, res)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Len(t, store.Failures(), 1)
}

func TestNotifyConcurrent(t *testing.T) {
	store := memory.New()
	ticket := &countingSender{channel: models.ChannelTicket, delay: 10 * time.Millisecond}
	n := New(logger.NewDiscard(), store, time.Minute, time.Second, ticket)
	order := paidOrder(t, store, "talent_1_ab12cd34")

	var wg sync.WaitGroup
	var sent atomic.Int32
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if res, err := n.Notify(context.Background(), order.Clone(), models.ChannelTicket); err == nil && res == Sent {
				sent.Add(1)
			}
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, ticket.calls.Load())
	require.EqualValues(t, 1, sent.Load())
}

func TestNotifyAllIsolatesChannels(t *testing.T) {
	store := memory.New()
	ticket := &countingSender{channel: models.ChannelTicket}
	report := &countingSender{channel: models.ChannelReport, err: errors.New("broker down")}
	n := New(logger.NewDiscard(), store, time.Minute, time.Second, ticket, report)
	order := paidOrder(t, store, "talent_1_ab12cd34")
	ctx := context.Background()

	err := n.NotifyAll(ctx, order)
	require.ErrorIs(t, err, internalErrors.ErrNotificationFailure)

	fresh, err := store.Find(ctx, order.OrderID)
	require.NoError(t, err)
	require.True(t, fresh.TicketSent)
	require.False(t, fresh.ReportSent)

	report.err = nil
	require.NoError(t, n.NotifyAll(ctx, fresh))
	require.EqualValues(t, 1, ticket.calls.Load())
	require.EqualValues(t, 2, report.calls.Load())
}
