package webhook

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tumbleweedd/two_services_system/registration_service/internal/domain/models"
	internalErrors "github.com/tumbleweedd/two_services_system/registration_service/internal/lib/errors"
	"github.com/tumbleweedd/two_services_system/registration_service/internal/notifier"
	"github.com/tumbleweedd/two_services_system/registration_service/internal/repository/memory"
	"github.com/tumbleweedd/two_services_system/registration_service/internal/ticket"
	"github.com/tumbleweedd/two_services_system/registration_service/pkg/logger"
)

const (
	testSecret  = "whsec_test"
	testOrderID = "talent_1700000000000_ab12cd34"
)

type countingSender struct {
	channel models.Channel
	calls   atomic.Int32
	err     error
}

func (s *countingSender) Channel() models.Channel { return s.channel }

func (s *countingSender) Send(context.Context, *models.Order) error {
	s.calls.Add(1)
	return s.err
}

type fixture struct {
	svc    *Service
	store  *memory.Repository
	ticket *countingSender
	report *countingSender
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.New()
	require.NoError(t, store.CreatePending(context.Background(), &models.Order{
		OrderID:    testOrderID,
		Amount:     100,
		Currency:   "INR",
		Registrant: models.Registrant{ParticipantName: "Asha", Phone: "9876543210"},
	}))

	f := &fixture{
		store:  store,
		ticket: &countingSender{channel: models.ChannelTicket},
		report: &countingSender{channel: models.ChannelReport},
	}
	n := notifier.New(logger.NewDiscard(), store, time.Minute, time.Second, f.ticket, f.report)
	f.svc = New(logger.NewDiscard(), testSecret, store, ticket.New(), n)

	return f
}

func body(orderID, status string, amount float64, currency string) []byte {
	return []byte(fmt.Sprintf(
		`{"type":"PAYMENT_SUCCESS_WEBHOOK","data":{"order":{"order_id":%q,"order_status":%q,"order_amount":%v,"order_currency":%q}}}`,
		orderID, status, amount, currency))
}

func (f *fixture) order(t *testing.T) *models.Order {
	t.Helper()

	order, err := f.store.Find(context.Background(), testOrderID)
	require.NoError(t, err)
	return order
}

func TestHandlePaidTransitionsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	raw := body(testOrderID, "PAID", 100, "INR")

	outcome, err := f.svc.Handle(ctx, raw, Sign(testSecret, raw))
	require.NoError(t, err)
	require.Equal(t, Transitioned, outcome)

	paid := f.order(t)
	require.True(t, paid.IsPaid())
	require.Regexp(t, `^TLT-AB12CD34-[0-9A-F]{6}$`, paid.Ticket())
	require.True(t, paid.TicketSent)
	require.True(t, paid.ReportSent)

	// replay of the same delivery
	outcome, err = f.svc.Handle(ctx, raw, Sign(testSecret, raw))
	require.NoError(t, err)
	require.Equal(t, AlreadyProcessed, outcome)

	require.Equal(t, paid.Ticket(), f.order(t).Ticket())
	require.EqualValues(t, 1, f.ticket.calls.Load())
	require.EqualValues(t, 1, f.report.calls.Load())
}

func TestHandleRejected(t *testing.T) {
	paid := body(testOrderID, "PAID", 100, "INR")

	tCases := []struct {
		name      string
		raw       []byte
		signature string
		expErr    error
	}{
		{name: "missing_signature", raw: paid, signature: "", expErr: internalErrors.ErrUnauthenticatedWebhook},
		{name: "wrong_secret", raw: paid, signature: Sign("other", paid), expErr: internalErrors.ErrUnauthenticatedWebhook},
		{name: "not_base64", raw: paid, signature: "%%%", expErr: internalErrors.ErrUnauthenticatedWebhook},
		{name: "unknown_order", raw: body("talent_1_deadbeef", "PAID", 100, "INR"), expErr: internalErrors.ErrOrderNotFound},
		{name: "amount_mismatch", raw: body(testOrderID, "PAID", 1, "INR"), expErr: internalErrors.ErrAmountMismatch},
		{name: "currency_mismatch", raw: body(testOrderID, "PAID", 100, "USD"), expErr: internalErrors.ErrAmountMismatch},
		{name: "malformed_json", raw: []byte(`{"data":`), expErr: internalErrors.ErrInvalidPayload},
		{name: "empty_order_id", raw: body("", "PAID", 100, "INR"), expErr: internalErrors.ErrInvalidPayload},
	}

	for _, tCase := range tCases {
		t.Run(tCase.name, func(t *testing.T) {
			f := newFixture(t)

			signature := tCase.signature
			if signature == "" && !errors.Is(tCase.expErr, internalErrors.ErrUnauthenticatedWebhook) {
				signature = Sign(testSecret, tCase.raw)
			}

			_, err := f.svc.Handle(context.Background(), tCase.raw, signature)
			require.ErrorIs(t, err, tCase.expErr)

			order := f.order(t)
			require.False(t, order.IsPaid())
			require.Nil(t, order.TicketCode)
			require.Zero(t, f.ticket.calls.Load())
		})
	}
}

func TestHandleIgnoresOtherStatuses(t *testing.T) {
	tCases := []struct {
		name   string
		status string
	}{
		{name: "failed", status: "FAILED"},
		{name: "active", status: "ACTIVE"},
		{name: "empty", status: ""},
	}

	for _, tCase := range tCases {
		t.Run(tCase.name, func(t *testing.T) {
			f := newFixture(t)
			raw := body(testOrderID, tCase.status, 100, "INR")

			outcome, err := f.svc.Handle(context.Background(), raw, Sign(testSecret, raw))
			require.NoError(t, err)
			require.Equal(t, Ignored, outcome)
			require.False(t, f.order(t).IsPaid())
		})
	}
}

func TestHandleStatusCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	raw := body(testOrderID, "paid", 100, "inr")

	outcome, err := f.svc.Handle(context.Background(), raw, Sign(testSecret, raw))
	require.NoError(t, err)
	require.Equal(t, Transitioned, outcome)
}

func TestHandleNotificationFailureKeepsPayment(t *testing.T) {
	f := newFixture(t)
	f.ticket.err = errors.New("sms provider down")
	raw := body(testOrderID, "PAID", 100, "INR")

	outcome, err := f.svc.Handle(context.Background(), raw, Sign(testSecret, raw))
	require.NoError(t, err)
	require.Equal(t, Transitioned, outcome)

	order := f.order(t)
	require.True(t, order.IsPaid())
	require.NotEmpty(t, order.Ticket())
	require.False(t, order.TicketSent)
	require.True(t, order.ReportSent)
	require.Len(t, f.store.Failures(), 1)

	// the replay delivers what was left unsent, nothing more
	f.ticket.err = nil
	outcome, err = f.svc.Handle(context.Background(), raw, Sign(testSecret, raw))
	require.NoError(t, err)
	require.Equal(t, AlreadyProcessed, outcome)
	require.True(t, f.order(t).TicketSent)
	require.EqualValues(t, 2, f.ticket.calls.Load())
	require.EqualValues(t, 1, f.report.calls.Load())
}

func TestHandleConcurrentDeliveries(t *testing.T) {
	f := newFixture(t)
	raw := body(testOrderID, "PAID", 100, "INR")
	signature := Sign(testSecret, raw)

	const deliveries = 16

	var (
		wg           sync.WaitGroup
		transitioned atomic.Int32
		processed    atomic.Int32
		failed       atomic.Int32
	)
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := f.svc.Handle(context.Background(), raw, signature)
			switch {
			case err != nil:
				failed.Add(1)
			case outcome == Transitioned:
				transitioned.Add(1)
			case outcome == AlreadyProcessed:
				processed.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Zero(t, failed.Load())
	require.EqualValues(t, 1, transitioned.Load())
	require.EqualValues(t, deliveries-1, processed.Load())

	order := f.order(t)
	require.True(t, order.IsPaid())
	require.NotEmpty(t, order.Ticket())
	require.EqualValues(t, 1, f.ticket.calls.Load())
	require.EqualValues(t, 1, f.report.calls.Load())
}

func TestVerify(t *testing.T) {
	raw := []byte(`{"data":{}}`)

	require.True(t, Verify(testSecret, raw, Sign(testSecret, raw)))
	require.False(t, Verify(testSecret, append(raw, ' '), Sign(testSecret, raw)))
	require.False(t, Verify("", raw, Sign("", raw)))
}

type recordingIssuer struct {
	mu     sync.Mutex
	issuer *ticket.Issuer
	codes  []string
}

func (r *recordingIssuer) Issue(orderID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	code := r.issuer.Issue(orderID)
	r.codes = append(r.codes, code)
	return code
}

// staleStore answers the next Find with a pending snapshot, as a delivery
// that read the order just before a concurrent one committed would see it.
type staleStore struct {
	*memory.Repository
	stale atomic.Bool
}

func (s *staleStore) Find(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.Repository.Find(ctx, orderID)
	if err != nil || !s.stale.CompareAndSwap(true, false) {
		return order, err
	}
	order.Status = models.OrderStatusPending
	order.TicketCode = nil
	order.PaidAt = nil
	return order, nil
}

func TestHandleLosingRaceKeepsWinnerCode(t *testing.T) {
	f := newFixture(t)
	store := &staleStore{Repository: f.store}
	issuer := &recordingIssuer{issuer: ticket.New()}
	n := notifier.New(logger.NewDiscard(), f.store, time.Minute, time.Second, f.ticket, f.report)
	svc := New(logger.NewDiscard(), testSecret, store, issuer, n)

	raw := body(testOrderID, "PAID", 100, "INR")
	signature := Sign(testSecret, raw)

	outcome, err := svc.Handle(context.Background(), raw, signature)
	require.NoError(t, err)
	require.Equal(t, Transitioned, outcome)
	winner := f.order(t).Ticket()

	store.stale.Store(true)
	outcome, err = svc.Handle(context.Background(), raw, signature)
	require.NoError(t, err)
	require.Equal(t, AlreadyProcessed, outcome)

	require.Len(t, issuer.codes, 2)
	require.Equal(t, issuer.codes[0], winner)
	require.Equal(t, winner, f.order(t).Ticket(), "a lost race never overwrites the stored code")
	require.EqualValues(t, 1, f.ticket.calls.Load())
}
