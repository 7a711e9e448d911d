package webhook

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tumbleweedd/two_services_system/registration_service/internal/domain/models"
	"github.com/tumbleweedd/two_services_system/registration_service/internal/notifier"
	"github.com/tumbleweedd/two_services_system/registration_service/internal/repository/memory"
	"github.com/tumbleweedd/two_services_system/registration_service/internal/services/registration/webhook"
	"github.com/tumbleweedd/two_services_system/registration_service/internal/ticket"
	"github.com/tumbleweedd/two_services_system/registration_service/pkg/logger"
)

const (
	secret = "whsec_test"
	header = "X-Webhook-Signature"
)

type nopSender struct{ channel models.Channel }

func (s nopSender) Channel() models.Channel                   { return s.channel }
func (s nopSender) Send(context.Context, *models.Order) error { return nil }

func TestPayment(t *testing.T) {
	paid := []byte(`{"type":"PAYMENT_SUCCESS_WEBHOOK","data":{"order":{"order_id":"talent_1_ab12cd34","order_status":"PAID","order_amount":100,"order_currency":"INR"}}}`)
	unknown := []byte(`{"data":{"order":{"order_id":"talent_1_00000000","order_status":"PAID"}}}`)
	mismatch := []byte(`{"data":{"order":{"order_id":"talent_1_ab12cd34","order_status":"PAID","order_amount":5}}}`)
	failed := []byte(`{"data":{"order":{"order_id":"talent_1_ab12cd34","order_status":"FAILED"}}}`)

	tCases := []struct {
		name      string
		body      []byte
		signature string
		expStatus int
		expBody   string
	}{
		{name: "transitioned", body: paid, signature: webhook.Sign(secret, paid), expStatus: http.StatusOK,
			expBody: "{\"outcome\":\"transitioned\",\"status\":\"ok\"}\n"},
		{name: "ignored", body: failed, signature: webhook.Sign(secret, failed), expStatus: http.StatusOK,
			expBody: "{\"outcome\":\"ignored\",\"status\":\"ok\"}\n"},
		{name: "bad_signature", body: paid, signature: webhook.Sign("wrong", paid), expStatus: http.StatusUnauthorized},
		{name: "missing_signature", body: paid, expStatus: http.StatusUnauthorized},
		{name: "unknown_order", body: unknown, signature: webhook.Sign(secret, unknown), expStatus: http.StatusNotFound},
		{name: "amount_mismatch", body: mismatch, signature: webhook.Sign(secret, mismatch), expStatus: http.StatusUnprocessableEntity},
	}

	for _, tCase := range tCases {
		t.Run(tCase.name, func(t *testing.T) {
			store := memory.New()
			require.NoError(t, store.CreatePending(context.Background(), &models.Order{
				OrderID: "talent_1_ab12cd34", Amount: 100, Currency: "INR",
			}))

			n := notifier.New(logger.NewDiscard(), store, time.Minute, time.Second,
				nopSender{channel: models.ChannelTicket}, nopSender{channel: models.ChannelReport})
			svc := webhook.New(logger.NewDiscard(), secret, store, ticket.New(), n)
			h := NewHandler(logger.NewDiscard(), svc, header, 0)

			req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", bytes.NewReader(tCase.body))
			if tCase.signature != "" {
				req.Header.Set(header, tCase.signature)
			}
			rec := httptest.NewRecorder()

			h.Payment(rec, req)

			require.Equal(t, tCase.expStatus, rec.Code)
			if tCase.expBody != "" {
				require.Equal(t, tCase.expBody, rec.Body.String())
			}
		})
	}
}

func TestPaymentTooLarge(t *testing.T) {
	h := NewHandler(logger.NewDiscard(), nil, header, 8)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", bytes.NewReader(make([]byte, 64)))
	rec := httptest.NewRecorder()

	h.Payment(rec, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
