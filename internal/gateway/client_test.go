package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	internalErrors "github.com/tumbleweedd/two_services_system/registration_service/internal/lib/errors"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{
		BaseURL:      srv.URL + "/",
		ClientID:     "client",
		ClientSecret: "secret",
		APIVersion:   "2023-08-01",
		ReturnURL:    "https://site.test/success?order_id={order_id}",
		NotifyURL:    "https://api.site.test/webhooks/payment",
		Timeout:      time.Second,
	}, nil)
	require.NoError(t, err)

	return c
}

func TestCreateOrder(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders", r.URL.Path)
		assert.Equal(t, "client", r.Header.Get("x-client-id"))
		assert.Equal(t, "talent_1_ab12cd34", r.Header.Get("x-idempotency-key"))

		var body createOrderBody
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "talent_1_ab12cd34", body.OrderID)
		assert.Equal(t, float64(100), body.OrderAmount)
		assert.Equal(t, "INR", body.OrderCurrency)
		assert.Equal(t, "https://site.test/success?order_id=talent_1_ab12cd34", body.Meta.ReturnURL)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"payment_session_id":"session_abc","cf_order_id":"42"}`))
	})

	checkout, err := c.CreateOrder(context.Background(), CheckoutRequest{
		OrderID:  "talent_1_ab12cd34",
		Amount:   100,
		Currency: "INR",
		Customer: Customer{ID: "9876543210", Name: "Meera Rao", Phone: "9876543210"},
	})
	require.NoError(t, err)
	require.Equal(t, "session_abc", checkout.Handle)
	require.Equal(t, "42", checkout.GatewayOrderID)
}

func TestCreateOrderError(t *testing.T) {
	tCases := []struct {
		name       string
		handler    http.HandlerFunc
		expStatus  int
		expMessage string
	}{
		{
			name: "server_error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte(`{"message":"upstream unavailable","code":"gateway_down"}`))
			},
			expStatus:  http.StatusBadGateway,
			expMessage: "upstream unavailable",
		},
		{
			name: "no_session",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"cf_order_id":"42"}`))
			},
			expStatus:  http.StatusOK,
			expMessage: "response has no payment session",
		},
		{
			name: "unreadable_body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`not json`))
			},
			expStatus: http.StatusOK,
		},
	}

	for _, tCase := range tCases {
		t.Run(tCase.name, func(t *testing.T) {
			c := newTestClient(t, tCase.handler)

			_, err := c.CreateOrder(context.Background(), CheckoutRequest{OrderID: "talent_1_x", Amount: 100, Currency: "INR"})
			require.ErrorIs(t, err, internalErrors.ErrGateway)

			var gwErr *internalErrors.GatewayError
			require.ErrorAs(t, err, &gwErr)
			require.Equal(t, tCase.expStatus, gwErr.StatusCode)
			if tCase.expMessage != "" {
				require.Equal(t, tCase.expMessage, gwErr.Message)
			}
		})
	}
}

func TestCreateOrderUnreachable(t *testing.T) {
	c, err := NewClient(Config{BaseURL: "http://127.0.0.1:1", Timeout: 500 * time.Millisecond}, nil)
	require.NoError(t, err)

	_, err = c.CreateOrder(context.Background(), CheckoutRequest{OrderID: "talent_1_x", Amount: 100, Currency: "INR"})
	require.ErrorIs(t, err, internalErrors.ErrGateway)
}

func TestCreateOrderBadBaseURL(t *testing.T) {
	c, err := NewClient(Config{BaseURL: "http://gate\x7fway.test"}, nil)
	require.NoError(t, err)

	_, err = c.CreateOrder(context.Background(), CheckoutRequest{OrderID: "talent_1_x", Amount: 100, Currency: "INR"})
	require.ErrorIs(t, err, internalErrors.ErrGateway)

	var gErr *internalErrors.GatewayError
	require.True(t, errors.As(err, &gErr))
	require.Zero(t, gErr.StatusCode)
	require.Contains(t, gErr.Message, "build request")
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "  "}, nil)
	require.Error(t, err)
}
