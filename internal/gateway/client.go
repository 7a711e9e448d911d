// Package gateway talks to the hosted payment gateway that owns checkout.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	internalErrors "github.com/tumbleweedd/two_services_system/registration_service/internal/lib/errors"
)

const orderIDPlaceholder = "{order_id}"

type Customer struct {
	ID    string `json:"customer_id"`
	Name  string `json:"customer_name"`
	Phone string `json:"customer_phone"`
	Email string `json:"customer_email,omitempty"`
}

type CheckoutRequest struct {
	OrderID  string
	Amount   int64
	Currency string
	Customer Customer
}

// Checkout is what the registrant needs to finish paying out of band.
type Checkout struct {
	Handle         string `json:"payment_session_id"`
	GatewayOrderID string `json:"cf_order_id"`
}

type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	APIVersion   string
	ReturnURL    string
	NotifyURL    string
	Timeout      time.Duration
}

type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return nil, errors.New("gateway base URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{cfg: cfg, httpClient: httpClient}, nil
}

type orderMeta struct {
	ReturnURL string `json:"return_url,omitempty"`
	NotifyURL string `json:"notify_url,omitempty"`
}

type createOrderBody struct {
	OrderID       string    `json:"order_id"`
	OrderAmount   float64   `json:"order_amount"`
	OrderCurrency string    `json:"order_currency"`
	Customer      Customer  `json:"customer_details"`
	Meta          orderMeta `json:"order_meta"`
}

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (c *Client) CreateOrder(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	payload, err := json.Marshal(createOrderBody{
		OrderID:       req.OrderID,
		OrderAmount:   float64(req.Amount),
		OrderCurrency: req.Currency,
		Customer:      req.Customer,
		Meta: orderMeta{
			ReturnURL: strings.ReplaceAll(c.cfg.ReturnURL, orderIDPlaceholder, req.OrderID),
			NotifyURL: c.cfg.NotifyURL,
		},
	})
	if err != nil {
		return nil, &internalErrors.GatewayError{Message: "marshal order: " + err.Error()}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, &internalErrors.GatewayError{Message: "build request: " + err.Error()}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("x-client-id", c.cfg.ClientID)
	httpReq.Header.Set("x-client-secret", c.cfg.ClientSecret)
	httpReq.Header.Set("x-api-version", c.cfg.APIVersion)
	httpReq.Header.Set("x-idempotency-key", req.OrderID)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &internalErrors.GatewayError{Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &internalErrors.GatewayError{StatusCode: resp.StatusCode, Message: "read response: " + err.Error()}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &internalErrors.GatewayError{StatusCode: resp.StatusCode, Message: errorMessage(body, resp.Status)}
	}

	var checkout Checkout
	if err = json.Unmarshal(body, &checkout); err != nil {
		return nil, &internalErrors.GatewayError{StatusCode: resp.StatusCode, Message: "decode response: " + err.Error()}
	}
	if strings.TrimSpace(checkout.Handle) == "" {
		return nil, &internalErrors.GatewayError{StatusCode: resp.StatusCode, Message: "response has no payment session"}
	}

	return &checkout, nil
}

func errorMessage(body []byte, fallback string) string {
	var e errorBody
	if err := json.Unmarshal(body, &e); err != nil {
		return fallback
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		return msg
	}
	return fallback
}
