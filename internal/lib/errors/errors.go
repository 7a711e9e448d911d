package errors

import (
	"errors"
	"fmt"
)

var (
	ErrValidation             = errors.New("validation failed")
	ErrRateLimited            = errors.New("too many requests, try again later")
	ErrGateway                = errors.New("payment gateway error")
	ErrUnauthenticatedWebhook = errors.New("webhook signature missing or invalid")
	ErrInvalidPayload         = errors.New("invalid webhook payload")
	ErrOrderNotFound          = errors.New("order not found")
	ErrAlreadyProcessed       = errors.New("order already processed")
	ErrAmountMismatch         = errors.New("webhook amount does not match order")
	ErrNotificationFailure    = errors.New("notification failed")
	ErrNotifierUnavailable    = errors.New("notifier unavailable")
	ErrDuplicateOrderID       = errors.New("order id already exists")
)

// ValidationError names the submission field that failed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", ErrGateway, e.Message)
	}
	return fmt.Sprintf("%s: status %d: %s", ErrGateway, e.StatusCode, e.Message)
}

func (e *GatewayError) Unwrap() error {
	return ErrGateway
}
