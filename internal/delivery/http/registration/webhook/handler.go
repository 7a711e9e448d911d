package webhook

import (
	"context"
	"errors"
	"io"
	"net/http"

	httpresponse "github.com/tumbleweedd/two_services_system/registration_service/internal/lib/http"
	"github.com/tumbleweedd/two_services_system/registration_service/internal/services/registration/webhook"
	"github.com/tumbleweedd/two_services_system/registration_service/pkg/logger"
)

const defaultMaxBodyBytes = 1 << 20

type callbackHandler interface {
	Handle(ctx context.Context, rawBody []byte, signature string) (webhook.Outcome, error)
}

type Handler struct {
	log logger.Logger

	callbackHandler callbackHandler
	signatureHeader string
	maxBodyBytes    int64
}

func NewHandler(log logger.Logger, callbackHandler callbackHandler, signatureHeader string, maxBodyBytes int64) *Handler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}

	return &Handler{
		log:             log,
		callbackHandler: callbackHandler,
		signatureHeader: signatureHeader,
		maxBodyBytes:    maxBodyBytes,
	}
}

// Payment receives gateway callbacks. The body is read raw because the
// signature covers the exact bytes sent.
func (h *Handler) Payment(w http.ResponseWriter, r *http.Request) {
	const op = "delivery.http.webhook.Payment"

	rawBody, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			_ = httpresponse.Error(w, http.StatusRequestEntityTooLarge, "payload too large", nil)
			return
		}
		h.log.WarnContext(r.Context(), op, logger.Err(err))
		_ = httpresponse.Error(w, http.StatusBadRequest, "unreadable body", nil)
		return
	}

	outcome, err := h.callbackHandler.Handle(r.Context(), rawBody, r.Header.Get(h.signatureHeader))
	if err != nil {
		status, writeErr := httpresponse.WriteError(w, err)
		if status >= http.StatusInternalServerError {
			h.log.ErrorContext(r.Context(), op, logger.Int("status", status), logger.Err(err))
		}
		if writeErr != nil {
			h.log.ErrorContext(r.Context(), op, logger.Err(writeErr))
		}
		return
	}

	if err = httpresponse.JSON(w, http.StatusOK, httpresponse.H{
		"status":  "ok",
		"outcome": outcome.String(),
	}); err != nil {
		h.log.ErrorContext(r.Context(), op, logger.Err(err))
	}
}
