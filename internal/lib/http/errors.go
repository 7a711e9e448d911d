package httpresponse

import (
	"errors"
	"net/http"

	internalErrors "github.com/tumbleweedd/two_services_system/registration_service/internal/lib/errors"
)

const gatewayFailureMessage = "payment could not be started, you have not been charged; please try again"

// StatusFor maps the error taxonomy onto a status code and response body.
func StatusFor(err error) (int, H) {
	var vErr *internalErrors.ValidationError
	if errors.As(err, &vErr) {
		return http.StatusBadRequest, H{"error": vErr.Error(), "field": vErr.Field}
	}

	switch {
	case errors.Is(err, internalErrors.ErrRateLimited):
		return http.StatusTooManyRequests, H{"error": internalErrors.ErrRateLimited.Error()}
	case errors.Is(err, internalErrors.ErrGateway):
		return http.StatusBadGateway, H{"error": gatewayFailureMessage, "charged": false}
	case errors.Is(err, internalErrors.ErrUnauthenticatedWebhook):
		return http.StatusUnauthorized, H{"error": internalErrors.ErrUnauthenticatedWebhook.Error()}
	case errors.Is(err, internalErrors.ErrInvalidPayload):
		return http.StatusBadRequest, H{"error": internalErrors.ErrInvalidPayload.Error()}
	case errors.Is(err, internalErrors.ErrOrderNotFound):
		return http.StatusNotFound, H{"error": internalErrors.ErrOrderNotFound.Error()}
	case errors.Is(err, internalErrors.ErrAmountMismatch):
		return http.StatusUnprocessableEntity, H{"error": internalErrors.ErrAmountMismatch.Error()}
	default:
		return http.StatusInternalServerError, H{"error": "internal error"}
	}
}

func WriteError(w http.ResponseWriter, err error) (int, error) {
	status, body := StatusFor(err)
	return status, JSON(w, status, body)
}
