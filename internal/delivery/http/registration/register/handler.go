package register

import (
	"context"
	"encoding/json"
	"net"
	"net/http"

	httpresponse "github.com/tumbleweedd/two_services_system/registration_service/internal/lib/http"
	"github.com/tumbleweedd/two_services_system/registration_service/internal/services/registration/register"
	"github.com/tumbleweedd/two_services_system/registration_service/pkg/logger"
)

const maxBodyBytes = 64 << 10

type registerer interface {
	Register(ctx context.Context, identity string, sub register.Submission) (*register.Result, error)
}

type Handler struct {
	log logger.Logger

	registerer registerer
}

func NewHandler(log logger.Logger, registerer registerer) *Handler {
	return &Handler{
		log:        log,
		registerer: registerer,
	}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	const op = "delivery.http.register.Register"

	var request RegistrationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&request); err != nil {
		h.log.WarnContext(r.Context(), op, logger.Err(err))
		_ = httpresponse.Error(w, http.StatusBadRequest, "request body must be a JSON registration", nil)
		return
	}

	result, err := h.registerer.Register(r.Context(), ClientIdentity(r), request.toDTO())
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

	if err = httpresponse.JSON(w, http.StatusCreated, result); err != nil {
		h.log.ErrorContext(r.Context(), op, logger.Err(err))
	}
}

// ClientIdentity is the caller address the limiter keys on. RemoteAddr has
// already been rewritten by the RealIP middleware when a proxy is in front.
func ClientIdentity(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
