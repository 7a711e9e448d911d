package status

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tumbleweedd/two_services_system/registration_service/internal/domain/models"
	httpresponse "github.com/tumbleweedd/two_services_system/registration_service/internal/lib/http"
	"github.com/tumbleweedd/two_services_system/registration_service/pkg/logger"
)

type statusGetter interface {
	Status(ctx context.Context, orderID string) (*models.Order, error)
}

type Handler struct {
	log logger.Logger

	statusGetter statusGetter
}

func NewHandler(log logger.Logger, statusGetter statusGetter) *Handler {
	return &Handler{
		log:          log,
		statusGetter: statusGetter,
	}
}

type StatusResponse struct {
	OrderID    string             `json:"order_id"`
	Status     models.OrderStatus `json:"status"`
	TicketCode string             `json:"ticket_code,omitempty"`
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	const op = "delivery.http.status.Status"

	order, err := h.statusGetter.Status(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		status, writeErr := httpresponse.WriteError(w, err)
		if status >= http.StatusInternalServerError {
			h.log.ErrorContext(r.Context(), op, logger.Err(err))
		}
		if writeErr != nil {
			h.log.ErrorContext(r.Context(), op, logger.Err(writeErr))
		}
		return
	}

	if err = httpresponse.JSON(w, http.StatusOK, StatusResponse{
		OrderID:    order.OrderID,
		Status:     order.Status,
		TicketCode: order.Ticket(),
	}); err != nil {
		h.log.ErrorContext(r.Context(), op, logger.Err(err))
	}
}
