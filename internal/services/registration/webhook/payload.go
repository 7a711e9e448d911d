package webhook

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/tumbleweedd/two_services_system/registration_service/internal/domain/models"
	internalErrors "github.com/tumbleweedd/two_services_system/registration_service/internal/lib/errors"
)

const paidStatus = "PAID"

type payload struct {
	Type string `json:"type"`
	Data struct {
		Order struct {
			OrderID  string   `json:"order_id"`
			Status   string   `json:"order_status"`
			Amount   *float64 `json:"order_amount"`
			Currency *string  `json:"order_currency"`
		} `json:"order"`
	} `json:"data"`
}

func decodePayload(raw []byte) (*payload, error) {
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", internalErrors.ErrInvalidPayload, err)
	}

	p.Data.Order.OrderID = strings.TrimSpace(p.Data.Order.OrderID)
	if p.Data.Order.OrderID == "" {
		return nil, fmt.Errorf("%w: order_id is empty", internalErrors.ErrInvalidPayload)
	}

	return &p, nil
}

func (p *payload) isPaid() bool {
	return strings.EqualFold(strings.TrimSpace(p.Data.Order.Status), paidStatus)
}

// matches compares the reported money with the stored order. Absent fields are
// not compared; the gateway reports amounts in major units.
func (p *payload) matches(order *models.Order) bool {
	if a := p.Data.Order.Amount; a != nil && math.Abs(*a-float64(order.Amount)) > 0.005 {
		return false
	}
	if c := p.Data.Order.Currency; c != nil && !strings.EqualFold(strings.TrimSpace(*c), order.Currency) {
		return false
	}
	return true
}
