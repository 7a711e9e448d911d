package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
	OrderStatusPaid    OrderStatus = "paid"
)

// Channel names one independently tracked notification side effect.
type Channel string

const (
	ChannelTicket Channel = "ticket"
	ChannelReport Channel = "report"
)

var Channels = []Channel{ChannelTicket, ChannelReport}

type Price struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Attributes holds free-form registrant answers, stored as JSONB.
type Attributes map[string]string

func (a Attributes) Value() (driver.Value, error) {
	if a == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(a)
}

func (a *Attributes) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*a = Attributes{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("attributes: unsupported type %T", src)
	}
	return json.Unmarshal(raw, a)
}

type Registrant struct {
	ParticipantName string     `json:"participant_name" db:"participant_name"`
	DateOfBirth     string     `json:"date_of_birth" db:"date_of_birth"`
	Category        string     `json:"category" db:"category"`
	GuardianName    string     `json:"guardian_name" db:"guardian_name"`
	GuardianIDCode  string     `json:"guardian_id_code" db:"guardian_id_code"`
	Phone           string     `json:"phone" db:"phone"`
	Email           string     `json:"email,omitempty" db:"email"`
	Attributes      Attributes `json:"attributes,omitempty" db:"attributes"`
}

type Order struct {
	OrderID  string      `json:"order_id" db:"order_id"`
	Status   OrderStatus `json:"status" db:"status"`
	Amount   int64       `json:"amount" db:"amount"`
	Currency string      `json:"currency" db:"currency"`

	Registrant

	TicketCode *string    `json:"ticket_code,omitempty" db:"ticket_code"`
	TicketSent bool       `json:"ticket_sent" db:"ticket_sent"`
	ReportSent bool       `json:"report_sent" db:"report_sent"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	PaidAt     *time.Time `json:"paid_at,omitempty" db:"paid_at"`
}

func (o *Order) IsPaid() bool {
	return o.Status == OrderStatusPaid
}

func (o *Order) Ticket() string {
	if o.TicketCode == nil {
		return ""
	}
	return *o.TicketCode
}

func (o *Order) NotificationSent(ch Channel) bool {
	switch ch {
	case ChannelTicket:
		return o.TicketSent
	case ChannelReport:
		return o.ReportSent
	default:
		return false
	}
}

func (o *Order) SetNotificationSent(ch Channel) {
	switch ch {
	case ChannelTicket:
		o.TicketSent = true
	case ChannelReport:
		o.ReportSent = true
	}
}

// Clone returns a deep copy so callers never share mutable state.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}

	c := *o
	if o.TicketCode != nil {
		code := *o.TicketCode
		c.TicketCode = &code
	}
	if o.PaidAt != nil {
		paidAt := *o.PaidAt
		c.PaidAt = &paidAt
	}
	if o.Attributes != nil {
		c.Attributes = make(Attributes, len(o.Attributes))
		for k, v := range o.Attributes {
			c.Attributes[k] = v
		}
	}

	return &c
}

// PendingCursor is the keyset position of the last order read from the
// pending-notification backlog. The zero value starts from the beginning.
type PendingCursor struct {
	PaidAt  time.Time
	OrderID string
}

// Precedes reports whether c sorts strictly before o in (paid_at, order_id) order.
func (c PendingCursor) Precedes(o *Order) bool {
	var paidAt time.Time
	if o.PaidAt != nil {
		paidAt = *o.PaidAt
	}
	if !paidAt.Equal(c.PaidAt) {
		return paidAt.After(c.PaidAt)
	}
	return o.OrderID > c.OrderID
}

// CursorOf returns the cursor positioned at o.
func CursorOf(o *Order) PendingCursor {
	c := PendingCursor{OrderID: o.OrderID}
	if o.PaidAt != nil {
		c.PaidAt = *o.PaidAt
	}
	return c
}
