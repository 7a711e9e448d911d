package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"github.com/tumbleweedd/two_services_system/registration_service/internal/domain/models"
)

const reportEventType = "registration.paid"

// ReportSender publishes the paid registration to the operator desk topic.
type ReportSender struct {
	producer sarama.SyncProducer
	topic    string
}

type reportEvent struct {
	Type       string            `json:"type"`
	OrderID    string            `json:"order_id"`
	TicketCode string            `json:"ticket_code"`
	Amount     int64             `json:"amount"`
	Currency   string            `json:"currency"`
	Registrant models.Registrant `json:"registrant"`
	PaidAt     *time.Time        `json:"paid_at,omitempty"`
}

func NewReportSender(producer sarama.SyncProducer, topic string) *ReportSender {
	return &ReportSender{producer: producer, topic: topic}
}

func (s *ReportSender) Channel() models.Channel {
	return models.ChannelReport
}

func (s *ReportSender) Send(ctx context.Context, order *models.Order) error {
	const op = "notifier.report.Send"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	payload, err := json.Marshal(reportEvent{
		Type:       reportEventType,
		OrderID:    order.OrderID,
		TicketCode: order.Ticket(),
		Amount:     order.Amount,
		Currency:   order.Currency,
		Registrant: order.Registrant,
		PaidAt:     order.PaidAt,
	})
	if err != nil {
		return fmt.Errorf("%s: marshal event: %w", op, err)
	}

	if _, _, err = s.producer.SendMessage(&sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(order.OrderID),
		Value: sarama.ByteEncoder(payload),
	}); err != nil {
		return fmt.Errorf("%s: send message: %w", op, err)
	}

	return nil
}
