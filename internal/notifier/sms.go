package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/template"
	"time"

	"github.com/tumbleweedd/two_services_system/registration_service/internal/domain/models"
)

type SMSConfig struct {
	BaseURL  string
	APIKey   string
	Sender   string
	Template string
	Timeout  time.Duration
}

// SMSSender texts the ticket code to the registrant's phone through an HTTP provider.
type SMSSender struct {
	cfg      SMSConfig
	client   *http.Client
	template *template.Template
}

type smsMessage struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Message string `json:"message"`
}

type ticketView struct {
	OrderID         string
	ParticipantName string
	GuardianName    string
	Category        string
	TicketCode      string
}

func NewSMSSender(cfg SMSConfig, client *http.Client) (*SMSSender, error) {
	const op = "notifier.NewSMSSender"

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%s: base url is empty", op)
	}

	tmpl, err := template.New("ticket").Option("missingkey=error").Parse(cfg.Template)
	if err != nil {
		return nil, fmt.Errorf("%s: parse template: %w", op, err)
	}

	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &SMSSender{cfg: cfg, client: client, template: tmpl}, nil
}

func (s *SMSSender) Channel() models.Channel {
	return models.ChannelTicket
}

func (s *SMSSender) Send(ctx context.Context, order *models.Order) error {
	const op = "notifier.sms.Send"

	if order.Ticket() == "" {
		return fmt.Errorf("%s: order %s has no ticket code", op, order.OrderID)
	}

	var text bytes.Buffer
	if err := s.template.Execute(&text, ticketView{
		OrderID:         order.OrderID,
		ParticipantName: order.ParticipantName,
		GuardianName:    order.GuardianName,
		Category:        order.Category,
		TicketCode:      order.Ticket(),
	}); err != nil {
		return fmt.Errorf("%s: render message: %w", op, err)
	}

	body, err := json.Marshal(smsMessage{To: order.Phone, From: s.cfg.Sender, Message: text.String()})
	if err != nil {
		return fmt.Errorf("%s: marshal message: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: do request: %w", op, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s: provider responded %d", op, resp.StatusCode)
	}

	return nil
}
