package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/tumbleweedd/two_services_system/registration_service/internal/config"
	"github.com/tumbleweedd/two_services_system/registration_service/internal/domain/models"
	"github.com/tumbleweedd/two_services_system/registration_service/internal/notifier"
	"github.com/tumbleweedd/two_services_system/registration_service/internal/repository/order"
	"github.com/tumbleweedd/two_services_system/registration_service/pkg/brokers/kafka/producer"
	"github.com/tumbleweedd/two_services_system/registration_service/pkg/databases/postgres"
	"github.com/tumbleweedd/two_services_system/registration_service/pkg/logger"
)

// Backend is the storage and notification stack shared by the service and the CLI.
type Backend struct {
	DB       *postgres.PgDB
	Orders   *order.Repository
	Notifier *notifier.Notifier

	producer sarama.SyncProducer
}

func NewBackend(ctx context.Context, log logger.Logger, cfg *config.Config) (*Backend, error) {
	const op = "app.NewBackend"

	db, err := postgres.NewPostgresDB(ctx, log, cfg.Postgres.DSN(), cfg.Postgres.Pool())
	if err != nil {
		return nil, fmt.Errorf("%s: connect to postgres: %w", op, err)
	}

	b := &Backend{
		DB:     db,
		Orders: order.NewOrderRepository(log, db.GetDB()),
	}

	ticketSender, err := setupTicketSender(log, cfg.SMS)
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	reportSender, syncProducer := setupReportSender(log, cfg.Kafka)
	b.producer = syncProducer

	b.Notifier = notifier.New(log, b.Orders, cfg.Notifier.Lease, cfg.Notifier.Timeout, ticketSender, reportSender)

	return b, nil
}

func (b *Backend) Close() error {
	var errs []error
	if b.producer != nil {
		errs = append(errs, b.producer.Close())
	}
	if b.DB != nil {
		errs = append(errs, b.DB.Close())
	}
	return errors.Join(errs...)
}

func setupTicketSender(log logger.Logger, cfg config.SMSConfig) (notifier.Sender, error) {
	if !cfg.Enabled {
		log.Warn("sms provider disabled", logger.Event(notifier.EventUnavailable))
		return notifier.NewUnavailable(models.ChannelTicket, "sms provider disabled"), nil
	}

	return notifier.NewSMSSender(notifier.SMSConfig{
		BaseURL:  cfg.BaseURL,
		APIKey:   cfg.APIKey,
		Sender:   cfg.Sender,
		Template: cfg.Template,
		Timeout:  cfg.Timeout,
	}, nil)
}

// an unreachable broker at startup degrades the report channel, the service still starts
func setupReportSender(log logger.Logger, cfg config.KafkaConfig) (notifier.Sender, sarama.SyncProducer) {
	if !cfg.Enabled {
		log.Warn("kafka report channel disabled", logger.Event(notifier.EventUnavailable))
		return notifier.NewUnavailable(models.ChannelReport, "kafka disabled"), nil
	}

	syncProducer, err := producer.NewSyncProducer(cfg.BrokerList)
	if err != nil {
		log.Error("kafka producer unavailable", logger.Event(notifier.EventUnavailable), logger.Err(err))
		return notifier.NewUnavailable(models.ChannelReport, "kafka producer unavailable"), nil
	}

	return notifier.NewReportSender(syncProducer, cfg.ReportTopic), syncProducer
}
