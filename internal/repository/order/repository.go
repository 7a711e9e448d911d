package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/tumbleweedd/two_services_system/registration_service/internal/domain/models"
	internalErrors "github.com/tumbleweedd/two_services_system/registration_service/internal/lib/errors"
	"github.com/tumbleweedd/two_services_system/registration_service/pkg/databases/postgres"
	"github.com/tumbleweedd/two_services_system/registration_service/pkg/logger"
)

type channelColumns struct {
	sent    string
	claimed string
}

// column names are never taken from input, only from this table
var columnsByChannel = map[models.Channel]channelColumns{
	models.ChannelTicket: {sent: "ticket_sent", claimed: "ticket_claimed_at"},
	models.ChannelReport: {sent: "report_sent", claimed: "report_claimed_at"},
}

const orderColumns = `order_id, status, amount, currency, participant_name, date_of_birth, category,
	guardian_name, guardian_id_code, phone, email, attributes, ticket_code, ticket_sent, report_sent,
	created_at, paid_at`

type Repository struct {
	log logger.Logger
	db  *sqlx.DB
}

func NewOrderRepository(log logger.Logger, db *sqlx.DB) *Repository {
	return &Repository{
		log: log,
		db:  db,
	}
}

func (or *Repository) CreatePending(ctx context.Context, order *models.Order) error {
	const op = "repository.order.CreatePending"

	const query = `
		INSERT INTO orders (order_id, status, amount, currency, participant_name, date_of_birth, category,
			guardian_name, guardian_id_code, phone, email, attributes)
		VALUES (:order_id, 'pending', :amount, :currency, :participant_name, :date_of_birth, :category,
			:guardian_name, :guardian_id_code, :phone, :email, :attributes)
		RETURNING created_at`

	rows, err := or.db.NamedQueryContext(ctx, query, order)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, internalErrors.ErrDuplicateOrderID)
		}
		or.log.ErrorContext(ctx, op, logger.Err(err))
		return fmt.Errorf("%s: execute statement: %w", op, err)
	}
	defer rows.Close()

	if rows.Next() {
		if err = rows.Scan(&order.CreatedAt); err != nil {
			or.log.ErrorContext(ctx, op, logger.Err(err))
			return fmt.Errorf("%s: scan result: %w", op, err)
		}
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("%s: rows: %w", op, err)
	}

	order.Status = models.OrderStatusPending

	return nil
}

func (or *Repository) Find(ctx context.Context, orderID string) (*models.Order, error) {
	const op = "repository.order.Find"

	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_id = $1`

	var order models.Order
	if err := or.db.GetContext(ctx, &order, query, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, internalErrors.ErrOrderNotFound
		}
		or.log.ErrorContext(ctx, op, logger.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &order, nil
}

// TransitionToPaid reports whether this call moved the order out of pending.
func (or *Repository) TransitionToPaid(ctx context.Context, orderID, ticketCode string) (bool, error) {
	const op = "repository.order.TransitionToPaid"

	const query = `
		UPDATE orders
			SET status = 'paid', ticket_code = $2, paid_at = now()
			WHERE order_id = $1 AND status = 'pending'`

	res, err := or.db.ExecContext(ctx, query, orderID, ticketCode)
	if err != nil {
		or.log.ErrorContext(ctx, op, logger.Err(err))
		return false, fmt.Errorf("%s: execute statement: %w", op, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: rows affected: %w", op, err)
	}

	return affected == 1, nil
}

func (or *Repository) ClaimNotification(ctx context.Context, orderID string, ch models.Channel, lease time.Duration) (bool, error) {
	const op = "repository.order.ClaimNotification"

	cols, err := columnsFor(ch)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	query := fmt.Sprintf(`
		UPDATE orders
			SET %[2]s = now()
			WHERE order_id = $1
				AND status = 'paid'
				AND %[1]s = FALSE
				AND (%[2]s IS NULL OR %[2]s < now() - make_interval(secs => $2))`,
		cols.sent, cols.claimed)

	res, err := or.db.ExecContext(ctx, query, orderID, lease.Seconds())
	if err != nil {
		or.log.ErrorContext(ctx, op, logger.Err(err))
		return false, fmt.Errorf("%s: execute statement: %w", op, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: rows affected: %w", op, err)
	}

	return affected == 1, nil
}

func (or *Repository) MarkNotified(ctx context.Context, orderID string, ch models.Channel) error {
	const op = "repository.order.MarkNotified"

	cols, err := columnsFor(ch)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := fmt.Sprintf(`UPDATE orders SET %[1]s = TRUE, %[2]s = NULL WHERE order_id = $1 AND %[1]s = FALSE`,
		cols.sent, cols.claimed)

	if _, err = or.db.ExecContext(ctx, query, orderID); err != nil {
		or.log.ErrorContext(ctx, op, logger.Err(err))
		return fmt.Errorf("%s: execute statement: %w", op, err)
	}

	return nil
}

func (or *Repository) ReleaseNotification(ctx context.Context, orderID string, ch models.Channel) error {
	const op = "repository.order.ReleaseNotification"

	cols, err := columnsFor(ch)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := fmt.Sprintf(`UPDATE orders SET %[2]s = NULL WHERE order_id = $1 AND %[1]s = FALSE`,
		cols.sent, cols.claimed)

	if _, err = or.db.ExecContext(ctx, query, orderID); err != nil {
		or.log.ErrorContext(ctx, op, logger.Err(err))
		return fmt.Errorf("%s: execute statement: %w", op, err)
	}

	return nil
}

func (or *Repository) RecordNotificationFailure(ctx context.Context, orderID string, ch models.Channel, reason string) error {
	const op = "repository.order.RecordNotificationFailure"

	const query = `INSERT INTO notification_failures (order_id, channel, reason) VALUES ($1, $2, $3)`

	if _, err := or.db.ExecContext(ctx, query, orderID, string(ch), reason); err != nil {
		or.log.ErrorContext(ctx, op, logger.Err(err))
		return fmt.Errorf("%s: execute statement: %w", op, err)
	}

	return nil
}

// PendingNotifications lists paid orders with at least one unsent channel that
// sort after the cursor, ordered by (paid_at, order_id).
func (or *Repository) PendingNotifications(ctx context.Context, after models.PendingCursor, limit int) ([]models.Order, error) {
	const op = "repository.order.PendingNotifications"

	query := `
		SELECT ` + orderColumns + `
			FROM orders
			WHERE status = 'paid' AND (NOT ticket_sent OR NOT report_sent)
				AND (paid_at, order_id) > ($1::timestamptz, $2::text)
			ORDER BY paid_at, order_id
			LIMIT $3`

	var orders []models.Order
	if err := or.db.SelectContext(ctx, &orders, query, after.PaidAt, after.OrderID, limit); err != nil {
		or.log.ErrorContext(ctx, op, logger.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return orders, nil
}

func columnsFor(ch models.Channel) (channelColumns, error) {
	cols, ok := columnsByChannel[ch]
	if !ok {
		return channelColumns{}, fmt.Errorf("unknown notification channel %q", ch)
	}
	return cols, nil
}
