package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/tumbleweedd/two_services_system/registration_service/internal/domain/models"
	"github.com/tumbleweedd/two_services_system/registration_service/pkg/logger"
)

const pricingKey = "pricing"

// Repository reads pricing maintained by the admin console at call time.
type Repository struct {
	log      logger.Logger
	db       *sqlx.DB
	fallback models.Price
}

func New(log logger.Logger, db *sqlx.DB, fallback models.Price) *Repository {
	return &Repository{
		log:      log,
		db:       db,
		fallback: fallback,
	}
}

func (r *Repository) CurrentPrice(ctx context.Context) (models.Price, error) {
	const op = "repository.settings.CurrentPrice"

	var raw []byte
	err := r.db.GetContext(ctx, &raw, `SELECT value FROM settings WHERE key = $1`, pricingKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r.fallback, nil
		}
		r.log.ErrorContext(ctx, op, logger.Err(err))
		return models.Price{}, fmt.Errorf("%s: %w", op, err)
	}

	price, err := decodePrice(raw)
	if err != nil {
		r.log.ErrorContext(ctx, op, logger.Err(err))
		return models.Price{}, fmt.Errorf("%s: %w", op, err)
	}

	return price, nil
}

func (r *Repository) SetPrice(ctx context.Context, price models.Price) error {
	const op = "repository.settings.SetPrice"

	price, err := validatePrice(price)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	raw, err := json.Marshal(price)
	if err != nil {
		return fmt.Errorf("%s: marshal: %w", op, err)
	}

	const query = `
		INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`

	if _, err = r.db.ExecContext(ctx, query, pricingKey, raw); err != nil {
		r.log.ErrorContext(ctx, op, logger.Err(err))
		return fmt.Errorf("%s: execute statement: %w", op, err)
	}

	return nil
}

func decodePrice(raw []byte) (models.Price, error) {
	var price models.Price
	if err := json.Unmarshal(raw, &price); err != nil {
		return models.Price{}, fmt.Errorf("decode pricing: %w", err)
	}

	return validatePrice(price)
}

// validatePrice normalises the currency code; rows it rejects would fail every read.
func validatePrice(price models.Price) (models.Price, error) {
	price.Currency = strings.ToUpper(strings.TrimSpace(price.Currency))

	if price.Amount <= 0 {
		return models.Price{}, fmt.Errorf("pricing amount must be positive, got %d", price.Amount)
	}
	if len(price.Currency) != 3 {
		return models.Price{}, fmt.Errorf("pricing currency must be a 3-letter code, got %q", price.Currency)
	}

	return price, nil
}
