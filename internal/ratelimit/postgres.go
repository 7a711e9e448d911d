package ratelimit

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/tumbleweedd/two_services_system/registration_service/pkg/logger"
)

const keyPrefix = "register:"

// a row whose window has passed restarts at one hit and a fresh window_start
const hitQuery = `
	INSERT INTO rate_limits (key, hits, window_start) VALUES ($1, 1, now())
	ON CONFLICT (key) DO UPDATE SET
		hits = CASE
			WHEN rate_limits.window_start <= now() - make_interval(secs => $2) THEN 1
			ELSE rate_limits.hits + 1
		END,
		window_start = CASE
			WHEN rate_limits.window_start <= now() - make_interval(secs => $2) THEN now()
			ELSE rate_limits.window_start
		END
	RETURNING hits`

// PostgresLimiter is a fixed-window counter shared by every service replica.
type PostgresLimiter struct {
	log     logger.Logger
	db      *sqlx.DB
	limit   int
	window  time.Duration
	timeout time.Duration
}

func NewPostgresLimiter(log logger.Logger, db *sqlx.DB, limit int, window, timeout time.Duration) *PostgresLimiter {
	return &PostgresLimiter{
		log:     log,
		db:      db,
		limit:   limit,
		window:  window,
		timeout: timeout,
	}
}

func (l *PostgresLimiter) Allow(ctx context.Context, identity string) Decision {
	const op = "ratelimit.postgres.Allow"

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	var hits int
	if err := l.db.GetContext(ctx, &hits, hitQuery, keyPrefix+identity, l.window.Seconds()); err != nil {
		l.log.WarnContext(ctx, op,
			logger.Event(EventFailOpen),
			logger.String("identity", identity),
			logger.Err(err),
		)
		return FailOpen
	}

	if hits > l.limit {
		l.log.InfoContext(ctx, op,
			logger.Event(EventDenied),
			logger.String("identity", identity),
			logger.Int("hits", hits),
		)
		return Denied
	}

	return Allowed
}
