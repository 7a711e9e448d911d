package ratelimit

import (
	"context"

	"github.com/tumbleweedd/two_services_system/registration_service/pkg/logger"
)

// Unavailable stands in when no limiter backend is configured.
type Unavailable struct {
	log    logger.Logger
	reason string
}

func NewUnavailable(log logger.Logger, reason string) *Unavailable {
	return &Unavailable{log: log, reason: reason}
}

func (u *Unavailable) Allow(ctx context.Context, identity string) Decision {
	u.log.InfoContext(ctx, "ratelimit.unavailable.Allow",
		logger.Event(EventFailOpen),
		logger.String("identity", identity),
		logger.String("reason", u.reason),
	)
	return FailOpen
}
