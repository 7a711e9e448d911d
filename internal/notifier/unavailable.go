package notifier

import (
	"context"
	"fmt"

	"github.com/tumbleweedd/two_services_system/registration_service/internal/domain/models"
	internalErrors "github.com/tumbleweedd/two_services_system/registration_service/internal/lib/errors"
)

// Unavailable takes the place of a sender whose provider is disabled.
// The channel flag stays false so a later sweep can deliver it.
type Unavailable struct {
	channel models.Channel
	reason  string
}

func NewUnavailable(ch models.Channel, reason string) *Unavailable {
	return &Unavailable{channel: ch, reason: reason}
}

func (u *Unavailable) Channel() models.Channel {
	return u.channel
}

func (u *Unavailable) Send(context.Context, *models.Order) error {
	return fmt.Errorf("%s: %w", u.reason, internalErrors.ErrNotifierUnavailable)
}
