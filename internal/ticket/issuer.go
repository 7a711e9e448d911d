package ticket

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const prefix = "TLT"

// Issuer builds the confirmation code a registrant shows at the venue.
type Issuer struct {
	random func() string
}

func New() *Issuer {
	return &Issuer{random: randomPart}
}

// Issue must be called only for the delivery that is about to transition the
// order to paid; the code is persisted together with that transition.
func (i *Issuer) Issue(orderID string) string {
	return fmt.Sprintf("%s-%s-%s", prefix, orderSegment(orderID), i.random())
}

// orderSegment is the random suffix of the order id, or its tail when the id has none.
func orderSegment(orderID string) string {
	seg := orderID
	if idx := strings.LastIndex(orderID, "_"); idx >= 0 && idx < len(orderID)-1 {
		seg = orderID[idx+1:]
	}
	if len(seg) > 8 {
		seg = seg[len(seg)-8:]
	}
	return strings.ToUpper(seg)
}

func randomPart() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
}
