package trade

import (
	"errors"

	"github.com/udisondev/simpletrade/internal/i18n"
)

// Refusal is an expected, user-caused rejection.
// Key is the message shown to the actor (empty: silent).
type Refusal struct {
	Key    string
	Reason string
}

func (r *Refusal) Error() string {
	return "trade refused: " + r.Reason
}

// Registry-level refusals.
var (
	ErrAlreadyTrading     = &Refusal{Reason: "initiator already trading"}
	ErrPartnerBusy        = &Refusal{Key: i18n.PartnerAlreadyInvolved, Reason: "partner already trading"}
	ErrSelfTrade          = &Refusal{Key: i18n.NoSelfTrade, Reason: "self trade"}
	ErrTooFar             = &Refusal{Key: i18n.PartnerTooFarAway, Reason: "partner too far away"}
	ErrWorldDenied        = &Refusal{Key: i18n.CannotTradeInWorld, Reason: "trading disabled in world"}
	ErrPartnerWorldDenied = &Refusal{Key: i18n.CannotTradeInWorldPartner, Reason: "trading disabled in partner world"}
	ErrCreative           = &Refusal{Key: i18n.PartnerInCreative, Reason: "creative mode"}
	ErrNoPendingRequest   = &Refusal{Key: i18n.NoPendingRequests, Reason: "no pending request"}
	ErrNoPermission       = &Refusal{Key: i18n.InsufficientPermission, Reason: "insufficient permission"}
	ErrPlayerNotFound     = &Refusal{Key: i18n.PlayerNotFound, Reason: "player not found"}
	ErrNoLore             = &Refusal{Key: i18n.NoLoreWithNumber, Reason: "no lore with number"}
	ErrNoItemInHand       = &Refusal{Key: i18n.NoItemInHand, Reason: "no item in hand"}
)

// Integrity errors: caller contract violations, not user-correctable.
var (
	ErrNotParticipant = errors.New("actor is not a participant of the session")
	ErrSessionClosed  = errors.New("session is closed")
	ErrUnknownSession = errors.New("session is not registered")
	ErrNotTrading     = errors.New("session is not in trading state")
)

// IsIntegrity reports whether err signals a caller contract violation.
func IsIntegrity(err error) bool {
	return errors.Is(err, ErrNotParticipant) ||
		errors.Is(err, ErrSessionClosed) ||
		errors.Is(err, ErrUnknownSession) ||
		errors.Is(err, ErrNotTrading)
}

// AsRefusal extracts a refusal from err.
func AsRefusal(err error) (*Refusal, bool) {
	var r *Refusal
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}
