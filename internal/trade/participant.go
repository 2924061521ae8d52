package trade

import (
	"time"

	"github.com/udisondev/simpletrade/internal/model"
)

// Participant is one side of a session: the actor plus what it stages.
// Guarded by the owning session lock.
type Participant struct {
	actor     Actor
	money     int64 // minor units
	exp       int
	confirmed bool
	panel     *Panel // nil until TRADING
}

func newParticipant(a Actor) *Participant {
	return &Participant{actor: a}
}

// Actor returns the actor handle.
func (p *Participant) Actor() Actor { return p.actor }

func (p *Participant) side() Side {
	s := Side{
		ID:    p.actor.ID(),
		Name:  p.actor.Name(),
		Money: p.money,
		Exp:   p.exp,
	}
	if p.panel != nil {
		s.Items = p.panel.staged()
	}
	return s
}

// Side describes what one participant offered.
type Side struct {
	ID    string            `json:"id"`
	Name  string            `json:"name"`
	Money int64             `json:"money"`
	Exp   int               `json:"exp"`
	Items []model.ItemStack `json:"items,omitempty"`
}

// SideSnapshot is Side plus live negotiation state.
type SideSnapshot struct {
	Side
	Confirmed bool
	Panel     []model.ItemStack // nil before TRADING
}

// Snapshot is a consistent copy of session state.
type Snapshot struct {
	ID        int64
	State     State
	Initiator SideSnapshot
	Partner   SideSnapshot
}

// Outcome summarises a retired session.
type Outcome struct {
	SessionID  int64
	State      State
	Cause      StopCause // valid when State == StateCancelled
	CauseActor string
	Initiator  Side
	Partner    Side
	StartedAt  time.Time
	EndedAt    time.Time
}
