package trade

import (
	"log/slog"

	"github.com/udisondev/simpletrade/internal/config"
)

// Host event dispatch. Each handler is a no-op for actors without a session.

// OnQuit cancels the actor's session when it disconnects.
func (r *Registry) OnQuit(a Actor) {
	s := r.Find(a)
	if s == nil {
		return
	}
	r.stopQuietly(s, CauseQuit, a)
}

// OnDeath cancels a TRADING session of a dead actor.
func (r *Registry) OnDeath(a Actor) {
	r.stopTrading(a, CauseDeath)
}

// OnViewClosed cancels a TRADING session when the actor closes its panel.
func (r *Registry) OnViewClosed(a Actor) {
	r.stopTrading(a, CauseInventoryClose)
}

// ShouldBlockPickup reports whether the actor may not pick items up (panel open).
func (r *Registry) ShouldBlockPickup(a Actor) bool {
	s := r.Find(a)
	return s != nil && s.State() == StateTrading
}

// Interact handles a sneak-interaction with another actor: it sends a request,
// or accepts the one the target already sent.
func (r *Registry) Interact(a, target Actor) (*Session, error) {
	opts := r.Options()
	if !opts.Config.Global.UseShiftTrading {
		return nil, nil
	}
	if !opts.Config.Global.CreativeTrading && (a.Creative() || target.Creative()) {
		return nil, ErrCreative
	}
	if !opts.Worlds.Allowed(a.Location().World) {
		return nil, ErrWorldDenied
	}
	if !a.HasPermission(config.PermInitiateShift) {
		return nil, ErrNoPermission
	}

	s := r.Find(a)
	switch {
	case s == nil:
		return r.Initiate(a, target)
	case s.Partner().ID() == a.ID() && s.Initiator().ID() == target.ID():
		return r.Accept(a)
	default:
		return s, nil
	}
}

func (r *Registry) stopTrading(a Actor, cause StopCause) {
	s := r.Find(a)
	if s == nil || s.State() != StateTrading {
		return
	}
	r.stopQuietly(s, cause, a)
}

// stopQuietly stops a session that may have been retired concurrently.
func (r *Registry) stopQuietly(s *Session, cause StopCause, who Actor) {
	if err := r.Stop(s, cause, who); err != nil {
		// сессию могли закрыть параллельно
		slog.Debug("stopping trade",
			"session", s.ID(),
			"cause", cause,
			"error", err)
	}
}
