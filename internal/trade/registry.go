package trade

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/udisondev/simpletrade/internal/i18n"
)

// Registry creates sessions and keeps at most one active session per actor.
// Thread-safe. The registry lock is never held while calling into a session.
type Registry struct {
	mu       sync.RWMutex
	sessions map[int64]*entry
	byActor  map[string]int64 // actorID → sessionID
	nextID   atomic.Int64

	opts     atomic.Pointer[Options]
	recorder Recorder
}

type entry struct {
	session *Session
	timer   *time.Timer
}

// NewRegistry creates a registry running new sessions with opts.
// recorder may be nil.
func NewRegistry(opts *Options, recorder Recorder) *Registry {
	r := &Registry{
		sessions: make(map[int64]*entry, 16),
		byActor:  make(map[string]int64, 32),
		recorder: recorder,
	}
	r.opts.Store(opts)
	return r
}

// Options returns the snapshot new sessions are created with.
func (r *Registry) Options() *Options {
	return r.opts.Load()
}

// SetOptions swaps the rules for sessions created from now on.
func (r *Registry) SetOptions(opts *Options) {
	r.opts.Store(opts)
}

// Initiate validates eligibility and creates a REQUESTED session with a timeout.
func (r *Registry) Initiate(initiator, partner Actor) (*Session, error) {
	opts := r.Options()
	if err := r.checkEligible(opts, initiator, partner); err != nil {
		return nil, err
	}

	id := r.nextID.Add(1)
	s := newSession(id, initiator, partner, opts)

	r.mu.Lock()
	if _, ok := r.byActor[initiator.ID()]; ok {
		r.mu.Unlock()
		return nil, ErrAlreadyTrading
	}
	if _, ok := r.byActor[partner.ID()]; ok {
		r.mu.Unlock()
		return nil, ErrPartnerBusy
	}
	e := &entry{session: s}
	r.sessions[id] = e
	r.byActor[initiator.ID()] = id
	r.byActor[partner.ID()] = id
	// Таймер живёт только в фазе REQUESTED
	e.timer = time.AfterFunc(opts.RequestTimeout(), func() { r.expire(s) })
	r.mu.Unlock()

	opts.send(initiator, i18n.TradeRequested, player(partner.Name()))
	opts.send(partner, i18n.TradeRequestReceived, player(initiator.Name()))

	slog.Debug("trade created",
		"session", id,
		"initiator", initiator.Name(),
		"partner", partner.Name(),
		"timeout", opts.RequestTimeout())

	return s, nil
}

// checkEligible runs the refusal checks shared by initiation and shift-interaction.
func (r *Registry) checkEligible(opts *Options, initiator, partner Actor) error {
	if initiator.ID() == partner.ID() {
		return ErrSelfTrade
	}
	if r.IsInvolved(initiator) {
		return ErrAlreadyTrading
	}
	if r.IsInvolved(partner) {
		return ErrPartnerBusy
	}
	if !opts.Config.Global.CreativeTrading && (initiator.Creative() || partner.Creative()) {
		return ErrCreative
	}
	return checkPlacement(opts, initiator, partner)
}

// checkPlacement enforces distance and world policy for both actors.
func checkPlacement(opts *Options, a, b Actor) error {
	la, lb := a.Location(), b.Location()
	if !opts.WithinDistance(la, lb) {
		return ErrTooFar
	}
	if !opts.Worlds.Allowed(la.World) {
		return ErrWorldDenied
	}
	if !opts.Worlds.Allowed(lb.World) {
		return ErrPartnerWorldDenied
	}
	return nil
}

// Accept opens the pending request addressed to the partner actor.
func (r *Registry) Accept(partner Actor) (*Session, error) {
	s := r.Find(partner)
	if s == nil || s.Partner().ID() != partner.ID() {
		return nil, ErrNoPendingRequest
	}
	if s.State() != StateRequested {
		return s, nil
	}
	if err := checkPlacement(s.opts, partner, s.Initiator()); err != nil {
		return nil, err
	}

	t, err := s.Accept()
	if err != nil {
		return nil, fmt.Errorf("accepting session %d: %w", s.ID(), err)
	}
	r.apply(s, t)
	return s, nil
}

// Decline rejects the pending request addressed to the partner actor.
func (r *Registry) Decline(partner Actor) (*Session, error) {
	s := r.Find(partner)
	if s == nil || s.Partner().ID() != partner.ID() {
		return nil, ErrNoPendingRequest
	}

	t, err := s.Decline(partner)
	if err != nil {
		return nil, fmt.Errorf("declining session %d: %w", s.ID(), err)
	}
	r.apply(s, t)
	return s, nil
}

// Stop cancels a registered session on behalf of who.
// Returns ErrNotParticipant if who is not one of its participants.
func (r *Registry) Stop(s *Session, cause StopCause, who Actor) error {
	if !r.registered(s) {
		return ErrUnknownSession
	}

	t, err := s.Stop(cause, who)
	if err != nil {
		if errors.Is(err, ErrNotParticipant) {
			slog.Error("stopping trade on behalf of stranger",
				"session", s.ID(),
				"actor", who.Name(),
				"cause", cause)
		}
		return fmt.Errorf("stopping session %d: %w", s.ID(), err)
	}
	r.apply(s, t)
	r.remove(s)
	return nil
}

// StopAll cancels every active session, attributing the cause to initiators.
func (r *Registry) StopAll(cause StopCause) {
	for _, s := range r.Sessions() {
		t, err := s.Stop(cause, s.Initiator())
		if err != nil {
			slog.Debug("session already closed", "session", s.ID(), "error", err)
		}
		r.apply(s, t)
		r.remove(s)
	}
}

// Click routes an interaction to the actor's session.
func (r *Registry) Click(ctx context.Context, a Actor, ref SlotRef, click Click) (Result, error) {
	s := r.Find(a)
	if s == nil {
		return Result{}, ErrUnknownSession
	}

	res, err := s.Handle(ctx, a, ref, click)
	if err != nil {
		return res, fmt.Errorf("handling click of %s: %w", a.Name(), err)
	}
	r.apply(s, res.Transition)
	return res, nil
}

// IsInvolved reports whether the actor has an active session.
func (r *Registry) IsInvolved(a Actor) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byActor[a.ID()]
	return ok
}

// Find returns the actor's active session or nil.
func (r *Registry) Find(a Actor) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byActor[a.ID()]
	if !ok {
		return nil
	}
	return r.sessions[id].session
}

// Sessions returns all active sessions.
func (r *Registry) Sessions() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Session, 0, len(r.sessions))
	for _, e := range r.sessions {
		out = append(out, e.session)
	}
	return out
}

// Count returns the number of active sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) expire(s *Session) {
	t := s.Expire()
	if !t.Changed() {
		return
	}
	slog.Debug("trade request timed out", "session", s.ID())
	r.apply(s, t)
}

// apply reacts to a transition: stops the timer once REQUESTED is left,
// retires terminal sessions and records their outcome.
func (r *Registry) apply(s *Session, t Transition) {
	if !t.Changed() {
		return
	}

	r.mu.Lock()
	e, ok := r.sessions[s.ID()]
	if ok && e.timer != nil {
		// Stop на сработавшем таймере, no-op
		e.timer.Stop()
		e.timer = nil
	}
	r.mu.Unlock()

	if !t.Terminal() {
		return
	}
	r.remove(s)

	if r.recorder != nil && t.Outcome != nil {
		if err := r.recorder.Record(*t.Outcome); err != nil {
			slog.Error("recording trade outcome",
				"session", s.ID(),
				"error", err)
		}
	}
}

func (r *Registry) remove(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[s.ID()]
	if !ok {
		return
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	delete(r.sessions, s.ID())
	for _, a := range [2]Actor{s.Initiator(), s.Partner()} {
		if r.byActor[a.ID()] == s.ID() {
			delete(r.byActor, a.ID())
		}
	}
}

func (r *Registry) registered(s *Session) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[s.ID()]
	return ok && e.session == s
}
