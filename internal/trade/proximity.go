package trade

import (
	"context"
	"sync"
	"time"

	"github.com/udisondev/simpletrade/internal/config"
	"github.com/udisondev/simpletrade/internal/model"
)

// Proximity check schedule: 20 and 30 game ticks.
const (
	ProximityDelay  = 1 * time.Second
	ProximityPeriod = 1500 * time.Millisecond
)

// ProximityMonitor periodically cancels TRADING sessions whose participants
// changed worlds or drifted apart. Terminations go through the registry.
type ProximityMonitor struct {
	registry  *Registry
	directory Directory

	mu   sync.Mutex
	last map[string]model.Location // actorID → last observed position
}

// NewProximityMonitor creates a monitor over the directory's actors.
func NewProximityMonitor(registry *Registry, directory Directory) *ProximityMonitor {
	return &ProximityMonitor{
		registry:  registry,
		directory: directory,
		last:      make(map[string]model.Location, 32),
	}
}

// Run checks on a fixed period until ctx is cancelled.
func (m *ProximityMonitor) Run(ctx context.Context) error {
	delay := time.NewTimer(ProximityDelay)
	defer delay.Stop()

	select {
	case <-ctx.Done():
		return nil
	case <-delay.C:
	}

	ticker := time.NewTicker(ProximityPeriod)
	defer ticker.Stop()

	for {
		m.Check()
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Check runs one pass over all online actors.
func (m *ProximityMonitor) Check() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.directory.Actors() {
		if !a.Online() {
			delete(m.last, a.ID())
			continue
		}

		s := m.registry.Find(a)
		if s == nil || s.State() != StateTrading {
			delete(m.last, a.ID())
			continue
		}

		cur := a.Location()
		prev, seen := m.last[a.ID()]
		m.last[a.ID()] = cur

		other := s.Other(a)
		otherLoc := other.Location()

		if !cur.SameWorld(otherLoc) {
			// Виноват тот, кто сменил мир с прошлой проверки
			who := a
			if seen && prev.SameWorld(cur) {
				who = other
			}
			m.stop(s, CauseLeftWorld, who)
			continue
		}

		maxDist := s.opts.Config.Global.MaxDistance
		if maxDist == config.NoMaxDistance {
			continue
		}
		limit := float64(maxDist)
		if cur.DistanceSquared(otherLoc) > limit*limit {
			who := a
			if seen && prev == cur {
				who = other
			}
			m.stop(s, CauseMovedAway, who)
		}
	}
}

func (m *ProximityMonitor) stop(s *Session, cause StopCause, who Actor) {
	delete(m.last, s.Initiator().ID())
	delete(m.last, s.Partner().ID())
	m.registry.stopQuietly(s, cause, who)
}
