package trade

import (
	"fmt"
	"time"

	"github.com/udisondev/simpletrade/internal/config"
	"github.com/udisondev/simpletrade/internal/model"
	"github.com/udisondev/simpletrade/internal/policy"
)

// Status icons: red glass while waiting, green once someone accepted.
var (
	unconfirmedStatus = model.Signature{Material: "stained_glass", Data: 14}
	confirmedStatus   = model.Signature{Material: "stained_glass", Data: 5}
)

// Click cue pitches.
const (
	addPitch    float32 = 1.5
	removePitch float32 = 1.0
)

// Options is an immutable snapshot of the rules a session runs with.
// Sessions keep the snapshot they were created with; reload swaps it for new ones.
type Options struct {
	Config config.Trade
	Icons  config.Icons
	Items  *policy.Policy[model.ItemStack]
	Worlds *policy.Policy[string]

	// Timeout overrides Config.Global.Timeout when positive.
	Timeout time.Duration

	Ledger   Ledger
	Messages Messages
	View     View
}

// NewOptions builds a snapshot from trade config and collaborators.
// ledger may be nil (currency trading off); msgs and view default to no-ops.
func NewOptions(cfg config.Trade, ledger Ledger, msgs Messages, view View) (*Options, error) {
	items, err := cfg.ItemPolicy()
	if err != nil {
		return nil, fmt.Errorf("building item policy: %w", err)
	}
	icons, err := cfg.Icons()
	if err != nil {
		return nil, fmt.Errorf("parsing icons: %w", err)
	}
	if msgs == nil {
		msgs = keyMessages{}
	}
	if view == nil {
		view = nopView{}
	}

	return &Options{
		Config:   cfg,
		Icons:    icons,
		Items:    items,
		Worlds:   cfg.WorldPolicy(),
		Ledger:   ledger,
		Messages: msgs,
		View:     view,
	}, nil
}

// RequestTimeout returns how long a request stays open.
func (o *Options) RequestTimeout() time.Duration {
	if o.Timeout > 0 {
		return o.Timeout
	}
	return o.Config.TimeoutDuration()
}

// CurrencyEnabled reports whether currency staging is offered.
func (o *Options) CurrencyEnabled() bool {
	return o.Ledger != nil && o.Config.Global.UseMoneyTrading
}

// ExperienceEnabled reports whether experience staging is offered.
func (o *Options) ExperienceEnabled() bool {
	return o.Config.Global.UseXPTrading
}

// WithinDistance reports whether two locations are close enough to trade.
// Different worlds are never within distance unless the limit is disabled.
func (o *Options) WithinDistance(a, b model.Location) bool {
	maxDist := o.Config.Global.MaxDistance
	if maxDist == config.NoMaxDistance {
		return true
	}
	if !a.SameWorld(b) {
		return false
	}
	limit := float64(maxDist)
	return a.DistanceSquared(b) <= limit*limit
}

func (o *Options) render(key string, vars map[string]string) string {
	return o.Messages.Render(key, vars)
}

func (o *Options) send(a Actor, key string, vars map[string]string) {
	a.SendMessage(o.render(key, vars))
}

func player(name string) map[string]string {
	return map[string]string{"player": name}
}
