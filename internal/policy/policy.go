// Package policy implements allow/deny evaluation for tradeable items and trade worlds.
package policy

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/udisondev/simpletrade/internal/model"
)

// Mode selects how a list match is interpreted.
type Mode int

const (
	Blacklist Mode = iota // match → denied, default allow
	Whitelist             // match → allowed, default deny
)

// String returns the config spelling of the mode.
func (m Mode) String() string {
	switch m {
	case Blacklist:
		return "BLACKLIST"
	case Whitelist:
		return "WHITELIST"
	default:
		return "UNKNOWN"
	}
}

// ParseMode parses a mode name case-insensitively, returning def for unknown input.
func ParseMode(s string, def Mode) Mode {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BLACKLIST":
		return Blacklist
	case "WHITELIST":
		return Whitelist
	default:
		return def
	}
}

// Policy evaluates subjects of type T against a configured list.
// Immutable after construction; safe for concurrent use.
type Policy[T any] struct {
	mode  Mode
	match func(T) bool
}

// New creates a policy with a custom match predicate.
func New[T any](mode Mode, match func(T) bool) *Policy[T] {
	return &Policy[T]{mode: mode, match: match}
}

// Mode returns the evaluation mode.
func (p *Policy[T]) Mode() Mode {
	return p.mode
}

// Allowed reports whether the subject passes the policy.
// A nil policy allows everything.
func (p *Policy[T]) Allowed(subject T) bool {
	if p == nil {
		return true
	}
	matches := p.match(subject)
	if p.mode == Whitelist {
		return matches
	}
	return !matches
}

// NewItemPolicy creates a policy matching items by signature or by a tagged lore line.
// Lore comparison ignores case and color codes.
func NewItemPolicy(mode Mode, signatures []model.Signature, lores []string) *Policy[model.ItemStack] {
	sigs := append([]model.Signature(nil), signatures...)

	fold := cases.Fold()
	tags := make(map[string]struct{}, len(lores))
	for _, l := range lores {
		tags[fold.String(StripColor(l))] = struct{}{}
	}

	return New(mode, func(stack model.ItemStack) bool {
		for _, sig := range sigs {
			if sig.Matches(stack) {
				return true
			}
		}
		if len(tags) == 0 {
			return false
		}
		// Caser не потокобезопасен, создаём на каждый вызов
		fold := cases.Fold()
		for _, line := range stack.Lore {
			if _, ok := tags[fold.String(StripColor(line))]; ok {
				return true
			}
		}
		return false
	})
}

// NewNamePolicy creates a policy matching names exactly (used for worlds).
func NewNamePolicy(mode Mode, names []string) *Policy[string] {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return New(mode, func(name string) bool {
		_, ok := set[name]
		return ok
	})
}
