package trade

import (
	"fmt"
	"log/slog"

	"github.com/udisondev/simpletrade/internal/config"
	"github.com/udisondev/simpletrade/internal/i18n"
)

// Loader builds a fresh options snapshot (config files, messages, policies).
type Loader func() (*Options, error)

// Service is the command surface: permission checks plus refusal rendering
// on top of the registry.
type Service struct {
	registry  *Registry
	directory Directory
	load      Loader
}

// NewService creates the command service. load may be nil (reload disabled).
func NewService(registry *Registry, directory Directory, load Loader) *Service {
	return &Service{
		registry:  registry,
		directory: directory,
		load:      load,
	}
}

// Registry returns the underlying registry.
func (s *Service) Registry() *Registry {
	return s.registry
}

// Request sends a trade request to the named actor.
func (s *Service) Request(a Actor, targetName string) (*Session, error) {
	if !a.HasPermission(config.PermTrade) {
		return nil, s.refuse(a, ErrNoPermission, nil)
	}
	target, ok := s.directory.Lookup(targetName)
	if !ok || !target.Online() {
		return nil, s.refuse(a, ErrPlayerNotFound, player(targetName))
	}

	sess, err := s.registry.Initiate(a, target)
	if err != nil {
		return nil, s.refuse(a, err, player(target.Name()))
	}
	return sess, nil
}

// AcceptRequest accepts the request addressed to the actor.
func (s *Service) AcceptRequest(a Actor) (*Session, error) {
	if !a.HasPermission(config.PermAccept) {
		return nil, s.refuse(a, ErrNoPermission, nil)
	}
	sess, err := s.registry.Accept(a)
	if err != nil {
		return nil, s.refuse(a, err, player(a.Name()))
	}
	return sess, nil
}

// DeclineRequest declines the request addressed to the actor.
func (s *Service) DeclineRequest(a Actor) error {
	if !a.HasPermission(config.PermDeny) {
		return s.refuse(a, ErrNoPermission, nil)
	}
	if _, err := s.registry.Decline(a); err != nil {
		return s.refuse(a, err, player(a.Name()))
	}
	return nil
}

// Interact handles a sneak-interaction of the actor with target.
func (s *Service) Interact(a, target Actor) (*Session, error) {
	sess, err := s.registry.Interact(a, target)
	if err != nil {
		return nil, s.refuse(a, err, player(target.Name()))
	}
	return sess, nil
}

// Reload rebuilds the options for sessions created from now on.
// Running sessions keep their rules.
func (s *Service) Reload(a Actor) error {
	if !a.HasPermission(config.PermReload) {
		return s.refuse(a, ErrNoPermission, nil)
	}
	if s.load == nil {
		return fmt.Errorf("reload is not configured")
	}

	opts, err := s.load()
	if err != nil {
		slog.Error("reloading trade configuration", "actor", a.Name(), "error", err)
		return fmt.Errorf("reloading options: %w", err)
	}
	s.registry.SetOptions(opts)

	slog.Info("trade configuration reloaded", "actor", a.Name())
	opts.send(a, i18n.ConfigurationsReloaded, nil)
	return nil
}

// Sign appends the number-th configured control lore line (1-based) to the held item.
func (s *Service) Sign(a Actor, number int) error {
	if !a.HasPermission(config.PermSign) {
		return s.refuse(a, ErrNoPermission, nil)
	}

	opts := s.registry.Options()
	lores := opts.Config.ItemControl.ItemLore
	idx := number - 1
	if idx < 0 || idx >= len(lores) {
		return s.refuse(a, ErrNoLore, map[string]string{"number": fmt.Sprint(number)})
	}

	inv := a.Inventory()
	held := inv.HeldSlot()
	stack := inv.Slot(held)
	if stack.IsEmpty() {
		return s.refuse(a, ErrNoItemInHand, nil)
	}

	stack.Lore = append(stack.Lore, lores[idx])
	if err := inv.SetSlot(held, stack); err != nil {
		return fmt.Errorf("signing held item: %w", err)
	}

	opts.View.SyncInventory(a)
	opts.send(a, i18n.LoreApplied, nil)
	return nil
}

// refuse shows the refusal message to the actor and returns err unchanged.
func (s *Service) refuse(a Actor, err error, vars map[string]string) error {
	if r, ok := AsRefusal(err); ok && r.Key != "" {
		s.registry.Options().send(a, r.Key, vars)
	}
	return err
}
