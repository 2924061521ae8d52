package model

import (
	"fmt"
	"strings"
	"sync"
)

// PermissionAll grants every permission.
const PermissionAll = "*"

// mailboxLimit: сколько последних сообщений хранит игрок.
const mailboxLimit = 256

// Player: игровой персонаж, подключённый к серверу.
// Implements the actor contract consumed by the trade engine.
// Thread-safe: all mutable state protected by mu.
type Player struct {
	mu sync.RWMutex

	id        string
	name      string
	location  Location
	online    bool
	creative  bool
	perms     map[string]struct{}
	totalExp  int
	inventory *Inventory

	mailbox []string
	dropped []ItemStack
	output  func(text string)
}

// NewPlayer creates an online player with an empty personal inventory.
func NewPlayer(id, name string, loc Location) (*Player, error) {
	if id == "" {
		return nil, fmt.Errorf("player id cannot be empty")
	}
	if name == "" {
		return nil, fmt.Errorf("player name cannot be empty")
	}

	return &Player{
		id:        id,
		name:      name,
		location:  loc,
		online:    true,
		perms:     make(map[string]struct{}, 8),
		inventory: NewInventory(PersonalInventorySize),
	}, nil
}

// ID returns the stable player identifier.
func (p *Player) ID() string { return p.id }

// Name returns the display name.
func (p *Player) Name() string { return p.name }

// Location returns the current position.
func (p *Player) Location() Location {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.location
}

// SetLocation moves the player.
func (p *Player) SetLocation(loc Location) {
	p.mu.Lock()
	p.location = loc
	p.mu.Unlock()
}

// Online reports whether the player is still connected.
func (p *Player) Online() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.online
}

// SetOnline marks the player as connected or disconnected.
func (p *Player) SetOnline(online bool) {
	p.mu.Lock()
	p.online = online
	p.mu.Unlock()
}

// Creative reports whether the player is in creative mode.
func (p *Player) Creative() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.creative
}

// SetCreative switches creative mode.
func (p *Player) SetCreative(creative bool) {
	p.mu.Lock()
	p.creative = creative
	p.mu.Unlock()
}

// Grant adds permission nodes to the player.
func (p *Player) Grant(perms ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, perm := range perms {
		p.perms[strings.ToLower(perm)] = struct{}{}
	}
}

// HasPermission checks a permission node. "*" grants everything.
func (p *Player) HasPermission(perm string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if _, ok := p.perms[PermissionAll]; ok {
		return true
	}
	_, ok := p.perms[strings.ToLower(perm)]
	return ok
}

// TotalExperience returns the accumulated experience points.
func (p *Player) TotalExperience() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.totalExp
}

// SetTotalExperience replaces accumulated experience (clamped at zero).
func (p *Player) SetTotalExperience(exp int) {
	if exp < 0 {
		exp = 0
	}
	p.mu.Lock()
	p.totalExp = exp
	p.mu.Unlock()
}

// Level returns the level derived from total experience.
func (p *Player) Level() int {
	return LevelForExperience(p.TotalExperience())
}

// Inventory returns the personal inventory.
func (p *Player) Inventory() Container {
	return p.inventory
}

// Storage returns the concrete personal inventory.
func (p *Player) Storage() *Inventory {
	return p.inventory
}

// SetOutput installs a sink receiving every message sent to the player.
// Messages are always kept in the mailbox as well.
func (p *Player) SetOutput(fn func(text string)) {
	p.mu.Lock()
	p.output = fn
	p.mu.Unlock()
}

// SendMessage delivers a chat message to the player.
func (p *Player) SendMessage(text string) {
	p.mu.Lock()
	if len(p.mailbox) == mailboxLimit {
		p.mailbox = append(p.mailbox[:0], p.mailbox[1:]...)
	}
	p.mailbox = append(p.mailbox, text)
	out := p.output
	p.mu.Unlock()

	if out != nil {
		out(text)
	}
}

// Messages returns a copy of the most recent messages delivered to the player.
func (p *Player) Messages() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]string, len(p.mailbox))
	copy(result, p.mailbox)
	return result
}

// DropItem drops a stack into the world at the player's location.
func (p *Player) DropItem(stack ItemStack) {
	if stack.IsEmpty() {
		return
	}
	p.mu.Lock()
	p.dropped = append(p.dropped, stack.Clone())
	p.mu.Unlock()
}

// Dropped returns copies of stacks dropped at the player's feet.
func (p *Player) Dropped() []ItemStack {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]ItemStack, len(p.dropped))
	for i, s := range p.dropped {
		result[i] = s.Clone()
	}
	return result
}
