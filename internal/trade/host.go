package trade

import (
	"context"

	"github.com/udisondev/simpletrade/internal/model"
)

// Actor is a live participant handle supplied by the host.
// *model.Player implements it.
type Actor interface {
	ID() string
	Name() string
	Location() model.Location
	Online() bool
	Creative() bool
	HasPermission(perm string) bool

	TotalExperience() int
	SetTotalExperience(exp int)
	Level() int

	Inventory() model.Container
	SendMessage(text string)
	DropItem(stack model.ItemStack)
}

// Directory resolves actors known to the host.
type Directory interface {
	Lookup(name string) (Actor, bool)
	Actors() []Actor
}

// Ledger is the currency provider. Amounts are minor units.
// A nil Ledger disables currency trading.
type Ledger interface {
	Balance(ctx context.Context, accountID string) (int64, error)
	Withdraw(ctx context.Context, accountID string, amount int64) error
	Deposit(ctx context.Context, accountID string, amount int64) error
	Format(amount int64) string
}

// Messages renders a localized message by key.
type Messages interface {
	Render(key string, vars map[string]string) string
}

// Cue is an audible feedback signal.
type Cue int

const (
	CueClick Cue = iota
	CueLevelUp
)

// String returns the cue name.
func (c Cue) String() string {
	switch c {
	case CueClick:
		return "click"
	case CueLevelUp:
		return "level_up"
	default:
		return "unknown"
	}
}

// View displays trade panels to an actor.
// Implementations must not call back into the registry synchronously.
type View interface {
	Open(a Actor, title string, slots []model.ItemStack)
	Update(a Actor, index int, stack model.ItemStack)
	Close(a Actor)
	Play(a Actor, cue Cue, pitch float32)
	// SyncInventory pushes the personal inventory after it was changed by the trade.
	SyncInventory(a Actor)
}

// Recorder receives one outcome per retired session.
type Recorder interface {
	Record(o Outcome) error
}

// Click distinguishes primary (add / confirm) and secondary (remove) interactions.
type Click int

const (
	ClickPrimary Click = iota
	ClickSecondary
)

// String returns the click name.
func (c Click) String() string {
	if c == ClickSecondary {
		return "secondary"
	}
	return "primary"
}

// Area selects the grid a slot index refers to.
type Area int

const (
	AreaPanel    Area = iota // окно торговли
	AreaPersonal             // личный инвентарь
)

// SlotRef addresses one slot targeted by an interaction.
type SlotRef struct {
	Area  Area
	Index int
}

// PanelSlot references a slot of the trade panel.
func PanelSlot(index int) SlotRef {
	return SlotRef{Area: AreaPanel, Index: index}
}

// PersonalSlot references a slot of the personal inventory.
func PersonalSlot(index int) SlotRef {
	return SlotRef{Area: AreaPersonal, Index: index}
}

type nopView struct{}

func (nopView) Open(Actor, string, []model.ItemStack) {}
func (nopView) Update(Actor, int, model.ItemStack)    {}
func (nopView) Close(Actor)                           {}
func (nopView) Play(Actor, Cue, float32)              {}
func (nopView) SyncInventory(Actor)                   {}

type keyMessages struct{}

func (keyMessages) Render(key string, _ map[string]string) string { return key }
