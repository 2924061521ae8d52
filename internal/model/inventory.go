package model

import (
	"fmt"
	"sync"
)

// PersonalInventorySize: 4 ряда по 9 слотов (hotbar + main storage).
const PersonalInventorySize = 36

// Container is the slot-level view of a personal inventory used by the trade engine.
type Container interface {
	Size() int
	Slot(i int) ItemStack
	SetSlot(i int, stack ItemStack) error
	AddItem(stack ItemStack) ItemStack
	HeldSlot() int
	Items() []ItemStack
}

// Inventory: личный инвентарь персонажа: фиксированный набор слотов.
// Thread-safe: all slot access protected by mu.
type Inventory struct {
	mu    sync.RWMutex
	slots []ItemStack
	held  int
}

// NewInventory создаёт пустой инвентарь указанного размера.
func NewInventory(size int) *Inventory {
	if size <= 0 {
		size = PersonalInventorySize
	}
	return &Inventory{slots: make([]ItemStack, size)}
}

// Size returns the number of slots.
func (inv *Inventory) Size() int {
	return len(inv.slots)
}

// Slot returns a copy of the stack at index i (empty stack for empty or out-of-range slots).
func (inv *Inventory) Slot(i int) ItemStack {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	if i < 0 || i >= len(inv.slots) {
		return ItemStack{}
	}
	return inv.slots[i].Clone()
}

// SetSlot replaces the stack at index i. An empty stack clears the slot.
func (inv *Inventory) SetSlot(i int, stack ItemStack) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if i < 0 || i >= len(inv.slots) {
		return fmt.Errorf("slot %d out of range [0, %d)", i, len(inv.slots))
	}
	if stack.IsEmpty() {
		inv.slots[i] = ItemStack{}
		return nil
	}
	inv.slots[i] = stack.Clone()
	return nil
}

// HeldSlot returns the index of the slot currently held in hand.
func (inv *Inventory) HeldSlot() int {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.held
}

// SetHeldSlot selects the slot held in hand (hotbar, 0..8).
func (inv *Inventory) SetHeldSlot(i int) error {
	if i < 0 || i >= 9 || i >= len(inv.slots) {
		return fmt.Errorf("held slot %d out of hotbar range", i)
	}
	inv.mu.Lock()
	inv.held = i
	inv.mu.Unlock()
	return nil
}

// AddItem adds the stack and returns the part that did not fit
// (empty stack if everything was stored).
//
// Similar partial stacks are topped up first, then empty slots are used.
func (inv *Inventory) AddItem(stack ItemStack) ItemStack {
	if stack.IsEmpty() {
		return ItemStack{}
	}

	inv.mu.Lock()
	defer inv.mu.Unlock()

	remaining := stack.Amount
	limit := stack.MaxStackSize()

	// Докладываем в уже существующие похожие стопки
	for i := range inv.slots {
		if remaining == 0 {
			break
		}
		cur := &inv.slots[i]
		if !cur.IsSimilar(stack) || cur.Amount >= limit {
			continue
		}
		n := min(limit-cur.Amount, remaining)
		cur.Amount += n
		remaining -= n
	}

	// Затем, в пустые слоты
	for i := range inv.slots {
		if remaining == 0 {
			break
		}
		if !inv.slots[i].IsEmpty() {
			continue
		}
		n := min(limit, remaining)
		inv.slots[i] = stack.WithAmount(n)
		remaining -= n
	}

	if remaining == 0 {
		return ItemStack{}
	}
	return stack.WithAmount(remaining)
}

// Items returns copies of all non-empty stacks.
func (inv *Inventory) Items() []ItemStack {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	result := make([]ItemStack, 0, len(inv.slots))
	for _, s := range inv.slots {
		if !s.IsEmpty() {
			result = append(result, s.Clone())
		}
	}
	return result
}

// CountOf returns the total amount of items similar to the sample.
func (inv *Inventory) CountOf(sample ItemStack) int {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	total := 0
	for _, s := range inv.slots {
		if s.IsSimilar(sample) {
			total += s.Amount
		}
	}
	return total
}

// TotalCount returns the total amount of items across all slots.
func (inv *Inventory) TotalCount() int {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	total := 0
	for _, s := range inv.slots {
		if !s.IsEmpty() {
			total += s.Amount
		}
	}
	return total
}
