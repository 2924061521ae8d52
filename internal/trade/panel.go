package trade

import "github.com/udisondev/simpletrade/internal/model"

// Panel geometry: 6 rows by 9 columns.
const (
	PanelRows    = 6
	PanelColumns = 9
	PanelSize    = PanelRows * PanelColumns
)

// Staging grid: rows 2..5, own columns 0..3. Columns 5..8 mirror the partner.
const (
	stagingFirstRow = 2
	stagingColumns  = 4
	StagingSize     = (PanelRows - stagingFirstRow) * stagingColumns
)

// Control slots.
const (
	SlotMoneyInfo = 2
	SlotAccept    = 3
	SlotStatus    = 4
	SlotDecline   = 5
	SlotExpInfo   = 6
	SlotMoney1    = 10
	SlotMoney2    = 11
	SlotMoney3    = 12
	SlotExp1      = 14
	SlotExp2      = 15
	SlotExp3      = 16
)

// SeparatorSlots are filled with decorative separator icons.
var SeparatorSlots = [...]int{0, 1, 7, 8, 9, 13, 17, 22, 31, 40, 49}

// stagingSlots: индексы сетки в порядке обхода (ряд за рядом).
var stagingSlots = func() [StagingSize]int {
	var out [StagingSize]int
	i := 0
	for row := stagingFirstRow; row < PanelRows; row++ {
		for col := range stagingColumns {
			out[i] = row*PanelColumns + col
			i++
		}
	}
	return out
}()

// StagingSlots returns the panel indices of the own staging grid, row-major.
func StagingSlots() [StagingSize]int {
	return stagingSlots
}

// IsStagingSlot reports whether index lies in the own staging grid.
func IsStagingSlot(index int) bool {
	return index >= 0 && index < PanelSize &&
		index%PanelColumns < stagingColumns && index/PanelColumns >= stagingFirstRow
}

// MirrorSlot maps a slot to its read-only mirror on the partner panel.
func MirrorSlot(index int) int {
	row, col := index/PanelColumns, index%PanelColumns
	return row*PanelColumns + (PanelColumns - 1 - col)
}

// Panel is one side's trade window. Not thread-safe: guarded by the session lock.
type Panel struct {
	title string
	slots [PanelSize]model.ItemStack
}

func newPanel(title string) *Panel {
	return &Panel{title: title}
}

// Title returns the window title.
func (p *Panel) Title() string {
	return p.title
}

// Slot returns a copy of the slot content.
func (p *Panel) Slot(index int) model.ItemStack {
	if index < 0 || index >= PanelSize {
		return model.ItemStack{}
	}
	return p.slots[index].Clone()
}

// set stores a stack and reports whether the slot content changed.
func (p *Panel) set(index int, stack model.ItemStack) bool {
	if stack.IsEmpty() {
		stack = model.ItemStack{}
	}
	if equalStacks(p.slots[index], stack) {
		return false
	}
	p.slots[index] = stack.Clone()
	return true
}

// Slots returns a copy of all slots.
func (p *Panel) Slots() []model.ItemStack {
	out := make([]model.ItemStack, PanelSize)
	for i, s := range p.slots {
		out[i] = s.Clone()
	}
	return out
}

// staged returns non-empty stacks of the own staging grid.
func (p *Panel) staged() []model.ItemStack {
	var out []model.ItemStack
	for _, idx := range stagingSlots {
		if s := p.slots[idx]; !s.IsEmpty() {
			out = append(out, s.Clone())
		}
	}
	return out
}

func equalStacks(a, b model.ItemStack) bool {
	if a.IsEmpty() || b.IsEmpty() {
		return a.IsEmpty() == b.IsEmpty()
	}
	return a.Amount == b.Amount && a.IsSimilar(b)
}
