package model

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// DefaultMaxStack is the stack limit used when an item does not declare one.
const DefaultMaxStack = 64

// ItemStack: стопка предметов одного вида.
// Value type: копируется при передаче, Lore клонируется через Clone().
// Пустая стопка (Amount == 0 или Material == "") означает пустой слот.
type ItemStack struct {
	Material    string   `json:"material"`
	Data        uint8    `json:"data,omitempty"`
	Amount      int      `json:"amount"`
	MaxStack    int      `json:"max_stack,omitempty"`
	DisplayName string   `json:"display_name,omitempty"`
	Lore        []string `json:"lore,omitempty"`
}

// NewItemStack creates a plain stack without display metadata.
func NewItemStack(material string, data uint8, amount int) ItemStack {
	return ItemStack{Material: material, Data: data, Amount: amount}
}

// IsEmpty reports whether the stack represents an empty slot.
func (s ItemStack) IsEmpty() bool {
	return s.Material == "" || s.Amount <= 0
}

// MaxStackSize returns the maximum amount a single slot may hold.
func (s ItemStack) MaxStackSize() int {
	if s.MaxStack <= 0 {
		return DefaultMaxStack
	}
	return s.MaxStack
}

// Clone returns a deep copy of the stack.
func (s ItemStack) Clone() ItemStack {
	s.Lore = slices.Clone(s.Lore)
	return s
}

// WithAmount returns a copy with the amount replaced.
func (s ItemStack) WithAmount(amount int) ItemStack {
	c := s.Clone()
	c.Amount = amount
	return c
}

// IsSimilar reports whether two stacks may be merged into one slot.
// Amount is ignored.
func (s ItemStack) IsSimilar(other ItemStack) bool {
	if s.IsEmpty() || other.IsEmpty() {
		return false
	}
	return sameMaterial(s.Material, other.Material) &&
		s.Data == other.Data &&
		s.MaxStackSize() == other.MaxStackSize() &&
		s.DisplayName == other.DisplayName &&
		slices.Equal(s.Lore, other.Lore)
}

// String returns a short human-readable form, e.g. "diamond:0 x5".
func (s ItemStack) String() string {
	if s.IsEmpty() {
		return "empty"
	}
	return fmt.Sprintf("%s:%d x%d", s.Material, s.Data, s.Amount)
}

// Signature identifies an item kind: material plus legacy sub-type datum.
type Signature struct {
	Material string
	Data     uint8
}

// ParseSignature parses "material[:data]" config strings (e.g. "ink_sack:10").
func ParseSignature(s string) (Signature, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Signature{}, fmt.Errorf("empty item signature")
	}

	material, data, hasData := strings.Cut(s, ":")
	if material == "" {
		return Signature{}, fmt.Errorf("item signature %q: material is empty", s)
	}

	sig := Signature{Material: strings.ToLower(material)}
	if hasData {
		v, err := strconv.ParseUint(data, 10, 8)
		if err != nil {
			return Signature{}, fmt.Errorf("item signature %q: illegal data: %w", s, err)
		}
		sig.Data = uint8(v)
	}
	return sig, nil
}

// Matches reports whether the stack has this signature's material and datum.
func (sig Signature) Matches(s ItemStack) bool {
	return sameMaterial(sig.Material, s.Material) && sig.Data == s.Data
}

// NewItemStack creates a single item of this signature.
func (sig Signature) NewItemStack() ItemStack {
	return ItemStack{Material: sig.Material, Data: sig.Data, Amount: 1}
}

// String returns the config form of the signature.
func (sig Signature) String() string {
	if sig.Data == 0 {
		return sig.Material
	}
	return fmt.Sprintf("%s:%d", sig.Material, sig.Data)
}

// sameMaterial compares material names ignoring case and underscores
// ("INK_SACK" == "inksack").
func sameMaterial(a, b string) bool {
	return strings.EqualFold(strings.ReplaceAll(a, "_", ""), strings.ReplaceAll(b, "_", ""))
}
