package gateway

import "github.com/udisondev/simpletrade/internal/model"

// Inbound frame types.
const (
	TypeHello    = "hello"
	TypeTrade    = "trade"
	TypeAccept   = "accept"
	TypeDecline  = "decline"
	TypeClick    = "click"
	TypeClose    = "close"
	TypeMove     = "move"
	TypeGive     = "give"
	TypePickup   = "pickup"
	TypeHold     = "hold"
	TypeExp      = "exp"
	TypeCreative = "creative"
	TypeDie      = "die"
	TypeInteract = "interact"
	TypeReload   = "reload"
	TypeSign     = "sign"
)

// Outbound frame types.
const (
	TypeWelcome   = "welcome"
	TypeMessage   = "message"
	TypeOpen      = "open"
	TypeSlot      = "slot"
	TypeSound     = "sound"
	TypeInventory = "inventory"
	TypeError     = "error"
)

// Click areas and buttons as spelled on the wire.
const (
	AreaPanel    = "panel"
	AreaPersonal = "personal"
	ButtonLeft   = "left"
	ButtonRight  = "right"
)

// Inbound is the union of all client frames. Which fields are set depends on Type;
// the embedded schema enforces it before decoding.
type Inbound struct {
	Type string `json:"type"`

	// hello
	Name   string  `json:"name,omitempty"`
	Secret string  `json:"secret,omitempty"`
	World  string  `json:"world,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Z      float64 `json:"z,omitempty"`

	// trade, interact
	Target string `json:"target,omitempty"`

	// click
	Area   string `json:"area,omitempty"`
	Slot   int    `json:"slot,omitempty"`
	Button string `json:"button,omitempty"`

	// give, pickup
	Item *model.ItemStack `json:"item,omitempty"`

	// exp, creative, sign
	Total   int  `json:"total,omitempty"`
	Enabled bool `json:"enabled,omitempty"`
	Number  int  `json:"number,omitempty"`
}

type welcomeFrame struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

type messageFrame struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type openFrame struct {
	Type  string            `json:"type"`
	Title string            `json:"title"`
	Slots []model.ItemStack `json:"slots"`
}

type slotFrame struct {
	Type  string          `json:"type"`
	Index int             `json:"index"`
	Item  model.ItemStack `json:"item"`
}

type closeFrame struct {
	Type string `json:"type"`
}

type soundFrame struct {
	Type  string  `json:"type"`
	Cue   string  `json:"cue"`
	Pitch float32 `json:"pitch"`
}

type inventoryFrame struct {
	Type  string            `json:"type"`
	Held  int               `json:"held"`
	Slots []model.ItemStack `json:"slots"`
}

type errorFrame struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}
