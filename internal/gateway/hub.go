package gateway

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/udisondev/simpletrade/internal/model"
	"github.com/udisondev/simpletrade/internal/trade"
)

// ErrNameTaken is returned when a player with the same name is already connected.
var ErrNameTaken = errors.New("name already connected")

// client is one connected player.
type client struct {
	player *model.Player
	conn   *websocket.Conn
	out    chan []byte
	done   chan struct{}
	once   sync.Once
}

func newClient(p *model.Player, conn *websocket.Conn, queue int) *client {
	return &client{
		player: p,
		conn:   conn,
		out:    make(chan []byte, queue),
		done:   make(chan struct{}),
	}
}

// send queues a frame. A client that cannot keep up is disconnected.
func (c *client) send(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		slog.Error("encoding frame", "player", c.player.Name(), "error", err)
		return
	}

	select {
	case <-c.done:
		return
	default:
	}

	select {
	case c.out <- b:
	default:
		slog.Warn("send queue overflow, disconnecting",
			"player", c.player.Name(),
			"queue", cap(c.out))
		c.shutdown()
	}
}

func (c *client) shutdown() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// Hub tracks connected players. It is the trade directory and the trade view:
// panel updates become frames pushed to the owning client.
// Thread-safe.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client // player ID → client
	byName  map[string]string  // lower-case name → player ID
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*client, 64),
		byName:  make(map[string]string, 64),
	}
}

func (h *Hub) add(c *client) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := strings.ToLower(c.player.Name())
	if _, ok := h.byName[key]; ok {
		return ErrNameTaken
	}
	h.clients[c.player.ID()] = c
	h.byName[key] = c.player.ID()
	return nil
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[c.player.ID()] != c {
		return
	}
	delete(h.clients, c.player.ID())
	delete(h.byName, strings.ToLower(c.player.Name()))
}

func (h *Hub) client(id string) *client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[id]
}

// Player returns a connected player by name (case-insensitive).
func (h *Hub) Player(name string) (*model.Player, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	id, ok := h.byName[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return h.clients[id].player, true
}

// Lookup implements trade.Directory.
func (h *Hub) Lookup(name string) (trade.Actor, bool) {
	p, ok := h.Player(name)
	if !ok {
		return nil, false
	}
	return p, true
}

// Actors implements trade.Directory.
func (h *Hub) Actors() []trade.Actor {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]trade.Actor, 0, len(h.clients))
	for _, c := range h.clients {
		out = append(out, c.player)
	}
	return out
}

// Count returns the number of connected players.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll disconnects every client.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.shutdown()
	}
}

func (h *Hub) push(a trade.Actor, v any) {
	if c := h.client(a.ID()); c != nil {
		c.send(v)
	}
}

// Open implements trade.View.
func (h *Hub) Open(a trade.Actor, title string, slots []model.ItemStack) {
	h.push(a, openFrame{Type: TypeOpen, Title: title, Slots: slots})
}

// Update implements trade.View.
func (h *Hub) Update(a trade.Actor, index int, stack model.ItemStack) {
	h.push(a, slotFrame{Type: TypeSlot, Index: index, Item: stack})
}

// Close implements trade.View.
func (h *Hub) Close(a trade.Actor) {
	h.push(a, closeFrame{Type: TypeClose})
}

// Play implements trade.View.
func (h *Hub) Play(a trade.Actor, cue trade.Cue, pitch float32) {
	h.push(a, soundFrame{Type: TypeSound, Cue: cue.String(), Pitch: pitch})
}

// SyncInventory implements trade.View.
func (h *Hub) SyncInventory(a trade.Actor) {
	h.push(a, inventorySnapshot(a.Inventory()))
}

func inventorySnapshot(inv model.Container) inventoryFrame {
	slots := make([]model.ItemStack, inv.Size())
	for i := range slots {
		slots[i] = inv.Slot(i)
	}
	return inventoryFrame{Type: TypeInventory, Held: inv.HeldSlot(), Slots: slots}
}
