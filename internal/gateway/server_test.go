package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/udisondev/simpletrade/internal/config"
	"github.com/udisondev/simpletrade/internal/model"
	"github.com/udisondev/simpletrade/internal/trade"
)

const frameTimeout = 2 * time.Second

type harness struct {
	hub *Hub
	svc *trade.Service
	srv *httptest.Server
}

func newHarness(t *testing.T, mutate func(cfg *config.GatewayConfig)) *harness {
	t.Helper()

	cfg := config.DefaultServer().Gateway
	if mutate != nil {
		mutate(&cfg)
	}

	hub := NewHub()
	opts, err := trade.NewOptions(config.DefaultTrade(), nil, nil, hub)
	require.NoError(t, err)
	svc := trade.NewService(trade.NewRegistry(opts, nil), hub, nil)

	gw, err := NewServer(cfg, hub, svc)
	require.NoError(t, err)

	srv := httptest.NewServer(gw.Handler())
	t.Cleanup(func() {
		gw.Shutdown()
		srv.Close()
	})
	return &harness{hub: hub, svc: svc, srv: srv}
}

func (h *harness) dial(t *testing.T) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(h.srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// login dials and says hello; it returns once the welcome frame arrived.
func (h *harness) login(t *testing.T, name string, x float64) *websocket.Conn {
	t.Helper()

	conn := h.dial(t)
	sendFrame(t, conn, map[string]any{"type": "hello", "name": name, "world": "world", "x": x, "y": 64, "z": 0})
	f := readUntil(t, conn, TypeWelcome)
	require.Equal(t, name, f["name"])
	return conn
}

func sendFrame(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(v))
}

// readUntil skips frames until one of the given type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) map[string]any {
	t.Helper()

	deadline := time.Now().Add(frameTimeout)
	for {
		require.NoError(t, conn.SetReadDeadline(deadline))
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %q frame", typ)

		var f map[string]any
		require.NoError(t, json.Unmarshal(msg, &f))
		if f["type"] == typ {
			return f
		}
	}
}

func (h *harness) player(t *testing.T, name string) *model.Player {
	t.Helper()
	p, ok := h.hub.Player(name)
	require.True(t, ok, "player %s is not connected", name)
	return p
}

func TestServer_Welcome(t *testing.T) {
	h := newHarness(t, nil)
	conn := h.login(t, "Alice", 0)

	inv := readUntil(t, conn, TypeInventory)
	assert.Len(t, inv["slots"], model.PersonalInventorySize)

	p := h.player(t, "alice")
	assert.Equal(t, "alice", p.ID())
	assert.True(t, p.HasPermission(config.PermTrade))
	assert.False(t, p.HasPermission(config.PermReload))
	assert.Equal(t, 1, h.hub.Count())
}

func TestServer_AdminGetsEveryPermission(t *testing.T) {
	h := newHarness(t, func(cfg *config.GatewayConfig) {
		cfg.Admins = []string{"alice"}
	})
	h.login(t, "Alice", 0)

	assert.True(t, h.player(t, "Alice").HasPermission(config.PermReload))
}

func TestServer_TradeFlow(t *testing.T) {
	h := newHarness(t, nil)
	alice := h.login(t, "Alice", 0)
	bob := h.login(t, "Bob", 2)

	sendFrame(t, alice, map[string]any{"type": "give", "item": map[string]any{"material": "diamond", "amount": 5}})
	require.Eventually(t, func() bool {
		return h.player(t, "Alice").Storage().CountOf(model.NewItemStack("diamond", 0, 1)) == 5
	}, frameTimeout, 10*time.Millisecond)

	sendFrame(t, alice, map[string]any{"type": "trade", "target": "Bob"})
	require.Eventually(t, func() bool {
		return h.svc.Registry().IsInvolved(h.player(t, "Bob"))
	}, frameTimeout, 10*time.Millisecond)

	sendFrame(t, bob, map[string]any{"type": "accept"})
	readUntil(t, alice, TypeOpen)
	readUntil(t, bob, TypeOpen)

	sendFrame(t, alice, map[string]any{"type": "click", "area": "personal", "slot": 0, "button": "left"})
	require.Eventually(t, func() bool {
		return h.player(t, "Alice").Storage().CountOf(model.NewItemStack("diamond", 0, 1)) == 0
	}, frameTimeout, 10*time.Millisecond)

	sendFrame(t, alice, map[string]any{"type": "click", "area": "panel", "slot": trade.SlotAccept, "button": "left"})
	sendFrame(t, bob, map[string]any{"type": "click", "area": "panel", "slot": trade.SlotAccept, "button": "left"})

	readUntil(t, alice, TypeClose)
	readUntil(t, bob, TypeClose)
	require.Eventually(t, func() bool {
		return h.player(t, "Bob").Storage().CountOf(model.NewItemStack("diamond", 0, 1)) == 5
	}, frameTimeout, 10*time.Millisecond)
	assert.Zero(t, h.svc.Registry().Count())
}

func TestServer_DisconnectCancelsTrade(t *testing.T) {
	h := newHarness(t, nil)
	alice := h.login(t, "Alice", 0)
	bob := h.login(t, "Bob", 2)

	sendFrame(t, alice, map[string]any{"type": "trade", "target": "Bob"})
	require.Eventually(t, func() bool {
		return h.svc.Registry().IsInvolved(h.player(t, "Bob"))
	}, frameTimeout, 10*time.Millisecond)
	sendFrame(t, bob, map[string]any{"type": "accept"})
	readUntil(t, alice, TypeOpen)

	require.NoError(t, bob.Close())

	readUntil(t, alice, TypeClose)
	require.Eventually(t, func() bool {
		return h.svc.Registry().Count() == 0 && h.hub.Count() == 1
	}, frameTimeout, 10*time.Millisecond)
}

func TestServer_InvalidFrameGetsError(t *testing.T) {
	h := newHarness(t, nil)
	conn := h.login(t, "Alice", 0)

	sendFrame(t, conn, map[string]any{"type": "click", "area": "panel", "slot": 99, "button": "left"})
	f := readUntil(t, conn, TypeError)
	assert.Contains(t, f["reason"], "invalid frame")

	// соединение продолжает работать
	sendFrame(t, conn, map[string]any{"type": "exp", "total": 100})
	require.Eventually(t, func() bool {
		return h.player(t, "Alice").TotalExperience() == 100
	}, frameTimeout, 10*time.Millisecond)
}

func TestServer_ClickWithoutSessionGetsError(t *testing.T) {
	h := newHarness(t, nil)
	conn := h.login(t, "Alice", 0)

	sendFrame(t, conn, map[string]any{"type": "click", "area": "panel", "slot": 3, "button": "left"})
	readUntil(t, conn, TypeError)
}

func TestServer_HandshakeRejected(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	h := newHarness(t, func(cfg *config.GatewayConfig) {
		cfg.Accounts = map[string]string{"Alice": string(hash)}
	})

	tests := []struct {
		name  string
		hello map[string]any
	}{
		{"wrong secret", map[string]any{"type": "hello", "name": "Alice", "secret": "nope", "world": "world"}},
		{"unknown account", map[string]any{"type": "hello", "name": "Mallory", "secret": "s3cret", "world": "world"}},
		{"not a hello", map[string]any{"type": "accept"}},
		{"bad name", map[string]any{"type": "hello", "name": "a b", "world": "world"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := h.dial(t)
			sendFrame(t, conn, tt.hello)

			require.NoError(t, conn.SetReadDeadline(time.Now().Add(frameTimeout)))
			_, _, err := conn.ReadMessage()
			require.Error(t, err)
			assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)
		})
	}

	conn := h.dial(t)
	sendFrame(t, conn, map[string]any{"type": "hello", "name": "Alice", "secret": "s3cret", "world": "world"})
	readUntil(t, conn, TypeWelcome)
}

func TestServer_DuplicateNameRejected(t *testing.T) {
	h := newHarness(t, nil)
	h.login(t, "Alice", 0)

	conn := h.dial(t)
	sendFrame(t, conn, map[string]any{"type": "hello", "name": "ALICE", "world": "world"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(frameTimeout)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.Equal(t, 1, h.hub.Count())
}

func TestServer_Healthz(t *testing.T) {
	h := newHarness(t, nil)
	h.login(t, "Alice", 0)

	resp, err := http.Get(h.srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
