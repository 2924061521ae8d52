// Package gateway connects players to the trade engine over WebSocket.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/udisondev/simpletrade/internal/config"
	"github.com/udisondev/simpletrade/internal/model"
	"github.com/udisondev/simpletrade/internal/trade"
)

const handshakeTimeout = 5 * time.Second

// Server accepts player connections and dispatches their frames.
type Server struct {
	cfg       config.GatewayConfig
	hub       *Hub
	svc       *trade.Service
	validator *Validator
	upgrader  websocket.Upgrader
}

// NewServer creates a gateway over hub and svc.
func NewServer(cfg config.GatewayConfig, hub *Hub, svc *trade.Service) (*Server, error) {
	v, err := NewValidator()
	if err != nil {
		return nil, err
	}
	return &Server{
		cfg:       cfg,
		hub:       hub,
		svc:       svc,
		validator: v,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}, nil
}

// Handler returns the HTTP handler serving the WebSocket endpoint and /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.Path, s.serveWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprintf(w, "ok players=%d sessions=%d\n", s.hub.Count(), s.svc.Registry().Count())
	})
	return mux
}

// Shutdown disconnects every player.
func (s *Server) Shutdown() {
	s.hub.CloseAll()
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()

	c, err := s.handshake(conn)
	if err != nil {
		slog.Info("handshake rejected", "remote", r.RemoteAddr, "error", err)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, closeReason(err)),
			time.Now().Add(time.Second))
		return
	}
	p := c.player

	slog.Info("player connected",
		"player", p.Name(),
		"remote", r.RemoteAddr,
		"location", p.Location())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go s.writeLoop(ctx, c)

	c.send(welcomeFrame{Type: TypeWelcome, ID: p.ID(), Name: p.Name()})
	c.send(inventorySnapshot(p.Inventory()))

	s.readLoop(ctx, c)

	// Cleanup
	c.shutdown()
	p.SetOnline(false)
	s.svc.Registry().OnQuit(p)
	s.hub.remove(c)

	slog.Info("player disconnected", "player", p.Name())
}

func (s *Server) handshake(conn *websocket.Conn) (*client, error) {
	_ = conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("reading hello: %w", err)
	}

	in, err := s.validator.Decode(msg)
	if err != nil {
		return nil, err
	}
	if in.Type != TypeHello {
		return nil, fmt.Errorf("expected hello, got %q", in.Type)
	}
	if err := authenticate(s.cfg.Accounts, in.Name, in.Secret); err != nil {
		return nil, err
	}

	id := strings.ToLower(in.Name)
	p, err := model.NewPlayer(id, in.Name, model.NewLocation(in.World, in.X, in.Y, in.Z))
	if err != nil {
		return nil, fmt.Errorf("creating player: %w", err)
	}
	p.Grant(s.cfg.Permissions...)
	for _, admin := range s.cfg.Admins {
		if strings.EqualFold(admin, in.Name) {
			p.Grant(model.PermissionAll)
		}
	}

	c := newClient(p, conn, s.cfg.SendQueue)
	if err := s.hub.add(c); err != nil {
		return nil, fmt.Errorf("%s: %w", in.Name, err)
	}
	p.SetOutput(func(text string) {
		c.send(messageFrame{Type: TypeMessage, Text: text})
	})
	return c, nil
}

func (s *Server) writeLoop(ctx context.Context, c *client) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case b := <-c.out:
			_ = c.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				slog.Debug("writing frame", "player", c.player.Name(), "error", err)
				c.shutdown()
				return
			}
		}
	}
}

func (s *Server) readLoop(ctx context.Context, c *client) {
	for {
		if s.cfg.ReadTimeout > 0 {
			_ = c.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		} else {
			_ = c.conn.SetReadDeadline(time.Time{})
		}
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		in, err := s.validator.Decode(msg)
		if err != nil {
			c.send(errorFrame{Type: TypeError, Reason: err.Error()})
			continue
		}
		if err := s.dispatch(ctx, c, in); err != nil {
			s.report(c, in, err)
		}
	}
}

// dispatch executes one client frame.
func (s *Server) dispatch(ctx context.Context, c *client, in Inbound) error {
	p := c.player
	reg := s.svc.Registry()

	switch in.Type {
	case TypeHello:
		return errors.New("already logged in")
	case TypeTrade:
		_, err := s.svc.Request(p, in.Target)
		return err
	case TypeAccept:
		_, err := s.svc.AcceptRequest(p)
		return err
	case TypeDecline:
		return s.svc.DeclineRequest(p)
	case TypeInteract:
		target, ok := s.hub.Lookup(in.Target)
		if !ok {
			return fmt.Errorf("player %q is not online", in.Target)
		}
		_, err := s.svc.Interact(p, target)
		return err
	case TypeClick:
		_, err := reg.Click(ctx, p, slotRef(in), click(in))
		return err
	case TypeClose:
		reg.OnViewClosed(p)
	case TypeMove:
		p.SetLocation(model.NewLocation(in.World, in.X, in.Y, in.Z))
	case TypeGive:
		s.store(c, *in.Item)
	case TypePickup:
		if reg.ShouldBlockPickup(p) {
			return errors.New("pickup blocked while trading")
		}
		s.store(c, *in.Item)
	case TypeHold:
		if err := p.Storage().SetHeldSlot(in.Slot); err != nil {
			return err
		}
		c.send(inventorySnapshot(p.Inventory()))
	case TypeExp:
		p.SetTotalExperience(in.Total)
	case TypeCreative:
		p.SetCreative(in.Enabled)
	case TypeDie:
		reg.OnDeath(p)
	case TypeReload:
		return s.svc.Reload(p)
	case TypeSign:
		return s.svc.Sign(p, in.Number)
	}
	return nil
}

// store adds a stack to the personal inventory; what does not fit is dropped.
func (s *Server) store(c *client, stack model.ItemStack) {
	p := c.player
	if left := p.Storage().AddItem(stack); !left.IsEmpty() {
		p.DropItem(left)
	}
	c.send(inventorySnapshot(p.Inventory()))
}

// report turns a dispatch error into an error frame.
// Refusals were already shown to the player as chat messages.
func (s *Server) report(c *client, in Inbound, err error) {
	if r, ok := trade.AsRefusal(err); ok {
		slog.Debug("command refused",
			"player", c.player.Name(),
			"command", in.Type,
			"reason", r.Reason)
		if r.Key != "" {
			return
		}
	}
	if trade.IsIntegrity(err) {
		slog.Debug("command out of state",
			"player", c.player.Name(),
			"command", in.Type,
			"error", err)
	}
	c.send(errorFrame{Type: TypeError, Reason: err.Error()})
}

// closeReason fits an error into a close frame (control payload is limited to 125 bytes).
func closeReason(err error) string {
	const limit = 120
	r := err.Error()
	if len(r) > limit {
		r = strings.ToValidUTF8(r[:limit], "")
	}
	return r
}

func slotRef(in Inbound) trade.SlotRef {
	if in.Area == AreaPersonal {
		return trade.PersonalSlot(in.Slot)
	}
	return trade.PanelSlot(in.Slot)
}

func click(in Inbound) trade.Click {
	if in.Button == ButtonRight {
		return trade.ClickSecondary
	}
	return trade.ClickPrimary
}
