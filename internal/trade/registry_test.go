package trade

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/simpletrade/internal/config"
	"github.com/udisondev/simpletrade/internal/i18n"
	"github.com/udisondev/simpletrade/internal/model"
)

func TestRegistry_Initiate(t *testing.T) {
	e := newEnv(t, nil, nil)
	alice, bob := newTestPlayer(t, "Alice", 0), newTestPlayer(t, "Bob", 3)

	s, err := e.registry.Initiate(alice, bob)
	require.NoError(t, err)

	assert.Equal(t, StateRequested, s.State())
	assert.True(t, e.registry.IsInvolved(alice))
	assert.True(t, e.registry.IsInvolved(bob))
	assert.Same(t, s, e.registry.Find(bob))
	assert.Equal(t, 1, e.registry.Count())
	assert.Contains(t, alice.Messages(), i18n.TradeRequested)
	assert.Contains(t, bob.Messages(), i18n.TradeRequestReceived)
}

func TestRegistry_InitiateRefusals(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *config.Trade)
		setup  func(t *testing.T, e *env, a, b *model.Player) (initiator, partner Actor)
		want   error
	}{
		{
			name: "self trade",
			setup: func(_ *testing.T, _ *env, a, _ *model.Player) (Actor, Actor) {
				return a, a
			},
			want: ErrSelfTrade,
		},
		{
			name: "partner busy",
			setup: func(t *testing.T, e *env, a, b *model.Player) (Actor, Actor) {
				_, err := e.registry.Initiate(b, newTestPlayer(t, "Carol", 1))
				require.NoError(t, err)
				return a, b
			},
			want: ErrPartnerBusy,
		},
		{
			name: "initiator busy",
			setup: func(t *testing.T, e *env, a, b *model.Player) (Actor, Actor) {
				_, err := e.registry.Initiate(newTestPlayer(t, "Carol", 1), a)
				require.NoError(t, err)
				return a, b
			},
			want: ErrAlreadyTrading,
		},
		{
			name: "too far",
			setup: func(_ *testing.T, _ *env, a, b *model.Player) (Actor, Actor) {
				b.SetLocation(model.NewLocation("world", 16, 64, 0))
				return a, b
			},
			want: ErrTooFar,
		},
		{
			name: "other world",
			setup: func(_ *testing.T, _ *env, a, b *model.Player) (Actor, Actor) {
				b.SetLocation(model.NewLocation("world_nether", 0, 64, 0))
				return a, b
			},
			want: ErrTooFar,
		},
		{
			name: "creative forbidden",
			mutate: func(cfg *config.Trade) {
				cfg.Global.CreativeTrading = false
			},
			setup: func(_ *testing.T, _ *env, a, b *model.Player) (Actor, Actor) {
				b.SetCreative(true)
				return a, b
			},
			want: ErrCreative,
		},
		{
			name: "world blacklisted",
			mutate: func(cfg *config.Trade) {
				cfg.WorldControl.WorldList = []string{"world"}
			},
			setup: func(_ *testing.T, _ *env, a, b *model.Player) (Actor, Actor) {
				return a, b
			},
			want: ErrWorldDenied,
		},
		{
			name: "partner world not whitelisted",
			mutate: func(cfg *config.Trade) {
				cfg.Global.MaxDistance = config.NoMaxDistance
				cfg.WorldControl.Mode = "WHITELIST"
				cfg.WorldControl.WorldList = []string{"world"}
			},
			setup: func(_ *testing.T, _ *env, a, b *model.Player) (Actor, Actor) {
				b.SetLocation(model.NewLocation("world_the_end", 0, 64, 0))
				return a, b
			},
			want: ErrPartnerWorldDenied,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, nil, tt.mutate)
			alice, bob := newTestPlayer(t, "Alice", 0), newTestPlayer(t, "Bob", 3)
			initiator, partner := tt.setup(t, e, alice, bob)
			before := e.registry.Count()

			_, err := e.registry.Initiate(initiator, partner)

			require.ErrorIs(t, err, tt.want)
			_, ok := AsRefusal(err)
			assert.True(t, ok)
			assert.Equal(t, before, e.registry.Count())
		})
	}
}

func TestRegistry_UnlimitedDistanceAcrossWorlds(t *testing.T) {
	e := newEnv(t, nil, func(cfg *config.Trade) { cfg.Global.MaxDistance = config.NoMaxDistance })
	alice, bob := newTestPlayer(t, "Alice", 0), newTestPlayer(t, "Bob", 0)
	bob.SetLocation(model.NewLocation("world_nether", 5000, 64, 0))

	_, err := e.registry.Initiate(alice, bob)
	require.NoError(t, err)
}

func TestRegistry_AcceptRequiresPendingRequest(t *testing.T) {
	e := newEnv(t, nil, nil)
	alice, bob := newTestPlayer(t, "Alice", 0), newTestPlayer(t, "Bob", 3)

	_, err := e.registry.Accept(bob)
	assert.ErrorIs(t, err, ErrNoPendingRequest)

	_, err = e.registry.Initiate(alice, bob)
	require.NoError(t, err)

	// Инициатор не может принять свой же запрос
	_, err = e.registry.Accept(alice)
	assert.ErrorIs(t, err, ErrNoPendingRequest)
}

func TestRegistry_AcceptRechecksDistance(t *testing.T) {
	e := newEnv(t, nil, nil)
	alice, bob := newTestPlayer(t, "Alice", 0), newTestPlayer(t, "Bob", 3)
	s, err := e.registry.Initiate(alice, bob)
	require.NoError(t, err)

	bob.SetLocation(model.NewLocation("world", 100, 64, 0))
	_, err = e.registry.Accept(bob)

	assert.ErrorIs(t, err, ErrTooFar)
	assert.Equal(t, StateRequested, s.State())
}

func TestRegistry_DeclineScenario(t *testing.T) {
	e := newEnv(t, nil, nil)
	alice, bob := newTestPlayer(t, "Alice", 0), newTestPlayer(t, "Bob", 3)
	s, err := e.registry.Initiate(alice, bob)
	require.NoError(t, err)

	_, err = e.registry.Decline(bob)
	require.NoError(t, err)

	assert.Equal(t, StateCancelled, s.State())
	assert.False(t, e.registry.IsInvolved(alice))
	assert.False(t, e.registry.IsInvolved(bob))
	assert.Contains(t, alice.Messages(), i18n.TradeRequestDeclined)
	assert.Contains(t, bob.Messages(), i18n.TradeDeclined)

	outcomes := e.recorder.all()
	require.Len(t, outcomes, 1)
	assert.Equal(t, CauseDecline, outcomes[0].Cause)

	_, err = e.registry.Decline(bob)
	assert.ErrorIs(t, err, ErrNoPendingRequest)

	// сразу можно начать новую сделку
	next, err := e.registry.Initiate(alice, bob)
	require.NoError(t, err)
	assert.Equal(t, StateRequested, next.State())
	assert.NotEqual(t, s.ID(), next.ID())
}

func TestRegistry_DeclineAfterAcceptIsNoop(t *testing.T) {
	e := newEnv(t, nil, nil)
	alice, bob := newTestPlayer(t, "Alice", 0), newTestPlayer(t, "Bob", 3)
	s := e.startTrading(t, alice, bob)

	_, err := e.registry.Decline(bob)
	require.NoError(t, err)
	assert.Equal(t, StateTrading, s.State())
}

func TestRegistry_TimeoutCancelsRequest(t *testing.T) {
	e := newEnv(t, nil, nil)
	e.opts.Timeout = 20 * time.Millisecond
	alice, bob := newTestPlayer(t, "Alice", 0), newTestPlayer(t, "Bob", 3)

	s, err := e.registry.Initiate(alice, bob)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return s.State() == StateCancelled && e.registry.Count() == 0
	}, time.Second, 5*time.Millisecond)

	assert.Contains(t, alice.Messages(), i18n.CancelTradeTimeout)
	assert.Contains(t, bob.Messages(), i18n.CancelTradeTimeout)

	outcomes := e.recorder.all()
	require.Len(t, outcomes, 1)
	assert.Equal(t, CauseTimeout, outcomes[0].Cause)
}

func TestRegistry_TimeoutAfterAcceptIsIgnored(t *testing.T) {
	e := newEnv(t, nil, nil)
	e.opts.Timeout = 30 * time.Millisecond
	alice, bob := newTestPlayer(t, "Alice", 0), newTestPlayer(t, "Bob", 3)

	s := e.startTrading(t, alice, bob)
	time.Sleep(90 * time.Millisecond)

	assert.Equal(t, StateTrading, s.State())
	assert.Equal(t, 1, e.registry.Count())
	assert.NotContains(t, alice.Messages(), i18n.CancelTradeTimeout)
}

func TestRegistry_ClickWithoutSession(t *testing.T) {
	e := newEnv(t, nil, nil)
	alice := newTestPlayer(t, "Alice", 0)

	_, err := e.registry.Click(context.Background(), alice, PanelSlot(SlotAccept), ClickPrimary)
	assert.ErrorIs(t, err, ErrUnknownSession)
}

func TestRegistry_StopUnregistered(t *testing.T) {
	e := newEnv(t, nil, nil)
	alice, bob := newTestPlayer(t, "Alice", 0), newTestPlayer(t, "Bob", 3)
	s := e.startTrading(t, alice, bob)
	require.NoError(t, e.registry.Stop(s, CauseQuit, alice))

	err := e.registry.Stop(s, CauseQuit, alice)
	assert.ErrorIs(t, err, ErrUnknownSession)
	assert.True(t, IsIntegrity(err))
}

func TestRegistry_StopAll(t *testing.T) {
	e := newEnv(t, nil, nil)
	alice, bob := newTestPlayer(t, "Alice", 0), newTestPlayer(t, "Bob", 3)
	carol, dave := newTestPlayer(t, "Carol", 1), newTestPlayer(t, "Dave", 2)
	give(t, alice, 0, diamonds(2))

	e.startTrading(t, alice, bob)
	e.click(t, alice, PersonalSlot(0), ClickPrimary)
	_, err := e.registry.Initiate(carol, dave)
	require.NoError(t, err)

	e.registry.StopAll(CauseServerShutdown)

	assert.Zero(t, e.registry.Count())
	assert.Equal(t, 2, alice.Storage().CountOf(diamonds(1)))
	for _, p := range []*model.Player{alice, bob, carol, dave} {
		assert.Contains(t, p.Messages(), i18n.CancelServerShutdown, p.Name())
	}
	assert.Len(t, e.recorder.all(), 2)
}

func TestRegistry_SetOptionsAffectsNewSessionsOnly(t *testing.T) {
	e := newEnv(t, nil, nil)
	alice, bob := newTestPlayer(t, "Alice", 0), newTestPlayer(t, "Bob", 3)
	s := e.startTrading(t, alice, bob)

	cfg := config.DefaultTrade()
	cfg.Global.UseXPTrading = false
	next, err := NewOptions(cfg, nil, nil, e.view)
	require.NoError(t, err)
	e.registry.SetOptions(next)

	alice.SetTotalExperience(100)
	res := e.click(t, alice, PanelSlot(SlotExp1), ClickPrimary)
	assert.Equal(t, ActionStageExp, res.Action)
	assert.Equal(t, 5, s.Snapshot().Initiator.Exp)
	assert.Same(t, next, e.registry.Options())
}

func TestRegistry_ConcurrentInitiateKeepsOneSessionPerActor(t *testing.T) {
	e := newEnv(t, nil, nil)
	target := newTestPlayer(t, "Target", 0)

	const workers = 16
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		won int
	)
	for i := range workers {
		p := newTestPlayer(t, "P"+string(rune('A'+i)), 1)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.registry.Initiate(p, target); err == nil {
				mu.Lock()
				won++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, won)
	assert.Equal(t, 1, e.registry.Count())
}
