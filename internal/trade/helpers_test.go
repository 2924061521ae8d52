package trade

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/simpletrade/internal/config"
	"github.com/udisondev/simpletrade/internal/model"
)

// recordingView remembers everything pushed to actors.
type recordingView struct {
	mu      sync.Mutex
	opened  map[string]string // actorID → title
	slots   map[string][]model.ItemStack
	updates map[string]int
	closed  map[string]int
	synced  map[string]int
	cues    []Cue
}

func newRecordingView() *recordingView {
	return &recordingView{
		opened:  make(map[string]string),
		slots:   make(map[string][]model.ItemStack),
		updates: make(map[string]int),
		closed:  make(map[string]int),
		synced:  make(map[string]int),
	}
}

func (v *recordingView) Open(a Actor, title string, slots []model.ItemStack) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.opened[a.ID()] = title
	v.slots[a.ID()] = slots
}

func (v *recordingView) Update(a Actor, index int, stack model.ItemStack) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.updates[a.ID()]++
	if s, ok := v.slots[a.ID()]; ok {
		s[index] = stack
	}
}

func (v *recordingView) Close(a Actor) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed[a.ID()]++
}

func (v *recordingView) Play(_ Actor, cue Cue, _ float32) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cues = append(v.cues, cue)
}

func (v *recordingView) SyncInventory(a Actor) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.synced[a.ID()]++
}

func (v *recordingView) shown(a Actor, index int) model.ItemStack {
	v.mu.Lock()
	defer v.mu.Unlock()
	s := v.slots[a.ID()]
	if index >= len(s) {
		return model.ItemStack{}
	}
	return s[index]
}

func (v *recordingView) closedCount(a Actor) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed[a.ID()]
}

// outcomeRecorder collects retired sessions.
type outcomeRecorder struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func (r *outcomeRecorder) Record(o Outcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
	return nil
}

func (r *outcomeRecorder) all() []Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Outcome(nil), r.outcomes...)
}

// mockLedger is a testify mock of the currency provider.
type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) Balance(ctx context.Context, accountID string) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockLedger) Withdraw(ctx context.Context, accountID string, amount int64) error {
	return m.Called(ctx, accountID, amount).Error(0)
}

func (m *mockLedger) Deposit(ctx context.Context, accountID string, amount int64) error {
	return m.Called(ctx, accountID, amount).Error(0)
}

func (m *mockLedger) Format(amount int64) string {
	return fmt.Sprintf("%d", amount)
}

// fakeDirectory resolves players by name.
type fakeDirectory struct {
	players []*model.Player
}

func (d *fakeDirectory) Lookup(name string) (Actor, bool) {
	for _, p := range d.players {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

func (d *fakeDirectory) Actors() []Actor {
	out := make([]Actor, 0, len(d.players))
	for _, p := range d.players {
		out = append(out, p)
	}
	return out
}

// env bundles a registry with its collaborators.
type env struct {
	view     *recordingView
	recorder *outcomeRecorder
	registry *Registry
	opts     *Options
}

// newEnv builds a registry on the stock rules; mutate adjusts the config.
func newEnv(t *testing.T, ledger Ledger, mutate func(cfg *config.Trade)) *env {
	t.Helper()

	cfg := config.DefaultTrade()
	if mutate != nil {
		mutate(&cfg)
	}
	view := newRecordingView()
	opts, err := NewOptions(cfg, ledger, nil, view)
	require.NoError(t, err)

	rec := &outcomeRecorder{}
	return &env{
		view:     view,
		recorder: rec,
		registry: NewRegistry(opts, rec),
		opts:     opts,
	}
}

// newTestPlayer creates an online player with every permission in world "world".
func newTestPlayer(t *testing.T, name string, x float64) *model.Player {
	t.Helper()

	p, err := model.NewPlayer(name, name, model.NewLocation("world", x, 64, 0))
	require.NoError(t, err)
	p.Grant(model.PermissionAll)
	return p
}

// give puts a stack into a personal slot.
func give(t *testing.T, p *model.Player, slot int, stack model.ItemStack) {
	t.Helper()
	require.NoError(t, p.Storage().SetSlot(slot, stack))
}

// startTrading creates and accepts a session between a and b.
func (e *env) startTrading(t *testing.T, a, b Actor) *Session {
	t.Helper()

	s, err := e.registry.Initiate(a, b)
	require.NoError(t, err)
	_, err = e.registry.Accept(b)
	require.NoError(t, err)
	require.Equal(t, StateTrading, s.State())
	return s
}

func (e *env) click(t *testing.T, a Actor, ref SlotRef, click Click) Result {
	t.Helper()

	res, err := e.registry.Click(context.Background(), a, ref, click)
	require.NoError(t, err)
	return res
}

func diamonds(n int) model.ItemStack {
	return model.NewItemStack("diamond", 0, n)
}

// firstStaging is the top-left slot of the own staging grid.
var firstStaging = StagingSlots()[0]
