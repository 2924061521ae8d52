package trade

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/udisondev/simpletrade/internal/config"
	"github.com/udisondev/simpletrade/internal/i18n"
	"github.com/udisondev/simpletrade/internal/model"
)

// Action classifies an interaction with the trade panel.
type Action int

const (
	ActionNone Action = iota
	ActionConfirm
	ActionDecline
	ActionStageMoney
	ActionStageExp
	ActionMoveToStaging
	ActionMoveToPersonal
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case ActionConfirm:
		return "confirm"
	case ActionDecline:
		return "decline"
	case ActionStageMoney:
		return "stage_money"
	case ActionStageExp:
		return "stage_exp"
	case ActionMoveToStaging:
		return "move_to_staging"
	case ActionMoveToPersonal:
		return "move_to_personal"
	default:
		return "none"
	}
}

// Result reports what Handle did.
type Result struct {
	Action Action
	// Refusal is the message key shown to the actor when the interaction was rejected.
	// A rejected interaction leaves the session unchanged.
	Refusal    string
	Transition Transition
}

// Session is the negotiation state machine for two actors.
//
// All operations are serialized by mu. The session never calls back into
// the registry: every operation returns a Transition for the caller to apply.
type Session struct {
	mu sync.Mutex

	id        int64
	state     State
	initiator *Participant
	partner   *Participant
	opts      *Options
	startedAt time.Time
}

func newSession(id int64, initiator, partner Actor, opts *Options) *Session {
	return &Session{
		id:        id,
		state:     StateRequested,
		initiator: newParticipant(initiator),
		partner:   newParticipant(partner),
		opts:      opts,
		startedAt: time.Now(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() int64 { return s.id }

// Initiator returns the actor who sent the request.
func (s *Session) Initiator() Actor { return s.initiator.actor }

// Partner returns the actor who received the request.
func (s *Session) Partner() Actor { return s.partner.actor }

// StartedAt returns the request time.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Involves reports whether the actor is one of the two participants.
func (s *Session) Involves(a Actor) bool {
	return s.sideOf(a) != nil
}

// Other returns the counterpart of a participant, nil for strangers.
func (s *Session) Other(a Actor) Actor {
	p := s.sideOf(a)
	if p == nil {
		return nil
	}
	return s.otherOf(p).actor
}

// Snapshot returns a consistent copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		ID:        s.id,
		State:     s.state,
		Initiator: s.initiator.snapshot(),
		Partner:   s.partner.snapshot(),
	}
}

func (p *Participant) snapshot() SideSnapshot {
	ss := SideSnapshot{Side: p.side(), Confirmed: p.confirmed}
	if p.panel != nil {
		ss.Panel = p.panel.Slots()
	}
	return ss
}

// Accept opens both panels: REQUESTED → TRADING.
// Accepting a session that is already trading is a no-op.
func (s *Session) Accept() (Transition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.state.Terminal():
		return s.noop(), ErrSessionClosed
	case s.state == StateTrading:
		return s.noop(), nil
	}

	o := s.opts
	o.send(s.initiator.actor, i18n.TradeAccepted, player(s.partner.actor.Name()))

	s.initiator.panel = s.buildPanel(s.initiator, s.partner)
	s.partner.panel = s.buildPanel(s.partner, s.initiator)

	t := s.setState(StateTrading)

	for _, p := range s.participants() {
		o.View.Open(p.actor, p.panel.Title(), p.panel.Slots())
	}
	return t, nil
}

// Decline rejects a pending request: REQUESTED → CANCELLED.
// Declining after the panels opened is a no-op.
func (s *Session) Decline(decliner Actor) (Transition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.sideOf(decliner)
	if p == nil {
		return s.noop(), ErrNotParticipant
	}
	switch {
	case s.state.Terminal():
		return s.noop(), ErrSessionClosed
	case s.state != StateRequested:
		return s.noop(), nil
	}

	outcome := s.outcome(StateCancelled, CauseDecline, p)
	t := s.setState(StateCancelled)
	t.Outcome = outcome

	o := s.opts
	o.send(s.initiator.actor, i18n.TradeRequestDeclined, player(decliner.Name()))
	if p == s.partner {
		o.send(p.actor, i18n.TradeDeclined, player(s.initiator.actor.Name()))
	}
	return t, nil
}

// Expire cancels the session with TIMEOUT if it is still REQUESTED.
// A timer firing after the session progressed is a no-op.
func (s *Session) Expire() Transition {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRequested {
		return s.noop()
	}
	return s.stop(CauseTimeout, s.initiator)
}

// Stop cancels the session on behalf of who.
// While TRADING every staged item returns to its owner.
func (s *Session) Stop(cause StopCause, who Actor) (Transition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.sideOf(who)
	if p == nil {
		return s.noop(), ErrNotParticipant
	}
	if s.state.Terminal() {
		return s.noop(), ErrSessionClosed
	}
	return s.stop(cause, p), nil
}

// Handle is the single mutation entry point while TRADING.
// Refusals are reported to the actor and in Result.Refusal, never as errors.
func (s *Session) Handle(ctx context.Context, a Actor, ref SlotRef, click Click) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.sideOf(a)
	if p == nil {
		return Result{Transition: s.noop()}, ErrNotParticipant
	}
	switch {
	case s.state.Terminal():
		return Result{Transition: s.noop()}, ErrSessionClosed
	case s.state != StateTrading:
		return Result{Transition: s.noop()}, ErrNotTrading
	}
	if click != ClickPrimary && click != ClickSecondary {
		return Result{Transition: s.noop()}, nil
	}

	action, amount := s.classify(ref)
	res := Result{Action: action, Transition: s.noop()}

	switch action {
	case ActionConfirm:
		p.confirmed = true
		if s.initiator.confirmed && s.partner.confirmed {
			res.Transition = s.settle(ctx)
			return res, nil
		}
	case ActionDecline:
		p.confirmed = false
		if s.opts.Config.Global.AbortOnDecline {
			res.Transition = s.stop(CauseDecline, p)
			return res, nil
		}
	case ActionStageMoney:
		res.Refusal = s.stageMoney(ctx, p, amount, click)
	case ActionStageExp:
		res.Refusal = s.stageExp(p, int(amount), click)
	case ActionMoveToStaging, ActionMoveToPersonal:
		res.Refusal = s.moveItem(p, action, ref.Index, click)
	}

	if res.Refusal != "" {
		s.opts.send(p.actor, res.Refusal, nil)
		return res, nil
	}

	s.publishStatus()
	return res, nil
}

func (s *Session) classify(ref SlotRef) (Action, int64) {
	if ref.Area == AreaPersonal {
		return ActionMoveToStaging, 0
	}

	o := s.opts
	switch ref.Index {
	case SlotMoney1, SlotMoney2, SlotMoney3:
		if !o.CurrencyEnabled() {
			return ActionNone, 0
		}
		return ActionStageMoney, o.Config.MoneyValues()[ref.Index-SlotMoney1]
	case SlotExp1, SlotExp2, SlotExp3:
		if !o.ExperienceEnabled() {
			return ActionNone, 0
		}
		return ActionStageExp, int64(o.Config.ExpValues()[ref.Index-SlotExp1])
	case SlotAccept:
		return ActionConfirm, 0
	case SlotDecline:
		return ActionDecline, 0
	}

	if IsStagingSlot(ref.Index) {
		return ActionMoveToPersonal, 0
	}
	return ActionNone, 0
}

func (s *Session) stageMoney(ctx context.Context, p *Participant, d int64, click Click) string {
	o := s.opts
	next := p.money

	if click == ClickPrimary {
		next += d

		balance, err := o.Ledger.Balance(ctx, p.actor.ID())
		if err != nil {
			slog.Error("reading balance",
				"session", s.id,
				"actor", p.actor.Name(),
				"error", err)
			return i18n.NotEnoughMoney
		}
		if next > balance {
			return i18n.NotEnoughMoney
		}
		if limit := o.Config.Global.MaxMoneyTrading; limit != config.NoMoneyLimit && next > int64(limit) {
			return i18n.MaxTradeAmountReached
		}
		o.View.Play(p.actor, CueClick, addPitch)
	} else {
		next -= d
		if next < 0 {
			return i18n.NoNegativeMoneyOffer
		}
		o.View.Play(p.actor, CueClick, removePitch)
	}

	p.money = next
	s.resetConfirmations()
	return ""
}

func (s *Session) stageExp(p *Participant, d int, click Click) string {
	o := s.opts
	next := p.exp

	if click == ClickPrimary {
		next += d
		if next > p.actor.TotalExperience() {
			return i18n.NotEnoughXP
		}
		o.View.Play(p.actor, CueClick, addPitch)
	} else {
		next -= d
		if next < 0 {
			return i18n.NoXPOffer
		}
		o.View.Play(p.actor, CueClick, removePitch)
	}

	p.exp = next
	s.resetConfirmations()
	return ""
}

// moveItem moves a stack between the personal inventory and the own staging grid.
// Primary moves the whole stack, secondary a single unit. What does not fit stays at the source.
func (s *Session) moveItem(p *Participant, action Action, index int, click Click) string {
	inv := p.actor.Inventory()

	var source model.ItemStack
	if action == ActionMoveToStaging {
		source = inv.Slot(index)
	} else {
		source = p.panel.Slot(index)
	}
	if source.IsEmpty() {
		return ""
	}
	if !s.opts.Items.Allowed(source) {
		return i18n.CannotTradeItem
	}

	moving := source.Clone()
	rest := 0
	if click == ClickSecondary {
		moving.Amount = 1
		rest = source.Amount - 1
	}

	var untransferred int
	if action == ActionMoveToStaging {
		untransferred = s.addToStaging(p, moving)
		if err := inv.SetSlot(index, source.WithAmount(rest+untransferred)); err != nil {
			slog.Error("updating personal slot",
				"session", s.id,
				"actor", p.actor.Name(),
				"slot", index,
				"error", err)
		}
	} else {
		left := inv.AddItem(moving)
		untransferred = left.Amount
		s.setSlot(p, index, source.WithAmount(rest+untransferred))
	}

	if untransferred == moving.Amount {
		// ничего не переместилось
		return ""
	}

	s.resetConfirmations()
	s.reflect(p)
	s.opts.View.SyncInventory(p.actor)
	return ""
}

// addToStaging stores a stack in the staging grid and returns the amount that did not fit.
// Similar partial stacks are topped up first; an empty slot takes the rest.
func (s *Session) addToStaging(p *Participant, stack model.ItemStack) int {
	remaining := stack.Amount
	limit := stack.MaxStackSize()

	for _, idx := range stagingSlots {
		if remaining == 0 {
			return 0
		}
		cur := p.panel.slots[idx]
		if !cur.IsSimilar(stack) || cur.Amount >= limit {
			continue
		}
		n := min(limit-cur.Amount, remaining)
		s.setSlot(p, idx, cur.WithAmount(cur.Amount+n))
		remaining -= n
	}

	for _, idx := range stagingSlots {
		if remaining == 0 {
			return 0
		}
		if !p.panel.slots[idx].IsEmpty() {
			continue
		}
		// Стопка больше лимита кладётся целиком
		s.setSlot(p, idx, stack.WithAmount(remaining))
		remaining = 0
	}

	return remaining
}

// reflect copies the own staging grid into the partner's mirrored columns.
func (s *Session) reflect(p *Participant) {
	other := s.otherOf(p)
	for _, idx := range stagingSlots {
		s.setSlot(other, MirrorSlot(idx), p.panel.slots[idx])
	}
}

func (s *Session) setSlot(p *Participant, index int, stack model.ItemStack) {
	if p.panel.set(index, stack) {
		s.opts.View.Update(p.actor, index, p.panel.slots[index])
	}
}

func (s *Session) resetConfirmations() {
	s.initiator.confirmed = false
	s.partner.confirmed = false
}

// settle executes the exchange: currency, experience, CONTRACTED, close, items, notify.
func (s *Session) settle(ctx context.Context) Transition {
	o := s.opts
	a, b := s.initiator, s.partner

	if o.CurrencyEnabled() {
		s.transferMoney(ctx, a, b)
		s.transferMoney(ctx, b, a)
	}

	if a.exp > 0 || b.exp > 0 {
		// Обе стороны считаются от значений до сделки
		baseA, baseB := a.actor.TotalExperience(), b.actor.TotalExperience()
		s.capExp(a, baseA)
		s.capExp(b, baseB)
		a.actor.SetTotalExperience(baseA - a.exp + b.exp)
		b.actor.SetTotalExperience(baseB - b.exp + a.exp)
	}

	outcome := s.outcome(StateContracted, 0, nil)
	t := s.setState(StateContracted)
	t.Outcome = outcome

	o.View.Close(a.actor)
	o.View.Close(b.actor)

	s.transferItems(a, b)
	s.transferItems(b, a)

	for _, p := range s.participants() {
		other := s.otherOf(p)
		o.View.SyncInventory(p.actor)
		o.View.Play(p.actor, CueLevelUp, 1.0)
		o.send(p.actor, i18n.TradeConfirmed, player(other.actor.Name()))
	}

	slog.Info("trade contracted",
		"session", s.id,
		"initiator", a.actor.Name(),
		"partner", b.actor.Name(),
		"initiator_money", a.money,
		"partner_money", b.money,
		"initiator_exp", a.exp,
		"partner_exp", b.exp)

	return t
}

// capExp limits the staged experience to what the actor still has at settlement.
func (s *Session) capExp(p *Participant, total int) {
	if p.exp <= total {
		return
	}
	slog.Warn("staged experience exceeds current total",
		"session", s.id,
		"actor", p.actor.Name(),
		"staged", p.exp,
		"total", total)
	p.exp = total
}

func (s *Session) transferMoney(ctx context.Context, from, to *Participant) {
	if from.money <= 0 {
		return
	}
	ledger := s.opts.Ledger

	if err := ledger.Withdraw(ctx, from.actor.ID(), from.money); err != nil {
		slog.Error("withdrawing trade money",
			"session", s.id,
			"actor", from.actor.Name(),
			"amount", from.money,
			"error", err)
		return
	}
	if err := ledger.Deposit(ctx, to.actor.ID(), from.money); err != nil {
		slog.Error("depositing trade money",
			"session", s.id,
			"actor", to.actor.Name(),
			"amount", from.money,
			"error", err)
		// Возвращаем деньги отправителю
		if err := ledger.Deposit(ctx, from.actor.ID(), from.money); err != nil {
			slog.Error("refunding trade money",
				"session", s.id,
				"actor", from.actor.Name(),
				"amount", from.money,
				"error", err)
		}
	}
}

// transferItems gives every staged item of from to to; overflow is dropped at to's location.
func (s *Session) transferItems(from, to *Participant) {
	dropped := false
	for _, idx := range stagingSlots {
		stack := from.panel.slots[idx]
		if stack.IsEmpty() {
			continue
		}
		from.panel.set(idx, model.ItemStack{})

		if left := to.actor.Inventory().AddItem(stack); !left.IsEmpty() {
			to.actor.DropItem(left)
			dropped = true
		}
	}
	if dropped {
		s.opts.send(to.actor, i18n.InventoryFullItemsDropped, nil)
	}
}

func (s *Session) stop(cause StopCause, who *Participant) Transition {
	other := s.otherOf(who)
	prev := s.state

	outcome := s.outcome(StateCancelled, cause, who)
	t := s.setState(StateCancelled)
	t.Outcome = outcome

	if prev == StateTrading {
		o := s.opts
		s.reclaim(s.initiator)
		s.reclaim(s.partner)
		for _, p := range s.participants() {
			o.View.Close(p.actor)
			o.View.SyncInventory(p.actor)
		}
	}

	s.notifyStop(cause, who.actor, other.actor)
	return t
}

// reclaim returns staged items to their owner; overflow is dropped at the owner's location.
func (s *Session) reclaim(p *Participant) {
	for _, idx := range stagingSlots {
		stack := p.panel.slots[idx]
		if stack.IsEmpty() {
			continue
		}
		p.panel.set(idx, model.ItemStack{})

		if left := p.actor.Inventory().AddItem(stack); !left.IsEmpty() {
			p.actor.DropItem(left)
		}
	}
}

func (s *Session) notifyStop(cause StopCause, who, other Actor) {
	o := s.opts
	switch cause {
	case CauseDeath:
		o.send(other, i18n.CancelTradeDeath, player(who.Name()))
	case CauseInventoryClose, CauseDecline:
		o.send(other, i18n.CancelTradeCancel, player(who.Name()))
		o.send(who, i18n.CancelTradeDecline, player(other.Name()))
	case CauseLeftWorld:
		o.send(other, i18n.CancelTradeLeftWorld, player(who.Name()))
	case CauseMovedAway:
		o.send(other, i18n.CancelTradeMovedAway, player(who.Name()))
	case CauseQuit:
		o.send(other, i18n.CancelTradePlayerLeft, player(who.Name()))
	case CauseTimeout:
		o.send(who, i18n.CancelTradeTimeout, player(other.Name()))
		o.send(other, i18n.CancelTradeTimeout, player(who.Name()))
	case CauseServerShutdown:
		o.send(who, i18n.CancelServerShutdown, nil)
		o.send(other, i18n.CancelServerShutdown, nil)
	}
}

// publishStatus refreshes the derived display: status icon, currency and experience totals.
func (s *Session) publishStatus() {
	o := s.opts

	status := s.statusIcon(s.initiator.confirmed || s.partner.confirmed)
	s.setSlot(s.initiator, SlotStatus, status)
	s.setSlot(s.partner, SlotStatus, status)

	if o.CurrencyEnabled() {
		info := s.moneyInfo()
		s.setSlot(s.initiator, SlotMoneyInfo, info)
		s.setSlot(s.partner, SlotMoneyInfo, info)
	}

	if o.ExperienceEnabled() {
		s.setSlot(s.initiator, SlotExpInfo, s.expInfo(s.initiator))
		s.setSlot(s.partner, SlotExpInfo, s.expInfo(s.partner))
	}
}

func (s *Session) buildPanel(owner, other *Participant) *Panel {
	o := s.opts
	pn := newPanel(o.Config.InventoryTitle(other.actor.Name()))

	sep := icon(o.Icons.Separator, "§o")
	for _, idx := range SeparatorSlots {
		pn.set(idx, sep)
	}

	pn.set(SlotAccept, icon(o.Icons.Accept, o.render(i18n.AcceptTradeTitle, nil)))
	pn.set(SlotStatus, s.statusIcon(false))
	pn.set(SlotDecline, icon(o.Icons.Decline, o.render(i18n.DeclineTradeTitle, nil)))

	moneySlots := [...]int{SlotMoney1, SlotMoney2, SlotMoney3}
	if o.CurrencyEnabled() {
		pn.set(SlotMoneyInfo, s.moneyInfo())
		lore := s.lines(i18n.AddMoneyLore, nil)
		for i, v := range o.Config.MoneyValues() {
			name := o.render(i18n.AddRemoveMoneyLore, map[string]string{"money": o.Ledger.Format(v)})
			pn.set(moneySlots[i], icon(o.Icons.MoneyAddRemove, name, lore...))
		}
	} else {
		pn.set(SlotMoneyInfo, sep)
		for _, idx := range moneySlots {
			pn.set(idx, sep)
		}
	}

	expSlots := [...]int{SlotExp1, SlotExp2, SlotExp3}
	if o.ExperienceEnabled() {
		pn.set(SlotExpInfo, s.expInfo(owner))
		for i, v := range o.Config.ExpValues() {
			vars := map[string]string{"exp": strconv.Itoa(v)}
			pn.set(expSlots[i], icon(o.Icons.XPAddRemove, o.render(i18n.AddExpTitle, vars), s.lines(i18n.AddExpLore, vars)...))
		}
	} else {
		pn.set(SlotExpInfo, sep)
		for _, idx := range expSlots {
			pn.set(idx, sep)
		}
	}

	return pn
}

func (s *Session) statusIcon(confirmed bool) model.ItemStack {
	o := s.opts
	sig, color, loreKey := unconfirmedStatus, "§c", i18n.WaitingForOtherPlayerLore
	if confirmed {
		sig, color, loreKey = confirmedStatus, "§a", i18n.OnePlayerAccepted
	}
	name := o.render(i18n.TradeStatusTitle, map[string]string{"color": color})
	return icon(sig, name, "§f"+o.render(loreKey, nil))
}

func (s *Session) moneyInfo() model.ItemStack {
	o := s.opts
	return icon(o.Icons.MoneyStatus, o.render(i18n.MoneyInfoTitle, nil),
		s.offerLine(s.initiator, o.Ledger.Format(s.initiator.money)),
		s.offerLine(s.partner, o.Ledger.Format(s.partner.money)),
	)
}

func (s *Session) expInfo(p *Participant) model.ItemStack {
	o := s.opts
	other := s.otherOf(p)
	diff := LevelDelta(p.actor.Level(), p.actor.TotalExperience(), other.exp-p.exp)

	return icon(o.Icons.XPStatus, o.render(i18n.ExpInfoTitle, nil),
		s.offerLine(s.initiator, fmt.Sprintf("%d XP", s.initiator.exp)),
		s.offerLine(s.partner, fmt.Sprintf("%d XP", s.partner.exp)),
		"",
		o.render(i18n.LevelInfo, map[string]string{"level-diff": signed(diff)}),
	)
}

func (s *Session) offerLine(p *Participant, offer string) string {
	return s.opts.render(i18n.OfferLore, map[string]string{
		"player": p.actor.Name(),
		"offer":  offer,
	})
}

func (s *Session) lines(key string, vars map[string]string) []string {
	return strings.Split(s.opts.render(key, vars), "\n")
}

func (s *Session) outcome(state State, cause StopCause, who *Participant) *Outcome {
	out := &Outcome{
		SessionID: s.id,
		State:     state,
		Cause:     cause,
		Initiator: s.initiator.side(),
		Partner:   s.partner.side(),
		StartedAt: s.startedAt,
		EndedAt:   time.Now(),
	}
	if who != nil {
		out.CauseActor = who.actor.Name()
	}
	return out
}

func (s *Session) setState(to State) Transition {
	t := Transition{From: s.state, To: to}
	s.state = to

	slog.Debug("trade state changed",
		"session", s.id,
		"from", t.From,
		"to", t.To)
	return t
}

func (s *Session) noop() Transition {
	return Transition{From: s.state, To: s.state}
}

func (s *Session) participants() [2]*Participant {
	return [2]*Participant{s.initiator, s.partner}
}

// sideOf matches by actor ID; the participant fields never change after creation.
func (s *Session) sideOf(a Actor) *Participant {
	if a == nil {
		return nil
	}
	switch a.ID() {
	case s.initiator.actor.ID():
		return s.initiator
	case s.partner.actor.ID():
		return s.partner
	}
	return nil
}

func (s *Session) otherOf(p *Participant) *Participant {
	if p == s.initiator {
		return s.partner
	}
	return s.initiator
}

func icon(sig model.Signature, name string, lore ...string) model.ItemStack {
	st := sig.NewItemStack()
	st.DisplayName = name
	if len(lore) > 0 {
		st.Lore = append([]string(nil), lore...)
	}
	return st
}

func signed(n int) string {
	if n >= 0 {
		return "+" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
