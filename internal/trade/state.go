package trade

// State: стадия жизненного цикла торговой сессии.
type State int32

const (
	StateRequested  State = iota // запрос отправлен, ждём ответа партнёра
	StateTrading                 // оба окна открыты, идёт торг
	StateContracted              // сделка исполнена
	StateCancelled               // сделка отменена
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateRequested:
		return "REQUESTED"
	case StateTrading:
		return "TRADING"
	case StateContracted:
		return "CONTRACTED"
	case StateCancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether no transition can leave the state.
func (s State) Terminal() bool {
	return s == StateContracted || s == StateCancelled
}

// StopCause explains why a session was cancelled.
type StopCause int32

const (
	CauseDecline StopCause = iota
	CauseTimeout
	CauseInventoryClose
	CauseQuit
	CauseDeath
	CauseLeftWorld
	CauseMovedAway
	CauseServerShutdown
)

// String returns the cause name.
func (c StopCause) String() string {
	switch c {
	case CauseDecline:
		return "DECLINE"
	case CauseTimeout:
		return "TIMEOUT"
	case CauseInventoryClose:
		return "INVENTORY_CLOSE"
	case CauseQuit:
		return "QUIT"
	case CauseDeath:
		return "DEATH"
	case CauseLeftWorld:
		return "LEFT_WORLD"
	case CauseMovedAway:
		return "MOVED_AWAY"
	case CauseServerShutdown:
		return "SERVER_SHUTDOWN"
	default:
		return "UNKNOWN"
	}
}

// Transition is reported by every session operation.
// From == To means nothing changed.
type Transition struct {
	From State
	To   State

	// Outcome is set when the session reached a terminal state.
	Outcome *Outcome
}

// Changed reports whether the state moved.
func (t Transition) Changed() bool {
	return t.From != t.To
}

// Terminal reports whether the session was retired by this transition.
func (t Transition) Terminal() bool {
	return t.Changed() && t.To.Terminal()
}
