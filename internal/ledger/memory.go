package ledger

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-process ledger. Balances are lost on restart.
// Thread-safe.
type Memory struct {
	Currency

	mu       sync.Mutex
	balances map[string]int64
	start    int64 // баланс нового счёта
}

// NewMemory creates an in-memory ledger; unknown accounts start with start.
func NewMemory(cur Currency, start int64) *Memory {
	return &Memory{
		Currency: cur,
		balances: make(map[string]int64, 64),
		start:    start,
	}
}

// Balance returns the account balance.
func (m *Memory) Balance(_ context.Context, accountID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balanceLocked(accountID), nil
}

// Set replaces the account balance.
func (m *Memory) Set(accountID string, balance int64) {
	m.mu.Lock()
	m.balances[accountID] = balance
	m.mu.Unlock()
}

// Withdraw removes amount from the account.
func (m *Memory) Withdraw(_ context.Context, accountID string, amount int64) error {
	if err := checkAmount(amount); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cur := m.balanceLocked(accountID)
	if cur < amount {
		return fmt.Errorf("withdrawing %d from %s: %w", amount, accountID, ErrInsufficientFunds)
	}
	m.balances[accountID] = cur - amount
	return nil
}

// Deposit adds amount to the account.
func (m *Memory) Deposit(_ context.Context, accountID string, amount int64) error {
	if err := checkAmount(amount); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.balances[accountID] = m.balanceLocked(accountID) + amount
	return nil
}

func (m *Memory) balanceLocked(accountID string) int64 {
	if b, ok := m.balances[accountID]; ok {
		return b
	}
	return m.start
}
