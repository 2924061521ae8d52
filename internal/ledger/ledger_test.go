package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrency_Format(t *testing.T) {
	tests := []struct {
		name   string
		cur    Currency
		amount int64
		want   string
	}{
		{"zero", DefaultCurrency, 0, "0.00 coins"},
		{"single", DefaultCurrency, 100, "1.00 coin"},
		{"fraction", DefaultCurrency, 1250, "12.50 coins"},
		{"cents", DefaultCurrency, 5, "0.05 coins"},
		{"negative", DefaultCurrency, -250, "-2.50 coins"},
		{"no name", Currency{}, 4200, "42.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cur.Format(tt.amount))
		})
	}
}

func TestMemory_StartBalance(t *testing.T) {
	m := NewMemory(DefaultCurrency, 500)

	got, err := m.Balance(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(500), got)
}

func TestMemory_WithdrawDeposit(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(DefaultCurrency, 0)
	m.Set("alice", 1000)

	require.NoError(t, m.Withdraw(ctx, "alice", 300))
	require.NoError(t, m.Deposit(ctx, "bob", 300))

	alice, _ := m.Balance(ctx, "alice")
	bob, _ := m.Balance(ctx, "bob")
	assert.Equal(t, int64(700), alice)
	assert.Equal(t, int64(300), bob)
}

func TestMemory_Overdraft(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(DefaultCurrency, 0)
	m.Set("alice", 100)

	err := m.Withdraw(ctx, "alice", 101)
	require.ErrorIs(t, err, ErrInsufficientFunds)

	got, _ := m.Balance(ctx, "alice")
	assert.Equal(t, int64(100), got, "failed withdraw must not touch the balance")
}

func TestMemory_InvalidAmount(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(DefaultCurrency, 100)

	assert.ErrorIs(t, m.Withdraw(ctx, "alice", 0), ErrInvalidAmount)
	assert.ErrorIs(t, m.Deposit(ctx, "alice", -5), ErrInvalidAmount)
}
