// Package ledger provides currency accounts for trade settlement.
// Amounts are minor units (1/100 of the display currency).
package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientFunds is returned when a withdrawal would overdraw an account.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInvalidAmount is returned for negative or zero amounts.
	ErrInvalidAmount = errors.New("amount must be positive")
)

// Currency formats minor-unit amounts for display.
type Currency struct {
	Single string // "coin"
	Plural string // "coins"
}

// DefaultCurrency is used when the config does not name one.
var DefaultCurrency = Currency{Single: "coin", Plural: "coins"}

// Format renders an amount, e.g. 1250 → "12.50 coins", 100 → "1.00 coin".
func (c Currency) Format(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	name := c.Plural
	if amount == 100 {
		name = c.Single
	}
	if name == "" {
		return fmt.Sprintf("%s%d.%02d", sign, amount/100, amount%100)
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, amount/100, amount%100, name)
}

func checkAmount(amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}
	return nil
}
