// Package testutil holds helpers shared by package tests: a migrated PostgreSQL for the
// ledger suite, test-scoped contexts and a simulated collaborator failure.
package testutil

import (
	"context"
	"errors"
	"testing"
	"time"
)

// ErrSimulated is returned by fake collaborators (ledger, loader) to drive failure paths.
var ErrSimulated = errors.New("simulated error for testing")

// ContextWithTimeout создаёт context с timeout, отменяемый при завершении теста.
func ContextWithTimeout(t testing.TB, d time.Duration) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), d)
	t.Cleanup(cancel)
	return ctx
}
