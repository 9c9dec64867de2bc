// Package ledger applies currency movements to a loaded player balance. The caller persists
// the balance in the same aggregate write as the state transition that caused it.
package ledger

import (
	"fmt"

	"game-service/internal/gameerr"
	"game-service/internal/models"
)

// Debit decrements the balance or fails with InsufficientFunds, leaving it unchanged.
func Debit(b models.Balance, currency models.Currency, amount int64) error {
	if amount < 0 {
		return gameerr.InvalidParameter(fmt.Sprintf("debit amount must not be negative, got %d", amount))
	}
	available := b.Of(currency)
	if available < amount {
		return gameerr.InsufficientFunds(string(currency), amount, available)
	}
	b[currency] = available - amount
	return nil
}

// Credit increments the balance.
func Credit(b models.Balance, currency models.Currency, amount int64) error {
	if amount < 0 {
		return gameerr.InvalidParameter(fmt.Sprintf("credit amount must not be negative, got %d", amount))
	}
	b[currency] = b.Of(currency) + amount
	return nil
}
