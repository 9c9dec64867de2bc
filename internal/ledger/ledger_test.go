package ledger

import (
	"errors"
	"testing"

	"game-service/internal/gameerr"
	"game-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebit(t *testing.T) {
	b := models.Balance{models.CurrencyGold: 2000}

	require.NoError(t, Debit(b, models.CurrencyGold, 1600))
	assert.Equal(t, int64(400), b.Of(models.CurrencyGold))

	err := Debit(b, models.CurrencyGold, 401)
	require.Error(t, err)
	assert.True(t, errors.Is(err, gameerr.ErrInsufficientFunds))
	assert.Equal(t, int64(400), b.Of(models.CurrencyGold), "failed debit must not change the balance")

	ge, _ := gameerr.As(err)
	assert.Equal(t, int64(401), ge.Details["required"])
	assert.Equal(t, int64(400), ge.Details["available"])
}

func TestDebitExactBalance(t *testing.T) {
	b := models.Balance{models.CurrencyGems: 5}
	require.NoError(t, Debit(b, models.CurrencyGems, 5))
	assert.Zero(t, b.Of(models.CurrencyGems))
}

func TestDebitMissingCurrency(t *testing.T) {
	b := models.Balance{}
	err := Debit(b, models.CurrencyEssence, 1)
	assert.True(t, errors.Is(err, gameerr.ErrInsufficientFunds))
}

func TestCredit(t *testing.T) {
	b := models.Balance{}
	require.NoError(t, Credit(b, models.CurrencyEssence, 4000))
	require.NoError(t, Credit(b, models.CurrencyEssence, 1))
	assert.Equal(t, int64(4001), b.Of(models.CurrencyEssence))
}

func TestNegativeAmounts(t *testing.T) {
	b := models.Balance{models.CurrencyGold: 10}
	assert.True(t, errors.Is(Debit(b, models.CurrencyGold, -1), gameerr.ErrInvalidParameter))
	assert.True(t, errors.Is(Credit(b, models.CurrencyGold, -1), gameerr.ErrInvalidParameter))
	assert.Equal(t, int64(10), b.Of(models.CurrencyGold))
}
