package models

// Balance maps a currency code to a non-negative amount.
type Balance map[Currency]int64

func (b Balance) Of(currency Currency) int64 {
	return b[currency]
}

func (b Balance) Clone() Balance {
	out := make(Balance, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}
