package stocks

import (
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money represents a monetary value.
//
// Share prices are context dependent: within one asset every price and profit
// is expressed in that asset's currency, so the currency code is allowed to be
// empty ("weak") and is only carried for formatting. Arithmetic on two Money
// values with conflicting non-empty currencies panics.
type Money struct {
	value decimal.Decimal // as major unit value
	cur   string
}

func M[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T, currency string) Money {
	return Money{value: newDecimal(value), cur: currency}
}

// ParseMoney parses a decimal amount such as "12.34".
func ParseMoney(s, currency string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Money{value: d, cur: currency}, nil
}

// currency returns the money's currency, defaulting to a 2-digit fraction for
// the weak "" currency.
func (m Money) currency() money.Currency {
	// to get a never nil currency I need to call the Money constructor
	return *money.New(0, m.cur).Currency()
}

// String returns the string representation of the money value.
func (m Money) String() string {
	cur := m.currency()
	dec := m.value.Shift(int32(cur.Fraction))
	return cur.Formatter().Format(dec.IntPart())
}

// Simple wrappers around decimal operations.

func (m Money) Currency() string                { return m.cur }
func (m Money) Equal(n Money) bool              { return m.value.Equal(n.value) }
func (m Money) IsZero() bool                    { return m.value.IsZero() }
func (m Money) IsPositive() bool                { return m.value.IsPositive() }
func (m Money) IsNegative() bool                { return m.value.IsNegative() }
func (m Money) LessThan(n Money) bool           { return m.value.LessThan(n.value) }
func (m Money) LessThanOrEqual(n Money) bool    { return m.value.LessThanOrEqual(n.value) }
func (m Money) GreaterThan(n Money) bool        { return m.value.GreaterThan(n.value) }
func (m Money) GreaterThanOrEqual(n Money) bool { return m.value.GreaterThanOrEqual(n.value) }
func (m Money) Neg() Money                      { return Money{value: m.value.Neg(), cur: m.cur} }

// binary operators.
func (m Money) Add(n Money) Money { return Money{value: m.value.Add(n.value), cur: cur(m, n)} }
func (m Money) Sub(n Money) Money { return Money{value: m.value.Sub(n.value), cur: cur(m, n)} }

// MulInt scales the money value by a whole number of shares.
func (m Money) MulInt(n int) Money {
	return Money{value: m.value.Mul(decimal.NewFromInt(int64(n))), cur: m.cur}
}

// MulRatio scales the money value by a unitless ratio.
func (m Money) MulRatio(r Ratio) Money { return Money{value: m.value.Mul(r.value), cur: m.cur} }

// DivRatio divides the money value by a unitless ratio.
func (m Money) DivRatio(r Ratio) Money { return Money{value: m.value.Div(r.value), cur: m.cur} }

// DivMoney returns the unitless ratio m/n.
func (m Money) DivMoney(n Money) Ratio { return Ratio{value: m.value.Div(n.value)} }

// RoundPenny rounds the value to the currency's minimal increment.
func (m Money) RoundPenny() Money {
	return Money{value: m.value.Round(int32(m.currency().Fraction)), cur: m.cur}
}

// CeilPenny rounds the value up to the currency's minimal increment.
func (m Money) CeilPenny() Money {
	return Money{value: m.value.RoundCeil(int32(m.currency().Fraction)), cur: m.cur}
}

// MinMoney returns the smaller of a and b.
func MinMoney(a, b Money) Money {
	if b.value.LessThan(a.value) {
		return b
	}
	return a
}

// MaxMoney returns the larger of a and b.
func MaxMoney(a, b Money) Money {
	if b.value.GreaterThan(a.value) {
		return b
	}
	return a
}

// makes the "" currency totally weak.
func cur(A, B Money) string {
	if A.cur == "" {
		return B.cur
	}
	if B.cur == "" {
		return A.cur
	}
	if A.cur != B.cur {
		panic("currency mismatch " + A.cur + "!=" + B.cur)
	}
	return A.cur
}

// MarshalJSON writes the amount as a decimal string; the currency is context
// dependent and not persisted, to keep the state format identical to the raw
// price pairs it mostly decorates.
func (m Money) MarshalJSON() ([]byte, error) {
	return m.value.MarshalJSON()
}

func (m *Money) UnmarshalJSON(data []byte) error {
	m.cur = ""
	return m.value.UnmarshalJSON(data)
}
