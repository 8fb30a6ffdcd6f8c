package stocks

import "github.com/shopspring/decimal"

// newDecimal is a convenient factory for decimal.Decimal
func newDecimal[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T) decimal.Decimal {
	switch v := any(value).(type) {
	case decimal.Decimal:
		return v
	case float32:
		return decimal.NewFromFloat32(v)
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int32:
		return decimal.NewFromInt32(v)
	case int64:
		return decimal.NewFromInt(v)
	case uint:
		return decimal.NewFromUint64(uint64(v))
	case uint32:
		return decimal.NewFromUint64(uint64(v))
	case uint64:
		return decimal.NewFromUint64(v)
	default:
		panic("unsupported type")
	}
}

// Ratio is a unitless multiplier: a sell-times multiple, a rung spacing
// frequency, or a minimum profit margin.
type Ratio struct {
	value decimal.Decimal
}

func R[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T) Ratio {
	return Ratio{value: newDecimal(value)}
}

func (r Ratio) Equal(s Ratio) bool              { return r.value.Equal(s.value) }
func (r Ratio) LessThan(s Ratio) bool           { return r.value.LessThan(s.value) }
func (r Ratio) LessThanOrEqual(s Ratio) bool    { return r.value.LessThanOrEqual(s.value) }
func (r Ratio) GreaterThan(s Ratio) bool        { return r.value.GreaterThan(s.value) }
func (r Ratio) GreaterThanOrEqual(s Ratio) bool { return r.value.GreaterThanOrEqual(s.value) }
func (r Ratio) Mul(s Ratio) Ratio               { return Ratio{value: r.value.Mul(s.value)} }
func (r Ratio) Div(s Ratio) Ratio               { return Ratio{value: r.value.Div(s.value)} }
func (r Ratio) Sub(s Ratio) Ratio               { return Ratio{value: r.value.Sub(s.value)} }
func (r Ratio) IsZero() bool                    { return r.value.IsZero() }
func (r Ratio) String() string                  { return r.value.String() }

// PowInt raises the ratio to a small non-negative integer power, such as the
// rung index within a tier.
func (r Ratio) PowInt(n int) Ratio {
	result := decimal.NewFromInt(1)
	for i := 0; i < n; i++ {
		result = result.Mul(r.value)
	}
	return Ratio{value: result}
}

// StringFixed formats the ratio with a fixed number of decimal places.
func (r Ratio) StringFixed(places int32) string { return r.value.StringFixed(places) }

// MarshalJSON implements the json.Marshaler interface.
func (r Ratio) MarshalJSON() ([]byte, error) {
	return r.value.MarshalJSON()
}

func (r *Ratio) UnmarshalJSON(data []byte) error {
	return r.value.UnmarshalJSON(data)
}
