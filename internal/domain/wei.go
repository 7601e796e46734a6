package domain

import (
	"database/sql/driver"
	"fmt"

	"cosmossdk.io/math"
)

// Wei is a non-negative currency amount in the smallest denomination.
// Backed by an arbitrary-precision integer so reward-per-unit accumulators
// (scaled by 1e18) never wrap; persisted as a decimal string column and
// serialized to JSON as a quoted string.
type Wei struct {
	v math.Int
}

func ZeroWei() Wei { return Wei{v: math.ZeroInt()} }

func NewWei(n uint64) Wei { return Wei{v: math.NewIntFromUint64(n)} }

func WeiFromInt(i math.Int) Wei { return Wei{v: i} }

// ParseWei parses a non-negative decimal string.
func ParseWei(s string) (Wei, error) {
	i, ok := math.NewIntFromString(s)
	if !ok || i.IsNegative() {
		return Wei{}, fmt.Errorf("invalid wei amount: %q", s)
	}
	return Wei{v: i}, nil
}

// Int returns the underlying integer; the zero value of Wei reads as 0.
func (w Wei) Int() math.Int {
	if w.v.IsNil() {
		return math.ZeroInt()
	}
	return w.v
}

func (w Wei) Add(o Wei) Wei { return Wei{v: w.Int().Add(o.Int())} }

// Sub panics if the result would be negative; callers check GTE first.
func (w Wei) Sub(o Wei) Wei {
	r := w.Int().Sub(o.Int())
	if r.IsNegative() {
		panic(fmt.Sprintf("wei underflow: %s - %s", w, o))
	}
	return Wei{v: r}
}

// MulUnits multiplies the amount by a unit count (e.g. price * units).
func (w Wei) MulUnits(n uint64) Wei {
	return Wei{v: w.Int().Mul(math.NewIntFromUint64(n))}
}

func (w Wei) IsZero() bool      { return w.Int().IsZero() }
func (w Wei) IsPositive() bool  { return w.Int().IsPositive() }
func (w Wei) Equal(o Wei) bool  { return w.Int().Equal(o.Int()) }
func (w Wei) GTE(o Wei) bool    { return w.Int().GTE(o.Int()) }
func (w Wei) LT(o Wei) bool     { return w.Int().LT(o.Int()) }
func (w Wei) String() string    { return w.Int().String() }

func (w Wei) MarshalJSON() ([]byte, error) {
	i := w.Int()
	return i.MarshalJSON()
}

func (w *Wei) UnmarshalJSON(b []byte) error {
	var i math.Int
	if err := i.UnmarshalJSON(b); err != nil {
		return err
	}
	if i.IsNegative() {
		return fmt.Errorf("invalid wei amount: %s", i)
	}
	w.v = i
	return nil
}

// Value implements driver.Valuer (decimal string).
func (w Wei) Value() (driver.Value, error) {
	return w.String(), nil
}

// Scan implements sql.Scanner. NULL reads as 0.
func (w *Wei) Scan(src interface{}) error {
	switch s := src.(type) {
	case nil:
		w.v = math.ZeroInt()
		return nil
	case string:
		return w.scanString(s)
	case []byte:
		return w.scanString(string(s))
	case int64:
		if s < 0 {
			return fmt.Errorf("invalid wei amount: %d", s)
		}
		w.v = math.NewInt(s)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Wei", src)
	}
}

func (w *Wei) scanString(s string) error {
	if s == "" {
		w.v = math.ZeroInt()
		return nil
	}
	p, err := ParseWei(s)
	if err != nil {
		return err
	}
	w.v = p.v
	return nil
}
