// Package dice provides the randomness abstraction used by the combat engine
// for critical strike draws.
package dice

// Source is the randomness provider for critical strike rolls.
//
// A Source is owned by a single scenario and is not required to be safe for
// concurrent use.
type Source interface {
	// Float64 returns a uniformly distributed value in [0, 1).
	//
	// Postcondition: 0 <= result < 1.
	Float64() float64
}

// FixedSource replays a fixed sequence of draws, cycling when exhausted.
// It exists so tests can force or suppress critical strikes.
//
// Precondition: Values must be non-empty and every value in [0, 1).
type FixedSource struct {
	Values []float64
	next   int
}

// NewFixedSource returns a FixedSource that yields values in order.
//
// Precondition: len(values) > 0.
func NewFixedSource(values ...float64) *FixedSource {
	if len(values) == 0 {
		panic("dice: NewFixedSource precondition violated: values must be non-empty")
	}
	return &FixedSource{Values: values}
}

// Float64 returns the next configured value.
func (f *FixedSource) Float64() float64 {
	v := f.Values[f.next%len(f.Values)]
	f.next++
	return v
}

// Draws reports how many values have been consumed.
func (f *FixedSource) Draws() int { return f.next }
