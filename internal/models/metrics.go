package models

import "fmt"

// RatioState classifies a put-call ratio value.
type RatioState string

const (
	// RatioDefined means both sums were usable and Value holds the ratio.
	RatioDefined RatioState = "DEFINED"
	// RatioInfinite means call OI was zero while put OI was positive.
	RatioInfinite RatioState = "INFINITE"
	// RatioUndefined means both OI sums were zero.
	RatioUndefined RatioState = "UNDEFINED"
)

// Ratio is a put-call ratio with explicit sentinel states so a zero
// denominator never surfaces as a runtime division error.
type Ratio struct {
	Value float64
	State RatioState
}

// NewRatio computes pe/ce with sentinel semantics.
func NewRatio(peOI, ceOI int64) Ratio {
	switch {
	case ceOI == 0 && peOI == 0:
		return Ratio{State: RatioUndefined}
	case ceOI == 0:
		return Ratio{State: RatioInfinite}
	default:
		return Ratio{Value: float64(peOI) / float64(ceOI), State: RatioDefined}
	}
}

// IsDefined reports whether the ratio holds a finite computed value.
func (r Ratio) IsDefined() bool { return r.State == RatioDefined }

// IsInfinite reports whether the ratio is the infinite sentinel.
func (r Ratio) IsInfinite() bool { return r.State == RatioInfinite }

// IsUndefined reports whether the ratio is undefined (0/0).
func (r Ratio) IsUndefined() bool { return r.State == RatioUndefined }

// GreaterThan reports whether the ratio exceeds x. An infinite ratio exceeds
// any threshold; an undefined ratio exceeds none.
func (r Ratio) GreaterThan(x float64) bool {
	switch r.State {
	case RatioInfinite:
		return true
	case RatioDefined:
		return r.Value > x
	default:
		return false
	}
}

// LessThan reports whether the ratio is below x. Infinite and undefined
// ratios are below no threshold.
func (r Ratio) LessThan(x float64) bool {
	return r.State == RatioDefined && r.Value < x
}

// AtLeast reports whether the ratio is >= x, with the same sentinel rules as
// GreaterThan.
func (r Ratio) AtLeast(x float64) bool {
	switch r.State {
	case RatioInfinite:
		return true
	case RatioDefined:
		return r.Value >= x
	default:
		return false
	}
}

func (r Ratio) String() string {
	switch r.State {
	case RatioInfinite:
		return "inf"
	case RatioUndefined:
		return "undefined"
	default:
		return fmt.Sprintf("%.2f", r.Value)
	}
}

// CrossoverKind classifies a CE/PE open-interest crossover event.
type CrossoverKind string

const (
	// CrossoverEqual marks a strike where CE OI equals PE OI exactly.
	CrossoverEqual CrossoverKind = "EQUAL"
	// CrossoverSignChange marks an adjacent strike pair where the CE-PE
	// difference changes sign without touching zero.
	CrossoverSignChange CrossoverKind = "SIGN_CHANGE"
)

// CrossoverEvent is one detected crossover. For an EQUAL event Strike is the
// touching strike; for a SIGN_CHANGE event LowStrike and HighStrike bound the
// crossing pair.
type CrossoverEvent struct {
	Kind       CrossoverKind
	Strike     int64
	LowStrike  int64
	HighStrike int64
}

// Metrics are the aggregate risk metrics derived from one snapshot. They are
// stateless with respect to previous snapshots.
type Metrics struct {
	Symbol         string
	PCR            Ratio
	NearExpiryPCR  Ratio
	MaxPainStrike  int64
	Support        []int64
	Resistance     []int64
	Crossovers     []CrossoverEvent
	NearCrossovers []int64
	CEOITotal      int64
	PEOITotal      int64
	CEChangeTotal  int64
	PEChangeTotal  int64
	Underlying     float64
}

// Available reports whether the metrics were computed from a non-empty
// snapshot. Unavailable metrics carry undefined ratios and empty lists.
func (m *Metrics) Available() bool {
	return m.CEOITotal > 0 || m.PEOITotal > 0 || m.MaxPainStrike != 0
}
