package valueobject

import (
	"errors"

	"github.com/shopspring/decimal"
)

// PriceRange is an inclusive [Min, Max] asking-price band
type PriceRange struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// NewPriceRange validates and creates a price range
func NewPriceRange(min, max decimal.Decimal) (PriceRange, error) {
	if min.IsNegative() || max.IsNegative() {
		return PriceRange{}, errors.New("price cannot be negative")
	}
	if min.GreaterThan(max) {
		return PriceRange{}, errors.New("minimum price cannot exceed maximum price")
	}
	return PriceRange{Min: min, Max: max}, nil
}

// Contains reports whether price lies within the range
func (r PriceRange) Contains(price decimal.Decimal) bool {
	return price.GreaterThanOrEqual(r.Min) && price.LessThanOrEqual(r.Max)
}

// Widen returns the smallest range covering both r and other
func (r PriceRange) Widen(other PriceRange) PriceRange {
	return PriceRange{
		Min: decimal.Min(r.Min, other.Min),
		Max: decimal.Max(r.Max, other.Max),
	}
}
