package inventory

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Occupancy is the availability rollup of a building
type Occupancy struct {
	TotalUnits     int             `json:"total_units"`
	AvailableUnits int             `json:"available_units"`
	SoldUnits      int             `json:"sold_units"`
	PercentSold    decimal.Decimal `json:"percent_sold"`
}

// NewOccupancy builds an occupancy from raw counters.
// PercentSold is rounded to two places and is zero when there are no units.
func NewOccupancy(total, available, sold int) Occupancy {
	percent := decimal.Zero
	if total > 0 {
		percent = decimal.NewFromInt(int64(sold)).
			Mul(hundred).
			Div(decimal.NewFromInt(int64(total))).
			Round(2)
	}
	return Occupancy{
		TotalUnits:     total,
		AvailableUnits: available,
		SoldUnits:      sold,
		PercentSold:    percent,
	}
}

// ComputeOccupancy sums live floor unit state. Cached building counters are
// never consulted, so the result doubles as the drift check for them.
func ComputeOccupancy(floors []FloorUnit) Occupancy {
	var total, available int
	for i := range floors {
		total += floors[i].TotalSubUnits
		available += floors[i].AvailableSubUnits
	}
	return NewOccupancy(total, available, total-available)
}

// Exceeds reports whether available + sold is larger than total
func (o Occupancy) Exceeds() bool {
	return o.AvailableUnits+o.SoldUnits > o.TotalUnits
}
