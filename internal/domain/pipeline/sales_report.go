package pipeline

import (
	"github.com/estateflow/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// SalesReport aggregates pipeline statistics over a set of leads
type SalesReport struct {
	Period         valueobject.Period `json:"-"`
	TotalLeads     int                `json:"total_leads"`
	TotalValue     decimal.Decimal    `json:"total_value"`
	WonDeals       int                `json:"won_deals"`
	LostDeals      int                `json:"lost_deals"`
	WonValue       decimal.Decimal    `json:"won_value"`
	ConversionRate decimal.Decimal    `json:"conversion_rate"`
	AvgDealSize    decimal.Decimal    `json:"avg_deal_size"`
	PipelineValue  decimal.Decimal    `json:"pipeline_value"`
	StageBreakdown map[Stage]int      `json:"stage_breakdown"`
}

// ComputeSalesReport aggregates over leads created inside period.
// ConversionRate is won/total as a ratio in [0, 1]; it and AvgDealSize are
// zero when no lead falls inside the period.
func ComputeSalesReport(leads []Lead, period valueobject.Period) SalesReport {
	report := SalesReport{
		Period:         period,
		TotalValue:     decimal.Zero,
		WonValue:       decimal.Zero,
		ConversionRate: decimal.Zero,
		AvgDealSize:    decimal.Zero,
		PipelineValue:  decimal.Zero,
		StageBreakdown: make(map[Stage]int, len(AllStages)),
	}
	for _, s := range AllStages {
		report.StageBreakdown[s] = 0
	}

	for i := range leads {
		l := &leads[i]
		if !period.Contains(l.CreatedAt) {
			continue
		}
		report.TotalLeads++
		report.TotalValue = report.TotalValue.Add(l.Value)
		report.StageBreakdown[l.Stage]++
		switch l.Stage {
		case StageWon:
			report.WonDeals++
			report.WonValue = report.WonValue.Add(l.Value)
		case StageLost:
			report.LostDeals++
		default:
			report.PipelineValue = report.PipelineValue.Add(l.Value)
		}
	}

	if report.TotalLeads > 0 {
		total := decimal.NewFromInt(int64(report.TotalLeads))
		report.ConversionRate = decimal.NewFromInt(int64(report.WonDeals)).DivRound(total, 4)
		report.AvgDealSize = report.TotalValue.DivRound(total, 2)
	}

	return report
}

// ConversionPercent returns the conversion rate scaled to 0-100
func (r SalesReport) ConversionPercent() decimal.Decimal {
	return r.ConversionRate.Mul(decimal.NewFromInt(100)).Round(2)
}
