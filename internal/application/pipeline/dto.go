package pipeline

import (
	"time"

	"github.com/estateflow/backend/internal/domain/pipeline"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateLeadRequest is the untrusted draft for a new lead
type CreateLeadRequest struct {
	CustomerName string `json:"customer_name" validate:"notblank,max=200"`
	Email        string `json:"email" validate:"omitempty,email,max=200"`
	Phone        string `json:"phone" validate:"omitempty,max=30"`
	Source       string `json:"source" validate:"omitempty,oneof=website referral walk-in social-media advertisement partner other"`
	Value        string `json:"value" validate:"omitempty,nonneg_decimal"`
	Probability  *int   `json:"probability" validate:"omitempty,gte=0,lte=100"`
	PropertyID   string `json:"property_id" validate:"omitempty,uuid"`
	AgentID      string `json:"agent_id" validate:"omitempty,uuid"`
	TeamLeadID   string `json:"team_lead_id" validate:"omitempty,uuid"`
	Priority     string `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Notes        string `json:"notes" validate:"max=5000"`
}

// ContactUpdate replaces the customer contact details
type ContactUpdate struct {
	CustomerName string `json:"customer_name" validate:"notblank,max=200"`
	Email        string `json:"email" validate:"omitempty,email,max=200"`
	Phone        string `json:"phone" validate:"omitempty,max=30"`
}

// DealUpdate replaces the deal estimate
type DealUpdate struct {
	Value       string `json:"value" validate:"required,nonneg_decimal"`
	Probability int    `json:"probability" validate:"gte=0,lte=100"`
	PropertyID  string `json:"property_id" validate:"omitempty,uuid"`
}

// AssignmentUpdate sets agent and team lead; empty clears
type AssignmentUpdate struct {
	AgentID    string `json:"agent_id" validate:"omitempty,uuid"`
	TeamLeadID string `json:"team_lead_id" validate:"omitempty,uuid"`
}

// UpdateLeadRequest is the untrusted draft for lead changes.
// Nil sections are left unchanged.
type UpdateLeadRequest struct {
	Contact    *ContactUpdate    `json:"contact" validate:"omitempty"`
	Deal       *DealUpdate       `json:"deal" validate:"omitempty"`
	Assignment *AssignmentUpdate `json:"assignment" validate:"omitempty"`
	Priority   string            `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Note       string            `json:"note" validate:"max=5000"`
}

// TransitionStageRequest moves a lead to another stage
type TransitionStageRequest struct {
	Stage string `json:"stage" validate:"notblank"`
}

// ArchiveLeadRequest retires a lead
type ArchiveLeadRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// LeadListFilter represents filter options for the lead list
type LeadListFilter struct {
	Search   string `json:"search"`
	Stage    string `json:"stage" validate:"omitempty,oneof=prospecting qualification proposal negotiation closing won lost"`
	AgentID  string `json:"agent_id" validate:"omitempty,uuid"`
	Source   string `json:"source" validate:"omitempty,oneof=website referral walk-in social-media advertisement partner other"`
	Priority string `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Page     int    `json:"page" validate:"gte=0"`
	PageSize int    `json:"page_size" validate:"gte=0,lte=100"`
	OrderBy  string `json:"order_by"`
	OrderDir string `json:"order_dir" validate:"omitempty,oneof=asc desc"`
}

// ScheduleFollowUpRequest is the untrusted draft for a new follow-up
type ScheduleFollowUpRequest struct {
	Title       string `json:"title" validate:"notblank,max=200"`
	Description string `json:"description" validate:"max=2000"`
	ScheduledAt string `json:"scheduled_at" validate:"required,date"`
	AssigneeID  string `json:"assignee_id" validate:"omitempty,uuid"`
}

// RescheduleFollowUpRequest moves a follow-up to a new time
type RescheduleFollowUpRequest struct {
	ScheduledAt string `json:"scheduled_at" validate:"required,date"`
}

// SalesReportRequest bounds the report window; empty sides are unbounded
type SalesReportRequest struct {
	From string `json:"from" validate:"omitempty,date"`
	To   string `json:"to" validate:"omitempty,date"`
}

// LeadResponse represents a lead in responses
type LeadResponse struct {
	ID             uuid.UUID       `json:"id"`
	CustomerName   string          `json:"customer_name"`
	Email          string          `json:"email,omitempty"`
	Phone          string          `json:"phone,omitempty"`
	PropertyID     *uuid.UUID      `json:"property_id,omitempty"`
	Value          decimal.Decimal `json:"value"`
	Probability    int             `json:"probability"`
	Stage          string          `json:"stage"`
	AgentID        *uuid.UUID      `json:"agent_id,omitempty"`
	TeamLeadID     *uuid.UUID      `json:"team_lead_id,omitempty"`
	Source         string          `json:"source"`
	Priority       string          `json:"priority"`
	Notes          string          `json:"notes,omitempty"`
	LastContactAt  *time.Time      `json:"last_contact_at,omitempty"`
	NextFollowUpAt *time.Time      `json:"next_follow_up_at,omitempty"`
	StageChangedAt time.Time       `json:"stage_changed_at"`
	ClosedAt       *time.Time      `json:"closed_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Version        int             `json:"version"`
}

// FollowUpResponse represents a follow-up in responses
type FollowUpResponse struct {
	ID              uuid.UUID  `json:"id"`
	LeadID          uuid.UUID  `json:"lead_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	ScheduledAt     time.Time  `json:"scheduled_at"`
	AssigneeID      *uuid.UUID `json:"assignee_id,omitempty"`
	Completed       bool       `json:"completed"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	RescheduledFrom *uuid.UUID `json:"rescheduled_from,omitempty"`
	Overdue         bool       `json:"overdue"`
	CreatedAt       time.Time  `json:"created_at"`
	Version         int        `json:"version"`
}

// TriageResponse is the bucketed view of pending follow-ups
type TriageResponse struct {
	Overdue       []FollowUpResponse `json:"overdue"`
	DueToday      []FollowUpResponse `json:"due_today"`
	Upcoming      []FollowUpResponse `json:"upcoming"`
	UpcomingTotal int                `json:"upcoming_total"`
	GeneratedAt   time.Time          `json:"generated_at"`
}

// SalesReportResponse carries the aggregated pipeline statistics
type SalesReportResponse struct {
	From              *time.Time      `json:"from,omitempty"`
	To                *time.Time      `json:"to,omitempty"`
	TotalLeads        int             `json:"total_leads"`
	TotalValue        decimal.Decimal `json:"total_value"`
	WonDeals          int             `json:"won_deals"`
	LostDeals         int             `json:"lost_deals"`
	WonValue          decimal.Decimal `json:"won_value"`
	ConversionRate    decimal.Decimal `json:"conversion_rate"`
	ConversionPercent decimal.Decimal `json:"conversion_percent"`
	AvgDealSize       decimal.Decimal `json:"avg_deal_size"`
	PipelineValue     decimal.Decimal `json:"pipeline_value"`
	StageBreakdown    map[string]int  `json:"stage_breakdown"`
}

// ToLeadResponse converts a domain Lead to LeadResponse
func ToLeadResponse(l *pipeline.Lead) LeadResponse {
	return LeadResponse{
		ID:             l.ID,
		CustomerName:   l.CustomerName,
		Email:          l.Email,
		Phone:          l.Phone,
		PropertyID:     l.PropertyID,
		Value:          l.Value,
		Probability:    l.Probability,
		Stage:          string(l.Stage),
		AgentID:        l.AgentID,
		TeamLeadID:     l.TeamLeadID,
		Source:         string(l.Source),
		Priority:       string(l.Priority),
		Notes:          l.Notes,
		LastContactAt:  l.LastContactAt,
		NextFollowUpAt: l.NextFollowUpAt,
		StageChangedAt: l.StageChangedAt,
		ClosedAt:       l.ClosedAt,
		CreatedAt:      l.CreatedAt,
		UpdatedAt:      l.UpdatedAt,
		Version:        l.Version,
	}
}

// ToFollowUpResponse converts a domain FollowUp to FollowUpResponse
func ToFollowUpResponse(f *pipeline.FollowUp, now time.Time) FollowUpResponse {
	return FollowUpResponse{
		ID:              f.ID,
		LeadID:          f.LeadID,
		Title:           f.Title,
		Description:     f.Description,
		ScheduledAt:     f.ScheduledAt,
		AssigneeID:      f.AssigneeID,
		Completed:       f.Completed,
		CompletedAt:     f.CompletedAt,
		RescheduledFrom: f.RescheduledFrom,
		Overdue:         f.IsOverdue(now),
		CreatedAt:       f.CreatedAt,
		Version:         f.Version,
	}
}

// ToTriageResponse converts a TriageResult to TriageResponse
func ToTriageResponse(r pipeline.TriageResult, now time.Time) TriageResponse {
	return TriageResponse{
		Overdue:       toFollowUpResponses(r.Overdue, now),
		DueToday:      toFollowUpResponses(r.DueToday, now),
		Upcoming:      toFollowUpResponses(r.Upcoming, now),
		UpcomingTotal: r.UpcomingTotal,
		GeneratedAt:   now,
	}
}

// ToSalesReportResponse converts a SalesReport to SalesReportResponse
func ToSalesReportResponse(r pipeline.SalesReport) SalesReportResponse {
	breakdown := make(map[string]int, len(r.StageBreakdown))
	for stage, n := range r.StageBreakdown {
		breakdown[string(stage)] = n
	}
	resp := SalesReportResponse{
		TotalLeads:        r.TotalLeads,
		TotalValue:        r.TotalValue,
		WonDeals:          r.WonDeals,
		LostDeals:         r.LostDeals,
		WonValue:          r.WonValue,
		ConversionRate:    r.ConversionRate,
		ConversionPercent: r.ConversionPercent(),
		AvgDealSize:       r.AvgDealSize,
		PipelineValue:     r.PipelineValue,
		StageBreakdown:    breakdown,
	}
	if !r.Period.Start.IsZero() {
		from := r.Period.Start
		resp.From = &from
	}
	if !r.Period.End.IsZero() {
		to := r.Period.End
		resp.To = &to
	}
	return resp
}

func toLeadResponses(items []pipeline.Lead) []LeadResponse {
	out := make([]LeadResponse, len(items))
	for i := range items {
		out[i] = ToLeadResponse(&items[i])
	}
	return out
}

func toFollowUpResponses(items []pipeline.FollowUp, now time.Time) []FollowUpResponse {
	out := make([]FollowUpResponse, len(items))
	for i := range items {
		out[i] = ToFollowUpResponse(&items[i], now)
	}
	return out
}
