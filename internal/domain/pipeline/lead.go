package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/estateflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Stage represents the position of a lead in the sales pipeline
type Stage string

const (
	StageProspecting   Stage = "prospecting"
	StageQualification Stage = "qualification"
	StageProposal      Stage = "proposal"
	StageNegotiation   Stage = "negotiation"
	StageClosing       Stage = "closing"
	StageWon           Stage = "won"
	StageLost          Stage = "lost"
)

// AllStages lists every stage in pipeline order
var AllStages = []Stage{
	StageProspecting,
	StageQualification,
	StageProposal,
	StageNegotiation,
	StageClosing,
	StageWon,
	StageLost,
}

// IsValid checks if the stage is known
func (s Stage) IsValid() bool {
	switch s {
	case StageProspecting, StageQualification, StageProposal, StageNegotiation,
		StageClosing, StageWon, StageLost:
		return true
	}
	return false
}

// String returns the string representation of Stage
func (s Stage) String() string {
	return string(s)
}

// IsTerminal returns true for won and lost
func (s Stage) IsTerminal() bool {
	return s == StageWon || s == StageLost
}

// Next returns the immediate forward stage, or "" for closing and terminal stages
func (s Stage) Next() Stage {
	switch s {
	case StageProspecting:
		return StageQualification
	case StageQualification:
		return StageProposal
	case StageProposal:
		return StageNegotiation
	case StageNegotiation:
		return StageClosing
	}
	return ""
}

// CanTransitionTo checks if the stage can move to target.
// Forward moves are one step at a time; lost is reachable from any open
// stage and won only from closing.
func (s Stage) CanTransitionTo(target Stage) bool {
	if s.IsTerminal() || !target.IsValid() {
		return false
	}
	switch target {
	case StageLost:
		return true
	case StageWon:
		return s == StageClosing
	}
	return s.Next() == target
}

// ValidateTransition returns the typed failure for an illegal move, or nil
func (s Stage) ValidateTransition(target Stage) error {
	if s.IsTerminal() {
		return shared.NewDomainError(shared.CodeTerminalState,
			fmt.Sprintf("Lead is %s and cannot move to %s", s, target))
	}
	if !target.IsValid() {
		return shared.NewDomainError(shared.CodeInvalidArgument, fmt.Sprintf("Unknown stage %q", target))
	}
	if !s.CanTransitionTo(target) {
		return shared.NewDomainError(shared.CodeInvalidStateTransition,
			fmt.Sprintf("Cannot move lead from %s to %s", s, target))
	}
	return nil
}

// Source is the channel a lead came in through
type Source string

const (
	SourceWebsite       Source = "website"
	SourceReferral      Source = "referral"
	SourceWalkIn        Source = "walk-in"
	SourceSocialMedia   Source = "social-media"
	SourceAdvertisement Source = "advertisement"
	SourcePartner       Source = "partner"
	SourceOther         Source = "other"
)

// IsValid checks if the source is known
func (s Source) IsValid() bool {
	switch s {
	case SourceWebsite, SourceReferral, SourceWalkIn, SourceSocialMedia,
		SourceAdvertisement, SourcePartner, SourceOther:
		return true
	}
	return false
}

// Priority ranks how urgently a lead should be worked
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// IsValid checks if the priority is known
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Contact holds a lead's customer details
type Contact struct {
	CustomerName string
	Email        string
	Phone        string
}

// Lead is a prospective customer tracked through the pipeline.
// Leads are never deleted; Archive moves them to lost.
type Lead struct {
	shared.BaseAggregateRoot
	Contact
	PropertyID     *uuid.UUID
	Value          decimal.Decimal
	Probability    int
	Stage          Stage
	AgentID        *uuid.UUID
	TeamLeadID     *uuid.UUID
	Source         Source
	Priority       Priority
	Notes          string
	LastContactAt  *time.Time
	NextFollowUpAt *time.Time
	StageChangedAt time.Time
	ClosedAt       *time.Time
}

// NewLead creates a lead in the prospecting stage
func NewLead(contact Contact, source Source, value decimal.Decimal, now time.Time) (*Lead, error) {
	contact.CustomerName = strings.TrimSpace(contact.CustomerName)
	if err := validateContact(contact); err != nil {
		return nil, err
	}
	if source == "" {
		source = SourceOther
	}
	if !source.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidArgument, fmt.Sprintf("Unknown lead source %q", source))
	}
	if value.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidArgument, "Lead value cannot be negative")
	}

	l := &Lead{
		BaseAggregateRoot: shared.NewBaseAggregateRootAt(now),
		Contact:           contact,
		Value:             value,
		Probability:       10,
		Stage:             StageProspecting,
		Source:            source,
		Priority:          PriorityMedium,
		StageChangedAt:    now,
	}

	l.AddDomainEvent(NewLeadCreatedEvent(l))

	return l, nil
}

func validateContact(c Contact) error {
	if strings.TrimSpace(c.CustomerName) == "" {
		return shared.NewDomainError(shared.CodeInvalidArgument, "Customer name cannot be empty")
	}
	if strings.TrimSpace(c.Email) == "" && strings.TrimSpace(c.Phone) == "" {
		return shared.NewDomainError(shared.CodeInvalidArgument, "Either email or phone is required")
	}
	return nil
}

// IsOpen returns true while the lead is not won or lost
func (l *Lead) IsOpen() bool {
	return !l.Stage.IsTerminal()
}

func (l *Lead) ensureOpen() error {
	if l.Stage.IsTerminal() {
		return shared.NewDomainError(shared.CodeTerminalState,
			fmt.Sprintf("Lead is %s and can no longer be changed", l.Stage))
	}
	return nil
}

// TransitionTo moves the lead to another stage
func (l *Lead) TransitionTo(target Stage, now time.Time) error {
	if err := l.Stage.ValidateTransition(target); err != nil {
		return err
	}

	from := l.Stage
	l.Stage = target
	l.StageChangedAt = now
	if target.IsTerminal() {
		closed := now
		l.ClosedAt = &closed
		l.NextFollowUpAt = nil
	}
	l.MarkChanged(now)

	l.AddDomainEvent(NewLeadStageChangedEvent(l, from, now))

	return nil
}

// Archive retires the lead by moving it to lost
func (l *Lead) Archive(reason string, now time.Time) error {
	if err := l.ensureOpen(); err != nil {
		return err
	}
	if reason = strings.TrimSpace(reason); reason != "" {
		l.appendNote(fmt.Sprintf("[%s] archived: %s", now.Format("2006-01-02"), reason))
	}
	return l.TransitionTo(StageLost, now)
}

// UpdateContact replaces the customer contact details
func (l *Lead) UpdateContact(contact Contact, now time.Time) error {
	if err := l.ensureOpen(); err != nil {
		return err
	}
	contact.CustomerName = strings.TrimSpace(contact.CustomerName)
	if err := validateContact(contact); err != nil {
		return err
	}

	l.Contact = contact
	l.MarkChanged(now)

	return nil
}

// UpdateDeal sets the estimated value and win probability.
// Probability is not tied to the stage.
func (l *Lead) UpdateDeal(value decimal.Decimal, probability int, propertyID *uuid.UUID, now time.Time) error {
	if err := l.ensureOpen(); err != nil {
		return err
	}
	if value.IsNegative() {
		return shared.NewDomainError(shared.CodeInvalidArgument, "Lead value cannot be negative")
	}
	if probability < 0 || probability > 100 {
		return shared.NewDomainError(shared.CodeInvalidArgument, "Probability must be between 0 and 100")
	}

	l.Value = value
	l.Probability = probability
	if propertyID != nil && *propertyID != uuid.Nil {
		id := *propertyID
		l.PropertyID = &id
	}
	l.MarkChanged(now)

	return nil
}

// Assign sets the responsible agent and team lead; nil clears
func (l *Lead) Assign(agentID, teamLeadID *uuid.UUID, now time.Time) error {
	if err := l.ensureOpen(); err != nil {
		return err
	}

	l.AgentID = copyID(agentID)
	l.TeamLeadID = copyID(teamLeadID)
	l.MarkChanged(now)

	return nil
}

// SetPriority changes how urgently the lead is worked
func (l *Lead) SetPriority(p Priority, now time.Time) error {
	if err := l.ensureOpen(); err != nil {
		return err
	}
	if !p.IsValid() {
		return shared.NewDomainError(shared.CodeInvalidArgument, fmt.Sprintf("Unknown priority %q", p))
	}

	l.Priority = p
	l.MarkChanged(now)

	return nil
}

// AppendNote adds a line of free text to the lead's notes
func (l *Lead) AppendNote(note string, now time.Time) error {
	if err := l.ensureOpen(); err != nil {
		return err
	}
	note = strings.TrimSpace(note)
	if note == "" {
		return shared.NewDomainError(shared.CodeInvalidArgument, "Note cannot be empty")
	}

	l.appendNote(note)
	l.MarkChanged(now)

	return nil
}

func (l *Lead) appendNote(note string) {
	if l.Notes == "" {
		l.Notes = note
		return
	}
	l.Notes += "\n" + note
}

// RecordContact stamps the last time the customer was reached
func (l *Lead) RecordContact(at time.Time, now time.Time) error {
	if err := l.ensureOpen(); err != nil {
		return err
	}
	if at.After(now) {
		return shared.NewDomainError(shared.CodeInvalidArgument, "Contact time cannot be in the future")
	}

	if l.LastContactAt == nil || at.After(*l.LastContactAt) {
		t := at
		l.LastContactAt = &t
	}
	l.MarkChanged(now)

	return nil
}

// NoteFollowUpScheduled keeps NextFollowUpAt pointing at the earliest pending follow-up
func (l *Lead) NoteFollowUpScheduled(at time.Time, now time.Time) error {
	if err := l.ensureOpen(); err != nil {
		return err
	}

	if l.NextFollowUpAt == nil || at.Before(*l.NextFollowUpAt) {
		t := at
		l.NextFollowUpAt = &t
		l.MarkChanged(now)
	}

	return nil
}

// ResetNextFollowUp replaces NextFollowUpAt, typically with the earliest
// follow-up still pending after one was completed
func (l *Lead) ResetNextFollowUp(next *time.Time, now time.Time) {
	if l.Stage.IsTerminal() {
		return
	}
	l.NextFollowUpAt = copyTime(next)
	l.MarkChanged(now)
}

func copyID(id *uuid.UUID) *uuid.UUID {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	v := *id
	return &v
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
