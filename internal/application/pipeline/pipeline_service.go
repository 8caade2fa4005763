package pipeline

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/estateflow/backend/internal/application/validation"
	"github.com/estateflow/backend/internal/domain/pipeline"
	"github.com/estateflow/backend/internal/domain/shared"
	"github.com/estateflow/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Lock key kinds
const (
	lockKindLead     = "lead"
	lockKindFollowUp = "followup"
)

// PipelineService handles leads, their stage transitions and follow-ups
type PipelineService struct {
	leadRepo       pipeline.LeadRepository
	followUpRepo   pipeline.FollowUpRepository
	txScope        TransactionScope
	locker         shared.EntityLocker
	clock          shared.Clock
	logger         *zap.Logger
	eventPublisher shared.EventPublisher
	upcomingLimit  int
}

// NewPipelineService creates a new PipelineService
func NewPipelineService(
	leadRepo pipeline.LeadRepository,
	followUpRepo pipeline.FollowUpRepository,
	txScope TransactionScope,
	locker shared.EntityLocker,
) *PipelineService {
	if txScope == nil {
		txScope = NewNoOpTransactionScope(leadRepo, followUpRepo)
	}
	return &PipelineService{
		leadRepo:      leadRepo,
		followUpRepo:  followUpRepo,
		txScope:       txScope,
		locker:        locker,
		clock:         shared.SystemClock{},
		logger:        zap.NewNop(),
		upcomingLimit: pipeline.DefaultUpcomingLimit,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *PipelineService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetClock sets the time source
func (s *PipelineService) SetClock(clock shared.Clock) {
	s.clock = clock
}

// SetLogger sets the logger
func (s *PipelineService) SetLogger(logger *zap.Logger) {
	s.logger = logger
}

// SetUpcomingLimit caps the upcoming triage bucket; values <= 0 restore the default
func (s *PipelineService) SetUpcomingLimit(limit int) {
	if limit <= 0 {
		limit = pipeline.DefaultUpcomingLimit
	}
	s.upcomingLimit = limit
}

func (s *PipelineService) publishDomainEvents(ctx context.Context, aggregates ...shared.AggregateRoot) {
	for _, agg := range aggregates {
		if agg == nil {
			continue
		}
		events := agg.GetDomainEvents()
		if len(events) == 0 {
			continue
		}
		if s.eventPublisher != nil {
			if err := s.eventPublisher.Publish(ctx, events...); err != nil {
				s.logger.Warn("failed to publish domain events",
					zap.String("aggregate_id", agg.GetID().String()),
					zap.Error(err),
				)
			}
		}
		agg.ClearDomainEvents()
	}
}

func (s *PipelineService) acquire(ctx context.Context, kind string, id uuid.UUID) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	return s.locker.Acquire(ctx, shared.LockKey(kind, id))
}

// ---------------------------------------------------------------------------
// Leads
// ---------------------------------------------------------------------------

// CreateLead validates a draft and adds the lead to the pipeline in prospecting
func (s *PipelineService) CreateLead(ctx context.Context, req CreateLeadRequest) (*LeadResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	value, err := validation.Decimal("value", req.Value)
	if err != nil {
		return nil, err
	}
	propertyID, err := validation.OptionalUUID("property_id", req.PropertyID)
	if err != nil {
		return nil, err
	}
	agentID, err := validation.OptionalUUID("agent_id", req.AgentID)
	if err != nil {
		return nil, err
	}
	teamLeadID, err := validation.OptionalUUID("team_lead_id", req.TeamLeadID)
	if err != nil {
		return nil, err
	}

	contact := pipeline.Contact{
		CustomerName: req.CustomerName,
		Email:        strings.TrimSpace(req.Email),
		Phone:        strings.TrimSpace(req.Phone),
	}
	lead, err := pipeline.NewLead(contact, pipeline.Source(req.Source), value, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if req.Probability != nil {
		lead.Probability = *req.Probability
	}
	if req.Priority != "" {
		lead.Priority = pipeline.Priority(req.Priority)
	}
	lead.PropertyID = propertyID
	lead.AgentID = agentID
	lead.TeamLeadID = teamLeadID
	lead.Notes = strings.TrimSpace(req.Notes)

	if err := s.leadRepo.Save(ctx, lead); err != nil {
		return nil, err
	}

	s.logger.Info("lead created",
		zap.String("lead_id", lead.ID.String()),
		zap.String("source", string(lead.Source)),
	)
	s.publishDomainEvents(ctx, lead)

	response := ToLeadResponse(lead)
	return &response, nil
}

// GetLead retrieves a lead by ID
func (s *PipelineService) GetLead(ctx context.Context, id uuid.UUID) (*LeadResponse, error) {
	lead, err := s.leadRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToLeadResponse(lead)
	return &response, nil
}

// ListLeads lists leads with filtering and pagination
func (s *PipelineService) ListLeads(ctx context.Context, filter LeadListFilter) ([]LeadResponse, int64, error) {
	if err := validation.Struct(filter); err != nil {
		return nil, 0, err
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
	if filter.Source != "" {
		domainFilter.Filters["source"] = filter.Source
	}
	if filter.Priority != "" {
		domainFilter.Filters["priority"] = filter.Priority
	}

	agentID, err := validation.OptionalUUID("agent_id", filter.AgentID)
	if err != nil {
		return nil, 0, err
	}

	var leads []pipeline.Lead
	switch {
	case agentID != nil:
		if filter.Stage != "" {
			domainFilter.Filters["stage"] = filter.Stage
		}
		leads, err = s.leadRepo.FindByAgent(ctx, *agentID, domainFilter)
		domainFilter.Filters["agent_id"] = agentID.String()
	case filter.Stage != "":
		leads, err = s.leadRepo.FindByStage(ctx, pipeline.Stage(filter.Stage), domainFilter)
		domainFilter.Filters["stage"] = filter.Stage
	default:
		leads, err = s.leadRepo.FindAll(ctx, domainFilter)
	}
	if err != nil {
		return nil, 0, err
	}

	total, err := s.leadRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return toLeadResponses(leads), total, nil
}

// mutateLead loads a lead under its lock, applies fn and saves it with the
// version seen at load. Events are published after the lock is released.
func (s *PipelineService) mutateLead(ctx context.Context, id uuid.UUID, fn func(l *pipeline.Lead, now time.Time) error) (*pipeline.Lead, error) {
	lead, err := func() (*pipeline.Lead, error) {
		release, err := s.acquire(ctx, lockKindLead, id)
		if err != nil {
			return nil, err
		}
		defer release()

		lead, err := s.leadRepo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		expectedVersion := lead.Version

		if err := fn(lead, s.clock.Now()); err != nil {
			return nil, err
		}
		if err := s.leadRepo.SaveWithLock(ctx, lead, expectedVersion); err != nil {
			return nil, err
		}
		return lead, nil
	}()
	if err != nil {
		return nil, err
	}
	s.publishDomainEvents(ctx, lead)
	return lead, nil
}

// UpdateLead applies the non-nil sections of the draft to an open lead
func (s *PipelineService) UpdateLead(ctx context.Context, id uuid.UUID, req UpdateLeadRequest) (*LeadResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	lead, err := s.mutateLead(ctx, id, func(l *pipeline.Lead, now time.Time) error {
		if req.Contact != nil {
			contact := pipeline.Contact{
				CustomerName: req.Contact.CustomerName,
				Email:        strings.TrimSpace(req.Contact.Email),
				Phone:        strings.TrimSpace(req.Contact.Phone),
			}
			if err := l.UpdateContact(contact, now); err != nil {
				return err
			}
		}
		if req.Deal != nil {
			value, err := validation.Decimal("value", req.Deal.Value)
			if err != nil {
				return err
			}
			propertyID, err := validation.OptionalUUID("property_id", req.Deal.PropertyID)
			if err != nil {
				return err
			}
			if err := l.UpdateDeal(value, req.Deal.Probability, propertyID, now); err != nil {
				return err
			}
		}
		if req.Assignment != nil {
			agentID, err := validation.OptionalUUID("agent_id", req.Assignment.AgentID)
			if err != nil {
				return err
			}
			teamLeadID, err := validation.OptionalUUID("team_lead_id", req.Assignment.TeamLeadID)
			if err != nil {
				return err
			}
			if err := l.Assign(agentID, teamLeadID, now); err != nil {
				return err
			}
		}
		if req.Priority != "" {
			if err := l.SetPriority(pipeline.Priority(req.Priority), now); err != nil {
				return err
			}
		}
		if strings.TrimSpace(req.Note) != "" {
			if err := l.AppendNote(req.Note, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	response := ToLeadResponse(lead)
	return &response, nil
}

// TransitionStage moves a lead along the pipeline
func (s *PipelineService) TransitionStage(ctx context.Context, id uuid.UUID, req TransitionStageRequest) (*LeadResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	target := pipeline.Stage(strings.TrimSpace(req.Stage))

	var from pipeline.Stage
	lead, err := s.mutateLead(ctx, id, func(l *pipeline.Lead, now time.Time) error {
		from = l.Stage
		return l.TransitionTo(target, now)
	})
	if err != nil {
		s.logger.Debug("stage transition rejected",
			zap.String("lead_id", id.String()),
			zap.String("target", string(target)),
			zap.String("code", shared.CodeOf(err)),
		)
		return nil, err
	}

	s.logger.Info("lead stage changed",
		zap.String("lead_id", id.String()),
		zap.String("from", string(from)),
		zap.String("to", string(lead.Stage)),
	)

	response := ToLeadResponse(lead)
	return &response, nil
}

// ArchiveLead retires an open lead by moving it to lost
func (s *PipelineService) ArchiveLead(ctx context.Context, id uuid.UUID, req ArchiveLeadRequest) (*LeadResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	lead, err := s.mutateLead(ctx, id, func(l *pipeline.Lead, now time.Time) error {
		return l.Archive(req.Reason, now)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("lead archived", zap.String("lead_id", id.String()))

	response := ToLeadResponse(lead)
	return &response, nil
}

// ---------------------------------------------------------------------------
// Follow-ups
// ---------------------------------------------------------------------------

// ScheduleFollowUp creates a pending follow-up for an open lead.
// The assignee defaults to the lead's agent.
func (s *PipelineService) ScheduleFollowUp(ctx context.Context, leadID uuid.UUID, req ScheduleFollowUpRequest) (*FollowUpResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	scheduledAt, err := validation.ParseDate(req.ScheduledAt)
	if err != nil {
		return nil, shared.NewValidationError("Request validation failed",
			[]shared.FieldError{{Field: "scheduled_at", Message: "Must be a date (YYYY-MM-DD or RFC 3339)"}})
	}
	assigneeID, err := validation.OptionalUUID("assignee_id", req.AssigneeID)
	if err != nil {
		return nil, err
	}

	var followUp *pipeline.FollowUp
	lead, err := func() (*pipeline.Lead, error) {
		release, err := s.acquire(ctx, lockKindLead, leadID)
		if err != nil {
			return nil, err
		}
		defer release()

		var lead *pipeline.Lead
		err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			l, err := repos.LeadRepo().FindByID(ctx, leadID)
			if err != nil {
				return err
			}
			expectedVersion := l.Version
			now := s.clock.Now()

			if assigneeID == nil {
				assigneeID = l.AgentID
			}
			f, err := pipeline.NewFollowUp(l.ID, req.Title, req.Description, scheduledAt, assigneeID, now)
			if err != nil {
				return err
			}
			if err := l.NoteFollowUpScheduled(f.ScheduledAt, now); err != nil {
				return err
			}
			if err := repos.FollowUpRepo().Save(ctx, f); err != nil {
				return err
			}
			if l.Version != expectedVersion {
				if err := repos.LeadRepo().SaveWithLock(ctx, l, expectedVersion); err != nil {
					return err
				}
			}
			lead, followUp = l, f
			return nil
		})
		return lead, err
	}()
	if err != nil {
		return nil, err
	}

	s.logger.Info("follow-up scheduled",
		zap.String("follow_up_id", followUp.ID.String()),
		zap.String("lead_id", leadID.String()),
		zap.Time("scheduled_at", followUp.ScheduledAt),
	)
	s.publishDomainEvents(ctx, followUp, lead)

	response := ToFollowUpResponse(followUp, s.clock.Now())
	return &response, nil
}

// GetFollowUp retrieves a follow-up by ID
func (s *PipelineService) GetFollowUp(ctx context.Context, id uuid.UUID) (*FollowUpResponse, error) {
	f, err := s.followUpRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToFollowUpResponse(f, s.clock.Now())
	return &response, nil
}

// ListFollowUpsByLead lists every follow-up of a lead by scheduled time
func (s *PipelineService) ListFollowUpsByLead(ctx context.Context, leadID uuid.UUID) ([]FollowUpResponse, error) {
	if _, err := s.leadRepo.FindByID(ctx, leadID); err != nil {
		return nil, err
	}
	items, err := s.followUpRepo.FindByLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].ScheduledAt.Before(items[j].ScheduledAt) })
	return toFollowUpResponses(items, s.clock.Now()), nil
}

// CompleteFollowUp marks a follow-up done. Completing it twice fails with
// ALREADY_COMPLETED and changes nothing. When the owning lead is still open
// its last contact is stamped and its next follow-up moves to the earliest
// one still pending.
func (s *PipelineService) CompleteFollowUp(ctx context.Context, id uuid.UUID) (*FollowUpResponse, error) {
	var lead *pipeline.Lead
	followUp, err := func() (*pipeline.FollowUp, error) {
		release, err := s.acquire(ctx, lockKindFollowUp, id)
		if err != nil {
			return nil, err
		}
		defer release()

		f, err := s.followUpRepo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if f.Completed {
			return nil, shared.NewDomainError(shared.CodeAlreadyCompleted, "Follow-up is already completed")
		}

		releaseLead, err := s.acquire(ctx, lockKindLead, f.LeadID)
		if err != nil {
			return nil, err
		}
		defer releaseLead()

		err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			f, err = repos.FollowUpRepo().FindByID(ctx, id)
			if err != nil {
				return err
			}
			expectedVersion := f.Version
			now := s.clock.Now()

			if err := f.Complete(now); err != nil {
				return err
			}
			if err := repos.FollowUpRepo().SaveWithLock(ctx, f, expectedVersion); err != nil {
				return err
			}

			l, err := repos.LeadRepo().FindByID(ctx, f.LeadID)
			if err != nil {
				return err
			}
			if !l.IsOpen() {
				return nil
			}
			leadVersion := l.Version
			if err := l.RecordContact(now, now); err != nil {
				return err
			}
			pending, err := repos.FollowUpRepo().FindByLead(ctx, l.ID)
			if err != nil {
				return err
			}
			l.ResetNextFollowUp(earliestPending(pending, f.ID), now)
			if err := repos.LeadRepo().SaveWithLock(ctx, l, leadVersion); err != nil {
				return err
			}
			lead = l
			return nil
		})
		if err != nil {
			return nil, err
		}
		return f, nil
	}()
	if err != nil {
		s.logger.Debug("follow-up completion rejected",
			zap.String("follow_up_id", id.String()),
			zap.String("code", shared.CodeOf(err)),
		)
		return nil, err
	}

	s.logger.Info("follow-up completed",
		zap.String("follow_up_id", id.String()),
		zap.String("lead_id", followUp.LeadID.String()),
	)
	if lead != nil {
		s.publishDomainEvents(ctx, followUp, lead)
	} else {
		s.publishDomainEvents(ctx, followUp)
	}

	response := ToFollowUpResponse(followUp, s.clock.Now())
	return &response, nil
}

// earliestPending returns the earliest scheduled time among pending
// follow-ups other than skip, or nil if there are none
func earliestPending(items []pipeline.FollowUp, skip uuid.UUID) *time.Time {
	var next *time.Time
	for i := range items {
		f := items[i]
		if f.Completed || f.ID == skip {
			continue
		}
		if next == nil || f.ScheduledAt.Before(*next) {
			at := f.ScheduledAt
			next = &at
		}
	}
	return next
}

// RescheduleFollowUp creates a new pending follow-up at a different time.
// The original follow-up is not modified.
func (s *PipelineService) RescheduleFollowUp(ctx context.Context, id uuid.UUID, req RescheduleFollowUpRequest) (*FollowUpResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	scheduledAt, err := validation.ParseDate(req.ScheduledAt)
	if err != nil {
		return nil, shared.NewValidationError("Request validation failed",
			[]shared.FieldError{{Field: "scheduled_at", Message: "Must be a date (YYYY-MM-DD or RFC 3339)"}})
	}

	var lead *pipeline.Lead
	next, err := func() (*pipeline.FollowUp, error) {
		release, err := s.acquire(ctx, lockKindFollowUp, id)
		if err != nil {
			return nil, err
		}
		defer release()

		original, err := s.followUpRepo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}

		releaseLead, err := s.acquire(ctx, lockKindLead, original.LeadID)
		if err != nil {
			return nil, err
		}
		defer releaseLead()

		var next *pipeline.FollowUp
		err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			now := s.clock.Now()
			f, err := original.Reschedule(scheduledAt, now)
			if err != nil {
				return err
			}
			l, err := repos.LeadRepo().FindByID(ctx, original.LeadID)
			if err != nil {
				return err
			}
			expectedVersion := l.Version
			if err := l.NoteFollowUpScheduled(f.ScheduledAt, now); err != nil {
				return err
			}
			if err := repos.FollowUpRepo().Save(ctx, f); err != nil {
				return err
			}
			if l.Version != expectedVersion {
				if err := repos.LeadRepo().SaveWithLock(ctx, l, expectedVersion); err != nil {
					return err
				}
			}
			next, lead = f, l
			return nil
		})
		return next, err
	}()
	if err != nil {
		return nil, err
	}

	s.logger.Info("follow-up rescheduled",
		zap.String("follow_up_id", next.ID.String()),
		zap.String("rescheduled_from", id.String()),
	)
	s.publishDomainEvents(ctx, next, lead)

	response := ToFollowUpResponse(next, s.clock.Now())
	return &response, nil
}

// Triage buckets every pending follow-up relative to now
func (s *PipelineService) Triage(ctx context.Context) (*TriageResponse, error) {
	pending, err := s.followUpRepo.FindPending(ctx)
	if err != nil {
		return nil, err
	}
	return s.triage(pending), nil
}

// TriageForAssignee buckets the pending follow-ups of one assignee
func (s *PipelineService) TriageForAssignee(ctx context.Context, assigneeID uuid.UUID) (*TriageResponse, error) {
	pending, err := s.followUpRepo.FindPendingByAssignee(ctx, assigneeID)
	if err != nil {
		return nil, err
	}
	return s.triage(pending), nil
}

func (s *PipelineService) triage(pending []pipeline.FollowUp) *TriageResponse {
	now := s.clock.Now()
	result := pipeline.Triage(pending, now, pipeline.TriageOptions{UpcomingLimit: s.upcomingLimit})
	response := ToTriageResponse(result, now)
	return &response
}

// ---------------------------------------------------------------------------
// Reporting
// ---------------------------------------------------------------------------

// ReportPeriod converts a report draft to a half-open period.
// From is inclusive and To is exclusive.
func ReportPeriod(req SalesReportRequest) (valueobject.Period, error) {
	if err := validation.Struct(req); err != nil {
		return valueobject.Period{}, err
	}
	from, err := validation.OptionalDate("from", req.From)
	if err != nil {
		return valueobject.Period{}, err
	}
	to, err := validation.OptionalDate("to", req.To)
	if err != nil {
		return valueobject.Period{}, err
	}

	var start, end time.Time
	if from != nil {
		start = *from
	}
	if to != nil {
		end = *to
	}
	period, err := valueobject.NewPeriod(start, end)
	if err != nil {
		return valueobject.Period{}, shared.NewValidationError("Request validation failed",
			[]shared.FieldError{{Field: "to", Message: err.Error()}})
	}
	return period, nil
}

// SalesReport aggregates pipeline statistics over leads created in period
func (s *PipelineService) SalesReport(ctx context.Context, period valueobject.Period) (*SalesReportResponse, error) {
	leads, err := s.leadRepo.FindCreatedIn(ctx, period)
	if err != nil {
		return nil, err
	}
	response := ToSalesReportResponse(pipeline.ComputeSalesReport(leads, period))
	return &response, nil
}
