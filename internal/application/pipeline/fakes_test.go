package pipeline

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/estateflow/backend/internal/domain/pipeline"
	"github.com/estateflow/backend/internal/domain/shared"
	"github.com/estateflow/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// memStore keeps detached copies of leads and follow-ups
type memStore struct {
	mu        sync.Mutex
	leads     map[uuid.UUID]pipeline.Lead
	followUps map[uuid.UUID]pipeline.FollowUp
}

func newMemStore() *memStore {
	return &memStore{
		leads:     make(map[uuid.UUID]pipeline.Lead),
		followUps: make(map[uuid.UUID]pipeline.FollowUp),
	}
}

func notFound(what string) error {
	return shared.NewDomainError(shared.CodeNotFound, what+" not found")
}

type memLeadRepo struct{ s *memStore }

func (r *memLeadRepo) FindByID(_ context.Context, id uuid.UUID) (*pipeline.Lead, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.leads[id]
	if !ok {
		return nil, notFound("lead")
	}
	return &l, nil
}

func matchLead(l pipeline.Lead, filter shared.Filter) bool {
	if filter.Search != "" && !strings.Contains(strings.ToLower(l.CustomerName), strings.ToLower(filter.Search)) {
		return false
	}
	if v, ok := filter.Filters["stage"]; ok && string(l.Stage) != v {
		return false
	}
	if v, ok := filter.Filters["source"]; ok && string(l.Source) != v {
		return false
	}
	if v, ok := filter.Filters["priority"]; ok && string(l.Priority) != v {
		return false
	}
	if v, ok := filter.Filters["agent_id"]; ok && (l.AgentID == nil || l.AgentID.String() != v) {
		return false
	}
	return true
}

func (r *memLeadRepo) find(match func(l pipeline.Lead) bool) []pipeline.Lead {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]pipeline.Lead, 0)
	for _, l := range r.s.leads {
		if match(l) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CustomerName < out[j].CustomerName })
	return out
}

func (r *memLeadRepo) FindAll(_ context.Context, filter shared.Filter) ([]pipeline.Lead, error) {
	return r.find(func(l pipeline.Lead) bool { return matchLead(l, filter) }), nil
}

func (r *memLeadRepo) FindByStage(_ context.Context, stage pipeline.Stage, filter shared.Filter) ([]pipeline.Lead, error) {
	return r.find(func(l pipeline.Lead) bool { return l.Stage == stage && matchLead(l, filter) }), nil
}

func (r *memLeadRepo) FindByAgent(_ context.Context, agentID uuid.UUID, filter shared.Filter) ([]pipeline.Lead, error) {
	return r.find(func(l pipeline.Lead) bool {
		return l.AgentID != nil && *l.AgentID == agentID && matchLead(l, filter)
	}), nil
}

func (r *memLeadRepo) FindCreatedIn(_ context.Context, period valueobject.Period) ([]pipeline.Lead, error) {
	return r.find(func(l pipeline.Lead) bool { return period.Contains(l.CreatedAt) }), nil
}

func (r *memLeadRepo) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	all, err := r.FindAll(ctx, filter)
	return int64(len(all)), err
}

func (r *memLeadRepo) Save(_ context.Context, l *pipeline.Lead) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *l
	c.ClearDomainEvents()
	r.s.leads[l.ID] = c
	return nil
}

func (r *memLeadRepo) SaveWithLock(_ context.Context, l *pipeline.Lead, expectedVersion int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.leads[l.ID]
	if !ok {
		return notFound("lead")
	}
	if stored.Version != expectedVersion {
		return shared.NewDomainError(shared.CodeConcurrencyConflict, "version mismatch")
	}
	c := *l
	c.ClearDomainEvents()
	r.s.leads[l.ID] = c
	return nil
}

type memFollowUpRepo struct{ s *memStore }

func (r *memFollowUpRepo) FindByID(_ context.Context, id uuid.UUID) (*pipeline.FollowUp, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.followUps[id]
	if !ok {
		return nil, notFound("follow-up")
	}
	return &f, nil
}

func (r *memFollowUpRepo) find(match func(f pipeline.FollowUp) bool) []pipeline.FollowUp {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]pipeline.FollowUp, 0)
	for _, f := range r.s.followUps {
		if match(f) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out
}

func (r *memFollowUpRepo) FindByLead(_ context.Context, leadID uuid.UUID) ([]pipeline.FollowUp, error) {
	return r.find(func(f pipeline.FollowUp) bool { return f.LeadID == leadID }), nil
}

func (r *memFollowUpRepo) FindPending(_ context.Context) ([]pipeline.FollowUp, error) {
	return r.find(func(f pipeline.FollowUp) bool { return !f.Completed }), nil
}

func (r *memFollowUpRepo) FindPendingByAssignee(_ context.Context, assigneeID uuid.UUID) ([]pipeline.FollowUp, error) {
	return r.find(func(f pipeline.FollowUp) bool {
		return !f.Completed && f.AssigneeID != nil && *f.AssigneeID == assigneeID
	}), nil
}

func (r *memFollowUpRepo) Save(_ context.Context, f *pipeline.FollowUp) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *f
	c.ClearDomainEvents()
	r.s.followUps[f.ID] = c
	return nil
}

func (r *memFollowUpRepo) SaveWithLock(_ context.Context, f *pipeline.FollowUp, expectedVersion int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.followUps[f.ID]
	if !ok {
		return notFound("follow-up")
	}
	if stored.Version != expectedVersion {
		return shared.NewDomainError(shared.CodeConcurrencyConflict, "version mismatch")
	}
	c := *f
	c.ClearDomainEvents()
	r.s.followUps[f.ID] = c
	return nil
}

// recordingPublisher collects published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}
