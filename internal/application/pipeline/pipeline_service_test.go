package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/estateflow/backend/internal/domain/pipeline"
	"github.com/estateflow/backend/internal/domain/shared"
	"github.com/estateflow/backend/internal/domain/shared/valueobject"
	"github.com/estateflow/backend/internal/infrastructure/cache"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	svc       *PipelineService
	store     *memStore
	publisher *recordingPublisher
	ctx       context.Context
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := newMemStore()
	cfg := shared.DefaultLockConfig()
	cfg.AcquireTimeout = 2 * time.Second
	locker := cache.NewInMemoryEntityLocker(cfg)
	t.Cleanup(func() { _ = locker.Close() })

	svc := NewPipelineService(&memLeadRepo{s: store}, &memFollowUpRepo{s: store}, nil, locker)
	svc.SetClock(shared.FixedClock{At: testNow})
	publisher := &recordingPublisher{}
	svc.SetEventPublisher(publisher)

	return &testEnv{svc: svc, store: store, publisher: publisher, ctx: context.Background()}
}

func (e *testEnv) createLead(t *testing.T, name string) *LeadResponse {
	t.Helper()
	l, err := e.svc.CreateLead(e.ctx, CreateLeadRequest{
		CustomerName: name,
		Phone:        "+91 98470 00000",
		Source:       "referral",
		Value:        "5000000",
	})
	require.NoError(t, err)
	return l
}

func (e *testEnv) schedule(t *testing.T, leadID uuid.UUID, at time.Time) *FollowUpResponse {
	t.Helper()
	f, err := e.svc.ScheduleFollowUp(e.ctx, leadID, ScheduleFollowUpRequest{
		Title:       "Call back",
		ScheduledAt: at.Format(time.RFC3339),
	})
	require.NoError(t, err)
	return f
}

func (e *testEnv) moveTo(t *testing.T, leadID uuid.UUID, stages ...pipeline.Stage) {
	t.Helper()
	for _, st := range stages {
		_, err := e.svc.TransitionStage(e.ctx, leadID, TransitionStageRequest{Stage: string(st)})
		require.NoError(t, err)
	}
}

func TestPipelineService_CreateLead(t *testing.T) {
	t.Run("creates a prospecting lead with defaults", func(t *testing.T) {
		env := newTestEnv(t)

		lead := env.createLead(t, "  Anita Menon ")

		assert.Equal(t, "Anita Menon", lead.CustomerName)
		assert.Equal(t, "prospecting", lead.Stage)
		assert.Equal(t, "medium", lead.Priority)
		assert.Equal(t, 10, lead.Probability)
		assert.True(t, decimal.NewFromInt(5000000).Equal(lead.Value))
		assert.Equal(t, testNow, lead.CreatedAt)
		assert.Equal(t, []string{pipeline.EventTypeLeadCreated}, env.publisher.types())
	})

	t.Run("applies optional draft fields", func(t *testing.T) {
		env := newTestEnv(t)
		agent := uuid.New()
		prob := 40

		lead, err := env.svc.CreateLead(env.ctx, CreateLeadRequest{
			CustomerName: "Ravi",
			Email:        "ravi@example.com",
			Probability:  &prob,
			AgentID:      agent.String(),
			Priority:     "high",
			Notes:        "Wants a corner unit",
		})
		require.NoError(t, err)

		assert.Equal(t, 40, lead.Probability)
		assert.Equal(t, "high", lead.Priority)
		assert.Equal(t, "other", lead.Source)
		require.NotNil(t, lead.AgentID)
		assert.Equal(t, agent, *lead.AgentID)
		assert.Equal(t, "Wants a corner unit", lead.Notes)
	})

	t.Run("rejects invalid drafts", func(t *testing.T) {
		env := newTestEnv(t)

		cases := map[string]CreateLeadRequest{
			"blank name":       {CustomerName: "  ", Phone: "1"},
			"no contact":       {CustomerName: "Ravi"},
			"bad email":        {CustomerName: "Ravi", Email: "not-an-email"},
			"negative value":   {CustomerName: "Ravi", Phone: "1", Value: "-1"},
			"unknown source":   {CustomerName: "Ravi", Phone: "1", Source: "billboard"},
			"malformed agent":  {CustomerName: "Ravi", Phone: "1", AgentID: "abc"},
			"bad probability":  {CustomerName: "Ravi", Phone: "1", Probability: intPtr(101)},
			"unknown priority": {CustomerName: "Ravi", Phone: "1", Priority: "asap"},
		}
		for name, req := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := env.svc.CreateLead(env.ctx, req)
				require.Error(t, err)
				assert.Equal(t, shared.CodeInvalidArgument, shared.CodeOf(err))
			})
		}
		assert.Empty(t, env.store.leads)
	})
}

func intPtr(v int) *int { return &v }

func TestPipelineService_TransitionStage(t *testing.T) {
	t.Run("walks the pipeline to won", func(t *testing.T) {
		env := newTestEnv(t)
		lead := env.createLead(t, "Anita")

		env.moveTo(t, lead.ID,
			pipeline.StageQualification,
			pipeline.StageProposal,
			pipeline.StageNegotiation,
			pipeline.StageClosing,
			pipeline.StageWon,
		)

		got, err := env.svc.GetLead(env.ctx, lead.ID)
		require.NoError(t, err)
		assert.Equal(t, "won", got.Stage)
		require.NotNil(t, got.ClosedAt)
		assert.Nil(t, got.NextFollowUpAt)
		assert.Len(t, env.publisher.types(), 6)
	})

	t.Run("rejects skipping stages", func(t *testing.T) {
		env := newTestEnv(t)
		lead := env.createLead(t, "Anita")

		_, err := env.svc.TransitionStage(env.ctx, lead.ID, TransitionStageRequest{Stage: "proposal"})
		assert.True(t, errors.Is(err, shared.ErrInvalidStateTransition))

		_, err = env.svc.TransitionStage(env.ctx, lead.ID, TransitionStageRequest{Stage: "won"})
		assert.True(t, errors.Is(err, shared.ErrInvalidStateTransition))

		got, err := env.svc.GetLead(env.ctx, lead.ID)
		require.NoError(t, err)
		assert.Equal(t, "prospecting", got.Stage)
		assert.Equal(t, lead.Version, got.Version)
	})

	t.Run("lost is reachable from any open stage", func(t *testing.T) {
		env := newTestEnv(t)
		lead := env.createLead(t, "Anita")
		env.moveTo(t, lead.ID, pipeline.StageQualification, pipeline.StageLost)

		got, err := env.svc.GetLead(env.ctx, lead.ID)
		require.NoError(t, err)
		assert.Equal(t, "lost", got.Stage)
	})

	t.Run("terminal leads cannot move", func(t *testing.T) {
		env := newTestEnv(t)
		lead := env.createLead(t, "Anita")
		env.moveTo(t, lead.ID, pipeline.StageLost)

		_, err := env.svc.TransitionStage(env.ctx, lead.ID, TransitionStageRequest{Stage: "qualification"})
		assert.Equal(t, shared.CodeTerminalState, shared.CodeOf(err))
	})

	t.Run("unknown stage is invalid argument", func(t *testing.T) {
		env := newTestEnv(t)
		lead := env.createLead(t, "Anita")

		_, err := env.svc.TransitionStage(env.ctx, lead.ID, TransitionStageRequest{Stage: "dormant"})
		assert.Equal(t, shared.CodeInvalidArgument, shared.CodeOf(err))
	})

	t.Run("unknown lead is not found", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.svc.TransitionStage(env.ctx, uuid.New(), TransitionStageRequest{Stage: "qualification"})
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}

func TestPipelineService_UpdateLead(t *testing.T) {
	env := newTestEnv(t)
	lead := env.createLead(t, "Anita")
	agent, teamLead, property := uuid.New(), uuid.New(), uuid.New()

	got, err := env.svc.UpdateLead(env.ctx, lead.ID, UpdateLeadRequest{
		Contact:    &ContactUpdate{CustomerName: "Anita Menon", Email: "anita@example.com"},
		Deal:       &DealUpdate{Value: "7500000", Probability: 60, PropertyID: property.String()},
		Assignment: &AssignmentUpdate{AgentID: agent.String(), TeamLeadID: teamLead.String()},
		Priority:   "urgent",
		Note:       "Prefers east facing",
	})
	require.NoError(t, err)

	assert.Equal(t, "Anita Menon", got.CustomerName)
	assert.Equal(t, "anita@example.com", got.Email)
	assert.True(t, decimal.NewFromInt(7500000).Equal(got.Value))
	assert.Equal(t, 60, got.Probability)
	assert.Equal(t, property, *got.PropertyID)
	assert.Equal(t, agent, *got.AgentID)
	assert.Equal(t, teamLead, *got.TeamLeadID)
	assert.Equal(t, "urgent", got.Priority)
	assert.Contains(t, got.Notes, "Prefers east facing")
	assert.Greater(t, got.Version, lead.Version)

	t.Run("rejects changes to a closed lead", func(t *testing.T) {
		_, err := env.svc.ArchiveLead(env.ctx, lead.ID, ArchiveLeadRequest{Reason: "bought elsewhere"})
		require.NoError(t, err)

		_, err = env.svc.UpdateLead(env.ctx, lead.ID, UpdateLeadRequest{Priority: "low"})
		assert.Equal(t, shared.CodeTerminalState, shared.CodeOf(err))
	})
}

func TestPipelineService_ArchiveLead(t *testing.T) {
	env := newTestEnv(t)
	lead := env.createLead(t, "Anita")

	got, err := env.svc.ArchiveLead(env.ctx, lead.ID, ArchiveLeadRequest{Reason: "no budget"})
	require.NoError(t, err)

	assert.Equal(t, "lost", got.Stage)
	assert.Contains(t, got.Notes, "archived: no budget")

	_, err = env.svc.ArchiveLead(env.ctx, lead.ID, ArchiveLeadRequest{})
	assert.Equal(t, shared.CodeTerminalState, shared.CodeOf(err))
}

func TestPipelineService_ListLeads(t *testing.T) {
	env := newTestEnv(t)
	agent := uuid.New()

	a := env.createLead(t, "Anita")
	b := env.createLead(t, "Bala")
	env.createLead(t, "Chitra")
	env.moveTo(t, a.ID, pipeline.StageQualification)
	_, err := env.svc.UpdateLead(env.ctx, b.ID, UpdateLeadRequest{Assignment: &AssignmentUpdate{AgentID: agent.String()}})
	require.NoError(t, err)

	all, total, err := env.svc.ListLeads(env.ctx, LeadListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, int64(3), total)

	byStage, total, err := env.svc.ListLeads(env.ctx, LeadListFilter{Stage: "qualification"})
	require.NoError(t, err)
	require.Len(t, byStage, 1)
	assert.Equal(t, a.ID, byStage[0].ID)
	assert.Equal(t, int64(1), total)

	byAgent, total, err := env.svc.ListLeads(env.ctx, LeadListFilter{AgentID: agent.String()})
	require.NoError(t, err)
	require.Len(t, byAgent, 1)
	assert.Equal(t, b.ID, byAgent[0].ID)
	assert.Equal(t, int64(1), total)

	byAgentAndStage, total, err := env.svc.ListLeads(env.ctx, LeadListFilter{AgentID: agent.String(), Stage: "qualification"})
	require.NoError(t, err)
	assert.Empty(t, byAgentAndStage)
	assert.Zero(t, total)

	_, _, err = env.svc.ListLeads(env.ctx, LeadListFilter{Stage: "dormant"})
	assert.Equal(t, shared.CodeInvalidArgument, shared.CodeOf(err))

	_, _, err = env.svc.ListLeads(env.ctx, LeadListFilter{AgentID: "agent-7"})
	assert.Equal(t, shared.CodeInvalidArgument, shared.CodeOf(err))
}

func TestPipelineService_ScheduleFollowUp(t *testing.T) {
	t.Run("keeps the lead's next follow-up at the earliest", func(t *testing.T) {
		env := newTestEnv(t)
		lead := env.createLead(t, "Anita")

		later := testNow.Add(48 * time.Hour)
		sooner := testNow.Add(3 * time.Hour)
		env.schedule(t, lead.ID, later)
		env.schedule(t, lead.ID, sooner)
		env.schedule(t, lead.ID, later.Add(time.Hour))

		got, err := env.svc.GetLead(env.ctx, lead.ID)
		require.NoError(t, err)
		require.NotNil(t, got.NextFollowUpAt)
		assert.True(t, sooner.Equal(*got.NextFollowUpAt))

		items, err := env.svc.ListFollowUpsByLead(env.ctx, lead.ID)
		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.True(t, sooner.Equal(items[0].ScheduledAt))
	})

	t.Run("assignee defaults to the lead's agent", func(t *testing.T) {
		env := newTestEnv(t)
		agent := uuid.New()
		lead, err := env.svc.CreateLead(env.ctx, CreateLeadRequest{CustomerName: "Ravi", Phone: "1", AgentID: agent.String()})
		require.NoError(t, err)

		f := env.schedule(t, lead.ID, testNow.Add(time.Hour))
		require.NotNil(t, f.AssigneeID)
		assert.Equal(t, agent, *f.AssigneeID)
	})

	t.Run("closed leads take no follow-ups", func(t *testing.T) {
		env := newTestEnv(t)
		lead := env.createLead(t, "Anita")
		env.moveTo(t, lead.ID, pipeline.StageLost)

		_, err := env.svc.ScheduleFollowUp(env.ctx, lead.ID, ScheduleFollowUpRequest{
			Title:       "Call back",
			ScheduledAt: "2026-04-05",
		})
		assert.Equal(t, shared.CodeTerminalState, shared.CodeOf(err))
		assert.Empty(t, env.store.followUps)
	})

	t.Run("validates the draft", func(t *testing.T) {
		env := newTestEnv(t)
		lead := env.createLead(t, "Anita")

		_, err := env.svc.ScheduleFollowUp(env.ctx, lead.ID, ScheduleFollowUpRequest{Title: "Call", ScheduledAt: "next week"})
		assert.Equal(t, shared.CodeInvalidArgument, shared.CodeOf(err))

		_, err = env.svc.ScheduleFollowUp(env.ctx, lead.ID, ScheduleFollowUpRequest{Title: " ", ScheduledAt: "2026-04-05"})
		assert.Equal(t, shared.CodeInvalidArgument, shared.CodeOf(err))

		_, err = env.svc.ScheduleFollowUp(env.ctx, uuid.New(), ScheduleFollowUpRequest{Title: "Call", ScheduledAt: "2026-04-05"})
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}

func TestPipelineService_CompleteFollowUp(t *testing.T) {
	t.Run("completes and moves the lead's next follow-up", func(t *testing.T) {
		env := newTestEnv(t)
		lead := env.createLead(t, "Anita")
		first := env.schedule(t, lead.ID, testNow.Add(-2*time.Hour))
		second := testNow.Add(24 * time.Hour)
		env.schedule(t, lead.ID, second)

		done, err := env.svc.CompleteFollowUp(env.ctx, first.ID)
		require.NoError(t, err)
		assert.True(t, done.Completed)
		require.NotNil(t, done.CompletedAt)
		assert.Equal(t, testNow, *done.CompletedAt)

		got, err := env.svc.GetLead(env.ctx, lead.ID)
		require.NoError(t, err)
		require.NotNil(t, got.LastContactAt)
		assert.Equal(t, testNow, *got.LastContactAt)
		require.NotNil(t, got.NextFollowUpAt)
		assert.True(t, second.Equal(*got.NextFollowUpAt))
		assert.Contains(t, env.publisher.types(), pipeline.EventTypeFollowUpCompleted)
	})

	t.Run("repeated completion fails and changes nothing", func(t *testing.T) {
		env := newTestEnv(t)
		lead := env.createLead(t, "Anita")
		f := env.schedule(t, lead.ID, testNow.Add(time.Hour))

		done, err := env.svc.CompleteFollowUp(env.ctx, f.ID)
		require.NoError(t, err)

		_, err = env.svc.CompleteFollowUp(env.ctx, f.ID)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrAlreadyCompleted))

		again, err := env.svc.GetFollowUp(env.ctx, f.ID)
		require.NoError(t, err)
		assert.Equal(t, done.Version, again.Version)
		assert.Equal(t, done.CompletedAt, again.CompletedAt)
	})

	t.Run("unknown follow-up is not found", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.svc.CompleteFollowUp(env.ctx, uuid.New())
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("closed lead is left untouched", func(t *testing.T) {
		env := newTestEnv(t)
		lead := env.createLead(t, "Anita")
		f := env.schedule(t, lead.ID, testNow.Add(time.Hour))
		env.moveTo(t, lead.ID, pipeline.StageLost)
		before, err := env.svc.GetLead(env.ctx, lead.ID)
		require.NoError(t, err)

		_, err = env.svc.CompleteFollowUp(env.ctx, f.ID)
		require.NoError(t, err)

		after, err := env.svc.GetLead(env.ctx, lead.ID)
		require.NoError(t, err)
		assert.Equal(t, before.Version, after.Version)
		assert.Nil(t, after.LastContactAt)
	})

	t.Run("concurrent completions succeed exactly once", func(t *testing.T) {
		env := newTestEnv(t)
		lead := env.createLead(t, "Anita")
		f := env.schedule(t, lead.ID, testNow.Add(time.Hour))

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
			repeats   int
		)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := env.svc.CompleteFollowUp(env.ctx, f.ID)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					successes++
				case errors.Is(err, shared.ErrAlreadyCompleted):
					repeats++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, successes)
		assert.Equal(t, 7, repeats)
	})
}

func TestPipelineService_RescheduleFollowUp(t *testing.T) {
	env := newTestEnv(t)
	lead := env.createLead(t, "Anita")
	original := env.schedule(t, lead.ID, testNow.Add(time.Hour))
	newTime := testNow.Add(72 * time.Hour)

	next, err := env.svc.RescheduleFollowUp(env.ctx, original.ID, RescheduleFollowUpRequest{ScheduledAt: newTime.Format(time.RFC3339)})
	require.NoError(t, err)

	assert.NotEqual(t, original.ID, next.ID)
	assert.True(t, newTime.Equal(next.ScheduledAt))
	require.NotNil(t, next.RescheduledFrom)
	assert.Equal(t, original.ID, *next.RescheduledFrom)
	assert.Equal(t, original.Title, next.Title)

	old, err := env.svc.GetFollowUp(env.ctx, original.ID)
	require.NoError(t, err)
	assert.False(t, old.Completed)
	assert.Equal(t, original.Version, old.Version)

	t.Run("completed follow-ups cannot be rescheduled", func(t *testing.T) {
		_, err := env.svc.CompleteFollowUp(env.ctx, original.ID)
		require.NoError(t, err)

		_, err = env.svc.RescheduleFollowUp(env.ctx, original.ID, RescheduleFollowUpRequest{ScheduledAt: "2026-05-01"})
		assert.True(t, errors.Is(err, shared.ErrAlreadyCompleted))
	})
}

func TestPipelineService_Triage(t *testing.T) {
	env := newTestEnv(t)
	env.svc.SetUpcomingLimit(2)
	assignee := uuid.New()
	lead, err := env.svc.CreateLead(env.ctx, CreateLeadRequest{CustomerName: "Anita", Phone: "1", AgentID: assignee.String()})
	require.NoError(t, err)
	other := env.createLead(t, "Bala")

	overdueOld := env.schedule(t, lead.ID, testNow.Add(-48*time.Hour))
	overdueNew := env.schedule(t, lead.ID, testNow.Add(-time.Hour))
	today := env.schedule(t, lead.ID, testNow.Add(5*time.Hour))
	up1 := env.schedule(t, lead.ID, testNow.Add(30*time.Hour))
	up2 := env.schedule(t, lead.ID, testNow.Add(50*time.Hour))
	env.schedule(t, lead.ID, testNow.Add(70*time.Hour))
	done := env.schedule(t, lead.ID, testNow.Add(-3*time.Hour))
	_, err = env.svc.CompleteFollowUp(env.ctx, done.ID)
	require.NoError(t, err)
	env.schedule(t, other.ID, testNow.Add(2*time.Hour))

	t.Run("buckets every pending follow-up", func(t *testing.T) {
		view, err := env.svc.Triage(env.ctx)
		require.NoError(t, err)

		require.Len(t, view.Overdue, 2)
		assert.Equal(t, overdueOld.ID, view.Overdue[0].ID)
		assert.Equal(t, overdueNew.ID, view.Overdue[1].ID)
		assert.True(t, view.Overdue[0].Overdue)
		assert.Len(t, view.DueToday, 2)
		require.Len(t, view.Upcoming, 2)
		assert.Equal(t, up1.ID, view.Upcoming[0].ID)
		assert.Equal(t, up2.ID, view.Upcoming[1].ID)
		assert.Equal(t, 3, view.UpcomingTotal)
		assert.Equal(t, testNow, view.GeneratedAt)
	})

	t.Run("restricts to one assignee", func(t *testing.T) {
		view, err := env.svc.TriageForAssignee(env.ctx, assignee)
		require.NoError(t, err)

		assert.Len(t, view.Overdue, 2)
		require.Len(t, view.DueToday, 1)
		assert.Equal(t, today.ID, view.DueToday[0].ID)
		assert.Len(t, view.Upcoming, 2)
	})

	t.Run("nobody assigned yields empty buckets", func(t *testing.T) {
		view, err := env.svc.TriageForAssignee(env.ctx, uuid.New())
		require.NoError(t, err)

		assert.Empty(t, view.Overdue)
		assert.Empty(t, view.DueToday)
		assert.Empty(t, view.Upcoming)
	})
}

func TestPipelineService_SalesReport(t *testing.T) {
	t.Run("empty period reports zeros", func(t *testing.T) {
		env := newTestEnv(t)

		report, err := env.svc.SalesReport(env.ctx, valueobject.MonthOf(testNow))
		require.NoError(t, err)

		assert.Equal(t, 0, report.TotalLeads)
		assert.True(t, report.ConversionRate.IsZero())
		assert.True(t, report.AvgDealSize.IsZero())
		assert.Len(t, report.StageBreakdown, len(pipeline.AllStages))
	})

	t.Run("aggregates leads in the period", func(t *testing.T) {
		env := newTestEnv(t)
		won := env.createLead(t, "Anita")
		lost := env.createLead(t, "Bala")
		env.createLead(t, "Chitra")
		env.createLead(t, "Deepa")
		env.moveTo(t, won.ID,
			pipeline.StageQualification,
			pipeline.StageProposal,
			pipeline.StageNegotiation,
			pipeline.StageClosing,
			pipeline.StageWon,
		)
		env.moveTo(t, lost.ID, pipeline.StageLost)

		period, err := ReportPeriod(SalesReportRequest{From: "2026-04-01", To: "2026-05-01"})
		require.NoError(t, err)
		report, err := env.svc.SalesReport(env.ctx, period)
		require.NoError(t, err)

		assert.Equal(t, 4, report.TotalLeads)
		assert.Equal(t, 1, report.WonDeals)
		assert.Equal(t, 1, report.LostDeals)
		assert.True(t, decimal.RequireFromString("0.25").Equal(report.ConversionRate))
		assert.True(t, decimal.NewFromInt(25).Equal(report.ConversionPercent))
		assert.True(t, decimal.NewFromInt(20000000).Equal(report.TotalValue))
		assert.True(t, decimal.NewFromInt(10000000).Equal(report.PipelineValue))
		assert.Equal(t, 2, report.StageBreakdown["prospecting"])
		require.NotNil(t, report.From)
		require.NotNil(t, report.To)
	})

	t.Run("rejects an inverted period", func(t *testing.T) {
		_, err := ReportPeriod(SalesReportRequest{From: "2026-05-01", To: "2026-04-01"})
		assert.Equal(t, shared.CodeInvalidArgument, shared.CodeOf(err))
	})
}
