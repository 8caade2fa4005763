package pipeline

import (
	"errors"
	"testing"
	"time"

	"github.com/estateflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 5, 20, 11, 0, 0, 0, time.UTC)

func createTestLead(t *testing.T) *Lead {
	t.Helper()
	l, err := NewLead(Contact{CustomerName: "Anita Rao", Phone: "+91 98460 00000"}, SourceReferral,
		decimal.NewFromInt(7_500_000), testNow)
	require.NoError(t, err)
	l.ClearDomainEvents()
	return l
}

func leadAt(t *testing.T, stage Stage) *Lead {
	t.Helper()
	l := createTestLead(t)
	l.Stage = stage
	return l
}

func TestNewLead(t *testing.T) {
	t.Run("starts in prospecting", func(t *testing.T) {
		l, err := NewLead(Contact{CustomerName: " Anita ", Email: "anita@example.com"}, "", decimal.Zero, testNow)

		require.NoError(t, err)
		assert.Equal(t, "Anita", l.CustomerName)
		assert.Equal(t, StageProspecting, l.Stage)
		assert.Equal(t, SourceOther, l.Source)
		assert.Equal(t, PriorityMedium, l.Priority)
		assert.Equal(t, testNow, l.StageChangedAt)
		require.Len(t, l.GetDomainEvents(), 1)
	})

	t.Run("requires a way to reach the customer", func(t *testing.T) {
		_, err := NewLead(Contact{CustomerName: "Anita"}, SourceWebsite, decimal.Zero, testNow)

		assert.True(t, errors.Is(err, shared.ErrInvalidArgument))
	})

	t.Run("rejects negative value", func(t *testing.T) {
		_, err := NewLead(Contact{CustomerName: "Anita", Phone: "1"}, SourceWebsite, decimal.NewFromInt(-1), testNow)

		assert.True(t, errors.Is(err, shared.ErrInvalidArgument))
	})
}

func TestStage_ValidateTransition(t *testing.T) {
	tests := []struct {
		from, to Stage
		wantCode string
	}{
		{StageProspecting, StageQualification, ""},
		{StageQualification, StageProposal, ""},
		{StageProposal, StageNegotiation, ""},
		{StageNegotiation, StageClosing, ""},
		{StageClosing, StageWon, ""},
		{StageProspecting, StageLost, ""},
		{StageNegotiation, StageLost, ""},
		{StageProspecting, StageNegotiation, shared.CodeInvalidStateTransition},
		{StageProposal, StageQualification, shared.CodeInvalidStateTransition},
		{StageNegotiation, StageWon, shared.CodeInvalidStateTransition},
		{StageProspecting, StageProspecting, shared.CodeInvalidStateTransition},
		{StageWon, StageLost, shared.CodeTerminalState},
		{StageWon, StageClosing, shared.CodeTerminalState},
		{StageLost, StageProspecting, shared.CodeTerminalState},
		{StageProspecting, "dormant", shared.CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			err := tt.from.ValidateTransition(tt.to)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.wantCode, shared.CodeOf(err))
		})
	}
}

func TestLead_TransitionTo(t *testing.T) {
	t.Run("walks the winning path", func(t *testing.T) {
		l := createTestLead(t)
		later := testNow.Add(time.Hour)

		for _, s := range []Stage{StageQualification, StageProposal, StageNegotiation, StageClosing, StageWon} {
			require.NoError(t, l.TransitionTo(s, later))
		}

		assert.Equal(t, StageWon, l.Stage)
		require.NotNil(t, l.ClosedAt)
		assert.Equal(t, later, *l.ClosedAt)
		assert.Len(t, l.GetDomainEvents(), 5)
		assert.True(t, l.GetDomainEvents()[4].(*LeadStageChangedEvent).IsWon())
	})

	t.Run("prospecting cannot jump to negotiation", func(t *testing.T) {
		l := createTestLead(t)

		err := l.TransitionTo(StageNegotiation, testNow)

		assert.True(t, errors.Is(err, shared.ErrInvalidStateTransition))
		assert.Equal(t, StageProspecting, l.Stage)
	})

	t.Run("won is terminal", func(t *testing.T) {
		l := leadAt(t, StageWon)

		for _, s := range AllStages {
			assert.True(t, errors.Is(l.TransitionTo(s, testNow), shared.ErrTerminalState), s)
		}
	})
}

func TestLead_TerminalMutations(t *testing.T) {
	l := leadAt(t, StageLost)
	agent := uuid.New()

	errs := []error{
		l.UpdateContact(Contact{CustomerName: "X", Phone: "1"}, testNow),
		l.UpdateDeal(decimal.NewFromInt(1), 50, nil, testNow),
		l.Assign(&agent, nil, testNow),
		l.SetPriority(PriorityUrgent, testNow),
		l.AppendNote("call back", testNow),
		l.RecordContact(testNow, testNow),
		l.NoteFollowUpScheduled(testNow, testNow),
		l.Archive("dup", testNow),
	}
	for i, err := range errs {
		assert.True(t, errors.Is(err, shared.ErrTerminalState), "mutation %d", i)
	}
	assert.Equal(t, 1, l.Version)
}

func TestLead_Mutations(t *testing.T) {
	l := createTestLead(t)
	agent := uuid.New()
	property := uuid.New()

	require.NoError(t, l.UpdateDeal(decimal.NewFromInt(8_000_000), 40, &property, testNow))
	require.NoError(t, l.Assign(&agent, nil, testNow))
	require.NoError(t, l.SetPriority(PriorityHigh, testNow))
	require.NoError(t, l.AppendNote("site visit done", testNow))
	require.NoError(t, l.AppendNote("wants corner unit", testNow))

	assert.Equal(t, 40, l.Probability)
	assert.Equal(t, property, *l.PropertyID)
	assert.Equal(t, agent, *l.AgentID)
	assert.Nil(t, l.TeamLeadID)
	assert.Equal(t, PriorityHigh, l.Priority)
	assert.Equal(t, "site visit done\nwants corner unit", l.Notes)

	assert.True(t, errors.Is(l.UpdateDeal(decimal.Zero, 101, nil, testNow), shared.ErrInvalidArgument))
	assert.True(t, errors.Is(l.SetPriority("whenever", testNow), shared.ErrInvalidArgument))
	assert.True(t, errors.Is(l.AppendNote("  ", testNow), shared.ErrInvalidArgument))
}

func TestLead_RecordContact(t *testing.T) {
	l := createTestLead(t)
	earlier := testNow.Add(-2 * time.Hour)

	require.NoError(t, l.RecordContact(testNow, testNow))
	require.NoError(t, l.RecordContact(earlier, testNow))

	assert.Equal(t, testNow, *l.LastContactAt)
	assert.True(t, errors.Is(l.RecordContact(testNow.Add(time.Minute), testNow), shared.ErrInvalidArgument))
}

func TestLead_NoteFollowUpScheduled(t *testing.T) {
	l := createTestLead(t)
	first := testNow.Add(48 * time.Hour)
	sooner := testNow.Add(24 * time.Hour)

	require.NoError(t, l.NoteFollowUpScheduled(first, testNow))
	require.NoError(t, l.NoteFollowUpScheduled(testNow.Add(72*time.Hour), testNow))
	assert.Equal(t, first, *l.NextFollowUpAt)

	require.NoError(t, l.NoteFollowUpScheduled(sooner, testNow))
	assert.Equal(t, sooner, *l.NextFollowUpAt)
}

func TestLead_Archive(t *testing.T) {
	l := createTestLead(t)

	require.NoError(t, l.Archive("bought elsewhere", testNow))

	assert.Equal(t, StageLost, l.Stage)
	assert.Contains(t, l.Notes, "archived: bought elsewhere")
	assert.NotNil(t, l.ClosedAt)
}
