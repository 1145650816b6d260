package models

import (
	"testing"
	"time"

	"github.com/podmatch/podmatch/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    MatchStatus
		to      MatchStatus
		allowed bool
	}{
		{"forward one step", MatchStatusSuggested, MatchStatusReviewed, true},
		{"forward multiple steps", MatchStatusSuggested, MatchStatusBooked, true},
		{"reviewed to contacted", MatchStatusReviewed, MatchStatusContacted, true},
		{"backward jump", MatchStatusContacted, MatchStatusReviewed, false},
		{"same status", MatchStatusNegotiating, MatchStatusNegotiating, false},
		{"rejected from suggested", MatchStatusSuggested, MatchStatusRejected, true},
		{"rejected from negotiating", MatchStatusNegotiating, MatchStatusRejected, true},
		{"rejected from booked", MatchStatusBooked, MatchStatusRejected, true},
		{"nothing out of rejected", MatchStatusRejected, MatchStatusReviewed, false},
		{"no re-rejection", MatchStatusRejected, MatchStatusRejected, false},
		{"nothing out of completed", MatchStatusCompleted, MatchStatusBooked, false},
		{"completed cannot be rejected", MatchStatusCompleted, MatchStatusRejected, false},
		{"unknown target", MatchStatusSuggested, MatchStatus("bogus"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestMatchStatusRank(t *testing.T) {
	ordered := []MatchStatus{
		MatchStatusSuggested, MatchStatusReviewed, MatchStatusContacted,
		MatchStatusNegotiating, MatchStatusAccepted, MatchStatusBooked,
		MatchStatusCompleted,
	}
	for i, status := range ordered {
		rank, ok := status.Rank()
		require.True(t, ok, status)
		assert.Equal(t, i, rank)
	}

	_, ok := MatchStatusRejected.Rank()
	assert.False(t, ok)
}

func TestMatchStatusTerminal(t *testing.T) {
	assert.True(t, MatchStatusRejected.IsTerminal())
	assert.True(t, MatchStatusCompleted.IsTerminal())
	assert.False(t, MatchStatusSuggested.IsTerminal())
	assert.False(t, MatchStatusBooked.IsTerminal())
}

func TestMatchTimestampOrdering(t *testing.T) {
	base := utils.UTCNow()
	later := base.Add(time.Hour)
	earlier := base.Add(-time.Hour)

	t.Run("valid ordering", func(t *testing.T) {
		m := &Match{
			MatchDate:          base,
			ContactAttemptedAt: &base,
			ResponseReceivedAt: &later,
			DealClosedAt:       &later,
		}
		assert.NoError(t, m.validateTimestamps())
	})

	t.Run("contact before match date", func(t *testing.T) {
		m := &Match{MatchDate: base, ContactAttemptedAt: &earlier}
		assert.Error(t, m.validateTimestamps())
	})

	t.Run("response without contact", func(t *testing.T) {
		m := &Match{MatchDate: base, ResponseReceivedAt: &later}
		assert.Error(t, m.validateTimestamps())
	})

	t.Run("response before contact", func(t *testing.T) {
		m := &Match{MatchDate: base, ContactAttemptedAt: &later, ResponseReceivedAt: &base}
		assert.Error(t, m.validateTimestamps())
	})

	t.Run("deal closed before contact", func(t *testing.T) {
		m := &Match{MatchDate: base, ContactAttemptedAt: &later, DealClosedAt: &base}
		assert.Error(t, m.validateTimestamps())
	})

	t.Run("advancing match date past contact", func(t *testing.T) {
		contacted := base.Add(time.Minute)
		m := &Match{MatchDate: base, ContactAttemptedAt: &contacted}
		require.NoError(t, m.validateTimestamps())

		// Rescoring must not move match_date: doing so on a contacted
		// match breaks the ordering
		m.MatchDate = base.Add(time.Hour)
		assert.Error(t, m.validateTimestamps())
	})
}

func TestMatchAccuracyAccessors(t *testing.T) {
	m := &Match{
		EstimatedCostPerEpisode: utils.ToPtr(1000.0),
		PotentialImpressions:    utils.ToPtr(int64(50000)),
		ActualCost:              utils.ToPtr(1200.0),
		ActualImpressions:       utils.ToPtr(int64(40000)),
	}

	cost := m.CostAccuracy()
	require.NotNil(t, cost)
	assert.InDelta(t, 1.2, *cost, 1e-9)

	impressions := m.ImpressionAccuracy()
	require.NotNil(t, impressions)
	assert.InDelta(t, 0.8, *impressions, 1e-9)

	empty := &Match{}
	assert.Nil(t, empty.CostAccuracy())
	assert.Nil(t, empty.ImpressionAccuracy())
}

func TestAudienceDemographicsGenderSum(t *testing.T) {
	valid := AudienceDemographics{
		MalePercentage:   utils.ToPtr(60.0),
		FemalePercentage: utils.ToPtr(40.0),
	}
	assert.True(t, valid.GenderSumValid())

	invalid := AudienceDemographics{
		MalePercentage:   utils.ToPtr(70.0),
		FemalePercentage: utils.ToPtr(40.0),
	}
	assert.False(t, invalid.GenderSumValid())

	sparse := AudienceDemographics{MalePercentage: utils.ToPtr(55.0)}
	assert.True(t, sparse.GenderSumValid())
}

func TestTargetDemographicsAgeRange(t *testing.T) {
	valid := TargetDemographics{AgeMin: utils.ToPtr(25), AgeMax: utils.ToPtr(55)}
	assert.True(t, valid.AgeRangeValid())

	inverted := TargetDemographics{AgeMin: utils.ToPtr(55), AgeMax: utils.ToPtr(25)}
	assert.False(t, inverted.AgeRangeValid())

	open := TargetDemographics{AgeMin: utils.ToPtr(25)}
	assert.True(t, open.AgeRangeValid())
}
