package businessflow

import (
	"testing"

	"github.com/podmatch/podmatch/models"
	"github.com/podmatch/podmatch/utils"
	"github.com/stretchr/testify/assert"
)

const testNeutral = 50.0

func TestGeographicScore(t *testing.T) {
	tests := []struct {
		name            string
		targetCountries []string
		primary         []string
		shares          map[string]float64
		expected        float64
		expectNeutral   bool
	}{
		{
			name:            "one of three targets present unweighted",
			targetCountries: []string{"US", "CA", "UK"},
			primary:         []string{"US"},
			expected:        100.0 / 3,
		},
		{
			name:            "all targets present",
			targetCountries: []string{"US", "CA"},
			primary:         []string{"US", "CA", "UK"},
			expected:        100,
		},
		{
			name:            "weighted by audience share",
			targetCountries: []string{"US", "CA", "UK"},
			primary:         []string{"US"},
			shares:          map[string]float64{"US": 70, "DE": 20, "FR": 10},
			expected:        70,
		},
		{
			name:          "no targeting is neutral",
			primary:       []string{"US"},
			expected:      testNeutral,
			expectNeutral: true,
		},
		{
			name:            "no audience data is neutral",
			targetCountries: []string{"US"},
			expected:        testNeutral,
			expectNeutral:   true,
		},
		{
			name:            "case insensitive country codes",
			targetCountries: []string{"us"},
			primary:         []string{"US"},
			expected:        100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			podcast := &models.Podcast{
				PrimaryCountries: tt.primary,
				Demographics:     models.AudienceDemographics{CountryShares: tt.shares},
			}
			score, neutral := geographicScore(tt.targetCountries, podcast, testNeutral)
			assert.Equal(t, tt.expectNeutral, neutral)
			assert.InDelta(t, tt.expected, score, 0.01)
		})
	}
}

func TestAgeScoreDistributionMass(t *testing.T) {
	// Campaign [25,55] against a full breakdown: buckets 25-34, 35-44 and
	// 45-54 fall entirely inside the target interval, so roughly 85% of the
	// audience mass is covered.
	demo := models.AudienceDemographics{
		AgeBreakdown: map[string]float64{
			"18-24": 15,
			"25-34": 45,
			"35-44": 25,
			"45-54": 12,
			"55+":   3,
		},
	}

	score, neutral := ageScore(utils.ToPtr(25), utils.ToPtr(55), demo, testNeutral)
	assert.False(t, neutral)
	assert.InDelta(t, 85, score, 5)
}

func TestAgeScoreDominantRangeFallback(t *testing.T) {
	demo := models.AudienceDemographics{
		DominantAgeRange: utils.ToPtr("25-34"),
	}

	// [25,34] inside [25,55]: intersection 9 years, union 30 years
	score, neutral := ageScore(utils.ToPtr(25), utils.ToPtr(55), demo, testNeutral)
	assert.False(t, neutral)
	assert.InDelta(t, 30, score, 1)

	// Perfect alignment
	score, neutral = ageScore(utils.ToPtr(25), utils.ToPtr(34), demo, testNeutral)
	assert.False(t, neutral)
	assert.InDelta(t, 100, score, 0.01)
}

func TestAgeScoreNeutralCases(t *testing.T) {
	score, neutral := ageScore(nil, nil, models.AudienceDemographics{}, testNeutral)
	assert.True(t, neutral)
	assert.Equal(t, testNeutral, score)

	score, neutral = ageScore(utils.ToPtr(25), utils.ToPtr(55), models.AudienceDemographics{}, testNeutral)
	assert.True(t, neutral)
	assert.Equal(t, testNeutral, score)
}

func TestGenderScore(t *testing.T) {
	demo := models.AudienceDemographics{
		MalePercentage:   utils.ToPtr(65.0),
		FemalePercentage: utils.ToPtr(35.0),
	}

	tests := []struct {
		name          string
		target        *string
		expected      float64
		expectNeutral bool
	}{
		{"target all scores 100", utils.ToPtr("all"), 100, false},
		{"target male matches male share", utils.ToPtr("male"), 65, false},
		{"target female matches female share", utils.ToPtr("female"), 35, false},
		{"no targeting is neutral", nil, testNeutral, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, neutral := genderScore(tt.target, demo, testNeutral)
			assert.Equal(t, tt.expectNeutral, neutral)
			assert.InDelta(t, tt.expected, score, 0.01)
		})
	}

	t.Run("missing breakdown is neutral", func(t *testing.T) {
		score, neutral := genderScore(utils.ToPtr("male"), models.AudienceDemographics{}, testNeutral)
		assert.True(t, neutral)
		assert.Equal(t, testNeutral, score)
	})
}

func TestInterestScore(t *testing.T) {
	tests := []struct {
		name          string
		target        []string
		podcast       []string
		expected      float64
		expectNeutral bool
	}{
		{
			name:     "half overlap",
			target:   []string{"fitness", "nutrition"},
			podcast:  []string{"fitness", "running"},
			expected: 100.0 / 3, // 1 shared of 3 distinct
		},
		{
			name:     "full overlap",
			target:   []string{"Fitness", "nutrition"},
			podcast:  []string{"fitness", "Nutrition"},
			expected: 100,
		},
		{
			name:     "no overlap",
			target:   []string{"crypto"},
			podcast:  []string{"gardening"},
			expected: 0,
		},
		{
			name:          "missing target interests is neutral",
			podcast:       []string{"fitness"},
			expected:      testNeutral,
			expectNeutral: true,
		},
		{
			name:          "missing podcast interests is neutral",
			target:        []string{"fitness"},
			expected:      testNeutral,
			expectNeutral: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, neutral := interestScore(tt.target, tt.podcast, testNeutral)
			assert.Equal(t, tt.expectNeutral, neutral)
			assert.InDelta(t, tt.expected, score, 0.01)
		})
	}
}

func TestScoreDemographicsNeutralCount(t *testing.T) {
	podcast := &models.Podcast{}

	scores := ScoreDemographics(models.TargetDemographics{}, podcast, testNeutral)
	assert.Equal(t, 4, scores.NeutralCount())

	targeting := models.TargetDemographics{
		Gender:    utils.ToPtr("all"),
		Countries: []string{"US"},
	}
	podcast.PrimaryCountries = []string{"US"}
	scores = ScoreDemographics(targeting, podcast, testNeutral)
	assert.Equal(t, 2, scores.NeutralCount())
	assert.Equal(t, 100.0, scores.Gender)
	assert.Equal(t, 100.0, scores.Geographic)
}

func TestParseAgeBucket(t *testing.T) {
	lo, hi, ok := parseAgeBucket("25-34")
	assert.True(t, ok)
	assert.Equal(t, 25.0, lo)
	assert.Equal(t, 34.0, hi)

	lo, hi, ok = parseAgeBucket("55+")
	assert.True(t, ok)
	assert.Equal(t, 55.0, lo)
	assert.Equal(t, 55.0+openBucketSpan, hi)

	for _, malformed := range []string{"", "abc", "34-25", "-"} {
		_, _, ok = parseAgeBucket(malformed)
		assert.False(t, ok, "bucket %q should not parse", malformed)
	}
}
