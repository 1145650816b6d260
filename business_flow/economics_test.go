package businessflow

import (
	"testing"
	"time"

	"github.com/podmatch/podmatch/config"
	"github.com/podmatch/podmatch/models"
	"github.com/podmatch/podmatch/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testScoringConfig() config.ScoringConfig {
	return config.ScoringConfig{
		Weights:             config.DefaultScoringWeights(),
		NeutralScore:        50,
		BudgetDecayRate:     0.5,
		TopK:                50,
		Concurrency:         4,
		ConcernThreshold:    40,
		DefaultCPM:          22.0,
		CategoryCPM:         map[string]float64{"health&fitness": 24.50, "business": 28.50},
		FrequencyAssumption: 1.2,
		UpsertTimeout:       5 * time.Second,
	}
}

func TestEstimateEconomicsBenchmarkPath(t *testing.T) {
	campaign := &models.Campaign{
		MinBudgetPerEpisode: utils.ToPtr(500.0),
		BudgetPerEpisode:    utils.ToPtr(2500.0),
	}
	podcast := &models.Podcast{
		Categories:   []string{"health&fitness"},
		AudienceSize: utils.ToPtr(int64(45000)),
	}

	est, err := EstimateEconomics(campaign, podcast, testScoringConfig())
	require.NoError(t, err)

	// No engagement signal, so the benchmark applies unadjusted
	assert.True(t, est.EngagementNeutral)
	assert.InDelta(t, 24.50, est.EstimatedCPM, 1e-9)
	assert.InDelta(t, 1102.50, est.EstimatedCostPerEpisode, 1e-9)
	assert.Equal(t, int64(45000), est.PotentialReach)
	assert.Equal(t, int64(54000), est.PotentialImpressions)

	// 1102.50 sits inside [500, 2500]
	assert.False(t, est.BudgetFitNeutral)
	assert.Equal(t, 100.0, est.BudgetFitScore)
}

func TestEstimateEconomicsInsufficientData(t *testing.T) {
	campaign := &models.Campaign{}
	podcast := &models.Podcast{Categories: []string{"comedy"}}

	_, err := EstimateEconomics(campaign, podcast, testScoringConfig())
	require.ErrorIs(t, err, ErrInsufficientData)
}

func TestEstimateEconomicsAnalyticsPriceOverride(t *testing.T) {
	campaign := &models.Campaign{}
	podcast := &models.Podcast{
		Categories:   []string{"business"},
		AudienceSize: utils.ToPtr(int64(20000)),
		Analytics: &models.PodcastAnalytics{
			EstimatedAdPrice: utils.ToPtr(800.0),
		},
	}

	est, err := EstimateEconomics(campaign, podcast, testScoringConfig())
	require.NoError(t, err)

	assert.InDelta(t, 800.0, est.EstimatedCostPerEpisode, 1e-9)
	assert.InDelta(t, 40.0, est.EstimatedCPM, 1e-9) // 800 / 20
}

func TestEstimateEconomicsUnknownCategoryUsesDefaultCPM(t *testing.T) {
	campaign := &models.Campaign{}
	podcast := &models.Podcast{
		Categories:   []string{"underwater_basket_weaving"},
		AudienceSize: utils.ToPtr(int64(10000)),
	}

	est, err := EstimateEconomics(campaign, podcast, testScoringConfig())
	require.NoError(t, err)
	assert.InDelta(t, 22.0, est.EstimatedCPM, 1e-9)
}

func TestBudgetFitScoreDecay(t *testing.T) {
	cfg := testScoringConfig()
	lo, hi := 1000.0, 2000.0

	within, neutral := budgetFitScore(1500, &lo, &hi, cfg)
	assert.False(t, neutral)
	assert.Equal(t, 100.0, within)

	atLower, _ := budgetFitScore(1000, &lo, &hi, cfg)
	assert.Equal(t, 100.0, atLower)
	atUpper, _ := budgetFitScore(2000, &lo, &hi, cfg)
	assert.Equal(t, 100.0, atUpper)

	// Monotonic decay above the range
	over1, _ := budgetFitScore(2500, &lo, &hi, cfg)
	over2, _ := budgetFitScore(4000, &lo, &hi, cfg)
	over3, _ := budgetFitScore(10000, &lo, &hi, cfg)
	assert.Greater(t, 100.0, over1)
	assert.Greater(t, over1, over2)
	assert.Greater(t, over2, over3)
	assert.GreaterOrEqual(t, over3, 0.0)

	// Monotonic decay below the range
	under1, _ := budgetFitScore(800, &lo, &hi, cfg)
	under2, _ := budgetFitScore(400, &lo, &hi, cfg)
	assert.Greater(t, 100.0, under1)
	assert.Greater(t, under1, under2)
	assert.GreaterOrEqual(t, under2, 0.0)

	// Symmetric: equal relative distance from the violated bound scores equal
	overSym, _ := budgetFitScore(hi*1.25, &lo, &hi, cfg)
	underSym, _ := budgetFitScore(lo*0.75, &lo, &hi, cfg)
	assert.InDelta(t, overSym, underSym, 1e-9)

	// The score halves at one decay-rate of relative distance
	half, _ := budgetFitScore(hi*(1+cfg.BudgetDecayRate), &lo, &hi, cfg)
	assert.InDelta(t, 50.0, half, 1e-9)
}

func TestBudgetFitScoreNeutralWithoutBudget(t *testing.T) {
	cfg := testScoringConfig()
	score, neutral := budgetFitScore(1500, nil, nil, cfg)
	assert.True(t, neutral)
	assert.Equal(t, cfg.NeutralScore, score)
}

func TestEngagementQualityScore(t *testing.T) {
	t.Run("no signals is neutral", func(t *testing.T) {
		score, neutral := engagementQualityScore(&models.Podcast{}, 50)
		assert.True(t, neutral)
		assert.Equal(t, 50.0, score)
	})

	t.Run("engagement rate maps against ceiling", func(t *testing.T) {
		podcast := &models.Podcast{EngagementRate: utils.ToPtr(0.05)}
		score, neutral := engagementQualityScore(podcast, 50)
		assert.False(t, neutral)
		assert.InDelta(t, 50.0, score, 1e-9)
	})

	t.Run("signals average", func(t *testing.T) {
		podcast := &models.Podcast{
			EngagementRate: utils.ToPtr(0.10), // maps to 100
			Analytics: &models.PodcastAnalytics{
				MonetizationScore: utils.ToPtr(60.0),
			},
		}
		score, neutral := engagementQualityScore(podcast, 50)
		assert.False(t, neutral)
		assert.InDelta(t, 80.0, score, 1e-9)
	})

	t.Run("rate above ceiling clamps", func(t *testing.T) {
		podcast := &models.Podcast{EngagementRate: utils.ToPtr(0.5)}
		score, _ := engagementQualityScore(podcast, 50)
		assert.Equal(t, 100.0, score)
	})
}
