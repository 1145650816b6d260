package businessflow

import (
	"context"
	"sync"
	"testing"

	"github.com/podmatch/podmatch/models"
	"github.com/podmatch/podmatch/repository"
	"github.com/podmatch/podmatch/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubMatchRepo records upserts in memory. Methods outside Upsert are
// inherited from the embedded nil interface and must not be reached.
type stubMatchRepo struct {
	repository.MatchRepository
	mu      sync.Mutex
	upserts []*models.Match
}

func (s *stubMatchRepo) Upsert(ctx context.Context, match *models.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts = append(s.upserts, match)
	return nil
}

func newTestScoringFlow(t *testing.T, matchRepo repository.MatchRepository) *ScoringFlowImpl {
	t.Helper()
	flow, err := NewScoringFlow(nil, nil, nil, matchRepo, nil, nil, testScoringConfig())
	require.NoError(t, err)
	return flow.(*ScoringFlowImpl)
}

func testCampaign() *models.Campaign {
	return &models.Campaign{
		ID:             10,
		BrandProfileID: 7,
		Status:         models.CampaignStatusActive,
		Targeting: models.TargetDemographics{
			Gender:    utils.ToPtr("all"),
			Countries: []string{"US"},
		},
		MinBudgetPerEpisode: utils.ToPtr(500.0),
		BudgetPerEpisode:    utils.ToPtr(2500.0),
		AudienceEmbedding:   []float64{1, 0, 0},
		ProductEmbedding:    []float64{0, 1, 0},
		ContentEmbedding:    []float64{0, 0, 1},
		BrandEmbedding:      []float64{1, 1, 0},
		BrandProfile:        &models.BrandProfile{ID: 7},
	}
}

func testPodcast(id uint) *models.Podcast {
	return &models.Podcast{
		ID:                id,
		Name:              "Test Show",
		Categories:        []string{"health&fitness"},
		PrimaryCountries:  []string{"US"},
		AudienceSize:      utils.ToPtr(int64(45000)),
		ContentEmbedding:  []float64{0, 0, 1},
		AudienceEmbedding: []float64{1, 0, 0},
	}
}

func TestNewScoringFlowRejectsBadWeights(t *testing.T) {
	cfg := testScoringConfig()
	cfg.Weights.AudienceMatch = 0.9 // sum now > 1

	_, err := NewScoringFlow(nil, nil, nil, nil, nil, nil, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidWeightConfig)
}

func TestScorePairDeterminism(t *testing.T) {
	flow := newTestScoringFlow(t, nil)
	campaign := testCampaign()
	podcast := testPodcast(1)

	first, err := flow.ScorePair(campaign, podcast)
	require.NoError(t, err)
	second, err := flow.ScorePair(campaign, podcast)
	require.NoError(t, err)

	assert.Equal(t, first.OverallScore, second.OverallScore)
	assert.Equal(t, first.MatchConfidence, second.MatchConfidence)
	assert.Equal(t, first.Reasoning.KeyMetrics, second.Reasoning.KeyMetrics)
}

func TestScorePairBounds(t *testing.T) {
	flow := newTestScoringFlow(t, nil)
	match, err := flow.ScorePair(testCampaign(), testPodcast(1))
	require.NoError(t, err)

	for name, score := range map[string]float64{
		"overall":            match.OverallScore,
		"audience_match":     match.AudienceMatchScore,
		"product_relevance":  match.ProductRelevanceScore,
		"content_theme":      match.ContentThemeScore,
		"brand_alignment":    match.BrandAlignmentScore,
		"geographic":         match.GeographicScore,
		"age":                match.AgeScore,
		"gender":             match.GenderScore,
		"interest":           match.InterestScore,
		"budget_fit":         match.BudgetFitScore,
		"engagement_quality": match.EngagementQualityScore,
		"confidence":         match.MatchConfidence,
	} {
		assert.GreaterOrEqual(t, score, 0.0, name)
		assert.LessOrEqual(t, score, 100.0, name)
	}

	assert.Equal(t, models.MatchStatusSuggested, match.Status)
	assert.Equal(t, uint(7), match.BrandProfileID)
	assert.Equal(t, uint(10), match.CampaignID)
	assert.False(t, match.MatchDate.IsZero())
}

func TestScorePairMissingAudienceEmbeddingStaysNeutral(t *testing.T) {
	flow := newTestScoringFlow(t, nil)

	campaign := testCampaign()
	campaign.Targeting = models.TargetDemographics{} // no demographic targeting either
	podcast := testPodcast(1)
	podcast.AudienceEmbedding = nil

	withAll, err := flow.ScorePair(testCampaign(), testPodcast(1))
	require.NoError(t, err)
	match, err := flow.ScorePair(campaign, podcast)
	require.NoError(t, err)

	// The axis falls back to neutral instead of failing the pair, and the
	// missing data shows up as reduced confidence
	assert.Equal(t, flow.cfg.NeutralScore, match.AudienceMatchScore)
	assert.Less(t, match.MatchConfidence, withAll.MatchConfidence)
}

func TestScorePairEconomicsFallback(t *testing.T) {
	flow := newTestScoringFlow(t, nil)

	campaign := testCampaign()
	podcast := testPodcast(1)
	podcast.AudienceSize = nil // no economics input at all

	match, err := flow.ScorePair(campaign, podcast)
	require.NoError(t, err)

	assert.Equal(t, flow.cfg.NeutralScore, match.BudgetFitScore)
	assert.Equal(t, flow.cfg.NeutralScore, match.EngagementQualityScore)
	assert.Nil(t, match.EstimatedCPM)
	assert.Nil(t, match.EstimatedCostPerEpisode)
}

func TestScorePairReasoning(t *testing.T) {
	flow := newTestScoringFlow(t, nil)
	match, err := flow.ScorePair(testCampaign(), testPodcast(1))
	require.NoError(t, err)

	assert.NotEmpty(t, match.Reasoning.Recommendation)
	assert.NotEmpty(t, match.Reasoning.KeyMetrics)
	assert.Contains(t, match.Reasoning.KeyMetrics, "content_theme")
	assert.Contains(t, match.Reasoning.KeyMetrics, "budget_fit")
	assert.LessOrEqual(t, len(match.Reasoning.TopStrengths), 3)
}

func TestScoreBatchPartialFailure(t *testing.T) {
	repo := &stubMatchRepo{}
	flow := newTestScoringFlow(t, repo)

	campaign := testCampaign()
	good := testPodcast(1)
	bad := testPodcast(2)
	bad.ContentEmbedding = []float64{1, 2} // wrong dimensionality
	alsoGood := testPodcast(3)

	result := flow.scoreBatch(context.Background(), campaign, []*models.Podcast{good, bad, alsoGood})

	assert.Equal(t, 3, result.Candidates)
	assert.Equal(t, []uint{1, 3}, result.Succeeded)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, uint(2), result.Failed[0].PodcastID)
	assert.Contains(t, result.Failed[0].Reason, "dimensions")

	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Len(t, repo.upserts, 2)
}

func TestScoreBatchCancellation(t *testing.T) {
	repo := &stubMatchRepo{}
	flow := newTestScoringFlow(t, repo)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	podcasts := []*models.Podcast{testPodcast(1), testPodcast(2), testPodcast(3)}
	result := flow.scoreBatch(ctx, testCampaign(), podcasts)

	// No new pairs are issued once the context is cancelled; unscored pairs
	// are neither succeeded nor failed, so the batch is safely resumable
	assert.Empty(t, result.Succeeded)
	assert.Empty(t, result.Failed)
}
