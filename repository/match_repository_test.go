package repository

import (
	"testing"
	"time"

	"github.com/podmatch/podmatch/models"
	testingutil "github.com/podmatch/podmatch/testing"
	"github.com/podmatch/podmatch/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupMatchTest provisions a test database with one brand, campaign, and
// podcast, skipping when no PostgreSQL server is reachable
func setupMatchTest(t *testing.T) (*testingutil.TestDB, *models.Campaign, *models.Podcast) {
	t.Helper()

	testDB, err := testingutil.SetupTestDB()
	if err != nil {
		t.Skipf("test database unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := testDB.TeardownTestDB(); err != nil {
			t.Logf("failed to cleanup test database: %v", err)
		}
	})

	fixtures := testingutil.NewTestFixtures(testDB)
	campaign, podcasts, err := fixtures.CreateMatchedSet(1)
	require.NoError(t, err)

	return testDB, campaign, podcasts[0]
}

func testMatch(campaign *models.Campaign, podcast *models.Podcast, score float64) *models.Match {
	return &models.Match{
		BrandProfileID:         campaign.BrandProfileID,
		PodcastID:              podcast.ID,
		CampaignID:             campaign.ID,
		OverallScore:           score,
		AudienceMatchScore:     score,
		ProductRelevanceScore:  score,
		ContentThemeScore:      score,
		BrandAlignmentScore:    score,
		GeographicScore:        score,
		AgeScore:               score,
		GenderScore:            score,
		InterestScore:          score,
		BudgetFitScore:         score,
		EngagementQualityScore: score,
		MatchConfidence:        score,
		Reasoning: models.MatchReasoning{
			Recommendation: "Worth exploring",
		},
	}
}

func TestMatchRepositoryUpsert(t *testing.T) {
	testDB, campaign, podcast := setupMatchTest(t)
	repo := NewMatchRepository(testDB.DB)
	ctx := testingutil.CreateTestContext()

	t.Run("InsertThenRescore", func(t *testing.T) {
		first := testMatch(campaign, podcast, 60)
		require.NoError(t, repo.Upsert(ctx, first))

		persisted, err := repo.ByTriple(ctx, campaign.BrandProfileID, podcast.ID, campaign.ID)
		require.NoError(t, err)
		require.NotNil(t, persisted)
		assert.Equal(t, 60.0, persisted.OverallScore)

		// Recomputation updates the scores but keeps identity and workflow state
		second := testMatch(campaign, podcast, 75)
		require.NoError(t, repo.Upsert(ctx, second))

		rescored, err := repo.ByTriple(ctx, campaign.BrandProfileID, podcast.ID, campaign.ID)
		require.NoError(t, err)
		require.NotNil(t, rescored)
		assert.Equal(t, persisted.ID, rescored.ID)
		assert.Equal(t, persisted.UUID, rescored.UUID)
		assert.Equal(t, 75.0, rescored.OverallScore)
		assert.Equal(t, models.MatchStatusSuggested, rescored.Status)
	})

	t.Run("RescorePreservesManualFields", func(t *testing.T) {
		persisted, err := repo.ByTriple(ctx, campaign.BrandProfileID, podcast.ID, campaign.ID)
		require.NoError(t, err)
		require.NotNil(t, persisted)

		require.NoError(t, repo.UpdateNotes(ctx, persisted.ID,
			utils.ToPtr("reached out via email"), utils.ToPtr("brand likes the host")))
		_, err = repo.TransitionStatus(ctx, persisted.ID, models.MatchStatusReviewed, utils.UTCNow())
		require.NoError(t, err)

		require.NoError(t, repo.Upsert(ctx, testMatch(campaign, podcast, 80)))

		rescored, err := repo.ByTriple(ctx, campaign.BrandProfileID, podcast.ID, campaign.ID)
		require.NoError(t, err)
		require.NotNil(t, rescored)
		assert.Equal(t, 80.0, rescored.OverallScore)
		assert.Equal(t, models.MatchStatusReviewed, rescored.Status)
		require.NotNil(t, rescored.InternalNotes)
		assert.Equal(t, "reached out via email", *rescored.InternalNotes)
		require.NotNil(t, rescored.BrandFeedback)
		assert.Equal(t, "brand likes the host", *rescored.BrandFeedback)
	})

	t.Run("RescoreAfterContactKeepsMatchDate", func(t *testing.T) {
		persisted, err := repo.ByTriple(ctx, campaign.BrandProfileID, podcast.ID, campaign.ID)
		require.NoError(t, err)
		require.NotNil(t, persisted)

		_, err = repo.TransitionStatus(ctx, persisted.ID, models.MatchStatusContacted, utils.UTCNow())
		require.NoError(t, err)

		// Rescoring a contacted match must not advance match_date past
		// the contact timestamp
		rescore := testMatch(campaign, podcast, 85)
		rescore.MatchDate = utils.UTCNow()
		require.NoError(t, repo.Upsert(ctx, rescore))

		after, err := repo.ByTriple(ctx, campaign.BrandProfileID, podcast.ID, campaign.ID)
		require.NoError(t, err)
		require.NotNil(t, after)
		assert.Equal(t, 85.0, after.OverallScore)
		assert.WithinDuration(t, persisted.MatchDate, after.MatchDate, time.Second)
		require.NotNil(t, after.ContactAttemptedAt)
	})
}

func TestMatchRepositoryTransitionStatus(t *testing.T) {
	testDB, campaign, podcast := setupMatchTest(t)
	repo := NewMatchRepository(testDB.DB)
	ctx := testingutil.CreateTestContext()

	match := testMatch(campaign, podcast, 70)
	require.NoError(t, repo.Upsert(ctx, match))
	persisted, err := repo.ByTriple(ctx, campaign.BrandProfileID, podcast.ID, campaign.ID)
	require.NoError(t, err)
	require.NotNil(t, persisted)

	t.Run("BackdatedTimestamp", func(t *testing.T) {
		at := persisted.MatchDate.Add(-time.Hour)
		_, err := repo.TransitionStatus(ctx, persisted.ID, models.MatchStatusContacted, at)
		assert.ErrorIs(t, err, ErrInvalidStatusTransition)

		current, err := repo.ByID(ctx, persisted.ID)
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusSuggested, current.Status)
		assert.Nil(t, current.ContactAttemptedAt)
	})

	t.Run("ForwardStampsTimestamps", func(t *testing.T) {
		contactedAt := utils.UTCNow()
		updated, err := repo.TransitionStatus(ctx, persisted.ID, models.MatchStatusContacted, contactedAt)
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusContacted, updated.Status)
		require.NotNil(t, updated.ContactAttemptedAt)
		assert.WithinDuration(t, contactedAt, *updated.ContactAttemptedAt, time.Second)

		updated, err = repo.TransitionStatus(ctx, persisted.ID, models.MatchStatusNegotiating, utils.UTCNow())
		require.NoError(t, err)
		require.NotNil(t, updated.ResponseReceivedAt)

		// The contact timestamp is stamped once; later transitions leave it alone
		assert.WithinDuration(t, contactedAt, *updated.ContactAttemptedAt, time.Second)
	})

	t.Run("BackwardRejected", func(t *testing.T) {
		_, err := repo.TransitionStatus(ctx, persisted.ID, models.MatchStatusSuggested, utils.UTCNow())
		assert.ErrorIs(t, err, ErrInvalidStatusTransition)
	})

	t.Run("RejectIsTerminal", func(t *testing.T) {
		updated, err := repo.TransitionStatus(ctx, persisted.ID, models.MatchStatusRejected, utils.UTCNow())
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusRejected, updated.Status)

		_, err = repo.TransitionStatus(ctx, persisted.ID, models.MatchStatusBooked, utils.UTCNow())
		assert.ErrorIs(t, err, ErrInvalidStatusTransition)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := repo.TransitionStatus(ctx, 999999, models.MatchStatusReviewed, utils.UTCNow())
		assert.ErrorIs(t, err, ErrMatchNotFound)
	})
}

func TestMatchRepositoryRecordOutcome(t *testing.T) {
	testDB, campaign, podcast := setupMatchTest(t)
	repo := NewMatchRepository(testDB.DB)
	ctx := testingutil.CreateTestContext()

	match := testMatch(campaign, podcast, 70)
	match.EstimatedCostPerEpisode = utils.ToPtr(1000.0)
	match.PotentialImpressions = utils.ToPtr(int64(50000))
	require.NoError(t, repo.Upsert(ctx, match))
	persisted, err := repo.ByTriple(ctx, campaign.BrandProfileID, podcast.ID, campaign.ID)
	require.NoError(t, err)
	require.NotNil(t, persisted)

	t.Run("PartialUpdate", func(t *testing.T) {
		err := repo.RecordOutcome(ctx, persisted.ID, utils.ToPtr(1200.0), nil, nil)
		require.NoError(t, err)

		updated, err := repo.ByID(ctx, persisted.ID)
		require.NoError(t, err)
		require.NotNil(t, updated.ActualCost)
		assert.Equal(t, 1200.0, *updated.ActualCost)
		assert.Nil(t, updated.ActualImpressions)
	})

	t.Run("SecondFieldLeavesFirstAlone", func(t *testing.T) {
		err := repo.RecordOutcome(ctx, persisted.ID, nil, utils.ToPtr(int64(48000)), nil)
		require.NoError(t, err)

		updated, err := repo.ByID(ctx, persisted.ID)
		require.NoError(t, err)
		require.NotNil(t, updated.ActualCost)
		assert.Equal(t, 1200.0, *updated.ActualCost)
		require.NotNil(t, updated.ActualImpressions)
		assert.Equal(t, int64(48000), *updated.ActualImpressions)
	})

	t.Run("NotFound", func(t *testing.T) {
		err := repo.RecordOutcome(ctx, 999999, utils.ToPtr(1.0), nil, nil)
		assert.ErrorIs(t, err, ErrMatchNotFound)
	})
}

func TestMatchRepositoryByCampaignIDOrdering(t *testing.T) {
	testDB, err := testingutil.SetupTestDB()
	if err != nil {
		t.Skipf("test database unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := testDB.TeardownTestDB(); err != nil {
			t.Logf("failed to cleanup test database: %v", err)
		}
	})

	fixtures := testingutil.NewTestFixtures(testDB)
	campaign, podcasts, err := fixtures.CreateMatchedSet(3)
	require.NoError(t, err)

	repo := NewMatchRepository(testDB.DB)
	ctx := testingutil.CreateTestContext()

	scores := []float64{55, 90, 90}
	for i, podcast := range podcasts {
		require.NoError(t, repo.Upsert(ctx, testMatch(campaign, podcast, scores[i])))
	}

	matches, err := repo.ByCampaignID(ctx, campaign.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, matches, 3)

	// Score descending, podcast ID ascending on ties
	assert.Equal(t, 90.0, matches[0].OverallScore)
	assert.Equal(t, 90.0, matches[1].OverallScore)
	assert.Less(t, matches[0].PodcastID, matches[1].PodcastID)
	assert.Equal(t, 55.0, matches[2].OverallScore)
}
