// Package testing provides test utilities and database setup for testing the matching engine
package testing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/podmatch/podmatch/models"
	"github.com/podmatch/podmatch/utils"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// testEmbedding returns a deterministic unit-ish vector seeded by its first
// component, so similarity between fixtures is reproducible across runs
func testEmbedding(dim int, seed float64) []float64 {
	v := make([]float64, dim)
	for i := range v {
		v[i] = seed / float64(i+1)
	}
	return v
}

// CreateTestPodcast creates a podcast with embeddings and demographics
func (tf *TestFixtures) CreateTestPodcast(name string, audienceSize int64) (*models.Podcast, error) {
	podcast := &models.Podcast{
		Name:             name,
		Categories:       []string{"health&fitness", "education"},
		Language:         "en",
		PrimaryCountries: []string{"US", "CA"},
		AudienceSize:     utils.ToPtr(audienceSize),
		EngagementRate:   utils.ToPtr(0.05),
		Demographics: models.AudienceDemographics{
			AgeBreakdown: map[string]float64{
				"18-24": 15,
				"25-34": 40,
				"35-44": 30,
				"45-54": 15,
			},
			MalePercentage:   utils.ToPtr(55.0),
			FemalePercentage: utils.ToPtr(45.0),
			CountryShares:    map[string]float64{"US": 70, "CA": 20, "UK": 10},
			TopInterests:     []string{"fitness", "nutrition", "running"},
		},
		ContentEmbedding:  testEmbedding(8, 1.0),
		AudienceEmbedding: testEmbedding(8, 0.5),
	}

	if err := tf.DB.DB.Create(podcast).Error; err != nil {
		return nil, fmt.Errorf("failed to create test podcast: %w", err)
	}

	return podcast, nil
}

// CreateTestBrandProfile creates a brand profile with a unique domain
func (tf *TestFixtures) CreateTestBrandProfile() (*models.BrandProfile, error) {
	suffix := rand.Intn(10000000)

	brand := &models.BrandProfile{
		Domain:          fmt.Sprintf("brand-%d.example.com", suffix),
		CompanyName:     "Test Brand Inc",
		Industry:        utils.ToPtr("health&fitness"),
		Products:        []string{"protein powder", "fitness tracker"},
		TargetAgeMin:    utils.ToPtr(25),
		TargetAgeMax:    utils.ToPtr(45),
		TargetGender:    utils.ToPtr("all"),
		TargetCountries: []string{"US", "CA"},
		TargetInterests: []string{"fitness", "nutrition"},

		BrandEmbedding:        testEmbedding(8, 0.9),
		AudienceEmbedding:     testEmbedding(8, 0.5),
		ProductEmbedding:      testEmbedding(8, 0.7),
		ContentThemeEmbedding: testEmbedding(8, 1.0),
	}

	if err := tf.DB.DB.Create(brand).Error; err != nil {
		return nil, fmt.Errorf("failed to create test brand profile: %w", err)
	}

	return brand, nil
}

// CreateTestCampaign creates an active campaign for the given brand
func (tf *TestFixtures) CreateTestCampaign(brandProfileID uint) (*models.Campaign, error) {
	campaign := &models.Campaign{
		BrandProfileID: brandProfileID,
		Name:           fmt.Sprintf("Test Campaign %d", rand.Intn(10000000)),
		Status:         models.CampaignStatusActive,
		Targeting: models.TargetDemographics{
			AgeMin:    utils.ToPtr(25),
			AgeMax:    utils.ToPtr(45),
			Gender:    utils.ToPtr("all"),
			Countries: []string{"US"},
			Interests: []string{"fitness", "nutrition"},
		},
		MinBudgetPerEpisode: utils.ToPtr(500.0),
		BudgetPerEpisode:    utils.ToPtr(2500.0),
		TotalBudget:         utils.ToPtr(25000.0),

		BrandEmbedding:    testEmbedding(8, 0.9),
		AudienceEmbedding: testEmbedding(8, 0.5),
		ProductEmbedding:  testEmbedding(8, 0.7),
		ContentEmbedding:  testEmbedding(8, 1.0),
	}

	if err := tf.DB.DB.Create(campaign).Error; err != nil {
		return nil, fmt.Errorf("failed to create test campaign: %w", err)
	}

	return campaign, nil
}

// CreateTestAnalytics creates a podcast analytics row
func (tf *TestFixtures) CreateTestAnalytics(podcastID uint) (*models.PodcastAnalytics, error) {
	analytics := &models.PodcastAnalytics{
		PodcastID:         podcastID,
		EpisodesAnalyzed:  50,
		EpisodesWithAds:   35,
		TotalPlacements:   80,
		UniqueSponsors:    12,
		RepeatSponsors:    5,
		AvgAdsPerEpisode:  utils.ToPtr(1.6),
		AvgEpisodeViews:   utils.ToPtr(int64(20000)),
		EstimatedAdPrice:  utils.ToPtr(800.0),
		MonetizationScore: utils.ToPtr(65.0),
	}

	if err := tf.DB.DB.Create(analytics).Error; err != nil {
		return nil, fmt.Errorf("failed to create test analytics: %w", err)
	}

	return analytics, nil
}

// CreateTestSocialStats creates one social stats row per platform
func (tf *TestFixtures) CreateTestSocialStats(podcastID uint) ([]*models.SocialStats, error) {
	rows := []*models.SocialStats{
		{
			PodcastID:      podcastID,
			Platform:       models.SocialPlatformYouTube,
			Followers:      120000,
			EngagementRate: utils.ToPtr(0.04),
		},
		{
			PodcastID:      podcastID,
			Platform:       models.SocialPlatformInstagram,
			Followers:      45000,
			EngagementRate: utils.ToPtr(0.06),
		},
	}

	for _, row := range rows {
		if err := tf.DB.DB.Create(row).Error; err != nil {
			return nil, fmt.Errorf("failed to create test social stats: %w", err)
		}
	}

	return rows, nil
}

// CreateTestSponsorHistory creates a sponsor with placements on the podcast
func (tf *TestFixtures) CreateTestSponsorHistory(podcastID uint, placements int) (*models.Sponsor, error) {
	sponsor := &models.Sponsor{
		Name:     fmt.Sprintf("Test Sponsor %d", rand.Intn(10000000)),
		Industry: utils.ToPtr("consumer goods"),
	}
	if err := tf.DB.DB.Create(sponsor).Error; err != nil {
		return nil, fmt.Errorf("failed to create test sponsor: %w", err)
	}

	for i := 0; i < placements; i++ {
		airedAt := utils.UTCNow().Add(-time.Duration(i*7*24) * time.Hour)
		placement := &models.EpisodeSponsor{
			PodcastID:      podcastID,
			SponsorID:      sponsor.ID,
			EpisodeGUID:    fmt.Sprintf("ep-%d-%d", podcastID, i),
			StartOffsetSec: 60,
			EndOffsetSec:   120,
			EpisodeDurSec:  utils.ToPtr(3600),
			AdFormat:       utils.ToPtr("mid-roll"),
			AiredAt:        &airedAt,
		}
		if err := tf.DB.DB.Create(placement).Error; err != nil {
			return nil, fmt.Errorf("failed to create test placement %d: %w", i, err)
		}
	}

	return sponsor, nil
}

// CreateMatchedSet creates a brand, an active campaign, and n podcasts with
// analytics, ready for a full scoring run
func (tf *TestFixtures) CreateMatchedSet(n int) (*models.Campaign, []*models.Podcast, error) {
	brand, err := tf.CreateTestBrandProfile()
	if err != nil {
		return nil, nil, err
	}

	campaign, err := tf.CreateTestCampaign(brand.ID)
	if err != nil {
		return nil, nil, err
	}

	var podcasts []*models.Podcast
	for i := 0; i < n; i++ {
		podcast, err := tf.CreateTestPodcast(fmt.Sprintf("Test Show %d", i+1), int64(10000*(i+1)))
		if err != nil {
			return nil, nil, err
		}
		if _, err := tf.CreateTestAnalytics(podcast.ID); err != nil {
			return nil, nil, err
		}
		podcasts = append(podcasts, podcast)
	}

	return campaign, podcasts, nil
}
