// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/podmatch/podmatch/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// PodcastEmbeddingRow is the slim projection used to build the vector index.
// Loading full podcast rows for every candidate would drag megabytes of
// demographics JSON through the index build.
type PodcastEmbeddingRow struct {
	PodcastID         uint
	ContentEmbedding  []float64
	AudienceEmbedding []float64
}

// PodcastRepository defines operations for podcasts
type PodcastRepository interface {
	Repository[models.Podcast, models.PodcastFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Podcast, error)
	ByIDs(ctx context.Context, ids []uint) ([]*models.Podcast, error)
	ListEmbeddings(ctx context.Context, filter models.PodcastFilter) ([]PodcastEmbeddingRow, error)
}

// BrandProfileRepository defines operations for brand profiles
type BrandProfileRepository interface {
	Repository[models.BrandProfile, models.BrandProfileFilter]
	ByUUID(ctx context.Context, uuid string) (*models.BrandProfile, error)
	ByDomain(ctx context.Context, domain string) (*models.BrandProfile, error)
}

// CampaignRepository defines operations for campaigns
type CampaignRepository interface {
	Repository[models.Campaign, models.CampaignFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Campaign, error)
	ListActive(ctx context.Context, limit, offset int) ([]*models.Campaign, error)
	UpdateStatus(ctx context.Context, id uint, status models.CampaignStatus) error
}

// MatchRepository defines operations for matches
type MatchRepository interface {
	Repository[models.Match, models.MatchFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Match, error)
	ByTriple(ctx context.Context, brandProfileID, podcastID, campaignID uint) (*models.Match, error)
	ByCampaignID(ctx context.Context, campaignID uint, limit, offset int) ([]*models.Match, error)
	Upsert(ctx context.Context, match *models.Match) error
	TransitionStatus(ctx context.Context, id uint, newStatus models.MatchStatus, at time.Time) (*models.Match, error)
	UpdateNotes(ctx context.Context, id uint, internalNotes, brandFeedback *string) error
	RecordOutcome(ctx context.Context, id uint, actualCost *float64, actualImpressions *int64, actualEngagementRate *float64) error
}

// PodcastAnalyticsRepository defines operations for podcast analytics
type PodcastAnalyticsRepository interface {
	Repository[models.PodcastAnalytics, models.PodcastAnalyticsFilter]
	ByPodcastID(ctx context.Context, podcastID uint) (*models.PodcastAnalytics, error)
}

// SocialStatsRepository defines operations for social stats
type SocialStatsRepository interface {
	Repository[models.SocialStats, models.SocialStatsFilter]
	ByPodcastID(ctx context.Context, podcastID uint) ([]*models.SocialStats, error)
}

// EpisodeSponsorRepository defines operations for episode sponsor history
type EpisodeSponsorRepository interface {
	Repository[models.EpisodeSponsor, models.EpisodeSponsorFilter]
	ByPodcastID(ctx context.Context, podcastID uint, limit, offset int) ([]*models.EpisodeSponsor, error)
	CountBySponsor(ctx context.Context, podcastID uint) (map[uint]int64, error)
}
