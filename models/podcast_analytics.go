package models

import (
	"time"

	"github.com/podmatch/podmatch/utils"
	"gorm.io/gorm"
)

// PodcastAnalytics holds podcast-level advertising analytics produced by the
// analysis pipeline. One row per podcast, refreshed on re-analysis.
type PodcastAnalytics struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	PodcastID uint `gorm:"not null;uniqueIndex:uk_podcast_analytics_podcast_id" json:"podcast_id"`

	EpisodesAnalyzed  int      `gorm:"not null;default:0;check:episodes_analyzed >= 0" json:"episodes_analyzed"`
	EpisodesWithAds   int      `gorm:"not null;default:0;check:episodes_with_ads >= 0" json:"episodes_with_ads"`
	TotalPlacements   int      `gorm:"not null;default:0" json:"total_placements"`
	UniqueSponsors    int      `gorm:"not null;default:0" json:"unique_sponsors"`
	RepeatSponsors    int      `gorm:"not null;default:0" json:"repeat_sponsors"`
	AvgAdsPerEpisode  *float64 `gorm:"check:avg_ads_per_episode >= 0" json:"avg_ads_per_episode,omitempty"`
	AvgSponsorLenSec  *float64 `json:"avg_sponsor_len_sec,omitempty"`
	AvgEpisodeViews   *int64   `json:"avg_episode_views,omitempty"`
	MinImpressions    *int64   `json:"min_impressions,omitempty"`
	MaxImpressions    *int64   `json:"max_impressions,omitempty"`
	EstimatedAdPrice  *float64 `gorm:"check:estimated_ad_price >= 0" json:"estimated_ad_price,omitempty"`
	MonetizationScore *float64 `gorm:"check:monetization_score >= 0 AND monetization_score <= 100" json:"monetization_score,omitempty"`

	AnalyzedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"analyzed_at"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`

	Podcast *Podcast `gorm:"foreignKey:PodcastID;references:ID;constraint:OnDelete:CASCADE" json:"podcast,omitempty"`
}

// TableName returns the table name for the model
func (PodcastAnalytics) TableName() string {
	return "podcast_analytics"
}

// BeforeCreate is called before creating a new record
func (a *PodcastAnalytics) BeforeCreate(tx *gorm.DB) error {
	if a.AnalyzedAt.IsZero() {
		a.AnalyzedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (a *PodcastAnalytics) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	a.UpdatedAt = &now
	return nil
}

// AdLoadPercentage returns the share of analyzed episodes carrying ads,
// in [0,100]. Derived on read; the source schema stored this generated.
func (a *PodcastAnalytics) AdLoadPercentage() float64 {
	if a.EpisodesAnalyzed <= 0 {
		return 0
	}
	return float64(a.EpisodesWithAds) / float64(a.EpisodesAnalyzed) * 100
}

// RepeatSponsorRate returns the fraction of sponsors that came back for more
// than one placement, in [0,1]. Zero when no sponsors are known.
func (a *PodcastAnalytics) RepeatSponsorRate() float64 {
	if a.UniqueSponsors <= 0 {
		return 0
	}
	return float64(a.RepeatSponsors) / float64(a.UniqueSponsors)
}

// HasSignals reports whether the row carries any usable economics input
func (a *PodcastAnalytics) HasSignals() bool {
	return a.EstimatedAdPrice != nil || a.AvgEpisodeViews != nil ||
		a.MinImpressions != nil || a.MaxImpressions != nil ||
		a.MonetizationScore != nil
}

// PodcastAnalyticsFilter represents filter criteria for analytics queries
type PodcastAnalyticsFilter struct {
	ID                   *uint      `json:"id,omitempty"`
	PodcastID            *uint      `json:"podcast_id,omitempty"`
	MinMonetizationScore *float64   `json:"min_monetization_score,omitempty"`
	AnalyzedAfter        *time.Time `json:"analyzed_after,omitempty"`
	AnalyzedBefore       *time.Time `json:"analyzed_before,omitempty"`
}
