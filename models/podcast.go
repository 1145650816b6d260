// Package models contains the database models for the matching engine
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/podmatch/podmatch/utils"
	"gorm.io/gorm"
)

// AudienceDemographics represents the audience breakdown of a podcast.
// Age buckets map bucket labels ("25-34") to percentage of listeners.
// Country shares map ISO country codes to percentage of listeners.
type AudienceDemographics struct {
	AgeBreakdown     map[string]float64 `json:"age_breakdown,omitempty"`
	DominantAgeRange *string            `json:"dominant_age_range,omitempty"`
	MalePercentage   *float64           `json:"male_percentage,omitempty"`
	FemalePercentage *float64           `json:"female_percentage,omitempty"`
	CountryShares    map[string]float64 `json:"country_shares,omitempty"`
	TopInterests     []string           `json:"top_interests,omitempty"`

	// Extension map for signals not yet modeled explicitly
	Extra map[string]any `json:"extra,omitempty"`
}

// Value implements the driver.Valuer interface for AudienceDemographics
func (d AudienceDemographics) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan implements the sql.Scanner interface for AudienceDemographics
func (d *AudienceDemographics) Scan(value any) error {
	if value == nil {
		*d = AudienceDemographics{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into AudienceDemographics", value)
	}

	return json.Unmarshal(bytes, d)
}

// GenderSumValid checks that gender percentages do not exceed 100
func (d *AudienceDemographics) GenderSumValid() bool {
	var sum float64
	if d.MalePercentage != nil {
		sum += *d.MalePercentage
	}
	if d.FemalePercentage != nil {
		sum += *d.FemalePercentage
	}
	return sum <= 100.0
}

// Podcast represents a podcast in the database.
// Embeddings are fixed-length FLOAT8[] vectors produced by an external
// embedding service; the engine never generates them.
type Podcast struct {
	ID               uint                 `gorm:"primaryKey" json:"id"`
	UUID             uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex:uk_podcasts_uuid" json:"uuid"`
	Name             string               `gorm:"size:500;not null" json:"name"`
	Description      *string              `gorm:"type:text" json:"description,omitempty"`
	Categories       pq.StringArray       `gorm:"type:text[];index:idx_podcasts_categories,using:gin" json:"categories"`
	Language         string               `gorm:"size:10;not null;default:'en';index:idx_podcasts_language" json:"language"`
	PrimaryCountries pq.StringArray       `gorm:"type:text[]" json:"primary_countries"`
	AudienceSize     *int64               `gorm:"check:audience_size >= 0" json:"audience_size,omitempty"`
	EngagementRate   *float64             `gorm:"check:engagement_rate >= 0" json:"engagement_rate,omitempty"`
	Demographics     AudienceDemographics `gorm:"type:jsonb;not null;default:'{}'" json:"demographics"`

	ContentEmbedding  pq.Float64Array `gorm:"type:float8[]" json:"content_embedding,omitempty"`
	AudienceEmbedding pq.Float64Array `gorm:"type:float8[]" json:"audience_embedding,omitempty"`

	RSSFeed    *string `gorm:"size:1000" json:"rss_feed,omitempty"`
	SpotifyID  *string `gorm:"size:100" json:"spotify_id,omitempty"`
	YouTubeID  *string `gorm:"size:100" json:"youtube_id,omitempty"`
	WebsiteURL *string `gorm:"size:1000" json:"website_url,omitempty"`

	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_podcasts_created_at" json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`

	// Relations
	Analytics   *PodcastAnalytics `gorm:"foreignKey:PodcastID" json:"analytics,omitempty"`
	SocialStats []SocialStats     `gorm:"foreignKey:PodcastID" json:"social_stats,omitempty"`
}

// TableName returns the table name for the model
func (Podcast) TableName() string {
	return "podcasts"
}

// BeforeCreate is called before creating a new record
func (p *Podcast) BeforeCreate(tx *gorm.DB) error {
	if p.UUID == uuid.Nil {
		p.UUID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = utils.UTCNow()
	}
	if !p.Demographics.GenderSumValid() {
		return fmt.Errorf("podcast %s: gender percentages exceed 100", p.Name)
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (p *Podcast) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	p.UpdatedAt = &now
	if !p.Demographics.GenderSumValid() {
		return fmt.Errorf("podcast %s: gender percentages exceed 100", p.Name)
	}
	return nil
}

// HasContentEmbedding reports whether a usable content embedding is present
func (p *Podcast) HasContentEmbedding() bool {
	return len(p.ContentEmbedding) > 0
}

// HasAudienceEmbedding reports whether a usable audience embedding is present
func (p *Podcast) HasAudienceEmbedding() bool {
	return len(p.AudienceEmbedding) > 0
}

// PodcastFilter represents filter criteria for podcast queries
type PodcastFilter struct {
	ID               *uint      `json:"id,omitempty"`
	UUID             *uuid.UUID `json:"uuid,omitempty"`
	Name             *string    `json:"name,omitempty"`
	Category         *string    `json:"category,omitempty"`
	Language         *string    `json:"language,omitempty"`
	Country          *string    `json:"country,omitempty"`
	MinAudienceSize  *int64     `json:"min_audience_size,omitempty"`
	MaxAudienceSize  *int64     `json:"max_audience_size,omitempty"`
	HasEmbeddings    *bool      `json:"has_embeddings,omitempty"`
	CreatedAfter     *time.Time `json:"created_after,omitempty"`
	CreatedBefore    *time.Time `json:"created_before,omitempty"`
}
