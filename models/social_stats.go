package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/podmatch/podmatch/utils"
	"gorm.io/gorm"
)

// SocialPlatform identifies the social network a stats row belongs to
type SocialPlatform string

const (
	SocialPlatformYouTube   SocialPlatform = "youtube"
	SocialPlatformInstagram SocialPlatform = "instagram"
	SocialPlatformTikTok    SocialPlatform = "tiktok"
	SocialPlatformX         SocialPlatform = "x"
)

// Valid checks if the platform is valid
func (p SocialPlatform) Valid() bool {
	switch p {
	case SocialPlatformYouTube, SocialPlatformInstagram,
		SocialPlatformTikTok, SocialPlatformX:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for SocialPlatform
func (p *SocialPlatform) Scan(value any) error {
	if value == nil {
		*p = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*p = SocialPlatform(v)
	case []byte:
		*p = SocialPlatform(string(v))
	default:
		return fmt.Errorf("cannot scan %T into SocialPlatform", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for SocialPlatform
func (p SocialPlatform) Value() (driver.Value, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid SocialPlatform: %s", p)
	}
	return string(p), nil
}

// PlatformData carries the per-platform fields that do not generalize across
// networks, plus an open extension map for anything the collectors add later.
type PlatformData struct {
	ChannelID       *string `json:"channel_id,omitempty"`
	Handle          *string `json:"handle,omitempty"`
	VerifiedAccount *bool   `json:"verified_account,omitempty"`
	AvgViews        *int64  `json:"avg_views,omitempty"`

	Extra map[string]any `json:"extra,omitempty"`
}

// Value implements the driver.Valuer interface for PlatformData
func (d PlatformData) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan implements the sql.Scanner interface for PlatformData
func (d *PlatformData) Scan(value any) error {
	if value == nil {
		*d = PlatformData{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into PlatformData", value)
	}

	return json.Unmarshal(bytes, d)
}

// SocialStats holds follower and engagement numbers for one podcast on one
// platform. Read-only input to the engagement-quality signal.
type SocialStats struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	PodcastID uint           `gorm:"not null;uniqueIndex:uk_social_stats_podcast_platform,priority:1" json:"podcast_id"`
	Platform  SocialPlatform `gorm:"size:20;not null;uniqueIndex:uk_social_stats_podcast_platform,priority:2" json:"platform"`

	Followers      int64        `gorm:"not null;default:0;check:followers >= 0" json:"followers"`
	EngagementRate *float64     `gorm:"check:engagement_rate >= 0" json:"engagement_rate,omitempty"`
	Data           PlatformData `gorm:"type:jsonb;not null;default:'{}'" json:"data"`

	CollectedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"collected_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`

	Podcast *Podcast `gorm:"foreignKey:PodcastID;references:ID;constraint:OnDelete:CASCADE" json:"podcast,omitempty"`
}

// TableName returns the table name for the model
func (SocialStats) TableName() string {
	return "social_stats"
}

// BeforeCreate is called before creating a new record
func (s *SocialStats) BeforeCreate(tx *gorm.DB) error {
	if s.CollectedAt.IsZero() {
		s.CollectedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (s *SocialStats) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	s.UpdatedAt = &now
	return nil
}

// SocialStatsFilter represents filter criteria for social stats queries
type SocialStatsFilter struct {
	ID           *uint           `json:"id,omitempty"`
	PodcastID    *uint           `json:"podcast_id,omitempty"`
	Platform     *SocialPlatform `json:"platform,omitempty"`
	MinFollowers *int64          `json:"min_followers,omitempty"`
}
