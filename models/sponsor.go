package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/podmatch/podmatch/utils"
	"gorm.io/gorm"
)

// Sponsor represents a brand known to have sponsored podcast episodes.
// Sponsor rows come from the ingestion pipeline; the engine only reads them.
type Sponsor struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UUID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_sponsors_uuid" json:"uuid"`
	Name      string    `gorm:"size:500;not null;uniqueIndex:uk_sponsors_name" json:"name"`
	Domain    *string   `gorm:"size:255" json:"domain,omitempty"`
	Industry  *string   `gorm:"size:255" json:"industry,omitempty"`
	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`

	EpisodeSponsors []EpisodeSponsor `gorm:"foreignKey:SponsorID" json:"episode_sponsors,omitempty"`
}

// TableName returns the table name for the model
func (Sponsor) TableName() string {
	return "sponsors"
}

// BeforeCreate is called before creating a new record
func (s *Sponsor) BeforeCreate(tx *gorm.DB) error {
	if s.UUID == uuid.Nil {
		s.UUID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = utils.UTCNow()
	}
	return nil
}

// EpisodeSponsor records a single sponsorship placement inside an episode.
// Offsets are seconds from the episode start.
type EpisodeSponsor struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	PodcastID      uint    `gorm:"not null;index:idx_episode_sponsors_podcast_id" json:"podcast_id"`
	SponsorID      uint    `gorm:"not null;index:idx_episode_sponsors_sponsor_id" json:"sponsor_id"`
	EpisodeGUID    string  `gorm:"size:500;not null" json:"episode_guid"`
	StartOffsetSec int     `gorm:"not null;check:start_offset_sec >= 0" json:"start_offset_sec"`
	EndOffsetSec   int     `gorm:"not null" json:"end_offset_sec"`
	EpisodeDurSec  *int    `json:"episode_dur_sec,omitempty"`
	AdFormat       *string `gorm:"size:50" json:"ad_format,omitempty"` // pre-roll, mid-roll, post-roll

	AiredAt   *time.Time `json:"aired_at,omitempty"`
	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`

	Podcast *Podcast `gorm:"foreignKey:PodcastID;references:ID;constraint:OnDelete:CASCADE" json:"podcast,omitempty"`
	Sponsor *Sponsor `gorm:"foreignKey:SponsorID;references:ID" json:"sponsor,omitempty"`
}

// TableName returns the table name for the model
func (EpisodeSponsor) TableName() string {
	return "episode_sponsors"
}

// BeforeCreate is called before creating a new record
func (e *EpisodeSponsor) BeforeCreate(tx *gorm.DB) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = utils.UTCNow()
	}
	return nil
}

// Duration returns the sponsorship slot length in seconds.
// Derived on read; the source schema stored this as a generated column.
func (e *EpisodeSponsor) Duration() int {
	d := e.EndOffsetSec - e.StartOffsetSec
	if d < 0 {
		return 0
	}
	return d
}

// AdPercentage returns the share of the episode occupied by this placement,
// in [0,100], or 0 when the episode duration is unknown.
func (e *EpisodeSponsor) AdPercentage() float64 {
	if e.EpisodeDurSec == nil || *e.EpisodeDurSec <= 0 {
		return 0
	}
	return float64(e.Duration()) / float64(*e.EpisodeDurSec) * 100
}

// EpisodeSponsorFilter represents filter criteria for episode sponsor queries
type EpisodeSponsorFilter struct {
	ID          *uint      `json:"id,omitempty"`
	PodcastID   *uint      `json:"podcast_id,omitempty"`
	SponsorID   *uint      `json:"sponsor_id,omitempty"`
	EpisodeGUID *string    `json:"episode_guid,omitempty"`
	AiredAfter  *time.Time `json:"aired_after,omitempty"`
	AiredBefore *time.Time `json:"aired_before,omitempty"`
}
