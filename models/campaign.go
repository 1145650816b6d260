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

// CampaignStatus represents the lifecycle status of a campaign
type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusPaused    CampaignStatus = "paused"
	CampaignStatusCompleted CampaignStatus = "completed"
)

// String returns the string representation of the status
func (s CampaignStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignStatusDraft, CampaignStatusActive,
		CampaignStatusPaused, CampaignStatusCompleted:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for CampaignStatus
func (s *CampaignStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = CampaignStatus(v)
	case []byte:
		*s = CampaignStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into CampaignStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for CampaignStatus
func (s CampaignStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid CampaignStatus: %s", s)
	}
	return string(s), nil
}

// TargetDemographics represents the targeting criteria of a campaign.
// A nil field means the dimension is not targeted; the scorer treats it
// as neutral instead of penalizing candidates.
type TargetDemographics struct {
	AgeMin    *int     `json:"age_min,omitempty"`
	AgeMax    *int     `json:"age_max,omitempty"`
	Gender    *string  `json:"gender,omitempty"` // "male", "female", "all"
	Countries []string `json:"countries,omitempty"`
	Interests []string `json:"interests,omitempty"`

	Extra map[string]any `json:"extra,omitempty"`
}

// Value implements the driver.Valuer interface for TargetDemographics
func (t TargetDemographics) Value() (driver.Value, error) {
	return json.Marshal(t)
}

// Scan implements the sql.Scanner interface for TargetDemographics
func (t *TargetDemographics) Scan(value any) error {
	if value == nil {
		*t = TargetDemographics{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into TargetDemographics", value)
	}

	return json.Unmarshal(bytes, t)
}

// AgeRangeValid checks age_max >= age_min when both are present
func (t *TargetDemographics) AgeRangeValid() bool {
	if t.AgeMin == nil || t.AgeMax == nil {
		return true
	}
	return *t.AgeMax >= *t.AgeMin
}

// Campaign represents an advertising campaign owned by a brand
type Campaign struct {
	ID             uint               `gorm:"primaryKey" json:"id"`
	UUID           uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:uk_campaigns_uuid" json:"uuid"`
	BrandProfileID uint               `gorm:"not null;index:idx_campaigns_brand_profile_id" json:"brand_profile_id"`
	Name           string             `gorm:"size:500;not null" json:"name"`
	Status         CampaignStatus     `gorm:"size:20;not null;default:'draft';index:idx_campaigns_status" json:"status"`
	Targeting      TargetDemographics `gorm:"type:jsonb;not null;default:'{}'" json:"targeting"`

	// Budget constraints in USD cents would invite rounding surprises in the
	// CPM math, so budgets are dollars as float like the source data.
	MinBudgetPerEpisode *float64 `gorm:"check:min_budget_per_episode >= 0" json:"min_budget_per_episode,omitempty"`
	BudgetPerEpisode    *float64 `json:"budget_per_episode,omitempty"`
	TotalBudget         *float64 `gorm:"check:total_budget >= 0" json:"total_budget,omitempty"`

	// Performance goals
	TargetCPM         *float64 `json:"target_cpm,omitempty"`
	TargetImpressions *int64   `json:"target_impressions,omitempty"`

	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	BrandEmbedding    pq.Float64Array `gorm:"type:float8[]" json:"brand_embedding,omitempty"`
	AudienceEmbedding pq.Float64Array `gorm:"type:float8[]" json:"audience_embedding,omitempty"`
	ProductEmbedding  pq.Float64Array `gorm:"type:float8[]" json:"product_embedding,omitempty"`
	ContentEmbedding  pq.Float64Array `gorm:"type:float8[]" json:"content_embedding,omitempty"`

	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_campaigns_created_at" json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`

	// Relations
	BrandProfile *BrandProfile `gorm:"foreignKey:BrandProfileID;references:ID" json:"brand_profile,omitempty"`
	Matches      []Match       `gorm:"foreignKey:CampaignID" json:"matches,omitempty"`
}

// TableName returns the table name for the model
func (Campaign) TableName() string {
	return "campaigns"
}

// BeforeCreate is called before creating a new record
func (c *Campaign) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	if c.Status == "" {
		c.Status = CampaignStatusDraft
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = utils.UTCNow()
	}
	return c.validate()
}

// BeforeUpdate is called before updating a record
func (c *Campaign) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	c.UpdatedAt = &now
	return c.validate()
}

func (c *Campaign) validate() error {
	if !c.Targeting.AgeRangeValid() {
		return fmt.Errorf("campaign %s: age_max must be >= age_min", c.Name)
	}
	if c.StartDate != nil && c.EndDate != nil && c.EndDate.Before(*c.StartDate) {
		return fmt.Errorf("campaign %s: end_date must be >= start_date", c.Name)
	}
	if c.MinBudgetPerEpisode != nil && c.BudgetPerEpisode != nil && *c.BudgetPerEpisode < *c.MinBudgetPerEpisode {
		return fmt.Errorf("campaign %s: budget_per_episode must be >= min_budget_per_episode", c.Name)
	}
	return nil
}

// IsActive reports whether the campaign is eligible for matching
func (c *Campaign) IsActive() bool {
	return c.Status == CampaignStatusActive
}

// CampaignFilter represents filter criteria for campaign queries
type CampaignFilter struct {
	ID             *uint           `json:"id,omitempty"`
	UUID           *uuid.UUID      `json:"uuid,omitempty"`
	BrandProfileID *uint           `json:"brand_profile_id,omitempty"`
	Status         *CampaignStatus `json:"status,omitempty"`
	Name           *string         `json:"name,omitempty"`
	StartsAfter    *time.Time      `json:"starts_after,omitempty"`
	EndsBefore     *time.Time      `json:"ends_before,omitempty"`
	CreatedAfter   *time.Time      `json:"created_after,omitempty"`
	CreatedBefore  *time.Time      `json:"created_before,omitempty"`
}
