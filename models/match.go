package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/podmatch/podmatch/utils"
	"gorm.io/gorm"
)

// MatchStatus represents the workflow status of a match.
// The lifecycle is ordered; transitions only move forward, except "rejected"
// which is reachable from any non-terminal state.
type MatchStatus string

const (
	MatchStatusSuggested   MatchStatus = "suggested"
	MatchStatusReviewed    MatchStatus = "reviewed"
	MatchStatusContacted   MatchStatus = "contacted"
	MatchStatusNegotiating MatchStatus = "negotiating"
	MatchStatusAccepted    MatchStatus = "accepted"
	MatchStatusRejected    MatchStatus = "rejected"
	MatchStatusBooked      MatchStatus = "booked"
	MatchStatusCompleted   MatchStatus = "completed"
)

// String returns the string representation of the status
func (s MatchStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s MatchStatus) Valid() bool {
	switch s {
	case MatchStatusSuggested, MatchStatusReviewed, MatchStatusContacted,
		MatchStatusNegotiating, MatchStatusAccepted, MatchStatusRejected,
		MatchStatusBooked, MatchStatusCompleted:
		return true
	default:
		return false
	}
}

// Rank returns the position of the status in the workflow order.
// Rejected has no rank; it is a terminal branch, not a step.
func (s MatchStatus) Rank() (int, bool) {
	switch s {
	case MatchStatusSuggested:
		return 0, true
	case MatchStatusReviewed:
		return 1, true
	case MatchStatusContacted:
		return 2, true
	case MatchStatusNegotiating:
		return 3, true
	case MatchStatusAccepted:
		return 4, true
	case MatchStatusBooked:
		return 5, true
	case MatchStatusCompleted:
		return 6, true
	default:
		return 0, false
	}
}

// IsTerminal reports whether no further transition is allowed
func (s MatchStatus) IsTerminal() bool {
	return s == MatchStatusRejected || s == MatchStatusCompleted
}

// CanTransitionTo checks whether the workflow allows moving to newStatus
func (s MatchStatus) CanTransitionTo(newStatus MatchStatus) bool {
	if !newStatus.Valid() || s.IsTerminal() {
		return false
	}
	if newStatus == MatchStatusRejected {
		return true
	}
	from, ok := s.Rank()
	if !ok {
		return false
	}
	to, ok := newStatus.Rank()
	if !ok {
		return false
	}
	return to > from
}

// Scan implements the sql.Scanner interface for MatchStatus
func (s *MatchStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = MatchStatus(v)
	case []byte:
		*s = MatchStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into MatchStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for MatchStatus
func (s MatchStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid MatchStatus: %s", s)
	}
	return string(s), nil
}

// MatchReasoning is the structured explanation attached to a match.
// The named fields are the closed set the scorer fills in; Extra carries
// anything downstream tooling wants to attach.
type MatchReasoning struct {
	TopStrengths      []string           `json:"top_strengths,omitempty"`
	PotentialConcerns []string           `json:"potential_concerns,omitempty"`
	KeyMetrics        map[string]float64 `json:"key_metrics,omitempty"`
	Recommendation    string             `json:"recommendation,omitempty"`

	Extra map[string]any `json:"extra,omitempty"`
}

// Value implements the driver.Valuer interface for MatchReasoning
func (r MatchReasoning) Value() (driver.Value, error) {
	return json.Marshal(r)
}

// Scan implements the sql.Scanner interface for MatchReasoning
func (r *MatchReasoning) Scan(value any) error {
	if value == nil {
		*r = MatchReasoning{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into MatchReasoning", value)
	}

	return json.Unmarshal(bytes, r)
}

// Match is the authoritative scored pairing of a campaign and a podcast.
// At most one row exists per (brand_profile_id, podcast_id, campaign_id).
type Match struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UUID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_matches_uuid" json:"uuid"`
	BrandProfileID uint      `gorm:"not null;uniqueIndex:uk_matches_triple,priority:1" json:"brand_profile_id"`
	PodcastID      uint      `gorm:"not null;uniqueIndex:uk_matches_triple,priority:2" json:"podcast_id"`
	CampaignID     uint      `gorm:"not null;uniqueIndex:uk_matches_triple,priority:3;index:idx_matches_campaign_id" json:"campaign_id"`

	// Component scores, all bounded [0,100]
	OverallScore           float64 `gorm:"not null;check:overall_score >= 0 AND overall_score <= 100;index:idx_matches_overall_score" json:"overall_score"`
	AudienceMatchScore     float64 `gorm:"not null;check:audience_match_score >= 0 AND audience_match_score <= 100" json:"audience_match_score"`
	ProductRelevanceScore  float64 `gorm:"not null;check:product_relevance_score >= 0 AND product_relevance_score <= 100" json:"product_relevance_score"`
	ContentThemeScore      float64 `gorm:"not null;check:content_theme_score >= 0 AND content_theme_score <= 100" json:"content_theme_score"`
	BrandAlignmentScore    float64 `gorm:"not null;check:brand_alignment_score >= 0 AND brand_alignment_score <= 100" json:"brand_alignment_score"`
	GeographicScore        float64 `gorm:"not null;check:geographic_score >= 0 AND geographic_score <= 100" json:"geographic_score"`
	AgeScore               float64 `gorm:"not null;check:age_score >= 0 AND age_score <= 100" json:"age_score"`
	GenderScore            float64 `gorm:"not null;check:gender_score >= 0 AND gender_score <= 100" json:"gender_score"`
	InterestScore          float64 `gorm:"not null;check:interest_score >= 0 AND interest_score <= 100" json:"interest_score"`
	BudgetFitScore         float64 `gorm:"not null;check:budget_fit_score >= 0 AND budget_fit_score <= 100" json:"budget_fit_score"`
	EngagementQualityScore float64 `gorm:"not null;check:engagement_quality_score >= 0 AND engagement_quality_score <= 100" json:"engagement_quality_score"`
	MatchConfidence        float64 `gorm:"not null;check:match_confidence >= 0 AND match_confidence <= 100" json:"match_confidence"`

	// Derived economics, all non-negative
	EstimatedCPM            *float64 `gorm:"check:estimated_cpm >= 0" json:"estimated_cpm,omitempty"`
	EstimatedCostPerEpisode *float64 `gorm:"check:estimated_cost_per_episode >= 0" json:"estimated_cost_per_episode,omitempty"`
	PotentialReach          *int64   `gorm:"check:potential_reach >= 0" json:"potential_reach,omitempty"`
	PotentialImpressions    *int64   `gorm:"check:potential_impressions >= 0" json:"potential_impressions,omitempty"`

	Reasoning MatchReasoning `gorm:"type:jsonb;not null;default:'{}'" json:"reasoning"`

	Status    MatchStatus `gorm:"size:20;not null;default:'suggested';index:idx_matches_status" json:"status"`
	MatchDate time.Time   `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"match_date"`

	// Workflow timestamps, stamped once as the status advances
	ContactAttemptedAt *time.Time `json:"contact_attempted_at,omitempty"`
	ResponseReceivedAt *time.Time `json:"response_received_at,omitempty"`
	DealClosedAt       *time.Time `json:"deal_closed_at,omitempty"`

	// Manually entered fields, preserved across recomputation
	InternalNotes *string `gorm:"type:text" json:"internal_notes,omitempty"`
	BrandFeedback *string `gorm:"type:text" json:"brand_feedback,omitempty"`

	// Actual outcomes, populated after campaign execution
	ActualCost           *float64 `gorm:"check:actual_cost >= 0" json:"actual_cost,omitempty"`
	ActualImpressions    *int64   `gorm:"check:actual_impressions >= 0" json:"actual_impressions,omitempty"`
	ActualEngagementRate *float64 `gorm:"check:actual_engagement_rate >= 0" json:"actual_engagement_rate,omitempty"`

	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`

	// Relations
	BrandProfile *BrandProfile `gorm:"foreignKey:BrandProfileID;references:ID" json:"brand_profile,omitempty"`
	Podcast      *Podcast      `gorm:"foreignKey:PodcastID;references:ID;constraint:OnDelete:CASCADE" json:"podcast,omitempty"`
	Campaign     *Campaign     `gorm:"foreignKey:CampaignID;references:ID" json:"campaign,omitempty"`
}

// TableName returns the table name for the model
func (Match) TableName() string {
	return "matches"
}

// BeforeCreate is called before creating a new record
func (m *Match) BeforeCreate(tx *gorm.DB) error {
	if m.UUID == uuid.Nil {
		m.UUID = uuid.New()
	}
	if m.Status == "" {
		m.Status = MatchStatusSuggested
	}
	if m.MatchDate.IsZero() {
		m.MatchDate = utils.UTCNow()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = utils.UTCNow()
	}
	return m.validateTimestamps()
}

// BeforeUpdate is called before updating a record
func (m *Match) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	m.UpdatedAt = &now
	return m.validateTimestamps()
}

// validateTimestamps enforces the workflow timestamp ordering:
// match_date <= contact_attempted_at <= response_received_at, and
// deal_closed_at >= contact_attempted_at.
func (m *Match) validateTimestamps() error {
	if m.ContactAttemptedAt != nil && m.ContactAttemptedAt.Before(m.MatchDate) {
		return fmt.Errorf("match %s: contact_attempted_at before match_date", m.UUID)
	}
	if m.ResponseReceivedAt != nil {
		if m.ContactAttemptedAt == nil {
			return fmt.Errorf("match %s: response_received_at without contact_attempted_at", m.UUID)
		}
		if m.ResponseReceivedAt.Before(*m.ContactAttemptedAt) {
			return fmt.Errorf("match %s: response_received_at before contact_attempted_at", m.UUID)
		}
	}
	if m.DealClosedAt != nil {
		if m.ContactAttemptedAt == nil {
			return fmt.Errorf("match %s: deal_closed_at without contact_attempted_at", m.UUID)
		}
		if m.DealClosedAt.Before(*m.ContactAttemptedAt) {
			return fmt.Errorf("match %s: deal_closed_at before contact_attempted_at", m.UUID)
		}
	}
	return nil
}

// CostAccuracy returns actual cost as a fraction of the estimate, when both
// are known. A value of 1.0 means the estimate was exact.
func (m *Match) CostAccuracy() *float64 {
	if m.ActualCost == nil || m.EstimatedCostPerEpisode == nil || *m.EstimatedCostPerEpisode == 0 {
		return nil
	}
	v := *m.ActualCost / *m.EstimatedCostPerEpisode
	return &v
}

// ImpressionAccuracy returns actual impressions as a fraction of the estimate
func (m *Match) ImpressionAccuracy() *float64 {
	if m.ActualImpressions == nil || m.PotentialImpressions == nil || *m.PotentialImpressions == 0 {
		return nil
	}
	v := float64(*m.ActualImpressions) / float64(*m.PotentialImpressions)
	return &v
}

// MatchFilter represents filter criteria for match queries
type MatchFilter struct {
	ID              *uint        `json:"id,omitempty"`
	UUID            *uuid.UUID   `json:"uuid,omitempty"`
	BrandProfileID  *uint        `json:"brand_profile_id,omitempty"`
	PodcastID       *uint        `json:"podcast_id,omitempty"`
	CampaignID      *uint        `json:"campaign_id,omitempty"`
	Status          *MatchStatus `json:"status,omitempty"`
	MinOverallScore *float64     `json:"min_overall_score,omitempty"`
	MinConfidence   *float64     `json:"min_confidence,omitempty"`
	MatchedAfter    *time.Time   `json:"matched_after,omitempty"`
	MatchedBefore   *time.Time   `json:"matched_before,omitempty"`
}
