package dto

import (
	"time"
)

// ComputeMatchesRequest represents the request to score a campaign against
// the candidate podcast pool
type ComputeMatchesRequest struct {
	CampaignUUID string `json:"-"`
}

// PairFailureDetail reports one candidate podcast that failed to score
type PairFailureDetail struct {
	PodcastID uint   `json:"podcast_id"`
	Reason    string `json:"reason"`
}

// ComputeMatchesResponse represents the batch scoring outcome
type ComputeMatchesResponse struct {
	CampaignUUID string              `json:"campaign_uuid"`
	Candidates   int                 `json:"candidates"`
	Succeeded    int                 `json:"succeeded"`
	Failed       []PairFailureDetail `json:"failed,omitempty"`
	Matches      []MatchDetail       `json:"matches"`
}

// MatchScores groups the component scores of a match
type MatchScores struct {
	Overall           float64 `json:"overall"`
	AudienceMatch     float64 `json:"audience_match"`
	ProductRelevance  float64 `json:"product_relevance"`
	ContentTheme      float64 `json:"content_theme"`
	BrandAlignment    float64 `json:"brand_alignment"`
	Geographic        float64 `json:"geographic"`
	Age               float64 `json:"age"`
	Gender            float64 `json:"gender"`
	Interest          float64 `json:"interest"`
	BudgetFit         float64 `json:"budget_fit"`
	EngagementQuality float64 `json:"engagement_quality"`
	Confidence        float64 `json:"confidence"`
}

// MatchEconomics groups the derived economics of a match
type MatchEconomics struct {
	EstimatedCPM            *float64 `json:"estimated_cpm,omitempty"`
	EstimatedCostPerEpisode *float64 `json:"estimated_cost_per_episode,omitempty"`
	PotentialReach          *int64   `json:"potential_reach,omitempty"`
	PotentialImpressions    *int64   `json:"potential_impressions,omitempty"`
}

// MatchReasoningDetail is the structured explanation of a match
type MatchReasoningDetail struct {
	TopStrengths      []string           `json:"top_strengths,omitempty"`
	PotentialConcerns []string           `json:"potential_concerns,omitempty"`
	KeyMetrics        map[string]float64 `json:"key_metrics,omitempty"`
	Recommendation    string             `json:"recommendation,omitempty"`
}

// SocialPlatformDetail reports one social platform's reach for a podcast
type SocialPlatformDetail struct {
	Platform       string   `json:"platform"`
	Followers      int64    `json:"followers"`
	EngagementRate *float64 `json:"engagement_rate,omitempty"`
}

// SponsorPlacementDetail reports one historical sponsorship placement
type SponsorPlacementDetail struct {
	SponsorName string     `json:"sponsor_name,omitempty"`
	Industry    *string    `json:"industry,omitempty"`
	AdFormat    *string    `json:"ad_format,omitempty"`
	DurationSec int        `json:"duration_sec"`
	AiredAt     *time.Time `json:"aired_at,omitempty"`
}

// PodcastSnapshot enriches a match with the podcast's advertising analytics,
// social reach, and sponsorship history
type PodcastSnapshot struct {
	UUID         string   `json:"uuid"`
	Name         string   `json:"name"`
	Categories   []string `json:"categories,omitempty"`
	AudienceSize *int64   `json:"audience_size,omitempty"`

	AdLoadPercentage  *float64 `json:"ad_load_percentage,omitempty"`
	RepeatSponsorRate *float64 `json:"repeat_sponsor_rate,omitempty"`
	AvgAdsPerEpisode  *float64 `json:"avg_ads_per_episode,omitempty"`
	AvgEpisodeViews   *int64   `json:"avg_episode_views,omitempty"`
	EstimatedAdPrice  *float64 `json:"estimated_ad_price,omitempty"`
	MonetizationScore *float64 `json:"monetization_score,omitempty"`

	Social         []SocialPlatformDetail   `json:"social,omitempty"`
	RecentSponsors []SponsorPlacementDetail `json:"recent_sponsors,omitempty"`
}

// MatchDetail represents one match in responses
type MatchDetail struct {
	UUID        string `json:"uuid"`
	PodcastName string `json:"podcast_name,omitempty"`
	PodcastUUID string `json:"podcast_uuid,omitempty"`

	Podcast *PodcastSnapshot `json:"podcast,omitempty"`

	Scores    MatchScores          `json:"scores"`
	Economics MatchEconomics       `json:"economics"`
	Reasoning MatchReasoningDetail `json:"reasoning"`

	Status    string    `json:"status"`
	MatchDate time.Time `json:"match_date"`

	ContactAttemptedAt *time.Time `json:"contact_attempted_at,omitempty"`
	ResponseReceivedAt *time.Time `json:"response_received_at,omitempty"`
	DealClosedAt       *time.Time `json:"deal_closed_at,omitempty"`

	InternalNotes *string `json:"internal_notes,omitempty"`
	BrandFeedback *string `json:"brand_feedback,omitempty"`

	ActualCost           *float64 `json:"actual_cost,omitempty"`
	ActualImpressions    *int64   `json:"actual_impressions,omitempty"`
	ActualEngagementRate *float64 `json:"actual_engagement_rate,omitempty"`

	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// ListMatchesRequest represents the request to list a campaign's matches
type ListMatchesRequest struct {
	CampaignUUID string   `json:"-"`
	Page         int      `json:"page" validate:"omitempty,min=1"`
	PageSize     int      `json:"page_size" validate:"omitempty,min=1,max=100"`
	MinScore     *float64 `json:"min_score,omitempty" validate:"omitempty,gte=0,lte=100"`
	Status       *string  `json:"status,omitempty" validate:"omitempty,oneof=suggested reviewed contacted negotiating accepted rejected booked completed"`
}

// ListMatchesResponse represents the paginated match listing
type ListMatchesResponse struct {
	CampaignUUID string        `json:"campaign_uuid"`
	Matches      []MatchDetail `json:"matches"`
	Total        int64         `json:"total"`
	Page         int           `json:"page"`
	PageSize     int           `json:"page_size"`
}

// UpdateMatchStatusRequest represents the request to advance a match through
// its workflow
type UpdateMatchStatusRequest struct {
	MatchUUID string     `json:"-"`
	NewStatus string     `json:"new_status" validate:"required,oneof=suggested reviewed contacted negotiating accepted rejected booked completed"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// UpdateMatchStatusResponse represents the match after a status transition
type UpdateMatchStatusResponse struct {
	Message string      `json:"message"`
	Match   MatchDetail `json:"match"`
}

// UpdateMatchNotesRequest represents the request to update manually entered
// match fields
type UpdateMatchNotesRequest struct {
	MatchUUID     string  `json:"-"`
	InternalNotes *string `json:"internal_notes,omitempty" validate:"omitempty,max=10000"`
	BrandFeedback *string `json:"brand_feedback,omitempty" validate:"omitempty,max=10000"`
}

// UpdateMatchNotesResponse represents the response to a notes update
type UpdateMatchNotesResponse struct {
	Message string `json:"message"`
}

// RecordOutcomeRequest represents actual campaign results reported against a
// match after execution
type RecordOutcomeRequest struct {
	MatchUUID            string   `json:"-"`
	ActualCost           *float64 `json:"actual_cost,omitempty" validate:"omitempty,gte=0"`
	ActualImpressions    *int64   `json:"actual_impressions,omitempty" validate:"omitempty,gte=0"`
	ActualEngagementRate *float64 `json:"actual_engagement_rate,omitempty" validate:"omitempty,gte=0"`
}

// RecordOutcomeResponse represents the response to an outcome report,
// including estimate accuracy when computable
type RecordOutcomeResponse struct {
	Message            string   `json:"message"`
	CostAccuracy       *float64 `json:"cost_accuracy,omitempty"`
	ImpressionAccuracy *float64 `json:"impression_accuracy,omitempty"`
}
