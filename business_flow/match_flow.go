package businessflow

import (
	"context"
	"errors"

	"github.com/podmatch/podmatch/app/dto"
	"github.com/podmatch/podmatch/models"
	"github.com/podmatch/podmatch/repository"
	"github.com/podmatch/podmatch/utils"
	"gorm.io/gorm"
)

// MatchFlow handles the match workflow business logic
type MatchFlow interface {
	ComputeMatches(ctx context.Context, req *dto.ComputeMatchesRequest) (*dto.ComputeMatchesResponse, error)
	ListMatches(ctx context.Context, req *dto.ListMatchesRequest) (*dto.ListMatchesResponse, error)
	GetMatch(ctx context.Context, matchUUID string) (*dto.MatchDetail, error)
	TransitionStatus(ctx context.Context, req *dto.UpdateMatchStatusRequest) (*dto.UpdateMatchStatusResponse, error)
	UpdateNotes(ctx context.Context, req *dto.UpdateMatchNotesRequest) (*dto.UpdateMatchNotesResponse, error)
	RecordOutcome(ctx context.Context, req *dto.RecordOutcomeRequest) (*dto.RecordOutcomeResponse, error)
}

// MatchFlowImpl implements the match business flow
type MatchFlowImpl struct {
	matchRepo     repository.MatchRepository
	campaignRepo  repository.CampaignRepository
	podcastRepo   repository.PodcastRepository
	analyticsRepo repository.PodcastAnalyticsRepository
	socialRepo    repository.SocialStatsRepository
	sponsorRepo   repository.EpisodeSponsorRepository
	scoringFlow   ScoringFlow
	db            *gorm.DB
}

// NewMatchFlow creates a new match flow instance
func NewMatchFlow(
	matchRepo repository.MatchRepository,
	campaignRepo repository.CampaignRepository,
	podcastRepo repository.PodcastRepository,
	analyticsRepo repository.PodcastAnalyticsRepository,
	socialRepo repository.SocialStatsRepository,
	sponsorRepo repository.EpisodeSponsorRepository,
	scoringFlow ScoringFlow,
	db *gorm.DB,
) MatchFlow {
	return &MatchFlowImpl{
		matchRepo:     matchRepo,
		campaignRepo:  campaignRepo,
		podcastRepo:   podcastRepo,
		analyticsRepo: analyticsRepo,
		socialRepo:    socialRepo,
		sponsorRepo:   sponsorRepo,
		scoringFlow:   scoringFlow,
		db:            db,
	}
}

// ComputeMatches runs the scoring pipeline for a campaign and returns the
// persisted matches together with the per-pair failure list
func (s *MatchFlowImpl) ComputeMatches(ctx context.Context, req *dto.ComputeMatchesRequest) (*dto.ComputeMatchesResponse, error) {
	result, err := s.scoringFlow.ScoreCampaign(ctx, req.CampaignUUID)
	if err != nil {
		return nil, err
	}

	resp := &dto.ComputeMatchesResponse{
		CampaignUUID: req.CampaignUUID,
		Candidates:   result.Candidates,
		Succeeded:    len(result.Succeeded),
	}
	for _, failure := range result.Failed {
		resp.Failed = append(resp.Failed, dto.PairFailureDetail{
			PodcastID: failure.PodcastID,
			Reason:    failure.Reason,
		})
	}

	// Read the persisted rows back rather than echoing the in-memory ones; on
	// recomputation the existing row keeps its UUID, status and manual fields.
	scored := make(map[uint]bool, len(result.Succeeded))
	for _, podcastID := range result.Succeeded {
		scored[podcastID] = true
	}
	persisted, err := s.matchRepo.ByCampaignID(ctx, result.CampaignID, 0, 0)
	if err != nil {
		return nil, NewBusinessError("MATCH_LIST_FAILED", "Failed to load persisted matches", err)
	}
	for _, match := range persisted {
		if scored[match.PodcastID] {
			resp.Matches = append(resp.Matches, toMatchDetail(match))
		}
	}

	return resp, nil
}

// ListMatches returns a campaign's matches ranked by overall score
func (s *MatchFlowImpl) ListMatches(ctx context.Context, req *dto.ListMatchesRequest) (*dto.ListMatchesResponse, error) {
	campaign, err := s.campaignRepo.ByUUID(ctx, req.CampaignUUID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "Failed to lookup campaign", err)
	}
	if campaign == nil {
		return nil, NewBusinessError("CAMPAIGN_NOT_FOUND", "Campaign not found", ErrCampaignNotFound)
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	filter := models.MatchFilter{
		CampaignID:      &campaign.ID,
		MinOverallScore: req.MinScore,
	}
	if req.Status != nil {
		status := models.MatchStatus(*req.Status)
		filter.Status = &status
	}

	total, err := s.matchRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("MATCH_COUNT_FAILED", "Failed to count matches", err)
	}

	matches, err := s.matchRepo.ByFilter(ctx, filter,
		"overall_score DESC, podcast_id ASC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("MATCH_LIST_FAILED", "Failed to list matches", err)
	}

	resp := &dto.ListMatchesResponse{
		CampaignUUID: req.CampaignUUID,
		Matches:      make([]dto.MatchDetail, 0, len(matches)),
		Total:        total,
		Page:         page,
		PageSize:     pageSize,
	}
	for _, match := range matches {
		resp.Matches = append(resp.Matches, toMatchDetail(match))
	}

	return resp, nil
}

// GetMatch returns one match by UUID, enriched with the podcast's advertising
// analytics, social reach, and recent sponsorship history
func (s *MatchFlowImpl) GetMatch(ctx context.Context, matchUUID string) (*dto.MatchDetail, error) {
	match, err := s.lookupMatch(ctx, matchUUID)
	if err != nil {
		return nil, err
	}

	detail := toMatchDetail(match)

	snapshot, err := s.buildPodcastSnapshot(ctx, match)
	if err != nil {
		return nil, err
	}
	detail.Podcast = snapshot

	return &detail, nil
}

// recentSponsorLimit bounds the sponsorship history returned per match
const recentSponsorLimit = 10

func (s *MatchFlowImpl) buildPodcastSnapshot(ctx context.Context, match *models.Match) (*dto.PodcastSnapshot, error) {
	podcast := match.Podcast
	if podcast == nil {
		loaded, err := s.podcastRepo.ByID(ctx, match.PodcastID)
		if err != nil {
			return nil, NewBusinessError("PODCAST_LOOKUP_FAILED", "Failed to lookup matched podcast", err)
		}
		if loaded == nil {
			return nil, nil
		}
		podcast = loaded
	}

	snapshot := &dto.PodcastSnapshot{
		UUID:         podcast.UUID.String(),
		Name:         podcast.Name,
		Categories:   podcast.Categories,
		AudienceSize: podcast.AudienceSize,
	}

	analytics, err := s.analyticsRepo.ByPodcastID(ctx, podcast.ID)
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_LOOKUP_FAILED", "Failed to lookup podcast analytics", err)
	}
	if analytics != nil {
		adLoad := analytics.AdLoadPercentage()
		repeatRate := analytics.RepeatSponsorRate()
		snapshot.AdLoadPercentage = &adLoad
		snapshot.RepeatSponsorRate = &repeatRate
		snapshot.AvgAdsPerEpisode = analytics.AvgAdsPerEpisode
		snapshot.AvgEpisodeViews = analytics.AvgEpisodeViews
		snapshot.EstimatedAdPrice = analytics.EstimatedAdPrice
		snapshot.MonetizationScore = analytics.MonetizationScore
	}

	social, err := s.socialRepo.ByPodcastID(ctx, podcast.ID)
	if err != nil {
		return nil, NewBusinessError("SOCIAL_STATS_LOOKUP_FAILED", "Failed to lookup social stats", err)
	}
	for _, stats := range social {
		snapshot.Social = append(snapshot.Social, dto.SocialPlatformDetail{
			Platform:       string(stats.Platform),
			Followers:      stats.Followers,
			EngagementRate: stats.EngagementRate,
		})
	}

	placements, err := s.sponsorRepo.ByPodcastID(ctx, podcast.ID, recentSponsorLimit, 0)
	if err != nil {
		return nil, NewBusinessError("SPONSOR_HISTORY_LOOKUP_FAILED", "Failed to lookup sponsorship history", err)
	}
	for _, placement := range placements {
		entry := dto.SponsorPlacementDetail{
			AdFormat:    placement.AdFormat,
			DurationSec: placement.Duration(),
			AiredAt:     placement.AiredAt,
		}
		if placement.Sponsor != nil {
			entry.SponsorName = placement.Sponsor.Name
			entry.Industry = placement.Sponsor.Industry
		}
		snapshot.RecentSponsors = append(snapshot.RecentSponsors, entry)
	}

	return snapshot, nil
}

// TransitionStatus advances a match through its workflow
func (s *MatchFlowImpl) TransitionStatus(ctx context.Context, req *dto.UpdateMatchStatusRequest) (*dto.UpdateMatchStatusResponse, error) {
	match, err := s.lookupMatch(ctx, req.MatchUUID)
	if err != nil {
		return nil, err
	}

	newStatus := models.MatchStatus(req.NewStatus)
	if !newStatus.Valid() {
		return nil, NewBusinessErrorf("INVALID_STATUS", "Unknown match status %q", ErrInvalidTransition, req.NewStatus)
	}

	at := utils.UTCNow()
	if req.Timestamp != nil {
		at = req.Timestamp.UTC()
	}

	updated, err := s.matchRepo.TransitionStatus(ctx, match.ID, newStatus, at)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidStatusTransition) {
			return nil, NewBusinessErrorf("INVALID_TRANSITION",
				"Cannot transition match from %s to %s", ErrInvalidTransition, match.Status, newStatus)
		}
		if errors.Is(err, repository.ErrMatchNotFound) {
			return nil, NewBusinessError("MATCH_NOT_FOUND", "Match not found", ErrMatchNotFound)
		}
		return nil, NewBusinessError("TRANSITION_FAILED", "Failed to transition match status", err)
	}

	// Keep fields the targeted update does not return
	updated.UUID = match.UUID
	updated.Podcast = match.Podcast

	return &dto.UpdateMatchStatusResponse{
		Message: "Match status updated",
		Match:   toMatchDetail(updated),
	}, nil
}

// UpdateNotes updates the manually entered note fields of a match
func (s *MatchFlowImpl) UpdateNotes(ctx context.Context, req *dto.UpdateMatchNotesRequest) (*dto.UpdateMatchNotesResponse, error) {
	if req.InternalNotes == nil && req.BrandFeedback == nil {
		return nil, NewBusinessError("MATCH_UPDATE_REQUIRED", "No fields provided", ErrMatchUpdateRequired)
	}

	match, err := s.lookupMatch(ctx, req.MatchUUID)
	if err != nil {
		return nil, err
	}

	if err := s.matchRepo.UpdateNotes(ctx, match.ID, req.InternalNotes, req.BrandFeedback); err != nil {
		if errors.Is(err, repository.ErrMatchNotFound) {
			return nil, NewBusinessError("MATCH_NOT_FOUND", "Match not found", ErrMatchNotFound)
		}
		return nil, NewBusinessError("NOTES_UPDATE_FAILED", "Failed to update match notes", err)
	}

	return &dto.UpdateMatchNotesResponse{Message: "Match notes updated"}, nil
}

// RecordOutcome stores actual campaign results against a match and reports
// estimate accuracy where computable
func (s *MatchFlowImpl) RecordOutcome(ctx context.Context, req *dto.RecordOutcomeRequest) (*dto.RecordOutcomeResponse, error) {
	if req.ActualCost == nil && req.ActualImpressions == nil && req.ActualEngagementRate == nil {
		return nil, NewBusinessError("MATCH_UPDATE_REQUIRED", "No fields provided", ErrMatchUpdateRequired)
	}

	match, err := s.lookupMatch(ctx, req.MatchUUID)
	if err != nil {
		return nil, err
	}

	err = s.matchRepo.RecordOutcome(ctx, match.ID, req.ActualCost, req.ActualImpressions, req.ActualEngagementRate)
	if err != nil {
		if errors.Is(err, repository.ErrMatchNotFound) {
			return nil, NewBusinessError("MATCH_NOT_FOUND", "Match not found", ErrMatchNotFound)
		}
		return nil, NewBusinessError("OUTCOME_RECORD_FAILED", "Failed to record match outcome", err)
	}

	if req.ActualCost != nil {
		match.ActualCost = req.ActualCost
	}
	if req.ActualImpressions != nil {
		match.ActualImpressions = req.ActualImpressions
	}

	return &dto.RecordOutcomeResponse{
		Message:            "Match outcome recorded",
		CostAccuracy:       match.CostAccuracy(),
		ImpressionAccuracy: match.ImpressionAccuracy(),
	}, nil
}

func (s *MatchFlowImpl) lookupMatch(ctx context.Context, matchUUID string) (*models.Match, error) {
	match, err := s.matchRepo.ByUUID(ctx, matchUUID)
	if err != nil {
		return nil, NewBusinessError("MATCH_LOOKUP_FAILED", "Failed to lookup match", err)
	}
	if match == nil {
		return nil, NewBusinessError("MATCH_NOT_FOUND", "Match not found", ErrMatchNotFound)
	}
	return match, nil
}

// toMatchDetail maps a match model to its response representation
func toMatchDetail(match *models.Match) dto.MatchDetail {
	detail := dto.MatchDetail{
		UUID: match.UUID.String(),
		Scores: dto.MatchScores{
			Overall:           match.OverallScore,
			AudienceMatch:     match.AudienceMatchScore,
			ProductRelevance:  match.ProductRelevanceScore,
			ContentTheme:      match.ContentThemeScore,
			BrandAlignment:    match.BrandAlignmentScore,
			Geographic:        match.GeographicScore,
			Age:               match.AgeScore,
			Gender:            match.GenderScore,
			Interest:          match.InterestScore,
			BudgetFit:         match.BudgetFitScore,
			EngagementQuality: match.EngagementQualityScore,
			Confidence:        match.MatchConfidence,
		},
		Economics: dto.MatchEconomics{
			EstimatedCPM:            match.EstimatedCPM,
			EstimatedCostPerEpisode: match.EstimatedCostPerEpisode,
			PotentialReach:          match.PotentialReach,
			PotentialImpressions:    match.PotentialImpressions,
		},
		Reasoning: dto.MatchReasoningDetail{
			TopStrengths:      match.Reasoning.TopStrengths,
			PotentialConcerns: match.Reasoning.PotentialConcerns,
			KeyMetrics:        match.Reasoning.KeyMetrics,
			Recommendation:    match.Reasoning.Recommendation,
		},
		Status:             match.Status.String(),
		MatchDate:          match.MatchDate,
		ContactAttemptedAt: match.ContactAttemptedAt,
		ResponseReceivedAt: match.ResponseReceivedAt,
		DealClosedAt:       match.DealClosedAt,
		InternalNotes:      match.InternalNotes,
		BrandFeedback:      match.BrandFeedback,

		ActualCost:           match.ActualCost,
		ActualImpressions:    match.ActualImpressions,
		ActualEngagementRate: match.ActualEngagementRate,

		UpdatedAt: match.UpdatedAt,
	}

	if match.Podcast != nil {
		detail.PodcastName = match.Podcast.Name
		detail.PodcastUUID = match.Podcast.UUID.String()
	}

	return detail
}
