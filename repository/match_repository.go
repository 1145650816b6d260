package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/podmatch/podmatch/models"
	"github.com/podmatch/podmatch/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrMatchNotFound is returned by write operations that target a missing row
var ErrMatchNotFound = errors.New("match not found")

// ErrInvalidStatusTransition is returned when a requested status change is not
// allowed by the match workflow
var ErrInvalidStatusTransition = errors.New("invalid match status transition")

// MatchRepositoryImpl implements the MatchRepository interface
type MatchRepositoryImpl struct {
	*BaseRepository[models.Match, models.MatchFilter]
}

// NewMatchRepository creates a new match repository
func NewMatchRepository(db *gorm.DB) MatchRepository {
	return &MatchRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Match, models.MatchFilter](db),
	}
}

// ByUUID retrieves a match by UUID
func (r *MatchRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.Match, error) {
	parsedUUID, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, err
	}

	filter := models.MatchFilter{UUID: &parsedUUID}
	matches, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, err
	}

	if len(matches) == 0 {
		return nil, nil
	}

	return matches[0], nil
}

// ByTriple retrieves the unique match for a brand, podcast and campaign
func (r *MatchRepositoryImpl) ByTriple(ctx context.Context, brandProfileID, podcastID, campaignID uint) (*models.Match, error) {
	db := r.getDB(ctx)

	var match models.Match
	err := db.Where("brand_profile_id = ? AND podcast_id = ? AND campaign_id = ?",
		brandProfileID, podcastID, campaignID).
		Last(&match).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find match by triple: %w", err)
	}

	return &match, nil
}

// ByCampaignID retrieves the ranked matches for a campaign, best score first.
// Ties break on podcast ID so pagination stays stable across requests.
func (r *MatchRepositoryImpl) ByCampaignID(ctx context.Context, campaignID uint, limit, offset int) ([]*models.Match, error) {
	filter := models.MatchFilter{CampaignID: &campaignID}
	return r.ByFilter(ctx, filter, "overall_score DESC, podcast_id ASC", limit, offset)
}

// upsertColumns is the set of columns recomputation is allowed to overwrite.
// Workflow state (status, match_date, workflow timestamps) and manually
// entered fields (internal_notes, brand_feedback, actual outcomes) survive
// rescoring; advancing match_date would break the contact_attempted_at
// ordering constraint on contacted matches.
var upsertColumns = []string{
	"overall_score",
	"audience_match_score",
	"product_relevance_score",
	"content_theme_score",
	"brand_alignment_score",
	"geographic_score",
	"age_score",
	"gender_score",
	"interest_score",
	"budget_fit_score",
	"engagement_quality_score",
	"match_confidence",
	"estimated_cpm",
	"estimated_cost_per_episode",
	"potential_reach",
	"potential_impressions",
	"reasoning",
	"updated_at",
}

// Upsert inserts the match or, when a row already exists for the same
// (brand_profile_id, podcast_id, campaign_id), refreshes its scores,
// economics and reasoning in place.
func (r *MatchRepositoryImpl) Upsert(ctx context.Context, match *models.Match) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	now := utils.UTCNow()
	match.UpdatedAt = &now

	err = db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "brand_profile_id"},
			{Name: "podcast_id"},
			{Name: "campaign_id"},
		},
		DoUpdates: clause.AssignmentColumns(upsertColumns),
	}).Create(match).Error
	if err != nil {
		return fmt.Errorf("failed to upsert match: %w", err)
	}

	return nil
}

// TransitionStatus advances a match through its workflow. The transition is
// validated against the current row inside the transaction, and workflow
// timestamps are stamped on first entry into their state only.
func (r *MatchRepositoryImpl) TransitionStatus(ctx context.Context, id uint, newStatus models.MatchStatus, at time.Time) (*models.Match, error) {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return nil, err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	var match models.Match
	err = db.Clauses(clause.Locking{Strength: "UPDATE"}).Last(&match, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = ErrMatchNotFound
			return nil, err
		}
		return nil, fmt.Errorf("failed to load match %d: %w", id, err)
	}

	if !match.Status.CanTransitionTo(newStatus) {
		err = fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, match.Status, newStatus)
		return nil, err
	}

	at = at.UTC()
	updates := map[string]any{
		"status":     newStatus,
		"updated_at": utils.UTCNow(),
	}

	switch newStatus {
	case models.MatchStatusContacted:
		if match.ContactAttemptedAt == nil {
			updates["contact_attempted_at"] = at
			match.ContactAttemptedAt = &at
		}
	case models.MatchStatusNegotiating:
		if match.ResponseReceivedAt == nil {
			updates["response_received_at"] = at
			match.ResponseReceivedAt = &at
		}
	case models.MatchStatusAccepted:
		if match.DealClosedAt == nil {
			updates["deal_closed_at"] = at
			match.DealClosedAt = &at
		}
	}

	match.Status = newStatus
	if err = match.BeforeUpdate(db); err != nil {
		// Ordering violations from a caller-supplied timestamp are a
		// rejected transition, not an internal failure
		err = fmt.Errorf("%w: %v", ErrInvalidStatusTransition, err)
		return nil, err
	}

	err = db.Model(&models.Match{}).
		Where("id = ?", id).
		Updates(updates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to transition match %d: %w", id, err)
	}

	return &match, nil
}

// UpdateNotes updates the manually entered note fields. A nil pointer leaves
// the corresponding column untouched.
func (r *MatchRepositoryImpl) UpdateNotes(ctx context.Context, id uint, internalNotes, brandFeedback *string) error {
	if internalNotes == nil && brandFeedback == nil {
		return nil
	}

	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	updates := map[string]any{
		"updated_at": utils.UTCNow(),
	}
	if internalNotes != nil {
		updates["internal_notes"] = *internalNotes
	}
	if brandFeedback != nil {
		updates["brand_feedback"] = *brandFeedback
	}

	result := db.Model(&models.Match{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		err = fmt.Errorf("failed to update match notes: %w", result.Error)
		return err
	}
	if result.RowsAffected == 0 {
		err = ErrMatchNotFound
		return err
	}

	return nil
}

// RecordOutcome records actual campaign results against the match. Nil
// pointers leave the corresponding columns untouched so outcomes can be
// reported incrementally.
func (r *MatchRepositoryImpl) RecordOutcome(ctx context.Context, id uint, actualCost *float64, actualImpressions *int64, actualEngagementRate *float64) error {
	if actualCost == nil && actualImpressions == nil && actualEngagementRate == nil {
		return nil
	}

	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	updates := map[string]any{
		"updated_at": utils.UTCNow(),
	}
	if actualCost != nil {
		updates["actual_cost"] = *actualCost
	}
	if actualImpressions != nil {
		updates["actual_impressions"] = *actualImpressions
	}
	if actualEngagementRate != nil {
		updates["actual_engagement_rate"] = *actualEngagementRate
	}

	result := db.Model(&models.Match{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		err = fmt.Errorf("failed to record match outcome: %w", result.Error)
		return err
	}
	if result.RowsAffected == 0 {
		err = ErrMatchNotFound
		return err
	}

	return nil
}

// ByFilter retrieves matches based on filter criteria
func (r *MatchRepositoryImpl) ByFilter(ctx context.Context, filter models.MatchFilter, orderBy string, limit, offset int) ([]*models.Match, error) {
	db := r.getDB(ctx)

	var matches []*models.Match
	query := r.applyFilter(db, filter)

	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	query = query.Preload("Podcast").
		Preload("Podcast.Analytics")

	err := query.Find(&matches).Error
	if err != nil {
		return nil, err
	}

	return matches, nil
}

// Count returns the number of matches matching the filter
func (r *MatchRepositoryImpl) Count(ctx context.Context, filter models.MatchFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.Match{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any match matching the filter exists
func (r *MatchRepositoryImpl) Exists(ctx context.Context, filter models.MatchFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *MatchRepositoryImpl) applyFilter(db *gorm.DB, filter models.MatchFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.BrandProfileID != nil {
		db = db.Where("brand_profile_id = ?", *filter.BrandProfileID)
	}
	if filter.PodcastID != nil {
		db = db.Where("podcast_id = ?", *filter.PodcastID)
	}
	if filter.CampaignID != nil {
		db = db.Where("campaign_id = ?", *filter.CampaignID)
	}
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}
	if filter.MinOverallScore != nil {
		db = db.Where("overall_score >= ?", *filter.MinOverallScore)
	}
	if filter.MinConfidence != nil {
		db = db.Where("match_confidence >= ?", *filter.MinConfidence)
	}
	if filter.MatchedAfter != nil {
		db = db.Where("match_date >= ?", *filter.MatchedAfter)
	}
	if filter.MatchedBefore != nil {
		db = db.Where("match_date < ?", *filter.MatchedBefore)
	}

	return db
}
