package repository

import (
	"context"
	"fmt"

	"github.com/podmatch/podmatch/models"
	"gorm.io/gorm"
)

// PodcastAnalyticsRepositoryImpl implements the PodcastAnalyticsRepository interface
type PodcastAnalyticsRepositoryImpl struct {
	*BaseRepository[models.PodcastAnalytics, models.PodcastAnalyticsFilter]
}

// NewPodcastAnalyticsRepository creates a new podcast analytics repository
func NewPodcastAnalyticsRepository(db *gorm.DB) PodcastAnalyticsRepository {
	return &PodcastAnalyticsRepositoryImpl{
		BaseRepository: NewBaseRepository[models.PodcastAnalytics, models.PodcastAnalyticsFilter](db),
	}
}

// ByPodcastID retrieves the analytics row for a podcast, nil when none exists
func (r *PodcastAnalyticsRepositoryImpl) ByPodcastID(ctx context.Context, podcastID uint) (*models.PodcastAnalytics, error) {
	filter := models.PodcastAnalyticsFilter{PodcastID: &podcastID}
	rows, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, nil
	}

	return rows[0], nil
}

// ByFilter retrieves analytics rows based on filter criteria
func (r *PodcastAnalyticsRepositoryImpl) ByFilter(ctx context.Context, filter models.PodcastAnalyticsFilter, orderBy string, limit, offset int) ([]*models.PodcastAnalytics, error) {
	db := r.getDB(ctx)

	var rows []*models.PodcastAnalytics
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

	err := query.Find(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// Count returns the number of analytics rows matching the filter
func (r *PodcastAnalyticsRepositoryImpl) Count(ctx context.Context, filter models.PodcastAnalyticsFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.PodcastAnalytics{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any analytics row matching the filter exists
func (r *PodcastAnalyticsRepositoryImpl) Exists(ctx context.Context, filter models.PodcastAnalyticsFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *PodcastAnalyticsRepositoryImpl) applyFilter(db *gorm.DB, filter models.PodcastAnalyticsFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.PodcastID != nil {
		db = db.Where("podcast_id = ?", *filter.PodcastID)
	}
	if filter.MinMonetizationScore != nil {
		db = db.Where("monetization_score >= ?", *filter.MinMonetizationScore)
	}
	if filter.AnalyzedAfter != nil {
		db = db.Where("analyzed_at >= ?", *filter.AnalyzedAfter)
	}
	if filter.AnalyzedBefore != nil {
		db = db.Where("analyzed_at < ?", *filter.AnalyzedBefore)
	}

	return db
}

// SocialStatsRepositoryImpl implements the SocialStatsRepository interface
type SocialStatsRepositoryImpl struct {
	*BaseRepository[models.SocialStats, models.SocialStatsFilter]
}

// NewSocialStatsRepository creates a new social stats repository
func NewSocialStatsRepository(db *gorm.DB) SocialStatsRepository {
	return &SocialStatsRepositoryImpl{
		BaseRepository: NewBaseRepository[models.SocialStats, models.SocialStatsFilter](db),
	}
}

// ByPodcastID retrieves all platform rows for a podcast
func (r *SocialStatsRepositoryImpl) ByPodcastID(ctx context.Context, podcastID uint) ([]*models.SocialStats, error) {
	filter := models.SocialStatsFilter{PodcastID: &podcastID}
	return r.ByFilter(ctx, filter, "platform ASC", 0, 0)
}

// ByFilter retrieves social stats based on filter criteria
func (r *SocialStatsRepositoryImpl) ByFilter(ctx context.Context, filter models.SocialStatsFilter, orderBy string, limit, offset int) ([]*models.SocialStats, error) {
	db := r.getDB(ctx)

	var rows []*models.SocialStats
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

	err := query.Find(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// Count returns the number of social stats rows matching the filter
func (r *SocialStatsRepositoryImpl) Count(ctx context.Context, filter models.SocialStatsFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.SocialStats{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any social stats row matching the filter exists
func (r *SocialStatsRepositoryImpl) Exists(ctx context.Context, filter models.SocialStatsFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *SocialStatsRepositoryImpl) applyFilter(db *gorm.DB, filter models.SocialStatsFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.PodcastID != nil {
		db = db.Where("podcast_id = ?", *filter.PodcastID)
	}
	if filter.Platform != nil {
		db = db.Where("platform = ?", *filter.Platform)
	}
	if filter.MinFollowers != nil {
		db = db.Where("followers >= ?", *filter.MinFollowers)
	}

	return db
}

// EpisodeSponsorRepositoryImpl implements the EpisodeSponsorRepository interface
type EpisodeSponsorRepositoryImpl struct {
	*BaseRepository[models.EpisodeSponsor, models.EpisodeSponsorFilter]
}

// NewEpisodeSponsorRepository creates a new episode sponsor repository
func NewEpisodeSponsorRepository(db *gorm.DB) EpisodeSponsorRepository {
	return &EpisodeSponsorRepositoryImpl{
		BaseRepository: NewBaseRepository[models.EpisodeSponsor, models.EpisodeSponsorFilter](db),
	}
}

// ByPodcastID retrieves the sponsorship history of a podcast, newest first
func (r *EpisodeSponsorRepositoryImpl) ByPodcastID(ctx context.Context, podcastID uint, limit, offset int) ([]*models.EpisodeSponsor, error) {
	filter := models.EpisodeSponsorFilter{PodcastID: &podcastID}
	return r.ByFilter(ctx, filter, "aired_at DESC NULLS LAST, id DESC", limit, offset)
}

// CountBySponsor returns placement counts per sponsor for a podcast
func (r *EpisodeSponsorRepositoryImpl) CountBySponsor(ctx context.Context, podcastID uint) (map[uint]int64, error) {
	db := r.getDB(ctx)

	type row struct {
		SponsorID uint
		Cnt       int64
	}

	var rows []row
	err := db.Model(&models.EpisodeSponsor{}).
		Select("sponsor_id, COUNT(*) AS cnt").
		Where("podcast_id = ?", podcastID).
		Group("sponsor_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count placements by sponsor: %w", err)
	}

	out := make(map[uint]int64, len(rows))
	for _, rw := range rows {
		out[rw.SponsorID] = rw.Cnt
	}
	return out, nil
}

// ByFilter retrieves episode sponsors based on filter criteria
func (r *EpisodeSponsorRepositoryImpl) ByFilter(ctx context.Context, filter models.EpisodeSponsorFilter, orderBy string, limit, offset int) ([]*models.EpisodeSponsor, error) {
	db := r.getDB(ctx)

	var rows []*models.EpisodeSponsor
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

	query = query.Preload("Sponsor")

	err := query.Find(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// Count returns the number of episode sponsors matching the filter
func (r *EpisodeSponsorRepositoryImpl) Count(ctx context.Context, filter models.EpisodeSponsorFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.EpisodeSponsor{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any episode sponsor matching the filter exists
func (r *EpisodeSponsorRepositoryImpl) Exists(ctx context.Context, filter models.EpisodeSponsorFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *EpisodeSponsorRepositoryImpl) applyFilter(db *gorm.DB, filter models.EpisodeSponsorFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.PodcastID != nil {
		db = db.Where("podcast_id = ?", *filter.PodcastID)
	}
	if filter.SponsorID != nil {
		db = db.Where("sponsor_id = ?", *filter.SponsorID)
	}
	if filter.EpisodeGUID != nil {
		db = db.Where("episode_guid = ?", *filter.EpisodeGUID)
	}
	if filter.AiredAfter != nil {
		db = db.Where("aired_at >= ?", *filter.AiredAfter)
	}
	if filter.AiredBefore != nil {
		db = db.Where("aired_at < ?", *filter.AiredBefore)
	}

	return db
}
