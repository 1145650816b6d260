package repository

import (
	"context"
	"fmt"

	"github.com/lib/pq"
	"github.com/podmatch/podmatch/models"
	"github.com/podmatch/podmatch/utils"
	"gorm.io/gorm"
)

// PodcastRepositoryImpl implements the PodcastRepository interface
type PodcastRepositoryImpl struct {
	*BaseRepository[models.Podcast, models.PodcastFilter]
}

// NewPodcastRepository creates a new podcast repository
func NewPodcastRepository(db *gorm.DB) PodcastRepository {
	return &PodcastRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Podcast, models.PodcastFilter](db),
	}
}

// ByUUID retrieves a podcast by UUID
func (r *PodcastRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.Podcast, error) {
	parsedUUID, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, err
	}

	filter := models.PodcastFilter{UUID: &parsedUUID}
	podcasts, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, err
	}

	if len(podcasts) == 0 {
		return nil, nil
	}

	return podcasts[0], nil
}

// ByIDs retrieves podcasts by their IDs, with analytics and social stats preloaded
func (r *PodcastRepositoryImpl) ByIDs(ctx context.Context, ids []uint) ([]*models.Podcast, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	db := r.getDB(ctx)

	var podcasts []*models.Podcast
	err := db.Where("id IN ?", ids).
		Preload("Analytics").
		Preload("SocialStats").
		Find(&podcasts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find podcasts by IDs: %w", err)
	}

	return podcasts, nil
}

// ListEmbeddings streams the embedding columns for all podcasts matching the
// filter. Used by the scoring flow to build its candidate index.
func (r *PodcastRepositoryImpl) ListEmbeddings(ctx context.Context, filter models.PodcastFilter) ([]PodcastEmbeddingRow, error) {
	db := r.getDB(ctx)

	type row struct {
		ID                uint
		ContentEmbedding  pq.Float64Array `gorm:"type:float8[]"`
		AudienceEmbedding pq.Float64Array `gorm:"type:float8[]"`
	}

	var rows []row
	query := r.applyFilter(db.Model(&models.Podcast{}), filter).
		Select("id, content_embedding, audience_embedding").
		Order("id ASC")

	if err := query.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list podcast embeddings: %w", err)
	}

	out := make([]PodcastEmbeddingRow, 0, len(rows))
	for _, rw := range rows {
		out = append(out, PodcastEmbeddingRow{
			PodcastID:         rw.ID,
			ContentEmbedding:  rw.ContentEmbedding,
			AudienceEmbedding: rw.AudienceEmbedding,
		})
	}
	return out, nil
}

// ByFilter retrieves podcasts based on filter criteria
func (r *PodcastRepositoryImpl) ByFilter(ctx context.Context, filter models.PodcastFilter, orderBy string, limit, offset int) ([]*models.Podcast, error) {
	db := r.getDB(ctx)

	var podcasts []*models.Podcast
	query := r.applyFilter(db, filter)

	// Apply ordering
	if orderBy != "" {
		query = query.Order(orderBy)
	}

	// Apply pagination
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	query = query.Preload("Analytics").
		Preload("SocialStats")

	err := query.Find(&podcasts).Error
	if err != nil {
		return nil, err
	}

	return podcasts, nil
}

// Count returns the number of podcasts matching the filter
func (r *PodcastRepositoryImpl) Count(ctx context.Context, filter models.PodcastFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.Podcast{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any podcast matching the filter exists
func (r *PodcastRepositoryImpl) Exists(ctx context.Context, filter models.PodcastFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *PodcastRepositoryImpl) applyFilter(db *gorm.DB, filter models.PodcastFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.Name != nil {
		db = db.Where("name ILIKE ?", "%"+*filter.Name+"%")
	}
	if filter.Category != nil {
		db = db.Where("? = ANY(categories)", *filter.Category)
	}
	if filter.Language != nil {
		db = db.Where("language = ?", *filter.Language)
	}
	if filter.Country != nil {
		db = db.Where("? = ANY(primary_countries)", *filter.Country)
	}
	if filter.MinAudienceSize != nil {
		db = db.Where("audience_size >= ?", *filter.MinAudienceSize)
	}
	if filter.MaxAudienceSize != nil {
		db = db.Where("audience_size <= ?", *filter.MaxAudienceSize)
	}
	if filter.HasEmbeddings != nil {
		if *filter.HasEmbeddings {
			db = db.Where("content_embedding IS NOT NULL AND audience_embedding IS NOT NULL")
		} else {
			db = db.Where("content_embedding IS NULL OR audience_embedding IS NULL")
		}
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at < ?", *filter.CreatedBefore)
	}

	return db
}
