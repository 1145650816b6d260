package repository

import (
	"context"
	"strings"

	"github.com/podmatch/podmatch/models"
	"github.com/podmatch/podmatch/utils"
	"gorm.io/gorm"
)

// BrandProfileRepositoryImpl implements the BrandProfileRepository interface
type BrandProfileRepositoryImpl struct {
	*BaseRepository[models.BrandProfile, models.BrandProfileFilter]
}

// NewBrandProfileRepository creates a new brand profile repository
func NewBrandProfileRepository(db *gorm.DB) BrandProfileRepository {
	return &BrandProfileRepositoryImpl{
		BaseRepository: NewBaseRepository[models.BrandProfile, models.BrandProfileFilter](db),
	}
}

// ByUUID retrieves a brand profile by UUID
func (r *BrandProfileRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.BrandProfile, error) {
	parsedUUID, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, err
	}

	filter := models.BrandProfileFilter{UUID: &parsedUUID}
	brands, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, err
	}

	if len(brands) == 0 {
		return nil, nil
	}

	return brands[0], nil
}

// ByDomain retrieves a brand profile by its unique domain
func (r *BrandProfileRepositoryImpl) ByDomain(ctx context.Context, domain string) (*models.BrandProfile, error) {
	normalized := strings.ToLower(strings.TrimSpace(domain))
	filter := models.BrandProfileFilter{Domain: &normalized}
	brands, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, err
	}

	if len(brands) == 0 {
		return nil, nil
	}

	return brands[0], nil
}

// ByFilter retrieves brand profiles based on filter criteria
func (r *BrandProfileRepositoryImpl) ByFilter(ctx context.Context, filter models.BrandProfileFilter, orderBy string, limit, offset int) ([]*models.BrandProfile, error) {
	db := r.getDB(ctx)

	var brands []*models.BrandProfile
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

	err := query.Find(&brands).Error
	if err != nil {
		return nil, err
	}

	return brands, nil
}

// Count returns the number of brand profiles matching the filter
func (r *BrandProfileRepositoryImpl) Count(ctx context.Context, filter models.BrandProfileFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.BrandProfile{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any brand profile matching the filter exists
func (r *BrandProfileRepositoryImpl) Exists(ctx context.Context, filter models.BrandProfileFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *BrandProfileRepositoryImpl) applyFilter(db *gorm.DB, filter models.BrandProfileFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.Domain != nil {
		db = db.Where("domain = ?", *filter.Domain)
	}
	if filter.Industry != nil {
		db = db.Where("industry = ?", *filter.Industry)
	}
	if filter.CompanyName != nil {
		db = db.Where("company_name ILIKE ?", "%"+*filter.CompanyName+"%")
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at < ?", *filter.CreatedBefore)
	}

	return db
}
