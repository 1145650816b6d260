package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/podmatch/podmatch/utils"
	"gorm.io/gorm"
)

// BrandProfile represents an advertiser brand.
// A brand is unique per domain; campaigns belong to exactly one brand.
// The four embeddings cover distinct semantic views of the brand and are
// produced upstream: brand identity, target audience, product catalog, and
// preferred content themes.
type BrandProfile struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UUID        uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uk_brand_profiles_uuid" json:"uuid"`
	Domain      string         `gorm:"size:255;not null;uniqueIndex:uk_brand_profiles_domain" json:"domain"`
	CompanyName string         `gorm:"size:500;not null" json:"company_name"`
	Industry    *string        `gorm:"size:255;index:idx_brand_profiles_industry" json:"industry,omitempty"`
	CompanySize *string        `gorm:"size:50" json:"company_size,omitempty"`
	Products    pq.StringArray `gorm:"type:text[]" json:"products"`

	TargetAgeMin    *int           `gorm:"check:target_age_min >= 0" json:"target_age_min,omitempty"`
	TargetAgeMax    *int           `json:"target_age_max,omitempty"`
	TargetGender    *string        `gorm:"size:20" json:"target_gender,omitempty"`
	TargetCountries pq.StringArray `gorm:"type:text[]" json:"target_countries"`
	TargetInterests pq.StringArray `gorm:"type:text[]" json:"target_interests"`

	BrandEmbedding        pq.Float64Array `gorm:"type:float8[]" json:"brand_embedding,omitempty"`
	AudienceEmbedding     pq.Float64Array `gorm:"type:float8[]" json:"audience_embedding,omitempty"`
	ProductEmbedding      pq.Float64Array `gorm:"type:float8[]" json:"product_embedding,omitempty"`
	ContentThemeEmbedding pq.Float64Array `gorm:"type:float8[]" json:"content_theme_embedding,omitempty"`

	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`

	// Relations
	Campaigns []Campaign `gorm:"foreignKey:BrandProfileID" json:"campaigns,omitempty"`
}

// TableName returns the table name for the model
func (BrandProfile) TableName() string {
	return "brand_profiles"
}

// BeforeCreate is called before creating a new record
func (b *BrandProfile) BeforeCreate(tx *gorm.DB) error {
	if b.UUID == uuid.Nil {
		b.UUID = uuid.New()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (b *BrandProfile) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	b.UpdatedAt = &now
	return nil
}

// BrandProfileFilter represents filter criteria for brand profile queries
type BrandProfileFilter struct {
	ID            *uint      `json:"id,omitempty"`
	UUID          *uuid.UUID `json:"uuid,omitempty"`
	Domain        *string    `json:"domain,omitempty"`
	Industry      *string    `json:"industry,omitempty"`
	CompanyName   *string    `json:"company_name,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
}
