package timings

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/localmart-app/localmart-backend/pkg/db/models"
)

// Repository defines persistence operations for vendor shop hours.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.ShopTiming, error)
	ReplaceForVendor(ctx context.Context, vendorID uuid.UUID, rows []models.ShopTiming) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a timings repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.ShopTiming, error) {
	var rows []models.ShopTiming
	err := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("day_of_week ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ReplaceForVendor swaps the vendor's full weekly schedule in one shot.
// Callers run it inside a transaction so readers never see a partial week.
func (r *repository) ReplaceForVendor(ctx context.Context, vendorID uuid.UUID, rows []models.ShopTiming) error {
	q := r.db.WithContext(ctx)
	if err := q.Where("vendor_id = ?", vendorID).Delete(&models.ShopTiming{}).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return q.Create(&rows).Error
}
