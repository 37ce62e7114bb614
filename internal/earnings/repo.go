package earnings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/localmart-app/localmart-backend/pkg/db/models"
	"github.com/localmart-app/localmart-backend/pkg/pagination"
)

// RecordList is one cursor page of earnings records.
type RecordList struct {
	Records    []models.EarningsRecord `json:"records"`
	NextCursor *string                 `json:"next_cursor,omitempty"`
}

// Bucket is one aggregation row for the vendor dashboard.
type Bucket struct {
	PeriodStart time.Time       `json:"period_start"`
	OrderCount  int64           `json:"order_count"`
	Amount      decimal.Decimal `json:"amount"`
}

// Totals is the all-time rollup for a vendor.
type Totals struct {
	OrderCount int64           `json:"order_count"`
	Amount     decimal.Decimal `json:"amount"`
}

// Repository defines persistence operations for the earnings ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListByVendor(ctx context.Context, vendorID uuid.UUID, params pagination.Params) (*RecordList, error)
	Summarize(ctx context.Context, vendorID uuid.UUID, granularity string, since time.Time) ([]Bucket, error)
	TotalsForVendor(ctx context.Context, vendorID uuid.UUID) (*Totals, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an earnings repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListByVendor(ctx context.Context, vendorID uuid.UUID, params pagination.Params) (*RecordList, error) {
	q := r.db.WithContext(ctx).Where("vendor_id = ?", vendorID)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	limit := pagination.NormalizeLimit(params.Limit)
	var rows []models.EarningsRecord
	if err := q.Order("created_at DESC, id DESC").Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &RecordList{Records: rows}
	if len(rows) > limit {
		list.Records = rows[:limit]
		last := list.Records[len(list.Records)-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		list.NextCursor = &next
	}
	return list, nil
}

func (r *repository) Summarize(ctx context.Context, vendorID uuid.UUID, granularity string, since time.Time) ([]Bucket, error) {
	var buckets []Bucket
	err := r.db.WithContext(ctx).
		Model(&models.EarningsRecord{}).
		Select("date_trunc(?, created_at) AS period_start, count(*) AS order_count, coalesce(sum(amount), 0) AS amount", granularity).
		Where("vendor_id = ? AND created_at >= ?", vendorID, since).
		Group("period_start").
		Order("period_start DESC").
		Scan(&buckets).Error
	if err != nil {
		return nil, err
	}
	return buckets, nil
}

func (r *repository) TotalsForVendor(ctx context.Context, vendorID uuid.UUID) (*Totals, error) {
	var totals Totals
	err := r.db.WithContext(ctx).
		Model(&models.EarningsRecord{}).
		Select("count(*) AS order_count, coalesce(sum(amount), 0) AS amount").
		Where("vendor_id = ?", vendorID).
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return &totals, nil
}
