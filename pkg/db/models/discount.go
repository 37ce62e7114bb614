package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/localmart-app/localmart-backend/pkg/enums"
)

// Discount is a vendor-scoped promotion code.
type Discount struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID      uuid.UUID          `gorm:"column:vendor_id;type:uuid;not null"`
	Code          string             `gorm:"column:code;type:text;not null"`
	Type          enums.DiscountType `gorm:"column:type;type:text;not null"`
	Value         decimal.Decimal    `gorm:"column:value;type:numeric(12,2);not null"`
	MinOrderTotal decimal.Decimal    `gorm:"column:min_order_total;type:numeric(12,2);not null;default:0"`
	Active        bool               `gorm:"column:active;not null;default:true"`
	StartsAt      *time.Time         `gorm:"column:starts_at"`
	EndsAt        *time.Time         `gorm:"column:ends_at"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
