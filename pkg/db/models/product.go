package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/localmart-app/localmart-backend/pkg/enums"
)

// Product is a single catalog item owned by a vendor.
type Product struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID    uuid.UUID           `gorm:"column:vendor_id;type:uuid;not null;index"`
	Name        string              `gorm:"column:name;type:text;not null"`
	Description string              `gorm:"column:description;type:text;not null;default:''"`
	Price       decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	Status      enums.ProductStatus `gorm:"column:status;type:text;not null;default:'active'"`
	Stock       int                 `gorm:"column:stock;not null;default:0"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
