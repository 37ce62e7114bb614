package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/localmart-app/localmart-backend/pkg/enums"
	"github.com/localmart-app/localmart-backend/pkg/types"
)

// Vendor is a shop on the marketplace. CompletedOrders and TotalEarnings are
// denormalized aggregates maintained in the same transaction that finalizes
// an order.
type Vendor struct {
	ID              uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerUserID     uuid.UUID          `gorm:"column:owner_user_id;type:uuid;not null"`
	Name            string             `gorm:"column:name;type:text;not null"`
	Description     string             `gorm:"column:description;type:text;not null;default:''"`
	Address         *types.Address     `gorm:"column:address;type:jsonb;serializer:json"`
	Status          enums.VendorStatus `gorm:"column:status;type:text;not null;default:'active'"`
	CompletedOrders int64              `gorm:"column:completed_orders;not null;default:0"`
	TotalEarnings   decimal.Decimal    `gorm:"column:total_earnings;type:numeric(14,2);not null;default:0"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
