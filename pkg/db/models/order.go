package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/localmart-app/localmart-backend/pkg/enums"
	"github.com/localmart-app/localmart-backend/pkg/types"
)

// Order is the lifecycle aggregate. Status moves only through the transition
// machine; writers must go through the guarded conditional update so
// concurrent actors cannot double-apply a transition.
type Order struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID       uuid.UUID           `gorm:"column:customer_id;type:uuid;not null"`
	VendorID         uuid.UUID           `gorm:"column:vendor_id;type:uuid;not null"`
	AgentID          *uuid.UUID          `gorm:"column:agent_id;type:uuid"`
	Status           enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentStatus    enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'unpaid'"`
	RequiresDelivery bool                `gorm:"column:requires_delivery;not null;default:false"`
	Subtotal         decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null;default:0"`
	DiscountTotal    decimal.Decimal     `gorm:"column:discount_total;type:numeric(12,2);not null;default:0"`
	Total            decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null;default:0"`
	DeliveryAddress  *types.Address      `gorm:"column:delivery_address;type:jsonb;serializer:json"`
	Note             string              `gorm:"column:note;type:text;not null;default:''"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderStatusEvent is an append-only history row written in the same
// transaction as the status change it records.
type OrderStatusEvent struct {
	ID         uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID          `gorm:"column:order_id;type:uuid;not null;index"`
	FromStatus *enums.OrderStatus `gorm:"column:from_status;type:text"`
	ToStatus   enums.OrderStatus  `gorm:"column:to_status;type:text;not null"`
	ActorRole  enums.ActorRole    `gorm:"column:actor_role;type:text;not null"`
	ActorID    *uuid.UUID         `gorm:"column:actor_id;type:uuid"`
	Note       string             `gorm:"column:note;type:text;not null;default:''"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime"`
}
