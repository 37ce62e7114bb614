package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/localmart-app/localmart-backend/pkg/enums"
)

// ChatThread is the single conversation channel attached to an order.
type ChatThread struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID `gorm:"column:order_id;type:uuid;not null;uniqueIndex:uq_chat_threads_order_id"`
	CustomerID uuid.UUID `gorm:"column:customer_id;type:uuid;not null"`
	VendorID   uuid.UUID `gorm:"column:vendor_id;type:uuid;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

// ChatMessage is a single message inside a thread. Messages are immutable.
type ChatMessage struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ThreadID   uuid.UUID       `gorm:"column:thread_id;type:uuid;not null;index"`
	SenderRole enums.ActorRole `gorm:"column:sender_role;type:text;not null"`
	SenderID   uuid.UUID       `gorm:"column:sender_id;type:uuid;not null"`
	Body       string          `gorm:"column:body;type:text;not null"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
}
