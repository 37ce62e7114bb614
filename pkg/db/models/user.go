package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/localmart-app/localmart-backend/pkg/enums"
)

// User represents the canonical identity entity. Customers, vendor owners,
// and delivery agents all authenticate through the same table.
type User struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Phone     string          `gorm:"column:phone;type:text;not null;uniqueIndex"`
	Name      string          `gorm:"column:name;type:text;not null;default:''"`
	Role      enums.ActorRole `gorm:"column:role;type:text;not null;default:'customer'"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
