package models

import (
	"time"

	"github.com/google/uuid"
)

// ShopTiming stores one row per vendor per weekday. OpensAt/ClosesAt hold
// "HH:MM" wall-clock strings in the vendor's local timezone.
type ShopTiming struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID  uuid.UUID `gorm:"column:vendor_id;type:uuid;not null;uniqueIndex:uq_shop_timings_vendor_day"`
	DayOfWeek int       `gorm:"column:day_of_week;not null;uniqueIndex:uq_shop_timings_vendor_day"`
	OpensAt   *string   `gorm:"column:opens_at"`
	ClosesAt  *string   `gorm:"column:closes_at"`
	Closed    bool      `gorm:"column:closed;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
