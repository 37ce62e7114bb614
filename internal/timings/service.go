package timings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/localmart-app/localmart-backend/pkg/db/models"
	pkgerrors "github.com/localmart-app/localmart-backend/pkg/errors"
)

const clockLayout = "15:04"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// DayInput is one weekday's window. Closed days carry no times.
type DayInput struct {
	DayOfWeek int     `json:"day_of_week" validate:"min=0,max=6"`
	Closed    bool    `json:"closed"`
	OpensAt   *string `json:"opens_at,omitempty"`
	ClosesAt  *string `json:"closes_at,omitempty"`
}

// WeekView is the vendor's stored schedule plus the open-now verdict.
type WeekView struct {
	Days    []models.ShopTiming `json:"days"`
	OpenNow bool                `json:"open_now"`
}

// Service exposes vendor shop-hours management and the open-now check.
//
// Times are "HH:MM" wall-clock strings evaluated against the location of the
// time passed to the open-now check; windows where closes_at <= opens_at wrap
// past midnight into the next day.
type Service interface {
	SetWeek(ctx context.Context, vendorID uuid.UUID, days []DayInput) (*WeekView, error)
	GetWeek(ctx context.Context, vendorID uuid.UUID, at time.Time) (*WeekView, error)
	IsOpenAt(ctx context.Context, vendorID uuid.UUID, at time.Time) (bool, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService wires a timings service with the provided dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("timings repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) SetWeek(ctx context.Context, vendorID uuid.UUID, days []DayInput) (*WeekView, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor context missing")
	}
	if len(days) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one day is required")
	}

	seen := make(map[int]bool, len(days))
	rows := make([]models.ShopTiming, 0, len(days))
	for _, day := range days {
		if day.DayOfWeek < 0 || day.DayOfWeek > 6 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("day_of_week %d out of range", day.DayOfWeek))
		}
		if seen[day.DayOfWeek] {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("day_of_week %d listed twice", day.DayOfWeek))
		}
		seen[day.DayOfWeek] = true

		row := models.ShopTiming{VendorID: vendorID, DayOfWeek: day.DayOfWeek, Closed: day.Closed}
		if !day.Closed {
			if day.OpensAt == nil || day.ClosesAt == nil {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "open days need opens_at and closes_at")
			}
			if _, err := parseClock(*day.OpensAt); err != nil {
				return nil, err
			}
			if _, err := parseClock(*day.ClosesAt); err != nil {
				return nil, err
			}
			row.OpensAt = day.OpensAt
			row.ClosesAt = day.ClosesAt
		}
		rows = append(rows, row)
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).ReplaceForVendor(ctx, vendorID, rows); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace shop timings")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetWeek(ctx, vendorID, time.Now())
}

func (s *service) GetWeek(ctx context.Context, vendorID uuid.UUID, at time.Time) (*WeekView, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	days, err := s.repo.ListByVendor(ctx, vendorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shop timings")
	}
	return &WeekView{Days: days, OpenNow: openAt(days, at)}, nil
}

func (s *service) IsOpenAt(ctx context.Context, vendorID uuid.UUID, at time.Time) (bool, error) {
	week, err := s.GetWeek(ctx, vendorID, at)
	if err != nil {
		return false, err
	}
	return week.OpenNow, nil
}

// openAt checks the window for at's weekday and, for overnight windows, the
// tail of the previous day's window. A shop with no rows is treated as closed.
func openAt(days []models.ShopTiming, at time.Time) bool {
	byDay := make(map[int]models.ShopTiming, len(days))
	for _, day := range days {
		byDay[day.DayOfWeek] = day
	}

	minute := at.Hour()*60 + at.Minute()
	today := int(at.Weekday())

	if day, ok := byDay[today]; ok && !day.Closed && day.OpensAt != nil && day.ClosesAt != nil {
		opens, closes := mustClock(*day.OpensAt), mustClock(*day.ClosesAt)
		if closes > opens {
			if minute >= opens && minute < closes {
				return true
			}
		} else if minute >= opens {
			return true
		}
	}

	yesterday := (today + 6) % 7
	if day, ok := byDay[yesterday]; ok && !day.Closed && day.OpensAt != nil && day.ClosesAt != nil {
		opens, closes := mustClock(*day.OpensAt), mustClock(*day.ClosesAt)
		if closes <= opens && minute < closes {
			return true
		}
	}
	return false
}

func parseClock(value string) (int, error) {
	t, err := time.Parse(clockLayout, value)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid time %q, want HH:MM", value))
	}
	return t.Hour()*60 + t.Minute(), nil
}

// mustClock assumes the value passed SetWeek validation.
func mustClock(value string) int {
	minute, err := parseClock(value)
	if err != nil {
		return 0
	}
	return minute
}
