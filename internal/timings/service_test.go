package timings

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/localmart-app/localmart-backend/pkg/db/models"
	pkgerrors "github.com/localmart-app/localmart-backend/pkg/errors"
)

type stubTimingsRepo struct {
	byVendor map[uuid.UUID][]models.ShopTiming
}

func newStubTimingsRepo() *stubTimingsRepo {
	return &stubTimingsRepo{byVendor: make(map[uuid.UUID][]models.ShopTiming)}
}

func (s *stubTimingsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubTimingsRepo) ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.ShopTiming, error) {
	return s.byVendor[vendorID], nil
}

func (s *stubTimingsRepo) ReplaceForVendor(ctx context.Context, vendorID uuid.UUID, rows []models.ShopTiming) error {
	s.byVendor[vendorID] = rows
	return nil
}

type nopTx struct{}

func (nopTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

func strptr(s string) *string { return &s }

// Monday 2026-03-02 at the given wall clock, UTC.
func monday(t *testing.T, clock string) time.Time {
	t.Helper()
	at, err := time.Parse("2006-01-02 15:04", "2026-03-02 "+clock)
	if err != nil {
		t.Fatalf("parse time: %v", err)
	}
	return at
}

func TestSetWeekValidation(t *testing.T) {
	svc, _ := NewService(newStubTimingsRepo(), nopTx{})
	vendorID := uuid.New()
	ctx := context.Background()

	cases := []struct {
		name string
		days []DayInput
	}{
		{"empty", nil},
		{"day out of range", []DayInput{{DayOfWeek: 7, Closed: true}}},
		{"duplicate day", []DayInput{{DayOfWeek: 1, Closed: true}, {DayOfWeek: 1, Closed: true}}},
		{"open day missing times", []DayInput{{DayOfWeek: 1}}},
		{"bad clock", []DayInput{{DayOfWeek: 1, OpensAt: strptr("9am"), ClosesAt: strptr("17:00")}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.SetWeek(ctx, vendorID, tc.days); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestOpenAtDaytimeWindow(t *testing.T) {
	repo := newStubTimingsRepo()
	svc, _ := NewService(repo, nopTx{})
	vendorID := uuid.New()
	ctx := context.Background()

	_, err := svc.SetWeek(ctx, vendorID, []DayInput{
		{DayOfWeek: 1, OpensAt: strptr("09:00"), ClosesAt: strptr("17:00")},
		{DayOfWeek: 2, Closed: true},
	})
	if err != nil {
		t.Fatalf("set week: %v", err)
	}

	cases := []struct {
		clock string
		want  bool
	}{
		{"08:59", false},
		{"09:00", true},
		{"12:30", true},
		{"16:59", true},
		{"17:00", false},
	}
	for _, tc := range cases {
		open, err := svc.IsOpenAt(ctx, vendorID, monday(t, tc.clock))
		if err != nil {
			t.Fatalf("is open at %s: %v", tc.clock, err)
		}
		if open != tc.want {
			t.Fatalf("at %s: open = %v, want %v", tc.clock, open, tc.want)
		}
	}
}

func TestOpenAtOvernightWindow(t *testing.T) {
	repo := newStubTimingsRepo()
	svc, _ := NewService(repo, nopTx{})
	vendorID := uuid.New()
	ctx := context.Background()

	// Sunday opens 22:00 and closes 02:00 Monday morning.
	_, err := svc.SetWeek(ctx, vendorID, []DayInput{
		{DayOfWeek: 0, OpensAt: strptr("22:00"), ClosesAt: strptr("02:00")},
		{DayOfWeek: 1, Closed: true},
	})
	if err != nil {
		t.Fatalf("set week: %v", err)
	}

	cases := []struct {
		clock string
		want  bool
	}{
		{"01:00", true},
		{"01:59", true},
		{"02:00", false},
		{"12:00", false},
	}
	for _, tc := range cases {
		open, err := svc.IsOpenAt(ctx, vendorID, monday(t, tc.clock))
		if err != nil {
			t.Fatalf("is open at %s: %v", tc.clock, err)
		}
		if open != tc.want {
			t.Fatalf("monday %s: open = %v, want %v", tc.clock, open, tc.want)
		}
	}
}

func TestOpenAtNoSchedule(t *testing.T) {
	svc, _ := NewService(newStubTimingsRepo(), nopTx{})
	open, err := svc.IsOpenAt(context.Background(), uuid.New(), monday(t, "12:00"))
	if err != nil {
		t.Fatalf("is open: %v", err)
	}
	if open {
		t.Fatalf("vendor without schedule should read closed")
	}
}
