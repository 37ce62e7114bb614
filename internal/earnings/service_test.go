package earnings

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	pkgerrors "github.com/localmart-app/localmart-backend/pkg/errors"
	"github.com/localmart-app/localmart-backend/pkg/pagination"
)

type stubEarningsRepo struct {
	list    *RecordList
	buckets []Bucket
	totals  *Totals

	gotGranularity string
	gotSince       time.Time
}

func (s *stubEarningsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubEarningsRepo) ListByVendor(ctx context.Context, vendorID uuid.UUID, params pagination.Params) (*RecordList, error) {
	return s.list, nil
}

func (s *stubEarningsRepo) Summarize(ctx context.Context, vendorID uuid.UUID, granularity string, since time.Time) ([]Bucket, error) {
	s.gotGranularity = granularity
	s.gotSince = since
	return s.buckets, nil
}

func (s *stubEarningsRepo) TotalsForVendor(ctx context.Context, vendorID uuid.UUID) (*Totals, error) {
	return s.totals, nil
}

func TestSummaryRejectsUnknownGranularity(t *testing.T) {
	svc, _ := NewService(&stubEarningsRepo{})
	_, err := svc.Summary(context.Background(), uuid.New(), "hour")
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSummaryRequiresVendorScope(t *testing.T) {
	svc, _ := NewService(&stubEarningsRepo{})
	_, err := svc.Summary(context.Background(), uuid.Nil, GranularityDay)
	if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestSummaryBoundsTheWindow(t *testing.T) {
	repo := &stubEarningsRepo{
		buckets: []Bucket{{PeriodStart: time.Now().UTC(), OrderCount: 3, Amount: decimal.NewFromInt(250)}},
		totals:  &Totals{OrderCount: 10, Amount: decimal.NewFromInt(900)},
	}
	svc, _ := NewService(repo)

	result, err := svc.Summary(context.Background(), uuid.New(), GranularityWeek)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if repo.gotGranularity != GranularityWeek {
		t.Fatalf("granularity not forwarded: %s", repo.gotGranularity)
	}
	lookback := time.Since(repo.gotSince)
	if lookback < 11*7*24*time.Hour || lookback > 13*7*24*time.Hour {
		t.Fatalf("weekly window should look back ~12 weeks, got %s", lookback)
	}
	if result.Totals.OrderCount != 10 || len(result.Buckets) != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
}
