package earnings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/localmart-app/localmart-backend/pkg/errors"
	"github.com/localmart-app/localmart-backend/pkg/pagination"
)

// Granularities accepted by Summary.
const (
	GranularityDay   = "day"
	GranularityWeek  = "week"
	GranularityMonth = "month"
)

var summaryWindows = map[string]time.Duration{
	GranularityDay:   30 * 24 * time.Hour,
	GranularityWeek:  12 * 7 * 24 * time.Hour,
	GranularityMonth: 365 * 24 * time.Hour,
}

// SummaryResult is the dashboard payload: per-period buckets plus the
// all-time totals.
type SummaryResult struct {
	Granularity string   `json:"granularity"`
	Buckets     []Bucket `json:"buckets"`
	Totals      Totals   `json:"totals"`
}

// Service exposes read operations over the earnings ledger. Records are only
// ever written by the order lifecycle, in the delivery transaction.
type Service interface {
	List(ctx context.Context, vendorID uuid.UUID, params pagination.Params) (*RecordList, error)
	Summary(ctx context.Context, vendorID uuid.UUID, granularity string) (*SummaryResult, error)
}

type service struct {
	repo Repository
}

// NewService wires an earnings service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("earnings repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, vendorID uuid.UUID, params pagination.Params) (*RecordList, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor context missing")
	}
	list, err := s.repo.ListByVendor(ctx, vendorID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list earnings")
	}
	return list, nil
}

func (s *service) Summary(ctx context.Context, vendorID uuid.UUID, granularity string) (*SummaryResult, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor context missing")
	}
	window, ok := summaryWindows[granularity]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown granularity %q", granularity))
	}

	since := time.Now().UTC().Add(-window)
	buckets, err := s.repo.Summarize(ctx, vendorID, granularity, since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summarize earnings")
	}
	totals, err := s.repo.TotalsForVendor(ctx, vendorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load earnings totals")
	}

	return &SummaryResult{
		Granularity: granularity,
		Buckets:     buckets,
		Totals:      *totals,
	}, nil
}
