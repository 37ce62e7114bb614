package discounts

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/localmart-app/localmart-backend/pkg/db/models"
	"github.com/localmart-app/localmart-backend/pkg/enums"
	pkgerrors "github.com/localmart-app/localmart-backend/pkg/errors"
	"github.com/localmart-app/localmart-backend/pkg/pagination"
)

type stubDiscountsRepo struct {
	byID map[uuid.UUID]*models.Discount
}

func newStubDiscountsRepo() *stubDiscountsRepo {
	return &stubDiscountsRepo{byID: make(map[uuid.UUID]*models.Discount)}
}

func (s *stubDiscountsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubDiscountsRepo) Create(ctx context.Context, discount *models.Discount) (*models.Discount, error) {
	for _, existing := range s.byID {
		if existing.VendorID == discount.VendorID && strings.EqualFold(existing.Code, discount.Code) {
			return nil, errors.New(`ERROR: duplicate key value violates unique constraint "uq_discounts_vendor_code" (SQLSTATE 23505)`)
		}
	}
	if discount.ID == uuid.Nil {
		discount.ID = uuid.New()
	}
	s.byID[discount.ID] = discount
	return discount, nil
}

func (s *stubDiscountsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Discount, error) {
	discount, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return discount, nil
}

func (s *stubDiscountsRepo) FindByCode(ctx context.Context, vendorID uuid.UUID, code string) (*models.Discount, error) {
	for _, discount := range s.byID {
		if discount.VendorID == vendorID && strings.EqualFold(discount.Code, code) {
			return discount, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubDiscountsRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	discount, ok := s.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if value, ok := updates["value"].(decimal.Decimal); ok {
		discount.Value = value
	}
	if active, ok := updates["active"].(bool); ok {
		discount.Active = active
	}
	return nil
}

func (s *stubDiscountsRepo) ListByVendor(ctx context.Context, vendorID uuid.UUID, params pagination.Params) (*DiscountList, error) {
	var rows []models.Discount
	for _, discount := range s.byID {
		if discount.VendorID == vendorID {
			rows = append(rows, *discount)
		}
	}
	return &DiscountList{Discounts: rows}, nil
}

func TestCreateDiscountNormalizesCode(t *testing.T) {
	svc, _ := NewService(newStubDiscountsRepo())
	vendorID := uuid.New()

	discount, err := svc.Create(context.Background(), CreateInput{
		VendorID: vendorID,
		Code:     "  chai10 ",
		Type:     enums.DiscountTypePercent,
		Value:    decimal.NewFromInt(10),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if discount.Code != "CHAI10" {
		t.Fatalf("code should be uppercased, got %q", discount.Code)
	}
	if !discount.Active {
		t.Fatalf("new discounts start active")
	}
}

func TestCreateDiscountDuplicateCode(t *testing.T) {
	svc, _ := NewService(newStubDiscountsRepo())
	vendorID := uuid.New()
	ctx := context.Background()

	input := CreateInput{VendorID: vendorID, Code: "CHAI10", Type: enums.DiscountTypeFlat, Value: decimal.NewFromInt(20)}
	if _, err := svc.Create(ctx, input); err != nil {
		t.Fatalf("first create: %v", err)
	}
	input.Code = "chai10"
	_, err := svc.Create(ctx, input)
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("duplicate code should conflict, got %v", err)
	}
}

func TestCreateDiscountValidation(t *testing.T) {
	svc, _ := NewService(newStubDiscountsRepo())
	vendorID := uuid.New()
	ctx := context.Background()
	now := time.Now().UTC()
	earlier := now.Add(-time.Hour)

	cases := []struct {
		name  string
		input CreateInput
	}{
		{"bad code", CreateInput{VendorID: vendorID, Code: "a", Type: enums.DiscountTypeFlat, Value: decimal.NewFromInt(5)}},
		{"unknown type", CreateInput{VendorID: vendorID, Code: "CHAI10", Type: "half-off", Value: decimal.NewFromInt(5)}},
		{"zero value", CreateInput{VendorID: vendorID, Code: "CHAI10", Type: enums.DiscountTypeFlat}},
		{"percent over 100", CreateInput{VendorID: vendorID, Code: "CHAI10", Type: enums.DiscountTypePercent, Value: decimal.NewFromInt(150)}},
		{"inverted window", CreateInput{VendorID: vendorID, Code: "CHAI10", Type: enums.DiscountTypeFlat, Value: decimal.NewFromInt(5), StartsAt: &now, EndsAt: &earlier}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tc.input); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestDeactivateDiscountScopedToVendor(t *testing.T) {
	repo := newStubDiscountsRepo()
	svc, _ := NewService(repo)
	vendorID := uuid.New()
	ctx := context.Background()

	discount, err := svc.Create(ctx, CreateInput{VendorID: vendorID, Code: "CHAI10", Type: enums.DiscountTypeFlat, Value: decimal.NewFromInt(5)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Deactivate(ctx, uuid.New(), discount.ID); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("foreign vendor should be forbidden, got %v", err)
	}
	if err := svc.Deactivate(ctx, vendorID, discount.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if repo.byID[discount.ID].Active {
		t.Fatalf("discount should be inactive")
	}
}
