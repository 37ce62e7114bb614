package discounts

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/localmart-app/localmart-backend/pkg/db"
	"github.com/localmart-app/localmart-backend/pkg/db/models"
	"github.com/localmart-app/localmart-backend/pkg/enums"
	pkgerrors "github.com/localmart-app/localmart-backend/pkg/errors"
	"github.com/localmart-app/localmart-backend/pkg/pagination"
)

var codePattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9_-]{2,31}$`)

var maxPercent = decimal.NewFromInt(100)

// CreateInput captures a new discount code.
type CreateInput struct {
	VendorID      uuid.UUID
	Code          string
	Type          enums.DiscountType
	Value         decimal.Decimal
	MinOrderTotal decimal.Decimal
	StartsAt      *time.Time
	EndsAt        *time.Time
}

// UpdateInput carries editable discount fields. Nil means "leave unchanged".
type UpdateInput struct {
	Value         *decimal.Decimal
	MinOrderTotal *decimal.Decimal
	Active        *bool
	StartsAt      *time.Time
	EndsAt        *time.Time
}

// Service exposes vendor discount management. Codes are unique per vendor
// case-insensitively; redemption happens inside order creation.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Discount, error)
	Update(ctx context.Context, vendorID, discountID uuid.UUID, input UpdateInput) (*models.Discount, error)
	Deactivate(ctx context.Context, vendorID, discountID uuid.UUID) error
	ListByVendor(ctx context.Context, vendorID uuid.UUID, params pagination.Params) (*DiscountList, error)
}

type service struct {
	repo Repository
}

// NewService wires a discounts service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("discounts repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Discount, error) {
	if input.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor context missing")
	}
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if !codePattern.MatchString(code) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code must be 3-32 chars of letters, digits, - or _")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown discount type %q", input.Type))
	}
	if err := validateValue(input.Type, input.Value); err != nil {
		return nil, err
	}
	if input.MinOrderTotal.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "minimum order total cannot be negative")
	}
	if err := validateWindow(input.StartsAt, input.EndsAt); err != nil {
		return nil, err
	}

	discount := &models.Discount{
		VendorID:      input.VendorID,
		Code:          code,
		Type:          input.Type,
		Value:         input.Value,
		MinOrderTotal: input.MinOrderTotal,
		Active:        true,
		StartsAt:      input.StartsAt,
		EndsAt:        input.EndsAt,
	}
	if _, err := s.repo.Create(ctx, discount); err != nil {
		if db.IsUniqueViolation(err, "uq_discounts_vendor_code") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("code %q already exists", code))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create discount")
	}
	return discount, nil
}

func (s *service) Update(ctx context.Context, vendorID, discountID uuid.UUID, input UpdateInput) (*models.Discount, error) {
	discount, err := s.ownedDiscount(ctx, vendorID, discountID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{"updated_at": time.Now().UTC()}
	if input.Value != nil {
		if err := validateValue(discount.Type, *input.Value); err != nil {
			return nil, err
		}
		updates["value"] = *input.Value
	}
	if input.MinOrderTotal != nil {
		if input.MinOrderTotal.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "minimum order total cannot be negative")
		}
		updates["min_order_total"] = *input.MinOrderTotal
	}
	if input.Active != nil {
		updates["active"] = *input.Active
	}
	startsAt := discount.StartsAt
	endsAt := discount.EndsAt
	if input.StartsAt != nil {
		startsAt = input.StartsAt
		updates["starts_at"] = *input.StartsAt
	}
	if input.EndsAt != nil {
		endsAt = input.EndsAt
		updates["ends_at"] = *input.EndsAt
	}
	if input.StartsAt != nil || input.EndsAt != nil {
		if err := validateWindow(startsAt, endsAt); err != nil {
			return nil, err
		}
	}
	if len(updates) == 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	if err := s.repo.Update(ctx, discount.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update discount")
	}
	return s.repo.FindByID(ctx, discount.ID)
}

func (s *service) Deactivate(ctx context.Context, vendorID, discountID uuid.UUID) error {
	discount, err := s.ownedDiscount(ctx, vendorID, discountID)
	if err != nil {
		return err
	}
	updates := map[string]any{
		"active":     false,
		"updated_at": time.Now().UTC(),
	}
	if err := s.repo.Update(ctx, discount.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate discount")
	}
	return nil
}

func (s *service) ListByVendor(ctx context.Context, vendorID uuid.UUID, params pagination.Params) (*DiscountList, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	list, err := s.repo.ListByVendor(ctx, vendorID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list discounts")
	}
	return list, nil
}

func (s *service) ownedDiscount(ctx context.Context, vendorID, discountID uuid.UUID) (*models.Discount, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor context missing")
	}
	discount, err := s.repo.FindByID(ctx, discountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "discount not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load discount")
	}
	if discount.VendorID != vendorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "discount does not belong to vendor")
	}
	return discount, nil
}

func validateValue(kind enums.DiscountType, value decimal.Decimal) error {
	if value.LessThanOrEqual(decimal.Zero) {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount value must be positive")
	}
	if kind == enums.DiscountTypePercent && value.GreaterThan(maxPercent) {
		return pkgerrors.New(pkgerrors.CodeValidation, "percent discount cannot exceed 100")
	}
	return nil
}

func validateWindow(startsAt, endsAt *time.Time) error {
	if startsAt != nil && endsAt != nil && !endsAt.After(*startsAt) {
		return pkgerrors.New(pkgerrors.CodeValidation, "ends_at must be after starts_at")
	}
	return nil
}
