package vendors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/localmart-app/localmart-backend/pkg/db/models"
	pkgerrors "github.com/localmart-app/localmart-backend/pkg/errors"
	"github.com/localmart-app/localmart-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// RegisterInput captures a vendor shop registration.
type RegisterInput struct {
	OwnerUserID uuid.UUID
	Name        string
	Description string
	Address     *types.Address
}

// UpdateProfileInput carries editable profile fields.
type UpdateProfileInput struct {
	Name        *string
	Description *string
	Address     *types.Address
}

// Service exposes vendor shop operations.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.Vendor, error)
	GetProfile(ctx context.Context, vendorID uuid.UUID) (*models.Vendor, error)
	UpdateProfile(ctx context.Context, vendorID uuid.UUID, input UpdateProfileInput) (*models.Vendor, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService wires a vendors service with the provided dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("vendors repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// Register creates the shop and promotes its owner to the vendor role in one
// transaction. A user owns at most one shop.
func (s *service) Register(ctx context.Context, input RegisterInput) (*models.Vendor, error) {
	if input.OwnerUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop name is required")
	}
	if input.Address == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop address is required")
	}
	if err := input.Address.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shop address")
	}

	var created *models.Vendor
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.FindByOwner(ctx, input.OwnerUserID); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "user already owns a shop")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing shop")
		}

		vendor := &models.Vendor{
			OwnerUserID: input.OwnerUserID,
			Name:        name,
			Description: strings.TrimSpace(input.Description),
			Address:     input.Address,
		}
		if _, err := repo.Create(ctx, vendor); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create vendor")
		}
		if err := repo.PromoteUserToVendor(ctx, input.OwnerUserID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "promote owner")
		}
		created = vendor
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) GetProfile(ctx context.Context, vendorID uuid.UUID) (*models.Vendor, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	vendor, err := s.repo.FindByID(ctx, vendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}
	return vendor, nil
}

func (s *service) UpdateProfile(ctx context.Context, vendorID uuid.UUID, input UpdateProfileInput) (*models.Vendor, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor context missing")
	}

	updates := map[string]any{"updated_at": time.Now().UTC()}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop name cannot be empty")
		}
		updates["name"] = name
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Address != nil {
		if err := input.Address.Validate(); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shop address")
		}
		raw, err := json.Marshal(input.Address)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "encode shop address")
		}
		updates["address"] = string(raw)
	}
	if len(updates) == 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	if err := s.repo.Update(ctx, vendorID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update vendor")
	}
	return s.GetProfile(ctx, vendorID)
}
