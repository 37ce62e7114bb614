package controllers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/localmart-app/localmart-backend/api/middleware"
	"github.com/localmart-app/localmart-backend/api/responses"
	"github.com/localmart-app/localmart-backend/api/validators"
	"github.com/localmart-app/localmart-backend/internal/discounts"
	"github.com/localmart-app/localmart-backend/pkg/enums"
	pkgerrors "github.com/localmart-app/localmart-backend/pkg/errors"
	"github.com/localmart-app/localmart-backend/pkg/logger"
)

type createDiscountRequest struct {
	Code          string          `json:"code" validate:"required"`
	Type          string          `json:"type" validate:"required"`
	Value         decimal.Decimal `json:"value" validate:"required"`
	MinOrderTotal decimal.Decimal `json:"min_order_total"`
	StartsAt      *time.Time      `json:"starts_at"`
	EndsAt        *time.Time      `json:"ends_at"`
}

type updateDiscountRequest struct {
	Value         *decimal.Decimal `json:"value"`
	MinOrderTotal *decimal.Decimal `json:"min_order_total"`
	Active        *bool            `json:"active"`
	StartsAt      *time.Time       `json:"starts_at"`
	EndsAt        *time.Time       `json:"ends_at"`
}

// VendorCreateDiscount registers a new promo code for the shop.
func VendorCreateDiscount(svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID := middleware.VendorIDFromContext(r.Context())
		if vendorID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "vendor context missing"))
			return
		}
		var req createDiscountRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		kind, err := enums.ParseDiscountType(req.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "type must be percent or flat"))
			return
		}

		discount, err := svc.Create(r.Context(), discounts.CreateInput{
			VendorID:      *vendorID,
			Code:          req.Code,
			Type:          kind,
			Value:         req.Value,
			MinOrderTotal: req.MinOrderTotal,
			StartsAt:      req.StartsAt,
			EndsAt:        req.EndsAt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, discount)
	}
}

// VendorUpdateDiscount edits a promo code's value, window, or active flag.
func VendorUpdateDiscount(svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID := middleware.VendorIDFromContext(r.Context())
		if vendorID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "vendor context missing"))
			return
		}
		discountID, err := validators.ParseUUIDParam(r, "discountId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req updateDiscountRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		discount, err := svc.Update(r.Context(), *vendorID, discountID, discounts.UpdateInput{
			Value:         req.Value,
			MinOrderTotal: req.MinOrderTotal,
			Active:        req.Active,
			StartsAt:      req.StartsAt,
			EndsAt:        req.EndsAt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, discount)
	}
}

// VendorDeactivateDiscount turns a promo code off.
func VendorDeactivateDiscount(svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID := middleware.VendorIDFromContext(r.Context())
		if vendorID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "vendor context missing"))
			return
		}
		discountID, err := validators.ParseUUIDParam(r, "discountId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Deactivate(r.Context(), *vendorID, discountID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"active": false})
	}
}

// VendorDiscounts lists the shop's promo codes.
func VendorDiscounts(svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID := middleware.VendorIDFromContext(r.Context())
		if vendorID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "vendor context missing"))
			return
		}
		params, err := validators.ParsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListByVendor(r.Context(), *vendorID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
