package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/localmart-app/localmart-backend/api/middleware"
	"github.com/localmart-app/localmart-backend/api/responses"
	"github.com/localmart-app/localmart-backend/api/validators"
	"github.com/localmart-app/localmart-backend/internal/orders"
	"github.com/localmart-app/localmart-backend/pkg/enums"
	pkgerrors "github.com/localmart-app/localmart-backend/pkg/errors"
	"github.com/localmart-app/localmart-backend/pkg/logger"
)

type rejectOrderRequest struct {
	Note string `json:"note" validate:"max=500"`
}

// VendorAcceptOrder confirms a pending order.
func VendorAcceptOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return vendorTransition(logg, func(r *http.Request, c vendorCall) (any, error) {
		return svc.Accept(r.Context(), c.orderID, c.actorID, c.vendorID)
	})
}

// VendorRejectOrder declines a pending order with an optional note.
func VendorRejectOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := vendorCallFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req rejectOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Reject(r.Context(), c.orderID, c.actorID, c.vendorID, req.Note)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// VendorMarkPreparing moves a confirmed order into preparation.
func VendorMarkPreparing(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return vendorTransition(logg, func(r *http.Request, c vendorCall) (any, error) {
		return svc.MarkPreparing(r.Context(), c.orderID, c.actorID, c.vendorID)
	})
}

// VendorMarkReady flags the order as ready for pickup.
func VendorMarkReady(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return vendorTransition(logg, func(r *http.Request, c vendorCall) (any, error) {
		return svc.MarkReady(r.Context(), c.orderID, c.actorID, c.vendorID)
	})
}

// VendorOrders lists the shop's orders with an optional status filter.
func VendorOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
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

		filters := orders.ListFilters{}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown status filter"))
				return
			}
			filters.Status = &status
		}

		list, err := svc.ListVendorOrders(r.Context(), *vendorID, params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

type vendorCall struct {
	orderID, actorID, vendorID uuid.UUID
}

func vendorCallFrom(r *http.Request) (vendorCall, error) {
	orderID, err := validators.ParseUUIDParam(r, "orderId")
	if err != nil {
		return vendorCall{}, err
	}
	vendorID := middleware.VendorIDFromContext(r.Context())
	if vendorID == nil {
		return vendorCall{}, pkgerrors.New(pkgerrors.CodeForbidden, "vendor context missing")
	}
	return vendorCall{
		orderID:  orderID,
		actorID:  middleware.UserIDFromContext(r.Context()),
		vendorID: *vendorID,
	}, nil
}

func vendorTransition(logg *logger.Logger, run func(*http.Request, vendorCall) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := vendorCallFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := run(r, c)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
