package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/localmart-app/localmart-backend/api/middleware"
	"github.com/localmart-app/localmart-backend/api/responses"
	"github.com/localmart-app/localmart-backend/api/validators"
	"github.com/localmart-app/localmart-backend/internal/orders"
	"github.com/localmart-app/localmart-backend/pkg/logger"
	"github.com/localmart-app/localmart-backend/pkg/types"
)

type createOrderRequest struct {
	VendorID         uuid.UUID                `json:"vendor_id" validate:"required"`
	Items            []createOrderItemRequest `json:"items" validate:"required,min=1,dive"`
	RequiresDelivery bool                     `json:"requires_delivery"`
	DeliveryAddress  *types.Address           `json:"delivery_address"`
	DiscountCode     string                   `json:"discount_code"`
	Note             string                   `json:"note" validate:"max=500"`
}

type createOrderItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Qty       int       `json:"qty" validate:"required,min=1"`
}

type cancelOrderRequest struct {
	Note string `json:"note" validate:"max=500"`
}

// CreateOrder places a new order for the authenticated customer.
func CreateOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]orders.CreateOrderItemInput, 0, len(req.Items))
		for _, item := range req.Items {
			items = append(items, orders.CreateOrderItemInput{ProductID: item.ProductID, Qty: item.Qty})
		}

		order, err := svc.Create(r.Context(), orders.CreateOrderInput{
			CustomerID:       middleware.UserIDFromContext(r.Context()),
			VendorID:         req.VendorID,
			Items:            items,
			RequiresDelivery: req.RequiresDelivery,
			DeliveryAddress:  req.DeliveryAddress,
			DiscountCode:     req.DiscountCode,
			Note:             req.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// CancelOrder lets the customer back out while the order is still pending.
func CancelOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req cancelOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Cancel(r.Context(), orderID, middleware.UserIDFromContext(r.Context()), req.Note)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// OrderStatus returns the scoped order view: row, raw history, and the
// checkpoint timeline.
func OrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.GetStatus(r.Context(), orderID, orders.StatusScope{
			ActorID:  middleware.UserIDFromContext(r.Context()),
			Role:     middleware.RoleFromContext(r.Context()),
			VendorID: middleware.VendorIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CustomerOrders lists the authenticated customer's orders, newest first.
func CustomerOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListCustomerOrders(r.Context(), middleware.UserIDFromContext(r.Context()), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
