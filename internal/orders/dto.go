package orders

import (
	"github.com/google/uuid"

	"github.com/localmart-app/localmart-backend/pkg/db/models"
	"github.com/localmart-app/localmart-backend/pkg/enums"
	"github.com/localmart-app/localmart-backend/pkg/types"
)

// CreateOrderInput captures everything a customer submits when placing an order.
type CreateOrderInput struct {
	CustomerID       uuid.UUID
	VendorID         uuid.UUID
	Items            []CreateOrderItemInput
	RequiresDelivery bool
	DeliveryAddress  *types.Address
	DiscountCode     string
	Note             string
}

// CreateOrderItemInput references a catalog product and quantity.
type CreateOrderItemInput struct {
	ProductID uuid.UUID
	Qty       int
}

// TransitionInput carries a single status-change request through the service.
type TransitionInput struct {
	OrderID  uuid.UUID
	Target   enums.OrderStatus
	ActorID  uuid.UUID
	Role     enums.ActorRole
	VendorID *uuid.UUID
	Note     string
}

// StatusScope identifies who is asking for an order's status.
type StatusScope struct {
	ActorID  uuid.UUID
	Role     enums.ActorRole
	VendorID *uuid.UUID
}

// StatusView is the full read model for one order: current row, raw history,
// and the derived checkpoint timeline.
type StatusView struct {
	Order       *models.Order             `json:"order"`
	Items       []models.OrderItem        `json:"items"`
	Timeline    []models.OrderStatusEvent `json:"timeline"`
	Checkpoints []Checkpoint              `json:"checkpoints"`
}

// ListFilters narrows order listings.
type ListFilters struct {
	Status *enums.OrderStatus
}

// OrderList is one cursor page of orders.
type OrderList struct {
	Orders     []models.Order `json:"orders"`
	NextCursor *string        `json:"next_cursor,omitempty"`
}
