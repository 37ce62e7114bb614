package orders

import (
	"context"
	"errors"
	"fmt"
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

const statusReadAttempts = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type transitionMetrics interface {
	IncTransition(from, to, outcome string)
}

// Service defines order lifecycle operations.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	RequestTransition(ctx context.Context, input TransitionInput) (*models.Order, error)
	Accept(ctx context.Context, orderID, actorID uuid.UUID, vendorID uuid.UUID) (*models.Order, error)
	Reject(ctx context.Context, orderID, actorID uuid.UUID, vendorID uuid.UUID, note string) (*models.Order, error)
	MarkPreparing(ctx context.Context, orderID, actorID uuid.UUID, vendorID uuid.UUID) (*models.Order, error)
	MarkReady(ctx context.Context, orderID, actorID uuid.UUID, vendorID uuid.UUID) (*models.Order, error)
	Claim(ctx context.Context, orderID, agentID uuid.UUID) (*models.Order, error)
	Pickup(ctx context.Context, orderID, agentID uuid.UUID) (*models.Order, error)
	StartDelivery(ctx context.Context, orderID, agentID uuid.UUID) (*models.Order, error)
	Deliver(ctx context.Context, orderID, agentID uuid.UUID) (*models.Order, error)
	Cancel(ctx context.Context, orderID, customerID uuid.UUID, note string) (*models.Order, error)
	GetStatus(ctx context.Context, orderID uuid.UUID, scope StatusScope) (*StatusView, error)
	ListVendorOrders(ctx context.Context, vendorID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error)
	ListCustomerOrders(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*OrderList, error)
	ListQueue(ctx context.Context, params pagination.Params) (*OrderList, error)
	ListAgentOrders(ctx context.Context, agentID uuid.UUID, params pagination.Params) (*OrderList, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	metrics transitionMetrics
}

// NewService builds the order lifecycle service.
func NewService(repo Repository, tx txRunner, metrics transitionMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, metrics: metrics}, nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil || item.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "each item needs a product id and a positive quantity")
		}
	}
	if input.RequiresDelivery {
		if input.DeliveryAddress == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address required for delivery orders")
		}
		if err := input.DeliveryAddress.Validate(); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery address")
		}
	}

	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		ids := make([]uuid.UUID, 0, len(input.Items))
		for _, item := range input.Items {
			ids = append(ids, item.ProductID)
		}
		products, err := repo.FindProductsForVendor(ctx, input.VendorID, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
		}
		byID := make(map[uuid.UUID]models.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}

		subtotal := decimal.Zero
		items := make([]models.OrderItem, 0, len(input.Items))
		for _, item := range input.Items {
			product, ok := byID[item.ProductID]
			if !ok {
				return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("product %s not found for vendor", item.ProductID))
			}
			if product.Status != enums.ProductStatusActive {
				return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("product %q is not available", product.Name))
			}
			lineTotal := product.Price.Mul(decimal.NewFromInt(int64(item.Qty)))
			subtotal = subtotal.Add(lineTotal)
			items = append(items, models.OrderItem{
				ProductID: product.ID,
				Name:      product.Name,
				UnitPrice: product.Price,
				Qty:       item.Qty,
				LineTotal: lineTotal,
			})
		}

		discountTotal := decimal.Zero
		if input.DiscountCode != "" {
			discount, err := repo.FindActiveDiscount(ctx, input.VendorID, input.DiscountCode, time.Now().UTC())
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeValidation, "invalid discount code")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load discount")
			}
			if subtotal.LessThan(discount.MinOrderTotal) {
				return pkgerrors.New(pkgerrors.CodeValidation, "order total below discount minimum")
			}
			switch discount.Type {
			case enums.DiscountTypePercent:
				discountTotal = subtotal.Mul(discount.Value).Div(decimal.NewFromInt(100)).Round(2)
			case enums.DiscountTypeFlat:
				discountTotal = discount.Value
			}
			if discountTotal.GreaterThan(subtotal) {
				discountTotal = subtotal
			}
		}

		order := &models.Order{
			CustomerID:       input.CustomerID,
			VendorID:         input.VendorID,
			Status:           enums.OrderStatusPending,
			PaymentStatus:    enums.PaymentStatusUnpaid,
			RequiresDelivery: input.RequiresDelivery,
			Subtotal:         subtotal,
			DiscountTotal:    discountTotal,
			Total:            subtotal.Sub(discountTotal),
			DeliveryAddress:  input.DeliveryAddress,
			Note:             input.Note,
		}
		if _, err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := repo.CreateOrderItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}

		actorID := input.CustomerID
		event := &models.OrderStatusEvent{
			OrderID:   order.ID,
			ToStatus:  enums.OrderStatusPending,
			ActorRole: enums.ActorRoleCustomer,
			ActorID:   &actorID,
		}
		if err := repo.AppendStatusEvent(ctx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status event")
		}

		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// RequestTransition is the single write path for status changes. It validates
// scope and legality, then applies the guarded conditional update and appends
// the history row in one transaction. Finalizing an order also writes the
// earnings record and bumps the vendor aggregates.
func (s *service) RequestTransition(ctx context.Context, input TransitionInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorID == uuid.Nil && input.Role != enums.ActorRoleSystem {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown status %q", input.Target))
	}
	if !input.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown role %q", input.Role))
	}

	var updated *models.Order
	fromStatus := "unknown"
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindOrder(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		fromStatus = string(order.Status)

		if err := s.checkScope(order, input); err != nil {
			return err
		}
		if err := ValidateTransition(order.Status, input.Target, input.Role); err != nil {
			return err
		}
		if input.Target == enums.OrderStatusOutForDelivery && !order.RequiresDelivery {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order does not require delivery")
		}

		updates := map[string]any{
			"status":     input.Target,
			"updated_at": time.Now().UTC(),
		}
		if input.Target == enums.OrderStatusAwaitingPickup {
			updates["agent_id"] = input.ActorID
		}

		rows, err := repo.UpdateOrderStatusGuarded(ctx, order.ID, order.Status, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if rows == 0 {
			// the row exists but another writer moved it first
			return pkgerrors.New(pkgerrors.CodeConflict, "order was updated concurrently")
		}

		from := order.Status
		actorID := input.ActorID
		event := &models.OrderStatusEvent{
			OrderID:    order.ID,
			FromStatus: &from,
			ToStatus:   input.Target,
			ActorRole:  input.Role,
			Note:       input.Note,
		}
		if actorID != uuid.Nil {
			event.ActorID = &actorID
		}
		if err := repo.AppendStatusEvent(ctx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status event")
		}

		if input.Target == enums.OrderStatusDelivered {
			record := &models.EarningsRecord{
				OrderID:  order.ID,
				VendorID: order.VendorID,
				Amount:   order.Total,
			}
			if err := repo.CreateEarningsRecord(ctx, record); err != nil {
				if db.IsUniqueViolation(err, "uq_earnings_records_order_id") {
					return pkgerrors.New(pkgerrors.CodeTerminalState, "order already finalized")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create earnings record")
			}
			if err := repo.IncrementVendorAggregates(ctx, order.VendorID, order.Total); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update vendor aggregates")
			}
		}

		order.Status = input.Target
		if input.Target == enums.OrderStatusAwaitingPickup {
			order.AgentID = &actorID
		}
		updated = order
		return nil
	})

	s.recordTransition(fromStatus, string(input.Target), err)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) recordTransition(from, to string, err error) {
	if s.metrics == nil {
		return
	}
	outcome := "applied"
	switch {
	case err == nil:
	case pkgerrors.IsCode(err, pkgerrors.CodeConflict):
		outcome = "conflict"
	default:
		outcome = "rejected"
	}
	s.metrics.IncTransition(from, to, outcome)
}

func (s *service) checkScope(order *models.Order, input TransitionInput) error {
	switch input.Role {
	case enums.ActorRoleSystem:
		return nil
	case enums.ActorRoleVendor:
		if input.VendorID == nil || *input.VendorID != order.VendorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to vendor")
		}
		return nil
	case enums.ActorRoleCustomer:
		if input.ActorID != order.CustomerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to customer")
		}
		return nil
	case enums.ActorRoleAgent:
		// claiming is the one agent action before assignment
		if input.Target == enums.OrderStatusAwaitingPickup {
			if order.AgentID != nil && *order.AgentID != input.ActorID {
				return pkgerrors.New(pkgerrors.CodeConflict, "order already claimed by another agent")
			}
			return nil
		}
		if order.AgentID == nil || *order.AgentID != input.ActorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order is not assigned to agent")
		}
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeForbidden, "unknown actor role")
	}
}

func (s *service) Accept(ctx context.Context, orderID, actorID uuid.UUID, vendorID uuid.UUID) (*models.Order, error) {
	return s.RequestTransition(ctx, TransitionInput{
		OrderID: orderID, Target: enums.OrderStatusConfirmed,
		ActorID: actorID, Role: enums.ActorRoleVendor, VendorID: &vendorID,
	})
}

func (s *service) Reject(ctx context.Context, orderID, actorID uuid.UUID, vendorID uuid.UUID, note string) (*models.Order, error) {
	return s.RequestTransition(ctx, TransitionInput{
		OrderID: orderID, Target: enums.OrderStatusRejected,
		ActorID: actorID, Role: enums.ActorRoleVendor, VendorID: &vendorID, Note: note,
	})
}

func (s *service) MarkPreparing(ctx context.Context, orderID, actorID uuid.UUID, vendorID uuid.UUID) (*models.Order, error) {
	return s.RequestTransition(ctx, TransitionInput{
		OrderID: orderID, Target: enums.OrderStatusPreparing,
		ActorID: actorID, Role: enums.ActorRoleVendor, VendorID: &vendorID,
	})
}

func (s *service) MarkReady(ctx context.Context, orderID, actorID uuid.UUID, vendorID uuid.UUID) (*models.Order, error) {
	return s.RequestTransition(ctx, TransitionInput{
		OrderID: orderID, Target: enums.OrderStatusReady,
		ActorID: actorID, Role: enums.ActorRoleVendor, VendorID: &vendorID,
	})
}

func (s *service) Claim(ctx context.Context, orderID, agentID uuid.UUID) (*models.Order, error) {
	return s.RequestTransition(ctx, TransitionInput{
		OrderID: orderID, Target: enums.OrderStatusAwaitingPickup,
		ActorID: agentID, Role: enums.ActorRoleAgent,
	})
}

func (s *service) Pickup(ctx context.Context, orderID, agentID uuid.UUID) (*models.Order, error) {
	return s.RequestTransition(ctx, TransitionInput{
		OrderID: orderID, Target: enums.OrderStatusPickedUp,
		ActorID: agentID, Role: enums.ActorRoleAgent,
	})
}

func (s *service) StartDelivery(ctx context.Context, orderID, agentID uuid.UUID) (*models.Order, error) {
	return s.RequestTransition(ctx, TransitionInput{
		OrderID: orderID, Target: enums.OrderStatusOutForDelivery,
		ActorID: agentID, Role: enums.ActorRoleAgent,
	})
}

func (s *service) Deliver(ctx context.Context, orderID, agentID uuid.UUID) (*models.Order, error) {
	return s.RequestTransition(ctx, TransitionInput{
		OrderID: orderID, Target: enums.OrderStatusDelivered,
		ActorID: agentID, Role: enums.ActorRoleAgent,
	})
}

func (s *service) Cancel(ctx context.Context, orderID, customerID uuid.UUID, note string) (*models.Order, error) {
	return s.RequestTransition(ctx, TransitionInput{
		OrderID: orderID, Target: enums.OrderStatusCancelled,
		ActorID: customerID, Role: enums.ActorRoleCustomer, Note: note,
	})
}

// GetStatus returns the order, its history, and the projected checkpoints.
// The projection is recomputed on every call; reads retry a bounded number of
// times on transient store failures.
func (s *service) GetStatus(ctx context.Context, orderID uuid.UUID, scope StatusScope) (*StatusView, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var view *StatusView
	var lastErr error
	for attempt := 0; attempt < statusReadAttempts; attempt++ {
		view, lastErr = s.loadStatus(ctx, orderID, scope)
		if lastErr == nil {
			return view, nil
		}
		if !pkgerrors.IsCode(lastErr, pkgerrors.CodeDependency) {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

func (s *service) loadStatus(ctx context.Context, orderID uuid.UUID, scope StatusScope) (*StatusView, error) {
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	if err := s.checkReadScope(order, scope); err != nil {
		return nil, err
	}

	history, err := s.repo.FindOrderHistory(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order history")
	}
	items, err := s.repo.FindOrderItems(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order items")
	}

	return &StatusView{
		Order:       order,
		Items:       items,
		Timeline:    history,
		Checkpoints: ProjectCheckpoints(order, history),
	}, nil
}

func (s *service) checkReadScope(order *models.Order, scope StatusScope) error {
	switch scope.Role {
	case enums.ActorRoleSystem:
		return nil
	case enums.ActorRoleCustomer:
		if scope.ActorID == order.CustomerID {
			return nil
		}
	case enums.ActorRoleVendor:
		if scope.VendorID != nil && *scope.VendorID == order.VendorID {
			return nil
		}
	case enums.ActorRoleAgent:
		if order.AgentID != nil && *order.AgentID == scope.ActorID {
			return nil
		}
		// unassigned orders in the claim queue are visible to any agent
		if order.AgentID == nil && order.Status == enums.OrderStatusReady {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "order is not visible to actor")
}

func (s *service) ListVendorOrders(ctx context.Context, vendorID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor context missing")
	}
	list, err := s.repo.ListVendorOrders(ctx, vendorID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendor orders")
	}
	return list, nil
}

func (s *service) ListCustomerOrders(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*OrderList, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	list, err := s.repo.ListCustomerOrders(ctx, customerID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customer orders")
	}
	return list, nil
}

func (s *service) ListQueue(ctx context.Context, params pagination.Params) (*OrderList, error) {
	list, err := s.repo.ListUnclaimedReady(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list claim queue")
	}
	return list, nil
}

func (s *service) ListAgentOrders(ctx context.Context, agentID uuid.UUID, params pagination.Params) (*OrderList, error) {
	if agentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	list, err := s.repo.ListAgentOrders(ctx, agentID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list agent orders")
	}
	return list, nil
}
