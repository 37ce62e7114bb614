package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/localmart-app/localmart-backend/pkg/db/models"
	"github.com/localmart-app/localmart-backend/pkg/enums"
	"github.com/localmart-app/localmart-backend/pkg/pagination"
)

// Repository defines persistence operations for the order lifecycle tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
	AppendStatusEvent(ctx context.Context, event *models.OrderStatusEvent) error
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindOrderItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
	FindOrderHistory(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusEvent, error)
	UpdateOrderStatusGuarded(ctx context.Context, orderID uuid.UUID, expected enums.OrderStatus, updates map[string]any) (int64, error)
	CreateEarningsRecord(ctx context.Context, record *models.EarningsRecord) error
	IncrementVendorAggregates(ctx context.Context, vendorID uuid.UUID, earned decimal.Decimal) error
	FindProductsForVendor(ctx context.Context, vendorID uuid.UUID, productIDs []uuid.UUID) ([]models.Product, error)
	FindActiveDiscount(ctx context.Context, vendorID uuid.UUID, code string, at time.Time) (*models.Discount, error)
	ListVendorOrders(ctx context.Context, vendorID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error)
	ListCustomerOrders(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*OrderList, error)
	ListUnclaimedReady(ctx context.Context, params pagination.Params) (*OrderList, error)
	ListAgentOrders(ctx context.Context, agentID uuid.UUID, params pagination.Params) (*OrderList, error)
}
