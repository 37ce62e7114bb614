package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/localmart-app/localmart-backend/pkg/db/models"
	"github.com/localmart-app/localmart-backend/pkg/enums"
	"github.com/localmart-app/localmart-backend/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  vendor_id TEXT NOT NULL,
  agent_id TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  payment_status TEXT NOT NULL DEFAULT 'unpaid',
  requires_delivery INTEGER NOT NULL DEFAULT 0,
  subtotal NUMERIC NOT NULL DEFAULT 0,
  discount_total NUMERIC NOT NULL DEFAULT 0,
  total NUMERIC NOT NULL DEFAULT 0,
  delivery_address TEXT,
  note TEXT NOT NULL DEFAULT '',
  created_at DATETIME,
  updated_at DATETIME
);`
	events := `
CREATE TABLE IF NOT EXISTS order_status_events (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  from_status TEXT,
  to_status TEXT NOT NULL,
  actor_role TEXT NOT NULL,
  actor_id TEXT,
  note TEXT NOT NULL DEFAULT '',
  created_at DATETIME
);`
	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(events).Error)
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, customerID, vendorID uuid.UUID, status enums.OrderStatus, created time.Time) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:         uuid.New(),
		CustomerID: customerID,
		VendorID:   vendorID,
		Status:     status,
		Subtotal:   decimal.NewFromInt(10),
		Total:      decimal.NewFromInt(10),
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestRepositoryListCustomerOrders_pagination(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	customerID := uuid.New()
	vendorID := uuid.New()
	now := time.Now().UTC()

	older := seedOrder(t, db, customerID, vendorID, enums.OrderStatusDelivered, now.Add(-time.Hour))
	newer := seedOrder(t, db, customerID, vendorID, enums.OrderStatusPending, now)
	seedOrder(t, db, uuid.New(), vendorID, enums.OrderStatusPending, now)

	list, err := repo.ListCustomerOrders(context.Background(), customerID, pagination.Params{Limit: 1})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, newer.ID, list.Orders[0].ID)
	require.NotNil(t, list.NextCursor)

	second, err := repo.ListCustomerOrders(context.Background(), customerID, pagination.Params{Limit: 1, Cursor: *list.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Orders, 1)
	assert.Equal(t, older.ID, second.Orders[0].ID)
	assert.Nil(t, second.NextCursor)
}

func TestRepositoryListVendorOrders_statusFilter(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	vendorID := uuid.New()
	now := time.Now().UTC()

	seedOrder(t, db, uuid.New(), vendorID, enums.OrderStatusPending, now.Add(-time.Minute))
	ready := seedOrder(t, db, uuid.New(), vendorID, enums.OrderStatusReady, now)

	status := enums.OrderStatusReady
	list, err := repo.ListVendorOrders(context.Background(), vendorID, pagination.Params{Limit: 10}, ListFilters{Status: &status})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, ready.ID, list.Orders[0].ID)
}

func TestRepositoryListUnclaimedReady_skipsClaimed(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	unclaimed := seedOrder(t, db, uuid.New(), uuid.New(), enums.OrderStatusReady, now)

	claimed := seedOrder(t, db, uuid.New(), uuid.New(), enums.OrderStatusReady, now.Add(-time.Minute))
	agentID := uuid.New()
	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", claimed.ID).Update("agent_id", agentID).Error)

	list, err := repo.ListUnclaimedReady(context.Background(), pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, unclaimed.ID, list.Orders[0].ID)
}

func TestRepositoryUpdateOrderStatusGuarded(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	order := seedOrder(t, db, uuid.New(), uuid.New(), enums.OrderStatusPending, time.Now().UTC())

	rows, err := repo.UpdateOrderStatusGuarded(context.Background(), order.ID, enums.OrderStatusPending, map[string]any{
		"status":     enums.OrderStatusConfirmed,
		"updated_at": time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	// second transition from the stale predecessor must not touch the row
	rows, err = repo.UpdateOrderStatusGuarded(context.Background(), order.ID, enums.OrderStatusPending, map[string]any{
		"status": enums.OrderStatusRejected,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)

	stored, err := repo.FindOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, stored.Status)
}

func TestRepositoryFindOrderHistory_ordered(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	order := seedOrder(t, db, uuid.New(), uuid.New(), enums.OrderStatusConfirmed, time.Now().UTC())

	pending := enums.OrderStatusPending
	base := time.Now().UTC().Add(-time.Minute)
	first := &models.OrderStatusEvent{
		ID:        uuid.New(),
		OrderID:   order.ID,
		ToStatus:  enums.OrderStatusPending,
		ActorRole: enums.ActorRoleCustomer,
		CreatedAt: base,
	}
	second := &models.OrderStatusEvent{
		ID:         uuid.New(),
		OrderID:    order.ID,
		FromStatus: &pending,
		ToStatus:   enums.OrderStatusConfirmed,
		ActorRole:  enums.ActorRoleVendor,
		CreatedAt:  base.Add(time.Second),
	}
	require.NoError(t, repo.AppendStatusEvent(context.Background(), second))
	require.NoError(t, repo.AppendStatusEvent(context.Background(), first))

	events, err := repo.FindOrderHistory(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, enums.OrderStatusPending, events[0].ToStatus)
	assert.Equal(t, enums.OrderStatusConfirmed, events[1].ToStatus)
}
