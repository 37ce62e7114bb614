package orders

import (
	"time"

	"github.com/localmart-app/localmart-backend/pkg/db/models"
	"github.com/localmart-app/localmart-backend/pkg/enums"
)

// Checkpoint is one entry in the fixed-size order timeline shown to clients.
type Checkpoint struct {
	Key         string     `json:"key"`
	Label       string     `json:"label"`
	Icon        string     `json:"icon"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	Current     bool       `json:"current"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
}

type checkpointDef struct {
	status      enums.OrderStatus
	label       string
	icon        string
	description string
}

// checkpointDefs is the fixed projection order. Every projection returns
// exactly these entries, regardless of which statuses the order visited.
var checkpointDefs = [8]checkpointDef{
	{enums.OrderStatusPending, "Order Placed", "receipt", "Your order has been placed"},
	{enums.OrderStatusConfirmed, "Confirmed", "check-circle", "The shop accepted your order"},
	{enums.OrderStatusPreparing, "Preparing", "chef-hat", "The shop is preparing your order"},
	{enums.OrderStatusReady, "Ready", "package", "Your order is packed and ready"},
	{enums.OrderStatusAwaitingPickup, "Agent Assigned", "user-check", "A delivery agent has claimed your order"},
	{enums.OrderStatusPickedUp, "Picked Up", "hand", "The agent picked up your order"},
	{enums.OrderStatusOutForDelivery, "Out for Delivery", "truck", "Your order is on the way"},
	{enums.OrderStatusDelivered, "Delivered", "home", "Your order has been delivered"},
}

func checkpointPosition(status enums.OrderStatus) int {
	for i, def := range checkpointDefs {
		if def.status == status {
			return i
		}
	}
	return -1
}

// ProjectCheckpoints derives the client-facing timeline from the order and
// its status history. Pure function, recomputed on every read.
//
// Rejected and cancelled orders never progress past placement: only the first
// checkpoint is completed and it stays current. A status skipped on the real
// path (out_for_delivery on direct handoffs) is completed without a timestamp.
func ProjectCheckpoints(order *models.Order, history []models.OrderStatusEvent) []Checkpoint {
	position := checkpointPosition(order.Status)
	if position < 0 {
		// rejected / cancelled
		position = 0
	}

	timestamps := make(map[enums.OrderStatus]time.Time, len(history))
	for _, event := range history {
		if _, seen := timestamps[event.ToStatus]; !seen {
			timestamps[event.ToStatus] = event.CreatedAt
		}
	}

	out := make([]Checkpoint, 0, len(checkpointDefs))
	for i, def := range checkpointDefs {
		cp := Checkpoint{
			Key:         string(def.status),
			Label:       def.label,
			Icon:        def.icon,
			Description: def.description,
			Completed:   i <= position,
			Current:     i == position,
		}
		if ts, ok := timestamps[def.status]; ok && cp.Completed {
			t := ts
			cp.Timestamp = &t
		}
		out = append(out, cp)
	}
	return out
}
