package orders

import (
	"fmt"

	"github.com/localmart-app/localmart-backend/pkg/enums"
	pkgerrors "github.com/localmart-app/localmart-backend/pkg/errors"
)

// edge is a single legal status move plus the roles allowed to take it.
// The edge table is the only source of transition legality; services never
// hardcode status comparisons.
type edge struct {
	to    enums.OrderStatus
	roles []enums.ActorRole
}

var transitions = map[enums.OrderStatus][]edge{
	enums.OrderStatusPending: {
		{to: enums.OrderStatusConfirmed, roles: []enums.ActorRole{enums.ActorRoleVendor}},
		{to: enums.OrderStatusRejected, roles: []enums.ActorRole{enums.ActorRoleVendor}},
		{to: enums.OrderStatusCancelled, roles: []enums.ActorRole{enums.ActorRoleCustomer}},
	},
	enums.OrderStatusConfirmed: {
		{to: enums.OrderStatusPreparing, roles: []enums.ActorRole{enums.ActorRoleVendor}},
	},
	enums.OrderStatusPreparing: {
		{to: enums.OrderStatusReady, roles: []enums.ActorRole{enums.ActorRoleVendor}},
	},
	enums.OrderStatusReady: {
		{to: enums.OrderStatusAwaitingPickup, roles: []enums.ActorRole{enums.ActorRoleAgent}},
	},
	enums.OrderStatusAwaitingPickup: {
		{to: enums.OrderStatusPickedUp, roles: []enums.ActorRole{enums.ActorRoleAgent}},
	},
	enums.OrderStatusPickedUp: {
		{to: enums.OrderStatusOutForDelivery, roles: []enums.ActorRole{enums.ActorRoleAgent}},
		{to: enums.OrderStatusDelivered, roles: []enums.ActorRole{enums.ActorRoleAgent}},
	},
	enums.OrderStatusOutForDelivery: {
		{to: enums.OrderStatusDelivered, roles: []enums.ActorRole{enums.ActorRoleAgent}},
	},
}

// ValidateTransition checks that from->to is a legal edge and that the actor
// role may take it. Terminal sources map to CodeTerminalState so callers can
// distinguish "already finalized" from "wrong step".
func ValidateTransition(from, to enums.OrderStatus, role enums.ActorRole) error {
	if from.IsTerminal() {
		return pkgerrors.New(pkgerrors.CodeTerminalState, fmt.Sprintf("order already %s", from))
	}

	var found *edge
	for i := range transitions[from] {
		if transitions[from][i].to == to {
			found = &transitions[from][i]
			break
		}
	}
	if found == nil {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("transition %s -> %s is not allowed", from, to))
	}

	// system may take any forward edge
	if role == enums.ActorRoleSystem {
		return nil
	}
	for _, allowed := range found.roles {
		if allowed == role {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("role %s may not move order %s -> %s", role, from, to))
}

// NextStatuses lists the statuses reachable from the current one. Terminal
// statuses return nil.
func NextStatuses(from enums.OrderStatus) []enums.OrderStatus {
	edges := transitions[from]
	if len(edges) == 0 {
		return nil
	}
	out := make([]enums.OrderStatus, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.to)
	}
	return out
}
