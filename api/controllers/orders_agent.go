package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/localmart-app/localmart-backend/api/middleware"
	"github.com/localmart-app/localmart-backend/api/responses"
	"github.com/localmart-app/localmart-backend/api/validators"
	"github.com/localmart-app/localmart-backend/internal/orders"
	"github.com/localmart-app/localmart-backend/pkg/logger"
)

// AgentQueue lists unclaimed orders that are ready for handoff.
func AgentQueue(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListQueue(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// AgentOrders lists orders claimed by the authenticated agent.
func AgentOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListAgentOrders(r.Context(), middleware.UserIDFromContext(r.Context()), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// AgentClaimOrder assigns a ready order to the agent.
func AgentClaimOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return agentTransition(logg, func(r *http.Request, orderID, agentID uuid.UUID) (any, error) {
		return svc.Claim(r.Context(), orderID, agentID)
	})
}

// AgentPickupOrder records the physical handoff from the shop.
func AgentPickupOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return agentTransition(logg, func(r *http.Request, orderID, agentID uuid.UUID) (any, error) {
		return svc.Pickup(r.Context(), orderID, agentID)
	})
}

// AgentStartDelivery moves a picked-up delivery order onto the road.
func AgentStartDelivery(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return agentTransition(logg, func(r *http.Request, orderID, agentID uuid.UUID) (any, error) {
		return svc.StartDelivery(r.Context(), orderID, agentID)
	})
}

// AgentDeliverOrder completes the order and books vendor earnings.
func AgentDeliverOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return agentTransition(logg, func(r *http.Request, orderID, agentID uuid.UUID) (any, error) {
		return svc.Deliver(r.Context(), orderID, agentID)
	})
}

func agentTransition(logg *logger.Logger, run func(r *http.Request, orderID, agentID uuid.UUID) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := run(r, orderID, middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
