package controllers

import (
	"net/http"

	"github.com/localmart-app/localmart-backend/api/middleware"
	"github.com/localmart-app/localmart-backend/api/responses"
	"github.com/localmart-app/localmart-backend/api/validators"
	"github.com/localmart-app/localmart-backend/internal/chat"
	"github.com/localmart-app/localmart-backend/pkg/logger"
)

type sendMessageRequest struct {
	Body string `json:"body" validate:"required,max=2000"`
}

// SendOrderMessage appends a chat message to the order's thread.
func SendOrderMessage(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req sendMessageRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		message, err := svc.SendMessage(r.Context(), chat.SendMessageInput{
			OrderID: orderID,
			Sender:  participantFrom(r),
			Body:    req.Body,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, message)
	}
}

// ListOrderMessages returns one page of the order's chat, oldest first.
// Clients poll this with their last cursor.
func ListOrderMessages(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListMessages(r.Context(), orderID, participantFrom(r), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func participantFrom(r *http.Request) chat.Participant {
	return chat.Participant{
		ActorID:  middleware.UserIDFromContext(r.Context()),
		Role:     middleware.RoleFromContext(r.Context()),
		VendorID: middleware.VendorIDFromContext(r.Context()),
	}
}
