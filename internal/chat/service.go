package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/localmart-app/localmart-backend/pkg/db/models"
	"github.com/localmart-app/localmart-backend/pkg/enums"
	pkgerrors "github.com/localmart-app/localmart-backend/pkg/errors"
	"github.com/localmart-app/localmart-backend/pkg/pagination"
)

const maxMessageLength = 2000

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Participant identifies who is reading or writing in a thread.
type Participant struct {
	ActorID  uuid.UUID
	Role     enums.ActorRole
	VendorID *uuid.UUID
}

// SendMessageInput appends one message to an order's thread.
type SendMessageInput struct {
	OrderID uuid.UUID
	Sender  Participant
	Body    string
}

// Service exposes the poll-based order chat. There is no realtime transport;
// clients poll ListMessages with their last cursor.
type Service interface {
	SendMessage(ctx context.Context, input SendMessageInput) (*models.ChatMessage, error)
	ListMessages(ctx context.Context, orderID uuid.UUID, reader Participant, params pagination.Params) (*MessageList, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService wires a chat service with the provided dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("chat repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) SendMessage(ctx context.Context, input SendMessageInput) (*models.ChatMessage, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message body is required")
	}
	if len(body) > maxMessageLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message body too long")
	}

	var message *models.ChatMessage
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		thread, err := s.threadForOrder(ctx, repo, input.OrderID, input.Sender, true)
		if err != nil {
			return err
		}

		msg := &models.ChatMessage{
			ThreadID:   thread.ID,
			SenderRole: input.Sender.Role,
			SenderID:   input.Sender.ActorID,
			Body:       body,
		}
		if _, err := repo.CreateMessage(ctx, msg); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create message")
		}
		message = msg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return message, nil
}

func (s *service) ListMessages(ctx context.Context, orderID uuid.UUID, reader Participant, params pagination.Params) (*MessageList, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	thread, err := s.threadForOrder(ctx, s.repo, orderID, reader, false)
	if err != nil {
		return nil, err
	}
	if thread == nil {
		return &MessageList{}, nil
	}

	list, err := s.repo.ListMessages(ctx, thread.ID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list messages")
	}
	return list, nil
}

// threadForOrder loads (and optionally creates) the order's thread after
// verifying the participant belongs to the order. Returns nil without error
// when the thread does not exist and create is false.
func (s *service) threadForOrder(ctx context.Context, repo Repository, orderID uuid.UUID, who Participant, create bool) (*models.ChatThread, error) {
	order, err := repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	switch who.Role {
	case enums.ActorRoleCustomer:
		if who.ActorID != order.CustomerID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to customer")
		}
	case enums.ActorRoleVendor:
		if who.VendorID == nil || *who.VendorID != order.VendorID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to vendor")
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "chat is between customer and vendor")
	}

	thread, err := repo.FindThreadByOrder(ctx, orderID)
	if err == nil {
		return thread, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load thread")
	}
	if !create {
		return nil, nil
	}

	thread = &models.ChatThread{
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		VendorID:   order.VendorID,
	}
	if _, err := repo.CreateThread(ctx, thread); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create thread")
	}
	return thread, nil
}
