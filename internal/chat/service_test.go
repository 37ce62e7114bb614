package chat

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/localmart-app/localmart-backend/pkg/db/models"
	"github.com/localmart-app/localmart-backend/pkg/enums"
	pkgerrors "github.com/localmart-app/localmart-backend/pkg/errors"
	"github.com/localmart-app/localmart-backend/pkg/pagination"
)

type stubChatRepo struct {
	orders   map[uuid.UUID]*models.Order
	threads  map[uuid.UUID]*models.ChatThread
	messages map[uuid.UUID][]models.ChatMessage
}

func newStubChatRepo() *stubChatRepo {
	return &stubChatRepo{
		orders:   make(map[uuid.UUID]*models.Order),
		threads:  make(map[uuid.UUID]*models.ChatThread),
		messages: make(map[uuid.UUID][]models.ChatMessage),
	}
}

func (s *stubChatRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubChatRepo) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[orderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (s *stubChatRepo) FindThreadByOrder(ctx context.Context, orderID uuid.UUID) (*models.ChatThread, error) {
	thread, ok := s.threads[orderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return thread, nil
}

func (s *stubChatRepo) CreateThread(ctx context.Context, thread *models.ChatThread) (*models.ChatThread, error) {
	if thread.ID == uuid.Nil {
		thread.ID = uuid.New()
	}
	s.threads[thread.OrderID] = thread
	return thread, nil
}

func (s *stubChatRepo) CreateMessage(ctx context.Context, message *models.ChatMessage) (*models.ChatMessage, error) {
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}
	s.messages[message.ThreadID] = append(s.messages[message.ThreadID], *message)
	return message, nil
}

func (s *stubChatRepo) ListMessages(ctx context.Context, threadID uuid.UUID, params pagination.Params) (*MessageList, error) {
	return &MessageList{Messages: s.messages[threadID]}, nil
}

type nopTx struct{}

func (nopTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

type chatFixture struct {
	repo       *stubChatRepo
	svc        Service
	orderID    uuid.UUID
	customerID uuid.UUID
	vendorID   uuid.UUID
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	repo := newStubChatRepo()
	svc, err := NewService(repo, nopTx{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	f := &chatFixture{
		repo:       repo,
		svc:        svc,
		orderID:    uuid.New(),
		customerID: uuid.New(),
		vendorID:   uuid.New(),
	}
	repo.orders[f.orderID] = &models.Order{
		ID:         f.orderID,
		CustomerID: f.customerID,
		VendorID:   f.vendorID,
		Status:     enums.OrderStatusConfirmed,
	}
	return f
}

func (f *chatFixture) customer() Participant {
	return Participant{ActorID: f.customerID, Role: enums.ActorRoleCustomer}
}

func (f *chatFixture) vendor() Participant {
	return Participant{ActorID: uuid.New(), Role: enums.ActorRoleVendor, VendorID: &f.vendorID}
}

func TestSendMessageCreatesThreadOnFirstUse(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	msg, err := f.svc.SendMessage(ctx, SendMessageInput{OrderID: f.orderID, Sender: f.customer(), Body: "  is my order ready?  "})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg.Body != "is my order ready?" {
		t.Fatalf("body should be trimmed, got %q", msg.Body)
	}
	if len(f.repo.threads) != 1 {
		t.Fatalf("first message should create the thread")
	}

	if _, err := f.svc.SendMessage(ctx, SendMessageInput{OrderID: f.orderID, Sender: f.vendor(), Body: "almost!"}); err != nil {
		t.Fatalf("vendor reply: %v", err)
	}
	if len(f.repo.threads) != 1 {
		t.Fatalf("thread must be reused")
	}

	list, err := f.svc.ListMessages(ctx, f.orderID, f.customer(), pagination.Params{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(list.Messages))
	}
}

func TestChatScope(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	_, err := f.svc.SendMessage(ctx, SendMessageInput{
		OrderID: f.orderID,
		Sender:  Participant{ActorID: uuid.New(), Role: enums.ActorRoleCustomer},
		Body:    "hello",
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("foreign customer should be forbidden, got %v", err)
	}

	_, err = f.svc.SendMessage(ctx, SendMessageInput{
		OrderID: f.orderID,
		Sender:  Participant{ActorID: uuid.New(), Role: enums.ActorRoleAgent},
		Body:    "hello",
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("agents are not chat participants, got %v", err)
	}
}

func TestListMessagesWithoutThread(t *testing.T) {
	f := newChatFixture(t)
	list, err := f.svc.ListMessages(context.Background(), f.orderID, f.customer(), pagination.Params{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Messages) != 0 || list.NextCursor != nil {
		t.Fatalf("expected empty page, got %+v", list)
	}
}

func TestSendMessageValidation(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	if _, err := f.svc.SendMessage(ctx, SendMessageInput{OrderID: f.orderID, Sender: f.customer(), Body: "   "}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("blank body should fail, got %v", err)
	}
	_, err := f.svc.SendMessage(ctx, SendMessageInput{OrderID: uuid.New(), Sender: f.customer(), Body: "hi"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("unknown order should be not found, got %v", err)
	}
}
