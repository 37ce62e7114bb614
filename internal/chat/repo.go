package chat

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/localmart-app/localmart-backend/pkg/db/models"
	"github.com/localmart-app/localmart-backend/pkg/pagination"
)

// MessageList is one cursor page of messages, oldest first inside the page.
type MessageList struct {
	Messages   []models.ChatMessage `json:"messages"`
	NextCursor *string              `json:"next_cursor,omitempty"`
}

// Repository defines persistence operations for order chat.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindThreadByOrder(ctx context.Context, orderID uuid.UUID) (*models.ChatThread, error)
	CreateThread(ctx context.Context, thread *models.ChatThread) (*models.ChatThread, error)
	CreateMessage(ctx context.Context, message *models.ChatMessage) (*models.ChatMessage, error)
	ListMessages(ctx context.Context, threadID uuid.UUID, params pagination.Params) (*MessageList, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a chat repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindThreadByOrder(ctx context.Context, orderID uuid.UUID) (*models.ChatThread, error) {
	var thread models.ChatThread
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&thread).Error
	if err != nil {
		return nil, err
	}
	return &thread, nil
}

func (r *repository) CreateThread(ctx context.Context, thread *models.ChatThread) (*models.ChatThread, error) {
	if err := r.db.WithContext(ctx).Create(thread).Error; err != nil {
		return nil, err
	}
	return thread, nil
}

func (r *repository) CreateMessage(ctx context.Context, message *models.ChatMessage) (*models.ChatMessage, error) {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return nil, err
	}
	return message, nil
}

func (r *repository) ListMessages(ctx context.Context, threadID uuid.UUID, params pagination.Params) (*MessageList, error) {
	q := r.db.WithContext(ctx).Where("thread_id = ?", threadID)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	limit := pagination.NormalizeLimit(params.Limit)
	var rows []models.ChatMessage
	if err := q.Order("created_at DESC, id DESC").Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &MessageList{}
	page := rows
	if len(rows) > limit {
		page = rows[:limit]
		last := page[len(page)-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		list.NextCursor = &next
	}
	// clients render oldest first
	for i := len(page) - 1; i >= 0; i-- {
		list.Messages = append(list.Messages, page[i])
	}
	return list, nil
}
