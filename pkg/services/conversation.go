package services

import (
	"context"
	"fmt"

	"OllamaDesk/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ConversationService stores transcripts and their generated summaries.
type ConversationService struct {
	db         *gorm.DB
	summarizer *Summarizer
	log        *zap.Logger
}

func NewConversationService(db *gorm.DB, summarizer *Summarizer, log *zap.Logger) *ConversationService {
	return &ConversationService{db: db, summarizer: summarizer, log: log.Named("conversations")}
}

// List returns every conversation with its messages in creation order.
func (s *ConversationService) List(ctx context.Context) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := s.db.WithContext(ctx).
		Preload("Messages", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at ASC").Order("id ASC")
		}).
		Order("id ASC").
		Find(&convs).Error
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return convs, nil
}

// Create stores the conversation and its messages, then fills in the summary.
// The returned conversation carries the messages as given, not reloaded.
// Creation runs to completion even if the caller goes away.
func (s *ConversationService) Create(ctx context.Context, title string, msgs []ChatMessage) (*models.Conversation, error) {
	ctx = context.WithoutCancel(ctx)
	db := s.db.WithContext(ctx)

	conv := models.Conversation{Title: title, Summary: models.PendingSummary}
	if err := db.Create(&conv).Error; err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	rows := make([]models.Message, 0, len(msgs))
	for _, m := range msgs {
		rows = append(rows, models.Message{ConversationID: conv.ID, Role: m.Role, Content: m.Content})
	}
	if len(rows) > 0 {
		if err := db.Create(&rows).Error; err != nil {
			return nil, fmt.Errorf("save messages for conversation %d: %w", conv.ID, err)
		}
	}

	summary := s.summarizer.Summarize(ctx, msgs)
	if err := db.Model(&conv).Update("summary", summary).Error; err != nil {
		return nil, fmt.Errorf("save summary for conversation %d: %w", conv.ID, err)
	}
	s.log.Info("conversation created",
		zap.Uint("id", conv.ID),
		zap.Int("messages", len(rows)),
		zap.String("summary", summary))

	conv.Summary = summary
	conv.Messages = rows
	return &conv, nil
}
