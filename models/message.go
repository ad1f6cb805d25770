package models

import "gorm.io/gorm"

// Message belongs to a conversation by id only; no constraint is created for it.
type Message struct {
	gorm.Model
	ConversationID uint   `gorm:"index"`
	Role           string `gorm:"size:50"` // "user" or "assistant"
	Content        string `gorm:"type:text"`
}
