package models

import "gorm.io/gorm"

// PendingSummary is stored until the summary call for a new conversation finishes.
const PendingSummary = "Generating summary..."

type Conversation struct {
	gorm.Model
	Title    string    `gorm:"size:255"`
	Summary  string    `gorm:"type:text"`
	Messages []Message `gorm:"foreignKey:ConversationID"`
}
