package models

import (
	"time"
)

// MessageStatus tracks a contact inquiry through its inbox lifecycle.
// resolved is reached automatically when a reply is sent.
type MessageStatus string

const (
	MessageNew        MessageStatus = "new"
	MessageInProgress MessageStatus = "in_progress"
	MessageResolved   MessageStatus = "resolved"
)

// Message is an independent contact-form inquiry, not tied to an order.
// Sender name and email are plain fields so anonymous submissions work.
type Message struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	Name         string        `gorm:"not null" json:"name"`
	Email        string        `gorm:"not null;index" json:"email"`
	Subject      string        `gorm:"not null" json:"subject"`
	Body         string        `gorm:"type:text;not null" json:"body"`
	IsRead       bool          `gorm:"default:false;index" json:"is_read"`
	Replied      bool          `gorm:"default:false" json:"replied"`
	ReplyMessage string        `gorm:"type:text" json:"reply_message,omitempty"`
	Category     string        `gorm:"default:general" json:"category"`
	Priority     OrderPriority `gorm:"type:varchar(16);default:medium;index" json:"priority"`
	Status       MessageStatus `gorm:"type:varchar(16);default:new;index" json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}
