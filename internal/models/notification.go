package models

import (
	"time"
)

// NotificationType is the closed set of lifecycle events a notification can
// record. Inbound values outside this set are validation errors rather than
// silently falling through to a default.
type NotificationType string

const (
	NotifOrderApproved   NotificationType = "order_approved"
	NotifOrderDelivered  NotificationType = "order_delivered"
	NotifOrderCancelled  NotificationType = "order_cancelled"
	NotifRevisionRequest NotificationType = "revision_request"
	NotifMessageReply    NotificationType = "message_reply"
	NotifSystem          NotificationType = "system"
)

// NotificationTTL is how long a notification survives before the store
// garbage-collects it.
const NotificationTTL = 30 * 24 * time.Hour

// Notification is a per-user record of a lifecycle event. It is created as a
// side effect of order and message transitions, mutated only to flip IsRead,
// and removed by expiry or cascade-deleted with its owning user.
type Notification struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	UserID           uint             `gorm:"not null;index" json:"user_id"`
	User             User             `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Title            string           `gorm:"not null" json:"title"`
	Body             string           `gorm:"type:text;not null" json:"body"`
	Type             NotificationType `gorm:"type:varchar(32);not null" json:"type"`
	IsRead           bool             `gorm:"default:false;index" json:"is_read"`
	RelatedOrderID   *uint            `gorm:"index" json:"related_order_id,omitempty"`
	RelatedMessageID *uint            `gorm:"index" json:"related_message_id,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	ExpiresAt        time.Time        `gorm:"index" json:"expires_at"`
}

// IsExpired reports whether the notification has outlived its TTL.
func (n *Notification) IsExpired() bool {
	return time.Now().After(n.ExpiresAt)
}
