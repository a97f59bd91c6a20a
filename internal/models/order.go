package models

import (
	"math"
	"time"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusInProgress OrderStatus = "in_progress"
	StatusDelivered  OrderStatus = "delivered"
	StatusRevision   OrderStatus = "revision"
	StatusCancelled  OrderStatus = "cancelled"
)

// OrderPriority ranks how urgent an order is for the admin queue.
type OrderPriority string

const (
	PriorityLow    OrderPriority = "low"
	PriorityMedium OrderPriority = "medium"
	PriorityHigh   OrderPriority = "high"
	PriorityUrgent OrderPriority = "urgent"
)

// RevisionDecision is the admin's verdict on a revision request.
type RevisionDecision string

const (
	RevisionPending      RevisionDecision = "pending"
	RevisionAccepted     RevisionDecision = "accepted"
	RevisionRejected     RevisionDecision = "rejected"
	RevisionCounterOffer RevisionDecision = "counter_offer"
)

// OrderFile is a customer-supplied source file attached to an order.
type OrderFile struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	OrderID      uint      `gorm:"not null;index" json:"order_id"`
	StoredName   string    `gorm:"not null" json:"stored_name"`
	OriginalName string    `gorm:"not null" json:"original_name"`
	Path         string    `gorm:"not null" json:"path"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// DeliveryFile is a file delivered by an administrator for an order.
type DeliveryFile struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	OrderID      uint      `gorm:"not null;index" json:"order_id"`
	StoredName   string    `gorm:"not null" json:"stored_name"`
	OriginalName string    `gorm:"not null" json:"original_name"`
	Path         string    `gorm:"not null" json:"path"`
	DeliveredAt  time.Time `json:"delivered_at"`
}

// RevisionRequest is the customer-initiated sub-negotiation attached to a
// delivered order. It is embedded in Order, not a separate table.
type RevisionRequest struct {
	Requested    bool             `json:"requested"`
	Description  string           `json:"description,omitempty"`
	Status       RevisionDecision `gorm:"type:varchar(16);default:pending" json:"status"`
	CounterOffer string           `json:"counter_offer,omitempty"`
	RequestedAt  *time.Time       `json:"requested_at,omitempty"`
}

// Order is a customer's work request tracked through the delivery lifecycle.
// The owning user reference is immutable after creation.
type Order struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	UserID             uint            `gorm:"not null;index" json:"user_id"`
	User               User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Title              string          `gorm:"not null" json:"title"`
	Description        string          `gorm:"type:text;not null" json:"description"`
	Files              []OrderFile     `gorm:"foreignKey:OrderID" json:"files,omitempty"`
	Status             OrderStatus     `gorm:"type:varchar(16);default:pending;index" json:"status"`
	Price              float64         `json:"price"`
	ProposedPrice      *float64        `json:"proposed_price,omitempty"`
	Deadline           *time.Time      `json:"deadline,omitempty"`
	ProposedDeadline   *time.Time      `json:"proposed_deadline,omitempty"`
	DeliveryFiles      []DeliveryFile  `gorm:"foreignKey:OrderID" json:"delivery_files,omitempty"`
	RevisionRequest    RevisionRequest `gorm:"embedded;embeddedPrefix:revision_" json:"revision_request"`
	CancellationReason string          `json:"cancellation_reason,omitempty"`
	AdminNotes         string          `gorm:"type:text" json:"admin_notes,omitempty"`
	Priority           OrderPriority   `gorm:"type:varchar(16);default:medium" json:"priority"`
	Tags               string          `json:"tags,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// IsOverdue reports whether the order's deadline has passed.
func (o *Order) IsOverdue() bool {
	if o.Deadline == nil {
		return false
	}
	return time.Now().After(*o.Deadline)
}

// DaysUntilDeadline returns the rounded-up number of days until the
// deadline, or false when no deadline is set.
func (o *Order) DaysUntilDeadline() (int, bool) {
	if o.Deadline == nil {
		return 0, false
	}
	diff := time.Until(*o.Deadline).Hours() / 24
	return int(math.Ceil(diff)), true
}
