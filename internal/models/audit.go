package models

import "time"

// AuditLog is an append-only record of a payment state transition. Rows are
// written once and never updated or deleted.
type AuditLog struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	PaymentID  string    `gorm:"type:uuid;index;not null" json:"payment_id"`
	ActorID    uint      `json:"actor_id"`
	ActorRole  string    `json:"actor_role"`
	FromStatus string    `gorm:"type:varchar(32)" json:"from_status"`
	ToStatus   string    `gorm:"type:varchar(32);not null" json:"to_status"`
	Note       string    `json:"note,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
