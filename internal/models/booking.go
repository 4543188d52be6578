package models

import "time"

// Booking statuses this core reads and writes. The booking lifecycle itself
// is owned by the scheduling subsystem.
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
)

// Booking is the collaborator record a payment may reference. This core
// verifies ownership on payment creation and transitions the status to
// confirmed when an operator approves the payment.
type Booking struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Status    string    `gorm:"type:varchar(32);not null;default:'pending'" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
