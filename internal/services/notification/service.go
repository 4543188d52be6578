// Package notification is a log-backed event sink for payment lifecycle
// events. Delivery is fire-and-forget: a lost notification never blocks or
// fails a settlement.
package notification

import (
	"context"
	"log"

	"pavo/internal/models"
)

// Service logs payment lifecycle events.
type Service struct{}

// NewService creates a new notification service.
func NewService() *Service { return &Service{} }

// PaymentCreated logs a creation event.
func (s *Service) PaymentCreated(ctx context.Context, p *models.Payment) {
	log.Printf("notify user %d: payment %s created (%s %s via %s)",
		p.UserID, p.ID, p.Amount, p.Currency, p.Method)
}

// PaymentSettled logs a settlement event.
func (s *Service) PaymentSettled(ctx context.Context, p *models.Payment) {
	log.Printf("notify user %d: payment %s settled (%s %s)",
		p.UserID, p.ID, p.Amount, p.Currency)
}

// PaymentFailed logs a failure event.
func (s *Service) PaymentFailed(ctx context.Context, p *models.Payment) {
	log.Printf("notify user %d: payment %s failed: %s", p.UserID, p.ID, p.AdminNotes)
}
