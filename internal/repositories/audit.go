package repositories

import (
	"context"
	"fmt"

	"pavo/internal/models"

	"gorm.io/gorm"
)

// AuditRepository appends payment state transitions. Append-only: no update
// or delete methods exist on purpose.
type AuditRepository interface {
	Append(ctx context.Context, entry *models.AuditLog) error
	ListByPayment(ctx context.Context, paymentID string) ([]models.AuditLog, error)
	WithTx(tx *gorm.DB) AuditRepository
}

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a gorm-backed audit repository.
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) WithTx(tx *gorm.DB) AuditRepository {
	return &auditRepository{db: tx}
}

func (r *auditRepository) Append(ctx context.Context, entry *models.AuditLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func (r *auditRepository) ListByPayment(ctx context.Context, paymentID string) ([]models.AuditLog, error) {
	var entries []models.AuditLog
	err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return entries, nil
}
