package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/aoba-arch/permitdesk/internal/modules/model"
)

type AuditRepo interface {
	// Stage appends entries within the caller's transaction. It never
	// commits on its own; the caller's transaction boundary governs
	// durability.
	Stage(tx *gorm.DB, entries ...*model.AuditTrail) error
	ListByTarget(ctx context.Context, targetModel string, targetID uint) ([]model.AuditTrail, error)
}

type auditRepo struct{ db *gorm.DB }

func NewAuditRepo(db *gorm.DB) AuditRepo {
	return &auditRepo{db: db}
}

func (r *auditRepo) Stage(tx *gorm.DB, entries ...*model.AuditTrail) error {
	for _, e := range entries {
		if err := tx.Create(e).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *auditRepo) ListByTarget(ctx context.Context, targetModel string, targetID uint) ([]model.AuditTrail, error) {
	var items []model.AuditTrail
	err := r.db.WithContext(ctx).
		Where("target_model = ? AND target_id = ?", targetModel, targetID).
		Order("timestamp DESC, id DESC").
		Find(&items).Error
	return items, err
}
