package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/aoba-arch/permitdesk/internal/modules/model"
	"github.com/aoba-arch/permitdesk/internal/pkg/apperr"
)

// ApplicationFilter narrows List; zero values mean "no filter".
type ApplicationFilter struct {
	Status    model.ApplicationStatus
	ProjectID uint
	Skip      int
	Limit     int
}

type ApplicationRepo interface {
	Get(ctx context.Context, id uint) (*model.Application, error)
	List(ctx context.Context, f ApplicationFilter) ([]model.Application, int64, error)
	Create(ctx context.Context, a *model.Application, audit *model.AuditTrail) error
	UpdateFields(ctx context.Context, id uint, changes map[string]any, audits []*model.AuditTrail) error
	// ExecuteTransition persists a workflow transition with an
	// optimistic-lock check: the UPDATE matches both id and the version the
	// state was loaded at. A concurrent writer that got there first leaves
	// zero rows affected and the call fails with apperr.ErrConflict.
	ExecuteTransition(ctx context.Context, a *model.Application, loadedVersion int, audit *model.AuditTrail) error
	Delete(ctx context.Context, a *model.Application, audit *model.AuditTrail) error
	CountByStatus(ctx context.Context) (map[model.ApplicationStatus]int64, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)

	ListTypes(ctx context.Context, includeInactive bool) ([]model.ApplicationType, error)
	GetType(ctx context.Context, id uint) (*model.ApplicationType, error)
	CreateType(ctx context.Context, t *model.ApplicationType) error
}

type applicationRepo struct {
	db    *gorm.DB
	audit AuditRepo
}

func NewApplicationRepo(db *gorm.DB, audit AuditRepo) ApplicationRepo {
	return &applicationRepo{db: db, audit: audit}
}

func (r *applicationRepo) Get(ctx context.Context, id uint) (*model.Application, error) {
	var a model.Application
	err := r.db.WithContext(ctx).
		Preload("ApplicationType").
		Preload("Project").
		First(&a, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("application", id)
	}
	return &a, err
}

func (r *applicationRepo) List(ctx context.Context, f ApplicationFilter) ([]model.Application, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Application{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.ProjectID != 0 {
		q = q.Where("project_id = ?", f.ProjectID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []model.Application
	err := q.Preload("ApplicationType").Preload("Project").
		Order("updated_at DESC").
		Offset(f.Skip).Limit(f.Limit).
		Find(&items).Error
	return items, total, err
}

func (r *applicationRepo) Create(ctx context.Context, a *model.Application, audit *model.AuditTrail) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(a).Error; err != nil {
			return err
		}
		audit.TargetID = a.ID
		return r.audit.Stage(tx, audit)
	})
}

func (r *applicationRepo) UpdateFields(ctx context.Context, id uint, changes map[string]any, audits []*model.AuditTrail) error {
	if len(changes) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Application{}).Where("id = ?", id).Updates(changes).Error; err != nil {
			return err
		}
		return r.audit.Stage(tx, audits...)
	})
}

func (r *applicationRepo) ExecuteTransition(ctx context.Context, a *model.Application, loadedVersion int, audit *model.AuditTrail) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		changes := map[string]any{
			"status":                  a.Status,
			"workflow_step":           a.WorkflowStep,
			"submitted_date":          a.SubmittedDate,
			"approved_date":           a.ApprovedDate,
			"rejected_date":           a.RejectedDate,
			"rejection_reason":        a.RejectionReason,
			"approval_comment":        a.ApprovalComment,
			"generated_document_path": a.GeneratedDocumentPath,
			"version":                 loadedVersion + 1,
		}
		res := tx.Model(&model.Application{}).
			Where("id = ? AND version = ?", a.ID, loadedVersion).
			Updates(changes)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.ErrConflict
		}
		a.Version = loadedVersion + 1
		return r.audit.Stage(tx, audit)
	})
}

func (r *applicationRepo) Delete(ctx context.Context, a *model.Application, audit *model.AuditTrail) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.audit.Stage(tx, audit); err != nil {
			return err
		}
		return tx.Delete(&model.Application{}, a.ID).Error
	})
}

func (r *applicationRepo) CountByStatus(ctx context.Context) (map[model.ApplicationStatus]int64, error) {
	type row struct {
		Status model.ApplicationStatus
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&model.Application{}).
		Select("status, COUNT(id) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[model.ApplicationStatus]int64, len(rows))
	for _, rw := range rows {
		counts[rw.Status] = rw.Count
	}
	return counts, nil
}

func (r *applicationRepo) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Application{}).
		Where("created_at >= ?", since).
		Count(&n).Error
	return n, err
}

func (r *applicationRepo) ListTypes(ctx context.Context, includeInactive bool) ([]model.ApplicationType, error) {
	q := r.db.WithContext(ctx)
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	var items []model.ApplicationType
	err := q.Order("code").Find(&items).Error
	return items, err
}

func (r *applicationRepo) GetType(ctx context.Context, id uint) (*model.ApplicationType, error) {
	var t model.ApplicationType
	err := r.db.WithContext(ctx).First(&t, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("application type", id)
	}
	return &t, err
}

func (r *applicationRepo) CreateType(ctx context.Context, t *model.ApplicationType) error {
	return r.db.WithContext(ctx).Create(t).Error
}
