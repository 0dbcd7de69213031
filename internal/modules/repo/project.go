package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/aoba-arch/permitdesk/internal/modules/model"
	"github.com/aoba-arch/permitdesk/internal/pkg/apperr"
)

// EntityPatch is one entity's worth of staged column changes inside a
// coordinated project update. Changes maps column name to new value; Audits
// carries the matching per-field audit rows.
type EntityPatch struct {
	Table   string
	ID      uint
	Changes map[string]any
	Audits  []*model.AuditTrail
}

// ProjectPatchSet is everything a coordinated update writes in one
// transaction: staged column changes per entity, an optional new Building
// row, and the audit entries for all of it.
type ProjectPatchSet struct {
	Patches     []EntityPatch
	NewBuilding *model.Building
	NewAudits   []*model.AuditTrail
}

type ProjectRepo interface {
	GetByID(ctx context.Context, id uint) (*model.Project, error)
	GetByCode(ctx context.Context, code string) (*model.Project, error)
	List(ctx context.Context, skip, limit int, status model.ProjectStatus) ([]model.Project, int64, error)
	ListByStatus(ctx context.Context, status model.ProjectStatus) ([]model.Project, error)
	Search(ctx context.Context, query string) ([]model.Project, error)
	MaxCodeWithPrefix(ctx context.Context, prefix string) (string, error)
	Create(ctx context.Context, p *model.Project, audit *model.AuditTrail) error
	ApplyPatchSet(ctx context.Context, set ProjectPatchSet) error
	SaveFinancial(ctx context.Context, f *model.Financial) error
	SaveSchedule(ctx context.Context, s *model.Schedule) error
	Delete(ctx context.Context, p *model.Project, audit *model.AuditTrail) error
	CountByStatus(ctx context.Context) (map[model.ProjectStatus]int64, error)
	CountInputSince(ctx context.Context, since time.Time) (int64, error)
}

type projectRepo struct {
	db    *gorm.DB
	audit AuditRepo
}

func NewProjectRepo(db *gorm.DB, audit AuditRepo) ProjectRepo {
	return &projectRepo{db: db, audit: audit}
}

func preloadAll(q *gorm.DB) *gorm.DB {
	return q.Preload("Customer").
		Preload("Site").
		Preload("Building").
		Preload("Financial").
		Preload("Schedule").
		Preload("Applications").
		Preload("Applications.ApplicationType")
}

func (r *projectRepo) GetByID(ctx context.Context, id uint) (*model.Project, error) {
	var p model.Project
	err := preloadAll(r.db.WithContext(ctx)).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("project", id)
	}
	return &p, err
}

func (r *projectRepo) GetByCode(ctx context.Context, code string) (*model.Project, error) {
	var p model.Project
	err := preloadAll(r.db.WithContext(ctx)).Where("project_code = ?", code).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("project", code)
	}
	return &p, err
}

func (r *projectRepo) List(ctx context.Context, skip, limit int, status model.ProjectStatus) ([]model.Project, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Project{})
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []model.Project
	err := q.Preload("Customer").Preload("Site").Preload("Building").
		Order("updated_at DESC").
		Offset(skip).Limit(limit).
		Find(&items).Error
	return items, total, err
}

func (r *projectRepo) ListByStatus(ctx context.Context, status model.ProjectStatus) ([]model.Project, error) {
	var items []model.Project
	err := r.db.WithContext(ctx).
		Preload("Customer").Preload("Site").
		Where("status = ?", status).
		Order("updated_at DESC").
		Find(&items).Error
	return items, err
}

func (r *projectRepo) Search(ctx context.Context, query string) ([]model.Project, error) {
	pattern := "%" + query + "%"
	var items []model.Project
	err := r.db.WithContext(ctx).
		Preload("Customer").Preload("Site").
		Joins("JOIN customers ON customers.project_id = projects.id").
		Where("projects.project_name LIKE ? OR projects.project_code LIKE ? OR customers.owner_name LIKE ?",
			pattern, pattern, pattern).
		Order("projects.updated_at DESC").
		Find(&items).Error
	return items, err
}

func (r *projectRepo) MaxCodeWithPrefix(ctx context.Context, prefix string) (string, error) {
	var max *string
	err := r.db.WithContext(ctx).Model(&model.Project{}).
		Where("project_code LIKE ?", prefix+"%").
		Select("MAX(project_code)").
		Scan(&max).Error
	if err != nil || max == nil {
		return "", err
	}
	return *max, nil
}

// Create inserts the project together with its owned rows and the CREATE
// audit entry in one transaction. Associated Customer/Site/Building rows on
// p are inserted through the association; Financial and Schedule must be
// pre-populated defaults.
func (r *projectRepo) Create(ctx context.Context, p *model.Project, audit *model.AuditTrail) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		audit.TargetID = p.ID
		return r.audit.Stage(tx, audit)
	})
}

func (r *projectRepo) ApplyPatchSet(ctx context.Context, set ProjectPatchSet) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range set.Patches {
			if len(p.Changes) == 0 {
				continue
			}
			if err := tx.Table(p.Table).Where("id = ?", p.ID).Updates(p.Changes).Error; err != nil {
				return err
			}
			if err := r.audit.Stage(tx, p.Audits...); err != nil {
				return err
			}
		}
		if set.NewBuilding != nil {
			if err := tx.Create(set.NewBuilding).Error; err != nil {
				return err
			}
		}
		return r.audit.Stage(tx, set.NewAudits...)
	})
}

func (r *projectRepo) SaveFinancial(ctx context.Context, f *model.Financial) error {
	return r.db.WithContext(ctx).Save(f).Error
}

func (r *projectRepo) SaveSchedule(ctx context.Context, s *model.Schedule) error {
	return r.db.WithContext(ctx).Save(s).Error
}

// Delete removes the project and everything it owns. The DELETE audit entry
// is written first so the trail records what disappeared; child rows are
// removed explicitly so the behavior does not depend on the SQLite
// foreign_keys pragma.
func (r *projectRepo) Delete(ctx context.Context, p *model.Project, audit *model.AuditTrail) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.audit.Stage(tx, audit); err != nil {
			return err
		}
		for _, m := range []any{
			&model.Application{}, &model.Customer{}, &model.Site{},
			&model.Building{}, &model.Financial{}, &model.Schedule{},
		} {
			if err := tx.Where("project_id = ?", p.ID).Delete(m).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&model.Project{}, p.ID).Error
	})
}

func (r *projectRepo) CountByStatus(ctx context.Context) (map[model.ProjectStatus]int64, error) {
	type row struct {
		Status model.ProjectStatus
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&model.Project{}).
		Select("status, COUNT(id) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[model.ProjectStatus]int64, len(rows))
	for _, rw := range rows {
		counts[rw.Status] = rw.Count
	}
	return counts, nil
}

func (r *projectRepo) CountInputSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Project{}).
		Where("input_date >= ?", since.Format("2006-01-02")).
		Count(&n).Error
	return n, err
}
