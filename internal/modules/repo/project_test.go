package repo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aoba-arch/permitdesk/internal/modules/model"
	"github.com/aoba-arch/permitdesk/internal/pkg/apperr"
)

func TestProjectRepo_Create_PersistsAggregate(t *testing.T) {
	db := newTestDB(t)
	audits := NewAuditRepo(db)
	r := NewProjectRepo(db, audits)

	p := &model.Project{
		ProjectCode: "2026001",
		ProjectName: "Tanaka Residence",
		Status:      model.StatusPreConsultation,
		Customer:    &model.Customer{OwnerName: "Tanaka Taro"},
		Site:        &model.Site{Address: "1-1-1 Test"},
		Financial:   &model.Financial{},
		Schedule:    &model.Schedule{},
	}
	audit := &model.AuditTrail{
		TargetModel: "Project", FieldName: "project_name",
		NewValue: "Tanaka Residence", Action: model.AuditCreate,
	}
	require.NoError(t, r.Create(context.Background(), p, audit))

	stored, err := r.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Customer)
	require.NotNil(t, stored.Site)
	require.NotNil(t, stored.Financial)
	require.NotNil(t, stored.Schedule)
	assert.Nil(t, stored.Building)

	entries, err := audits.ListByTarget(context.Background(), "Project", p.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, p.ID, entries[0].TargetID)
}

func TestProjectRepo_GetByCode(t *testing.T) {
	db := newTestDB(t)
	r := NewProjectRepo(db, NewAuditRepo(db))
	seedProject(t, db, "2026003", "Sato Residence", "Sato Hanako")

	p, err := r.GetByCode(context.Background(), "2026003")
	require.NoError(t, err)
	assert.Equal(t, "Sato Residence", p.ProjectName)

	_, err = r.GetByCode(context.Background(), "1999001")
	assert.True(t, apperr.IsNotFound(err))
}

func TestProjectRepo_MaxCodeWithPrefix(t *testing.T) {
	db := newTestDB(t)
	r := NewProjectRepo(db, NewAuditRepo(db))

	max, err := r.MaxCodeWithPrefix(context.Background(), "2026")
	require.NoError(t, err)
	assert.Equal(t, "", max)

	seedProject(t, db, "2026001", "A", "a")
	seedProject(t, db, "2026012", "B", "b")
	seedProject(t, db, "2025099", "C", "c")

	max, err = r.MaxCodeWithPrefix(context.Background(), "2026")
	require.NoError(t, err)
	assert.Equal(t, "2026012", max)
}

func TestProjectRepo_ApplyPatchSet(t *testing.T) {
	db := newTestDB(t)
	audits := NewAuditRepo(db)
	r := NewProjectRepo(db, audits)
	p := seedProject(t, db, "2026001", "Tanaka Residence", "Tanaka Taro")

	set := ProjectPatchSet{
		Patches: []EntityPatch{
			{
				Table: "projects", ID: p.ID,
				Changes: map[string]any{"project_name": "Tanaka Residence II"},
				Audits: []*model.AuditTrail{{
					TargetModel: "Project", TargetID: p.ID,
					FieldName: "project_name",
					OldValue:  "Tanaka Residence", NewValue: "Tanaka Residence II",
					Action: model.AuditUpdate,
				}},
			},
			{
				Table: "customers", ID: p.Customer.ID,
				Changes: map[string]any{"owner_phone": "03-1234-5678"},
				Audits: []*model.AuditTrail{{
					TargetModel: "Customer", TargetID: p.Customer.ID,
					FieldName: "owner_phone", NewValue: "03-1234-5678",
					Action: model.AuditUpdate,
				}},
			},
		},
	}
	require.NoError(t, r.ApplyPatchSet(context.Background(), set))

	stored, err := r.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tanaka Residence II", stored.ProjectName)
	assert.Equal(t, "03-1234-5678", stored.Customer.OwnerPhone)

	entries, err := audits.ListByTarget(context.Background(), "Project", p.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestProjectRepo_ApplyPatchSet_LazyBuilding(t *testing.T) {
	db := newTestDB(t)
	audits := NewAuditRepo(db)
	r := NewProjectRepo(db, audits)
	p := seedProject(t, db, "2026001", "Tanaka Residence", "Tanaka Taro")

	set := ProjectPatchSet{
		NewBuilding: &model.Building{ProjectID: p.ID, BuildingName: "Main House"},
		NewAudits: []*model.AuditTrail{{
			TargetModel: "Building", TargetID: p.ID,
			FieldName: "building_info", NewValue: "building created",
			Action: model.AuditCreate,
		}},
	}
	require.NoError(t, r.ApplyPatchSet(context.Background(), set))

	stored, err := r.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Building)
	assert.Equal(t, "Main House", stored.Building.BuildingName)

	entries, err := audits.ListByTarget(context.Background(), "Building", p.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestProjectRepo_Search(t *testing.T) {
	db := newTestDB(t)
	r := NewProjectRepo(db, NewAuditRepo(db))
	seedProject(t, db, "2026001", "Tanaka Residence", "Tanaka Taro")
	seedProject(t, db, "2026002", "Sato Residence", "Sato Hanako")

	byOwner, err := r.Search(context.Background(), "Hanako")
	require.NoError(t, err)
	require.Len(t, byOwner, 1)
	assert.Equal(t, "Sato Residence", byOwner[0].ProjectName)

	byCode, err := r.Search(context.Background(), "2026001")
	require.NoError(t, err)
	require.Len(t, byCode, 1)

	byName, err := r.Search(context.Background(), "Residence")
	require.NoError(t, err)
	assert.Len(t, byName, 2)
}

func TestProjectRepo_Delete_RemovesChildren(t *testing.T) {
	db := newTestDB(t)
	audits := NewAuditRepo(db)
	r := NewProjectRepo(db, audits)
	p := seedProject(t, db, "2026001", "Tanaka Residence", "Tanaka Taro")
	at := seedApplicationType(t, db)
	seedApplication(t, db, p.ID, at.ID)

	audit := &model.AuditTrail{
		TargetModel: "Project", TargetID: p.ID,
		FieldName: "project_name", OldValue: p.ProjectName,
		Action: model.AuditDelete,
	}
	require.NoError(t, r.Delete(context.Background(), p, audit))

	_, err := r.GetByID(context.Background(), p.ID)
	assert.True(t, apperr.IsNotFound(err))

	var customers, applications int64
	require.NoError(t, db.Model(&model.Customer{}).Where("project_id = ?", p.ID).Count(&customers).Error)
	require.NoError(t, db.Model(&model.Application{}).Where("project_id = ?", p.ID).Count(&applications).Error)
	assert.Zero(t, customers)
	assert.Zero(t, applications)

	// the trail outlives the project
	entries, err := audits.ListByTarget(context.Background(), "Project", p.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestProjectRepo_CountInputSince(t *testing.T) {
	db := newTestDB(t)
	r := NewProjectRepo(db, NewAuditRepo(db))
	seedProject(t, db, "2026001", "A", "a")

	n, err := r.CountInputSince(context.Background(), time.Now().AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = r.CountInputSince(context.Background(), time.Now().AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAuditRepo_ListByTarget_NewestFirst(t *testing.T) {
	db := newTestDB(t)
	audits := NewAuditRepo(db)

	for _, v := range []string{"first", "second", "third"} {
		require.NoError(t, audits.Stage(db, &model.AuditTrail{
			TargetModel: "Project", TargetID: 1,
			FieldName: "project_name", NewValue: v,
			Action: model.AuditUpdate,
		}))
	}

	entries, err := audits.ListByTarget(context.Background(), "Project", 1)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "third", entries[0].NewValue)
	assert.Equal(t, "first", entries[2].NewValue)
}
