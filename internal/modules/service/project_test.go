package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/aoba-arch/permitdesk/internal/modules/model"
	"github.com/aoba-arch/permitdesk/internal/modules/repo"
	"github.com/aoba-arch/permitdesk/internal/pkg/apperr"
)

func newProjService(r *MockProjectRepo, a *MockAuditRepo, n Notifier) ProjectService {
	return NewProjectService(r, a, zap.NewNop(), n, nil, time.Minute)
}

func storedProject(id uint) *model.Project {
	land := 120.5
	return &model.Project{
		ID:          id,
		ProjectCode: "2026001",
		ProjectName: "Tanaka Residence",
		Status:      model.StatusOrderReceived,
		InputDate:   datatypes.Date(time.Now().AddDate(0, 0, -10)),
		Customer: &model.Customer{
			ID:         21,
			ProjectID:  id,
			OwnerName:  "Tanaka Taro",
			OwnerZip:   "123-4567",
			OwnerPhone: "03-1234-5678",
		},
		Site: &model.Site{
			ID:        31,
			ProjectID: id,
			Address:   "1-2-3 Sakura, Aoba-ku",
			LandArea:  &land,
		},
		Financial: &model.Financial{ID: 41, ProjectID: id},
		Schedule:  &model.Schedule{ID: 51, ProjectID: id},
	}
}

func validCreateInput() CreateProjectInput {
	return CreateProjectInput{
		ProjectName: "Sato Residence",
		Customer: CreateCustomerInput{
			OwnerName:  "Sato Hanako",
			OwnerZip:   "987-6543",
			OwnerPhone: "090-8765-4321",
		},
		Site: CreateSiteInput{
			Address: "4-5-6 Momiji, Aoba-ku",
		},
	}
}

func TestProjectService_Create_GeneratesSequentialCode(t *testing.T) {
	r := new(MockProjectRepo)
	a := new(MockAuditRepo)

	prefix := fmt.Sprintf("%d", time.Now().Year())
	r.On("MaxCodeWithPrefix", mock.Anything, prefix).Return(prefix+"007", nil)
	r.On("Create", mock.Anything, mock.MatchedBy(func(p *model.Project) bool {
		return p.ProjectCode == prefix+"008" &&
			p.Status == model.StatusPreConsultation &&
			p.Financial != nil && p.Schedule != nil
	}), mock.MatchedBy(func(au *model.AuditTrail) bool {
		return au.Action == model.AuditCreate && au.FieldName == "project_name"
	})).Return(nil)
	r.On("GetByID", mock.Anything, mock.Anything).Return(storedProject(1), nil)

	svc := newProjService(r, a, nil)
	_, err := svc.Create(context.Background(), validCreateInput())

	require.NoError(t, err)
	r.AssertExpectations(t)
}

func TestProjectService_Create_FirstCodeOfYear(t *testing.T) {
	r := new(MockProjectRepo)
	a := new(MockAuditRepo)

	prefix := fmt.Sprintf("%d", time.Now().Year())
	r.On("MaxCodeWithPrefix", mock.Anything, prefix).Return("", nil)
	r.On("Create", mock.Anything, mock.MatchedBy(func(p *model.Project) bool {
		return p.ProjectCode == prefix+"001"
	}), mock.Anything).Return(nil)
	r.On("GetByID", mock.Anything, mock.Anything).Return(storedProject(1), nil)

	svc := newProjService(r, a, nil)
	_, err := svc.Create(context.Background(), validCreateInput())
	require.NoError(t, err)
}

func TestProjectService_Create_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateProjectInput)
	}{
		{"empty name", func(in *CreateProjectInput) { in.ProjectName = "   " }},
		{"forbidden characters", func(in *CreateProjectInput) { in.ProjectName = "Sato <Residence>" }},
		{"empty owner", func(in *CreateProjectInput) { in.Customer.OwnerName = "" }},
		{"bad zip", func(in *CreateProjectInput) { in.Customer.OwnerZip = "123-456" }},
		{"bad phone", func(in *CreateProjectInput) { in.Customer.OwnerPhone = "not-a-phone" }},
		{"missing address", func(in *CreateProjectInput) { in.Site.Address = "" }},
		{"future input date", func(in *CreateProjectInput) {
			d := datatypes.Date(time.Now().AddDate(0, 0, 2))
			in.InputDate = &d
		}},
		{"zero land area", func(in *CreateProjectInput) {
			zero := 0.0
			in.Site.LandArea = &zero
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := new(MockProjectRepo)
			a := new(MockAuditRepo)
			in := validCreateInput()
			tt.mutate(&in)

			svc := newProjService(r, a, nil)
			_, err := svc.Create(context.Background(), in)

			require.Error(t, err)
			assert.True(t, apperr.IsValidation(err))
			r.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestProjectService_UpdateWithAudit_SingleFieldSingleAudit(t *testing.T) {
	r := new(MockProjectRepo)
	a := new(MockAuditRepo)

	p := storedProject(1)
	r.On("GetByID", mock.Anything, uint(1)).Return(p, nil)
	r.On("ApplyPatchSet", mock.Anything, mock.MatchedBy(func(set repo.ProjectPatchSet) bool {
		var audits []*model.AuditTrail
		for _, ep := range set.Patches {
			audits = append(audits, ep.Audits...)
		}
		return len(audits) == 1 &&
			audits[0].TargetModel == "Customer" &&
			audits[0].FieldName == "owner_phone" &&
			audits[0].OldValue == "03-1234-5678" &&
			audits[0].NewValue == "03-9999-0000"
	})).Return(nil)

	svc := newProjService(r, a, nil)
	phone := "03-9999-0000"
	_, err := svc.UpdateWithAudit(context.Background(), 1, ProjectPatch{
		Customer: &CustomerPatch{OwnerPhone: &phone},
	})

	require.NoError(t, err)
	r.AssertExpectations(t)
}

func TestProjectService_UpdateWithAudit_UnchangedValueNotAudited(t *testing.T) {
	r := new(MockProjectRepo)
	a := new(MockAuditRepo)

	p := storedProject(1)
	r.On("GetByID", mock.Anything, uint(1)).Return(p, nil)
	r.On("ApplyPatchSet", mock.Anything, mock.MatchedBy(func(set repo.ProjectPatchSet) bool {
		for _, ep := range set.Patches {
			if len(ep.Changes) != 0 || len(ep.Audits) != 0 {
				return false
			}
		}
		return set.NewBuilding == nil && len(set.NewAudits) == 0
	})).Return(nil)

	svc := newProjService(r, a, nil)
	name := "Tanaka Residence" // identical to stored
	_, err := svc.UpdateWithAudit(context.Background(), 1, ProjectPatch{ProjectName: &name})

	require.NoError(t, err)
	r.AssertExpectations(t)
}

func TestProjectService_UpdateWithAudit_LazyBuildingCreate(t *testing.T) {
	r := new(MockProjectRepo)
	a := new(MockAuditRepo)

	p := storedProject(1) // no Building row yet
	r.On("GetByID", mock.Anything, uint(1)).Return(p, nil)
	r.On("ApplyPatchSet", mock.Anything, mock.MatchedBy(func(set repo.ProjectPatchSet) bool {
		return set.NewBuilding != nil &&
			set.NewBuilding.ProjectID == 1 &&
			set.NewBuilding.BuildingName == "Main House" &&
			len(set.NewAudits) == 1 &&
			set.NewAudits[0].TargetModel == "Building" &&
			set.NewAudits[0].FieldName == "building_info" &&
			set.NewAudits[0].Action == model.AuditCreate
	})).Return(nil)

	svc := newProjService(r, a, nil)
	name := "Main House"
	_, err := svc.UpdateWithAudit(context.Background(), 1, ProjectPatch{
		Building: &BuildingPatch{BuildingName: &name},
	})

	require.NoError(t, err)
	r.AssertExpectations(t)
}

func TestProjectService_UpdateWithAudit_BuildingAreaBound(t *testing.T) {
	r := new(MockProjectRepo)
	a := new(MockAuditRepo)

	p := storedProject(1)
	total := 150.0
	used := 90.0
	p.Building = &model.Building{ID: 61, ProjectID: 1, TotalArea: &total, BuildingArea: &used}
	r.On("GetByID", mock.Anything, uint(1)).Return(p, nil)

	svc := newProjService(r, a, nil)
	tooBig := 200.0
	_, err := svc.UpdateWithAudit(context.Background(), 1, ProjectPatch{
		Building: &BuildingPatch{BuildingArea: &tooBig},
	})

	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
	r.AssertNotCalled(t, "ApplyPatchSet", mock.Anything, mock.Anything)
}

func TestProjectService_UpdateWithAudit_UnknownStatus(t *testing.T) {
	r := new(MockProjectRepo)
	a := new(MockAuditRepo)

	r.On("GetByID", mock.Anything, uint(1)).Return(storedProject(1), nil)

	svc := newProjService(r, a, nil)
	bad := model.ProjectStatus("halfway-done")
	_, err := svc.UpdateWithAudit(context.Background(), 1, ProjectPatch{Status: &bad})

	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestProjectService_UpdateFinancial(t *testing.T) {
	t.Run("settlement above contract rejected", func(t *testing.T) {
		r := new(MockProjectRepo)
		a := new(MockAuditRepo)
		p := storedProject(1)
		contract := int64(30_000_000)
		p.Financial.ContractPrice = &contract
		r.On("GetByID", mock.Anything, uint(1)).Return(p, nil)

		svc := newProjService(r, a, nil)
		settlement := int64(31_000_000)
		_, err := svc.UpdateFinancial(context.Background(), 1, FinancialPatch{SettlementAmount: &settlement})

		require.Error(t, err)
		assert.True(t, apperr.IsValidation(err))
		r.AssertNotCalled(t, "SaveFinancial", mock.Anything, mock.Anything)
	})

	t.Run("negative amount rejected", func(t *testing.T) {
		r := new(MockProjectRepo)
		a := new(MockAuditRepo)
		r.On("GetByID", mock.Anything, uint(1)).Return(storedProject(1), nil)

		svc := newProjService(r, a, nil)
		bad := int64(-1)
		_, err := svc.UpdateFinancial(context.Background(), 1, FinancialPatch{EstimateAmount: &bad})

		require.Error(t, err)
		assert.True(t, apperr.IsValidation(err))
	})

	t.Run("partial update keeps untouched fields", func(t *testing.T) {
		r := new(MockProjectRepo)
		a := new(MockAuditRepo)
		p := storedProject(1)
		p.Financial.OrderNote = "keep me"
		r.On("GetByID", mock.Anything, uint(1)).Return(p, nil)
		r.On("SaveFinancial", mock.Anything, mock.MatchedBy(func(f *model.Financial) bool {
			return f.OrderNote == "keep me" && f.ContractPrice != nil && *f.ContractPrice == 25_000_000
		})).Return(nil)

		svc := newProjService(r, a, nil)
		price := int64(25_000_000)
		out, err := svc.UpdateFinancial(context.Background(), 1, FinancialPatch{ContractPrice: &price})

		require.NoError(t, err)
		assert.Equal(t, "keep me", out.OrderNote)
		r.AssertExpectations(t)
	})
}

func TestProjectService_UpdateSchedule(t *testing.T) {
	day := func(offset int) *datatypes.Date {
		d := datatypes.Date(time.Now().AddDate(0, 0, offset))
		return &d
	}

	t.Run("actual without scheduled rejected", func(t *testing.T) {
		r := new(MockProjectRepo)
		a := new(MockAuditRepo)
		r.On("GetByID", mock.Anything, uint(1)).Return(storedProject(1), nil)

		svc := newProjService(r, a, nil)
		_, err := svc.UpdateSchedule(context.Background(), 1, SchedulePatch{ReinforcementActual: day(0)})

		require.Error(t, err)
		assert.True(t, apperr.IsValidation(err))
		r.AssertNotCalled(t, "SaveSchedule", mock.Anything, mock.Anything)
	})

	t.Run("out of order scheduled dates rejected", func(t *testing.T) {
		r := new(MockProjectRepo)
		a := new(MockAuditRepo)
		r.On("GetByID", mock.Anything, uint(1)).Return(storedProject(1), nil)

		svc := newProjService(r, a, nil)
		_, err := svc.UpdateSchedule(context.Background(), 1, SchedulePatch{
			ReinforcementScheduled: day(30),
			InterimScheduled:       day(10),
			CompletionScheduled:    day(60),
		})

		require.Error(t, err)
		assert.True(t, apperr.IsValidation(err))
	})

	t.Run("ordered dates accepted", func(t *testing.T) {
		r := new(MockProjectRepo)
		a := new(MockAuditRepo)
		r.On("GetByID", mock.Anything, uint(1)).Return(storedProject(1), nil)
		r.On("SaveSchedule", mock.Anything, mock.Anything).Return(nil)

		svc := newProjService(r, a, nil)
		_, err := svc.UpdateSchedule(context.Background(), 1, SchedulePatch{
			ReinforcementScheduled: day(10),
			InterimScheduled:       day(30),
			CompletionScheduled:    day(60),
		})

		require.NoError(t, err)
		r.AssertExpectations(t)
	})
}

func TestProjectService_Delete(t *testing.T) {
	r := new(MockProjectRepo)
	a := new(MockAuditRepo)
	n := new(MockNotifier)

	p := storedProject(1)
	r.On("GetByID", mock.Anything, uint(1)).Return(p, nil)
	r.On("Delete", mock.Anything, p, mock.MatchedBy(func(au *model.AuditTrail) bool {
		return au.Action == model.AuditDelete && au.OldValue == "Tanaka Residence"
	})).Return(nil)
	n.On("PublishJSON", mock.Anything, "project.deleted", mock.Anything).Return(nil)

	svc := newProjService(r, a, n)
	require.NoError(t, svc.Delete(context.Background(), 1))
	r.AssertExpectations(t)
	n.AssertExpectations(t)
}

func TestProjectService_Summary(t *testing.T) {
	r := new(MockProjectRepo)
	a := new(MockAuditRepo)

	r.On("CountByStatus", mock.Anything).Return(map[model.ProjectStatus]int64{
		model.StatusOrderReceived: 5,
		model.StatusCompleted:     2,
	}, nil)
	r.On("CountInputSince", mock.Anything, mock.Anything).Return(int64(3), nil)

	svc := newProjService(r, a, nil)
	out, err := svc.Summary(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(7), out.Total)
	assert.Equal(t, int64(3), out.NewThisMonth)
	assert.Equal(t, int64(5), out.StatusCounts[model.StatusOrderReceived])
}
