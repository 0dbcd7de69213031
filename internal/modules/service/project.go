package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/aoba-arch/permitdesk/internal/modules/model"
	"github.com/aoba-arch/permitdesk/internal/modules/repo"
	"github.com/aoba-arch/permitdesk/internal/pkg/apperr"
	"github.com/aoba-arch/permitdesk/internal/pkg/validate"
)

type ListProjectsInput struct {
	Skip   int
	Limit  int
	Status model.ProjectStatus
}

type ListProjectsOutput struct {
	Items []model.Project `json:"projects"`
	Total int64           `json:"total"`
	Skip  int             `json:"skip"`
	Limit int             `json:"limit"`
}

type CreateCustomerInput struct {
	OwnerName    string `json:"owner_name"`
	OwnerKana    string `json:"owner_kana"`
	OwnerZip     string `json:"owner_zip"`
	OwnerAddress string `json:"owner_address"`
	OwnerPhone   string `json:"owner_phone"`
	JointName    string `json:"joint_name"`
	JointKana    string `json:"joint_kana"`
	ClientName   string `json:"client_name"`
	ClientStaff  string `json:"client_staff"`
}

type CreateSiteInput struct {
	Address        string   `json:"address"`
	LandArea       *float64 `json:"land_area"`
	CityPlan       string   `json:"city_plan"`
	Zoning         string   `json:"zoning"`
	FireZone       string   `json:"fire_zone"`
	SlopeLimit     string   `json:"slope_limit"`
	Setback        string   `json:"setback"`
	OtherBuildings string   `json:"other_buildings"`
	LandslideAlert string   `json:"landslide_alert"`
	FloodZone      string   `json:"flood_zone"`
	TsunamiZone    string   `json:"tsunami_zone"`
}

type CreateBuildingInput struct {
	BuildingName     string   `json:"building_name"`
	ConstructionType string   `json:"construction_type"`
	PrimaryUse       string   `json:"primary_use"`
	Structure        string   `json:"structure"`
	Floors           string   `json:"floors"`
	MaxHeight        *float64 `json:"max_height"`
	TotalArea        *float64 `json:"total_area"`
	BuildingArea     *float64 `json:"building_area"`
}

type CreateProjectInput struct {
	ProjectName string               `json:"project_name"`
	Status      model.ProjectStatus  `json:"status"`
	InputDate   *datatypes.Date      `json:"input_date"`
	Customer    CreateCustomerInput  `json:"customer"`
	Site        CreateSiteInput      `json:"site"`
	Building    *CreateBuildingInput `json:"building"`
}

type ProjectSummary struct {
	Total        int64                         `json:"total_projects"`
	StatusCounts map[model.ProjectStatus]int64 `json:"status_counts"`
	NewThisMonth int64                         `json:"new_this_month"`
}

type ProjectService interface {
	List(ctx context.Context, in ListProjectsInput) (*ListProjectsOutput, error)
	GetByID(ctx context.Context, id uint) (*model.Project, error)
	GetByCode(ctx context.Context, code string) (*model.Project, error)
	ListByStatus(ctx context.Context, status model.ProjectStatus) ([]model.Project, error)
	Search(ctx context.Context, query string) ([]model.Project, error)
	Create(ctx context.Context, in CreateProjectInput) (*model.Project, error)
	UpdateWithAudit(ctx context.Context, id uint, patch ProjectPatch) (*model.Project, error)
	UpdateFinancial(ctx context.Context, projectID uint, patch FinancialPatch) (*model.Financial, error)
	UpdateSchedule(ctx context.Context, projectID uint, patch SchedulePatch) (*model.Schedule, error)
	Delete(ctx context.Context, id uint) error
	Summary(ctx context.Context) (*ProjectSummary, error)
	AuditTrail(ctx context.Context, targetModel string, targetID uint) ([]model.AuditTrail, error)
}

type projectService struct {
	r          repo.ProjectRepo
	audits     repo.AuditRepo
	log        *zap.Logger
	notifier   Notifier
	rdb        *redis.Client
	summaryTTL time.Duration
}

func NewProjectService(
	r repo.ProjectRepo,
	audits repo.AuditRepo,
	log *zap.Logger,
	notifier Notifier,
	rdb *redis.Client,
	summaryTTL time.Duration,
) ProjectService {
	return &projectService{
		r:          r,
		audits:     audits,
		log:        log,
		notifier:   notifier,
		rdb:        rdb,
		summaryTTL: summaryTTL,
	}
}

const projectSummaryKey = "permitdesk:summary:projects"

func (s *projectService) List(ctx context.Context, in ListProjectsInput) (*ListProjectsOutput, error) {
	if in.Status != "" && !in.Status.Valid() {
		return nil, apperr.Validation("status", "unknown status")
	}
	items, total, err := s.r.List(ctx, in.Skip, in.Limit, in.Status)
	if err != nil {
		return nil, err
	}
	return &ListProjectsOutput{Items: items, Total: total, Skip: in.Skip, Limit: in.Limit}, nil
}

func (s *projectService) GetByID(ctx context.Context, id uint) (*model.Project, error) {
	return s.r.GetByID(ctx, id)
}

func (s *projectService) GetByCode(ctx context.Context, code string) (*model.Project, error) {
	return s.r.GetByCode(ctx, code)
}

func (s *projectService) ListByStatus(ctx context.Context, status model.ProjectStatus) ([]model.Project, error) {
	if !status.Valid() {
		return nil, apperr.Validation("status", "unknown status")
	}
	return s.r.ListByStatus(ctx, status)
}

func (s *projectService) Search(ctx context.Context, query string) ([]model.Project, error) {
	return s.r.Search(ctx, query)
}

// generateCode produces the next {year}{3-digit sequence} code, continuing
// from the highest code issued this calendar year.
func (s *projectService) generateCode(ctx context.Context) (string, error) {
	prefix := fmt.Sprintf("%d", time.Now().Year())
	max, err := s.r.MaxCodeWithPrefix(ctx, prefix)
	if err != nil {
		return "", err
	}
	seq := 1
	if max != "" && len(max) > len(prefix) {
		var n int
		if _, err := fmt.Sscanf(max[len(prefix):], "%d", &n); err == nil {
			seq = n + 1
		}
	}
	return fmt.Sprintf("%s%03d", prefix, seq), nil
}

func (s *projectService) Create(ctx context.Context, in CreateProjectInput) (*model.Project, error) {
	name, err := validate.ProjectName(in.ProjectName)
	if err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = model.StatusPreConsultation
	}
	if !status.Valid() {
		return nil, apperr.Validation("status", "unknown status")
	}
	inputDate := datatypes.Date(time.Now())
	if in.InputDate != nil {
		if err := validate.NotInFuture("input_date", time.Time(*in.InputDate)); err != nil {
			return nil, err
		}
		inputDate = *in.InputDate
	}

	ownerName, err := validate.OwnerName(in.Customer.OwnerName)
	if err != nil {
		return nil, err
	}
	if err := validate.ZipCode(in.Customer.OwnerZip); err != nil {
		return nil, err
	}
	if err := validate.Phone("owner_phone", in.Customer.OwnerPhone); err != nil {
		return nil, err
	}
	if in.Site.Address == "" {
		return nil, apperr.Validation("address", "required")
	}
	if in.Site.LandArea != nil {
		if err := validate.PositiveArea("land_area", *in.Site.LandArea); err != nil {
			return nil, err
		}
	}
	if in.Building != nil {
		if err := validateBuildingAreas(in.Building.MaxHeight, in.Building.TotalArea, in.Building.BuildingArea); err != nil {
			return nil, err
		}
	}

	code, err := s.generateCode(ctx)
	if err != nil {
		return nil, err
	}

	p := &model.Project{
		ProjectCode: code,
		ProjectName: name,
		Status:      status,
		InputDate:   inputDate,
		Customer: &model.Customer{
			OwnerName:    ownerName,
			OwnerKana:    in.Customer.OwnerKana,
			OwnerZip:     in.Customer.OwnerZip,
			OwnerAddress: in.Customer.OwnerAddress,
			OwnerPhone:   in.Customer.OwnerPhone,
			JointName:    in.Customer.JointName,
			JointKana:    in.Customer.JointKana,
			ClientName:   in.Customer.ClientName,
			ClientStaff:  in.Customer.ClientStaff,
		},
		Site: &model.Site{
			Address:        in.Site.Address,
			LandArea:       in.Site.LandArea,
			CityPlan:       in.Site.CityPlan,
			Zoning:         in.Site.Zoning,
			FireZone:       in.Site.FireZone,
			SlopeLimit:     in.Site.SlopeLimit,
			Setback:        in.Site.Setback,
			OtherBuildings: in.Site.OtherBuildings,
			LandslideAlert: in.Site.LandslideAlert,
			FloodZone:      in.Site.FloodZone,
			TsunamiZone:    in.Site.TsunamiZone,
		},
		// Every project carries Financial and Schedule rows from day one.
		Financial: &model.Financial{},
		Schedule:  &model.Schedule{},
	}
	if in.Building != nil {
		p.Building = &model.Building{
			BuildingName:     in.Building.BuildingName,
			ConstructionType: in.Building.ConstructionType,
			PrimaryUse:       in.Building.PrimaryUse,
			Structure:        in.Building.Structure,
			Floors:           in.Building.Floors,
			MaxHeight:        in.Building.MaxHeight,
			TotalArea:        in.Building.TotalArea,
			BuildingArea:     in.Building.BuildingArea,
		}
	}

	audit := &model.AuditTrail{
		TargetModel: "Project",
		FieldName:   "project_name",
		NewValue:    name,
		Action:      model.AuditCreate,
	}
	if err := s.r.Create(ctx, p, audit); err != nil {
		return nil, err
	}

	s.invalidateSummary(ctx)
	created, err := s.r.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	notify(ctx, s.notifier, s.log, "project.created", created)
	return created, nil
}

// UpdateWithAudit applies a partial update to the project and its nested
// customer/site/building, recording one audit row per field that actually
// changes. Everything commits in a single transaction.
func (s *projectService) UpdateWithAudit(ctx context.Context, id uint, patch ProjectPatch) (*model.Project, error) {
	p, err := s.r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	set := repo.ProjectPatchSet{}

	pd := newEntityDiff("Project", p.ID)
	if patch.ProjectName != nil {
		name, err := validate.ProjectName(*patch.ProjectName)
		if err != nil {
			return nil, err
		}
		pd.str("project_name", p.ProjectName, &name)
	}
	if patch.Status != nil {
		// Project status changes are deliberately unguarded; any of the
		// nine labels is accepted from any other.
		if !patch.Status.Valid() {
			return nil, apperr.Validation("status", "unknown status")
		}
		status := string(*patch.Status)
		pd.str("status", string(p.Status), &status)
	}
	if patch.InputDate != nil {
		if err := validate.NotInFuture("input_date", time.Time(*patch.InputDate)); err != nil {
			return nil, err
		}
		pd.date("input_date", &p.InputDate, patch.InputDate)
	}
	set.Patches = append(set.Patches, repo.EntityPatch{
		Table: "projects", ID: p.ID, Changes: pd.changes, Audits: pd.audits,
	})

	if patch.Customer != nil && p.Customer != nil {
		cd, err := diffCustomer(p.Customer, patch.Customer)
		if err != nil {
			return nil, err
		}
		set.Patches = append(set.Patches, repo.EntityPatch{
			Table: "customers", ID: p.Customer.ID, Changes: cd.changes, Audits: cd.audits,
		})
	}

	if patch.Site != nil && p.Site != nil {
		sd, err := diffSite(p.Site, patch.Site)
		if err != nil {
			return nil, err
		}
		set.Patches = append(set.Patches, repo.EntityPatch{
			Table: "sites", ID: p.Site.ID, Changes: sd.changes, Audits: sd.audits,
		})
	}

	if patch.Building != nil {
		if p.Building == nil {
			// First building data for this project: a single CREATE entry
			// rather than a per-field diff.
			b, err := buildingFromPatch(p.ID, patch.Building)
			if err != nil {
				return nil, err
			}
			set.NewBuilding = b
			set.NewAudits = append(set.NewAudits, &model.AuditTrail{
				TargetModel: "Building",
				TargetID:    p.ID,
				FieldName:   "building_info",
				NewValue:    "building created",
				Action:      model.AuditCreate,
			})
		} else {
			bd, err := diffBuilding(p.Building, patch.Building)
			if err != nil {
				return nil, err
			}
			set.Patches = append(set.Patches, repo.EntityPatch{
				Table: "buildings", ID: p.Building.ID, Changes: bd.changes, Audits: bd.audits,
			})
		}
	}

	if err := s.r.ApplyPatchSet(ctx, set); err != nil {
		return nil, err
	}

	s.invalidateSummary(ctx)
	updated, err := s.r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	notify(ctx, s.notifier, s.log, "project.updated", updated)
	return updated, nil
}

func diffCustomer(c *model.Customer, patch *CustomerPatch) (*entityDiff, error) {
	if patch.OwnerName != nil {
		name, err := validate.OwnerName(*patch.OwnerName)
		if err != nil {
			return nil, err
		}
		patch.OwnerName = &name
	}
	if patch.OwnerZip != nil {
		if err := validate.ZipCode(*patch.OwnerZip); err != nil {
			return nil, err
		}
	}
	if patch.OwnerPhone != nil {
		if err := validate.Phone("owner_phone", *patch.OwnerPhone); err != nil {
			return nil, err
		}
	}

	d := newEntityDiff("Customer", c.ID)
	d.str("owner_name", c.OwnerName, patch.OwnerName)
	d.str("owner_kana", c.OwnerKana, patch.OwnerKana)
	d.str("owner_zip", c.OwnerZip, patch.OwnerZip)
	d.str("owner_address", c.OwnerAddress, patch.OwnerAddress)
	d.str("owner_phone", c.OwnerPhone, patch.OwnerPhone)
	d.str("joint_name", c.JointName, patch.JointName)
	d.str("joint_kana", c.JointKana, patch.JointKana)
	d.str("client_name", c.ClientName, patch.ClientName)
	d.str("client_staff", c.ClientStaff, patch.ClientStaff)
	return d, nil
}

func diffSite(st *model.Site, patch *SitePatch) (*entityDiff, error) {
	if patch.Address != nil && *patch.Address == "" {
		return nil, apperr.Validation("address", "required")
	}
	if patch.LandArea != nil {
		if err := validate.PositiveArea("land_area", *patch.LandArea); err != nil {
			return nil, err
		}
	}

	d := newEntityDiff("Site", st.ID)
	d.str("address", st.Address, patch.Address)
	d.float("land_area", st.LandArea, patch.LandArea)
	d.str("city_plan", st.CityPlan, patch.CityPlan)
	d.str("zoning", st.Zoning, patch.Zoning)
	d.str("fire_zone", st.FireZone, patch.FireZone)
	d.str("slope_limit", st.SlopeLimit, patch.SlopeLimit)
	d.str("setback", st.Setback, patch.Setback)
	d.str("other_buildings", st.OtherBuildings, patch.OtherBuildings)
	d.str("landslide_alert", st.LandslideAlert, patch.LandslideAlert)
	d.str("flood_zone", st.FloodZone, patch.FloodZone)
	d.str("tsunami_zone", st.TsunamiZone, patch.TsunamiZone)
	return d, nil
}

func diffBuilding(b *model.Building, patch *BuildingPatch) (*entityDiff, error) {
	total := b.TotalArea
	if patch.TotalArea != nil {
		total = patch.TotalArea
	}
	area := b.BuildingArea
	if patch.BuildingArea != nil {
		area = patch.BuildingArea
	}
	if err := validateBuildingAreas(patch.MaxHeight, total, area); err != nil {
		return nil, err
	}

	d := newEntityDiff("Building", b.ID)
	d.str("building_name", b.BuildingName, patch.BuildingName)
	d.str("construction_type", b.ConstructionType, patch.ConstructionType)
	d.str("primary_use", b.PrimaryUse, patch.PrimaryUse)
	d.str("structure", b.Structure, patch.Structure)
	d.str("floors", b.Floors, patch.Floors)
	d.float("max_height", b.MaxHeight, patch.MaxHeight)
	d.float("total_area", b.TotalArea, patch.TotalArea)
	d.float("building_area", b.BuildingArea, patch.BuildingArea)
	return d, nil
}

func buildingFromPatch(projectID uint, patch *BuildingPatch) (*model.Building, error) {
	if err := validateBuildingAreas(patch.MaxHeight, patch.TotalArea, patch.BuildingArea); err != nil {
		return nil, err
	}
	b := &model.Building{ProjectID: projectID}
	if patch.BuildingName != nil {
		b.BuildingName = *patch.BuildingName
	}
	if patch.ConstructionType != nil {
		b.ConstructionType = *patch.ConstructionType
	}
	if patch.PrimaryUse != nil {
		b.PrimaryUse = *patch.PrimaryUse
	}
	if patch.Structure != nil {
		b.Structure = *patch.Structure
	}
	if patch.Floors != nil {
		b.Floors = *patch.Floors
	}
	b.MaxHeight = patch.MaxHeight
	b.TotalArea = patch.TotalArea
	b.BuildingArea = patch.BuildingArea
	return b, nil
}

func validateBuildingAreas(maxHeight, totalArea, buildingArea *float64) error {
	if maxHeight != nil {
		if err := validate.PositiveArea("max_height", *maxHeight); err != nil {
			return err
		}
	}
	if totalArea != nil {
		if err := validate.PositiveArea("total_area", *totalArea); err != nil {
			return err
		}
	}
	if buildingArea != nil {
		if err := validate.PositiveArea("building_area", *buildingArea); err != nil {
			return err
		}
	}
	if totalArea != nil && buildingArea != nil && *buildingArea > *totalArea {
		return apperr.Validation("building_area", "must not exceed total_area")
	}
	return nil
}

// UpdateFinancial applies a partial update to the project's financial row.
// Financial changes are validated but, matching long-standing behavior, not
// written to the audit trail.
func (s *projectService) UpdateFinancial(ctx context.Context, projectID uint, patch FinancialPatch) (*model.Financial, error) {
	p, err := s.r.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	f := p.Financial
	if f == nil {
		f = &model.Financial{ProjectID: projectID}
	}

	contract := f.ContractPrice
	if patch.ContractPrice != nil {
		contract = patch.ContractPrice
	}
	settlement := f.SettlementAmount
	if patch.SettlementAmount != nil {
		settlement = patch.SettlementAmount
	}
	for field, v := range map[string]*int64{
		"contract_price":    patch.ContractPrice,
		"estimate_amount":   patch.EstimateAmount,
		"construction_cost": patch.ConstructionCost,
		"settlement_amount": patch.SettlementAmount,
	} {
		if v != nil {
			if err := validate.NonNegativeAmount(field, *v); err != nil {
				return nil, err
			}
		}
	}
	if contract != nil && settlement != nil && *settlement > *contract {
		return nil, apperr.Validation("settlement_amount", "must not exceed contract_price")
	}

	applyFinancialPatch(f, patch)
	if err := s.r.SaveFinancial(ctx, f); err != nil {
		return nil, err
	}
	notify(ctx, s.notifier, s.log, "project.updated", map[string]any{"id": projectID, "financial": f})
	return f, nil
}

func applyFinancialPatch(f *model.Financial, patch FinancialPatch) {
	if patch.ContractPrice != nil {
		f.ContractPrice = patch.ContractPrice
	}
	if patch.EstimateAmount != nil {
		f.EstimateAmount = patch.EstimateAmount
	}
	if patch.ConstructionCost != nil {
		f.ConstructionCost = patch.ConstructionCost
	}
	if patch.OrderNote != nil {
		f.OrderNote = *patch.OrderNote
	}
	if patch.SettlementDate != nil {
		f.SettlementDate = patch.SettlementDate
	}
	if patch.SettlementStaff != nil {
		f.SettlementStaff = *patch.SettlementStaff
	}
	if patch.SettlementAmount != nil {
		f.SettlementAmount = patch.SettlementAmount
	}
	if patch.PaymentTerms != nil {
		f.PaymentTerms = *patch.PaymentTerms
	}
	if patch.SettlementNote != nil {
		f.SettlementNote = *patch.SettlementNote
	}
	if patch.HasPermitApplication != nil {
		f.HasPermitApplication = *patch.HasPermitApplication
	}
	if patch.HasInspectionSchedule != nil {
		f.HasInspectionSchedule = *patch.HasInspectionSchedule
	}
	if patch.HasFoundationPlan != nil {
		f.HasFoundationPlan = *patch.HasFoundationPlan
	}
	if patch.HasHardwarePlan != nil {
		f.HasHardwarePlan = *patch.HasHardwarePlan
	}
	if patch.HasInvoice != nil {
		f.HasInvoice = *patch.HasInvoice
	}
	if patch.HasEnergyCalculation != nil {
		f.HasEnergyCalculation = *patch.HasEnergyCalculation
	}
	if patch.HasSettlementData != nil {
		f.HasSettlementData = *patch.HasSettlementData
	}
}

// UpdateSchedule applies a partial update to the project's schedule row,
// enforcing inspection date consistency. Like Financial, not audited.
func (s *projectService) UpdateSchedule(ctx context.Context, projectID uint, patch SchedulePatch) (*model.Schedule, error) {
	p, err := s.r.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	sc := p.Schedule
	if sc == nil {
		sc = &model.Schedule{ProjectID: projectID}
	}

	merged := *sc
	applySchedulePatch(&merged, patch)
	if err := validateScheduleDates(&merged); err != nil {
		return nil, err
	}

	applySchedulePatch(sc, patch)
	if err := s.r.SaveSchedule(ctx, sc); err != nil {
		return nil, err
	}
	notify(ctx, s.notifier, s.log, "project.updated", map[string]any{"id": projectID, "schedule": sc})
	return sc, nil
}

func applySchedulePatch(sc *model.Schedule, patch SchedulePatch) {
	if patch.ReinforcementScheduled != nil {
		sc.ReinforcementScheduled = patch.ReinforcementScheduled
	}
	if patch.ReinforcementActual != nil {
		sc.ReinforcementActual = patch.ReinforcementActual
	}
	if patch.InterimScheduled != nil {
		sc.InterimScheduled = patch.InterimScheduled
	}
	if patch.InterimActual != nil {
		sc.InterimActual = patch.InterimActual
	}
	if patch.CompletionScheduled != nil {
		sc.CompletionScheduled = patch.CompletionScheduled
	}
	if patch.CompletionActual != nil {
		sc.CompletionActual = patch.CompletionActual
	}
	if patch.InspectionDate != nil {
		sc.InspectionDate = patch.InspectionDate
	}
	if patch.InspectionResult != nil {
		sc.InspectionResult = *patch.InspectionResult
	}
	if patch.Corrections != nil {
		sc.Corrections = *patch.Corrections
	}
	if patch.FinalReportDate != nil {
		sc.FinalReportDate = patch.FinalReportDate
	}
	if patch.CompletionNote != nil {
		sc.CompletionNote = *patch.CompletionNote
	}
	if patch.HasPermitReturned != nil {
		sc.HasPermitReturned = *patch.HasPermitReturned
	}
	if patch.HasReportSent != nil {
		sc.HasReportSent = *patch.HasReportSent
	}
	if patch.HasItemsConfirmed != nil {
		sc.HasItemsConfirmed = *patch.HasItemsConfirmed
	}
	if patch.ChangeMemo != nil {
		sc.ChangeMemo = *patch.ChangeMemo
	}
}

func validateScheduleDates(sc *model.Schedule) error {
	type stage struct {
		name      string
		scheduled *datatypes.Date
		actual    *datatypes.Date
	}
	stages := []stage{
		{"reinforcement", sc.ReinforcementScheduled, sc.ReinforcementActual},
		{"interim", sc.InterimScheduled, sc.InterimActual},
		{"completion", sc.CompletionScheduled, sc.CompletionActual},
	}
	for _, st := range stages {
		if st.actual != nil && st.scheduled == nil {
			return apperr.Validation(st.name+"_actual", "actual date requires a scheduled date")
		}
	}
	if sc.ReinforcementScheduled != nil && sc.InterimScheduled != nil && sc.CompletionScheduled != nil {
		r := time.Time(*sc.ReinforcementScheduled)
		i := time.Time(*sc.InterimScheduled)
		c := time.Time(*sc.CompletionScheduled)
		if r.After(i) || i.After(c) {
			return apperr.Validation("schedule", "inspection dates must be in reinforcement, interim, completion order")
		}
	}
	return nil
}

func (s *projectService) Delete(ctx context.Context, id uint) error {
	p, err := s.r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	audit := &model.AuditTrail{
		TargetModel: "Project",
		TargetID:    p.ID,
		FieldName:   "project_name",
		OldValue:    p.ProjectName,
		Action:      model.AuditDelete,
	}
	if err := s.r.Delete(ctx, p, audit); err != nil {
		return err
	}
	s.invalidateSummary(ctx)
	notify(ctx, s.notifier, s.log, "project.deleted", map[string]uint{"id": id})
	return nil
}

func (s *projectService) Summary(ctx context.Context) (*ProjectSummary, error) {
	if cached := s.cachedSummary(ctx); cached != nil {
		return cached, nil
	}

	counts, err := s.r.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	firstOfMonth := time.Date(time.Now().Year(), time.Now().Month(), 1, 0, 0, 0, 0, time.Local)
	newThisMonth, err := s.r.CountInputSince(ctx, firstOfMonth)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, n := range counts {
		total += n
	}
	out := &ProjectSummary{Total: total, StatusCounts: counts, NewThisMonth: newThisMonth}
	s.cacheSummary(ctx, out)
	return out, nil
}

func (s *projectService) AuditTrail(ctx context.Context, targetModel string, targetID uint) ([]model.AuditTrail, error) {
	return s.audits.ListByTarget(ctx, targetModel, targetID)
}

func (s *projectService) cachedSummary(ctx context.Context) *ProjectSummary {
	if s.rdb == nil {
		return nil
	}
	raw, err := s.rdb.Get(ctx, projectSummaryKey).Bytes()
	if err != nil {
		return nil
	}
	var out ProjectSummary
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return &out
}

func (s *projectService) cacheSummary(ctx context.Context, v *ProjectSummary) {
	if s.rdb == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, projectSummaryKey, raw, s.summaryTTL).Err(); err != nil {
		s.log.Sugar().Debugw("summary cache write failed", "err", err)
	}
}

func (s *projectService) invalidateSummary(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, projectSummaryKey).Err(); err != nil {
		s.log.Sugar().Debugw("summary cache invalidation failed", "err", err)
	}
}
