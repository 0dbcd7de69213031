package service

import (
	"strconv"
	"time"

	"gorm.io/datatypes"

	"github.com/aoba-arch/permitdesk/internal/modules/model"
)

// Patch types carry partial updates. A nil field is absent and leaves the
// stored value untouched; a non-nil field is applied (and audited when it
// actually changes the value). No reflection: every field is diffed by name.

type ProjectPatch struct {
	ProjectName *string              `json:"project_name"`
	Status      *model.ProjectStatus `json:"status"`
	InputDate   *datatypes.Date      `json:"input_date"`

	Customer *CustomerPatch `json:"customer"`
	Site     *SitePatch     `json:"site"`
	Building *BuildingPatch `json:"building"`
}

type CustomerPatch struct {
	OwnerName    *string `json:"owner_name"`
	OwnerKana    *string `json:"owner_kana"`
	OwnerZip     *string `json:"owner_zip"`
	OwnerAddress *string `json:"owner_address"`
	OwnerPhone   *string `json:"owner_phone"`
	JointName    *string `json:"joint_name"`
	JointKana    *string `json:"joint_kana"`
	ClientName   *string `json:"client_name"`
	ClientStaff  *string `json:"client_staff"`
}

type SitePatch struct {
	Address        *string  `json:"address"`
	LandArea       *float64 `json:"land_area"`
	CityPlan       *string  `json:"city_plan"`
	Zoning         *string  `json:"zoning"`
	FireZone       *string  `json:"fire_zone"`
	SlopeLimit     *string  `json:"slope_limit"`
	Setback        *string  `json:"setback"`
	OtherBuildings *string  `json:"other_buildings"`
	LandslideAlert *string  `json:"landslide_alert"`
	FloodZone      *string  `json:"flood_zone"`
	TsunamiZone    *string  `json:"tsunami_zone"`
}

type BuildingPatch struct {
	BuildingName     *string  `json:"building_name"`
	ConstructionType *string  `json:"construction_type"`
	PrimaryUse       *string  `json:"primary_use"`
	Structure        *string  `json:"structure"`
	Floors           *string  `json:"floors"`
	MaxHeight        *float64 `json:"max_height"`
	TotalArea        *float64 `json:"total_area"`
	BuildingArea     *float64 `json:"building_area"`
}

type FinancialPatch struct {
	ContractPrice    *int64          `json:"contract_price"`
	EstimateAmount   *int64          `json:"estimate_amount"`
	ConstructionCost *int64          `json:"construction_cost"`
	OrderNote        *string         `json:"order_note"`
	SettlementDate   *datatypes.Date `json:"settlement_date"`
	SettlementStaff  *string         `json:"settlement_staff"`
	SettlementAmount *int64          `json:"settlement_amount"`
	PaymentTerms     *string         `json:"payment_terms"`
	SettlementNote   *string         `json:"settlement_note"`

	HasPermitApplication  *bool `json:"has_permit_application"`
	HasInspectionSchedule *bool `json:"has_inspection_schedule"`
	HasFoundationPlan     *bool `json:"has_foundation_plan"`
	HasHardwarePlan       *bool `json:"has_hardware_plan"`
	HasInvoice            *bool `json:"has_invoice"`
	HasEnergyCalculation  *bool `json:"has_energy_calculation"`
	HasSettlementData     *bool `json:"has_settlement_data"`
}

type SchedulePatch struct {
	ReinforcementScheduled *datatypes.Date `json:"reinforcement_scheduled"`
	ReinforcementActual    *datatypes.Date `json:"reinforcement_actual"`
	InterimScheduled       *datatypes.Date `json:"interim_scheduled"`
	InterimActual          *datatypes.Date `json:"interim_actual"`
	CompletionScheduled    *datatypes.Date `json:"completion_scheduled"`
	CompletionActual       *datatypes.Date `json:"completion_actual"`

	InspectionDate   *datatypes.Date `json:"inspection_date"`
	InspectionResult *string         `json:"inspection_result"`
	Corrections      *string         `json:"corrections"`
	FinalReportDate  *datatypes.Date `json:"final_report_date"`
	CompletionNote   *string         `json:"completion_note"`

	HasPermitReturned *bool `json:"has_permit_returned"`
	HasReportSent     *bool `json:"has_report_sent"`
	HasItemsConfirmed *bool `json:"has_items_confirmed"`

	ChangeMemo *string `json:"change_memo"`
}

type ApplicationPatch struct {
	Notes           *string         `json:"notes"`
	RejectionReason *string         `json:"rejection_reason"`
	ApprovalComment *string         `json:"approval_comment"`
	CompletedDate   *datatypes.Date `json:"completed_date"`
}

// --- string normalization for audit values ---
//
// Audit old/new values are stored as strings; the empty string stands for
// "no prior value". Equality is decided on the normalized form so e.g. a
// date resubmitted in a different wire format is not a change.

func fmtFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func fmtInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func fmtBool(v bool) string {
	return strconv.FormatBool(v)
}

func fmtDate(d *datatypes.Date) string {
	if d == nil {
		return ""
	}
	return time.Time(*d).Format("2006-01-02")
}

// entityDiff accumulates staged column changes plus their audit rows for one
// entity. Each setter compares normalized old and new values and records
// nothing when they are equal.
type entityDiff struct {
	targetModel string
	targetID    uint
	changes     map[string]any
	audits      []*model.AuditTrail
}

func newEntityDiff(targetModel string, targetID uint) *entityDiff {
	return &entityDiff{
		targetModel: targetModel,
		targetID:    targetID,
		changes:     map[string]any{},
	}
}

func (d *entityDiff) record(column, oldVal, newVal string, value any) {
	if oldVal == newVal {
		return
	}
	d.changes[column] = value
	d.audits = append(d.audits, &model.AuditTrail{
		TargetModel: d.targetModel,
		TargetID:    d.targetID,
		FieldName:   column,
		OldValue:    oldVal,
		NewValue:    newVal,
		Action:      model.AuditUpdate,
	})
}

func (d *entityDiff) str(column, old string, patch *string) {
	if patch == nil {
		return
	}
	d.record(column, old, *patch, *patch)
}

func (d *entityDiff) float(column string, old, patch *float64) {
	if patch == nil {
		return
	}
	d.record(column, fmtFloat(old), fmtFloat(patch), *patch)
}

func (d *entityDiff) date(column string, old, patch *datatypes.Date) {
	if patch == nil {
		return
	}
	d.record(column, fmtDate(old), fmtDate(patch), *patch)
}
