package model

import (
	"time"

	"gorm.io/datatypes"
)

// ProjectStatus is one of the nine fixed business-stage labels. Unlike the
// application workflow there is no transition guard between these stages.
type ProjectStatus string

const (
	StatusPreConsultation       ProjectStatus = "pre-consultation"
	StatusOrderReceived         ProjectStatus = "order-received"
	StatusApplicationInProgress ProjectStatus = "application-in-progress"
	StatusUnderReview           ProjectStatus = "under-review"
	StatusAwaitingReinforcement ProjectStatus = "awaiting-reinforcement-inspection"
	StatusAwaitingInterim       ProjectStatus = "awaiting-interim-inspection"
	StatusAwaitingCompletion    ProjectStatus = "awaiting-completion-inspection"
	StatusCompleted             ProjectStatus = "completed"
	StatusLost                  ProjectStatus = "lost"
)

var ProjectStatuses = []ProjectStatus{
	StatusPreConsultation,
	StatusOrderReceived,
	StatusApplicationInProgress,
	StatusUnderReview,
	StatusAwaitingReinforcement,
	StatusAwaitingInterim,
	StatusAwaitingCompletion,
	StatusCompleted,
	StatusLost,
}

func (s ProjectStatus) Valid() bool {
	for _, v := range ProjectStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Project is the root aggregate. ProjectCode is generated once at creation
// ({year}{3-digit sequence}) and never changes afterwards.
type Project struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	ProjectCode string         `gorm:"type:varchar(20);uniqueIndex;not null" json:"project_code"`
	ProjectName string         `gorm:"type:varchar(200);not null" json:"project_name"`
	Status      ProjectStatus  `gorm:"type:varchar(50);not null;default:'pre-consultation';index" json:"status"`
	InputDate   datatypes.Date `gorm:"not null" json:"input_date"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Customer     *Customer     `gorm:"constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"customer,omitempty"`
	Site         *Site         `gorm:"constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"site,omitempty"`
	Building     *Building     `gorm:"constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"building,omitempty"`
	Financial    *Financial    `gorm:"constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"financial,omitempty"`
	Schedule     *Schedule     `gorm:"constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"schedule,omitempty"`
	Applications []Application `gorm:"constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"applications,omitempty"`
}

func (Project) TableName() string { return "projects" }

type Customer struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	ProjectID uint `gorm:"uniqueIndex;not null" json:"project_id"`

	OwnerName    string `gorm:"type:varchar(100);not null" json:"owner_name"`
	OwnerKana    string `gorm:"type:varchar(100)" json:"owner_kana"`
	OwnerZip     string `gorm:"type:varchar(10)" json:"owner_zip"`
	OwnerAddress string `gorm:"type:text" json:"owner_address"`
	OwnerPhone   string `gorm:"type:varchar(20)" json:"owner_phone"`

	JointName string `gorm:"type:varchar(100)" json:"joint_name"`
	JointKana string `gorm:"type:varchar(100)" json:"joint_kana"`

	ClientName  string `gorm:"type:varchar(100)" json:"client_name"`
	ClientStaff string `gorm:"type:varchar(100)" json:"client_staff"`
}

func (Customer) TableName() string { return "customers" }

type Site struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	ProjectID uint `gorm:"uniqueIndex;not null" json:"project_id"`

	Address  string   `gorm:"type:text;not null" json:"address"`
	LandArea *float64 `gorm:"type:numeric(10,2)" json:"land_area"`

	CityPlan       string `gorm:"type:varchar(100)" json:"city_plan"`
	Zoning         string `gorm:"type:varchar(100)" json:"zoning"`
	FireZone       string `gorm:"type:varchar(100)" json:"fire_zone"`
	SlopeLimit     string `gorm:"type:varchar(100)" json:"slope_limit"`
	Setback        string `gorm:"type:varchar(100)" json:"setback"`
	OtherBuildings string `gorm:"type:text" json:"other_buildings"`

	LandslideAlert string `gorm:"type:varchar(100)" json:"landslide_alert"`
	FloodZone      string `gorm:"type:varchar(100)" json:"flood_zone"`
	TsunamiZone    string `gorm:"type:varchar(100)" json:"tsunami_zone"`
}

func (Site) TableName() string { return "sites" }

// Building is optional and created lazily on the first write that supplies
// building data.
type Building struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	ProjectID uint `gorm:"uniqueIndex;not null" json:"project_id"`

	BuildingName     string   `gorm:"type:varchar(200)" json:"building_name"`
	ConstructionType string   `gorm:"type:varchar(100)" json:"construction_type"`
	PrimaryUse       string   `gorm:"type:varchar(100)" json:"primary_use"`
	Structure        string   `gorm:"type:varchar(100)" json:"structure"`
	Floors           string   `gorm:"type:varchar(50)" json:"floors"`
	MaxHeight        *float64 `gorm:"type:numeric(5,2)" json:"max_height"`
	TotalArea        *float64 `gorm:"type:numeric(10,2)" json:"total_area"`
	BuildingArea     *float64 `gorm:"type:numeric(10,2)" json:"building_area"`
}

func (Building) TableName() string { return "buildings" }

// Financial always exists alongside its project.
type Financial struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	ProjectID uint `gorm:"uniqueIndex;not null" json:"project_id"`

	ContractPrice    *int64 `gorm:"type:numeric(12,0)" json:"contract_price"`
	EstimateAmount   *int64 `gorm:"type:numeric(12,0)" json:"estimate_amount"`
	ConstructionCost *int64 `gorm:"type:numeric(12,0)" json:"construction_cost"`
	OrderNote        string `gorm:"type:text" json:"order_note"`

	SettlementDate   *datatypes.Date `json:"settlement_date"`
	SettlementStaff  string          `gorm:"type:varchar(100)" json:"settlement_staff"`
	SettlementAmount *int64          `gorm:"type:numeric(12,0)" json:"settlement_amount"`
	PaymentTerms     string          `gorm:"type:text" json:"payment_terms"`
	SettlementNote   string          `gorm:"type:text" json:"settlement_note"`

	HasPermitApplication  bool `gorm:"not null;default:false" json:"has_permit_application"`
	HasInspectionSchedule bool `gorm:"not null;default:false" json:"has_inspection_schedule"`
	HasFoundationPlan     bool `gorm:"not null;default:false" json:"has_foundation_plan"`
	HasHardwarePlan       bool `gorm:"not null;default:false" json:"has_hardware_plan"`
	HasInvoice            bool `gorm:"not null;default:false" json:"has_invoice"`
	HasEnergyCalculation  bool `gorm:"not null;default:false" json:"has_energy_calculation"`
	HasSettlementData     bool `gorm:"not null;default:false" json:"has_settlement_data"`
}

func (Financial) TableName() string { return "financials" }

// Schedule tracks the three inspection stages plus the closeout paperwork.
type Schedule struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	ProjectID uint `gorm:"uniqueIndex;not null" json:"project_id"`

	ReinforcementScheduled *datatypes.Date `json:"reinforcement_scheduled"`
	ReinforcementActual    *datatypes.Date `json:"reinforcement_actual"`
	InterimScheduled       *datatypes.Date `json:"interim_scheduled"`
	InterimActual          *datatypes.Date `json:"interim_actual"`
	CompletionScheduled    *datatypes.Date `json:"completion_scheduled"`
	CompletionActual       *datatypes.Date `json:"completion_actual"`

	InspectionDate   *datatypes.Date `json:"inspection_date"`
	InspectionResult string          `gorm:"type:varchar(100)" json:"inspection_result"`
	Corrections      string          `gorm:"type:text" json:"corrections"`
	FinalReportDate  *datatypes.Date `json:"final_report_date"`
	CompletionNote   string          `gorm:"type:text" json:"completion_note"`

	HasPermitReturned bool `gorm:"not null;default:false" json:"has_permit_returned"`
	HasReportSent     bool `gorm:"not null;default:false" json:"has_report_sent"`
	HasItemsConfirmed bool `gorm:"not null;default:false" json:"has_items_confirmed"`

	ChangeMemo string `gorm:"type:text" json:"change_memo"`
}

func (Schedule) TableName() string { return "schedules" }
