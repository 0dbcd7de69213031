package model

import (
	"time"

	"gorm.io/datatypes"
)

// ApplicationStatus is the workflow state of a filed application. All
// changes between these values go through the guarded workflow actions.
type ApplicationStatus string

const (
	AppStatusDraft     ApplicationStatus = "DRAFT"
	AppStatusInReview  ApplicationStatus = "IN_REVIEW"
	AppStatusApproved  ApplicationStatus = "APPROVED"
	AppStatusRejected  ApplicationStatus = "REJECTED"
	AppStatusWithdrawn ApplicationStatus = "WITHDRAWN"
	AppStatusCompleted ApplicationStatus = "COMPLETED"
)

var ApplicationStatuses = []ApplicationStatus{
	AppStatusDraft,
	AppStatusInReview,
	AppStatusApproved,
	AppStatusRejected,
	AppStatusWithdrawn,
	AppStatusCompleted,
}

func (s ApplicationStatus) Valid() bool {
	for _, v := range ApplicationStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// ApplicationType is the lookup table of permit application kinds.
type ApplicationType struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Code        string `gorm:"type:varchar(20);uniqueIndex;not null" json:"code"`
	Name        string `gorm:"type:varchar(100);not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	IsActive    bool   `gorm:"not null;default:true" json:"is_active"`
}

func (ApplicationType) TableName() string { return "application_types" }

// Application is a permit filing attached to a project. Version backs the
// optimistic-lock check on workflow transitions: an update that does not
// match the loaded version affects zero rows and the writer gets a conflict.
type Application struct {
	ID                uint `gorm:"primaryKey" json:"id"`
	ProjectID         uint `gorm:"not null;index" json:"project_id"`
	ApplicationTypeID uint `gorm:"not null;index" json:"application_type_id"`

	Status       ApplicationStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"`
	WorkflowStep int               `gorm:"not null;default:0" json:"workflow_step"`
	Version      int               `gorm:"not null;default:1" json:"version"`

	SubmittedDate *datatypes.Date `json:"submitted_date"`
	ApprovedDate  *datatypes.Date `json:"approved_date"`
	RejectedDate  *datatypes.Date `json:"rejected_date"`
	CompletedDate *datatypes.Date `json:"completed_date"`

	Notes                 string `gorm:"type:text" json:"notes"`
	RejectionReason       string `gorm:"type:text" json:"rejection_reason"`
	ApprovalComment       string `gorm:"type:text" json:"approval_comment"`
	GeneratedDocumentPath string `gorm:"type:varchar(500)" json:"generated_document_path"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Project         *Project         `gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"project,omitempty"`
	ApplicationType *ApplicationType `gorm:"foreignKey:ApplicationTypeID;references:ID;" json:"application_type,omitempty"`
}

func (Application) TableName() string { return "applications" }
