package model

import "time"

// AuditAction classifies an audit entry.
type AuditAction string

const (
	AuditCreate   AuditAction = "CREATE"
	AuditUpdate   AuditAction = "UPDATE"
	AuditDelete   AuditAction = "DELETE"
	AuditWorkflow AuditAction = "WORKFLOW"
)

// AuditTrail is the append-only per-field change log. Rows are never updated
// or deleted after insertion. Old/new values are stored as strings with the
// empty string standing for "no prior value".
type AuditTrail struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	UserID      *uint       `json:"user_id"`
	TargetModel string      `gorm:"type:varchar(50);not null;index:ix_audit_target,priority:1" json:"target_model"`
	TargetID    uint        `gorm:"not null;index:ix_audit_target,priority:2" json:"target_id"`
	FieldName   string      `gorm:"type:varchar(100);not null" json:"field_name"`
	OldValue    string      `gorm:"type:text" json:"old_value"`
	NewValue    string      `gorm:"type:text" json:"new_value"`
	Action      AuditAction `gorm:"type:varchar(20);not null" json:"action"`
	Timestamp   time.Time   `gorm:"autoCreateTime;index" json:"timestamp"`
}

func (AuditTrail) TableName() string { return "audit_trails" }
