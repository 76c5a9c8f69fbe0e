package models

import "time"

// AuditLog represents the audit_logs table: an append-only trail of everything
// that happened to a submission. Writes are best-effort and must never block
// the operation being audited.
type AuditLog struct {
	AuditID       int    `gorm:"primaryKey;column:audit_id" json:"audit_id"`
	SubmissionID  string `gorm:"column:submission_id;size:36;index" json:"submission_id"`
	PerformedByID int    `gorm:"column:performed_by_id" json:"performed_by_id"`

	Action   string `gorm:"column:action" json:"action"`     // CREATED|UPDATED|SUBMITTED|APPROVED|REJECTED|CHANGES_REQUESTED|ESCALATED
	Category string `gorm:"column:category" json:"category"` // LIFECYCLE|STATUS_CHANGE|FORM_EDIT|COMMENT

	PreviousStatus string `gorm:"column:previous_status" json:"previous_status,omitempty"`
	NewStatus      string `gorm:"column:new_status" json:"new_status,omitempty"`
	Description    string `gorm:"column:description" json:"description"`
	Metadata       string `gorm:"column:metadata;type:json" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`

	PerformedBy *User `gorm:"foreignKey:PerformedByID" json:"performed_by,omitempty"`
}

func (AuditLog) TableName() string { return "audit_logs" }
