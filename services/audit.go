package services

import (
	"encoding/json"
	"log"

	"gorm.io/gorm"

	"ai-governance-api/models"
)

// Audit actions.
const (
	AuditActionCreated          = "CREATED"
	AuditActionUpdated          = "UPDATED"
	AuditActionSubmitted        = "SUBMITTED"
	AuditActionApproved         = "APPROVED"
	AuditActionRejected         = "REJECTED"
	AuditActionChangesRequested = "CHANGES_REQUESTED"
	AuditActionEscalated        = "ESCALATED"
)

// Audit categories.
const (
	AuditCategoryLifecycle    = "LIFECYCLE"
	AuditCategoryStatusChange = "STATUS_CHANGE"
	AuditCategoryFormEdit     = "FORM_EDIT"
)

// AuditEntry is one append-only audit row to record.
type AuditEntry struct {
	SubmissionID   string
	PerformedByID  int
	Action         string
	Category       string
	PreviousStatus string
	NewStatus      string
	Description    string
	Metadata       map[string]interface{}
}

// RecordAudit writes an audit log row. Best-effort: failures are logged and
// swallowed so auditing can never break the operation being audited.
func RecordAudit(db *gorm.DB, entry AuditEntry) {
	row := models.AuditLog{
		SubmissionID:   entry.SubmissionID,
		PerformedByID:  entry.PerformedByID,
		Action:         entry.Action,
		Category:       entry.Category,
		PreviousStatus: entry.PreviousStatus,
		NewStatus:      entry.NewStatus,
		Description:    entry.Description,
	}

	if entry.Metadata != nil {
		if data, err := json.Marshal(entry.Metadata); err == nil {
			row.Metadata = string(data)
		}
	}

	if err := db.Create(&row).Error; err != nil {
		log.Printf("failed to create audit log for submission %s: %v", entry.SubmissionID, err)
	}
}

// AuditHistory returns the audit trail for a submission, newest first.
func AuditHistory(db *gorm.DB, submissionID string) ([]models.AuditLog, error) {
	var entries []models.AuditLog
	err := db.Preload("PerformedBy").
		Where("submission_id = ?", submissionID).
		Order("created_at DESC").
		Find(&entries).Error
	return entries, err
}
