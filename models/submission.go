package models

import "time"

// Submission lifecycle statuses.
const (
	StatusDraft            = "DRAFT"
	StatusSubmitted        = "SUBMITTED"
	StatusUnderReview      = "UNDER_REVIEW"
	StatusApproved         = "APPROVED"
	StatusRejected         = "REJECTED"
	StatusChangesRequested = "CHANGES_REQUESTED"
)

// AISystemSubmission represents the ai_system_submissions table: one AI system
// intake record per deployment request. Enumerated fields are stored as plain
// strings; an empty string means the submitter has not answered yet.
type AISystemSubmission struct {
	ID              string `gorm:"primaryKey;column:id;size:36" json:"id"`
	AISystemName    string `gorm:"column:ai_system_name" json:"ai_system_name"`
	UseCase         string `gorm:"column:use_case" json:"use_case"`
	BusinessPurpose string `gorm:"column:business_purpose;type:text" json:"business_purpose"`

	Vendor        string `gorm:"column:vendor" json:"vendor"`
	CurrentStage  string `gorm:"column:current_stage" json:"current_stage"`     // evaluation|development|testing|production
	NumberOfUsers string `gorm:"column:number_of_users" json:"number_of_users"` // 1-10|11-50|51-200|201-1000|1000+

	OutputUsage      string `gorm:"column:output_usage" json:"output_usage"`             // direct_action|automated_with_oversight|advisory_only|human_review_required
	HumanReviewLevel string `gorm:"column:human_review_level" json:"human_review_level"` // none|spot_check|review_before_critical|always_reviewed

	DataTypes         StringList `gorm:"column:data_types;type:json" json:"data_types"`
	VendorDataStorage string     `gorm:"column:vendor_data_storage" json:"vendor_data_storage"` // none|transient|persistent|unknown

	UserTrainingRequired  bool `gorm:"column:user_training_required" json:"user_training_required"`
	AcceptableUseRequired bool `gorm:"column:acceptable_use_required" json:"acceptable_use_required"`

	HasFederalContracts string `gorm:"column:has_federal_contracts" json:"has_federal_contracts"` // yes|no|unknown
	UsageLoggingEnabled bool   `gorm:"column:usage_logging_enabled" json:"usage_logging_enabled"`
	ComplianceAccess    bool   `gorm:"column:compliance_access" json:"compliance_access"`
	IncidentResponseDoc bool   `gorm:"column:incident_response_doc" json:"incident_response_doc"`

	Status        string `gorm:"column:status;default:DRAFT" json:"status"`
	SubmittedByID int    `gorm:"column:submitted_by_id" json:"submitted_by_id"`

	CreatedAt   time.Time  `gorm:"column:created_at" json:"created_at"`
	SubmittedAt *time.Time `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
	UpdatedAt   time.Time  `gorm:"column:updated_at" json:"updated_at"`

	SubmittedBy    *User             `gorm:"foreignKey:SubmittedByID" json:"submitted_by,omitempty"`
	Review         *SubmissionReview `gorm:"foreignKey:SubmissionID" json:"review,omitempty"`
	RiskAssessment *RiskAssessment   `gorm:"foreignKey:SubmissionID" json:"risk_assessment,omitempty"`
}

func (AISystemSubmission) TableName() string { return "ai_system_submissions" }

// IsTerminal reports whether the submission has reached a resolved state.
func (s *AISystemSubmission) IsTerminal() bool {
	return s.Status == StatusApproved || s.Status == StatusRejected
}

// GovernanceFields returns the flat key-value view of the submission that is
// handed to the narrative analysis service.
func (s *AISystemSubmission) GovernanceFields() map[string]interface{} {
	return map[string]interface{}{
		"aiSystemName":          s.AISystemName,
		"useCase":               s.UseCase,
		"businessPurpose":       s.BusinessPurpose,
		"vendor":                s.Vendor,
		"currentStage":          s.CurrentStage,
		"numberOfUsers":         s.NumberOfUsers,
		"outputUsage":           s.OutputUsage,
		"humanReviewLevel":      s.HumanReviewLevel,
		"dataTypes":             []string(s.DataTypes),
		"vendorDataStorage":     s.VendorDataStorage,
		"userTrainingRequired":  s.UserTrainingRequired,
		"acceptableUseRequired": s.AcceptableUseRequired,
		"hasFederalContracts":   s.HasFederalContracts,
		"usageLoggingEnabled":   s.UsageLoggingEnabled,
		"complianceAccess":      s.ComplianceAccess,
		"incidentResponseDoc":   s.IncidentResponseDoc,
	}
}
