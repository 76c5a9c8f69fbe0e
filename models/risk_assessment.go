package models

import "time"

// RiskAssessment represents the risk_assessments table. One row per
// submission, replaced wholesale every time the submission is (re-)submitted.
type RiskAssessment struct {
	ID           string `gorm:"primaryKey;column:id;size:36" json:"id"`
	SubmissionID string `gorm:"column:submission_id;size:36;uniqueIndex" json:"submission_id"`

	OverallScore int    `gorm:"column:overall_score" json:"overall_score"`
	OverallLevel string `gorm:"column:overall_level" json:"overall_level"` // LOW|MEDIUM|HIGH|CRITICAL

	DataPrivacyScore int `gorm:"column:data_privacy_score" json:"data_privacy_score"`
	OversightScore   int `gorm:"column:oversight_score" json:"oversight_score"`
	ComplianceScore  int `gorm:"column:compliance_score" json:"compliance_score"`
	VendorScore      int `gorm:"column:vendor_score" json:"vendor_score"`

	RiskFlags       StringList `gorm:"column:risk_flags;type:json" json:"risk_flags"`
	Summary         string     `gorm:"column:summary;type:text" json:"summary"`
	Recommendations StringList `gorm:"column:recommendations;type:json" json:"recommendations"`
	Explanation     string     `gorm:"column:explanation;type:longtext" json:"explanation"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (RiskAssessment) TableName() string { return "risk_assessments" }
