package controllers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"ai-governance-api/config"
	"ai-governance-api/models"
	"ai-governance-api/services"
	"ai-governance-api/utils"
)

var assessmentService *services.RiskAssessmentService

// InitServices wires the controller layer to the shared service instances.
// Called once from main after the database is up. analyzer may be nil; the
// orchestrator then always uses the fallback narrative.
func InitServices(analyzer services.NarrativeAnalyzer) {
	assessmentService = services.NewRiskAssessmentService(config.DB, analyzer)
}

type SubmissionRequest struct {
	AISystemName    string `json:"ai_system_name"`
	UseCase         string `json:"use_case"`
	BusinessPurpose string `json:"business_purpose"`

	Vendor        string `json:"vendor"`
	CurrentStage  string `json:"current_stage"`
	NumberOfUsers string `json:"number_of_users"`

	OutputUsage      string `json:"output_usage"`
	HumanReviewLevel string `json:"human_review_level"`

	DataTypes         []string `json:"data_types"`
	VendorDataStorage string   `json:"vendor_data_storage"`

	UserTrainingRequired  bool `json:"user_training_required"`
	AcceptableUseRequired bool `json:"acceptable_use_required"`

	HasFederalContracts string `json:"has_federal_contracts"`
	UsageLoggingEnabled bool   `json:"usage_logging_enabled"`
	ComplianceAccess    bool   `json:"compliance_access"`
	IncidentResponseDoc bool   `json:"incident_response_doc"`
}

func (r *SubmissionRequest) apply(sub *models.AISystemSubmission) {
	sub.AISystemName = utils.SanitizeInput(r.AISystemName)
	sub.UseCase = utils.SanitizeInput(r.UseCase)
	sub.BusinessPurpose = utils.SanitizeInput(r.BusinessPurpose)
	sub.Vendor = utils.SanitizeInput(r.Vendor)
	sub.CurrentStage = r.CurrentStage
	sub.NumberOfUsers = r.NumberOfUsers
	sub.OutputUsage = r.OutputUsage
	sub.HumanReviewLevel = r.HumanReviewLevel
	sub.DataTypes = models.StringList(r.DataTypes)
	sub.VendorDataStorage = r.VendorDataStorage
	sub.UserTrainingRequired = r.UserTrainingRequired
	sub.AcceptableUseRequired = r.AcceptableUseRequired
	sub.HasFederalContracts = r.HasFederalContracts
	sub.UsageLoggingEnabled = r.UsageLoggingEnabled
	sub.ComplianceAccess = r.ComplianceAccess
	sub.IncidentResponseDoc = r.IncidentResponseDoc
}

// CreateSubmission creates a new draft intake record owned by the caller.
func CreateSubmission(c *gin.Context) {
	userID := c.GetInt("userID")

	var req SubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub := models.AISystemSubmission{
		ID:            uuid.NewString(),
		Status:        models.StatusDraft,
		SubmittedByID: userID,
	}
	req.apply(&sub)

	if err := config.DB.Create(&sub).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create submission"})
		return
	}

	services.RecordAudit(config.DB, services.AuditEntry{
		SubmissionID:  sub.ID,
		PerformedByID: userID,
		Action:        services.AuditActionCreated,
		Category:      services.AuditCategoryLifecycle,
		NewStatus:     models.StatusDraft,
		Description:   "Submission created",
	})

	c.JSON(http.StatusCreated, gin.H{"submission": sub})
}

// GetSubmissions lists submissions. Regular users see their own; reviewers
// and admins see everything. Supports an optional ?status= filter.
func GetSubmissions(c *gin.Context) {
	userID := c.GetInt("userID")
	roleID := c.GetInt("roleID")

	query := config.DB.Model(&models.AISystemSubmission{}).
		Preload("Review").
		Preload("RiskAssessment")

	if roleID == models.RoleUser {
		query = query.Where("submitted_by_id = ?", userID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var submissions []models.AISystemSubmission
	if err := query.Order("updated_at DESC").Find(&submissions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load submissions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"submissions": submissions, "total": len(submissions)})
}

// GetSubmission returns one submission with its review state and SLA info.
func GetSubmission(c *gin.Context) {
	sub, ok := loadSubmissionForCaller(c)
	if !ok {
		return
	}

	response := gin.H{"submission": sub}
	if sub.Review != nil {
		riskLevel := ""
		if sub.RiskAssessment != nil {
			riskLevel = sub.RiskAssessment.OverallLevel
		}
		sla := services.DefaultWorkflow.CalculateSLAStatus(services.SLAParams{
			SubmittedAt:            sub.SubmittedAt,
			DueDate:                sub.Review.DueDate,
			RiskLevel:              riskLevel,
			CurrentEscalationLevel: sub.Review.EscalationLevel,
		})
		response["sla"] = sla
	}

	c.JSON(http.StatusOK, response)
}

// UpdateSubmission edits a draft. Editing a submission that had changes
// requested moves it back to DRAFT.
func UpdateSubmission(c *gin.Context) {
	userID := c.GetInt("userID")

	var sub models.AISystemSubmission
	if err := config.DB.
		Where("id = ? AND submitted_by_id = ?", c.Param("id"), userID).
		First(&sub).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
		return
	}

	if sub.Status != models.StatusDraft && sub.Status != models.StatusChangesRequested {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only draft submissions can be edited"})
		return
	}

	var req SubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req.apply(&sub)
	sub.Status = models.StatusDraft

	if err := config.DB.Save(&sub).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update submission"})
		return
	}

	services.RecordAudit(config.DB, services.AuditEntry{
		SubmissionID:  sub.ID,
		PerformedByID: userID,
		Action:        services.AuditActionUpdated,
		Category:      services.AuditCategoryFormEdit,
		Description:   "Submission updated",
	})

	c.JSON(http.StatusOK, gin.H{"submission": sub})
}

// DeleteSubmission removes an unsubmitted draft owned by the caller.
func DeleteSubmission(c *gin.Context) {
	userID := c.GetInt("userID")

	var sub models.AISystemSubmission
	if err := config.DB.
		Where("id = ? AND submitted_by_id = ?", c.Param("id"), userID).
		First(&sub).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
		return
	}

	if sub.Status != models.StatusDraft {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only draft submissions can be deleted"})
		return
	}

	if err := config.DB.Delete(&sub).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete submission"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Submission deleted"})
}

// SubmitSubmission moves a draft to SUBMITTED and kicks off the risk
// assessment. The status transition is accepted first; the assessment and
// review-record setup happen after it and degrade independently, so a slow
// or failing analyzer never blocks the submitter.
func SubmitSubmission(c *gin.Context) {
	userID := c.GetInt("userID")

	var sub models.AISystemSubmission
	if err := config.DB.
		Where("id = ? AND submitted_by_id = ?", c.Param("id"), userID).
		First(&sub).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
		return
	}

	if sub.Status != models.StatusDraft {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Submission has already been submitted"})
		return
	}

	if problems := utils.ValidateForSubmit(&sub); len(problems) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields", "details": problems})
		return
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":       models.StatusSubmitted,
		"submitted_at": now,
	}
	if err := config.DB.Model(&sub).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit"})
		return
	}
	sub.Status = models.StatusSubmitted
	sub.SubmittedAt = &now

	services.RecordAudit(config.DB, services.AuditEntry{
		SubmissionID:   sub.ID,
		PerformedByID:  userID,
		Action:         services.AuditActionSubmitted,
		Category:       services.AuditCategoryLifecycle,
		PreviousStatus: models.StatusDraft,
		NewStatus:      models.StatusSubmitted,
		Description:    "Submitted \"" + sub.AISystemName + "\" for review",
	})

	assessment, err := assessmentService.Run(c.Request.Context(), &sub)
	if err != nil {
		// The submission is already SUBMITTED; surface the missing
		// assessment as a partial success so the caller can retry.
		log.Printf("risk assessment persist failed for submission %s: %v", sub.ID, err)
		c.JSON(http.StatusAccepted, gin.H{
			"submission": sub,
			"warning":    "Submission accepted but risk assessment could not be stored; it will be retried on the next submit",
		})
		return
	}

	ensureReviewRecord(&sub, assessment.OverallLevel, now)

	services.NotifyUser(config.DB, userID, services.NotificationInput{
		Title:               "Submission received: " + sub.AISystemName,
		Message:             "Your AI governance submission has been received and is now pending review.",
		Type:                "success",
		RelatedSubmissionID: &sub.ID,
	})

	c.JSON(http.StatusOK, gin.H{
		"submission": sub,
		"assessment": assessment,
	})
}

// ensureReviewRecord lazily creates the reviewer-side record with the
// priority and due date derived from the assessed risk level. Best-effort.
func ensureReviewRecord(sub *models.AISystemSubmission, riskLevel string, submittedAt time.Time) {
	var existing models.SubmissionReview
	err := config.DB.Where("submission_id = ?", sub.ID).First(&existing).Error
	if err == nil {
		return
	}
	if err != gorm.ErrRecordNotFound {
		log.Printf("failed to look up review record for submission %s: %v", sub.ID, err)
		return
	}

	dueDate := services.DefaultWorkflow.CalculateDueDate(riskLevel, submittedAt)
	review := models.SubmissionReview{
		SubmissionID:    sub.ID,
		Priority:        services.DefaultWorkflow.PriorityForRiskLevel(riskLevel),
		DueDate:         &dueDate,
		EscalationLevel: 0,
	}
	if err := config.DB.Create(&review).Error; err != nil {
		log.Printf("failed to create review record for submission %s: %v", sub.ID, err)
	}
}

// loadSubmissionForCaller fetches the submission in the URL and enforces the
// owner-or-reviewer visibility rule. Writes the error response itself.
func loadSubmissionForCaller(c *gin.Context) (*models.AISystemSubmission, bool) {
	userID := c.GetInt("userID")
	roleID := c.GetInt("roleID")

	var sub models.AISystemSubmission
	if err := config.DB.
		Preload("Review").
		Preload("RiskAssessment").
		Where("id = ?", c.Param("id")).
		First(&sub).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
		return nil, false
	}

	if roleID == models.RoleUser && sub.SubmittedByID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
		return nil, false
	}

	return &sub, true
}
