package controllers

import (
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ai-governance-api/config"
	"ai-governance-api/models"
	"ai-governance-api/services"
)

type ReviewDecisionRequest struct {
	Notes string `json:"notes"`
}

type queueEntry struct {
	Submission    models.AISystemSubmission `json:"submission"`
	SLA           services.SLAInfo          `json:"sla"`
	PriorityScore int                       `json:"priority_score"`
}

// GetReviewQueue lists open submissions ordered by urgency: priority score
// descending, oldest submission first on ties.
func GetReviewQueue(c *gin.Context) {
	var submissions []models.AISystemSubmission
	err := config.DB.
		Preload("Review").
		Preload("RiskAssessment").
		Preload("SubmittedBy").
		Where("status IN ?", []string{models.StatusSubmitted, models.StatusUnderReview}).
		Find(&submissions).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load review queue"})
		return
	}

	queue := make([]queueEntry, 0, len(submissions))
	for _, sub := range submissions {
		entry := queueEntry{Submission: sub}

		riskLevel := ""
		if sub.RiskAssessment != nil {
			riskLevel = sub.RiskAssessment.OverallLevel
		}
		priority := models.PriorityNormal
		var dueDate *time.Time
		escalationLevel := 0
		if sub.Review != nil {
			priority = sub.Review.Priority
			dueDate = sub.Review.DueDate
			escalationLevel = sub.Review.EscalationLevel
		}

		entry.SLA = services.DefaultWorkflow.CalculateSLAStatus(services.SLAParams{
			SubmittedAt:            sub.SubmittedAt,
			DueDate:                dueDate,
			RiskLevel:              riskLevel,
			CurrentEscalationLevel: escalationLevel,
		})
		entry.PriorityScore = services.DefaultWorkflow.CalculatePriorityScore(priority, entry.SLA.Status, entry.SLA.HoursOverdue)
		queue = append(queue, entry)
	}

	sort.SliceStable(queue, func(i, j int) bool {
		if queue[i].PriorityScore != queue[j].PriorityScore {
			return queue[i].PriorityScore > queue[j].PriorityScore
		}
		a, b := queue[i].Submission.SubmittedAt, queue[j].Submission.SubmittedAt
		if a == nil || b == nil {
			return b == nil && a != nil
		}
		return a.Before(*b)
	})

	c.JSON(http.StatusOK, gin.H{"queue": queue, "total": len(queue)})
}

// ApproveSubmission resolves a submission as approved.
func ApproveSubmission(c *gin.Context) {
	decideSubmission(c, models.StatusApproved, services.AuditActionApproved, "Submission approved")
}

// RejectSubmission resolves a submission as rejected.
func RejectSubmission(c *gin.Context) {
	decideSubmission(c, models.StatusRejected, services.AuditActionRejected, "Submission rejected")
}

// RequestChanges sends a submission back to the submitter as a draft.
func RequestChanges(c *gin.Context) {
	decideSubmission(c, models.StatusChangesRequested, services.AuditActionChangesRequested, "Changes requested")
}

func decideSubmission(c *gin.Context, newStatus, auditAction, description string) {
	reviewerID := c.GetInt("userID")

	var req ReviewDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var sub models.AISystemSubmission
	if err := config.DB.Preload("Review").Where("id = ?", c.Param("id")).First(&sub).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
		return
	}

	if sub.Status != models.StatusSubmitted && sub.Status != models.StatusUnderReview {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Submission is not awaiting review"})
		return
	}

	previousStatus := sub.Status
	now := time.Now()

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&sub).Update("status", newStatus).Error; err != nil {
			return err
		}

		review := sub.Review
		if review == nil {
			review = &models.SubmissionReview{SubmissionID: sub.ID, Priority: models.PriorityNormal}
			if err := tx.Create(review).Error; err != nil {
				return err
			}
		}
		if newStatus == models.StatusApproved || newStatus == models.StatusRejected {
			if err := tx.Model(review).Update("reviewed_at", now).Error; err != nil {
				return err
			}
		}

		action := models.ReviewAction{
			ReviewID:     review.ReviewID,
			SubmissionID: sub.ID,
			ActorID:      reviewerID,
			Action:       auditAction,
			Notes:        req.Notes,
		}
		return tx.Create(&action).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record decision"})
		return
	}

	services.RecordAudit(config.DB, services.AuditEntry{
		SubmissionID:   sub.ID,
		PerformedByID:  reviewerID,
		Action:         auditAction,
		Category:       services.AuditCategoryStatusChange,
		PreviousStatus: previousStatus,
		NewStatus:      newStatus,
		Description:    description,
		Metadata:       map[string]interface{}{"notes": req.Notes},
	})

	services.NotifyUser(config.DB, sub.SubmittedByID, services.NotificationInput{
		Title:               description + ": " + sub.AISystemName,
		Message:             fmt.Sprintf("Your submission %q is now %s.", sub.AISystemName, newStatus),
		Type:                notificationTypeFor(newStatus),
		RelatedSubmissionID: &sub.ID,
	})

	sub.Status = newStatus
	c.JSON(http.StatusOK, gin.H{"submission": sub})
}

func notificationTypeFor(status string) string {
	switch status {
	case models.StatusApproved:
		return "success"
	case models.StatusRejected:
		return "error"
	default:
		return "warning"
	}
}

// EscalateSubmission applies the escalation decision for one submission,
// either from a manual admin action or an on-demand check.
func EscalateSubmission(c *gin.Context) {
	userID := c.GetInt("userID")

	sub, review, riskLevel, ok := loadEscalationTarget(c)
	if !ok {
		return
	}

	decision := services.DefaultWorkflow.DecideEscalation(services.EscalationParams{
		SubmittedAt:            *sub.SubmittedAt,
		RiskLevel:              riskLevel,
		CurrentEscalationLevel: review.EscalationLevel,
		Status:                 sub.Status,
	})

	if !decision.ShouldEscalate {
		c.JSON(http.StatusOK, gin.H{
			"escalated":     false,
			"message":       "No escalation needed at this time",
			"current_level": review.EscalationLevel,
		})
		return
	}

	svc := services.NewEscalationService(config.DB)
	applied, err := svc.Apply(c.Request.Context(), review.ReviewID, sub.ID, userID, review.EscalationLevel, decision, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to escalate submission"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"escalated":      applied,
		"previous_level": review.EscalationLevel,
		"new_level":      decision.NewLevel,
	})
}

// GetEscalationStatus previews the escalation decision without applying it.
func GetEscalationStatus(c *gin.Context) {
	sub, review, riskLevel, ok := loadEscalationTarget(c)
	if !ok {
		return
	}

	decision := services.DefaultWorkflow.DecideEscalation(services.EscalationParams{
		SubmittedAt:            *sub.SubmittedAt,
		RiskLevel:              riskLevel,
		CurrentEscalationLevel: review.EscalationLevel,
		Status:                 sub.Status,
	})

	response := gin.H{
		"escalation_level": review.EscalationLevel,
		"escalated_at":     review.EscalatedAt,
		"needs_escalation": decision.ShouldEscalate,
		"priority":         review.Priority,
		"due_date":         review.DueDate,
	}
	if decision.ShouldEscalate {
		response["next_level"] = decision.NewLevel
	}

	c.JSON(http.StatusOK, response)
}

func loadEscalationTarget(c *gin.Context) (*models.AISystemSubmission, *models.SubmissionReview, string, bool) {
	var sub models.AISystemSubmission
	if err := config.DB.
		Preload("Review").
		Preload("RiskAssessment").
		Where("id = ?", c.Param("id")).
		First(&sub).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
		return nil, nil, "", false
	}

	if sub.Review == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No review record exists for this submission"})
		return nil, nil, "", false
	}
	if sub.SubmittedAt == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Submission has not been submitted yet"})
		return nil, nil, "", false
	}

	riskLevel := services.RiskLevelMedium
	if sub.RiskAssessment != nil && sub.RiskAssessment.OverallLevel != "" {
		riskLevel = sub.RiskAssessment.OverallLevel
	}

	return &sub, sub.Review, riskLevel, true
}

// GetAuditTrail returns the audit history for a submission, newest first.
func GetAuditTrail(c *gin.Context) {
	entries, err := services.AuditHistory(config.DB, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load audit trail"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"audit_trail": entries, "total": len(entries)})
}
