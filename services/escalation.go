package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"gorm.io/gorm"

	"ai-governance-api/models"
)

// EscalationParams are the inputs to the escalation decision.
type EscalationParams struct {
	SubmittedAt            time.Time
	RiskLevel              string
	CurrentEscalationLevel int
	Status                 string
}

// EscalationDecision is the outcome. NewLevel never falls below the current
// level; escalation is monotonic in wall-clock time and frozen once the
// submission is resolved.
type EscalationDecision struct {
	ShouldEscalate bool `json:"should_escalate"`
	NewLevel       int  `json:"new_level"`
}

// DecideEscalation computes the target escalation level directly from elapsed
// time. Unlike the step check inside CalculateSLAStatus, it can jump multiple
// tiers in one call, which makes it safe for infrequent sweeps. This is the
// source of truth for persisted escalation state.
func (w WorkflowConfig) DecideEscalation(p EscalationParams) EscalationDecision {
	return w.DecideEscalationAt(p, time.Now())
}

// DecideEscalationAt is DecideEscalation with an explicit clock.
func (w WorkflowConfig) DecideEscalationAt(p EscalationParams, now time.Time) EscalationDecision {
	if p.Status == models.StatusApproved || p.Status == models.StatusRejected {
		return EscalationDecision{ShouldEscalate: false, NewLevel: p.CurrentEscalationLevel}
	}

	hoursSinceSubmission := now.Sub(p.SubmittedAt).Hours()
	threshold := float64(w.SLAConfigFor(p.RiskLevel).EscalationAfterHours)

	expectedLevel := int(math.Floor(hoursSinceSubmission / threshold))
	if expectedLevel < 0 {
		expectedLevel = 0
	}
	if max := w.MaxEscalationLevel(); expectedLevel > max {
		expectedLevel = max
	}

	if expectedLevel > p.CurrentEscalationLevel {
		return EscalationDecision{ShouldEscalate: true, NewLevel: expectedLevel}
	}
	return EscalationDecision{ShouldEscalate: false, NewLevel: p.CurrentEscalationLevel}
}

// EscalationService advances persisted escalation levels, either one
// submission at a time (manual escalate endpoint) or across all open reviews
// (the sweeper binary).
type EscalationService struct {
	db       *gorm.DB
	workflow WorkflowConfig
}

func NewEscalationService(db *gorm.DB) *EscalationService {
	return &EscalationService{db: db, workflow: DefaultWorkflow}
}

// SweepSummary reports one sweep run.
type SweepSummary struct {
	Checked   int `json:"checked"`
	Escalated int `json:"escalated"`
	Failed    int `json:"failed"`
}

type sweepRow struct {
	SubmissionID    string     `gorm:"column:id"`
	Status          string     `gorm:"column:status"`
	SubmittedAt     *time.Time `gorm:"column:submitted_at"`
	SubmittedByID   int        `gorm:"column:submitted_by_id"`
	ReviewID        int        `gorm:"column:review_id"`
	EscalationLevel int        `gorm:"column:escalation_level"`
	OverallLevel    *string    `gorm:"column:overall_level"`
}

// Sweep runs the escalation decision over every submitted, unresolved review
// and applies any advancement. Individual failures are counted and logged but
// do not stop the sweep.
func (s *EscalationService) Sweep(ctx context.Context, now time.Time) (*SweepSummary, error) {
	var rows []sweepRow
	err := s.db.WithContext(ctx).
		Table("ai_system_submissions AS s").
		Select("s.id, s.status, s.submitted_at, s.submitted_by_id, r.review_id, r.escalation_level, a.overall_level").
		Joins("JOIN submission_reviews r ON r.submission_id = s.id").
		Joins("LEFT JOIN risk_assessments a ON a.submission_id = s.id").
		Where("s.status IN ?", []string{models.StatusSubmitted, models.StatusUnderReview}).
		Where("s.submitted_at IS NOT NULL").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load open reviews: %w", err)
	}

	summary := &SweepSummary{}
	for _, row := range rows {
		summary.Checked++

		riskLevel := RiskLevelMedium
		if row.OverallLevel != nil && *row.OverallLevel != "" {
			riskLevel = *row.OverallLevel
		}

		decision := s.workflow.DecideEscalationAt(EscalationParams{
			SubmittedAt:            *row.SubmittedAt,
			RiskLevel:              riskLevel,
			CurrentEscalationLevel: row.EscalationLevel,
			Status:                 row.Status,
		}, now)
		if !decision.ShouldEscalate {
			continue
		}

		applied, err := s.Apply(ctx, row.ReviewID, row.SubmissionID, row.SubmittedByID, row.EscalationLevel, decision, now)
		if err != nil {
			summary.Failed++
			log.Printf("escalation sweep: submission %s: %v", row.SubmissionID, err)
			continue
		}
		if applied {
			summary.Escalated++
		}
	}

	return summary, nil
}

// Apply advances a review's escalation level with an atomic set-if-greater
// update, then fans out audit and notification writes. Returns false when a
// concurrent sweep already advanced the level at least as far.
func (s *EscalationService) Apply(ctx context.Context, reviewID int, submissionID string, submitterID int, previousLevel int, decision EscalationDecision, now time.Time) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&models.SubmissionReview{}).
		Where("review_id = ? AND escalation_level < ?", reviewID, decision.NewLevel).
		Updates(map[string]interface{}{
			"escalation_level": decision.NewLevel,
			"escalated_at":     now,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to update escalation level: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	RecordAudit(s.db, AuditEntry{
		SubmissionID:  submissionID,
		PerformedByID: submitterID,
		Action:        AuditActionEscalated,
		Category:      AuditCategoryStatusChange,
		Description:   fmt.Sprintf("Escalated to level %d", decision.NewLevel),
		Metadata:      map[string]interface{}{"previousLevel": previousLevel, "newLevel": decision.NewLevel},
	})

	if tier := s.workflow.TierFor(decision.NewLevel); tier != nil {
		NotifyRoles(s.db, tier.NotifyRoles, NotificationInput{
			Title:               fmt.Sprintf("Review escalated to level %d", decision.NewLevel),
			Message:             fmt.Sprintf("%s. Submission %s requires attention.", tier.Action, submissionID),
			Type:                "warning",
			RelatedSubmissionID: &submissionID,
		})
	}

	return true, nil
}
