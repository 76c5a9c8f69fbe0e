package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ai-governance-api/models"
)

// RiskAssessmentService composes the rule-based scorer with the narrative
// analyzer and persists the merged result. The analyzer is strictly
// best-effort: any failure degrades to the deterministic fallback narrative
// and the submission flow continues.
type RiskAssessmentService struct {
	db       *gorm.DB
	scorer   *RiskScorer
	analyzer NarrativeAnalyzer
	timeout  time.Duration
}

// NewRiskAssessmentService builds the orchestrator. analyzer may be nil when
// no narrative backend is configured; every assessment then uses the
// fallback narrative. The analysis timeout comes from
// ANALYSIS_TIMEOUT_SECONDS (default 60) and bounds only the analyzer call,
// never the store operations.
func NewRiskAssessmentService(db *gorm.DB, analyzer NarrativeAnalyzer) *RiskAssessmentService {
	timeout := 60 * time.Second
	if raw := os.Getenv("ANALYSIS_TIMEOUT_SECONDS"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			timeout = time.Duration(secs) * time.Second
		}
	}

	return &RiskAssessmentService{
		db:       db,
		scorer:   NewRiskScorer(DefaultScoringConfig()),
		analyzer: analyzer,
		timeout:  timeout,
	}
}

// Run scores a submission, elaborates the scores into a narrative and
// upserts the whole assessment keyed on the submission id. Re-running
// replaces the prior row entirely.
func (s *RiskAssessmentService) Run(ctx context.Context, sub *models.AISystemSubmission) (*models.RiskAssessment, error) {
	scores := s.scorer.Score(sub)

	analysis := s.analyze(ctx, sub, scores)

	assessment := &models.RiskAssessment{
		ID:               uuid.NewString(),
		SubmissionID:     sub.ID,
		OverallScore:     scores.OverallScore,
		OverallLevel:     scores.OverallLevel,
		DataPrivacyScore: scores.DataPrivacyScore,
		OversightScore:   scores.OversightScore,
		ComplianceScore:  scores.ComplianceScore,
		VendorScore:      scores.VendorScore,
		RiskFlags:        scores.RiskFlags,
		Summary:          analysis.Summary,
		Recommendations:  analysis.Recommendations,
		Explanation:      analysis.Explanation,
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "submission_id"}},
		UpdateAll: true,
	}).Create(assessment).Error
	if err != nil {
		return nil, fmt.Errorf("failed to persist risk assessment: %w", err)
	}

	return assessment, nil
}

// GetForSubmission returns the most recently persisted assessment verbatim.
// gorm.ErrRecordNotFound passes through when none exists.
func (s *RiskAssessmentService) GetForSubmission(ctx context.Context, submissionID string) (*models.RiskAssessment, error) {
	var assessment models.RiskAssessment
	err := s.db.WithContext(ctx).Where("submission_id = ?", submissionID).First(&assessment).Error
	if err != nil {
		return nil, err
	}
	return &assessment, nil
}

func (s *RiskAssessmentService) analyze(ctx context.Context, sub *models.AISystemSubmission, scores RiskScores) *AIAnalysis {
	if s.analyzer == nil {
		return FallbackAnalysis(scores)
	}

	analysisCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	analysis, err := s.analyzer.Analyze(analysisCtx, sub.GovernanceFields(), scores)
	if err != nil {
		log.Printf("narrative analysis failed for submission %s, using fallback: %v", sub.ID, err)
		return FallbackAnalysis(scores)
	}
	return analysis
}

// FallbackAnalysis synthesizes a deterministic narrative from the rule-based
// scores when the analyzer is unavailable or returns unusable output. The
// result has the same shape as a successful analysis.
func FallbackAnalysis(scores RiskScores) *AIAnalysis {
	level := scores.OverallLevel
	flagCount := len(scores.RiskFlags)

	var summary string
	switch level {
	case RiskLevelCritical, RiskLevelHigh:
		summary = fmt.Sprintf("This AI system has been assessed as %s risk. %d risk factors were identified that require immediate attention. Review the recommendations below before proceeding.", level, flagCount)
	case RiskLevelMedium:
		summary = fmt.Sprintf("This AI system has been assessed as MEDIUM risk. While not critical, %d areas of concern were identified that should be addressed.", flagCount)
	default:
		summary = "This AI system has been assessed as LOW risk. The system appears to have appropriate controls in place, though continuous monitoring is recommended."
	}

	recommendations := []string{}
	if scores.DataPrivacyScore > 50 {
		recommendations = append(recommendations, "[Blocking] Conduct a data privacy impact assessment and ensure appropriate data handling controls (Owner: Privacy Office, Effort: Medium)")
	}
	if scores.OversightScore > 50 {
		recommendations = append(recommendations, "[Blocking] Implement stronger human oversight controls before AI outputs are acted upon (Owner: System Owner, Effort: Medium)")
	}
	if scores.ComplianceScore > 50 {
		recommendations = append(recommendations, "[Advisory] Review compliance requirements and ensure proper documentation and audit trails (Owner: Governance Board, Effort: High)")
	}
	if scores.VendorScore > 50 {
		recommendations = append(recommendations, "[Blocking] Conduct vendor due diligence and establish clear data handling agreements (Owner: Security Team, Effort: Medium)")
	}
	if len(recommendations) == 0 {
		recommendations = append(recommendations, "[Advisory] Continue monitoring system usage and update this assessment periodically (Owner: System Owner, Effort: Low)")
	}

	return &AIAnalysis{
		Summary:         summary,
		Recommendations: recommendations,
		Explanation:     fallbackExplanation(scores),
	}
}

func fallbackExplanation(scores RiskScores) string {
	var b strings.Builder

	b.WriteString("## Risk Assessment Summary (Fallback Analysis)\n\n")
	fmt.Fprintf(&b, "### Overall Assessment: %s\n\n", scores.OverallLevel)

	if len(scores.RiskFlags) > 0 {
		b.WriteString("### Identified Risk Factors\n")
		for _, flag := range scores.RiskFlags {
			fmt.Fprintf(&b, "- %s\n", flag)
		}
	} else {
		b.WriteString("No significant risk factors identified.")
	}

	b.WriteString("\n### Category Breakdown\n\n")
	b.WriteString("| Category | Score | Level |\n")
	b.WriteString("|----------|-------|-------|\n")
	fmt.Fprintf(&b, "| Data Privacy | %d/100 | %s |\n", scores.DataPrivacyScore, categoryLabel(scores.DataPrivacyScore))
	fmt.Fprintf(&b, "| Human Oversight | %d/100 | %s |\n", scores.OversightScore, categoryLabel(scores.OversightScore))
	fmt.Fprintf(&b, "| Compliance | %d/100 | %s |\n", scores.ComplianceScore, categoryLabel(scores.ComplianceScore))
	fmt.Fprintf(&b, "| Vendor | %d/100 | %s |\n", scores.VendorScore, categoryLabel(scores.VendorScore))

	b.WriteString("\n### Next Steps\n\n")
	b.WriteString("Review the recommendations provided and address any high-risk areas before expanding use of this AI system.\n\n")
	b.WriteString("*Note: This is a fallback analysis generated from rule-based scoring. The AI-powered analysis was unavailable.*")

	return b.String()
}

// categoryLabel is the coarse per-category label used in the fallback table.
// Deliberately coarser than the overall-level thresholds: this labels one
// category, not the overall tier.
func categoryLabel(score int) string {
	switch {
	case score >= 50:
		return "High"
	case score >= 25:
		return "Medium"
	default:
		return "Low"
	}
}
