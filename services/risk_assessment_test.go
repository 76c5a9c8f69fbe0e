package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"ai-governance-api/models"
)

type stubAnalyzer struct {
	analysis *AIAnalysis
	err      error
	calls    int
}

func (s *stubAnalyzer) Analyze(ctx context.Context, fields map[string]interface{}, scores RiskScores) (*AIAnalysis, error) {
	s.calls++
	return s.analysis, s.err
}

func TestFallbackAnalysisHighRisk(t *testing.T) {
	scores := RiskScores{
		DataPrivacyScore: 60,
		OversightScore:   90,
		ComplianceScore:  40,
		VendorScore:      70,
		OverallScore:     68,
		OverallLevel:     RiskLevelHigh,
		RiskFlags:        []string{"No human review of AI outputs", "Vendor stores data persistently"},
	}

	analysis := FallbackAnalysis(scores)

	if !strings.Contains(analysis.Summary, "HIGH risk") {
		t.Errorf("summary = %q", analysis.Summary)
	}
	if !strings.Contains(analysis.Summary, "2 risk factors") {
		t.Errorf("summary should count flags: %q", analysis.Summary)
	}

	// One recommendation per category above 50; compliance stays below.
	want := []string{
		"[Blocking] Conduct a data privacy impact assessment and ensure appropriate data handling controls (Owner: Privacy Office, Effort: Medium)",
		"[Blocking] Implement stronger human oversight controls before AI outputs are acted upon (Owner: System Owner, Effort: Medium)",
		"[Blocking] Conduct vendor due diligence and establish clear data handling agreements (Owner: Security Team, Effort: Medium)",
	}
	if len(analysis.Recommendations) != len(want) {
		t.Fatalf("recommendations = %v", analysis.Recommendations)
	}
	for i, rec := range want {
		if analysis.Recommendations[i] != rec {
			t.Errorf("recommendation %d = %q, want %q", i, analysis.Recommendations[i], rec)
		}
	}

	for _, fragment := range []string{
		"### Overall Assessment: HIGH",
		"- No human review of AI outputs",
		"| Data Privacy | 60/100 | High |",
		"| Compliance | 40/100 | Medium |",
		"*Note: This is a fallback analysis generated from rule-based scoring. The AI-powered analysis was unavailable.*",
	} {
		if !strings.Contains(analysis.Explanation, fragment) {
			t.Errorf("explanation missing %q", fragment)
		}
	}
}

func TestFallbackAnalysisLowRisk(t *testing.T) {
	analysis := FallbackAnalysis(RiskScores{OverallLevel: RiskLevelLow})

	if !strings.Contains(analysis.Summary, "LOW risk") {
		t.Errorf("summary = %q", analysis.Summary)
	}
	if len(analysis.Recommendations) != 1 {
		t.Fatalf("recommendations = %v", analysis.Recommendations)
	}
	if !strings.HasPrefix(analysis.Recommendations[0], "[Advisory] Continue monitoring") {
		t.Errorf("recommendation = %q", analysis.Recommendations[0])
	}
	if !strings.Contains(analysis.Explanation, "No significant risk factors identified.") {
		t.Error("explanation should note the absence of risk factors")
	}
}

func TestCategoryLabel(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{0, "Low"},
		{24, "Low"},
		{25, "Medium"},
		{49, "Medium"},
		{50, "High"},
		{100, "High"},
	}

	for _, tt := range tests {
		if got := categoryLabel(tt.score); got != tt.want {
			t.Errorf("categoryLabel(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestRunFallsBackWhenAnalyzerFails(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO .risk_assessments..*ON DUPLICATE KEY UPDATE"),
			result:  scriptedResult{rowsAffected: 1},
		},
	}

	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	analyzer := &stubAnalyzer{err: errors.New("model unavailable")}
	svc := NewRiskAssessmentService(gormDB, analyzer)

	sub := &models.AISystemSubmission{
		ID:                "sub-1",
		AISystemName:      "Claims Triage Bot",
		DataTypes:         models.StringList{"pii"},
		VendorDataStorage: "persistent",
		OutputUsage:       "direct_action",
		HumanReviewLevel:  "none",
		Status:            models.StatusSubmitted,
	}

	assessment, err := svc.Run(context.Background(), sub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if analyzer.calls != 1 {
		t.Fatalf("analyzer calls = %d, want 1", analyzer.calls)
	}
	if assessment.SubmissionID != "sub-1" {
		t.Errorf("submission id = %q", assessment.SubmissionID)
	}
	if assessment.ID == "" {
		t.Error("assessment id not generated")
	}
	if assessment.Summary == "" || assessment.Explanation == "" {
		t.Error("fallback narrative not attached")
	}
	if !strings.Contains(assessment.Explanation, "Fallback Analysis") {
		t.Error("explanation should come from the fallback narrative")
	}
	if assessment.OversightScore != 90 {
		t.Errorf("oversight score = %d, want 90", assessment.OversightScore)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestRunUsesAnalyzerNarrative(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO .risk_assessments..*ON DUPLICATE KEY UPDATE"),
			result:  scriptedResult{rowsAffected: 1},
		},
	}

	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	analyzer := &stubAnalyzer{analysis: &AIAnalysis{
		Summary:         "Narrative summary.",
		Recommendations: []string{"[Advisory] Do the thing (Owner: Team, Effort: Low)"},
		Explanation:     "## Narrative explanation",
	}}
	svc := NewRiskAssessmentService(gormDB, analyzer)

	assessment, err := svc.Run(context.Background(), &models.AISystemSubmission{ID: "sub-2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if assessment.Summary != "Narrative summary." {
		t.Errorf("summary = %q", assessment.Summary)
	}
	if assessment.Explanation != "## Narrative explanation" {
		t.Errorf("explanation = %q", assessment.Explanation)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestRunWithoutAnalyzerUsesFallback(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO .risk_assessments..*ON DUPLICATE KEY UPDATE"),
			result:  scriptedResult{rowsAffected: 1},
		},
	}

	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewRiskAssessmentService(gormDB, nil)

	assessment, err := svc.Run(context.Background(), &models.AISystemSubmission{ID: "sub-3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(assessment.Explanation, "Fallback Analysis") {
		t.Error("expected fallback narrative when no analyzer is configured")
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}
