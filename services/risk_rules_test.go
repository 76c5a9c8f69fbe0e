package services

import (
	"reflect"
	"testing"

	"ai-governance-api/models"
)

func newScorer() *RiskScorer {
	return NewRiskScorer(DefaultScoringConfig())
}

func TestScoreDataPrivacyStorageMultipliers(t *testing.T) {
	tests := []struct {
		name    string
		storage string
		want    int
	}{
		{name: "no storage policy", storage: "none", want: 30},
		{name: "transient storage", storage: "transient", want: 30},
		{name: "persistent storage", storage: "persistent", want: 39},
		{name: "unknown storage", storage: "unknown", want: 45},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := &models.AISystemSubmission{
				DataTypes:            models.StringList{"pii"},
				VendorDataStorage:    tt.storage,
				UserTrainingRequired: true,
			}
			scores := newScorer().Score(sub)
			if scores.DataPrivacyScore != tt.want {
				t.Fatalf("data privacy score = %d, want %d", scores.DataPrivacyScore, tt.want)
			}
		})
	}
}

func TestScoreNoTrainingSurchargeNeedsDataTypes(t *testing.T) {
	scorer := newScorer()

	noData := scorer.Score(&models.AISystemSubmission{UserTrainingRequired: false})
	if noData.DataPrivacyScore != 0 {
		t.Fatalf("data privacy score without data types = %d, want 0", noData.DataPrivacyScore)
	}

	withData := scorer.Score(&models.AISystemSubmission{
		DataTypes:            models.StringList{"internal_docs"},
		UserTrainingRequired: false,
	})
	if withData.DataPrivacyScore != 13 {
		t.Fatalf("data privacy score = %d, want 13", withData.DataPrivacyScore)
	}
}

func TestScoreClampsAtHundred(t *testing.T) {
	sub := &models.AISystemSubmission{
		DataTypes: models.StringList{
			"health", "pii", "financial", "customer", "employee",
			"business_strategy", "internal_docs",
		},
		VendorDataStorage:    "unknown",
		UserTrainingRequired: false,
	}

	scores := newScorer().Score(sub)
	if scores.DataPrivacyScore != 100 {
		t.Fatalf("data privacy score = %d, want 100", scores.DataPrivacyScore)
	}
}

func TestRiskLevelBoundaries(t *testing.T) {
	scorer := newScorer()

	tests := []struct {
		score int
		want  string
	}{
		{0, RiskLevelLow},
		{24, RiskLevelLow},
		{25, RiskLevelMedium},
		{49, RiskLevelMedium},
		{50, RiskLevelHigh},
		{74, RiskLevelHigh},
		{75, RiskLevelCritical},
		{100, RiskLevelCritical},
	}

	for _, tt := range tests {
		if got := scorer.RiskLevelForScore(tt.score); got != tt.want {
			t.Errorf("RiskLevelForScore(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestScoreEstablishedVendorMatching(t *testing.T) {
	scorer := newScorer()

	tests := []struct {
		name   string
		vendor string
		want   int
	}{
		{name: "allowlisted mixed case", vendor: "OpenAI", want: 0},
		{name: "allowlisted upper case", vendor: "ANTHROPIC", want: 0},
		{name: "unlisted vendor", vendor: "SomeStartup", want: 25},
		{name: "empty vendor", vendor: "", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores := scorer.Score(&models.AISystemSubmission{Vendor: tt.vendor})
			if scores.VendorScore != tt.want {
				t.Fatalf("vendor score = %d, want %d", scores.VendorScore, tt.want)
			}
		})
	}
}

func TestScoreUnrecognizedValuesContributeNothing(t *testing.T) {
	sub := &models.AISystemSubmission{
		OutputUsage:           "something_else",
		HumanReviewLevel:      "extensive",
		CurrentStage:          "pilot",
		NumberOfUsers:         "a lot",
		HasFederalContracts:   "maybe",
		UserTrainingRequired:  true,
		AcceptableUseRequired: true,
		UsageLoggingEnabled:   true,
		ComplianceAccess:      true,
		IncidentResponseDoc:   true,
	}

	scores := newScorer().Score(sub)
	if scores.OverallScore != 0 {
		t.Fatalf("overall score = %d, want 0", scores.OverallScore)
	}
	if scores.OverallLevel != RiskLevelLow {
		t.Fatalf("overall level = %s, want %s", scores.OverallLevel, RiskLevelLow)
	}
	if len(scores.RiskFlags) != 0 {
		t.Fatalf("risk flags = %v, want none", scores.RiskFlags)
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	sub := &models.AISystemSubmission{
		DataTypes:         models.StringList{"pii", "customer"},
		VendorDataStorage: "persistent",
		OutputUsage:       "advisory_only",
		HumanReviewLevel:  "spot_check",
		Vendor:            "SomeStartup",
		CurrentStage:      "production",
		NumberOfUsers:     "201-1000",
	}

	scorer := newScorer()
	first := scorer.Score(sub)
	second := scorer.Score(sub)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated scoring diverged:\nfirst  %+v\nsecond %+v", first, second)
	}
}

func TestScoreHighRiskSubmission(t *testing.T) {
	sub := &models.AISystemSubmission{
		AISystemName:          "Claims Triage Bot",
		DataTypes:             models.StringList{"pii"},
		VendorDataStorage:     "persistent",
		UserTrainingRequired:  false,
		OutputUsage:           "direct_action",
		HumanReviewLevel:      "none",
		HasFederalContracts:   "yes",
		UsageLoggingEnabled:   false,
		ComplianceAccess:      false,
		IncidentResponseDoc:   false,
		AcceptableUseRequired: false,
		Vendor:                "SomeStartup",
		CurrentStage:          "production",
		NumberOfUsers:         "1000+",
	}

	scores := newScorer().Score(sub)

	if scores.DataPrivacyScore != 49 {
		t.Errorf("data privacy score = %d, want 49", scores.DataPrivacyScore)
	}
	if scores.OversightScore != 90 {
		t.Errorf("oversight score = %d, want 90", scores.OversightScore)
	}
	if scores.ComplianceScore != 100 {
		t.Errorf("compliance score = %d, want 100", scores.ComplianceScore)
	}
	if scores.VendorScore != 70 {
		t.Errorf("vendor score = %d, want 70", scores.VendorScore)
	}
	if scores.OverallScore != 75 {
		t.Errorf("overall score = %d, want 75", scores.OverallScore)
	}
	if scores.OverallLevel != RiskLevelCritical {
		t.Errorf("overall level = %s, want %s", scores.OverallLevel, RiskLevelCritical)
	}
	if len(scores.RiskFlags) == 0 {
		t.Error("expected risk flags for a high-risk submission")
	}
}

func TestScoreFlagOrderFollowsRuleOrder(t *testing.T) {
	sub := &models.AISystemSubmission{
		DataTypes:            models.StringList{"financial", "health"},
		UserTrainingRequired: true,
	}

	scores := newScorer().Score(sub)
	want := []string{
		"Handles protected health information (PHI)",
		"Accesses financial data",
	}
	if !reflect.DeepEqual(scores.RiskFlags, want) {
		t.Fatalf("risk flags = %v, want %v", scores.RiskFlags, want)
	}
}
