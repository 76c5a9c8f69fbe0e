package services

import (
	"math"
	"strings"

	"ai-governance-api/models"
)

// Risk levels, coarsest first.
const (
	RiskLevelLow      = "LOW"
	RiskLevelMedium   = "MEDIUM"
	RiskLevelHigh     = "HIGH"
	RiskLevelCritical = "CRITICAL"
)

// RiskScores is the output of the rule-based scorer. It is recomputed on
// every submit and never stored on its own; the persisted copy lives inside
// models.RiskAssessment.
type RiskScores struct {
	DataPrivacyScore int      `json:"data_privacy_score"`
	OversightScore   int      `json:"oversight_score"`
	ComplianceScore  int      `json:"compliance_score"`
	VendorScore      int      `json:"vendor_score"`
	OverallScore     int      `json:"overall_score"`
	OverallLevel     string   `json:"overall_level"`
	RiskFlags        []string `json:"risk_flags"`
}

// ScoreWeights are the category weights for the overall score. They must sum
// to 1.0.
type ScoreWeights struct {
	DataPrivacy float64
	Oversight   float64
	Compliance  float64
	Vendor      float64
}

// DataTypeRule maps one data type tag to its point contribution. Rules are
// evaluated in slice order, which fixes the order of emitted flags.
type DataTypeRule struct {
	Tag    string
	Points int
	Flag   string
}

// ScoringConfig holds every tunable table the scorer consults. Injected at
// construction so tests can swap policy without touching globals.
type ScoringConfig struct {
	Weights       ScoreWeights
	DataTypeRules []DataTypeRule

	// Multipliers applied to the data-privacy subtotal based on where the
	// vendor stores data.
	PersistentStorageMultiplier float64
	UnknownStorageMultiplier    float64

	// Vendors considered established enough to skip the due-diligence
	// surcharge. Matched case-insensitively.
	EstablishedVendors []string

	// Inclusive lower bounds for the overall level.
	CriticalThreshold int
	HighThreshold     int
	MediumThreshold   int
}

// DefaultScoringConfig returns the standard governance scoring policy.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Weights: ScoreWeights{
			DataPrivacy: 0.35,
			Oversight:   0.25,
			Compliance:  0.25,
			Vendor:      0.15,
		},
		DataTypeRules: []DataTypeRule{
			{Tag: "health", Points: 40, Flag: "Handles protected health information (PHI)"},
			{Tag: "pii", Points: 30, Flag: "Processes personally identifiable information (PII)"},
			{Tag: "financial", Points: 25, Flag: "Accesses financial data"},
			{Tag: "customer", Points: 15, Flag: "Uses customer data"},
			{Tag: "employee", Points: 10, Flag: "Processes employee data"},
			{Tag: "business_strategy", Points: 5},
			{Tag: "internal_docs", Points: 3},
		},
		PersistentStorageMultiplier: 1.3,
		UnknownStorageMultiplier:    1.5,
		EstablishedVendors:          []string{"openai", "anthropic", "google", "microsoft", "amazon"},
		CriticalThreshold:           75,
		HighThreshold:               50,
		MediumThreshold:             25,
	}
}

// RiskScorer evaluates submissions against a ScoringConfig. Scoring is pure
// and total: missing or unrecognized field values contribute zero points, and
// every score is clamped to [0,100].
type RiskScorer struct {
	cfg ScoringConfig
}

func NewRiskScorer(cfg ScoringConfig) *RiskScorer {
	return &RiskScorer{cfg: cfg}
}

// Score computes the four category scores, the weighted overall score and the
// combined flag list for a submission.
func (s *RiskScorer) Score(sub *models.AISystemSubmission) RiskScores {
	dataPrivacy, dpFlags := s.scoreDataPrivacy(sub)
	oversight, ovFlags := s.scoreOversight(sub)
	compliance, cpFlags := s.scoreCompliance(sub)
	vendor, vdFlags := s.scoreVendor(sub)

	overall := int(math.Round(
		float64(dataPrivacy)*s.cfg.Weights.DataPrivacy +
			float64(oversight)*s.cfg.Weights.Oversight +
			float64(compliance)*s.cfg.Weights.Compliance +
			float64(vendor)*s.cfg.Weights.Vendor,
	))
	overall = clampScore(overall)

	flags := make([]string, 0, len(dpFlags)+len(ovFlags)+len(cpFlags)+len(vdFlags))
	flags = append(flags, dpFlags...)
	flags = append(flags, ovFlags...)
	flags = append(flags, cpFlags...)
	flags = append(flags, vdFlags...)

	return RiskScores{
		DataPrivacyScore: dataPrivacy,
		OversightScore:   oversight,
		ComplianceScore:  compliance,
		VendorScore:      vendor,
		OverallScore:     overall,
		OverallLevel:     s.RiskLevelForScore(overall),
		RiskFlags:        flags,
	}
}

// RiskLevelForScore maps an overall score onto the coarse risk tier.
func (s *RiskScorer) RiskLevelForScore(score int) string {
	switch {
	case score >= s.cfg.CriticalThreshold:
		return RiskLevelCritical
	case score >= s.cfg.HighThreshold:
		return RiskLevelHigh
	case score >= s.cfg.MediumThreshold:
		return RiskLevelMedium
	default:
		return RiskLevelLow
	}
}

func (s *RiskScorer) scoreDataPrivacy(sub *models.AISystemSubmission) (int, []string) {
	score := 0
	flags := []string{}

	for _, rule := range s.cfg.DataTypeRules {
		if !sub.DataTypes.Contains(rule.Tag) {
			continue
		}
		score += rule.Points
		if rule.Flag != "" {
			flags = append(flags, rule.Flag)
		}
	}

	// Storage policy scales the subtotal instead of adding to it.
	switch sub.VendorDataStorage {
	case "persistent":
		score = int(math.Round(float64(score) * s.cfg.PersistentStorageMultiplier))
		flags = append(flags, "Vendor stores data persistently")
	case "unknown":
		score = int(math.Round(float64(score) * s.cfg.UnknownStorageMultiplier))
		flags = append(flags, "Vendor data storage policy is unknown")
	}

	if !sub.UserTrainingRequired && len(sub.DataTypes) > 0 {
		score += 10
		flags = append(flags, "No user training required despite handling sensitive data")
	}

	return clampScore(score), flags
}

func (s *RiskScorer) scoreOversight(sub *models.AISystemSubmission) (int, []string) {
	score := 0
	flags := []string{}

	switch sub.OutputUsage {
	case "direct_action":
		score += 45
		flags = append(flags, "AI output used for direct action without review")
	case "automated_with_oversight":
		score += 25
	case "advisory_only":
		score += 10
	case "human_review_required":
		score += 5
	default:
		// Unanswered or unrecognized values contribute nothing.
	}

	switch sub.HumanReviewLevel {
	case "none":
		score += 45
		flags = append(flags, "No human review of AI outputs")
	case "spot_check":
		score += 30
		flags = append(flags, "Only spot-check review of outputs")
	case "review_before_critical":
		score += 15
	case "always_reviewed":
		score += 5
	default:
	}

	return clampScore(score), flags
}

func (s *RiskScorer) scoreCompliance(sub *models.AISystemSubmission) (int, []string) {
	score := 0
	flags := []string{}

	switch sub.HasFederalContracts {
	case "yes":
		score += 40
		flags = append(flags, "Federal contracts require FedRAMP/FISMA compliance")
	case "unknown":
		score += 20
		flags = append(flags, "Federal contract status unknown - potential compliance gap")
	default:
	}

	if !sub.UsageLoggingEnabled {
		score += 20
		flags = append(flags, "Usage logging not enabled - audit trail missing")
	}
	if !sub.ComplianceAccess {
		score += 15
		flags = append(flags, "Compliance team lacks access to system")
	}
	if !sub.IncidentResponseDoc {
		score += 15
		flags = append(flags, "No incident response documentation")
	}
	if !sub.AcceptableUseRequired {
		score += 10
		flags = append(flags, "No acceptable use agreement required")
	}

	return clampScore(score), flags
}

func (s *RiskScorer) scoreVendor(sub *models.AISystemSubmission) (int, []string) {
	score := 0
	flags := []string{}

	if sub.Vendor != "" && !s.isEstablishedVendor(sub.Vendor) {
		score += 25
		flags = append(flags, "Using non-major AI vendor - may need additional due diligence")
	}

	switch sub.CurrentStage {
	case "production":
		score += 20
		flags = append(flags, "System is in production - changes require careful rollout")
	case "testing":
		score += 10
	case "development":
		score += 5
	case "evaluation":
		score += 0
	default:
	}

	switch sub.NumberOfUsers {
	case "1000+":
		score += 25
		flags = append(flags, "Large user base (1000+) increases impact of issues")
	case "201-1000":
		score += 15
	case "51-200":
		score += 10
	case "11-50":
		score += 5
	case "1-10":
		score += 0
	default:
	}

	// Separate from the data-privacy multiplier: unknown storage also raises
	// vendor risk additively.
	if sub.VendorDataStorage == "unknown" {
		score += 20
	}

	return clampScore(score), flags
}

func (s *RiskScorer) isEstablishedVendor(vendor string) bool {
	lowered := strings.ToLower(vendor)
	for _, v := range s.cfg.EstablishedVendors {
		if lowered == v {
			return true
		}
	}
	return false
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
