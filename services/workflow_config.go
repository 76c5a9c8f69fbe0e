package services

import (
	"fmt"
	"time"
)

// SLAConfig is the review policy for one risk level.
type SLAConfig struct {
	ReviewSLAHours       int    `json:"review_sla_hours"`       // target time to complete review
	EscalationAfterHours int    `json:"escalation_after_hours"` // escalate if no action after this time
	Priority             string `json:"priority"`               // default priority for this risk level
}

// EscalationTier is one rung of the escalation ladder. The ladder's length is
// the ceiling on how many times a submission can auto-escalate.
type EscalationTier struct {
	Level       int      `json:"level"`
	Action      string   `json:"action"`
	NotifyRoles []string `json:"notify_roles"`
}

// WorkflowConfig is the static review policy: SLA targets per risk level,
// priority weights for queue ordering, and the escalation ladder. Treated as
// immutable once constructed.
type WorkflowConfig struct {
	SLAByRiskLevel  map[string]SLAConfig
	PriorityWeights map[string]int
	EscalationTiers []EscalationTier
}

// DefaultWorkflowConfig returns the standard review policy.
func DefaultWorkflowConfig() WorkflowConfig {
	return WorkflowConfig{
		SLAByRiskLevel: map[string]SLAConfig{
			RiskLevelCritical: {ReviewSLAHours: 24, EscalationAfterHours: 12, Priority: "URGENT"},
			RiskLevelHigh:     {ReviewSLAHours: 48, EscalationAfterHours: 24, Priority: "HIGH"},
			RiskLevelMedium:   {ReviewSLAHours: 120, EscalationAfterHours: 72, Priority: "NORMAL"},
			RiskLevelLow:      {ReviewSLAHours: 240, EscalationAfterHours: 168, Priority: "LOW"},
		},
		PriorityWeights: map[string]int{
			"URGENT": 4,
			"HIGH":   3,
			"NORMAL": 2,
			"LOW":    1,
		},
		EscalationTiers: []EscalationTier{
			{Level: 1, Action: "First escalation - notify reviewers", NotifyRoles: []string{"REVIEWER", "ADMIN"}},
			{Level: 2, Action: "Second escalation - notify admins", NotifyRoles: []string{"ADMIN"}},
			{Level: 3, Action: "Final escalation - critical alert", NotifyRoles: []string{"ADMIN"}},
		},
	}
}

// DefaultWorkflow is the shared policy instance. Read-only by convention;
// tests construct their own WorkflowConfig instead of mutating this one.
var DefaultWorkflow = DefaultWorkflowConfig()

// SLAConfigFor returns the SLA row for a risk level, falling back to MEDIUM
// for unrecognized levels. Never errors.
func (w WorkflowConfig) SLAConfigFor(riskLevel string) SLAConfig {
	if cfg, ok := w.SLAByRiskLevel[riskLevel]; ok {
		return cfg
	}
	return w.SLAByRiskLevel[RiskLevelMedium]
}

// CalculateDueDate returns fromDate plus the review SLA for the risk level.
// Absolute-duration addition, so it is DST-safe.
func (w WorkflowConfig) CalculateDueDate(riskLevel string, fromDate time.Time) time.Time {
	cfg := w.SLAConfigFor(riskLevel)
	return fromDate.Add(time.Duration(cfg.ReviewSLAHours) * time.Hour)
}

// PriorityForRiskLevel returns the default review priority for a risk level.
func (w WorkflowConfig) PriorityForRiskLevel(riskLevel string) string {
	return w.SLAConfigFor(riskLevel).Priority
}

// PriorityWeight returns the sort weight for a priority. Unknown priorities
// weigh the same as NORMAL.
func (w WorkflowConfig) PriorityWeight(priority string) int {
	if weight, ok := w.PriorityWeights[priority]; ok {
		return weight
	}
	return 2
}

// MaxEscalationLevel is the highest escalation level a review can reach.
func (w WorkflowConfig) MaxEscalationLevel() int {
	return len(w.EscalationTiers)
}

// TierFor returns the escalation tier definition for a level, or nil if the
// level is outside the ladder.
func (w WorkflowConfig) TierFor(level int) *EscalationTier {
	for i := range w.EscalationTiers {
		if w.EscalationTiers[i].Level == level {
			return &w.EscalationTiers[i]
		}
	}
	return nil
}

// FormatSLADuration renders an hour count for display, e.g. "48 hours",
// "2 days" or "5 days 3 hours".
func FormatSLADuration(hours int) string {
	if hours < 24 {
		return fmt.Sprintf("%d %s", hours, pluralize("hour", hours))
	}
	days := hours / 24
	remaining := hours % 24
	if remaining == 0 {
		return fmt.Sprintf("%d %s", days, pluralize("day", days))
	}
	return fmt.Sprintf("%d %s %d %s", days, pluralize("day", days), remaining, pluralize("hour", remaining))
}

func pluralize(unit string, n int) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}
