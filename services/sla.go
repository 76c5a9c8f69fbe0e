package services

import (
	"fmt"
	"math"
	"time"
)

// SLA statuses for an in-flight review.
const (
	SLAOnTrack = "ON_TRACK"
	SLAAtRisk  = "AT_RISK"
	SLAOverdue = "OVERDUE"
)

// SLAParams are the inputs to the SLA calculator. Callers load them from the
// submission and its review record; nil timestamps mean "not yet actionable".
type SLAParams struct {
	SubmittedAt            *time.Time
	DueDate                *time.Time
	RiskLevel              string
	CurrentEscalationLevel int
}

// SLAInfo is the computed SLA state for display and queue ordering.
// HoursRemaining is set only while the review is not overdue; HoursOverdue
// only once it is.
type SLAInfo struct {
	Status          string     `json:"status"`
	DueDate         *time.Time `json:"due_date"`
	HoursRemaining  *float64   `json:"hours_remaining"`
	HoursOverdue    *float64   `json:"hours_overdue"`
	PercentComplete float64    `json:"percent_complete"`
	ShouldEscalate  bool       `json:"should_escalate"`
	EscalationLevel int        `json:"escalation_level"`
	DisplayText     string     `json:"display_text"`
}

// CalculateSLAStatus evaluates the SLA clock against the current wall time.
func (w WorkflowConfig) CalculateSLAStatus(p SLAParams) SLAInfo {
	return w.CalculateSLAStatusAt(p, time.Now())
}

// CalculateSLAStatusAt is CalculateSLAStatus with an explicit clock, used by
// the sweeper and by tests.
func (w WorkflowConfig) CalculateSLAStatusAt(p SLAParams, now time.Time) SLAInfo {
	if p.DueDate == nil || p.SubmittedAt == nil {
		return SLAInfo{
			Status:          SLAOnTrack,
			EscalationLevel: p.CurrentEscalationLevel,
			DisplayText:     "No SLA",
		}
	}

	totalDuration := p.DueDate.Sub(*p.SubmittedAt)
	elapsed := now.Sub(*p.SubmittedAt)
	remaining := p.DueDate.Sub(now)

	hoursRemaining := remaining.Hours()
	percentComplete := 0.0
	if totalDuration > 0 {
		percentComplete = math.Min(100, math.Max(0, elapsed.Hours()/totalDuration.Hours()*100))
	}

	info := SLAInfo{
		DueDate:         p.DueDate,
		PercentComplete: percentComplete,
		EscalationLevel: p.CurrentEscalationLevel,
	}

	switch {
	case hoursRemaining < 0:
		overdue := math.Abs(hoursRemaining)
		info.Status = SLAOverdue
		info.HoursOverdue = &overdue
		info.DisplayText = formatHoursText(overdue, "overdue")
	case percentComplete >= 75:
		info.Status = SLAAtRisk
		info.HoursRemaining = &hoursRemaining
		info.DisplayText = formatHoursText(hoursRemaining, "remaining")
	default:
		info.Status = SLAOnTrack
		info.HoursRemaining = &hoursRemaining
		info.DisplayText = formatHoursText(hoursRemaining, "remaining")
	}

	// Step-function escalation preview: one tier per full threshold elapsed.
	// Persisted escalation goes through DecideEscalation instead.
	threshold := float64(w.SLAConfigFor(p.RiskLevel).EscalationAfterHours)
	hoursSinceSubmission := elapsed.Hours()
	nextThreshold := threshold * float64(p.CurrentEscalationLevel+1)
	info.ShouldEscalate = hoursSinceSubmission >= nextThreshold &&
		p.CurrentEscalationLevel < w.MaxEscalationLevel()

	return info
}

// CalculatePriorityScore produces the comparator key for review queue
// ordering. Higher means more urgent. Ties are broken by the caller on
// submission time, oldest first.
func (w WorkflowConfig) CalculatePriorityScore(priority, slaStatus string, hoursOverdue *float64) int {
	score := w.PriorityWeight(priority) * 100

	switch slaStatus {
	case SLAOverdue:
		score += 50
	case SLAAtRisk:
		score += 25
	}

	if hoursOverdue != nil && *hoursOverdue > 0 {
		score += int(math.Min(50, *hoursOverdue))
	}

	return score
}

// formatHoursText renders a duration for badges: minutes under an hour, hours
// under a day, otherwise days with an optional hour remainder.
func formatHoursText(hours float64, suffix string) string {
	if hours < 1 {
		return fmt.Sprintf("%dm %s", int(math.Round(hours*60)), suffix)
	}
	if hours < 24 {
		return fmt.Sprintf("%dh %s", int(math.Round(hours)), suffix)
	}
	days := int(hours / 24)
	remainder := int(math.Round(math.Mod(hours, 24)))
	if remainder == 0 {
		return fmt.Sprintf("%dd %s", days, suffix)
	}
	return fmt.Sprintf("%dd %dh %s", days, remainder, suffix)
}
