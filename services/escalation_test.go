package services

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"ai-governance-api/models"
)

func TestDecideEscalationFreezesOnResolvedSubmissions(t *testing.T) {
	w := DefaultWorkflowConfig()
	submitted := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	now := submitted.Add(500 * time.Hour)

	for _, status := range []string{models.StatusApproved, models.StatusRejected} {
		decision := w.DecideEscalationAt(EscalationParams{
			SubmittedAt:            submitted,
			RiskLevel:              RiskLevelCritical,
			CurrentEscalationLevel: 1,
			Status:                 status,
		}, now)
		if decision.ShouldEscalate {
			t.Errorf("status %s: should not escalate", status)
		}
		if decision.NewLevel != 1 {
			t.Errorf("status %s: new level = %d, want 1", status, decision.NewLevel)
		}
	}
}

func TestDecideEscalationLevels(t *testing.T) {
	w := DefaultWorkflowConfig()
	submitted := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	// CRITICAL escalates every 12 hours up to level 3.
	tests := []struct {
		name         string
		elapsed      time.Duration
		currentLevel int
		wantEscalate bool
		wantNewLevel int
	}{
		{name: "before first threshold", elapsed: 11 * time.Hour, currentLevel: 0, wantEscalate: false, wantNewLevel: 0},
		{name: "exactly at threshold", elapsed: 12 * time.Hour, currentLevel: 0, wantEscalate: true, wantNewLevel: 1},
		{name: "one tier", elapsed: 13 * time.Hour, currentLevel: 0, wantEscalate: true, wantNewLevel: 1},
		{name: "already current", elapsed: 13 * time.Hour, currentLevel: 1, wantEscalate: false, wantNewLevel: 1},
		{name: "jumps multiple tiers", elapsed: 40 * time.Hour, currentLevel: 0, wantEscalate: true, wantNewLevel: 3},
		{name: "clamped at max", elapsed: 1000 * time.Hour, currentLevel: 0, wantEscalate: true, wantNewLevel: 3},
		{name: "frozen at max", elapsed: 1000 * time.Hour, currentLevel: 3, wantEscalate: false, wantNewLevel: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := w.DecideEscalationAt(EscalationParams{
				SubmittedAt:            submitted,
				RiskLevel:              RiskLevelCritical,
				CurrentEscalationLevel: tt.currentLevel,
				Status:                 models.StatusSubmitted,
			}, submitted.Add(tt.elapsed))
			if decision.ShouldEscalate != tt.wantEscalate {
				t.Fatalf("ShouldEscalate = %v, want %v", decision.ShouldEscalate, tt.wantEscalate)
			}
			if decision.NewLevel != tt.wantNewLevel {
				t.Fatalf("NewLevel = %d, want %d", decision.NewLevel, tt.wantNewLevel)
			}
		})
	}
}

func TestDecideEscalationNeverLowersLevel(t *testing.T) {
	w := DefaultWorkflowConfig()
	submitted := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	// A manually escalated review stays at its level even though elapsed time
	// only justifies a lower one.
	decision := w.DecideEscalationAt(EscalationParams{
		SubmittedAt:            submitted,
		RiskLevel:              RiskLevelLow,
		CurrentEscalationLevel: 2,
		Status:                 models.StatusUnderReview,
	}, submitted.Add(time.Hour))
	if decision.ShouldEscalate {
		t.Fatal("should not escalate")
	}
	if decision.NewLevel != 2 {
		t.Fatalf("NewLevel = %d, want 2", decision.NewLevel)
	}
}

func TestDecideEscalationUsesRiskLevelThreshold(t *testing.T) {
	w := DefaultWorkflowConfig()
	submitted := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	now := submitted.Add(80 * time.Hour)

	params := EscalationParams{
		SubmittedAt: submitted,
		Status:      models.StatusSubmitted,
	}

	params.RiskLevel = RiskLevelMedium
	if d := w.DecideEscalationAt(params, now); !d.ShouldEscalate || d.NewLevel != 1 {
		t.Fatalf("MEDIUM at 80h = %+v, want escalate to 1", d)
	}

	params.RiskLevel = RiskLevelLow
	if d := w.DecideEscalationAt(params, now); d.ShouldEscalate {
		t.Fatalf("LOW at 80h = %+v, want no escalation", d)
	}

	params.RiskLevel = RiskLevelHigh
	if d := w.DecideEscalationAt(params, now); !d.ShouldEscalate || d.NewLevel != 3 {
		t.Fatalf("HIGH at 80h = %+v, want escalate to 3", d)
	}
}

func TestApplySkipsWhenConcurrentlyEscalated(t *testing.T) {
	// The guarded update matched no rows: another sweep already advanced the
	// level, so no audit row or notification may be written.
	steps := []*queryStep{
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE .submission_reviews. SET .*escalation_level.*WHERE review_id = \\? AND escalation_level < \\?"),
			result:  scriptedResult{rowsAffected: 0},
		},
	}

	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewEscalationService(gormDB)
	applied, err := svc.Apply(context.Background(), 7, "sub-1", 42, 1,
		EscalationDecision{ShouldEscalate: true, NewLevel: 2}, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if applied {
		t.Fatal("expected apply to report no change")
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestApplyAdvancesLevelAndFansOut(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE .submission_reviews. SET .*escalation_level.*WHERE review_id = \\? AND escalation_level < \\?"),
			result:  scriptedResult{rowsAffected: 1},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO .audit_logs."),
			result:  scriptedResult{lastInsertID: 1, rowsAffected: 1},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .* FROM .users. WHERE role_id IN"),
			columns: []string{"user_id", "email", "role_id"},
			rows:    [][]driver.Value{},
		},
	}

	gormDB, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewEscalationService(gormDB)
	applied, err := svc.Apply(context.Background(), 7, "sub-1", 42, 1,
		EscalationDecision{ShouldEscalate: true, NewLevel: 2}, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !applied {
		t.Fatal("expected apply to advance the level")
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}
