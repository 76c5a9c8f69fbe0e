package models

import "time"

// Review priorities, ordered by urgency.
const (
	PriorityLow    = "LOW"
	PriorityNormal = "NORMAL"
	PriorityHigh   = "HIGH"
	PriorityUrgent = "URGENT"
)

// SubmissionReview represents the submission_reviews table: the reviewer-side
// state for one submission. Created lazily on first reviewer interaction (or
// right after submit, once the risk level is known). EscalationLevel only ever
// increases; advancement must go through a guarded update so concurrent sweeps
// cannot regress it.
type SubmissionReview struct {
	ReviewID     int    `gorm:"primaryKey;column:review_id" json:"review_id"`
	SubmissionID string `gorm:"column:submission_id;size:36;uniqueIndex" json:"submission_id"`

	Priority        string     `gorm:"column:priority;default:NORMAL" json:"priority"`
	DueDate         *time.Time `gorm:"column:due_date" json:"due_date,omitempty"`
	EscalationLevel int        `gorm:"column:escalation_level;default:0" json:"escalation_level"`
	EscalatedAt     *time.Time `gorm:"column:escalated_at" json:"escalated_at,omitempty"`

	AssignedToID *int       `gorm:"column:assigned_to_id" json:"assigned_to_id,omitempty"`
	ReviewedAt   *time.Time `gorm:"column:reviewed_at" json:"reviewed_at,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`

	AssignedTo *User `gorm:"foreignKey:AssignedToID" json:"assigned_to,omitempty"`
}

func (SubmissionReview) TableName() string { return "submission_reviews" }

// ReviewAction represents the review_actions table: an append-only log of
// reviewer decisions (approve, reject, request changes).
type ReviewAction struct {
	ActionID     int       `gorm:"primaryKey;column:action_id" json:"action_id"`
	ReviewID     int       `gorm:"column:review_id" json:"review_id"`
	SubmissionID string    `gorm:"column:submission_id;size:36" json:"submission_id"`
	ActorID      int       `gorm:"column:actor_id" json:"actor_id"`
	Action       string    `gorm:"column:action" json:"action"` // APPROVED|REJECTED|CHANGES_REQUESTED
	Notes        string    `gorm:"column:notes;type:text" json:"notes"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`

	Actor *User `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
}

func (ReviewAction) TableName() string { return "review_actions" }
