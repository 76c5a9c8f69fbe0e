package models

import "time"

// Role IDs used by middleware.RequireRole.
const (
	RoleUser     = 1
	RoleReviewer = 2
	RoleAdmin    = 3
)

// User represents the users table.
type User struct {
	UserID       int        `gorm:"primaryKey;column:user_id" json:"user_id"`
	Email        string     `gorm:"column:email;uniqueIndex" json:"email"`
	PasswordHash string     `gorm:"column:password_hash" json:"-"`
	Name         string     `gorm:"column:name" json:"name"`
	RoleID       int        `gorm:"column:role_id" json:"role_id"`
	CreatedAt    time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at" json:"updated_at"`
	DeletedAt    *time.Time `gorm:"column:deleted_at" json:"-"`
}

func (User) TableName() string { return "users" }

// CanReviewSubmissions reports whether the user holds a reviewer or admin role.
func (u *User) CanReviewSubmissions() bool {
	return u.RoleID == RoleReviewer || u.RoleID == RoleAdmin
}
