package services

import (
	"log"

	"gorm.io/gorm"

	"ai-governance-api/config"
	"ai-governance-api/models"
)

// NotificationInput describes one outbound notification. The same content is
// written as an in-app notification row and, when the recipient has an email
// address, sent via SMTP.
type NotificationInput struct {
	Title               string
	Message             string
	Type                string // info|success|warning|error
	RelatedSubmissionID *string
}

// NotifyUser records a notification for one user. Fire-and-forget: failures
// are logged and never propagate to the caller.
func NotifyUser(db *gorm.DB, userID int, input NotificationInput) {
	row := models.Notification{
		UserID:              userID,
		Title:               input.Title,
		Message:             input.Message,
		Type:                input.Type,
		RelatedSubmissionID: input.RelatedSubmissionID,
	}
	if err := db.Create(&row).Error; err != nil {
		log.Printf("failed to create notification for user %d: %v", userID, err)
		return
	}

	var user models.User
	if err := db.Select("email").Where("user_id = ? AND deleted_at IS NULL", userID).First(&user).Error; err != nil {
		return
	}
	if user.Email == "" {
		return
	}

	html := "<p>" + input.Message + "</p><p style=\"color:#6b7280;font-size:14px;\">— AI Governance Team</p>"
	if err := config.SendMail([]string{user.Email}, input.Title, html); err != nil {
		log.Printf("failed to send notification email to user %d: %v", userID, err)
	}
}

// NotifyRoles fans a notification out to every active user holding one of
// the named workflow roles (REVIEWER, ADMIN).
func NotifyRoles(db *gorm.DB, roleNames []string, input NotificationInput) {
	roleIDs := make([]int, 0, len(roleNames))
	for _, name := range roleNames {
		switch name {
		case "REVIEWER":
			roleIDs = append(roleIDs, models.RoleReviewer)
		case "ADMIN":
			roleIDs = append(roleIDs, models.RoleAdmin)
		}
	}
	if len(roleIDs) == 0 {
		return
	}

	var users []models.User
	if err := db.Where("role_id IN ? AND deleted_at IS NULL", roleIDs).Find(&users).Error; err != nil {
		log.Printf("failed to load users for roles %v: %v", roleNames, err)
		return
	}

	for _, user := range users {
		NotifyUser(db, user.UserID, input)
	}
}
