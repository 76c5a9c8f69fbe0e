package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetAssessment returns the persisted risk assessment for a submission.
// Pure lookup; never recomputes.
func GetAssessment(c *gin.Context) {
	sub, ok := loadSubmissionForCaller(c)
	if !ok {
		return
	}

	assessment, err := assessmentService.GetForSubmission(c.Request.Context(), sub.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No assessment exists for this submission"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load assessment"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"assessment": assessment})
}
