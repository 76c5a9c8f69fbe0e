// utils/validator.go - Input validation
package utils

import (
	"fmt"
	"strings"

	"ai-governance-api/models"
)

// ValidateForSubmit returns the list of problems that block a draft from
// being submitted for review. Optional fields are allowed to be empty; the
// scorer treats absence as zero risk contribution.
func ValidateForSubmit(sub *models.AISystemSubmission) []string {
	var problems []string

	required := []struct {
		value string
		name  string
	}{
		{sub.AISystemName, "ai_system_name"},
		{sub.UseCase, "use_case"},
		{sub.BusinessPurpose, "business_purpose"},
		{sub.Vendor, "vendor"},
		{sub.CurrentStage, "current_stage"},
		{sub.NumberOfUsers, "number_of_users"},
		{sub.OutputUsage, "output_usage"},
		{sub.HumanReviewLevel, "human_review_level"},
		{sub.VendorDataStorage, "vendor_data_storage"},
		{sub.HasFederalContracts, "has_federal_contracts"},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			problems = append(problems, fmt.Sprintf("%s is required", field.name))
		}
	}

	if len(sub.DataTypes) == 0 {
		problems = append(problems, "at least one data type must be selected")
	}

	return problems
}

// SanitizeInput removes potentially harmful characters
func SanitizeInput(input string) string {
	input = strings.TrimSpace(input)
	input = strings.ReplaceAll(input, "\x00", "")
	return input
}
