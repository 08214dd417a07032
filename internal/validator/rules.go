package validator

import (
	"fmt"
	"strings"
	"time"

	"reviewhub_backend/internal/models"

	"github.com/go-playground/validator/v10"
)

func registerCustomRules(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"notblank":      validateNotBlank,
		"review_status": validateReviewStatus,
		"review_action": validateReviewAction,
		"day":           validateDay,
		"consent":       validateConsent,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %q: %w", tag, err)
		}
	}
	return nil
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func validateReviewStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.ReviewStatus(value).Valid()
}

func validateReviewAction(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "", "approve", "reject", "pending":
		return true
	default:
		return false
	}
}

// validateDay accepts an empty value or a calendar date.
func validateDay(fl validator.FieldLevel) bool {
	value := strings.TrimSpace(fl.Field().String())
	if value == "" {
		return true
	}
	_, err := time.Parse("2006-01-02", value)
	return err == nil
}

func validateConsent(fl validator.FieldLevel) bool {
	return fl.Field().Bool()
}
