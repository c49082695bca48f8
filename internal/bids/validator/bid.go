package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"drivebid/pkg/logger"
	"drivebid/pkg/model"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type BidValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBidValidator(log *logger.Logger) *BidValidator {
	v := validator.New()

	log.Info("Bid validator initialized successfully")

	return &BidValidator{
		validate: v,
		logger:   log,
	}
}

// ValidateRequest checks the submit-path input. Single-day rentals are legal,
// so an end date equal to the start date passes.
func (v *BidValidator) ValidateRequest(req *model.BidRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	return validateDateRange(req.StartDate, req.EndDate)
}

// ValidateSubmission checks a dequeued message before it becomes a bid. A
// failure here is terminal; the consumer routes the message to the DLQ.
func (v *BidValidator) ValidateSubmission(sub *model.BidSubmission) error {
	if err := v.validate.Struct(sub); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	return validateDateRange(sub.StartDate, sub.EndDate)
}

func validateDateRange(start, end time.Time) error {
	if end.Before(start) {
		return ValidationErrors{
			ValidationError{
				Field:   "EndDate",
				Message: "end_date cannot be before start_date",
			},
		}
	}
	return nil
}

func (v *BidValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "gt":
			message = fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
		case "gte":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
