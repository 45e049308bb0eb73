package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"agenda/pkg/logger"
	"agenda/pkg/model"
	"agenda/pkg/timewindow"
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

// CheckRequest is the body of a conflict check.
type CheckRequest struct {
	ServiceID        string    `json:"service_id" validate:"required,max=64"`
	StaffID          string    `json:"staff_id,omitempty" validate:"omitempty,max=64"`
	CustomerID       string    `json:"customer_id" validate:"required,max=64"`
	StartTime        time.Time `json:"start_time" validate:"required"`
	EndTime          time.Time `json:"end_time" validate:"required"`
	ExcludeBookingID string    `json:"exclude_booking_id,omitempty" validate:"omitempty,max=64"`
}

// SlotsQuery is the query of a slot listing.
type SlotsQuery struct {
	BusinessID string `validate:"required,max=64"`
	ServiceID  string `validate:"required,max=64"`
	Date       string `validate:"required,civil_date"`
	StaffID    string `validate:"omitempty,max=64"`
}

type AvailabilityValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewAvailabilityValidator(log *logger.Logger) *AvailabilityValidator {
	v := validator.New()
	if err := RegisterTags(v); err != nil {
		log.Fatal("Failed to register availability validators", "error", err)
	}

	return &AvailabilityValidator{
		validate: v,
		logger:   log,
	}
}

// RegisterTags adds the clock, civil_date and booking_status tags used by the
// model structs.
func RegisterTags(v *validator.Validate) error {
	tags := map[string]validator.Func{
		"clock":          validateClock,
		"civil_date":     validateCivilDate,
		"booking_status": validateBookingStatus,
	}
	for tag, fn := range tags {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %q: %w", tag, err)
		}
	}
	return nil
}

func validateClock(fl validator.FieldLevel) bool {
	_, err := timewindow.ParseClock(fl.Field().String())
	return err == nil
}

func validateCivilDate(fl validator.FieldLevel) bool {
	_, err := time.Parse(timewindow.DateLayout, fl.Field().String())
	return err == nil
}

func validateBookingStatus(fl validator.FieldLevel) bool {
	switch model.BookingStatus(fl.Field().String()) {
	case model.StatusScheduled, model.StatusConfirmed, model.StatusCompleted, model.StatusCanceled, model.StatusNoShow:
		return true
	}
	return false
}

// ValidateCheck only checks the shape of req. Window ordering is reported by
// the conflict checker as an invalid-range finding.
func (v *AvailabilityValidator) ValidateCheck(req *CheckRequest) error {
	return v.structErr(req)
}

func (v *AvailabilityValidator) ValidateSlotsQuery(q *SlotsQuery) error {
	return v.structErr(q)
}

// ValidateSnapshot checks a snapshot document before it is seeded or
// evaluated offline. Cross-record consistency (owning business, window
// ordering) is left to the engine's conversion.
func (v *AvailabilityValidator) ValidateSnapshot(snap *model.Snapshot) error {
	if err := v.structErr(snap); err != nil {
		return err
	}

	var errs ValidationErrors
	for i, b := range snap.Bookings {
		if !b.EndTime.After(b.StartTime) {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("Bookings[%d].EndTime", i),
				Message: "end_time must be after start_time",
			})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *AvailabilityValidator) structErr(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required", "required_if":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "clock":
			message = fmt.Sprintf("%s must be a time of day in HH:MM format", err.Field())
		case "civil_date":
			message = fmt.Sprintf("%s must be a date in YYYY-MM-DD format", err.Field())
		case "booking_status":
			message = fmt.Sprintf("%s must be one of: scheduled, confirmed, completed, canceled, no_show", err.Field())
		case "timezone":
			message = fmt.Sprintf("%s must be an IANA time zone", err.Field())
		case "unique":
			message = fmt.Sprintf("%s must not contain duplicates", err.Field())
		case "e164":
			message = fmt.Sprintf("%s must be in E.164 format (e.g., +972501234567)", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Namespace(),
			Message: message,
		})
	}

	return validationErrors
}
