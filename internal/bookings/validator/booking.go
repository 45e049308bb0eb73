package validator

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	availabilityvalidator "agenda/internal/availability/validator"
	"agenda/pkg/logger"
	"agenda/pkg/model"
)

type (
	ValidationError  = availabilityvalidator.ValidationError
	ValidationErrors = availabilityvalidator.ValidationErrors
)

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validator.New()
	if err := availabilityvalidator.RegisterTags(v); err != nil {
		log.Fatal("Failed to register booking validators", "error", err)
	}

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

// ValidateCreate checks a new booking. Status may be left empty; any other
// value than scheduled is refused since bookings enter the lifecycle there.
func (v *BookingValidator) ValidateCreate(booking *model.Booking) error {
	if booking.Status == "" {
		booking.Status = model.StatusScheduled
	}
	if err := v.structErr(booking); err != nil {
		return err
	}

	var errs ValidationErrors
	if !booking.EndTime.After(booking.StartTime) {
		errs = append(errs, ValidationError{Field: "EndTime", Message: "end_time must be after start_time"})
	}
	if booking.Status != model.StatusScheduled {
		errs = append(errs, ValidationError{
			Field:   "Status",
			Message: fmt.Sprintf("new bookings start as %s, got %s", model.StatusScheduled, booking.Status),
		})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *BookingValidator) ValidateReschedule(change *model.BookingReschedule) error {
	if err := v.structErr(change); err != nil {
		return err
	}
	if !change.EndTime.After(change.StartTime) {
		return ValidationErrors{{Field: "EndTime", Message: "end_time must be after start_time"}}
	}
	return nil
}

func (v *BookingValidator) ValidateStatusUpdate(update *model.BookingStatusUpdate) error {
	return v.structErr(update)
}

func (v *BookingValidator) structErr(s any) error {
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
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "booking_status":
			message = fmt.Sprintf("%s must be one of scheduled, confirmed, completed, canceled, no_show", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
