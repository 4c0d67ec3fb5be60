package validator

import (
	"errors"
	"fmt"
	"strings"

	"clinicflow/internal/scheduling"
	"clinicflow/pkg/logger"
	"clinicflow/pkg/model"

	"github.com/go-playground/validator/v10"
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

// Fields maps each failing field to its message, for error details.
func (v ValidationErrors) Fields() map[string]any {
	out := make(map[string]any, len(v))
	for _, err := range v {
		out[err.Field] = err.Message
	}
	return out
}

type AppointmentValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewAppointmentValidator(log *logger.Logger) *AppointmentValidator {
	v := validator.New()

	if err := v.RegisterValidation("appointment_status", validateStatus); err != nil {
		log.Fatal("Failed to register 'appointment_status' validator", "error", err)
	}

	log.Info("Appointment validator initialized successfully")

	return &AppointmentValidator{
		validate: v,
		logger:   log,
	}
}

func validateStatus(fl validator.FieldLevel) bool {
	status, ok := fl.Field().Interface().(model.Status)
	if !ok {
		return false
	}
	return scheduling.ValidStatus(status)
}

// Validate checks a booking candidate. Patient name and one contact channel
// are required.
func (v *AppointmentValidator) Validate(appointment *model.Appointment) error {
	if err := v.validate.Struct(appointment); err != nil {
		return v.translate(err)
	}

	if appointment.PatientPhone == "" && appointment.PatientEmail == "" {
		return ValidationErrors{{
			Field:   "PatientPhone",
			Message: "patient_phone or patient_email is required",
		}}
	}
	return nil
}

func (v *AppointmentValidator) ValidateUpdate(update *model.AppointmentUpdate) error {
	if err := v.validate.Struct(update); err != nil {
		return v.translate(err)
	}
	return nil
}

func (v *AppointmentValidator) ValidateMove(move *model.MoveRequest) error {
	if err := v.validate.Struct(move); err != nil {
		return v.translate(err)
	}
	return nil
}

func (v *AppointmentValidator) ValidateStatus(status model.Status) error {
	if err := v.validate.Var(status, "required,appointment_status"); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return ValidationErrors{{
				Field:   "Status",
				Message: fmt.Sprintf("Status must be one of: %s", statusList()),
			}}
		}
		return err
	}
	return nil
}

// ValidateIDs checks a bulk selection: non-empty, at most maxItems ids, no
// blank id.
func (v *AppointmentValidator) ValidateIDs(ids []string, maxItems int) error {
	if len(ids) == 0 {
		return ValidationErrors{{Field: "IDs", Message: "IDs is required"}}
	}
	if maxItems > 0 && len(ids) > maxItems {
		return ValidationErrors{{Field: "IDs", Message: fmt.Sprintf("IDs must contain at most %d items", maxItems)}}
	}
	if err := v.validate.Var(ids, "dive,required"); err != nil {
		return ValidationErrors{{Field: "IDs", Message: "IDs cannot contain empty values"}}
	}
	return nil
}

func (v *AppointmentValidator) translate(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return v.translateValidationErrors(validationErrs)
	}
	return err
}

func (v *AppointmentValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "required_without":
			message = fmt.Sprintf("%s is required when %s is empty", err.Field(), err.Param())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "e164":
			message = fmt.Sprintf("%s must be in E.164 format (e.g., +972501234567)", err.Field())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "datetime":
			message = fmt.Sprintf("%s must match layout %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}

func statusList() string {
	names := make([]string, 0, len(model.AllStatuses))
	for _, s := range model.AllStatuses {
		names = append(names, string(s))
	}
	return strings.Join(names, " ")
}
