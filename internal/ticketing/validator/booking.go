package validator

import (
	"errors"
	"fmt"
	"strings"

	"tixgate/pkg/logger"
	"tixgate/pkg/model"

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

// RequestValidator validates admission and waitlist payloads. The ticket
// count ceiling comes from configuration rather than the struct tags so the
// limit can be tuned per deployment.
type RequestValidator struct {
	validate   *validator.Validate
	maxTickets int
	logger     *logger.Logger
}

func NewRequestValidator(maxTickets int, log *logger.Logger) *RequestValidator {
	return &RequestValidator{
		validate:   validator.New(),
		maxTickets: maxTickets,
		logger:     log,
	}
}

func (v *RequestValidator) ValidateBookingRequest(req *model.BookingRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return v.checkTicketCount("TicketCount", req.TicketCount)
}

func (v *RequestValidator) ValidateWaitlistRequest(req *model.WaitlistRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return v.checkTicketCount("RequestedTickets", req.RequestedTickets)
}

func (v *RequestValidator) checkTicketCount(field string, count int) error {
	if count > v.maxTickets {
		return ValidationErrors{
			ValidationError{
				Field:   field,
				Message: fmt.Sprintf("ticket count (%d) exceeds the maximum of %d per booking", count, v.maxTickets),
			},
		}
	}
	return nil
}

func (v *RequestValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
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
