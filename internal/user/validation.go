package user

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9. ()-]{7,25}$`)

// fieldMessages maps json field name and failed tag to the message returned
// to clients.
var fieldMessages = map[string]map[string]string{
	"email": {
		"required": "Email is required.",
		"email":    "Email should be valid.",
	},
	"firstName":   {"required": "First name is required."},
	"lastName":    {"required": "Last name is required."},
	"birthDate":   {"required": "Birth date is required.", "past": "Birth date must be in the past."},
	"phoneNumber": {"phone": "Phone number is invalid."},
}

// ValidationError lists every field-level problem found in a payload.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "Validation failed: " + strings.Join(e.Messages, " ")
}

// Validator checks the shape of incoming user payloads before they reach
// the Service.
type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

func NewValidator() *Validator {
	v := &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}

	v.validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.validate.RegisterCustomTypeFunc(func(field reflect.Value) any {
		date, ok := field.Interface().(Date)
		if !ok || date.IsZero() {
			return nil
		}
		return date.Time()
	}, Date{})

	if err := v.validate.RegisterValidation("past", v.isPast); err != nil {
		panic(err)
	}
	if err := v.validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}

	return v
}

func (v *Validator) Validate(user User) error {
	err := v.validate.Struct(user)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, messageFor(fe))
	}
	return &ValidationError{Messages: messages}
}

func (v *Validator) isPast(fl validator.FieldLevel) bool {
	t, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}
	return DateOf(t).Before(DateOf(v.now()))
}

func messageFor(fe validator.FieldError) string {
	if byTag, ok := fieldMessages[fe.Field()]; ok {
		if msg, ok := byTag[fe.Tag()]; ok {
			return msg
		}
	}
	return fe.Field() + " is invalid."
}
