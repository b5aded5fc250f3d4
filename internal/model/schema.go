package model

import (
	"cmp"
	"errors"
	"reflect"
	"regexp"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jnst/event-records/internal/registry"
)

const (
	schemaName = "Event"

	tagReference   = "ref"
	tagConditional = "required_by"
)

// referencePattern is the single identity format shared by users, organizations,
// recurrence rules and events: UUIDs, 24-hex object ids and short slugs all match.
var referencePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// precedence orders reported violations: required fields first, then
// conditional requirements, enumerations and finally reference shapes.
var precedence = map[error]int{
	ErrInvalidFieldType:            0,
	ErrMissingRequiredField:        1,
	ErrConditionalRequirementUnmet: 2,
	ErrInvalidEnumValue:            3,
	ErrMalformedReference:          4,
	ErrInvalidValue:                5,
}

// Schema is the schema-bound validation handle for events and recurrence rules.
type Schema struct {
	validate *validator.Validate
}

// RegisterSchema returns the process-wide Schema, building it on first use.
// Repeated initialization in one process always yields the same handle.
func RegisterSchema() *Schema {
	return registry.Ensure(registry.Default(), schemaName, newSchema)
}

func newSchema() *Schema {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	if err := v.RegisterValidation(tagReference, func(fl validator.FieldLevel) bool {
		return referencePattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}

	v.RegisterStructValidation(conditionalRequirements, EventCandidate{})

	return &Schema{validate: v}
}

// conditionalRequirements enforces fields whose presence depends on other fields.
func conditionalRequirements(sl validator.StructLevel) {
	c, ok := sl.Current().Interface().(EventCandidate)
	if !ok {
		return
	}

	if c.AllDay != nil && !*c.AllDay {
		if c.StartTime == nil {
			sl.ReportError(c.StartTime, "startTime", "StartTime", tagConditional, "allDay")
		}

		if c.EndTime == nil {
			sl.ReportError(c.EndTime, "endTime", "EndTime", tagConditional, "allDay")
		}
	}

	if c.Recurring != nil && *c.Recurring && c.Recurrance == nil {
		sl.ReportError(c.Recurrance, "recurrance", "Recurrance", tagConditional, "recurring")
	}
}

// ValidateEvent checks a candidate and returns the typed event with defaults
// applied. On failure it returns the highest-precedence *ValidationError.
func (s *Schema) ValidateEvent(c *EventCandidate) (*Event, error) {
	defaulted := c.withDefaults()
	if errs := s.check(defaulted); len(errs) > 0 {
		return nil, errs[0]
	}

	return defaulted.event(), nil
}

// CheckEvent returns every violation of the candidate, highest precedence first.
func (s *Schema) CheckEvent(c *EventCandidate) []*ValidationError {
	return s.check(c.withDefaults())
}

// ValidateRecurrenceRule checks rule creation parameters.
func (s *Schema) ValidateRecurrenceRule(p *CreateRecurrenceRuleParams) error {
	return s.validateStruct(p)
}

func (s *Schema) validateStruct(value any) error {
	if errs := s.check(value); len(errs) > 0 {
		return errs[0]
	}

	return nil
}

func (s *Schema) check(value any) []*ValidationError {
	err := s.validate.Struct(value)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []*ValidationError{{Field: "", Err: ErrInvalidValue}}
	}

	out := make([]*ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, &ValidationError{Field: fe.Field(), Err: kindOf(fe)})
	}

	slices.SortStableFunc(out, func(a, b *ValidationError) int {
		return cmp.Compare(precedence[a.Err], precedence[b.Err])
	})

	return out
}

func kindOf(fe validator.FieldError) error {
	switch fe.Tag() {
	case "required":
		return ErrMissingRequiredField
	case "min":
		if fe.Kind() == reflect.String {
			return ErrMissingRequiredField
		}

		return ErrInvalidValue
	case tagConditional:
		return ErrConditionalRequirementUnmet
	case "oneof":
		return ErrInvalidEnumValue
	case tagReference:
		return ErrMalformedReference
	default:
		return ErrInvalidValue
	}
}

// ValidateEvent validates c against the process-wide schema.
func ValidateEvent(c *EventCandidate) (*Event, error) {
	return RegisterSchema().ValidateEvent(c)
}
