package model

import "errors"

// Validation failure kinds. A *ValidationError wraps exactly one of these.
var (
	// ErrMissingRequiredField is returned when an always-required field is absent or empty.
	ErrMissingRequiredField = errors.New("missing required field")
	// ErrInvalidEnumValue is returned when a field holds a value outside its enumeration.
	ErrInvalidEnumValue = errors.New("invalid enum value")
	// ErrConditionalRequirementUnmet is returned when a field required by another field's value is absent.
	ErrConditionalRequirementUnmet = errors.New("conditional requirement unmet")
	// ErrMalformedReference is returned when an identity reference is not a well-formed id.
	ErrMalformedReference = errors.New("malformed reference")
	// ErrInvalidFieldType is returned when a field value has the wrong JSON type.
	ErrInvalidFieldType = errors.New("invalid field type")
	// ErrInvalidValue is returned for any other rejected field value.
	ErrInvalidValue = errors.New("invalid value")
)

var (
	// ErrEventNotFound is returned when event is not found in database.
	ErrEventNotFound = errors.New("event not found")
	// ErrRecurrenceRuleNotFound is returned when recurrence rule is not found in database.
	ErrRecurrenceRuleNotFound = errors.New("recurrence rule not found")
	// ErrUserNotFound is returned when user is not found in database.
	ErrUserNotFound = errors.New("user not found")
	// ErrOrganizationNotFound is returned when organization is not found in database.
	ErrOrganizationNotFound = errors.New("organization not found")
	// ErrAlreadyExists is returned when a record with the same id already exists.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrReferenceNotFound is returned when a referenced user, organization, rule or event does not exist.
	ErrReferenceNotFound = errors.New("referenced record does not exist")
	// ErrInvalidHierarchy is returned when base/instance links break the two-level recurrence hierarchy.
	ErrInvalidHierarchy = errors.New("invalid recurring event hierarchy")
)

var ruleCodes = map[error]string{
	ErrMissingRequiredField:        "missing_required",
	ErrInvalidEnumValue:            "invalid_enum_value",
	ErrConditionalRequirementUnmet: "conditional_requirement_unmet",
	ErrMalformedReference:          "malformed_reference",
	ErrInvalidFieldType:            "invalid_field_type",
	ErrInvalidValue:                "invalid_value",
}

// ValidationError names the offending field and the violated rule.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Rule returns a stable machine-readable code for the violated rule.
func (e *ValidationError) Rule() string {
	if code, ok := ruleCodes[e.Err]; ok {
		return code
	}

	return ruleCodes[ErrInvalidValue]
}
