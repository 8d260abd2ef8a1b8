package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies errors returned by the admission and deletion engines
type ErrorKind string

const (
	KindValidation       ErrorKind = "validation"
	KindInvalidReference ErrorKind = "invalid_reference"
	KindNotFound         ErrorKind = "not_found"
	KindConflict         ErrorKind = "conflict"
	KindConstraint       ErrorKind = "constraint"
)

// Sentinels for errors.Is matching
var (
	ErrValidation       = errors.New("validation error")
	ErrInvalidReference = errors.New("invalid reference")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrConstraint       = errors.New("constraint violated")
)

// Rules a rejected admission can name
const (
	RuleRequiredFields  = "required_fields"
	RuleReference       = "reference"
	RuleProgramMismatch = "program_mismatch"
	RuleSectionRange    = "section_range"
	RuleSlotType        = "slot_type"
	RuleRoomType        = "room_type"
	RuleRoomUnavailable = "room_unavailable"
	RuleRoomBooked      = "room_booked"
	RuleTeacherBooked   = "teacher_booked"
	RuleSectionBooked   = "section_booked"
	RuleSectionQuota    = "section_quota"
	RuleDailyWorkload   = "daily_workload"
	RuleWeeklyWorkload  = "weekly_workload"
	RuleDuplicate       = "duplicate"
)

// Violation carries the numbers behind a ConstraintError
type Violation struct {
	Rule      string  `json:"rule"`
	Limit     float64 `json:"limit"`
	Current   float64 `json:"current"`
	Attempted float64 `json:"attempted"`
}

// OverBy is how far the attempted total exceeds the limit
func (v Violation) OverBy() float64 {
	return v.Attempted - v.Limit
}

// Error is the single error type surfaced by the scheduling services
type Error struct {
	Kind      ErrorKind  `json:"kind"`
	Rule      string     `json:"rule,omitempty"`
	Message   string     `json:"message"`
	Violation *Violation `json:"violation,omitempty"`
}

func (e *Error) Error() string {
	if e.Rule != "" {
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.Rule, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is matches the kind sentinels. An invalid reference is also a validation error.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Kind == KindValidation || e.Kind == KindInvalidReference
	case ErrInvalidReference:
		return e.Kind == KindInvalidReference
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrConflict:
		return e.Kind == KindConflict
	case ErrConstraint:
		return e.Kind == KindConstraint
	}
	return false
}

// NewValidationError reports malformed or inconsistent input
func NewValidationError(rule, message string) *Error {
	return &Error{Kind: KindValidation, Rule: rule, Message: message}
}

// NewMissingFieldsError lists required fields that were not supplied
func NewMissingFieldsError(fields []string) *Error {
	return &Error{
		Kind:    KindValidation,
		Rule:    RuleRequiredFields,
		Message: "missing required fields: " + strings.Join(fields, ", "),
	}
}

// NewInvalidReferenceError reports an id that does not resolve to a stored entity
func NewInvalidReferenceError(entity string, id any) *Error {
	return &Error{
		Kind:    KindInvalidReference,
		Rule:    RuleReference,
		Message: fmt.Sprintf("invalid reference: %s %v does not exist", entity, id),
	}
}

// NewNotFoundError reports a missing entity addressed directly by the caller
func NewNotFoundError(entity string, id any) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s %v not found", entity, id),
	}
}

// NewConflictError reports a double booking
func NewConflictError(rule, message string) *Error {
	return &Error{Kind: KindConflict, Rule: rule, Message: message}
}

// NewConstraintError reports an exceeded quota or workload ceiling
func NewConstraintError(v Violation, message string) *Error {
	return &Error{Kind: KindConstraint, Rule: v.Rule, Message: message, Violation: &v}
}

// KindOf returns the kind of a scheduling error, or "" for any other error
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// RuleOf returns the rule named by a scheduling error, or ""
func RuleOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Rule
	}
	return ""
}
