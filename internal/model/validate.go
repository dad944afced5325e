package model

import (
	"fmt"
	"strings"
)

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Errors []FieldError
}

// FieldError is one failed rule on a named field.
type FieldError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

func (e *ValidationError) add(field, format string, args ...any) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// err returns e as an error, or nil when nothing failed, so callers never
// hand back a typed nil.
func (e *ValidationError) err() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

// maxTemplateNameLen bounds template names so they fit in an index.
const maxTemplateNameLen = 512

// ValidateSetting checks a DashboardSetting before it is written.
func ValidateSetting(s *DashboardSetting) error {
	ve := &ValidationError{}
	if s == nil {
		ve.add("setting", "is required")
		return ve.err()
	}
	// Names are matched exactly on update and disable, so a padded name
	// would be unreachable under its trimmed spelling.
	switch name := strings.TrimSpace(s.ID); {
	case name == "":
		ve.add("id", "is required")
	case name != s.ID:
		ve.add("id", "must not have leading or trailing whitespace")
	case len(name) > maxTemplateNameLen:
		ve.add("id", "must be %d bytes or fewer", maxTemplateNameLen)
	}
	return ve.err()
}

// ValidateAlias checks a NetworkAddressAlias before it is written.
func ValidateAlias(a *NetworkAddressAlias) error {
	ve := &ValidationError{}
	if a == nil {
		ve.add("alias", "is required")
		return ve.err()
	}
	if strings.TrimSpace(a.Address) == "" {
		ve.add("address", "is required")
	}
	if strings.TrimSpace(a.RepresentServiceID) == "" {
		ve.add("represent_service_id", "is required")
	}
	if a.LastUpdateTimeBucket < 0 {
		ve.add("last_update_time_bucket", "must not be negative")
	}
	return ve.err()
}
