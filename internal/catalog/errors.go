package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/locallibrary/internal/entities"
	"github.com/mrlokans/locallibrary/internal/permissions"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")

	ErrUnauthenticated  = permissions.ErrUnauthenticated
	ErrPermissionDenied = permissions.ErrPermissionDenied
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every field-level problem found in one request.
type ValidationError struct {
	Entity string
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return fmt.Sprintf("invalid %s: %s", e.Entity, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// invalid is returned by field parsers; its text becomes the field message.
type invalid string

func (e invalid) Error() string { return string(e) }

func invalidf(format string, args ...any) invalid {
	return invalid(fmt.Sprintf(format, args...))
}

// fieldErrors collects at most one message per field.
type fieldErrors []FieldError

func (fe *fieldErrors) add(field, message string) {
	for _, existing := range *fe {
		if existing.Field == field {
			return
		}
	}
	*fe = append(*fe, FieldError{Field: field, Message: message})
}

// record files err under field when it is a parse problem and returns any
// other error unchanged.
func (fe *fieldErrors) record(field string, err error) error {
	var msg invalid
	if errors.As(err, &msg) {
		fe.add(field, string(msg))
		return nil
	}
	return err
}

func (fe fieldErrors) asError(entity string) error {
	if len(fe) == 0 {
		return nil
	}
	sorted := append([]FieldError(nil), fe...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Field < sorted[j].Field })
	return &ValidationError{Entity: entity, Fields: sorted}
}

func singleFieldError(entity, field, message string) error {
	return &ValidationError{Entity: entity, Fields: []FieldError{{Field: field, Message: message}}}
}

// translate maps storage errors onto the catalog taxonomy.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	case errors.Is(err, entities.ErrStaleVersion), errors.Is(err, entities.ErrBookHasCopies):
		return fmt.Errorf("%s: %w: %v", what, ErrConflict, err)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}
