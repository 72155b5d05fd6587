package task

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

var (
	// ErrValidation is wrapped by every input validation error.
	ErrValidation = errors.New("invalid task")

	// ErrEmptyName is returned when a task name is blank.
	ErrEmptyName = fmt.Errorf("%w: name cannot be empty", ErrValidation)

	// ErrInvalidDue is returned when a due time is missing or malformed.
	ErrInvalidDue = fmt.Errorf("%w: due must be date YYYY-MM-DD and time HH:MM (24-hour)", ErrValidation)

	// ErrInvalidRemind is returned when a reminder offset is not one of RemindOffsets.
	ErrInvalidRemind = fmt.Errorf("%w: remind minutes must be one of %s", ErrValidation, formatOffsets())

	// ErrInvalidCategory is returned when a category is not one of ValidCategories.
	ErrInvalidCategory = fmt.Errorf("%w: category must be one of %s", ErrValidation, FormatValidValues(ValidCategories()))

	// ErrTaskNotFound is returned when an operation names a task that does not exist.
	ErrTaskNotFound = errors.New("no such task")
)

// ValidateName checks that a name is not blank.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	return nil
}

// ValidateRemind checks that minutes is an allowed reminder offset.
func ValidateRemind(minutes int) error {
	if !slices.Contains(RemindOffsets(), minutes) {
		return fmt.Errorf("%w: got %d", ErrInvalidRemind, minutes)
	}
	return nil
}

// ValidateCategory checks c against the category set. When required is false
// an empty category is accepted.
func ValidateCategory(c Category, required bool) error {
	if c == "" && !required {
		return nil
	}
	if !c.IsValid() {
		return fmt.Errorf("%w: got %q", ErrInvalidCategory, c)
	}
	return nil
}

// ParseCategory matches s against the category set, ignoring case.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range ValidCategories() {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: got %q", ErrInvalidCategory, s)
}

// ParseRemind reads a reminder offset from user input.
func ParseRemind(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: got %q", ErrInvalidRemind, s)
	}
	if err := ValidateRemind(n); err != nil {
		return 0, err
	}
	return n, nil
}

// FormatValidValues joins string-like values for error messages.
func FormatValidValues[T ~string](values []T) string {
	formatted := make([]string, 0, len(values))
	for _, value := range values {
		formatted = append(formatted, string(value))
	}
	return strings.Join(formatted, ", ")
}

func formatOffsets() string {
	parts := make([]string, 0, len(RemindOffsets()))
	for _, n := range RemindOffsets() {
		parts = append(parts, strconv.Itoa(n))
	}
	return strings.Join(parts, ", ")
}
