package todo

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyTitle is returned when a todo title is empty.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrTitleTooLong is returned when a todo title exceeds MaxTitleLength.
	ErrTitleTooLong = errors.New("title exceeds maximum length")

	// ErrInvalidPriority is returned when an invalid priority is provided.
	ErrInvalidPriority = errors.New("invalid priority")

	// ErrMissingOwner is returned when a todo has no owner.
	ErrMissingOwner = errors.New("todo must have an owner")

	// ErrInvalidFilterMode is returned when an unknown view filter is requested.
	ErrInvalidFilterMode = errors.New("invalid filter mode")
)

// ValidateTitle checks if the title is valid.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return ErrEmptyTitle
	}
	if len(title) > MaxTitleLength {
		return fmt.Errorf("%w: %d > %d", ErrTitleTooLong, len(title), MaxTitleLength)
	}
	return nil
}

// ValidatePriority checks if the priority is valid.
func ValidatePriority(priority Priority) error {
	if !priority.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, priority)
	}
	return nil
}

// ValidateTodo checks if a todo struct is valid.
func ValidateTodo(t *Todo) error {
	if err := ValidateTitle(t.Title); err != nil {
		return err
	}
	if err := ValidatePriority(t.Priority); err != nil {
		return err
	}
	if t.OwnerID == "" {
		return ErrMissingOwner
	}
	return nil
}

func normalizePriority(priority Priority) Priority {
	return Priority(strings.ToLower(strings.TrimSpace(string(priority))))
}

// NormalizePriorityInput lowercases a priority and validates it.
// An empty input defaults to PriorityMedium.
func NormalizePriorityInput(priority Priority) (Priority, error) {
	if priority == "" {
		return PriorityMedium, nil
	}
	normalized := normalizePriority(priority)
	if err := ValidatePriority(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}
