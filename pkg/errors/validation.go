package errors

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// kindNameRegex matches valid kind names: lowercase words joined by dashes.
var kindNameRegex = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`)

// ValidateKindName validates the name of a registered kind.
// Kind names are used as CSS classes by the HTML sink, so they are limited
// to lowercase letters, digits and single dashes.
func ValidateKindName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidKind, "kind name cannot be empty")
	}
	if len(name) > 64 {
		return New(ErrCodeInvalidKind, "kind name too long (max 64 characters)")
	}
	if !kindNameRegex.MatchString(name) {
		return New(ErrCodeInvalidKind, "invalid kind name: %q", name)
	}
	return nil
}

// ValidateSnapshotName validates a user-supplied snapshot name.
//
// The validation rules are intentionally conservative:
//   - Maximum length of 256 characters
//   - No control characters
//   - No path separators (names end up in file store listings)
//
// An empty name is allowed; the store falls back to the snapshot ID.
func ValidateSnapshotName(name string) error {
	if len(name) > 256 {
		return New(ErrCodeInvalidInput, "snapshot name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "snapshot name contains invalid control characters")
		}
	}

	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidInput, "snapshot name cannot contain path separators")
	}

	return nil
}

// ValidateSnapshotID validates a snapshot identifier.
// Snapshot IDs are UUIDs; anything else is rejected before it reaches a
// store backend, where it would otherwise become a file name or a key.
func ValidateSnapshotID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "snapshot id cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid snapshot id %q", id)
	}
	return nil
}
