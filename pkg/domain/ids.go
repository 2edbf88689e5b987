package domain

import (
	"github.com/google/uuid"

	dErrors "toolgate/pkg/domain-errors"
)

// Typed identifiers for the core entities. UUID-backed IDs are minted by this
// service; string-backed IDs identify records owned elsewhere (courses live in
// the external learning platform, capabilities in the tool catalog).

// UserID identifies a principal.
type UserID uuid.UUID

// NewUserID mints a random user ID.
func NewUserID() UserID {
	return UserID(uuid.New())
}

// ParseUserID constructs a UserID from external input.
func ParseUserID(s string) (UserID, error) {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid user id")
	}
	return UserID(parsed), nil
}

func (u UserID) String() string {
	return uuid.UUID(u).String()
}

// IsNil reports whether the ID is the zero UUID.
func (u UserID) IsNil() bool {
	return uuid.UUID(u) == uuid.Nil
}

// CapabilityID identifies a gated tool.
type CapabilityID string

func (c CapabilityID) String() string { return string(c) }

// IsNil reports whether the ID is empty.
func (c CapabilityID) IsNil() bool { return c == "" }

// CourseID identifies a course in the external learning platform.
type CourseID string

func (c CourseID) String() string { return string(c) }

// IsNil reports whether the ID is empty.
func (c CourseID) IsNil() bool { return c == "" }

// CategoryID identifies an admin-defined skill category.
type CategoryID uuid.UUID

// NewCategoryID mints a random category ID.
func NewCategoryID() CategoryID {
	return CategoryID(uuid.New())
}

// ParseCategoryID constructs a CategoryID from external input.
func ParseCategoryID(s string) (CategoryID, error) {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return CategoryID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid category id")
	}
	return CategoryID(parsed), nil
}

func (c CategoryID) String() string {
	return uuid.UUID(c).String()
}

// IsNil reports whether the ID is the zero UUID.
func (c CategoryID) IsNil() bool {
	return uuid.UUID(c) == uuid.Nil
}
