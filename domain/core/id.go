package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents an identifier minted by the calling layer
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	RequestID ID
	ReportID  ID
	SectionID ID
)

func (id RequestID) String() string { return ID(id).String() }
func (id ReportID) String() string  { return ID(id).String() }
func (id SectionID) String() string { return ID(id).String() }

// NewRequestID mints an ID for one HTTP request
func NewRequestID() RequestID { return RequestID(NewID()) }

// NewReportID mints an ID for one generated report
func NewReportID() ReportID { return ReportID(NewID()) }

// ParseRequestID accepts a caller-supplied request id; it must be a UUID
func ParseRequestID(s string) (RequestID, error) {
	u, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("request ID must be a UUID: %w", err)
	}
	return RequestID(u.String()), nil
}

// ParseSectionID parses a section identifier
func ParseSectionID(s string) (SectionID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("section ID cannot be empty")
	}
	if strings.ContainsAny(s, " /") {
		return "", fmt.Errorf("section ID %q must not contain spaces or slashes", s)
	}
	return SectionID(s), nil
}
