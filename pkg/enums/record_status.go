package enums

import "fmt"

// RecordStatus tracks a client record through the active/completed lifecycle.
type RecordStatus string

const (
	RecordStatusActive    RecordStatus = "active"
	RecordStatusCompleted RecordStatus = "completed"
)

var validRecordStatuses = []RecordStatus{
	RecordStatusActive,
	RecordStatusCompleted,
}

// String implements fmt.Stringer.
func (s RecordStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known record status.
func (s RecordStatus) IsValid() bool {
	for _, candidate := range validRecordStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Normalize treats a missing status as active. Old backups predate the
// lifecycle field, so the zero value reads as active rather than invalid.
func (s RecordStatus) Normalize() RecordStatus {
	if s == "" {
		return RecordStatusActive
	}
	return s
}

// ParseRecordStatus converts raw input into RecordStatus.
func ParseRecordStatus(value string) (RecordStatus, error) {
	for _, candidate := range validRecordStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid record status %q", value)
}
