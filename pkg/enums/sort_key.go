package enums

import "fmt"

// SortKey selects the ordering applied to a record listing.
type SortKey string

const (
	SortKeyNewest     SortKey = "newest"
	SortKeyOldest     SortKey = "oldest"
	SortKeyName       SortKey = "name"
	SortKeyClientCode SortKey = "clientCode"
)

var validSortKeys = []SortKey{
	SortKeyNewest,
	SortKeyOldest,
	SortKeyName,
	SortKeyClientCode,
}

// String implements fmt.Stringer.
func (k SortKey) String() string {
	return string(k)
}

// IsValid reports whether the value is a known sort key.
func (k SortKey) IsValid() bool {
	for _, candidate := range validSortKeys {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseSortKey converts raw input into SortKey. Empty input sorts by name,
// matching the store's natural listing order.
func ParseSortKey(value string) (SortKey, error) {
	if value == "" {
		return SortKeyName, nil
	}
	for _, candidate := range validSortKeys {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sort key %q", value)
}
