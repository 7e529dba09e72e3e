package enums

import "fmt"

// SearchField selects which record field a search term matches against.
type SearchField string

const (
	SearchFieldAll        SearchField = "all"
	SearchFieldName       SearchField = "name"
	SearchFieldMobile     SearchField = "mobile"
	SearchFieldClientCode SearchField = "clientCode"
	SearchFieldEmail      SearchField = "email"
)

var validSearchFields = []SearchField{
	SearchFieldAll,
	SearchFieldName,
	SearchFieldMobile,
	SearchFieldClientCode,
	SearchFieldEmail,
}

// String implements fmt.Stringer.
func (f SearchField) String() string {
	return string(f)
}

// IsValid reports whether the value is a known search field.
func (f SearchField) IsValid() bool {
	for _, candidate := range validSearchFields {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseSearchField converts raw input into SearchField. Empty input selects
// the all-fields search.
func ParseSearchField(value string) (SearchField, error) {
	if value == "" {
		return SearchFieldAll, nil
	}
	for _, candidate := range validSearchFields {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid search field %q", value)
}
