// Package query derives filtered and sorted views over an in-memory record
// snapshot. Every function is pure: inputs are never mutated and results are
// fresh slices.
package query

import (
	"sort"
	"strings"

	"github.com/optica/eyecare-backend/pkg/collate"
	"github.com/optica/eyecare-backend/pkg/db/models"
	"github.com/optica/eyecare-backend/pkg/enums"
)

// FilterByStatus keeps records whose status matches exactly. Records without
// a stored status count as active.
func FilterByStatus(records []models.ClientRecord, status enums.RecordStatus) []models.ClientRecord {
	out := make([]models.ClientRecord, 0, len(records))
	for _, r := range records {
		if r.EffectiveStatus() == status.Normalize() {
			out = append(out, r)
		}
	}
	return out
}

// Search matches term as a case-insensitive substring of the selected field,
// or of any searchable field when field is "all". A blank term yields an
// empty result set by product convention.
func Search(records []models.ClientRecord, term string, field enums.SearchField) []models.ClientRecord {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return []models.ClientRecord{}
	}

	out := make([]models.ClientRecord, 0, len(records))
	for _, r := range records {
		if matches(r, term, field) {
			out = append(out, r)
		}
	}
	return out
}

func matches(r models.ClientRecord, term string, field enums.SearchField) bool {
	switch field {
	case enums.SearchFieldName:
		return contains(r.Name, term)
	case enums.SearchFieldMobile:
		return contains(r.Mobile, term)
	case enums.SearchFieldClientCode:
		return contains(r.ClientCode, term)
	case enums.SearchFieldEmail:
		return contains(r.Email, term)
	default:
		return contains(r.Name, term) ||
			contains(r.Mobile, term) ||
			contains(r.ClientCode, term) ||
			contains(r.Email, term)
	}
}

func contains(value, loweredTerm string) bool {
	return strings.Contains(strings.ToLower(value), loweredTerm)
}

// Sort orders a copy of records by the given key. newest/oldest compare the
// completion time when set, creation time otherwise; ties keep input order.
// name/clientCode compare under locale collation, ascending.
func Sort(records []models.ClientRecord, key enums.SortKey) []models.ClientRecord {
	out := make([]models.ClientRecord, len(records))
	copy(out, records)

	switch key {
	case enums.SortKeyNewest:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].ActivityTime().After(out[j].ActivityTime())
		})
	case enums.SortKeyOldest:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].ActivityTime().Before(out[j].ActivityTime())
		})
	case enums.SortKeyClientCode:
		sort.SliceStable(out, func(i, j int) bool {
			return collate.Less(out[i].ClientCode, out[j].ClientCode)
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			return collate.Less(out[i].Name, out[j].Name)
		})
	}
	return out
}

// DistinctFrameOptions returns the deduplicated non-empty frame options,
// sorted ascending.
func DistinctFrameOptions(records []models.ClientRecord) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, r := range records {
		option := strings.TrimSpace(r.FrameOption)
		if option == "" {
			continue
		}
		if _, ok := seen[option]; ok {
			continue
		}
		seen[option] = struct{}{}
		out = append(out, option)
	}
	sort.Slice(out, func(i, j int) bool { return collate.Less(out[i], out[j]) })
	return out
}
