// Package backup serializes the full record set to portable JSON/CSV/PDF
// files and restores JSON/CSV backups through the store's transactional
// import path.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/optica/eyecare-backend/pkg/db/models"
	"github.com/optica/eyecare-backend/pkg/enums"
	pkgerrors "github.com/optica/eyecare-backend/pkg/errors"
	"github.com/optica/eyecare-backend/pkg/metrics"
	"go.uber.org/multierr"
)

// EnvelopeVersion is written into every JSON export.
const EnvelopeVersion = "1.0"

type recordsRepository interface {
	GetAll(ctx context.Context) ([]models.ClientRecord, error)
	ImportBatch(ctx context.Context, batch []models.ClientRecord) (int, error)
}

// Envelope is the top-level JSON export object.
type Envelope struct {
	Version    string                `json:"version"`
	ExportDate time.Time             `json:"exportDate"`
	TotalUsers int                   `json:"totalUsers"`
	Users      []models.ClientRecord `json:"users"`
}

// Stats summarizes the stored dataset.
type Stats struct {
	TotalUsers        int        `json:"totalUsers"`
	DataSize          int        `json:"dataSize"`
	DataSizeFormatted string     `json:"dataSizeFormatted"`
	LastModified      *time.Time `json:"lastModified,omitempty"`
}

// ImportResult reports what a restore accomplished.
type ImportResult struct {
	Format   enums.ExportFormat `json:"format"`
	Imported int                `json:"imported"`
	Skipped  int                `json:"skipped"`
}

// Violation pins an import rejection to a record index and field.
type Violation struct {
	Index int    `json:"index"`
	Field string `json:"field"`
}

// Service is the backup/restore engine surface.
type Service interface {
	ExportJSON(ctx context.Context, w io.Writer) (int, error)
	ExportCSV(ctx context.Context, w io.Writer) (int, error)
	ExportPDF(ctx context.Context, w io.Writer) (int, error)
	Import(ctx context.Context, r io.Reader) (*ImportResult, error)
	Stats(ctx context.Context) (*Stats, error)
}

type service struct {
	repo    recordsRepository
	metrics *metrics.StoreMetrics
}

// NewService builds a backup engine over the record repository.
func NewService(repo recordsRepository, m *metrics.StoreMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("records repository required")
	}
	return &service{repo: repo, metrics: m}, nil
}

// FileName renders the dated export filename for the format.
func FileName(format enums.ExportFormat, now time.Time) string {
	date := now.UTC().Format("2006-01-02")
	switch format {
	case enums.ExportFormatCSV:
		return fmt.Sprintf("eyecare_data_%s.csv", date)
	case enums.ExportFormatPDF:
		return fmt.Sprintf("eyecare_report_%s.pdf", date)
	default:
		return fmt.Sprintf("eyecare_backup_%s.json", date)
	}
}

// ExportJSON writes the versioned envelope holding a full snapshot and
// returns the number of records exported.
func (s *service) ExportJSON(ctx context.Context, w io.Writer) (int, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		return 0, err
	}

	envelope := Envelope{
		Version:    EnvelopeVersion,
		ExportDate: time.Now().UTC(),
		TotalUsers: len(rows),
		Users:      rows,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(envelope); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode backup envelope")
	}
	s.metrics.IncExport(enums.ExportFormatJSON.String())
	return len(rows), nil
}

// Import restores records from a backup file, detecting the format from
// content rather than the filename.
func (s *service) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeParse, err, "read backup file")
	}

	format, err := DetectFormat(content)
	if err != nil {
		return nil, err
	}

	var result *ImportResult
	switch format {
	case enums.ExportFormatJSON:
		result, err = s.importJSON(ctx, content)
	default:
		result, err = s.importCSV(ctx, content)
	}
	if err != nil {
		return nil, err
	}
	s.metrics.AddImported(result.Imported)
	return result, nil
}

// DetectFormat sniffs the payload: JSON starts with an object or array once
// leading whitespace and any BOM are stripped, anything else is treated as CSV.
func DetectFormat(content []byte) (enums.ExportFormat, error) {
	trimmed := bytes.TrimLeft(content, " \t\r\n\uFEFF")
	if len(trimmed) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeParse, "backup file is empty")
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return enums.ExportFormatJSON, nil
	}
	return enums.ExportFormatCSV, nil
}

// importRecord mirrors the envelope's user shape with pointer fields where
// presence matters for validation.
type importRecord struct {
	ID            string                      `json:"id"`
	ClientCode    string                      `json:"clientCode"`
	Name          string                      `json:"name"`
	Mobile        string                      `json:"mobile"`
	Email         string                      `json:"email"`
	LeftEye       *models.PrescriptionReading `json:"leftEye"`
	RightEye      *models.PrescriptionReading `json:"rightEye"`
	PupilDistance *float64                    `json:"pupilDistance"`
	FrameOption   string                      `json:"frameOption"`
	Notes         string                      `json:"notes"`
	Status        enums.RecordStatus          `json:"status"`
	CreatedAt     *time.Time                  `json:"createdAt"`
	UpdatedAt     *time.Time                  `json:"updatedAt"`
	CompletedAt   *time.Time                  `json:"completedAt"`
}

func (s *service) importJSON(ctx context.Context, content []byte) (*ImportResult, error) {
	users, err := decodeUsers(content)
	if err != nil {
		return nil, err
	}

	if err := validateImport(users); err != nil {
		return nil, err
	}

	batch := make([]models.ClientRecord, len(users))
	now := time.Now().UTC()
	for i, user := range users {
		batch[i] = user.toRecord(now)
	}

	imported, err := s.repo.ImportBatch(ctx, batch)
	if err != nil {
		return nil, err
	}
	return &ImportResult{Format: enums.ExportFormatJSON, Imported: imported}, nil
}

func decodeUsers(content []byte) ([]importRecord, error) {
	trimmed := bytes.TrimLeft(content, " \t\r\n\uFEFF")

	// The device backup path writes a bare array; the full export wraps it
	// in the versioned envelope.
	if trimmed[0] == '[' {
		var users []importRecord
		if err := json.Unmarshal(trimmed, &users); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeParse, err, "parse backup array")
		}
		return users, nil
	}

	var envelope struct {
		Users *[]importRecord `json:"users"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeParse, err, "parse backup envelope")
	}
	if envelope.Users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "backup envelope is missing the users list")
	}
	return *envelope.Users, nil
}

// validateImport applies the all-or-nothing required-field check: a single
// bad record rejects the entire import.
func validateImport(users []importRecord) error {
	var errs error
	violations := []Violation{}
	for i, user := range users {
		for _, v := range missingFields(user) {
			violations = append(violations, Violation{Index: i, Field: v})
			errs = multierr.Append(errs, fmt.Errorf("record %d: missing %s", i, v))
		}
	}
	if errs != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, errs, "backup records failed validation").
			WithDetails(violations)
	}
	return nil
}

func missingFields(user importRecord) []string {
	missing := []string{}
	if user.Name == "" {
		missing = append(missing, "name")
	}
	if user.Mobile == "" {
		missing = append(missing, "mobile")
	}
	if user.ClientCode == "" {
		missing = append(missing, "clientCode")
	}
	if user.LeftEye == nil {
		missing = append(missing, "leftEye")
	}
	if user.RightEye == nil {
		missing = append(missing, "rightEye")
	}
	return missing
}

func (u importRecord) toRecord(now time.Time) models.ClientRecord {
	record := models.ClientRecord{
		ClientCode:    u.ClientCode,
		Name:          u.Name,
		Mobile:        u.Mobile,
		Email:         u.Email,
		PupilDistance: u.PupilDistance,
		FrameOption:   u.FrameOption,
		Notes:         u.Notes,
		Status:        u.Status.Normalize(),
		CreatedAt:     now,
		UpdatedAt:     now,
		CompletedAt:   u.CompletedAt,
	}
	if u.LeftEye != nil {
		record.LeftEye = *u.LeftEye
	}
	if u.RightEye != nil {
		record.RightEye = *u.RightEye
	}

	// Records from our own exports carry their id through, so the restore
	// upserts instead of duplicating. Anything else becomes a new record.
	if id, err := uuid.Parse(u.ID); err == nil {
		record.ID = id
	}

	if u.CreatedAt != nil {
		record.CreatedAt = *u.CreatedAt
	}
	if u.UpdatedAt != nil {
		record.UpdatedAt = *u.UpdatedAt
	}
	if record.UpdatedAt.Before(record.CreatedAt) {
		record.UpdatedAt = record.CreatedAt
	}

	// completedAt is set iff the record is completed.
	if record.Status == enums.RecordStatusCompleted && record.CompletedAt == nil {
		completed := record.UpdatedAt
		record.CompletedAt = &completed
	}
	if record.Status != enums.RecordStatusCompleted {
		record.CompletedAt = nil
	}
	return record
}

// Stats reports dataset size and freshness for the settings screen.
func (s *service) Stats(ctx context.Context) (*Stats, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	serialized, err := json.Marshal(rows)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "measure dataset")
	}

	stats := &Stats{
		TotalUsers:        len(rows),
		DataSize:          len(serialized),
		DataSizeFormatted: fmt.Sprintf("%d KB", (len(serialized)+512)/1024),
	}
	for i := range rows {
		if stats.LastModified == nil || rows[i].UpdatedAt.After(*stats.LastModified) {
			ts := rows[i].UpdatedAt
			stats.LastModified = &ts
		}
	}
	return stats, nil
}
