package backup

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/optica/eyecare-backend/pkg/clientcode"
	"github.com/optica/eyecare-backend/pkg/db/models"
	"github.com/optica/eyecare-backend/pkg/enums"
	pkgerrors "github.com/optica/eyecare-backend/pkg/errors"
)

// csvHeader fixes the 16-column layout of the flat export.
var csvHeader = []string{
	"Client Code",
	"Name",
	"Mobile",
	"Email",
	"Right Eye SPH",
	"Right Eye CYL",
	"Right Eye AXIS",
	"Right Eye ADD",
	"Left Eye SPH",
	"Left Eye CYL",
	"Left Eye AXIS",
	"Left Eye ADD",
	"Pupil Distance",
	"Notes",
	"Created Date",
	"Updated Date",
}

// ExportCSV flattens the full snapshot into the fixed column layout and
// returns the number of records exported.
func (s *service) ExportCSV(ctx context.Context, w io.Writer) (int, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		return 0, err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write csv header")
	}
	for i := range rows {
		if err := writer.Write(csvRow(&rows[i])); err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write csv row")
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "flush csv")
	}
	s.metrics.IncExport(enums.ExportFormatCSV.String())
	return len(rows), nil
}

func csvRow(r *models.ClientRecord) []string {
	return []string{
		r.ClientCode,
		r.Name,
		r.Mobile,
		r.Email,
		formatFloat(r.RightEye.Spherical),
		formatFloat(r.RightEye.Cylindrical),
		formatInt(r.RightEye.Axis),
		formatFloat(r.RightEye.AddPower),
		formatFloat(r.LeftEye.Spherical),
		formatFloat(r.LeftEye.Cylindrical),
		formatInt(r.LeftEye.Axis),
		formatFloat(r.LeftEye.AddPower),
		formatFloat(r.PupilDistance),
		r.Notes,
		r.CreatedAt.UTC().Format(time.RFC3339),
		r.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// importCSV turns flat rows back into records. Rows below six columns or
// missing name/mobile are skipped, not rejected; surviving rows enter the
// store as fresh records.
func (s *service) importCSV(ctx context.Context, content []byte) (*ImportResult, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	lines, err := reader.ReadAll()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeParse, err, "parse csv")
	}
	if len(lines) < 2 {
		return nil, pkgerrors.New(pkgerrors.CodeParse, "csv file has no data rows")
	}

	// Line 1 is the header; its content is not checked.
	now := time.Now().UTC()
	batch := []models.ClientRecord{}
	skipped := 0
	for _, cols := range lines[1:] {
		record, ok := csvRecord(cols, now)
		if !ok {
			skipped++
			continue
		}
		batch = append(batch, record)
	}

	if len(batch) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no valid records found in csv")
	}

	imported, err := s.repo.ImportBatch(ctx, batch)
	if err != nil {
		return nil, err
	}
	return &ImportResult{Format: enums.ExportFormatCSV, Imported: imported, Skipped: skipped}, nil
}

func csvRecord(cols []string, now time.Time) (models.ClientRecord, bool) {
	if len(cols) < 6 {
		return models.ClientRecord{}, false
	}
	for i := range cols {
		cols[i] = strings.TrimSpace(cols[i])
	}

	record := models.ClientRecord{
		ClientCode: cols[0],
		Name:       cols[1],
		Mobile:     cols[2],
		Email:      col(cols, 3),
		RightEye: models.PrescriptionReading{
			Spherical:   parseFloat(col(cols, 4)),
			Cylindrical: parseFloat(col(cols, 5)),
			Axis:        parseInt(col(cols, 6)),
			AddPower:    parseFloat(col(cols, 7)),
		},
		LeftEye: models.PrescriptionReading{
			Spherical:   parseFloat(col(cols, 8)),
			Cylindrical: parseFloat(col(cols, 9)),
			Axis:        parseInt(col(cols, 10)),
			AddPower:    parseFloat(col(cols, 11)),
		},
		PupilDistance: parseFloat(col(cols, 12)),
		Notes:         col(cols, 13),
		Status:        enums.RecordStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if record.Name == "" || record.Mobile == "" {
		return models.ClientRecord{}, false
	}
	if record.ClientCode == "" {
		record.ClientCode = clientcode.Generate()
	}
	return record, true
}

func col(cols []string, i int) string {
	if i < len(cols) {
		return cols[i]
	}
	return ""
}

func parseFloat(value string) *float64 {
	if value == "" {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseInt(value string) *int {
	if value == "" {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return nil
	}
	return &n
}

func formatFloat(value *float64) string {
	if value == nil {
		return ""
	}
	return strconv.FormatFloat(*value, 'f', -1, 64)
}

func formatInt(value *int) string {
	if value == nil {
		return ""
	}
	return strconv.Itoa(*value)
}
