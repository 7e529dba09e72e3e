package backup

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/optica/eyecare-backend/pkg/db/models"
	"github.com/optica/eyecare-backend/pkg/enums"
	pkgerrors "github.com/optica/eyecare-backend/pkg/errors"
)

// ExportPDF renders the full snapshot as a printable prescription report and
// returns the number of records rendered.
func (s *service) ExportPDF(ctx context.Context, w io.Writer) (int, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		return 0, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "EyeCare Client Records")
	pdf.Ln(10)

	pdf.SetFont("Arial", "I", 8)
	pdf.Cell(0, 5, fmt.Sprintf("Generated: %s | Records: %d",
		time.Now().UTC().Format("2006-01-02 15:04:05"), len(rows)))
	pdf.Ln(10)

	for i := range rows {
		writeRecordBlock(pdf, &rows[i])
	}

	if err := pdf.Output(w); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render pdf")
	}
	s.metrics.IncExport(enums.ExportFormatPDF.String())
	return len(rows), nil
}

// ExportRecordPDF renders a single record, used for handing a printed
// prescription to the client.
func ExportRecordPDF(record *models.ClientRecord, w io.Writer) error {
	if record == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "record is required")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "Prescription")
	pdf.Ln(12)

	writeRecordBlock(pdf, record)

	if err := pdf.Output(w); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render pdf")
	}
	return nil
}

func writeRecordBlock(pdf *gofpdf.Fpdf, record *models.ClientRecord) {
	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 7, fmt.Sprintf("%s  (%s)", record.Name, record.ClientCode))
	pdf.Ln(6)

	pdf.SetFont("Arial", "", 9)
	contact := "Mobile: " + record.Mobile
	if record.Email != "" {
		contact += " | Email: " + record.Email
	}
	if record.EffectiveStatus() == enums.RecordStatusCompleted {
		contact += " | COMPLETED"
	}
	pdf.Cell(0, 5, contact)
	pdf.Ln(6)

	if record.LeftEye.IsEmpty() && record.RightEye.IsEmpty() {
		pdf.SetFont("Arial", "I", 9)
		pdf.Cell(0, 5, "No prescription recorded")
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 9)
	} else {
		headers := []string{"Eye", "SPH", "CYL", "AXIS", "ADD"}
		colWidth := 24.0

		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for _, h := range headers {
			pdf.CellFormat(colWidth, 6, h, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 9)
		writeEyeRow(pdf, colWidth, "Right", record.RightEye)
		writeEyeRow(pdf, colWidth, "Left", record.LeftEye)
	}

	extras := ""
	if record.PupilDistance != nil {
		extras = fmt.Sprintf("PD: %.1f mm", *record.PupilDistance)
	}
	if record.FrameOption != "" {
		if extras != "" {
			extras += " | "
		}
		extras += "Frame: " + record.FrameOption
	}
	if extras != "" {
		pdf.Cell(0, 5, extras)
		pdf.Ln(5)
	}
	if record.Notes != "" {
		pdf.MultiCell(0, 5, "Notes: "+record.Notes, "", "", false)
	}
	pdf.Ln(4)
}

func writeEyeRow(pdf *gofpdf.Fpdf, colWidth float64, label string, eye models.PrescriptionReading) {
	pdf.CellFormat(colWidth, 6, label, "1", 0, "L", false, 0, "")
	pdf.CellFormat(colWidth, 6, formatFloat(eye.Spherical), "1", 0, "C", false, 0, "")
	pdf.CellFormat(colWidth, 6, formatFloat(eye.Cylindrical), "1", 0, "C", false, 0, "")
	pdf.CellFormat(colWidth, 6, formatInt(eye.Axis), "1", 0, "C", false, 0, "")
	pdf.CellFormat(colWidth, 6, formatFloat(eye.AddPower), "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
}
