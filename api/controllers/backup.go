package controllers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/optica/eyecare-backend/api/responses"
	"github.com/optica/eyecare-backend/internal/backup"
	"github.com/optica/eyecare-backend/internal/records"
	"github.com/optica/eyecare-backend/pkg/enums"
	pkgerrors "github.com/optica/eyecare-backend/pkg/errors"
	"github.com/optica/eyecare-backend/pkg/logger"
)

// ExportBackup streams the full dataset in the requested format as a file
// attachment. The format comes from the URL.
func ExportBackup(svc backup.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		format, err := enums.ParseExportFormat(chi.URLParam(r, "format"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid export format"))
			return
		}

		// Export into a buffer first: a midway failure must not leave a
		// half-written attachment on the wire.
		var buf bytes.Buffer
		var count int
		switch format {
		case enums.ExportFormatCSV:
			count, err = svc.ExportCSV(r.Context(), &buf)
		case enums.ExportFormatPDF:
			count, err = svc.ExportPDF(r.Context(), &buf)
		default:
			count, err = svc.ExportJSON(r.Context(), &buf)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if logg != nil {
			ctx := logg.WithFields(r.Context(), map[string]any{"format": format.String(), "records": count})
			logg.Info(ctx, "backup.exported")
		}

		name := backup.FileName(format, time.Now())
		w.Header().Set("Content-Type", format.ContentType())
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		w.WriteHeader(http.StatusOK)
		_, _ = buf.WriteTo(w)
	}
}

// ImportBackup restores records from an uploaded JSON or CSV backup. The
// format is detected from content, never from the filename.
func ImportBackup(svc backup.Service, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if maxBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		}

		result, err := svc.Import(r.Context(), r.Body)
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				err = pkgerrors.New(pkgerrors.CodeValidation, "backup file exceeds the size limit")
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if logg != nil {
			ctx := logg.WithFields(r.Context(), map[string]any{
				"format":   result.Format.String(),
				"imported": result.Imported,
				"skipped":  result.Skipped,
			})
			logg.Info(ctx, "backup.imported")
		}
		responses.WriteSuccess(w, result)
	}
}

// RecordPDF renders one record as a printable prescription.
func RecordPDF(svc records.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := recordID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		record, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var buf bytes.Buffer
		if err := backup.ExportRecordPDF(record, &buf); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("Content-Type", enums.ExportFormatPDF.ContentType())
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", record.ClientCode+".pdf"))
		w.WriteHeader(http.StatusOK)
		_, _ = buf.WriteTo(w)
	}
}

// BackupStats reports size and freshness of the stored dataset.
func BackupStats(svc backup.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}
