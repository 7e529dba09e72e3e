package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/optica/eyecare-backend/api/responses"
	"github.com/optica/eyecare-backend/api/validators"
	"github.com/optica/eyecare-backend/internal/records"
	"github.com/optica/eyecare-backend/pkg/db/models"
	"github.com/optica/eyecare-backend/pkg/enums"
	pkgerrors "github.com/optica/eyecare-backend/pkg/errors"
	"github.com/optica/eyecare-backend/pkg/logger"
)

type eyeRequest struct {
	Spherical   *float64 `json:"spherical"`
	Cylindrical *float64 `json:"cylindrical"`
	Axis        *int     `json:"axis" validate:"omitempty,min=1,max=180"`
	AddPower    *float64 `json:"addPower"`
}

func (e eyeRequest) reading() models.PrescriptionReading {
	return models.PrescriptionReading{
		Spherical:   e.Spherical,
		Cylindrical: e.Cylindrical,
		Axis:        e.Axis,
		AddPower:    e.AddPower,
	}
}

type saveRecordRequest struct {
	ClientCode    string     `json:"clientCode" validate:"omitempty,max=64"`
	Name          string     `json:"name" validate:"required,max=200"`
	Mobile        string     `json:"mobile" validate:"required,max=32"`
	Email         string     `json:"email" validate:"omitempty,email"`
	LeftEye       eyeRequest `json:"leftEye"`
	RightEye      eyeRequest `json:"rightEye"`
	PupilDistance *float64   `json:"pupilDistance" validate:"omitempty,gt=0"`
	FrameOption   string     `json:"frameOption" validate:"max=200"`
	Notes         string     `json:"notes" validate:"max=2000"`
}

func (req saveRecordRequest) input(id uuid.UUID) records.SaveInput {
	return records.SaveInput{
		ID:            id,
		ClientCode:    req.ClientCode,
		Name:          req.Name,
		Mobile:        req.Mobile,
		Email:         req.Email,
		LeftEye:       req.LeftEye.reading(),
		RightEye:      req.RightEye.reading(),
		PupilDistance: req.PupilDistance,
		FrameOption:   req.FrameOption,
		Notes:         req.Notes,
	}
}

// ListRecords returns the filtered, searched, and sorted record snapshot.
func ListRecords(svc records.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := records.ListParams{
			Term: r.URL.Query().Get("term"),
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseRecordStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			params.Status = status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("field")); raw != "" {
			field, err := enums.ParseSearchField(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid search field"))
				return
			}
			params.Field = field
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("sort")); raw != "" {
			sortKey, err := enums.ParseSortKey(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sort key"))
				return
			}
			params.Sort = sortKey
		}

		rows, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// GetRecord returns one record by id.
func GetRecord(svc records.Service, logg *logger.Logger) http.HandlerFunc {
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
		responses.WriteSuccess(w, record)
	}
}

// GetRecordByClientCode looks a record up by its human-facing code.
func GetRecordByClientCode(svc records.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		record, err := svc.GetByClientCode(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

// CreateRecord stores a new record.
func CreateRecord(svc records.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req saveRecordRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Save(r.Context(), req.input(uuid.Nil))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if logg != nil {
			ctx := logg.WithRecordID(r.Context(), record.ID.String())
			ctx = logg.WithClientCode(ctx, record.ClientCode)
			logg.Info(ctx, "record.created")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, record)
	}
}

// UpdateRecord overwrites an existing record in place.
func UpdateRecord(svc records.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := recordID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req saveRecordRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Save(r.Context(), req.input(id))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

// DeleteRecord removes a record permanently. Deleting an absent id succeeds.
func DeleteRecord(svc records.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := recordID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

// ClearRecords wipes the entire store.
func ClearRecords(svc records.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.ClearAll(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"cleared": true})
	}
}

// FrameOptions lists the distinct non-empty frame options for UI filters.
func FrameOptions(svc records.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		options, err := svc.FrameOptions(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, options)
	}
}

func recordID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid record id")
	}
	return id, nil
}
