package records

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/optica/eyecare-backend/internal/query"
	"github.com/optica/eyecare-backend/pkg/clientcode"
	"github.com/optica/eyecare-backend/pkg/db/models"
	"github.com/optica/eyecare-backend/pkg/enums"
	pkgerrors "github.com/optica/eyecare-backend/pkg/errors"
	"github.com/optica/eyecare-backend/pkg/metrics"
)

type recordsRepository interface {
	Put(ctx context.Context, record *models.ClientRecord) (*models.ClientRecord, error)
	GetAll(ctx context.Context) ([]models.ClientRecord, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.ClientRecord, error)
	FindByClientCode(ctx context.Context, code string) (*models.ClientRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Clear(ctx context.Context) error
}

// Service exposes record creation, editing, listing, and deletion semantics.
type Service interface {
	Save(ctx context.Context, input SaveInput) (*models.ClientRecord, error)
	Get(ctx context.Context, id uuid.UUID) (*models.ClientRecord, error)
	GetByClientCode(ctx context.Context, code string) (*models.ClientRecord, error)
	List(ctx context.Context, params ListParams) ([]models.ClientRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ClearAll(ctx context.Context) error
	FrameOptions(ctx context.Context) ([]string, error)
}

// SaveInput holds the caller-editable fields of a record. A zero ID creates;
// a set ID edits in place.
type SaveInput struct {
	ID            uuid.UUID
	ClientCode    string
	Name          string
	Mobile        string
	Email         string
	LeftEye       models.PrescriptionReading
	RightEye      models.PrescriptionReading
	PupilDistance *float64
	FrameOption   string
	Notes         string
}

// ListParams narrows and orders the listing. Zero values mean "no status
// filter, no search, name order".
type ListParams struct {
	Status enums.RecordStatus
	Term   string
	Field  enums.SearchField
	Sort   enums.SortKey
}

type service struct {
	repo    recordsRepository
	metrics *metrics.StoreMetrics
}

var (
	emailShape  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	mobileShape = regexp.MustCompile(`^\+?[\d\s\-()]+$`)
)

// NewService builds a record service backed by the provided repository.
func NewService(repo recordsRepository, m *metrics.StoreMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("records repository required")
	}
	return &service{repo: repo, metrics: m}, nil
}

func (s *service) Save(ctx context.Context, input SaveInput) (*models.ClientRecord, error) {
	if err := validateInput(&input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	record := models.ClientRecord{
		ID:            input.ID,
		ClientCode:    input.ClientCode,
		Name:          input.Name,
		Mobile:        input.Mobile,
		Email:         input.Email,
		LeftEye:       input.LeftEye,
		RightEye:      input.RightEye,
		PupilDistance: input.PupilDistance,
		FrameOption:   strings.TrimSpace(input.FrameOption),
		Notes:         input.Notes,
		Status:        enums.RecordStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if input.ID != uuid.Nil {
		existing, err := s.repo.FindByID(ctx, input.ID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "record not found")
		}
		if existing.EffectiveStatus() == enums.RecordStatusCompleted {
			return nil, pkgerrors.New(pkgerrors.CodeConstraint, "completed records are read-only; reactivate first")
		}
		// Edits never touch the lifecycle fields or the creation stamp.
		record.Status = existing.EffectiveStatus()
		record.CompletedAt = existing.CompletedAt
		record.CreatedAt = existing.CreatedAt
	}

	if record.ClientCode == "" {
		record.ClientCode = clientcode.Generate()
	}

	saved, err := s.repo.Put(ctx, &record)
	if err != nil {
		s.metrics.IncFailure("save")
		return nil, err
	}
	s.metrics.IncOperation("save")
	return saved, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.ClientRecord, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "record id is required")
	}
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "record not found")
	}
	return record, nil
}

func (s *service) GetByClientCode(ctx context.Context, code string) (*models.ClientRecord, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client code is required")
	}
	record, err := s.repo.FindByClientCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "record not found")
	}
	return record, nil
}

func (s *service) List(ctx context.Context, params ListParams) ([]models.ClientRecord, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	if params.Status != "" {
		if !params.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
		}
		rows = query.FilterByStatus(rows, params.Status)
	}
	if params.Term != "" || params.Field != "" {
		field := params.Field
		if field == "" {
			field = enums.SearchFieldAll
		}
		if !field.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid search field")
		}
		rows = query.Search(rows, params.Term, field)
	}
	if params.Sort != "" {
		if !params.Sort.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid sort key")
		}
		rows = query.Sort(rows, params.Sort)
	}
	return rows, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "record id is required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.metrics.IncFailure("delete")
		return err
	}
	s.metrics.IncOperation("delete")
	return nil
}

func (s *service) ClearAll(ctx context.Context) error {
	if err := s.repo.Clear(ctx); err != nil {
		s.metrics.IncFailure("clear")
		return err
	}
	s.metrics.IncOperation("clear")
	return nil
}

func (s *service) FrameOptions(ctx context.Context) ([]string, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return query.DistinctFrameOptions(rows), nil
}

func validateInput(input *SaveInput) error {
	input.ClientCode = strings.TrimSpace(input.ClientCode)
	input.Name = strings.TrimSpace(input.Name)
	input.Mobile = strings.TrimSpace(input.Mobile)
	input.Email = strings.TrimSpace(input.Email)

	if input.Name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.Mobile == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "mobile is required")
	}
	if !mobileShape.MatchString(input.Mobile) {
		return pkgerrors.New(pkgerrors.CodeValidation, "mobile must contain only digits, spaces, and punctuation")
	}
	if input.Email != "" && !emailShape.MatchString(input.Email) {
		return pkgerrors.New(pkgerrors.CodeValidation, "email must be a valid address")
	}
	if err := validateReading("leftEye", input.LeftEye); err != nil {
		return err
	}
	if err := validateReading("rightEye", input.RightEye); err != nil {
		return err
	}
	return nil
}

func validateReading(field string, reading models.PrescriptionReading) error {
	if reading.Axis != nil && (*reading.Axis < 1 || *reading.Axis > 180) {
		return pkgerrors.New(pkgerrors.CodeValidation, field+".axis must be between 1 and 180")
	}
	return nil
}
