// Package lifecycle enforces the active/completed state machine. Both
// transitions write through the record store's put path, so timestamps and
// uniqueness rules apply the same as any other edit.
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/optica/eyecare-backend/pkg/db/models"
	"github.com/optica/eyecare-backend/pkg/enums"
	pkgerrors "github.com/optica/eyecare-backend/pkg/errors"
	"github.com/optica/eyecare-backend/pkg/metrics"
)

type recordsRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.ClientRecord, error)
	Put(ctx context.Context, record *models.ClientRecord) (*models.ClientRecord, error)
}

// Service transitions records between the active and completed states.
type Service interface {
	Complete(ctx context.Context, id uuid.UUID) (*models.ClientRecord, error)
	Reactivate(ctx context.Context, id uuid.UUID) (*models.ClientRecord, error)
}

type service struct {
	repo    recordsRepository
	metrics *metrics.StoreMetrics
}

// NewService builds a lifecycle service over the record repository.
func NewService(repo recordsRepository, m *metrics.StoreMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("records repository required")
	}
	return &service{repo: repo, metrics: m}, nil
}

// Complete marks an active record as completed and stamps completedAt.
func (s *service) Complete(ctx context.Context, id uuid.UUID) (*models.ClientRecord, error) {
	record, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.EffectiveStatus() == enums.RecordStatusCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeConstraint, "record is already completed")
	}

	now := time.Now().UTC()
	record.Status = enums.RecordStatusCompleted
	record.CompletedAt = &now
	record.UpdatedAt = now

	saved, err := s.repo.Put(ctx, record)
	if err != nil {
		return nil, err
	}
	s.metrics.IncOperation("complete")
	return saved, nil
}

// Reactivate returns a completed record to the active pool, clearing its
// completion stamp.
func (s *service) Reactivate(ctx context.Context, id uuid.UUID) (*models.ClientRecord, error) {
	record, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.EffectiveStatus() != enums.RecordStatusCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeConstraint, "only completed records can be reactivated")
	}

	record.Status = enums.RecordStatusActive
	record.CompletedAt = nil
	record.UpdatedAt = time.Now().UTC()

	saved, err := s.repo.Put(ctx, record)
	if err != nil {
		return nil, err
	}
	s.metrics.IncOperation("reactivate")
	return saved, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.ClientRecord, error) {
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
