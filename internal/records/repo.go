package records

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/optica/eyecare-backend/pkg/collate"
	"github.com/optica/eyecare-backend/pkg/db"
	"github.com/optica/eyecare-backend/pkg/db/models"
	pkgerrors "github.com/optica/eyecare-backend/pkg/errors"
	"gorm.io/gorm"
)

// Repository exposes client record persistence operations. All writes funnel
// through Put so the clientCode uniqueness rule holds on every path.
type Repository struct {
	client *db.Client
}

// NewRepository constructs a record repository tied to the provided client.
func NewRepository(client *db.Client) *Repository {
	return &Repository{client: client}
}

// Put inserts or overwrites a record keyed by id. A missing id is assigned
// here. Fails with CONSTRAINT_VIOLATION when a different record already
// holds the clientCode; the write is persisted before Put returns.
func (r *Repository) Put(ctx context.Context, record *models.ClientRecord) (*models.ClientRecord, error) {
	return putIn(r.client.DB().WithContext(ctx), record)
}

func putIn(tx *gorm.DB, record *models.ClientRecord) (*models.ClientRecord, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.Status = record.Status.Normalize()

	var holder models.ClientRecord
	err := tx.Where("client_code = ? AND id <> ?", record.ClientCode, record.ID).
		Take(&holder).Error
	switch {
	case err == nil:
		return nil, pkgerrors.New(pkgerrors.CodeConstraint, "client code already in use").
			WithDetails(map[string]string{"clientCode": record.ClientCode, "heldBy": holder.ID.String()})
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, storageError(err, "check client code")
	}

	if err := tx.Save(record).Error; err != nil {
		// The unique index is the backstop for writes racing the check above.
		if db.IsUniqueViolation(err, "client_code") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConstraint, err, "client code already in use")
		}
		return nil, storageError(err, "save record")
	}
	return record, nil
}

// GetAll returns a snapshot of every record ordered by name ascending under
// locale collation. Later store mutations do not affect the returned slice.
func (r *Repository) GetAll(ctx context.Context) ([]models.ClientRecord, error) {
	var rows []models.ClientRecord
	if err := r.client.DB().WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, storageError(err, "load records")
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return collate.Less(rows[i].Name, rows[j].Name)
	})
	return rows, nil
}

// FindByID returns the record or (nil, nil) when absent.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ClientRecord, error) {
	var row models.ClientRecord
	err := r.client.DB().WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageError(err, "load record")
	}
	return &row, nil
}

// FindByClientCode returns the record holding the code or (nil, nil) when absent.
func (r *Repository) FindByClientCode(ctx context.Context, code string) (*models.ClientRecord, error) {
	var row models.ClientRecord
	err := r.client.DB().WithContext(ctx).Where("client_code = ?", code).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageError(err, "load record by client code")
	}
	return &row, nil
}

// Delete removes the record permanently. Deleting an absent id is a no-op.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.client.DB().WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.ClientRecord{}).Error
	if err != nil {
		return storageError(err, "delete record")
	}
	return nil
}

// Clear removes every record. Irreversible.
func (r *Repository) Clear(ctx context.Context) error {
	err := r.client.DB().WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.ClientRecord{}).Error
	if err != nil {
		return storageError(err, "clear records")
	}
	return nil
}

// ImportBatch applies Put for each record in input order inside one
// transaction: a failure anywhere rolls the whole batch back.
func (r *Repository) ImportBatch(ctx context.Context, batch []models.ClientRecord) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}
	err := r.client.WithTx(ctx, func(tx *gorm.DB) error {
		for i := range batch {
			if _, err := putIn(tx, &batch[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(batch), nil
}

// Count returns the number of live records.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.client.DB().WithContext(ctx).Model(&models.ClientRecord{}).Count(&n).Error; err != nil {
		return 0, storageError(err, "count records")
	}
	return n, nil
}

func storageError(err error, message string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeStorage, err, message)
}
