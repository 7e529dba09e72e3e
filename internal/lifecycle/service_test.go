package lifecycle

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optica/eyecare-backend/internal/records"
	"github.com/optica/eyecare-backend/pkg/config"
	"github.com/optica/eyecare-backend/pkg/db"
	"github.com/optica/eyecare-backend/pkg/db/models"
	"github.com/optica/eyecare-backend/pkg/enums"
	pkgerrors "github.com/optica/eyecare-backend/pkg/errors"
	"github.com/optica/eyecare-backend/pkg/migrate"
)

func setupLifecycle(t *testing.T) (Service, *records.Repository) {
	t.Helper()

	cfg := config.DBConfig{
		Path:        filepath.Join(t.TempDir(), "eyecare_test.db"),
		BusyTimeout: time.Second,
	}
	client, err := db.New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	sqlDB, err := client.SQLDB()
	require.NoError(t, err)
	require.NoError(t, migrate.Up(context.Background(), sqlDB))

	repo := records.NewRepository(client)
	svc, err := NewService(repo, nil)
	require.NoError(t, err)
	return svc, repo
}

func seedRecord(t *testing.T, repo *records.Repository) *models.ClientRecord {
	t.Helper()

	now := time.Now().UTC()
	saved, err := repo.Put(context.Background(), &models.ClientRecord{
		ClientCode: "EC-1-AAAAA",
		Name:       "Asha Mehta",
		Mobile:     "9876543210",
		Status:     enums.RecordStatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	require.NoError(t, err)
	return saved
}

func TestComplete(t *testing.T) {
	svc, repo := setupLifecycle(t)
	ctx := context.Background()
	saved := seedRecord(t, repo)

	completed, err := svc.Complete(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.RecordStatusCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)
	assert.False(t, completed.UpdatedAt.Before(completed.CreatedAt))

	loaded, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, enums.RecordStatusCompleted, loaded.Status)
	require.NotNil(t, loaded.CompletedAt)
}

func TestComplete_alreadyCompleted(t *testing.T) {
	svc, repo := setupLifecycle(t)
	ctx := context.Background()
	saved := seedRecord(t, repo)

	_, err := svc.Complete(ctx, saved.ID)
	require.NoError(t, err)

	_, err = svc.Complete(ctx, saved.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConstraint))
}

func TestReactivate(t *testing.T) {
	svc, repo := setupLifecycle(t)
	ctx := context.Background()
	saved := seedRecord(t, repo)

	_, err := svc.Complete(ctx, saved.ID)
	require.NoError(t, err)

	reactivated, err := svc.Reactivate(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.RecordStatusActive, reactivated.Status)
	assert.Nil(t, reactivated.CompletedAt)

	loaded, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, enums.RecordStatusActive, loaded.Status)
	assert.Nil(t, loaded.CompletedAt)
}

func TestReactivate_activeRecord(t *testing.T) {
	svc, repo := setupLifecycle(t)
	saved := seedRecord(t, repo)

	_, err := svc.Reactivate(context.Background(), saved.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConstraint))
}

func TestTransitions_missingRecord(t *testing.T) {
	svc, _ := setupLifecycle(t)
	ctx := context.Background()

	_, err := svc.Complete(ctx, uuid.New())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	_, err = svc.Reactivate(ctx, uuid.New())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	_, err = svc.Complete(ctx, uuid.Nil)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}
