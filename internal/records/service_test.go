package records

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optica/eyecare-backend/pkg/db/models"
	"github.com/optica/eyecare-backend/pkg/enums"
	pkgerrors "github.com/optica/eyecare-backend/pkg/errors"
)

func setupService(t *testing.T) (Service, *Repository) {
	t.Helper()

	repo := NewRepository(setupTestClient(t))
	svc, err := NewService(repo, nil)
	require.NoError(t, err)
	return svc, repo
}

func TestServiceSave_generatesClientCode(t *testing.T) {
	svc, _ := setupService(t)

	saved, err := svc.Save(context.Background(), SaveInput{
		Name:   "Asha Mehta",
		Mobile: "9876543210",
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, saved.ID)
	assert.True(t, strings.HasPrefix(saved.ClientCode, "EC-"), "got %q", saved.ClientCode)
	assert.Equal(t, saved.ClientCode, strings.ToUpper(saved.ClientCode))
	assert.Equal(t, enums.RecordStatusActive, saved.Status)
	assert.Nil(t, saved.CompletedAt)
	assert.False(t, saved.UpdatedAt.Before(saved.CreatedAt))
}

func TestServiceSave_keepsExplicitClientCode(t *testing.T) {
	svc, _ := setupService(t)

	saved, err := svc.Save(context.Background(), SaveInput{
		Name:       "Asha Mehta",
		Mobile:     "9876543210",
		ClientCode: "  EC-CUSTOM-00001  ",
	})
	require.NoError(t, err)
	assert.Equal(t, "EC-CUSTOM-00001", saved.ClientCode)
}

func TestServiceSave_validation(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	badAxis := 181

	cases := []struct {
		name  string
		input SaveInput
	}{
		{"missing name", SaveInput{Mobile: "9876543210"}},
		{"blank name", SaveInput{Name: "   ", Mobile: "9876543210"}},
		{"missing mobile", SaveInput{Name: "Asha Mehta"}},
		{"letters in mobile", SaveInput{Name: "Asha Mehta", Mobile: "98x76"}},
		{"bad email", SaveInput{Name: "Asha Mehta", Mobile: "9876543210", Email: "not-an-email"}},
		{"axis out of range", SaveInput{Name: "Asha Mehta", Mobile: "9876543210", LeftEye: models.PrescriptionReading{Axis: &badAxis}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Save(ctx, tc.input)
			require.Error(t, err)
			assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
		})
	}
}

func TestServiceSave_mobileAllowsPunctuation(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.Save(context.Background(), SaveInput{
		Name:   "Asha Mehta",
		Mobile: "+91 (987) 654-3210",
	})
	require.NoError(t, err)
}

func TestServiceSave_editPreservesCreationStamp(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	saved, err := svc.Save(ctx, SaveInput{Name: "Asha Mehta", Mobile: "9876543210"})
	require.NoError(t, err)

	edited, err := svc.Save(ctx, SaveInput{
		ID:         saved.ID,
		ClientCode: saved.ClientCode,
		Name:       "Asha M",
		Mobile:     saved.Mobile,
	})
	require.NoError(t, err)

	assert.Equal(t, saved.ID, edited.ID)
	assert.Equal(t, "Asha M", edited.Name)
	assert.WithinDuration(t, saved.CreatedAt, edited.CreatedAt, time.Second)
	assert.False(t, edited.UpdatedAt.Before(edited.CreatedAt))
}

func TestServiceSave_editAbsentRecord(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.Save(context.Background(), SaveInput{
		ID:     uuid.New(),
		Name:   "Asha Mehta",
		Mobile: "9876543210",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestServiceSave_completedRecordIsReadOnly(t *testing.T) {
	svc, repo := setupService(t)
	ctx := context.Background()

	saved, err := svc.Save(ctx, SaveInput{Name: "Ravi Kumar", Mobile: "9123456780"})
	require.NoError(t, err)

	now := time.Now().UTC()
	saved.Status = enums.RecordStatusCompleted
	saved.CompletedAt = &now
	_, err = repo.Put(ctx, saved)
	require.NoError(t, err)

	_, err = svc.Save(ctx, SaveInput{
		ID:         saved.ID,
		ClientCode: saved.ClientCode,
		Name:       "Ravi K",
		Mobile:     saved.Mobile,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConstraint))
}

func TestServiceSave_duplicateClientCode(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Save(ctx, SaveInput{Name: "Asha Mehta", Mobile: "9876543210", ClientCode: "EC-1-AAAAA"})
	require.NoError(t, err)

	_, err = svc.Save(ctx, SaveInput{Name: "Ravi Kumar", Mobile: "9123456780", ClientCode: "EC-1-AAAAA"})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConstraint))
}

func TestServiceGet(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	saved, err := svc.Save(ctx, SaveInput{Name: "Asha Mehta", Mobile: "9876543210"})
	require.NoError(t, err)

	loaded, err := svc.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, loaded.ID)

	_, err = svc.Get(ctx, uuid.New())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	_, err = svc.Get(ctx, uuid.Nil)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestServiceGetByClientCode(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	saved, err := svc.Save(ctx, SaveInput{Name: "Asha Mehta", Mobile: "9876543210"})
	require.NoError(t, err)

	loaded, err := svc.GetByClientCode(ctx, saved.ClientCode)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, loaded.ID)

	_, err = svc.GetByClientCode(ctx, "EC-NOPE-00000")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	_, err = svc.GetByClientCode(ctx, "   ")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestServiceList_filterSearchSort(t *testing.T) {
	svc, repo := setupService(t)
	ctx := context.Background()

	asha, err := svc.Save(ctx, SaveInput{Name: "Asha Mehta", Mobile: "9876543210"})
	require.NoError(t, err)

	ravi, err := svc.Save(ctx, SaveInput{Name: "Ravi Kumar", Mobile: "9123456780"})
	require.NoError(t, err)

	completed := time.Now().UTC().Add(time.Minute)
	ravi.Status = enums.RecordStatusCompleted
	ravi.CompletedAt = &completed
	_, err = repo.Put(ctx, ravi)
	require.NoError(t, err)

	active, err := svc.List(ctx, ListParams{Status: enums.RecordStatusActive})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, asha.ID, active[0].ID)

	found, err := svc.List(ctx, ListParams{Term: "rav", Field: enums.SearchFieldAll})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, ravi.ID, found[0].ID)

	// Ravi's completion is the most recent activity.
	newest, err := svc.List(ctx, ListParams{Sort: enums.SortKeyNewest})
	require.NoError(t, err)
	require.Len(t, newest, 2)
	assert.Equal(t, ravi.ID, newest[0].ID)

	blank, err := svc.List(ctx, ListParams{Term: "   ", Field: enums.SearchFieldAll})
	require.NoError(t, err)
	assert.Empty(t, blank)
}

func TestServiceList_invalidParams(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.List(ctx, ListParams{Status: "archived"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = svc.List(ctx, ListParams{Term: "x", Field: "shoeSize"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = svc.List(ctx, ListParams{Sort: "random"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestServiceDelete(t *testing.T) {
	svc, repo := setupService(t)
	ctx := context.Background()

	saved, err := svc.Save(ctx, SaveInput{Name: "Asha Mehta", Mobile: "9876543210"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, saved.ID))
	require.NoError(t, svc.Delete(ctx, saved.ID))

	err = svc.Delete(ctx, uuid.Nil)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestServiceFrameOptions(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Save(ctx, SaveInput{Name: "Asha Mehta", Mobile: "9876543210", FrameOption: "Titanium Rimless"})
	require.NoError(t, err)
	_, err = svc.Save(ctx, SaveInput{Name: "Ravi Kumar", Mobile: "9123456780", FrameOption: "Acetate Full Rim"})
	require.NoError(t, err)
	_, err = svc.Save(ctx, SaveInput{Name: "Meera Nair", Mobile: "9000000000", FrameOption: "Titanium Rimless"})
	require.NoError(t, err)
	_, err = svc.Save(ctx, SaveInput{Name: "Vikram Shah", Mobile: "9111111111"})
	require.NoError(t, err)

	options, err := svc.FrameOptions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Acetate Full Rim", "Titanium Rimless"}, options)
}
