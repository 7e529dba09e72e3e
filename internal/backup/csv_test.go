package backup

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optica/eyecare-backend/pkg/enums"
	pkgerrors "github.com/optica/eyecare-backend/pkg/errors"
)

func TestExportCSV_layout(t *testing.T) {
	svc, repo := setupBackup(t)
	seedBackupRecord(t, repo, "Asha Mehta", "9876543210", "EC-1-AAAAA")

	var buf bytes.Buffer
	n, err := svc.ExportCSV(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	lines, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, csvHeader, lines[0])

	row := lines[1]
	require.Len(t, row, 16)
	assert.Equal(t, "EC-1-AAAAA", row[0])
	assert.Equal(t, "Asha Mehta", row[1])
	assert.Equal(t, "9876543210", row[2])
	assert.Equal(t, "-1.25", row[8]) // left eye SPH
	assert.Equal(t, "90", row[10])   // left eye AXIS
	assert.Empty(t, row[4])          // right eye SPH was never captured
	assert.NotEmpty(t, row[14])      // created date
}

func TestImportCSV(t *testing.T) {
	svc, repo := setupBackup(t)

	content := strings.Join([]string{
		"Client Code,Name,Mobile,Email,Right Eye SPH,Right Eye CYL,Right Eye AXIS,Right Eye ADD,Left Eye SPH,Left Eye CYL,Left Eye AXIS,Left Eye ADD,Pupil Distance,Notes,Created Date,Updated Date",
		"EC-1-AAAAA,Kim Lee,5551234567,kim@example.com,-0.5,,,,-1.25,-0.75,90,1.5,62,progressive lenses,,",
		"short,row", // below six columns, skipped
		"EC-1-BBBBB,,5550000000,,,,,,,,,,,,,", // missing name, skipped
		",No Code,5559876543,,,,,,,,,,,,,",    // blank code gets generated
	}, "\n")

	result, err := svc.Import(context.Background(), bytes.NewBufferString(content))
	require.NoError(t, err)
	assert.Equal(t, enums.ExportFormatCSV, result.Format)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 2, result.Skipped)

	kim, err := repo.FindByClientCode(context.Background(), "EC-1-AAAAA")
	require.NoError(t, err)
	require.NotNil(t, kim)
	assert.Equal(t, "Kim Lee", kim.Name)
	assert.Equal(t, "kim@example.com", kim.Email)
	require.NotNil(t, kim.RightEye.Spherical)
	assert.Equal(t, -0.5, *kim.RightEye.Spherical)
	require.NotNil(t, kim.LeftEye.Axis)
	assert.Equal(t, 90, *kim.LeftEye.Axis)
	require.NotNil(t, kim.PupilDistance)
	assert.Equal(t, 62.0, *kim.PupilDistance)
	assert.Equal(t, "progressive lenses", kim.Notes)
	assert.Equal(t, enums.RecordStatusActive, kim.Status)
	assert.False(t, kim.CreatedAt.IsZero())

	rows, err := repo.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.NotEmpty(t, row.ClientCode)
	}
}

func TestImportCSV_roundTrip(t *testing.T) {
	source, sourceRepo := setupBackup(t)
	asha := seedBackupRecord(t, sourceRepo, "Asha Mehta", "9876543210", "EC-1-AAAAA")
	seedBackupRecord(t, sourceRepo, "Ravi Kumar", "9123456780", "EC-1-BBBBB")

	// Embedded commas in free text must survive the CSV trip.
	asha.Notes = "prefers titanium, rimless"
	_, err := sourceRepo.Put(context.Background(), asha)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = source.ExportCSV(context.Background(), &buf)
	require.NoError(t, err)

	target, targetRepo := setupBackup(t)
	result, err := target.Import(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, enums.ExportFormatCSV, result.Format)
	assert.Equal(t, 2, result.Imported)

	loaded, err := targetRepo.FindByClientCode(context.Background(), "EC-1-AAAAA")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "Asha Mehta", loaded.Name)
	assert.Equal(t, "prefers titanium, rimless", loaded.Notes)
	require.NotNil(t, loaded.LeftEye.Spherical)
	assert.Equal(t, -1.25, *loaded.LeftEye.Spherical)
}

func TestImportCSV_headerOnly(t *testing.T) {
	svc, _ := setupBackup(t)

	_, err := svc.Import(context.Background(), bytes.NewBufferString("Client Code,Name,Mobile\n"))
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeParse))
}

func TestImportCSV_noValidRows(t *testing.T) {
	svc, repo := setupBackup(t)

	content := "Client Code,Name,Mobile,Email,R SPH,R CYL\nEC-1-AAAAA,,5550000000,,,\n"
	_, err := svc.Import(context.Background(), bytes.NewBufferString(content))
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
