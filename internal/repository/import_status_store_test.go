package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/qr-attendance-api/internal/models"
	"github.com/noah-isme/qr-attendance-api/pkg/storage"
)

func newStatusStore(t *testing.T) *ImportStatusStore {
	t.Helper()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return NewImportStatusStore(files)
}

func TestImportStatusRoundTrip(t *testing.T) {
	store := newStatusStore(t)

	written := &models.ImportStatus{
		ID:        "import_abc.csv",
		Status:    models.ImportProcessing,
		Processed: 12,
		Total:     40,
	}
	require.NoError(t, store.Write("import_abc.csv", written))

	read, err := store.Read("import_abc.csv")
	require.NoError(t, err)
	require.NotNil(t, read)
	assert.Equal(t, models.ImportProcessing, read.Status)
	assert.Equal(t, 12, read.Processed)
	assert.Equal(t, 40, read.Total)
}

func TestImportStatusOverwrite(t *testing.T) {
	store := newStatusStore(t)
	require.NoError(t, store.Write("import_abc.csv", &models.ImportStatus{Status: models.ImportQueued}))
	require.NoError(t, store.Write("import_abc.csv", &models.ImportStatus{Status: models.ImportDone, Processed: 3}))

	read, err := store.Read("import_abc.csv")
	require.NoError(t, err)
	assert.Equal(t, models.ImportDone, read.Status)
	assert.Equal(t, 3, read.Processed)
}

func TestImportStatusMissingReadsNil(t *testing.T) {
	store := newStatusStore(t)
	read, err := store.Read("import_missing.csv")
	require.NoError(t, err)
	assert.Nil(t, read)
}

func TestImportStatusDelete(t *testing.T) {
	store := newStatusStore(t)
	require.NoError(t, store.Write("import_abc.csv", &models.ImportStatus{Status: models.ImportDone}))
	require.NoError(t, store.Delete("import_abc.csv"))

	read, err := store.Read("import_abc.csv")
	require.NoError(t, err)
	assert.Nil(t, read)
}
