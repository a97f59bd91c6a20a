package storage

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"atelier/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildMultipart assembles a multipart request body with one file per entry.
func buildMultipart(t *testing.T, field string, files map[string]string) []*multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := w.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = io.Copy(part, strings.NewReader(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))

	return req.MultipartForm.File[field]
}

func TestStore_SaveBatch(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	headers := buildMultipart(t, "files", map[string]string{
		"brief.pdf":  "pdf bytes",
		"assets.zip": "zip bytes",
	})

	stored, err := store.SaveBatch("files", headers)
	require.NoError(t, err)
	require.Len(t, stored, 2)

	for _, sf := range stored {
		assert.True(t, strings.HasPrefix(sf.StoredName, "files-"))
		assert.NotEqual(t, sf.OriginalName, sf.StoredName)

		data, err := os.ReadFile(sf.Path)
		require.NoError(t, err)
		assert.NotEmpty(t, data)
	}
}

func TestStore_SaveBatch_RejectsBadExtension(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	headers := buildMultipart(t, "files", map[string]string{
		"payload.exe": "nope",
	})

	stored, err := store.SaveBatch("files", headers)
	assert.Nil(t, stored)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestValidateBatch_TooManyFiles(t *testing.T) {
	files := map[string]string{}
	for _, n := range []string{"a.txt", "b.txt", "c.txt", "d.txt", "e.txt", "f.txt"} {
		files[n] = "x"
	}
	headers := buildMultipart(t, "files", files)

	err := ValidateBatch(headers)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestValidateBatch_CaseInsensitiveExtension(t *testing.T) {
	headers := buildMultipart(t, "files", map[string]string{
		"README.MD": "uppercase extension",
	})
	assert.NoError(t, ValidateBatch(headers))
}

func TestStore_RemoveAndHealthy(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	assert.True(t, store.Healthy())

	path := filepath.Join(dir, "junk.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	store.Remove(path, "", filepath.Join(dir, "never-existed.txt"))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
