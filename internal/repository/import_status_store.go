package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/noah-isme/qr-attendance-api/internal/models"
	"github.com/noah-isme/qr-attendance-api/pkg/storage"
)

// statusSuffix is appended to the upload name to form the status artifact.
const statusSuffix = ".status.json"

// ImportStatusStore persists import progress as a JSON file next to each
// uploaded roster, so status survives restarts and polling never needs the
// database. Writes go through an atomic replace so pollers never observe a
// torn document.
type ImportStatusStore struct {
	files *storage.LocalStorage
}

// NewImportStatusStore builds a store over the uploads directory.
func NewImportStatusStore(files *storage.LocalStorage) *ImportStatusStore {
	return &ImportStatusStore{files: files}
}

// Write replaces the status document for one upload.
func (s *ImportStatusStore) Write(uploadName string, status *models.ImportStatus) error {
	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("encode import status: %w", err)
	}
	if err := s.files.Replace(uploadName+statusSuffix, data); err != nil {
		return fmt.Errorf("write import status: %w", err)
	}
	return nil
}

// Read loads the status document for one upload, or nil when absent.
func (s *ImportStatusStore) Read(uploadName string) (*models.ImportStatus, error) {
	data, err := s.files.Read(uploadName + statusSuffix)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var status models.ImportStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("decode import status: %w", err)
	}
	return &status, nil
}

// Delete removes the status document for one upload.
func (s *ImportStatusStore) Delete(uploadName string) error {
	return s.files.Delete(uploadName + statusSuffix)
}
