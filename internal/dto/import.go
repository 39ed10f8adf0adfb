package dto

import "github.com/noah-isme/qr-attendance-api/internal/models"

// ImportTriggered acknowledges an accepted roster upload.
type ImportTriggered struct {
	ID     string             `json:"id"`
	Status models.ImportState `json:"status"`
}

// UploadInfo pairs a stored roster file with its latest status artifact.
type UploadInfo struct {
	Name   string               `json:"name"`
	Status *models.ImportStatus `json:"status,omitempty"`
}

// RollbackRequest names a past upload whose created students should be
// removed. DryRun previews candidates without deleting.
type RollbackRequest struct {
	Filename string `json:"filename" validate:"required"`
	DryRun   bool   `json:"dry_run"`
}

// RollbackCandidate is one student eligible for rollback deletion.
type RollbackCandidate struct {
	NationalID  string `json:"national_id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	GradeName   string `json:"grade_name"`
	SectionName string `json:"section_name"`
}

// RollbackResult reports what a rollback run did or would do.
type RollbackResult struct {
	Candidates []RollbackCandidate `json:"candidates"`
	Deleted    int                 `json:"deleted"`
	DryRun     bool                `json:"dry_run"`
}
