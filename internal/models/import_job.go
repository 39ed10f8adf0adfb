package models

import "time"

// ImportState is the lifecycle stage of a roster import run.
type ImportState string

const (
	ImportQueued     ImportState = "queued"
	ImportProcessing ImportState = "processing"
	ImportDone       ImportState = "done"
	ImportFailed     ImportState = "failed"
)

// ImportStatus is the progress artifact persisted next to each uploaded
// roster file. Clients poll it while the background worker runs.
type ImportStatus struct {
	ID         string      `json:"id,omitempty"`
	Filename   string      `json:"filename,omitempty"`
	Status     ImportState `json:"status"`
	UploadedAt *time.Time  `json:"uploaded_at,omitempty"`
	StartedAt  *time.Time  `json:"started_at,omitempty"`
	FinishedAt *time.Time  `json:"finished_at,omitempty"`
	Processed  int         `json:"processed"`
	Total      int         `json:"total"`
	Created    int         `json:"created"`
	Updated    int         `json:"updated"`
	ErrorsLog  string      `json:"errors_log,omitempty"`
	Message    string      `json:"message,omitempty"`
	Period     *int        `json:"periodo,omitempty"`
}

// Terminal reports whether the run has finished, successfully or not.
func (s *ImportStatus) Terminal() bool {
	return s.Status == ImportDone || s.Status == ImportFailed
}
