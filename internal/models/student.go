package models

import (
	"strings"
	"time"
)

// Student is an enrolled pupil. QRCode carries the payload printed on the
// student's credential; by default it equals the national ID.
type Student struct {
	ID               string     `db:"id" json:"id"`
	NationalID       string     `db:"national_id" json:"national_id"`
	FirstName        string     `db:"first_name" json:"first_name"`
	LastName         string     `db:"last_name" json:"last_name"`
	BirthDate        *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	QRCode           string     `db:"qr_code" json:"qr_code"`
	GradeID          string     `db:"grade_id" json:"grade_id"`
	SectionID        string     `db:"section_id" json:"section_id"`
	GuardianID       *string    `db:"guardian_id" json:"guardian_id,omitempty"`
	Period           int        `db:"period" json:"period"`
	InternalCode     *string    `db:"internal_code" json:"internal_code,omitempty"`
	EnrollmentStatus *string    `db:"enrollment_status" json:"enrollment_status,omitempty"`
	Notes            *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// DisplayName returns "FirstName LastName" with surrounding space trimmed.
func (s *Student) DisplayName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// StudentDetail joins a student with its grade, section and guardian names.
type StudentDetail struct {
	Student
	GradeName    string  `db:"grade_name" json:"grade_name"`
	SectionName  string  `db:"section_name" json:"section_name"`
	GuardianName *string `db:"guardian_name" json:"guardian_name,omitempty"`
}

// HasPlaceholderAssignment reports whether the student still carries the
// placeholder grade or section created during bulk import.
func (s *StudentDetail) HasPlaceholderAssignment() bool {
	return s.GradeName == PlaceholderGradeName || s.SectionName == PlaceholderSectionName
}

// StudentFilter narrows student listings.
type StudentFilter struct {
	GradeID   string
	SectionID string
	Period    int
	Search    string
	Page      int
	PageSize  int
}
