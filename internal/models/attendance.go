package models

import "time"

// AttendanceStatus classifies one student's presence for a school day.
type AttendanceStatus string

const (
	// AttendanceOnTime marks a scan at or before the late threshold.
	AttendanceOnTime AttendanceStatus = "on_time"
	// AttendanceLate marks a scan after the threshold but within the day.
	AttendanceLate AttendanceStatus = "late"
	// AttendanceAbsent marks a student with no scan for the day.
	AttendanceAbsent AttendanceStatus = "absent"
)

// Valid reports whether the status is one of the known values.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceOnTime, AttendanceLate, AttendanceAbsent:
		return true
	}
	return false
}

// AttendanceRecord stores at most one row per student per calendar day.
// Time is the wall-clock moment of the scan formatted as HH:MM:SS.
type AttendanceRecord struct {
	ID        string           `db:"id" json:"id"`
	StudentID string           `db:"student_id" json:"student_id"`
	Date      time.Time        `db:"date" json:"date"`
	Time      string           `db:"time" json:"time"`
	Status    AttendanceStatus `db:"status" json:"status"`
	Note      *string          `db:"note" json:"note,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

// AttendanceRecordDetail joins a record with student and classroom names.
type AttendanceRecordDetail struct {
	AttendanceRecord
	StudentName string `db:"student_name" json:"student_name"`
	NationalID  string `db:"national_id" json:"national_id"`
	GradeName   string `db:"grade_name" json:"grade_name"`
	SectionName string `db:"section_name" json:"section_name"`
}

// AttendanceFilter narrows attendance listings and summaries.
type AttendanceFilter struct {
	DateFrom  *time.Time
	DateTo    *time.Time
	GradeID   string
	SectionID string
	StudentID string
	Status    AttendanceStatus
	Period    int
	Page      int
	PageSize  int
}

// AttendanceSummary aggregates record counts per status.
type AttendanceSummary struct {
	OnTime int `db:"on_time" json:"on_time"`
	Late   int `db:"late" json:"late"`
	Absent int `db:"absent" json:"absent"`
	Total  int `db:"total" json:"total"`
}

// SweepResult reports the outcome of an absence sweep run.
type SweepResult struct {
	Date     string `json:"date"`
	Reviewed int    `json:"reviewed"`
	Marked   int    `json:"marked"`
}
