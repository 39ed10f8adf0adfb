package dto

// CreateStudentRequest registers one student manually.
type CreateStudentRequest struct {
	NationalID       string  `json:"national_id" validate:"required,min=6,max=20"`
	FirstName        string  `json:"first_name" validate:"required"`
	LastName         string  `json:"last_name" validate:"required"`
	BirthDate        string  `json:"birth_date,omitempty"`
	QRCode           string  `json:"qr_code,omitempty"`
	GradeID          string  `json:"grade_id" validate:"required,uuid"`
	SectionID        string  `json:"section_id" validate:"required,uuid"`
	GuardianID       *string `json:"guardian_id,omitempty"`
	Period           int     `json:"period,omitempty"`
	InternalCode     *string `json:"internal_code,omitempty"`
	EnrollmentStatus *string `json:"enrollment_status,omitempty"`
	Notes            *string `json:"notes,omitempty"`
}

// UpdateStudentRequest mutates selected student fields. Nil pointers keep
// the stored value.
type UpdateStudentRequest struct {
	FirstName        *string `json:"first_name,omitempty"`
	LastName         *string `json:"last_name,omitempty"`
	BirthDate        *string `json:"birth_date,omitempty"`
	QRCode           *string `json:"qr_code,omitempty"`
	GradeID          *string `json:"grade_id,omitempty" validate:"omitempty,uuid"`
	SectionID        *string `json:"section_id,omitempty" validate:"omitempty,uuid"`
	GuardianID       *string `json:"guardian_id,omitempty" validate:"omitempty,uuid"`
	Period           *int    `json:"period,omitempty"`
	InternalCode     *string `json:"internal_code,omitempty"`
	EnrollmentStatus *string `json:"enrollment_status,omitempty"`
	Notes            *string `json:"notes,omitempty"`
}

// CreateGradeRequest registers or reuses a grade by name.
type CreateGradeRequest struct {
	Name string `json:"name" validate:"required,max=50"`
}

// CreateSectionRequest registers or reuses a section under a grade.
type CreateSectionRequest struct {
	Name    string `json:"name" validate:"required,max=5"`
	GradeID string `json:"grade_id" validate:"required,uuid"`
}

// BulkSectionsRequest creates every (grade, section-name) combination.
type BulkSectionsRequest struct {
	GradeIDs []string `json:"grade_ids" validate:"required,min=1,dive,uuid"`
	Names    []string `json:"names" validate:"required,min=1,dive,max=5"`
}

// CreateGuardianRequest registers a guardian.
type CreateGuardianRequest struct {
	FirstName string  `json:"first_name" validate:"required"`
	LastName  string  `json:"last_name" validate:"required"`
	Phone     *string `json:"phone,omitempty"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
}

// DashboardStats is the cached dashboard aggregate.
type DashboardStats struct {
	TotalStudents int `json:"total_students"`
	TotalGrades   int `json:"total_grades"`
	Today         struct {
		OnTime int `json:"on_time"`
		Late   int `json:"late"`
		Absent int `json:"absent"`
		Total  int `json:"total"`
	} `json:"today"`
	Date string `json:"date"`
}
