package models

import "time"

// PlaceholderGradeName is assigned when an imported row has no usable grade.
const PlaceholderGradeName = "Sin Grado"

// PlaceholderSectionName is assigned when an imported row has no usable section.
const PlaceholderSectionName = "Sin"

// SectionNameMaxLen is the storage limit for section names.
const SectionNameMaxLen = 5

// Grade is a school year level, e.g. "1ro" or "5to".
type Grade struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Section is a classroom group within a grade. Names are unique per grade.
type Section struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	GradeID   string    `db:"grade_id" json:"grade_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SectionDetail includes the owning grade name for listings.
type SectionDetail struct {
	Section
	GradeName string `db:"grade_name" json:"grade_name"`
}
