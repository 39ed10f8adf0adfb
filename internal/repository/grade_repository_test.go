package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGradeGetOrCreateReturnsExisting(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGradeRepository(db)

	mock.ExpectQuery(`INSERT INTO grades`).
		WithArgs(sqlmock.AnyArg(), "5to").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at"}).
			AddRow("grade-1", "5to", time.Now()))

	grade, err := repo.GetOrCreate(context.Background(), "5to")
	require.NoError(t, err)
	assert.Equal(t, "grade-1", grade.ID)
	assert.Equal(t, "5to", grade.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrCreateSectionScopedToGrade(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGradeRepository(db)

	mock.ExpectQuery(`INSERT INTO sections`).
		WithArgs(sqlmock.AnyArg(), "A", "grade-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "grade_id", "created_at"}).
			AddRow("section-1", "A", "grade-1", time.Now()))

	section, err := repo.GetOrCreateSection(context.Background(), "A", "grade-1")
	require.NoError(t, err)
	assert.Equal(t, "section-1", section.ID)
	assert.Equal(t, "grade-1", section.GradeID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListSectionsFiltersByGrade(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGradeRepository(db)

	mock.ExpectQuery(`SELECT sec.id, sec.name, sec.grade_id, sec.created_at, g.name AS grade_name`).
		WithArgs("grade-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "grade_id", "created_at", "grade_name"}).
			AddRow("section-1", "A", "grade-1", time.Now(), "5to").
			AddRow("section-2", "B", "grade-1", time.Now(), "5to"))

	sections, err := repo.ListSections(context.Background(), "grade-1")
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, "5to", sections[0].GradeName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
