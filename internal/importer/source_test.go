package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `DNI,Apellido Paterno,Apellido Materno,Nombres,Grado,Sección
12345678,Perez,Gonzales,Ana Maria,5,A
87654321,Ramirez,Soto,Luis,3-B,

11112222,Quispe,Mamani,Rosa,5,A
`

func TestReadCSV(t *testing.T) {
	table, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"DNI", "Apellido Paterno", "Apellido Materno", "Nombres", "Grado", "Sección"}, table.Headers)
	require.Len(t, table.Rows, 3, "blank lines are skipped")

	first := table.Rows[0]
	assert.Equal(t, "12345678", first.Value(FieldNationalID))
	assert.Equal(t, "Perez", first.Value(FieldPaternalSurname))
	assert.Equal(t, "Ana Maria", first.Value(FieldFirstName))
	assert.Equal(t, "5", first.Value(FieldGrade))
	assert.Equal(t, "A", first.Value(FieldSection))

	second := table.Rows[1]
	assert.Equal(t, "3-B", second.Value(FieldGrade))
	assert.Empty(t, second.Value(FieldSection))
}

func TestReadCSVShortRecords(t *testing.T) {
	table, err := ReadCSV(strings.NewReader("dni,nombres,apellido_paterno\n123,Ana\n"))
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Ana", table.Rows[0].Value(FieldFirstName))
	assert.Empty(t, table.Rows[0].Value(FieldPaternalSurname))
}

func TestReadCSVMisspelledCombinedHeader(t *testing.T) {
	table, err := ReadCSV(strings.NewReader("Apelidos y Nombres,DNI\n\"Perez Gonzales, Ana\",123\n"))
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Perez Gonzales, Ana", table.Rows[0].Value(FieldCombinedName))
}

func TestReadCSVEmpty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestNationalIDsDeduplicates(t *testing.T) {
	table, err := ReadCSV(strings.NewReader("dni\n111\n222\n111\n\n333\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"111", "222", "333"}, table.NationalIDs())
}
