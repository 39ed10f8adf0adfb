package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeHeader(t *testing.T) {
	cases := map[string]string{
		"Apellido Paterno":      "apellido_paterno",
		"APELLIDO   MATERNO":    "apellido_materno",
		"Número de Documento":   "numero_de_documento",
		"Grado/Sección":         "grado_seccion",
		"  DNI  ":               "dni",
		"Año":                   "ano",
		"Fecha-Nacimiento (op)": "fecha_nacimiento_op",
		"":                      "",
	}
	for input, want := range cases {
		assert.Equal(t, want, NormalizeHeader(input), "header %q", input)
	}
}

func TestSplitFullNameWithComma(t *testing.T) {
	surnames, given := SplitFullName("Perez Gonzales, Ana Maria")
	assert.Equal(t, "Perez Gonzales", surnames)
	assert.Equal(t, "Ana Maria", given)
}

func TestSplitFullNameWithoutComma(t *testing.T) {
	surnames, given := SplitFullName("Ana Maria Perez Gonzales")
	assert.Equal(t, "Perez Gonzales", surnames)
	assert.Equal(t, "Ana Maria", given)

	surnames, given = SplitFullName("Luis Ramirez Soto")
	assert.Equal(t, "Ramirez Soto", surnames)
	assert.Equal(t, "Luis", given)
}

func TestSplitFullNameShort(t *testing.T) {
	surnames, given := SplitFullName("Perez Luis")
	assert.Equal(t, "Perez Luis", surnames)
	assert.Empty(t, given)

	surnames, given = SplitFullName("")
	assert.Empty(t, surnames)
	assert.Empty(t, given)
}

func TestSplitGradeSection(t *testing.T) {
	cases := []struct {
		input   string
		grade   string
		section string
	}{
		{"5-A", "5", "A"},
		{"5/A", "5", "A"},
		{"5 A", "5", "A"},
		{"5to - B", "5to", "B"},
		{"A-5", "5", "A"},
		{"3|C", "3", "C"},
		{"2;D", "2", "D"},
		{"1ro", "1ro", ""},
		{"", "", ""},
	}
	for _, tc := range cases {
		grade, section := SplitGradeSection(tc.input)
		assert.Equal(t, tc.grade, grade, "grade for %q", tc.input)
		assert.Equal(t, tc.section, section, "section for %q", tc.input)
	}
}

func TestSplitGradeSectionWhitespaceFallback(t *testing.T) {
	grade, section := SplitGradeSection("4to grado B")
	assert.Equal(t, "4to", grade)
	assert.Equal(t, "B", section)
}

func TestParseDateFormats(t *testing.T) {
	for _, value := range []string{"2025-03-17", "17/03/2025", "17-03-2025"} {
		parsed := ParseDate(value)
		require.NotNil(t, parsed, "value %q", value)
		assert.Equal(t, 2025, parsed.Year())
		assert.Equal(t, 3, int(parsed.Month()))
		assert.Equal(t, 17, parsed.Day())
	}
}

func TestParseDateUSFallback(t *testing.T) {
	// Day-first wins when ambiguous; month-first only parses when the
	// day-first reading is impossible.
	parsed := ParseDate("03/17/2025")
	require.NotNil(t, parsed)
	assert.Equal(t, 3, int(parsed.Month()))
	assert.Equal(t, 17, parsed.Day())
}

func TestParseDateInvalid(t *testing.T) {
	assert.Nil(t, ParseDate("17 de marzo"))
	assert.Nil(t, ParseDate(""))
}
