package importer

// Canonical field names resolved from roster headers.
const (
	FieldFirstName        = "first_name"
	FieldPaternalSurname  = "paternal_surname"
	FieldMaternalSurname  = "maternal_surname"
	FieldCombinedName     = "combined_name"
	FieldNationalID       = "national_id"
	FieldBirthDate        = "birth_date"
	FieldGrade            = "grade"
	FieldSection          = "section"
	FieldInternalCode     = "internal_code"
	FieldEnrollmentStatus = "enrollment_status"
	FieldNotes            = "notes"
	FieldGuardianName     = "guardian_first_name"
	FieldGuardianSurname  = "guardian_last_name"
	FieldGuardianPhone    = "guardian_phone"
	FieldGuardianEmail    = "guardian_email"
)

// Row holds one roster row keyed by normalised header.
type Row map[string]string

// aliases maps each canonical field to the normalised headers that may
// carry it, in priority order. The list covers the header variants seen
// in real exports, including the "apelidos_y_nombres" misspelling.
var aliases = map[string][]string{
	FieldFirstName:        {"nombres", "nombre", "first_name"},
	FieldPaternalSurname:  {"apellido_paterno", "apellido_p", "apellido"},
	FieldMaternalSurname:  {"apellido_materno", "apellido_m"},
	FieldCombinedName:     {"apellidos_y_nombres", "apelidos_y_nombres", "nombre_completo", "full_name"},
	FieldNationalID:       {"dni", "documento", "numero_de_documento", "nro_documento"},
	FieldBirthDate:        {"fecha_nacimiento", "fecha_de_nacimiento", "birthdate"},
	FieldGrade:            {"grado", "grade", "grado_seccion", "grado_y_seccion", "curso", "nivel"},
	FieldSection:          {"seccion", "section"},
	FieldInternalCode:     {"codigo_del_estudiante", "codigo_estudiante", "codigo_interno", "codigo"},
	FieldEnrollmentStatus: {"estado_de_matricula", "estado_matricula", "situacion_matricula"},
	FieldNotes:            {"observacion", "observaciones", "obs"},
	FieldGuardianName:     {"apoderado_nombre", "nombre_apoderado", "tutor_nombre"},
	FieldGuardianSurname:  {"apoderado_apellido", "apellido_apoderado", "tutor_apellido"},
	FieldGuardianPhone:    {"apoderado_celular", "celular_apoderado", "apoderado_telefono", "tutor_celular"},
	FieldGuardianEmail:    {"apoderado_correo", "correo_apoderado", "apoderado_email", "tutor_correo"},
}

// Value returns the first non-empty cell among the field's header aliases.
func (r Row) Value(field string) string {
	for _, alias := range aliases[field] {
		if v, ok := r[alias]; ok && v != "" {
			return v
		}
	}
	return ""
}
