package importer

import (
	"regexp"
	"strings"
	"time"
)

var (
	nonAlnumRun      = regexp.MustCompile(`[^0-9A-Za-z]+`)
	gradeSectionPair = regexp.MustCompile(`^\s*([0-9A-Za-zñÑ°º]+)\s*[-/\s]+\s*([0-9A-Za-zñÑ]+)\s*$`)
	gradeSeparators  = regexp.MustCompile(`[|,;]+`)
	lettersOnly      = regexp.MustCompile(`^[A-Za-zñÑ]+$`)
	digitsOnly       = regexp.MustCompile(`^[0-9]+$`)
)

// asciiFold maps accented Latin letters onto their plain ASCII base so
// headers like "Apellido Paterno" and "APELLIDO PATERNO" normalise alike.
var asciiFold = map[rune]rune{
	'á': 'a', 'à': 'a', 'ä': 'a', 'â': 'a', 'ã': 'a', 'å': 'a',
	'Á': 'A', 'À': 'A', 'Ä': 'A', 'Â': 'A', 'Ã': 'A', 'Å': 'A',
	'é': 'e', 'è': 'e', 'ë': 'e', 'ê': 'e',
	'É': 'E', 'È': 'E', 'Ë': 'E', 'Ê': 'E',
	'í': 'i', 'ì': 'i', 'ï': 'i', 'î': 'i',
	'Í': 'I', 'Ì': 'I', 'Ï': 'I', 'Î': 'I',
	'ó': 'o', 'ò': 'o', 'ö': 'o', 'ô': 'o', 'õ': 'o',
	'Ó': 'O', 'Ò': 'O', 'Ö': 'O', 'Ô': 'O', 'Õ': 'O',
	'ú': 'u', 'ù': 'u', 'ü': 'u', 'û': 'u',
	'Ú': 'U', 'Ù': 'U', 'Ü': 'U', 'Û': 'U',
	'ñ': 'n', 'Ñ': 'N', 'ç': 'c', 'Ç': 'C',
}

// NormalizeHeader canonicalises a column header: accents are stripped,
// runs of non-alphanumerics collapse to a single underscore, and the
// result is lower-cased. "Apellido Paterno" becomes "apellido_paterno".
func NormalizeHeader(header string) string {
	folded := strings.Map(func(r rune) rune {
		if mapped, ok := asciiFold[r]; ok {
			return mapped
		}
		return r
	}, header)
	folded = nonAlnumRun.ReplaceAllString(folded, "_")
	folded = strings.Trim(folded, "_")
	return strings.ToLower(folded)
}

// SplitFullName splits a combined "surnames, given names" cell. With a
// comma the left side is surnames. Without one, three or more tokens put
// the last two tokens into surnames; fewer tokens all become surname.
func SplitFullName(combined string) (surnames, given string) {
	combined = strings.TrimSpace(combined)
	if combined == "" {
		return "", ""
	}
	if idx := strings.Index(combined, ","); idx >= 0 {
		return strings.TrimSpace(combined[:idx]), strings.TrimSpace(combined[idx+1:])
	}
	tokens := strings.Fields(combined)
	if len(tokens) >= 3 {
		return strings.Join(tokens[len(tokens)-2:], " "), strings.Join(tokens[:len(tokens)-2], " ")
	}
	return combined, ""
}

// SplitGradeSection parses a combined grade/section cell such as "5-A",
// "5/A" or "A 5". Pipes, commas and semicolons count as separators. When
// the first part is purely alphabetic and the second purely numeric the
// pair is swapped, so "A-5" yields grade "5" section "A". A single token
// becomes the grade with an empty section.
func SplitGradeSection(text string) (grade, section string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ""
	}
	text = gradeSeparators.ReplaceAllString(text, "-")
	if m := gradeSectionPair.FindStringSubmatch(text); m != nil {
		grade, section = m[1], m[2]
		if lettersOnly.MatchString(grade) && digitsOnly.MatchString(section) {
			grade, section = section, grade
		}
		return grade, section
	}
	parts := strings.Fields(text)
	if len(parts) >= 2 {
		return parts[0], parts[len(parts)-1]
	}
	return text, ""
}

var dateLayouts = []string{"2006-01-02", "02/01/2006", "02-01-2006", "01/02/2006"}

// ParseDate accepts the date formats seen in school rosters. Day-first
// layouts are tried before the US layout. Returns nil when nothing fits.
func ParseDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return &parsed
		}
	}
	return nil
}
