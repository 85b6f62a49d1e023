package frames

import (
	"strconv"
	"strings"
)

// Separator splits the fields of a data line.
const Separator = ", "

// ParseIndex returns the sample index held in the given 0-based column of a
// data line. The trimmed field must consist of ASCII decimal digits only.
func ParseIndex(line string, column int) (int, error) {
	fields := strings.Split(line, Separator)
	if column < 0 || column >= len(fields) {
		return 0, &FormatError{
			Line:   line,
			Column: column,
			Reason: "either separator is wrong or index column is out of data column bounds",
		}
	}

	raw := strings.TrimSpace(fields[column])
	if !isDigits(raw) {
		return 0, &FormatError{
			Line:   line,
			Column: column,
			Field:  raw,
			Reason: "got " + strconv.Quote(raw) + " instead of a non negative number",
		}
	}

	index, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &FormatError{Line: line, Column: column, Field: raw, Reason: err.Error()}
	}
	return index, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
