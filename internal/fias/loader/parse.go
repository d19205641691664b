package loader

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// parseIntOr parses a string as an integer, returning def if parsing fails or the string is empty.
func parseIntOr(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// parseUUID parses a GUID column, reporting false for empty or malformed values.
func parseUUID(s string) (uuid.UUID, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// nullUUID is parseUUID for optional columns: invalid values become NULL.
func nullUUID(s string) any {
	id, ok := parseUUID(s)
	if !ok {
		return nil
	}
	return id
}

// dateLayouts are the date formats seen in FIAS exports.
var dateLayouts = []string{"2006-01-02", "2006-01-02T15:04:05", "02.01.2006", "20060102"}

// parseDate parses a FIAS date column.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// nullDate is parseDate for optional columns.
func nullDate(s string) any {
	t, ok := parseDate(s)
	if !ok {
		return nil
	}
	return t
}

// nullIfEmpty maps "" to nil so optional text columns are stored as NULL.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
