// Package localeparse converts Spanish bank-export values (dd/mm/yyyy dates,
// 1.234,56 amounts, spreadsheet serial dates) into canonical Go values.
package localeparse

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"fjacquet/bank-movements/internal/models"
	"fjacquet/bank-movements/internal/parsererror"
)

const (
	DateLayoutISO      = "2006-01-02"
	DateLayoutEuropean = "2/1/2006"
)

// dateLayouts are tried in order; day-first layouts come before ISO ones.
var dateLayouts = []string{
	DateLayoutEuropean,
	"2-1-2006",
	"2.1.2006",
	DateLayoutISO,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2/1/06",
}

// Serial numbers outside this range are not dates (9999-12-31 is 2958465).
const (
	minSerial = 1
	maxSerial = 2958465
)

var (
	errUnrecognizedDate = errors.New("unrecognized date format")
	errSerialRange      = errors.New("spreadsheet serial date out of range")

	// Text serials need five digits (1927 onwards) so a bare year is an error.
	serialPattern = regexp.MustCompile(`^\d{5,7}(\.\d+)?$`)
	spaces        = regexp.MustCompile(`\s+`)
)

// ParseDate interprets a cell as a calendar date at UTC midnight.
// An empty cell yields (nil, nil). A value that cannot be read yields nil and
// a *parsererror.ParseError; callers decide through Policy whether that is
// fatal for the row.
func ParseDate(c models.Cell) (*time.Time, error) {
	switch c.Kind {
	case models.CellEmpty:
		return nil, nil
	case models.CellNumber:
		return fromSerial(c.Number, c.String())
	}

	raw := cleanDateString(c.Text)
	if raw == "" {
		return nil, nil
	}

	if serialPattern.MatchString(raw) {
		f, err := strconv.ParseFloat(raw, 64)
		if err == nil {
			return fromSerial(f, raw)
		}
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			d := midnightUTC(t)
			return &d, nil
		}
	}

	return nil, &parsererror.ParseError{Value: raw, Err: errUnrecognizedDate}
}

// ToISODate formats a date as YYYY-MM-DD; nil renders as "".
func ToISODate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayoutISO)
}

// fromSerial converts a 1900-system spreadsheet serial. Serials up to 60
// predate the phantom 29 Feb 1900 and use a one-day-later epoch.
func fromSerial(f float64, raw string) (*time.Time, error) {
	days := int(math.Floor(f))
	if days < minSerial || days > maxSerial {
		return nil, &parsererror.ParseError{Value: raw, Err: errSerialRange}
	}

	epoch := time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)
	if days <= 60 {
		epoch = epoch.AddDate(0, 0, 1)
	}
	d := epoch.AddDate(0, 0, days)
	return &d, nil
}

func midnightUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func cleanDateString(s string) string {
	return spaces.ReplaceAllString(strings.TrimSpace(s), " ")
}
