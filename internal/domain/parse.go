package domain

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// NumberFormat describes the decimal and grouping characters of a source.
type NumberFormat struct {
	Decimal   byte
	Thousands byte
}

var (
	// PointDecimal is plain "1234.5" notation.
	PointDecimal = NumberFormat{Decimal: '.'}
	// CommaDecimal is German "1.234,5" notation.
	CommaDecimal = NumberFormat{Decimal: ',', Thousands: '.'}
	// GroupedPoint is "1,234.5" notation.
	GroupedPoint = NumberFormat{Decimal: '.', Thousands: ','}
)

var kilo = decimal.NewFromInt(1000)

// excelEpoch is day zero of spreadsheet serial dates (1900 date system).
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// dateLayouts are tried in order; day-first layouts come before month-first.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"02.01.2006",
	"02.01.2006 15:04:05",
	"02.01.2006 15:04",
	"2.1.2006",
	"02/01/2006",
	"02-01-2006",
}

// isMissing reports values the registries use for "no value".
func isMissing(s string) bool {
	switch strings.ToLower(s) {
	case "", "nan", "nat", "none", "null", "-":
		return true
	}
	return false
}

// ParseNumber parses s according to f. Missing or malformed values yield nil.
func ParseNumber(s string, f NumberFormat) *float64 {
	s = strings.TrimSpace(s)
	if isMissing(s) {
		return nil
	}
	if f.Thousands != 0 {
		s = strings.ReplaceAll(s, string(f.Thousands), "")
	}
	if f.Decimal != 0 && f.Decimal != '.' {
		s = strings.ReplaceAll(s, string(f.Decimal), ".")
	}
	s = strings.ReplaceAll(s, " ", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// ParseCount parses an installation count. Fractional values yield nil.
func ParseCount(s string, f NumberFormat) *int {
	v := ParseNumber(s, f)
	if v == nil || *v != math.Trunc(*v) {
		return nil
	}
	n := int(*v)
	return &n
}

// ParseDate parses the date formats found across the registries, including
// spreadsheet serial numbers. The time of day is dropped. Malformed values
// yield nil.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if isMissing(s) {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial >= 1 && serial < 2958466 {
		d := excelEpoch.AddDate(0, 0, int(serial))
		return &d
	}
	return nil
}

// KWToMW converts a capacity in kW to MW using decimal arithmetic so that
// values like 500 kW map to exactly 0.5 MW.
func KWToMW(kw *float64) *float64 {
	if kw == nil {
		return nil
	}
	mw := decimal.NewFromFloat(*kw).Div(kilo).InexactFloat64()
	return &mw
}

// MWToKW is the inverse of KWToMW.
func MWToKW(mw *float64) *float64 {
	if mw == nil {
		return nil
	}
	kw := decimal.NewFromFloat(*mw).Mul(kilo).InexactFloat64()
	return &kw
}
