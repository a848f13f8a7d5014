package parser

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"01/02/2006",
	"02-01-2006",
	"20060102",
}

// excelEpoch is day zero of Excel's 1900 date system. Excel counts day 1 as
// 1900-01-01 and wrongly treats 1900 as a leap year, which the -2 offset
// absorbs for all dates after 1900-02-28.
var excelEpoch = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// parseDate accepts the supported text layouts plus Excel serial numbers.
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("empty date")
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}

	if serial, err := strconv.ParseFloat(raw, 64); err == nil && serial > 59 {
		days := int(serial) - 2
		return excelEpoch.AddDate(0, 0, days), nil
	}

	return time.Time{}, errors.New("unrecognized date format")
}

// parseAmount parses a monetary value, tolerating a comma decimal separator
// and a leading currency symbol.
func parseAmount(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "$")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errors.New("empty amount")
	}

	// "1.234,56" and "1234,56" both mean comma-decimal; only then strip the
	// dot thousands separators.
	if strings.Contains(raw, ",") {
		raw = strings.ReplaceAll(raw, ".", "")
		raw = strings.ReplaceAll(raw, ",", ".")
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	return v, nil
}
