package source

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/warp/benefit-engine/generic"
	"github.com/warp/benefit-engine/normalize"
)

// =============================================================================
// DATES
// =============================================================================

// Day-first layouts; ISO first so "2025-05-02" is never read as day 2025.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"02/01/2006",
	"2/1/2006",
	"02/01/2006 15:04:05",
	"02/01/06",
	"2/1/06",
	"02-01-2006",
	"02.01.2006",
	"2006/01/02",
}

// Excel serials outside this range are more likely plain numbers.
const (
	minExcelSerial = 20000 // 1954
	maxExcelSerial = 80000 // 2119
)

// ParseDate reads a day-first date, an ISO date or an Excel serial.
// Unparseable input returns nil.
func ParseDate(raw string) *generic.Date {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial >= minExcelSerial && serial <= maxExcelSerial {
			if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
				d := generic.DateOf(t)
				return &d
			}
		}
		return nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := generic.DateOf(t)
			return &d
		}
	}
	return nil
}

// =============================================================================
// NUMBERS
// =============================================================================

// ParseMoney reads "R$ 1.234,56", "1234,56", "37.5" or "37,50".
// When a comma is present it is the decimal separator and dots are
// thousands separators.
func ParseMoney(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSpace(strings.TrimPrefix(s, "R$"))
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Zero, false
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ParseInt reads a whole day count; "22", "22.0" and "22,0" are all 22.
// Fractions are rounded half-up.
func ParseInt(raw string) (int, bool) {
	d, ok := ParseMoney(raw)
	if !ok {
		return 0, false
	}
	return int(d.Round(0).IntPart()), true
}

// =============================================================================
// FLAGS
// =============================================================================

var ackTrue = map[string]bool{"OK": true, "SIM": true, "TRUE": true, "1": true}

// ParseAck reads the termination-notice acknowledgment column. Blank is nil
// (unknown); any other text is an explicit "not confirmed".
func ParseAck(raw string) *bool {
	s := normalize.Fold(raw)
	if s == "" {
		return nil
	}
	v := ackTrue[s]
	return &v
}
