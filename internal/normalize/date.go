package normalize

import (
	"strconv"
	"strings"
	"time"
)

// sheetEpoch is the day-zero used by spreadsheet numeric serial dates.
var sheetEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

const maxSheetSerial = 200000

// ParseDate interprets the date formats that show up in volunteer
// spreadsheets: M/D/YYYY, YYYY-M-D, and a bare numeric spreadsheet serial
// (days since the conventional sheet epoch). The second return reports
// ambiguity: when month and day are both twelve or less and differ, a
// month/day transposition cannot be ruled out. Unparseable input returns
// ok=false and never an error.
func ParseDate(raw string) (date time.Time, ambiguous bool, ok bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, false, false
	}

	layouts := []string{"1/2/2006", "2006-1-2"}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed, monthDayAmbiguous(parsed), true
		}
	}

	if serial, err := strconv.Atoi(trimmed); err == nil && serial > 0 && serial < maxSheetSerial {
		parsed := sheetEpoch.AddDate(0, 0, serial)
		return parsed, monthDayAmbiguous(parsed), true
	}

	return time.Time{}, false, false
}

func monthDayAmbiguous(date time.Time) bool {
	month := int(date.Month())
	day := date.Day()
	return month <= 12 && day <= 12 && month != day
}
