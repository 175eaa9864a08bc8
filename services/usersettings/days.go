package usersettings

import (
	"strings"

	"maxcal/models"
)

// dayCodes maps wire codes to day keys. The server speaks the localized
// two-letter codes; the English three-letter forms are accepted for
// compatibility with older records.
var dayCodes = map[string]models.DayKey{
	"пн": models.Monday, "вт": models.Tuesday, "ср": models.Wednesday,
	"чт": models.Thursday, "пт": models.Friday, "сб": models.Saturday, "вс": models.Sunday,
	"mon": models.Monday, "tue": models.Tuesday, "wed": models.Wednesday,
	"thu": models.Thursday, "fri": models.Friday, "sat": models.Saturday, "sun": models.Sunday,
}

var serverCodes = map[models.DayKey]string{
	models.Monday: "пн", models.Tuesday: "вт", models.Wednesday: "ср",
	models.Thursday: "чт", models.Friday: "пт", models.Saturday: "сб", models.Sunday: "вс",
}

// ParseWorkingDays turns the server's code list into a full seven-day record.
// Every day is present in the result; unknown codes are ignored.
func ParseWorkingDays(codes []string) models.WorkingDays {
	record := models.EmptyWorkingDays()
	for _, code := range codes {
		key, ok := dayCodes[strings.ToLower(strings.TrimSpace(code))]
		if !ok {
			continue
		}
		record[key] = true
	}
	return record
}

// EncodeWorkingDays emits the enabled days as server codes in Mon..Sun order.
func EncodeWorkingDays(record models.WorkingDays) []string {
	codes := make([]string, 0, len(models.DayOrder))
	for _, day := range models.DayOrder {
		if record[day] {
			codes = append(codes, serverCodes[day])
		}
	}
	return codes
}
