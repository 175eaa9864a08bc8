package models

// DayKey identifies a day of the week in the working-days record, Monday first.
type DayKey string

const (
	Monday    DayKey = "mon"
	Tuesday   DayKey = "tue"
	Wednesday DayKey = "wed"
	Thursday  DayKey = "thu"
	Friday    DayKey = "fri"
	Saturday  DayKey = "sat"
	Sunday    DayKey = "sun"
)

// DayOrder is the fixed Mon..Sun iteration order for working-day records.
var DayOrder = []DayKey{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// WorkingDays is the internal per-day-of-week boolean record.
type WorkingDays map[DayKey]bool

// EmptyWorkingDays returns a record with all seven days present and false.
func EmptyWorkingDays() WorkingDays {
	record := make(WorkingDays, len(DayOrder))
	for _, day := range DayOrder {
		record[day] = false
	}
	return record
}

// Settings mirrors the remote settings record. All numeric fields are pointers:
// nil means "not present in the payload", which keeps an explicit 0 distinguishable
// from "unset" when merging partial updates.
//
// Time-of-day fields use the fractional-hour encoding (9.30 == 9:30, 9.05 == 9:05);
// DurationMinutes and AlertOffsetMinutes are plain minutes.
type Settings struct {
	Timezone           *float64 `json:"timezone,omitempty"`
	WorkTimeStart      *float64 `json:"work_time_start,omitempty"`
	WorkTimeEnd        *float64 `json:"work_time_end,omitempty"`
	DurationMinutes    *int     `json:"duration_minutes,omitempty"`
	AlertOffsetMinutes *int     `json:"alert_offset_minutes,omitempty"`
	DailyReminderTime  *float64 `json:"daily_reminder_time,omitempty"`
	WorkingDays        []string `json:"working_days,omitempty"`
}

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 { return &v }

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }
