package utils

import (
	"strings"
	"time"

	"github.com/scmhub/calendar"
)

// TradingCalendar decides which days the exchange trades. A scmhub/calendar
// MIC is used when it resolves, otherwise the configured weekday set.
type TradingCalendar struct {
	Calendar *calendar.Calendar
	Fallback bool
	Timezone *time.Location
	weekdays map[time.Weekday]bool
}

// -----------------------------------------------------------------------------

// NewTradingCalendar resolves mic through scmhub/calendar. An empty or unknown
// MIC falls back to the weekday set evaluated in loc.
func NewTradingCalendar(mic string, weekdays []time.Weekday, loc *time.Location) *TradingCalendar {
	days := make(map[time.Weekday]bool, len(weekdays))
	for _, d := range weekdays {
		days[d] = true
	}

	tc := &TradingCalendar{Fallback: true, Timezone: loc, weekdays: days}
	if mic == "" {
		return tc
	}

	cal := calendar.GetCalendar(strings.ToLower(mic))
	if cal == nil {
		return tc
	}

	tc.Calendar = cal
	tc.Fallback = false
	if cal.Loc != nil {
		tc.Timezone = cal.Loc
	}
	return tc
}

// -----------------------------------------------------------------------------

func (tc *TradingCalendar) IsTradingDay(date time.Time) bool {
	// Normalize to timezone if available
	if tc.Timezone != nil {
		date = date.In(tc.Timezone)
	}

	if tc.Fallback {
		return tc.weekdays[date.Weekday()]
	}
	// Library handles IsHoliday / IsBusinessDay
	return tc.Calendar.IsBusinessDay(date)
}
