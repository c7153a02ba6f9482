package utils

import "time"

// -----------------------------------------------------------------------------

const (
	// MaxSessionLookaheadDays bounds how far ahead NextSessionOpen searches.
	MaxSessionLookaheadDays = 30

	// IranStandardOffset is used when the tz database lacks the market zone.
	IranStandardOffset = 3*3600 + 30*60
)

// -----------------------------------------------------------------------------

// EncodeHEven packs a wall-clock time as HH*10000+MM*100+SS, the trade time
// format used by the exchange.
func EncodeHEven(t time.Time) int {
	return t.Hour()*10000 + t.Minute()*100 + t.Second()
}

// -----------------------------------------------------------------------------

// DecodeHEven places an HHMMSS value on the calendar day of day, in day's location.
func DecodeHEven(day time.Time, hEven int) time.Time {
	h := hEven / 10000
	m := (hEven / 100) % 100
	s := hEven % 100
	y, mo, d := day.Date()
	return time.Date(y, mo, d, h, m, s, 0, day.Location())
}
