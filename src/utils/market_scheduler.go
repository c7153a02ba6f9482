package utils

import (
	"context"
	"fmt"
	"time"

	"tsetmc-pusher/src/config"
	"tsetmc-pusher/src/logger"
	"tsetmc-pusher/src/models"
)

// MarketScheduler knows the daily session window of the exchange.
type MarketScheduler struct {
	Calendar *TradingCalendar
	Location *time.Location
	Logger   *logger.Logger

	openOffset  time.Duration
	closeOffset time.Duration
	now         func() time.Time
}

// -----------------------------------------------------------------------------

func NewMarketScheduler(cfg models.MMarketConfig, l *logger.Logger) (*MarketScheduler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		l.Warning("MarketScheduler: timezone %q unavailable, using fixed +03:30", cfg.Timezone)
		loc = time.FixedZone("IRST", IranStandardOffset)
	}

	openOffset, err := clockOffset(cfg.OpenTime)
	if err != nil {
		return nil, fmt.Errorf("market open time: %w", err)
	}
	closeOffset, err := clockOffset(cfg.CloseTime)
	if err != nil {
		return nil, fmt.Errorf("market close time: %w", err)
	}

	var weekdays []time.Weekday
	for _, name := range cfg.TradingWeekdays {
		if d, ok := config.ParseWeekday(name); ok {
			weekdays = append(weekdays, d)
		}
	}

	cal := NewTradingCalendar(cfg.CalendarMIC, weekdays, loc)
	if cfg.CalendarMIC != "" && cal.Fallback {
		l.Warning("MarketScheduler: calendar %q not found, using weekday set", cfg.CalendarMIC)
	}

	ms := &MarketScheduler{
		Calendar:    cal,
		Location:    loc,
		Logger:      l,
		openOffset:  openOffset,
		closeOffset: closeOffset,
		now:         time.Now,
	}
	ms.Logger.Info("MarketScheduler: session %s-%s %s", cfg.OpenTime, cfg.CloseTime, loc)
	return ms, nil
}

// -----------------------------------------------------------------------------

// SetClock replaces the wall clock, for tests.
func (ms *MarketScheduler) SetClock(now func() time.Time) {
	ms.now = now
}

// Now returns the current time in the market timezone.
func (ms *MarketScheduler) Now() time.Time {
	return ms.now().In(ms.Location)
}

// -----------------------------------------------------------------------------

// SessionBounds returns the open and close instants for the calendar day of day.
func (ms *MarketScheduler) SessionBounds(day time.Time) (time.Time, time.Time) {
	y, m, d := day.In(ms.Location).Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, ms.Location)
	return midnight.Add(ms.openOffset), midnight.Add(ms.closeOffset)
}

// IsTradingDay reports whether the exchange trades on the calendar day of t.
func (ms *MarketScheduler) IsTradingDay(t time.Time) bool {
	return ms.Calendar.IsTradingDay(t)
}

// IsOpen reports whether t falls inside a trading session.
func (ms *MarketScheduler) IsOpen(t time.Time) bool {
	if !ms.IsTradingDay(t) {
		return false
	}
	open, closing := ms.SessionBounds(t)
	return !t.Before(open) && t.Before(closing)
}

// -----------------------------------------------------------------------------

// NextSessionOpen returns the open and close of the first session that has
// not yet closed at t. The open may lie in the past when t is mid-session.
func (ms *MarketScheduler) NextSessionOpen(t time.Time) (time.Time, time.Time, error) {
	day := t.In(ms.Location)
	for i := 0; i <= MaxSessionLookaheadDays; i++ {
		if ms.IsTradingDay(day) {
			open, closing := ms.SessionBounds(day)
			if t.Before(closing) {
				return open, closing, nil
			}
		}
		y, m, d := day.Date()
		day = time.Date(y, m, d+1, 12, 0, 0, 0, ms.Location)
	}
	return time.Time{}, time.Time{}, fmt.Errorf("no trading session within %d days of %s", MaxSessionLookaheadDays, t.Format(time.DateOnly))
}

// -----------------------------------------------------------------------------

// WaitForSession blocks until the next session opens and returns its bounds.
// A session already in progress returns at once.
func (ms *MarketScheduler) WaitForSession(ctx context.Context) (time.Time, time.Time, error) {
	open, closeAt, err := ms.NextSessionOpen(ms.Now())
	if err != nil {
		return open, closeAt, err
	}

	ms.Logger.Info("Next session: %s - %s", open.Format(time.DateTime), closeAt.Format(time.TimeOnly))
	if err := ms.SleepUntil(ctx, open); err != nil {
		return open, closeAt, err
	}
	return open, closeAt, nil
}

// -----------------------------------------------------------------------------

// SleepUntil blocks until the scheduler clock reaches t or ctx is done.
func (ms *MarketScheduler) SleepUntil(ctx context.Context, t time.Time) error {
	wait := t.Sub(ms.now())
	if wait <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	// Interruptible Sleep
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// -----------------------------------------------------------------------------

func clockOffset(clock string) (time.Duration, error) {
	t, err := time.Parse(config.ClockLayout, clock)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second, nil
}
