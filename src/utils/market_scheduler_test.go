package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tsetmc-pusher/src/config"
	"tsetmc-pusher/src/logger"
)

func newTestScheduler(t *testing.T) *MarketScheduler {
	t.Helper()
	ms, err := NewMarketScheduler(config.DefaultConfig().Market, logger.NewLogger("ERROR", "scheduler"))
	require.NoError(t, err)
	return ms
}

func tehran(t *testing.T, y int, m time.Month, d, hh, mm int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Tehran")
	require.NoError(t, err)
	return time.Date(y, m, d, hh, mm, 0, 0, loc)
}

func TestHEvenRoundTrip(t *testing.T) {
	at := time.Date(2026, 10, 17, 9, 5, 7, 0, time.UTC)
	assert.Equal(t, 90507, EncodeHEven(at))
	assert.Equal(t, at, DecodeHEven(at, 90507))
	assert.Equal(t, 0, EncodeHEven(time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)))
}

func TestIsOpen(t *testing.T) {
	ms := newTestScheduler(t)

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"saturday mid session", tehran(t, 2026, 10, 17, 10, 0), true},
		{"saturday at open", tehran(t, 2026, 10, 17, 8, 30), true},
		{"saturday at close", tehran(t, 2026, 10, 17, 15, 0), false},
		{"saturday before open", tehran(t, 2026, 10, 17, 8, 0), false},
		{"thursday", tehran(t, 2026, 10, 15, 10, 0), false},
		{"friday", tehran(t, 2026, 10, 16, 10, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ms.IsOpen(tt.at))
		})
	}
}

func TestNextSessionOpenSkipsWeekend(t *testing.T) {
	ms := newTestScheduler(t)

	open, closing, err := ms.NextSessionOpen(tehran(t, 2026, 10, 15, 10, 0))
	require.NoError(t, err)
	assert.True(t, open.Equal(tehran(t, 2026, 10, 17, 8, 30)))
	assert.True(t, closing.Equal(tehran(t, 2026, 10, 17, 15, 0)))
}

func TestNextSessionOpenMidSession(t *testing.T) {
	ms := newTestScheduler(t)

	open, closing, err := ms.NextSessionOpen(tehran(t, 2026, 10, 18, 11, 0))
	require.NoError(t, err)
	assert.True(t, open.Equal(tehran(t, 2026, 10, 18, 8, 30)))
	assert.True(t, closing.Equal(tehran(t, 2026, 10, 18, 15, 0)))
}

func TestNextSessionOpenAfterClose(t *testing.T) {
	ms := newTestScheduler(t)

	// Wednesday after close rolls over the Thursday/Friday weekend.
	open, _, err := ms.NextSessionOpen(tehran(t, 2026, 10, 21, 16, 0))
	require.NoError(t, err)
	assert.True(t, open.Equal(tehran(t, 2026, 10, 24, 8, 30)))
}

func TestSleepUntil(t *testing.T) {
	ms := newTestScheduler(t)
	now := time.Now()
	ms.SetClock(func() time.Time { return now })

	assert.NoError(t, ms.SleepUntil(context.Background(), now.Add(-time.Minute)))
	assert.NoError(t, ms.SleepUntil(context.Background(), now.Add(10*time.Millisecond)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, ms.SleepUntil(ctx, now.Add(time.Hour)), context.Canceled)
}

func TestWaitForSessionBlocksOnNonTradingDay(t *testing.T) {
	ms := newTestScheduler(t)
	// Friday
	friday := tehran(t, 2026, 10, 16, 12, 0)
	ms.SetClock(func() time.Time { return friday })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	open, closeAt, err := ms.WaitForSession(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, open.Equal(tehran(t, 2026, 10, 17, 8, 30)))
	assert.True(t, closeAt.Equal(tehran(t, 2026, 10, 17, 15, 0)))
}

func TestWaitForSessionInProgress(t *testing.T) {
	ms := newTestScheduler(t)
	now := tehran(t, 2026, 10, 17, 10, 0)
	ms.SetClock(func() time.Time { return now })

	open, closeAt, err := ms.WaitForSession(context.Background())
	require.NoError(t, err)
	assert.True(t, open.Before(now))
	assert.True(t, closeAt.Equal(tehran(t, 2026, 10, 17, 15, 0)))
}

func TestTradingCalendarFallback(t *testing.T) {
	tc := NewTradingCalendar("", []time.Weekday{time.Saturday}, time.UTC)
	assert.True(t, tc.Fallback)
	assert.True(t, tc.IsTradingDay(time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)))
	assert.False(t, tc.IsTradingDay(time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)))
}

func TestTradingCalendarMIC(t *testing.T) {
	tc := NewTradingCalendar("XNYS", nil, time.UTC)
	require.False(t, tc.Fallback)

	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	assert.False(t, tc.IsTradingDay(time.Date(2026, 12, 25, 12, 0, 0, 0, ny)))
	assert.True(t, tc.IsTradingDay(time.Date(2026, 12, 28, 12, 0, 0, 0, ny)))
}
