package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		clock      string
		wantHour   int
		wantMinute int
		wantErr    bool
	}{
		{"08:00", 8, 0, false},
		{"23:59", 23, 59, false},
		{"00:00", 0, 0, false},
		{"24:00", 0, 0, true},
		{"08:60", 0, 0, true},
		{"8", 0, 0, true},
		{"", 0, 0, true},
		{"ab:cd", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.clock, func(t *testing.T) {
			hour, minute, err := ParseClock(tt.clock)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHour, hour)
			assert.Equal(t, tt.wantMinute, minute)
		})
	}
}

func TestLateMinutes(t *testing.T) {
	day := func(hour, minute int) time.Time {
		return time.Date(2026, 3, 2, hour, minute, 0, 0, time.UTC)
	}

	tests := []struct {
		name       string
		checkIn    time.Time
		shiftStart string
		tolerance  int
		want       int
	}{
		{"on time", day(7, 55), "08:00", 15, 0},
		{"within tolerance", day(8, 10), "08:00", 15, 0},
		{"exactly at deadline", day(8, 15), "08:00", 15, 0},
		{"one past deadline counts from shift start", day(8, 16), "08:00", 15, 16},
		{"very late", day(10, 0), "08:00", 15, 120},
		{"no tolerance", day(8, 1), "08:00", 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LateMinutes(tt.checkIn, tt.shiftStart, tt.tolerance)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLateMinutesBadClock(t *testing.T) {
	_, err := LateMinutes(time.Now(), "25:00", 15)
	assert.Error(t, err)
}

func TestCountDaysInclusive(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		end     string
		want    int
		wantErr bool
	}{
		{"single day", "2026-03-02", "2026-03-02", 1, false},
		{"work week", "2026-03-02", "2026-03-06", 5, false},
		{"across month boundary", "2026-02-27", "2026-03-02", 4, false},
		{"reversed range", "2026-03-06", "2026-03-02", 0, true},
		{"bad start", "02-03-2026", "2026-03-06", 0, true},
		{"bad end", "2026-03-02", "garbage", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CountDaysInclusive(tt.start, tt.end)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsValidDate(t *testing.T) {
	assert.True(t, IsValidDate("2026-03-02"))
	assert.False(t, IsValidDate("2026-3-2"))
	assert.False(t, IsValidDate("02/03/2026"))
	assert.False(t, IsValidDate(""))
}
