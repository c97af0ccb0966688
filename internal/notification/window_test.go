package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	testCases := []struct {
		in      string
		minutes int
		ok      bool
	}{
		{"18:00", 1080, true},
		{"00:00", 0, true},
		{"23:59", 1439, true},
		{"7:30", 450, true},
		{" 16:00 ", 960, true},
		{"", 0, false},
		{"N/A", 0, false},
		{"n/a", 0, false},
		{"24:00", 0, false},
		{"12:60", 0, false},
		{"-1:30", 0, false},
		{"noon", 0, false},
		{"12", 0, false},
		{"12:30:15", 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			minutes, ok := ParseClock(tc.in)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.minutes, minutes)
			}
		})
	}
}

func TestEvaluateWindow(t *testing.T) {
	const target = 1080 // 18:00

	testCases := []struct {
		name    string
		now     int
		oneHour bool
		fiveMin bool
	}{
		{"one hour out exactly", 1020, true, false},  // 17:00
		{"inside one-hour window", 1024, true, false}, // 17:04
		{"one-hour window closed", 1025, false, false},
		{"just before one-hour window", 1019, false, false},
		{"five minutes out exactly", 1075, false, true}, // 17:55
		{"inside five-minute window", 1079, false, true},
		{"at target time", 1080, false, false},
		{"between windows", 1050, false, false},
		{"well before", 900, false, false},
		{"after target", 1100, false, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := EvaluateWindow(tc.now, target)
			assert.Equal(t, tc.oneHour, w.OneHourBefore, "one-hour-before")
			assert.Equal(t, tc.fiveMin, w.FiveMinutesBefore, "five-minutes-before")
			assert.Equal(t, tc.oneHour || tc.fiveMin, w.Match())
		})
	}
}

// The two windows can never both be true for a single target with a 5-minute
// width, and evaluating twice always yields the same answer.
func TestEvaluateWindow_MutuallyExclusiveAndPure(t *testing.T) {
	for target := 0; target < 1440; target += 17 {
		for now := 0; now < 1440; now++ {
			first := EvaluateWindow(now, target)
			require.False(t, first.OneHourBefore && first.FiveMinutesBefore,
				"both windows true for now=%d target=%d", now, target)
			assert.Equal(t, first, EvaluateWindow(now, target))
		}
	}
}

// Targets within an hour of midnight simply never fire the portion of a
// window that would fall on the previous day; there is no wraparound.
func TestEvaluateWindow_NoMidnightWraparound(t *testing.T) {
	w := EvaluateWindow(1430, 30) // 23:50 vs a 00:30 target
	assert.False(t, w.OneHourBefore)
	assert.False(t, w.FiveMinutesBefore)
}
