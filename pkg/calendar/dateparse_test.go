package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDueDate(t *testing.T) {
	vancouver, err := time.LoadLocation("America/Vancouver")
	if err != nil {
		vancouver = time.UTC
	}

	tests := []struct {
		raw       string
		wantOK    bool
		wantStart time.Time
		wantEnd   time.Time
	}{
		{"Jan 12, 11:59 pm", true, time.Date(2026, 1, 12, 23, 59, 0, 0, vancouver), time.Date(2026, 1, 13, 0, 0, 0, 0, vancouver)},
		{"Jan 12, 12:00 a.m.", true, time.Date(2026, 1, 12, 0, 0, 0, 0, vancouver), time.Date(2026, 1, 12, 0, 1, 0, 0, vancouver)},
		{"Feb 3, 12:30 pm (Canvas)", true, time.Date(2026, 2, 3, 12, 30, 0, 0, vancouver), time.Date(2026, 2, 3, 12, 31, 0, 0, vancouver)},
		{"March 4, 9:00 am", true, time.Date(2026, 3, 4, 9, 0, 0, 0, vancouver), time.Date(2026, 3, 4, 9, 1, 0, 0, vancouver)},
		{"Apr 2, 17:00", true, time.Date(2026, 4, 2, 17, 0, 0, 0, vancouver), time.Date(2026, 4, 2, 17, 1, 0, 0, vancouver)},
		{"Feb 9, 10, 11", true, time.Date(2026, 2, 9, 0, 0, 0, 0, vancouver), time.Date(2026, 2, 11, 23, 59, 0, 0, vancouver)},
		{"Mar 16-17-18", true, time.Date(2026, 3, 16, 0, 0, 0, 0, vancouver), time.Date(2026, 3, 18, 23, 59, 0, 0, vancouver)},
		{"Mar 16", true, time.Date(2026, 3, 16, 0, 0, 0, 0, vancouver), time.Date(2026, 3, 16, 23, 59, 0, 0, vancouver)},
		{"TBA", false, time.Time{}, time.Time{}},
		{"", false, time.Time{}, time.Time{}},
		{"Feb 30", false, time.Time{}, time.Time{}},
		{"Mar 18-16", false, time.Time{}, time.Time{}},
		{"Jan 12, 13:00 pm", false, time.Time{}, time.Time{}},
		{"sometime in spring", false, time.Time{}, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			start, end, ok := ParseDueDate(tt.raw, 2026, vancouver)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			assert.True(t, tt.wantStart.Equal(start), "start %s", start)
			assert.True(t, tt.wantEnd.Equal(end), "end %s", end)
		})
	}
}
