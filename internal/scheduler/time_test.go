package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock12(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"09:30 AM", 9*60 + 30, false},
		{"12:00 PM", 12 * 60, false},
		{"12:00 AM", 0, false},
		{"11:45 PM", 23*60 + 45, false},
		{"13:00 PM", 0, true},
		{"not a time", 0, true},
	}
	for _, c := range cases {
		got, err := ParseClock12(c.in)
		if c.wantErr {
			assert.Error(t, err, c.in)
			continue
		}
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
}

func TestParseClock24(t *testing.T) {
	got, err := ParseClock24("09:30")
	require.NoError(t, err)
	assert.Equal(t, 9*60+30, got)

	_, err = ParseClock24("24:00")
	assert.Error(t, err)
}

func TestValidDuration(t *testing.T) {
	assert.True(t, ValidDuration(0.5))
	assert.True(t, ValidDuration(2.0))
	assert.False(t, ValidDuration(0))
	assert.False(t, ValidDuration(-1))
	assert.False(t, ValidDuration(0.75), "not a multiple of 30 minutes")
}

func TestWithinWorkingWindow(t *testing.T) {
	assert.True(t, WithinWorkingWindow(DayStartMinute, 1.0))
	assert.False(t, WithinWorkingWindow(DayStartMinute-30, 1.0))
	assert.False(t, WithinWorkingWindow(DayEndMinute-30, 1.0), "would spill past the working day")
}

// Property 5 (duration law): SegmentKeys always yields a positive multiple of
// 30-minute segments whose count matches the duration exactly.
func TestSegmentKeys_CountMatchesDuration(t *testing.T) {
	keys := SegmentKeys(9*60, 1.5)
	assert.Len(t, keys, 3)
	assert.Equal(t, []string{"09:00", "09:30", "10:00"}, keys)
}
