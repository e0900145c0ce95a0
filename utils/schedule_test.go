package utils

import (
	"strings"
	"testing"
	"time"

	"lms/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setTestConfig() {
	config.AppConfig = &config.Config{
		MeetLinkBase: "https://meet.jit.si",
		SaltRound:    4,
	}
}

func TestToMinutes(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:30", 570, false},
		{"09:30:00", 570, false},
		{"23:59", 1439, false},
		{"23:59:59", 1439, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"-1:30", 0, true},
		{"12", 0, true},
		{"12:30:00:00", 0, true},
		{"ab:cd", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ToMinutes(tt.input)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.input)
		} else {
			require.NoError(t, err, "input %q", tt.input)
			assert.Equal(t, tt.want, got, "input %q", tt.input)
		}
	}
}

func TestMinutesOrZero(t *testing.T) {
	assert.Equal(t, 570, MinutesOrZero("09:30"))
	assert.Equal(t, 0, MinutesOrZero("garbage"))
	assert.Equal(t, 0, MinutesOrZero(""))
}

func TestIsOverlap(t *testing.T) {
	// Partial overlap
	assert.True(t, IsOverlap(540, 600, 570, 630))
	// Containment
	assert.True(t, IsOverlap(540, 660, 570, 600))
	// Identical
	assert.True(t, IsOverlap(540, 600, 540, 600))
	// Abutting intervals do not overlap
	assert.False(t, IsOverlap(540, 600, 600, 660))
	assert.False(t, IsOverlap(600, 660, 540, 600))
	// Disjoint
	assert.False(t, IsOverlap(540, 600, 720, 780))
	// Zero-length intervals never overlap
	assert.False(t, IsOverlap(540, 540, 500, 600))
	assert.False(t, IsOverlap(500, 600, 540, 540))
}

func TestIsOverlapSymmetry(t *testing.T) {
	cases := [][4]int{
		{540, 600, 570, 630},
		{540, 600, 600, 660},
		{540, 660, 570, 600},
		{540, 600, 720, 780},
	}
	for _, c := range cases {
		assert.Equal(t,
			IsOverlap(c[0], c[1], c[2], c[3]),
			IsOverlap(c[2], c[3], c[0], c[1]),
			"case %v", c)
	}
}

func TestResolveSessionID(t *testing.T) {
	assert.Equal(t, "42", ResolveSessionID("weekly-42"))
	assert.Equal(t, "42", ResolveSessionID("date-42"))
	assert.Equal(t, "42", ResolveSessionID("42"))
	assert.Equal(t, "abc", ResolveSessionID("abc"))
	assert.Equal(t, "", ResolveSessionID(""))
}

func TestSessionStatus(t *testing.T) {
	// Session 10:00-11:00
	start, end := 600, 660

	assert.Equal(t, StatusUpcoming, SessionStatus(500, start, end))
	// 15 minutes before start counts as live
	assert.Equal(t, StatusLiveNow, SessionStatus(585, start, end))
	assert.Equal(t, StatusUpcoming, SessionStatus(584, start, end))
	assert.Equal(t, StatusLiveNow, SessionStatus(600, start, end))
	assert.Equal(t, StatusLiveNow, SessionStatus(630, start, end))
	// End minute is inclusive
	assert.Equal(t, StatusLiveNow, SessionStatus(660, start, end))
}

func TestTodayDayValues(t *testing.T) {
	assert.Equal(t, []int{0, 7}, TodayDayValues(time.Sunday))
	assert.Equal(t, []int{1}, TodayDayValues(time.Monday))
	assert.Equal(t, []int{6}, TodayDayValues(time.Saturday))
}

func TestDayName(t *testing.T) {
	assert.Equal(t, "Sunday", DayName(0))
	assert.Equal(t, "Monday", DayName(1))
	assert.Equal(t, "Saturday", DayName(6))
	assert.Equal(t, "Sunday", DayName(7))
	assert.Equal(t, "Unknown", DayName(8))
	assert.Equal(t, "Unknown", DayName(-1))
}

func TestMeetLinks(t *testing.T) {
	setTestConfig()

	link := CourseMeetLink(12)
	assert.Equal(t, "https://meet.jit.si/LMS-Class-12", link)

	lecture := LectureMeetLink(12)
	assert.True(t, strings.HasPrefix(lecture, "https://meet.jit.si/LMS-Class-12-"))

	generated := GenerateMeetLink()
	assert.True(t, strings.HasPrefix(generated, "https://meet.jit.si/LMS-Class-"))
	assert.NotEqual(t, generated, GenerateMeetLink())
}

func TestNeedsLinkRegeneration(t *testing.T) {
	assert.True(t, NeedsLinkRegeneration(""))
	assert.True(t, NeedsLinkRegeneration("https://meet.google.com/abc-defg-hij"))
	assert.False(t, NeedsLinkRegeneration("https://meet.jit.si/LMS-Class-12"))
}
