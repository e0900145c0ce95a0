package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"lms/config"

	"github.com/google/uuid"
)

// Index 0..7; Sunday appears at both ends so the stored 1-7 convention and
// the platform 0-6 weekday both resolve.
var dayNames = [8]string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// Session display statuses
const (
	StatusLiveNow  = "Live Now"
	StatusUpcoming = "Upcoming"
)

// EarlyJoinGraceMinutes is how long before start a session counts as live
const EarlyJoinGraceMinutes = 15

// DayName returns the weekday name for a stored day-of-week value (0-7)
func DayName(day int) string {
	if day < 0 || day > 7 {
		return "Unknown"
	}
	return dayNames[day]
}

// ToMinutes converts a "HH:MM" or "HH:MM:SS" wall-clock string to minutes
// since midnight
func ToMinutes(timeStr string) (int, error) {
	parts := strings.Split(timeStr, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid time format: %q", timeStr)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("invalid time format: %q", timeStr)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid time format: %q", timeStr)
	}

	return hours*60 + minutes, nil
}

// MinutesOrZero is ToMinutes for stored rows, where a blank or mangled value
// degrades to a zero-length interval instead of failing the whole check
func MinutesOrZero(timeStr string) int {
	m, err := ToMinutes(timeStr)
	if err != nil {
		return 0
	}
	return m
}

// IsOverlap tests two half-open [start,end) minute intervals. Abutting
// intervals do not overlap; zero-length intervals never overlap anything.
func IsOverlap(startA, endA, startB, endB int) bool {
	return max(startA, startB) < min(endA, endB)
}

// ResolveSessionID strips the client-facing "weekly-" / "date-" prefix from a
// session identifier. Anything else passes through unchanged and fails the
// downstream lookup instead.
func ResolveSessionID(raw string) string {
	raw = strings.TrimPrefix(raw, "weekly-")
	return strings.TrimPrefix(raw, "date-")
}

// SessionStatus classifies a session relative to the current minute of day.
// Callers are expected to have filtered out sessions that already ended.
func SessionStatus(nowMinutes, startMinutes, endMinutes int) string {
	if nowMinutes >= startMinutes-EarlyJoinGraceMinutes && nowMinutes <= endMinutes {
		return StatusLiveNow
	}
	return StatusUpcoming
}

// TodayDayValues maps a platform weekday (Sunday=0) to the stored
// day-of-week values it matches. Sunday is stored as both 0 and 7.
func TodayDayValues(weekday time.Weekday) []int {
	if weekday == time.Sunday {
		return []int{0, 7}
	}
	return []int{int(weekday)}
}

// NowMinutes returns the current minutes-since-midnight for t
func NowMinutes(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// GenerateMeetLink builds a fresh video-room URL with a random room code
func GenerateMeetLink() string {
	code := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return fmt.Sprintf("%s/LMS-Class-%s", config.AppConfig.MeetLinkBase, code)
}

// CourseMeetLink derives the stable fallback room for a course
func CourseMeetLink(courseID uint) string {
	return fmt.Sprintf("%s/LMS-Class-%d", config.AppConfig.MeetLinkBase, courseID)
}

// LectureMeetLink mints a per-lecture room, unique via timestamp
func LectureMeetLink(courseID uint) string {
	return fmt.Sprintf("%s/LMS-Class-%d-%d", config.AppConfig.MeetLinkBase, courseID, time.Now().UnixMilli())
}

// NeedsLinkRegeneration reports whether a stored meeting link is unusable: it
// is empty, or it is a leftover calendar-integration link with no room behind it
func NeedsLinkRegeneration(link string) bool {
	return link == "" || strings.Contains(link, "meet.google.com")
}
