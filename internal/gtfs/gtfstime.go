package gtfs

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/GTD-TFS/bus/internal/clock"
)

// SecondsPerDay is one service day. Trip times past midnight keep
// counting, so valid clock values can exceed this.
const SecondsPerDay = 24 * 3600

// ParseClock converts a GTFS clock string ("HH:MM:SS" or "HH:MM") to
// seconds since service-day midnight. Hours beyond 24 are kept as-is:
// "25:10:00" parses to 90600. The second return is false when the
// string is missing parts or contains non-numeric fields.
func ParseClock(raw string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) < 2 {
		return 0, false
	}

	h, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, false
	}
	m, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, false
	}

	s := 0
	if len(parts) >= 3 {
		s, err = strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil {
			return 0, false
		}
	}

	return h*3600 + m*60 + s, true
}

// FormatClock renders seconds since service-day midnight as "HH:MM".
// Values past midnight wrap for display: 90600 renders as "01:10".
func FormatClock(sec int) string {
	sec %= SecondsPerDay
	if sec < 0 {
		sec += SecondsPerDay
	}
	return fmt.Sprintf("%02d:%02d", sec/3600, (sec%3600)/60)
}

// Snapshot fixes "now" for one query: the service date, its weekday and
// the seconds elapsed since local midnight. Computing it once keeps a
// whole search self-consistent even across a midnight rollover.
type Snapshot struct {
	ServiceDate string // YYYYMMDD in the feed's timezone
	Weekday     string // three-letter lowercase: "mon" .. "sun"
	Seconds     int    // seconds since local midnight
}

var weekdayKeys = [7]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

// NowInLocation captures the current moment in the feed's timezone.
func NowInLocation(c clock.Clock, loc *time.Location) Snapshot {
	now := c.Now().In(loc)
	return Snapshot{
		ServiceDate: now.Format("20060102"),
		Weekday:     weekdayKeys[int(now.Weekday())],
		Seconds:     now.Hour()*3600 + now.Minute()*60 + now.Second(),
	}
}
