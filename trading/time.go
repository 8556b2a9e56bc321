// Package trading knows the TWSE trading calendar.
package trading

import "time"

// 台灣時區
var taipei = time.FixedZone("CST", 8*3600)

// TimeRange 時間範圍
type TimeRange struct {
	StartHour   int
	StartMinute int
	EndHour     int
	EndMinute   int
}

// 台股普通交易時段 09:00-13:30
var marketHours = []TimeRange{
	{9, 0, 13, 30},
}

// IsMarketOpen reports whether the TWSE continuous session is open now.
func IsMarketOpen() bool {
	return IsMarketOpenAt(time.Now())
}

// IsMarketOpenAt reports whether the TWSE continuous session is open
// at t. Exchange holidays are not modeled; the data sync simply gets
// no new bars on those days.
func IsMarketOpenAt(t time.Time) bool {
	t = t.In(taipei)

	weekday := t.Weekday()
	if weekday == time.Saturday || weekday == time.Sunday {
		return false
	}
	return isInTimeRanges(t, marketHours)
}

func isInTimeRanges(t time.Time, ranges []TimeRange) bool {
	currentMinutes := t.Hour()*60 + t.Minute()
	for _, r := range ranges {
		startMinutes := r.StartHour*60 + r.StartMinute
		endMinutes := r.EndHour*60 + r.EndMinute
		if currentMinutes >= startMinutes && currentMinutes <= endMinutes {
			return true
		}
	}
	return false
}
