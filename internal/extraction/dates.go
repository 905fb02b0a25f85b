package extraction

import (
	"regexp"
	"strconv"
	"time"
)

var (
	dayAfterTomorrowRE = regexp.MustCompile(`\bpasado\s+manana\b`)
	tomorrowRE         = regexp.MustCompile(`\bmanana\b`)
	todayRE            = regexp.MustCompile(`\bhoy\b`)
	dayRangeRE         = regexp.MustCompile(`\bdel\s+(\d{1,2})\s+al\s+(\d{1,2})\b`)
	dayMonthRE         = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})\b(?:\s*(?:al|a|hasta|-)\s*(\d{1,2})[/-](\d{1,2})\b)?`)
)

// relativeDays is checked in order; "pasado manana" contains "manana".
var relativeDays = []struct {
	re     *regexp.Regexp
	offset int
}{
	{dayAfterTomorrowRE, 2},
	{tomorrowRE, 1},
	{todayRE, 0},
}

// ExtractDates resolves check-in and check-out from normalized text relative
// to now. Relative phrases win over "del D al D", which wins over D/M dates.
// ok is false when nothing matched; check-out is not validated against
// check-in.
func ExtractDates(text string, now time.Time) (checkIn, checkOut time.Time, ok bool) {
	today := startOfDay(now)

	for _, rel := range relativeDays {
		if rel.re.MatchString(text) {
			checkIn = today.AddDate(0, 0, rel.offset)
			return checkIn, checkIn.AddDate(0, 0, 1), true
		}
	}

	if m := dayRangeRE.FindStringSubmatch(text); m != nil {
		if checkIn, checkOut, ok = resolveDayRange(m[1], m[2], today); ok {
			return checkIn, checkOut, true
		}
	}

	if m := dayMonthRE.FindStringSubmatch(text); m != nil {
		if checkIn, checkOut, ok = resolveDayMonth(m, today); ok {
			return checkIn, checkOut, true
		}
	}

	return time.Time{}, time.Time{}, false
}

// resolveDayRange places "del D al D" in the current month, or the next one
// when the start day already passed. An end day smaller than the start day
// crosses into the month after the check-in month.
func resolveDayRange(startStr, endStr string, today time.Time) (time.Time, time.Time, bool) {
	start, _ := strconv.Atoi(startStr)
	end, _ := strconv.Atoi(endStr)

	year, month := today.Year(), today.Month()
	if start < today.Day() {
		year, month = nextMonth(year, month)
	}
	checkIn, ok := calendarDate(year, month, start, today.Location())
	if !ok {
		return time.Time{}, time.Time{}, false
	}

	endYear, endMonth := year, month
	if end < start {
		endYear, endMonth = nextMonth(year, month)
	}
	checkOut, ok := calendarDate(endYear, endMonth, end, today.Location())
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	return checkIn, checkOut, true
}

// resolveDayMonth handles "D/M" with an optional "al D/M" end. Dates that
// already passed this year roll over to the next one.
func resolveDayMonth(m []string, today time.Time) (time.Time, time.Time, bool) {
	day, _ := strconv.Atoi(m[1])
	monthNum, _ := strconv.Atoi(m[2])
	if monthNum < 1 || monthNum > 12 {
		return time.Time{}, time.Time{}, false
	}
	month := time.Month(monthNum)

	year := today.Year()
	if month < today.Month() || (month == today.Month() && day < today.Day()) {
		year++
	}
	checkIn, ok := calendarDate(year, month, day, today.Location())
	if !ok {
		return time.Time{}, time.Time{}, false
	}

	checkOut := checkIn.AddDate(0, 0, 1)
	if m[3] != "" && m[4] != "" {
		endDay, _ := strconv.Atoi(m[3])
		endMonthNum, _ := strconv.Atoi(m[4])
		if endMonthNum >= 1 && endMonthNum <= 12 {
			endMonth := time.Month(endMonthNum)
			endYear := year
			if endMonth < month || (endMonth == month && endDay < day) {
				endYear++
			}
			if end, ok := calendarDate(endYear, endMonth, endDay, today.Location()); ok {
				checkOut = end
			}
		}
	}
	return checkIn, checkOut, true
}

func calendarDate(year int, month time.Month, day int, loc *time.Location) (time.Time, bool) {
	if day < 1 || day > daysIn(year, month) {
		return time.Time{}, false
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc), true
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func nextMonth(year int, month time.Month) (int, time.Month) {
	if month == time.December {
		return year + 1, time.January
	}
	return year, month + 1
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
