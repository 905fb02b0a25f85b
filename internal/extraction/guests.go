package extraction

import (
	"regexp"
	"strconv"
)

var guestPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(?:somos|para|son)\s+(\d+)\s*(?:personas|adultos|pax)?`),
	regexp.MustCompile(`(\d+)\s+(?:personas|adultos|pax)`),
	regexp.MustCompile(`\bpara\s+(\d+)\b`),
}

// ExtractGuests returns the guest count from the first matching pattern.
// A number that is the day part of a date ("para 10/12") is not a count.
func ExtractGuests(text string) (int, bool) {
	for _, re := range guestPatterns {
		for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
			numStart, numEnd := loc[2], loc[3]
			if numEnd < len(text) && (text[numEnd] == '/' || text[numEnd] == '-') {
				continue
			}
			n, err := strconv.Atoi(text[numStart:numEnd])
			if err != nil {
				continue
			}
			return n, true
		}
	}
	return 0, false
}
