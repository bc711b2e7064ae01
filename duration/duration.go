// Package duration turns free-text duration ranges such as "1 - 2 hours" into
// minute estimates for proportional timeline bars.
package duration

import (
	"regexp"
	"strconv"
	"strings"
)

var numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

const (
	minutesPerHour = 60
	minutesPerDay  = 1440
)

// ParseToMinutes returns the midpoint of every number in text, scaled by the
// unit word it contains ("hour", then "day", minutes otherwise). A range and a
// flat value at its midpoint parse to the same result. ok is false for empty
// text or text without digits.
func ParseToMinutes(text string) (minutes float64, ok bool) {
	if text == "" {
		return 0, false
	}
	lowered := strings.ToLower(text)

	multiplier := 1.0
	switch {
	case strings.Contains(lowered, "hour"):
		multiplier = minutesPerHour
	case strings.Contains(lowered, "day"):
		multiplier = minutesPerDay
	}

	matches := numberPattern.FindAllString(lowered, -1)
	if len(matches) == 0 {
		return 0, false
	}

	var sum float64
	for _, m := range matches {
		v, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return 0, false
		}
		sum += v
	}

	return sum / float64(len(matches)) * multiplier, true
}

// ParseOptional is ParseToMinutes for a value that may be absent.
func ParseOptional(text *string) (float64, bool) {
	if text == nil {
		return 0, false
	}
	return ParseToMinutes(*text)
}
