package enquiry

import (
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// london is the firm's timezone, used for enquiry timestamps. If the tzdata
// is unavailable timestamps fall back to UTC.
var london = func() *time.Location {
	loc, err := time.LoadLocation("Europe/London")
	if err != nil {
		return time.UTC
	}
	return loc
}()

// Now returns the current time in the firm's timezone.
func Now() time.Time {
	return time.Now().In(london)
}

// NormalizePhone converts UK mobile and international formats to E.164, for
// example 07911123456 to +447911123456. Numbers in any other format are
// returned unchanged.
func NormalizePhone(phone string) string {
	if phone == "" {
		return phone
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	switch {
	case strings.HasPrefix(digits, "07") && len(digits) == 11:
		return "+44" + digits[1:]
	case strings.HasPrefix(digits, "447") && len(digits) == 12:
		return "+" + digits
	}
	return phone
}

var titleCaser = cases.Title(language.BritishEnglish)

// TitleCase renders a name in title case, so "jane SMITH" becomes
// "Jane Smith".
func TitleCase(name string) string {
	if name == "" {
		return name
	}
	return titleCaser.String(strings.ToLower(name))
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validRanks is the enquiry ranking enum.
var validRanks = map[string]bool{
	"1": true, "2": true, "3": true, "4": true, "5": true,
}

// ValidateRank returns the rank if it is a member of the ranking enum, and
// the default rank of "4" otherwise.
func ValidateRank(rank string) string {
	if validRanks[rank] {
		return rank
	}
	return "4"
}

// dateTimeLayouts are the formats accepted for enquiry datetimes, tried in
// order.
var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// EnsureDateTime returns the provided time, defaulting a zero time to now in
// the firm's timezone.
func EnsureDateTime(t time.Time) time.Time {
	if t.IsZero() {
		return Now()
	}
	return t
}

// ParseDateTime parses a datetime string, falling back to now in the firm's
// timezone if the string cannot be read.
func ParseDateTime(s string) time.Time {
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, london); err == nil {
			return t
		}
	}
	return Now()
}

var gclidRegexp = regexp.MustCompile(`[?&]gclid=([^&]+)`)

// ExtractGclid extracts a google click id from a referral url, returning the
// empty string if none is present.
func ExtractGclid(url string) string {
	matches := gclidRegexp.FindStringSubmatch(url)
	if matches == nil {
		return ""
	}
	return matches[1]
}
