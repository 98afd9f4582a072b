package weibo

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	numberRe  = regexp.MustCompile(`(\d+)`)
	clockRe   = regexp.MustCompile(`(\d{1,2}):(\d{2})`)
	htmlTagRe = regexp.MustCompile(`<[^>]+>`)
)

// absoluteFormats are the absolute timestamp layouts Weibo uses across its
// endpoints, most specific first. The RFC2822 variant comes from the mobile
// API ("Mon Mar 01 01:27:11 +0800 2021").
var absoluteFormats = []string{
	"Mon Jan 02 15:04:05 -0700 2006",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01-02 15:04",
	"2006年01月02日 15:04:05",
	"2006年01月02日 15:04",
	"2006年01月02日",
	"01月02日 15:04",
	"01月02日",
}

// ParseTime parses a Weibo timestamp string, which may be relative
// ("5分钟前", "今天 08:30") or absolute in one of several layouts. The zero
// time is returned when nothing matches; the orchestrator substitutes the
// ingestion time then.
func ParseTime(s string) time.Time {
	return parseTimeAt(s, time.Now())
}

// parseTimeAt is ParseTime with an injectable reference time for tests.
func parseTimeAt(s string, now time.Time) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}

	switch {
	case strings.Contains(s, "秒前"):
		return now.Add(-time.Duration(firstNumber(s)) * time.Second)
	case strings.Contains(s, "分钟前"):
		return now.Add(-time.Duration(firstNumber(s)) * time.Minute)
	case strings.Contains(s, "小时前"):
		return now.Add(-time.Duration(firstNumber(s)) * time.Hour)
	case strings.Contains(s, "天前"):
		return now.AddDate(0, 0, -firstNumber(s))
	case strings.Contains(s, "今天"):
		if h, m, ok := clockOf(s); ok {
			return time.Date(now.Year(), now.Month(), now.Day(), h, m, 0, 0, now.Location())
		}
		return time.Time{}
	case strings.Contains(s, "昨天"):
		if h, m, ok := clockOf(s); ok {
			y := now.AddDate(0, 0, -1)
			return time.Date(y.Year(), y.Month(), y.Day(), h, m, 0, 0, now.Location())
		}
		return time.Time{}
	}

	for _, layout := range absoluteFormats {
		t, err := time.ParseInLocation(layout, s, now.Location())
		if err != nil {
			continue
		}
		// Layouts without a year parse as year 0; fill in the current one.
		if t.Year() == 0 {
			t = t.AddDate(now.Year(), 0, 0)
		}
		return t
	}

	return time.Time{}
}

func firstNumber(s string) int {
	m := numberRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

func clockOf(s string) (hour, minute int, ok bool) {
	m := clockRe.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	return hour, minute, true
}

// stripHTML removes markup from mobile API text, which arrives as an HTML
// fragment.
func stripHTML(s string) string {
	return strings.TrimSpace(htmlTagRe.ReplaceAllString(s, ""))
}
