package youtube

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// FormatSeconds renders a duration as a clock string, minutes and
// seconds always present, hours only when non-zero.
func FormatSeconds(total int) string {
	if total < 0 {
		total = 0
	}
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// ParseDurationText converts colon-separated duration text such as
// "1:02:03" to seconds. Garbage parses to zero.
func ParseDurationText(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}

	total := 0
	for _, part := range strings.Split(text, ":") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return 0
		}
		total = total*60 + n
	}
	return total
}

var nonDigits = regexp.MustCompile(`\D+`)

// digitsOnly strips everything but digits and parses the rest, so
// grouped counts like "1,234,567 views" become 1234567. Text without
// digits parses to zero.
func digitsOnly(text string) int64 {
	s := nonDigits.ReplaceAllString(text, "")
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func atoiSafe(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func runsText(runs []textRun) string {
	var b strings.Builder
	for _, run := range runs {
		b.WriteString(run.Text)
	}
	return b.String()
}

// widest picks the largest thumbnail variant.
func widest(raw []rawThumbnail) *Thumbnail {
	if len(raw) == 0 {
		return nil
	}
	best := raw[0]
	for _, t := range raw[1:] {
		if t.Width > best.Width {
			best = t
		}
	}
	return &Thumbnail{URL: best.URL, Width: best.Width, Height: best.Height}
}
