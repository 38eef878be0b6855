package i18n

import (
	"time"
)

// Layouts are Go reference-time layouts so translators can reorder fields.
const (
	defaultDateLayout  = "January 2, 2006"
	defaultClockLayout = "15:04"
)

// FormatDate returns the localized calendar date used for day separators.
func FormatDate(t time.Time) string {
	return t.Local().Format(T("common.date.layout", defaultDateLayout))
}

// FormatClock returns the localized wall-clock time shown next to a message.
func FormatClock(t time.Time) string {
	return t.Local().Format(T("common.time.layout", defaultClockLayout))
}

// DateChanged reports whether cur falls on a different local calendar day
// than prev. A zero prev always counts as a change.
func DateChanged(prev, cur time.Time) bool {
	if prev.IsZero() {
		return true
	}
	py, pm, pd := prev.Local().Date()
	cy, cm, cd := cur.Local().Date()
	return py != cy || pm != cm || pd != cd
}

// RelativeTime returns a human-readable relative time string (long form).
func RelativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return T("common.time.justNow", "just now")
	case d < time.Hour:
		return Tn("common.time.minsAgo", "{{.Count}} min ago", "{{.Count}} mins ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return Tn("common.time.hoursAgo", "{{.Count}} hour ago", "{{.Count}} hours ago", int(d.Hours()))
	default:
		return Tn("common.time.daysAgo", "{{.Count}} day ago", "{{.Count}} days ago", int(d.Hours()/24))
	}
}
