package logging

import "time"

// consoleTimeLayout is the local wall-clock layout of console records. JSON
// records use RFC 3339 in UTC instead.
const consoleTimeLayout = "2006-01-02 15:04:05"

// formatTimestamp renders ts for the console header; a zero time renders as
// nothing so records without a time keep their alignment.
func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Local().Format(consoleTimeLayout)
}
