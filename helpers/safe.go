// Package helpers provides small total utility functions used across the
// vendor parsers and persistence adapters — the same low-ceremony style
// as the teacher's currency formatter.
package helpers

import (
	"strconv"
	"strings"
	"time"
)

// SafeFloat parses s as a float64, returning nil for "", "None", or any
// unparsable input rather than failing. Vendor payloads routinely send
// these sentinel strings in place of a real number.
func SafeFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "None" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// SafeInt parses s as an int64, returning nil for "", "None", or any
// unparsable input.
func SafeInt(s string) *int64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "None" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

// dateLayout is the vendor's fiscal/calendar date format.
const dateLayout = "2006-01-02"

// newsTimestampLayout is the vendor's news-sentiment timestamp format.
const newsTimestampLayout = "20060102T150405"

// SafeDate parses s as a YYYY-MM-DD date, returning nil for "", "None", or
// any unparsable input.
func SafeDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" || s == "None" {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

// SafeNewsTimestamp parses s as a vendor news-sentiment timestamp
// (YYYYMMDDTHHMMSS), returning nil for "", "None", or any unparsable input.
func SafeNewsTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" || s == "None" {
		return nil
	}
	t, err := time.Parse(newsTimestampLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

// tradeTimestampLayout is fixed-width: 3-digit milliseconds and an explicit
// "Z" suffix, both always present, so the lexicographic order of rendered
// strings equals their temporal order. The KV-to-wide-column promotion
// path parses first_trade_time/last_trade_time back with this layout.
const tradeTimestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTradeTimestamp renders ts as the fixed-width ISO-8601 string used
// for first_trade_time/last_trade_time in the KV hot-aggregate store.
func FormatTradeTimestamp(ts time.Time) string {
	return ts.UTC().Format(tradeTimestampLayout)
}

// ParseTradeTimestamp is the inverse of FormatTradeTimestamp. It returns
// the zero time on a malformed input; callers that need to distinguish
// that from a genuine midnight-UTC timestamp should check the error too.
func ParseTradeTimestamp(s string) (time.Time, error) {
	return time.Parse(tradeTimestampLayout, s)
}

// RenderConditions renders a trade's condition codes as the literal textual
// list form stored in the wide-column trades table. Downstream readers treat
// this column as an opaque string, so the exact Go slice-printing form is
// the wire contract — preserved deliberately rather than re-encoded as JSON.
func RenderConditions(conditions []string) string {
	if len(conditions) == 0 {
		return "[]"
	}
	return "[" + strings.Join(conditions, " ") + "]"
}
