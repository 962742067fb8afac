// Package extract holds the line-oriented helpers shared by the collector
// parsers: key/value splitting, unit conversion and peripheral
// classification.
package extract

import "strings"

// Sentinel values written in place of data a tool did not report.
const (
	Unknown      = "unknown"
	NotAvailable = "not available"
	Unavailable  = "unavailable"
)

// SplitKV splits line at the first sep and trims both halves. ok is false
// when sep does not occur.
func SplitKV(line, sep string) (key, value string, ok bool) {
	k, v, found := strings.Cut(line, sep)
	if !found {
		return "", "", false
	}
	return strings.TrimSpace(k), strings.TrimSpace(v), true
}

// Fields splits a line into whitespace-separated columns.
func Fields(line string) []string {
	return strings.Fields(line)
}

// Lines returns the lines of s with trailing carriage returns removed.
// wmic output on Windows uses CRLF. Lines of any length are kept whole.
func Lines(s string) []string {
	if s == "" {
		return nil
	}
	out := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	for i, line := range out {
		out[i] = strings.TrimRight(line, "\r")
	}
	return out
}

// LastField returns the final whitespace-separated token of line and the
// text before it.
func LastField(line string) (rest, last string) {
	f := strings.Fields(line)
	switch len(f) {
	case 0:
		return "", ""
	case 1:
		return "", f[0]
	default:
		return strings.Join(f[:len(f)-1], " "), f[len(f)-1]
	}
}

// OrUnknown returns v, or Unknown when v is blank.
func OrUnknown(v string) string {
	if strings.TrimSpace(v) == "" {
		return Unknown
	}
	return v
}
