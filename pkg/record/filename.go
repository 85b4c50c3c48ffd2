package record

import (
	"path/filepath"
	"strings"
	"time"
)

const (
	// Ext is the record file extension.
	Ext = ".txt"

	// maxSlugLen caps the command portion of a filename. Truncation happens
	// before the timestamp suffix is appended so the suffix stays intact.
	maxSlugLen = 50

	filenameTimeLayout = "20060102_150405"
)

// slugReplacer maps characters that are unsafe or ambiguous in filenames.
var slugReplacer = strings.NewReplacer(
	" ", "_",
	"/", "_",
	"\\", "_",
	"|", "_",
	"&", "_",
	";", "_",
	">", "_",
	"<", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"'", "_",
)

// EncodeFilename derives the record filename for a command executed at the
// given instant: a filesystem-safe slug of the command, truncated to 50
// characters, followed by the local timestamp at second precision. Two
// invocations of the same command within the same second collide; that is an
// accepted limitation, not something to paper over with extra entropy.
func EncodeFilename(command string, now time.Time) string {
	slug := slugReplacer.Replace(command)
	if runes := []rune(slug); len(runes) > maxSlugLen {
		slug = string(runes[:maxSlugLen])
	}
	return slug + "_" + now.Format(filenameTimeLayout) + Ext
}

// DecodeFilename recovers the embedded timestamp from a record filename.
// It reports false for anything that does not match the expected shape, so
// callers can skip foreign files silently.
func DecodeFilename(name string) (time.Time, bool) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	parts := strings.Split(stem, "_")
	if len(parts) < 3 {
		return time.Time{}, false
	}
	date := parts[len(parts)-2]
	clock := parts[len(parts)-1]
	if !allDigits(date, 8) || !allDigits(clock, 6) {
		return time.Time{}, false
	}
	ts, err := time.ParseInLocation(filenameTimeLayout, date+"_"+clock, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

func allDigits(s string, length int) bool {
	if len(s) != length {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
