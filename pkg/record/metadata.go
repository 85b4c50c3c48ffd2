// Package record implements the on-disk output record store: one plain-text
// file per wrapped command invocation, prefixed with a delimited metadata
// header and holding the command's captured output as an opaque body.
package record

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// StartMarker opens the metadata header block at the very start of a record.
	StartMarker = "---CTX_GUARD_METADATA---"
	// EndMarker closes the metadata header block.
	EndMarker = "---END_METADATA---"
)

// Metadata is the structured header prefixed to a record body. Summary is
// empty until the summarization phase attaches one.
type Metadata struct {
	Command   string
	ExitCode  int
	Timestamp time.Time
	Summary   string
}

// newlines in a summary would break the one-line-per-field header contract
var summaryCollapser = strings.NewReplacer("\n", " ", "\r", " ")

// Format renders the metadata header block, markers included. The returned
// text ends with the closing marker; callers separate it from the body with
// a blank line.
func (m *Metadata) Format() string {
	var sb strings.Builder
	sb.WriteString(StartMarker + "\n")
	fmt.Fprintf(&sb, "command: %s\n", m.Command)
	fmt.Fprintf(&sb, "exit_code: %d\n", m.ExitCode)
	fmt.Fprintf(&sb, "timestamp: %s\n", m.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(&sb, "summary: %s\n", summaryCollapser.Replace(m.Summary))
	sb.WriteString(EndMarker)
	return sb.String()
}

// ParseMetadata recovers a Metadata value from raw record contents. It is a
// best-effort line scan over the header span: unrecognized lines are ignored
// so extra fields can be added later without breaking old readers. It reports
// false when the content does not start with the opening marker, the closing
// marker is missing, any of command/exit_code/timestamp is absent, or a value
// fails to parse. Callers treat false as "not a record", never as an error.
func ParseMetadata(content string) (Metadata, bool) {
	if !strings.HasPrefix(content, StartMarker) {
		return Metadata{}, false
	}
	end := strings.Index(content, EndMarker)
	if end == -1 {
		return Metadata{}, false
	}

	var (
		m                           Metadata
		haveCmd, haveCode, haveTime bool
	)
	for _, line := range strings.Split(content[len(StartMarker):end], "\n") {
		switch {
		case strings.HasPrefix(line, "command: "):
			m.Command = strings.TrimPrefix(line, "command: ")
			haveCmd = true
		case strings.HasPrefix(line, "exit_code: "):
			code, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "exit_code: ")))
			if err != nil {
				return Metadata{}, false
			}
			m.ExitCode = code
			haveCode = true
		case strings.HasPrefix(line, "timestamp: "):
			ts, err := time.Parse(time.RFC3339, strings.TrimSpace(strings.TrimPrefix(line, "timestamp: ")))
			if err != nil {
				return Metadata{}, false
			}
			m.Timestamp = ts
			haveTime = true
		case strings.HasPrefix(line, "summary: "):
			m.Summary = strings.TrimSpace(strings.TrimPrefix(line, "summary: "))
		}
	}
	if !haveCmd || !haveCode || !haveTime {
		return Metadata{}, false
	}
	return m, true
}

// splitBody returns everything after the closing marker line, with the single
// blank separator line removed, so a header rewrite reproduces the body
// byte-for-byte.
func splitBody(content string) (string, bool) {
	idx := strings.Index(content, EndMarker)
	if idx == -1 {
		return "", false
	}
	rest := content[idx+len(EndMarker):]
	rest = strings.TrimPrefix(rest, "\n")
	rest = strings.TrimPrefix(rest, "\n")
	return rest, true
}
