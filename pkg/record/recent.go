package record

import (
	"os"
	"path/filepath"
	"sort"
	"time"
)

// RecentEntry is one recency query hit: the command, how it exited, and when
// its record was created.
type RecentEntry struct {
	Command   string
	ExitCode  int
	Timestamp time.Time
}

// Recent returns the records whose header timestamp falls within the trailing
// window, ordered oldest first. Files that fail to parse are skipped. A
// directory-listing failure yields an empty result with a logged warning;
// this query feeds a best-effort context feature and must degrade, not crash.
func (s *Store) Recent(window time.Duration) []RecentEntry {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.log.Warnf("record: list %s: %v", s.dir, err)
		return nil
	}

	cutoff := timeNow().Add(-window)
	var out []RecentEntry
	for _, e := range entries {
		if !e.Type().IsRegular() || filepath.Ext(e.Name()) != Ext {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			continue
		}
		meta, ok := ParseMetadata(string(raw))
		if !ok {
			continue
		}
		if meta.Timestamp.Before(cutoff) {
			continue
		}
		out = append(out, RecentEntry{
			Command:   meta.Command,
			ExitCode:  meta.ExitCode,
			Timestamp: meta.Timestamp,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}
