package record

import (
	"os"
	"path/filepath"
	"time"
)

// Sweep deletes records older than maxAge. Age is derived from the filename
// alone so the pass stays O(1) per file regardless of record size and works
// even when a header is missing or unparseable. Files whose names do not
// decode are left untouched, and a failed deletion is logged per file without
// aborting the rest of the sweep.
func (s *Store) Sweep(maxAge time.Duration) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.log.Warnf("record: sweep list %s: %v", s.dir, err)
		return
	}

	cutoff := timeNow().Add(-maxAge)
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		ts, ok := DecodeFilename(e.Name())
		if !ok {
			continue
		}
		if !ts.Before(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		if err := os.Remove(path); err != nil {
			s.log.Warnf("record: sweep remove %s: %v", path, err)
		}
	}
}
