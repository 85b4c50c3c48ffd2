package record

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/entrhq/ctxguard/pkg/logging"
)

// timeNow is a package-level var to allow test injection.
var timeNow = time.Now

// Store owns a single retention directory of record files. It is not safe
// for concurrent cross-process use; one invocation is expected to touch the
// directory at a time.
type Store struct {
	dir string
	log *logging.Logger
}

// NewStore creates a store rooted at dir, creating the directory (including
// parents) if needed.
func NewStore(dir string, log *logging.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("record: init directory %s: %w", dir, err)
	}
	return &Store{dir: dir, log: log}, nil
}

// Dir returns the retention directory path.
func (s *Store) Dir() string {
	return s.dir
}

// Create writes a new record file and returns its full path. When meta is
// non-nil the body is prefixed with the formatted header and a blank
// separator line; otherwise the body is written verbatim. Filesystem errors
// are surfaced to the caller, never swallowed here.
func (s *Store) Create(filename, body string, meta *Metadata) (string, error) {
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return "", fmt.Errorf("record: init directory %s: %w", s.dir, err)
	}
	content := body
	if meta != nil {
		content = meta.Format() + "\n\n" + body
	}
	path := filepath.Join(s.dir, filename)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return "", fmt.Errorf("record: write %s: %w", path, err)
	}
	return path, nil
}

// AttachSummary rewrites a record's header with the given summary while
// preserving the body byte-for-byte. The header is always reconstructed from
// re-parsed mandatory fields rather than text-patched, so a malformed header
// is detected and the rewrite skipped instead of corrupted further. Files
// without the opening marker, or with an unrecoverable header, are left
// untouched; that is a no-op, not an error. The operation is idempotent.
func (s *Store) AttachSummary(path, summary string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("record: read %s: %w", path, err)
	}
	content := string(raw)
	if !strings.HasPrefix(content, StartMarker) {
		return nil
	}
	meta, ok := ParseMetadata(content)
	if !ok {
		return nil
	}
	body, ok := splitBody(content)
	if !ok {
		return nil
	}

	meta.Summary = summary
	rewritten := meta.Format() + "\n\n" + body
	if err := os.WriteFile(path, []byte(rewritten), 0o600); err != nil {
		return fmt.Errorf("record: rewrite %s: %w", path, err)
	}
	return nil
}
