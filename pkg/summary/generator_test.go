package summary

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/entrhq/ctxguard/pkg/config"
	"github.com/entrhq/ctxguard/pkg/executor"
	"github.com/entrhq/ctxguard/pkg/llm"
	"github.com/entrhq/ctxguard/pkg/logging"
	"github.com/entrhq/ctxguard/pkg/record"
)

// stubSummarizer returns a fixed response or error and records invocations.
type stubSummarizer struct {
	response string
	err      error
	calls    int
	prompts  []string
}

func (s *stubSummarizer) Summarize(_ context.Context, prompt string) (string, error) {
	s.calls++
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func newTestGenerator(t *testing.T, summarizer llm.Summarizer, cfg *config.Config) (*Generator, *record.Store) {
	t.Helper()
	store, err := record.NewStore(filepath.Join(t.TempDir(), "records"), logging.Discard())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return NewGenerator(store, summarizer, cfg, logging.Discard()), store
}

func createRecord(t *testing.T, store *record.Store, command, body string, exitCode int) string {
	t.Helper()
	now := time.Now()
	meta := &record.Metadata{Command: command, ExitCode: exitCode, Timestamp: now}
	path, err := store.Create(record.EncodeFilename(command, now), body, meta)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return path
}

func result(body string, exitCode int, d time.Duration) *executor.Result {
	return &executor.Result{
		ExitCode: exitCode,
		Stdout:   body,
		Combined: body,
		Duration: d,
	}
}

func TestGenerateEmptyOutputSuccess(t *testing.T) {
	stub := &stubSummarizer{response: "unused"}
	g, store := newTestGenerator(t, stub, config.Default())
	path := createRecord(t, store, "true", "", 0)

	got := g.Generate(context.Background(), "true", result("", 0, 2340*time.Millisecond), path)

	want := "Command completed successfully in 2.3 seconds with no output."
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if stub.calls != 0 {
		t.Errorf("summarizer must not be called for empty output")
	}
}

func TestGenerateEmptyOutputFailure(t *testing.T) {
	g, store := newTestGenerator(t, &stubSummarizer{}, config.Default())
	path := createRecord(t, store, "false", "", 1)

	got := g.Generate(context.Background(), "false", result("   \n ", 1, 500*time.Millisecond), path)

	want := "Command failed after 0.5 seconds with exit code 1 and no output."
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestGenerateShortOutputVerbatim(t *testing.T) {
	stub := &stubSummarizer{response: "unused"}
	g, store := newTestGenerator(t, stub, config.Default())

	body := "one two three four five six seven eight nine ten eleven twelve thirteen fourteen fifteen"
	path := createRecord(t, store, "echo words", body, 0)

	got := g.Generate(context.Background(), "echo words", result(body, 0, time.Second), path)

	if !strings.Contains(got, "output shorter than 100 words; returning raw output") {
		t.Errorf("missing short-output preamble: %q", got)
	}
	if !strings.HasSuffix(got, body) {
		t.Errorf("raw body not returned verbatim: %q", got)
	}
	if !strings.HasPrefix(got, "echo words succeeded after 1.0 seconds") {
		t.Errorf("unexpected preamble: %q", got)
	}
	if stub.calls != 0 {
		t.Errorf("summarizer must not be called below the threshold")
	}
}

func longBody(lines int) string {
	var sb strings.Builder
	for i := 1; i <= lines; i++ {
		fmt.Fprintf(&sb, "line %d with several words of filler text\n", i)
	}
	return sb.String()
}

func TestGenerateLongOutputSummarized(t *testing.T) {
	stub := &stubSummarizer{response: "tests passed, two warnings about unused imports"}
	g, store := newTestGenerator(t, stub, config.Default())

	body := longBody(100)
	path := createRecord(t, store, "go test ./...", body, 0)

	got := g.Generate(context.Background(), "go test ./...", result(body, 0, time.Second), path)

	if got != stub.response {
		t.Errorf("expected summarizer text, got %q", got)
	}
	if stub.calls != 1 {
		t.Errorf("expected exactly one summarization attempt, got %d", stub.calls)
	}

	// The summary must now be attached to the record.
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read record: %v", err)
	}
	meta, ok := record.ParseMetadata(string(raw))
	if !ok {
		t.Fatal("record unparseable after attach")
	}
	if meta.Summary != stub.response {
		t.Errorf("attached summary: got %q", meta.Summary)
	}
}

func TestGenerateFallbackTruncation(t *testing.T) {
	stub := &stubSummarizer{err: llm.ErrTransport}
	g, store := newTestGenerator(t, stub, config.Default())

	body := longBody(500)
	path := createRecord(t, store, "npm run build", body, 1)

	got := g.Generate(context.Background(), "npm run build", result(body, 1, 12*time.Second), path)

	if !strings.HasPrefix(got, "npm run build failed after 12.0 seconds. Output:") {
		t.Errorf("unexpected fallback preamble: %q", got)
	}
	if !strings.Contains(got, "... (460 lines omitted) ...") {
		t.Errorf("missing omission marker: %q", got)
	}
	if !strings.Contains(got, "line 1 ") || !strings.Contains(got, "line 500 ") {
		t.Errorf("head/tail lines missing: %q", got)
	}
	if strings.Contains(got, "line 250 ") {
		t.Errorf("middle lines should be omitted")
	}
	if stub.calls != 1 {
		t.Errorf("expected exactly one attempt before fallback, got %d", stub.calls)
	}
}

func TestGenerateRecentCommandsContext(t *testing.T) {
	cfg := config.Default()
	cfg.CommandContextMinutes = 30

	stub := &stubSummarizer{response: "summary"}
	g, store := newTestGenerator(t, stub, cfg)

	// Two earlier records inside the window.
	createRecord(t, store, "cd workspace", "ok", 0)
	createRecord(t, store, "npx jest", "failing tests", 1)

	body := longBody(100)
	path := createRecord(t, store, "npm run build", body, 0)

	g.Generate(context.Background(), "npm run build", result(body, 0, time.Second), path)

	if len(stub.prompts) != 1 {
		t.Fatalf("expected one prompt, got %d", len(stub.prompts))
	}
	prompt := stub.prompts[0]
	if !strings.Contains(prompt, "recently run commands:") {
		t.Errorf("prompt missing recent commands section:\n%s", prompt)
	}
	if !strings.Contains(prompt, "- cd workspace, succeeded") {
		t.Errorf("prompt missing succeeded entry:\n%s", prompt)
	}
	if !strings.Contains(prompt, "- npx jest, failed") {
		t.Errorf("prompt missing failed entry:\n%s", prompt)
	}
}

func TestGenerateNoRecentContextWhenDisabled(t *testing.T) {
	stub := &stubSummarizer{response: "summary"}
	g, store := newTestGenerator(t, stub, config.Default()) // window disabled

	createRecord(t, store, "earlier command", "ok", 0)
	body := longBody(100)
	path := createRecord(t, store, "npm run build", body, 0)

	g.Generate(context.Background(), "npm run build", result(body, 0, time.Second), path)

	if strings.Contains(stub.prompts[0], "recently run commands:") {
		t.Errorf("recent commands rendered despite a disabled window")
	}
}

func TestGenerateAttachFailureStillReturnsSummary(t *testing.T) {
	g, store := newTestGenerator(t, &stubSummarizer{response: "s"}, config.Default())
	missing := filepath.Join(store.Dir(), "never_created_20240101_000000.txt")

	got := g.Generate(context.Background(), "true", result("", 0, time.Second), missing)
	if got == "" {
		t.Error("summary must be returned even when the attach fails")
	}
}

func TestTruncateShortOutputUnchanged(t *testing.T) {
	output := "line1\nline2\nline3"
	if got := Truncate(output, 20); got != output {
		t.Errorf("expected unchanged output, got %q", got)
	}
}

func TestTruncateLongOutput(t *testing.T) {
	var lines []string
	for i := 1; i <= 100; i++ {
		lines = append(lines, fmt.Sprintf("line%d", i))
	}
	got := Truncate(strings.Join(lines, "\n"), 20)

	if !strings.Contains(got, "line1\n") {
		t.Errorf("head missing: %q", got)
	}
	if !strings.HasSuffix(got, "line100") {
		t.Errorf("tail missing: %q", got)
	}
	if !strings.Contains(got, "... (60 lines omitted) ...") {
		t.Errorf("marker missing: %q", got)
	}
	if strings.Contains(got, "line50\n") {
		t.Errorf("omitted section leaked: %q", got)
	}
}
