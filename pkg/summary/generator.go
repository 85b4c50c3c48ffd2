// Package summary decides how a wrapped command's output becomes a short
// human-readable summary and attaches the result to the command's record.
//
// The decision is linear with no retries: blank output gets a templated
// sentence, short output is returned verbatim, and long output gets exactly
// one summarization attempt with deterministic truncation as the fallback.
package summary

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/entrhq/ctxguard/pkg/config"
	"github.com/entrhq/ctxguard/pkg/executor"
	"github.com/entrhq/ctxguard/pkg/llm"
	"github.com/entrhq/ctxguard/pkg/logging"
	"github.com/entrhq/ctxguard/pkg/record"
)

// Generator combines the record store, the summarization service, and the
// configuration into the summarization decision.
type Generator struct {
	store      *record.Store
	summarizer llm.Summarizer
	cfg        *config.Config
	log        *logging.Logger
}

// NewGenerator creates a generator. The summarizer may be nil only if no
// command output ever exceeds the threshold, so callers should always pass
// one; the fallback still guards against a nil summarizer at call time.
func NewGenerator(store *record.Store, summarizer llm.Summarizer, cfg *config.Config, log *logging.Logger) *Generator {
	return &Generator{
		store:      store,
		summarizer: summarizer,
		cfg:        cfg,
		log:        log,
	}
}

// Generate produces the summary for a finished command, attaches it to the
// record at recordPath, and returns it. A failure to attach is logged as a
// warning and does not affect the returned summary or the caller's exit
// code handling.
func (g *Generator) Generate(ctx context.Context, command string, res *executor.Result, recordPath string) string {
	text := g.summaryFor(ctx, command, res)

	if err := g.store.AttachSummary(recordPath, text); err != nil {
		g.log.Warnf("summary: attach to %s: %v", recordPath, err)
	}
	return text
}

func (g *Generator) summaryFor(ctx context.Context, command string, res *executor.Result) string {
	seconds := res.Duration.Seconds()

	trimmed := strings.TrimSpace(res.Combined)
	if trimmed == "" {
		if res.Success() {
			return fmt.Sprintf("Command completed successfully in %.1f seconds with no output.", seconds)
		}
		return fmt.Sprintf("Command failed after %.1f seconds with exit code %d and no output.", seconds, res.ExitCode)
	}

	status := "succeeded"
	if !res.Success() {
		status = "failed"
	}

	threshold := g.cfg.OutputLengthThreshold(command)
	if len(strings.Fields(trimmed)) <= threshold {
		return fmt.Sprintf("%s %s after %.1f seconds (output shorter than %d words; returning raw output):\n\n%s",
			command, status, seconds, threshold, trimmed)
	}

	text, err := g.summarize(ctx, command, res)
	if err == nil {
		return text
	}
	g.log.Infof("summary: falling back to truncation for %q: %v", command, err)

	truncated := Truncate(res.Combined, DefaultContextLines)
	return fmt.Sprintf("%s %s after %.1f seconds. Output:\n\n%s", command, status, seconds, truncated)
}

// summarize performs the single external summarization attempt.
func (g *Generator) summarize(ctx context.Context, command string, res *executor.Result) (string, error) {
	if g.summarizer == nil {
		return "", llm.ErrTransport
	}
	prompt := g.cfg.RenderPrompt(config.PromptVars{
		Command:        command,
		ExitCode:       res.ExitCode,
		Output:         res.Combined,
		SummaryWords:   g.cfg.SummaryWords(command),
		RecentCommands: g.recentCommandsText(),
	})
	return g.summarizer.Summarize(ctx, prompt)
}

// recentCommandsText renders the prompt context listing what ran recently.
// It is empty when the recency window is disabled or nothing ran inside it.
func (g *Generator) recentCommandsText() string {
	minutes := g.cfg.CommandContextMinutes
	if minutes <= 0 {
		return ""
	}
	entries := g.store.Recent(time.Duration(minutes) * time.Minute)
	if len(entries) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("recently run commands:\n")
	for _, e := range entries {
		status := "succeeded"
		if e.ExitCode != 0 {
			status = "failed"
		}
		fmt.Fprintf(&sb, "- %s, %s\n", e.Command, status)
	}
	sb.WriteString("\n")
	return sb.String()
}
