// Package main provides the cg command wrapper. It executes an arbitrary
// shell command, persists the captured output as an annotated record, prints
// a short summary of the outcome, and exits with the wrapped command's own
// exit code so downstream scripts are unaffected.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/entrhq/ctxguard/pkg/config"
	"github.com/entrhq/ctxguard/pkg/executor"
	"github.com/entrhq/ctxguard/pkg/llm/openai"
	"github.com/entrhq/ctxguard/pkg/logging"
	"github.com/entrhq/ctxguard/pkg/record"
	"github.com/entrhq/ctxguard/pkg/summary"
)

const version = "0.1.0"

var footerStyle = lipgloss.NewStyle().Faint(true)

func main() {
	configPath := flag.String("config", "", "Path to configuration file (default: ~/.ctxguard/config.yaml)")
	apiKey := flag.String("api-key", os.Getenv("OPENAI_API_KEY"), "API key for the summarization provider (or set OPENAI_API_KEY env var)")
	showVersion := flag.Bool("version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "cg - wrap commands and summarize output for AI agents\n\n")
		fmt.Fprintf(os.Stderr, "Usage: cg [options] <command> [args...]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  cg npx jest\n")
		fmt.Fprintf(os.Stderr, "  cg -config ./cg.yaml go test ./...\n")
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("cg v%s\n", version)
		return
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}
	commandLine := strings.Join(flag.Args(), " ")

	// NewLogger falls back to stderr (and reports it) when the session log
	// file cannot be opened, so the error needs no extra handling here.
	logger, _ := logging.NewLogger("cg")

	// Ctrl-C cancels the summarization call; the wrapped command receives
	// the signal through the shared process group as usual.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	code := run(ctx, commandLine, *configPath, *apiKey, logger)

	// os.Exit skips deferred calls, so clean up explicitly.
	cancel()
	logger.Close()
	os.Exit(code)
}

func run(ctx context.Context, commandLine, configPath, apiKey string, logger *logging.Logger) int {
	cfg, warnings, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v. Using defaults.\n", err)
		logger.Warnf("config load: %v", err)
		cfg = config.Default()
	}
	for _, w := range warnings {
		logger.Warnf("config: %s", w)
	}

	store, err := record.NewStore(cfg.OutputDir, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	// Retention runs before the command so the directory never outlives its
	// configured age by more than one invocation.
	store.Sweep(time.Duration(cfg.CleanUpDays) * 24 * time.Hour)

	if cfg.Disabled(commandLine) {
		fmt.Fprintf(os.Stderr, "Command '%s' is disabled in configuration\n", commandLine)
		return 1
	}

	runner := executor.NewRunner()
	res, err := runner.Run(ctx, commandLine)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		return 1
	}

	now := time.Now()
	meta := &record.Metadata{
		Command:   commandLine,
		ExitCode:  res.ExitCode,
		Timestamp: now,
	}
	recordPath, err := store.Create(record.EncodeFilename(commandLine, now), res.Combined, meta)
	if err != nil {
		// Losing the record is the one storage failure that matters; exit
		// distinctly instead of pretending the invocation was recorded.
		fmt.Fprintf(os.Stderr, "Error writing output record: %v\n", err)
		return 1
	}

	summarizer := openai.NewClient(apiKey,
		openai.WithBaseURL(cfg.Provider.URL),
		openai.WithModel(cfg.Provider.Model),
	)
	generator := summary.NewGenerator(store, summarizer, cfg, logger)
	text := generator.Generate(ctx, commandLine, res, recordPath)

	fmt.Println(text)
	fmt.Println()
	fmt.Println(footerStyle.Render(fmt.Sprintf(
		"The complete output is available at %s, prefer reading parts of the output from the file (grep, tail, etc.) instead of the whole thing",
		recordPath)))

	return res.ExitCode
}
