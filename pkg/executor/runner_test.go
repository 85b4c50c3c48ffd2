package executor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRunSuccess(t *testing.T) {
	r := NewRunner()
	res, err := r.Run(context.Background(), "echo hello")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !res.Success() || res.ExitCode != 0 {
		t.Errorf("expected success, got exit code %d", res.ExitCode)
	}
	if strings.TrimSpace(res.Stdout) != "hello" {
		t.Errorf("Stdout: got %q", res.Stdout)
	}
	if res.Combined != res.Stdout {
		t.Errorf("Combined should equal Stdout when stderr is empty")
	}
}

func TestRunFailure(t *testing.T) {
	r := NewRunner()
	res, err := r.Run(context.Background(), "exit 3")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Success() {
		t.Error("expected failure")
	}
	if res.ExitCode != 3 {
		t.Errorf("ExitCode: expected 3, got %d", res.ExitCode)
	}
}

func TestRunCombinedOutput(t *testing.T) {
	r := NewRunner()
	res, err := r.Run(context.Background(), "echo out; echo err >&2")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if strings.TrimSpace(res.Stdout) != "out" {
		t.Errorf("Stdout: got %q", res.Stdout)
	}
	if strings.TrimSpace(res.Stderr) != "err" {
		t.Errorf("Stderr: got %q", res.Stderr)
	}
	if res.Combined != res.Stdout+"\n"+res.Stderr {
		t.Errorf("Combined: got %q", res.Combined)
	}
}

func TestRunEmptyCommand(t *testing.T) {
	r := NewRunner()
	for _, cmd := range []string{"", "   ", "\t\n"} {
		if _, err := r.Run(context.Background(), cmd); !errors.Is(err, ErrEmptyCommand) {
			t.Errorf("Run(%q): expected ErrEmptyCommand, got %v", cmd, err)
		}
	}
}

func TestRunShellFeatures(t *testing.T) {
	r := NewRunner()
	res, err := r.Run(context.Background(), "printf 'a\\nb\\nc\\n' | wc -l")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if strings.TrimSpace(res.Stdout) != "3" {
		t.Errorf("pipeline output: got %q", res.Stdout)
	}
}

func TestRunTimeoutReportsSignalExit(t *testing.T) {
	r := NewRunner(WithTimeout(100 * time.Millisecond))
	res, err := r.Run(context.Background(), "sleep 5")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.ExitCode != -1 {
		t.Errorf("expected -1 sentinel for a killed process, got %d", res.ExitCode)
	}
}

func TestRunRecordsDuration(t *testing.T) {
	r := NewRunner()
	res, err := r.Run(context.Background(), "sleep 0.2")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Duration < 150*time.Millisecond {
		t.Errorf("Duration too small: %v", res.Duration)
	}
}
