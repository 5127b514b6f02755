package functional

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cucumber/godog"
)

// aCleanVerseHome is a no-op; the Before hook creates a fresh home per
// scenario. The step keeps feature files readable.
func aCleanVerseHome(ctx context.Context) (context.Context, error) {
	return ctx, nil
}

func theEnvironmentVariableIs(ctx context.Context, name, value string) (context.Context, error) {
	state := getState(ctx)
	state.env = append(state.env, name+"="+value)
	return ctx, nil
}

// aCatalogFileWith writes a catalog under the verse home.
func aCatalogFileWith(ctx context.Context, name string, body *godog.DocString) (context.Context, error) {
	state := getState(ctx)
	path := filepath.Join(state.homeDir, name)
	if err := os.WriteFile(path, []byte(body.Content), 0o644); err != nil {
		return ctx, err
	}
	return ctx, nil
}

// iRun executes a command line, replacing a leading "verse" with the
// binary under test.
func iRun(ctx context.Context, command string) (context.Context, error) {
	state := getState(ctx)
	if state == nil {
		return ctx, fmt.Errorf("no test state; is the Before hook running?")
	}

	args := strings.Fields(command)
	if len(args) > 0 && args[0] == "verse" {
		args[0] = state.binPath
	}

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Dir = state.homeDir
	cmd.Env = append(os.Environ(), "VERSE_HOME="+state.homeDir)
	cmd.Env = append(cmd.Env, state.env...)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	state.stdout = stdout.String()
	state.stderr = stderr.String()
	state.exitCode = 0

	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &exitErr):
		state.exitCode = exitErr.ExitCode()
	case err != nil:
		return ctx, fmt.Errorf("command execution failed: %w", err)
	}
	return ctx, nil
}

func theExitCodeIs(ctx context.Context, expected int) error {
	state := getState(ctx)
	if state.exitCode != expected {
		return fmt.Errorf("expected exit code %d, got %d\nstdout: %s\nstderr: %s",
			expected, state.exitCode, state.stdout, state.stderr)
	}
	return nil
}

// unquote turns \" in step text into a literal quote so JSON fragments
// can be matched.
func unquote(text string) string {
	return strings.ReplaceAll(text, `\"`, `"`)
}

func theOutputContains(ctx context.Context, text string) error {
	text = unquote(text)
	state := getState(ctx)
	if !strings.Contains(state.stdout, text) {
		return fmt.Errorf("expected stdout to contain %q, got:\n%s", text, state.stdout)
	}
	return nil
}

func theOutputDoesNotContain(ctx context.Context, text string) error {
	text = unquote(text)
	state := getState(ctx)
	if strings.Contains(state.stdout, text) {
		return fmt.Errorf("expected stdout not to contain %q, got:\n%s", text, state.stdout)
	}
	return nil
}

func theErrorOutputContains(ctx context.Context, text string) error {
	state := getState(ctx)
	if !strings.Contains(state.stderr, text) {
		return fmt.Errorf("expected stderr to contain %q, got:\n%s", text, state.stderr)
	}
	return nil
}

func theOutputIsValidJSON(ctx context.Context) error {
	state := getState(ctx)
	if !json.Valid([]byte(state.stdout)) {
		return fmt.Errorf("stdout is not valid JSON:\n%s", state.stdout)
	}
	return nil
}

func theFileExists(ctx context.Context, path string) error {
	state := getState(ctx)
	full := filepath.Join(state.homeDir, path)
	if _, err := os.Stat(full); err != nil {
		return fmt.Errorf("expected file %q to exist: %w", full, err)
	}
	return nil
}

func theFileDoesNotExist(ctx context.Context, path string) error {
	state := getState(ctx)
	full := filepath.Join(state.homeDir, path)
	if _, err := os.Stat(full); err == nil {
		return fmt.Errorf("expected file %q not to exist", full)
	}
	return nil
}
