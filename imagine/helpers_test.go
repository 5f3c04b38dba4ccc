// ABOUTME: Shared test helpers for the imagine package: a scripted fake Runner and engine construction.
// ABOUTME: The fake runner honors the same cache-hit rule as ExecRunner so caching can be asserted without real tools.
package imagine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type fakeCall struct {
	program string
	args    []string
	output  string
}

// fakeRunner records every invocation. When produce is set it is called in
// place of a real program; stdout is returned as captured output.
type fakeRunner struct {
	calls   []fakeCall
	stdout  []byte
	fail    bool
	produce func(args []string, output string)
}

func (f *fakeRunner) Run(_ context.Context, program string, args []string, output string, force bool) RunResult {
	if !force && fileExists(output) {
		return RunResult{Succeeded: true, OutputExists: true}
	}
	f.calls = append(f.calls, fakeCall{program: program, args: append([]string(nil), args...), output: output})
	if f.fail {
		return RunResult{Output: []byte("boom"), Err: errors.New("exit status 1")}
	}
	if f.produce != nil {
		f.produce(args, output)
	}
	return RunResult{Succeeded: true, Output: f.stdout, OutputExists: fileExists(output)}
}

// writesOutput returns a produce func that creates the output file.
func writesOutput(args []string, output string) {
	_ = os.WriteFile(output, []byte("image"), 0o644)
}

func newTestEngine(t *testing.T, runner Runner) (*Engine, string) {
	t.Helper()
	basedir := filepath.Join(t.TempDir(), "pd")
	e, err := NewEngine(EngineConfig{BaseDir: basedir, Runner: runner})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return e, basedir
}
