// ABOUTME: Process runner that invokes external generator programs via os/exec with combined output capture.
// ABOUTME: Skips invocation when the output artifact already exists and removes partial output on failure.
package imagine

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"
)

// RunResult is the outcome of one Runner.Run call.
type RunResult struct {
	Succeeded bool
	// Output is the combined stdout and stderr of the program. Empty on a
	// cache hit.
	Output []byte
	// OutputExists reports whether the output artifact is on disk.
	OutputExists bool
	// Err carries the exec error on failure, for diagnostics only.
	Err error
}

// Runner invokes an external program on behalf of a handler.
type Runner interface {
	// Run executes program with args unless output already exists and force
	// is false. It never retries and imposes no timeout of its own.
	Run(ctx context.Context, program string, args []string, output string, force bool) RunResult
}

// Invocation is what a Recorder learns about each Run call.
type Invocation struct {
	Program   string
	Args      []string
	Output    string
	CacheHit  bool
	Succeeded bool
	ExitCode  int
	StartedAt time.Time
	Duration  time.Duration
}

// Recorder receives one Invocation per Run call. Recording errors are logged
// and otherwise ignored.
type Recorder interface {
	Record(inv Invocation) error
}

// ExecRunner is the os/exec backed Runner.
type ExecRunner struct {
	log      *Logger
	recorder Recorder
}

// NewExecRunner creates an ExecRunner. recorder may be nil.
func NewExecRunner(log *Logger, recorder Recorder) *ExecRunner {
	if log == nil {
		log = DiscardLogger()
	}
	return &ExecRunner{log: log.Named("Runner"), recorder: recorder}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, program string, args []string, output string, force bool) RunResult {
	argv := strings.Join(append([]string{program}, args...), " ")
	started := time.Now()

	if !force && fileExists(output) {
		r.log.Warnf("exists: %s", argv)
		r.record(Invocation{
			Program:   program,
			Args:      args,
			Output:    output,
			CacheHit:  true,
			Succeeded: true,
			StartedAt: started,
		})
		return RunResult{Succeeded: true, OutputExists: true}
	}

	cmd := exec.CommandContext(ctx, program, args...)
	out, err := cmd.CombinedOutput()
	inv := Invocation{
		Program:   program,
		Args:      args,
		Output:    output,
		StartedAt: started,
		Duration:  time.Since(started),
	}

	if err != nil {
		if output != "" {
			_ = os.Remove(output)
		}
		inv.ExitCode = extractExitCode(err)
		r.record(inv)
		r.log.Errorf("fail: %s", argv)
		r.log.Errorf(" %s: %s", program, out)
		return RunResult{Output: out, Err: err}
	}

	inv.Succeeded = true
	r.record(inv)
	r.log.Warnf("ok: %s", argv)
	r.log.Debugf("captured %d bytes of output", len(out))
	return RunResult{Succeeded: true, Output: out, OutputExists: fileExists(output)}
}

func (r *ExecRunner) record(inv Invocation) {
	if r.recorder == nil {
		return
	}
	if err := r.recorder.Record(inv); err != nil {
		r.log.Warnf("could not record invocation of %s: %v", inv.Program, err)
	}
}

// extractExitCode pulls the exit code from an *exec.ExitError, defaulting to
// -1 when the program never ran.
func extractExitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
