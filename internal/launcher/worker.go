package launcher

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
)

// stderrTailMax bounds how much worker stderr is kept for the failure
// report. The full stream still reaches the launcher's stderr live.
const stderrTailMax = 4096

// Command is the full invocation of one worker process.
type Command struct {
	Path string
	Args []string
	Env  []string
}

// Result is the single terminal outcome of a worker process.
type Result struct {
	Name     string
	ExitCode int
	Stderr   string // bounded tail of the worker's stderr
	Err      error  // wait error, nil when the process exited itself with code 0
}

// Worker is one supervised OS process running the API or GUI server.
type Worker struct {
	name string
	cmd  *exec.Cmd
	tail *tailWriter

	mu         sync.Mutex
	terminated bool
}

// Spawn starts the worker process and monitors it from an internal
// goroutine, which delivers exactly one Result on results. The channel
// must have capacity for it; Spawn never blocks on delivery.
func Spawn(name string, command Command, results chan<- Result) (*Worker, error) {
	cmd := exec.Command(command.Path, command.Args...)
	cmd.Env = command.Env

	tail := newTailWriter(stderrTailMax)
	cmd.Stdout = os.Stdout
	cmd.Stderr = io.MultiWriter(os.Stderr, tail)
	isolate(cmd)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s worker: %w", name, err)
	}

	w := &Worker{name: name, cmd: cmd, tail: tail}
	go w.wait(results)
	return w, nil
}

func (w *Worker) wait(results chan<- Result) {
	err := w.cmd.Wait()

	res := Result{Name: w.name, Stderr: w.tail.String()}
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		res.ExitCode = 0
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
		res.Err = err
	default:
		res.ExitCode = -1
		res.Err = err
	}
	results <- res
}

// Terminate forcibly stops the worker process. It is idempotent and
// best-effort: terminating a worker that already exited is not an error.
func (w *Worker) Terminate() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.terminated {
		return
	}
	w.terminated = true
	if w.cmd.Process != nil {
		_ = w.cmd.Process.Kill()
	}
}

// tailWriter keeps the last max bytes written through it.
type tailWriter struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func newTailWriter(max int) *tailWriter {
	return &tailWriter{max: max}
}

func (t *tailWriter) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if len(t.buf) > t.max {
		t.buf = t.buf[len(t.buf)-t.max:]
	}
	return len(p), nil
}

func (t *tailWriter) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
