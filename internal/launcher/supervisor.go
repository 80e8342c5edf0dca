package launcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/equinor/fmu-settings-cli/internal/model"
	"github.com/equinor/fmu-settings-cli/internal/token"

	"golang.org/x/sync/errgroup"
)

// Worker names as shown to the user.
const (
	APIService = "API"
	GUIService = "GUI"
)

// pollInterval is a liveness check only: it bounds how quickly a crash
// is detected, not how quickly the servers become ready.
const pollInterval = 500 * time.Millisecond

// Environment passed to supervised workers.
const (
	EnvToken      = "FMU_SETTINGS_TOKEN"
	EnvSupervised = "FMU_SETTINGS_SUPERVISED"
)

// Handle is the supervisor's grip on a launched worker.
type Handle interface {
	Terminate()
}

// SpawnFunc launches one worker. The default re-executes the launcher
// binary; tests substitute their own.
type SpawnFunc func(name string, command Command, results chan<- Result) (Handle, error)

// Options are the launch parameters for dual-service mode. Immutable
// once handed to New.
type Options struct {
	Host    string
	APIPort int
	GUIPort int
	Reload  bool
}

// Supervisor launches the API and GUI workers, opens the browser at the
// authorized URL and polls both workers until the first completion, a
// user interrupt, or context cancellation. Whatever the exit path, both
// workers are terminated before Run returns.
type Supervisor struct {
	opts  Options
	token token.Token

	poll    time.Duration
	spawn   SpawnFunc
	openURL func(url string) error
	stdout  io.Writer
	stderr  io.Writer

	results    chan Result
	workers    map[string]Handle
	quitNotice bool
}

func New(opts Options, tok token.Token) *Supervisor {
	return &Supervisor{
		opts:  opts,
		token: tok,
		poll:  pollInterval,
		spawn: func(name string, command Command, results chan<- Result) (Handle, error) {
			return Spawn(name, command, results)
		},
		openURL: openBrowser,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		results: make(chan Result, 2),
		workers: make(map[string]Handle, 2),
	}
}

// WithSpawner replaces how workers are launched. This method exists for
// unit testing only.
func (s *Supervisor) WithSpawner(fn SpawnFunc) *Supervisor {
	s.spawn = fn
	return s
}

// WithBrowser replaces the browser-open task. This method exists for
// unit testing only.
func (s *Supervisor) WithBrowser(fn func(url string) error) *Supervisor {
	s.openURL = fn
	return s
}

// WithOutput redirects the user-facing notices. This method exists for
// unit testing only.
func (s *Supervisor) WithOutput(stdout, stderr io.Writer) *Supervisor {
	s.stdout = stdout
	s.stderr = stderr
	return s
}

// WithPollInterval shortens the monitoring poll. This method exists for
// unit testing only.
func (s *Supervisor) WithPollInterval(d time.Duration) *Supervisor {
	s.poll = d
	return s
}

// Run drives the launch to completion: Starting (spawn workers, open
// browser), Monitoring (bounded poll for the first completion), then an
// unconditional shutdown of both workers. A worker failure is reported,
// never returned: the supervisor always winds down in order. The
// returned error is non-nil only when launching itself fails.
func (s *Supervisor) Run(ctx context.Context) error {
	defer s.terminateAll()

	if err := s.start(ctx); err != nil {
		return err
	}
	if ctx.Err() != nil {
		// interrupted during startup, before monitoring began
		s.shutdownNotice()
		return nil
	}

	s.monitor(ctx)
	return nil
}

func (s *Supervisor) start(ctx context.Context) error {
	api, gui, err := s.commands()
	if err != nil {
		return err
	}

	for _, launch := range []struct {
		name    string
		command Command
	}{
		{APIService, api},
		{GUIService, gui},
	} {
		h, err := s.spawn(launch.name, launch.command, s.results)
		if err != nil {
			return fmt.Errorf("launching %s worker: %w", launch.name, err)
		}
		slog.DebugContext(ctx, "worker launched", "worker", launch.name)
		s.workers[launch.name] = h
	}

	// The browser task is issued only after both worker launches, and
	// its completion gates entry into monitoring. It finishes almost
	// immediately; the front-end tolerates a server that is not yet
	// ready.
	url := token.AuthorizedURL(s.opts.Host, s.opts.GUIPort, s.token)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.openURL(url)
	})
	if err := g.Wait(); err != nil {
		slog.WarnContext(ctx, "opening browser failed", "url", url, "error", err)
	}
	return nil
}

func (s *Supervisor) commands() (api, gui Command, err error) {
	exe, err := os.Executable()
	if err != nil {
		return api, gui, fmt.Errorf("resolving launcher binary: %w", err)
	}

	env := append(os.Environ(),
		EnvToken+"="+string(s.token),
		EnvSupervised+"=1",
	)

	api = Command{
		Path: exe,
		Args: []string{"api",
			"--host", s.opts.Host,
			"--port", strconv.Itoa(s.opts.APIPort),
			"--gui-host", s.opts.Host,
			"--gui-port", strconv.Itoa(s.opts.GUIPort),
		},
		Env: env,
	}
	if s.opts.Reload {
		api.Args = append(api.Args, "--reload")
	}

	gui = Command{
		Path: exe,
		Args: []string{"gui",
			"--host", s.opts.Host,
			"--port", strconv.Itoa(s.opts.GUIPort),
		},
		Env: env,
	}
	return api, gui, nil
}

func (s *Supervisor) monitor(ctx context.Context) {
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	noticed := false
	for {
		select {
		case <-ctx.Done():
			s.shutdownNotice()
			return
		case res := <-s.results:
			s.report(ctx, res)
			return
		case <-ticker.C:
			// both workers survived at least one poll interval
			if !noticed {
				fmt.Fprintln(s.stdout, "FMU Settings is running. Press CTRL+C to quit")
				noticed = true
			}
		}
	}
}

// report classifies the first completion and prints exactly one
// diagnostic line. The supervisor itself never fails from a worker
// error.
func (s *Supervisor) report(ctx context.Context, res Result) {
	slog.DebugContext(ctx, "worker completed",
		"worker", res.Name, "exit_code", res.ExitCode, "error", res.Err)

	switch {
	case res.ExitCode == model.ExitPortInUse:
		port := s.opts.APIPort
		if res.Name == GUIService {
			port = s.opts.GUIPort
		}
		slog.DebugContext(ctx, "worker failed",
			"error", &model.PortInUseError{Service: res.Name, Port: port})
		fmt.Fprintf(s.stderr,
			"Error: %s exited with exit code %d. Usually this means that another application is already using port %d.\n",
			res.Name, res.ExitCode, port)
	case res.ExitCode == model.ExitOK && res.Err == nil:
		fmt.Fprintf(s.stderr, "Error: %s. Please report this as a bug\n",
			&model.UnexpectedExitError{Service: res.Name})
	default:
		msg := strings.TrimSpace(res.Stderr)
		if msg == "" && res.Err != nil {
			msg = res.Err.Error()
		}
		fmt.Fprintf(s.stderr, "Error: %s\n",
			&model.RuntimeError{Service: res.Name, Message: msg})
	}
}

func (s *Supervisor) shutdownNotice() {
	if s.quitNotice {
		return
	}
	s.quitNotice = true
	fmt.Fprintln(s.stdout, "\nShutting down FMU Settings...")
}

func (s *Supervisor) terminateAll() {
	for name, h := range s.workers {
		slog.Debug("terminating worker", "worker", name)
		h.Terminate()
	}
}
