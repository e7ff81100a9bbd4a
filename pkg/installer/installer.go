// Package installer adds declaration packages to a project as development
// dependencies.
//
// All selected packages go to the package manager in one invocation. A
// failed invocation is reported with its captured output and is never
// retried. Once started, the process runs to completion even if the caller's
// context is cancelled.
package installer

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel/attribute"

	tserrors "github.com/matzehuels/typescout/pkg/errors"
	"github.com/matzehuels/typescout/pkg/observability"
)

// Output is what a finished process left behind.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes a command in a directory. It returns an error when the
// process could not be started or exited non-zero; Output is populated as
// far as possible in both cases.
type Runner interface {
	Run(ctx context.Context, dir string, argv []string) (Output, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run starts argv[0] in dir and waits for it. The context is not used to
// kill the process.
func (ExecRunner) Run(_ context.Context, dir string, argv []string) (Output, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := Output{Stdout: stdout.String(), Stderr: stderr.String()}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		out.ExitCode = exitErr.ExitCode()
	default:
		out.ExitCode = -1
	}
	return out, err
}

// Report describes a finished installation.
type Report struct {
	Manager   Manager
	Command   []string // nil when nothing was installed
	Installed []string
	Duration  time.Duration
	Stdout    string
	Stderr    string
}

// Installer invokes a package manager.
type Installer struct {
	Runner Runner      // ExecRunner if nil
	Logger *log.Logger // log.Default() if nil
}

// New returns an Installer backed by os/exec.
func New(logger *log.Logger) *Installer {
	return &Installer{Runner: ExecRunner{}, Logger: logger}
}

// Install adds names to the project in dir as development dependencies.
// An empty names list succeeds without running anything. Failures are
// returned as INSTALLATION_FAILED errors wrapping a [tserrors.InstallError].
func (i *Installer) Install(ctx context.Context, dir string, m Manager, names []string) (*Report, error) {
	if len(names) == 0 {
		return &Report{Manager: m}, nil
	}
	if !m.Valid() {
		return nil, tserrors.New(tserrors.ErrCodeInvalidManager, "unsupported package manager %q", m)
	}

	names = slices.Clone(names)
	slices.Sort(names)
	names = slices.Compact(names)
	for _, name := range names {
		if err := tserrors.ValidateNpmPackageName(name); err != nil {
			return nil, err
		}
	}

	logger := i.logger()
	runner := i.Runner
	if runner == nil {
		runner = ExecRunner{}
	}

	argv := Command(m, names)
	ctx, span := observability.StartSpan(ctx, "installer.install",
		attribute.String("manager", m.String()),
		attribute.Int("packages", len(names)))

	logger.Info("running", "command", argv)
	start := time.Now()
	out, err := runner.Run(context.WithoutCancel(ctx), dir, argv)
	elapsed := time.Since(start)

	observability.Run().OnInstall(ctx, m.String(), len(names), elapsed, err)
	observability.EndSpan(span, err)

	if err != nil {
		ierr := &tserrors.InstallError{
			Command:  argv,
			Dir:      dir,
			ExitCode: out.ExitCode,
			Stdout:   out.Stdout,
			Stderr:   out.Stderr,
			Err:      err,
		}
		return nil, tserrors.Wrap(tserrors.ErrCodeInstallation, ierr, "%s could not install %d package(s)", m, len(names))
	}

	logger.Debug("installer output", "stdout", out.Stdout, "stderr", out.Stderr)
	return &Report{
		Manager:   m,
		Command:   argv,
		Installed: names,
		Duration:  elapsed,
		Stdout:    out.Stdout,
		Stderr:    out.Stderr,
	}, nil
}

func (i *Installer) logger() *log.Logger {
	if i.Logger != nil {
		return i.Logger
	}
	return log.Default()
}
