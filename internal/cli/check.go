package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/typescout/pkg/config"
	"github.com/matzehuels/typescout/pkg/engine"
	tserrors "github.com/matzehuels/typescout/pkg/errors"
	"github.com/matzehuels/typescout/pkg/installer"
	"github.com/matzehuels/typescout/pkg/integrations/npm"
	"github.com/matzehuels/typescout/pkg/observability"
	"github.com/matzehuels/typescout/pkg/registry"
	"github.com/matzehuels/typescout/pkg/selection"
)

// maxExitCode keeps --error exit codes clear of the shell's reserved range.
const maxExitCode = 125

// ExitError asks main to exit with Code without printing anything further.
// Err is the already reported cause, if any.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// runCheck executes the check for the root command. Failures are printed
// here and returned as *ExitError.
func (c *CLI) runCheck(cmd *cobra.Command, flags *checkFlags) error {
	out := printer{w: c.out}
	err := c.check(cmd, flags, out)

	var exit *ExitError
	if err == nil || errors.As(err, &exit) {
		return err
	}
	c.reportError(out, err)
	code := 1
	if errors.Is(err, context.Canceled) {
		code = 130
	}
	return &ExitError{Code: code, Err: err}
}

func (c *CLI) check(cmd *cobra.Command, flags *checkFlags, out printer) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()

	dir := flags.path
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
		dir = wd
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, cfg, flags); err != nil {
		return err
	}
	if cfg.Source != "" {
		c.Logger.Debug("loaded config", "file", cfg.Source)
	}

	shutdown, err := observability.Setup(ctx, appName)
	if err != nil {
		c.Logger.Warn("tracing disabled", "err", err)
	} else {
		defer func() { _ = shutdown(context.WithoutCancel(ctx)) }()
	}

	store, err := c.newCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	client := npm.NewClient(store, cfg.Registry, cfg.CacheTTL)

	var decider selection.Decider = selection.Defaults{}
	if cfg.Interactive {
		decider = c.decider
		if decider == nil {
			decider = teaDecider{in: os.Stdin, out: os.Stderr}
		}
	}

	runner := engine.NewRunner(client, decider, installer.New(c.Logger), c.Logger)
	runner.Concurrency = cfg.Concurrency

	// The spinner only covers verification; prompts in the other stages
	// draw on the same terminal.
	var progress *verifyProgress
	if isTerminal(os.Stderr) && !c.verbose() {
		progress = &verifyProgress{RunHooks: observability.Run(), ctx: ctx, w: os.Stderr}
		runner.Hooks = progress
		runner.Progress = progress.update
	}

	res, err := runner.Run(ctx, engine.Options{
		Dir:             dir,
		DevDependencies: cfg.DevDependencies,
		Interactive:     cfg.Interactive,
		Install:         cfg.Install,
		Manager:         cfg.ManagerValue(),
		ManagerFixed:    cfg.ManagerFixed,
		Include:         cfg.Include,
		Exclude:         cfg.Exclude,
		Timeout:         cfg.Timeout,
	})
	progress.stop()
	if err != nil {
		return err
	}

	c.report(out, cfg, res)
	out.info("Done in %.2fs", time.Since(start).Seconds())

	if flags.errorMode {
		if n := len(res.Missing) - len(res.Installed); n > 0 {
			return &ExitError{Code: min(n, maxExitCode)}
		}
	}
	return nil
}

// applyFlags overlays explicitly set flags on cfg and revalidates it.
func applyFlags(cmd *cobra.Command, cfg *config.Config, flags *checkFlags) error {
	set := cmd.Flags().Changed

	if set("install") {
		cfg.Install = flags.install
	}
	if set("interactive") {
		cfg.Interactive = flags.interactive
	}
	if set("dev-dependencies") {
		v := flags.devDeps
		cfg.DevDependencies = &v
	}
	if set("manager") {
		cfg.Manager = flags.manager
		cfg.ManagerFixed = true
	}
	if set("use-yarn") && flags.useYarn {
		cfg.Manager = installer.Yarn.String()
		cfg.ManagerFixed = true
	}
	if set("no-cache") {
		cfg.NoCache = flags.noCache
	}
	if set("concurrency") {
		cfg.Concurrency = flags.concurrency
	}
	if set("timeout") {
		cfg.Timeout = flags.timeout
	}
	if set("registry") {
		cfg.Registry = flags.registry
	}
	return cfg.Validate()
}

// report prints the human-readable outcome of a run.
func (c *CLI) report(out printer, cfg *config.Config, res *engine.Result) {
	unverified := 0
	for _, f := range res.Failures {
		if !f.Missing {
			unverified++
		}
	}
	defer func() {
		if unverified > 0 {
			out.warning("%d registry lookup(s) failed; those packages were not checked", unverified)
			if !c.verbose() {
				out.detail("run with --verbose for details")
			}
		}
	}()

	if len(res.Missing) == 0 {
		out.success("No missing type declarations (%d checked)", len(res.Candidates))
		return
	}

	switch res.Outcome.State {
	case selection.ReadyToInstall:
		out.success("Installed %d type declaration(s) with %s", len(res.Installed), res.Outcome.Manager)
		c.printPackages(out, res.Missing, res.Installed)
		if skipped := len(res.Missing) - len(res.Installed); skipped > 0 {
			out.info("%d declaration(s) left out", skipped)
		}
	default:
		out.warning("%d missing type declaration(s)", len(res.Missing))
		c.printPackages(out, res.Missing, nil)
		if cfg.Interactive || cfg.Install {
			out.info("Nothing installed")
			return
		}
		out.nextStep("Install them", strings.Join(installer.Command(cfg.ManagerValue(), res.MissingNames()), " "))
		out.nextStep("Or let typescout do it", appName+" --install")
	}
}

// printPackages lists confirmed packages, restricted to only when non-nil.
func (c *CLI) printPackages(out printer, pkgs []registry.Confirmed, only []string) {
	keep := make(map[string]bool, len(only))
	for _, name := range only {
		keep[name] = true
	}
	for _, p := range pkgs {
		if only == nil || keep[p.Name] {
			out.pkg(p.Name, p.Version)
		}
	}
}

func (c *CLI) reportError(out printer, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}

	var ierr *tserrors.InstallError
	switch {
	case errors.As(err, &ierr):
		out.error("Installation failed: %s", ierr.Error())
		if output := ierr.Output(); output != "" {
			out.detail("%s", output)
		}
	case tserrors.Is(err, tserrors.ErrCodeManifestNotFound),
		tserrors.Is(err, tserrors.ErrCodeManifestParse),
		tserrors.Is(err, tserrors.ErrCodeInvalidConfig):
		out.error("%s", tserrors.UserMessage(err))
	default:
		out.error("%v", err)
	}
}

// verifyProgress shows a spinner while the verify stage runs and forwards
// every stage event to the wrapped hooks.
type verifyProgress struct {
	observability.RunHooks
	ctx  context.Context
	w    io.Writer
	spin *Spinner
}

func (p *verifyProgress) OnStageStart(ctx context.Context, stage string) {
	p.RunHooks.OnStageStart(ctx, stage)
	if stage == engine.StageVerify && p.spin == nil {
		p.spin = newSpinnerWithContext(p.ctx, p.w, "Checking registry...")
		p.spin.Start()
	}
}

func (p *verifyProgress) OnStageComplete(ctx context.Context, stage string, d time.Duration, err error) {
	if stage == engine.StageVerify {
		p.stop()
	}
	p.RunHooks.OnStageComplete(ctx, stage, d, err)
}

func (p *verifyProgress) update(name string, done, total int) {
	if p.spin != nil {
		p.spin.SetMessage(fmt.Sprintf("Checked %d/%d %s", done, total, name))
	}
}

// stop is safe on a nil receiver and when no spinner was started.
func (p *verifyProgress) stop() {
	if p != nil && p.spin != nil {
		p.spin.Stop()
	}
}
