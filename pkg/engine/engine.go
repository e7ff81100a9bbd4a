// Package engine runs a complete check: read the manifest, derive
// declaration-package candidates, verify them against the registry, decide
// what to install, and install it.
//
// Each stage is a function from [RunState] to RunState. Only manifest and
// installation failures abort a run; registry failures degrade to
// "unverified" and are reported in [Result.Failures].
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/matzehuels/typescout/pkg/candidates"
	"github.com/matzehuels/typescout/pkg/installer"
	"github.com/matzehuels/typescout/pkg/manifest"
	"github.com/matzehuels/typescout/pkg/observability"
	"github.com/matzehuels/typescout/pkg/registry"
	"github.com/matzehuels/typescout/pkg/selection"
)

// Stage names, as passed to observability hooks.
const (
	StageManifest   = "manifest"
	StageCandidates = "candidates"
	StageVerify     = "verify"
	StageSelect     = "select"
	StageInstall    = "install"
)

// Runner executes runs. It holds collaborators only; a Runner may be reused
// for several sequential runs.
type Runner struct {
	Checker     registry.Checker
	Concurrency int
	Progress    registry.Progress

	Decider   selection.Decider // selection.Defaults if nil
	Installer *installer.Installer
	Logger    *log.Logger

	// Hooks receives stage events for this runner. Nil uses observability.Run().
	Hooks observability.RunHooks
}

// NewRunner creates a Runner. A nil decider answers every prompt with its
// default; a nil logger uses log.Default().
func NewRunner(checker registry.Checker, decider selection.Decider, inst *installer.Installer, logger *log.Logger) *Runner {
	if decider == nil {
		decider = selection.Defaults{}
	}
	if logger == nil {
		logger = log.Default()
	}
	if inst == nil {
		inst = installer.New(logger)
	}
	return &Runner{
		Checker:   checker,
		Decider:   decider,
		Installer: inst,
		Logger:    logger,
	}
}

type stage struct {
	name string
	run  func(context.Context, *log.Logger, RunState) (RunState, error)
}

// Run executes all stages for opts.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	if r.Checker == nil {
		return nil, fmt.Errorf("engine: no registry checker configured")
	}

	runID := uuid.NewString()
	logger := r.logger().With("run", runID)
	start := time.Now()

	ctx, span := observability.StartSpan(ctx, "typescout.run",
		attribute.String("run.id", runID),
		attribute.String("dir", opts.Dir))

	stages := []stage{
		{StageManifest, r.readManifest},
		{StageCandidates, r.buildCandidates},
		{StageVerify, r.verify},
		{StageSelect, r.selectPackages},
		{StageInstall, r.install},
	}

	state := RunState{Options: opts}
	for _, st := range stages {
		next, err := state, ctx.Err()
		if err == nil {
			next, err = r.runStage(ctx, logger, st, state)
		}
		if err != nil {
			observability.EndSpan(span, err)
			return nil, fmt.Errorf("%s: %w", st.name, err)
		}
		state = next
	}

	observability.EndSpan(span, nil)
	return newResult(runID, state, time.Since(start)), nil
}

func (r *Runner) runStage(ctx context.Context, logger *log.Logger, st stage, s RunState) (RunState, error) {
	hooks := r.hooks()
	hooks.OnStageStart(ctx, st.name)
	ctx, span := observability.StartSpan(ctx, "typescout."+st.name)

	start := time.Now()
	next, err := st.run(ctx, logger, s)

	hooks.OnStageComplete(ctx, st.name, time.Since(start), err)
	observability.EndSpan(span, err)
	return next, err
}

func (r *Runner) readManifest(_ context.Context, logger *log.Logger, s RunState) (RunState, error) {
	m, err := manifest.Load(s.Options.Dir)
	if err != nil {
		return s, err
	}
	logger.Debug("read manifest",
		"path", m.Path,
		"dependencies", len(m.Dependencies),
		"devDependencies", len(m.DevDependencies))
	s.Manifest = m
	return s, nil
}

func (r *Runner) buildCandidates(ctx context.Context, logger *log.Logger, s RunState) (RunState, error) {
	includeDev, err := selection.ScopeDecision(ctx, r.decider(), s.Options.DevDependencies, s.Options.Interactive)
	if err != nil {
		return s, err
	}

	m := s.Manifest
	names := candidates.Build(candidates.Input{
		Dependencies:    m.DependencyNames(),
		DevDependencies: m.DevDependencyNames(),
		IncludeDev:      includeDev,
		Whitelist:       s.Options.whitelist(),
		Blacklist:       s.Options.blacklist(),
		Include:         append(m.Config.Include.Names(), s.Options.Include...),
		Exclude:         append(m.Config.Exclude.Names(), s.Options.Exclude...),
	})
	logger.Debug("built candidates", "candidates", len(names), "devDependencies", includeDev)
	return s.withCandidates(names, includeDev), nil
}

func (r *Runner) verify(ctx context.Context, logger *log.Logger, s RunState) (RunState, error) {
	if s.Options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Options.Timeout)
		defer cancel()
	}

	start := time.Now()
	v := &registry.Verifier{
		Checker:     r.Checker,
		Concurrency: r.Concurrency,
		Progress:    r.Progress,
	}
	res := v.Verify(ctx, s.Candidates)

	for _, f := range res.Unverified() {
		logger.Debug("lookup failed", "package", f.Name, "err", f.Err)
	}
	logger.Info("verified candidates",
		"candidates", len(s.Candidates),
		"confirmed", len(res.Confirmed),
		"failed", len(res.Unverified()),
		"duration", time.Since(start))
	return s.withVerification(res), nil
}

func (r *Runner) selectPackages(ctx context.Context, logger *log.Logger, s RunState) (RunState, error) {
	orch := &selection.Orchestrator{
		Decider:      r.decider(),
		Interactive:  s.Options.Interactive,
		Install:      s.Options.Install,
		Manager:      s.Options.Manager,
		ManagerFixed: s.Options.ManagerFixed,
	}
	out, err := orch.Select(ctx, s.Verification.Names())
	if err != nil {
		return s, err
	}
	logger.Debug("selection finished", "state", out.State, "selected", len(out.Selection), "manager", out.Manager)
	return s.withOutcome(out), nil
}

func (r *Runner) install(ctx context.Context, _ *log.Logger, s RunState) (RunState, error) {
	if s.Outcome.State != selection.ReadyToInstall {
		return s, nil
	}
	// Once issued the install runs to completion, so never issue one for a
	// run that has already been cancelled.
	if err := ctx.Err(); err != nil {
		return s, err
	}
	inst := r.Installer
	if inst == nil {
		inst = installer.New(r.logger())
	}
	report, err := inst.Install(ctx, s.Manifest.Dir(), s.Outcome.Manager, s.Outcome.Selection)
	if err != nil {
		return s, err
	}
	return s.withReport(report), nil
}

func (r *Runner) decider() selection.Decider {
	if r.Decider != nil {
		return r.Decider
	}
	return selection.Defaults{}
}

func (r *Runner) hooks() observability.RunHooks {
	if r.Hooks != nil {
		return r.Hooks
	}
	return observability.Run()
}

func (r *Runner) logger() *log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.Default()
}
