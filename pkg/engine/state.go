package engine

import (
	"slices"
	"time"

	"github.com/matzehuels/typescout/pkg/candidates"
	"github.com/matzehuels/typescout/pkg/installer"
	"github.com/matzehuels/typescout/pkg/manifest"
	"github.com/matzehuels/typescout/pkg/registry"
	"github.com/matzehuels/typescout/pkg/selection"
)

// Options is the configuration surface of a run.
type Options struct {
	// Dir holds package.json. A path to the file itself is accepted.
	Dir string

	// DevDependencies fixes whether development dependencies feed the
	// candidate set. Nil leaves the decision to the scope prompt.
	DevDependencies *bool

	Interactive bool
	Install     bool

	Manager      installer.Manager
	ManagerFixed bool

	// Whitelist and Blacklist replace the built-in lists when non-nil.
	Whitelist []string
	Blacklist []string

	// Include and Exclude extend the manifest's own lists.
	Include []string
	Exclude []string

	// Timeout bounds registry verification. Zero means no limit.
	Timeout time.Duration
}

func (o Options) whitelist() []string {
	if o.Whitelist != nil {
		return o.Whitelist
	}
	return candidates.DefaultWhitelist
}

func (o Options) blacklist() []string {
	if o.Blacklist != nil {
		return o.Blacklist
	}
	return candidates.DefaultBlacklist
}

// RunState is threaded through the stages by value. A stage receives the
// state produced by the previous one and returns a new one; slices are
// never shared between states.
type RunState struct {
	Options Options

	Manifest   *manifest.Manifest
	IncludeDev bool
	Candidates []string

	Verification registry.Verification
	Outcome      selection.Outcome
	Report       *installer.Report
}

func (s RunState) withCandidates(names []string, includeDev bool) RunState {
	s.Candidates = slices.Clone(names)
	s.IncludeDev = includeDev
	return s
}

func (s RunState) withVerification(v registry.Verification) RunState {
	s.Verification = registry.Verification{
		Confirmed: slices.Clone(v.Confirmed),
		Failures:  slices.Clone(v.Failures),
	}
	return s
}

func (s RunState) withOutcome(o selection.Outcome) RunState {
	o.Selection = slices.Clone(o.Selection)
	s.Outcome = o
	return s
}

func (s RunState) withReport(r *installer.Report) RunState {
	s.Report = r
	return s
}

// Result summarizes a finished run.
type Result struct {
	RunID string

	// Candidates is every declaration package that was looked up.
	Candidates []string
	// Missing lists the confirmed declaration packages the project lacks.
	Missing   []registry.Confirmed
	Failures  []registry.Failure
	Outcome   selection.Outcome
	Installed []string
	Duration  time.Duration
}

// MissingNames returns the names in Missing.
func (r *Result) MissingNames() []string {
	names := make([]string, len(r.Missing))
	for i, m := range r.Missing {
		names[i] = m.Name
	}
	return names
}

func newResult(runID string, s RunState, elapsed time.Duration) *Result {
	res := &Result{
		RunID:      runID,
		Candidates: s.Candidates,
		Missing:    s.Verification.Confirmed,
		Failures:   s.Verification.Failures,
		Outcome:    s.Outcome,
		Duration:   elapsed,
	}
	if s.Report != nil {
		res.Installed = s.Report.Installed
	}
	return res
}
