// Package registry confirms that candidate declaration packages are
// published.
//
// [Verifier] fans lookups out over a bounded pool of goroutines. A failed
// lookup never aborts the batch: it is recorded as a [Failure] and the
// candidate is left out of the confirmed set. Results are sorted by name so
// network completion order never shows in the output.
package registry

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/typescout/pkg/cache"
	tserrors "github.com/matzehuels/typescout/pkg/errors"
	"github.com/matzehuels/typescout/pkg/observability"
)

// DefaultConcurrency bounds the number of in-flight lookups when
// [Verifier.Concurrency] is not set.
const DefaultConcurrency = 8

// Checker answers a single existence query. Implementations return the
// latest published version, or an error matching [cache.ErrNotFound] when
// the registry does not know the package.
type Checker interface {
	Lookup(ctx context.Context, name string) (version string, err error)
}

// CheckerFunc adapts a function to [Checker].
type CheckerFunc func(ctx context.Context, name string) (string, error)

// Lookup calls f.
func (f CheckerFunc) Lookup(ctx context.Context, name string) (string, error) { return f(ctx, name) }

// Confirmed is a candidate the registry reported as published.
type Confirmed struct {
	Name    string
	Version string
}

// Failure is a candidate that could not be confirmed.
type Failure struct {
	Name string
	Err  error
	// Missing is true when the registry answered that the package does not
	// exist. It is false for network errors, timeouts and cancellation.
	Missing bool
}

// Verification is the outcome of [Verifier.Verify]. Every input name
// appears in exactly one of the two slices.
type Verification struct {
	Confirmed []Confirmed
	Failures  []Failure
}

// Names returns the confirmed package names in order.
func (v Verification) Names() []string {
	names := make([]string, len(v.Confirmed))
	for i, c := range v.Confirmed {
		names[i] = c.Name
	}
	return names
}

// Unverified returns the failures that were not definite "does not exist"
// answers.
func (v Verification) Unverified() []Failure {
	var out []Failure
	for _, f := range v.Failures {
		if !f.Missing {
			out = append(out, f)
		}
	}
	return out
}

// Progress is called once per finished lookup, from a single goroutine.
type Progress func(name string, done, total int)

// Verifier checks candidate names against a registry.
type Verifier struct {
	Checker     Checker
	Concurrency int      // max in-flight lookups; DefaultConcurrency if <= 0
	Progress    Progress // optional
}

type outcome struct {
	name    string
	version string
	err     error
}

// Verify looks up every name and partitions the results. It never returns
// an error: when ctx is cancelled, lookups that had not finished are
// recorded as failures carrying the context error.
func (v *Verifier) Verify(ctx context.Context, names []string) Verification {
	names = dedupe(names)
	if len(names) == 0 {
		return Verification{}
	}

	ctx, span := observability.StartSpan(ctx, "registry.verify",
		attribute.Int("candidates", len(names)))
	defer observability.EndSpan(span, nil)

	limit := v.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	limit = min(limit, len(names))

	results := make(chan outcome, limit)
	collected := make(chan Verification, 1)
	go v.collect(results, len(names), collected)

	var g errgroup.Group
	g.SetLimit(limit)
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			results <- outcome{name: name, err: err}
			continue
		}
		g.Go(func() error {
			results <- v.lookup(ctx, name)
			return nil
		})
	}
	_ = g.Wait()
	close(results)

	return <-collected
}

func (v *Verifier) lookup(ctx context.Context, name string) outcome {
	ctx, span := observability.StartSpan(ctx, "registry.lookup",
		attribute.String("package", name))
	start := time.Now()

	version, err := v.Checker.Lookup(ctx, name)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}

	observability.Run().OnLookup(ctx, name, err == nil, time.Since(start), err)
	observability.EndSpan(span, err)
	return outcome{name: name, version: version, err: err}
}

// collect is the only writer to the result slices.
func (v *Verifier) collect(results <-chan outcome, total int, out chan<- Verification) {
	var res Verification
	done := 0
	for r := range results {
		done++
		if r.err != nil {
			res.Failures = append(res.Failures, classify(r.name, r.err))
		} else {
			res.Confirmed = append(res.Confirmed, Confirmed{Name: r.name, Version: r.version})
		}
		if v.Progress != nil {
			v.Progress(r.name, done, total)
		}
	}

	slices.SortFunc(res.Confirmed, func(a, b Confirmed) int { return strings.Compare(a.Name, b.Name) })
	slices.SortFunc(res.Failures, func(a, b Failure) int { return strings.Compare(a.Name, b.Name) })
	out <- res
}

func classify(name string, err error) Failure {
	switch {
	case errors.Is(err, cache.ErrNotFound):
		return Failure{Name: name, Missing: true,
			Err: tserrors.Wrap(tserrors.ErrCodeNotFound, err, "%s is not published", name)}
	case errors.Is(err, context.DeadlineExceeded):
		return Failure{Name: name,
			Err: tserrors.Wrap(tserrors.ErrCodeTimeout, err, "lookup of %s timed out", name)}
	default:
		return Failure{Name: name,
			Err: tserrors.Wrap(tserrors.ErrCodeRegistry, err, "lookup of %s failed", name)}
	}
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n != "" && !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
