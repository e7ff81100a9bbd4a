package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/matzehuels/typescout/pkg/cache"
	tserrors "github.com/matzehuels/typescout/pkg/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeChecker answers from a fixed table; names not in the table are
// reported missing.
type fakeChecker struct {
	versions map[string]string
	errs     map[string]error
	delay    func(name string) time.Duration
	calls    atomic.Int32
}

func (f *fakeChecker) Lookup(ctx context.Context, name string) (string, error) {
	f.calls.Add(1)
	if f.delay != nil {
		select {
		case <-time.After(f.delay(name)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err, ok := f.errs[name]; ok {
		return "", err
	}
	if v, ok := f.versions[name]; ok {
		return v, nil
	}
	return "", fmt.Errorf("%w: %s", cache.ErrNotFound, name)
}

func TestVerify(t *testing.T) {
	checker := &fakeChecker{
		versions: map[string]string{
			"@types/lodash":  "4.17.0",
			"@types/express": "5.0.0",
		},
		errs: map[string]error{
			"@types/flaky": cache.Retryable(cache.ErrNetwork),
		},
	}
	v := &Verifier{Checker: checker, Concurrency: 2}

	got := v.Verify(context.Background(), []string{
		"@types/lodash", "@types/nope", "@types/express", "@types/flaky",
	})

	wantConfirmed := []Confirmed{
		{Name: "@types/express", Version: "5.0.0"},
		{Name: "@types/lodash", Version: "4.17.0"},
	}
	if diff := cmp.Diff(wantConfirmed, got.Confirmed); diff != "" {
		t.Errorf("Confirmed mismatch (-want +got):\n%s", diff)
	}

	if len(got.Failures) != 2 {
		t.Fatalf("Failures = %v, want 2", got.Failures)
	}
	flaky, nope := got.Failures[0], got.Failures[1]
	if flaky.Name != "@types/flaky" || flaky.Missing {
		t.Errorf("flaky failure = %+v, want unverified", flaky)
	}
	if !tserrors.Is(flaky.Err, tserrors.ErrCodeRegistry) {
		t.Errorf("flaky error code = %s, want REGISTRY_QUERY_FAILED", tserrors.GetCode(flaky.Err))
	}
	if nope.Name != "@types/nope" || !nope.Missing {
		t.Errorf("nope failure = %+v, want missing", nope)
	}
	if !errors.Is(nope.Err, cache.ErrNotFound) {
		t.Errorf("nope error = %v, want ErrNotFound in chain", nope.Err)
	}

	if diff := cmp.Diff([]string{"@types/express", "@types/lodash"}, got.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
	if u := got.Unverified(); len(u) != 1 || u[0].Name != "@types/flaky" {
		t.Errorf("Unverified() = %v", u)
	}
}

func TestVerifyAllFail(t *testing.T) {
	checker := CheckerFunc(func(context.Context, string) (string, error) {
		return "", cache.Retryable(cache.ErrNetwork)
	})
	v := &Verifier{Checker: checker}

	got := v.Verify(context.Background(), []string{"@types/a", "@types/b", "@types/c"})
	if len(got.Confirmed) != 0 {
		t.Errorf("Confirmed = %v, want empty", got.Confirmed)
	}
	if len(got.Failures) != 3 {
		t.Errorf("Failures = %d, want 3", len(got.Failures))
	}
}

func TestVerifyEmpty(t *testing.T) {
	checker := &fakeChecker{}
	got := (&Verifier{Checker: checker}).Verify(context.Background(), nil)
	if len(got.Confirmed) != 0 || len(got.Failures) != 0 {
		t.Errorf("Verify(nil) = %+v, want zero value", got)
	}
	if checker.calls.Load() != 0 {
		t.Error("no lookups expected for an empty candidate set")
	}
}

func TestVerifyDeduplicates(t *testing.T) {
	checker := &fakeChecker{versions: map[string]string{"@types/a": "1.0.0"}}
	got := (&Verifier{Checker: checker}).Verify(context.Background(), []string{"@types/a", "@types/a", ""})

	if len(got.Confirmed) != 1 {
		t.Errorf("Confirmed = %v, want one entry", got.Confirmed)
	}
	if n := checker.calls.Load(); n != 1 {
		t.Errorf("lookups = %d, want 1", n)
	}
}

func TestVerifyOrderIndependentOfTiming(t *testing.T) {
	names := []string{"@types/a", "@types/b", "@types/c", "@types/d", "@types/e"}
	versions := make(map[string]string)
	for _, n := range names {
		versions[n] = "1.0.0"
	}
	// Earlier names finish last.
	delays := map[string]time.Duration{
		"@types/a": 25 * time.Millisecond,
		"@types/b": 20 * time.Millisecond,
		"@types/c": 15 * time.Millisecond,
		"@types/d": 10 * time.Millisecond,
		"@types/e": 5 * time.Millisecond,
	}
	checker := &fakeChecker{
		versions: versions,
		delay:    func(name string) time.Duration { return delays[name] },
	}

	got := (&Verifier{Checker: checker, Concurrency: 5}).Verify(context.Background(),
		[]string{"@types/e", "@types/c", "@types/a", "@types/d", "@types/b"})
	if diff := cmp.Diff(names, got.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
}

func TestVerifyBoundedConcurrency(t *testing.T) {
	const limit = 3
	var inFlight, peak atomic.Int32

	checker := CheckerFunc(func(ctx context.Context, name string) (string, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		return "1.0.0", nil
	})

	names := make([]string, 20)
	for i := range names {
		names[i] = fmt.Sprintf("@types/pkg%02d", i)
	}

	got := (&Verifier{Checker: checker, Concurrency: limit}).Verify(context.Background(), names)
	if len(got.Confirmed) != len(names) {
		t.Errorf("Confirmed = %d, want %d", len(got.Confirmed), len(names))
	}
	if p := peak.Load(); p > limit {
		t.Errorf("peak in-flight lookups = %d, want <= %d", p, limit)
	}
}

func TestVerifyCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var started sync.WaitGroup
	var calls atomic.Int32
	started.Add(2)
	checker := CheckerFunc(func(ctx context.Context, name string) (string, error) {
		if calls.Add(1) <= 2 {
			started.Done()
		}
		<-ctx.Done()
		return "", ctx.Err()
	})

	go func() {
		started.Wait()
		cancel()
	}()

	names := []string{"@types/a", "@types/b", "@types/c", "@types/d"}
	got := (&Verifier{Checker: checker, Concurrency: 2}).Verify(ctx, names)

	if len(got.Confirmed) != 0 {
		t.Errorf("Confirmed = %v, want empty after cancellation", got.Confirmed)
	}
	if len(got.Failures) != len(names) {
		t.Fatalf("Failures = %d, want %d", len(got.Failures), len(names))
	}
	for _, f := range got.Failures {
		if f.Missing {
			t.Errorf("%s marked missing; cancelled lookups are unverified", f.Name)
		}
		if !errors.Is(f.Err, context.Canceled) {
			t.Errorf("%s error = %v, want context.Canceled", f.Name, f.Err)
		}
	}
}

func TestVerifyTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	checker := &fakeChecker{
		versions: map[string]string{"@types/slow": "1.0.0"},
		delay:    func(string) time.Duration { return time.Second },
	}
	got := (&Verifier{Checker: checker}).Verify(ctx, []string{"@types/slow"})

	if len(got.Failures) != 1 || !tserrors.Is(got.Failures[0].Err, tserrors.ErrCodeTimeout) {
		t.Errorf("Failures = %+v, want one TIMEOUT", got.Failures)
	}
}

func TestVerifyProgress(t *testing.T) {
	checker := &fakeChecker{versions: map[string]string{"@types/a": "1.0.0"}}

	var seen []int
	v := &Verifier{
		Checker: checker,
		Progress: func(name string, done, total int) {
			if total != 3 {
				t.Errorf("total = %d, want 3", total)
			}
			seen = append(seen, done)
		},
	}
	v.Verify(context.Background(), []string{"@types/a", "@types/b", "@types/c"})

	if diff := cmp.Diff([]int{1, 2, 3}, seen); diff != "" {
		t.Errorf("progress mismatch (-want +got):\n%s", diff)
	}
}
