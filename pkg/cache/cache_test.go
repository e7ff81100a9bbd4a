package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error: %v", err)
	}

	if _, hit, err := c.Get(ctx, "missing"); err != nil || hit {
		t.Fatalf("Get(missing) = %v, %v; want miss", hit, err)
	}

	if err := c.Set(ctx, "npm:lodash", []byte(`{"version":"4.17.21"}`), time.Hour); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	data, hit, err := c.Get(ctx, "npm:lodash")
	if err != nil || !hit {
		t.Fatalf("Get() = %v, %v; want hit", hit, err)
	}
	if string(data) != `{"version":"4.17.21"}` {
		t.Errorf("Get() data = %s", data)
	}

	if err := c.Delete(ctx, "npm:lodash"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "npm:lodash"); hit {
		t.Error("entry should be gone after Delete")
	}
	if err := c.Delete(ctx, "npm:lodash"); err != nil {
		t.Errorf("Delete() of missing key error: %v", err)
	}
}

func TestFileCache_Expiration(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "key", []byte("value"), 10*time.Millisecond); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "key"); !hit {
		t.Fatal("fresh entry should hit")
	}

	time.Sleep(20 * time.Millisecond)

	if _, hit, err := c.Get(ctx, "key"); hit || err != nil {
		t.Errorf("Get() = %v, %v; want expired miss", hit, err)
	}
}

func TestFileCache_CorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	fc := &FileCache{dir: t.TempDir()}

	path := fc.path("key")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, hit, err := fc.Get(ctx, "key"); hit || err != nil {
		t.Errorf("Get() = %v, %v; want miss", hit, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt entry should be removed")
	}
}

func TestFileCache_ConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Set(ctx, "shared", []byte(fmt.Sprintf("writer-%d", i)), time.Hour)
		}()
	}
	wg.Wait()

	data, hit, err := c.Get(ctx, "shared")
	if err != nil || !hit {
		t.Fatalf("Get() = %v, %v; want hit", hit, err)
	}
	if len(data) == 0 {
		t.Error("entry should hold one writer's payload")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}

	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()
	if got := k.HTTPKey("npm", "@types/node"); got != "http:npm:@types/node" {
		t.Errorf("HTTPKey unexpected: %s", got)
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "registry:abc:")
	if got := scoped.HTTPKey("npm", "express"); got != "registry:abc:http:npm:express" {
		t.Errorf("ScopedKeyer HTTPKey unexpected: %s", got)
	}

	other := NewScopedKeyer(nil, "registry:def:")
	if scoped.HTTPKey("npm", "x") == other.HTTPKey("npm", "x") {
		t.Error("different scopes should produce different keys")
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	err := Retryable(ErrNetwork)
	if err == nil {
		t.Fatal("Retryable should return wrapped error")
	}
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if !errors.Is(err, ErrNetwork) {
		t.Error("wrapped error should match ErrNetwork")
	}
	if err.Error() != ErrNetwork.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}

	if IsRetryable(ErrNotFound) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetry(t *testing.T) {
	ctx := context.Background()

	calls := 0
	err := Retry(ctx, 3, time.Millisecond, func() error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Errorf("success: err=%v calls=%d", err, calls)
	}

	calls = 0
	err = Retry(ctx, 3, time.Millisecond, func() error {
		calls++
		return ErrNotFound
	})
	if err != ErrNotFound || calls != 1 {
		t.Errorf("non-retryable: err=%v calls=%d", err, calls)
	}

	calls = 0
	err = Retry(ctx, 3, time.Millisecond, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrNetwork)
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("retry then succeed: err=%v calls=%d", err, calls)
	}

	calls = 0
	err = Retry(ctx, 3, time.Millisecond, func() error {
		calls++
		return Retryable(ErrNetwork)
	})
	if !errors.Is(err, ErrNetwork) || calls != 3 {
		t.Errorf("exhausted: err=%v calls=%d", err, calls)
	}
}

func TestRetryContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrNetwork)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}

func TestNewRedisCache_Errors(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := NewRedisCache(ctx, "not-a-url", "typescout:"); err == nil {
		t.Error("NewRedisCache() with malformed url should fail")
	}

	// Port 1 is reserved; nothing listens there.
	if _, err := NewRedisCache(ctx, "redis://127.0.0.1:1/0", "typescout:"); err == nil {
		t.Error("NewRedisCache() against a closed port should fail")
	}
}
