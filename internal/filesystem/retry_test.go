package filesystem

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"
)

func fastRetryConfig() RetryConfig {
	return RetryConfig{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func TestIsNFSStaleError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"estale", syscall.ESTALE, true},
		{"wrapped estale", &os.PathError{Op: "stat", Path: "/x", Err: syscall.ESTALE}, true},
		{"enoent", syscall.ENOENT, false},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNFSStaleError(tt.err); got != tt.want {
				t.Errorf("isNFSStaleError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestWithRetryRetriesStaleErrors(t *testing.T) {
	calls := 0
	err := withRetry("stat", "/tmp/x", fastRetryConfig(), func() error {
		calls++
		if calls < 3 {
			return &os.PathError{Op: "stat", Path: "/tmp/x", Err: syscall.ESTALE}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestWithRetryGivesUp(t *testing.T) {
	calls := 0
	err := withRetry("stat", "/tmp/x", fastRetryConfig(), func() error {
		calls++
		return syscall.ESTALE
	})
	if !errors.Is(err, syscall.ESTALE) {
		t.Fatalf("expected ESTALE, got %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want MaxRetries+1 = 3", calls)
	}
}

type recordingObserver struct {
	retries []int
	errs    []error
	events  []RetryEvent
}

func (r *recordingObserver) ObserveOperation(_, _ string, _ float64, retries int, err error) {
	r.retries = append(r.retries, retries)
	r.errs = append(r.errs, err)
}

func (r *recordingObserver) ObserveRetry(_, _ string, event RetryEvent) {
	r.events = append(r.events, event)
}

func TestWithRetryReportsToObserver(t *testing.T) {
	rec := &recordingObserver{}
	SetObserver(rec)
	t.Cleanup(func() { SetObserver(nil) })

	calls := 0
	err := withRetry("stat", "/tmp/x", fastRetryConfig(), func() error {
		calls++
		if calls < 2 {
			return syscall.ESTALE
		}
		return nil
	})
	if err != nil {
		t.Fatalf("withRetry: %v", err)
	}
	_ = withRetry("remove", "/tmp/x", fastRetryConfig(), func() error { return syscall.ESTALE })

	want := []RetryEvent{RetryStale, RetryScheduled, RetryRecovered,
		RetryStale, RetryScheduled, RetryStale, RetryScheduled, RetryStale, RetryExhausted}
	if fmt.Sprint(rec.events) != fmt.Sprint(want) {
		t.Errorf("events = %v, want %v", rec.events, want)
	}
	if fmt.Sprint(rec.retries) != "[1 2]" {
		t.Errorf("retries = %v, want [1 2]", rec.retries)
	}
	if rec.errs[0] != nil || !errors.Is(rec.errs[1], syscall.ESTALE) {
		t.Errorf("errs = %v", rec.errs)
	}
}

func TestSetObserverNil(t *testing.T) {
	SetObserver(nil)
	if observe() != nil {
		t.Fatal("observe() should be nil after SetObserver(nil)")
	}
	if err := withRetry("stat", "/tmp/x", fastRetryConfig(), func() error { return nil }); err != nil {
		t.Fatal(err)
	}
}

func TestWithRetryDoesNotRetryOtherErrors(t *testing.T) {
	calls := 0
	_ = withRetry("stat", "/tmp/x", fastRetryConfig(), func() error {
		calls++
		return fmt.Errorf("wrapped: %w", os.ErrPermission)
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestWriteStatRemove(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "clip.mp4")

	n, err := WriteFileWithRetry(path, strings.NewReader("frames"), fastRetryConfig())
	if err != nil {
		t.Fatalf("WriteFileWithRetry: %v", err)
	}
	if n != 6 {
		t.Errorf("written = %d, want 6", n)
	}

	info, err := StatWithRetry(path, fastRetryConfig())
	if err != nil {
		t.Fatalf("StatWithRetry: %v", err)
	}
	if info.Size() != 6 {
		t.Errorf("size = %d, want 6", info.Size())
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %v", entries)
	}

	if err := RemoveWithRetry(path, fastRetryConfig()); err != nil {
		t.Fatalf("RemoveWithRetry: %v", err)
	}
	if err := RemoveWithRetry(path, fastRetryConfig()); err != nil {
		t.Errorf("removing a missing file should succeed, got %v", err)
	}
	if _, err := StatWithRetry(path, fastRetryConfig()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist after remove, got %v", err)
	}
}

func TestVolumeResolver(t *testing.T) {
	vr := NewVolumeResolver(map[string]string{
		"uploads":   "/uploads",
		"thumbnail": "/uploads/thumbnails",
		"data":      "/data",
	})

	tests := map[string]string{
		"/uploads/videos/a.mp4":     "uploads",
		"/uploads/thumbnails/a.jpg": "thumbnail",
		"/data/video-platform.db":   "data",
		"/uploads":                  "uploads",
		"/elsewhere/file":           "unknown",
	}
	for path, want := range tests {
		if got := vr.Resolve(path); got != want {
			t.Errorf("Resolve(%q) = %q, want %q", path, got, want)
		}
	}

	var nilResolver *VolumeResolver
	if got := nilResolver.Resolve("/uploads/x"); got != "unknown" {
		t.Errorf("nil resolver = %q, want unknown", got)
	}
}
