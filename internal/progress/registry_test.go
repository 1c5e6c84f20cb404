package progress

import (
	"errors"
	"testing"
	"time"

	"tubevault/internal/model"
	"tubevault/pkg/logger"
)

func init() {
	logger.InitNop()
}

func TestGetUnknownIDReturnsWaiting(t *testing.T) {
	r := NewRegistry(time.Minute)

	got := r.Get("never-submitted")
	if got.Status != model.StatusWaiting {
		t.Errorf("status = %q, want %q", got.Status, model.StatusWaiting)
	}
	if got.Percent != 0 {
		t.Errorf("percent = %v, want 0", got.Percent)
	}
	if got.Error != "" {
		t.Errorf("unexpected error detail %q", got.Error)
	}
}

func TestBeginRejectsInFlightDuplicate(t *testing.T) {
	r := NewRegistry(time.Minute)

	if err := r.Begin("abc123"); err != nil {
		t.Fatalf("first Begin failed: %v", err)
	}
	if err := r.Begin("abc123"); !errors.Is(err, ErrJobInFlight) {
		t.Fatalf("expected ErrJobInFlight, got %v", err)
	}

	// A terminal entry clears the way for a re-download.
	r.Complete("abc123")
	if err := r.Begin("abc123"); err != nil {
		t.Fatalf("Begin after completion failed: %v", err)
	}
}

func TestUpdateCompareAndSet(t *testing.T) {
	r := NewRegistry(time.Minute)
	if err := r.Begin("abc123"); err != nil {
		t.Fatal(err)
	}

	if !r.Update("abc123", model.StatusWaiting, model.StatusDownloadingVideo, 5) {
		t.Fatal("expected transition from waiting to succeed")
	}

	// Stale writer: still believes the job is waiting.
	if r.Update("abc123", model.StatusWaiting, model.StatusDownloading, 1) {
		t.Error("stale transition should have been rejected")
	}

	// Percent regression within the same phase.
	if r.Update("abc123", model.StatusDownloadingVideo, model.StatusDownloadingVideo, 2) {
		t.Error("percent regression should have been rejected")
	}

	if !r.Update("abc123", model.StatusDownloadingVideo, model.StatusDownloadingVideo, 40) {
		t.Error("in-phase percent advance should have succeeded")
	}

	got := r.Get("abc123")
	if got.Status != model.StatusDownloadingVideo || got.Percent != 40 {
		t.Errorf("snapshot = %+v", got)
	}
}

func TestUpdateRejectsUnknownJob(t *testing.T) {
	r := NewRegistry(time.Minute)
	if r.Update("ghost", model.StatusWaiting, model.StatusDownloading, 10) {
		t.Error("update of unregistered job should fail")
	}
}

func TestFailRecordsDetail(t *testing.T) {
	r := NewRegistry(time.Minute)
	if err := r.Begin("abc123"); err != nil {
		t.Fatal(err)
	}
	r.Update("abc123", model.StatusWaiting, model.StatusDownloadingAudio, 50)
	r.Fail("abc123", "download failed")

	got := r.Get("abc123")
	if got.Status != model.StatusError {
		t.Errorf("status = %q, want error", got.Status)
	}
	if got.Error == "" {
		t.Error("expected non-empty error detail")
	}

	// Terminal state is sticky.
	r.Complete("abc123")
	if got := r.Get("abc123"); got.Status != model.StatusError {
		t.Errorf("terminal state overwritten: %+v", got)
	}
}

func TestEvictExpiredRemovesOnlyTerminal(t *testing.T) {
	r := NewRegistry(time.Minute)

	if err := r.Begin("done"); err != nil {
		t.Fatal(err)
	}
	r.Complete("done")

	if err := r.Begin("active"); err != nil {
		t.Fatal(err)
	}
	r.Update("active", model.StatusWaiting, model.StatusDownloading, 10)

	r.evictExpired(time.Now().Add(2 * time.Minute))

	if r.Len() != 1 {
		t.Fatalf("expected 1 entry after eviction, got %d", r.Len())
	}
	if got := r.Get("active"); got.Status != model.StatusDownloading {
		t.Errorf("active entry lost: %+v", got)
	}
	if got := r.Get("done"); got.Status != model.StatusWaiting {
		t.Errorf("evicted entry should read as waiting, got %+v", got)
	}
}
