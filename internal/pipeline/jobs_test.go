package pipeline

import (
	"regexp"
	"testing"
	"time"
)

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	h1 := ContentHashHex(data)
	h2 := ContentHashHex(data)
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %q and %q", h1, h2)
	}
	// SHA-256 of "hello world" is well-known.
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h1 != want {
		t.Errorf("expected hash %q, got %q", want, h1)
	}
}

func TestContentHashHex_DifferentInputs(t *testing.T) {
	h1 := ContentHashHex([]byte("aaa"))
	h2 := ContentHashHex([]byte("bbb"))
	if h1 == h2 {
		t.Error("expected different hashes for different inputs")
	}
}

func TestNewJob(t *testing.T) {
	job := NewJob("doc-1", []byte("# Title\n"), true)
	if job.Status != StatusQueued || job.Phase != "queued" {
		t.Errorf("expected queued job, got %q/%q", job.Status, job.Phase)
	}
	if job.ContentHash != ContentHashHex([]byte("# Title\n")) {
		t.Errorf("unexpected content hash %q", job.ContentHash)
	}
	if !job.Force {
		t.Error("expected force flag to be kept")
	}
	if string(job.Markdown()) != "# Title\n" {
		t.Errorf("unexpected markdown %q", job.Markdown())
	}
}

var ulidPattern = regexp.MustCompile(`^[0-9A-HJKMNP-TV-Z]{26}$`)

func TestNewJobID_UniqueAndSorted(t *testing.T) {
	seen := map[string]bool{}
	prev := ""
	for range 1000 {
		id := newJobID()
		if !ulidPattern.MatchString(id) {
			t.Fatalf("malformed id %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		if id[:10] < prev {
			t.Fatalf("timestamp prefix went backwards: %q after %q", id[:10], prev)
		}
		seen[id] = true
		prev = id[:10]
	}
}

func TestEncodeBase32(t *testing.T) {
	var b [16]byte
	if got := encodeBase32(b); got != "00000000000000000000000000" {
		t.Errorf("zero bytes encoded as %q", got)
	}
	for i := range b {
		b[i] = 0xff
	}
	if got := encodeBase32(b); got != "7ZZZZZZZZZZZZZZZZZZZZZZZZZ" {
		t.Errorf("max bytes encoded as %q", got)
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := NewJob("doc", nil, false)

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusCompiling, "compiling"},
		{StatusPushing, "fetching"},
		{StatusPushing, "pushing"},
		{StatusCompleted, "done"},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		if job.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, job.Status)
		}
		if job.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, job.Phase)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
}

func TestJob_AddError(t *testing.T) {
	job := &Job{ID: "err-test", UpdatedAt: time.Now()}
	job.AddError("compile: bad span")
	job.AddError("push: quota")

	snap := job.Snapshot()
	if len(snap.Progress.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Progress.Errors))
	}
	if snap.Progress.Errors[0] != "compile: bad span" {
		t.Errorf("expected first error %q, got %q", "compile: bad span", snap.Progress.Errors[0])
	}
}

func TestJob_SetCompiled(t *testing.T) {
	job := &Job{ID: "compiled", UpdatedAt: time.Now()}
	warnings := []string{"unknown font"}
	job.SetCompiled(12, warnings)
	warnings[0] = "mutated"

	snap := job.Snapshot()
	if snap.Progress.Requests != 12 {
		t.Errorf("expected 12 requests, got %d", snap.Progress.Requests)
	}
	if len(snap.Progress.Warnings) != 1 || snap.Progress.Warnings[0] != "unknown font" {
		t.Errorf("expected warnings to be copied, got %v", snap.Progress.Warnings)
	}
}

func TestJob_SnapshotSlicesNotNil(t *testing.T) {
	// Snapshot should always return non-nil slices.
	job := &Job{ID: "snap-test", UpdatedAt: time.Now()}
	snap := job.Snapshot()
	if snap.Progress.Errors == nil || snap.Progress.Warnings == nil {
		t.Error("expected non-nil slices in snapshot")
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := &Job{ID: "store-1", UpdatedAt: time.Now()}
	store.Put(job)

	got := store.Get("store-1")
	if got == nil {
		t.Fatal("expected to get job back")
	}
	if got.ID != "store-1" {
		t.Errorf("expected ID %q, got %q", "store-1", got.ID)
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 job, got %d", store.Len())
	}
}

func TestJobStore_GetMissing(t *testing.T) {
	store := NewJobStore(time.Hour)
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)

	expired := &Job{ID: "old", UpdatedAt: time.Now()}
	store.Put(expired)

	// Wait for the TTL to pass.
	time.Sleep(100 * time.Millisecond)

	// Add a fresh job.
	fresh := &Job{ID: "new", UpdatedAt: time.Now()}
	store.Put(fresh)

	store.Cleanup()

	if store.Get("old") != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get("new") == nil {
		t.Error("expected fresh job to survive cleanup")
	}
}

func TestJobStore_CleanupEmpty(t *testing.T) {
	store := NewJobStore(time.Hour)
	// Should not panic on empty store.
	store.Cleanup()
}
