package submission

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/mechanicalh600-lang/CheckList/models"
	"github.com/mechanicalh600-lang/CheckList/pkg/checklist"
	"github.com/mechanicalh600-lang/CheckList/pkg/flow"
)

type fakeBlobStore struct {
	mu      sync.Mutex
	uploads map[string][]byte
	err     error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{uploads: make(map[string][]byte)}
}

func (f *fakeBlobStore) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.uploads[path] = data
	return "https://blobs.test/" + path, nil
}

type fakeInvalidator struct{ calls int }

func (f *fakeInvalidator) InvalidateAll() { f.calls++ }

type fakeAnalyzer struct {
	result string
	err    error
}

func (f *fakeAnalyzer) AnalyzeReport(ctx context.Context, equipmentName, activityName string, passed int, failures []checklist.FailureDetail) (string, error) {
	return f.result, f.err
}

// pipelineEnv bundles the pipeline with its fake collaborators.
type pipelineEnv struct {
	headers *fakeHeaderStore
	sink    *fakeSink
	blobs   *fakeBlobStore
	cache   *fakeInvalidator
	pipe    *Pipeline
}

func newPipelineEnv(t *testing.T, analyzer Analyzer) *pipelineEnv {
	t.Helper()
	env := &pipelineEnv{
		headers: newFakeHeaderStore(),
		sink:    &fakeSink{},
		blobs:   newFakeBlobStore(),
		cache:   &fakeInvalidator{},
	}
	env.pipe = NewPipeline(env.headers, env.sink, env.blobs,
		NewBackupSlot(t.TempDir()), env.cache, analyzer).
		WithClock(fixedClock)
	return env
}

func testSnapshot() flow.Snapshot {
	return flow.Snapshot{
		EquipmentID:   "EQ-01",
		EquipmentName: "پمپ سانتریفیوژ",
		ActivityName:  "بازرسی هفتگی",
		InspectorName: "علی رضایی",
		InspectorCode: "1001",
		Timestamp:     fixedClock(),
		Items: []checklist.Item{
			{ID: "item-0", Task: "بازرسی ظاهری", Status: models.StatusPass,
				Photo: &checklist.Media{Data: []byte{0xFF, 0xD8}, Ext: "jpg"}},
			{ID: "item-1", Task: "کنترل نشتی", Status: models.StatusFail, Comment: "نشتی جزئی",
				Video: &checklist.Media{Data: []byte{0x00, 0x01}, Ext: "mp4"}},
		},
	}
}

func TestPipelineSubmit(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		env := newPipelineEnv(t, &fakeAnalyzer{result: "وضعیت تجهیز قابل قبول است."})

		code, err := env.pipe.Submit(context.Background(), testSnapshot())
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if code != "404060001" {
			t.Errorf("tracking code = %q, expected 404060001", code)
		}
		if env.headers.inserts != 1 {
			t.Errorf("header inserts = %d, expected 1", env.headers.inserts)
		}
		if len(env.sink.primaryCalls) != 1 {
			t.Errorf("primary writes = %d, expected 1", len(env.sink.primaryCalls))
		}
		if env.cache.calls != 1 {
			t.Errorf("cache invalidated %d times, expected 1", env.cache.calls)
		}
		if len(env.blobs.uploads) != 2 {
			t.Errorf("uploads = %d, expected photo and video", len(env.blobs.uploads))
		}
	})

	t.Run("analysis failure degrades to placeholder", func(t *testing.T) {
		env := newPipelineEnv(t, &fakeAnalyzer{err: errors.New("model unavailable")})

		if _, err := env.pipe.Submit(context.Background(), testSnapshot()); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	})

	t.Run("upload failure is tolerated", func(t *testing.T) {
		env := newPipelineEnv(t, nil)
		env.blobs.err = errors.New("bucket unreachable")

		if _, err := env.pipe.Submit(context.Background(), testSnapshot()); err != nil {
			t.Fatalf("Submit should tolerate upload failures: %v", err)
		}
	})

	t.Run("item failure keeps the committed tracking code in the error", func(t *testing.T) {
		env := newPipelineEnv(t, nil)
		boom := errors.New("deadlock detected")
		env.sink.primaryErrs = []error{boom, boom}

		_, err := env.pipe.Submit(context.Background(), testSnapshot())
		if err == nil {
			t.Fatal("expected item persistence failure")
		}
		if !strings.Contains(err.Error(), "404060001") {
			t.Errorf("error %q does not name the committed tracking code", err)
		}
		// The header stays committed; the cache must not be flushed for a
		// half-written record.
		if env.headers.inserts != 1 {
			t.Errorf("header inserts = %d, expected 1", env.headers.inserts)
		}
		if env.cache.calls != 0 {
			t.Errorf("cache invalidated on failure")
		}
	})

	t.Run("header failure aborts before items", func(t *testing.T) {
		env := newPipelineEnv(t, nil)
		env.headers.insErr = errors.New("connection reset")

		_, err := env.pipe.Submit(context.Background(), testSnapshot())
		if err == nil {
			t.Fatal("expected header failure")
		}
		if len(env.sink.primaryCalls) != 0 {
			t.Error("items written although the header insert failed")
		}
	})
}

func TestBackupSlot(t *testing.T) {
	slot := NewBackupSlot(t.TempDir())
	snap := testSnapshot()

	if err := slot.Write(snap); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := slot.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	// Clearing an already-empty slot is not an error.
	if err := slot.Clear(); err != nil {
		t.Fatalf("Clear of empty slot: %v", err)
	}
}

func TestContentTypeFor(t *testing.T) {
	tests := []struct {
		ext      string
		expected string
	}{
		{"jpg", "image/jpeg"},
		{"jpeg", "image/jpeg"},
		{"png", "image/png"},
		{"mp4", "video/mp4"},
		{"bin", "application/octet-stream"},
	}
	for _, tt := range tests {
		if got := contentTypeFor(tt.ext); got != tt.expected {
			t.Errorf("contentTypeFor(%q) = %q, expected %q", tt.ext, got, tt.expected)
		}
	}
}
