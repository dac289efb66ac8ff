package submission

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mechanicalh600-lang/CheckList/models"
)

func TestMonthPrefix(t *testing.T) {
	tests := []struct {
		name     string
		date     time.Time
		expected string
	}{
		// 2026-02-21 is 1404/12/02 in the Jalali calendar.
		{"late winter", time.Date(2026, 2, 21, 10, 0, 0, 0, time.UTC), "40412"},
		// 2025-03-21 is 1404/01/01.
		{"nowruz", time.Date(2025, 3, 21, 0, 0, 0, 0, time.UTC), "40401"},
		// 2025-08-30 is 1404/06/08.
		{"summer", time.Date(2025, 8, 30, 12, 0, 0, 0, time.UTC), "40406"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MonthPrefix(tt.date); got != tt.expected {
				t.Errorf("MonthPrefix(%s) = %q, expected %q", tt.date.Format("2006-01-02"), got, tt.expected)
			}
		})
	}
}

// fakeHeaderStore simulates the uniqueness constraint of the real table.
type fakeHeaderStore struct {
	mu       sync.Mutex
	codes    map[string]bool
	inserts  int
	maxErr   error
	insErr   error
	maxQuery int
}

func newFakeHeaderStore(existing ...string) *fakeHeaderStore {
	codes := make(map[string]bool)
	for _, c := range existing {
		codes[c] = true
	}
	return &fakeHeaderStore{codes: codes}
}

func (f *fakeHeaderStore) MaxTrackingCode(ctx context.Context, prefix string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.maxQuery++
	if f.maxErr != nil {
		return "", f.maxErr
	}
	max := ""
	for code := range f.codes {
		if len(code) >= len(prefix) && code[:len(prefix)] == prefix && code > max {
			max = code
		}
	}
	return max, nil
}

func (f *fakeHeaderStore) InsertHeader(ctx context.Context, header *models.Inspection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insErr != nil {
		return f.insErr
	}
	if f.codes[header.TrackingCode] {
		return ErrDuplicateTrackingCode
	}
	f.codes[header.TrackingCode] = true
	f.inserts++
	return nil
}

func fixedClock() time.Time {
	// 1404/06 in the Jalali calendar, prefix "40406".
	return time.Date(2025, 8, 30, 12, 0, 0, 0, time.UTC)
}

func newTestAllocator(store HeaderStore) *Allocator {
	a := NewAllocator(store)
	a.now = fixedClock
	a.sleep = func(time.Duration) {}
	return a
}

func TestAllocate(t *testing.T) {
	t.Run("first code of the month", func(t *testing.T) {
		store := newFakeHeaderStore()
		a := newTestAllocator(store)

		code, err := a.Allocate(context.Background(), &models.Inspection{})
		if err != nil {
			t.Fatalf("Allocate: %v", err)
		}
		// 5-char month prefix plus a 4-digit sequence: 9 characters total.
		if code != "404060001" {
			t.Errorf("code = %q, expected 404060001", code)
		}
		if len(code) != len(MonthPrefix(fixedClock()))+4 {
			t.Errorf("code %q is not prefix plus a 4-digit sequence", code)
		}
	})

	t.Run("increments past the existing max", func(t *testing.T) {
		store := newFakeHeaderStore("404060004")
		a := newTestAllocator(store)

		code, err := a.Allocate(context.Background(), &models.Inspection{})
		if err != nil {
			t.Fatalf("Allocate: %v", err)
		}
		if code != "404060005" {
			t.Errorf("code = %q, expected 404060005", code)
		}
	})

	t.Run("collision retries with a fresh proposal", func(t *testing.T) {
		store := newFakeHeaderStore("404060004")

		// Simulate a racing writer that grabs the proposed code between the
		// max query and the insert, once.
		raced := false
		wrapped := headerStoreFunc{
			max: store.MaxTrackingCode,
			insert: func(ctx context.Context, h *models.Inspection) error {
				if !raced {
					raced = true
					store.mu.Lock()
					store.codes[h.TrackingCode] = true
					store.mu.Unlock()
				}
				return store.InsertHeader(ctx, h)
			},
		}
		a := newTestAllocator(wrapped)

		code, err := a.Allocate(context.Background(), &models.Inspection{})
		if err != nil {
			t.Fatalf("Allocate: %v", err)
		}
		if !raced {
			t.Fatal("race was not exercised")
		}
		if code != "404060006" {
			t.Errorf("code after collision = %q, expected 404060006", code)
		}
	})

	t.Run("gives up after five collisions", func(t *testing.T) {
		store := newFakeHeaderStore()
		store.insErr = ErrDuplicateTrackingCode
		a := newTestAllocator(store)

		slept := 0
		a.sleep = func(d time.Duration) {
			if d >= maxCollisionWait {
				t.Errorf("backoff %v exceeds cap %v", d, maxCollisionWait)
			}
			slept++
		}

		_, err := a.Allocate(context.Background(), &models.Inspection{})
		if !errors.Is(err, ErrAllocationExhausted) {
			t.Fatalf("expected ErrAllocationExhausted, got %v", err)
		}
		if slept != allocationAttempts {
			t.Errorf("slept %d times, expected %d", slept, allocationAttempts)
		}
	})

	t.Run("non-duplicate insert error is fatal", func(t *testing.T) {
		store := newFakeHeaderStore()
		store.insErr = errors.New("connection reset")
		a := newTestAllocator(store)

		_, err := a.Allocate(context.Background(), &models.Inspection{})
		if err == nil || errors.Is(err, ErrAllocationExhausted) {
			t.Fatalf("expected the store error verbatim, got %v", err)
		}
		if store.maxQuery != 1 {
			t.Errorf("allocator retried a fatal error, %d max queries", store.maxQuery)
		}
	})
}

// headerStoreFunc adapts two closures into a HeaderStore.
type headerStoreFunc struct {
	max    func(ctx context.Context, prefix string) (string, error)
	insert func(ctx context.Context, header *models.Inspection) error
}

func (h headerStoreFunc) MaxTrackingCode(ctx context.Context, prefix string) (string, error) {
	return h.max(ctx, prefix)
}

func (h headerStoreFunc) InsertHeader(ctx context.Context, header *models.Inspection) error {
	return h.insert(ctx, header)
}
