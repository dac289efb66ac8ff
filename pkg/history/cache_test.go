package history

import (
	"testing"
	"time"

	"github.com/mechanicalh600-lang/CheckList/models"
)

func TestKey(t *testing.T) {
	tests := []struct {
		name                    string
		mode, scope, start, end string
		expected                string
	}{
		{"all defaults", "overview", "", "", "", "overview|all|none|none"},
		{"scoped", "detail", "1001", "", "", "detail|1001|none|none"},
		{"full", "overview", "1001", "2026-01-01", "2026-02-01", "overview|1001|2026-01-01|2026-02-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Key(tt.mode, tt.scope, tt.start, tt.end); got != tt.expected {
				t.Errorf("Key() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestCacheExpiry(t *testing.T) {
	current := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	c := NewCache(DefaultTTL, func() time.Time { return current })

	data := []models.Inspection{{TrackingCode: "404060001"}}
	c.Put("overview|all|none|none", data)

	// 5 seconds later the entry is still live.
	current = current.Add(5 * time.Second)
	if got, ok := c.Get("overview|all|none|none"); !ok || len(got) != 1 {
		t.Fatal("entry expired before TTL")
	}

	// At exactly the TTL boundary the entry is gone.
	current = current.Add(15 * time.Second)
	if _, ok := c.Get("overview|all|none|none"); ok {
		t.Fatal("entry still live at TTL boundary")
	}
}

func TestCacheMiss(t *testing.T) {
	c := NewCache(DefaultTTL, nil)
	if _, ok := c.Get("detail|all|none|none"); ok {
		t.Fatal("cold cache returned an entry")
	}
}

func TestInvalidateAll(t *testing.T) {
	c := NewCache(DefaultTTL, nil)
	c.Put("overview|all|none|none", []models.Inspection{{TrackingCode: "a"}})
	c.Put("detail|1001|none|none", []models.Inspection{{TrackingCode: "b"}})

	c.InvalidateAll()

	if _, ok := c.Get("overview|all|none|none"); ok {
		t.Error("overview entry survived invalidation")
	}
	if _, ok := c.Get("detail|1001|none|none"); ok {
		t.Error("detail entry survived invalidation")
	}
}
