package checklist

import (
	"math"
	"strings"

	"github.com/mechanicalh600-lang/CheckList/models"
)

// IsComplete reports whether a single item needs no further input from the
// inspector. A pending item is never complete; a failed item must carry a
// non-blank comment describing the defect.
func IsComplete(item Item) bool {
	if item.Status == models.StatusPending {
		return false
	}
	if item.Status == models.StatusFail && strings.TrimSpace(item.Comment) == "" {
		return false
	}
	return true
}

// Progress returns the completion percentage of the item set, rounded to the
// nearest integer. An empty set has zero progress.
func Progress(items []Item) int {
	if len(items) == 0 {
		return 0
	}
	completed := 0
	for _, item := range items {
		if IsComplete(item) {
			completed++
		}
	}
	return int(math.Round(float64(completed) * 100 / float64(len(items))))
}

// IncompleteCount returns how many items still block submission.
func IncompleteCount(items []Item) int {
	incomplete := 0
	for _, item := range items {
		if !IsComplete(item) {
			incomplete++
		}
	}
	return incomplete
}
