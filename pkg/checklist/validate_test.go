package checklist

import (
	"testing"

	"github.com/mechanicalh600-lang/CheckList/models"
)

func TestIsComplete(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		comment  string
		expected bool
	}{
		{"pending is never complete", models.StatusPending, "", false},
		{"pending with comment still incomplete", models.StatusPending, "checked later", false},
		{"pass without comment", models.StatusPass, "", true},
		{"pass with comment", models.StatusPass, "ok", true},
		{"na without comment", models.StatusNA, "", true},
		{"fail without comment", models.StatusFail, "", false},
		{"fail with blank comment", models.StatusFail, "   ", false},
		{"fail with comment", models.StatusFail, "نشتی روغن مشاهده شد", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := Item{ID: "item-0", Task: "x", Status: tt.status, Comment: tt.comment}
			if got := IsComplete(item); got != tt.expected {
				t.Errorf("IsComplete(%s, %q) = %v, expected %v", tt.status, tt.comment, got, tt.expected)
			}
		})
	}
}

func TestProgress(t *testing.T) {
	tests := []struct {
		name     string
		items    []Item
		expected int
	}{
		{"empty set has zero progress", nil, 0},
		{
			"all pending",
			[]Item{{Status: models.StatusPending}, {Status: models.StatusPending}},
			0,
		},
		{
			"half complete rounds",
			[]Item{{Status: models.StatusPass}, {Status: models.StatusPending}},
			50,
		},
		{
			"one of three rounds to nearest",
			[]Item{{Status: models.StatusPass}, {Status: models.StatusPending}, {Status: models.StatusPending}},
			33,
		},
		{
			"fail without comment blocks full progress",
			[]Item{{Status: models.StatusPass}, {Status: models.StatusFail}},
			50,
		},
		{
			"fail with comment counts",
			[]Item{{Status: models.StatusPass}, {Status: models.StatusFail, Comment: "خرابی"}},
			100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Progress(tt.items); got != tt.expected {
				t.Errorf("Progress() = %d, expected %d", got, tt.expected)
			}
		})
	}
}

func TestIncompleteCount(t *testing.T) {
	items := []Item{
		{Status: models.StatusPass},
		{Status: models.StatusPending},
		{Status: models.StatusFail},
		{Status: models.StatusFail, Comment: "شکستگی"},
		{Status: models.StatusNA},
	}
	if got := IncompleteCount(items); got != 2 {
		t.Errorf("IncompleteCount() = %d, expected 2", got)
	}
}
