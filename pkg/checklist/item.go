package checklist

import (
	"fmt"

	"github.com/mechanicalh600-lang/CheckList/models"
)

// Media is an attachment captured for a checklist item, held in memory until
// the submission pipeline uploads it to the blob store.
type Media struct {
	Data []byte
	Ext  string // "jpg", "mp4", ...
}

// Item is one live checklist entry of an in-progress inspection. Until the
// report is submitted it is owned exclusively by the flow that created it;
// after submission the persisted ChecklistResult rows are the record.
type Item struct {
	ID          string `json:"id"`
	Task        string `json:"task"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	Comment     string `json:"comment"`
	Photo       *Media `json:"-"`
	Video       *Media `json:"-"`
}

// GeneratedTask is a checklist task template before it is materialized into
// an Item. Templates come from the managed store, the static tables or the
// generative collaborator.
type GeneratedTask struct {
	Task        string `json:"task"`
	Description string `json:"description"`
}

// Materialize turns an ordered template list into fresh pending items with
// sequential ids.
func Materialize(tasks []GeneratedTask) []Item {
	items := make([]Item, 0, len(tasks))
	for i, t := range tasks {
		items = append(items, Item{
			ID:          fmt.Sprintf("item-%d", i),
			Task:        t.Task,
			Description: t.Description,
			Status:      models.StatusPending,
		})
	}
	return items
}
