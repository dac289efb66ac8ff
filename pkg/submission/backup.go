package submission

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/mechanicalh600-lang/CheckList/pkg/flow"
)

const backupFile = "pending_inspection.json"

// BackupSlot is the single well-known local slot holding the record being
// submitted, for crash resilience. It is written before the pipeline runs and
// cleared on success; it is never replayed automatically on restart.
type BackupSlot struct {
	dir string
}

// NewBackupSlot uses dir, or BACKUP_DIR, or ./data.
func NewBackupSlot(dir string) *BackupSlot {
	if dir == "" {
		dir = os.Getenv("BACKUP_DIR")
	}
	if dir == "" {
		dir = "./data"
	}
	return &BackupSlot{dir: dir}
}

// Write persists the snapshot. Media bytes are not serialized; only the item
// statuses and comments matter for recovery.
func (b *BackupSlot) Write(snap flow.Snapshot) error {
	if err := os.MkdirAll(b.dir, 0755); err != nil {
		return err
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(b.dir, backupFile), data, 0644)
}

// Clear empties the slot. Missing file is not an error.
func (b *BackupSlot) Clear() error {
	err := os.Remove(filepath.Join(b.dir, backupFile))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
