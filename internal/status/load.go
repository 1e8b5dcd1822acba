package status

import (
	"encoding/json"
	"os"
)

// Load reads the status document at path. Any failure, including a missing,
// unreadable, or torn file, yields the idle default: the document is an
// eventually consistent snapshot, not a source of truth.
func Load(path string) Snapshot {
	data, err := os.ReadFile(path)
	if err != nil {
		return Idle()
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Idle()
	}
	if snap.State == "" {
		return Idle()
	}
	return snap
}
