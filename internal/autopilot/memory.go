package autopilot

import (
	"encoding/json"
	"log/slog"
	"os"
)

const maxRecords = 20

// CycleMemory is a ring of recent verdicts. It keeps the board from acting
// twice on the same decision across restarts.
type CycleMemory struct {
	Records []Verdict `json:"records"`
	path    string
}

// LoadMemory reads the memory file. Returns empty memory if not found or
// if path is empty.
func LoadMemory(path string) *CycleMemory {
	mem := &CycleMemory{path: path}
	if path == "" {
		return mem
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return mem
	}
	if err := json.Unmarshal(data, mem); err != nil {
		slog.Warn("autopilot memory corrupted, starting fresh", "error", err)
		return &CycleMemory{path: path}
	}
	return mem
}

// Save writes the memory to disk. No-op without a path.
func (m *CycleMemory) Save() {
	if m.path == "" {
		return
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		slog.Error("failed to marshal autopilot memory", "error", err)
		return
	}
	if err := os.WriteFile(m.path, data, 0644); err != nil {
		slog.Error("failed to write autopilot memory", "error", err)
	}
}

// Record adds a verdict, trimming to maxRecords.
func (m *CycleMemory) Record(v Verdict) {
	m.Records = append(m.Records, v)
	if len(m.Records) > maxRecords {
		m.Records = m.Records[len(m.Records)-maxRecords:]
	}
}

// Handled reports whether a verdict was already acted on for v's window.
// A game has one window per day, so game id and day identify it.
func (m *CycleMemory) Handled(v Verdict) bool {
	for _, r := range m.Records {
		if r.GameID == v.GameID && r.Day == v.Day && r.Action != VerdictNone {
			return true
		}
	}
	return false
}
