package engine

// TerminalCapacity is the number of lines the terminal keeps.
const TerminalCapacity = 5

// Terminal lines shared with the renderer.
const (
	MsgInvalidCount          = "> ERROR: INVALID WORKER COUNT."
	MsgInsufficientFunds     = "> ERROR: INSUFFICIENT FUNDS."
	MsgNoMatchingWorkers     = "> ERROR: NO MATCHING WORKERS TO FIRE."
	MsgCannotAffordSeverance = "> ERROR: CANNOT AFFORD SEVERANCE."
	MsgConnectionFailed      = "> ERROR: AI CONNECTION FAILED."
	MsgCrunchMode            = "> INIT CRUNCH MODE..."
)

// TerminalLog is a bounded append-only log. The oldest line is evicted
// once capacity is reached.
type TerminalLog struct {
	lines []string
	cap   int
}

// NewTerminalLog creates a log holding at most capacity lines.
func NewTerminalLog(capacity int) *TerminalLog {
	if capacity < 1 {
		capacity = 1
	}
	return &TerminalLog{cap: capacity}
}

// Append adds a line, evicting the oldest when full.
func (t *TerminalLog) Append(line string) {
	if len(t.lines) == t.cap {
		copy(t.lines, t.lines[1:])
		t.lines = t.lines[:t.cap-1]
	}
	t.lines = append(t.lines, line)
}

// Lines returns a copy, oldest first.
func (t *TerminalLog) Lines() []string {
	out := make([]string, len(t.lines))
	copy(out, t.lines)
	return out
}

// Clear empties the log.
func (t *TerminalLog) Clear() {
	t.lines = t.lines[:0]
}
