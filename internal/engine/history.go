package engine

// Record is the pre-apply state of one target.
type Record struct {
	Index             int    `json:"index"`
	Original          string `json:"original"`
	IsContentEditable bool   `json:"isContentEditable"`
}

// Snapshot is one undo frame: a record for every target present when an
// apply started.
type Snapshot []Record

// History is a bounded stack of snapshots. A depth of zero or less keeps one
// frame.
type History struct {
	frames []Snapshot
	depth  int
}

// NewHistory creates an empty history holding at most depth frames.
func NewHistory(depth int) *History {
	if depth < 1 {
		depth = 1
	}
	return &History{depth: depth}
}

// Push adds a frame, dropping the oldest one past the bound.
func (h *History) Push(s Snapshot) {
	h.frames = append(h.frames, s)
	if over := len(h.frames) - h.depth; over > 0 {
		h.frames = append(h.frames[:0:0], h.frames[over:]...)
	}
}

// Pop removes and returns the newest frame.
func (h *History) Pop() (Snapshot, bool) {
	if len(h.frames) == 0 {
		return nil, false
	}
	last := h.frames[len(h.frames)-1]
	h.frames = h.frames[:len(h.frames)-1]
	return last, true
}

// Len returns the number of stored frames.
func (h *History) Len() int { return len(h.frames) }

// Depth returns the bound.
func (h *History) Depth() int { return h.depth }
