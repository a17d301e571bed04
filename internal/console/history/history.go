// Package history keeps a bounded ring of executed command sources for
// up/down recall in the console input.
package history

// Ring is a bounded, ordered command history. Oldest entries are evicted
// once capacity is reached. The zero value is unusable; use New.
type Ring struct {
	entries []string
	cap     int

	// pos is the recall cursor: len(entries) means "not recalling",
	// smaller values index the entry currently recalled.
	pos int

	// pending holds the in-progress input that was displaced by recall,
	// restored when the user navigates back past the newest entry.
	pending string
}

// New returns a ring holding at most capacity entries. A non-positive
// capacity falls back to 1.
func New(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 1
	}
	return &Ring{cap: capacity}
}

// Len returns the number of stored entries.
func (r *Ring) Len() int { return len(r.entries) }

// Push records an executed source and resets recall. Consecutive duplicates
// collapse into one entry.
func (r *Ring) Push(source string) {
	if source == "" {
		r.Reset()
		return
	}
	if n := len(r.entries); n > 0 && r.entries[n-1] == source {
		r.Reset()
		return
	}
	r.entries = append(r.entries, source)
	if len(r.entries) > r.cap {
		r.entries = r.entries[len(r.entries)-r.cap:]
	}
	r.Reset()
}

// Reset leaves recall mode and forgets any pending input.
func (r *Ring) Reset() {
	r.pos = len(r.entries)
	r.pending = ""
}

// Prev steps toward older entries. current is the input content at the time
// of the keypress; it is preserved on first entry into recall. The second
// return is false when there is nothing older.
func (r *Ring) Prev(current string) (string, bool) {
	if r.pos == 0 || len(r.entries) == 0 {
		return "", false
	}
	if r.pos == len(r.entries) {
		r.pending = current
	}
	r.pos--
	return r.entries[r.pos], true
}

// Next steps toward newer entries, ending at the preserved pending input.
// The second return is false when recall is not active.
func (r *Ring) Next() (string, bool) {
	if r.pos >= len(r.entries) {
		return "", false
	}
	r.pos++
	if r.pos == len(r.entries) {
		return r.pending, true
	}
	return r.entries[r.pos], true
}
