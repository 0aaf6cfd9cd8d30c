// Package dedupe suppresses repeated observations of the same record.
package dedupe

import (
	"strings"

	"github.com/okian/scorestream/internal/domain/model"
)

// compactThreshold bounds how far the eviction cursor may advance before the
// insertion-order queue is compacted.
const compactThreshold = 4096

// Key returns the composite identity of an observation: player, score and
// play time joined by "-". Score and play time are canonicalized to decimal
// so "050", "50" and "0x32" share a key; values that do not parse as unsigned
// integers are kept verbatim.
func Key(r model.Record) string {
	score, playTime := canonical(r.Score), canonical(r.PlayTime)
	var b strings.Builder
	b.Grow(len(r.Player) + len(score) + len(playTime) + 2)
	b.WriteString(r.Player)
	b.WriteByte('-')
	b.WriteString(score)
	b.WriteByte('-')
	b.WriteString(playTime)
	return b.String()
}

func canonical(s string) string {
	n, err := model.ToUint(s)
	if err != nil {
		return s
	}
	return n.String()
}

// Tracker remembers which observations were already emitted.
//
// The seen set lives only in memory: it is empty after a restart, so records
// already on chain are reported again. In the default unbounded mode it grows
// with every distinct observation for the life of the process. WithMaxSize
// opts into evicting the oldest keys, which lets an evicted observation be
// reported a second time.
//
// A Tracker is not safe for concurrent use; one poll loop owns one Tracker.
type Tracker struct {
	seen    map[string]struct{}
	order   []string // insertion order, bounded mode only
	head    int      // eviction cursor into order
	maxSize int      // <= 0 means unbounded
}

// New creates a Tracker. Without options it never evicts.
func New(opts ...Option) *Tracker {
	t := &Tracker{}
	for _, opt := range opts {
		opt(t)
	}
	t.seen = make(map[string]struct{})
	return t
}

// Observe records r and reports whether it was new. A repeated observation
// returns false and changes nothing.
func (t *Tracker) Observe(r model.Record) bool {
	return t.ObserveKey(Key(r))
}

// ObserveKey is Observe for a precomputed key.
func (t *Tracker) ObserveKey(key string) bool {
	if _, ok := t.seen[key]; ok {
		return false
	}
	if t.maxSize > 0 {
		if len(t.seen) >= t.maxSize {
			t.evictOldest()
		}
		t.order = append(t.order, key)
	}
	t.seen[key] = struct{}{}
	return true
}

// Seen reports whether r was observed, without recording it.
func (t *Tracker) Seen(r model.Record) bool {
	_, ok := t.seen[Key(r)]
	return ok
}

// Size returns the number of remembered observations.
func (t *Tracker) Size() int {
	return len(t.seen)
}

// Bounded reports whether eviction is enabled.
func (t *Tracker) Bounded() bool {
	return t.maxSize > 0
}

func (t *Tracker) evictOldest() {
	if t.head >= len(t.order) {
		return
	}
	delete(t.seen, t.order[t.head])
	t.order[t.head] = ""
	t.head++

	if t.head > compactThreshold && t.head*2 > len(t.order) {
		rest := make([]string, 0, len(t.order)-t.head)
		rest = append(rest, t.order[t.head:]...)
		t.order = rest
		t.head = 0
	}
}
