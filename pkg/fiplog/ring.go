package fiplog

import (
	"container/ring"
	"sync"
)

// Ring is a bounded history of formatted log lines: a fixed-size
// container/ring.Ring guarded by a mutex, overwriting the oldest entry
// once full.
type Ring struct {
	mu   sync.Mutex
	r    *ring.Ring
	size int
}

// NewRing returns a Ring holding at most size lines.
func NewRing(size int) *Ring {
	return &Ring{r: ring.New(size), size: size}
}

// Println appends a pre-formatted line to the ring.
func (l *Ring) Println(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.r = l.r.Next()
	l.r.Value = line
}

// Dump returns the retained lines, oldest first.
func (l *Ring) Dump() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []string
	l.r.Next().Do(func(v interface{}) {
		if v != nil {
			out = append(out, v.(string))
		}
	})
	return out
}
