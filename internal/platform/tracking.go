package platform

import (
	"sort"
	"sync"
)

// windowTracker remembers what a backend learned about windows it no longer
// sees through the window manager: the windows it withdrew itself and the last
// process id each window advertised.
type windowTracker struct {
	mu     sync.Mutex
	hidden map[WindowID]bool
	pids   map[WindowID]int
}

func newWindowTracker() *windowTracker {
	return &windowTracker{
		hidden: make(map[WindowID]bool),
		pids:   make(map[WindowID]int),
	}
}

func (t *windowTracker) setHidden(id WindowID, hidden bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if hidden {
		t.hidden[id] = true
	} else {
		delete(t.hidden, id)
	}
}

func (t *windowTracker) isHidden(id WindowID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.hidden[id]
}

// hiddenIDs returns the withdrawn windows in ascending order.
func (t *windowTracker) hiddenIDs() []WindowID {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]WindowID, 0, len(t.hidden))
	for id := range t.hidden {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (t *windowTracker) rememberPID(id WindowID, pid int) {
	if pid <= 0 {
		return
	}
	t.mu.Lock()
	t.pids[id] = pid
	t.mu.Unlock()
}

func (t *windowTracker) pid(id WindowID) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pids[id]
}

func (t *windowTracker) forget(id WindowID) {
	t.mu.Lock()
	delete(t.hidden, id)
	delete(t.pids, id)
	t.mu.Unlock()
}

// firstPID returns the first live process id among windows, falling back to
// the remembered one when a window no longer advertises it.
func (t *windowTracker) firstPID(windows []WindowID, live func(WindowID) int) int {
	for _, w := range windows {
		if pid := live(w); pid > 0 {
			t.rememberPID(w, pid)
			return pid
		}
		if pid := t.pid(w); pid > 0 {
			return pid
		}
	}
	return 0
}

// mergeWindowIDs concatenates lists, keeping the first occurrence of each id.
func mergeWindowIDs(lists ...[]WindowID) []WindowID {
	seen := make(map[WindowID]bool)
	var out []WindowID
	for _, list := range lists {
		for _, id := range list {
			if seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// dispatchQueue hands functions to an event loop. Once closed, sends are
// dropped instead of blocking on a loop that is no longer draining.
type dispatchQueue struct {
	ch   chan func()
	done chan struct{}
	once sync.Once
}

func newDispatchQueue(size int) *dispatchQueue {
	return &dispatchQueue{
		ch:   make(chan func(), size),
		done: make(chan struct{}),
	}
}

// send reports whether fn was queued.
func (q *dispatchQueue) send(fn func()) bool {
	select {
	case <-q.done:
		return false
	default:
	}
	select {
	case q.ch <- fn:
		return true
	case <-q.done:
		return false
	}
}

func (q *dispatchQueue) close() {
	q.once.Do(func() { close(q.done) })
}
