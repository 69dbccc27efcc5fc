package platform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMergeWindowIDsKeepsFirstOccurrence(t *testing.T) {
	got := mergeWindowIDs([]WindowID{3, 1}, []WindowID{1, 7}, nil, []WindowID{7, 2})
	assert.Equal(t, []WindowID{3, 1, 7, 2}, got)
}

func TestWindowTrackerHidden(t *testing.T) {
	tr := newWindowTracker()
	tr.setHidden(9, true)
	tr.setHidden(4, true)
	assert.True(t, tr.isHidden(9))
	assert.Equal(t, []WindowID{4, 9}, tr.hiddenIDs())

	tr.setHidden(9, false)
	assert.False(t, tr.isHidden(9))
	assert.Equal(t, []WindowID{4}, tr.hiddenIDs())

	tr.forget(4)
	assert.Empty(t, tr.hiddenIDs())
}

func TestFirstPIDFallsBackToRememberedPID(t *testing.T) {
	tr := newWindowTracker()
	tr.rememberPID(5, 4242)
	tr.rememberPID(6, 0)

	// Withdrawn windows can stop answering property reads.
	none := func(WindowID) int { return 0 }
	assert.Equal(t, 4242, tr.firstPID([]WindowID{6, 5}, none))
	assert.Equal(t, 0, tr.firstPID([]WindowID{6}, none))

	live := func(id WindowID) int { return int(id) * 100 }
	assert.Equal(t, 600, tr.firstPID([]WindowID{6, 5}, live))
	assert.Equal(t, 600, tr.pid(6))

	tr.forget(5)
	assert.Equal(t, 0, tr.firstPID([]WindowID{5}, none))
}

func TestDispatchQueueDropsAfterClose(t *testing.T) {
	q := newDispatchQueue(1)
	assert.True(t, q.send(func() {}))

	// The buffer is full and nothing drains it. Closing must release the
	// blocked sender.
	sent := make(chan bool)
	go func() { sent <- q.send(func() {}) }()
	time.Sleep(10 * time.Millisecond)
	q.close()

	select {
	case ok := <-sent:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("send blocked after close")
	}

	assert.False(t, q.send(func() {}))
	q.close()
}
