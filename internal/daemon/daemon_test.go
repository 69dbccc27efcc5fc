package daemon

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/vaulttray/internal/platform"
	"github.com/1broseidon/vaulttray/internal/settings"
	"github.com/1broseidon/vaulttray/internal/shell"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// loop is a single-goroutine event loop like the host's.
type loop struct {
	fns  chan func()
	busy atomic.Bool
}

func newLoop(t *testing.T) *loop {
	l := &loop{fns: make(chan func(), 8)}
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case fn := <-l.fns:
				l.busy.Store(true)
				fn()
				l.busy.Store(false)
			case <-ctx.Done():
				return
			}
		}
	}()
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})
	return l
}

func (l *loop) dispatch(fn func()) { l.fns <- fn }

type fakeController struct {
	onLoop func() bool
	ran    []string
}

func (f *fakeController) Status() shell.Status {
	return shell.Status{Vault: "Notes", Intercepted: f.onLoop()}
}

func (f *fakeController) Commands() []shell.Command {
	return []shell.Command{{ID: "show"}}
}

func (f *fakeController) RunCommand(id string) error {
	if id != "show" {
		return shell.ErrUnknownCommand
	}
	f.ran = append(f.ran, id)
	return nil
}

func (f *fakeController) Reconcile() ([]platform.WindowID, []platform.WindowID) {
	return []platform.WindowID{3}, nil
}

func TestCallRunsOnLoop(t *testing.T) {
	l := newLoop(t)
	ctrl := &fakeController{onLoop: l.busy.Load}
	d := New(ctrl, settings.NewStore(settings.Defaults(), discard()), l.dispatch)

	st, err := d.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Notes", st.Vault)
	assert.True(t, st.Intercepted, "status is read on the loop goroutine")

	require.NoError(t, d.RunCommand(context.Background(), "show"))
	assert.ErrorIs(t, d.RunCommand(context.Background(), "nope"), shell.ErrUnknownCommand)

	added, removed, err := d.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uint32{3}, added)
	assert.Empty(t, removed)
}

func TestCallHonoursContext(t *testing.T) {
	stalled := func(func()) {}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Call(ctx, stalled, func() int { return 1 })
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, Do(ctx, stalled, func() error { return nil }), context.Canceled)
}

func TestSetSetting(t *testing.T) {
	l := newLoop(t)
	store := settings.NewStore(settings.Defaults(), discard())
	d := New(&fakeController{onLoop: l.busy.Load}, store, l.dispatch)

	require.NoError(t, d.SetSetting(context.Background(), "runInBackground", "true"))
	assert.True(t, store.Snapshot().RunInBackground)

	err := d.SetSetting(context.Background(), "bogus", "1")
	assert.ErrorIs(t, err, settings.ErrUnknownKey)

	assert.Error(t, d.SetSetting(context.Background(), "runInBackground", "maybe"))

	_, values := d.Settings()
	assert.Equal(t, "true", values["runInBackground"])
}

func TestReconcilerRunsOnEveryTick(t *testing.T) {
	clock := clockwork.NewFakeClock()
	passes := make(chan struct{}, 4)
	r := NewReconciler(ReconcilerConfig{Interval: time.Minute, Clock: clock, Logger: discard()},
		func(ctx context.Context) ([]uint32, []uint32, error) {
			passes <- struct{}{}
			return nil, nil, nil
		})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	for i := 0; i < 2; i++ {
		require.NoError(t, clock.BlockUntilContext(ctx, 1))
		clock.Advance(time.Minute)
		select {
		case <-passes:
		case <-time.After(time.Second):
			t.Fatalf("pass %d did not run", i)
		}
	}

	cancel()
	<-done
}

func TestReconcilerSurvivesFailures(t *testing.T) {
	calls := 0
	r := NewReconciler(ReconcilerConfig{Logger: discard()}, func(ctx context.Context) ([]uint32, []uint32, error) {
		calls++
		if calls == 1 {
			return nil, nil, errors.New("boom")
		}
		panic("bad pass")
	})

	r.ReconcileNow(context.Background())
	r.ReconcileNow(context.Background())
	assert.Equal(t, 2, calls)
}
