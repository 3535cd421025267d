package dispatcher

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(msg string, keysAndValues ...any) {}
func (nopLogger) Info(msg string, keysAndValues ...any)  {}
func (nopLogger) Error(msg string, keysAndValues ...any) {}

func newEvent(command string, args ...string) Event {
	return Event{Command: command, Args: args, Timestamp: time.Now()}
}

func TestDispatchRoutesToHandler(t *testing.T) {
	d, err := New(nopLogger{})
	require.NoError(t, err)

	d.Register("echo", func(e Event) (any, error) {
		return e.Args[0], nil
	})

	require.True(t, d.HasHandler("echo"))
	result, err := d.Dispatch(newEvent("echo", "hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", result)
}

func TestDispatchUnknownCommand(t *testing.T) {
	d, err := New(nopLogger{})
	require.NoError(t, err)

	_, err = d.Dispatch(newEvent("missing"))
	assert.Error(t, err)
	assert.False(t, d.HasHandler("missing"))
}

func TestHandlerErrorPropagates(t *testing.T) {
	d, err := New(nopLogger{})
	require.NoError(t, err)

	boom := errors.New("boom")
	d.Register("fail", func(e Event) (any, error) {
		return nil, boom
	}, Logged())

	_, err = d.Dispatch(newEvent("fail"))
	assert.ErrorIs(t, err, boom)
}

func TestBufferedHandlerRunsAsync(t *testing.T) {
	d, err := New(nopLogger{})
	require.NoError(t, err)

	var mu sync.Mutex
	var seen []string
	done := make(chan struct{}, 8)

	d.Register("async", func(e Event) (any, error) {
		mu.Lock()
		seen = append(seen, e.Args[0])
		mu.Unlock()
		done <- struct{}{}
		return nil, nil
	}, Buffered(8), Blocking())

	for _, arg := range []string{"a", "b", "c"} {
		result, err := d.Dispatch(newEvent("async", arg))
		require.NoError(t, err)
		assert.Equal(t, "queued", result)
	}

	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("buffered handler never ran")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a", "b", "c"}, seen)
}

func TestBufferedHandlerDropsWhenFull(t *testing.T) {
	d, err := New(nopLogger{})
	require.NoError(t, err)

	block := make(chan struct{})
	d.Register("slow", func(e Event) (any, error) {
		<-block
		return nil, nil
	}, Buffered(1))

	// first event occupies the worker, second fills the buffer
	_, err = d.Dispatch(newEvent("slow"))
	require.NoError(t, err)

	dropped := false
	for i := 0; i < 10; i++ {
		if _, err := d.Dispatch(newEvent("slow")); err != nil {
			dropped = true
			break
		}
	}
	close(block)
	assert.True(t, dropped, "expected a dispatch to be dropped once the queue filled")
}
