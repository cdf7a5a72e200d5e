package notify

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/shiny-updates/internal/core"
)

// screenSink records what is visible and when.
type screenSink struct {
	mu        sync.Mutex
	visible   int
	maxActive int
	shown     []string
	shownAt   []time.Time
}

func (s *screenSink) Show(m core.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible++
	if s.visible > s.maxActive {
		s.maxActive = s.visible
	}
	s.shown = append(s.shown, m.Text)
	s.shownAt = append(s.shownAt, time.Now())
}

func (s *screenSink) Hide(core.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible--
}

func (s *screenSink) snapshot() (int, []string, []time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxActive, append([]string(nil), s.shown...), append([]time.Time(nil), s.shownAt...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestThrottlerOneAtATime(t *testing.T) {
	const (
		retry = 20 * time.Millisecond
		dwell = 60 * time.Millisecond
	)
	sink := &screenSink{}
	th := NewThrottler(sink, discardLogger(), WithRetryInterval(retry), WithDwellTime(dwell))
	defer th.Close()

	start := time.Now()
	th.Push(core.Message{Text: "one"})
	th.Push(core.Message{Text: "two"})
	th.Push(core.Message{Text: "three"})

	cur, ok := th.Current()
	require.True(t, ok)
	assert.Equal(t, "one", cur.Text)
	assert.Equal(t, 2, th.Pending())

	th.Wait()
	elapsed := time.Since(start)

	maxActive, shown, at := sink.snapshot()
	assert.Equal(t, 1, maxActive, "never more than one message on screen")
	assert.Equal(t, []string{"one", "two", "three"}, shown)
	assert.GreaterOrEqual(t, elapsed, 3*dwell-retry)
	for i := 1; i < len(at); i++ {
		assert.GreaterOrEqual(t, at[i].Sub(at[i-1]), dwell, "message %d shown before the previous dwell ended", i)
	}
}

func TestThrottlerPushWhileDisplaying(t *testing.T) {
	sink := &screenSink{}
	th := NewThrottler(sink, discardLogger(), WithRetryInterval(10*time.Millisecond), WithDwellTime(40*time.Millisecond))
	defer th.Close()

	th.Push(core.Message{Text: "first"})
	time.Sleep(15 * time.Millisecond)
	th.Push(core.Message{Text: "second"})

	_, shown, _ := sink.snapshot()
	assert.Equal(t, []string{"first"}, shown)

	th.Wait()
	_, shown, _ = sink.snapshot()
	assert.Equal(t, []string{"first", "second"}, shown)
}

func TestThrottlerClose(t *testing.T) {
	sink := &screenSink{}
	th := NewThrottler(sink, discardLogger(), WithDwellTime(time.Hour))

	th.Push(core.Message{Text: "a"})
	th.Push(core.Message{Text: "b"})
	th.Close()
	th.Wait()
	th.Push(core.Message{Text: "c"})

	_, shown, _ := sink.snapshot()
	assert.Equal(t, []string{"a"}, shown)
	assert.Equal(t, 0, th.Pending())
}

type publisherFunc func(core.Event)

func (f publisherFunc) Publish(ev core.Event) { f(ev) }

func TestSinks(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	var logBuf bytes.Buffer
	var events []core.Event
	var fn []string

	sink := MultiSink{
		NewWriterSink(&buf),
		LogSink{Logger: slog.New(slog.NewTextHandler(&logBuf, nil))},
		BusSink{Publisher: publisherFunc(func(ev core.Event) { events = append(events, ev) })},
		FuncSink(func(m core.Message) { fn = append(fn, m.Text) }),
	}

	sink.Show(core.Message{Text: "Update failed: Akismet.", Severity: core.SeverityError})
	sink.Show(core.Message{Text: "Updated!", Severity: core.SeveritySuccess})

	assert.Equal(t, "[error] Update failed: Akismet.\n[success] Updated!\n", buf.String())
	assert.True(t, strings.Contains(logBuf.String(), "level=WARN"))
	assert.True(t, strings.Contains(logBuf.String(), "level=INFO"))
	require.Len(t, events, 2)
	assert.Equal(t, "message-shown", events[0].EventName())
	assert.Equal(t, []string{"Update failed: Akismet.", "Updated!"}, fn)
}
