package frame

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/shiny-updates/internal/board"
	"github.com/sevigo/shiny-updates/internal/core"
	"github.com/sevigo/shiny-updates/internal/jobs"
)

type call struct {
	op, plugin, slug string
}

type fakeOps struct {
	calls []call
}

func (f *fakeOps) UpdatePlugin(_, plugin, slug string) (*jobs.Future, error) {
	f.calls = append(f.calls, call{"update", plugin, slug})
	return nil, nil
}

func (f *fakeOps) InstallPlugin(_, slug string) (*jobs.Future, error) {
	f.calls = append(f.calls, call{"install", "", slug})
	return nil, nil
}

type collector []core.Event

func (c *collector) Publish(ev core.Event) { *c = append(*c, ev) }

func newBridge(t *testing.T) (*Bridge, *fakeOps, *board.Counters, *collector) {
	t.Helper()
	ops := &fakeOps{}
	counters := board.NewCounters(map[core.Entity]int{core.EntityPlugin: 2})
	events := &collector{}
	b, err := NewBridge("https://example.com/wp-admin/", ops, counters, events, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return b, ops, counters, events
}

func TestBridgeRoutes(t *testing.T) {
	b, ops, counters, events := newBridge(t)

	_, err := b.Accept("https://example.com", []byte(`{"action":"updatePlugin","type":"update-plugin","data":{"plugin":"a/a.php","slug":"a"}}`))
	require.NoError(t, err)
	_, err = b.Accept("HTTPS://Example.com", []byte(`{"action":"installPlugin","data":{"slug":"b"}}`))
	require.NoError(t, err)
	assert.Equal(t, []call{{"update", "a/a.php", "a"}, {"install", "", "b"}}, ops.calls)

	f, err := b.Accept("https://example.com", []byte(`{"action":"decrementUpdateCount","type":"plugin"}`))
	require.NoError(t, err)
	assert.Nil(t, f)
	assert.Equal(t, 1, counters.Total(core.EntityPlugin))
	require.Len(t, *events, 1)
	assert.Equal(t, core.CountDecremented{Entity: core.EntityPlugin, Total: 1}, (*events)[0])
}

func TestBridgeRejects(t *testing.T) {
	tests := []struct {
		name    string
		origin  string
		raw     string
		wantErr error
	}{
		{name: "foreign origin", origin: "https://evil.example", raw: `{"action":"updatePlugin"}`, wantErr: core.ErrOriginMismatch},
		{name: "different scheme", origin: "http://example.com", raw: `{"action":"updatePlugin"}`, wantErr: core.ErrOriginMismatch},
		{name: "no origin", origin: "null", raw: `{"action":"updatePlugin"}`, wantErr: core.ErrOriginMismatch},
		{name: "not json", origin: "https://example.com", raw: `updatePlugin`, wantErr: ErrMalformedMessage},
		{name: "unknown action", origin: "https://example.com", raw: `{"action":"deleteEverything"}`, wantErr: ErrUnknownAction},
		{name: "mismatched type", origin: "https://example.com", raw: `{"action":"updatePlugin","type":"delete-plugin"}`, wantErr: ErrMalformedMessage},
		{name: "unknown count type", origin: "https://example.com", raw: `{"action":"decrementUpdateCount","type":"widget"}`, wantErr: ErrMalformedMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, ops, counters, _ := newBridge(t)
			_, err := b.Accept(tt.origin, []byte(tt.raw))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, ops.calls)
			assert.Equal(t, 2, counters.Total(core.EntityPlugin))
		})
	}
}

func TestNewBridgeInvalidOrigin(t *testing.T) {
	_, err := NewBridge("example.com", &fakeOps{}, board.NewCounters(nil), &collector{}, slog.Default())
	assert.Error(t, err)
}
