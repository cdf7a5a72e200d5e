package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/shiny-updates/internal/core"
)

func TestQueue(t *testing.T) {
	var q Queue[string]

	_, ok := q.Pop()
	assert.False(t, ok)

	q.Push("a")
	q.Push("b")
	q.PushFront("retry")
	assert.Equal(t, 3, q.Len())
	assert.Equal(t, []string{"retry", "a", "b"}, q.Snapshot())

	head, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "retry", head)

	assert.Equal(t, []string{"a", "b"}, q.Clear())
	assert.Equal(t, 0, q.Len())
	_, ok = q.Pop()
	assert.False(t, ok)
}

func TestFutureContinuations(t *testing.T) {
	f := newFuture(core.NewJob(core.KindUpdateTheme, core.Payload{Slug: "t"}))

	var order []string
	f.Then(func(o core.Outcome) { order = append(order, "first:"+o.Status.String()) })
	f.Then(func(core.Outcome) { order = append(order, "second") })

	assert.True(t, f.resolve(core.Outcome{Status: core.StatusSucceeded}))
	assert.False(t, f.resolve(core.Outcome{Status: core.StatusFailed}))

	f.Then(func(o core.Outcome) { order = append(order, "late:"+o.Status.String()) })
	assert.Equal(t, []string{"first:succeeded", "second", "late:succeeded"}, order)
	assert.Equal(t, "t", f.Outcome().Job.Payload.Slug)
}

func TestFutureWait(t *testing.T) {
	f := newFuture(core.Job{})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := f.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	go f.resolve(core.Outcome{Status: core.StatusCancelled, Err: core.ErrCancelled})
	o, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, core.StatusCancelled, o.Status)
	assert.True(t, f.Resolved())
}
