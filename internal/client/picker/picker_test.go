package picker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeAdapter hands out one unbuffered stream per UploadFile call so tests
// decide exactly when each update is delivered.
type fakeAdapter struct {
	mu      sync.Mutex
	err     error
	streams []chan Update
	ctxs    []context.Context
	items   []*FileItem
}

func (f *fakeAdapter) UploadFile(ctx context.Context, item *FileItem) (<-chan Update, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.ctxs = append(f.ctxs, ctx)
	f.items = append(f.items, item)
	if f.err != nil {
		f.streams = append(f.streams, nil)
		return nil, f.err
	}
	ch := make(chan Update)
	f.streams = append(f.streams, ch)
	return ch, nil
}

func (f *fakeAdapter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ctxs)
}

func (f *fakeAdapter) stream(t *testing.T, i int) chan Update {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.Greater(t, len(f.streams), i, "no stream #%d", i)
	return f.streams[i]
}

func (f *fakeAdapter) ctx(t *testing.T, i int) context.Context {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.Greater(t, len(f.ctxs), i, "no context #%d", i)
	return f.ctxs[i]
}

type event struct {
	kind string
	item FileItem
	err  error
}

// recorder is a Listener that queues every event it sees.
type recorder struct {
	events chan event
}

func newRecorder() *recorder {
	return &recorder{events: make(chan event, 32)}
}

func (r *recorder) RemoveFile(item FileItem)    { r.events <- event{kind: "remove", item: item} }
func (r *recorder) UploadSuccess(item FileItem) { r.events <- event{kind: "success", item: item} }
func (r *recorder) UploadFail(err error)        { r.events <- event{kind: "fail", err: err} }
func (r *recorder) ImageClicked(item FileItem)  { r.events <- event{kind: "click", item: item} }

func (r *recorder) next(t *testing.T) event {
	t.Helper()
	select {
	case e := <-r.events:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return event{}
	}
}

func (r *recorder) none(t *testing.T) {
	t.Helper()
	select {
	case e := <-r.events:
		t.Fatalf("unexpected event %q", e.kind)
	case <-time.After(50 * time.Millisecond):
	}
}

// push delivers u on ch and fails the test if nobody is listening.
func push(t *testing.T, ch chan Update, u Update) {
	t.Helper()
	select {
	case ch <- u:
	case <-time.After(2 * time.Second):
		t.Fatal("stream consumer is not receiving")
	}
}

// offer tries to deliver u and reports whether anybody took it.
func offer(ch chan Update, u Update) bool {
	select {
	case ch <- u:
		return true
	case <-time.After(50 * time.Millisecond):
		return false
	}
}

func newTestFile() *FileItem {
	return NewFileItem("cat.png", "image/png", BlobPayload("meow"))
}
