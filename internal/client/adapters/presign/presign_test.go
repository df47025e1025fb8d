package presign

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/filepicker/internal/client/picker"
	"github.com/dmitrijs2005/filepicker/internal/netx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePresigner struct {
	base string
	err  error

	mu   sync.Mutex
	keys []string
}

func (f *fakePresigner) PresignPut(_ context.Context, key, _ string) (string, error) {
	f.mu.Lock()
	f.keys = append(f.keys, key)
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.base + "/objects/" + key + "?X-Amz-Signature=deadbeef", nil
}

type received struct {
	path        string
	contentType string
	length      int64
	body        []byte
}

func newSink(t *testing.T, status int) (*httptest.Server, chan received) {
	t.Helper()
	got := make(chan received, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got <- received{path: r.URL.Path, contentType: r.Header.Get("Content-Type"), length: r.ContentLength, body: b}
		w.WriteHeader(status)
		if status >= 300 {
			_, _ = io.WriteString(w, "<Error><Code>AccessDenied</Code></Error>")
		}
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func collect(t *testing.T, ch <-chan picker.Update) []picker.Update {
	t.Helper()
	var out []picker.Update
	timeout := time.After(5 * time.Second)
	for {
		select {
		case u, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, u)
		case <-timeout:
			t.Fatal("update stream was not closed")
		}
	}
}

func testItem(content string) *picker.FileItem {
	return picker.NewFileItem("report.txt", "text/plain", picker.BlobPayload(content))
}

func TestAdapter_UploadSuccess(t *testing.T) {
	srv, got := newSink(t, http.StatusOK)
	p := &fakePresigner{base: srv.URL}
	a := New(p, WithKeyPrefix("inbox"), WithHTTPClient(srv.Client()))

	content := strings.Repeat("x", 256<<10)
	item := testItem(content)

	ch, err := a.UploadFile(context.Background(), item)
	require.NoError(t, err)
	updates := collect(t, ch)
	require.NotEmpty(t, updates)

	last := updates[len(updates)-1]
	require.NoError(t, last.Err)
	require.Equal(t, picker.StatusUploaded, last.Status.Kind)

	key := "inbox/" + item.ID + "/report.txt"
	assert.Equal(t, Result{Key: key, URL: srv.URL + "/objects/" + key}, last.Status.Body)

	prev := -1
	for _, u := range updates[:len(updates)-1] {
		require.Equal(t, picker.StatusInProgress, u.Status.Kind)
		assert.Greater(t, u.Status.Progress, prev)
		prev = u.Status.Progress
	}
	assert.Equal(t, 100, prev)

	r := <-got
	assert.Equal(t, "/objects/"+key, r.path)
	assert.Equal(t, "text/plain", r.contentType)
	assert.Equal(t, int64(len(content)), r.length)
	assert.Equal(t, content, string(r.body))
	assert.Equal(t, []string{key}, p.keys)
}

func TestAdapter_RejectedUploadIsErrorStatus(t *testing.T) {
	srv, _ := newSink(t, http.StatusForbidden)
	a := New(&fakePresigner{base: srv.URL}, WithHTTPClient(srv.Client()))

	ch, err := a.UploadFile(context.Background(), testItem("data"))
	require.NoError(t, err)
	updates := collect(t, ch)

	last := updates[len(updates)-1]
	require.NoError(t, last.Err)
	require.Equal(t, picker.StatusError, last.Status.Kind)

	var httpErr *netx.HTTPError
	require.ErrorAs(t, last.Status.Body.(error), &httpErr)
	assert.Equal(t, http.StatusForbidden, httpErr.StatusCode)
	assert.Contains(t, httpErr.Body, "AccessDenied")
}

func TestAdapter_PresignFailureIsTransportError(t *testing.T) {
	boom := errors.New("no credentials")
	a := New(&fakePresigner{err: boom})

	ch, err := a.UploadFile(context.Background(), testItem("data"))
	require.NoError(t, err)
	updates := collect(t, ch)

	require.Len(t, updates, 1)
	assert.ErrorIs(t, updates[0].Err, boom)
}

func TestAdapter_NoPayload(t *testing.T) {
	a := New(&fakePresigner{})

	_, err := a.UploadFile(context.Background(), &picker.FileItem{ID: "x", Name: "x"})
	require.Error(t, err)
}

func TestAdapter_CancelEndsWithoutTerminal(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	a := New(&fakePresigner{base: srv.URL}, WithHTTPClient(srv.Client()))
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := a.UploadFile(ctx, testItem("data"))
	require.NoError(t, err)

	// progress arrives once the body has been sent
	first := <-ch
	require.Equal(t, picker.StatusInProgress, first.Status.Kind)
	cancel()

	for u := range ch {
		assert.False(t, u.Status.Terminal(), "terminal update after cancel")
		assert.NoError(t, u.Err)
	}
}
