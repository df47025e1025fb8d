package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/filepicker/internal/client/picker"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

// outcomeAdapter uploads everything successfully, except files whose name
// starts with "fail", which the server rejects.
var outcomeAdapter = picker.AdapterFunc(func(ctx context.Context, item *picker.FileItem) (<-chan picker.Update, error) {
	return picker.Stream(ctx, func(ctx context.Context, progress func(int)) (picker.Status, error) {
		progress(50)
		if strings.HasPrefix(item.Name, "fail") {
			return picker.Failed("quota exceeded"), nil
		}
		progress(100)
		return picker.Uploaded(map[string]any{"id": item.ID}), nil
	}), nil
})

// stuckAdapter reports 30% and then waits for cancellation.
var stuckAdapter = picker.AdapterFunc(func(ctx context.Context, item *picker.FileItem) (<-chan picker.Update, error) {
	return picker.Stream(ctx, func(ctx context.Context, progress func(int)) (picker.Status, error) {
		progress(30)
		<-ctx.Done()
		return picker.Status{}, ctx.Err()
	}), nil
})

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func blob(name, content string) *picker.FileItem {
	return picker.NewFileItem(name, "text/plain", picker.BlobPayload(content))
}

// drain prints every queued event.
func drain(tr *Tray) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tr.Render(ctx)
}
