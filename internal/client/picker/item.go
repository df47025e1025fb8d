package picker

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/filepicker/internal/common"
	"github.com/dmitrijs2005/filepicker/internal/logging"
)

// State is the upload lifecycle state of an Item.
type State int

const (
	StateIdle State = iota
	StateUploading
	StateSucceeded
	StateFailed
	StateRemoved
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateUploading:
		return "uploading"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateRemoved:
		return "removed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

const (
	IconCheckmark = "checkmark"
	IconError     = "error"
)

// Options configures a new Item.
type Options struct {
	// Adapter performs uploads. Without one, uploads are skipped with a
	// warning.
	Adapter Adapter
	// AutoUpload starts the upload as soon as the Item is created.
	AutoUpload bool
	Listener   Listener
	Logger     logging.Logger
	// DisplayURL defaults to DefaultDisplayURL.
	DisplayURL DisplayURLFunc
}

// subscription is the handle of one upload attempt.
type subscription struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// release cancels the attempt. Safe to call on nil and more than once.
func (s *subscription) release() {
	if s == nil {
		return
	}
	s.cancel()
}

// Item is the upload controller of one previewed file.
type Item struct {
	ctx        context.Context
	file       *FileItem
	adapter    Adapter
	listener   Listener
	logger     logging.Logger
	fileType   string
	displayURL string

	// emitMu serializes event delivery and the transitions that must not
	// interleave with it (Remove, Close, starting a new attempt).
	emitMu sync.Mutex

	mu          sync.Mutex
	state       State
	icon        string
	progress    int
	hasProgress bool
	uploadErr   bool
	response    any
	attempts    int
	closed      bool
	sub         *subscription
}

// NewItem creates the controller for file. ctx bounds every upload attempt
// the Item makes; cancelling it tears the attempts down without events.
func NewItem(ctx context.Context, file *FileItem, opts Options) *Item {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	listener := opts.Listener
	if listener == nil {
		listener = ListenerFuncs{}
	}
	displayURL := opts.DisplayURL
	if displayURL == nil {
		displayURL = DefaultDisplayURL
	}

	it := &Item{
		ctx:      ctx,
		file:     file,
		adapter:  opts.Adapter,
		listener: listener,
		logger:   logger.With("module", "picker", "file_id", file.ID, "file", file.Name),
		state:    StateIdle,
		icon:     IconCheckmark,
	}
	it.fileType = FileType(file.MediaType)
	it.displayURL = displayURL(file)

	if opts.AutoUpload {
		_ = it.begin()
	}
	return it
}

// Upload starts an upload attempt. It is how uploads begin when AutoUpload
// is off.
func (it *Item) Upload() error {
	return it.begin()
}

// Retry starts a new attempt, dropping whatever attempt was active.
func (it *Item) Retry() error {
	it.logger.Info(it.ctx, "retrying upload")
	return it.begin()
}

func (it *Item) begin() error {
	if it.adapter == nil {
		it.logger.Warn(it.ctx, common.ErrMissingAdapter.Error())
		return common.ErrMissingAdapter
	}

	it.emitMu.Lock()
	it.mu.Lock()
	if it.state == StateRemoved || it.closed {
		it.mu.Unlock()
		it.emitMu.Unlock()
		return common.ErrItemRemoved
	}

	ctx, cancel := context.WithCancel(it.ctx)
	sub := &subscription{ctx: ctx, cancel: cancel, done: make(chan struct{})}
	old := it.sub
	it.sub = sub
	it.state = StateUploading
	it.uploadErr = false
	it.hasProgress = false
	it.attempts++
	attempt := it.attempts
	it.mu.Unlock()
	it.emitMu.Unlock()

	old.release()

	it.logger.Info(ctx, "upload started", "attempt", attempt)

	updates, err := it.adapter.UploadFile(ctx, it.file)
	if err != nil {
		go func() {
			defer close(sub.done)
			defer sub.release()
			it.handle(sub, Update{Err: err})
		}()
		return nil
	}

	go it.consume(sub, updates)
	return nil
}

func (it *Item) consume(sub *subscription, updates <-chan Update) {
	defer close(sub.done)
	defer sub.release()

	for {
		select {
		case <-sub.ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				it.handle(sub, Update{Err: common.ErrStreamClosed})
				return
			}
			if it.handle(sub, u) {
				return
			}
		}
	}
}

// handle applies one update of sub and emits the resulting event, if any.
// It reports whether the attempt is over.
func (it *Item) handle(sub *subscription, u Update) bool {
	it.emitMu.Lock()
	defer it.emitMu.Unlock()

	it.mu.Lock()
	if it.sub != sub || it.closed || it.state != StateUploading || sub.ctx.Err() != nil {
		it.mu.Unlock()
		return true
	}

	if u.Err != nil {
		it.markFailed()
		it.mu.Unlock()

		it.logger.Error(sub.ctx, "upload stream failed", "error", u.Err)
		it.listener.UploadFail(&UploadError{FileID: it.file.ID, Cause: u.Err})
		return true
	}

	switch u.Status.Kind {
	case StatusInProgress:
		it.progress = u.Status.Progress
		it.hasProgress = true
		it.mu.Unlock()

		it.logger.Debug(sub.ctx, "upload progress", "progress", u.Status.Progress)
		return false

	case StatusUploaded:
		body := u.Status.Body
		it.response = body
		it.file.Response = body
		it.hasProgress = false
		it.state = StateSucceeded
		merged := it.file.Merge(body)
		it.mu.Unlock()

		it.logger.Info(sub.ctx, "upload succeeded")
		it.listener.UploadSuccess(merged)
		return true

	case StatusError:
		it.markFailed()
		it.mu.Unlock()

		it.logger.Warn(sub.ctx, "upload rejected", "body", u.Status.Body)
		it.listener.UploadFail(&UploadError{FileID: it.file.ID, Body: u.Status.Body})
		return true

	default:
		it.mu.Unlock()
		it.logger.Warn(sub.ctx, "ignoring unknown upload status", "kind", u.Status.Kind)
		return false
	}
}

// markFailed must be called with mu held.
func (it *Item) markFailed() {
	it.uploadErr = true
	it.hasProgress = false
	it.state = StateFailed
}

// Remove cancels any upload in flight and emits RemoveFile with the last
// known response. Nothing is emitted by the Item afterwards. Calling Remove
// again does nothing.
func (it *Item) Remove() {
	it.emitMu.Lock()
	defer it.emitMu.Unlock()

	it.mu.Lock()
	if it.state == StateRemoved || it.closed {
		it.mu.Unlock()
		return
	}
	it.state = StateRemoved
	it.hasProgress = false
	sub := it.sub
	merged := it.file.Merge(it.response)
	it.mu.Unlock()

	sub.release()

	it.logger.Info(it.ctx, "file removed")
	it.listener.RemoveFile(merged)
}

// Close releases the active upload without emitting anything. The Item is
// unusable afterwards.
func (it *Item) Close() {
	it.emitMu.Lock()
	defer it.emitMu.Unlock()

	it.mu.Lock()
	it.closed = true
	sub := it.sub
	it.mu.Unlock()

	sub.release()
}

// Wait blocks until the goroutine of the current attempt has finished, or
// ctx is done. It returns immediately when no upload was ever started.
func (it *Item) Wait(ctx context.Context) error {
	it.mu.Lock()
	sub := it.sub
	it.mu.Unlock()

	if sub == nil {
		return nil
	}
	select {
	case <-sub.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ToggleIcon switches the tile icon between checkmark and error.
func (it *Item) ToggleIcon() {
	it.mu.Lock()
	defer it.mu.Unlock()

	if it.icon == IconCheckmark {
		it.icon = IconError
	} else {
		it.icon = IconCheckmark
	}
}

// Click reports a click on the preview.
func (it *Item) Click() {
	it.emitMu.Lock()
	defer it.emitMu.Unlock()

	it.mu.Lock()
	if it.state == StateRemoved || it.closed {
		it.mu.Unlock()
		return
	}
	f := *it.file
	it.mu.Unlock()

	it.listener.ImageClicked(f)
}

func (it *Item) State() State {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.state
}

// Progress returns the latest progress percentage. ok is false when no
// upload is running or none has reported progress yet.
func (it *Item) Progress() (progress int, ok bool) {
	it.mu.Lock()
	defer it.mu.Unlock()
	if !it.hasProgress {
		return 0, false
	}
	return it.progress, true
}

// Failed reports the error flag of the tile.
func (it *Item) Failed() bool {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.uploadErr
}

// Response returns the body of the last successful upload.
func (it *Item) Response() any {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.response
}

func (it *Item) Icon() string {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.icon
}

// Attempts counts the upload attempts started so far.
func (it *Item) Attempts() int {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.attempts
}

// File returns a snapshot of the owned FileItem.
func (it *Item) File() FileItem {
	it.mu.Lock()
	defer it.mu.Unlock()
	return *it.file
}

func (it *Item) FileType() string   { return it.fileType }
func (it *Item) DisplayURL() string { return it.displayURL }

// SizeLabel is the human-readable payload size, e.g. "1.5 KB".
func (it *Item) SizeLabel() string {
	return FormatBytes(float64(it.file.Size()))
}
