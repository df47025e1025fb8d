package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/filepicker/internal/client/picker"
	"github.com/dmitrijs2005/filepicker/internal/logging"
)

const refreshInterval = 200 * time.Millisecond

type eventKind int

const (
	eventSuccess eventKind = iota
	eventFail
	eventRemove
	eventClick
)

type event struct {
	kind  eventKind
	index int
	file  picker.FileItem
	err   error
}

// TrayOptions configures a Tray.
type TrayOptions struct {
	Adapter    picker.Adapter
	AutoUpload bool
	Logger     logging.Logger
	Out        io.Writer
	// Live redraws a progress line in place. Only meaningful on a terminal.
	Live bool
}

// Tray holds the Items of one run and reports their events on Out.
//
// Listeners only queue events; Render prints them. Items are numbered from
// 1 in the order they were added.
type Tray struct {
	ctx        context.Context
	adapter    picker.Adapter
	autoUpload bool
	logger     logging.Logger
	live       bool

	mu       sync.Mutex
	items    []*picker.Item
	problems int

	outMu     sync.Mutex
	out       io.Writer
	liveShown bool

	events chan event
}

// NewTray creates an empty Tray. ctx bounds every upload started by it.
func NewTray(ctx context.Context, o TrayOptions) *Tray {
	logger := o.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	out := o.Out
	if out == nil {
		out = io.Discard
	}
	return &Tray{
		ctx:        ctx,
		adapter:    o.Adapter,
		autoUpload: o.AutoUpload,
		logger:     logger.With("module", "tray"),
		live:       o.Live,
		out:        out,
		events:     make(chan event, 64),
	}
}

// Add creates an Item for the file at path. A file that cannot be read is
// counted as a problem in the Summary.
func (t *Tray) Add(path string) (int, error) {
	file, err := picker.NewFileItemFromPath(path)
	if err != nil {
		t.Problem()
		return 0, fmt.Errorf("add %s: %w", path, err)
	}
	return t.AddFile(file), nil
}

// AddFile creates an Item for file and returns its number.
func (t *Tray) AddFile(file *picker.FileItem) int {
	t.mu.Lock()
	t.items = append(t.items, nil)
	index := len(t.items)
	t.mu.Unlock()

	t.println(fmt.Sprintf("[%d] %s (%s, %s)", index, file.Name,
		picker.FileType(file.MediaType), picker.FormatBytes(float64(file.Size()))))

	it := picker.NewItem(t.ctx, file, picker.Options{
		Adapter:    t.adapter,
		AutoUpload: t.autoUpload,
		Listener:   t.listener(index),
		Logger:     t.logger,
	})

	t.mu.Lock()
	t.items[index-1] = it
	t.mu.Unlock()

	return index
}

// Problem records a failure that did not come from an Item.
func (t *Tray) Problem() {
	t.mu.Lock()
	t.problems++
	t.mu.Unlock()
}

// Item returns the Item numbered n.
func (t *Tray) Item(n int) (*picker.Item, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n < 1 || n > len(t.items) || t.items[n-1] == nil {
		return nil, fmt.Errorf("no file %d", n)
	}
	return t.items[n-1], nil
}

type slot struct {
	n    int
	item *picker.Item
}

// snapshot lists the Items created so far with their numbers.
func (t *Tray) snapshot() []slot {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]slot, 0, len(t.items))
	for i, it := range t.items {
		if it != nil {
			out = append(out, slot{n: i + 1, item: it})
		}
	}
	return out
}

func (t *Tray) listener(index int) picker.Listener {
	send := func(e event) {
		e.index = index
		select {
		case t.events <- e:
		case <-t.ctx.Done():
		}
	}
	return picker.ListenerFuncs{
		OnUploadSuccess: func(f picker.FileItem) { send(event{kind: eventSuccess, file: f}) },
		OnUploadFail:    func(err error) { send(event{kind: eventFail, err: err}) },
		OnRemoveFile:    func(f picker.FileItem) { send(event{kind: eventRemove, file: f}) },
		OnImageClicked:  func(f picker.FileItem) { send(event{kind: eventClick, file: f}) },
	}
}

// Render prints queued events until ctx is done, then prints whatever is
// still queued.
func (t *Tray) Render(ctx context.Context) {
	var tick <-chan time.Time
	if t.live {
		ticker := time.NewTicker(refreshInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case e := <-t.events:
			t.report(e)
		case <-tick:
			t.drawProgress()
		case <-ctx.Done():
			for {
				select {
				case e := <-t.events:
					t.report(e)
				default:
					t.clearLive()
					return
				}
			}
		}
	}
}

func (t *Tray) report(e event) {
	switch e.kind {
	case eventSuccess:
		t.println(fmt.Sprintf("[%d] %s uploaded: %v", e.index, e.file.Name, e.file.Response))
	case eventFail:
		t.println(fmt.Sprintf("[%d] %v", e.index, e.err))
	case eventRemove:
		t.println(fmt.Sprintf("[%d] %s removed", e.index, e.file.Name))
	case eventClick:
		ref := picker.DefaultDisplayURL(&e.file)
		if ref == "" {
			ref = "no preview"
		}
		t.println(fmt.Sprintf("[%d] %s: %s", e.index, e.file.Name, ref))
	}
}

// drawProgress rewrites the progress line with every upload that has
// reported progress.
func (t *Tray) drawProgress() {
	var parts []string
	for _, s := range t.snapshot() {
		if p, ok := s.item.Progress(); ok {
			parts = append(parts, fmt.Sprintf("[%d] %s %d%%", s.n, s.item.File().Name, p))
		}
	}

	t.outMu.Lock()
	defer t.outMu.Unlock()
	if len(parts) == 0 {
		t.clearLiveLocked()
		return
	}
	fmt.Fprint(t.out, "\r\033[K"+strings.Join(parts, "  "))
	t.liveShown = true
}

func (t *Tray) clearLive() {
	t.outMu.Lock()
	defer t.outMu.Unlock()
	t.clearLiveLocked()
}

func (t *Tray) clearLiveLocked() {
	if t.liveShown {
		fmt.Fprint(t.out, "\r\033[K")
		t.liveShown = false
	}
}

func (t *Tray) println(line string) {
	t.outMu.Lock()
	defer t.outMu.Unlock()
	t.clearLiveLocked()
	fmt.Fprintln(t.out, line)
}

func (t *Tray) print(s string) {
	t.outMu.Lock()
	defer t.outMu.Unlock()
	t.clearLiveLocked()
	fmt.Fprint(t.out, s)
}

// Wait blocks until every Item's current attempt is over or ctx is done.
func (t *Tray) Wait(ctx context.Context) error {
	for _, s := range t.snapshot() {
		if err := s.item.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close releases every Item without further events.
func (t *Tray) Close() {
	for _, s := range t.snapshot() {
		s.item.Close()
	}
}

// Summary counts the Items by state.
type Summary struct {
	Uploaded int
	Failed   int
	Pending  int
	Removed  int
	Problems int
}

func (s Summary) OK() bool { return s.Failed == 0 && s.Problems == 0 }

func (s Summary) String() string {
	str := fmt.Sprintf("%d uploaded, %d failed, %d pending, %d removed", s.Uploaded, s.Failed, s.Pending, s.Removed)
	if s.Problems > 0 {
		str += fmt.Sprintf(", %d errors", s.Problems)
	}
	return str
}

func (t *Tray) Summary() Summary {
	var s Summary
	for _, e := range t.snapshot() {
		switch e.item.State() {
		case picker.StateSucceeded:
			s.Uploaded++
		case picker.StateFailed:
			s.Failed++
		case picker.StateRemoved:
			s.Removed++
		default:
			s.Pending++
		}
	}
	t.mu.Lock()
	s.Problems = t.problems
	t.mu.Unlock()
	return s
}
