package picker

import (
	"bytes"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Payload is the binary content of a FileItem. Open must return a fresh
// reader on every call so an upload can be retried.
type Payload interface {
	Open() (io.ReadCloser, error)
	Size() int64
}

// FilePayload reads the content from a file on disk.
type FilePayload struct {
	Path string
	size int64
}

// NewFilePayload stats path and returns a payload for it.
func NewFilePayload(path string) (*FilePayload, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return &FilePayload{Path: path, size: fi.Size()}, nil
}

func (p *FilePayload) Open() (io.ReadCloser, error) { return os.Open(p.Path) }
func (p *FilePayload) Size() int64                  { return p.size }

// BlobPayload holds the content in memory.
type BlobPayload []byte

func (b BlobPayload) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (b BlobPayload) Size() int64 { return int64(len(b)) }

// FileItem is one file selected for upload.
//
// Response is written in place by the Item that owns the FileItem, and only
// when an upload succeeds. A FileItem must be owned by a single Item at a
// time; sharing it between Items races on Response.
type FileItem struct {
	ID        string
	Name      string
	MediaType string
	Payload   Payload
	Response  any
}

// NewFileItem builds a FileItem with a fresh ID.
func NewFileItem(name, mediaType string, payload Payload) *FileItem {
	return &FileItem{
		ID:        uuid.NewString(),
		Name:      name,
		MediaType: mediaType,
		Payload:   payload,
	}
}

// NewFileItemFromPath builds a FileItem for a file on disk, sniffing the
// media type from its content.
func NewFileItemFromPath(path string) (*FileItem, error) {
	p, err := NewFilePayload(path)
	if err != nil {
		return nil, err
	}
	mt, err := DetectMediaType(path)
	if err != nil {
		return nil, err
	}
	return NewFileItem(filepath.Base(path), mt, p), nil
}

// Size reports the payload size, or 0 when there is no payload.
func (f *FileItem) Size() int64 {
	if f.Payload == nil {
		return 0
	}
	return f.Payload.Size()
}

// Merge returns a copy of f with Response replaced by resp.
func (f FileItem) Merge(resp any) FileItem {
	f.Response = resp
	return f
}

// DisplayURLFunc produces the reference used to render a preview of f.
// The result is trusted as-is.
type DisplayURLFunc func(f *FileItem) string

// DefaultDisplayURL returns a file:// URL for file payloads and "" for
// anything else.
func DefaultDisplayURL(f *FileItem) string {
	p, ok := f.Payload.(*FilePayload)
	if !ok {
		return ""
	}
	abs, err := filepath.Abs(p.Path)
	if err != nil {
		abs = p.Path
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String()
}
