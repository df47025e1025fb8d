package picker

import (
	"fmt"

	"github.com/dmitrijs2005/filepicker/internal/common"
)

// Listener receives the lifecycle events of an Item.
type Listener interface {
	RemoveFile(item FileItem)
	UploadSuccess(item FileItem)
	UploadFail(err error)
	ImageClicked(item FileItem)
}

// ListenerFuncs is a Listener built from optional funcs. Nil funcs are
// skipped.
type ListenerFuncs struct {
	OnRemoveFile    func(FileItem)
	OnUploadSuccess func(FileItem)
	OnUploadFail    func(error)
	OnImageClicked  func(FileItem)
}

func (l ListenerFuncs) RemoveFile(item FileItem) {
	if l.OnRemoveFile != nil {
		l.OnRemoveFile(item)
	}
}

func (l ListenerFuncs) UploadSuccess(item FileItem) {
	if l.OnUploadSuccess != nil {
		l.OnUploadSuccess(item)
	}
}

func (l ListenerFuncs) UploadFail(err error) {
	if l.OnUploadFail != nil {
		l.OnUploadFail(err)
	}
}

func (l ListenerFuncs) ImageClicked(item FileItem) {
	if l.OnImageClicked != nil {
		l.OnImageClicked(item)
	}
}

// UploadError is the payload of UploadFail. Body is set when the adapter
// reported an Error status, Cause when the stream itself failed.
type UploadError struct {
	FileID string
	Body   any
	Cause  error
}

func (e *UploadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", common.ErrUploadFailed, e.Cause)
	}
	return fmt.Sprintf("%s: %v", common.ErrUploadFailed, e.Body)
}

func (e *UploadError) Unwrap() error { return e.Cause }

func (e *UploadError) Is(target error) bool { return target == common.ErrUploadFailed }
