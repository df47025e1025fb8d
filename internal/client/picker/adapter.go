package picker

import "context"

// Adapter performs the actual upload of a FileItem.
//
// UploadFile returns immediately. The returned channel delivers updates in
// order and is closed by the adapter once the upload ends or ctx is done.
// A non-nil error means the upload could not be started at all.
type Adapter interface {
	UploadFile(ctx context.Context, item *FileItem) (<-chan Update, error)
}

// AdapterFunc lets an ordinary function act as an Adapter.
type AdapterFunc func(ctx context.Context, item *FileItem) (<-chan Update, error)

func (f AdapterFunc) UploadFile(ctx context.Context, item *FileItem) (<-chan Update, error) {
	return f(ctx, item)
}

// Send delivers u on ch unless ctx is done first. Adapters use it so a
// cancelled upload never blocks on a consumer that went away.
func Send(ctx context.Context, ch chan<- Update, u Update) bool {
	select {
	case ch <- u:
		return true
	case <-ctx.Done():
		return false
	}
}

// UploadFunc performs one upload, calling progress with whole percentages
// as it goes. It returns the terminal Status the server answered with, or an
// error when the transport failed before an answer arrived.
type UploadFunc func(ctx context.Context, progress func(percent int)) (Status, error)

// Stream runs upload on its own goroutine and relays its progress and
// outcome as Updates. The channel is closed when upload returns. Once ctx
// is done nothing further is delivered, so a cancelled upload ends without
// a terminal update.
func Stream(ctx context.Context, upload UploadFunc) <-chan Update {
	ch := make(chan Update)

	go func() {
		defer close(ch)

		st, err := upload(ctx, func(percent int) {
			Send(ctx, ch, Update{Status: InProgress(percent)})
		})
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			Send(ctx, ch, Update{Err: err})
			return
		}
		Send(ctx, ch, Update{Status: st})
	}()

	return ch
}
