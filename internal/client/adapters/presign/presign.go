// Package presign uploads files in two steps: it asks a Presigner for a
// presigned PUT URL, then sends the payload to that URL.
package presign

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"

	"github.com/dmitrijs2005/filepicker/internal/client/picker"
	"github.com/dmitrijs2005/filepicker/internal/logging"
	"github.com/dmitrijs2005/filepicker/internal/netx"
)

// Presigner returns a URL that accepts a single PUT of the object key.
type Presigner interface {
	PresignPut(ctx context.Context, key, contentType string) (string, error)
}

// Result is the body of a successful upload.
type Result struct {
	Key string `json:"key"`
	// URL is the presigned URL without its signing query.
	URL string `json:"url"`
}

type Adapter struct {
	presigner Presigner
	client    *http.Client
	prefix    string
	logger    logging.Logger
}

type Option func(*Adapter)

// WithHTTPClient sets the client the PUT is sent with.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) { a.client = c }
}

// WithKeyPrefix places objects under prefix.
func WithKeyPrefix(prefix string) Option {
	return func(a *Adapter) { a.prefix = prefix }
}

func WithLogger(l logging.Logger) Option {
	return func(a *Adapter) { a.logger = l }
}

func New(p Presigner, opts ...Option) *Adapter {
	a := &Adapter{presigner: p, client: http.DefaultClient, logger: logging.Nop()}
	for _, o := range opts {
		o(a)
	}
	a.logger = a.logger.With("module", "presign_adapter")
	return a
}

// Key is the object key item is stored under.
func (a *Adapter) Key(item *picker.FileItem) string {
	return path.Join(a.prefix, item.ID, path.Base(item.Name))
}

func (a *Adapter) UploadFile(ctx context.Context, item *picker.FileItem) (<-chan picker.Update, error) {
	if item.Payload == nil {
		return nil, fmt.Errorf("file %s has no payload", item.ID)
	}
	key := a.Key(item)

	return picker.Stream(ctx, func(ctx context.Context, progress func(int)) (picker.Status, error) {
		signed, err := a.presigner.PresignPut(ctx, key, item.MediaType)
		if err != nil {
			return picker.Status{}, fmt.Errorf("presign %s: %w", key, err)
		}

		body, err := item.Payload.Open()
		if err != nil {
			return picker.Status{}, fmt.Errorf("open payload: %w", err)
		}
		defer body.Close()

		size := item.Payload.Size()
		pr := netx.NewProgressReader(body, size, progress)

		a.logger.Debug(ctx, "uploading to presigned url", "key", key, "size", size)

		err = netx.PutPresigned(ctx, a.client, signed, pr, size, item.MediaType)
		var httpErr *netx.HTTPError
		if errors.As(err, &httpErr) {
			return picker.Failed(httpErr), nil
		}
		if err != nil {
			return picker.Status{}, err
		}

		return picker.Uploaded(Result{Key: key, URL: stripQuery(signed)}), nil
	}), nil
}

func stripQuery(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.RawQuery = ""
	return u.String()
}
