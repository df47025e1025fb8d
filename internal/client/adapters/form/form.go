// Package form uploads files as multipart/form-data POST requests.
//
// Every request carries a short-lived bearer token minted for the file ID
// and the BLAKE2b fingerprint of the payload, so the receiving end can
// reject uploads that were not meant for it or arrived damaged.
package form

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/dmitrijs2005/filepicker/internal/auth"
	"github.com/dmitrijs2005/filepicker/internal/client/picker"
	"github.com/dmitrijs2005/filepicker/internal/common"
	"github.com/dmitrijs2005/filepicker/internal/cryptox"
	"github.com/dmitrijs2005/filepicker/internal/logging"
	"github.com/dmitrijs2005/filepicker/internal/netx"
)

// FileField is the form field the payload is sent in.
const FileField = "file"

type Adapter struct {
	endpoint string
	secret   []byte
	tokenTTL time.Duration
	client   *http.Client
	logger   logging.Logger
}

type Option func(*Adapter)

func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) { a.client = c }
}

// WithTokenTTL sets how long minted upload tokens stay valid.
func WithTokenTTL(d time.Duration) Option {
	return func(a *Adapter) { a.tokenTTL = d }
}

func WithLogger(l logging.Logger) Option {
	return func(a *Adapter) { a.logger = l }
}

// New returns an adapter posting to endpoint and signing tokens with secret.
func New(endpoint string, secret []byte, opts ...Option) *Adapter {
	a := &Adapter{
		endpoint: endpoint,
		secret:   secret,
		tokenTTL: time.Minute,
		client:   http.DefaultClient,
		logger:   logging.Nop(),
	}
	for _, o := range opts {
		o(a)
	}
	a.logger = a.logger.With("module", "form_adapter")
	return a
}

func (a *Adapter) UploadFile(ctx context.Context, item *picker.FileItem) (<-chan picker.Update, error) {
	if item.Payload == nil {
		return nil, fmt.Errorf("file %s has no payload", item.ID)
	}

	return picker.Stream(ctx, func(ctx context.Context, progress func(int)) (picker.Status, error) {
		return a.upload(ctx, item, progress)
	}), nil
}

func (a *Adapter) upload(ctx context.Context, item *picker.FileItem, progress func(int)) (picker.Status, error) {
	fingerprint, err := a.fingerprint(item)
	if err != nil {
		return picker.Status{}, err
	}

	token, err := auth.GenerateToken(item.ID, a.secret, a.tokenTTL)
	if err != nil {
		return picker.Status{}, err
	}

	src, err := item.Payload.Open()
	if err != nil {
		return picker.Status{}, fmt.Errorf("open payload: %w", err)
	}
	defer src.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	written := make(chan struct{})
	go func() {
		defer close(written)
		pw.CloseWithError(writeForm(mw, item, netx.NewProgressReader(src, item.Payload.Size(), progress)))
	}()
	defer func() {
		pr.Close()
		<-written
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, pr)
	if err != nil {
		return picker.Status{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(common.AuthorizationHeaderName, "Bearer "+token)
	req.Header.Set(common.FingerprintHeaderName, fingerprint)

	a.logger.Debug(ctx, "posting form upload", "endpoint", a.endpoint, "file_id", item.ID)

	resp, err := a.client.Do(req)
	if err != nil {
		return picker.Status{}, err
	}
	defer resp.Body.Close()

	var httpErr *netx.HTTPError
	if err := netx.CheckResponse(resp); errors.As(err, &httpErr) {
		return picker.Failed(httpErr), nil
	}

	body := map[string]any{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		return picker.Status{}, fmt.Errorf("decode upload response: %w", err)
	}

	return picker.Uploaded(body), nil
}

func (a *Adapter) fingerprint(item *picker.FileItem) (string, error) {
	r, err := item.Payload.Open()
	if err != nil {
		return "", fmt.Errorf("open payload: %w", err)
	}
	defer r.Close()
	return cryptox.Fingerprint(r)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeForm(mw *multipart.Writer, item *picker.FileItem, content io.Reader) error {
	if err := mw.WriteField("id", item.ID); err != nil {
		return err
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		FileField, quoteEscaper.Replace(item.Name)))
	mediaType := item.MediaType
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	h.Set("Content-Type", mediaType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, content); err != nil {
		return err
	}
	return mw.Close()
}
