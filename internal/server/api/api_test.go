package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/filepicker/internal/auth"
	"github.com/dmitrijs2005/filepicker/internal/common"
	"github.com/dmitrijs2005/filepicker/internal/cryptox"
	"github.com/dmitrijs2005/filepicker/internal/logging"
	"github.com/dmitrijs2005/filepicker/internal/server/storage"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

// pngHeader is enough of a PNG for content sniffing.
var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func newTestRouter(t *testing.T, bodyLimit string) (*echo.Echo, *storage.DiskStore) {
	t.Helper()
	store, err := storage.NewDiskStore(t.TempDir())
	require.NoError(t, err)
	h := NewHandler(store, logging.Nop())
	return SetupRouter(h, logging.Nop(), testSecret, bodyLimit), store
}

type uploadRequest struct {
	fileID      string
	formID      string
	token       string
	fingerprint string
	name        string
	content     []byte
	noFile      bool
}

func newUploadRequest(t *testing.T, r uploadRequest) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	if r.formID != "" {
		require.NoError(t, mw.WriteField("id", r.formID))
	}
	if !r.noFile {
		fw, err := mw.CreateFormFile("file", r.name)
		require.NoError(t, err)
		_, err = fw.Write(r.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	if r.token != "" {
		req.Header.Set(common.AuthorizationHeaderName, "Bearer "+r.token)
	}
	if r.fingerprint != "" {
		req.Header.Set(common.FingerprintHeaderName, r.fingerprint)
	}
	return req
}

func validUpload(t *testing.T, content []byte) uploadRequest {
	t.Helper()
	id := uuid.NewString()
	tok, err := auth.GenerateToken(id, testSecret, time.Minute)
	require.NoError(t, err)
	return uploadRequest{
		fileID:      id,
		formID:      id,
		token:       tok,
		fingerprint: cryptox.FingerprintBytes(content),
		name:        "notes.txt",
		content:     content,
	}
}

// signedPath appends a presigned SigV4 query, signed at signedAt and valid
// for expires, to path.
func signedPath(path string, signedAt time.Time, expires time.Duration) string {
	q := url.Values{}
	q.Set("X-Amz-Algorithm", "AWS4-HMAC-SHA256")
	q.Set("X-Amz-Credential", "admin/20250101/us-east-1/s3/aws4_request")
	q.Set("X-Amz-Date", signedAt.UTC().Format("20060102T150405Z"))
	q.Set("X-Amz-Expires", strconv.Itoa(int(expires/time.Second)))
	q.Set("X-Amz-SignedHeaders", "host")
	q.Set("X-Amz-Signature", "abc")
	return path + "?" + q.Encode()
}

func presigned(path string) string {
	return signedPath(path, time.Now(), 15*time.Minute)
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

func TestHandleUpload_Success(t *testing.T) {
	e, store := newTestRouter(t, "1M")
	content := []byte("hello sink")
	r := validUpload(t, content)

	rec := serve(e, newUploadRequest(t, r))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, r.fileID, resp.ID)
	assert.Equal(t, "notes.txt", resp.Name)
	assert.Equal(t, int64(len(content)), resp.Size)
	assert.NotEmpty(t, resp.MediaType)

	stored, err := os.ReadFile(filepath.Join(store.Root(), r.fileID))
	require.NoError(t, err)
	assert.Equal(t, content, stored)
}

func TestHandleUpload_SniffsMediaType(t *testing.T) {
	e, _ := newTestRouter(t, "1M")
	r := validUpload(t, pngHeader)
	r.name = "pixel"

	rec := serve(e, newUploadRequest(t, r))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", decode(t, rec)["media_type"])
}

func TestHandleUpload_Rejections(t *testing.T) {
	expired, err := auth.GenerateToken(uuid.NewString(), testSecret, -time.Second)
	require.NoError(t, err)
	notUUID, err := auth.GenerateToken("not-a-uuid", testSecret, time.Minute)
	require.NoError(t, err)
	foreign, err := auth.GenerateToken(uuid.NewString(), []byte("other-secret"), time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name     string
		mutate   func(r *uploadRequest)
		wantCode int
		wantErr  string
	}{
		{name: "missing token", mutate: func(r *uploadRequest) { r.token = "" },
			wantCode: http.StatusUnauthorized, wantErr: "missing token"},
		{name: "expired token", mutate: func(r *uploadRequest) { r.token = expired },
			wantCode: http.StatusUnauthorized, wantErr: "token expired"},
		{name: "foreign signature", mutate: func(r *uploadRequest) { r.token = foreign },
			wantCode: http.StatusUnauthorized, wantErr: "invalid token"},
		{name: "subject is not a file id", mutate: func(r *uploadRequest) { r.token = notUUID; r.formID = "" },
			wantCode: http.StatusBadRequest},
		{name: "token for another file", mutate: func(r *uploadRequest) { r.formID = uuid.NewString() },
			wantCode: http.StatusForbidden},
		{name: "missing fingerprint", mutate: func(r *uploadRequest) { r.fingerprint = "" },
			wantCode: http.StatusBadRequest},
		{name: "missing file", mutate: func(r *uploadRequest) { r.noFile = true },
			wantCode: http.StatusBadRequest},
		{name: "fingerprint mismatch", mutate: func(r *uploadRequest) { r.fingerprint = cryptox.FingerprintBytes([]byte("else")) },
			wantCode: http.StatusUnprocessableEntity, wantErr: "fingerprint mismatch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, store := newTestRouter(t, "1M")
			r := validUpload(t, []byte("payload"))
			tt.mutate(&r)

			rec := serve(e, newUploadRequest(t, r))
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, decode(t, rec)["error"])
			}

			_, err := store.GetPath(r.fileID)
			assert.ErrorIs(t, err, common.ErrorNotFound, "rejected upload must not be stored")
		})
	}
}

func TestHandleUpload_FingerprintIsCaseInsensitive(t *testing.T) {
	e, _ := newTestRouter(t, "1M")
	r := validUpload(t, []byte("payload"))
	r.fingerprint = strings.ToUpper(r.fingerprint)

	rec := serve(e, newUploadRequest(t, r))
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestHandlePutObject(t *testing.T) {
	t.Run("stores raw body", func(t *testing.T) {
		e, store := newTestRouter(t, "1M")

		req := httptest.NewRequest(http.MethodPut, presigned("/objects/bucket/docs/a.txt"), strings.NewReader("raw bytes"))
		req.Header.Set(echo.HeaderContentType, "text/plain")
		rec := serve(e, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp UploadResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, UploadResponse{ID: "bucket/docs/a.txt", Name: "a.txt", Size: 9, MediaType: "text/plain"}, resp)

		stored, err := os.ReadFile(filepath.Join(store.Root(), "bucket", "docs", "a.txt"))
		require.NoError(t, err)
		assert.Equal(t, "raw bytes", string(stored))
	})

	t.Run("sniffs octet-stream", func(t *testing.T) {
		e, _ := newTestRouter(t, "1M")

		req := httptest.NewRequest(http.MethodPut, presigned("/objects/img"), bytes.NewReader(pngHeader))
		req.Header.Set(echo.HeaderContentType, echo.MIMEOctetStream)
		rec := serve(e, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/png", decode(t, rec)["media_type"])
	})

	t.Run("body limit", func(t *testing.T) {
		e, _ := newTestRouter(t, "1K")

		req := httptest.NewRequest(http.MethodPut, presigned("/objects/big"), bytes.NewReader(make([]byte, 4096)))
		rec := serve(e, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})
}

func TestHandleDeleteObject(t *testing.T) {
	e, store := newTestRouter(t, "1M")

	_, err := store.Save("bucket/x", strings.NewReader("x"))
	require.NoError(t, err)

	rec := serve(e, httptest.NewRequest(http.MethodDelete, presigned("/objects/bucket/x"), nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	_, err = store.GetPath("bucket/x")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestObjectRoutes_RequireSignedRequest(t *testing.T) {
	now := time.Now()

	headerSigned := func(at time.Time) func(r *http.Request) {
		return func(r *http.Request) {
			r.Header.Set(common.AuthorizationHeaderName, "AWS4-HMAC-SHA256 Credential=admin/20250101/us-east-1/s3/aws4_request, SignedHeaders=host, Signature=abc")
			r.Header.Set("X-Amz-Date", at.UTC().Format("20060102T150405Z"))
		}
	}

	tests := []struct {
		name     string
		method   string
		target   string
		prepare  func(r *http.Request)
		wantCode int
	}{
		{name: "no credentials", method: http.MethodPut, target: "/objects/k", wantCode: http.StatusForbidden},
		{name: "bearer token is not enough", method: http.MethodPut, target: "/objects/k", prepare: func(r *http.Request) {
			r.Header.Set(common.AuthorizationHeaderName, "Bearer x")
		}, wantCode: http.StatusForbidden},
		{name: "expired presign", method: http.MethodPut, target: signedPath("/objects/k", now.Add(-time.Hour), 15*time.Minute), wantCode: http.StatusForbidden},
		{name: "presign from the future", method: http.MethodPut, target: signedPath("/objects/k", now.Add(time.Hour), 15*time.Minute), wantCode: http.StatusForbidden},
		{name: "expiry over a week", method: http.MethodPut, target: signedPath("/objects/k", now, 8*24*time.Hour), wantCode: http.StatusForbidden},
		{name: "wrong algorithm", method: http.MethodPut, target: strings.Replace(presigned("/objects/k"), "AWS4-HMAC-SHA256", "AWS4-ECDSA-P256-SHA256", 1), wantCode: http.StatusForbidden},
		{name: "delete without credentials", method: http.MethodDelete, target: "/objects/k", wantCode: http.StatusForbidden},
		{name: "valid presign", method: http.MethodPut, target: presigned("/objects/k"), wantCode: http.StatusOK},
		{name: "valid header signature", method: http.MethodPut, target: "/objects/k", prepare: headerSigned(now), wantCode: http.StatusOK},
		{name: "stale header signature", method: http.MethodPut, target: "/objects/k", prepare: headerSigned(now.Add(-time.Hour)), wantCode: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, store := newTestRouter(t, "1M")

			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader("data"))
			if tt.prepare != nil {
				tt.prepare(req)
			}
			rec := serve(e, req)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())

			_, err := store.GetPath("k")
			if tt.wantCode == http.StatusOK {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, common.ErrorNotFound, "rejected requests store nothing")
			}
		})
	}
}

func TestHandleHealth(t *testing.T) {
	e, _ := newTestRouter(t, "1M")

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode(t, rec)["status"])
}

func TestHTTPServer_RunStopsOnContextCancel(t *testing.T) {
	e, _ := newTestRouter(t, "1M")
	srv := NewHTTPServer("127.0.0.1:0", e, logging.Nop(), time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestHTTPServer_RunReturnsErrorOnBadAddress(t *testing.T) {
	e, _ := newTestRouter(t, "1M")
	srv := NewHTTPServer("127.0.0.1:99999", e, logging.Nop(), time.Second)

	require.Error(t, srv.Run(context.Background()))
}
