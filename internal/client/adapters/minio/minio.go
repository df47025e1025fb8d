// Package minio uploads files straight to an S3-compatible bucket with
// minio-go.
package minio

import (
	"context"
	"fmt"
	"path"

	"github.com/dmitrijs2005/filepicker/internal/client/picker"
	"github.com/dmitrijs2005/filepicker/internal/logging"
	"github.com/dmitrijs2005/filepicker/internal/netx"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config locates the bucket. Endpoint is host:port without a scheme.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Secure    bool
	KeyPrefix string
}

type Adapter struct {
	client *minio.Client
	bucket string
	prefix string
	logger logging.Logger
}

func New(c Config, logger logging.Logger) (*Adapter, error) {
	client, err := minio.New(c.Endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(c.AccessKey, c.SecretKey, ""),
		Secure:       c.Secure,
		Region:       c.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Adapter{
		client: client,
		bucket: c.Bucket,
		prefix: c.KeyPrefix,
		logger: logger.With("module", "minio_adapter"),
	}, nil
}

func (a *Adapter) Key(item *picker.FileItem) string {
	return path.Join(a.prefix, item.ID, path.Base(item.Name))
}

func (a *Adapter) UploadFile(ctx context.Context, item *picker.FileItem) (<-chan picker.Update, error) {
	if item.Payload == nil {
		return nil, fmt.Errorf("file %s has no payload", item.ID)
	}
	key := a.Key(item)

	return picker.Stream(ctx, func(ctx context.Context, progress func(int)) (picker.Status, error) {
		src, err := item.Payload.Open()
		if err != nil {
			return picker.Status{}, fmt.Errorf("open payload: %w", err)
		}
		defer src.Close()

		size := item.Payload.Size()
		tracker := netx.NewProgressReader(nil, size, progress)

		a.logger.Debug(ctx, "putting object", "bucket", a.bucket, "key", key, "size", size)

		info, err := a.client.PutObject(ctx, a.bucket, key, src, size, minio.PutObjectOptions{
			ContentType: item.MediaType,
			Progress:    progressHook{tracker},
		})
		if err != nil {
			if resp := minio.ToErrorResponse(err); resp.StatusCode != 0 {
				return picker.Failed(resp), nil
			}
			return picker.Status{}, err
		}

		return picker.Uploaded(info), nil
	}), nil
}

// progressHook is read by minio-go for every uploaded byte count; it only
// counts them.
type progressHook struct {
	p *netx.ProgressReader
}

func (h progressHook) Read(b []byte) (int, error) {
	h.p.Add(int64(len(b)))
	return len(b), nil
}
