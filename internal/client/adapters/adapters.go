// Package adapters builds the upload adapter named by the client config.
package adapters

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/filepicker/internal/client/adapters/form"
	"github.com/dmitrijs2005/filepicker/internal/client/adapters/grpcstream"
	"github.com/dmitrijs2005/filepicker/internal/client/adapters/minio"
	"github.com/dmitrijs2005/filepicker/internal/client/adapters/presign"
	"github.com/dmitrijs2005/filepicker/internal/client/config"
	"github.com/dmitrijs2005/filepicker/internal/client/picker"
	"github.com/dmitrijs2005/filepicker/internal/logging"
)

// Build returns the adapter selected by c.Adapter together with a func
// releasing whatever connection it holds. The func is never nil.
func Build(ctx context.Context, c *config.Config, logger logging.Logger) (picker.Adapter, func(), error) {
	if logger == nil {
		logger = logging.Nop()
	}
	noop := func() {}

	switch c.Adapter {
	case config.AdapterForm:
		return form.New(c.Endpoint, []byte(c.TokenSecret),
			form.WithTokenTTL(c.TokenTTL),
			form.WithLogger(logger),
		), noop, nil

	case config.AdapterPresign:
		p, err := presign.NewS3Presigner(ctx, presign.S3Config{
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			Endpoint:     c.S3Endpoint,
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
			UsePathStyle: c.S3PathStyle,
			Expires:      c.PresignTTL,
		})
		if err != nil {
			return nil, noop, err
		}
		return presign.New(p,
			presign.WithKeyPrefix(c.KeyPrefix),
			presign.WithLogger(logger),
		), noop, nil

	case config.AdapterMinio:
		host, secure, err := splitEndpoint(c.S3Endpoint)
		if err != nil {
			return nil, noop, err
		}
		a, err := minio.New(minio.Config{
			Endpoint:  host,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
			Bucket:    c.S3Bucket,
			Region:    c.S3Region,
			Secure:    secure,
			KeyPrefix: c.KeyPrefix,
		}, logger)
		if err != nil {
			return nil, noop, err
		}
		return a, noop, nil

	case config.AdapterGRPC:
		conn, err := grpcstream.Dial(c.GRPCTarget)
		if err != nil {
			return nil, noop, fmt.Errorf("dial %s: %w", c.GRPCTarget, err)
		}
		a := grpcstream.New(conn, []byte(c.TokenSecret),
			grpcstream.WithChunkSize(c.ChunkSize),
			grpcstream.WithTokenTTL(c.TokenTTL),
			grpcstream.WithLogger(logger),
		)
		return a, func() { _ = conn.Close() }, nil

	default:
		return nil, noop, fmt.Errorf("unknown adapter %q", c.Adapter)
	}
}

// splitEndpoint turns an S3 endpoint URL into the host:port minio-go wants
// and whether TLS is used. minio-go always addresses the service root, so an
// endpoint with a path, such as the sink's /objects prefix, is rejected.
func splitEndpoint(endpoint string) (string, bool, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, fmt.Errorf("parse s3 endpoint: %w", err)
	}
	if u.Host == "" {
		return "", false, fmt.Errorf("s3 endpoint %q has no host", endpoint)
	}
	if p := strings.Trim(u.Path, "/"); p != "" {
		return "", false, fmt.Errorf("s3 endpoint %q has a path; the minio adapter needs an S3 service root", endpoint)
	}
	return u.Host, u.Scheme == "https", nil
}
