// Package grpcstream uploads files over the client-streaming transfer
// service.
package grpcstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/filepicker/internal/auth"
	"github.com/dmitrijs2005/filepicker/internal/client/picker"
	"github.com/dmitrijs2005/filepicker/internal/common"
	"github.com/dmitrijs2005/filepicker/internal/cryptox"
	"github.com/dmitrijs2005/filepicker/internal/logging"
	"github.com/dmitrijs2005/filepicker/internal/netx"
	"github.com/dmitrijs2005/filepicker/internal/transfer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Dial opens a plaintext client connection to addr.
func Dial(addr string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	return grpc.NewClient(addr, opts...)
}

type Adapter struct {
	conn      grpc.ClientConnInterface
	secret    []byte
	tokenTTL  time.Duration
	chunkSize int
	logger    logging.Logger
}

type Option func(*Adapter)

func WithChunkSize(n int) Option {
	return func(a *Adapter) {
		if n > 0 {
			a.chunkSize = n
		}
	}
}

func WithTokenTTL(d time.Duration) Option {
	return func(a *Adapter) { a.tokenTTL = d }
}

func WithLogger(l logging.Logger) Option {
	return func(a *Adapter) { a.logger = l }
}

func New(conn grpc.ClientConnInterface, secret []byte, opts ...Option) *Adapter {
	a := &Adapter{
		conn:      conn,
		secret:    secret,
		tokenTTL:  time.Minute,
		chunkSize: transfer.ChunkSize,
		logger:    logging.Nop(),
	}
	for _, o := range opts {
		o(a)
	}
	a.logger = a.logger.With("module", "grpc_adapter")
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
	fingerprint, err := fingerprint(item)
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

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	ctx = metadata.AppendToOutgoingContext(ctx, common.AccessTokenMetadataKey, token)

	stream, err := transfer.OpenUpload(ctx, a.conn)
	if err != nil {
		return a.outcome(err)
	}

	size := item.Payload.Size()
	header, err := transfer.HeaderMessage(transfer.Header{
		ID:          item.ID,
		Name:        item.Name,
		MediaType:   item.MediaType,
		Size:        size,
		Fingerprint: fingerprint,
	})
	if err != nil {
		return picker.Status{}, err
	}

	if err := stream.Send(header); err != nil {
		return a.closeAndRecv(stream, err)
	}

	a.logger.Debug(ctx, "streaming file", "file_id", item.ID, "size", size, "chunk_size", a.chunkSize)

	pr := netx.NewProgressReader(src, size, progress)
	buf := make([]byte, a.chunkSize)
	for {
		n, rerr := io.ReadFull(pr, buf)
		if n > 0 {
			msg, err := transfer.ChunkMessage(buf[:n])
			if err != nil {
				return picker.Status{}, err
			}
			if err := stream.Send(msg); err != nil {
				return a.closeAndRecv(stream, err)
			}
		}
		if errors.Is(rerr, io.EOF) || errors.Is(rerr, io.ErrUnexpectedEOF) {
			break
		}
		if rerr != nil {
			return picker.Status{}, fmt.Errorf("read payload: %w", rerr)
		}
	}

	reply, err := stream.CloseAndRecv()
	if err != nil {
		return a.outcome(err)
	}

	return picker.Uploaded(transfer.ResultFromStruct(reply)), nil
}

// closeAndRecv fetches the real status after Send failed. Send reports
// io.EOF when the server has already ended the call.
func (a *Adapter) closeAndRecv(stream grpc.ClientStreamingClient[anypb.Any, structpb.Struct], sendErr error) (picker.Status, error) {
	if !errors.Is(sendErr, io.EOF) {
		return a.outcome(sendErr)
	}
	_, err := stream.CloseAndRecv()
	if err == nil {
		err = sendErr
	}
	return a.outcome(err)
}

// outcome splits call errors into server rejections, reported as an Error
// status carrying the gRPC status, and transport failures.
func (a *Adapter) outcome(err error) (picker.Status, error) {
	st, ok := status.FromError(err)
	if !ok {
		return picker.Status{}, err
	}
	switch st.Code() {
	case codes.InvalidArgument, codes.Unauthenticated, codes.PermissionDenied,
		codes.DataLoss, codes.FailedPrecondition, codes.ResourceExhausted:
		return picker.Failed(st), nil
	default:
		return picker.Status{}, err
	}
}

func fingerprint(item *picker.FileItem) (string, error) {
	r, err := item.Payload.Open()
	if err != nil {
		return "", fmt.Errorf("open payload: %w", err)
	}
	defer r.Close()
	return cryptox.Fingerprint(r)
}
