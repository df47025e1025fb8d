// Package transfer declares the client-streaming gRPC upload service shared
// by the grpcstream adapter and the sink server.
//
// The stream carries anypb.Any messages: the first wraps a structpb.Struct
// header (see Header), every following one wraps a wrapperspb.BytesValue
// chunk. The server answers once with a structpb.Struct describing the
// stored object.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName      = "filepicker.transfer.Receiver"
	UploadMethod     = "Upload"
	UploadFullMethod = "/" + ServiceName + "/" + UploadMethod

	// ChunkSize is the default payload bytes per stream message.
	ChunkSize = 64 << 10
)

var ErrMissingHeader = errors.New("upload stream must start with a header")

// Header describes the file that follows on the stream.
type Header struct {
	ID          string
	Name        string
	MediaType   string
	Size        int64
	Fingerprint string
}

func (h Header) Struct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"id":          h.ID,
		"name":        h.Name,
		"media_type":  h.MediaType,
		"size":        h.Size,
		"fingerprint": h.Fingerprint,
	})
}

// HeaderFromStruct is the inverse of Header.Struct.
func HeaderFromStruct(s *structpb.Struct) Header {
	f := s.GetFields()
	return Header{
		ID:          f["id"].GetStringValue(),
		Name:        f["name"].GetStringValue(),
		MediaType:   f["media_type"].GetStringValue(),
		Size:        int64(f["size"].GetNumberValue()),
		Fingerprint: f["fingerprint"].GetStringValue(),
	}
}

// Result is the server reply describing the stored file.
type Result struct {
	ID        string
	Name      string
	Size      int64
	MediaType string
}

func (r Result) Struct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"id":         r.ID,
		"name":       r.Name,
		"size":       r.Size,
		"media_type": r.MediaType,
	})
}

// ResultFromStruct is the inverse of Result.Struct.
func ResultFromStruct(s *structpb.Struct) Result {
	f := s.GetFields()
	return Result{
		ID:        f["id"].GetStringValue(),
		Name:      f["name"].GetStringValue(),
		Size:      int64(f["size"].GetNumberValue()),
		MediaType: f["media_type"].GetStringValue(),
	}
}

// Receiver is the server side of the service.
type Receiver interface {
	Upload(stream grpc.ClientStreamingServer[anypb.Any, structpb.Struct]) error
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Receiver)(nil),
	Streams: []grpc.StreamDesc{
		{
			StreamName:    UploadMethod,
			Handler:       uploadHandler,
			ClientStreams: true,
		},
	},
	Metadata: "filepicker/transfer",
}

func uploadHandler(srv any, stream grpc.ServerStream) error {
	return srv.(Receiver).Upload(&grpc.GenericServerStream[anypb.Any, structpb.Struct]{ServerStream: stream})
}

// RegisterReceiver attaches r to s.
func RegisterReceiver(s grpc.ServiceRegistrar, r Receiver) {
	s.RegisterService(&ServiceDesc, r)
}

// OpenUpload starts an upload stream on cc.
func OpenUpload(ctx context.Context, cc grpc.ClientConnInterface, opts ...grpc.CallOption) (grpc.ClientStreamingClient[anypb.Any, structpb.Struct], error) {
	stream, err := cc.NewStream(ctx, &ServiceDesc.Streams[0], UploadFullMethod, opts...)
	if err != nil {
		return nil, err
	}
	return &grpc.GenericClientStream[anypb.Any, structpb.Struct]{ClientStream: stream}, nil
}

// HeaderMessage wraps h for the first stream message.
func HeaderMessage(h Header) (*anypb.Any, error) {
	s, err := h.Struct()
	if err != nil {
		return nil, err
	}
	return anypb.New(s)
}

// ChunkMessage wraps b for a data message.
func ChunkMessage(b []byte) (*anypb.Any, error) {
	return anypb.New(wrapperspb.Bytes(b))
}

// ReadHeader decodes the first stream message.
func ReadHeader(m *anypb.Any) (Header, error) {
	var s structpb.Struct
	if err := m.UnmarshalTo(&s); err != nil {
		return Header{}, fmt.Errorf("%w: %v", ErrMissingHeader, err)
	}
	return HeaderFromStruct(&s), nil
}

// ReadChunk decodes a data message.
func ReadChunk(m *anypb.Any) ([]byte, error) {
	var b wrapperspb.BytesValue
	if err := m.UnmarshalTo(&b); err != nil {
		return nil, fmt.Errorf("unexpected stream message %s: %w", m.GetTypeUrl(), err)
	}
	return b.GetValue(), nil
}

// receiver is the subset of a server stream NewReader needs.
type receiver interface {
	Recv() (*anypb.Any, error)
}

// Reader exposes the data messages of a stream as an io.Reader. It returns
// io.EOF once the client has closed its side.
type Reader struct {
	stream receiver
	buf    []byte
}

// NewReader reads the chunks that follow the header on stream.
func NewReader(stream receiver) *Reader {
	return &Reader{stream: stream}
}

func (r *Reader) Read(p []byte) (int, error) {
	for len(r.buf) == 0 {
		m, err := r.stream.Recv()
		if err != nil {
			return 0, err
		}
		b, err := ReadChunk(m)
		if err != nil {
			return 0, err
		}
		r.buf = b
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

var _ io.Reader = (*Reader)(nil)
