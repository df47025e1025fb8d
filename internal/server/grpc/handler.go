package grpc

import (
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/filepicker/internal/common"
	"github.com/dmitrijs2005/filepicker/internal/server/storage"
	"github.com/dmitrijs2005/filepicker/internal/transfer"
	"github.com/gabriel-vasile/mimetype"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Upload receives one file: a header message followed by data chunks.
func (s *GRPCServer) Upload(stream grpc.ClientStreamingServer[anypb.Any, structpb.Struct]) error {
	ctx := stream.Context()

	first, err := stream.Recv()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return status.Error(codes.InvalidArgument, transfer.ErrMissingHeader.Error())
		}
		return err
	}

	header, err := transfer.ReadHeader(first)
	if err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}

	fileID, _ := ctx.Value(fileIDKey).(string)
	if header.ID == "" || header.ID != fileID {
		return status.Error(codes.PermissionDenied, common.ErrUnauthorized.Error())
	}

	s.logger.Info(ctx, "Upload request", "file_id", header.ID, "name", header.Name, "size", header.Size)

	saved, err := s.store.Save(header.ID, transfer.NewReader(stream))
	if err != nil {
		s.logger.Error(ctx, "failed to store upload", "file_id", header.ID, "error", err)
		if errors.Is(err, storage.ErrInvalidKey) {
			return status.Error(codes.InvalidArgument, err.Error())
		}
		if status.Code(err) == codes.Canceled {
			return status.Error(codes.Canceled, "upload cancelled")
		}
		return status.Error(codes.Internal, "internal error")
	}

	if err := s.verify(header, saved); err != nil {
		if derr := s.store.Delete(header.ID); derr != nil {
			s.logger.Error(ctx, "failed to drop corrupt upload", "file_id", header.ID, "error", derr)
		}
		s.logger.Warn(ctx, "upload rejected", "file_id", header.ID, "error", err)
		return status.Error(codes.DataLoss, err.Error())
	}

	mediaType := header.MediaType
	if mediaType == "" {
		mediaType = s.sniff(header.ID)
	}

	reply, err := transfer.Result{
		ID:        header.ID,
		Name:      header.Name,
		Size:      saved.Size,
		MediaType: mediaType,
	}.Struct()
	if err != nil {
		return status.Error(codes.Internal, err.Error())
	}

	s.logger.Info(ctx, "file received", "file_id", header.ID, "size", saved.Size)
	return stream.SendAndClose(reply)
}

func (s *GRPCServer) verify(h transfer.Header, saved storage.Saved) error {
	if h.Size > 0 && h.Size != saved.Size {
		return fmt.Errorf("size mismatch: header %d, received %d", h.Size, saved.Size)
	}
	if h.Fingerprint != "" && h.Fingerprint != saved.Fingerprint {
		return common.ErrFingerprintMismatch
	}
	return nil
}

func (s *GRPCServer) sniff(key string) string {
	p, err := s.store.GetPath(key)
	if err != nil {
		return "application/octet-stream"
	}
	mt, err := mimetype.DetectFile(p)
	if err != nil {
		return "application/octet-stream"
	}
	return mt.String()
}
