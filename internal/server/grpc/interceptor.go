package grpc

import (
	"context"

	"github.com/dmitrijs2005/filepicker/internal/auth"
	"github.com/dmitrijs2005/filepicker/internal/common"
	"github.com/dmitrijs2005/filepicker/internal/transfer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const fileIDKey ctxKey = "fileID"

// authStream carries the authenticated context into the handler.
type authStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *authStream) Context() context.Context { return s.ctx }

func (s *GRPCServer) accessTokenInterceptor(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {

	if info.FullMethod != transfer.UploadFullMethod {
		return handler(srv, ss)
	}

	ctx := ss.Context()

	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(common.AccessTokenMetadataKey)
		if len(values) > 0 {
			accessToken = values[0]
		}
	}
	if len(accessToken) == 0 {
		return status.Error(codes.Unauthenticated, "missing token")
	}

	fileID, err := auth.GetFileIDFromToken(accessToken, s.jwtSecret)
	if err != nil {
		s.logger.Warn(ctx, "rejected upload token", "error", err)
		return status.Error(codes.Unauthenticated, "invalid token")
	}

	return handler(srv, &authStream{ServerStream: ss, ctx: context.WithValue(ctx, fileIDKey, fileID)})
}
