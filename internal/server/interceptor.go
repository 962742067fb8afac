package server

import (
	"context"
	"crypto/subtle"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// apiKeyMetadata carries the API secret on gRPC calls.
const apiKeyMetadata = "x-api-key"

// healthServicePrefix is open to unauthenticated callers so probes work.
const healthServicePrefix = "/grpc.health.v1.Health/"

func checkAPIKey(ctx context.Context, secret, method string) error {
	if secret == "" || strings.HasPrefix(method, healthServicePrefix) {
		return nil
	}

	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return status.Error(codes.Unauthenticated, "missing metadata")
	}

	vals := md.Get(apiKeyMetadata)
	if len(vals) == 0 {
		return status.Error(codes.Unauthenticated, "missing x-api-key")
	}
	if subtle.ConstantTimeCompare([]byte(vals[0]), []byte(secret)) != 1 {
		return status.Error(codes.Unauthenticated, "invalid x-api-key")
	}
	return nil
}

// APIKeyInterceptor returns a gRPC unary server interceptor that validates
// the x-api-key metadata header on every method except the health service.
// An empty secret disables authentication (pass-through).
func APIKeyInterceptor(secret string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if err := checkAPIKey(ctx, secret, info.FullMethod); err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// APIKeyStreamInterceptor is the streaming counterpart of APIKeyInterceptor.
// It guards server reflection and the health Watch stream is exempt.
func APIKeyStreamInterceptor(secret string) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if err := checkAPIKey(ss.Context(), secret, info.FullMethod); err != nil {
			return err
		}
		return handler(srv, ss)
	}
}
