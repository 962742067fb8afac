package server

import (
	"context"
	"crypto/subtle"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/middleware/selector"
	"github.com/go-kratos/kratos/v2/transport"
)

// APIKeyHeader carries the API secret on HTTP requests.
const APIKeyHeader = "X-API-Key"

// ApiSecretMiddleware returns a Kratos middleware that validates the X-API-Key
// HTTP header. An empty secret disables authentication (pass-through).
func ApiSecretMiddleware(secret string) middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req any) (any, error) {
			if secret == "" {
				return handler(ctx, req)
			}

			tr, ok := transport.FromServerContext(ctx)
			if !ok {
				return nil, kerrors.InternalServer(ReasonInternal, "no transport in context")
			}

			key := tr.RequestHeader().Get(APIKeyHeader)
			if key == "" {
				return nil, kerrors.Unauthorized("UNAUTHENTICATED", "missing X-API-Key header")
			}
			if subtle.ConstantTimeCompare([]byte(key), []byte(secret)) != 1 {
				return nil, kerrors.Unauthorized("UNAUTHENTICATED", "invalid X-API-Key")
			}

			return handler(ctx, req)
		}
	}
}

// protectedOperations applies ApiSecretMiddleware to everything except the
// health check. Swagger UI is registered via HandlePrefix and never reaches
// the middleware chain.
func protectedOperations(secret string) middleware.Middleware {
	return selector.Server(ApiSecretMiddleware(secret)).
		Match(func(_ context.Context, operation string) bool {
			return operation != OperationHealth
		}).
		Build()
}
