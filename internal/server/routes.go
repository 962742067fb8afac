package server

import (
	"context"
	"net/http"

	kratoshttp "github.com/go-kratos/kratos/v2/transport/http"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Operation names used by the middleware chain.
const (
	OperationListSnapshots = "/sysinventory.v1.Snapshots/ListSnapshots"
	OperationGetSnapshot   = "/sysinventory.v1.Snapshots/GetSnapshot"
	OperationGetLatest     = "/sysinventory.v1.Snapshots/GetLatestByHostname"
	OperationDelete        = "/sysinventory.v1.Snapshots/DeleteSnapshot"
	OperationHealth        = "/grpc.health.v1.Health/Check"
)

// RegisterHTTPRoutes binds the snapshot API to srv.
func RegisterHTTPRoutes(srv *kratoshttp.Server, h *Handler) {
	r := srv.Route("/")
	r.GET("/v1/snapshots", listSnapshotsHTTP(h))
	r.GET("/v1/snapshots/{id}", getSnapshotHTTP(h))
	r.DELETE("/v1/snapshots/{id}", deleteSnapshotHTTP(h))
	r.GET("/v1/hosts/{hostname}/latest", getLatestHTTP(h))
	r.GET("/healthz", healthHTTP(h))
}

func listSnapshotsHTTP(h *Handler) kratoshttp.HandlerFunc {
	return func(ctx kratoshttp.Context) error {
		var in ListSnapshotsRequest
		if err := ctx.BindQuery(&in); err != nil {
			return err
		}
		kratoshttp.SetOperation(ctx, OperationListSnapshots)
		handler := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return h.ListSnapshots(ctx, req.(*ListSnapshotsRequest))
		})
		out, err := handler(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(http.StatusOK, out)
	}
}

func getSnapshotHTTP(h *Handler) kratoshttp.HandlerFunc {
	return func(ctx kratoshttp.Context) error {
		var in SnapshotRequest
		if err := ctx.BindVars(&in); err != nil {
			return err
		}
		kratoshttp.SetOperation(ctx, OperationGetSnapshot)
		handler := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return h.GetSnapshot(ctx, req.(*SnapshotRequest))
		})
		out, err := handler(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(http.StatusOK, out)
	}
}

func deleteSnapshotHTTP(h *Handler) kratoshttp.HandlerFunc {
	return func(ctx kratoshttp.Context) error {
		var in SnapshotRequest
		if err := ctx.BindVars(&in); err != nil {
			return err
		}
		kratoshttp.SetOperation(ctx, OperationDelete)
		handler := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return h.DeleteSnapshot(ctx, req.(*SnapshotRequest))
		})
		out, err := handler(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(http.StatusOK, out)
	}
}

func getLatestHTTP(h *Handler) kratoshttp.HandlerFunc {
	return func(ctx kratoshttp.Context) error {
		var in HostRequest
		if err := ctx.BindVars(&in); err != nil {
			return err
		}
		kratoshttp.SetOperation(ctx, OperationGetLatest)
		handler := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return h.GetLatestByHostname(ctx, req.(*HostRequest))
		})
		out, err := handler(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(http.StatusOK, out)
	}
}

func healthHTTP(h *Handler) kratoshttp.HandlerFunc {
	return func(ctx kratoshttp.Context) error {
		kratoshttp.SetOperation(ctx, OperationHealth)
		handler := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return h.Health(ctx, req.(*healthpb.HealthCheckRequest))
		})
		out, err := handler(ctx, &healthpb.HealthCheckRequest{})
		if err != nil {
			return err
		}
		return ctx.Result(http.StatusOK, out)
	}
}
