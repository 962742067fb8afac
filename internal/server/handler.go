package server

import (
	"context"
	"log/slog"
	"strings"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/go-tangra/go-tangra-sysinventory/internal/convert"
	"github.com/go-tangra/go-tangra-sysinventory/internal/errors"
	"github.com/go-tangra/go-tangra-sysinventory/internal/store"
)

// Error reasons returned by the HTTP API.
const (
	ReasonNotFound       = "SNAPSHOT_NOT_FOUND"
	ReasonInvalidRequest = "INVALID_REQUEST"
	ReasonInternal       = "INTERNAL"
)

// maxPageSize caps ListSnapshotsRequest.PageSize.
const maxPageSize = 500

// Snapshots is the storage the handler reads from.
type Snapshots interface {
	Get(ctx context.Context, id int64) (*store.SnapshotRecord, error)
	GetLatestByHostname(ctx context.Context, hostname string) (*store.SnapshotRecord, error)
	List(ctx context.Context, f store.ListFilter) ([]store.SnapshotRecord, int, error)
	Delete(ctx context.Context, id int64) error
}

// ListSnapshotsRequest is bound from the query string of GET /v1/snapshots.
type ListSnapshotsRequest struct {
	Hostname   string `json:"hostname"`
	Platform   string `json:"platform"`
	SystemUUID string `json:"system_uuid"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
}

// ListSnapshotsResponse is one page of snapshot summaries.
type ListSnapshotsResponse struct {
	Snapshots  []convert.Summary `json:"snapshots"`
	TotalCount int               `json:"total_count"`
}

// SnapshotRequest addresses a snapshot by id.
type SnapshotRequest struct {
	ID int64 `json:"id"`
}

// HostRequest addresses the snapshots of one host.
type HostRequest struct {
	Hostname string `json:"hostname"`
}

// DeleteSnapshotResponse confirms a deletion.
type DeleteSnapshotResponse struct {
	ID      int64 `json:"id"`
	Deleted bool  `json:"deleted"`
}

// Handler serves the snapshot history API.
type Handler struct {
	store  Snapshots
	health *health.Server
	logger *slog.Logger
}

// NewHandler creates a new handler backed by the given store. hs reports
// the serving status for /healthz and the gRPC health service.
func NewHandler(s Snapshots, hs *health.Server, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{store: s, health: hs, logger: logger}
}

func (h *Handler) ListSnapshots(ctx context.Context, req *ListSnapshotsRequest) (*ListSnapshotsResponse, error) {
	if req.Page < 0 || req.PageSize < 0 {
		return nil, kerrors.BadRequest(ReasonInvalidRequest, "page and page_size must not be negative")
	}
	if req.PageSize > maxPageSize {
		req.PageSize = maxPageSize
	}

	records, total, err := h.store.List(ctx, store.ListFilter{
		Hostname:   req.Hostname,
		Platform:   req.Platform,
		SystemUUID: req.SystemUUID,
		Page:       req.Page,
		PageSize:   req.PageSize,
	})
	if err != nil {
		return nil, h.toAPIError(err, "list snapshots")
	}

	summaries := make([]convert.Summary, len(records))
	for i := range records {
		summaries[i] = convert.RecordToSummary(&records[i])
	}
	return &ListSnapshotsResponse{Snapshots: summaries, TotalCount: total}, nil
}

func (h *Handler) GetSnapshot(ctx context.Context, req *SnapshotRequest) (*convert.Snapshot, error) {
	if req.ID <= 0 {
		return nil, kerrors.BadRequest(ReasonInvalidRequest, "id is required")
	}
	rec, err := h.store.Get(ctx, req.ID)
	if err != nil {
		return nil, h.toAPIError(err, "get snapshot")
	}
	return h.decode(rec)
}

func (h *Handler) GetLatestByHostname(ctx context.Context, req *HostRequest) (*convert.Snapshot, error) {
	if strings.TrimSpace(req.Hostname) == "" {
		return nil, kerrors.BadRequest(ReasonInvalidRequest, "hostname is required")
	}
	rec, err := h.store.GetLatestByHostname(ctx, req.Hostname)
	if err != nil {
		return nil, h.toAPIError(err, "get latest snapshot")
	}
	return h.decode(rec)
}

func (h *Handler) DeleteSnapshot(ctx context.Context, req *SnapshotRequest) (*DeleteSnapshotResponse, error) {
	if req.ID <= 0 {
		return nil, kerrors.BadRequest(ReasonInvalidRequest, "id is required")
	}
	if err := h.store.Delete(ctx, req.ID); err != nil {
		return nil, h.toAPIError(err, "delete snapshot")
	}
	h.logger.Info("snapshot deleted", "id", req.ID)
	return &DeleteSnapshotResponse{ID: req.ID, Deleted: true}, nil
}

// Health reports the overall serving status.
func (h *Handler) Health(ctx context.Context, _ *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	return h.health.Check(ctx, &healthpb.HealthCheckRequest{})
}

func (h *Handler) decode(rec *store.SnapshotRecord) (*convert.Snapshot, error) {
	snap, err := convert.RecordToSnapshot(rec)
	if err != nil {
		return nil, h.toAPIError(err, "decode snapshot")
	}
	return snap, nil
}

func (h *Handler) toAPIError(err error, op string) error {
	switch errors.CodeOf(err) {
	case errors.ErrCodeNotFound:
		return kerrors.NotFound(ReasonNotFound, errors.Summary(err))
	case errors.ErrCodeInvalidRequest:
		return kerrors.BadRequest(ReasonInvalidRequest, errors.Summary(err))
	default:
		h.logger.Error("request failed", "op", op, "error", err)
		return kerrors.InternalServer(ReasonInternal, op+" failed")
	}
}
