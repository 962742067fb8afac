package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/go-tangra/go-tangra-sysinventory/internal/convert"
	"github.com/go-tangra/go-tangra-sysinventory/internal/snapshot"
	"github.com/go-tangra/go-tangra-sysinventory/internal/store"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHandler(t *testing.T) (*Handler, *store.Store) {
	t.Helper()
	db, err := store.New(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewHandler(db, health.NewServer(), quietLogger()), db
}

func seed(t *testing.T, db *store.Store, runID, host string, collected time.Time) int64 {
	t.Helper()
	doc := &snapshot.Document{
		Meta: snapshot.Meta{RunID: runID, Hostname: host, Platform: "Linux", CollectedAt: collected.Format(time.RFC3339)},
		Domains: map[string]json.RawMessage{
			"os_hw": json.RawMessage(`{"operating_system":{"os_name":"Linux"}}`),
		},
	}
	rec, err := convert.DocumentToRecord(doc)
	require.NoError(t, err)
	id, _, err := db.Insert(context.Background(), rec)
	require.NoError(t, err)
	return id
}

func TestListSnapshots(t *testing.T) {
	ctx := context.Background()
	h, db := newHandler(t)
	base := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	seed(t, db, "r1", "host-a", base)
	seed(t, db, "r2", "host-b", base.Add(time.Hour))
	seed(t, db, "r3", "host-a", base.Add(2*time.Hour))

	resp, err := h.ListSnapshots(ctx, &ListSnapshotsRequest{Hostname: "host-a"})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.TotalCount)
	require.Len(t, resp.Snapshots, 2)
	assert.Equal(t, "r3", resp.Snapshots[0].RunID)

	_, err = h.ListSnapshots(ctx, &ListSnapshotsRequest{Page: -1})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, int(kerrors.FromError(err).Code))
}

func TestGetSnapshot(t *testing.T) {
	ctx := context.Background()
	h, db := newHandler(t)
	id := seed(t, db, "r1", "host-a", time.Now().UTC())

	snap, err := h.GetSnapshot(ctx, &SnapshotRequest{ID: id})
	require.NoError(t, err)
	assert.Equal(t, "r1", snap.RunID)
	assert.Equal(t, "host-a", snap.Document.Meta.Hostname)
	assert.Contains(t, snap.Document.Domains, "os_hw")

	_, err = h.GetSnapshot(ctx, &SnapshotRequest{ID: id + 100})
	require.Error(t, err)
	assert.True(t, kerrors.IsNotFound(err))

	_, err = h.GetSnapshot(ctx, &SnapshotRequest{})
	assert.True(t, kerrors.IsBadRequest(err))
}

func TestGetLatestByHostname(t *testing.T) {
	ctx := context.Background()
	h, db := newHandler(t)
	base := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	seed(t, db, "old", "host-a", base)
	seed(t, db, "new", "host-a", base.Add(time.Hour))

	snap, err := h.GetLatestByHostname(ctx, &HostRequest{Hostname: "host-a"})
	require.NoError(t, err)
	assert.Equal(t, "new", snap.RunID)

	_, err = h.GetLatestByHostname(ctx, &HostRequest{Hostname: "ghost"})
	assert.True(t, kerrors.IsNotFound(err))

	_, err = h.GetLatestByHostname(ctx, &HostRequest{Hostname: " "})
	assert.True(t, kerrors.IsBadRequest(err))
}

func TestDeleteSnapshot(t *testing.T) {
	ctx := context.Background()
	h, db := newHandler(t)
	id := seed(t, db, "r1", "host-a", time.Now().UTC())

	resp, err := h.DeleteSnapshot(ctx, &SnapshotRequest{ID: id})
	require.NoError(t, err)
	assert.True(t, resp.Deleted)

	_, err = h.DeleteSnapshot(ctx, &SnapshotRequest{ID: id})
	assert.True(t, kerrors.IsNotFound(err))
}

func TestHealth(t *testing.T) {
	hs := health.NewServer()
	h := NewHandler(nil, hs, quietLogger())

	resp, err := h.Health(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)

	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	resp, err = h.Health(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)
}
