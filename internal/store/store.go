// Package store keeps the history of consolidated snapshots in SQLite.
package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/go-tangra/go-tangra-sysinventory/internal/errors"
)

// SnapshotRecord represents a stored snapshot row.
type SnapshotRecord struct {
	ID           int64
	RunID        string
	Hostname     string
	Platform     string
	SystemUUID   string
	SystemSerial string
	CollectedAt  time.Time
	StoredAt     time.Time
	SnapshotJSON string
}

// ListFilter holds optional query parameters for listing snapshots.
type ListFilter struct {
	Hostname        string
	Platform        string
	SystemUUID      string
	CollectedAfter  *time.Time
	CollectedBefore *time.Time
	PageSize        int
	Page            int
}

// DefaultPageSize applies when ListFilter.PageSize is not positive.
const DefaultPageSize = 50

// Store provides CRUD operations for snapshot records.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New opens the SQLite database at path and runs migrations.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, "open database", err)
	}

	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.ErrCodeIO, "run migrations", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert stores a snapshot record and returns the new ID and stored_at time.
func (s *Store) Insert(ctx context.Context, rec *SnapshotRecord) (int64, time.Time, error) {
	storedAt := s.now().UTC()
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (run_id, hostname, platform, system_uuid, system_serial, collected_at, stored_at, snapshot_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID,
		rec.Hostname,
		rec.Platform,
		rec.SystemUUID,
		rec.SystemSerial,
		rec.CollectedAt.UTC().Format(time.RFC3339),
		storedAt.Format(time.RFC3339),
		rec.SnapshotJSON,
	)
	if err != nil {
		return 0, time.Time{}, errors.Wrap(errors.ErrCodeIO, "insert snapshot", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, time.Time{}, errors.Wrap(errors.ErrCodeIO, "get last insert id", err)
	}

	return id, storedAt, nil
}

const selectColumns = `SELECT id, run_id, hostname, platform, system_uuid, system_serial, collected_at, stored_at`

// Get retrieves a snapshot record by ID.
func (s *Store) Get(ctx context.Context, id int64) (*SnapshotRecord, error) {
	row := s.db.QueryRowContext(ctx,
		selectColumns+`, snapshot_json FROM snapshots WHERE id = ?`, id)

	rec, err := scanRecord(row)
	return rec, notFound(err, fmt.Sprintf("snapshot %d", id))
}

// GetLatestByHostname retrieves the most recent snapshot for a hostname.
func (s *Store) GetLatestByHostname(ctx context.Context, hostname string) (*SnapshotRecord, error) {
	row := s.db.QueryRowContext(ctx,
		selectColumns+`, snapshot_json FROM snapshots WHERE hostname = ? ORDER BY collected_at DESC, id DESC LIMIT 1`, hostname)

	rec, err := scanRecord(row)
	return rec, notFound(err, "snapshots for host "+hostname)
}

// Delete removes a snapshot record by ID.
func (s *Store) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, "delete snapshot", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, "rows affected", err)
	}
	if n == 0 {
		return errors.New(errors.ErrCodeNotFound, fmt.Sprintf("snapshot %d", id))
	}

	return nil
}

// List returns snapshot summaries matching the given filter. The
// SnapshotJSON field of the returned records is left empty.
func (s *Store) List(ctx context.Context, f ListFilter) ([]SnapshotRecord, int, error) {
	where, args := buildWhere(f)

	var total int
	countQuery := "SELECT COUNT(*) FROM snapshots" + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(errors.ErrCodeIO, "count snapshots", err)
	}

	pageSize := f.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * pageSize

	query := selectColumns + `, '' FROM snapshots` + where + ` ORDER BY collected_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, pageSize, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(errors.ErrCodeIO, "list snapshots", err)
	}
	defer rows.Close()

	var records []SnapshotRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, errors.Wrap(errors.ErrCodeIO, "scan snapshot", err)
		}
		records = append(records, *rec)
	}

	return records, total, rows.Err()
}

// Purge deletes snapshot records collected longer ago than olderThan.
func (s *Store) Purge(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := s.now().UTC().Add(-olderThan).Format(time.RFC3339)
	result, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE collected_at < ?`, cutoff)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeIO, "purge snapshots", err)
	}
	return result.RowsAffected()
}

func buildWhere(f ListFilter) (string, []any) {
	var conditions []string
	var args []any

	if f.Hostname != "" {
		conditions = append(conditions, "hostname = ?")
		args = append(args, f.Hostname)
	}
	if f.Platform != "" {
		conditions = append(conditions, "platform = ?")
		args = append(args, f.Platform)
	}
	if f.SystemUUID != "" {
		conditions = append(conditions, "system_uuid = ?")
		args = append(args, f.SystemUUID)
	}
	if f.CollectedAfter != nil {
		conditions = append(conditions, "collected_at >= ?")
		args = append(args, f.CollectedAfter.UTC().Format(time.RFC3339))
	}
	if f.CollectedBefore != nil {
		conditions = append(conditions, "collected_at <= ?")
		args = append(args, f.CollectedBefore.UTC().Format(time.RFC3339))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*SnapshotRecord, error) {
	var rec SnapshotRecord
	var collectedAt, storedAt string
	err := row.Scan(&rec.ID, &rec.RunID, &rec.Hostname, &rec.Platform, &rec.SystemUUID, &rec.SystemSerial,
		&collectedAt, &storedAt, &rec.SnapshotJSON)
	if err != nil {
		return nil, err
	}

	rec.CollectedAt, _ = time.Parse(time.RFC3339, collectedAt)
	rec.StoredAt, _ = time.Parse(time.RFC3339, storedAt)

	return &rec, nil
}

func notFound(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, sql.ErrNoRows):
		return errors.New(errors.ErrCodeNotFound, what+" not found")
	default:
		return errors.Wrap(errors.ErrCodeIO, "query "+what, err)
	}
}
