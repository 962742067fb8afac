package store

const createTableSQL = `
CREATE TABLE IF NOT EXISTS snapshots (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id          TEXT NOT NULL UNIQUE,
    hostname        TEXT NOT NULL,
    platform        TEXT NOT NULL DEFAULT '',
    system_uuid     TEXT NOT NULL DEFAULT '',
    system_serial   TEXT NOT NULL DEFAULT '',
    collected_at    TEXT NOT NULL,
    stored_at       TEXT NOT NULL,
    snapshot_json   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_hostname ON snapshots(hostname);
CREATE INDEX IF NOT EXISTS idx_snapshots_system_uuid ON snapshots(system_uuid);
CREATE INDEX IF NOT EXISTS idx_snapshots_collected_at ON snapshots(collected_at);
`
