// Package convert maps consolidated snapshot documents to history rows and
// rows to API responses.
package convert

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-tangra/go-tangra-sysinventory/internal/collector"
	"github.com/go-tangra/go-tangra-sysinventory/internal/snapshot"
	"github.com/go-tangra/go-tangra-sysinventory/internal/store"
)

// Summary is the list view of a stored snapshot.
type Summary struct {
	ID           int64     `json:"id"`
	RunID        string    `json:"run_id"`
	Hostname     string    `json:"hostname"`
	Platform     string    `json:"platform"`
	SystemUUID   string    `json:"system_uuid,omitempty"`
	SystemSerial string    `json:"system_serial,omitempty"`
	CollectedAt  time.Time `json:"collected_at"`
	StoredAt     time.Time `json:"stored_at"`
}

// Snapshot is a stored snapshot with its full consolidated document.
type Snapshot struct {
	Summary
	Document *snapshot.Document `json:"snapshot"`
}

// DocumentToRecord converts a consolidated document to a store record.
func DocumentToRecord(doc *snapshot.Document) (*store.SnapshotRecord, error) {
	jsonBytes, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot to JSON: %w", err)
	}

	collectedAt := doc.Meta.CollectedTime()
	if collectedAt.IsZero() {
		collectedAt = time.Now().UTC()
	}

	rec := &store.SnapshotRecord{
		RunID:        doc.Meta.RunID,
		Hostname:     doc.Meta.Hostname,
		Platform:     doc.Meta.Platform,
		CollectedAt:  collectedAt,
		SnapshotJSON: string(jsonBytes),
	}
	if sys := systemInfo(doc); sys != nil {
		rec.SystemUUID = sys.UUID
		rec.SystemSerial = sys.SerialNumber
	}
	return rec, nil
}

// systemInfo digs the SMBIOS block out of the hardware domain, if present.
func systemInfo(doc *snapshot.Document) *collector.SystemInfo {
	raw, ok := doc.Domains[snapshot.DomainKey(snapshot.FileHardware)]
	if !ok {
		return nil
	}
	var hw struct {
		OperatingSystem struct {
			System *collector.SystemInfo `json:"system"`
		} `json:"operating_system"`
	}
	if err := json.Unmarshal(raw, &hw); err != nil {
		return nil
	}
	return hw.OperatingSystem.System
}

// RecordToDocument converts a store record back to a consolidated document.
// The run metadata comes from the row columns.
func RecordToDocument(rec *store.SnapshotRecord) (*snapshot.Document, error) {
	var doc snapshot.Document
	if err := json.Unmarshal([]byte(rec.SnapshotJSON), &doc); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot JSON: %w", err)
	}
	doc.Meta = snapshot.Meta{
		RunID:       rec.RunID,
		Hostname:    rec.Hostname,
		Platform:    rec.Platform,
		CollectedAt: rec.CollectedAt.UTC().Format(time.RFC3339),
	}
	return &doc, nil
}

// RecordToSummary converts a store record to its list view.
func RecordToSummary(rec *store.SnapshotRecord) Summary {
	return Summary{
		ID:           rec.ID,
		RunID:        rec.RunID,
		Hostname:     rec.Hostname,
		Platform:     rec.Platform,
		SystemUUID:   rec.SystemUUID,
		SystemSerial: rec.SystemSerial,
		CollectedAt:  rec.CollectedAt,
		StoredAt:     rec.StoredAt,
	}
}

// RecordToSnapshot converts a store record to the full API view.
func RecordToSnapshot(rec *store.SnapshotRecord) (*Snapshot, error) {
	doc, err := RecordToDocument(rec)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Summary: RecordToSummary(rec), Document: doc}, nil
}
