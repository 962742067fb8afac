package snapshot

import (
	"encoding/json"
	"time"
)

// Meta identifies the run that produced a consolidated document. It is kept
// beside the document, never inside the consolidated file.
type Meta struct {
	RunID       string `json:"run_id"`
	Hostname    string `json:"hostname"`
	Platform    string `json:"platform"`
	CollectedAt string `json:"collected_at"`
}

// CollectedTime parses CollectedAt, returning the zero time when it is not
// RFC 3339.
func (m Meta) CollectedTime() time.Time {
	t, _ := time.Parse(time.RFC3339, m.CollectedAt)
	return t
}

// Document is the consolidated snapshot. Domains maps DomainKey values to
// the raw per-domain JSON; only Domains is encoded.
type Document struct {
	Meta    Meta
	Domains map[string]json.RawMessage
}

// MarshalJSON writes one top-level key per domain.
func (d Document) MarshalJSON() ([]byte, error) {
	if d.Domains == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(d.Domains)
}

// UnmarshalJSON reads every top-level key as a domain. Meta is left empty.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		raw = make(map[string]json.RawMessage)
	}
	*d = Document{Domains: raw}
	return nil
}
