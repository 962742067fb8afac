// Package snapshot writes the per-domain inventory files into a dated
// directory and consolidates them into a single document.
package snapshot

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/go-tangra/go-tangra-sysinventory/internal/codec"
	"github.com/go-tangra/go-tangra-sysinventory/internal/errors"
)

// Per-domain and consolidated file names.
const (
	FileHardware     = "OS_HW.json"
	FileNetwork      = "Red-scan.json"
	FileApplications = "aplicaciones.json"
	FilePeripherals  = "Perifericos.json"
	FileConsolidated = "informacion_sistema.json"
)

// DomainFiles lists the per-domain files in consolidation order.
var DomainFiles = []string{FileHardware, FileNetwork, FileApplications, FilePeripherals}

// Defaults for Options.
const (
	DefaultOutputDir       = "Archivos-JSON"
	DefaultConsolidatedDir = "."
	DefaultDateLayout      = "2006-01-02"
)

// DomainKey is the consolidated key of a per-domain file: its lower-cased
// name without extension.
func DomainKey(file string) string {
	return strings.ToLower(strings.TrimSuffix(file, filepath.Ext(file)))
}

// Outcome reports what WriteDomain did.
type Outcome int

const (
	Written Outcome = iota
	Unchanged
)

func (o Outcome) String() string {
	if o == Unchanged {
		return "unchanged"
	}
	return "written"
}

// Options configures an Assembler.
type Options struct {
	OutputDir       string
	ConsolidatedDir string
	DateLayout      string
	Logger          *slog.Logger
}

// Assembler owns the dated output directories of one run. The date is fixed
// when the Assembler is created so a run crossing midnight stays in one
// directory.
type Assembler struct {
	fs              afero.Fs
	outputDir       string
	consolidatedDir string
	date            string
	logger          *slog.Logger
}

// New returns an Assembler for the run started at now.
func New(fs afero.Fs, now time.Time, opts Options) *Assembler {
	if opts.OutputDir == "" {
		opts.OutputDir = DefaultOutputDir
	}
	if opts.ConsolidatedDir == "" {
		opts.ConsolidatedDir = DefaultConsolidatedDir
	}
	if opts.DateLayout == "" {
		opts.DateLayout = DefaultDateLayout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Assembler{
		fs:              fs,
		outputDir:       opts.OutputDir,
		consolidatedDir: opts.ConsolidatedDir,
		date:            now.Format(opts.DateLayout),
		logger:          opts.Logger,
	}
}

// DomainDir is the dated directory holding the per-domain files.
func (a *Assembler) DomainDir() string {
	return filepath.Join(a.outputDir, a.date)
}

// ConsolidatedPath is the path of the consolidated document.
func (a *Assembler) ConsolidatedPath() string {
	return filepath.Join(a.consolidatedDir, a.date, FileConsolidated)
}

// WriteDomain encodes v into file under DomainDir. When the file already
// holds an equal JSON value it is left untouched.
func (a *Assembler) WriteDomain(file string, v any) (Outcome, error) {
	data, err := codec.MarshalIndent(v)
	if err != nil {
		return Written, errors.Wrap(errors.ErrCodeIO, "encode "+file, err)
	}

	path := filepath.Join(a.DomainDir(), file)
	existing, err := afero.ReadFile(a.fs, path)
	switch {
	case err == nil:
		if codec.SemanticEqual(existing, data) {
			a.logger.Info("data unchanged, skipping write", "path", path)
			return Unchanged, nil
		}
	case !os.IsNotExist(err):
		a.logger.Warn("cannot read previous snapshot, overwriting", "path", path, "error", err)
	}

	if err := a.write(path, data); err != nil {
		return Written, err
	}
	a.logger.Info("data saved", "path", path)
	return Written, nil
}

func (a *Assembler) write(path string, data []byte) error {
	if err := a.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeIO, "create "+filepath.Dir(path), err)
	}
	if err := afero.WriteFile(a.fs, path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeIO, "write "+path, err)
	}
	return nil
}

// Consolidate reads the per-domain files of the run and writes them, keyed
// by DomainKey, into the consolidated document. Missing or unreadable files
// are logged and left out. meta is attached to the returned Document only.
func (a *Assembler) Consolidate(meta Meta) (*Document, string, error) {
	doc := &Document{Meta: meta, Domains: make(map[string]json.RawMessage, len(DomainFiles))}

	for _, file := range DomainFiles {
		path := filepath.Join(a.DomainDir(), file)
		data, err := afero.ReadFile(a.fs, path)
		if err != nil {
			if os.IsNotExist(err) {
				a.logger.Warn("file not found, skipping", "path", path)
			} else {
				a.logger.Warn("cannot read file, skipping", "path", path, "error", err)
			}
			continue
		}
		if !json.Valid(data) {
			a.logger.Warn("invalid JSON, skipping", "path", path)
			continue
		}
		doc.Domains[DomainKey(file)] = json.RawMessage(data)
	}

	data, err := codec.MarshalIndent(doc)
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeIO, "encode consolidated document", err)
	}
	path := a.ConsolidatedPath()
	if err := a.write(path, data); err != nil {
		return nil, "", err
	}
	a.logger.Info("consolidated data saved", "path", path, "domains", len(doc.Domains))
	return doc, path, nil
}

// ReadDocument loads a consolidated document.
func ReadDocument(fs afero.Fs, path string) (*Document, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, path, err)
		}
		return nil, errors.Wrap(errors.ErrCodeIO, "read "+path, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, fmt.Sprintf("decode %s", path), err)
	}
	return &doc, nil
}
