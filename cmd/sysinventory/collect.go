package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/go-tangra/go-tangra-sysinventory/internal/codec"
	"github.com/go-tangra/go-tangra-sysinventory/internal/collector"
	"github.com/go-tangra/go-tangra-sysinventory/internal/config"
	"github.com/go-tangra/go-tangra-sysinventory/internal/convert"
	"github.com/go-tangra/go-tangra-sysinventory/internal/netscan"
	"github.com/go-tangra/go-tangra-sysinventory/internal/platform"
	"github.com/go-tangra/go-tangra-sysinventory/internal/runner"
	"github.com/go-tangra/go-tangra-sysinventory/internal/snapshot"
	"github.com/go-tangra/go-tangra-sysinventory/internal/store"
)

// session is one collection run. Domains are collected in sequence and
// every domain file is written before the next collector starts.
type session struct {
	fs       afero.Fs
	probe    collector.Probe
	scanner  *netscan.Scanner
	scan     config.ScanConfig
	asm      *snapshot.Assembler
	now      time.Time
	hostname string
	out      io.Writer
	logger   *slog.Logger
}

func newSession(cfg *config.Config, out io.Writer, logger *slog.Logger) *session {
	now := time.Now()
	fs := afero.NewOsFs()
	plat := platform.Current()
	exec := runner.NewExec()

	hostname, err := os.Hostname()
	if err != nil {
		logger.Warn("cannot read hostname", "error", err)
		hostname = "unknown"
	}

	return &session{
		fs:       fs,
		probe:    collector.New(plat, collector.WithRunner(exec), collector.WithLogger(logger)),
		scanner:  netscan.NewScanner(exec, logger),
		scan:     cfg.Scan,
		asm:      snapshot.New(fs, now, assemblerOptions(cfg, logger)),
		now:      now,
		hostname: hostname,
		out:      out,
		logger:   logger,
	}
}

func assemblerOptions(cfg *config.Config, logger *slog.Logger) snapshot.Options {
	return snapshot.Options{
		OutputDir:       cfg.OutputDir,
		ConsolidatedDir: cfg.ConsolidatedDir,
		DateLayout:      cfg.DateLayout,
		Logger:          logger,
	}
}

// write stores one domain file and prints its summary line.
func (s *session) write(file string, v any) error {
	outcome, err := s.asm.WriteDomain(file, v)
	if err != nil {
		return err
	}
	size := ""
	if fi, err := s.fs.Stat(filepath.Join(s.asm.DomainDir(), file)); err == nil {
		size = humanize.Bytes(uint64(fi.Size()))
	}
	fmt.Fprintf(s.out, "%-20s %-10s %s\n", file, outcome, size)
	return nil
}

func (s *session) collectNetwork(ctx context.Context) error {
	if !s.scan.Enabled {
		s.logger.Info("network scan disabled, skipping", "domain", "network")
		fmt.Fprintf(s.out, "%-20s %-10s\n", snapshot.FileNetwork, "skipped")
		return nil
	}
	return s.write(snapshot.FileNetwork, s.scanner.Scan(ctx, s.scan.Target, s.scan.Ports))
}

// run collects every domain and consolidates them.
func (s *session) run(ctx context.Context) (*snapshot.Document, string, error) {
	s.logger.Info("collecting inventory", "platform", s.probe.Platform().String(), "dir", s.asm.DomainDir())

	if err := s.write(snapshot.FileHardware, collector.CollectHardware(ctx, s.probe)); err != nil {
		return nil, "", err
	}
	if err := s.collectNetwork(ctx); err != nil {
		return nil, "", err
	}
	clock := func() time.Time { return s.now }
	if err := s.write(snapshot.FileApplications, collector.CollectApplications(ctx, s.probe, clock)); err != nil {
		return nil, "", err
	}
	if err := s.write(snapshot.FilePeripherals, collector.CollectPeripherals(ctx, s.probe)); err != nil {
		return nil, "", err
	}

	doc, path, err := s.asm.Consolidate(s.meta())
	if err != nil {
		return nil, "", err
	}
	fmt.Fprintf(s.out, "%-20s %-10s %d domains, run %s on %s\n",
		snapshot.FileConsolidated, "written", len(doc.Domains), doc.Meta.RunID, doc.Meta.Hostname)
	return doc, path, nil
}

func (s *session) meta() snapshot.Meta {
	return snapshot.Meta{
		RunID:       uuid.NewString(),
		Hostname:    s.hostname,
		Platform:    s.probe.Platform().String(),
		CollectedAt: s.now.UTC().Format(time.RFC3339),
	}
}

// record appends the consolidated document to the history database.
func record(ctx context.Context, dbPath string, doc *snapshot.Document) (int64, error) {
	db, err := store.New(dbPath)
	if err != nil {
		return 0, fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	rec, err := convert.DocumentToRecord(doc)
	if err != nil {
		return 0, err
	}
	id, _, err := db.Insert(ctx, rec)
	if err != nil {
		return 0, fmt.Errorf("record snapshot: %w", err)
	}
	return id, nil
}

func runCollect(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	s := newSession(cfg, cmd.OutOrStdout(), logger)
	doc, path, err := s.run(ctx)
	if err != nil {
		return err
	}

	if cfg.DatabasePath != "" {
		id, err := record(ctx, cfg.DatabasePath, doc)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Recorded snapshot #%d in %s\n", id, cfg.DatabasePath)
	}

	if printDoc {
		data, err := codec.MarshalIndent(doc)
		if err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
		return writeDocument(cmd.OutOrStdout(), data, outputFormat)
	}
	return nil
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	s := newSession(cfg, cmd.OutOrStdout(), logger)
	s.scan.Enabled = true
	return s.collectNetwork(ctx)
}

func runConsolidate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	day := time.Now()
	if dateFlag != "" {
		day, err = time.ParseInLocation(cfg.DateLayout, dateFlag, time.Local)
		if err != nil {
			return fmt.Errorf("parse --date %q with layout %q: %w", dateFlag, cfg.DateLayout, err)
		}
	}

	s := newSession(cfg, cmd.OutOrStdout(), logger)
	s.asm = snapshot.New(s.fs, day, assemblerOptions(cfg, logger))

	doc, path, err := s.asm.Consolidate(s.meta())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Consolidated %d domains into %s\n", len(doc.Domains), path)
	return nil
}
