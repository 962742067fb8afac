package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/go-tangra/go-tangra-sysinventory/internal/codec"
	"github.com/go-tangra/go-tangra-sysinventory/internal/convert"
	"github.com/go-tangra/go-tangra-sysinventory/internal/store"
)

const defaultPurgeDays = 90

func openStore(cmd *cobra.Command) (*store.Store, error) {
	cfg, _, err := setup(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.DatabasePath == "" {
		return nil, fmt.Errorf("no history database configured (set database or --database)")
	}
	db, err := store.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	db, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	records, total, err := db.List(context.Background(), store.ListFilter{
		Hostname: listHostname,
		Platform: listPlatform,
		Page:     listPage,
		PageSize: listPageSize,
	})
	if err != nil {
		return fmt.Errorf("list snapshots: %w", err)
	}

	summaries := make([]convert.Summary, 0, len(records))
	for i := range records {
		summaries = append(summaries, convert.RecordToSummary(&records[i]))
	}
	printSummaries(cmd.OutOrStdout(), summaries, total, time.Now())
	return nil
}

// printSummaries writes one line per snapshot with relative times.
func printSummaries(w io.Writer, summaries []convert.Summary, total int, now time.Time) {
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No snapshots recorded")
		return
	}
	fmt.Fprintf(w, "%-6s %-24s %-10s %-20s %s\n", "ID", "HOSTNAME", "PLATFORM", "COLLECTED", "STORED")
	for _, s := range summaries {
		fmt.Fprintf(w, "%-6d %-24s %-10s %-20s %s\n",
			s.ID, s.Hostname, s.Platform,
			s.CollectedAt.Local().Format("2006-01-02 15:04:05"),
			humanize.RelTime(s.StoredAt, now, "ago", "from now"))
	}
	fmt.Fprintf(w, "%d of %d snapshots\n", len(summaries), total)
}

// runHistoryShow accepts a numeric ID or a hostname, in which case the
// host's latest snapshot is shown.
func runHistoryShow(cmd *cobra.Command, args []string) error {
	db, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	var rec *store.SnapshotRecord
	if id, perr := strconv.ParseInt(args[0], 10, 64); perr == nil {
		rec, err = db.Get(ctx, id)
	} else {
		rec, err = db.GetLatestByHostname(ctx, args[0])
	}
	if err != nil {
		return err
	}

	snap, err := convert.RecordToSnapshot(rec)
	if err != nil {
		return err
	}
	data, err := codec.MarshalIndent(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot %d: %w", rec.ID, err)
	}
	return writeDocument(cmd.OutOrStdout(), data, outputFormat)
}

func runPurge(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup(cmd)
	if err != nil {
		return err
	}
	if cfg.DatabasePath == "" {
		return fmt.Errorf("no history database configured (set database or --database)")
	}

	days := purgeDays
	if days <= 0 {
		days = cfg.RetentionDays
	}
	if days <= 0 {
		days = defaultPurgeDays
	}

	db, err := store.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	n, err := db.Purge(context.Background(), time.Duration(days)*24*time.Hour)
	if err != nil {
		return fmt.Errorf("purge: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Purged %d records older than %d days\n", n, days)
	return nil
}
