package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/go-tangra/go-tangra-sysinventory/internal/config"
	"github.com/go-tangra/go-tangra-sysinventory/internal/logging"
)

var (
	version    = "dev"
	commitHash = "unknown"
	buildDate  = "unknown"
)

const moduleName = "sysinventory"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "sysinventory",
	Short: "System Inventory - hardware, software, peripheral and network snapshot collector",
	Long: `System Inventory probes the local machine with its native tools and writes
one JSON file per domain plus a consolidated document for the day.

Run without a subcommand to collect a snapshot (equivalent to 'collect').`,
	SilenceUsage: true,
	RunE:         runCollect,
}

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect every domain and write today's snapshot",
	RunE:  runCollect,
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run only the network scan and write Red-scan.json",
	RunE:  runScan,
}

var consolidateCmd = &cobra.Command{
	Use:   "consolidate",
	Short: "Merge the per-domain files of a day into informacion_sistema.json",
	RunE:  runConsolidate,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect snapshots recorded in the history database",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded snapshots, newest first",
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id|hostname>",
	Short: "Print a recorded snapshot by ID, or the latest one of a host",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Purge history records older than the specified number of days",
	RunE:  runPurge,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the snapshot history over HTTP and gRPC",
	RunE:  runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "sysinventory %s (commit: %s, built: %s)\n", version, commitHash, buildDate)
	},
}

const serviceName = "TangraSysInventory"

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage Windows service installation",
}

var serviceInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install 'serve' as a Windows service",
	RunE:  runServiceInstall,
}

var serviceUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Uninstall the Windows service",
	RunE:  runServiceUninstall,
}

var (
	purgeDays    int
	outputFormat string
	printDoc     bool
	noScan       bool
	dateFlag     string
	listHostname string
	listPlatform string
	listPage     int
	listPageSize int
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./sysinventory.yaml)")
	pf.String("output-dir", "", "parent directory of the dated per-domain files (default Archivos-JSON)")
	pf.String("consolidated-dir", "", "parent directory of the dated consolidated file (default .)")
	pf.String("target", "", "network scan target (default 127.0.0.1)")
	pf.String("ports", "", "network scan port range (default 0-1023)")
	pf.String("database", "", "SQLite history database (empty = no history)")
	pf.String("listen", "", "HTTP listen address (default :9660)")
	pf.String("grpc-listen", "", "gRPC listen address (default :9661)")
	pf.String("api-secret", "", "secret for API clients (empty = no auth)")
	pf.String("log-level", "", "log level: debug, info, warn or error")
	pf.String("log-format", "", "log format: text or json")

	for _, c := range []*cobra.Command{rootCmd, collectCmd} {
		c.Flags().BoolVar(&noScan, "no-scan", false, "skip the network scan")
		c.Flags().BoolVar(&printDoc, "print", false, "print the consolidated document to stdout")
		c.Flags().StringVar(&outputFormat, "format", "json", "output format for --print: json or yaml")
	}

	consolidateCmd.Flags().StringVar(&dateFlag, "date", "", "day to consolidate, in the configured date layout (default today)")

	historyListCmd.Flags().StringVar(&listHostname, "hostname", "", "only snapshots of this host")
	historyListCmd.Flags().StringVar(&listPlatform, "platform", "", "only snapshots of this platform")
	historyListCmd.Flags().IntVar(&listPage, "page", 1, "page number")
	historyListCmd.Flags().IntVar(&listPageSize, "page-size", 20, "snapshots per page")
	historyShowCmd.Flags().StringVar(&outputFormat, "format", "json", "output format: json or yaml")
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)

	purgeCmd.Flags().IntVar(&purgeDays, "days", 0, "purge records older than this many days (default retention_days, else 90)")

	serviceCmd.AddCommand(serviceInstallCmd)
	serviceCmd.AddCommand(serviceUninstallCmd)

	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(consolidateCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serviceCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the configuration and applies the CLI flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// CLI flag overrides.
	flags := cmd.Flags()
	if v, _ := flags.GetString("output-dir"); v != "" {
		cfg.OutputDir = v
	}
	if v, _ := flags.GetString("consolidated-dir"); v != "" {
		cfg.ConsolidatedDir = v
	}
	if v, _ := flags.GetString("target"); v != "" {
		cfg.Scan.Target = v
	}
	if v, _ := flags.GetString("ports"); v != "" {
		cfg.Scan.Ports = v
	}
	if v, _ := flags.GetString("database"); v != "" {
		cfg.DatabasePath = v
	}
	if v, _ := flags.GetString("listen"); v != "" {
		cfg.Listen = v
	}
	if v, _ := flags.GetString("grpc-listen"); v != "" {
		cfg.GRPCListen = v
	}
	if v, _ := flags.GetString("api-secret"); v != "" {
		cfg.ApiSecret = v
	}
	if v, _ := flags.GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if v, _ := flags.GetString("log-format"); v != "" {
		cfg.LogFormat = v
	}
	if noScan {
		cfg.Scan.Enabled = false
	}

	return cfg, nil
}

// setup loads the configuration and installs the default logger.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logging.SetDefault(moduleName, version, cfg.LogLevel, cfg.LogFormat), nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
