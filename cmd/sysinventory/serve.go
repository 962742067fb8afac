package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-tangra/go-tangra-sysinventory/cmd/sysinventory/assets"
	"github.com/go-tangra/go-tangra-sysinventory/internal/logging"
	"github.com/go-tangra/go-tangra-sysinventory/internal/server"
	"github.com/go-tangra/go-tangra-sysinventory/internal/winsvc"
)

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	// Windows service mode.
	if winsvc.IsWindowsService() {
		if w, ok := winsvc.EventLog(serviceName); ok {
			logger = logging.NewLogger(w, moduleName, version, cfg.LogLevel, cfg.LogFormat)
		}
		return winsvc.RunService(serviceName, logger, func(ctx context.Context) error {
			return server.Run(ctx, cfg, assets.OpenApiData, logger)
		})
	}

	// Interactive mode: shut down on SIGINT / SIGTERM.
	ctx, stop := signalContext()
	defer stop()

	return server.Run(ctx, cfg, assets.OpenApiData, logger)
}

func runServiceInstall(cmd *cobra.Command, _ []string) error {
	_, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	svcArgs := []string{"serve"}
	if cfgFile != "" {
		svcArgs = append(svcArgs, "--config", cfgFile)
	}

	if err := winsvc.Install(
		serviceName,
		"Tangra System Inventory",
		"Serves recorded system inventory snapshots over HTTP and gRPC.",
		svcArgs,
		logger,
	); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Service %s installed successfully\n", serviceName)
	return nil
}

func runServiceUninstall(cmd *cobra.Command, _ []string) error {
	if err := winsvc.Uninstall(serviceName); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Service %s uninstalled successfully\n", serviceName)
	return nil
}
