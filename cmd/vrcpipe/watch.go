// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 vrcpipe Contributors

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vrcpipe/vrcpipe/internal/observability"
	"github.com/vrcpipe/vrcpipe/pkg/errutil"
	"github.com/vrcpipe/vrcpipe/pkg/pipeline"
	"github.com/vrcpipe/vrcpipe/pkg/vrc"
)

// NewWatchCmd creates the watch subcommand.
func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream presence events as they happen",
		Long: `Connect to the presence pipeline and print friend events as they
arrive. Runs until interrupted. With --metrics-addr, event and reconnect
counters are exposed on a Prometheus /metrics endpoint.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			return runWatch(cmd, cfg)
		},
	}

	addCommonFlags(cmd.Flags())
	cmd.Flags().String("pipeline-url", "", "pipeline websocket URL (default: production)")
	cmd.Flags().String("metrics-addr", "", "metrics/health HTTP address (empty = disabled)")

	return cmd
}

func runWatch(cmd *cobra.Command, cfg *config) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	ses, err := newSession(ctx, cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	hooks := &pipeline.Hooks{
		Connect: func() {
			fmt.Fprintln(out, "connected")
		},
		Disconnect: func() {
			fmt.Fprintln(out, "disconnected")
		},
		FriendOnline: func(friend *vrc.User) {
			fmt.Fprintf(out, "%s is online\n", friend.DisplayName)
		},
		FriendActive: func(friend *vrc.User) {
			fmt.Fprintf(out, "%s is active\n", friend.DisplayName)
		},
		FriendOffline: func(friend *vrc.User) {
			fmt.Fprintf(out, "%s went offline\n", friend.DisplayName)
		},
		FriendLocation: func(friend *vrc.User, world *vrc.World, _ *vrc.Location, _ *vrc.Instance) {
			if world == nil {
				fmt.Fprintf(out, "%s moved to a private world\n", friend.DisplayName)
				return
			}
			fmt.Fprintf(out, "%s moved to %s\n", friend.DisplayName, world.Name)
		},
		FriendAdd: func(friend *vrc.User) {
			fmt.Fprintf(out, "%s is now a friend\n", friend.DisplayName)
		},
		FriendDelete: func(friend *vrc.User) {
			if friend == nil {
				fmt.Fprintln(out, "a friend was removed")
				return
			}
			fmt.Fprintf(out, "%s is no longer a friend\n", friend.DisplayName)
		},
		Notification: func(n *vrc.Notification) {
			fmt.Fprintf(out, "notification from %s: %s\n", n.SenderUsername, n.Type)
		},
		Error: func(err error) {
			errutil.LogError(slog.Default(), "pipeline error", err)
		},
	}

	var opts []pipeline.Option
	if cfg.PipelineURL != "" {
		opts = append(opts, pipeline.WithURL(cfg.PipelineURL))
	}

	// Start observability server if configured
	var obsServer *observability.Server
	if cfg.MetricsAddr != "" {
		obsServer = observability.NewServer(cfg.MetricsAddr, func() bool { return true })
		opts = append(opts, pipeline.WithMetrics(pipeline.NewMetrics(obsServer.Registry())))
		obsErrChan, err := obsServer.Start()
		if err != nil {
			return fmt.Errorf("failed to start observability server: %w", err)
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
	}

	channel := pipeline.NewChannel(ses, hooks, opts...)
	if err := channel.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to pipeline: %w", err)
	}

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig)
	case <-ctx.Done():
		slog.Info("context cancelled, shutting down")
	}

	channel.Disconnect()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			slog.Warn("error stopping observability server", "error", err)
		}
	}

	logout(ses)

	slog.Info("shutdown complete")
	return nil
}

// monitorServerErrors monitors a server's error channel and cancels the
// context on error so a failed server triggers graceful shutdown.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			// Channel closed, server stopped gracefully
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
		// Context cancelled, exit monitoring
	}
}
