// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 vrcpipe Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the vrcpipe CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vrcpipe",
		Short: "vrcpipe - a client for the VRChat API and presence pipeline",
		Long: `vrcpipe is a client for the VRChat REST API and the real-time
presence pipeline. It can list friends and notifications, and stream
presence events as they happen.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	// Add subcommands
	cmd.AddCommand(NewFriendsCmd())
	cmd.AddCommand(NewNotificationsCmd())
	cmd.AddCommand(NewWatchCmd())

	return cmd
}
