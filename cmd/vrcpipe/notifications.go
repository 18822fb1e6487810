// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 vrcpipe Contributors

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewNotificationsCmd creates the notifications subcommand.
func NewNotificationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "List pending notifications",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			return runNotifications(cmd, cfg)
		},
	}

	addCommonFlags(cmd.Flags())

	return cmd
}

func runNotifications(cmd *cobra.Command, cfg *config) error {
	ctx := cmd.Context()
	ses, err := newSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer logout(ses)

	notifications, err := ses.FetchNotifications(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch notifications: %w", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tFROM\tMESSAGE")
	for _, n := range notifications {
		fmt.Fprintf(w, "%s\t%s\t%s\n", n.Type, n.SenderUsername, n.Message)
	}
	return w.Flush()
}
