// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 vrcpipe Contributors

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vrcpipe/vrcpipe/pkg/vrc"
)

// NewFriendsCmd creates the friends subcommand.
func NewFriendsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "friends",
		Short: "List the account's friends",
		Long: `List the account's friends with their status and location.
Pass --offline to list offline friends instead of online ones.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			return runFriends(cmd, cfg)
		},
	}

	addCommonFlags(cmd.Flags())
	cmd.Flags().Bool("offline", false, "list offline friends")
	cmd.Flags().Int("n", 0, "maximum number of friends to list (0 = all)")

	return cmd
}

func runFriends(cmd *cobra.Command, cfg *config) error {
	ctx := cmd.Context()
	ses, err := newSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer logout(ses)

	offline, _ := cmd.Flags().GetBool("offline")
	n, _ := cmd.Flags().GetInt("n")

	friends, err := ses.FetchFriends(ctx, vrc.FriendsQuery{Offline: offline, N: n})
	if err != nil {
		return fmt.Errorf("failed to fetch friends: %w", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DISPLAY NAME\tSTATUS\tLOCATION")
	for _, f := range friends {
		location := ""
		if f.Location != nil {
			location = f.Location.Raw
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", f.DisplayName, f.Status, location)
	}
	return w.Flush()
}
