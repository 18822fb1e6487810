// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 vrcpipe Contributors

package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vrcpipe/vrcpipe/internal/logging"
	"github.com/vrcpipe/vrcpipe/pkg/api"
	"github.com/vrcpipe/vrcpipe/pkg/vrc"
)

// newSession sets up logging, builds the transport and logs in. Every
// subcommand goes through here.
func newSession(ctx context.Context, cfg *config) (*vrc.AccountSession, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logging.SetDefault("vrcpipe", version, cfg.LogFormat)

	var opts []api.HTTPOption
	if cfg.APIURL != "" {
		opts = append(opts, api.WithBaseURL(cfg.APIURL))
	}
	transport := api.NewHTTPTransport(opts...)

	ses := vrc.NewSession(transport)
	if _, err := ses.Login(ctx, cfg.Username, cfg.Password); err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return ses, nil
}

// logout ends the server-side session on its own timeout context so it
// still runs when the command's context is already cancelled.
func logout(ses *vrc.AccountSession) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ses.Logout(ctx); err != nil {
		slog.Warn("error logging out", "error", err)
	}
}
