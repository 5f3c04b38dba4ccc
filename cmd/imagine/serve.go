// ABOUTME: The serve and mcp subcommands, exposing the filter over HTTP and over MCP stdio.
// ABOUTME: Both run until the command context is cancelled by SIGINT or SIGTERM.
package main

import (
	"time"

	"github.com/2389-research/imagine/mcpserver"
	"github.com/2389-research/imagine/server"
	"github.com/spf13/cobra"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	var (
		addr     string
		cacheTTL time.Duration
		maxBody  int64
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the filter over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, g, func(a *app) error {
				if cmd.Flags().Changed("addr") {
					a.cfg.addr = addr
				}
				srv := server.New(a.renderer, server.Config{
					Addr:     a.cfg.addr,
					CacheTTL: cacheTTL,
					MaxBody:  maxBody,
				})
				return srv.Run(cmd.Context())
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: 127.0.0.1:2390)")
	cmd.Flags().DurationVar(&cacheTTL, "cache-ttl", 10*time.Minute, "rendered document cache lifetime; negative disables")
	cmd.Flags().Int64Var(&maxBody, "max-body", 8<<20, "request body limit in bytes")
	return cmd
}

func newMCPCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the filter as Model Context Protocol tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, g, func(a *app) error {
				return mcpserver.New(a.renderer, version).Run(cmd.Context())
			})
		},
	}
}
