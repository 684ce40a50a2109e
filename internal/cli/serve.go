package cli

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shiplog-io/shiplog/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the changelog HTTP API",
	Long: `Run the changelog HTTP API.

Endpoints:
  POST  /api/changelogs/generate   draft without persisting
  POST  /api/changelogs            publish a reviewed draft
  GET   /api/changelogs            list published changelogs
  PATCH /api/changelogs/{id}       replace a changelog's markdown
  GET   /health                    liveness check

The server drains in-flight requests on SIGINT/SIGTERM before exiting.`,
	Example: `  shiplog serve
  shiplog serve --addr :9090`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = cfg.Server.Addr
		}

		svc, err := buildService(cmd.Context(), cfg, "")
		if err != nil {
			return err
		}

		srv := server.New(server.Settings{
			Addr:          addr,
			DefaultBranch: cfg.Git.DefaultBranch,
			ShutdownGrace: time.Duration(cfg.Server.ShutdownGraceSeconds) * time.Second,
		}, svc, log.New(cmd.ErrOrStderr(), "shiplog: ", log.LstdFlags))

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return srv.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
