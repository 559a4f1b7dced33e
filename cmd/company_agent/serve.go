package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/company-lookup/internal/server"
	"github.com/spf13/cobra"
)

var (
	serveFlags sharedFlags
	servePort  int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  `Start an HTTP server that exposes session endpoints for uploading names, describing companies, and exporting or downloading the descriptions.`,
	RunE:  runServe,
}

func init() {
	serveFlags.register(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default 8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd, &serveFlags)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}

	rt, err := buildServices(context.Background(), cfg)
	if err != nil {
		return err
	}
	if rt.chat != nil {
		defer rt.chat.Close() //nolint:errcheck
	}

	var archive server.Archive
	if rt.database != nil {
		archive = rt.database
	}

	srv, err := server.New(server.Config{
		Port:        cfg.Port,
		ExportPath:  cfg.ExportPath,
		DedupeNames: cfg.DedupeNames,
		Verbose:     cfg.Verbose,
		SessionTTL:  time.Duration(cfg.SessionTTLMinutes) * time.Minute,
		MaxSessions: cfg.MaxSessions,
	}, rt.describer, archive)
	if err != nil {
		if rt.database != nil {
			rt.database.Close()
		}
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
