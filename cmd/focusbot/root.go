package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/focusloop/focusbot/internal/config"
	"github.com/focusloop/focusbot/internal/logging"
	"github.com/focusloop/focusbot/internal/server"
	"github.com/focusloop/focusbot/internal/svc"
)

// ServerConfig is injected by main before Execute runs
var ServerConfig *config.Config

// SetupRootCmd builds the CLI with the loaded configuration
func SetupRootCmd(c *config.Config) *cobra.Command {
	ServerConfig = c

	root := &cobra.Command{
		Use:   "focusbot",
		Short: "Chat-driven focus session and task tracking daemon",
		Run: func(cmd *cobra.Command, args []string) {
			RunServe()
		},
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the daemon: HTTP API, Slack channel, and digest scheduler",
		Run: func(cmd *cobra.Command, args []string) {
			RunServe()
		},
	}
	root.AddCommand(serve)

	return root
}

// RunServe boots the full daemon and blocks until interrupted
func RunServe() {
	c := ServerConfig
	logging.SetLevel(c.Log.Level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Infof("Received signal: %v - shutting down", sig)
		cancel()
	}()

	svcCtx, err := svc.NewServiceContext(*c)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer svcCtx.Close()

	if err := svcCtx.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to start services: %v\n", err)
		os.Exit(1)
	}

	if err := server.Run(ctx, svcCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: server failed: %v\n", err)
		os.Exit(1)
	}
}
