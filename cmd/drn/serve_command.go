package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"drn/internal/daemon"
	"drn/internal/ipc"
	"drn/internal/logging"
)

// newServeCommand runs the daemon in the foreground, same lifecycle as the
// drnd binary. Useful for development and for service managers that prefer a
// single executable.
func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the newsroom daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			d, err := daemon.New(cfg, logger)
			if err != nil {
				return fmt.Errorf("create daemon: %w", err)
			}
			defer d.Close()

			if err := d.Start(signalCtx); err != nil {
				return fmt.Errorf("start daemon: %w", err)
			}

			plane := &controlPlane{Daemon: d, shutdown: cancel}
			ipcServer, err := ipc.NewServer(signalCtx, ctx.socketPath(), plane, logger)
			if err != nil {
				return fmt.Errorf("start IPC server: %w", err)
			}
			defer ipcServer.Close()
			ipcServer.Serve()

			fmt.Fprintf(cmd.OutOrStdout(), "Daemon listening on %s\n", d.Addr())
			<-signalCtx.Done()
			logger.Info("drn serve shutting down")
			return nil
		},
	}
}

// controlPlane routes an IPC stop into a full process shutdown.
type controlPlane struct {
	*daemon.Daemon
	shutdown context.CancelFunc
}

func (p *controlPlane) Stop() {
	p.Daemon.Stop()
	p.shutdown()
}
