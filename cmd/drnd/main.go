package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"drn/internal/config"
	"drn/internal/daemon"
	"drn/internal/ipc"
	"drn/internal/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	configPath := os.Getenv("DRN_CONFIG")
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	d, err := daemon.New(cfg, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		os.Exit(1)
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("start daemon", logging.Error(err))
		os.Exit(1)
	}

	// A stop over IPC must bring the whole process down, not just the daemon
	// services, so the control plane's Stop also releases the signal context.
	plane := &controlPlane{Daemon: d, shutdown: cancel}
	ipcServer, err := ipc.NewServer(ctx, cfg.Paths.SocketPath, plane, logger)
	if err != nil {
		logger.Error("start IPC server", logging.Error(err))
		os.Exit(1)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	<-ctx.Done()
	logger.Info("drnd shutting down")
}

type controlPlane struct {
	*daemon.Daemon
	shutdown context.CancelFunc
}

func (p *controlPlane) Stop() {
	p.Daemon.Stop()
	p.shutdown()
}
