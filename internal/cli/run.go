package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/parachain/approval-distribution/internal/approval"
	"github.com/parachain/approval-distribution/internal/config"
	"github.com/parachain/approval-distribution/internal/di"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "run the approval-distribution node",
	Long: `run loads configuration, wires the approval-distribution State and
its cooperative event loop, and drives the loop until interrupted or a
Conclude signal arrives.`,
	RunE: runNode,
}

func runNode(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	container := di.New()
	provider := di.NewProvider(container, cfg)
	if err := provider.RegisterAll(); err != nil {
		return fmt.Errorf("registering services: %w", err)
	}

	loop := container.MustGet(di.ServiceLoop).(*approval.Loop)
	logger := container.MustGet(di.ServiceLogger).(approval.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("approvald starting", "listen_addr", cfg.Server.ListenAddr, "standalone", cfg.Server.Standalone)
	err = loop.Run(ctx)
	if err != nil && err != context.Canceled {
		return err
	}
	logger.Info("approvald stopped")
	return nil
}
