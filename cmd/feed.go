package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kilianp07/cleancharge/infra/gridsim"
	"github.com/kilianp07/cleancharge/infra/logger"
)

var feedAddr string

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Serve a synthetic generation-mix feed in the Carbon Intensity format",
	Args:  cobra.NoArgs,
	RunE:  runFeed,
}

func init() {
	feedCmd.Flags().StringVar(&feedAddr, "addr", "", "listen address (default gridsim.addr)")
	rootCmd.AddCommand(feedCmd)
}

func runFeed(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	addr := cfg.GridSim.Addr
	if feedAddr != "" {
		addr = feedAddr
	}
	logger.SetLevel(cfg.Logging.Level)
	srv := gridsim.NewServer(addr, gridsim.NewGenerator(cfg.GridSim))
	return srv.Start(ctx)
}
