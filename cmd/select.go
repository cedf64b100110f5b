package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/cleancharge/app"
	"github.com/kilianp07/cleancharge/core/planner"
)

var (
	selectRange     rangeFlags
	selectSelector  selectorFlags
	selectThreshold float64
	selectFormat    string
	selectTimeout   time.Duration
)

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Print the cleanest charging window, or every window above --threshold",
	Args:  cobra.NoArgs,
	RunE:  selectWindows,
}

func init() {
	selectRange.bind(selectCmd)
	selectSelector.bind(selectCmd)
	selectCmd.Flags().Float64Var(&selectThreshold, "threshold", 0, "return non-overlapping windows scoring at least this percentage")
	selectCmd.Flags().StringVarP(&selectFormat, "format", "f", "json", "output format: json or csv")
	selectCmd.Flags().DurationVar(&selectTimeout, "timeout", time.Minute, "overall deadline")
	rootCmd.AddCommand(selectCmd)
}

func selectWindows(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	from, to, err := selectRange.apply(cfg)
	if err != nil {
		return err
	}
	selectSelector.apply(cmd, &cfg.Selector)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), selectTimeout)
	defer cancel()
	svc, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	req := planner.Request{Region: selectRange.region, From: from, To: to, Duration: cfg.Selector.Duration}
	var rec planner.Recommendation
	if cmd.Flags().Changed("threshold") {
		rec, err = svc.Planner.Above(ctx, req, selectThreshold)
	} else {
		rec, err = svc.Planner.Plan(ctx, req)
	}
	if err != nil {
		return fmt.Errorf("select: %w", err)
	}
	return writeWindows(cmd.OutOrStdout(), selectFormat, rec.Windows)
}
