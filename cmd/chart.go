package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/cleancharge/app"
	"github.com/kilianp07/cleancharge/core/grid"
	"github.com/kilianp07/cleancharge/core/planner"
	"github.com/kilianp07/cleancharge/pkg/export"
)

var (
	chartRange    rangeFlags
	chartSelector selectorFlags
	chartOut      string
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Render the clean-energy series and the best window as an HTML chart",
	Args:  cobra.NoArgs,
	RunE:  renderChart,
}

func init() {
	chartRange.bind(chartCmd)
	chartSelector.bind(chartCmd)
	chartCmd.Flags().StringVarP(&chartOut, "out", "o", "chart.html", "output file")
	rootCmd.AddCommand(chartCmd)
}

func renderChart(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	from, to, err := chartRange.apply(cfg)
	if err != nil {
		return err
	}
	chartSelector.apply(cmd, &cfg.Selector)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()
	svc, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	rec, err := svc.Planner.Plan(ctx, planner.Request{Region: chartRange.region, From: from, To: to, Duration: cfg.Selector.Duration})
	if err != nil {
		return fmt.Errorf("chart: %w", err)
	}
	// Served from the cache when one is configured.
	samples, err := svc.Provider.FetchSeries(ctx, grid.Query{Region: rec.Region, From: rec.From, To: rec.To})
	if err != nil {
		return fmt.Errorf("chart: %w", err)
	}

	f, err := os.Create(chartOut)
	if err != nil {
		return err
	}
	title := fmt.Sprintf("Clean energy, %s", rec.Region)
	if err := export.RenderChart(f, title, samples, rec.Windows); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", chartOut)
	return nil
}
