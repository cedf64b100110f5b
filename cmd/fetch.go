package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/cleancharge/app"
	"github.com/kilianp07/cleancharge/core/grid"
	"github.com/kilianp07/cleancharge/core/model"
	"github.com/kilianp07/cleancharge/pkg/export"
)

var (
	fetchRange  rangeFlags
	fetchFormat string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Print the generation-mix series of the configured provider",
	Args:  cobra.NoArgs,
	RunE:  fetchSeries,
}

func init() {
	fetchRange.bind(fetchCmd)
	fetchCmd.Flags().StringVarP(&fetchFormat, "format", "f", "json", "output format: json or csv")
	rootCmd.AddCommand(fetchCmd)
}

func fetchSeries(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	from, to, err := fetchRange.apply(cfg)
	if err != nil {
		return err
	}
	if from.IsZero() {
		from = time.Now().UTC().Truncate(time.Hour)
	}
	if to.IsZero() {
		to = from.Add(cfg.Selector.Horizon)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()
	svc, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	samples, err := svc.Provider.FetchSeries(ctx, grid.Query{Region: fetchRange.region, From: from, To: to})
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	w := cmd.OutOrStdout()
	switch strings.ToLower(fetchFormat) {
	case "", "json":
		if samples == nil {
			samples = []model.Sample{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(samples)
	case "csv":
		return export.WriteSamplesCSV(w, samples)
	default:
		return fmt.Errorf("unknown format %q", fetchFormat)
	}
}
