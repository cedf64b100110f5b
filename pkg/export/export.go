// Package export writes recommended windows and generation series in
// exchange formats.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/kilianp07/cleancharge/core/model"
)

// WriteJSON writes the windows to w as an indented JSON array.
func WriteJSON(w io.Writer, windows []model.OptimalChargingWindow) error {
	if windows == nil {
		windows = []model.OptimalChargingWindow{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(windows)
}

// WriteCSV writes one row per window.
func WriteCSV(w io.Writer, windows []model.OptimalChargingWindow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"start_time", "end_time", "duration_minutes", "clean_energy_percentage"}); err != nil {
		return err
	}
	for _, win := range windows {
		rec := []string{
			win.StartTime.UTC().Format(time.RFC3339),
			win.EndTime.UTC().Format(time.RFC3339),
			strconv.FormatFloat(win.Duration().Minutes(), 'f', -1, 64),
			strconv.FormatFloat(win.CleanEnergyPercentage, 'f', 1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSamplesCSV writes the series with its clean-energy share, one row per sample.
func WriteSamplesCSV(w io.Writer, samples []model.Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"from", "to", "clean_energy_percentage"}); err != nil {
		return err
	}
	for _, s := range samples {
		rec := []string{
			s.From.UTC().Format(time.RFC3339),
			s.To.UTC().Format(time.RFC3339),
			strconv.FormatFloat(s.CleanEnergy, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
