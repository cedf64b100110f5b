package carbonintensity

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kilianp07/cleancharge/core/model"
)

// TimeLayout is the minute-precision UTC layout used in paths and payloads.
const TimeLayout = "2006-01-02T15:04Z"

// Time reads and writes TimeLayout, accepting RFC 3339 on input.
type Time struct{ time.Time }

func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(TimeLayout))
}

func (t *Time) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseTime(s)
	if err != nil {
		return err
	}
	t.Time = v
	return nil
}

// ParseTime reads a timestamp in TimeLayout or RFC 3339 and returns it in UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{TimeLayout, time.RFC3339, "2006-01-02T15:04:05Z"} {
		if v, err := time.Parse(layout, s); err == nil {
			return v.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// Intensity is the carbon intensity block attached to regional periods.
type Intensity struct {
	Forecast float64  `json:"forecast"`
	Actual   *float64 `json:"actual,omitempty"`
	Index    string   `json:"index,omitempty"`
}

// Period is one half-hourly settlement period.
type Period struct {
	From          Time                  `json:"from"`
	To            Time                  `json:"to"`
	Intensity     *Intensity            `json:"intensity,omitempty"`
	GenerationMix []model.GenerationMix `json:"generationmix"`
	CleanEnergy   *float64              `json:"cleanenergy,omitempty"`
}

// NationalResponse is the body of /generation/{from}/{to}.
type NationalResponse struct {
	Data []Period `json:"data"`
}

// Region groups the periods of one DNO region.
type Region struct {
	RegionID  int      `json:"regionid"`
	DNORegion string   `json:"dnoregion,omitempty"`
	ShortName string   `json:"shortname,omitempty"`
	Data      []Period `json:"data"`
}

// RegionalResponse is the body of /regional/intensity/{from}/{to}/regionid/{id}.
// The upstream API returns data either as a single object or as a one-element
// array; both decode.
type RegionalResponse struct {
	Data Region `json:"data"`
}

func (r *RegionalResponse) UnmarshalJSON(b []byte) error {
	var raw struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	d := strings.TrimSpace(string(raw.Data))
	if strings.HasPrefix(d, "[") {
		var regions []Region
		if err := json.Unmarshal(raw.Data, &regions); err != nil {
			return err
		}
		if len(regions) > 0 {
			r.Data = regions[0]
		}
		return nil
	}
	if d == "" || d == "null" {
		return nil
	}
	return json.Unmarshal(raw.Data, &r.Data)
}

// toSample converts a period. The clean-energy share is derived from the mix
// with taxonomy when the feed omits it.
func (p Period) toSample(taxonomy model.FuelTaxonomy) model.Sample {
	s := model.Sample{From: p.From.Time, To: p.To.Time, GenerationMix: p.GenerationMix}
	if p.CleanEnergy != nil {
		s.CleanEnergy = *p.CleanEnergy
	} else {
		s.CleanEnergy = taxonomy.CleanPercentage(p.GenerationMix)
	}
	return s
}

// FromSample builds the wire form of s.
func FromSample(s model.Sample, withClean bool) Period {
	p := Period{From: Time{s.From}, To: Time{s.To}, GenerationMix: s.GenerationMix}
	if withClean {
		v := s.CleanEnergy
		p.CleanEnergy = &v
	}
	return p
}
