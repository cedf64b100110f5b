package carbonintensity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/cleancharge/core/factory"
	"github.com/kilianp07/cleancharge/core/grid"
	"github.com/kilianp07/cleancharge/core/model"
	"github.com/kilianp07/cleancharge/infra/logger"
)

// DefaultBaseURL is the public GB Carbon Intensity API.
const DefaultBaseURL = "https://api.carbonintensity.org.uk"

// ProviderName identifies the provider in the factory registry and in metrics.
const ProviderName = "carbonintensity"

// Config configures the HTTP client.
type Config struct {
	BaseURL     string        `json:"base_url"`
	Timeout     time.Duration `json:"timeout"`
	CleanFuels  []string      `json:"clean_fuels"`
	MaxBodySize int64         `json:"max_body_size"`
}

func (c *Config) setDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.MaxBodySize <= 0 {
		c.MaxBodySize = 32 << 20
	}
}

// Client fetches generation mixes from the Carbon Intensity API.
type Client struct {
	cfg      Config
	http     *http.Client
	taxonomy model.FuelTaxonomy
	log      logger.Logger
}

// New creates a Client. A nil httpClient gets one with cfg.Timeout.
func New(cfg Config, httpClient *http.Client, log logger.Logger) *Client {
	cfg.setDefaults()
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	tax := model.DefaultFuelTaxonomy()
	if len(cfg.CleanFuels) > 0 {
		tax = model.FuelTaxonomy{Clean: cfg.CleanFuels}
	}
	if log == nil {
		log = logger.New("carbonintensity")
	}
	return &Client{cfg: cfg, http: httpClient, taxonomy: tax, log: log}
}

func init() {
	_ = grid.RegisterProvider(ProviderName, func(conf map[string]any) (grid.Provider, error) {
		var c Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return New(c, nil, nil), nil
	})
}

func (c *Client) Name() string { return ProviderName }

// FetchSeries loads the national generation mix, or a DNO region when
// q.Region holds a numeric region id.
func (c *Client) FetchSeries(ctx context.Context, q grid.Query) ([]model.Sample, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	region := q.RegionOrNational()
	from, to := q.From.UTC().Format(TimeLayout), q.To.UTC().Format(TimeLayout)

	var periods []Period
	if region == grid.NationalRegion {
		var body NationalResponse
		if err := c.get(ctx, region, fmt.Sprintf("/generation/%s/%s", from, to), &body); err != nil {
			return nil, err
		}
		periods = body.Data
	} else {
		id, err := strconv.Atoi(region)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%w: region %q: expected %q or a numeric region id", grid.ErrInvalidQuery, q.Region, grid.NationalRegion)
		}
		var body RegionalResponse
		if err := c.get(ctx, region, fmt.Sprintf("/regional/intensity/%s/%s/regionid/%d", from, to, id), &body); err != nil {
			return nil, err
		}
		periods = body.Data.Data
	}

	samples := make([]model.Sample, 0, len(periods))
	for i, p := range periods {
		s := p.toSample(c.taxonomy)
		if err := s.Validate(); err != nil {
			return nil, grid.NewProviderError(grid.ErrorKindInvalidData, ProviderName, region, 0, fmt.Errorf("period %d: %w", i, err))
		}
		samples = append(samples, s)
	}
	c.log.Debugw("series fetched", map[string]any{"region": region, "from": from, "to": to, "samples": len(samples)})
	return samples, nil
}

func (c *Client) get(ctx context.Context, region, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return ctxErr
		}
		return grid.NewProviderError(grid.ErrorKindNetwork, ProviderName, region, 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body := io.LimitReader(resp.Body, c.cfg.MaxBodySize)
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return grid.NewProviderError(grid.ErrorKindRateLimit, ProviderName, region, resp.StatusCode, errors.New(resp.Status))
	case resp.StatusCode != http.StatusOK:
		msg, _ := io.ReadAll(io.LimitReader(body, 512))
		return grid.NewProviderError(grid.ErrorKindUpstream, ProviderName, region, resp.StatusCode,
			fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(msg))))
	}
	if err := json.NewDecoder(body).Decode(out); err != nil {
		return grid.NewProviderError(grid.ErrorKindInvalidData, ProviderName, region, resp.StatusCode, fmt.Errorf("decode: %w", err))
	}
	return nil
}
