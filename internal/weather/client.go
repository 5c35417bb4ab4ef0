// Package weather fetches the current-conditions snapshot shown next to
// the live moisture values. The provider is best-effort: any failure
// degrades to a documented default snapshot instead of surfacing an
// error, so a weather outage never breaks the refresh cycle.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"

	"github.com/agrosense/irrigation-server/pkg/config"
)

// Snapshot is the current weather at the farm's location.
type Snapshot struct {
	Temperature   float64 `json:"temperature"`
	FeelsLike     float64 `json:"feelsLike"`
	Humidity      float64 `json:"humidity"`
	Condition     string  `json:"condition"`
	Location      string  `json:"location"`
	WindSpeed     float64 `json:"windSpeed"`
	Precipitation float64 `json:"precipitation"`
}

// DefaultSnapshot is what the dashboard shows when the provider is
// unreachable.
func DefaultSnapshot(location string) Snapshot {
	return Snapshot{
		Temperature:   25,
		FeelsLike:     25,
		Humidity:      50,
		Condition:     "Unknown",
		Location:      location,
		WindSpeed:     0,
		Precipitation: 0,
	}
}

// Client fetches snapshots from the weather provider.
type Client struct {
	cfg  *config.WeatherConfig
	http *http.Client
	log  *logrus.Entry
}

// NewClient creates a weather client.
func NewClient(cfg *config.WeatherConfig, log *logrus.Logger) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log.WithField("component", "weather-client"),
	}
}

// Fetch returns the current snapshot for the configured location. It
// never returns an error: failures are logged and replaced with the
// default snapshot.
func (c *Client) Fetch(ctx context.Context) Snapshot {
	snapshot, err := c.fetch(ctx)
	if err != nil {
		c.log.WithError(err).Warn("Weather fetch failed, using defaults")
		return DefaultSnapshot(c.cfg.Location)
	}
	return snapshot
}

func (c *Client) fetch(ctx context.Context) (Snapshot, error) {
	endpoint := fmt.Sprintf("%s?location=%s", c.cfg.BaseURL, url.QueryEscape(c.cfg.Location))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to build weather request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Snapshot{}, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Snapshot{}, fmt.Errorf("weather provider returned status %d", resp.StatusCode)
	}

	var snapshot Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode weather response: %w", err)
	}

	if snapshot.Location == "" {
		snapshot.Location = c.cfg.Location
	}

	return snapshot, nil
}
