package statsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/Alias1177/Linecast/models"
)

// Client fetches game context and team metrics from the stats feed
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	config     *models.Config
	logger     zerolog.Logger
}

// NewClient creates a new API client with rate limiting
func NewClient(config *models.Config) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(config.RequestTimeout) * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(time.Second), 5), // 5 requests per second
		config:  config,
		logger:  log.With().Str("component", "stats_client").Logger(),
	}
}

// gameResponse is the wire shape of the game context endpoint
type gameResponse struct {
	GamePk   int    `json:"gamePk"`
	Venue    string `json:"venue"`
	GameDate string `json:"gameDate"`
	Teams    struct {
		Home string `json:"home"`
		Away string `json:"away"`
	} `json:"teams"`
	Weather struct {
		TempF     float64 `json:"temp_f"`
		WindMPH   float64 `json:"wind_mph"`
		WindDir   string  `json:"wind_dir"`
		Humidity  float64 `json:"humidity"`
		Rain      bool    `json:"rain"`
		Observed  string  `json:"observed_at"`
		RoofState string  `json:"roof_state"`
	} `json:"weather"`
	Park struct {
		RunFactor float64 `json:"run_factor"`
		HRFactor  float64 `json:"hr_factor"`
		Altitude  float64 `json:"altitude_ft"`
	} `json:"park"`
}

// metricsResponse is the wire shape of the team metrics endpoint
type metricsResponse struct {
	HomePitching models.PitchingMetrics `json:"home_pitching"`
	AwayPitching models.PitchingMetrics `json:"away_pitching"`
	HomeOffense  models.OffenseMetrics  `json:"home_offense"`
	AwayOffense  models.OffenseMetrics  `json:"away_offense"`
	Timestamps   map[string]string      `json:"timestamps"`
}

// GetGameContext fetches and normalizes the context record for one game
func (c *Client) GetGameContext(ctx context.Context, gameID string) (*models.GameContext, error) {
	url := fmt.Sprintf("%s/game/%s/context?apikey=%s", c.config.StatsBaseURL, gameID, c.config.StatsAPIKey)

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var data gameResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Str("response", string(body)).Msg("Error parsing JSON")
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	gameDate, err := time.Parse(time.RFC3339, data.GameDate)
	if err != nil {
		return nil, fmt.Errorf("parsing game date: %w", err)
	}

	observed := time.Now()
	if ts, err := time.Parse(time.RFC3339, data.Weather.Observed); err == nil {
		observed = ts
	}

	game := &models.GameContext{
		GameID:   gameID,
		HomeTeam: data.Teams.Home,
		AwayTeam: data.Teams.Away,
		Venue:    data.Venue,
		GameDate: gameDate,
		Weather: models.WeatherSnapshot{
			TemperatureF:  data.Weather.TempF,
			WindSpeedMPH:  data.Weather.WindMPH,
			WindDirection: data.Weather.WindDir,
			HumidityPct:   data.Weather.Humidity,
			Precipitation: data.Weather.Rain,
			ObservedAt:    observed,
		},
		ParkFactors: models.ParkFactors{
			RunFactor:  data.Park.RunFactor,
			HRFactor:   data.Park.HRFactor,
			Altitude:   data.Park.Altitude,
			RoofClosed: data.Weather.RoofState == "closed",
		},
	}

	c.logger.Debug().Str("game_id", gameID).Str("venue", game.Venue).Msg("Fetched game context")
	return game, nil
}

// GetModelInput fetches team metrics and assembles the full model input
func (c *Client) GetModelInput(ctx context.Context, game *models.GameContext) (*models.ModelInput, error) {
	url := fmt.Sprintf("%s/game/%s/metrics?apikey=%s", c.config.StatsBaseURL, game.GameID, c.config.StatsAPIKey)

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var data metricsResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Str("response", string(body)).Msg("Error parsing JSON")
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	timestamps := map[string]time.Time{
		"weather": game.Weather.ObservedAt,
	}
	for source, raw := range data.Timestamps {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			timestamps[source] = ts
		}
	}

	input := &models.ModelInput{
		Game:         *game,
		HomePitching: data.HomePitching,
		AwayPitching: data.AwayPitching,
		HomeOffense:  data.HomeOffense,
		AwayOffense:  data.AwayOffense,
		Timestamps:   timestamps,
	}

	c.logger.Debug().Str("game_id", game.GameID).Int("sources", len(timestamps)).Msg("Assembled model input")
	return input, nil
}

// get performs a rate-limited GET with exponential backoff retries
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	var resp *http.Response
	operation := func() error {
		var err error
		resp, err = c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("HTTP request failed: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return fmt.Errorf("non-200 status code: %d", resp.StatusCode)
		}
		return nil
	}

	backoffStrategy := backoff.NewExponentialBackOff()
	backoffStrategy.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(operation, backoffStrategy); err != nil {
		return nil, fmt.Errorf("after retries: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return body, nil
}
