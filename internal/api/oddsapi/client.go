package oddsapi

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

// Client fetches the current bookmaker total line for a game
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	config     *models.Config
	logger     zerolog.Logger
}

// NewClient creates a new odds API client with rate limiting
func NewClient(config *models.Config) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(config.RequestTimeout) * time.Second,
		},
		// The odds feed meters aggressively; stay well under its quota
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 2),
		config:  config,
		logger:  log.With().Str("component", "odds_client").Logger(),
	}
}

// oddsResponse is the wire shape of the totals endpoint
type oddsResponse struct {
	GameID     string  `json:"game_id"`
	Bookmaker  string  `json:"bookmaker"`
	Line       float64 `json:"total_line"`
	OverPrice  int     `json:"over_price"`
	UnderPrice int     `json:"under_price"`
	UpdatedAt  string  `json:"updated_at"`
}

// GetMarket fetches the current total line for one game
func (c *Client) GetMarket(ctx context.Context, gameID string) (*models.MarketRecord, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	url := fmt.Sprintf("%s/totals/%s?apikey=%s", c.config.OddsBaseURL, gameID, c.config.OddsAPIKey)

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

	var data oddsResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Str("response", string(body)).Msg("Error parsing JSON")
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	if data.Line <= 0 {
		c.logger.Warn().Str("game_id", gameID).Str("response", string(body)).Msg("No line in response")
		return nil, fmt.Errorf("no total line for game %s", gameID)
	}

	fetched := time.Now()
	if ts, err := time.Parse(time.RFC3339, data.UpdatedAt); err == nil {
		fetched = ts
	}

	market := &models.MarketRecord{
		Line:       data.Line,
		OverPrice:  data.OverPrice,
		UnderPrice: data.UnderPrice,
		Bookmaker:  data.Bookmaker,
		FetchedAt:  fetched,
	}

	c.logger.Debug().Str("game_id", gameID).Float64("line", market.Line).Str("bookmaker", market.Bookmaker).Msg("Fetched market")
	return market, nil
}
