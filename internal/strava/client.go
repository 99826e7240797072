package strava

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"enduro/internal/models"
	"enduro/internal/providers"
	"enduro/internal/structures"
)

// SourceInterface is the remote boundary: it produces data and classifies
// failures, nothing else. It never touches the snapshot or the session.
type SourceInterface interface {
	FetchAll(ctx context.Context) (*models.Dataset, error)
	Athlete(ctx context.Context) (json.RawMessage, error)
}

const tokenExpirySlack = 5 * time.Minute

// Client talks to the Strava v3 API. Page requests are paced by a rate
// limiter to stay inside the 15-minute request window and wrapped in a
// circuit breaker so a dead remote fails fast instead of burning the
// whole pagination loop on timeouts.
type Client struct {
	conf    *structures.Config
	logger  providers.Logger
	metrics providers.MetricsProviderInterface
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]models.Activity]

	token tokenState
}

func NewClient(conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface) SourceInterface {
	pageDelay := conf.Strava.PageDelay
	if pageDelay <= 0 {
		pageDelay = 500 * time.Millisecond
	}
	timeout := conf.Strava.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		conf:    conf,
		logger:  logger,
		metrics: metrics,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Every(pageDelay), 1),
	}

	c.breaker = gobreaker.NewCircuitBreaker[[]models.Activity](gobreaker.Settings{
		Name:     "strava-api",
		Interval: time.Minute,
		Timeout:  2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A quota refusal is the remote working as documented, not an
		// outage; it must not open the circuit.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, models.ErrRateLimited)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warnf(providers.TypeSync, "Circuit breaker %s: %s -> %s", name, from, to)
		},
	})

	return c
}

// FetchAll retrieves every activity page by page. It stops on an empty or
// short page, surfaces ErrRateLimited immediately without retrying, and
// never returns a partial dataset: any page failure fails the whole call.
func (c *Client) FetchAll(ctx context.Context) (*models.Dataset, error) {
	perPage := c.conf.Strava.PerPage
	if perPage <= 0 {
		perPage = 200
	}

	var all []models.Activity
	for page := 1; ; page++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &models.TransportError{Op: "page wait", Err: err}
		}

		acts, err := c.fetchPage(ctx, page, perPage)
		if err != nil {
			return nil, err
		}
		if len(acts) == 0 {
			break
		}

		all = append(all, acts...)
		c.metrics.IncPagesFetched()
		c.logger.Infof(providers.TypeSync, "Fetched page %d, %d activities total", page, len(all))

		if len(acts) < perPage {
			break
		}
	}

	return models.NewDataset(all)
}

func (c *Client) fetchPage(ctx context.Context, page, perPage int) ([]models.Activity, error) {
	acts, err := c.breaker.Execute(func() ([]models.Activity, error) {
		return c.doPage(ctx, page, perPage)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &models.TransportError{Op: "activities page", Err: err}
		}
		return nil, err
	}
	return acts, nil
}

func (c *Client) doPage(ctx context.Context, page, perPage int) ([]models.Activity, error) {
	endpoint := fmt.Sprintf("%s/athlete/activities?page=%d&per_page=%d", c.conf.Strava.BaseURL, page, perPage)
	body, err := c.get(ctx, "activities page", endpoint)
	if err != nil {
		return nil, err
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &models.TransportError{Op: "activities page", Err: fmt.Errorf("parse response: %w", err)}
	}

	acts := make([]models.Activity, 0, len(raw))
	for _, item := range raw {
		a, err := parseActivity(item)
		if err != nil {
			return nil, &models.TransportError{Op: "activities page", Err: err}
		}
		acts = append(acts, a)
	}
	return acts, nil
}

// Athlete fetches the authenticated athlete's profile as-is.
func (c *Client) Athlete(ctx context.Context) (json.RawMessage, error) {
	body, err := c.get(ctx, "athlete", c.conf.Strava.BaseURL+"/athlete")
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

func (c *Client) get(ctx context.Context, op, endpoint string) ([]byte, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &models.TransportError{Op: op, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &models.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		c.metrics.IncRateLimitHits()
		limit := firstField(resp.Header.Get("X-RateLimit-Limit"))
		usage := firstField(resp.Header.Get("X-RateLimit-Usage"))
		return nil, fmt.Errorf("usage %s/%s per 15 minutes: %w", usage, limit, models.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &models.TransportError{Op: op, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &models.TransportError{Op: op, Err: err}
	}
	return body, nil
}

func firstField(header string) string {
	if header == "" {
		return "?"
	}
	if i := strings.IndexByte(header, ','); i >= 0 {
		return header[:i]
	}
	return header
}

// knownActivityKeys are the remote fields mapped onto Activity columns.
// Everything else passes through untouched in Extra.
var knownActivityKeys = map[string]struct{}{
	"id":                   {},
	"name":                 {},
	"type":                 {},
	"sport_type":           {},
	"start_date":           {},
	"distance":             {},
	"total_elevation_gain": {},
	"moving_time":          {},
	"average_heartrate":    {},
	"suffer_score":         {},
	"average_watts":        {},
}

func parseActivity(raw json.RawMessage) (models.Activity, error) {
	var known struct {
		Id                 int64     `json:"id"`
		Name               string    `json:"name"`
		Type               string    `json:"type"`
		SportType          string    `json:"sport_type"`
		StartDate          time.Time `json:"start_date"`
		Distance           float64   `json:"distance"`
		TotalElevationGain float64   `json:"total_elevation_gain"`
		MovingTime         int64     `json:"moving_time"`
		AverageHeartrate   *float64  `json:"average_heartrate"`
		SufferScore        *float64  `json:"suffer_score"`
		AverageWatts       *float64  `json:"average_watts"`
	}
	if err := json.Unmarshal(raw, &known); err != nil {
		return models.Activity{}, fmt.Errorf("parse activity: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return models.Activity{}, fmt.Errorf("parse activity fields: %w", err)
	}
	for k := range knownActivityKeys {
		delete(fields, k)
	}
	if len(fields) == 0 {
		fields = nil
	}

	sport := known.SportType
	if sport == "" {
		sport = known.Type
	}
	if sport == "" {
		sport = "Unknown"
	}
	name := known.Name
	if name == "" {
		name = "Untitled"
	}

	return models.Activity{
		Id:           known.Id,
		Name:         name,
		Sport:        sport,
		StartDate:    known.StartDate.UTC(),
		DistanceM:    known.Distance,
		ElevationM:   known.TotalElevationGain,
		MovingSec:    known.MovingTime,
		AvgHeartrate: known.AverageHeartrate,
		SufferScore:  known.SufferScore,
		AvgWatts:     known.AverageWatts,
		Extra:        fields,
	}, nil
}

type tokenState struct {
	accessToken string
	expiresAt   time.Time
}

// accessToken returns a valid bearer token, exchanging the refresh token
// when the cached one is within the expiry slack. Tokens live in memory
// only. FetchAll is serialized by the session layer, so no extra locking
// is needed here.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	if c.token.accessToken != "" && time.Now().Before(c.token.expiresAt.Add(-tokenExpirySlack)) {
		return c.token.accessToken, nil
	}

	form := url.Values{
		"client_id":     {c.conf.Strava.ClientID},
		"client_secret": {c.conf.Strava.ClientSecret},
		"refresh_token": {c.conf.Strava.RefreshToken},
		"grant_type":    {"refresh_token"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.conf.Strava.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &models.TransportError{Op: "token refresh", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &models.TransportError{Op: "token refresh", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		c.metrics.IncRateLimitHits()
		return "", fmt.Errorf("token refresh: %w", models.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &models.TransportError{Op: "token refresh", Status: resp.StatusCode}
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresAt   int64  `json:"expires_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", &models.TransportError{Op: "token refresh", Err: err}
	}
	if payload.AccessToken == "" {
		return "", &models.TransportError{Op: "token refresh", Err: errors.New("empty access token in response")}
	}

	c.token = tokenState{
		accessToken: payload.AccessToken,
		expiresAt:   time.Unix(payload.ExpiresAt, 0),
	}
	c.logger.Infof(providers.TypeSync, "Access token refreshed, valid until %s", c.token.expiresAt.Format(time.RFC3339))

	return c.token.accessToken, nil
}
