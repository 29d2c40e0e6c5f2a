package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/onnwee/skillmatch/internal/geo"
)

// DefaultBaseURL is the Google Geocoding JSON endpoint.
const DefaultBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"

// statusOK is the only upstream status that carries a usable result.
const statusOK = "OK"

// HTTPConfig configures the upstream geocoding client.
type HTTPConfig struct {
	BaseURL string
	APIKey  string

	// HTTPClient is used for requests. Defaults to a client with a 10s timeout.
	HTTPClient *http.Client

	// Breaker tuning. Zero values use the defaults below.
	BreakerFailureThreshold uint32        // consecutive failures before opening (default 5)
	BreakerOpenTimeout      time.Duration // open -> half-open delay (default 30s)
}

// HTTPClient looks addresses up against a Google Geocoding compatible API.
// Calls pass through a circuit breaker so a failing upstream is not
// hammered by every recommendation request.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	cb      *gobreaker.CircuitBreaker[geo.Coordinate]
	logger  *slog.Logger
}

// geocodeResponse mirrors the parts of the upstream payload we read.
type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// NewHTTPClient creates an upstream client with circuit breaker protection.
// Circuit breaker configuration:
// - Max 1 trial request in half-open state
// - Opens after BreakerFailureThreshold consecutive transport-level failures
// - Non-OK answers (ZERO_RESULTS etc.) do not count against the breaker
func NewHTTPClient(cfg HTTPConfig, logger *slog.Logger) *HTTPClient {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	threshold := cfg.BreakerFailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	openTimeout := cfg.BreakerOpenTimeout
	if openTimeout == 0 {
		openTimeout = 30 * time.Second
	}

	c := &HTTPClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  cfg.HTTPClient,
		logger:  logger,
	}

	c.cb = gobreaker.NewCircuitBreaker[geo.Coordinate](gobreaker.Settings{
		Name:        "geocoder-upstream",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			switch failureReason(err) {
			case ReasonStatus, ReasonNoResults:
				return true
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("geocoder circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String())
		},
	})

	return c
}

// Lookup resolves a free-form address to a coordinate.
func (c *HTTPClient) Lookup(ctx context.Context, address string) (geo.Coordinate, error) {
	coord, err := c.cb.Execute(func() (geo.Coordinate, error) {
		return c.fetch(ctx, address)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return geo.Coordinate{}, &FailureError{Address: address, Reason: ReasonCircuitOpen, Err: err}
		}
		return geo.Coordinate{}, err
	}
	return coord, nil
}

func (c *HTTPClient) fetch(ctx context.Context, address string) (geo.Coordinate, error) {
	params := url.Values{}
	params.Set("address", address)
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return geo.Coordinate{}, &FailureError{Address: address, Reason: ReasonTransport, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		reason := ReasonTransport
		if errors.Is(err, context.DeadlineExceeded) {
			reason = ReasonTimeout
		}
		return geo.Coordinate{}, &FailureError{Address: address, Reason: reason, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return geo.Coordinate{}, &FailureError{
			Address: address,
			Reason:  ReasonHTTPStatus,
			Err:     fmt.Errorf("unexpected status code %d", resp.StatusCode),
		}
	}

	var body geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		reason := ReasonDecode
		if errors.Is(err, context.DeadlineExceeded) {
			reason = ReasonTimeout
		}
		return geo.Coordinate{}, &FailureError{Address: address, Reason: reason, Err: err}
	}

	if body.Status != statusOK {
		return geo.Coordinate{}, &FailureError{
			Address: address,
			Reason:  ReasonStatus,
			Err:     fmt.Errorf("upstream status %q", body.Status),
		}
	}
	if len(body.Results) == 0 {
		return geo.Coordinate{}, &FailureError{Address: address, Reason: ReasonNoResults}
	}

	loc := body.Results[0].Geometry.Location
	coord := geo.Coordinate{Latitude: loc.Lat, Longitude: loc.Lng}
	if !coord.Valid() {
		return geo.Coordinate{}, &FailureError{
			Address: address,
			Reason:  ReasonDecode,
			Err:     fmt.Errorf("coordinate out of range: %s", coord),
		}
	}

	return coord, nil
}
