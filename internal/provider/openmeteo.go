package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

// DefaultBaseURL is the Open-Meteo forecast endpoint.
const DefaultBaseURL = "https://api.open-meteo.com/v1/forecast"

// OpenMeteoClient fetches multi-point hourly forecasts from Open-Meteo.
// A single call may carry many points; lat/lon/elevation are sent as
// comma-joined lists and the response contains one object per point.
type OpenMeteoClient struct {
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoClient(client *http.Client, baseURL string) *OpenMeteoClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openmeteo",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &OpenMeteoClient{
		baseURL: baseURL,
		httpCfg: HTTPClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				MaxRetries:      3,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: cb,
	}
}

// FetchHourly executes one forecast call and normalizes the response into one
// PointSeries per request point, in request order.
func (c *OpenMeteoClient) FetchHourly(ctx context.Context, req Request) ([]PointSeries, error) {
	if len(req.Latitudes) == 0 {
		return nil, fmt.Errorf("openmeteo: request has no points")
	}
	if len(req.Latitudes) != len(req.Longitudes) {
		return nil, fmt.Errorf("openmeteo: latitude/longitude length mismatch")
	}
	if req.Elevations != nil && len(req.Elevations) != len(req.Latitudes) {
		return nil, fmt.Errorf("openmeteo: elevation length mismatch")
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", joinFloats(req.Latitudes))
		values.Set("longitude", joinFloats(req.Longitudes))
		if req.Elevations != nil {
			values.Set("elevation", joinFloats(req.Elevations))
		}
		values.Set("hourly", strings.Join(req.Hourly, ","))
		values.Set("models", req.Model)
		values.Set("forecast_days", strconv.Itoa(req.ForecastDays))
		values.Set("timezone", "auto")
		values.Set("timeformat", "unixtime")

		u := fmt.Sprintf("%s?%s", c.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payloads, err := decodePoints(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(payloads) != len(req.Latitudes) {
		return nil, fmt.Errorf("openmeteo: requested %d points, got %d", len(req.Latitudes), len(payloads))
	}

	series := make([]PointSeries, 0, len(payloads))
	for i, p := range payloads {
		s, err := p.toSeries(req.Hourly)
		if err != nil {
			return nil, fmt.Errorf("openmeteo: point %d: %w", i, err)
		}
		series = append(series, s)
	}
	return series, nil
}

// pointPayload is the wire shape of one point's forecast.
type pointPayload struct {
	Latitude         float64                    `json:"latitude"`
	Longitude        float64                    `json:"longitude"`
	UTCOffsetSeconds int64                      `json:"utc_offset_seconds"`
	Hourly           map[string]json.RawMessage `json:"hourly"`
}

// decodePoints accepts both response shapes: a bare object for single-point
// calls and an array for multi-point calls.
func decodePoints(r io.Reader) ([]pointPayload, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	trimmed := strings.TrimLeft(string(raw), " \t\r\n")
	if strings.HasPrefix(trimmed, "[") {
		var many []pointPayload
		if err := json.Unmarshal(raw, &many); err != nil {
			return nil, fmt.Errorf("decode point array: %w", err)
		}
		return many, nil
	}

	var one pointPayload
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, fmt.Errorf("decode point object: %w", err)
	}
	return []pointPayload{one}, nil
}

func (p pointPayload) toSeries(wantVars []string) (PointSeries, error) {
	timesRaw, ok := p.Hourly["time"]
	if !ok {
		return PointSeries{}, fmt.Errorf("hourly block has no time array")
	}
	var times []int64
	if err := json.Unmarshal(timesRaw, &times); err != nil {
		return PointSeries{}, fmt.Errorf("decode time array: %w", err)
	}
	if len(times) == 0 {
		return PointSeries{}, fmt.Errorf("empty time array")
	}

	interval := int64(3600)
	if len(times) > 1 {
		interval = times[1] - times[0]
	}

	values := make(map[string][]float64, len(wantVars))
	for _, name := range wantVars {
		raw, ok := p.Hourly[name]
		if !ok {
			return PointSeries{}, fmt.Errorf("hourly block missing %s", name)
		}
		var vals []float64
		if err := json.Unmarshal(raw, &vals); err != nil {
			return PointSeries{}, fmt.Errorf("decode %s: %w", name, err)
		}
		values[name] = vals
	}

	return PointSeries{
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		Start:     times[0],
		Interval:  interval,
		UTCOffset: p.UTCOffsetSeconds,
		Values:    values,
	}, nil
}

func joinFloats(vals []float64) string {
	parts := make([]string, 0, len(vals))
	for _, v := range vals {
		parts = append(parts, strconv.FormatFloat(v, 'f', -1, 64))
	}
	return strings.Join(parts, ",")
}
