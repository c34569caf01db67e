package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/marche-ricette/recipe-connector/internal/resilience"
)

// searchResult is one element of the Nominatim /search JSON array.
// Coordinates are sent as strings.
type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// query appends the configured region qualifier to the place name.
func (g *Geocoder) query(placeName string) string {
	parts := []string{placeName}
	for _, p := range []string{g.region, g.country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// search issues exactly one outbound request. Callers hold the permit.
func (g *Geocoder) search(ctx context.Context, placeName string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := url.Values{
		"format": {"json"},
		"q":      {g.query(placeName)},
		"limit":  {"1"},
	}
	reqURL := strings.TrimRight(g.baseURL, "/") + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: build request")
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		zap.L().Warn("geocode: request failed", zap.String("location", placeName), zap.Error(err))
		return nil, resilience.Upstream(err, "geocode: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		zap.L().Error("geocode: unexpected status",
			zap.String("location", placeName),
			zap.Int("status", resp.StatusCode),
		)
		return nil, resilience.Upstream(nil, "geocode: status "+strconv.Itoa(resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.Upstream(err, "geocode: read body")
	}

	var results []searchResult
	if err := json.Unmarshal(body, &results); err != nil {
		zap.L().Error("geocode: parse response", zap.String("location", placeName), zap.Error(err))
		return nil, eris.Wrapf(resilience.ErrInvalidData, "geocode: parse response for %q", placeName)
	}

	if len(results) == 0 {
		zap.L().Warn("geocode: no results", zap.String("location", placeName))
		return nil, eris.Wrapf(resilience.ErrNotFound, "geocode: %q", placeName)
	}

	first := results[0]
	lat, latErr := strconv.ParseFloat(strings.TrimSpace(first.Lat), 64)
	lon, lonErr := strconv.ParseFloat(strings.TrimSpace(first.Lon), 64)
	if latErr != nil || lonErr != nil {
		zap.L().Error("geocode: unparseable coordinates",
			zap.String("location", placeName),
			zap.String("lat", first.Lat),
			zap.String("lon", first.Lon),
		)
		return nil, eris.Wrapf(resilience.ErrInvalidData, "geocode: unparseable coordinates for %q", placeName)
	}

	result := &Result{Latitude: lat, Longitude: lon, DisplayName: first.DisplayName}
	if !result.Valid() {
		zap.L().Error("geocode: coordinates out of range",
			zap.String("location", placeName),
			zap.Float64("lat", lat),
			zap.Float64("lon", lon),
		)
		return nil, eris.Wrapf(resilience.ErrInvalidData, "geocode: coordinates out of range for %q", placeName)
	}

	zap.L().Info("geocode: resolved",
		zap.String("location", placeName),
		zap.Float64("lat", lat),
		zap.Float64("lon", lon),
	)
	return result, nil
}
