// Package osrm is a client for the OSRM HTTP API, covering the /route
// point-to-point call and the /table one-to-many distance matrix.
package osrm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/nguyensongnghiem/routeplanner/internal/models"
)

// RouteResult is a successful point-to-point lookup
type RouteResult struct {
	DistanceKM float64
	Geometry   []models.Coordinates
}

// DistanceCache stores previously fetched road distances. Implementations
// must tolerate concurrent use; a nil cache disables caching.
type DistanceCache interface {
	Get(ctx context.Context, origin, dest models.Coordinates) (*models.DistanceCacheEntry, error)
	SetBatch(ctx context.Context, entries []models.DistanceCacheEntry) error
}

// ErrRoutingService is returned when OSRM cannot serve a request, either
// after retries are exhausted or because it answered with a non-Ok code.
type ErrRoutingService struct {
	Endpoint string
	Reason   string
}

func (e *ErrRoutingService) Error() string {
	return fmt.Sprintf("routing service failed (%s): %s", e.Endpoint, e.Reason)
}

// Config configures a Client. Zero values fall back to defaults.
type Config struct {
	BaseURL    string
	Profile    string
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
	Cache      DistanceCache
}

// Client calls an OSRM server. Transient failures (network errors, HTTP 5xx
// and 429) are retried up to MaxRetries with a fixed delay; a non-Ok OSRM
// response code is definitive and never retried.
type Client struct {
	baseURL    string
	profile    string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
	cache      DistanceCache
}

// NewClient creates an OSRM client. Defaults: profile "car", 5 attempts,
// 1s between attempts, 30s per-request timeout.
func NewClient(cfg Config) *Client {
	if cfg.Profile == "" {
		cfg.Profile = "car"
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		profile:    cfg.Profile,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		cache:      cfg.Cache,
	}
}

type routeResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64 `json:"distance"`
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

type tableResponse struct {
	Code      string       `json:"code"`
	Message   string       `json:"message"`
	Distances [][]*float64 `json:"distances"`
}

// Route fetches the road route between two points, returning the distance
// in kilometers and the route geometry. Identical coordinates (after ~1m
// rounding) short-circuit with a nil result and no network call.
func (c *Client) Route(ctx context.Context, start, end models.Coordinates) (*RouteResult, error) {
	if samePoint(start, end) {
		log.Printf("[OSRM] Identical coordinates, skipping route: (%.6f,%.6f)", start.Lat, start.Lng)
		return nil, nil
	}

	queryURL := fmt.Sprintf("%s/route/v1/%s/%f,%f;%f,%f?overview=full&geometries=geojson",
		c.baseURL, c.profile, start.Lng, start.Lat, end.Lng, end.Lat)

	body, err := c.getWithRetry(ctx, queryURL, "/route")
	if err != nil {
		return nil, err
	}

	var resp routeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		log.Printf("[ERROR] Failed to decode OSRM route response: err=%v", err)
		return nil, &ErrRoutingService{Endpoint: "/route", Reason: err.Error()}
	}

	if resp.Code != "Ok" {
		reason := resp.Message
		if reason == "" {
			reason = resp.Code
		}
		log.Printf("[OSRM] Route rejected: code=%s message=%s", resp.Code, resp.Message)
		return nil, &ErrRoutingService{Endpoint: "/route", Reason: fmt.Sprintf("OSRM error: %s", reason)}
	}
	if len(resp.Routes) == 0 {
		return nil, &ErrRoutingService{Endpoint: "/route", Reason: "no routes returned"}
	}

	route := resp.Routes[0]
	geometry := make([]models.Coordinates, 0, len(route.Geometry.Coordinates))
	for _, pt := range route.Geometry.Coordinates {
		if len(pt) < 2 {
			continue
		}
		geometry = append(geometry, models.Coordinates{Lat: pt[1], Lng: pt[0]})
	}

	result := &RouteResult{DistanceKM: route.Distance / 1000, Geometry: geometry}
	log.Printf("[OSRM] Route OK: (%.6f,%.6f)->(%.6f,%.6f) distance=%.2fkm",
		start.Lat, start.Lng, end.Lat, end.Lng, result.DistanceKM)
	return result, nil
}

// TableDistances fetches road distances from one source to every
// destination in a single /table request, returning kilometers per
// destination. Unroutable pairs come back as +Inf. Cached pairs are served
// from the cache and excluded from the request.
func (c *Client) TableDistances(ctx context.Context, source models.Coordinates, dests []models.Coordinates) ([]float64, error) {
	if len(dests) == 0 {
		return []float64{}, nil
	}

	distances := make([]float64, len(dests))
	var missing []int

	for i, dest := range dests {
		if entry := c.cachedDistance(ctx, source, dest); entry != nil {
			distances[i] = entry.DistanceMeters / 1000
		} else {
			missing = append(missing, i)
		}
	}

	if len(missing) == 0 {
		log.Printf("[OSRM] Table all cached: destinations=%d", len(dests))
		return distances, nil
	}

	log.Printf("[OSRM] Table request: destinations=%d cached=%d missing=%d",
		len(dests), len(dests)-len(missing), len(missing))

	coords := make([]string, 0, len(missing)+1)
	coords = append(coords, fmt.Sprintf("%f,%f", source.Lng, source.Lat))
	destIdx := make([]string, 0, len(missing))
	for i, mi := range missing {
		coords = append(coords, fmt.Sprintf("%f,%f", dests[mi].Lng, dests[mi].Lat))
		destIdx = append(destIdx, fmt.Sprintf("%d", i+1))
	}

	queryURL := fmt.Sprintf("%s/table/v1/%s/%s?sources=0&destinations=%s&annotations=distance",
		c.baseURL, c.profile, strings.Join(coords, ";"), strings.Join(destIdx, ";"))

	body, err := c.getWithRetry(ctx, queryURL, "/table")
	if err != nil {
		return nil, err
	}

	var resp tableResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		log.Printf("[ERROR] Failed to decode OSRM table response: err=%v", err)
		return nil, &ErrRoutingService{Endpoint: "/table", Reason: err.Error()}
	}

	if resp.Code != "Ok" {
		reason := resp.Message
		if reason == "" {
			reason = resp.Code
		}
		log.Printf("[OSRM] Table rejected: code=%s message=%s", resp.Code, resp.Message)
		return nil, &ErrRoutingService{Endpoint: "/table", Reason: fmt.Sprintf("OSRM error: %s", reason)}
	}
	if len(resp.Distances) == 0 || len(resp.Distances[0]) != len(missing) {
		return nil, &ErrRoutingService{Endpoint: "/table", Reason: "distance row missing or truncated"}
	}

	var entries []models.DistanceCacheEntry
	for col, mi := range missing {
		cell := resp.Distances[0][col]
		if cell == nil {
			// OSRM found no road between the pair
			distances[mi] = math.Inf(1)
			continue
		}
		distances[mi] = *cell / 1000
		entries = append(entries, models.DistanceCacheEntry{
			Origin:         source,
			Destination:    dests[mi],
			DistanceMeters: *cell,
		})
	}

	if c.cache != nil && len(entries) > 0 {
		if err := c.cache.SetBatch(ctx, entries); err != nil {
			log.Printf("[ERROR] Failed to store distances in cache: err=%v", err)
		}
	}

	return distances, nil
}

func (c *Client) cachedDistance(ctx context.Context, origin, dest models.Coordinates) *models.DistanceCacheEntry {
	if c.cache == nil {
		return nil
	}
	entry, err := c.cache.Get(ctx, origin, dest)
	if err != nil {
		log.Printf("[ERROR] Distance cache read failed: err=%v", err)
		return nil
	}
	return entry
}

// getWithRetry performs a GET with the client retry policy and returns the
// response body
func (c *Client) getWithRetry(ctx context.Context, queryURL, endpoint string) ([]byte, error) {
	var lastReason string

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
		if err != nil {
			return nil, &ErrRoutingService{Endpoint: endpoint, Reason: err.Error()}
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastReason = err.Error()
			log.Printf("[OSRM] Request failed: endpoint=%s attempt=%d/%d err=%v", endpoint, attempt, c.maxRetries, err)
			if attempt < c.maxRetries && !c.sleepBeforeRetry(ctx) {
				return nil, &ErrRoutingService{Endpoint: endpoint, Reason: ctx.Err().Error()}
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusOK {
			if readErr != nil {
				lastReason = readErr.Error()
				if attempt < c.maxRetries && !c.sleepBeforeRetry(ctx) {
					return nil, &ErrRoutingService{Endpoint: endpoint, Reason: ctx.Err().Error()}
				}
				continue
			}
			return body, nil
		}

		lastReason = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode < 500 {
			// Client errors other than rate limiting will not recover
			log.Printf("[ERROR] OSRM request rejected: endpoint=%s status=%d", endpoint, resp.StatusCode)
			return nil, &ErrRoutingService{Endpoint: endpoint, Reason: lastReason}
		}

		log.Printf("[OSRM] Transient HTTP failure: endpoint=%s status=%d attempt=%d/%d", endpoint, resp.StatusCode, attempt, c.maxRetries)
		// No point sleeping after the last attempt
		if attempt < c.maxRetries && !c.sleepBeforeRetry(ctx) {
			return nil, &ErrRoutingService{Endpoint: endpoint, Reason: ctx.Err().Error()}
		}
	}

	log.Printf("[ERROR] OSRM retries exhausted: endpoint=%s attempts=%d", endpoint, c.maxRetries)
	return nil, &ErrRoutingService{Endpoint: endpoint, Reason: fmt.Sprintf("retries exhausted: %s", lastReason)}
}

func (c *Client) sleepBeforeRetry(ctx context.Context) bool {
	select {
	case <-time.After(c.retryDelay):
		return true
	case <-ctx.Done():
		return false
	}
}

func samePoint(a, b models.Coordinates) bool {
	return models.RoundCoordinate(a.Lat) == models.RoundCoordinate(b.Lat) &&
		models.RoundCoordinate(a.Lng) == models.RoundCoordinate(b.Lng)
}
