// Package plantdb is a read-only client for the plant inventory service.
package plantdb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xaenox/cladari/internal/metrics"
	"github.com/xaenox/cladari/internal/models"
)

// ErrUnexpectedStatus is returned for any non-200 inventory response.
var ErrUnexpectedStatus = errors.New("plantdb: unexpected status")

var plantIDPattern = regexp.MustCompile(`ANT-\d{4}-\d{4}`)

// FindPlantID returns the first plant identifier in message, or "".
func FindPlantID(message string) string {
	return plantIDPattern.FindString(message)
}

// Cache holds the plant listing between calls.
type Cache interface {
	GetPlants(ctx context.Context) ([]models.Plant, bool)
	SetPlants(ctx context.Context, plants []models.Plant)
}

type Option func(*Client)

// WithCache enables caching of the /plants listing.
func WithCache(cache Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// Client talks to one or more inventory base URLs, tried in order.
type Client struct {
	baseURLs []string
	http     *http.Client
	cache    Cache
	logger   *zap.Logger
}

func NewClient(baseURLs []string, timeout time.Duration, logger *zap.Logger, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	urls := make([]string, 0, len(baseURLs))
	for _, u := range baseURLs {
		if u = strings.TrimRight(u, "/"); u != "" {
			urls = append(urls, u)
		}
	}
	c := &Client{
		baseURLs: urls,
		http:     &http.Client{Timeout: timeout},
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListPlants returns the whole collection from the first reachable base URL.
// Every record is counted, even one whose fields do not all decode.
func (c *Client) ListPlants(ctx context.Context) ([]models.Plant, error) {
	if c.cache != nil {
		if plants, ok := c.cache.GetPlants(ctx); ok {
			metrics.PlantDBRequests.WithLabelValues("/plants", "cached").Inc()
			return plants, nil
		}
	}

	var records []json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/plants", "/plants", nil, &records); err != nil {
		return nil, err
	}
	plants := make([]models.Plant, len(records))
	for i, raw := range records {
		plants[i] = c.decodePlant(raw)
	}
	if c.cache != nil {
		c.cache.SetPlants(ctx, plants)
	}
	return plants, nil
}

// GetPlant fetches a single plant by its identifier.
func (c *Client) GetPlant(ctx context.Context, id string) (*models.Plant, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/plants/"+id, "/plants/{id}", nil, &raw); err != nil {
		return nil, err
	}
	plant := c.decodePlant(raw)
	return &plant, nil
}

// decodePlant keeps every field that decodes. A field of the wrong type is
// left zero rather than failing the whole record.
func (c *Client) decodePlant(raw json.RawMessage) models.Plant {
	var plant models.Plant
	if err := json.Unmarshal(raw, &plant); err != nil {
		c.logger.Debug("Tolerating malformed plant record",
			zap.Error(err),
			zap.String("plant_id", plant.PlantID))
	}
	return plant
}

// PredictCare asks the inventory's forecast model when each plant next needs careType.
func (c *Client) PredictCare(ctx context.Context, careType string) ([]models.CarePrediction, error) {
	body := map[string]string{"careType": careType}
	var resp struct {
		Predictions []models.CarePrediction `json:"predictions"`
	}
	if err := c.do(ctx, http.MethodPost, "/ml/predict-care", "/ml/predict-care", body, &resp); err != nil {
		return nil, err
	}
	return resp.Predictions, nil
}

// Context builds the best-effort prompt context for message. Every failure
// is logged and yields "".
func (c *Client) Context(ctx context.Context, message string) string {
	plants, err := c.ListPlants(ctx)
	if err != nil {
		c.logger.Error("PlantDB context error", zap.Error(err))
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Collection: %d plants\n", len(plants))

	if id := FindPlantID(message); id != "" {
		plant, err := c.GetPlant(ctx, id)
		if err != nil {
			c.logger.Warn("PlantDB detail lookup failed",
				zap.Error(err),
				zap.String("plant_id", id))
		} else {
			fmt.Fprintf(&sb, "\n%s: %s", id, orUnknown(plant.Name))
			fmt.Fprintf(&sb, "\nLocation: %s", orUnknown(plant.LocationName()))
		}
	}

	return sb.String()
}

func (c *Client) do(ctx context.Context, method, path, label string, body, out any) error {
	if len(c.baseURLs) == 0 {
		return errors.New("plantdb: no base URL configured")
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
	}

	var errs []error
	for _, base := range c.baseURLs {
		err := c.doOnce(ctx, method, base+path, payload, out)
		if err == nil {
			metrics.PlantDBRequests.WithLabelValues(label, "success").Inc()
			return nil
		}
		metrics.PlantDBRequests.WithLabelValues(label, "error").Inc()
		c.logger.Debug("PlantDB request failed",
			zap.Error(err),
			zap.String("url", base+path))
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *Client) doOnce(ctx context.Context, method, url string, payload []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w %d from %s", ErrUnexpectedStatus, resp.StatusCode, url)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response from %s: %w", url, err)
	}
	return nil
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
