package beatsaver

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"bsrbot/internal/logging"
	"bsrbot/internal/schema"
	"bsrbot/internal/services"
)

//go:embed map_schema.json
var mapSchema []byte

var mapValidator = schema.Lazy("beatsaver-map", mapSchema)

const maxResponseBytes = 4 << 20

// MapInfo is the download metadata for a single map.
type MapInfo struct {
	URL  string
	Name string
	Hash string
}

// Resolver resolves a map identifier to its download metadata.
type Resolver interface {
	Resolve(ctx context.Context, id string) (MapInfo, error)
}

type mapResponse struct {
	Versions []struct {
		DownloadURL string `json:"downloadURL"`
		Hash        string `json:"hash"`
	} `json:"versions"`
	Metadata struct {
		SongName string `json:"songName"`
	} `json:"metadata"`
}

// Client talks to the BeatSaver REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ Resolver = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "beatsaver")
	}
}

// New creates a catalog client. A timeout of zero leaves requests bounded only
// by the caller's context.
func New(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("beatsaver base url required")
	}
	client := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.NewComponentLogger(nil, "beatsaver"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Resolve looks up a map by its short identifier.
func (c *Client) Resolve(ctx context.Context, id string) (MapInfo, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return MapInfo{}, services.Wrap(services.ErrValidation, "catalog", "lookup", "map id must not be empty", nil)
	}
	logger := logging.WithContext(ctx, c.logger)
	logger.Info("resolving map", logging.String("map_id", id))

	endpoint := c.baseURL + "/maps/id/" + url.PathEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return MapInfo{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return MapInfo{}, services.Wrap(services.ErrTransient, "catalog", "lookup", fmt.Sprintf("request failed (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return MapInfo{}, services.Wrap(services.ErrNotFound, "catalog", "lookup", fmt.Sprintf("map %s not found", id), nil)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return MapInfo{}, services.Wrap(services.ErrTransient, "catalog", "lookup", fmt.Sprintf("beatsaver returned %d (latency=%v)", resp.StatusCode, latency), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return MapInfo{}, services.Wrap(services.ErrTransient, "catalog", "read", "read response body", err)
	}
	info, err := decodeMapInfo(body)
	if err != nil {
		return MapInfo{}, err
	}
	logger.Debug("map resolved",
		logging.String("map_id", id),
		logging.String("song_name", info.Name),
		logging.String("hash", info.Hash),
		logging.Duration("latency", latency),
	)
	return info, nil
}

func decodeMapInfo(body []byte) (MapInfo, error) {
	if err := mapValidator().ValidateBytes(body); err != nil {
		return MapInfo{}, services.Wrap(services.ErrValidation, "catalog", "decode", "unexpected beatsaver response", err)
	}
	var payload mapResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return MapInfo{}, services.Wrap(services.ErrValidation, "catalog", "decode", "decode beatsaver response", err)
	}
	version := payload.Versions[0]
	parsed, err := url.Parse(version.DownloadURL)
	if err != nil || !parsed.IsAbs() {
		return MapInfo{}, services.Wrap(services.ErrValidation, "catalog", "decode", fmt.Sprintf("download url %q is not absolute", version.DownloadURL), err)
	}
	return MapInfo{
		URL:  version.DownloadURL,
		Name: norm.NFC.String(payload.Metadata.SongName),
		Hash: version.Hash,
	}, nil
}
