package game

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const randomOrgEndpoint = "https://api.random.org/json-rpc/4/invoke"

// RandomOrgSource draws true random numbers from RANDOM.ORG and falls back to
// a local source when no key is set or the API is unavailable.
type RandomOrgSource struct {
	apiKey   string
	endpoint string
	fallback Source
	logger   *slog.Logger
	client   *http.Client
}

// NewRandomOrgSource creates a RANDOM.ORG source backed by CryptoSource.
func NewRandomOrgSource(apiKey string, logger *slog.Logger) *RandomOrgSource {
	return &RandomOrgSource{
		apiKey:   apiKey,
		endpoint: randomOrgEndpoint,
		fallback: CryptoSource{},
		logger:   logger,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

func (s *RandomOrgSource) Intn(ctx context.Context, n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("invalid range size %d", n)
	}
	if s.apiKey == "" {
		return s.fallback.Intn(ctx, n)
	}

	v, err := s.fetch(ctx, n)
	if err != nil {
		s.logger.Warn("random.org unavailable, falling back to CSPRNG", "error", err)
		return s.fallback.Intn(ctx, n)
	}
	return v, nil
}

func (s *RandomOrgSource) fetch(ctx context.Context, n int) (int, error) {
	reqBody := map[string]interface{}{
		"jsonrpc": "2.0",
		"method":  "generateIntegers",
		"params": map[string]interface{}{
			"apiKey":      s.apiKey,
			"n":           1,
			"min":         0,
			"max":         n - 1,
			"replacement": true,
		},
		"id": 1,
	}

	body, _ := json.Marshal(reqBody)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("api call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("api returned %d", resp.StatusCode)
	}

	var response struct {
		Result struct {
			Random struct {
				Data []int `json:"data"`
			} `json:"random"`
		} `json:"result"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	if response.Error != nil {
		return 0, fmt.Errorf("api error: %s", response.Error.Message)
	}
	data := response.Result.Random.Data
	if len(data) != 1 || data[0] < 0 || data[0] >= n {
		return 0, fmt.Errorf("api returned out-of-range data %v", data)
	}
	return data[0], nil
}
