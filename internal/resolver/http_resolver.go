package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// ResolveError represents a non-success answer from the resolve endpoint.
type ResolveError struct {
	StatusCode int
	Body       string
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("media resolve failed: HTTP %d: %s", e.StatusCode, e.Body)
}

// IsRetryable returns true for server errors (5xx).
// Client errors (4xx) are considered permanent.
func (e *ResolveError) IsRetryable() bool {
	return e.StatusCode >= 500
}

// HTTPResolver asks the studio backend's media endpoint for the URL behind a
// media id.
type HTTPResolver struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewHTTPResolver(baseURL, token string, logger *slog.Logger) *HTTPResolver {
	return &HTTPResolver{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

type resolveResponse struct {
	MediaID string `json:"media_id"`
	URL     string `json:"url"`
}

func (r *HTTPResolver) Resolve(ctx context.Context, mediaID string) (string, error) {
	if mediaID == "" {
		return "", ErrNotFound
	}

	endpoint := fmt.Sprintf("%s/api/media/%s/resolve", r.baseURL, url.PathEscape(mediaID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &ResolveError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var result resolveResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("decode resolve response: %w", err)
	}
	if result.URL == "" {
		return "", ErrNotFound
	}

	if r.logger != nil {
		r.logger.Debug("media resolved", "media_id", mediaID, "url", result.URL)
	}
	return result.URL, nil
}
