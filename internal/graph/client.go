package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	config "github.com/maheshrc27/socialflow/configs"
	"github.com/maheshrc27/socialflow/internal/transfer"
	"golang.org/x/time/rate"
)

// Client talks to the Graph API. Requests are authenticated with an access_token query
// parameter, except binary upload phases which use an OAuth header.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	uploadBaseURL string
	version       string
	limiter       *rate.Limiter
}

func NewClient(cfg config.Graph, httpClient *http.Client) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Minute
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	burst := 1
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
		burst = int(cfg.RatePerSecond)
		if burst < 1 {
			burst = 1
		}
	}

	return &Client{
		httpClient:    httpClient,
		baseURL:       strings.TrimRight(cfg.BaseURL, "/") + "/" + cfg.Version,
		uploadBaseURL: strings.TrimRight(cfg.UploadBaseURL, "/"),
		version:       cfg.Version,
		limiter:       rate.NewLimiter(limit, burst),
	}
}

func (c *Client) Get(ctx context.Context, path, accessToken string, params url.Values, out any) error {
	u, err := c.buildURL(path, accessToken, params)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	slog.Debug("graph request", "method", http.MethodGet, "path", path)
	return c.do(req, out)
}

// Post sends form as an urlencoded body.
func (c *Client) Post(ctx context.Context, path, accessToken string, form url.Values, out any) error {
	u, err := c.buildURL(path, accessToken, nil)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	slog.Debug("graph request", "method", http.MethodPost, "path", path)
	return c.do(req, out)
}

// Upload posts to a resumable upload session. body may be nil when headers carry a
// file_url for the platform to fetch.
func (c *Client) Upload(ctx context.Context, uploadURL, accessToken string, headers map[string]string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "OAuth "+accessToken)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	slog.Debug("graph upload", "url", uploadURL)
	return c.do(req, out)
}

// UploadURL is the resumable upload endpoint for a video session, used when the start
// phase does not return one.
func (c *Client) UploadURL(videoID string) string {
	return fmt.Sprintf("%s/video-upload/%s/%s", c.uploadBaseURL, c.version, videoID)
}

func (c *Client) buildURL(path, accessToken string, params url.Values) (string, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return "", err
	}

	q := u.Query()
	if accessToken != "" {
		q.Set("access_token", accessToken)
	}
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) do(req *http.Request, out any) error {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("graph %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("graph %s %s: read body: %w", req.Method, req.URL.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, body)
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("graph %s %s: decode response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

func decodeError(status int, body []byte) error {
	apiErr := &APIError{Status: status}

	var payload transfer.GraphErrorResponse
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		apiErr.Code = payload.Error.Code
		apiErr.Subcode = payload.Error.ErrorSubcode
		apiErr.Type = payload.Error.Type
		apiErr.Message = payload.Error.Message
		apiErr.FBTraceID = payload.Error.FbtraceID
		return apiErr
	}

	apiErr.Message = http.StatusText(status)
	if apiErr.Message == "" {
		apiErr.Message = "unknown facebook api error"
	}
	return apiErr
}

// Me returns the identity behind accessToken. It doubles as a token liveness check.
func (c *Client) Me(ctx context.Context, accessToken string) (*transfer.GraphMeResponse, error) {
	var me transfer.GraphMeResponse
	if err := c.Get(ctx, "/me", accessToken, url.Values{"fields": {"id,name"}}, &me); err != nil {
		return nil, err
	}
	return &me, nil
}
