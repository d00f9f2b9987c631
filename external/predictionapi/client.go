package predictionapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/prediction-league/internal/domain/user"
	"github.com/riskibarqy/prediction-league/internal/platform/logging"
	"github.com/riskibarqy/prediction-league/internal/platform/resilience"
	"github.com/riskibarqy/prediction-league/internal/usecase"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	statusSuccess = "success"

	authStatusPath  = "/auth/status"
	maxResponseSize = 6 << 20
)

var errBackendTransient = crerr.New("prediction backend transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
	// DebugRequests logs a curl preview of every outgoing request.
	DebugRequests bool
	// OnSessionExpired runs when a 401 is confirmed by the session check.
	OnSessionExpired func(ctx context.Context, principal user.Principal)
}

// Client talks to the authoritative prediction backend. Every response is a
// {status, message, data} envelope; a non-success status is a failure even
// when the HTTP status is 2xx.
type Client struct {
	httpClient       *http.Client
	baseURL          string
	maxRetries       int
	retryBackoff     time.Duration
	logger           *logging.Logger
	breaker          *resilience.CircuitBreaker
	flight           resilience.SingleFlight[response]
	debugRequests    bool
	onSessionExpired func(ctx context.Context, principal user.Principal)
}

type response struct {
	statusCode int
	body       []byte
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 10 * time.Second
	}

	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}

	logger = logger.Named("predictionapi")
	breakerCfg := cfg.CircuitBreaker
	if breakerCfg.OnStateChange == nil {
		breakerCfg.OnStateChange = func(from, to resilience.CircuitState) {
			logger.Warn("prediction backend circuit breaker changed state", "from", from, "to", to)
		}
	}

	return &Client{
		httpClient:       httpClient,
		baseURL:          strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		maxRetries:       max(cfg.MaxRetries, 0),
		retryBackoff:     backoff,
		logger:           logger,
		breaker:          resilience.NewCircuitBreakerFromConfig(breakerCfg),
		debugRequests:    cfg.DebugRequests,
		onSessionExpired: cfg.OnSessionExpired,
	}
}

// call performs one backend operation and decodes the envelope data into
// target. Only GET requests are retried and deduplicated.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, body any, target any) (string, error) {
	if err := c.breaker.Allow(); err != nil {
		c.logger.WarnContext(ctx, "prediction backend circuit breaker rejected request", "state", c.breaker.State(), "path", path)
		return "", fmt.Errorf("%w: prediction backend is temporarily unavailable", usecase.ErrDependencyUnavailable)
	}

	var payload []byte
	if body != nil {
		encoded, err := sonic.Marshal(body)
		if err != nil {
			return "", fmt.Errorf("encode request body: %w", err)
		}
		payload = encoded
	}

	fullURL := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	principal, _ := user.PrincipalFromContext(ctx)

	var (
		resp response
		err  error
	)
	if method == http.MethodGet {
		// The shared request runs detached so one caller leaving does not fail the rest.
		key := principal.AccessToken + " " + fullURL
		detached := context.WithoutCancel(ctx)
		resp, err = c.flight.DoContext(ctx, key, func() (response, error) {
			return c.send(detached, method, fullURL, principal.AccessToken, nil, c.maxRetries)
		})
		if err != nil && ctx.Err() != nil && crerr.Is(err, ctx.Err()) {
			return "", fmt.Errorf("%w: request abandoned: %w", usecase.ErrTransport, err)
		}
	} else {
		resp, err = c.send(ctx, method, fullURL, principal.AccessToken, payload, 0)
	}
	if err != nil {
		return "", err
	}

	return c.interpret(ctx, path, principal, resp, target)
}

// send executes a request and feeds the outcome to the circuit breaker once,
// however many callers share it.
func (c *Client) send(ctx context.Context, method, fullURL, token string, payload []byte, retries int) (response, error) {
	resp, err := c.executeRequest(ctx, method, fullURL, token, payload, retries)
	switch {
	case err != nil:
		if isCircuitFailure(err) {
			c.breaker.RecordFailure()
		}
	case isRetryableStatus(resp.statusCode):
		c.breaker.RecordFailure()
	default:
		c.breaker.RecordSuccess()
	}
	return resp, err
}

func (c *Client) interpret(ctx context.Context, path string, principal user.Principal, resp response, target any) (string, error) {
	var env envelope
	decodeErr := sonic.Unmarshal(resp.body, &env)
	if decodeErr != nil || env.Status == "" {
		switch {
		case resp.statusCode == http.StatusUnauthorized:
			return "", c.unauthorized(ctx, path, principal)
		case resp.statusCode == http.StatusForbidden:
			return "", fmt.Errorf("%w: access denied", usecase.ErrUnauthorized)
		case resp.statusCode == http.StatusNotFound:
			return "", fmt.Errorf("%w: %s", usecase.ErrNotFound, path)
		case isRetryableStatus(resp.statusCode):
			return "", fmt.Errorf("%w: backend status=%d body=%s", usecase.ErrDependencyUnavailable, resp.statusCode, abbreviateBody(resp.body))
		default:
			return "", fmt.Errorf("%w: unreadable backend response status=%d", usecase.ErrTransport, resp.statusCode)
		}
	}

	message := strings.TrimSpace(env.Message)
	switch resp.statusCode {
	case http.StatusUnauthorized:
		return message, c.unauthorized(ctx, path, principal)
	case http.StatusForbidden:
		return message, fmt.Errorf("%w: %s", usecase.ErrUnauthorized, fallbackMessage(message, "access denied"))
	case http.StatusNotFound:
		return message, fmt.Errorf("%w: %s", usecase.ErrNotFound, fallbackMessage(message, path))
	case http.StatusUnprocessableEntity:
		return message, fmt.Errorf("%w: %s", usecase.ErrInvalidInput, fallbackMessage(message, "validation failed"))
	}

	if env.Status != statusSuccess {
		return message, &usecase.ApplicationError{StatusCode: resp.statusCode, Message: fallbackMessage(message, "request failed")}
	}

	if target != nil {
		raw := []byte(env.Data)
		if len(raw) == 0 || string(raw) == "null" {
			raw = resp.body
		}
		if err := sonic.Unmarshal(raw, target); err != nil {
			return message, fmt.Errorf("%w: decode backend payload: %v", usecase.ErrTransport, err)
		}
	}
	return message, nil
}

// unauthorized re-checks the session before deciding between an expired
// session and a plain permission failure.
func (c *Client) unauthorized(ctx context.Context, path string, principal user.Principal) error {
	if path == authStatusPath {
		return c.expire(ctx, principal)
	}

	status, err := c.sessionStatus(ctx, principal.AccessToken)
	if err != nil {
		c.logger.WarnContext(ctx, "session re-check failed", "error", err)
		return fmt.Errorf("%w: session check failed", usecase.ErrUnauthorized)
	}
	if status.Authenticated {
		return fmt.Errorf("%w: access denied", usecase.ErrUnauthorized)
	}
	return c.expire(ctx, principal)
}

func (c *Client) expire(ctx context.Context, principal user.Principal) error {
	if c.onSessionExpired != nil {
		c.onSessionExpired(ctx, principal)
	}
	return fmt.Errorf("%w: %w", usecase.ErrSessionExpired, usecase.ErrUnauthorized)
}

func (c *Client) sessionStatus(ctx context.Context, token string) (authStatusDTO, error) {
	resp, err := c.executeRequest(ctx, http.MethodGet, c.baseURL+authStatusPath, token, nil, 0)
	if err != nil {
		return authStatusDTO{}, err
	}
	if resp.statusCode == http.StatusUnauthorized {
		return authStatusDTO{}, nil
	}

	var env struct {
		Status string        `json:"status"`
		Data   authStatusDTO `json:"data"`
	}
	if err := sonic.Unmarshal(resp.body, &env); err != nil {
		return authStatusDTO{}, fmt.Errorf("decode session status: %w", err)
	}
	return env.Data, nil
}

func (c *Client) executeRequest(ctx context.Context, method, fullURL, token string, payload []byte, retries int) (response, error) {
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		var reader io.Reader
		if payload != nil {
			reader = strings.NewReader(string(payload))
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
		if err != nil {
			return response{}, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		if c.debugRequests {
			c.logger.DebugContext(ctx, "prediction backend request", "curl", buildCurlPreview(method, fullURL, token != "", payload))
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: %w", usecase.ErrTransport, crerr.Mark(crerr.Wrap(err, "send request"), errBackendTransient))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: %w", usecase.ErrTransport, crerr.Mark(crerr.Wrap(readErr, "read response body"), errBackendTransient))
			case isRetryableStatus(resp.StatusCode) && attempt < retries:
				lastErr = fmt.Errorf("backend status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			default:
				return response{statusCode: resp.StatusCode, body: raw}, nil
			}
		}

		if attempt == retries {
			break
		}
		backoff := time.Duration(attempt+1) * c.retryBackoff
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return response{}, fmt.Errorf("%w: %w", usecase.ErrTransport, ctx.Err())
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("%w: backend request failed", usecase.ErrTransport)
	}
	c.logger.WarnContext(ctx, "prediction backend request failed", "method", method, "url", fullURL, "error", lastErr)
	return response{}, lastErr
}

func isCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	return crerr.Is(err, errBackendTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func fallbackMessage(message, fallback string) string {
	if message == "" {
		return fallback
	}
	return message
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
