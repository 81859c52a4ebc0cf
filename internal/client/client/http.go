package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/propkeeper/internal/client/models"
	"github.com/dmitrijs2005/propkeeper/internal/common"
	"github.com/dmitrijs2005/propkeeper/internal/logging"
	"github.com/sony/gobreaker"
)

const (
	DefaultTimeout            = 10 * time.Second
	DefaultBreakerMaxFailures = 5
	DefaultBreakerTimeout     = 30 * time.Second
)

type Options struct {
	BaseURL            string
	Timeout            time.Duration
	BreakerMaxFailures uint32
	BreakerTimeout     time.Duration
	// HTTPClient overrides the transport; its Timeout is replaced by Timeout.
	HTTPClient *http.Client
}

type HTTPClient struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	cb      *gobreaker.CircuitBreaker
	log     logging.Logger
}

func NewHTTPClient(opts Options, log logging.Logger) (*HTTPClient, error) {
	if log == nil {
		log = logging.NopLogger{}
	}
	log = log.With("module", "remote")

	u, err := url.Parse(opts.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server base url %q", opts.BaseURL)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.BreakerMaxFailures == 0 {
		opts.BreakerMaxFailures = DefaultBreakerMaxFailures
	}
	if opts.BreakerTimeout <= 0 {
		opts.BreakerTimeout = DefaultBreakerTimeout
	}

	hc := &http.Client{}
	if opts.HTTPClient != nil {
		cp := *opts.HTTPClient
		hc = &cp
	}
	hc.Timeout = opts.Timeout

	maxFailures := opts.BreakerMaxFailures
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "remote-authority",
		MaxRequests: 1,
		Timeout:     opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// Only transport failures trip the breaker; a 4xx/5xx answer proves
		// the authority is reachable.
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, ErrUnavailable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn(context.Background(), "circuit breaker state", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &HTTPClient{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		timeout: opts.Timeout,
		http:    hc,
		cb:      cb,
		log:     log,
	}, nil
}

func (c *HTTPClient) Login(ctx context.Context, identifier, password string) (*AuthResult, error) {
	var out AuthResult
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", loginRequest{Identifier: identifier, Password: password}, &out); err != nil {
		return nil, err
	}
	return checkAuthResult(&out)
}

func (c *HTTPClient) Register(ctx context.Context, in models.RegisterInput) (*AuthResult, error) {
	var out AuthResult
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", "", in, &out); err != nil {
		return nil, err
	}
	return checkAuthResult(&out)
}

func (c *HTTPClient) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", token, nil, nil)
}

func (c *HTTPClient) VerifyToken(ctx context.Context, token string) (*models.Account, bool, error) {
	var out verifyResponse
	err := c.do(ctx, http.MethodGet, "/api/auth/verify", token, nil, &out)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if !out.Valid {
		return nil, false, nil
	}
	return out.User, true, nil
}

func (c *HTTPClient) GetProfile(ctx context.Context, token string) (*models.Account, error) {
	var out userResponse
	if err := c.do(ctx, http.MethodGet, "/api/users/profile", token, nil, &out); err != nil {
		return nil, err
	}
	return checkUser(out.User)
}

func (c *HTTPClient) UpdateProfile(ctx context.Context, token string, upd models.ProfileUpdate) (*models.Account, error) {
	var out userResponse
	if err := c.do(ctx, http.MethodPut, "/api/users/profile", token, upd, &out); err != nil {
		return nil, err
	}
	return checkUser(out.User)
}

func (c *HTTPClient) DeleteProfile(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodDelete, "/api/users/profile", token, nil, nil)
}

func (c *HTTPClient) GetStats(ctx context.Context, token string) (models.Stats, error) {
	var out statsResponse
	if err := c.do(ctx, http.MethodGet, "/api/users/stats", token, nil, &out); err != nil {
		return models.Stats{}, err
	}
	return out.Stats, nil
}

func (c *HTTPClient) OAuthLogin(ctx context.Context, provider, code string) (*AuthResult, error) {
	var out AuthResult
	path := "/api/auth/oauth/" + url.PathEscape(provider)
	if err := c.do(ctx, http.MethodPost, path, "", oauthRequest{Code: code}, &out); err != nil {
		return nil, err
	}
	return checkAuthResult(&out)
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) do(ctx context.Context, method, path, token string, in, out any) error {
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, c.roundTrip(ctx, method, path, token, in, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

func (c *HTTPClient) roundTrip(ctx context.Context, method, path, token string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug(ctx, "remote call failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := mapStatus(resp); err != nil {
		return err
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return &ServerError{Status: resp.StatusCode, Message: "malformed response body"}
	}
	return nil
}

func mapStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusConflict:
		return ErrConflict
	}

	var e errorResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&e)
	msg := e.Error
	if msg == "" {
		msg = e.Message
	}
	return &ServerError{Status: resp.StatusCode, Message: msg}
}

func checkAuthResult(r *AuthResult) (*AuthResult, error) {
	if r.Token == "" || r.User == nil {
		return nil, &ServerError{Status: http.StatusOK, Message: "response is missing token or user"}
	}
	return r, nil
}

func checkUser(u *models.Account) (*models.Account, error) {
	if u == nil {
		return nil, &ServerError{Status: http.StatusOK, Message: "response is missing user"}
	}
	return u, nil
}
