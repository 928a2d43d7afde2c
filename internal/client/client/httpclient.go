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

	"github.com/dmitrijs2005/authapi/internal/common"
	"github.com/dmitrijs2005/authapi/internal/server/models"
)

type HTTPClient struct {
	baseURL string
	http    *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("server url %q is not absolute", baseURL)
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}, nil
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", "", nil, nil)
}

func (c *HTTPClient) LoginAPIKey(ctx context.Context, apiKey string) (*TokenPair, error) {
	return c.session(ctx, "/auth/api-key", map[string]string{"apiKey": apiKey})
}

func (c *HTTPClient) LoginPassword(ctx context.Context, name, password string) (*TokenPair, error) {
	return c.session(ctx, "/auth/password", map[string]string{"name": name, "password": password})
}

func (c *HTTPClient) Renew(ctx context.Context, renewalToken string) (*TokenPair, error) {
	return c.session(ctx, "/auth/renew-token", map[string]string{"renewalToken": renewalToken})
}

func (c *HTTPClient) session(ctx context.Context, path string, body any) (*TokenPair, error) {
	var pair TokenPair
	if err := c.do(ctx, http.MethodPost, path, "", body, &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

func (c *HTTPClient) ListAccounts(ctx context.Context, jwt string) ([]*models.Account, error) {
	var items []*models.Account
	if err := c.do(ctx, http.MethodGet, "/accounts", jwt, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *HTTPClient) GetAccount(ctx context.Context, jwt, id string) (*models.Account, error) {
	var a models.Account
	if err := c.do(ctx, http.MethodGet, "/accounts/"+url.PathEscape(id), jwt, nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *HTTPClient) CreateAccount(ctx context.Context, jwt, name, password string, fields models.Fields) (*models.Account, error) {
	body := struct {
		Name     string        `json:"name"`
		Password string        `json:"password,omitempty"`
		Fields   models.Fields `json:"fields"`
	}{Name: name, Password: password, Fields: fields}

	var a models.Account
	if err := c.do(ctx, http.MethodPost, "/accounts", jwt, body, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *HTTPClient) ReplaceFields(ctx context.Context, jwt, id string, fields models.Fields) (*models.Account, error) {
	var a models.Account
	if err := c.do(ctx, http.MethodPut, "/accounts/"+url.PathEscape(id)+"/fields", jwt, fields, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *HTTPClient) DeleteAccount(ctx context.Context, jwt, id string) error {
	return c.do(ctx, http.MethodDelete, "/accounts/"+url.PathEscape(id), jwt, nil, nil)
}

// do sends one request. A non-2xx answer becomes an *APIError; a transport
// failure wraps ErrUnavailable.
func (c *HTTPClient) do(ctx context.Context, method, path, jwt string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if jwt != "" {
		req.Header.Set(common.AuthorizationHeaderName, "Bearer "+jwt)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	var entries []struct {
		Error string `json:"error"`
		Field string `json:"field"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &APIError{Status: resp.StatusCode}
	if err := json.Unmarshal(raw, &entries); err == nil && len(entries) > 0 {
		apiErr.Message = entries[0].Error
		apiErr.Field = entries[0].Field
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}

	switch {
	case resp.StatusCode == http.StatusForbidden && apiErr.Message == "token expired":
		apiErr.kind = ErrTokenExpired
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized:
		apiErr.kind = ErrForbidden
	case resp.StatusCode == http.StatusNotFound:
		apiErr.kind = ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		apiErr.kind = ErrConflict
	case resp.StatusCode >= 500:
		apiErr.kind = ErrServer
	default:
		apiErr.kind = ErrBadRequest
	}
	return apiErr
}

// IsAPIError reports whether err is a server-side rejection rather than a
// transport or local failure.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
