// Package client talks to the orgdash REST backend. Every response is a
// {success, data, message} envelope; failures come back as *apierror.Error.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"orgdash/apierror"
)

const (
	DefaultTimeout  = 30 * time.Second
	RequestIDHeader = "X-Request-Id"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
}

type Client struct {
	baseURL    *url.URL
	token      string
	httpClient *http.Client
	log        *logrus.Entry
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

func WithLogger(l *logrus.Entry) Option {
	return func(c *Client) { c.log = l }
}

func New(baseURL, token string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("invalid base url: %q", baseURL)
	}
	c := &Client{
		baseURL:    u,
		token:      strings.TrimSpace(token),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		log:        logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) SetToken(token string) {
	c.token = strings.TrimSpace(token)
}

func (c *Client) Token() string {
	return c.token
}

// do sends one request. Authenticated calls without a token fail locally
// with an authorization error.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, reqBody, out any) error {
	return c.send(ctx, true, method, path, query, reqBody, out)
}

func (c *Client) send(ctx context.Context, auth bool, method, path string, query url.Values, reqBody, out any) error {
	if auth && c.token == "" {
		return &apierror.Error{Kind: apierror.Authorization, Message: "missing bearer token", Status: http.StatusUnauthorized}
	}

	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return apierror.NewValidation(errors.Wrap(err, "json marshal request").Error())
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return apierror.NewTransport(errors.Wrap(err, "http request"))
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	log := c.log.WithFields(logrus.Fields{"method": method, "path": path, "request_id": requestID})
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Warn("request failed")
		return apierror.NewTransport(errors.Wrap(err, "http do"))
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return apierror.NewTransport(errors.Wrap(err, "http read"))
	}

	var env envelope
	decodeErr := json.Unmarshal(respBody, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := env.Message
		if decodeErr != nil {
			msg = strings.TrimSpace(string(respBody))
		}
		log.WithField("status", resp.StatusCode).Debug("request rejected")
		return apierror.FromStatus(resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return apierror.NewTransport(errors.Wrap(decodeErr, "json unmarshal envelope"))
	}
	if !env.Success {
		return &apierror.Error{Kind: kindFromCode(env.Code), Message: env.Message, Status: resp.StatusCode}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return apierror.NewTransport(errors.Wrap(err, "json unmarshal data"))
	}
	return nil
}

func kindFromCode(code string) apierror.Kind {
	switch apierror.Kind(code) {
	case apierror.Authorization, "FORBIDDEN":
		return apierror.Authorization
	case apierror.NotFound:
		return apierror.NotFound
	case apierror.Transport:
		return apierror.Transport
	}
	return apierror.Validation
}
