// Package apiclient implements the typed client of the remote user API.
// Every call goes through a single resty client configured once at
// construction: base URL, timeout and JSON headers cannot change afterwards.
// No call is retried.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/userfront/internal/logger"
	"github.com/patric-chuzhbe/userfront/internal/models"
	"github.com/patric-chuzhbe/userfront/internal/user"
)

const (
	// UsersPath is the single upstream resource all four operations use.
	UsersPath = "/api/user"

	DefaultTimeout = 10 * time.Second

	RequestIDHeader = "X-Request-ID"
)

const (
	opListUsers  = "ListUsers"
	opCreateUser = "CreateUser"
	opUpdateUser = "UpdateUser"
	opDeleteUser = "DeleteUser"
)

// Client talks to the remote user API.
type Client struct {
	http    *resty.Client
	baseURL string
	log     *zap.SugaredLogger
}

type Option func(*options)

type options struct {
	timeout   time.Duration
	transport http.RoundTripper
	log       *zap.SugaredLogger
}

// WithTimeout overrides the per-call timeout. Non-positive values are ignored.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithTransport replaces the underlying round tripper.
func WithTransport(transport http.RoundTripper) Option {
	return func(o *options) {
		o.transport = transport
	}
}

// WithLogger sets the logger used for request tracing.
// By default the package-level logger.Log is used.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(o *options) {
		o.log = log
	}
}

// New builds a Client for the API located at baseURL.
func New(baseURL string, optionsProto ...Option) (*Client, error) {
	opts := &options{
		timeout: DefaultTimeout,
		log:     logger.Log,
	}
	for _, protoOption := range optionsProto {
		protoOption(opts)
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("in internal/apiclient/apiclient.go/New(): error while `url.Parse()` calling: %w", err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("in internal/apiclient/apiclient.go/New(): the base URL %q is not an absolute http(s) URL", baseURL)
	}
	baseURL = strings.TrimRight(baseURL, "/")

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(opts.timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetLogger(opts.log)
	if opts.transport != nil {
		httpClient.SetTransport(opts.transport)
	}

	c := &Client{
		http:    httpClient,
		baseURL: baseURL,
		log:     opts.log,
	}
	httpClient.OnBeforeRequest(c.stampRequestID)
	httpClient.OnAfterResponse(c.traceResponse)
	httpClient.OnError(c.traceError)

	return c, nil
}

// BaseURL returns the normalized base URL the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListUsers returns the users known to the server. An envelope without data
// (absent or null) yields an empty slice rather than an error.
func (c *Client) ListUsers(ctx context.Context) ([]user.User, error) {
	resp, err := c.send(ctx, opListUsers, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}

	users := []user.User{}
	found, err := decodeData(opListUsers, resp.Body(), &users, true)
	if err != nil {
		return nil, err
	}
	if !found || users == nil {
		return []user.User{}, nil
	}

	return users, nil
}

// CreateUser asks the server to create a user and returns the stored record.
func (c *Client) CreateUser(ctx context.Context, payload user.Payload) (user.User, error) {
	resp, err := c.send(ctx, opCreateUser, http.MethodPost, payload)
	if err != nil {
		return user.User{}, err
	}

	var created user.User
	if _, err := decodeData(opCreateUser, resp.Body(), &created, false); err != nil {
		return user.User{}, err
	}

	return created, nil
}

// UpdateUser sends {id, ...patch}. Merging with the previous state is up to
// the server.
func (c *Client) UpdateUser(ctx context.Context, id int, patch user.Patch) (user.User, error) {
	resp, err := c.send(ctx, opUpdateUser, http.MethodPut, models.UpdateUserRequest{ID: id, Patch: patch})
	if err != nil {
		return user.User{}, err
	}

	var updated user.User
	if _, err := decodeData(opUpdateUser, resp.Body(), &updated, false); err != nil {
		return user.User{}, err
	}

	return updated, nil
}

// DeleteUser removes the user with the given id. Any 2xx is a success and
// the response body is ignored.
func (c *Client) DeleteUser(ctx context.Context, id int) error {
	_, err := c.send(ctx, opDeleteUser, http.MethodDelete, models.DeleteUserRequest{ID: id})
	return err
}

func (c *Client) send(ctx context.Context, op, method string, body any) (*resty.Response, error) {
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, UsersPath)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	if !resp.IsSuccess() {
		return nil, &HTTPError{
			Op:     op,
			Status: resp.StatusCode(),
			Body:   resp.Body(),
		}
	}

	return resp, nil
}

// decodeData unwraps the envelope into target. found is false when the
// envelope has no data; that is an error unless lenient is set.
func decodeData(op string, body []byte, target any, lenient bool) (found bool, err error) {
	if lenient && len(bytes.TrimSpace(body)) == 0 {
		return false, nil
	}

	var envelope models.RawEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return false, &DecodeError{Op: op, Err: err}
	}

	data := bytes.TrimSpace(envelope.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		if lenient {
			return false, nil
		}
		return false, &DecodeError{Op: op, Err: ErrEmptyData}
	}

	if err := json.Unmarshal(data, target); err != nil {
		return false, &DecodeError{Op: op, Err: err}
	}

	return true, nil
}

func (c *Client) stampRequestID(_ *resty.Client, req *resty.Request) error {
	if req.Header.Get(RequestIDHeader) == "" {
		req.SetHeader(RequestIDHeader, uuid.NewString())
	}
	return nil
}

func (c *Client) traceResponse(_ *resty.Client, resp *resty.Response) error {
	req := resp.Request
	if resp.IsSuccess() {
		c.log.Debugw(
			"upstream request",
			"method", req.Method,
			"url", req.URL,
			"status", resp.StatusCode(),
			"duration", resp.Time(),
			"request_id", req.Header.Get(RequestIDHeader),
		)
		return nil
	}

	c.log.Errorw(
		"upstream request failed",
		"method", req.Method,
		"url", req.URL,
		"status", resp.StatusCode(),
		"body", string(resp.Body()),
		"request_id", req.Header.Get(RequestIDHeader),
	)
	return nil
}

func (c *Client) traceError(req *resty.Request, err error) {
	c.log.Errorw(
		"upstream request error",
		"method", req.Method,
		"url", req.URL,
		"request_id", req.Header.Get(RequestIDHeader),
		zap.Error(err),
	)
}
