// Package apiclient talks to the ticketing backend's JSON API.
package apiclient

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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/phillip-england/cineadmin/internal/records"
)

const tracerName = "github.com/phillip-england/cineadmin/internal/apiclient"

// ErrUnavailable wraps transport failures: the API could not be reached or
// its response could not be read.
var ErrUnavailable = errors.New("api unavailable")

// Error is a non-2xx response from the API.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api returned status %d", e.Status)
	}
	return fmt.Sprintf("api returned status %d: %s", e.Status, e.Message)
}

// UserMessage is the text shown to an admin for err. Server-reported
// messages are shown as-is; everything else falls back.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) && strings.TrimSpace(apiErr.Message) != "" {
		return apiErr.Message
	}
	return fallback
}

type Paths struct {
	Users        string
	CountBooking string
	Movies       string
}

func DefaultPaths() Paths {
	return Paths{
		Users:        "/api/users",
		CountBooking: "/api/procedure/count-booking",
		Movies:       "/api/movies",
	}
}

type Client struct {
	baseURL    string
	paths      Paths
	httpClient *http.Client
	tracer     trace.Tracer
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithPaths(p Paths) Option {
	return func(c *Client) {
		defaults := DefaultPaths()
		if p.Users == "" {
			p.Users = defaults.Users
		}
		if p.CountBooking == "" {
			p.CountBooking = defaults.CountBooking
		}
		if p.Movies == "" {
			p.Movies = defaults.Movies
		}
		c.paths = p
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		paths:      DefaultPaths(),
		httpClient: &http.Client{Timeout: 8 * time.Second},
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CustomerFilter narrows the count-booking query. MaxBookings is the raw
// form input; a blank value means no upper bound.
type CustomerFilter struct {
	Keyword     string
	MaxBookings string
}

func (f CustomerFilter) Query() url.Values {
	q := url.Values{}
	q.Set("q", f.Keyword)
	if max := strings.TrimSpace(f.MaxBookings); max != "" {
		q.Set("max", max)
	}
	return q
}

type messageResponse struct {
	Message string `json:"message"`
}

type customersResponse struct {
	Data []records.Customer `json:"data"`
}

type moviesResponse struct {
	Data []records.Movie `json:"data"`
}

type revenueDetailResponse struct {
	Detail string `json:"detail"`
}

func (c *Client) ListUsers(ctx context.Context) ([]records.User, error) {
	var users []records.User
	if err := c.do(ctx, "list users", http.MethodGet, c.paths.Users, nil, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) SearchUsers(ctx context.Context, query string) ([]records.User, error) {
	q := url.Values{}
	q.Set("query", query)
	var users []records.User
	if err := c.do(ctx, "search users", http.MethodGet, c.paths.Users+"/search", q, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) FilterCustomers(ctx context.Context, filter CustomerFilter) ([]records.Customer, error) {
	var payload customersResponse
	if err := c.do(ctx, "filter customers", http.MethodGet, c.paths.CountBooking, filter.Query(), nil, &payload); err != nil {
		return nil, err
	}
	return payload.Data, nil
}

func (c *Client) CreateUser(ctx context.Context, user records.User) (string, error) {
	var payload messageResponse
	if err := c.do(ctx, "create user", http.MethodPost, c.paths.Users, nil, user, &payload); err != nil {
		return "", err
	}
	return payload.Message, nil
}

func (c *Client) UpdateUser(ctx context.Context, id records.ID, update records.UserUpdate) (string, error) {
	var payload messageResponse
	path := c.paths.Users + "/" + url.PathEscape(id.String())
	if err := c.do(ctx, "update user", http.MethodPut, path, nil, update, &payload); err != nil {
		return "", err
	}
	return payload.Message, nil
}

func (c *Client) DeleteUser(ctx context.Context, id records.ID) (string, error) {
	var payload messageResponse
	path := c.paths.Users + "/" + url.PathEscape(id.String())
	if err := c.do(ctx, "delete user", http.MethodDelete, path, nil, nil, &payload); err != nil {
		return "", err
	}
	return payload.Message, nil
}

func (c *Client) ListMovies(ctx context.Context) ([]records.Movie, error) {
	var payload moviesResponse
	if err := c.do(ctx, "list movies", http.MethodGet, c.paths.Movies, nil, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Data, nil
}

func (c *Client) MovieRevenueDetail(ctx context.Context, id records.ID) (string, error) {
	var payload revenueDetailResponse
	path := c.paths.Movies + "/" + url.PathEscape(id.String()) + "/revenue-detail"
	if err := c.do(ctx, "movie revenue detail", http.MethodGet, path, nil, nil, &payload); err != nil {
		return "", err
	}
	return payload.Detail, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, "apiclient."+op, trace.WithSpanKind(trace.SpanKindClient))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	span.SetAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.full", target),
	)

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op, err)
		}
		reader = bytes.NewReader(encoded)
	}

	apiReq, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	apiReq.Header.Set("Accept", "application/json")
	if body != nil {
		apiReq.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(apiReq.Header))

	apiResp, err := c.httpClient.Do(apiReq)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
	defer apiResp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", apiResp.StatusCode))

	respBody, err := io.ReadAll(apiResp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w: %w", op, ErrUnavailable, err)
	}

	if apiResp.StatusCode < 200 || apiResp.StatusCode > 299 {
		var payload messageResponse
		_ = json.Unmarshal(respBody, &payload)
		return &Error{Status: apiResp.StatusCode, Message: payload.Message}
	}
	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
