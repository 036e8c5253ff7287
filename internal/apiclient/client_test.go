package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/phillip-england/cineadmin/internal/records"
)

func TestCustomerFilterQuery(t *testing.T) {
	q := CustomerFilter{Keyword: "B", MaxBookings: "5"}.Query()
	assert.Equal(t, "B", q.Get("q"))
	assert.Equal(t, "5", q.Get("max"))

	q = CustomerFilter{Keyword: "", MaxBookings: "  "}.Query()
	assert.True(t, q.Has("q"))
	assert.Equal(t, "", q.Get("q"))
	assert.False(t, q.Has("max"))
}

func TestFilterCustomersSendsQueryAndUnwrapsData(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/procedure/count-booking", r.URL.Path)
		gotQuery = r.URL.RawQuery
		_, _ = io.WriteString(w, `{"data":[{"id":1,"name":"Bao","email":"b@x.vn","bookings":3,"spent":"1,200,000 đ"}]}`)
	}))
	defer srv.Close()

	c := New(srv.URL)
	rows, err := c.FilterCustomers(context.Background(), CustomerFilter{Keyword: "B", MaxBookings: "5"})
	require.NoError(t, err)
	assert.Equal(t, "max=5&q=B", gotQuery)
	require.Len(t, rows, 1)
	assert.Equal(t, "1", rows[0].ID.String())
	assert.True(t, rows[0].ID.Numeric())
	assert.Equal(t, 3, rows[0].Bookings)
}

func TestUpdateUserSendsOnlyChangeSet(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/users/US001", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = io.WriteString(w, `{"message":"User updated"}`)
	}))
	defer srv.Close()

	msg, err := New(srv.URL).UpdateUser(context.Background(), records.TextID("US001"), records.UserUpdate{NewEmail: "a@b.vn", NewPhone: "0901", NewPassword: "Secret#1"})
	require.NoError(t, err)
	assert.Equal(t, "User updated", msg)
	assert.Equal(t, map[string]any{"NewEmail": "a@b.vn", "NewPhone": "0901", "NewPassword": "Secret#1"}, body)
}

func TestSearchUsersUsesQueryParam(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/users/search", r.URL.Path)
		assert.Equal(t, "nguyen", r.URL.Query().Get("query"))
		_, _ = io.WriteString(w, `[{"UserID":"US002","FirstName":"Binh","LastName":"Nguyen"}]`)
	}))
	defer srv.Close()

	users, err := New(srv.URL).SearchUsers(context.Background(), "nguyen")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Nguyen Binh", users[0].DisplayName())
}

func TestErrorResponsesCarryServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"message":"UserID already exists"}`)
	}))
	defer srv.Close()

	_, err := New(srv.URL).CreateUser(context.Background(), records.User{UserID: records.TextID("US001")})
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "UserID already exists", UserMessage(err, "fallback"))
}

func TestErrorWithoutMessageFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := New(srv.URL).DeleteUser(context.Background(), records.TextID("US001"))
	require.Error(t, err)
	assert.Equal(t, "Something went wrong", UserMessage(err, "Something went wrong"))
}

func TestUnreachableAPIIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).ListUsers(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, "fallback", UserMessage(err, "fallback"))
}

func TestWithPathsFillsBlanks(t *testing.T) {
	c := New("http://example.test/", WithPaths(Paths{Movies: "/v2/movies"}))
	assert.Equal(t, "http://example.test", c.baseURL)
	assert.Equal(t, "/v2/movies", c.paths.Movies)
	assert.Equal(t, DefaultPaths().Users, c.paths.Users)
}

func TestMovieRevenueDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/movies/MV001/revenue-detail", r.URL.Path)
		_, _ = io.WriteString(w, `{"detail":"3 showings"}`)
	}))
	defer srv.Close()

	detail, err := New(srv.URL).MovieRevenueDetail(context.Background(), records.TextID("MV001"))
	require.NoError(t, err)
	assert.Equal(t, "3 showings", detail)
}

func TestRequestsAreTracedAndPropagated(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prevProvider, prevPropagator := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		otel.SetTracerProvider(prevProvider)
		otel.SetTextMapPropagator(prevPropagator)
	})

	var traceparent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceparent = r.Header.Get("traceparent")
		_, _ = io.WriteString(w, `{"data":[]}`)
	}))
	defer srv.Close()

	_, err := New(srv.URL).ListMovies(context.Background())
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "apiclient.list movies", spans[0].Name())
	assert.NotEmpty(t, traceparent)
	assert.Contains(t, traceparent, spans[0].SpanContext().TraceID().String())
}
