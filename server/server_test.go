package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aymensat/CarthageGate/planner"
)

type chatFunc func(ctx context.Context, message string) (string, error)

func (f chatFunc) Chat(ctx context.Context, message string) (string, error) {
	return f(ctx, message)
}

type planFunc func(ctx context.Context, start, dest string) *planner.TripPlan

func (f planFunc) Plan(ctx context.Context, start, dest string) *planner.TripPlan {
	return f(ctx, start, dest)
}

func echoChat() chatFunc {
	return func(_ context.Context, message string) (string, error) {
		return "echo: " + message, nil
	}
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRoot(t *testing.T) {
	h := New(Config{}, echoChat(), nil).Handler()

	rec := do(t, h, http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Chatbot Service is running."}`, rec.Body.String())
}

func TestChat_OK(t *testing.T) {
	h := New(Config{}, echoChat(), nil).Handler()

	rec := do(t, h, http.MethodPost, "/chat", `{"message":"Is the Metro delayed?"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"reply":"echo: Is the Metro delayed?"}`, rec.Body.String())
}

func TestChat_EmptyMessageIsAccepted(t *testing.T) {
	h := New(Config{}, echoChat(), nil).Handler()

	rec := do(t, h, http.MethodPost, "/chat", `{"message":""}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"reply":"echo: "}`, rec.Body.String())
}

func TestChat_InvalidBody(t *testing.T) {
	called := false
	h := New(Config{}, chatFunc(func(context.Context, string) (string, error) {
		called = true
		return "", nil
	}), nil).Handler()

	tests := []struct {
		name string
		body string
	}{
		{"not json", `hello`},
		{"missing message", `{}`},
		{"wrong type", `{"message": 5}`},
		{"array", `["hi"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/chat", tt.body)

			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			var resp map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp["detail"])
		})
	}
	assert.False(t, called)
}

func TestChat_FailureHidesCause(t *testing.T) {
	h := New(Config{}, chatFunc(func(context.Context, string) (string, error) {
		return "", errors.New("model backend unavailable: first turn: 401 invalid api key sk-secret")
	}), nil).Handler()

	rec := do(t, h, http.MethodPost, "/chat", `{"message":"hi"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"detail":"Failed to get a response from the AI model."}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "sk-secret")
}

func TestChat_ContextSurvivesClientCancel(t *testing.T) {
	var sawErr error
	h := New(Config{}, chatFunc(func(ctx context.Context, _ string) (string, error) {
		sawErr = ctx.Err()
		return "ok", nil
	}), nil).Handler()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"hi"}`)).WithContext(ctx)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, sawErr)
}

func TestChat_MethodNotAllowed(t *testing.T) {
	h := New(Config{}, echoChat(), nil).Handler()

	rec := do(t, h, http.MethodGet, "/chat", "")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRequestID(t *testing.T) {
	h := New(Config{}, echoChat(), nil).Handler()

	rec := do(t, h, http.MethodGet, "/", "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestPlanTrip(t *testing.T) {
	var gotStart, gotDest string
	tp := planFunc(func(_ context.Context, start, dest string) *planner.TripPlan {
		gotStart, gotDest = start, dest
		return &planner.TripPlan{
			StartZone:       start,
			DestinationZone: dest,
			Warnings:        []string{},
			Errors:          []string{},
			Message:         "Trip plan generated successfully.",
		}
	})
	h := New(Config{}, echoChat(), tp).Handler()

	rec := do(t, h, http.MethodPost, "/api/plan-trip", `{"startZone":"La Marsa","destinationZone":"Tunis Center"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "La Marsa", gotStart)
	assert.Equal(t, "Tunis Center", gotDest)
	var plan planner.TripPlan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plan))
	assert.Equal(t, "Trip plan generated successfully.", plan.Message)
}

func TestPlanTrip_MissingZones(t *testing.T) {
	tp := planFunc(func(context.Context, string, string) *planner.TripPlan {
		t.Fatal("planner must not be called")
		return nil
	})
	h := New(Config{}, echoChat(), tp).Handler()

	for _, body := range []string{`{}`, `{"startZone":"Ariana"}`, `{"destinationZone":"Ariana"}`, `nope`} {
		rec := do(t, h, http.MethodPost, "/api/plan-trip", body)

		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.JSONEq(t, `{"error":"Both startZone and destinationZone are required."}`, rec.Body.String())
	}
}

func TestPlanTrip_DisabledWithoutPlanner(t *testing.T) {
	h := New(Config{}, echoChat(), nil).Handler()

	rec := do(t, h, http.MethodPost, "/api/plan-trip", `{"startZone":"A","destinationZone":"B"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRun_StopsOnCancel(t *testing.T) {
	s := New(Config{Listen: "127.0.0.1:0", MaxConnections: 4}, echoChat(), nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()

	assert.NoError(t, <-done)
}
