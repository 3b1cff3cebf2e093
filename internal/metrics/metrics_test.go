package metrics

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wichananm65/user-records/internal/user"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{err: nil, want: "ok"},
		{err: fmt.Errorf("%w: gone", user.ErrNotFound), want: "not_found"},
		{err: fmt.Errorf("%w: taken", user.ErrAlreadyExists), want: "already_exists"},
		{err: fmt.Errorf("%w: too young", user.ErrInvalidArgument), want: "invalid_argument"},
		{err: &user.ValidationError{Messages: []string{"Email is required."}}, want: "invalid_input"},
		{err: errors.New("boom"), want: "error"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, outcome(tt.err))
	}
}

func TestRegistry_ObserveOperation(t *testing.T) {
	r := NewRegistry()
	r.ObserveOperation("create", nil)
	r.ObserveOperation("create", nil)
	r.ObserveOperation("delete", user.ErrNotFound)

	var buf bytes.Buffer
	r.WritePrometheus(&buf)
	out := buf.String()

	assert.Contains(t, out, `user_operations_total{op="create",outcome="ok"} 2`)
	assert.Contains(t, out, `user_operations_total{op="delete",outcome="not_found"} 1`)
}

func TestRegistry_TrackRecords(t *testing.T) {
	r := NewRegistry()
	count := 3
	r.TrackRecords(func() int { return count })

	var buf bytes.Buffer
	r.WritePrometheus(&buf)
	assert.Contains(t, buf.String(), "user_records 3")
}

func TestRegistry_MiddlewareAndHandler(t *testing.T) {
	r := NewRegistry()

	app := fiber.New()
	app.Use(r.Middleware())
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })
	app.Get("/metrics", r.Handler())

	res, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	res, err = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	assert.Contains(t, res.Header.Get("Content-Type"), "text/plain")

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `http_requests_total{method="GET",path="/ping",status="200"} 1`)
	assert.Contains(t, string(body), `http_request_duration_seconds_bucket{method="GET",path="/ping"`)
}
