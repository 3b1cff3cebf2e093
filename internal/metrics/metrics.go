// Package metrics exposes service counters in the Prometheus text format.
package metrics

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	vmetrics "github.com/VictoriaMetrics/metrics"
	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/user-records/internal/user"
)

type Registry struct {
	set *vmetrics.Set
}

func NewRegistry() *Registry {
	return &Registry{set: vmetrics.NewSet()}
}

// ObserveOperation counts one user operation by outcome.
func (r *Registry) ObserveOperation(op string, err error) {
	name := fmt.Sprintf(`user_operations_total{op=%q,outcome=%q}`, op, outcome(err))
	r.set.GetOrCreateCounter(name).Inc()
}

// TrackRecords exposes the size reported by count as a gauge.
func (r *Registry) TrackRecords(count func() int) {
	r.set.NewGauge("user_records", func() float64 {
		return float64(count())
	})
}

// Middleware counts requests and their latency per route template.
func (r *Registry) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				status = fiberErr.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		path := c.Route().Path
		r.set.GetOrCreateCounter(fmt.Sprintf(`http_requests_total{method=%q,path=%q,status=%q}`,
			c.Method(), path, strconv.Itoa(status))).Inc()
		r.set.GetOrCreateHistogram(fmt.Sprintf(`http_request_duration_seconds{method=%q,path=%q}`,
			c.Method(), path)).UpdateDuration(start)

		return err
	}
}

// WritePrometheus writes the registry and the process metrics to w.
func (r *Registry) WritePrometheus(w io.Writer) {
	r.set.WritePrometheus(w)
	vmetrics.WriteProcessMetrics(w)
}

// Handler serves WritePrometheus over HTTP.
func (r *Registry) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, "text/plain; version=0.0.4; charset=utf-8")
		r.WritePrometheus(c.Response().BodyWriter())
		return nil
	}
}

func outcome(err error) string {
	var validationErr *user.ValidationError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &validationErr):
		return "invalid_input"
	case errors.Is(err, user.ErrNotFound):
		return "not_found"
	case errors.Is(err, user.ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, user.ErrInvalidArgument):
		return "invalid_argument"
	default:
		return "error"
	}
}
