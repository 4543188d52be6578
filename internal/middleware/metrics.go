package middleware

import (
	"strconv"
	"time"

	"pavo/internal/metrics"

	"github.com/gofiber/fiber/v2"
)

// Metrics records request counts and latencies per route. Uses the route
// pattern, not the raw path, to keep label cardinality bounded.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := c.Route().Path
		status := strconv.Itoa(c.Response().StatusCode())
		metrics.RecordHTTPRequest(c.Method(), path, status, time.Since(start).Seconds())
		return err
	}
}
