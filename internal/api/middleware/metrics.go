package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ecoppen/amiibot/internal/metrics"
)

// healthGauges maps probe paths to their up/down gauge.
var healthGauges = map[string]prometheus.Gauge{
	pathHealthz: metrics.HealthzUp,
	pathReadyz:  metrics.ReadyzUp,
}

// Metrics returns Echo middleware that records request duration and status
// by route template. The /metrics endpoint and probes are excluded from the
// histogram and counter; probes update their gauge instead.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := routePath(c.Path(), c.Request().URL.Path)

			if path == pathMetrics {
				return next(c)
			}
			if gauge, ok := healthGauges[path]; ok {
				err := next(c)
				setUp(gauge, c.Response().Status)
				return err
			}

			start := time.Now()
			err := next(c)

			labels := []string{
				c.Request().Method,
				path,
				strconv.Itoa(c.Response().Status),
			}
			metrics.HTTPRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
			metrics.HTTPRequestsTotal.WithLabelValues(labels...).Inc()

			return err
		}
	}
}

func setUp(gauge prometheus.Gauge, status int) {
	if status >= 200 && status < 300 {
		gauge.Set(1)
		return
	}
	gauge.Set(0)
}
