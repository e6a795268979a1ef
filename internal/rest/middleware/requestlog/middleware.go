package requestlog

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/openkeyhub/governance/internal/rest/response"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

var errPanic = errors.New("handler panicked")

// Middleware logs each request, records request metrics and bounds handling time.
type Middleware struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	timeout  time.Duration
	logger   *zap.Logger
}

// New creates the middleware and registers its collectors with reg.
func New(reg prometheus.Registerer, timeout time.Duration, logger *zap.Logger) *Middleware {
	m := &Middleware{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "governance",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "governance",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		timeout: timeout,
		logger:  logger.Named("rest"),
	}

	reg.MustRegister(m.requests, m.duration)
	return m
}

// AsRESTMiddleware returns a bunrouter middleware handler.
func (m *Middleware) AsRESTMiddleware(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		ctx := req.Context()
		if m.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, m.timeout)
			defer cancel()
		}

		err := m.serve(next, rec, req.WithContext(ctx))
		if err != nil && !rec.wroteHeader {
			_ = response.Error(rec, m.logger, err)
		}

		route := req.Route()
		elapsed := time.Since(start)
		m.requests.WithLabelValues(route, req.Method, strconv.Itoa(rec.status)).Inc()
		m.duration.WithLabelValues(route, req.Method).Observe(elapsed.Seconds())

		fields := []zap.Field{
			zap.String("method", req.Method),
			zap.String("route", route),
			zap.Int("status", rec.status),
			zap.Duration("duration", elapsed),
		}
		if rec.status >= http.StatusInternalServerError {
			m.logger.Warn("Request returned server error", fields...)
		} else {
			m.logger.Debug("Request handled", fields...)
		}

		return nil
	}
}

// serve runs the handler, turning a panic into an error.
func (m *Middleware) serve(next bunrouter.HandlerFunc, w http.ResponseWriter, req bunrouter.Request) (err error) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("Recovered from panic in handler", zap.Any("panic", r), zap.Stack("stack"))
			err = errPanic
		}
	}()
	return next(w, req)
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.wroteHeader = true
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
