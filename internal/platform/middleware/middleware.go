// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package middleware provides the HTTP chain shared by every atlas route.

Order, as mounted by the API server:

  - RequestID: correlation ID for logs and responses.
  - StructuredLogger: one access line per request, plus a request-scoped logger.
  - RateLimit: per-IP token bucket.
  - PanicRecovery: converts a panic into a 500 envelope.
  - CORS: origin policy from configuration.

Rejections use the same error envelope as the handlers (see package respond).
*/
package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/taibuivan/livingatlas/internal/platform/apperr"
	"github.com/taibuivan/livingatlas/internal/platform/constants"
	"github.com/taibuivan/livingatlas/internal/platform/ctxutil"
	"github.com/taibuivan/livingatlas/internal/platform/respond"
	"github.com/taibuivan/livingatlas/pkg/uuid"
)

// # Request Tracing

// RequestID keeps a well-formed client X-Request-ID or mints a UUIDv7.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			requestID := request.Header.Get(constants.HeaderXRequestID)
			if !uuid.IsValid(requestID) {
				requestID = uuid.New()
			}

			writer.Header().Set(constants.HeaderXRequestID, requestID)
			next.ServeHTTP(writer, request.WithContext(ctxutil.WithRequestID(request.Context(), requestID)))
		})
	}
}

// # Access Logging

// recorder captures the status and body size written downstream.
type recorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (r *recorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *recorder) Write(body []byte) (int, error) {
	n, err := r.ResponseWriter.Write(body)
	r.bytes += int64(n)
	return n, err
}

// Unwrap exposes the underlying writer to [http.ResponseController].
func (r *recorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

/*
StructuredLogger writes one "http_request_finished" line per request.

Description: Handlers receive a logger pre-bound with request_id, method,
path and ip through [ctxutil.GetLogger]. The final line is logged at WARN for
4xx and ERROR for 5xx. Upload size (request_bytes) and response size
(response_bytes) are recorded since card submissions and file links dominate
traffic.
*/
func StructuredLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			started := time.Now()

			requestLogger := logger.With(
				slog.String("request_id", ctxutil.GetRequestID(request.Context())),
				slog.String("method", request.Method),
				slog.String("path", request.URL.Path),
				slog.String("ip", RealIP(request)),
			)

			ctx := ctxutil.WithLogger(request.Context(), requestLogger)
			recorded := &recorder{ResponseWriter: writer, status: http.StatusOK}

			next.ServeHTTP(recorded, request.WithContext(ctx))

			level := slog.LevelInfo
			switch {
			case recorded.status >= 500:
				level = slog.LevelError
			case recorded.status >= 400:
				level = slog.LevelWarn
			}

			requestLogger.Log(ctx, level, "http_request_finished",
				slog.Int("status", recorded.status),
				slog.Int64("latency_ms", time.Since(started).Milliseconds()),
				slog.Int64("request_bytes", request.ContentLength),
				slog.Int64("response_bytes", recorded.bytes),
				slog.String("user_agent", request.UserAgent()),
			)
		})
	}
}

// # Rate Limiting

// RateLimitConfig sizes the per-IP token bucket.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit throttles each client IP with its own token bucket.
//
// Idle buckets are swept every [constants.RateLimitCleanupInterval] until
// context is cancelled.
func RateLimit(context context.Context, limits RateLimitConfig) func(http.Handler) http.Handler {
	var (
		mu      sync.Mutex
		clients = make(map[string]*client)
	)

	go func() {
		ticker := time.NewTicker(constants.RateLimitCleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				mu.Lock()
				for ip, entry := range clients {
					if time.Since(entry.lastSeen) > constants.RateLimitClientTTL {
						delete(clients, ip)
					}
				}
				mu.Unlock()
			case <-context.Done():
				return
			}
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			ip := RealIP(request)

			mu.Lock()
			entry, found := clients[ip]
			if !found {
				entry = &client{limiter: rate.NewLimiter(rate.Limit(limits.RPS), limits.Burst)}
				clients[ip] = entry
			}
			entry.lastSeen = time.Now()
			allowed := entry.limiter.Allow()
			mu.Unlock()

			if !allowed {
				respond.Error(writer, request, apperr.RateLimited())
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// # Panic Recovery

// PanicRecovery logs the panic with a stack excerpt and answers 500.
//
// [http.ErrAbortHandler] is re-raised so net/http can abort the connection.
func PanicRecovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}
				if recovered == http.ErrAbortHandler {
					panic(recovered)
				}

				stack := make([]byte, 4096)
				stack = stack[:runtime.Stack(stack, false)]

				ctxutil.GetLogger(request.Context()).ErrorContext(request.Context(), "panic_recovered",
					slog.Any("error", recovered),
					slog.String("stack", string(stack)),
				)

				respond.Error(writer, request, apperr.Internal(nil))
			}()

			next.ServeHTTP(writer, request)
		})
	}
}

// # Cross-Origin Resource Sharing

// AppConfig is the slice of configuration the CORS policy reads.
type AppConfig interface {
	IsDevelopment() bool
	AllowedOrigins() []string
}

// CORS allows any origin in development and only AllowedOrigins otherwise.
func CORS(cfg AppConfig) func(http.Handler) http.Handler {
	allowed := cfg.AllowedOrigins()
	development := cfg.IsDevelopment()

	return cors.Handler(cors.Options{
		AllowOriginFunc: func(_ *http.Request, origin string) bool {
			if development {
				return true
			}
			for _, candidate := range allowed {
				if strings.EqualFold(candidate, origin) {
					return true
				}
			}
			return false
		},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length", constants.HeaderXRequestID},
		ExposedHeaders:   []string{"Content-Length", "Location", constants.HeaderXRequestID},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

// # Helpers

// RealIP prefers X-Real-IP, then the first X-Forwarded-For hop, then RemoteAddr.
func RealIP(request *http.Request) string {
	if ip := request.Header.Get(constants.HeaderXRealIP); ip != "" {
		return ip
	}

	if forwarded := request.Header.Get(constants.HeaderXForwardedFor); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}

	host, _, err := net.SplitHostPort(request.RemoteAddr)
	if err != nil {
		return request.RemoteAddr
	}
	return host
}
