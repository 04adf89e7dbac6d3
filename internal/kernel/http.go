// Package kernel builds the application's HTTP handler: the global
// middleware stack, the operational endpoints and the API routes.
package kernel

import (
	"context"
	"net/http"
	"time"

	"github.com/shashiranjanraj/orderdesk/app/routes"
	"github.com/shashiranjanraj/orderdesk/config"
	"github.com/shashiranjanraj/orderdesk/pkg/cache"
	"github.com/shashiranjanraj/orderdesk/pkg/database"
	"github.com/shashiranjanraj/orderdesk/pkg/metrics"
	"github.com/shashiranjanraj/orderdesk/pkg/middleware"
	"github.com/shashiranjanraj/orderdesk/pkg/reqid"
	"github.com/shashiranjanraj/orderdesk/pkg/response"
	"github.com/shashiranjanraj/orderdesk/pkg/router"
	"github.com/shashiranjanraj/orderdesk/pkg/ws"
)

// HTTPKernel owns the router and the per-IP rate limiter.
type HTTPKernel struct {
	router  *router.Router
	limiter *middleware.IPRateLimiter
}

// NewHTTPKernel wires the middleware stack and every route. feed serves
// the live orders feed and may be nil.
func NewHTTPKernel(feed *ws.Hub) (*HTTPKernel, error) {
	k := &HTTPKernel{
		router:  router.New(),
		limiter: middleware.NewIPRateLimiter(config.RateLimitRPS(), config.RateLimitBurst()),
	}
	r := k.router

	// Global middleware stack (outermost → innermost):
	//  1. Prometheus metrics: outermost for accurate total latency
	//  2. Recovery: catches panics before they kill the goroutine
	//  3. Request ID: inject unique ID before anything logs
	//  4. Logger: logs request_id from context
	//  5. CORS
	//  6. Rate limiter: reject abusers early
	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(config.CORSOrigins()))
	r.Use(middleware.RateLimit(k.limiter))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) { response.NotFound(w) })
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/health", "health", health)
	r.Get("/metrics", "metrics", metrics.Handler())

	if err := routes.RegisterAPI(r, feed); err != nil {
		return nil, err
	}
	return k, nil
}

func (k *HTTPKernel) Handler() http.Handler { return k.router.Handler() }

func (k *HTTPKernel) Router() *router.Router { return k.router }

func (k *HTTPKernel) Limiter() *middleware.IPRateLimiter { return k.limiter }

// health reports database reachability. Redis is optional, so its state is
// reported but never fails the check.
func health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	out := map[string]string{"status": "ok", "database": "ok", "cache": "disabled"}
	status := http.StatusOK

	if database.DB == nil {
		out["status"], out["database"] = "degraded", "not connected"
		status = http.StatusServiceUnavailable
	} else if sqlDB, err := database.DB.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		out["status"], out["database"] = "degraded", "unreachable"
		status = http.StatusServiceUnavailable
	}

	if cache.Available() {
		out["cache"] = "ok"
		if err := cache.RDB.Ping(ctx).Err(); err != nil {
			out["cache"] = "unreachable"
		}
	}
	response.JSON(w, status, out)
}
