// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/shadefi/shade/api/events"
	apihealth "github.com/shadefi/shade/api/health"
	"github.com/shadefi/shade/api/middleware"
	"github.com/shadefi/shade/api/operations"
	"github.com/shadefi/shade/api/records"
	"github.com/shadefi/shade/api/subscriptions"
	"github.com/shadefi/shade/builtin"
	"github.com/shadefi/shade/eventdb"
	shadeevents "github.com/shadefi/shade/events"
	"github.com/shadefi/shade/health"
	"github.com/shadefi/shade/identity"
	"github.com/shadefi/shade/log"
	"github.com/shadefi/shade/metrics"
	"github.com/shadefi/shade/shade"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins       string
	EventsLimit          uint64
	EnableReqLogger      *atomic.Bool
	SlowQueriesThreshold time.Duration
	EnableMetrics        bool
	Verifier             identity.Verifier // defaults to identity.SignatureVerifier
	Health               *health.Health    // GET /health is served when set
	DeploymentTag        shade.Bytes32     // signed into every operation envelope
}

// New return api router and a function closing the open subscriptions.
func New(
	s *builtin.Shade,
	eventDB *eventdb.EventDB,
	feed *shadeevents.Feed,
	opts Options,
) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}
	verifier := opts.Verifier
	if verifier == nil {
		verifier = identity.SignatureVerifier{}
	}
	limit := opts.EventsLimit
	if limit == 0 {
		limit = 1000
	}

	router := mux.NewRouter()

	records.New(s).
		Mount(router)
	events.New(eventDB, limit).
		Mount(router, "/events")
	operations.New(s, verifier, opts.DeploymentTag).
		Mount(router, "/operations")
	if opts.Health != nil {
		apihealth.New(opts.Health).
			Mount(router, "/health")
	}
	subs := subscriptions.New(feed, origins)
	subs.Mount(router, "/subscriptions")

	if opts.EnableMetrics {
		router.PathPrefix("/metrics").Name("GET /metrics").Handler(metrics.HTTPHandler())
		router.Use(metricsMiddleware)
	}

	enableReqLogger := opts.EnableReqLogger
	if enableReqLogger == nil {
		enableReqLogger = &atomic.Bool{}
	}
	router.Use(middleware.RequestLoggerMiddleware(logger, enableReqLogger, opts.SlowQueriesThreshold))

	var handler http.Handler = router
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type", middleware.RequestIDHeader}),
		handlers.ExposedHeaders([]string{middleware.RequestIDHeader}),
	)(handler)
	handler = middleware.RequestIDMiddleware(handler)

	return handler.ServeHTTP, subs.Close // subscriptions handles hijacked conns, which need to be closed
}
