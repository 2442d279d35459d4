package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/diagnosis/travel-reservations/internal/http/handlers"
	"github.com/diagnosis/travel-reservations/internal/http/middleware"
	"github.com/diagnosis/travel-reservations/internal/http/response"
	"github.com/diagnosis/travel-reservations/pkg/config"
	mw "github.com/diagnosis/travel-reservations/pkg/middleware"
)

type Options struct {
	ServiceName string
	CORS        config.CORSConfig
	RateLimit   config.RateLimitConfig

	// Counter backs the rate limiter; nil leaves rate limiting off.
	Counter  middleware.Counter
	Notifier handlers.Notifier
	Checkers map[string]mw.Checker
}

func New(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.ServiceName(opts.ServiceName))
	r.Use(mw.Logging)
	r.Use(mw.Recoverer)

	if opts.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORS.Origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", mw.RequestIDHeader},
			ExposedHeaders: []string{mw.RequestIDHeader},
			MaxAge:         opts.CORS.MaxAge,
		}))
	}

	r.Use(mw.Health(opts.Checkers))

	if opts.Counter != nil && opts.RateLimit.Requests > 0 {
		limiter := middleware.NewRateLimiter(opts.Counter, middleware.RateLimitConfig{
			Requests: opts.RateLimit.Requests,
			Window:   opts.RateLimit.Window,
		})
		r.Use(limiter.Middleware())
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.MethodNotAllowed(w, "method not allowed")
	})

	h := handlers.NewReservationsHandler(opts.Notifier)
	r.Mount("/flights", h.FlightRoutes())
	r.Mount("/hotels", h.HotelRoutes())

	return r
}
