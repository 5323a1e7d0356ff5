package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Routes(m *Middleware, corsOrigins []string, rateLimitRPM int, metricsHandler http.Handler) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(m.RequestID)
	r.Use(m.RequestLogger)
	r.Use(m.Recoverer)
	r.Use(m.SecurityHeaders)
	r.Use(m.Compress)
	r.Use(m.Timeout(15 * time.Second))
	r.Use(middleware.Heartbeat("/ping"))

	// CORS and rate limiting - configured from main
	r.Use(m.CORS(corsOrigins))
	r.Use(m.RateLimit(rateLimitRPM))

	// Health endpoints
	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	// Reference data, one database session per request
	r.Group(func(r chi.Router) {
		r.Use(m.SessionScope(h.db))

		r.Get("/continents", h.ListContinents)
		r.Get("/continents/{continentCode}", h.GetContinent)

		r.Get("/countries/{continentCode}", h.ListCountries)
		r.Get("/countries/{continentCode}/{pageNumber}/{pageSize}/{orderBy}/{orderDesc}", h.ListCountriesPaged)

		r.Get("/country/{countryCode}", h.GetCountry)
	})

	return r
}
