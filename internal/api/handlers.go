package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/leafsii/georef/internal/db/interfaces"
	"github.com/leafsii/georef/internal/geo"
	"github.com/leafsii/georef/internal/repository"
	"go.uber.org/zap"
)

type Handler struct {
	db     interfaces.Database
	geo    *geo.Service
	logger *zap.SugaredLogger
}

func NewHandler(database interfaces.Database, geoSvc *geo.Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{
		db:     database,
		geo:    geoSvc,
		logger: logger,
	}
}

// Continent endpoints
func (h *Handler) ListContinents(w http.ResponseWriter, r *http.Request) {
	session := SessionFrom(r.Context())

	continents, err := h.geo.ListContinents(r.Context(), session).Data()
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, continents)
}

func (h *Handler) GetContinent(w http.ResponseWriter, r *http.Request) {
	session := SessionFrom(r.Context())
	code := chi.URLParam(r, "continentCode")

	continent, err := h.geo.ContinentByCode(r.Context(), session, code).Data()
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	if continent == nil {
		h.writeError(w, http.StatusNotFound, CodeNotFound, "Continent not found with continentCode: "+code)
		return
	}

	h.writeJSON(w, http.StatusOK, continent)
}

// Country endpoints
func (h *Handler) ListCountries(w http.ResponseWriter, r *http.Request) {
	session := SessionFrom(r.Context())
	code := chi.URLParam(r, "continentCode")

	countries, err := h.geo.CountriesByContinent(r.Context(), session, code).Data()
	if err != nil {
		if errors.Is(err, geo.ErrContinentNotFound) {
			h.writeError(w, http.StatusNotFound, CodeNotFound, "Continent not found with continentCode: "+code)
			return
		}
		h.writeFailure(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, countries)
}

func (h *Handler) ListCountriesPaged(w http.ResponseWriter, r *http.Request) {
	session := SessionFrom(r.Context())
	code := chi.URLParam(r, "continentCode")

	pageNumber, err := strconv.Atoi(chi.URLParam(r, "pageNumber"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, CodeInvalidPagination, "pageNumber must be an integer")
		return
	}
	pageSize, err := strconv.Atoi(chi.URLParam(r, "pageSize"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, CodeInvalidPagination, "pageSize must be an integer")
		return
	}

	page := h.geo.CountriesByContinentPaged(r.Context(), session, code, repository.PageRequest{
		PageNumber: pageNumber,
		PageSize:   pageSize,
		OrderBy:    chi.URLParam(r, "orderBy"),
		OrderDesc:  chi.URLParam(r, "orderDesc"),
	})
	if !page.Success() {
		if errors.Is(page.Err(), geo.ErrContinentNotFound) {
			h.writeError(w, http.StatusNotFound, CodeNotFound, "No countries found with continentCode: "+code)
			return
		}
		h.writeFailure(w, page.Err())
		return
	}

	h.writeJSON(w, http.StatusOK, page)
}

func (h *Handler) GetCountry(w http.ResponseWriter, r *http.Request) {
	session := SessionFrom(r.Context())
	code := chi.URLParam(r, "countryCode")

	country, err := h.geo.CountryByCode(r.Context(), session, code).Data()
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	if country == nil {
		h.writeError(w, http.StatusNotFound, CodeNotFound, "Country not found with countryCode: "+code)
		return
	}

	h.writeJSON(w, http.StatusOK, country)
}

// Health endpoints
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	if !h.db.IsHealthy(r.Context()) {
		h.writeJSON(w, http.StatusServiceUnavailable, HealthDTO{Status: "unavailable", Reasons: []string{"DATABASE_UNHEALTHY"}})
		return
	}
	h.writeJSON(w, http.StatusOK, HealthDTO{Status: "ready"})
}

// Utility methods
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string) {
	if status >= http.StatusInternalServerError {
		h.logger.Errorw("API error", "code", code, "message", message, "status", status)
	} else {
		h.logger.Debugw("API error", "code", code, "message", message, "status", status)
	}
	writeErrorResponse(w, status, ErrorResponse{Code: code, Message: message})
}

// writeFailure maps a failed repository outcome to a response
func (h *Handler) writeFailure(w http.ResponseWriter, err error) {
	status, code := errorStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Errorw("Repository failure", "error", err)
		message = "internal error"
	}
	h.writeError(w, status, code, message)
}

func errorStatus(err error) (int, string) {
	var conflict *repository.ConflictError
	switch {
	case errors.Is(err, interfaces.ErrNotFound), errors.Is(err, geo.ErrContinentNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.As(err, &conflict),
		errors.Is(err, interfaces.ErrUniqueConstraint),
		errors.Is(err, interfaces.ErrForeignKeyConstraint):
		return http.StatusConflict, CodeConflict
	case errors.Is(err, repository.ErrUnknownField),
		errors.Is(err, repository.ErrInvalidCriteria),
		errors.Is(err, repository.ErrAmbiguousCriteria),
		errors.Is(err, repository.ErrImmutableID),
		errors.Is(err, repository.ErrEmptyCriteria),
		errors.Is(err, interfaces.ErrInvalidQuery):
		return http.StatusBadRequest, CodeBadRequest
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

func writeErrorResponse(w http.ResponseWriter, status int, body ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
