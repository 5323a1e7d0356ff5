// Package geo answers continent and country lookups by natural code.
package geo

import (
	"context"
	"errors"
	"fmt"

	"github.com/leafsii/georef/internal/db/entities"
	"github.com/leafsii/georef/internal/db/interfaces"
	"github.com/leafsii/georef/internal/repository"
	"go.uber.org/zap"
)

var ErrContinentNotFound = errors.New("continent not found")

var (
	ContinentMapping = repository.MustMapping[entities.Continent](entities.ContinentSchema)
	CountryMapping   = repository.MustMapping[entities.Country](entities.CountrySchema)
)

// Service composes the continent and country repositories on a caller supplied session
type Service struct {
	logger  *zap.SugaredLogger
	metrics repository.Recorder
}

func NewService(logger *zap.SugaredLogger, metrics repository.Recorder) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{logger: logger, metrics: metrics}
}

func (s *Service) Continents(session interfaces.Session) *repository.Repository[entities.Continent] {
	return repository.New(session, ContinentMapping, s.logger, s.metrics)
}

func (s *Service) Countries(session interfaces.Session) *repository.Repository[entities.Country] {
	return repository.New(session, CountryMapping, s.logger, s.metrics)
}

func (s *Service) ListContinents(ctx context.Context, session interfaces.Session) repository.Result[[]entities.Continent] {
	return s.Continents(session).FindAll(ctx)
}

// ContinentByCode returns a nil payload when the code is unknown
func (s *Service) ContinentByCode(ctx context.Context, session interfaces.Session, code string) repository.Result[*entities.Continent] {
	return s.Continents(session).FindOne(ctx, repository.Criteria{"continentCode": code})
}

func (s *Service) CountriesByContinent(ctx context.Context, session interfaces.Session, continentCode string) repository.Result[[]entities.Country] {
	continentID, err := s.continentID(ctx, session, continentCode)
	if err != nil {
		return repository.Fail[[]entities.Country](err)
	}
	return s.Countries(session).FindWhere(ctx, repository.Criteria{"continentId": continentID})
}

func (s *Service) CountriesByContinentPaged(ctx context.Context, session interfaces.Session, continentCode string, req repository.PageRequest) repository.PagedResult[entities.Country] {
	continentID, err := s.continentID(ctx, session, continentCode)
	if err != nil {
		page, size := req.Normalize()
		return repository.PagedFail[entities.Country](err, page, size)
	}
	return s.Countries(session).FindPaged(ctx, repository.Criteria{"continentId": continentID}, req)
}

// CountryByCode returns a nil payload when the code is unknown
func (s *Service) CountryByCode(ctx context.Context, session interfaces.Session, code string) repository.Result[*entities.Country] {
	return s.Countries(session).FindOne(ctx, repository.Criteria{"countryCode": code})
}

func (s *Service) continentID(ctx context.Context, session interfaces.Session, code string) (string, error) {
	continent, err := s.ContinentByCode(ctx, session, code).Data()
	if err != nil {
		return "", err
	}
	if continent == nil {
		s.logger.Debugw("Unknown continent code", "continentCode", code)
		return "", fmt.Errorf("%w: %s", ErrContinentNotFound, code)
	}
	return continent.ContinentID, nil
}
