// Package seed loads the bundled continent and country reference data.
// Every row is upserted by its natural code, so running it twice is harmless.
package seed

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/leafsii/georef/internal/db/interfaces"
	"github.com/leafsii/georef/internal/geo"
	"github.com/leafsii/georef/internal/repository"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed data/reference.yaml
var referenceYAML []byte

// Dataset is the decoded seed file
type Dataset struct {
	Continents []Continent `yaml:"continents" validate:"required,min=1,dive"`
	Countries  []Country   `yaml:"countries" validate:"dive"`
}

type Continent struct {
	Code string `yaml:"code" validate:"required,len=2,uppercase"`
	Name string `yaml:"name" validate:"required,max=100"`
}

type Country struct {
	Code         string  `yaml:"code" validate:"required,len=2,uppercase"`
	Code3        string  `yaml:"code3" validate:"required,len=3,uppercase"`
	Name         string  `yaml:"name" validate:"required,max=100"`
	Capital      *string `yaml:"capital" validate:"omitempty,max=100"`
	Continent    string  `yaml:"continent" validate:"required,len=2,uppercase"`
	Area         *int64  `yaml:"area" validate:"omitempty,gte=0"`
	Population   *int64  `yaml:"population" validate:"omitempty,gte=0"`
	Latitude     *string `yaml:"latitude" validate:"omitempty,latitude"`
	Longitude    *string `yaml:"longitude" validate:"omitempty,longitude"`
	CurrencyCode *string `yaml:"currencyCode" validate:"omitempty,len=3,uppercase"`
	CurrencyName *string `yaml:"currencyName" validate:"omitempty,max=100"`
	Languages    *string `yaml:"languages" validate:"omitempty,max=100"`
}

// Summary counts the rows written by Run
type Summary struct {
	Continents int
	Countries  int
}

// Default returns the bundled dataset
func Default() (*Dataset, error) {
	return Parse(referenceYAML)
}

// Parse decodes and validates a seed document
func Parse(raw []byte) (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(raw, &ds); err != nil {
		return nil, fmt.Errorf("parse seed data: %w", err)
	}
	if err := validator.New().Struct(&ds); err != nil {
		return nil, fmt.Errorf("invalid seed data: %w", err)
	}
	return &ds, nil
}

// Runner writes a dataset through the geo repositories
type Runner struct {
	geo    *geo.Service
	logger *zap.SugaredLogger
}

func NewRunner(service *geo.Service, logger *zap.SugaredLogger) *Runner {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Runner{geo: service, logger: logger}
}

// Run seeds continents first, then countries with their continent code resolved to an identifier
func (r *Runner) Run(ctx context.Context, session interfaces.Session, ds *Dataset) (Summary, error) {
	var summary Summary
	r.logger.Infow("Running seeders", "continents", len(ds.Continents), "countries", len(ds.Countries))

	continents := r.geo.Continents(session)
	continentIDs := make(map[string]string, len(ds.Continents))
	for _, c := range ds.Continents {
		res := continents.UpsertWhere(ctx,
			repository.Criteria{"continentCode": c.Code},
			repository.Data{"continentName": c.Name},
		)
		stored, err := res.Data()
		if err != nil {
			return summary, fmt.Errorf("seed continent %s: %w", c.Code, err)
		}
		continentIDs[c.Code] = stored.ContinentID
		summary.Continents++
		r.logger.Debugw("Seeded continent", "continentCode", c.Code)
	}

	countries := r.geo.Countries(session)
	for _, c := range ds.Countries {
		continentID, ok := continentIDs[c.Continent]
		if !ok {
			found, err := continents.FindOne(ctx, repository.Criteria{"continentCode": c.Continent}).Data()
			if err != nil {
				return summary, fmt.Errorf("seed country %s: %w", c.Code, err)
			}
			if found == nil {
				return summary, fmt.Errorf("seed country %s: %w: %s", c.Code, geo.ErrContinentNotFound, c.Continent)
			}
			continentID = found.ContinentID
			continentIDs[c.Continent] = continentID
		}

		res := countries.UpsertWhere(ctx, repository.Criteria{"countryCode": c.Code}, c.data(continentID))
		if _, err := res.Data(); err != nil {
			return summary, fmt.Errorf("seed country %s: %w", c.Code, err)
		}
		summary.Countries++
		r.logger.Debugw("Seeded country", "countryCode", c.Code)
	}

	r.logger.Infow("Completed running seeders", "continents", summary.Continents, "countries", summary.Countries)
	return summary, nil
}

func (c Country) data(continentID string) repository.Data {
	data := repository.Data{
		"countryCode3": c.Code3,
		"countryName":  c.Name,
		"continentId":  continentID,
		"capital":      nil,
		"area":         nil,
		"population":   nil,
		"latitude":     nil,
		"longitude":    nil,
		"currencyCode": nil,
		"currencyName": nil,
		"languages":    nil,
	}
	if c.Capital != nil {
		data["capital"] = *c.Capital
	}
	if c.Area != nil {
		data["area"] = *c.Area
	}
	if c.Population != nil {
		data["population"] = *c.Population
	}
	if c.Latitude != nil {
		data["latitude"] = *c.Latitude
	}
	if c.Longitude != nil {
		data["longitude"] = *c.Longitude
	}
	if c.CurrencyCode != nil {
		data["currencyCode"] = *c.CurrencyCode
	}
	if c.CurrencyName != nil {
		data["currencyName"] = *c.CurrencyName
	}
	if c.Languages != nil {
		data["languages"] = *c.Languages
	}
	return data
}

// Seed forks a session from database and runs the dataset inside one transaction
func (r *Runner) Seed(ctx context.Context, database interfaces.Database, ds *Dataset) (Summary, error) {
	session, err := database.Fork(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("open seed session: %w", err)
	}
	defer session.Close()

	var summary Summary
	err = session.Transaction(ctx, func(ctx context.Context, tx interfaces.Session) error {
		var runErr error
		summary, runErr = r.Run(ctx, tx, ds)
		return runErr
	})
	if err != nil {
		return Summary{}, err
	}
	return summary, nil
}
