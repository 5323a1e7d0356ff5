package seed

import (
	"context"
	"testing"

	"github.com/leafsii/georef/internal/db/backends/memory"
	"github.com/leafsii/georef/internal/db/entities"
	"github.com/leafsii/georef/internal/db/interfaces"
	"github.com/leafsii/georef/internal/geo"
	"github.com/leafsii/georef/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestDefaultDataset(t *testing.T) {
	ds, err := Default()
	require.NoError(t, err)
	assert.Len(t, ds.Continents, 7)
	assert.NotEmpty(t, ds.Countries)

	codes := make(map[string]bool)
	for _, c := range ds.Continents {
		codes[c.Code] = true
	}
	for _, c := range ds.Countries {
		assert.True(t, codes[c.Continent], "country %s references unknown continent %s", c.Code, c.Continent)
	}
}

func TestParseRejectsInvalidData(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"no continents", "continents: []\n"},
		{"lowercase code", "continents:\n  - code: eu\n    name: Europe\n"},
		{"missing name", "continents:\n  - code: EU\n"},
		{"bad latitude", `continents:
  - code: EU
    name: Europe
countries:
  - code: FR
    code3: FRA
    name: France
    continent: EU
    latitude: "123.0"
`},
		{"malformed yaml", "continents: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	logger := zaptest.NewLogger(t).Sugar()

	database := memory.NewDatabase(logger)
	require.NoError(t, database.Connect(ctx))
	require.NoError(t, database.Migrate(ctx, []*interfaces.Schema{entities.ContinentSchema, entities.CountrySchema}))
	session, err := database.Fork(ctx)
	require.NoError(t, err)
	defer session.Close()

	service := geo.NewService(logger, nil)
	runner := NewRunner(service, logger)

	ds, err := Default()
	require.NoError(t, err)

	summary, err := runner.Run(ctx, session, ds)
	require.NoError(t, err)
	assert.Equal(t, len(ds.Continents), summary.Continents)
	assert.Equal(t, len(ds.Countries), summary.Countries)

	t.Run("rerun is idempotent", func(t *testing.T) {
		_, err := runner.Run(ctx, session, ds)
		require.NoError(t, err)

		n, err := service.Countries(session).Count(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(len(ds.Countries)), n)

		n, err = service.Continents(session).Count(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(len(ds.Continents)), n)
	})

	t.Run("countries reference their continent", func(t *testing.T) {
		fr := service.CountryByCode(ctx, session, "FR").MustData()
		require.NotNil(t, fr)
		eu := service.ContinentByCode(ctx, session, "EU").MustData()
		require.NotNil(t, eu)
		assert.Equal(t, eu.ContinentID, fr.ContinentID)
		require.NotNil(t, fr.Latitude)
		assert.Equal(t, "46.227638", fr.Latitude.StringFixed(6))
	})

	t.Run("optional fields stay empty", func(t *testing.T) {
		aq := service.CountryByCode(ctx, session, "AQ").MustData()
		require.NotNil(t, aq)
		assert.Nil(t, aq.Capital)
		assert.Nil(t, aq.Population)
	})

	t.Run("continent resolved from storage", func(t *testing.T) {
		extra := &Dataset{
			Countries: []Country{{Code: "PT", Code3: "PRT", Name: "Portugal", Continent: "EU"}},
		}
		summary, err := runner.Run(ctx, session, extra)
		require.NoError(t, err)
		assert.Equal(t, 1, summary.Countries)

		pt := service.Countries(session).FindOne(ctx, repository.Criteria{"countryCode3": "PRT"}).MustData()
		require.NotNil(t, pt)
	})

	t.Run("unknown continent", func(t *testing.T) {
		bad := &Dataset{
			Countries: []Country{{Code: "XX", Code3: "XXX", Name: "Nowhere", Continent: "ZZ"}},
		}
		_, err := runner.Run(ctx, session, bad)
		assert.ErrorIs(t, err, geo.ErrContinentNotFound)
	})
}

func TestSeedRollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	logger := zaptest.NewLogger(t).Sugar()

	database := memory.NewDatabase(logger)
	require.NoError(t, database.Connect(ctx))
	require.NoError(t, database.Migrate(ctx, []*interfaces.Schema{entities.ContinentSchema, entities.CountrySchema}))

	service := geo.NewService(logger, nil)
	runner := NewRunner(service, logger)

	bad := &Dataset{
		Continents: []Continent{{Code: "EU", Name: "Europe"}},
		Countries:  []Country{{Code: "XX", Code3: "XXX", Name: "Nowhere", Continent: "ZZ"}},
	}
	_, err := runner.Seed(ctx, database, bad)
	require.ErrorIs(t, err, geo.ErrContinentNotFound)

	session, err := database.Fork(ctx)
	require.NoError(t, err)
	defer session.Close()

	n, err := service.Continents(session).Count(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	ds, err := Default()
	require.NoError(t, err)
	summary, err := runner.Seed(ctx, database, ds)
	require.NoError(t, err)
	assert.Equal(t, len(ds.Countries), summary.Countries)
}
