package repository_test

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/leafsii/georef/internal/db/backends/memory"
	"github.com/leafsii/georef/internal/db/entities"
	"github.com/leafsii/georef/internal/db/interfaces"
	"github.com/leafsii/georef/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var (
	continentMapping = repository.MustMapping[entities.Continent](entities.ContinentSchema)
	countryMapping   = repository.MustMapping[entities.Country](entities.CountrySchema)
)

type fixture struct {
	ctx        context.Context
	session    interfaces.Session
	continents *repository.Repository[entities.Continent]
	countries  *repository.Repository[entities.Country]
	recorder   *opRecorder
}

type opRecorder struct {
	mu  sync.Mutex
	ops []string
}

func (r *opRecorder) RecordRepositoryOp(ctx context.Context, table, op string, success bool, duration time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	status := "ok"
	if !success {
		status = "fail"
	}
	r.ops = append(r.ops, table+"."+op+":"+status)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := zaptest.NewLogger(t).Sugar()

	database := memory.NewDatabase(logger)
	require.NoError(t, database.Connect(ctx))
	require.NoError(t, database.Migrate(ctx, []*interfaces.Schema{entities.ContinentSchema, entities.CountrySchema}))

	session, err := database.Fork(ctx)
	require.NoError(t, err)
	t.Cleanup(func() {
		session.Close()
		database.Disconnect(ctx)
	})

	rec := &opRecorder{}
	return &fixture{
		ctx:        ctx,
		session:    session,
		continents: repository.New(session, continentMapping, logger, rec),
		countries:  repository.New(session, countryMapping, logger, rec),
		recorder:   rec,
	}
}

func (f *fixture) continent(t *testing.T, code, name string) entities.Continent {
	t.Helper()
	res := f.continents.Create(f.ctx, repository.Data{"continentCode": code, "continentName": name})
	require.True(t, res.Success(), "create continent %s: %v", code, res.Err())
	return res.MustData()
}

func (f *fixture) country(t *testing.T, code, code3, name, continentID string) entities.Country {
	t.Helper()
	res := f.countries.Create(f.ctx, repository.Data{
		"countryCode":  code,
		"countryCode3": code3,
		"countryName":  name,
		"continentId":  continentID,
	})
	require.True(t, res.Success(), "create country %s: %v", code, res.Err())
	return res.MustData()
}

// northAmerica seeds NA with US, CA, MX and EU with FR
func (f *fixture) northAmerica(t *testing.T) (na, eu entities.Continent) {
	t.Helper()
	na = f.continent(t, "NA", "North America")
	eu = f.continent(t, "EU", "Europe")
	f.country(t, "US", "USA", "United States", na.ContinentID)
	f.country(t, "CA", "CAN", "Canada", na.ContinentID)
	f.country(t, "MX", "MEX", "Mexico", na.ContinentID)
	f.country(t, "FR", "FRA", "France", eu.ContinentID)
	return na, eu
}

func TestCreate(t *testing.T) {
	f := newFixture(t)

	t.Run("generates identifier", func(t *testing.T) {
		eu := f.continent(t, "EU", "Europe")
		assert.NotEmpty(t, eu.ContinentID)
		assert.Equal(t, "EU", eu.ContinentCode)
	})

	t.Run("keeps supplied identifier", func(t *testing.T) {
		res := f.continents.Create(f.ctx, repository.Data{
			"continentId":   "c-asia",
			"continentCode": "AS",
			"continentName": "Asia",
		})
		require.True(t, res.Success())
		assert.Equal(t, "c-asia", res.MustData().ContinentID)
	})

	t.Run("round trips optional fields", func(t *testing.T) {
		eu := f.continents.FindOne(f.ctx, repository.Criteria{"continentCode": "EU"}).MustData()
		res := f.countries.Create(f.ctx, repository.Data{
			"countryCode":  "DE",
			"countryCode3": "DEU",
			"countryName":  "Germany",
			"capital":      "Berlin",
			"continentId":  eu.ContinentID,
			"population":   83000000,
			"latitude":     "51.165691",
			"longitude":    10.451526,
		})
		require.True(t, res.Success(), "%v", res.Err())

		de := res.MustData()
		require.NotNil(t, de.Capital)
		assert.Equal(t, "Berlin", *de.Capital)
		require.NotNil(t, de.Population)
		assert.Equal(t, int64(83000000), *de.Population)
		require.NotNil(t, de.Latitude)
		assert.True(t, decimal.RequireFromString("51.165691").Equal(*de.Latitude))
		assert.Nil(t, de.Area)
		assert.Nil(t, de.CurrencyCode)
	})

	t.Run("unknown field is rejected", func(t *testing.T) {
		res := f.continents.Create(f.ctx, repository.Data{"continentCode": "OC", "continentName": "Oceania", "color": "blue"})
		assert.False(t, res.Success())
		assert.ErrorIs(t, res.Err(), repository.ErrUnknownField)
	})

	t.Run("missing required field is rejected", func(t *testing.T) {
		res := f.continents.Create(f.ctx, repository.Data{"continentCode": "OC"})
		assert.False(t, res.Success())
		assert.ErrorIs(t, res.Err(), interfaces.ErrInvalidQuery)
	})

	t.Run("duplicate unique field is a conflict", func(t *testing.T) {
		res := f.continents.Create(f.ctx, repository.Data{"continentCode": "EU", "continentName": "Europe again"})
		require.False(t, res.Success())
		assert.ErrorIs(t, res.Err(), interfaces.ErrUniqueConstraint)

		var conflict *repository.ConflictError
		require.ErrorAs(t, res.Err(), &conflict)
		assert.Equal(t, "continents", conflict.Table)
		assert.Contains(t, conflict.Fields, "continentCode")
	})

	t.Run("dangling reference is rejected", func(t *testing.T) {
		res := f.countries.Create(f.ctx, repository.Data{
			"countryCode":  "ZZ",
			"countryCode3": "ZZZ",
			"countryName":  "Nowhere",
			"continentId":  "missing",
		})
		assert.False(t, res.Success())
		assert.ErrorIs(t, res.Err(), interfaces.ErrForeignKeyConstraint)
	})
}

func TestFind(t *testing.T) {
	f := newFixture(t)
	na, _ := f.northAmerica(t)

	t.Run("find one", func(t *testing.T) {
		res := f.countries.FindOne(f.ctx, repository.Criteria{"countryCode": "CA"})
		require.True(t, res.Success())
		ca := res.MustData()
		require.NotNil(t, ca)
		assert.Equal(t, "Canada", ca.CountryName)
	})

	t.Run("find one absent is an empty success", func(t *testing.T) {
		res := f.countries.FindOne(f.ctx, repository.Criteria{"countryCode": "JP"})
		require.True(t, res.Success())
		assert.Nil(t, res.MustData())
	})

	t.Run("find one unknown field fails", func(t *testing.T) {
		res := f.countries.FindOne(f.ctx, repository.Criteria{"flag": "red"})
		assert.False(t, res.Success())
		assert.ErrorIs(t, res.Err(), repository.ErrUnknownField)
	})

	t.Run("find all", func(t *testing.T) {
		assert.Len(t, f.countries.FindAll(f.ctx).MustData(), 4)
	})

	t.Run("find where", func(t *testing.T) {
		items := f.countries.FindWhere(f.ctx, repository.Criteria{"continentId": na.ContinentID}).MustData()
		assert.Len(t, items, 3)
		for _, c := range items {
			assert.Equal(t, na.ContinentID, c.ContinentID)
		}
	})

	t.Run("list criteria match any element", func(t *testing.T) {
		items := f.countries.FindWhere(f.ctx, repository.Criteria{"countryCode": []string{"US", "FR", "JP"}}).MustData()
		codes := make([]string, 0, len(items))
		for _, c := range items {
			codes = append(codes, c.CountryCode)
		}
		assert.ElementsMatch(t, []string{"US", "FR"}, codes)
	})

	t.Run("empty list matches nothing", func(t *testing.T) {
		res := f.countries.FindWhere(f.ctx, repository.Criteria{"countryCode": []string{}})
		require.True(t, res.Success())
		assert.Empty(t, res.MustData())
	})

	t.Run("badly typed criteria fail", func(t *testing.T) {
		res := f.countries.FindWhere(f.ctx, repository.Criteria{"population": "many"})
		assert.False(t, res.Success())
		assert.ErrorIs(t, res.Err(), repository.ErrInvalidCriteria)
	})

	t.Run("count", func(t *testing.T) {
		n, err := f.countries.Count(f.ctx, repository.Criteria{"continentId": na.ContinentID})
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)

		n, err = f.countries.Count(f.ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(4), n)

		_, err = f.countries.Count(f.ctx, repository.Criteria{"nope": 1})
		assert.ErrorIs(t, err, repository.ErrUnknownField)
	})
}

func TestFindPaged(t *testing.T) {
	f := newFixture(t)
	na, _ := f.northAmerica(t)
	byNA := repository.Criteria{"continentId": na.ContinentID}

	t.Run("second page descending", func(t *testing.T) {
		res := f.countries.FindPaged(f.ctx, byNA, repository.PageRequest{
			PageNumber: 2, PageSize: 2, OrderBy: "countryName", OrderDesc: true,
		})
		require.True(t, res.Success(), "%v", res.Err())
		items := res.MustData()
		require.Len(t, items, 1)
		assert.Equal(t, "Canada", items[0].CountryName)
		assert.Equal(t, 2, res.CurrentPage())
		assert.Equal(t, 2, res.PageSize())
		assert.Equal(t, int64(3), res.TotalItems())
		assert.Equal(t, 2, res.TotalPages())
	})

	t.Run("first page ascending", func(t *testing.T) {
		res := f.countries.FindPaged(f.ctx, byNA, repository.PageRequest{
			PageNumber: 1, PageSize: 2, OrderBy: "countryName", OrderDesc: "false",
		})
		items := res.MustData()
		require.Len(t, items, 2)
		assert.Equal(t, "Canada", items[0].CountryName)
		assert.Equal(t, "Mexico", items[1].CountryName)
	})

	t.Run("defaults", func(t *testing.T) {
		res := f.countries.FindPaged(f.ctx, nil, repository.PageRequest{OrderBy: "countryCode", OrderDesc: "DESC"})
		require.True(t, res.Success())
		assert.Equal(t, 1, res.CurrentPage())
		assert.Equal(t, repository.DefaultPageSize, res.PageSize())
		items := res.MustData()
		require.Len(t, items, 4)
		assert.Equal(t, "US", items[0].CountryCode)
		assert.Equal(t, "CA", items[3].CountryCode)
	})

	t.Run("past the last page", func(t *testing.T) {
		res := f.countries.FindPaged(f.ctx, byNA, repository.PageRequest{PageNumber: 9, PageSize: 2, OrderBy: "countryName"})
		require.True(t, res.Success())
		assert.Empty(t, res.MustData())
		assert.Equal(t, int64(3), res.TotalItems())
	})

	t.Run("page beyond addressable offset", func(t *testing.T) {
		res := f.countries.FindPaged(f.ctx, byNA, repository.PageRequest{
			PageNumber: math.MaxInt/10 + 2, PageSize: 10, OrderBy: "countryName",
		})
		require.True(t, res.Success(), "%v", res.Err())
		assert.Empty(t, res.MustData())
		assert.Equal(t, math.MaxInt/10+2, res.CurrentPage())
		assert.Equal(t, int64(3), res.TotalItems())
		assert.Equal(t, 1, res.TotalPages())
	})

	t.Run("no order falls back to identifier", func(t *testing.T) {
		var ids []string
		for page := 1; page <= 2; page++ {
			res := f.countries.FindPaged(f.ctx, byNA, repository.PageRequest{PageNumber: page, PageSize: 2})
			require.True(t, res.Success(), "%v", res.Err())
			for _, c := range res.MustData() {
				ids = append(ids, c.CountryID)
			}
		}
		require.Len(t, ids, 3)
		assert.True(t, sort.StringsAreSorted(ids), "pages ordered by countryId: %v", ids)
	})

	t.Run("unknown order field", func(t *testing.T) {
		res := f.countries.FindPaged(f.ctx, byNA, repository.PageRequest{PageNumber: 2, PageSize: 2, OrderBy: "flag"})
		assert.False(t, res.Success())
		assert.ErrorIs(t, res.Err(), repository.ErrUnknownField)
		assert.Equal(t, 2, res.CurrentPage())
		assert.Equal(t, 2, res.PageSize())
	})
}

func TestCreateMany(t *testing.T) {
	f := newFixture(t)

	t.Run("stores all", func(t *testing.T) {
		res := f.continents.CreateMany(f.ctx, []repository.Data{
			{"continentCode": "AF", "continentName": "Africa"},
			{"continentCode": "AN", "continentName": "Antarctica"},
		})
		require.True(t, res.Success(), "%v", res.Err())
		assert.Len(t, res.MustData(), 2)
	})

	t.Run("a failing item stores nothing", func(t *testing.T) {
		res := f.continents.CreateMany(f.ctx, []repository.Data{
			{"continentCode": "SA", "continentName": "South America"},
			{"continentCode": "AF", "continentName": "Africa duplicate"},
		})
		require.False(t, res.Success())
		assert.ErrorIs(t, res.Err(), interfaces.ErrUniqueConstraint)

		sa := f.continents.FindOne(f.ctx, repository.Criteria{"continentCode": "SA"}).MustData()
		assert.Nil(t, sa)
		n, err := f.continents.Count(f.ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})

	t.Run("invalid item is rejected before writing", func(t *testing.T) {
		res := f.continents.CreateMany(f.ctx, []repository.Data{
			{"continentCode": "SA", "continentName": "South America"},
			{"continentCode": "XX"},
		})
		require.False(t, res.Success())
		assert.Contains(t, res.Err().Error(), "item 1")
	})

	t.Run("empty list", func(t *testing.T) {
		res := f.continents.CreateMany(f.ctx, nil)
		require.True(t, res.Success())
		assert.Empty(t, res.MustData())
	})
}

func TestUpdateWhere(t *testing.T) {
	f := newFixture(t)
	na, _ := f.northAmerica(t)

	t.Run("updates the single match", func(t *testing.T) {
		res := f.countries.UpdateWhere(f.ctx, repository.Criteria{"countryCode": "CA"}, repository.Data{"capital": "Ottawa"})
		require.True(t, res.Success(), "%v", res.Err())
		ca := res.MustData()
		require.NotNil(t, ca.Capital)
		assert.Equal(t, "Ottawa", *ca.Capital)
		assert.Equal(t, "Canada", ca.CountryName)
	})

	t.Run("no match", func(t *testing.T) {
		res := f.countries.UpdateWhere(f.ctx, repository.Criteria{"countryCode": "JP"}, repository.Data{"capital": "Tokyo"})
		assert.False(t, res.Success())
		assert.ErrorIs(t, res.Err(), interfaces.ErrNotFound)
	})

	t.Run("ambiguous criteria", func(t *testing.T) {
		res := f.countries.UpdateWhere(f.ctx, repository.Criteria{"continentId": na.ContinentID}, repository.Data{"capital": "?"})
		assert.False(t, res.Success())
		assert.ErrorIs(t, res.Err(), repository.ErrAmbiguousCriteria)
	})

	t.Run("identifier is immutable", func(t *testing.T) {
		res := f.countries.UpdateWhere(f.ctx, repository.Criteria{"countryCode": "MX"}, repository.Data{"countryId": "other"})
		assert.False(t, res.Success())
		assert.ErrorIs(t, res.Err(), repository.ErrImmutableID)
	})

	t.Run("empty patch returns the entity unchanged", func(t *testing.T) {
		res := f.countries.UpdateWhere(f.ctx, repository.Criteria{"countryCode": "MX"}, repository.Data{})
		require.True(t, res.Success())
		assert.Equal(t, "Mexico", res.MustData().CountryName)
	})

	t.Run("conflicting value", func(t *testing.T) {
		res := f.countries.UpdateWhere(f.ctx, repository.Criteria{"countryCode": "MX"}, repository.Data{"countryName": "Canada"})
		assert.False(t, res.Success())
		var conflict *repository.ConflictError
		assert.ErrorAs(t, res.Err(), &conflict)
	})

	t.Run("required field cannot be nulled", func(t *testing.T) {
		res := f.countries.UpdateWhere(f.ctx, repository.Criteria{"countryCode": "MX"}, repository.Data{"countryName": nil})
		assert.False(t, res.Success())
		assert.ErrorIs(t, res.Err(), interfaces.ErrInvalidQuery)
	})
}

func TestUpsertWhere(t *testing.T) {
	f := newFixture(t)

	res := f.continents.UpsertWhere(f.ctx, repository.Criteria{"continentCode": "OC"}, repository.Data{"continentName": "Oceania"})
	require.True(t, res.Success(), "%v", res.Err())
	created := res.MustData()
	assert.Equal(t, "OC", created.ContinentCode)
	assert.Equal(t, "Oceania", created.ContinentName)

	res = f.continents.UpsertWhere(f.ctx, repository.Criteria{"continentCode": "OC"}, repository.Data{"continentName": "Australia and Oceania"})
	require.True(t, res.Success(), "%v", res.Err())
	updated := res.MustData()
	assert.Equal(t, created.ContinentID, updated.ContinentID)
	assert.Equal(t, "Australia and Oceania", updated.ContinentName)

	n, err := f.continents.Count(f.ctx, repository.Criteria{"continentCode": "OC"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	t.Run("data overrides criteria on create", func(t *testing.T) {
		res := f.continents.UpsertWhere(f.ctx,
			repository.Criteria{"continentCode": "AN"},
			repository.Data{"continentCode": "AQ", "continentName": "Antarctica"})
		require.True(t, res.Success(), "%v", res.Err())
		assert.Equal(t, "AQ", res.MustData().ContinentCode)
	})

	t.Run("empty criteria", func(t *testing.T) {
		res := f.continents.UpsertWhere(f.ctx, nil, repository.Data{"continentName": "x"})
		assert.False(t, res.Success())
		assert.ErrorIs(t, res.Err(), repository.ErrEmptyCriteria)
	})

	t.Run("ambiguous criteria", func(t *testing.T) {
		f.continent(t, "EU", "Europe")
		res := f.continents.UpsertWhere(f.ctx,
			repository.Criteria{"continentCode": []string{"EU", "OC"}},
			repository.Data{"continentName": "x"})
		assert.False(t, res.Success())
		assert.ErrorIs(t, res.Err(), repository.ErrAmbiguousCriteria)
	})
}

func TestDeleteWhere(t *testing.T) {
	f := newFixture(t)
	na, eu := f.northAmerica(t)

	t.Run("referenced continent cannot be deleted", func(t *testing.T) {
		n, err := f.continents.DeleteWhere(f.ctx, repository.Criteria{"continentCode": "EU"})
		assert.ErrorIs(t, err, interfaces.ErrForeignKeyConstraint)
		assert.Zero(t, n)
	})

	t.Run("deletes matches", func(t *testing.T) {
		n, err := f.countries.DeleteWhere(f.ctx, repository.Criteria{"continentId": na.ContinentID})
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)

		left, err := f.countries.Count(f.ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(1), left)
	})

	t.Run("nothing matched", func(t *testing.T) {
		n, err := f.countries.DeleteWhere(f.ctx, repository.Criteria{"countryCode": "JP"})
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("clear", func(t *testing.T) {
		n, err := f.countries.Clear(f.ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = f.continents.DeleteWhere(f.ctx, repository.Criteria{"continentId": eu.ContinentID})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})
}

func TestRecordsOperations(t *testing.T) {
	f := newFixture(t)
	f.continent(t, "EU", "Europe")
	f.continents.FindOne(f.ctx, repository.Criteria{"bogus": 1})

	assert.Equal(t, []string{"continents.create:ok", "continents.find_one:fail"}, f.recorder.ops)
}

func TestWithSession(t *testing.T) {
	f := newFixture(t)
	f.continent(t, "EU", "Europe")

	err := f.session.Transaction(f.ctx, func(ctx context.Context, tx interfaces.Session) error {
		txRepo := f.continents.WithSession(tx)
		require.True(t, txRepo.Create(ctx, repository.Data{"continentCode": "AS", "continentName": "Asia"}).Success())
		return errors.New("abort")
	})
	require.Error(t, err)

	n, err := f.continents.Count(f.ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

// mockSession lets tests inject engine failures
type mockSession struct {
	mock.Mock
}

func (m *mockSession) Find(ctx context.Context, schema *interfaces.Schema, q *interfaces.Query) ([]interfaces.Row, error) {
	args := m.Called(ctx, schema, q)
	rows, _ := args.Get(0).([]interfaces.Row)
	return rows, args.Error(1)
}

func (m *mockSession) Count(ctx context.Context, schema *interfaces.Schema, where *interfaces.Filters) (int64, error) {
	args := m.Called(ctx, schema, where)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSession) Insert(ctx context.Context, schema *interfaces.Schema, row interfaces.Row) (interfaces.Row, error) {
	args := m.Called(ctx, schema, row)
	out, _ := args.Get(0).(interfaces.Row)
	return out, args.Error(1)
}

func (m *mockSession) Update(ctx context.Context, schema *interfaces.Schema, where *interfaces.Filters, patch interfaces.Row) (interfaces.Row, error) {
	args := m.Called(ctx, schema, where, patch)
	out, _ := args.Get(0).(interfaces.Row)
	return out, args.Error(1)
}

func (m *mockSession) Delete(ctx context.Context, schema *interfaces.Schema, where *interfaces.Filters) (int64, error) {
	args := m.Called(ctx, schema, where)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSession) Transaction(ctx context.Context, fn func(ctx context.Context, tx interfaces.Session) error) error {
	args := m.Called(ctx, fn)
	return args.Error(0)
}

func (m *mockSession) Fork(ctx context.Context) (interfaces.Session, error) {
	return m, nil
}

func (m *mockSession) Close() error {
	return nil
}

var _ interfaces.Session = (*mockSession)(nil)

func TestEngineFailures(t *testing.T) {
	ctx := context.Background()
	engineErr := &interfaces.DatabaseError{Op: "query", Err: errors.New("connection reset")}

	session := &mockSession{}
	session.On("Find", mock.Anything, entities.CountrySchema, mock.Anything).Return(nil, engineErr)
	session.On("Count", mock.Anything, entities.CountrySchema, mock.Anything).Return(int64(0), engineErr)
	session.On("Delete", mock.Anything, entities.CountrySchema, mock.Anything).Return(int64(0), engineErr)
	session.On("Transaction", mock.Anything, mock.Anything).Return(engineErr)

	repo := repository.New(session, countryMapping, nil, nil)

	one := repo.FindOne(ctx, repository.Criteria{"countryCode": "US"})
	assert.False(t, one.Success())
	assert.ErrorIs(t, one.Err(), engineErr)

	all := repo.FindAll(ctx)
	assert.False(t, all.Success())

	page := repo.FindPaged(ctx, nil, repository.PageRequest{PageNumber: 2, PageSize: 5})
	assert.False(t, page.Success())
	assert.Equal(t, 2, page.CurrentPage())

	_, err := repo.Count(ctx, nil)
	assert.ErrorIs(t, err, engineErr)

	n, err := repo.DeleteWhere(ctx, repository.Criteria{"countryCode": "US"})
	assert.ErrorIs(t, err, engineErr)
	assert.Zero(t, n)

	many := repo.CreateMany(ctx, []repository.Data{{
		"countryCode": "US", "countryCode3": "USA", "countryName": "United States", "continentId": "na",
	}})
	assert.False(t, many.Success())
	assert.ErrorIs(t, many.Err(), engineErr)

	upd := repo.UpdateWhere(ctx, repository.Criteria{"countryCode": "US"}, repository.Data{"capital": "DC"})
	assert.False(t, upd.Success())
	assert.ErrorIs(t, upd.Err(), engineErr)

	session.AssertExpectations(t)
}
