package settings

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Domenick1991/itinerary/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var vendors = []string{"sncf", "db"}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "a", "1"))
	require.NoError(t, store.Set(ctx, "a", "2"))
	require.NoError(t, store.Set(ctx, "b", "x"))

	value, ok, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2", value)

	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "2", "b": "x"}, all)
}

func TestOpenConcurrently(t *testing.T) {
	dir := t.TempDir()
	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store, err := Open(filepath.Join(dir, fmt.Sprintf("settings-%d.db", i)))
			if err == nil {
				err = store.Set(context.Background(), "k", "v")
				store.Close()
			}
			errs[i] = err
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "store %d", i)
	}
}

func TestToggleQueryLiveDataPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "settings.db")
	logger, _ := test.NewNullLogger()

	store, err := Open(path)
	require.NoError(t, err)
	svc := NewService(store, "de_DE", vendors, logger)

	enabled, err := svc.Bool(ctx, QueryLiveData)
	require.NoError(t, err)
	assert.False(t, enabled)

	enabled, err = svc.Toggle(ctx, QueryLiveData)
	require.NoError(t, err)
	assert.True(t, enabled)
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	enabled, err = NewService(reopened, "de_DE", vendors, logger).Bool(ctx, QueryLiveData)
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestDefaultsFromLocale(t *testing.T) {
	ctx := context.Background()
	logger, _ := test.NewNullLogger()

	tests := []struct {
		locale      string
		wantMetric  bool
		wantVisible bool
		wantCountry string
	}{
		{"de_DE.UTF-8", true, false, "DE"},
		{"en_US", false, true, "US"},
		{"en-GB", true, true, "GB"},
		{"my_MM", false, true, "MM"},
		{"C", true, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.locale, func(t *testing.T) {
			svc := NewService(openTestStore(t), tt.locale, vendors, logger)

			snap, err := svc.Snapshot(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMetric, snap.MetricUnits)
			assert.Equal(t, tt.wantVisible, snap.MetricUnitsVisible)
			assert.Equal(t, tt.wantCountry, snap.HomeCountry)
			assert.Equal(t, []string{"db", "sncf"}, snap.InformationSources)
			assert.True(t, snap.AutoAddTransfers)
			assert.False(t, snap.AutoFillTransfers)
		})
	}
}

func TestAutoFillTransfersFollowsPrerequisites(t *testing.T) {
	ctx := context.Background()
	logger, _ := test.NewNullLogger()
	svc := NewService(openTestStore(t), "de_DE", vendors, logger)

	require.NoError(t, svc.Set(ctx, AutoFillTransfers, "true"))
	snap, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.False(t, snap.AutoFillTransfers, "needs live data")

	require.NoError(t, svc.Set(ctx, QueryLiveData, "true"))
	require.NoError(t, svc.Set(ctx, AutoFillTransfers, "true"))
	snap, err = svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.True(t, snap.AutoFillTransfers)

	_, err = svc.Toggle(ctx, AutoAddTransfers)
	require.NoError(t, err)
	stored, err := svc.Bool(ctx, AutoFillTransfers)
	require.NoError(t, err)
	assert.False(t, stored)

	_, err = svc.Toggle(ctx, AutoAddTransfers)
	require.NoError(t, err)
	snap, err = svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.False(t, snap.AutoFillTransfers, "stays off after prerequisites return")
}

func TestSetValidation(t *testing.T) {
	ctx := context.Background()
	logger, hook := test.NewNullLogger()
	svc := NewService(openTestStore(t), "fr_FR", vendors, logger)

	tests := []struct {
		name    string
		key     Key
		value   string
		wantErr bool
	}{
		{"bool", WeatherForecastEnabled, "TRUE", false},
		{"bad bool", WeatherForecastEnabled, "yes please", true},
		{"sources", InformationSources, " SNCF ,sncf", false},
		{"unknown source", InformationSources, "db,amtrak", true},
		{"country", HomeCountry, "ch", false},
		{"bad country", HomeCountry, "CHE", true},
		{"unknown key", Key("font_size"), "12", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Set(ctx, tt.key, tt.value)
			if tt.wantErr {
				assert.True(t, domain.IsValidation(err), "got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}

	sources, err := svc.InformationSources(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"sncf"}, sources)

	enabled, err := svc.SourceEnabled(ctx, "db")
	require.NoError(t, err)
	assert.False(t, enabled)

	country, err := svc.Get(ctx, HomeCountry)
	require.NoError(t, err)
	assert.Equal(t, "CH", country)

	_, err = svc.Toggle(ctx, HomeCountry)
	assert.True(t, domain.IsValidation(err))

	assert.Len(t, hook.AllEntries(), 3)
}

func TestStoreErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(sqlx.NewDb(db, "sqlmock"))
	ctx := context.Background()

	t.Run("Set", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO settings`).
			WithArgs("query_live_data", "true", sqlmock.AnyArg()).
			WillReturnError(errors.New("disk I/O error"))

		err := store.Set(ctx, "query_live_data", "true")
		assert.ErrorContains(t, err, `set setting "query_live_data"`)
	})

	t.Run("Get", func(t *testing.T) {
		mock.ExpectQuery(`SELECT value FROM settings`).
			WithArgs("metric_units").
			WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("false"))

		value, ok, err := store.Get(ctx, "metric_units")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "false", value)
	})

	t.Run("All", func(t *testing.T) {
		mock.ExpectQuery(`SELECT key, value FROM settings`).
			WillReturnError(errors.New("database is locked"))

		_, err := store.All(ctx)
		assert.ErrorContains(t, err, "get all settings")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountryOf(t *testing.T) {
	assert.Equal(t, "DE", countryOf("de_DE.UTF-8"))
	assert.Equal(t, "US", countryOf("en-US"))
	assert.Equal(t, "RS", countryOf("sr_RS@latin"))
	assert.Equal(t, "", countryOf("POSIX"))
	assert.Equal(t, "", countryOf("zh_Hans"))
}
