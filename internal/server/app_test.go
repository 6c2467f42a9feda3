package server

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/recviewer/internal/objectstore"
	"github.com/dmitrijs2005/recviewer/internal/server/config"
	"github.com/dmitrijs2005/recviewer/internal/server/prefixindex"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.StoreBackend = config.StoreMemory
	c.HTTPAddr = "127.0.0.1:0"
	c.GRPCAddr = "127.0.0.1:0"
	c.LogLevel = "error"
	return c
}

func TestNewApp_MemoryBackendServesHealth(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/organizations/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestNewApp_InvalidConfig(t *testing.T) {
	c := testConfig()
	c.StoreBackend = "tape"
	_, err := NewApp(context.Background(), c)
	assert.ErrorContains(t, err, "unknown store backend")

	c = testConfig()
	c.TimestampSource = "sundial"
	_, err = NewApp(context.Background(), c)
	assert.ErrorContains(t, err, "unknown timestamp source")
}

func TestNewApp_S3Backend(t *testing.T) {
	orig := newS3Store
	t.Cleanup(func() { newS3Store = orig })

	var got objectstore.S3Config
	newS3Store = func(_ context.Context, c objectstore.S3Config) (objectstore.Store, error) {
		got = c
		return objectstore.NewMemoryStore(c.Bucket), nil
	}

	c := testConfig()
	c.StoreBackend = config.StoreS3
	_, err := NewApp(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, objectstore.S3Config{
		Bucket:       "recordings",
		Region:       "us-east-1",
		BaseEndpoint: "http://127.0.0.1:9000/",
		AccessKey:    "admin",
		SecretKey:    "secretpassword",
		UsePathStyle: true,
	}, got)

	newS3Store = func(context.Context, objectstore.S3Config) (objectstore.Store, error) {
		return nil, errors.New("no credentials")
	}
	_, err = NewApp(context.Background(), c)
	assert.ErrorContains(t, err, "object store init error")
}

func TestNewApp_PostgresIndex(t *testing.T) {
	origOpen, origMigrate := openIndexDB, migrate
	t.Cleanup(func() { openIndexDB, migrate = origOpen, origMigrate })

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	openIndexDB = func(context.Context, string) (*sql.DB, error) { return db, nil }
	migrated := false
	migrate = func(context.Context, *prefixindex.PostgresIndex) error {
		migrated = true
		return nil
	}

	c := testConfig()
	c.DatabaseDSN = "postgres://viewer@localhost/viewer"
	app, err := NewApp(context.Background(), c)
	require.NoError(t, err)
	assert.True(t, migrated)
	assert.Same(t, db, app.db)

	mock.ExpectClose()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, app.Run(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewApp_MigrationFailureClosesDB(t *testing.T) {
	origOpen, origMigrate := openIndexDB, migrate
	t.Cleanup(func() { openIndexDB, migrate = origOpen, origMigrate })

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()
	openIndexDB = func(context.Context, string) (*sql.DB, error) { return db, nil }
	migrate = func(context.Context, *prefixindex.PostgresIndex) error { return errors.New("locked") }

	c := testConfig()
	c.DatabaseDSN = "postgres://x"
	_, err = NewApp(context.Background(), c)
	assert.ErrorContains(t, err, "db migration error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	select {
	case err := <-done:
		t.Fatalf("app exited early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop after cancel")
	}
}

func TestRun_BadAddressFails(t *testing.T) {
	c := testConfig()
	c.HTTPAddr = "127.0.0.1:99999"
	app, err := NewApp(context.Background(), c)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- app.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("a failing server must stop the app")
	}
}

func TestSplitOrigins(t *testing.T) {
	assert.Equal(t, []string{"http://a", "https://b"}, splitOrigins(" http://a, ,https://b "))
	assert.Nil(t, splitOrigins(""))
}
