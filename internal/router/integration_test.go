//go:build integration

package router

// Runs the service against real Postgres and Redis via testcontainers.
// Run with: go test -tags integration ./internal/router/... -v

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"

	"github.com/vgl-spec/soil-sub000/internal/config"
	"github.com/vgl-spec/soil-sub000/internal/dto"
	"github.com/vgl-spec/soil-sub000/internal/infra"
	"github.com/vgl-spec/soil-sub000/internal/model"
)

func newPostgresEnv(t *testing.T, loginLimit int) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.Run(ctx, "postgres:16-alpine",
		tcPostgres.WithDatabase("inventory_test"),
		tcPostgres.WithUsername("inventory"),
		tcPostgres.WithPassword("inventory"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Env:            "test",
		DatabaseURL:    pgURL,
		DBMaxOpenConns: 10,
		DBMaxIdleConns: 2,
		RedisURL:       rdURL,
		LoginRateLimit: loginLimit,
		BcryptCost:     bcrypt.MinCost,
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)
	require.NoError(t, err)
	require.NoError(t, infra.RunMigrations(db))
	// Patches are idempotent.
	require.NoError(t, infra.RunMigrations(db))

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	return &testEnv{r: New(cfg, db, rdb), db: db, rdb: rdb}
}

func TestPostgres_ConcurrentReducersNeverGoNegative(t *testing.T) {
	e := newPostgresEnv(t, 0)
	_, _, pid := e.seedTomato(t)
	added := decode[envelope](t, e.do(t, http.MethodPost, "/items", map[string]any{"predefined_item_id": pid, "quantity": 10}))
	require.True(t, added.Success)

	const workers = 25
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := e.do(t, http.MethodPost, "/reduce_stock", map[string]any{"itemId": added.ID, "quantity": 1})
			if decode[envelope](t, w).Success {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	var it model.Item
	require.NoError(t, e.db.First(&it, added.ID).Error)
	assert.Zero(t, it.Quantity)

	check := decode[dto.LedgerCheckResponse](t, e.do(t, http.MethodGet, "/ledger_check", nil))
	assert.True(t, check.Consistent, "%+v", check.Mismatches)
}

func TestPostgres_CheckConstraintRejectsNegativeStock(t *testing.T) {
	e := newPostgresEnv(t, 0)
	_, _, pid := e.seedTomato(t)
	added := decode[envelope](t, e.do(t, http.MethodPost, "/items", map[string]any{"predefined_item_id": pid, "quantity": 1}))

	err := e.db.Model(&model.Item{}).Where("id = ?", added.ID).Update("quantity", -1).Error
	assert.Error(t, err)
}

func TestPostgres_ForceDeleteCascade(t *testing.T) {
	e := newPostgresEnv(t, 0)
	_, subID, pid := e.seedTomato(t)
	added := decode[envelope](t, e.do(t, http.MethodPost, "/items", map[string]any{"predefined_item_id": pid, "quantity": 4}))
	e.do(t, http.MethodPost, "/increase_stock", map[string]any{"itemId": added.ID, "quantity": 3, "harvestDate": "2024-05-01"})

	res := decode[deleteEnvelope](t, e.do(t, http.MethodPost, "/delete_subcategory", map[string]any{"subcategory_id": subID, "force_delete": true}))
	require.True(t, res.Success)
	assert.Equal(t, dto.DeleteResult{PredefinedItems: 1, Subcategories: 1, Items: 1, History: 2}, res.Deleted)

	var orphans int64
	require.NoError(t, e.db.Model(&model.ItemHistory{}).Count(&orphans).Error)
	assert.Zero(t, orphans)
}

func TestPostgres_LoginRateLimitSharedInRedis(t *testing.T) {
	e := newPostgresEnv(t, 3)

	for i := 0; i < 3; i++ {
		w := e.do(t, http.MethodPost, "/login", map[string]any{"username": "ghost", "password": "x"})
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := e.do(t, http.MethodPost, "/login", map[string]any{"username": "ghost", "password": "x"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	w = e.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	health := decode[map[string]any](t, w)
	assert.Equal(t, "connected", health["redis"])
}

func TestPostgres_ConcurrentFirstAddsShareOneRow(t *testing.T) {
	e := newPostgresEnv(t, 0)
	_, _, pid := e.seedTomato(t)

	const workers = 20
	var wg sync.WaitGroup
	results := make([]envelope, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = decode[envelope](t, e.do(t, http.MethodPost, "/items", map[string]any{"predefined_item_id": pid, "quantity": 2}))
		}(i)
	}
	wg.Wait()

	for _, res := range results {
		require.True(t, res.Success, res.Message)
		assert.Equal(t, results[0].ID, res.ID)
	}
	var rows []model.Item
	require.NoError(t, e.db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(2*workers), rows[0].Quantity)

	check := decode[dto.LedgerCheckResponse](t, e.do(t, http.MethodGet, "/ledger_check", nil))
	assert.True(t, check.Consistent, "%+v", check.Mismatches)
}

func TestPostgres_ConcurrentIncreasesAuditDistinctQuantities(t *testing.T) {
	e := newPostgresEnv(t, 0)
	_, _, pid := e.seedTomato(t)
	added := decode[envelope](t, e.do(t, http.MethodPost, "/items", map[string]any{"predefined_item_id": pid, "quantity": 1}))
	require.True(t, added.Success)

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.do(t, http.MethodPost, "/increase_stock", map[string]any{"itemId": added.ID, "quantity": 1})
		}()
	}
	wg.Wait()

	logs := decode[[]dto.ActionLogResponse](t, e.do(t, http.MethodGet, "/logs", nil))
	seen := map[int64]bool{}
	for _, l := range logs {
		if l.ActionType != model.ActionIncreaseStock {
			continue
		}
		_, after, found := strings.Cut(l.Description, "New quantity: ")
		require.True(t, found, l.Description)
		q, err := strconv.ParseInt(after, 10, 64)
		require.NoError(t, err)
		assert.False(t, seen[q], "quantity %d reported twice", q)
		seen[q] = true
	}
	assert.Len(t, seen, workers)
	for q := int64(2); q <= workers+1; q++ {
		assert.True(t, seen[q], "missing %d", q)
	}
}

func TestPostgres_LoginRateLimitRearmsMissingExpiry(t *testing.T) {
	e := newPostgresEnv(t, 3)
	ctx := context.Background()

	// httptest requests come from 192.0.2.1.
	key := "ratelimit:login:192.0.2.1"
	require.NoError(t, e.rdb.Set(ctx, key, 10, 0).Err())

	w := e.do(t, http.MethodPost, "/login", map[string]any{"username": "ghost", "password": "x"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	ttl, err := e.rdb.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)
}
