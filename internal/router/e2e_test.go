//go:build integration

package router

// End-to-end tests against real Postgres and Redis via testcontainers.
// Run with: go test -tags integration ./internal/router/... -v

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gonza-rom/jmr-stock-sub000/internal/auth"
	"github.com/gonza-rom/jmr-stock-sub000/internal/config"
	"github.com/gonza-rom/jmr-stock-sub000/internal/infra"
	"github.com/gonza-rom/jmr-stock-sub000/internal/model"
	"github.com/gonza-rom/jmr-stock-sub000/internal/repository"
	"github.com/gonza-rom/jmr-stock-sub000/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

type e2eEnv struct {
	server *httptest.Server
	rdb    *redis.Client
	admin  string
}

func setupE2E(t *testing.T) *e2eEnv {
	t.Helper()
	ctx := context.Background()
	gin.SetMode(gin.TestMode)

	pgC, err := tcPostgres.Run(ctx, "postgres:16-alpine",
		tcPostgres.WithDatabase("jmr_test"),
		tcPostgres.WithUsername("jmr"),
		tcPostgres.WithPassword("jmr"),
		testcontainers.WithWaitStrategy(tcPostgres.BasicWaitStrategies()...),
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

	db, err := infra.NewDatabase(pgURL)
	require.NoError(t, err)
	rdb, err := infra.NewRedis(rdURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	admin := &model.Usuario{Nombre: "Admin E2E", Email: "admin@e2e.test", PasswordHash: "x", Rol: model.RolAdmin, Activo: true}
	require.NoError(t, repository.NewUsuarioRepository(db).Create(ctx, admin))

	authn := auth.NewAuthenticator("e2e-secret", time.Hour, 2*time.Hour)
	pair, err := authn.IssuePair(auth.Subject{ID: admin.ID, Email: admin.Email, Rol: admin.Rol})
	require.NoError(t, err)

	cfg := &config.Config{Env: "test", BusinessName: "JMR"}
	engine := New(cfg, Deps{
		DB:         db,
		Redis:      rdb,
		Authn:      authn,
		Dispatcher: worker.NewDispatcher(worker.NewRedisQueue(rdb)),
	})
	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)

	return &e2eEnv{server: srv, rdb: rdb, admin: pair.Access}
}

func (e *e2eEnv) do(t *testing.T, method, path string, body any, dest any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.admin)
	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if dest != nil {
		_ = json.NewDecoder(resp.Body).Decode(dest)
	}
	return resp.StatusCode
}

func TestE2EVentasConcurrentesNoSobrevenden(t *testing.T) {
	env := setupE2E(t)

	var prod map[string]any
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/v1/productos", map[string]any{
		"codigo": "MOCH-01", "nombre": "Mochila", "precio": 20000, "stock": 10, "stock_minimo": 2,
	}, &prod))
	productoID := prod["id"].(string)

	const intentos = 20
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		codes = map[int]int{}
	)
	for i := 0; i < intentos; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code := env.do(t, http.MethodPost, "/v1/ventas", map[string]any{
				"items":       []map[string]any{{"producto_id": productoID, "cantidad": 1}},
				"metodo_pago": "efectivo",
			}, nil)
			mu.Lock()
			codes[code]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, codes[http.StatusCreated])
	assert.Equal(t, 10, codes[http.StatusBadRequest])

	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/v1/productos/"+productoID, nil, &prod))
	assert.EqualValues(t, 0, prod["stock"])

	// Falling to the minimum queues alerts for the worker pool.
	n, err := env.rdb.LLen(context.Background(), worker.QueueAlertas).Result()
	require.NoError(t, err)
	assert.Positive(t, n)
}

func TestE2ECacheDePrecioSeInvalida(t *testing.T) {
	env := setupE2E(t)

	var prod map[string]any
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/v1/productos", map[string]any{
		"codigo": "BILL-01", "nombre": "Billetera", "precio": 8000, "stock": 4,
	}, &prod))

	var precio map[string]any
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/v1/precio/BILL-01", nil, &precio))
	assert.EqualValues(t, 4, precio["stock_disponible"])

	exists, err := env.rdb.Exists(context.Background(), "precio:BILL-01").Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, exists)

	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/v1/movimientos", map[string]any{
		"producto_id": prod["id"], "tipo": "ENTRADA", "cantidad": 6,
	}, nil))

	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/v1/precio/BILL-01", nil, &precio))
	assert.EqualValues(t, 10, precio["stock_disponible"])
}

func TestE2EEstadisticas(t *testing.T) {
	env := setupE2E(t)

	var prod map[string]any
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/v1/productos", map[string]any{
		"nombre": "Cinturon", "precio": 5000, "stock": 8,
	}, &prod))
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/v1/ventas", map[string]any{
		"items":       []map[string]any{{"producto_id": prod["id"], "cantidad": 3}},
		"metodo_pago": "debito",
	}, nil))

	var resumen map[string]any
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/v1/estadisticas/resumen", nil, &resumen))
	assert.EqualValues(t, 1, resumen["cantidad_ventas"])
	assert.Equal(t, "15000", resumen["ingresos"])
	assert.Equal(t, "25000", resumen["valor_inventario"])
}
