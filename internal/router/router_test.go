package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gonza-rom/jmr-stock-sub000/internal/auth"
	"github.com/gonza-rom/jmr-stock-sub000/internal/config"
	"github.com/gonza-rom/jmr-stock-sub000/internal/model"
	"github.com/gonza-rom/jmr-stock-sub000/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiFixture struct {
	engine   *gin.Engine
	admin    string
	empleado string
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	authn := auth.NewAuthenticator("router-test", time.Hour, 2*time.Hour)
	cfg := &config.Config{Env: "test", CORSOrigins: []string{"*"}, BusinessName: "JMR"}

	token := func(rol string) string {
		u := testutil.CrearUsuario(t, db, rol)
		pair, err := authn.IssuePair(auth.Subject{ID: u.ID, Email: u.Email, Nombre: u.Nombre, Rol: u.Rol})
		require.NoError(t, err)
		return pair.Access
	}
	return &apiFixture{
		engine:   New(cfg, Deps{DB: db, Authn: authn}),
		admin:    token(model.RolAdmin),
		empleado: token(model.RolEmpleado),
	}
}

func (f *apiFixture) call(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)

	var out map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}

func TestHealthSinRedis(t *testing.T) {
	f := newAPI(t)
	w, body := f.call(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "connected", body["db"])
	assert.Equal(t, "disabled", body["redis"])
}

func TestAutenticacionYRoles(t *testing.T) {
	f := newAPI(t)

	w, _ := f.call(t, http.MethodGet, "/v1/productos", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = f.call(t, http.MethodGet, "/v1/productos", f.empleado, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = f.call(t, http.MethodPost, "/v1/productos", f.empleado, map[string]any{"nombre": "Cartera", "precio": 100})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = f.call(t, http.MethodGet, "/v1/estadisticas/resumen", f.empleado, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = f.call(t, http.MethodGet, "/v1/usuarios", f.empleado, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestLoginConUsuarioCreado(t *testing.T) {
	f := newAPI(t)

	w, _ := f.call(t, http.MethodPost, "/v1/usuarios", f.admin, map[string]any{
		"nombre": "Lucia", "email": "Lucia@JMR.test", "password": "secreta123", "rol": "empleado",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, _ = f.call(t, http.MethodPost, "/v1/auth/login", "", map[string]any{"email": "lucia@jmr.test", "password": "incorrecta"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, body := f.call(t, http.MethodPost, "/v1/auth/login", "", map[string]any{"email": "lucia@jmr.test", "password": "secreta123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	access, _ := body["access_token"].(string)
	require.NotEmpty(t, access)

	w, me := f.call(t, http.MethodGet, "/v1/auth/me", access, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "lucia@jmr.test", me["email"])
}

func TestFlujoDeStockPorHTTP(t *testing.T) {
	f := newAPI(t)

	w, prod := f.call(t, http.MethodPost, "/v1/productos", f.admin, map[string]any{
		"codigo": "CART-01", "nombre": "Cartera de cuero", "precio": 15000, "stock": 10,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	productoID := prod["id"].(string)
	assert.EqualValues(t, 10, prod["stock"])

	// Body validation
	w, _ = f.call(t, http.MethodPost, "/v1/movimientos", f.empleado, map[string]any{
		"producto_id": productoID, "tipo": "SALIDA", "cantidad": 0,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = f.call(t, http.MethodPost, "/v1/movimientos", f.empleado, map[string]any{
		"producto_id": productoID, "tipo": "VENTA", "cantidad": 1,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "VENTA movements only come from sales")

	w, mov := f.call(t, http.MethodPost, "/v1/movimientos", f.empleado, map[string]any{
		"producto_id": productoID, "tipo": "SALIDA", "cantidad": 3, "motivo": "muestra",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.EqualValues(t, 7, mov["stock_resultante"])
	movID := mov["id"].(string)

	w, errBody := f.call(t, http.MethodPost, "/v1/movimientos", f.empleado, map[string]any{
		"producto_id": productoID, "tipo": "SALIDA", "cantidad": 100,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, errBody["detail"])

	// Editing is admin only
	w, _ = f.call(t, http.MethodPut, "/v1/movimientos/"+movID, f.empleado, map[string]any{"cantidad": 5})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, mov = f.call(t, http.MethodPut, "/v1/movimientos/"+movID, f.admin, map[string]any{"cantidad": 5})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 5, mov["stock_resultante"])

	w, venta := f.call(t, http.MethodPost, "/v1/ventas", f.empleado, map[string]any{
		"items":       []map[string]any{{"producto_id": productoID, "cantidad": 2}},
		"metodo_pago": "efectivo",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	ventaID := venta["id"].(string)
	assert.Equal(t, "30000", venta["total"])

	w, _ = f.call(t, http.MethodGet, "/v1/ventas/"+ventaID+"/ticket", f.empleado, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	w, precio := f.call(t, http.MethodGet, "/v1/precio/CART-01", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 3, precio["stock_disponible"])

	// Stock 3 is below the default minimum of 5.
	req := httptest.NewRequest(http.MethodGet, "/v1/inventario/alertas", nil)
	req.Header.Set("Authorization", "Bearer "+f.empleado)
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var alertas []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &alertas))
	require.Len(t, alertas, 1)
	assert.Equal(t, productoID, alertas[0]["producto_id"])
	assert.EqualValues(t, 2, alertas[0]["faltante"])

	w, venta = f.call(t, http.MethodPost, "/v1/ventas/"+ventaID+"/anular", f.admin, map[string]any{"motivo": "devolucion"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, model.EstadoAnulada, venta["estado"])

	w, _ = f.call(t, http.MethodPost, "/v1/ventas/"+ventaID+"/anular", f.admin, map[string]any{"motivo": "otra vez"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, prod = f.call(t, http.MethodGet, "/v1/productos/"+productoID, f.empleado, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 5, prod["stock"])

	w, lista := f.call(t, http.MethodGet, fmt.Sprintf("/v1/movimientos?producto_id=%s&cancelado=all", productoID), f.empleado, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 3, lista["total"], "stock inicial, salida, venta")
}

func TestErroresDeDominio(t *testing.T) {
	f := newAPI(t)

	w, body := f.call(t, http.MethodGet, "/v1/productos/no-es-uuid", f.empleado, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ID invalido", body["detail"])

	w, _ = f.call(t, http.MethodGet, "/v1/movimientos/7b1c2a9e-3f1d-4a53-9d0e-000000000000", f.empleado, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = f.call(t, http.MethodPost, "/v1/categorias", f.admin, map[string]any{"nombre": "Bolsos"})
	require.Equal(t, http.StatusCreated, w.Code)
	w, _ = f.call(t, http.MethodPost, "/v1/categorias", f.admin, map[string]any{"nombre": "bolsos"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = f.call(t, http.MethodGet, "/v1/precio/NO-EXISTE", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEntradasInvalidasDevuelven400(t *testing.T) {
	f := newAPI(t)
	w, prod := f.call(t, http.MethodPost, "/v1/productos", f.admin, map[string]any{"nombre": "Morral", "precio": 9000, "stock": 4})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	productoID := prod["id"].(string)

	cases := []struct {
		name string
		path string
		body map[string]any
	}{
		{"cantidad cero", "/v1/movimientos", map[string]any{"producto_id": productoID, "tipo": "SALIDA", "cantidad": 0}},
		{"cantidad negativa", "/v1/movimientos", map[string]any{"producto_id": productoID, "tipo": "ENTRADA", "cantidad": -2}},
		{"tipo desconocido", "/v1/movimientos", map[string]any{"producto_id": productoID, "tipo": "BOGUS", "cantidad": 1}},
		{"sin producto", "/v1/movimientos", map[string]any{"tipo": "ENTRADA", "cantidad": 1}},
		{"item de venta en cero", "/v1/ventas", map[string]any{
			"items":       []map[string]any{{"producto_id": productoID, "cantidad": 0}},
			"metodo_pago": "efectivo",
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, body := f.call(t, http.MethodPost, tc.path, f.empleado, tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "Error de validacion", body["detail"])
			assert.NotEmpty(t, body["fields"])
		})
	}

	w, prod = f.call(t, http.MethodGet, "/v1/productos/"+productoID, f.empleado, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 4, prod["stock"])
}
