// Package testutil provides an isolated in-memory database for tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/gonza-rom/jmr-stock-sub000/internal/infra"
	"github.com/gonza-rom/jmr-stock-sub000/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDB opens a fresh shared-cache SQLite database with the full schema.
// A single connection keeps the in-memory database alive and serialises
// transactions, so code under test must run every query of a transaction on tx.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), infra.GormConfig())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(model.All()...))
	return db
}

// CrearProducto inserts an active product with the given stock, bypassing the ledger.
func CrearProducto(t *testing.T, db *gorm.DB, nombre string, precio int64, stock int) *model.Producto {
	t.Helper()
	codigo := "COD-" + uuid.NewString()[:8]
	p := &model.Producto{
		Codigo:      &codigo,
		Nombre:      nombre,
		Precio:      decimal.NewFromInt(precio),
		Stock:       stock,
		StockMinimo: 2,
		Activo:      true,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

// CrearUsuario inserts an active user with an unusable password hash.
func CrearUsuario(t *testing.T, db *gorm.DB, rol string) *model.Usuario {
	t.Helper()
	u := &model.Usuario{
		Nombre:       "Usuario " + rol,
		Email:        rol + "-" + uuid.NewString()[:8] + "@jmr.test",
		PasswordHash: "x",
		Rol:          rol,
		Activo:       true,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// Stock reads the current stock of a product.
func Stock(t *testing.T, db *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var p model.Producto
	require.NoError(t, db.First(&p, "id = ?", id).Error)
	return p.Stock
}
