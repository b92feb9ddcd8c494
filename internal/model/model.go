// Package model holds the GORM entities persisted by the backend.
// Primary keys are generated in Go so the same models run on PostgreSQL and SQLite.
package model

import "github.com/google/uuid"

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All lists every entity, in dependency order, for AutoMigrate in tests.
func All() []any {
	return []any{
		&Usuario{},
		&Categoria{},
		&Proveedor{},
		&Producto{},
		&HistorialPrecio{},
		&Venta{},
		&VentaItem{},
		&Movimiento{},
	}
}
