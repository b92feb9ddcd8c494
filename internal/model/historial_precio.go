package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// HistorialPrecio registra cada cambio de precio de un producto.
// Los registros son inmutables: nunca se eliminan ni modifican.
type HistorialPrecio struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ProductoID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	PrecioViejo decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PrecioNuevo decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	UsuarioID   *uuid.UUID      `gorm:"type:uuid"`
	CreatedAt   time.Time

	Usuario *Usuario `gorm:"foreignKey:UsuarioID"`
}

func (HistorialPrecio) TableName() string { return "historial_precios" }

func (h *HistorialPrecio) BeforeCreate(*gorm.DB) error {
	ensureID(&h.ID)
	return nil
}
