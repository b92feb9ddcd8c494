package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Metodos de pago aceptados.
var MetodosPago = []string{"efectivo", "debito", "credito", "transferencia", "mercadopago"}

// Estados derivados de una venta.
const (
	EstadoCompletada = "completada"
	EstadoParcial    = "parcial"
	EstadoAnulada    = "anulada"
)

// Venta groups the VENTA movements of one checkout.
// Total is fixed at creation and never recomputed.
type Venta struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Numero          int64           `gorm:"uniqueIndex;not null"`
	Total           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MetodoPago      string          `gorm:"type:varchar(20);not null"`
	ClienteNombre   *string
	ClienteTelefono *string
	ClienteEmail    *string
	UsuarioID       *uuid.UUID `gorm:"type:uuid"`
	CreatedAt       time.Time  `gorm:"index"`

	Items       []VentaItem  `gorm:"foreignKey:VentaID"`
	Movimientos []Movimiento `gorm:"foreignKey:VentaID"`
	Usuario     *Usuario     `gorm:"foreignKey:UsuarioID"`
}

func (Venta) TableName() string { return "ventas" }

func (v *Venta) BeforeCreate(*gorm.DB) error {
	ensureID(&v.ID)
	return nil
}

// Estado derives the sale state from its movements (which must be loaded).
func (v *Venta) Estado() string {
	cancelados := 0
	for _, m := range v.Movimientos {
		if m.Cancelado {
			cancelados++
		}
	}
	switch {
	case cancelados == 0:
		return EstadoCompletada
	case cancelados == len(v.Movimientos):
		return EstadoAnulada
	default:
		return EstadoParcial
	}
}

// VentaItem is one line of a sale, priced at the moment of sale.
type VentaItem struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	VentaID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductoID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Cantidad   int             `gorm:"not null"`
	PrecioUnit decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Subtotal   decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

func (VentaItem) TableName() string { return "venta_items" }

func (i *VentaItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
