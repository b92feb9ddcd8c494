package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tipos de movimiento.
const (
	TipoEntrada = "ENTRADA"
	TipoSalida  = "SALIDA"
	TipoVenta   = "VENTA"
)

// Movimiento records one stock-affecting event. Editable while active;
// once Cancelado it is terminal.
// VENTA movements point at their sale through VentaID/VentaItemID.
type Movimiento struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ProductoID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	Tipo              string     `gorm:"type:varchar(10);not null;index"`
	Cantidad          int        `gorm:"not null"`
	Motivo            *string
	UsuarioID         *uuid.UUID `gorm:"type:uuid"`
	VentaID           *uuid.UUID `gorm:"type:uuid;index"`
	VentaItemID       *uuid.UUID `gorm:"type:uuid"`
	Cancelado         bool       `gorm:"not null;default:false;index"`
	MotivoCancelacion *string
	CanceladoAt       *time.Time
	CanceladoPorID    *uuid.UUID `gorm:"type:uuid"`
	CreatedAt         time.Time  `gorm:"index"`
	UpdatedAt         time.Time

	Producto *Producto `gorm:"foreignKey:ProductoID"`
	Usuario  *Usuario  `gorm:"foreignKey:UsuarioID"`
}

func (Movimiento) TableName() string { return "movimientos" }

func (m *Movimiento) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}

// EsTipoValido reports whether tipo is one of ENTRADA, SALIDA or VENTA.
func EsTipoValido(tipo string) bool {
	switch tipo {
	case TipoEntrada, TipoSalida, TipoVenta:
		return true
	}
	return false
}

// Efecto is the signed stock change of cantidad units of tipo.
func Efecto(tipo string, cantidad int) int {
	if tipo == TipoEntrada {
		return cantidad
	}
	return -cantidad
}
