package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Filter / List ──────────────────────────────────────────────────────────

// VentaFilter is bound from query string of GET /v1/ventas.
type VentaFilter struct {
	Desde      time.Time `form:"desde" time_format:"2006-01-02" time_utc:"1"`
	Hasta      time.Time `form:"hasta" time_format:"2006-01-02" time_utc:"1"`
	MetodoPago string    `form:"metodo_pago" validate:"omitempty,oneof=efectivo debito credito transferencia mercadopago"`
	Page       int       `form:"page,default=1"   validate:"min=1"`
	Limit      int       `form:"limit,default=50" validate:"min=1,max=200"`
}

type VentaListResponse struct {
	Data  []VentaResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ItemVentaRequest struct {
	ProductoID string `json:"producto_id" validate:"required,uuid"`
	Cantidad   int    `json:"cantidad"    validate:"required,min=1"`
}

type RegistrarVentaRequest struct {
	Items           []ItemVentaRequest `json:"items"            validate:"required,min=1,dive"`
	MetodoPago      string             `json:"metodo_pago"      validate:"required,oneof=efectivo debito credito transferencia mercadopago"`
	ClienteNombre   *string            `json:"cliente_nombre"   validate:"omitempty,max=120"`
	ClienteTelefono *string            `json:"cliente_telefono" validate:"omitempty,max=40"`
	ClienteEmail    *string            `json:"cliente_email"    validate:"omitempty,email"`
	Fecha           *time.Time         `json:"fecha"`
}

type AnularVentaRequest struct {
	Motivo string `json:"motivo" validate:"max=255"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ItemVentaResponse struct {
	ProductoID     string          `json:"producto_id"`
	Producto       string          `json:"producto"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Cancelado      bool            `json:"cancelado"`
}

type VentaResponse struct {
	ID              string              `json:"id"`
	Numero          int64               `json:"numero"`
	Items           []ItemVentaResponse `json:"items"`
	Total           decimal.Decimal     `json:"total"`
	MetodoPago      string              `json:"metodo_pago"`
	ClienteNombre   *string             `json:"cliente_nombre"`
	ClienteTelefono *string             `json:"cliente_telefono"`
	ClienteEmail    *string             `json:"cliente_email"`
	UsuarioID       *string             `json:"usuario_id"`
	Estado          string              `json:"estado"`
	CreatedAt       string              `json:"created_at"`
}
