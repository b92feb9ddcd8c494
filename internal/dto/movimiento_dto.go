package dto

import "time"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// CrearMovimientoRequest is the body of POST /v1/movimientos. VENTA movements
// are only created through sales.
type CrearMovimientoRequest struct {
	ProductoID string     `json:"producto_id" validate:"required,uuid"`
	Tipo       string     `json:"tipo"        validate:"required,oneof=ENTRADA SALIDA"`
	Cantidad   int        `json:"cantidad"    validate:"required,min=1"`
	Motivo     *string    `json:"motivo"      validate:"omitempty,max=255"`
	Fecha      *time.Time `json:"fecha"`
}

type EditarMovimientoRequest struct {
	Cantidad int        `json:"cantidad" validate:"required,min=1"`
	Motivo   *string    `json:"motivo"   validate:"omitempty,max=255"`
	Fecha    *time.Time `json:"fecha"`
}

// CancelarMovimientoRequest carries the cancellation reason; emptiness is
// rejected by the ledger so the error kind stays InvalidInput.
type CancelarMovimientoRequest struct {
	Motivo string `json:"motivo" validate:"max=255"`
}

// ─── Filter ──────────────────────────────────────────────────────────────────

type MovimientoFilter struct {
	ProductoID string    `form:"producto_id" validate:"omitempty,uuid"`
	Tipo       string    `form:"tipo"        validate:"omitempty,oneof=ENTRADA SALIDA VENTA"`
	Cancelado  string    `form:"cancelado"   validate:"omitempty,oneof=true false all"`
	Desde      time.Time `form:"desde" time_format:"2006-01-02" time_utc:"1"`
	Hasta      time.Time `form:"hasta" time_format:"2006-01-02" time_utc:"1"`
	Page       int       `form:"page,default=1"   validate:"min=1"`
	Limit      int       `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type MovimientoResponse struct {
	ID                string  `json:"id"`
	ProductoID        string  `json:"producto_id"`
	Producto          string  `json:"producto"`
	Tipo              string  `json:"tipo"`
	Cantidad          int     `json:"cantidad"`
	Efecto            int     `json:"efecto"`
	Motivo            *string `json:"motivo"`
	UsuarioID         *string `json:"usuario_id"`
	VentaID           *string `json:"venta_id"`
	Cancelado         bool    `json:"cancelado"`
	MotivoCancelacion *string `json:"motivo_cancelacion"`
	CanceladoAt       *string `json:"cancelado_at"`
	CanceladoPorID    *string `json:"cancelado_por_id"`
	CreatedAt         string  `json:"created_at"`
	// StockResultante is the product stock right after the operation; only set on writes.
	StockResultante *int `json:"stock_resultante,omitempty"`
}

type MovimientoListResponse struct {
	Data  []MovimientoResponse `json:"data"`
	Total int64                `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
}
