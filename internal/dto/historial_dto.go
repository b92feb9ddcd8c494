package dto

import "github.com/shopspring/decimal"

// HistorialPrecioItem is one row in the price-history list.
type HistorialPrecioItem struct {
	ID            string          `json:"id"`
	ProductoID    string          `json:"producto_id"`
	PrecioViejo   decimal.Decimal `json:"precio_viejo"`
	PrecioNuevo   decimal.Decimal `json:"precio_nuevo"`
	UsuarioID     *string         `json:"usuario_id,omitempty"`
	UsuarioNombre *string         `json:"usuario_nombre,omitempty"`
	CreatedAt     string          `json:"created_at"`
}

// HistorialPrecioListResponse is returned by GET /v1/productos/:id/historial-precios.
type HistorialPrecioListResponse struct {
	Data  []HistorialPrecioItem `json:"data"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}
