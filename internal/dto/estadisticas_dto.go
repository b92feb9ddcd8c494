package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// EstadisticasFilter bounds the dashboard to [desde, hasta] (whole days, UTC).
// Both default to the last 30 days.
type EstadisticasFilter struct {
	Desde time.Time `form:"desde" time_format:"2006-01-02" time_utc:"1"`
	Hasta time.Time `form:"hasta" time_format:"2006-01-02" time_utc:"1"`
	Top   int       `form:"top,default=5" validate:"min=1,max=50"`
}

type MetodoPagoTotal struct {
	MetodoPago string          `json:"metodo_pago"`
	Cantidad   int64           `json:"cantidad"`
	Total      decimal.Decimal `json:"total"`
}

type ProductoVendido struct {
	ProductoID string          `json:"producto_id"`
	Nombre     string          `json:"nombre"`
	Unidades   int64           `json:"unidades"`
	Total      decimal.Decimal `json:"total"`
}

type MovimientoTotal struct {
	Tipo     string `json:"tipo"`
	Cantidad int64  `json:"cantidad"`
	Unidades int64  `json:"unidades"`
}

type VentaDia struct {
	Fecha    string          `json:"fecha"`
	Cantidad int64           `json:"cantidad"`
	Total    decimal.Decimal `json:"total"`
}

type ResumenResponse struct {
	Desde              string            `json:"desde"`
	Hasta              string            `json:"hasta"`
	CantidadVentas     int64             `json:"cantidad_ventas"`
	Ingresos           decimal.Decimal   `json:"ingresos"`
	TicketPromedio     decimal.Decimal   `json:"ticket_promedio"`
	PorMetodoPago      []MetodoPagoTotal `json:"por_metodo_pago"`
	TopProductos       []ProductoVendido `json:"top_productos"`
	Movimientos        []MovimientoTotal `json:"movimientos"`
	ValorInventario    decimal.Decimal   `json:"valor_inventario"`
	ProductosBajoStock int64             `json:"productos_bajo_stock"`
	VentasPorDia       []VentaDia        `json:"ventas_por_dia"`
}
