package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// CrearProductoRequest creates a product. Stock > 0 is booked as an ENTRADA
// "Stock inicial" movement; StockMinimo defaults to 5.
type CrearProductoRequest struct {
	Codigo      *string         `json:"codigo"       validate:"omitempty,min=1,max=64"`
	Nombre      string          `json:"nombre"       validate:"required,min=2,max=120"`
	Descripcion *string         `json:"descripcion"  validate:"omitempty,max=1000"`
	CategoriaID *string         `json:"categoria_id" validate:"omitempty,uuid"`
	ProveedorID *string         `json:"proveedor_id" validate:"omitempty,uuid"`
	Precio      decimal.Decimal `json:"precio"       validate:"required,gt=0"`
	Stock       int             `json:"stock"        validate:"min=0"`
	StockMinimo *int            `json:"stock_minimo" validate:"omitempty,min=0"`
	ImagenURL   *string         `json:"imagen_url"   validate:"omitempty,url"`
}

// ActualizarProductoRequest updates catalog fields. Stock is only changed
// through movements.
type ActualizarProductoRequest struct {
	Codigo      *string          `json:"codigo"       validate:"omitempty,min=1,max=64"`
	Nombre      *string          `json:"nombre"       validate:"omitempty,min=2,max=120"`
	Descripcion *string          `json:"descripcion"  validate:"omitempty,max=1000"`
	CategoriaID *string          `json:"categoria_id" validate:"omitempty,uuid"`
	ProveedorID *string          `json:"proveedor_id" validate:"omitempty,uuid"`
	Precio      *decimal.Decimal `json:"precio"       validate:"omitempty,gt=0"`
	StockMinimo *int             `json:"stock_minimo" validate:"omitempty,min=0"`
	ImagenURL   *string          `json:"imagen_url"   validate:"omitempty,url"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type ProductoFilter struct {
	Nombre      string `form:"nombre"`
	Codigo      string `form:"codigo"`
	CategoriaID string `form:"categoria_id" validate:"omitempty,uuid"`
	ProveedorID string `form:"proveedor_id" validate:"omitempty,uuid"`
	Activo      string `form:"activo"` // "false" = inactivos, "all" = todos, default activos
	BajoStock   bool   `form:"bajo_stock"`
	Page        int    `form:"page,default=1"   validate:"min=1"`
	Limit       int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductoResponse struct {
	ID          string          `json:"id"`
	Codigo      *string         `json:"codigo"`
	Nombre      string          `json:"nombre"`
	Descripcion *string         `json:"descripcion"`
	CategoriaID *string         `json:"categoria_id"`
	Categoria   *string         `json:"categoria"`
	ProveedorID *string         `json:"proveedor_id"`
	Proveedor   *string         `json:"proveedor"`
	Precio      decimal.Decimal `json:"precio"`
	Stock       int             `json:"stock"`
	StockMinimo int             `json:"stock_minimo"`
	BajoStock   bool            `json:"bajo_stock"`
	ImagenURL   *string         `json:"imagen_url"`
	Activo      bool            `json:"activo"`
	CreatedAt   string          `json:"created_at"`
}

type ProductoListResponse struct {
	Data       []ProductoResponse `json:"data"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"total_pages"`
}

// ConsultaPreciosResponse is returned by the public price check endpoint (no auth required).
type ConsultaPreciosResponse struct {
	Codigo          string          `json:"codigo"`
	Nombre          string          `json:"nombre"`
	Precio          decimal.Decimal `json:"precio"`
	StockDisponible int             `json:"stock_disponible"`
	Categoria       *string         `json:"categoria"`
	ImagenURL       *string         `json:"imagen_url"`
}

// AlertaStockResponse lists a product at or below its minimum stock.
type AlertaStockResponse struct {
	ProductoID  string  `json:"producto_id"`
	Codigo      *string `json:"codigo"`
	Nombre      string  `json:"nombre"`
	Stock       int     `json:"stock"`
	StockMinimo int     `json:"stock_minimo"`
	Faltante    int     `json:"faltante"`
}
