package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Rango is a half-open [Desde, Hasta) interval on created_at.
type Rango struct {
	Desde time.Time
	Hasta time.Time
}

type VentasTotales struct {
	Cantidad int64
	Total    decimal.Decimal
}

type MetodoPagoRow struct {
	MetodoPago string
	Cantidad   int64
	Total      decimal.Decimal
}

type ProductoVendidoRow struct {
	ProductoID string
	Nombre     string
	Unidades   int64
	Total      decimal.Decimal
}

type MovimientoTipoRow struct {
	Tipo     string
	Cantidad int64
	Unidades int64
}

type VentaDiaRow struct {
	Fecha    string
	Cantidad int64
	Total    decimal.Decimal
}

type InventarioRow struct {
	Valor     decimal.Decimal
	BajoStock int64
}

// EstadisticasRepository runs the dashboard aggregates. Every sales figure
// joins venta_items to their VENTA movement and skips cancelled ones, so a
// partially cancelled sale only counts its surviving lines.
type EstadisticasRepository interface {
	VentasTotales(ctx context.Context, r Rango) (VentasTotales, error)
	PorMetodoPago(ctx context.Context, r Rango) ([]MetodoPagoRow, error)
	TopProductos(ctx context.Context, r Rango, limit int) ([]ProductoVendidoRow, error)
	MovimientosPorTipo(ctx context.Context, r Rango) ([]MovimientoTipoRow, error)
	VentasPorDia(ctx context.Context, r Rango) ([]VentaDiaRow, error)
	Inventario(ctx context.Context) (InventarioRow, error)
}

type estadisticasRepo struct {
	db      *gorm.DB
	builder squirrel.StatementBuilderType
}

// NewEstadisticasRepository builds queries with "?" placeholders; GORM rebinds
// them for the active dialect.
func NewEstadisticasRepository(db *gorm.DB) EstadisticasRepository {
	return &estadisticasRepo{db: db, builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)}
}

// ventasActivas selects from sale lines whose movement is still active.
func (r *estadisticasRepo) ventasActivas(rg Rango, columns ...string) squirrel.SelectBuilder {
	return r.builder.Select(columns...).
		From("venta_items vi").
		Join("ventas v ON v.id = vi.venta_id").
		Join("movimientos m ON m.venta_item_id = vi.id AND m.cancelado = ?", false).
		Where(squirrel.GtOrEq{"v.created_at": rg.Desde}).
		Where(squirrel.Lt{"v.created_at": rg.Hasta})
}

func (r *estadisticasRepo) scan(ctx context.Context, q squirrel.Sqlizer, dest any) error {
	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return r.db.WithContext(ctx).Raw(query, args...).Scan(dest).Error
}

func (r *estadisticasRepo) VentasTotales(ctx context.Context, rg Rango) (VentasTotales, error) {
	var out VentasTotales
	q := r.ventasActivas(rg,
		"COUNT(DISTINCT v.id) AS cantidad",
		"COALESCE(SUM(vi.subtotal), 0) AS total",
	)
	err := r.scan(ctx, q, &out)
	return out, err
}

func (r *estadisticasRepo) PorMetodoPago(ctx context.Context, rg Rango) ([]MetodoPagoRow, error) {
	var rows []MetodoPagoRow
	q := r.ventasActivas(rg,
		"v.metodo_pago AS metodo_pago",
		"COUNT(DISTINCT v.id) AS cantidad",
		"COALESCE(SUM(vi.subtotal), 0) AS total",
	).GroupBy("v.metodo_pago").OrderBy("total DESC", "v.metodo_pago")
	err := r.scan(ctx, q, &rows)
	return rows, err
}

// TopProductos ranks by units that actually left stock (the movement
// quantity, which edits may have changed), revenue by the frozen subtotal.
func (r *estadisticasRepo) TopProductos(ctx context.Context, rg Rango, limit int) ([]ProductoVendidoRow, error) {
	var rows []ProductoVendidoRow
	q := r.ventasActivas(rg,
		"p.id AS producto_id",
		"p.nombre AS nombre",
		"COALESCE(SUM(m.cantidad), 0) AS unidades",
		"COALESCE(SUM(vi.subtotal), 0) AS total",
	).Join("productos p ON p.id = vi.producto_id").
		GroupBy("p.id", "p.nombre").
		OrderBy("unidades DESC", "p.nombre").
		Limit(uint64(limit))
	err := r.scan(ctx, q, &rows)
	return rows, err
}

func (r *estadisticasRepo) MovimientosPorTipo(ctx context.Context, rg Rango) ([]MovimientoTipoRow, error) {
	var rows []MovimientoTipoRow
	q := r.builder.Select(
		"tipo",
		"COUNT(*) AS cantidad",
		"COALESCE(SUM(cantidad), 0) AS unidades",
	).From("movimientos").
		Where(squirrel.Eq{"cancelado": false}).
		Where(squirrel.GtOrEq{"created_at": rg.Desde}).
		Where(squirrel.Lt{"created_at": rg.Hasta}).
		GroupBy("tipo").
		OrderBy("tipo")
	err := r.scan(ctx, q, &rows)
	return rows, err
}

func (r *estadisticasRepo) VentasPorDia(ctx context.Context, rg Rango) ([]VentaDiaRow, error) {
	var rows []VentaDiaRow
	q := r.ventasActivas(rg,
		"DATE(v.created_at) AS fecha",
		"COUNT(DISTINCT v.id) AS cantidad",
		"COALESCE(SUM(vi.subtotal), 0) AS total",
	).GroupBy("DATE(v.created_at)").OrderBy("fecha")
	if err := r.scan(ctx, q, &rows); err != nil {
		return nil, err
	}
	// PostgreSQL hands DATE back as a timestamp, SQLite as text.
	for i := range rows {
		if len(rows[i].Fecha) > 10 {
			rows[i].Fecha = rows[i].Fecha[:10]
		}
	}
	return rows, nil
}

func (r *estadisticasRepo) Inventario(ctx context.Context) (InventarioRow, error) {
	var out InventarioRow
	q := r.builder.Select(
		"COALESCE(SUM(stock * precio), 0) AS valor",
		"COALESCE(SUM(CASE WHEN stock <= stock_minimo THEN 1 ELSE 0 END), 0) AS bajo_stock",
	).From("productos").
		Where(squirrel.Eq{"activo": true})
	err := r.scan(ctx, q, &out)
	return out, err
}
