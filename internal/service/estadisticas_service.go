package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gonza-rom/jmr-stock-sub000/internal/apierror"
	"github.com/gonza-rom/jmr-stock-sub000/internal/dto"
	"github.com/gonza-rom/jmr-stock-sub000/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	diasResumenDefault = 30
	topDefault         = 5
	fechaDia           = "2006-01-02"
)

// EstadisticasService builds the admin dashboard.
type EstadisticasService interface {
	Resumen(ctx context.Context, filter dto.EstadisticasFilter) (*dto.ResumenResponse, error)
}

type estadisticasService struct {
	repo repository.EstadisticasRepository
	now  func() time.Time
}

func NewEstadisticasService(repo repository.EstadisticasRepository) EstadisticasService {
	return &estadisticasService{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// rango turns the inclusive day filter into a half-open interval. Missing
// bounds default to the last 30 days ending today.
func (s *estadisticasService) rango(f dto.EstadisticasFilter) (repository.Rango, error) {
	hasta := f.Hasta
	if hasta.IsZero() {
		hasta = s.now()
	}
	hasta = truncarDia(hasta)
	desde := f.Desde
	if desde.IsZero() {
		desde = hasta.AddDate(0, 0, -(diasResumenDefault - 1))
	}
	desde = truncarDia(desde)
	if desde.After(hasta) {
		return repository.Rango{}, apierror.InvalidInput("desde no puede ser posterior a hasta")
	}
	return repository.Rango{Desde: desde, Hasta: hasta.AddDate(0, 0, 1)}, nil
}

func truncarDia(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *estadisticasService) Resumen(ctx context.Context, filter dto.EstadisticasFilter) (*dto.ResumenResponse, error) {
	rg, err := s.rango(filter)
	if err != nil {
		return nil, err
	}
	top := filter.Top
	if top < 1 {
		top = topDefault
	}

	totales, err := s.repo.VentasTotales(ctx, rg)
	if err != nil {
		return nil, fmt.Errorf("ventas totales: %w", err)
	}
	metodos, err := s.repo.PorMetodoPago(ctx, rg)
	if err != nil {
		return nil, fmt.Errorf("ventas por metodo de pago: %w", err)
	}
	productos, err := s.repo.TopProductos(ctx, rg, top)
	if err != nil {
		return nil, fmt.Errorf("top productos: %w", err)
	}
	movs, err := s.repo.MovimientosPorTipo(ctx, rg)
	if err != nil {
		return nil, fmt.Errorf("movimientos por tipo: %w", err)
	}
	dias, err := s.repo.VentasPorDia(ctx, rg)
	if err != nil {
		return nil, fmt.Errorf("ventas por dia: %w", err)
	}
	inv, err := s.repo.Inventario(ctx)
	if err != nil {
		return nil, fmt.Errorf("inventario: %w", err)
	}

	resp := &dto.ResumenResponse{
		Desde:              rg.Desde.Format(fechaDia),
		Hasta:              rg.Hasta.AddDate(0, 0, -1).Format(fechaDia),
		CantidadVentas:     totales.Cantidad,
		Ingresos:           totales.Total,
		TicketPromedio:     decimal.Zero,
		PorMetodoPago:      make([]dto.MetodoPagoTotal, 0, len(metodos)),
		TopProductos:       make([]dto.ProductoVendido, 0, len(productos)),
		Movimientos:        make([]dto.MovimientoTotal, 0, len(movs)),
		ValorInventario:    inv.Valor,
		ProductosBajoStock: inv.BajoStock,
		VentasPorDia:       make([]dto.VentaDia, 0, len(dias)),
	}
	if totales.Cantidad > 0 {
		resp.TicketPromedio = totales.Total.Div(decimal.NewFromInt(totales.Cantidad)).Round(2)
	}
	for _, m := range metodos {
		resp.PorMetodoPago = append(resp.PorMetodoPago, dto.MetodoPagoTotal{
			MetodoPago: m.MetodoPago, Cantidad: m.Cantidad, Total: m.Total,
		})
	}
	for _, p := range productos {
		resp.TopProductos = append(resp.TopProductos, dto.ProductoVendido{
			ProductoID: p.ProductoID, Nombre: p.Nombre, Unidades: p.Unidades, Total: p.Total,
		})
	}
	for _, m := range movs {
		resp.Movimientos = append(resp.Movimientos, dto.MovimientoTotal{
			Tipo: m.Tipo, Cantidad: m.Cantidad, Unidades: m.Unidades,
		})
	}
	for _, d := range dias {
		resp.VentasPorDia = append(resp.VentasPorDia, dto.VentaDia{
			Fecha: d.Fecha, Cantidad: d.Cantidad, Total: d.Total,
		})
	}
	return resp, nil
}
