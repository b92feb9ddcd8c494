package service

import (
	"context"
	"errors"
	"time"

	"github.com/gonza-rom/jmr-stock-sub000/internal/apierror"
	"github.com/gonza-rom/jmr-stock-sub000/internal/dto"
	"github.com/gonza-rom/jmr-stock-sub000/internal/model"
	"github.com/gonza-rom/jmr-stock-sub000/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventarioService exposes stock movements and low-stock alerts. Every
// write goes through the StockLedger.
type InventarioService interface {
	RegistrarMovimiento(ctx context.Context, usuarioID *uuid.UUID, req dto.CrearMovimientoRequest) (*dto.MovimientoResponse, error)
	EditarMovimiento(ctx context.Context, id uuid.UUID, usuarioID *uuid.UUID, req dto.EditarMovimientoRequest) (*dto.MovimientoResponse, error)
	CancelarMovimiento(ctx context.Context, id uuid.UUID, usuarioID *uuid.UUID, motivo string) (*dto.MovimientoResponse, error)
	ObtenerMovimiento(ctx context.Context, id uuid.UUID) (*dto.MovimientoResponse, error)
	ListarMovimientos(ctx context.Context, filter dto.MovimientoFilter) (*dto.MovimientoListResponse, error)
	ObtenerAlertas(ctx context.Context) ([]dto.AlertaStockResponse, error)
}

type inventarioService struct {
	repo        repository.ProductoRepository
	movimientos repository.MovimientoRepository
	ledger      StockLedger
}

func NewInventarioService(repo repository.ProductoRepository, movimientos repository.MovimientoRepository, ledger StockLedger) InventarioService {
	return &inventarioService{repo: repo, movimientos: movimientos, ledger: ledger}
}

func uuidPtrString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func mapMovimiento(m *model.Movimiento) *dto.MovimientoResponse {
	resp := &dto.MovimientoResponse{
		ID:                m.ID.String(),
		ProductoID:        m.ProductoID.String(),
		Tipo:              m.Tipo,
		Cantidad:          m.Cantidad,
		Efecto:            model.Efecto(m.Tipo, m.Cantidad),
		Motivo:            m.Motivo,
		UsuarioID:         uuidPtrString(m.UsuarioID),
		VentaID:           uuidPtrString(m.VentaID),
		Cancelado:         m.Cancelado,
		MotivoCancelacion: m.MotivoCancelacion,
		CanceladoPorID:    uuidPtrString(m.CanceladoPorID),
		CreatedAt:         m.CreatedAt.Format(time.RFC3339),
	}
	if m.Producto != nil {
		resp.Producto = m.Producto.Nombre
	}
	if m.CanceladoAt != nil {
		at := m.CanceladoAt.Format(time.RFC3339)
		resp.CanceladoAt = &at
	}
	return resp
}

// conStock adds the post-operation stock carried by a ledger result.
func conStock(m *model.Movimiento) *dto.MovimientoResponse {
	resp := mapMovimiento(m)
	if m.Producto != nil {
		stock := m.Producto.Stock
		resp.StockResultante = &stock
	}
	return resp
}

func (s *inventarioService) RegistrarMovimiento(ctx context.Context, usuarioID *uuid.UUID, req dto.CrearMovimientoRequest) (*dto.MovimientoResponse, error) {
	pid, err := uuid.Parse(req.ProductoID)
	if err != nil {
		return nil, apierror.InvalidInput("producto_id invalido")
	}
	m, err := s.ledger.Registrar(ctx, RegistrarMovimientoInput{
		ProductoID: pid,
		Tipo:       req.Tipo,
		Cantidad:   req.Cantidad,
		Fecha:      req.Fecha,
		Motivo:     req.Motivo,
		UsuarioID:  usuarioID,
	})
	if err != nil {
		return nil, err
	}
	return conStock(m), nil
}

func (s *inventarioService) EditarMovimiento(ctx context.Context, id uuid.UUID, usuarioID *uuid.UUID, req dto.EditarMovimientoRequest) (*dto.MovimientoResponse, error) {
	m, err := s.ledger.Editar(ctx, id, EditarMovimientoInput{
		Cantidad:  req.Cantidad,
		Motivo:    req.Motivo,
		Fecha:     req.Fecha,
		UsuarioID: usuarioID,
	})
	if err != nil {
		return nil, err
	}
	return conStock(m), nil
}

func (s *inventarioService) CancelarMovimiento(ctx context.Context, id uuid.UUID, usuarioID *uuid.UUID, motivo string) (*dto.MovimientoResponse, error) {
	m, err := s.ledger.Cancelar(ctx, id, motivo, usuarioID)
	if err != nil {
		return nil, err
	}
	return conStock(m), nil
}

func (s *inventarioService) ObtenerMovimiento(ctx context.Context, id uuid.UUID) (*dto.MovimientoResponse, error) {
	m, err := s.movimientos.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("movimiento no encontrado")
		}
		return nil, err
	}
	return mapMovimiento(m), nil
}

// ListarMovimientos lists newest first. Hasta is inclusive of the whole day;
// by default only active movements are returned.
func (s *inventarioService) ListarMovimientos(ctx context.Context, filter dto.MovimientoFilter) (*dto.MovimientoListResponse, error) {
	f := repository.MovimientoFilter{
		Tipo:  filter.Tipo,
		Desde: filter.Desde,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	if filter.ProductoID != "" {
		pid, err := uuid.Parse(filter.ProductoID)
		if err != nil {
			return nil, apierror.InvalidInput("producto_id invalido")
		}
		f.ProductoID = &pid
	}
	switch filter.Cancelado {
	case "all":
	case "true":
		t := true
		f.Cancelado = &t
	default:
		c := false
		f.Cancelado = &c
	}
	if !filter.Hasta.IsZero() {
		f.Hasta = filter.Hasta.AddDate(0, 0, 1)
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 50
	}

	movs, total, err := s.movimientos.List(ctx, f)
	if err != nil {
		return nil, err
	}
	data := make([]dto.MovimientoResponse, 0, len(movs))
	for i := range movs {
		data = append(data, *mapMovimiento(&movs[i]))
	}
	return &dto.MovimientoListResponse{Data: data, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

// ObtenerAlertas lists active products at or below their minimum, lowest stock first.
func (s *inventarioService) ObtenerAlertas(ctx context.Context) ([]dto.AlertaStockResponse, error) {
	productos, err := s.repo.ListBajoStock(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.AlertaStockResponse, 0, len(productos))
	for _, p := range productos {
		out = append(out, dto.AlertaStockResponse{
			ProductoID:  p.ID.String(),
			Codigo:      p.Codigo,
			Nombre:      p.Nombre,
			Stock:       p.Stock,
			StockMinimo: p.StockMinimo,
			Faltante:    p.StockMinimo - p.Stock,
		})
	}
	return out, nil
}
