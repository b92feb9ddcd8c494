package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gonza-rom/jmr-stock-sub000/internal/apierror"
	"github.com/gonza-rom/jmr-stock-sub000/internal/dto"
	"github.com/gonza-rom/jmr-stock-sub000/internal/model"
	"github.com/gonza-rom/jmr-stock-sub000/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockMinimoDefault applies when a product is created without a threshold.
const StockMinimoDefault = 5

const motivoStockInicial = "Stock inicial"

// PrecioCache is the cache-aside store for the public price check.
// *infra.ProductCache satisfies it.
type PrecioCache interface {
	PrecioInvalidator
	Get(ctx context.Context, codigo string, dest any) bool
	Set(ctx context.Context, codigo string, v any)
}

// ProductoService defines the business logic contract for products.
type ProductoService interface {
	Crear(ctx context.Context, usuarioID *uuid.UUID, req dto.CrearProductoRequest) (*dto.ProductoResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error)
	Listar(ctx context.Context, filter dto.ProductoFilter) (*dto.ProductoListResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, usuarioID *uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error)
	Desactivar(ctx context.Context, id uuid.UUID) error
	Reactivar(ctx context.Context, id uuid.UUID) error
	HistorialPrecios(ctx context.Context, id uuid.UUID, page, limit int) (*dto.HistorialPrecioListResponse, error)
	ConsultarPrecio(ctx context.Context, codigo string) (*dto.ConsultaPreciosResponse, error)
}

type productoService struct {
	repo        repository.ProductoRepository
	historial   repository.HistorialPrecioRepository
	categorias  repository.CategoriaRepository
	proveedores repository.ProveedorRepository
	ledger      StockLedger
	cache       PrecioCache
}

// NewProductoService wires the product service. cache may be nil.
func NewProductoService(
	repo repository.ProductoRepository,
	historial repository.HistorialPrecioRepository,
	categorias repository.CategoriaRepository,
	proveedores repository.ProveedorRepository,
	ledger StockLedger,
	cache PrecioCache,
) ProductoService {
	return &productoService{
		repo:        repo,
		historial:   historial,
		categorias:  categorias,
		proveedores: proveedores,
		ledger:      ledger,
		cache:       cache,
	}
}

func mapProducto(p *model.Producto) dto.ProductoResponse {
	resp := dto.ProductoResponse{
		ID:          p.ID.String(),
		Codigo:      p.Codigo,
		Nombre:      p.Nombre,
		Descripcion: p.Descripcion,
		Precio:      p.Precio,
		Stock:       p.Stock,
		StockMinimo: p.StockMinimo,
		BajoStock:   p.BajoStock(),
		ImagenURL:   p.ImagenURL,
		Activo:      p.Activo,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
	}
	if p.CategoriaID != nil {
		s := p.CategoriaID.String()
		resp.CategoriaID = &s
	}
	if p.Categoria != nil {
		resp.Categoria = &p.Categoria.Nombre
	}
	if p.ProveedorID != nil {
		s := p.ProveedorID.String()
		resp.ProveedorID = &s
	}
	if p.Proveedor != nil {
		resp.Proveedor = &p.Proveedor.Nombre
	}
	return resp
}

// normalizarCodigo trims the code; a blank code means "no code".
func normalizarCodigo(codigo *string) *string {
	if codigo == nil {
		return nil
	}
	c := strings.TrimSpace(*codigo)
	if c == "" {
		return nil
	}
	return &c
}

func codigoTexto(codigo *string) string {
	if codigo == nil {
		return ""
	}
	return *codigo
}

func (s *productoService) validarCodigo(ctx context.Context, codigo *string, excluir uuid.UUID) error {
	if codigo == nil {
		return nil
	}
	existe, err := s.repo.ExisteCodigo(ctx, *codigo, excluir)
	if err != nil {
		return fmt.Errorf("verificar codigo: %w", err)
	}
	if existe {
		return apierror.Conflict("ya existe un producto con el codigo %s", *codigo)
	}
	return nil
}

// resolverCategoria parses and checks a category reference. "" clears it.
func (s *productoService) resolverCategoria(ctx context.Context, raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apierror.InvalidInput("categoria_id invalido")
	}
	c, err := s.categorias.ObtenerPorID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("categoria no encontrada")
		}
		return nil, err
	}
	if !c.Activo {
		return nil, apierror.InvalidInput("la categoria %s esta inactiva", c.Nombre)
	}
	return &id, nil
}

func (s *productoService) resolverProveedor(ctx context.Context, raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apierror.InvalidInput("proveedor_id invalido")
	}
	pr, err := s.proveedores.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("proveedor no encontrado")
		}
		return nil, err
	}
	if !pr.Activo {
		return nil, apierror.InvalidInput("el proveedor %s esta inactivo", pr.Nombre)
	}
	return &id, nil
}

func (s *productoService) Crear(ctx context.Context, usuarioID *uuid.UUID, req dto.CrearProductoRequest) (*dto.ProductoResponse, error) {
	if !req.Precio.IsPositive() {
		return nil, apierror.InvalidInput("el precio debe ser mayor a cero")
	}
	if req.Stock < 0 {
		return nil, apierror.InvalidInput("el stock inicial no puede ser negativo")
	}
	codigo := normalizarCodigo(req.Codigo)
	if err := s.validarCodigo(ctx, codigo, uuid.Nil); err != nil {
		return nil, err
	}
	var catRaw, provRaw string
	if req.CategoriaID != nil {
		catRaw = *req.CategoriaID
	}
	if req.ProveedorID != nil {
		provRaw = *req.ProveedorID
	}
	categoriaID, err := s.resolverCategoria(ctx, catRaw)
	if err != nil {
		return nil, err
	}
	proveedorID, err := s.resolverProveedor(ctx, provRaw)
	if err != nil {
		return nil, err
	}

	stockMinimo := StockMinimoDefault
	if req.StockMinimo != nil {
		stockMinimo = *req.StockMinimo
	}
	p := &model.Producto{
		Codigo:      codigo,
		Nombre:      strings.TrimSpace(req.Nombre),
		Descripcion: req.Descripcion,
		CategoriaID: categoriaID,
		ProveedorID: proveedorID,
		Precio:      req.Precio,
		StockMinimo: stockMinimo,
		ImagenURL:   req.ImagenURL,
		Activo:      true,
	}

	// The product starts at zero; initial stock is booked as a movement so
	// stock equals the net of its movements from the first commit.
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, p); err != nil {
			return fmt.Errorf("crear producto: %w", err)
		}
		if req.Stock == 0 {
			return nil
		}
		motivo := motivoStockInicial
		_, err := s.ledger.RegistrarTx(tx, RegistrarMovimientoInput{
			ProductoID: p.ID,
			Tipo:       model.TipoEntrada,
			Cantidad:   req.Stock,
			Motivo:     &motivo,
			UsuarioID:  usuarioID,
		})
		return err
	})
	if err != nil {
		return nil, conflictoSiDuplicado(err, "ya existe un producto con el codigo %s", codigoTexto(codigo))
	}
	return s.ObtenerPorID(ctx, p.ID)
}

func (s *productoService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("producto no encontrado")
		}
		return nil, err
	}
	resp := mapProducto(p)
	return &resp, nil
}

func (s *productoService) Listar(ctx context.Context, filter dto.ProductoFilter) (*dto.ProductoListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	productos, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.ProductoResponse, 0, len(productos))
	for i := range productos {
		data = append(data, mapProducto(&productos[i]))
	}
	totalPages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	return &dto.ProductoListResponse{
		Data:       data,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
	}, nil
}

// Actualizar edits catalog fields. A price change is recorded in the price
// history in the same transaction.
func (s *productoService) Actualizar(ctx context.Context, id uuid.UUID, usuarioID *uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error) {
	if req.Precio != nil && !req.Precio.IsPositive() {
		return nil, apierror.InvalidInput("el precio debe ser mayor a cero")
	}
	var codigo *string
	if req.Codigo != nil {
		codigo = normalizarCodigo(req.Codigo)
		if err := s.validarCodigo(ctx, codigo, id); err != nil {
			return nil, err
		}
	}
	var categoriaID, proveedorID *uuid.UUID
	var err error
	if req.CategoriaID != nil {
		if categoriaID, err = s.resolverCategoria(ctx, *req.CategoriaID); err != nil {
			return nil, err
		}
	}
	if req.ProveedorID != nil {
		if proveedorID, err = s.resolverProveedor(ctx, *req.ProveedorID); err != nil {
			return nil, err
		}
	}

	var codigosViejos []string
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		p, err := s.repo.LockByIDTx(tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierror.NotFound("producto no encontrado")
			}
			return err
		}
		if p.Codigo != nil {
			codigosViejos = append(codigosViejos, *p.Codigo)
		}

		if req.Codigo != nil {
			p.Codigo = codigo
		}
		if req.Nombre != nil {
			p.Nombre = strings.TrimSpace(*req.Nombre)
		}
		if req.Descripcion != nil {
			p.Descripcion = req.Descripcion
		}
		if req.CategoriaID != nil {
			p.CategoriaID = categoriaID
		}
		if req.ProveedorID != nil {
			p.ProveedorID = proveedorID
		}
		if req.StockMinimo != nil {
			p.StockMinimo = *req.StockMinimo
		}
		if req.ImagenURL != nil {
			p.ImagenURL = req.ImagenURL
		}
		if req.Precio != nil && !req.Precio.Equal(p.Precio) {
			h := &model.HistorialPrecio{
				ProductoID:  p.ID,
				PrecioViejo: p.Precio,
				PrecioNuevo: *req.Precio,
				UsuarioID:   usuarioID,
			}
			if err := s.historial.CreateTx(tx, h); err != nil {
				return fmt.Errorf("registrar historial de precio: %w", err)
			}
			p.Precio = *req.Precio
		}
		if p.Codigo != nil {
			codigosViejos = append(codigosViejos, *p.Codigo)
		}
		return s.repo.UpdateCatalogoTx(tx, p)
	})
	if err != nil {
		return nil, conflictoSiDuplicado(err, "ya existe un producto con el codigo %s", codigoTexto(codigo))
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, codigosViejos...)
	}
	return s.ObtenerPorID(ctx, id)
}

func (s *productoService) setActivo(ctx context.Context, id uuid.UUID, activo bool) error {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.NotFound("producto no encontrado")
		}
		return err
	}
	if err := s.repo.SetActivo(ctx, id, activo); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.NotFound("producto no encontrado")
		}
		return err
	}
	if s.cache != nil && p.Codigo != nil {
		s.cache.Invalidate(ctx, *p.Codigo)
	}
	return nil
}

func (s *productoService) Desactivar(ctx context.Context, id uuid.UUID) error {
	return s.setActivo(ctx, id, false)
}

func (s *productoService) Reactivar(ctx context.Context, id uuid.UUID) error {
	return s.setActivo(ctx, id, true)
}

func (s *productoService) HistorialPrecios(ctx context.Context, id uuid.UUID, page, limit int) (*dto.HistorialPrecioListResponse, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("producto no encontrado")
		}
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	rows, total, err := s.historial.ListByProducto(ctx, id, page, limit)
	if err != nil {
		return nil, err
	}
	data := make([]dto.HistorialPrecioItem, 0, len(rows))
	for _, h := range rows {
		item := dto.HistorialPrecioItem{
			ID:          h.ID.String(),
			ProductoID:  h.ProductoID.String(),
			PrecioViejo: h.PrecioViejo,
			PrecioNuevo: h.PrecioNuevo,
			CreatedAt:   h.CreatedAt.Format(time.RFC3339),
		}
		if h.UsuarioID != nil {
			uid := h.UsuarioID.String()
			item.UsuarioID = &uid
		}
		if h.Usuario != nil {
			nombre := h.Usuario.Nombre
			item.UsuarioNombre = &nombre
		}
		data = append(data, item)
	}
	return &dto.HistorialPrecioListResponse{Data: data, Total: total, Page: page, Limit: limit}, nil
}

// ConsultarPrecio serves the public price check with cache-aside. Inactive
// products are not found.
func (s *productoService) ConsultarPrecio(ctx context.Context, codigo string) (*dto.ConsultaPreciosResponse, error) {
	codigo = strings.TrimSpace(codigo)
	if codigo == "" {
		return nil, apierror.InvalidInput("codigo requerido")
	}
	var cached dto.ConsultaPreciosResponse
	if s.cache != nil && s.cache.Get(ctx, codigo, &cached) {
		return &cached, nil
	}

	p, err := s.repo.FindByCodigo(ctx, codigo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("producto no encontrado")
		}
		return nil, err
	}
	resp := &dto.ConsultaPreciosResponse{
		Codigo:          codigo,
		Nombre:          p.Nombre,
		Precio:          p.Precio,
		StockDisponible: p.Stock,
		ImagenURL:       p.ImagenURL,
	}
	if p.Categoria != nil {
		resp.Categoria = &p.Categoria.Nombre
	}
	if s.cache != nil {
		s.cache.Set(ctx, codigo, resp)
	}
	return resp, nil
}
