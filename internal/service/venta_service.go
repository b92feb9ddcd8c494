package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gonza-rom/jmr-stock-sub000/internal/apierror"
	"github.com/gonza-rom/jmr-stock-sub000/internal/dto"
	"github.com/gonza-rom/jmr-stock-sub000/internal/infra"
	"github.com/gonza-rom/jmr-stock-sub000/internal/model"
	"github.com/gonza-rom/jmr-stock-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// EmailEnqueuer hands an email to the background worker.
type EmailEnqueuer interface {
	EnqueueEmail(ctx context.Context, to []string, subject, body string) error
}

type VentaService interface {
	RegistrarVenta(ctx context.Context, usuarioID *uuid.UUID, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error)
	AnularVenta(ctx context.Context, id uuid.UUID, usuarioID *uuid.UUID, motivo string) (*dto.VentaResponse, error)
	ObtenerVenta(ctx context.Context, id uuid.UUID) (*dto.VentaResponse, error)
	ListVentas(ctx context.Context, filter dto.VentaFilter) (*dto.VentaListResponse, error)
	// GenerarTicket streams the sale receipt as PDF.
	GenerarTicket(ctx context.Context, id uuid.UUID, w io.Writer) error
}

type ventaService struct {
	repo    repository.VentaRepository
	ledger  StockLedger
	mailer  EmailEnqueuer
	negocio string
}

// NewVentaService wires the sale service. mailer may be nil, in which case
// no receipt emails are sent.
func NewVentaService(repo repository.VentaRepository, ledger StockLedger, mailer EmailEnqueuer, negocio string) VentaService {
	return &ventaService{repo: repo, ledger: ledger, mailer: mailer, negocio: negocio}
}

func (s *ventaService) RegistrarVenta(ctx context.Context, usuarioID *uuid.UUID, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error) {
	items := make([]ItemVentaInput, 0, len(req.Items))
	for _, it := range req.Items {
		pid, err := uuid.Parse(it.ProductoID)
		if err != nil {
			return nil, apierror.InvalidInput("producto_id invalido: %s", it.ProductoID)
		}
		items = append(items, ItemVentaInput{ProductoID: pid, Cantidad: it.Cantidad})
	}

	venta, err := s.ledger.RegistrarVenta(ctx, RegistrarVentaInput{
		Items:           items,
		MetodoPago:      req.MetodoPago,
		ClienteNombre:   req.ClienteNombre,
		ClienteTelefono: req.ClienteTelefono,
		ClienteEmail:    req.ClienteEmail,
		UsuarioID:       usuarioID,
		Fecha:           req.Fecha,
	})
	if err != nil {
		return nil, err
	}
	s.enviarComprobante(ctx, venta)
	return ventaToResponse(venta), nil
}

// enviarComprobante queues a plain-text receipt for the customer, best effort.
func (s *ventaService) enviarComprobante(ctx context.Context, v *model.Venta) {
	if s.mailer == nil || v.ClienteEmail == nil || *v.ClienteEmail == "" {
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Gracias por su compra en %s.\n\n", s.negocio)
	fmt.Fprintf(&b, "Venta #%d - %s\n\n", v.Numero, v.CreatedAt.Format("02/01/2006 15:04"))
	for _, it := range v.Items {
		nombre := it.ProductoID.String()
		if it.Producto != nil {
			nombre = it.Producto.Nombre
		}
		fmt.Fprintf(&b, "%d x %s  $%s\n", it.Cantidad, nombre, it.Subtotal.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal: $%s (%s)\n", v.Total.StringFixed(2), v.MetodoPago)

	subject := fmt.Sprintf("%s - Comprobante de venta #%d", s.negocio, v.Numero)
	if err := s.mailer.EnqueueEmail(ctx, []string{*v.ClienteEmail}, subject, b.String()); err != nil {
		log.Warn().Err(err).Int64("numero", v.Numero).Msg("no se pudo encolar el comprobante")
	}
}

func (s *ventaService) AnularVenta(ctx context.Context, id uuid.UUID, usuarioID *uuid.UUID, motivo string) (*dto.VentaResponse, error) {
	venta, err := s.ledger.AnularVenta(ctx, id, motivo, usuarioID)
	if err != nil {
		return nil, err
	}
	return ventaToResponse(venta), nil
}

func (s *ventaService) buscar(ctx context.Context, id uuid.UUID) (*model.Venta, error) {
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("venta no encontrada")
		}
		return nil, err
	}
	return v, nil
}

func (s *ventaService) ObtenerVenta(ctx context.Context, id uuid.UUID) (*dto.VentaResponse, error) {
	v, err := s.buscar(ctx, id)
	if err != nil {
		return nil, err
	}
	return ventaToResponse(v), nil
}

// ListVentas lists newest first. Hasta covers the whole day.
func (s *ventaService) ListVentas(ctx context.Context, filter dto.VentaFilter) (*dto.VentaListResponse, error) {
	f := repository.VentaFilter{
		Desde:      filter.Desde,
		MetodoPago: filter.MetodoPago,
		Page:       filter.Page,
		Limit:      filter.Limit,
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
	ventas, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	data := make([]dto.VentaResponse, 0, len(ventas))
	for i := range ventas {
		data = append(data, *ventaToResponse(&ventas[i]))
	}
	return &dto.VentaListResponse{Data: data, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

func (s *ventaService) GenerarTicket(ctx context.Context, id uuid.UUID, w io.Writer) error {
	v, err := s.buscar(ctx, id)
	if err != nil {
		return err
	}
	return infra.WriteTicketPDF(w, s.negocio, v)
}

// ventaToResponse maps a sale with its items and movements loaded. An item
// is cancelled when its linked movement is.
func ventaToResponse(v *model.Venta) *dto.VentaResponse {
	cancelados := make(map[uuid.UUID]bool, len(v.Movimientos))
	for _, m := range v.Movimientos {
		if m.VentaItemID != nil && m.Cancelado {
			cancelados[*m.VentaItemID] = true
		}
	}
	items := make([]dto.ItemVentaResponse, 0, len(v.Items))
	for _, it := range v.Items {
		item := dto.ItemVentaResponse{
			ProductoID:     it.ProductoID.String(),
			Cantidad:       it.Cantidad,
			PrecioUnitario: it.PrecioUnit,
			Subtotal:       it.Subtotal,
			Cancelado:      cancelados[it.ID],
		}
		if it.Producto != nil {
			item.Producto = it.Producto.Nombre
		}
		items = append(items, item)
	}
	return &dto.VentaResponse{
		ID:              v.ID.String(),
		Numero:          v.Numero,
		Items:           items,
		Total:           v.Total,
		MetodoPago:      v.MetodoPago,
		ClienteNombre:   v.ClienteNombre,
		ClienteTelefono: v.ClienteTelefono,
		ClienteEmail:    v.ClienteEmail,
		UsuarioID:       uuidPtrString(v.UsuarioID),
		Estado:          v.Estado(),
		CreatedAt:       v.CreatedAt.Format(time.RFC3339),
	}
}
