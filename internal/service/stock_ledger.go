package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gonza-rom/jmr-stock-sub000/internal/apierror"
	"github.com/gonza-rom/jmr-stock-sub000/internal/model"
	"github.com/gonza-rom/jmr-stock-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// fechaTolerancia absorbs clock skew between the client and the server
// when validating back-dated movements.
const fechaTolerancia = time.Minute

// StockAlerter is notified after commit when a product falls to or below its
// minimum stock. Implementations must not block.
type StockAlerter interface {
	AlertaStockBajo(ctx context.Context, p model.Producto)
}

// PrecioInvalidator drops cached price-check entries by product code.
type PrecioInvalidator interface {
	Invalidate(ctx context.Context, codigos ...string)
}

// ── Inputs ────────────────────────────────────────────────────────────────────

type RegistrarMovimientoInput struct {
	ProductoID uuid.UUID
	Tipo       string
	Cantidad   int
	Fecha      *time.Time
	Motivo     *string
	UsuarioID  *uuid.UUID
}

type EditarMovimientoInput struct {
	Cantidad  int
	Motivo    *string
	Fecha     *time.Time
	UsuarioID *uuid.UUID
}

type ItemVentaInput struct {
	ProductoID uuid.UUID
	Cantidad   int
}

type RegistrarVentaInput struct {
	Items           []ItemVentaInput
	MetodoPago      string
	ClienteNombre   *string
	ClienteTelefono *string
	ClienteEmail    *string
	UsuarioID       *uuid.UUID
	Fecha           *time.Time
}

// StockLedger is the only writer of Producto.Stock. Every operation runs in
// one transaction with the affected product rows locked, so stock always
// equals the net effect of the product's non-cancelled movements and never
// drops below zero.
//
// Returned movements carry the locked Producto with its post-operation stock.
type StockLedger interface {
	Registrar(ctx context.Context, in RegistrarMovimientoInput) (*model.Movimiento, error)
	// RegistrarTx joins the caller's transaction. The caller owns post-commit effects.
	RegistrarTx(tx *gorm.DB, in RegistrarMovimientoInput) (*model.Movimiento, error)
	RegistrarVenta(ctx context.Context, in RegistrarVentaInput) (*model.Venta, error)
	Editar(ctx context.Context, movimientoID uuid.UUID, in EditarMovimientoInput) (*model.Movimiento, error)
	Cancelar(ctx context.Context, movimientoID uuid.UUID, motivo string, usuarioID *uuid.UUID) (*model.Movimiento, error)
	AnularVenta(ctx context.Context, ventaID uuid.UUID, motivo string, usuarioID *uuid.UUID) (*model.Venta, error)
}

type stockLedger struct {
	productos   repository.ProductoRepository
	movimientos repository.MovimientoRepository
	ventas      repository.VentaRepository
	alerter     StockAlerter
	cache       PrecioInvalidator
	now         func() time.Time
}

// NewStockLedger wires the ledger. alerter and cache may be nil.
func NewStockLedger(
	productos repository.ProductoRepository,
	movimientos repository.MovimientoRepository,
	ventas repository.VentaRepository,
	alerter StockAlerter,
	cache PrecioInvalidator,
) StockLedger {
	return &stockLedger{
		productos:   productos,
		movimientos: movimientos,
		ventas:      ventas,
		alerter:     alerter,
		cache:       cache,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// cambioStock is a committed stock change, used for post-commit effects.
type cambioStock struct {
	producto model.Producto
	delta    int
}

func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(fn)
}

// conflictoSiDuplicado turns a unique-index violation into a Conflict. The
// pre-insert existence checks run outside the write, so a concurrent writer
// can still reach the index first.
func conflictoSiDuplicado(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apierror.Conflict(format, args...)
	}
	return err
}

// ── Validation ────────────────────────────────────────────────────────────────

func (l *stockLedger) validarFecha(fecha *time.Time) error {
	if fecha != nil && fecha.After(l.now().Add(fechaTolerancia)) {
		return apierror.InvalidInput("la fecha no puede ser futura")
	}
	return nil
}

func (l *stockLedger) fechaOAhora(fecha *time.Time) time.Time {
	if fecha == nil || fecha.IsZero() {
		return l.now()
	}
	return fecha.UTC()
}

func validarCantidad(cantidad int) error {
	if cantidad <= 0 {
		return apierror.InvalidInput("la cantidad debe ser mayor a cero")
	}
	return nil
}

func validarMotivoCancelacion(motivo string) (string, error) {
	motivo = strings.TrimSpace(motivo)
	if motivo == "" {
		return "", apierror.InvalidInput("el motivo de cancelacion es obligatorio")
	}
	return motivo, nil
}

// ── Locked reads / guarded writes ─────────────────────────────────────────────

func (l *stockLedger) bloquearProducto(tx *gorm.DB, id uuid.UUID) (*model.Producto, error) {
	p, err := l.productos.LockByIDTx(tx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("producto %s no encontrado", id)
	}
	if err != nil {
		return nil, fmt.Errorf("bloquear producto: %w", err)
	}
	return p, nil
}

func (l *stockLedger) bloquearMovimiento(tx *gorm.DB, id uuid.UUID) (*model.Movimiento, error) {
	m, err := l.movimientos.LockByIDTx(tx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("movimiento %s no encontrado", id)
	}
	if err != nil {
		return nil, fmt.Errorf("bloquear movimiento: %w", err)
	}
	if m.Cancelado {
		return nil, apierror.AlreadyCancelled("el movimiento ya fue cancelado")
	}
	return m, nil
}

// aplicarDelta checks and writes p.Stock += delta. p must be locked in tx.
func (l *stockLedger) aplicarDelta(tx *gorm.DB, p *model.Producto, delta int) error {
	if p.Stock+delta < 0 {
		return apierror.InsufficientStock(
			"stock insuficiente para %s: disponible %d, requerido %d", p.Nombre, p.Stock, -delta)
	}
	if delta == 0 {
		return nil
	}
	applied, err := l.productos.AjustarStockTx(tx, p.ID, delta)
	if err != nil {
		return fmt.Errorf("ajustar stock: %w", err)
	}
	if !applied {
		return apierror.InsufficientStock("stock insuficiente para %s", p.Nombre)
	}
	p.Stock += delta
	return nil
}

// ── Record ────────────────────────────────────────────────────────────────────

func (l *stockLedger) validarRegistro(in RegistrarMovimientoInput) error {
	if !model.EsTipoValido(in.Tipo) {
		return apierror.InvalidInput("tipo de movimiento desconocido: %q", in.Tipo)
	}
	if in.Tipo == model.TipoVenta {
		return apierror.InvalidInput("los movimientos de tipo VENTA se registran mediante una venta")
	}
	if in.ProductoID == uuid.Nil {
		return apierror.InvalidInput("producto_id es obligatorio")
	}
	if err := validarCantidad(in.Cantidad); err != nil {
		return err
	}
	return l.validarFecha(in.Fecha)
}

func (l *stockLedger) Registrar(ctx context.Context, in RegistrarMovimientoInput) (*model.Movimiento, error) {
	if err := l.validarRegistro(in); err != nil {
		return nil, err
	}
	var mov *model.Movimiento
	err := runTx(ctx, l.productos.DB(), func(tx *gorm.DB) error {
		var err error
		mov, err = l.registrar(tx, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	l.despuesDeCommit(ctx, cambioStock{producto: *mov.Producto, delta: model.Efecto(mov.Tipo, mov.Cantidad)})
	return mov, nil
}

func (l *stockLedger) RegistrarTx(tx *gorm.DB, in RegistrarMovimientoInput) (*model.Movimiento, error) {
	if err := l.validarRegistro(in); err != nil {
		return nil, err
	}
	return l.registrar(tx, in)
}

func (l *stockLedger) registrar(tx *gorm.DB, in RegistrarMovimientoInput) (*model.Movimiento, error) {
	p, err := l.bloquearProducto(tx, in.ProductoID)
	if err != nil {
		return nil, err
	}
	if err := l.aplicarDelta(tx, p, model.Efecto(in.Tipo, in.Cantidad)); err != nil {
		return nil, err
	}
	mov := &model.Movimiento{
		ProductoID: p.ID,
		Tipo:       in.Tipo,
		Cantidad:   in.Cantidad,
		Motivo:     in.Motivo,
		UsuarioID:  in.UsuarioID,
		CreatedAt:  l.fechaOAhora(in.Fecha),
	}
	if err := l.movimientos.CreateTx(tx, mov); err != nil {
		return nil, fmt.Errorf("crear movimiento: %w", err)
	}
	mov.Producto = p
	return mov, nil
}

// ── Sale ──────────────────────────────────────────────────────────────────────

func esMetodoPagoValido(m string) bool {
	for _, v := range model.MetodosPago {
		if v == m {
			return true
		}
	}
	return false
}

// RegistrarVenta books every line of a sale or none. Products are locked in
// id order; repeated lines of one product are checked against its stock
// cumulatively.
func (l *stockLedger) RegistrarVenta(ctx context.Context, in RegistrarVentaInput) (*model.Venta, error) {
	if len(in.Items) == 0 {
		return nil, apierror.InvalidInput("la venta debe tener al menos un item")
	}
	if !esMetodoPagoValido(in.MetodoPago) {
		return nil, apierror.InvalidInput("metodo de pago invalido: %q", in.MetodoPago)
	}
	if err := l.validarFecha(in.Fecha); err != nil {
		return nil, err
	}
	porProducto := make(map[uuid.UUID]int, len(in.Items))
	for _, it := range in.Items {
		if it.ProductoID == uuid.Nil {
			return nil, apierror.InvalidInput("producto_id es obligatorio")
		}
		if err := validarCantidad(it.Cantidad); err != nil {
			return nil, err
		}
		porProducto[it.ProductoID] += it.Cantidad
	}
	ids := make([]uuid.UUID, 0, len(porProducto))
	for id := range porProducto {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	var venta *model.Venta
	var cambios []cambioStock
	err := runTx(ctx, l.productos.DB(), func(tx *gorm.DB) error {
		cambios = cambios[:0]
		bloqueados := make(map[uuid.UUID]*model.Producto, len(ids))
		for _, id := range ids {
			p, err := l.bloquearProducto(tx, id)
			if err != nil {
				return err
			}
			if !p.Activo {
				return apierror.InvalidInput("el producto %s esta inactivo y no puede venderse", p.Nombre)
			}
			if err := l.aplicarDelta(tx, p, -porProducto[id]); err != nil {
				return err
			}
			bloqueados[id] = p
			cambios = append(cambios, cambioStock{producto: *p, delta: -porProducto[id]})
		}

		numero, err := l.ventas.NextNumeroTx(tx)
		if err != nil {
			return fmt.Errorf("numero de venta: %w", err)
		}
		fecha := l.fechaOAhora(in.Fecha)
		venta = &model.Venta{
			ID:              uuid.New(),
			Numero:          numero,
			MetodoPago:      in.MetodoPago,
			ClienteNombre:   in.ClienteNombre,
			ClienteTelefono: in.ClienteTelefono,
			ClienteEmail:    in.ClienteEmail,
			UsuarioID:       in.UsuarioID,
			CreatedAt:       fecha,
		}
		total := decimal.Zero
		for _, it := range in.Items {
			p := bloqueados[it.ProductoID]
			subtotal := p.Precio.Mul(decimal.NewFromInt(int64(it.Cantidad)))
			total = total.Add(subtotal)
			venta.Items = append(venta.Items, model.VentaItem{
				ID:         uuid.New(),
				VentaID:    venta.ID,
				ProductoID: p.ID,
				Cantidad:   it.Cantidad,
				PrecioUnit: p.Precio,
				Subtotal:   subtotal,
			})
		}
		venta.Total = total
		if err := l.ventas.CreateTx(tx, venta); err != nil {
			return fmt.Errorf("crear venta: %w", err)
		}

		motivo := fmt.Sprintf("Venta #%d", numero)
		for i := range venta.Items {
			item := &venta.Items[i]
			mov := model.Movimiento{
				ProductoID:  item.ProductoID,
				Tipo:        model.TipoVenta,
				Cantidad:    item.Cantidad,
				Motivo:      &motivo,
				UsuarioID:   in.UsuarioID,
				VentaID:     &venta.ID,
				VentaItemID: &item.ID,
				CreatedAt:   fecha,
			}
			if err := l.movimientos.CreateTx(tx, &mov); err != nil {
				return fmt.Errorf("crear movimiento de venta: %w", err)
			}
			item.Producto = bloqueados[item.ProductoID]
			venta.Movimientos = append(venta.Movimientos, mov)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Int64("numero", venta.Numero).Str("total", venta.Total.StringFixed(2)).
		Int("items", len(venta.Items)).Msg("venta registrada")
	l.despuesDeCommit(ctx, cambios...)
	return venta, nil
}

// ── Edit ──────────────────────────────────────────────────────────────────────

// Editar re-bases an active movement on a new quantity. The product moves by
// the difference between the new and the old effect. Editing a VENTA
// movement leaves the sale's items and total untouched.
func (l *stockLedger) Editar(ctx context.Context, movimientoID uuid.UUID, in EditarMovimientoInput) (*model.Movimiento, error) {
	if err := validarCantidad(in.Cantidad); err != nil {
		return nil, err
	}
	if err := l.validarFecha(in.Fecha); err != nil {
		return nil, err
	}

	var mov *model.Movimiento
	var delta int
	err := runTx(ctx, l.productos.DB(), func(tx *gorm.DB) error {
		var err error
		mov, err = l.bloquearMovimiento(tx, movimientoID)
		if err != nil {
			return err
		}
		p, err := l.bloquearProducto(tx, mov.ProductoID)
		if err != nil {
			return err
		}
		delta = model.Efecto(mov.Tipo, in.Cantidad) - model.Efecto(mov.Tipo, mov.Cantidad)
		if err := l.aplicarDelta(tx, p, delta); err != nil {
			return err
		}

		mov.Cantidad = in.Cantidad
		if in.Motivo != nil {
			mov.Motivo = in.Motivo
		}
		if in.Fecha != nil && !in.Fecha.IsZero() {
			mov.CreatedAt = in.Fecha.UTC()
		}
		if in.UsuarioID != nil {
			mov.UsuarioID = in.UsuarioID
		}
		if err := l.movimientos.UpdateTx(tx, mov); err != nil {
			return fmt.Errorf("actualizar movimiento: %w", err)
		}
		mov.Producto = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.despuesDeCommit(ctx, cambioStock{producto: *mov.Producto, delta: delta})
	return mov, nil
}

// ── Cancel ────────────────────────────────────────────────────────────────────

// Cancelar reverses the movement's current effect and marks it cancelled.
// Cancellation is terminal.
func (l *stockLedger) Cancelar(ctx context.Context, movimientoID uuid.UUID, motivo string, usuarioID *uuid.UUID) (*model.Movimiento, error) {
	motivo, err := validarMotivoCancelacion(motivo)
	if err != nil {
		return nil, err
	}

	var mov *model.Movimiento
	var cambio cambioStock
	err = runTx(ctx, l.productos.DB(), func(tx *gorm.DB) error {
		var err error
		mov, err = l.bloquearMovimiento(tx, movimientoID)
		if err != nil {
			return err
		}
		cambio, err = l.cancelar(tx, mov, motivo, usuarioID)
		return err
	})
	if err != nil {
		return nil, err
	}
	l.despuesDeCommit(ctx, cambio)
	return mov, nil
}

// cancelar reverses one locked, active movement inside tx.
func (l *stockLedger) cancelar(tx *gorm.DB, mov *model.Movimiento, motivo string, usuarioID *uuid.UUID) (cambioStock, error) {
	p, err := l.bloquearProducto(tx, mov.ProductoID)
	if err != nil {
		return cambioStock{}, err
	}
	delta := -model.Efecto(mov.Tipo, mov.Cantidad)
	if err := l.aplicarDelta(tx, p, delta); err != nil {
		return cambioStock{}, err
	}
	ahora := l.now()
	mov.Cancelado = true
	mov.MotivoCancelacion = &motivo
	mov.CanceladoAt = &ahora
	mov.CanceladoPorID = usuarioID
	if err := l.movimientos.UpdateTx(tx, mov); err != nil {
		return cambioStock{}, fmt.Errorf("cancelar movimiento: %w", err)
	}
	mov.Producto = p
	return cambioStock{producto: *p, delta: delta}, nil
}

// AnularVenta cancels every still-active movement of a sale, all or nothing.
func (l *stockLedger) AnularVenta(ctx context.Context, ventaID uuid.UUID, motivo string, usuarioID *uuid.UUID) (*model.Venta, error) {
	motivo, err := validarMotivoCancelacion(motivo)
	if err != nil {
		return nil, err
	}

	var venta *model.Venta
	var cambios []cambioStock
	err = runTx(ctx, l.productos.DB(), func(tx *gorm.DB) error {
		cambios = cambios[:0]
		if _, err := l.ventas.FindByIDTx(tx, ventaID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierror.NotFound("venta %s no encontrada", ventaID)
			}
			return fmt.Errorf("buscar venta: %w", err)
		}
		movs, err := l.movimientos.LockActivosPorVentaTx(tx, ventaID)
		if err != nil {
			return fmt.Errorf("bloquear movimientos de venta: %w", err)
		}
		if len(movs) == 0 {
			return apierror.AlreadyCancelled("la venta ya esta anulada")
		}
		for i := range movs {
			c, err := l.cancelar(tx, &movs[i], motivo, usuarioID)
			if err != nil {
				return err
			}
			cambios = append(cambios, c)
		}
		venta, err = l.ventas.FindByIDTx(tx, ventaID)
		if err != nil {
			return fmt.Errorf("recargar venta: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Int64("numero", venta.Numero).Int("movimientos", len(cambios)).Msg("venta anulada")
	l.despuesDeCommit(ctx, cambios...)
	return venta, nil
}

// ── Post-commit effects ───────────────────────────────────────────────────────

// despuesDeCommit never fails the operation: the stock change is already durable.
func (l *stockLedger) despuesDeCommit(ctx context.Context, cambios ...cambioStock) {
	codigos := make([]string, 0, len(cambios))
	for _, c := range cambios {
		if c.producto.Codigo != nil {
			codigos = append(codigos, *c.producto.Codigo)
		}
		if c.delta < 0 && c.producto.BajoStock() && l.alerter != nil {
			l.alerter.AlertaStockBajo(ctx, c.producto)
		}
	}
	if l.cache != nil && len(codigos) > 0 {
		l.cache.Invalidate(ctx, codigos...)
	}
}
