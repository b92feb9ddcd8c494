package service

import (
	"context"
	"testing"
	"time"

	"github.com/gonza-rom/jmr-stock-sub000/internal/apierror"
	"github.com/gonza-rom/jmr-stock-sub000/internal/model"
	"github.com/gonza-rom/jmr-stock-sub000/internal/repository"
	"github.com/gonza-rom/jmr-stock-sub000/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── Fakes ─────────────────────────────────────────────────────────────────────

type alertasRecorder struct{ productos []string }

func (a *alertasRecorder) AlertaStockBajo(_ context.Context, p model.Producto) {
	a.productos = append(a.productos, p.Nombre)
}

type cacheRecorder struct{ codigos []string }

func (c *cacheRecorder) Invalidate(_ context.Context, codigos ...string) {
	c.codigos = append(c.codigos, codigos...)
}

type ledgerFixture struct {
	db      *gorm.DB
	ledger  StockLedger
	alertas *alertasRecorder
	cache   *cacheRecorder
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	db := testutil.NewDB(t)
	f := &ledgerFixture{db: db, alertas: &alertasRecorder{}, cache: &cacheRecorder{}}
	f.ledger = NewStockLedger(
		repository.NewProductoRepository(db),
		repository.NewMovimientoRepository(db),
		repository.NewVentaRepository(db),
		f.alertas,
		f.cache,
	)
	return f
}

func (f *ledgerFixture) registrar(t *testing.T, p *model.Producto, tipo string, cantidad int) *model.Movimiento {
	t.Helper()
	m, err := f.ledger.Registrar(context.Background(), RegistrarMovimientoInput{
		ProductoID: p.ID, Tipo: tipo, Cantidad: cantidad,
	})
	require.NoError(t, err)
	return m
}

// netoMovimientos sums the effect of every non-cancelled movement of a product.
func netoMovimientos(t *testing.T, db *gorm.DB, productoID uuid.UUID) int {
	t.Helper()
	var neto int
	require.NoError(t, db.Raw(
		`SELECT COALESCE(SUM(CASE WHEN tipo = 'ENTRADA' THEN cantidad ELSE -cantidad END), 0)
		 FROM movimientos WHERE producto_id = ? AND cancelado = ?`, productoID, false,
	).Scan(&neto).Error)
	return neto
}

func contar(t *testing.T, db *gorm.DB, m any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(m).Count(&n).Error)
	return n
}

// ── Record ────────────────────────────────────────────────────────────────────

func TestRegistrar_EntradaSumaYSalidaResta(t *testing.T) {
	f := newLedgerFixture(t)
	p := testutil.CrearProducto(t, f.db, "Cartera Milano", 15000, 0)

	m := f.registrar(t, p, model.TipoEntrada, 12)
	assert.Equal(t, 12, m.Producto.Stock)

	m = f.registrar(t, p, model.TipoSalida, 4)
	assert.Equal(t, 8, m.Producto.Stock)
	assert.Equal(t, 8, testutil.Stock(t, f.db, p.ID))
	assert.Equal(t, 8, netoMovimientos(t, f.db, p.ID))
}

func TestRegistrar_StockDiezCeroYRechazo(t *testing.T) {
	f := newLedgerFixture(t)
	p := testutil.CrearProducto(t, f.db, "Cinturon Texano", 8000, 0)
	f.registrar(t, p, model.TipoEntrada, 10)

	f.registrar(t, p, model.TipoSalida, 10)
	assert.Equal(t, 0, testutil.Stock(t, f.db, p.ID))

	_, err := f.ledger.Registrar(context.Background(), RegistrarMovimientoInput{
		ProductoID: p.ID, Tipo: model.TipoSalida, Cantidad: 1,
	})
	assert.ErrorIs(t, err, apierror.ErrInsufficientStock)
	assert.Equal(t, 0, testutil.Stock(t, f.db, p.ID))
	assert.Equal(t, int64(2), contar(t, f.db, &model.Movimiento{}), "rejected movement must not be persisted")
}

func TestRegistrar_Validaciones(t *testing.T) {
	f := newLedgerFixture(t)
	p := testutil.CrearProducto(t, f.db, "Billetera", 5000, 3)
	futuro := time.Now().Add(48 * time.Hour)

	cases := []struct {
		name string
		in   RegistrarMovimientoInput
		kind error
	}{
		{"cantidad cero", RegistrarMovimientoInput{ProductoID: p.ID, Tipo: model.TipoEntrada, Cantidad: 0}, apierror.ErrInvalidInput},
		{"cantidad negativa", RegistrarMovimientoInput{ProductoID: p.ID, Tipo: model.TipoSalida, Cantidad: -2}, apierror.ErrInvalidInput},
		{"tipo desconocido", RegistrarMovimientoInput{ProductoID: p.ID, Tipo: "AJUSTE", Cantidad: 1}, apierror.ErrInvalidInput},
		{"venta directa", RegistrarMovimientoInput{ProductoID: p.ID, Tipo: model.TipoVenta, Cantidad: 1}, apierror.ErrInvalidInput},
		{"fecha futura", RegistrarMovimientoInput{ProductoID: p.ID, Tipo: model.TipoEntrada, Cantidad: 1, Fecha: &futuro}, apierror.ErrInvalidInput},
		{"producto inexistente", RegistrarMovimientoInput{ProductoID: uuid.New(), Tipo: model.TipoEntrada, Cantidad: 1}, apierror.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.ledger.Registrar(context.Background(), tc.in)
			assert.ErrorIs(t, err, tc.kind)
		})
	}
	assert.Equal(t, 3, testutil.Stock(t, f.db, p.ID))
	assert.Zero(t, contar(t, f.db, &model.Movimiento{}))
}

func TestRegistrar_Retrofechado(t *testing.T) {
	f := newLedgerFixture(t)
	p := testutil.CrearProducto(t, f.db, "Mochila", 22000, 0)
	ayer := time.Now().UTC().Add(-24 * time.Hour).Truncate(time.Second)

	m, err := f.ledger.Registrar(context.Background(), RegistrarMovimientoInput{
		ProductoID: p.ID, Tipo: model.TipoEntrada, Cantidad: 3, Fecha: &ayer,
	})
	require.NoError(t, err)

	var guardado model.Movimiento
	require.NoError(t, f.db.First(&guardado, "id = ?", m.ID).Error)
	assert.True(t, guardado.CreatedAt.Equal(ayer), "got %s", guardado.CreatedAt)
}

// ── Edit ──────────────────────────────────────────────────────────────────────

func TestEditar_SalidaEquivaleAUnaSolaSalida(t *testing.T) {
	f := newLedgerFixture(t)
	p := testutil.CrearProducto(t, f.db, "Portadocumentos", 30000, 0)
	f.registrar(t, p, model.TipoEntrada, 20)

	salida := f.registrar(t, p, model.TipoSalida, 5)
	assert.Equal(t, 15, testutil.Stock(t, f.db, p.ID))

	m, err := f.ledger.Editar(context.Background(), salida.ID, EditarMovimientoInput{Cantidad: 8})
	require.NoError(t, err)
	assert.Equal(t, 8, m.Cantidad)
	assert.Equal(t, 12, m.Producto.Stock)
	assert.Equal(t, 12, testutil.Stock(t, f.db, p.ID))
	assert.Equal(t, 12, netoMovimientos(t, f.db, p.ID))
}

func TestEscenario_Entrada50Editar20Cancelar(t *testing.T) {
	f := newLedgerFixture(t)
	p := testutil.CrearProducto(t, f.db, "Bolso de viaje", 45000, 0)

	entrada := f.registrar(t, p, model.TipoEntrada, 50)
	assert.Equal(t, 50, testutil.Stock(t, f.db, p.ID))

	_, err := f.ledger.Editar(context.Background(), entrada.ID, EditarMovimientoInput{Cantidad: 20})
	require.NoError(t, err)
	assert.Equal(t, 20, testutil.Stock(t, f.db, p.ID))

	m, err := f.ledger.Cancelar(context.Background(), entrada.ID, "error de carga", nil)
	require.NoError(t, err)
	assert.True(t, m.Cancelado)
	assert.Equal(t, 0, testutil.Stock(t, f.db, p.ID))
}

func TestEditar_RechazaStockNegativoSinAplicarNada(t *testing.T) {
	f := newLedgerFixture(t)
	p := testutil.CrearProducto(t, f.db, "Riñonera", 9000, 0)
	entrada := f.registrar(t, p, model.TipoEntrada, 10)
	f.registrar(t, p, model.TipoSalida, 8)

	motivo := "recuento"
	_, err := f.ledger.Editar(context.Background(), entrada.ID, EditarMovimientoInput{Cantidad: 5, Motivo: &motivo})
	assert.ErrorIs(t, err, apierror.ErrInsufficientStock)

	var guardado model.Movimiento
	require.NoError(t, f.db.First(&guardado, "id = ?", entrada.ID).Error)
	assert.Equal(t, 10, guardado.Cantidad)
	assert.Nil(t, guardado.Motivo)
	assert.Equal(t, 2, testutil.Stock(t, f.db, p.ID))
}

func TestEditar_ActualizaMotivoFechaYUsuario(t *testing.T) {
	f := newLedgerFixture(t)
	p := testutil.CrearProducto(t, f.db, "Monedero", 4000, 0)
	u := testutil.CrearUsuario(t, f.db, model.RolAdmin)
	entrada := f.registrar(t, p, model.TipoEntrada, 4)

	motivo := "compra a proveedor"
	fecha := time.Now().UTC().Add(-2 * time.Hour).Truncate(time.Second)
	_, err := f.ledger.Editar(context.Background(), entrada.ID, EditarMovimientoInput{
		Cantidad: 4, Motivo: &motivo, Fecha: &fecha, UsuarioID: &u.ID,
	})
	require.NoError(t, err)

	var guardado model.Movimiento
	require.NoError(t, f.db.First(&guardado, "id = ?", entrada.ID).Error)
	require.NotNil(t, guardado.Motivo)
	assert.Equal(t, motivo, *guardado.Motivo)
	assert.True(t, guardado.CreatedAt.Equal(fecha))
	require.NotNil(t, guardado.UsuarioID)
	assert.Equal(t, u.ID, *guardado.UsuarioID)
	assert.Equal(t, 4, testutil.Stock(t, f.db, p.ID))
}

func TestEditar_MovimientoInexistente(t *testing.T) {
	f := newLedgerFixture(t)
	_, err := f.ledger.Editar(context.Background(), uuid.New(), EditarMovimientoInput{Cantidad: 1})
	assert.ErrorIs(t, err, apierror.ErrNotFound)
}

func TestEditar_Cancelado(t *testing.T) {
	f := newLedgerFixture(t)
	p := testutil.CrearProducto(t, f.db, "Llavero", 1500, 0)
	entrada := f.registrar(t, p, model.TipoEntrada, 6)
	_, err := f.ledger.Cancelar(context.Background(), entrada.ID, "duplicado", nil)
	require.NoError(t, err)

	_, err = f.ledger.Editar(context.Background(), entrada.ID, EditarMovimientoInput{Cantidad: 2})
	assert.ErrorIs(t, err, apierror.ErrAlreadyCancelled)
	assert.Equal(t, 0, testutil.Stock(t, f.db, p.ID))
}

// ── Cancel ────────────────────────────────────────────────────────────────────

func TestCancelar_EntradaVuelveAlStockPrevio(t *testing.T) {
	f := newLedgerFixture(t)
	p := testutil.CrearProducto(t, f.db, "Cartera Roma", 18000, 7)
	u := testutil.CrearUsuario(t, f.db, model.RolAdmin)
	entrada := f.registrar(t, p, model.TipoEntrada, 5)

	m, err := f.ledger.Cancelar(context.Background(), entrada.ID, "  mercaderia devuelta  ", &u.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, testutil.Stock(t, f.db, p.ID))

	require.NotNil(t, m.MotivoCancelacion)
	assert.Equal(t, "mercaderia devuelta", *m.MotivoCancelacion)
	assert.NotNil(t, m.CanceladoAt)
	require.NotNil(t, m.CanceladoPorID)
	assert.Equal(t, u.ID, *m.CanceladoPorID)
}

func TestCancelar_DobleCancelacionNoMutaStock(t *testing.T) {
	f := newLedgerFixture(t)
	p := testutil.CrearProducto(t, f.db, "Guantes", 6000, 10)
	salida := f.registrar(t, p, model.TipoSalida, 3)

	_, err := f.ledger.Cancelar(context.Background(), salida.ID, "error", nil)
	require.NoError(t, err)
	assert.Equal(t, 10, testutil.Stock(t, f.db, p.ID))

	_, err = f.ledger.Cancelar(context.Background(), salida.ID, "otra vez", nil)
	assert.ErrorIs(t, err, apierror.ErrAlreadyCancelled)
	assert.Equal(t, 10, testutil.Stock(t, f.db, p.ID))
}

func TestCancelar_EntradaYaConsumida(t *testing.T) {
	f := newLedgerFixture(t)
	p := testutil.CrearProducto(t, f.db, "Maletin", 52000, 0)
	entrada := f.registrar(t, p, model.TipoEntrada, 10)
	f.registrar(t, p, model.TipoSalida, 8)

	_, err := f.ledger.Cancelar(context.Background(), entrada.ID, "error de carga", nil)
	assert.ErrorIs(t, err, apierror.ErrInsufficientStock)

	var guardado model.Movimiento
	require.NoError(t, f.db.First(&guardado, "id = ?", entrada.ID).Error)
	assert.False(t, guardado.Cancelado)
	assert.Equal(t, 2, testutil.Stock(t, f.db, p.ID))
}

func TestCancelar_MotivoObligatorio(t *testing.T) {
	f := newLedgerFixture(t)
	p := testutil.CrearProducto(t, f.db, "Tarjetero", 3000, 0)
	entrada := f.registrar(t, p, model.TipoEntrada, 2)

	_, err := f.ledger.Cancelar(context.Background(), entrada.ID, "   ", nil)
	assert.ErrorIs(t, err, apierror.ErrInvalidInput)
	assert.Equal(t, 2, testutil.Stock(t, f.db, p.ID))
}

func TestCancelar_MovimientoInexistente(t *testing.T) {
	f := newLedgerFixture(t)
	_, err := f.ledger.Cancelar(context.Background(), uuid.New(), "motivo", nil)
	assert.ErrorIs(t, err, apierror.ErrNotFound)
}

// ── Sale ──────────────────────────────────────────────────────────────────────

func TestRegistrarVenta_PersisteVentaItemsYMovimientos(t *testing.T) {
	f := newLedgerFixture(t)
	cartera := testutil.CrearProducto(t, f.db, "Cartera Milano", 15000, 5)
	cinto := testutil.CrearProducto(t, f.db, "Cinturon", 7500, 4)
	u := testutil.CrearUsuario(t, f.db, model.RolEmpleado)
	cliente := "Laura"

	v, err := f.ledger.RegistrarVenta(context.Background(), RegistrarVentaInput{
		Items: []ItemVentaInput{
			{ProductoID: cartera.ID, Cantidad: 2},
			{ProductoID: cinto.ID, Cantidad: 1},
		},
		MetodoPago:    "debito",
		ClienteNombre: &cliente,
		UsuarioID:     &u.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), v.Numero)
	assert.True(t, decimal.NewFromInt(37500).Equal(v.Total), "total %s", v.Total)
	assert.Equal(t, model.EstadoCompletada, v.Estado())
	require.Len(t, v.Items, 2)
	require.Len(t, v.Movimientos, 2)

	assert.Equal(t, 3, testutil.Stock(t, f.db, cartera.ID))
	assert.Equal(t, 3, testutil.Stock(t, f.db, cinto.ID))

	var movs []model.Movimiento
	require.NoError(t, f.db.Where("venta_id = ?", v.ID).Find(&movs).Error)
	require.Len(t, movs, 2)
	for _, m := range movs {
		assert.Equal(t, model.TipoVenta, m.Tipo)
		require.NotNil(t, m.VentaItemID)
		require.NotNil(t, m.Motivo)
		assert.Equal(t, "Venta #1", *m.Motivo)
	}

	v2, err := f.ledger.RegistrarVenta(context.Background(), RegistrarVentaInput{
		Items:      []ItemVentaInput{{ProductoID: cinto.ID, Cantidad: 1}},
		MetodoPago: "efectivo",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), v2.Numero)
}

func TestRegistrarVenta_FallaCompletaSiUnItemNoAlcanza(t *testing.T) {
	f := newLedgerFixture(t)
	a := testutil.CrearProducto(t, f.db, "Cartera", 10000, 5)
	b := testutil.CrearProducto(t, f.db, "Bandolera", 12000, 1)

	_, err := f.ledger.RegistrarVenta(context.Background(), RegistrarVentaInput{
		Items: []ItemVentaInput{
			{ProductoID: a.ID, Cantidad: 2},
			{ProductoID: b.ID, Cantidad: 3},
		},
		MetodoPago: "efectivo",
	})
	assert.ErrorIs(t, err, apierror.ErrInsufficientStock)

	assert.Equal(t, 5, testutil.Stock(t, f.db, a.ID))
	assert.Equal(t, 1, testutil.Stock(t, f.db, b.ID))
	assert.Zero(t, contar(t, f.db, &model.Venta{}))
	assert.Zero(t, contar(t, f.db, &model.VentaItem{}))
	assert.Zero(t, contar(t, f.db, &model.Movimiento{}))
}

func TestRegistrarVenta_LineasRepetidasSeAcumulan(t *testing.T) {
	f := newLedgerFixture(t)
	p := testutil.CrearProducto(t, f.db, "Billetera", 5000, 3)

	_, err := f.ledger.RegistrarVenta(context.Background(), RegistrarVentaInput{
		Items: []ItemVentaInput{
			{ProductoID: p.ID, Cantidad: 2},
			{ProductoID: p.ID, Cantidad: 2},
		},
		MetodoPago: "credito",
	})
	assert.ErrorIs(t, err, apierror.ErrInsufficientStock)
	assert.Equal(t, 3, testutil.Stock(t, f.db, p.ID))
}

func TestRegistrarVenta_Validaciones(t *testing.T) {
	f := newLedgerFixture(t)
	p := testutil.CrearProducto(t, f.db, "Billetera", 5000, 3)
	inactivo := testutil.CrearProducto(t, f.db, "Discontinuado", 1000, 9)
	require.NoError(t, f.db.Model(&model.Producto{}).Where("id = ?", inactivo.ID).Update("activo", false).Error)

	cases := []struct {
		name string
		in   RegistrarVentaInput
		kind error
	}{
		{"sin items", RegistrarVentaInput{MetodoPago: "efectivo"}, apierror.ErrInvalidInput},
		{"metodo invalido", RegistrarVentaInput{Items: []ItemVentaInput{{ProductoID: p.ID, Cantidad: 1}}, MetodoPago: "cheque"}, apierror.ErrInvalidInput},
		{"cantidad cero", RegistrarVentaInput{Items: []ItemVentaInput{{ProductoID: p.ID, Cantidad: 0}}, MetodoPago: "efectivo"}, apierror.ErrInvalidInput},
		{"producto inactivo", RegistrarVentaInput{Items: []ItemVentaInput{{ProductoID: inactivo.ID, Cantidad: 1}}, MetodoPago: "efectivo"}, apierror.ErrInvalidInput},
		{"producto inexistente", RegistrarVentaInput{Items: []ItemVentaInput{{ProductoID: uuid.New(), Cantidad: 1}}, MetodoPago: "efectivo"}, apierror.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.ledger.RegistrarVenta(context.Background(), tc.in)
			assert.ErrorIs(t, err, tc.kind)
		})
	}
	assert.Zero(t, contar(t, f.db, &model.Venta{}))
	assert.Equal(t, 3, testutil.Stock(t, f.db, p.ID))
	assert.Equal(t, 9, testutil.Stock(t, f.db, inactivo.ID))
}

func TestCancelar_MovimientoDeVentaDejaVentaParcial(t *testing.T) {
	f := newLedgerFixture(t)
	a := testutil.CrearProducto(t, f.db, "Cartera", 10000, 5)
	b := testutil.CrearProducto(t, f.db, "Cinto", 4000, 5)
	v, err := f.ledger.RegistrarVenta(context.Background(), RegistrarVentaInput{
		Items:      []ItemVentaInput{{ProductoID: a.ID, Cantidad: 1}, {ProductoID: b.ID, Cantidad: 2}},
		MetodoPago: "transferencia",
	})
	require.NoError(t, err)

	var movB model.Movimiento
	require.NoError(t, f.db.Where("venta_id = ? AND producto_id = ?", v.ID, b.ID).First(&movB).Error)
	_, err = f.ledger.Cancelar(context.Background(), movB.ID, "devolucion", nil)
	require.NoError(t, err)
	assert.Equal(t, 5, testutil.Stock(t, f.db, b.ID))

	recargada, err := repository.NewVentaRepository(f.db).FindByID(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EstadoParcial, recargada.Estado())
	assert.True(t, v.Total.Equal(recargada.Total), "total is fixed at creation")
}

func TestAnularVenta_RestauraStockYEsTerminal(t *testing.T) {
	f := newLedgerFixture(t)
	a := testutil.CrearProducto(t, f.db, "Cartera", 10000, 5)
	b := testutil.CrearProducto(t, f.db, "Cinto", 4000, 5)
	v, err := f.ledger.RegistrarVenta(context.Background(), RegistrarVentaInput{
		Items:      []ItemVentaInput{{ProductoID: a.ID, Cantidad: 2}, {ProductoID: b.ID, Cantidad: 1}},
		MetodoPago: "mercadopago",
	})
	require.NoError(t, err)

	anulada, err := f.ledger.AnularVenta(context.Background(), v.ID, "cliente arrepentido", nil)
	require.NoError(t, err)
	assert.Equal(t, model.EstadoAnulada, anulada.Estado())
	assert.Equal(t, 5, testutil.Stock(t, f.db, a.ID))
	assert.Equal(t, 5, testutil.Stock(t, f.db, b.ID))

	_, err = f.ledger.AnularVenta(context.Background(), v.ID, "de nuevo", nil)
	assert.ErrorIs(t, err, apierror.ErrAlreadyCancelled)
	assert.Equal(t, 5, testutil.Stock(t, f.db, a.ID))

	_, err = f.ledger.AnularVenta(context.Background(), uuid.New(), "motivo", nil)
	assert.ErrorIs(t, err, apierror.ErrNotFound)

	_, err = f.ledger.AnularVenta(context.Background(), v.ID, "", nil)
	assert.ErrorIs(t, err, apierror.ErrInvalidInput)
}

// ── Invariant and post-commit effects ─────────────────────────────────────────

func TestLedger_StockIgualNetoDeMovimientosActivos(t *testing.T) {
	f := newLedgerFixture(t)
	p := testutil.CrearProducto(t, f.db, "Cartera Siena", 20000, 0)
	ctx := context.Background()

	e1 := f.registrar(t, p, model.TipoEntrada, 30)
	s1 := f.registrar(t, p, model.TipoSalida, 4)
	f.registrar(t, p, model.TipoEntrada, 6)
	v, err := f.ledger.RegistrarVenta(ctx, RegistrarVentaInput{
		Items: []ItemVentaInput{{ProductoID: p.ID, Cantidad: 3}}, MetodoPago: "efectivo",
	})
	require.NoError(t, err)
	_, err = f.ledger.Editar(ctx, s1.ID, EditarMovimientoInput{Cantidad: 7})
	require.NoError(t, err)
	_, err = f.ledger.Editar(ctx, v.Movimientos[0].ID, EditarMovimientoInput{Cantidad: 2})
	require.NoError(t, err)
	_, err = f.ledger.Cancelar(ctx, e1.ID, "recuento", nil)
	assert.ErrorIs(t, err, apierror.ErrInsufficientStock)
	_, err = f.ledger.Registrar(ctx, RegistrarMovimientoInput{ProductoID: p.ID, Tipo: model.TipoSalida, Cantidad: 100})
	assert.ErrorIs(t, err, apierror.ErrInsufficientStock)
	_, err = f.ledger.AnularVenta(ctx, v.ID, "error", nil)
	require.NoError(t, err)

	stock := testutil.Stock(t, f.db, p.ID)
	assert.Equal(t, 29, stock)
	assert.Equal(t, stock, netoMovimientos(t, f.db, p.ID))
}

func TestLedger_AlertaYInvalidaCacheTrasCommit(t *testing.T) {
	f := newLedgerFixture(t)
	p := testutil.CrearProducto(t, f.db, "Cartera Napoli", 19000, 3) // stock_minimo 2

	f.registrar(t, p, model.TipoEntrada, 1)
	assert.Empty(t, f.alertas.productos, "an increase never alerts")
	require.Len(t, f.cache.codigos, 1)
	assert.Equal(t, *p.Codigo, f.cache.codigos[0])

	f.registrar(t, p, model.TipoSalida, 1)
	assert.Empty(t, f.alertas.productos, "stock 3 is above the minimum")

	f.registrar(t, p, model.TipoSalida, 1)
	assert.Equal(t, []string{"Cartera Napoli"}, f.alertas.productos)

	_, err := f.ledger.Registrar(context.Background(), RegistrarMovimientoInput{
		ProductoID: p.ID, Tipo: model.TipoSalida, Cantidad: 50,
	})
	require.Error(t, err)
	assert.Len(t, f.alertas.productos, 1, "failed operations have no side effects")
	assert.Len(t, f.cache.codigos, 3)
}
