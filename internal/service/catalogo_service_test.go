package service

import (
	"context"
	"testing"

	"github.com/gonza-rom/jmr-stock-sub000/internal/apierror"
	"github.com/gonza-rom/jmr-stock-sub000/internal/dto"
	"github.com/gonza-rom/jmr-stock-sub000/internal/model"
	"github.com/gonza-rom/jmr-stock-sub000/internal/repository"
	"github.com/gonza-rom/jmr-stock-sub000/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCategoria_NombreUnicoSinDistinguirMayusculas(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewCategoriaService(repository.NewCategoriaRepository(db), repository.NewProductoRepository(db))
	ctx := context.Background()

	c, err := svc.Crear(ctx, dto.CrearCategoriaRequest{Nombre: "Carteras"})
	require.NoError(t, err)
	_, err = svc.Crear(ctx, dto.CrearCategoriaRequest{Nombre: "CARTERAS"})
	assert.ErrorIs(t, err, apierror.ErrConflict)

	otra, err := svc.Crear(ctx, dto.CrearCategoriaRequest{Nombre: "Cinturones"})
	require.NoError(t, err)
	_, err = svc.Actualizar(ctx, uuid.MustParse(otra.ID), dto.ActualizarCategoriaRequest{Nombre: strPtr("carteras")})
	assert.ErrorIs(t, err, apierror.ErrConflict)

	// Re-casing its own name is allowed.
	act, err := svc.Actualizar(ctx, uuid.MustParse(c.ID), dto.ActualizarCategoriaRequest{Nombre: strPtr("CARTERAS")})
	require.NoError(t, err)
	assert.Equal(t, "CARTERAS", act.Nombre)
}

// nombreSiempreLibre hides existing categories from the pre-insert check.
type nombreSiempreLibre struct {
	repository.CategoriaRepository
}

func (nombreSiempreLibre) ObtenerPorNombre(context.Context, string) (*model.Categoria, error) {
	return nil, gorm.ErrRecordNotFound
}

func TestCategoria_NombreDuplicadoEnCarreraEsConflicto(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewCategoriaService(nombreSiempreLibre{repository.NewCategoriaRepository(db)}, repository.NewProductoRepository(db))
	ctx := context.Background()

	_, err := svc.Crear(ctx, dto.CrearCategoriaRequest{Nombre: "Billeteras"})
	require.NoError(t, err)
	_, err = svc.Crear(ctx, dto.CrearCategoriaRequest{Nombre: "Billeteras"})
	assert.ErrorIs(t, err, apierror.ErrConflict)

	otra, err := svc.Crear(ctx, dto.CrearCategoriaRequest{Nombre: "Riñoneras"})
	require.NoError(t, err)
	_, err = svc.Actualizar(ctx, uuid.MustParse(otra.ID), dto.ActualizarCategoriaRequest{Nombre: strPtr("Billeteras")})
	assert.ErrorIs(t, err, apierror.ErrConflict)
}

func TestCategoria_DesactivarEnUso(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewCategoriaService(repository.NewCategoriaRepository(db), repository.NewProductoRepository(db))
	ctx := context.Background()

	c, err := svc.Crear(ctx, dto.CrearCategoriaRequest{Nombre: "Mochilas"})
	require.NoError(t, err)
	catID := uuid.MustParse(c.ID)
	p := testutil.CrearProducto(t, db, "Mochila urbana", 22000, 1)
	require.NoError(t, db.Model(&model.Producto{}).Where("id = ?", p.ID).Update("categoria_id", catID).Error)

	assert.ErrorIs(t, svc.Desactivar(ctx, catID), apierror.ErrConflict)
	inactiva := false
	_, err = svc.Actualizar(ctx, catID, dto.ActualizarCategoriaRequest{Activo: &inactiva})
	assert.ErrorIs(t, err, apierror.ErrConflict)

	require.NoError(t, db.Model(&model.Producto{}).Where("id = ?", p.ID).Update("activo", false).Error)
	require.NoError(t, svc.Desactivar(ctx, catID))

	activas, err := svc.Listar(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, activas)
	todas, err := svc.Listar(ctx, true)
	require.NoError(t, err)
	assert.Len(t, todas, 1)

	assert.ErrorIs(t, svc.Desactivar(ctx, uuid.New()), apierror.ErrNotFound)
}

func TestProveedor_CRUDYEliminarEnUso(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewProveedorService(repository.NewProveedorRepository(db), repository.NewProductoRepository(db))
	ctx := context.Background()

	prov, err := svc.Crear(ctx, dto.CrearProveedorRequest{Nombre: "Curtiembre del Sur", Telefono: strPtr("351-555")})
	require.NoError(t, err)
	id := uuid.MustParse(prov.ID)

	act, err := svc.Actualizar(ctx, id, dto.ActualizarProveedorRequest{Contacto: strPtr("Raul")})
	require.NoError(t, err)
	require.NotNil(t, act.Contacto)
	assert.Equal(t, "Raul", *act.Contacto)
	require.NotNil(t, act.Telefono)

	p := testutil.CrearProducto(t, db, "Cinturon", 7000, 1)
	require.NoError(t, db.Model(&model.Producto{}).Where("id = ?", p.ID).Update("proveedor_id", id).Error)
	assert.ErrorIs(t, svc.Eliminar(ctx, id), apierror.ErrConflict)

	require.NoError(t, db.Model(&model.Producto{}).Where("id = ?", p.ID).Update("proveedor_id", nil).Error)
	require.NoError(t, svc.Eliminar(ctx, id))

	got, err := svc.ObtenerPorID(ctx, id)
	require.NoError(t, err)
	assert.False(t, got.Activo)

	list, err := svc.Listar(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.ObtenerPorID(ctx, uuid.New())
	assert.ErrorIs(t, err, apierror.ErrNotFound)
}
