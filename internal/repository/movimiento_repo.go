package repository

import (
	"context"
	"time"

	"github.com/gonza-rom/jmr-stock-sub000/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MovimientoFilter defines filters for listing stock movements.
type MovimientoFilter struct {
	ProductoID *uuid.UUID
	Tipo       string
	Cancelado  *bool
	Desde      time.Time // inclusive, zero = unbounded
	Hasta      time.Time // exclusive, zero = unbounded
	Page       int
	Limit      int
}

type MovimientoRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Movimiento, error)
	List(ctx context.Context, filter MovimientoFilter) ([]model.Movimiento, int64, error)

	CreateTx(tx *gorm.DB, m *model.Movimiento) error
	LockByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Movimiento, error)
	LockActivosPorVentaTx(tx *gorm.DB, ventaID uuid.UUID) ([]model.Movimiento, error)
	UpdateTx(tx *gorm.DB, m *model.Movimiento) error

	DB() *gorm.DB
}

type movimientoRepo struct{ db *gorm.DB }

func NewMovimientoRepository(db *gorm.DB) MovimientoRepository {
	return &movimientoRepo{db: db}
}

func (r *movimientoRepo) DB() *gorm.DB { return r.db }

func (r *movimientoRepo) CreateTx(tx *gorm.DB, m *model.Movimiento) error {
	return tx.Omit(clause.Associations).Create(m).Error
}

func (r *movimientoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Movimiento, error) {
	var m model.Movimiento
	err := r.db.WithContext(ctx).Preload("Producto").First(&m, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *movimientoRepo) LockByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Movimiento, error) {
	var m model.Movimiento
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&m, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// LockActivosPorVentaTx locks the sale's non-cancelled movements ordered by
// product id, the same order RecordSale locks products in.
func (r *movimientoRepo) LockActivosPorVentaTx(tx *gorm.DB, ventaID uuid.UUID) ([]model.Movimiento, error) {
	var movs []model.Movimiento
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("venta_id = ? AND cancelado = ?", ventaID, false).
		Order("producto_id ASC").
		Find(&movs).Error
	return movs, err
}

func (r *movimientoRepo) UpdateTx(tx *gorm.DB, m *model.Movimiento) error {
	return tx.Omit(clause.Associations).Save(m).Error
}

func (r *movimientoRepo) List(ctx context.Context, filter MovimientoFilter) ([]model.Movimiento, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Movimiento{})
	if filter.ProductoID != nil {
		q = q.Where("producto_id = ?", *filter.ProductoID)
	}
	if filter.Tipo != "" {
		q = q.Where("tipo = ?", filter.Tipo)
	}
	if filter.Cancelado != nil {
		q = q.Where("cancelado = ?", *filter.Cancelado)
	}
	if !filter.Desde.IsZero() {
		q = q.Where("created_at >= ?", filter.Desde)
	}
	if !filter.Hasta.IsZero() {
		q = q.Where("created_at < ?", filter.Hasta)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	limit := filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}
	offset := (page - 1) * limit

	var movimientos []model.Movimiento
	err := q.Preload("Producto").
		Order("created_at DESC").Offset(offset).Limit(limit).
		Find(&movimientos).Error
	return movimientos, total, err
}
