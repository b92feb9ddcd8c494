package repository

import (
	"context"
	"time"

	"github.com/gonza-rom/jmr-stock-sub000/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VentaFilter narrows GET /v1/ventas. Hasta is exclusive.
type VentaFilter struct {
	Desde      time.Time
	Hasta      time.Time
	MetodoPago string
	Page       int
	Limit      int
}

type VentaRepository interface {
	CreateTx(tx *gorm.DB, v *model.Venta) error
	NextNumeroTx(tx *gorm.DB) (int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Venta, error)
	List(ctx context.Context, filter VentaFilter) ([]model.Venta, int64, error)
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type ventaRepo struct{ db *gorm.DB }

func NewVentaRepository(db *gorm.DB) VentaRepository { return &ventaRepo{db: db} }

func (r *ventaRepo) DB() *gorm.DB { return r.db }

// CreateTx inserts the sale and its items. Movements are inserted by the ledger.
func (r *ventaRepo) CreateTx(tx *gorm.DB, v *model.Venta) error {
	return tx.Omit("Movimientos", "Usuario").Create(v).Error
}

// ventaNumeroLock is the advisory lock key that serialises numbering on PostgreSQL.
const ventaNumeroLock = 74_510_001

// NextNumeroTx returns MAX(numero)+1. On PostgreSQL a transaction-scoped
// advisory lock is held until commit so concurrent sales get distinct numbers;
// the unique index on numero still backs it up.
func (r *ventaRepo) NextNumeroTx(tx *gorm.DB) (int64, error) {
	if tx.Dialector.Name() == "postgres" {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", ventaNumeroLock).Error; err != nil {
			return 0, err
		}
	}
	var n int64
	err := tx.Model(&model.Venta{}).Select("COALESCE(MAX(numero), 0) + 1").Scan(&n).Error
	return n, err
}

func (r *ventaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error) {
	return r.FindByIDTx(r.db.WithContext(ctx), id)
}

func (r *ventaRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Venta, error) {
	var v model.Venta
	err := tx.Preload("Items.Producto").Preload("Movimientos").
		First(&v, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *ventaRepo) List(ctx context.Context, filter VentaFilter) ([]model.Venta, int64, error) {
	var ventas []model.Venta
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Venta{})
	if !filter.Desde.IsZero() {
		q = q.Where("created_at >= ?", filter.Desde)
	}
	if !filter.Hasta.IsZero() {
		q = q.Where("created_at < ?", filter.Hasta)
	}
	if filter.MetodoPago != "" {
		q = q.Where("metodo_pago = ?", filter.MetodoPago)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Items.Producto").Preload("Movimientos").
		Order("numero DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&ventas).Error

	return ventas, total, err
}
