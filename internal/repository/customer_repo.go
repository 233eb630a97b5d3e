package repository

import (
	"context"

	"gorm.io/gorm"

	"pharmadms/internal/model"
)

// CustomerRepository 客户数据访问接口（只读）
type CustomerRepository interface {
	GetByID(ctx context.Context, id string) (*model.Customer, error)
	GetByCode(ctx context.Context, code string) (*model.Customer, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.Customer, error)
	ListByCodes(ctx context.Context, codes []string) ([]model.Customer, error)
}

// customerRepo CustomerRepository 的 GORM 实现
type customerRepo struct {
	db *gorm.DB
}

// NewCustomerRepo 创建 CustomerRepository 实例
func NewCustomerRepo(db *gorm.DB) CustomerRepository {
	return &customerRepo{db: db}
}

func (r *customerRepo) GetByID(ctx context.Context, id string) (*model.Customer, error) {
	var c model.Customer
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByCode 按客户编码查找，编码比较忽略大小写
func (r *customerRepo) GetByCode(ctx context.Context, code string) (*model.Customer, error) {
	var c model.Customer
	err := r.db.WithContext(ctx).
		Where("UPPER(code) = ?", normalizeCode(code)).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *customerRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Customer, error) {
	var customers []model.Customer
	if len(ids) == 0 {
		return customers, nil
	}
	err := r.db.WithContext(ctx).
		Where("customer_id IN ?", ids).
		Order("code ASC").
		Find(&customers).Error
	return customers, err
}

func (r *customerRepo) ListByCodes(ctx context.Context, codes []string) ([]model.Customer, error) {
	var customers []model.Customer
	if len(codes) == 0 {
		return customers, nil
	}
	err := r.db.WithContext(ctx).
		Where("UPPER(code) IN ?", normalizeCodes(codes)).
		Find(&customers).Error
	return customers, err
}
