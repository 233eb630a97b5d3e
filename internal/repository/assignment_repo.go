package repository

import (
	"context"

	"gorm.io/gorm"

	"pharmadms/internal/model"
)

// AssignmentRepository 代表-客户分配查询接口
// 分配关系由外部子系统维护，这里只提供查询
type AssignmentRepository interface {
	ListCustomersByRepresentative(ctx context.Context, representativeID string) ([]model.Customer, error)
}

// assignmentRepo AssignmentRepository 的 GORM 实现
type assignmentRepo struct {
	db *gorm.DB
}

// NewAssignmentRepo 创建 AssignmentRepository 实例
func NewAssignmentRepo(db *gorm.DB) AssignmentRepository {
	return &assignmentRepo{db: db}
}

func (r *assignmentRepo) ListCustomersByRepresentative(ctx context.Context, representativeID string) ([]model.Customer, error) {
	var customers []model.Customer
	err := r.db.WithContext(ctx).
		Model(&model.Customer{}).
		Joins("JOIN customer_assignments ca ON ca.customer_id = customers.customer_id AND ca.deleted_at IS NULL").
		Where("ca.representative_id = ?", representativeID).
		Order("customers.code ASC").
		Find(&customers).Error
	return customers, err
}
