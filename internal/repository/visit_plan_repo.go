package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pharmadms/internal/model"
)

// VisitPlanFilter 计划列表查询条件
type VisitPlanFilter struct {
	RepresentativeID string
	CustomerID       string
	StartDate        model.Date
	EndDate          model.Date
}

// VisitPlanRepository 拜访计划数据访问接口
// 只追加写入，不修改或删除已有计划
type VisitPlanRepository interface {
	// Upsert 以 (representative_id, customer_id, visit_date) 为键幂等写入，
	// created=false 表示该计划已存在
	Upsert(ctx context.Context, plan *model.VisitPlan) (created bool, err error)
	ListExisting(ctx context.Context, representativeID string, customerIDs []string, start, end model.Date) ([]model.VisitPlanKey, error)
	List(ctx context.Context, filter VisitPlanFilter, offset, limit int) ([]model.VisitPlan, int64, error)
	ListInRange(ctx context.Context, representativeID string, start, end model.Date) ([]model.VisitPlan, error)
}

// visitPlanRepo VisitPlanRepository 的 GORM 实现
type visitPlanRepo struct {
	db *gorm.DB
}

// NewVisitPlanRepo 创建 VisitPlanRepository 实例
func NewVisitPlanRepo(db *gorm.DB) VisitPlanRepository {
	return &visitPlanRepo{db: db}
}

var visitPlanConflictColumns = []clause.Column{
	{Name: "representative_id"},
	{Name: "customer_id"},
	{Name: "visit_date"},
}

func (r *visitPlanRepo) Upsert(ctx context.Context, plan *model.VisitPlan) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: visitPlanConflictColumns, DoNothing: true}).
		Create(plan)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *visitPlanRepo) ListExisting(ctx context.Context, representativeID string, customerIDs []string, start, end model.Date) ([]model.VisitPlanKey, error) {
	if len(customerIDs) == 0 {
		return nil, nil
	}

	var plans []model.VisitPlan
	err := r.db.WithContext(ctx).
		Select("customer_id", "visit_date").
		Where("representative_id = ? AND customer_id IN ?", representativeID, customerIDs).
		Where("visit_date BETWEEN ? AND ?", start, end).
		Find(&plans).Error
	if err != nil {
		return nil, err
	}

	keys := make([]model.VisitPlanKey, 0, len(plans))
	for i := range plans {
		keys = append(keys, plans[i].Key())
	}
	return keys, nil
}

func (r *visitPlanRepo) List(ctx context.Context, filter VisitPlanFilter, offset, limit int) ([]model.VisitPlan, int64, error) {
	var plans []model.VisitPlan
	var total int64

	db := r.db.WithContext(ctx).Model(&model.VisitPlan{}).
		Where("representative_id = ?", filter.RepresentativeID)
	if filter.CustomerID != "" {
		db = db.Where("customer_id = ?", filter.CustomerID)
	}
	if !filter.StartDate.IsZero() {
		db = db.Where("visit_date >= ?", filter.StartDate)
	}
	if !filter.EndDate.IsZero() {
		db = db.Where("visit_date <= ?", filter.EndDate)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Customer").
		Offset(offset).Limit(limit).
		Order("visit_date ASC, customer_id ASC").
		Find(&plans).Error; err != nil {
		return nil, 0, err
	}

	return plans, total, nil
}

func (r *visitPlanRepo) ListInRange(ctx context.Context, representativeID string, start, end model.Date) ([]model.VisitPlan, error) {
	var plans []model.VisitPlan
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Where("representative_id = ? AND visit_date BETWEEN ? AND ?", representativeID, start, end).
		Order("visit_date ASC, customer_id ASC").
		Find(&plans).Error
	return plans, err
}
