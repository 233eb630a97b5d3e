package repository

import (
	"context"

	"gorm.io/gorm"

	"pharmadms/internal/model"
)

// ImportBatchRepository 导入批次数据访问接口
type ImportBatchRepository interface {
	Create(ctx context.Context, batch *model.ImportBatch) error
	Update(ctx context.Context, batch *model.ImportBatch) error
	List(ctx context.Context, offset, limit int) ([]model.ImportBatch, int64, error)
}

// importBatchRepo ImportBatchRepository 的 GORM 实现
type importBatchRepo struct {
	db *gorm.DB
}

// NewImportBatchRepo 创建 ImportBatchRepository 实例
func NewImportBatchRepo(db *gorm.DB) ImportBatchRepository {
	return &importBatchRepo{db: db}
}

func (r *importBatchRepo) Create(ctx context.Context, batch *model.ImportBatch) error {
	return r.db.WithContext(ctx).Create(batch).Error
}

func (r *importBatchRepo) Update(ctx context.Context, batch *model.ImportBatch) error {
	return r.db.WithContext(ctx).Save(batch).Error
}

func (r *importBatchRepo) List(ctx context.Context, offset, limit int) ([]model.ImportBatch, int64, error) {
	var batches []model.ImportBatch
	var total int64

	db := r.db.WithContext(ctx).Model(&model.ImportBatch{})

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&batches).Error; err != nil {
		return nil, 0, err
	}

	return batches, total, nil
}
