package repository

import (
	"context"

	"gorm.io/gorm"

	"pharmadms/internal/model"
)

// GenerationLogRepository 生成审计记录数据访问接口
type GenerationLogRepository interface {
	Create(ctx context.Context, log *model.GenerationLog) error
}

type generationLogRepo struct {
	db *gorm.DB
}

// NewGenerationLogRepo 创建 GenerationLogRepository 实例
func NewGenerationLogRepo(db *gorm.DB) GenerationLogRepository {
	return &generationLogRepo{db: db}
}

func (r *generationLogRepo) Create(ctx context.Context, log *model.GenerationLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}
