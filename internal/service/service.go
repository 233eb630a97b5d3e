package service

import (
	"go.uber.org/zap"

	"pharmadms/config"
	"pharmadms/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	VisitPlan VisitPlanService
	Import    ImportService
	Calendar  CalendarService
}

// NewService 创建 Service 聚合
// 手动生成与批量导入共用同一个 Materializer
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	logger *zap.Logger,
) *Service {
	materializer := NewMaterializer(repo, logger)
	return &Service{
		VisitPlan: NewVisitPlanService(repo, materializer, cfg.Import.MaxRangeDays, logger),
		Import:    NewImportService(repo, materializer, &cfg.Import, logger),
		Calendar:  NewCalendarService(repo, cfg.Import.MaxRangeDays, logger),
	}
}
