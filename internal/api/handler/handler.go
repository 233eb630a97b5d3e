package handler

import (
	"pharmadms/config"
	"pharmadms/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	VisitPlan *VisitPlanHandler
	Import    *ImportHandler
	Calendar  *CalendarHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(cfg *config.Config, svc *service.Service) *Handler {
	return &Handler{
		VisitPlan: NewVisitPlanHandler(svc.VisitPlan),
		Import:    NewImportHandler(svc.Import, cfg.Import.MaxFileSize),
		Calendar:  NewCalendarHandler(svc.Calendar),
	}
}
