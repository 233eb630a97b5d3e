package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"pharmadms/internal/dto"
	"pharmadms/internal/service"
)

// CalendarHandler 日历导出 HTTP 处理器
type CalendarHandler struct {
	svc service.CalendarService
}

// NewCalendarHandler 创建 CalendarHandler
func NewCalendarHandler(svc service.CalendarService) *CalendarHandler {
	return &CalendarHandler{svc: svc}
}

// Export 导出代表在区间内的拜访计划（ICS）
// GET /api/v1/visit-plans/calendar.ics?representative_id=xxx&start_date=&end_date=
func (h *CalendarHandler) Export(c *gin.Context) {
	var req dto.CalendarExportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badVisitPlanRequest(c, err)
		return
	}

	body, filename, err := h.svc.ExportCalendar(c.Request.Context(), req.RepresentativeID, req.StartDate, req.EndDate)
	if err != nil {
		handleVisitPlanError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}
