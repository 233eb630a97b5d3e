package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pharmadms/internal/dto"
	"pharmadms/internal/service"
	pkgerrors "pharmadms/pkg/errors"
	"pharmadms/pkg/response"
)

// VisitPlanHandler 拜访计划模块 HTTP 处理器
type VisitPlanHandler struct {
	svc service.VisitPlanService
}

// NewVisitPlanHandler 创建 VisitPlanHandler
func NewVisitPlanHandler(svc service.VisitPlanService) *VisitPlanHandler {
	return &VisitPlanHandler{svc: svc}
}

// Generate 手动生成拜访计划
// POST /api/v1/visit-plans/generate
func (h *VisitPlanHandler) Generate(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.GenerateVisitPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badVisitPlanRequest(c, err)
		return
	}

	resp, err := h.svc.Generate(c.Request.Context(), &req, userID)
	if err != nil {
		handleVisitPlanError(c, err)
		return
	}
	response.OK(c, resp)
}

// Preview 预览展开后的拜访日期
// POST /api/v1/visit-plans/preview
func (h *VisitPlanHandler) Preview(c *gin.Context) {
	var req dto.PreviewVisitPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badVisitPlanRequest(c, err)
		return
	}

	resp, err := h.svc.Preview(c.Request.Context(), &req)
	if err != nil {
		handleVisitPlanError(c, err)
		return
	}
	response.OK(c, resp)
}

// List 代表的拜访计划列表
// GET /api/v1/visit-plans?representative_id=xxx&start_date=&end_date=
func (h *VisitPlanHandler) List(c *gin.Context) {
	var req dto.VisitPlanListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badVisitPlanRequest(c, err)
		return
	}

	list, total, err := h.svc.List(c.Request.Context(), &req)
	if err != nil {
		handleVisitPlanError(c, err)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// ListAssignedCustomers 代表名下的客户
// GET /api/v1/representatives/:id/customers
func (h *VisitPlanHandler) ListAssignedCustomers(c *gin.Context) {
	representativeID := c.Param("id")

	list, err := h.svc.ListAssignedCustomers(c.Request.Context(), representativeID)
	if err != nil {
		handleVisitPlanError(c, err)
		return
	}
	response.OK(c, list)
}

func badVisitPlanRequest(c *gin.Context, err error) {
	if details := bindErrorDetails(err); details != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 20001, "参数校验失败", details)
		return
	}
	response.BadRequest(c, 20001, "请求格式错误")
}

// handleVisitPlanError 统一拜访计划模块错误映射
func handleVisitPlanError(c *gin.Context, err error) {
	var fe *service.FieldError
	switch {
	case errors.As(err, &fe):
		response.ErrorWithDetails(c, http.StatusBadRequest, 20102, "排期参数无效", map[string]string{fe.Field: fe.Reason})
	case errors.Is(err, service.ErrDateRangeTooLong):
		response.BadRequest(c, 20102, err.Error())
	case errors.Is(err, service.ErrInvalidScheduleParameters):
		response.BadRequest(c, 20102, "排期参数无效")
	case errors.Is(err, service.ErrRepresentativeNotFound):
		response.NotFound(c, 20101, "代表不存在")
	case pkgerrors.IsStoreUnavailable(err):
		response.ServiceUnavailable(c, 20103, "数据存储暂不可用，请稍后重试")
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}
