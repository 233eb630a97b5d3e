package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"pharmadms/internal/dto"
	"pharmadms/internal/service"
	pkgerrors "pharmadms/pkg/errors"
	"pharmadms/pkg/response"
)

const (
	xlsxContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	templateFilename = "visit-plan-import-template.xlsx"
)

// ImportHandler 拜访计划批量导入 HTTP 处理器
type ImportHandler struct {
	svc         service.ImportService
	maxFileSize int64
}

// NewImportHandler 创建 ImportHandler
func NewImportHandler(svc service.ImportService, maxFileSize int64) *ImportHandler {
	return &ImportHandler{svc: svc, maxFileSize: maxFileSize}
}

// Import 上传 Excel 批量导入拜访计划
// POST /api/v1/visit-plans/import  multipart/form-data, field="file"
//
// 行级错误不影响其他行，统一以 200 返回导入报告
func (h *ImportHandler) Import(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.fileTooLarge(c)
			return
		}
		response.BadRequest(c, 21001, "请上传 Excel 文件（字段名 file）")
		return
	}
	defer file.Close()

	if h.maxFileSize > 0 && header.Size > h.maxFileSize {
		h.fileTooLarge(c)
		return
	}
	if ext := strings.ToLower(filepath.Ext(header.Filename)); ext != ".xlsx" {
		response.BadRequest(c, 21001, "仅支持 .xlsx 文件")
		return
	}

	rows, err := h.svc.ParseImportFile(file)
	if err != nil {
		handleImportError(c, err)
		return
	}

	report, err := h.svc.ImportRows(c.Request.Context(), rows, service.ImportMeta{
		FileName:   header.Filename,
		OperatorID: userID,
	})
	if err != nil {
		handleImportError(c, err)
		return
	}
	response.OK(c, report)
}

// Template 下载导入模板
// GET /api/v1/visit-plans/import/template
func (h *ImportHandler) Template(c *gin.Context) {
	buf, err := h.svc.BuildTemplate()
	if err != nil {
		_ = c.Error(err)
		response.InternalError(c)
		return
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(templateFilename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ListBatches 导入历史
// GET /api/v1/visit-plans/import/batches
func (h *ImportHandler) ListBatches(c *gin.Context) {
	var req dto.ImportBatchListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 20001, "参数校验失败")
		return
	}

	list, total, err := h.svc.ListBatches(c.Request.Context(), &req)
	if err != nil {
		handleImportError(c, err)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

func (h *ImportHandler) fileTooLarge(c *gin.Context) {
	response.Error(c, http.StatusRequestEntityTooLarge, 21104,
		fmt.Sprintf("文件大小不能超过 %d MB", h.maxFileSize>>20))
}

// handleImportError 统一导入模块错误映射
func handleImportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrImportBadFile):
		response.BadRequest(c, 21001, service.ErrImportBadFile.Error())
	case errors.Is(err, service.ErrImportNoData):
		response.BadRequest(c, 21101, service.ErrImportNoData.Error())
	case errors.Is(err, service.ErrImportTooManyRows):
		response.BadRequest(c, 21102, err.Error())
	case errors.Is(err, service.ErrImportBadHeader):
		response.BadRequest(c, 21103, service.ErrImportBadHeader.Error())
	case pkgerrors.IsStoreUnavailable(err):
		response.ServiceUnavailable(c, 20103, "数据存储暂不可用，请稍后重试")
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}
