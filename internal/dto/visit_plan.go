package dto

// ── 计划生成请求 ──

// GenerateVisitPlanRequest 手动生成拜访计划
// days_of_week 按 1=周一 … 6=周六 编号；日期格式 2006-01-02
type GenerateVisitPlanRequest struct {
	RepresentativeID string   `json:"representative_id" binding:"required,uuid"`
	CustomerIDs      []string `json:"customer_ids"      binding:"required,min=1,dive,uuid"`
	Frequency        string   `json:"frequency"         binding:"required,frequency_code"`
	DaysOfWeek       []int    `json:"days_of_week"      binding:"required,min=1,dive,weekday"`
	StartDate        string   `json:"start_date"        binding:"required,datetime=2006-01-02"`
	EndDate          string   `json:"end_date"          binding:"required,datetime=2006-01-02"`
}

// PreviewVisitPlanRequest 预览展开日期，不写库
type PreviewVisitPlanRequest struct {
	Frequency  string `json:"frequency"    binding:"required,frequency_code"`
	DaysOfWeek []int  `json:"days_of_week" binding:"required,min=1,dive,weekday"`
	StartDate  string `json:"start_date"   binding:"required,datetime=2006-01-02"`
	EndDate    string `json:"end_date"     binding:"required,datetime=2006-01-02"`
}

// VisitPlanListRequest 计划列表查询
type VisitPlanListRequest struct {
	PaginationRequest
	RepresentativeID string `form:"representative_id" binding:"required,uuid"`
	CustomerID       string `form:"customer_id"       binding:"omitempty,uuid"`
	StartDate        string `form:"start_date"        binding:"omitempty,datetime=2006-01-02"`
	EndDate          string `form:"end_date"          binding:"omitempty,datetime=2006-01-02"`
}

// CalendarExportRequest 导出代表日历
type CalendarExportRequest struct {
	RepresentativeID string `form:"representative_id" binding:"required,uuid"`
	StartDate        string `form:"start_date"        binding:"required,datetime=2006-01-02"`
	EndDate          string `form:"end_date"          binding:"required,datetime=2006-01-02"`
}

// ── 计划生成响应 ──

// GenerateVisitPlanResponse 手动生成结果
type GenerateVisitPlanResponse struct {
	Message       string          `json:"message"`
	DateCount     int             `json:"date_count"`
	CustomerCount int             `json:"customer_count"`
	Created       int             `json:"created"`
	Skipped       int             `json:"skipped"`
	Issues        []GenerateIssue `json:"issues,omitempty"`
}

// GenerateIssue 单个条目的问题（如客户不存在）
type GenerateIssue struct {
	CustomerID string `json:"customer_id"`
	Reason     string `json:"reason"`
}

// PreviewVisitPlanResponse 预览结果
type PreviewVisitPlanResponse struct {
	Frequency string   `json:"frequency"`
	Dates     []string `json:"dates"`
}

// VisitPlanResponse 计划条目
type VisitPlanResponse struct {
	ID               string           `json:"id"`
	RepresentativeID string           `json:"representative_id"`
	Customer         *CustomerSummary `json:"customer,omitempty"`
	VisitDate        string           `json:"visit_date"`
	TerritoryID      *string          `json:"territory_id,omitempty"`
	Frequency        string           `json:"frequency"`
	Source           string           `json:"source"`
	ImportBatchID    *string          `json:"import_batch_id,omitempty"`
	CreatedAt        string           `json:"created_at"`
}

// CustomerSummary 客户摘要（分配查询与计划列表共用）
type CustomerSummary struct {
	ID          string  `json:"id"`
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Address     string  `json:"address,omitempty"`
	TerritoryID *string `json:"territory_id,omitempty"`
}
