package dto

// ImportVisitPlanResponse 批量导入报告
// success_count 为处理成功的行数（包含区间内没有匹配日期的行）
type ImportVisitPlanResponse struct {
	BatchID      string           `json:"batch_id"`
	Total        int              `json:"total"`
	SuccessCount int              `json:"success_count"`
	Failed       int              `json:"failed"`
	CreatedPlans int              `json:"created_plans"`
	SkippedPlans int              `json:"skipped_plans"`
	Aborted      bool             `json:"aborted"`
	Errors       []ImportRowError `json:"errors"`
}

// ImportRowError 行级错误，row 为数据行序号（从 1 开始，不含表头）
type ImportRowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportBatchListRequest 导入历史查询
type ImportBatchListRequest struct {
	PaginationRequest
}

// ImportBatchResponse 导入批次记录
type ImportBatchResponse struct {
	ID           string  `json:"id"`
	FileName     string  `json:"file_name"`
	TotalRows    int     `json:"total_rows"`
	SuccessRows  int     `json:"success_rows"`
	FailedRows   int     `json:"failed_rows"`
	CreatedPlans int     `json:"created_plans"`
	SkippedPlans int     `json:"skipped_plans"`
	Aborted      bool    `json:"aborted"`
	CreatedBy    *string `json:"created_by,omitempty"`
	CreatedAt    string  `json:"created_at"`
}
