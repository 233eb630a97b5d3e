package dto

// ── 分页请求 ──

// DefaultPageSize 未指定 page_size 时每页条数，约为一名代表一个月的拜访量
const DefaultPageSize = 31

// PaginationRequest 计划列表与导入批次列表共用的分页参数
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=200"`
}

// GetPage 页码从 1 开始
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return DefaultPageSize
	}
	return p.PageSize
}

// GetOffset 换算为仓储层的 offset
func (p *PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}
