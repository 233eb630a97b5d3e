package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"pharmadms/internal/dto"
	"pharmadms/internal/model"
	"pharmadms/internal/repository"
	pkgerrors "pharmadms/pkg/errors"
)

// ── 拜访计划模块业务错误 ──

var (
	ErrRepresentativeNotFound = errors.New("代表不存在")
	ErrDateRangeTooLong       = errors.New("日期区间超出上限")
)

// VisitPlanService 拜访计划业务接口
type VisitPlanService interface {
	// Generate 手动生成：一个代表 + 选中的客户 + 频次 + 星期 + 日期区间
	Generate(ctx context.Context, req *dto.GenerateVisitPlanRequest, operatorID string) (*dto.GenerateVisitPlanResponse, error)
	// Preview 只展开日期，不访问存储
	Preview(ctx context.Context, req *dto.PreviewVisitPlanRequest) (*dto.PreviewVisitPlanResponse, error)
	List(ctx context.Context, req *dto.VisitPlanListRequest) ([]dto.VisitPlanResponse, int64, error)
	ListAssignedCustomers(ctx context.Context, representativeID string) ([]dto.CustomerSummary, error)
}

type visitPlanService struct {
	repo         *repository.Repository
	materializer *Materializer
	maxRangeDays int
	logger       *zap.Logger
}

// NewVisitPlanService 创建 VisitPlanService 实例
// maxRangeDays<=0 表示不限制区间长度
func NewVisitPlanService(repo *repository.Repository, materializer *Materializer, maxRangeDays int, logger *zap.Logger) VisitPlanService {
	return &visitPlanService{
		repo:         repo,
		materializer: materializer,
		maxRangeDays: maxRangeDays,
		logger:       logger,
	}
}

// ────────────────────── Generate ──────────────────────

func (s *visitPlanService) Generate(ctx context.Context, req *dto.GenerateVisitPlanRequest, operatorID string) (*dto.GenerateVisitPlanResponse, error) {
	// 1. 字段级前置校验，失败时不展开日期也不访问存储
	if req.RepresentativeID == "" {
		return nil, &FieldError{Field: "representative_id", Reason: "representative is required"}
	}
	if len(req.CustomerIDs) == 0 {
		return nil, &FieldError{Field: "customer_ids", Reason: "at least one customer is required"}
	}
	frequency, weekdays, dateRange, err := s.parseSchedule(req.Frequency, req.DaysOfWeek, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	genReq, err := NewGenerationRequest(req.RepresentativeID, req.CustomerIDs, frequency, weekdays, dateRange, ByOperator(operatorID))
	if err != nil {
		return nil, err
	}
	dates, err := genReq.ResolveDates()
	if err != nil {
		return nil, err
	}

	// 2. 代表必须存在
	if _, err := s.repo.Representative.GetByID(ctx, genReq.RepresentativeID()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRepresentativeNotFound
		}
		s.logger.Error("查询代表失败", zap.String("representative_id", genReq.RepresentativeID()), zap.Error(err))
		return nil, pkgerrors.WrapStore(err)
	}

	// 3. 客户逐项核对，不存在的记为 issue，其余继续生成
	requested := genReq.CustomerIDs()
	customers, err := s.repo.Customer.ListByIDs(ctx, requested)
	if err != nil {
		s.logger.Error("查询客户失败", zap.Error(err))
		return nil, pkgerrors.WrapStore(err)
	}
	known := make(map[string]*model.Customer, len(customers))
	for i := range customers {
		known[customers[i].CustomerID] = &customers[i]
	}

	resp := &dto.GenerateVisitPlanResponse{DateCount: len(dates)}
	valid := make([]string, 0, len(requested))
	for _, id := range requested {
		if _, ok := known[id]; !ok {
			resp.Issues = append(resp.Issues, dto.GenerateIssue{CustomerID: id, Reason: "customer not found"})
			continue
		}
		valid = append(valid, id)
	}
	resp.CustomerCount = len(valid)
	if len(valid) == 0 {
		resp.Message = summarize(resp)
		return resp, nil
	}

	if len(valid) != len(requested) {
		genReq, err = NewGenerationRequest(genReq.RepresentativeID(), valid, frequency, weekdays, dateRange, ByOperator(operatorID))
		if err != nil {
			return nil, err
		}
	}

	// 4. 物化
	lookup := buildTerritoryLookup(ctx, s.repo.Assignment, genReq.RepresentativeID(), func(id string) *string {
		if c, ok := known[id]; ok {
			return c.TerritoryID
		}
		return nil
	}, s.logger)
	result, err := s.materializer.Materialize(ctx, genReq, dates, lookup)
	if result != nil {
		resp.Created = len(result.Created)
		resp.Skipped = len(result.Skipped)
	}
	if err != nil {
		return nil, err
	}

	resp.Message = summarize(resp)
	s.logger.Info("手动生成拜访计划完成",
		zap.String("representative_id", genReq.RepresentativeID()),
		zap.String("frequency", string(frequency)),
		zap.Int("dates", resp.DateCount),
		zap.Int("customers", resp.CustomerCount),
		zap.Int("created", resp.Created),
		zap.Int("skipped", resp.Skipped),
		zap.Int("issues", len(resp.Issues)),
	)
	return resp, nil
}

func summarize(resp *dto.GenerateVisitPlanResponse) string {
	if resp.CustomerCount == 0 {
		return "no visit plans generated: none of the selected customers exist"
	}
	if resp.DateCount == 0 {
		return "no visit plans generated: no selected weekday falls within the date range"
	}
	msg := fmt.Sprintf("generated %d visit plans for %d customers, %d already existed", resp.Created, resp.CustomerCount, resp.Skipped)
	if len(resp.Issues) > 0 {
		msg += fmt.Sprintf(", %d customers skipped", len(resp.Issues))
	}
	return msg
}

// parseSchedule 解析频次、星期与日期区间，并检查区间长度上限
func (s *visitPlanService) parseSchedule(freq string, days []int, start, end string) (model.FrequencyCode, WeekdaySet, DateRange, error) {
	frequency, err := model.ParseFrequency(freq)
	if err != nil {
		return "", WeekdaySet{}, DateRange{}, &FieldError{Field: "frequency", Reason: err.Error()}
	}
	if len(days) == 0 {
		return "", WeekdaySet{}, DateRange{}, &FieldError{Field: "days_of_week", Reason: "at least one weekday is required"}
	}
	weekdays, err := WeekdaySetFromInts(days)
	if err != nil {
		return "", WeekdaySet{}, DateRange{}, &FieldError{Field: "days_of_week", Reason: err.Error()}
	}

	startDate, err := model.ParseDate(start)
	if err != nil {
		return "", WeekdaySet{}, DateRange{}, &FieldError{Field: "start_date", Reason: "invalid date " + start}
	}
	endDate, err := model.ParseDate(end)
	if err != nil {
		return "", WeekdaySet{}, DateRange{}, &FieldError{Field: "end_date", Reason: "invalid date " + end}
	}
	dateRange := DateRange{Start: startDate, End: endDate}
	if err := dateRange.Validate(); err != nil {
		return "", WeekdaySet{}, DateRange{}, &FieldError{Field: "end_date", Reason: "end date must not be before start date"}
	}
	if s.maxRangeDays > 0 && dateRange.Days() > s.maxRangeDays {
		return "", WeekdaySet{}, DateRange{}, fmt.Errorf("%w: %d days exceeds limit of %d", ErrDateRangeTooLong, dateRange.Days(), s.maxRangeDays)
	}
	return frequency, weekdays, dateRange, nil
}

// ────────────────────── Preview ──────────────────────

func (s *visitPlanService) Preview(_ context.Context, req *dto.PreviewVisitPlanRequest) (*dto.PreviewVisitPlanResponse, error) {
	frequency, weekdays, dateRange, err := s.parseSchedule(req.Frequency, req.DaysOfWeek, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	dates, err := ResolveDates(frequency, weekdays, dateRange)
	if err != nil {
		return nil, err
	}

	resp := &dto.PreviewVisitPlanResponse{Frequency: string(frequency), Dates: make([]string, len(dates))}
	for i, d := range dates {
		resp.Dates[i] = d.String()
	}
	return resp, nil
}

// ────────────────────── List ──────────────────────

func (s *visitPlanService) List(ctx context.Context, req *dto.VisitPlanListRequest) ([]dto.VisitPlanResponse, int64, error) {
	filter := repository.VisitPlanFilter{
		RepresentativeID: req.RepresentativeID,
		CustomerID:       req.CustomerID,
	}
	if req.StartDate != "" {
		d, err := model.ParseDate(req.StartDate)
		if err != nil {
			return nil, 0, &FieldError{Field: "start_date", Reason: "invalid date " + req.StartDate}
		}
		filter.StartDate = d
	}
	if req.EndDate != "" {
		d, err := model.ParseDate(req.EndDate)
		if err != nil {
			return nil, 0, &FieldError{Field: "end_date", Reason: "invalid date " + req.EndDate}
		}
		filter.EndDate = d
	}

	plans, total, err := s.repo.VisitPlan.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询拜访计划列表失败", zap.String("representative_id", req.RepresentativeID), zap.Error(err))
		return nil, 0, pkgerrors.WrapStore(err)
	}

	result := make([]dto.VisitPlanResponse, len(plans))
	for i := range plans {
		result[i] = toVisitPlanResponse(&plans[i])
	}
	return result, total, nil
}

// ────────────────────── ListAssignedCustomers ──────────────────────

func (s *visitPlanService) ListAssignedCustomers(ctx context.Context, representativeID string) ([]dto.CustomerSummary, error) {
	if _, err := s.repo.Representative.GetByID(ctx, representativeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRepresentativeNotFound
		}
		s.logger.Error("查询代表失败", zap.String("representative_id", representativeID), zap.Error(err))
		return nil, pkgerrors.WrapStore(err)
	}

	customers, err := s.repo.Assignment.ListCustomersByRepresentative(ctx, representativeID)
	if err != nil {
		s.logger.Error("查询客户分配失败", zap.String("representative_id", representativeID), zap.Error(err))
		return nil, pkgerrors.WrapStore(err)
	}

	result := make([]dto.CustomerSummary, len(customers))
	for i := range customers {
		result[i] = toCustomerSummary(&customers[i])
	}
	return result, nil
}

// ── 转换函数 ──

func toCustomerSummary(c *model.Customer) dto.CustomerSummary {
	return dto.CustomerSummary{
		ID:          c.CustomerID,
		Code:        c.Code,
		Name:        c.Name,
		Address:     c.Address,
		TerritoryID: c.TerritoryID,
	}
}

func toVisitPlanResponse(p *model.VisitPlan) dto.VisitPlanResponse {
	resp := dto.VisitPlanResponse{
		ID:               p.VisitPlanID,
		RepresentativeID: p.RepresentativeID,
		VisitDate:        p.VisitDate.String(),
		TerritoryID:      p.TerritoryID,
		Frequency:        string(p.Frequency),
		Source:           p.Source,
		ImportBatchID:    p.ImportBatchID,
		CreatedAt:        p.CreatedAt.Format(time.RFC3339),
	}
	if p.Customer != nil {
		summary := toCustomerSummary(p.Customer)
		resp.Customer = &summary
	}
	return resp
}
