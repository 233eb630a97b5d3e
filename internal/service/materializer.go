package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"pharmadms/internal/model"
	"pharmadms/internal/repository"
	pkgerrors "pharmadms/pkg/errors"
)

// ────────────────────── GenerationRequest ──────────────────────

// GenerationRequest 一次计划生成的不可变参数
// 只能通过 NewGenerationRequest 构造，构造后字段不可修改
type GenerationRequest struct {
	representativeID string
	customerIDs      []string
	frequency        model.FrequencyCode
	weekdays         WeekdaySet
	dateRange        DateRange
	source           string
	importBatchID    *string
	operatorID       *string
}

// GenerationOption 可选参数
type GenerationOption func(*GenerationRequest)

// FromImportBatch 标记计划来自某个导入批次
func FromImportBatch(batchID string) GenerationOption {
	return func(r *GenerationRequest) {
		r.source = model.PlanSourceImport
		r.importBatchID = &batchID
	}
}

// ByOperator 记录操作人
func ByOperator(operatorID string) GenerationOption {
	return func(r *GenerationRequest) {
		if operatorID != "" {
			r.operatorID = &operatorID
		}
	}
}

// NewGenerationRequest 校验并构造生成请求；客户 ID 去重并保持原顺序
// 客户列表允许为空，此时物化结果为空
func NewGenerationRequest(
	representativeID string,
	customerIDs []string,
	frequency model.FrequencyCode,
	weekdays WeekdaySet,
	dateRange DateRange,
	opts ...GenerationOption,
) (GenerationRequest, error) {
	if representativeID == "" {
		return GenerationRequest{}, &FieldError{Field: "representative_id", Reason: "representative is required"}
	}
	if !frequency.IsValid() {
		return GenerationRequest{}, &FieldError{Field: "frequency", Reason: fmt.Sprintf("unrecognized frequency code %q", string(frequency))}
	}
	if weekdays.Len() == 0 {
		return GenerationRequest{}, &FieldError{Field: "days_of_week", Reason: "at least one weekday is required"}
	}
	if err := dateRange.Validate(); err != nil {
		return GenerationRequest{}, &FieldError{Field: "start_date", Reason: err.Error()}
	}

	seen := make(map[string]bool, len(customerIDs))
	ids := make([]string, 0, len(customerIDs))
	for _, id := range customerIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}

	req := GenerationRequest{
		representativeID: representativeID,
		customerIDs:      ids,
		frequency:        frequency,
		weekdays:         weekdays,
		dateRange:        dateRange,
		source:           model.PlanSourceManual,
	}
	for _, opt := range opts {
		opt(&req)
	}
	return req, nil
}

func (r GenerationRequest) RepresentativeID() string       { return r.representativeID }
func (r GenerationRequest) Frequency() model.FrequencyCode { return r.frequency }
func (r GenerationRequest) Weekdays() WeekdaySet           { return r.weekdays }
func (r GenerationRequest) DateRange() DateRange           { return r.dateRange }
func (r GenerationRequest) Source() string                 { return r.source }

// CustomerIDs 返回副本
func (r GenerationRequest) CustomerIDs() []string {
	return append([]string(nil), r.customerIDs...)
}

// ResolveDates 按请求参数展开日期
func (r GenerationRequest) ResolveDates() ([]model.Date, error) {
	return ResolveDates(r.frequency, r.weekdays, r.dateRange)
}

// FieldError 字段级校验失败，可用 errors.Is 匹配 ErrInvalidScheduleParameters
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Reason }

func (e *FieldError) Unwrap() error { return ErrInvalidScheduleParameters }

// ────────────────────── Materializer ──────────────────────

// TerritoryLookup 按客户返回计划所属区域，未知时返回 nil
type TerritoryLookup func(customerID string) *string

// buildTerritoryLookup 区域优先取分配查询结果，其次取 fallback；查询失败时只降级不报错
func buildTerritoryLookup(
	ctx context.Context,
	assignments repository.AssignmentRepository,
	representativeID string,
	fallback TerritoryLookup,
	logger *zap.Logger,
) TerritoryLookup {
	assigned := make(map[string]*string)
	list, err := assignments.ListCustomersByRepresentative(ctx, representativeID)
	if err != nil {
		logger.Warn("查询客户分配失败，使用客户自身区域",
			zap.String("representative_id", representativeID), zap.Error(err))
	}
	for i := range list {
		assigned[list[i].CustomerID] = list[i].TerritoryID
	}

	return func(customerID string) *string {
		if t, ok := assigned[customerID]; ok && t != nil {
			return t
		}
		if fallback != nil {
			return fallback(customerID)
		}
		return nil
	}
}

// SkippedPlan 已存在而被跳过的 (客户, 日期)
type SkippedPlan struct {
	CustomerID string
	VisitDate  model.Date
}

// MaterializeResult 物化结果
type MaterializeResult struct {
	Created []model.VisitPlan
	Skipped []SkippedPlan
}

// Materializer 把日期序列与客户组合成拜访计划并幂等写入
//
// 去重分两层：
//   - 快速路径：写入前一次性查询区间内已存在的计划，并记录本次运行已处理的组合
//   - 最终保障：唯一索引 + ON CONFLICT DO NOTHING，并发调用也不会重复写入
type Materializer struct {
	plans  repository.VisitPlanRepository
	logs   repository.GenerationLogRepository
	logger *zap.Logger
}

// NewMaterializer 创建 Materializer
func NewMaterializer(repo *repository.Repository, logger *zap.Logger) *Materializer {
	return &Materializer{plans: repo.VisitPlan, logs: repo.GenerationLog, logger: logger}
}

// Materialize 为 req 中每个客户与 dates 中每个日期生成计划。
// 客户列表为空时返回空结果。存储不可用时返回 ErrStoreUnavailable，已写入的计划保留。
// ctx 取消时停止写入并返回已完成部分。
func (m *Materializer) Materialize(ctx context.Context, req GenerationRequest, dates []model.Date, territory TerritoryLookup) (*MaterializeResult, error) {
	result := &MaterializeResult{}
	if len(req.customerIDs) == 0 || len(dates) == 0 {
		return result, nil
	}

	started := time.Now()
	defer func() {
		generationDuration.WithLabelValues(req.source).Observe(time.Since(started).Seconds())
	}()

	first, last := dateBounds(dates)
	existingKeys, err := m.plans.ListExisting(ctx, req.representativeID, req.customerIDs, first, last)
	if err != nil {
		m.logger.Error("查询已有拜访计划失败",
			zap.String("representative_id", req.representativeID), zap.Error(err))
		return result, pkgerrors.WrapStore(err)
	}

	done := make(map[model.VisitPlanKey]bool, len(existingKeys)+len(req.customerIDs)*len(dates))
	for _, k := range existingKeys {
		done[k] = true
	}

	for _, customerID := range req.customerIDs {
		var territoryID *string
		if territory != nil {
			territoryID = territory(customerID)
		}

		for _, d := range dates {
			key := model.VisitPlanKey{CustomerID: customerID, VisitDate: d}
			if done[key] {
				result.Skipped = append(result.Skipped, SkippedPlan{CustomerID: customerID, VisitDate: d})
				continue
			}
			done[key] = true

			if err := ctx.Err(); err != nil {
				m.finish(ctx, req, result)
				return result, err
			}

			plan := model.VisitPlan{
				RepresentativeID: req.representativeID,
				CustomerID:       customerID,
				VisitDate:        d,
				TerritoryID:      territoryID,
				Frequency:        req.frequency,
				Source:           req.source,
				ImportBatchID:    req.importBatchID,
				BaseModel:        model.BaseModel{CreatedBy: req.operatorID},
			}
			created, err := m.plans.Upsert(ctx, &plan)
			if err != nil {
				m.logger.Error("写入拜访计划失败",
					zap.String("representative_id", req.representativeID),
					zap.String("customer_id", customerID),
					zap.Stringer("visit_date", d),
					zap.Error(err),
				)
				m.finish(ctx, req, result)
				if errors.Is(err, context.Canceled) {
					return result, err
				}
				return result, pkgerrors.WrapStore(err)
			}
			if created {
				result.Created = append(result.Created, plan)
			} else {
				result.Skipped = append(result.Skipped, SkippedPlan{CustomerID: customerID, VisitDate: d})
			}
		}
	}

	m.finish(ctx, req, result)
	return result, nil
}

// finish 记录指标与审计日志；审计写入失败不影响结果
func (m *Materializer) finish(ctx context.Context, req GenerationRequest, result *MaterializeResult) {
	visitPlansTotal.WithLabelValues(req.source, outcomeCreated).Add(float64(len(result.Created)))
	visitPlansTotal.WithLabelValues(req.source, outcomeSkipped).Add(float64(len(result.Skipped)))

	if m.logs == nil {
		return
	}
	entry := &model.GenerationLog{
		RepresentativeID: req.representativeID,
		Frequency:        req.frequency,
		DaysOfWeek:       model.IntArray(req.weekdays.Ints()),
		StartDate:        req.dateRange.Start,
		EndDate:          req.dateRange.End,
		Source:           req.source,
		ImportBatchID:    req.importBatchID,
		CustomerCount:    len(req.customerIDs),
		CreatedCount:     len(result.Created),
		SkippedCount:     len(result.Skipped),
		BaseModel:        model.BaseModel{CreatedBy: req.operatorID},
	}
	if err := m.logs.Create(context.WithoutCancel(ctx), entry); err != nil {
		m.logger.Warn("写入生成审计记录失败",
			zap.String("representative_id", req.representativeID), zap.Error(err))
	}
}

func dateBounds(dates []model.Date) (first, last model.Date) {
	first, last = dates[0], dates[0]
	for _, d := range dates[1:] {
		if d.Before(first.Time) {
			first = d
		}
		if d.After(last.Time) {
			last = d
		}
	}
	return first, last
}
