package service

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"pharmadms/internal/model"
	pkgerrors "pharmadms/pkg/errors"
)

func setupTestMaterializer() (*Materializer, *mockRepos) {
	repo, mocks := newMockRepos()
	return NewMaterializer(repo, zap.NewNop()), mocks
}

func newTestGenerationRequest(t *testing.T, customers []string, opts ...GenerationOption) GenerationRequest {
	t.Helper()
	weekdays, err := NewWeekdaySet(time.Tuesday, time.Friday)
	if err != nil {
		t.Fatalf("构造星期集合失败: %v", err)
	}
	req, err := NewGenerationRequest("rep-1", customers, model.FrequencyF8, weekdays, dateRange("2024-11-01", "2024-11-10"), opts...)
	if err != nil {
		t.Fatalf("构造生成请求失败: %v", err)
	}
	return req
}

func resolve(t *testing.T, req GenerationRequest) []model.Date {
	t.Helper()
	dates, err := req.ResolveDates()
	if err != nil {
		t.Fatalf("展开日期失败: %v", err)
	}
	return dates
}

// ── NewGenerationRequest ──

func TestNewGenerationRequest_DedupCustomers(t *testing.T) {
	req := newTestGenerationRequest(t, []string{"c-1", "c-2", "c-1", "", "c-3"})

	got := req.CustomerIDs()
	want := []string{"c-1", "c-2", "c-3"}
	if len(got) != len(want) {
		t.Fatalf("期望 %d 个客户，实际 %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("第 %d 个客户期望 %s，实际 %s", i, want[i], got[i])
		}
	}

	// 返回副本，修改不影响请求
	got[0] = "changed"
	if req.CustomerIDs()[0] != "c-1" {
		t.Error("CustomerIDs 应返回副本")
	}
	if req.Source() != model.PlanSourceManual {
		t.Errorf("默认来源应为 manual，实际 %s", req.Source())
	}
}

func TestNewGenerationRequest_Invalid(t *testing.T) {
	weekdays, _ := NewWeekdaySet(time.Monday)
	good := dateRange("2024-11-01", "2024-11-10")

	tests := []struct {
		name  string
		rep   string
		freq  model.FrequencyCode
		days  WeekdaySet
		rng   DateRange
		field string
	}{
		{"缺少代表", "", model.FrequencyF4, weekdays, good, "representative_id"},
		{"频次无效", "rep-1", "FX", weekdays, good, "frequency"},
		{"星期为空", "rep-1", model.FrequencyF4, WeekdaySet{}, good, "days_of_week"},
		{"区间颠倒", "rep-1", model.FrequencyF4, weekdays, dateRange("2024-11-10", "2024-11-01"), "start_date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGenerationRequest(tt.rep, []string{"c-1"}, tt.freq, tt.days, tt.rng)
			var fe *FieldError
			if !errors.As(err, &fe) {
				t.Fatalf("期望 FieldError，实际 %v", err)
			}
			if fe.Field != tt.field {
				t.Errorf("期望字段 %s，实际 %s", tt.field, fe.Field)
			}
			if !errors.Is(err, ErrInvalidScheduleParameters) {
				t.Error("FieldError 应匹配 ErrInvalidScheduleParameters")
			}
		})
	}
}

// ── Materialize ──

func TestMaterialize_CreatesCustomerDateProduct(t *testing.T) {
	m, mocks := setupTestMaterializer()
	req := newTestGenerationRequest(t, []string{"c-1", "c-2"})
	dates := resolve(t, req)

	result, err := m.Materialize(context.Background(), req, dates, func(string) *string { return strPtr("t-1") })
	if err != nil {
		t.Fatalf("期望成功，实际错误: %v", err)
	}
	if len(result.Created) != 6 {
		t.Errorf("期望创建 6 条计划，实际 %d", len(result.Created))
	}
	if len(result.Skipped) != 0 {
		t.Errorf("期望跳过 0 条，实际 %d", len(result.Skipped))
	}
	if mocks.plans.count() != 6 {
		t.Errorf("存储中期望 6 条计划，实际 %d", mocks.plans.count())
	}
	for _, p := range result.Created {
		if p.TerritoryID == nil || *p.TerritoryID != "t-1" {
			t.Errorf("计划 %s/%s 区域未写入", p.CustomerID, p.VisitDate)
		}
		if p.Frequency != model.FrequencyF8 {
			t.Errorf("期望频次 F8，实际 %s", p.Frequency)
		}
		if p.Source != model.PlanSourceManual {
			t.Errorf("期望来源 manual，实际 %s", p.Source)
		}
	}

	if len(mocks.logs.logs) != 1 {
		t.Fatalf("期望写入 1 条生成记录，实际 %d", len(mocks.logs.logs))
	}
	entry := mocks.logs.logs[0]
	if entry.CreatedCount != 6 || entry.SkippedCount != 0 || entry.CustomerCount != 2 {
		t.Errorf("生成记录统计不正确: %+v", entry)
	}
}

func TestMaterialize_Idempotent(t *testing.T) {
	m, mocks := setupTestMaterializer()
	req := newTestGenerationRequest(t, []string{"c-1", "c-2"})
	dates := resolve(t, req)

	if _, err := m.Materialize(context.Background(), req, dates, nil); err != nil {
		t.Fatalf("首次生成失败: %v", err)
	}
	calls := mocks.plans.upsertCalls

	result, err := m.Materialize(context.Background(), req, dates, nil)
	if err != nil {
		t.Fatalf("再次生成失败: %v", err)
	}
	if len(result.Created) != 0 {
		t.Errorf("再次生成期望创建 0 条，实际 %d", len(result.Created))
	}
	if len(result.Skipped) != 6 {
		t.Errorf("再次生成期望跳过 6 条，实际 %d", len(result.Skipped))
	}
	if mocks.plans.upsertCalls != calls {
		t.Errorf("已存在的计划不应再次写入，多写了 %d 次", mocks.plans.upsertCalls-calls)
	}
	if mocks.plans.count() != 6 {
		t.Errorf("存储中期望仍为 6 条，实际 %d", mocks.plans.count())
	}
}

func TestMaterialize_PartialOverlap(t *testing.T) {
	m, mocks := setupTestMaterializer()

	first := newTestGenerationRequest(t, []string{"c-1"})
	if _, err := m.Materialize(context.Background(), first, resolve(t, first), nil); err != nil {
		t.Fatalf("首次生成失败: %v", err)
	}

	second := newTestGenerationRequest(t, []string{"c-1", "c-2"})
	result, err := m.Materialize(context.Background(), second, resolve(t, second), nil)
	if err != nil {
		t.Fatalf("二次生成失败: %v", err)
	}
	if len(result.Created) != 3 || len(result.Skipped) != 3 {
		t.Errorf("期望创建 3 跳过 3，实际创建 %d 跳过 %d", len(result.Created), len(result.Skipped))
	}
	if mocks.plans.count() != 6 {
		t.Errorf("存储中期望 6 条，实际 %d", mocks.plans.count())
	}
}

func TestMaterialize_ConcurrentCallsNoDuplicates(t *testing.T) {
	m, mocks := setupTestMaterializer()
	req := newTestGenerationRequest(t, []string{"c-1", "c-2"})
	dates := resolve(t, req)

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := m.Materialize(context.Background(), req, dates, nil)
			if err != nil {
				t.Errorf("并发生成失败: %v", err)
				return
			}
			mu.Lock()
			created += len(result.Created)
			mu.Unlock()
		}()
	}
	wg.Wait()

	if created != 6 {
		t.Errorf("并发调用合计应只创建 6 条，实际 %d", created)
	}
	if mocks.plans.count() != 6 {
		t.Errorf("存储中期望 6 条，实际 %d", mocks.plans.count())
	}
}

func TestMaterialize_EmptyInputs(t *testing.T) {
	m, mocks := setupTestMaterializer()

	req := newTestGenerationRequest(t, nil)
	result, err := m.Materialize(context.Background(), req, resolve(t, req), nil)
	if err != nil {
		t.Fatalf("空客户列表不应报错: %v", err)
	}
	if len(result.Created) != 0 || len(result.Skipped) != 0 {
		t.Error("空客户列表应返回空结果")
	}

	req = newTestGenerationRequest(t, []string{"c-1"})
	result, err = m.Materialize(context.Background(), req, nil, nil)
	if err != nil {
		t.Fatalf("空日期序列不应报错: %v", err)
	}
	if len(result.Created) != 0 {
		t.Error("空日期序列应返回空结果")
	}
	if mocks.plans.upsertCalls != 0 {
		t.Errorf("不应访问存储，实际写入 %d 次", mocks.plans.upsertCalls)
	}
}

func TestMaterialize_StoreUnavailable(t *testing.T) {
	m, mocks := setupTestMaterializer()
	mocks.plans.listErr = fmt.Errorf("dial tcp: %w", driver.ErrBadConn)

	req := newTestGenerationRequest(t, []string{"c-1"})
	_, err := m.Materialize(context.Background(), req, resolve(t, req), nil)
	if !pkgerrors.IsStoreUnavailable(err) {
		t.Fatalf("期望 ErrStoreUnavailable，实际 %v", err)
	}
	if mocks.plans.upsertCalls != 0 {
		t.Error("预查询失败后不应继续写入")
	}
}

func TestMaterialize_UpsertFailureKeepsCommitted(t *testing.T) {
	m, mocks := setupTestMaterializer()
	mocks.plans.failOn = func(plan *model.VisitPlan) error {
		if plan.CustomerID == "c-2" {
			return fmt.Errorf("write: %w", driver.ErrBadConn)
		}
		return nil
	}

	req := newTestGenerationRequest(t, []string{"c-1", "c-2"})
	result, err := m.Materialize(context.Background(), req, resolve(t, req), nil)
	if !pkgerrors.IsStoreUnavailable(err) {
		t.Fatalf("期望 ErrStoreUnavailable，实际 %v", err)
	}
	if len(result.Created) != 3 {
		t.Errorf("失败前已写入的 3 条应保留在结果中，实际 %d", len(result.Created))
	}
	if mocks.plans.count() != 3 {
		t.Errorf("存储中期望保留 3 条，实际 %d", mocks.plans.count())
	}
}

func TestMaterialize_Cancelled(t *testing.T) {
	m, mocks := setupTestMaterializer()
	ctx, cancel := context.WithCancel(context.Background())
	mocks.plans.onUpsert = cancel

	req := newTestGenerationRequest(t, []string{"c-1", "c-2"})
	result, err := m.Materialize(ctx, req, resolve(t, req), nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("期望 context.Canceled，实际 %v", err)
	}
	if len(result.Created) != 1 {
		t.Errorf("取消前应只完成 1 条，实际 %d", len(result.Created))
	}
	if mocks.plans.count() != 1 {
		t.Errorf("存储中期望 1 条，实际 %d", mocks.plans.count())
	}
	// 取消后仍写审计记录
	if len(mocks.logs.logs) != 1 {
		t.Errorf("期望写入 1 条生成记录，实际 %d", len(mocks.logs.logs))
	}
}

func TestMaterialize_ImportSource(t *testing.T) {
	m, _ := setupTestMaterializer()
	req := newTestGenerationRequest(t, []string{"c-1"}, FromImportBatch("batch-1"), ByOperator("admin-1"))

	result, err := m.Materialize(context.Background(), req, resolve(t, req), nil)
	if err != nil {
		t.Fatalf("期望成功，实际错误: %v", err)
	}
	for _, p := range result.Created {
		if p.Source != model.PlanSourceImport {
			t.Errorf("期望来源 import，实际 %s", p.Source)
		}
		if p.ImportBatchID == nil || *p.ImportBatchID != "batch-1" {
			t.Error("计划应记录导入批次")
		}
		if p.CreatedBy == nil || *p.CreatedBy != "admin-1" {
			t.Error("计划应记录操作人")
		}
	}
}

// ── buildTerritoryLookup ──

func TestBuildTerritoryLookup(t *testing.T) {
	assignments := newMockAssignmentRepo()
	assignments.byRep["rep-1"] = []model.Customer{
		{CustomerID: "c-1", TerritoryID: strPtr("t-assigned")},
		{CustomerID: "c-2"},
	}
	fallback := func(id string) *string {
		if id == "c-2" || id == "c-3" {
			return strPtr("t-own")
		}
		return nil
	}

	lookup := buildTerritoryLookup(context.Background(), assignments, "rep-1", fallback, zap.NewNop())

	if got := lookup("c-1"); got == nil || *got != "t-assigned" {
		t.Errorf("c-1 期望分配区域 t-assigned，实际 %v", got)
	}
	if got := lookup("c-2"); got == nil || *got != "t-own" {
		t.Errorf("c-2 期望回退到 t-own，实际 %v", got)
	}
	if got := lookup("c-4"); got != nil {
		t.Errorf("c-4 期望 nil，实际 %v", *got)
	}

	// 分配查询失败时只降级
	assignments.err = errors.New("timeout")
	lookup = buildTerritoryLookup(context.Background(), assignments, "rep-1", fallback, zap.NewNop())
	if got := lookup("c-3"); got == nil || *got != "t-own" {
		t.Errorf("查询失败时期望回退区域，实际 %v", got)
	}
}
