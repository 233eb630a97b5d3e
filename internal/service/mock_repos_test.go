package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"gorm.io/gorm"

	"pharmadms/internal/model"
	"pharmadms/internal/repository"
)

// ── Mock RepresentativeRepository ──

type mockRepresentativeRepo struct {
	reps  map[string]*model.Representative // id → rep
	err   error
	calls int
}

func newMockRepresentativeRepo() *mockRepresentativeRepo {
	return &mockRepresentativeRepo{reps: make(map[string]*model.Representative)}
}

func (m *mockRepresentativeRepo) add(id, code string) *model.Representative {
	rep := &model.Representative{RepresentativeID: id, EmployeeCode: code, Name: "Rep " + code, IsActive: true}
	m.reps[id] = rep
	return rep
}

func (m *mockRepresentativeRepo) GetByID(_ context.Context, id string) (*model.Representative, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if r, ok := m.reps[id]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRepresentativeRepo) GetByEmployeeCode(_ context.Context, code string) (*model.Representative, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	for _, r := range m.reps {
		if strings.EqualFold(r.EmployeeCode, code) {
			return r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRepresentativeRepo) ListByEmployeeCodes(_ context.Context, codes []string) ([]model.Representative, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	var result []model.Representative
	for _, code := range codes {
		for _, r := range m.reps {
			if strings.EqualFold(r.EmployeeCode, code) {
				result = append(result, *r)
			}
		}
	}
	return result, nil
}

// ── Mock CustomerRepository ──

type mockCustomerRepo struct {
	customers map[string]*model.Customer // id → customer
	err       error
	calls     int
}

func newMockCustomerRepo() *mockCustomerRepo {
	return &mockCustomerRepo{customers: make(map[string]*model.Customer)}
}

func (m *mockCustomerRepo) add(id, code string, territoryID *string) *model.Customer {
	c := &model.Customer{CustomerID: id, Code: code, Name: "Pharmacy " + code, Address: "12 Nguyen Hue", TerritoryID: territoryID}
	m.customers[id] = c
	return c
}

func (m *mockCustomerRepo) GetByID(_ context.Context, id string) (*model.Customer, error) {
	m.calls++
	if c, ok := m.customers[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCustomerRepo) GetByCode(_ context.Context, code string) (*model.Customer, error) {
	m.calls++
	for _, c := range m.customers {
		if strings.EqualFold(c.Code, code) {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCustomerRepo) ListByIDs(_ context.Context, ids []string) ([]model.Customer, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	var result []model.Customer
	for _, id := range ids {
		if c, ok := m.customers[id]; ok {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (m *mockCustomerRepo) ListByCodes(_ context.Context, codes []string) ([]model.Customer, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	var result []model.Customer
	for _, code := range codes {
		for _, c := range m.customers {
			if strings.EqualFold(c.Code, code) {
				result = append(result, *c)
			}
		}
	}
	return result, nil
}

// ── Mock AssignmentRepository ──

type mockAssignmentRepo struct {
	byRep map[string][]model.Customer
	err   error
	calls int
}

func newMockAssignmentRepo() *mockAssignmentRepo {
	return &mockAssignmentRepo{byRep: make(map[string][]model.Customer)}
}

func (m *mockAssignmentRepo) ListCustomersByRepresentative(_ context.Context, representativeID string) ([]model.Customer, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.byRep[representativeID], nil
}

// ── Mock VisitPlanRepository ──

type planKey struct {
	rep      string
	customer string
	date     string
}

type mockVisitPlanRepo struct {
	mu          sync.Mutex
	plans       map[planKey]model.VisitPlan
	upsertCalls int
	listErr     error
	// failOn 返回非 nil 时该次 Upsert 失败
	failOn func(plan *model.VisitPlan) error
	// onUpsert 每次 Upsert 成功后回调（用于模拟调用方取消）
	onUpsert func()
}

func newMockVisitPlanRepo() *mockVisitPlanRepo {
	return &mockVisitPlanRepo{plans: make(map[planKey]model.VisitPlan)}
}

func (m *mockVisitPlanRepo) Upsert(_ context.Context, plan *model.VisitPlan) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsertCalls++
	if m.failOn != nil {
		if err := m.failOn(plan); err != nil {
			return false, err
		}
	}
	key := planKey{plan.RepresentativeID, plan.CustomerID, plan.VisitDate.String()}
	if _, ok := m.plans[key]; ok {
		return false, nil
	}
	if plan.VisitPlanID == "" {
		plan.VisitPlanID = fmt.Sprintf("vp-%d", len(m.plans)+1)
	}
	m.plans[key] = *plan
	if m.onUpsert != nil {
		m.onUpsert()
	}
	return true, nil
}

func (m *mockVisitPlanRepo) ListExisting(_ context.Context, representativeID string, customerIDs []string, start, end model.Date) ([]model.VisitPlanKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	wanted := make(map[string]bool, len(customerIDs))
	for _, id := range customerIDs {
		wanted[id] = true
	}
	var keys []model.VisitPlanKey
	for _, p := range m.plans {
		if p.RepresentativeID != representativeID || !wanted[p.CustomerID] {
			continue
		}
		if p.VisitDate.Before(start.Time) || p.VisitDate.After(end.Time) {
			continue
		}
		keys = append(keys, p.Key())
	}
	return keys, nil
}

func (m *mockVisitPlanRepo) List(ctx context.Context, filter repository.VisitPlanFilter, offset, limit int) ([]model.VisitPlan, int64, error) {
	all, err := m.ListInRange(ctx, filter.RepresentativeID, filter.StartDate, filter.EndDate)
	if err != nil {
		return nil, 0, err
	}
	if filter.CustomerID != "" {
		kept := all[:0]
		for _, p := range all {
			if p.CustomerID == filter.CustomerID {
				kept = append(kept, p)
			}
		}
		all = kept
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockVisitPlanRepo) ListInRange(_ context.Context, representativeID string, start, end model.Date) ([]model.VisitPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.VisitPlan
	for _, p := range m.plans {
		if p.RepresentativeID != representativeID {
			continue
		}
		if !start.IsZero() && p.VisitDate.Before(start.Time) {
			continue
		}
		if !end.IsZero() && p.VisitDate.After(end.Time) {
			continue
		}
		result = append(result, p)
	}
	sortPlans(result)
	return result, nil
}

func (m *mockVisitPlanRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.plans)
}

func sortPlans(plans []model.VisitPlan) {
	for i := 1; i < len(plans); i++ {
		for j := i; j > 0; j-- {
			a, b := plans[j-1], plans[j]
			if a.VisitDate.Before(b.VisitDate.Time) || (a.VisitDate == b.VisitDate && a.CustomerID <= b.CustomerID) {
				break
			}
			plans[j-1], plans[j] = b, a
		}
	}
}

// ── Mock ImportBatchRepository ──

type mockImportBatchRepo struct {
	batches map[string]*model.ImportBatch
	order   []string
}

func newMockImportBatchRepo() *mockImportBatchRepo {
	return &mockImportBatchRepo{batches: make(map[string]*model.ImportBatch)}
}

func (m *mockImportBatchRepo) Create(_ context.Context, batch *model.ImportBatch) error {
	if batch.ImportBatchID == "" {
		batch.ImportBatchID = fmt.Sprintf("batch-%d", len(m.batches)+1)
	}
	m.batches[batch.ImportBatchID] = batch
	m.order = append(m.order, batch.ImportBatchID)
	return nil
}

func (m *mockImportBatchRepo) Update(_ context.Context, batch *model.ImportBatch) error {
	m.batches[batch.ImportBatchID] = batch
	return nil
}

func (m *mockImportBatchRepo) List(_ context.Context, offset, limit int) ([]model.ImportBatch, int64, error) {
	var result []model.ImportBatch
	for i := len(m.order) - 1; i >= 0; i-- {
		result = append(result, *m.batches[m.order[i]])
	}
	total := int64(len(result))
	if offset >= len(result) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], total, nil
}

// ── Mock GenerationLogRepository ──

type mockGenerationLogRepo struct {
	mu   sync.Mutex
	logs []model.GenerationLog
}

func (m *mockGenerationLogRepo) Create(_ context.Context, log *model.GenerationLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, *log)
	return nil
}

// ── 组装 ──

type mockRepos struct {
	reps        *mockRepresentativeRepo
	customers   *mockCustomerRepo
	assignments *mockAssignmentRepo
	plans       *mockVisitPlanRepo
	batches     *mockImportBatchRepo
	logs        *mockGenerationLogRepo
}

func newMockRepos() (*repository.Repository, *mockRepos) {
	m := &mockRepos{
		reps:        newMockRepresentativeRepo(),
		customers:   newMockCustomerRepo(),
		assignments: newMockAssignmentRepo(),
		plans:       newMockVisitPlanRepo(),
		batches:     newMockImportBatchRepo(),
		logs:        &mockGenerationLogRepo{},
	}
	repo := &repository.Repository{
		Representative: m.reps,
		Customer:       m.customers,
		Assignment:     m.assignments,
		VisitPlan:      m.plans,
		ImportBatch:    m.batches,
		GenerationLog:  m.logs,
	}
	return repo, m
}

func strPtr(s string) *string { return &s }
