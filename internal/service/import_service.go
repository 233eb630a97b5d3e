package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"pharmadms/config"
	"pharmadms/internal/dto"
	"pharmadms/internal/model"
	"pharmadms/internal/repository"
	pkgerrors "pharmadms/pkg/errors"
)

// ── 导入模块业务错误 ──

var (
	ErrImportBadFile     = errors.New("无法解析Excel文件")
	ErrImportNoData      = errors.New("Excel文件无数据行（第一行为表头）")
	ErrImportTooManyRows = errors.New("数据行数超过上限")
	ErrImportBadHeader   = errors.New("Excel表头缺少必要列（EmployeeCode/CustomerCode/Frequency/Days/StartDate/EndDate）")
)

// ImportService 拜访计划批量导入业务接口
//
// 设计说明：
//   - 逐行独立处理，不使用整体事务；一行失败不影响其他行
//   - 每行只产生一个结果：计入成功，或出现在错误列表中
//   - 调用方取消时，已提交的行保留，剩余行记为 "import aborted"
type ImportService interface {
	ParseImportFile(reader io.Reader) ([]ImportRow, error)
	ImportRows(ctx context.Context, rows []ImportRow, meta ImportMeta) (*dto.ImportVisitPlanResponse, error)
	BuildTemplate() (*bytes.Buffer, error)
	ListBatches(ctx context.Context, req *dto.ImportBatchListRequest) ([]dto.ImportBatchResponse, int64, error)
}

// ImportRow 表格中的一行原始数据，Row 为数据行序号（从 1 开始，不含表头）
type ImportRow struct {
	Row          int
	EmployeeCode string
	CustomerCode string
	Frequency    string
	Days         string
	StartDate    string
	EndDate      string
}

func (r ImportRow) blank() bool {
	return r.EmployeeCode == "" && r.CustomerCode == "" && r.Frequency == "" &&
		r.Days == "" && r.StartDate == "" && r.EndDate == ""
}

// ImportMeta 导入批次信息
type ImportMeta struct {
	FileName   string
	OperatorID string
}

type importService struct {
	repo         *repository.Repository
	materializer *Materializer
	maxRows      int
	maxRangeDays int
	logger       *zap.Logger
}

// NewImportService 创建 ImportService 实例
func NewImportService(repo *repository.Repository, materializer *Materializer, cfg *config.ImportConfig, logger *zap.Logger) ImportService {
	return &importService{
		repo:         repo,
		materializer: materializer,
		maxRows:      cfg.MaxRows,
		maxRangeDays: cfg.MaxRangeDays,
		logger:       logger,
	}
}

// ────────────────────── ParseImportFile ──────────────────────

// 表头列
const (
	colEmployeeCode = "employee_code"
	colCustomerCode = "customer_code"
	colFrequency    = "frequency"
	colDays         = "days"
	colStartDate    = "start_date"
	colEndDate      = "end_date"
)

var importColumns = []string{colEmployeeCode, colCustomerCode, colFrequency, colDays, colStartDate, colEndDate}

// templateHeader 模板表头，与 importColumns 一一对应
var templateHeader = []string{"EmployeeCode", "CustomerCode", "Frequency", "Days", "StartDate", "EndDate"}

// ParseImportFile 解析导入 Excel 文件，返回解析后的行数据
// 日期单元格以原始值读取，Excel 日期序列号与文本日期均可识别
func (s *importService) ParseImportFile(reader io.Reader) ([]ImportRow, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImportBadFile, err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	excelRows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: 读取工作表失败: %v", ErrImportBadFile, err)
	}

	if len(excelRows) < 2 {
		return nil, ErrImportNoData
	}

	// 解析表头（支持灵活列序）
	colIndex := parseImportHeader(excelRows[0])
	for _, col := range importColumns {
		if colIndex[col] < 0 {
			return nil, ErrImportBadHeader
		}
	}

	cell := func(row []string, col string) string {
		if idx := colIndex[col]; idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	var rows []ImportRow
	for i := 1; i < len(excelRows); i++ {
		row := excelRows[i]
		item := ImportRow{
			Row:          i,
			EmployeeCode: cell(row, colEmployeeCode),
			CustomerCode: cell(row, colCustomerCode),
			Frequency:    cell(row, colFrequency),
			Days:         cell(row, colDays),
			StartDate:    cell(row, colStartDate),
			EndDate:      cell(row, colEndDate),
		}

		// 跳过全空行，行号仍按原位置计
		if item.blank() {
			continue
		}
		rows = append(rows, item)
	}

	if len(rows) == 0 {
		return nil, ErrImportNoData
	}
	if s.maxRows > 0 && len(rows) > s.maxRows {
		return nil, fmt.Errorf("%w: %d > %d", ErrImportTooManyRows, len(rows), s.maxRows)
	}

	return rows, nil
}

// parseImportHeader 解析表头，返回列名 -> 列索引映射；忽略大小写、空格与下划线
func parseImportHeader(header []string) map[string]int {
	idx := make(map[string]int, len(importColumns))
	for _, col := range importColumns {
		idx[col] = -1
	}
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		key = strings.NewReplacer(" ", "", "_", "").Replace(key)
		switch key {
		case "employeecode", "manv":
			idx[colEmployeeCode] = i
		case "customercode", "makh":
			idx[colCustomerCode] = i
		case "frequency", "tansuat":
			idx[colFrequency] = i
		case "days", "daysofweek", "weekdays":
			idx[colDays] = i
		case "startdate", "fromdate":
			idx[colStartDate] = i
		case "enddate", "todate":
			idx[colEndDate] = i
		}
	}
	return idx
}

var importDateLayouts = []string{"2006-01-02", "2006/01/02", "02/01/2006"}

// parseImportDate 识别文本日期与 Excel 日期序列号
func parseImportDate(s string) (model.Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range importDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return model.DateOf(t), nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return model.DateOf(t), nil
		}
	}
	return model.Date{}, fmt.Errorf("unparseable date %q", s)
}

// ────────────────────── ImportRows ──────────────────────

// parsedRow 解析后的行：validRow 或 invalidRow
type parsedRow interface {
	rowNumber() int
}

type validRow struct {
	row       int
	rep       *model.Representative
	customer  *model.Customer
	frequency model.FrequencyCode
	weekdays  WeekdaySet
	dateRange DateRange
}

type invalidRow struct {
	row     int
	reasons []string
}

func (v validRow) rowNumber() int   { return v.row }
func (v invalidRow) rowNumber() int { return v.row }

func (s *importService) ImportRows(ctx context.Context, rows []ImportRow, meta ImportMeta) (*dto.ImportVisitPlanResponse, error) {
	resp := &dto.ImportVisitPlanResponse{Total: len(rows), Errors: []dto.ImportRowError{}}

	// 1. 批量解析工号与客户编码
	reps, customers, err := s.resolveCodes(ctx, rows)
	if err != nil {
		return nil, err
	}

	// 2. 登记导入批次
	batch := &model.ImportBatch{FileName: meta.FileName, TotalRows: len(rows)}
	if meta.OperatorID != "" {
		batch.CreatedBy = &meta.OperatorID
	}
	if err := s.repo.ImportBatch.Create(ctx, batch); err != nil {
		s.logger.Error("创建导入批次失败", zap.String("file", meta.FileName), zap.Error(err))
		return nil, pkgerrors.WrapStore(err)
	}
	resp.BatchID = batch.ImportBatchID

	fail := func(row int, reason string) {
		resp.Failed++
		resp.Errors = append(resp.Errors, dto.ImportRowError{Row: row, Reason: reason})
	}

	// 3. 逐行校验；有效行按代表归组，仅用于区域兜底
	valid := make([]validRow, 0, len(rows))
	byRep := make(map[string][]validRow)
	for _, row := range rows {
		switch r := s.classify(row, reps, customers).(type) {
		case invalidRow:
			fail(r.row, strings.Join(r.reasons, "; "))
		case validRow:
			valid = append(valid, r)
			byRep[r.rep.RepresentativeID] = append(byRep[r.rep.RepresentativeID], r)
		}
	}

	// 4. 按文件顺序物化；区域映射每个代表只查询一次
	lookups := make(map[string]TerritoryLookup, len(byRep))
	for _, vr := range valid {
		if ctx.Err() != nil {
			resp.Aborted = true
			fail(vr.row, "import aborted")
			continue
		}

		repID := vr.rep.RepresentativeID
		lookup, ok := lookups[repID]
		if !ok {
			lookup = buildTerritoryLookup(ctx, s.repo.Assignment, repID, groupTerritories(byRep[repID]), s.logger)
			lookups[repID] = lookup
		}

		created, skipped, err := s.materializeRow(ctx, vr, batch.ImportBatchID, meta.OperatorID, lookup)
		resp.CreatedPlans += created
		resp.SkippedPlans += skipped
		if err != nil {
			if ctx.Err() != nil {
				resp.Aborted = true
				fail(vr.row, "import aborted")
				continue
			}
			fail(vr.row, materializeFailureReason(err))
			continue
		}
		resp.SuccessCount++
	}

	sort.SliceStable(resp.Errors, func(i, j int) bool { return resp.Errors[i].Row < resp.Errors[j].Row })

	// 5. 回写批次统计；调用方已取消时仍需落库
	batch.SuccessRows = resp.SuccessCount
	batch.FailedRows = resp.Failed
	batch.CreatedPlans = resp.CreatedPlans
	batch.SkippedPlans = resp.SkippedPlans
	batch.Aborted = resp.Aborted
	if err := s.repo.ImportBatch.Update(context.WithoutCancel(ctx), batch); err != nil {
		s.logger.Warn("更新导入批次失败", zap.String("batch_id", batch.ImportBatchID), zap.Error(err))
	}

	importRowsTotal.WithLabelValues(rowResultSuccess).Add(float64(resp.SuccessCount))
	importRowsTotal.WithLabelValues(rowResultFailed).Add(float64(resp.Failed))

	s.logger.Info("拜访计划导入完成",
		zap.String("batch_id", batch.ImportBatchID),
		zap.String("file", meta.FileName),
		zap.Int("total", resp.Total),
		zap.Int("success", resp.SuccessCount),
		zap.Int("failed", resp.Failed),
		zap.Int("created_plans", resp.CreatedPlans),
		zap.Int("skipped_plans", resp.SkippedPlans),
		zap.Bool("aborted", resp.Aborted),
	)
	return resp, nil
}

// groupTerritories 组内客户自身的区域，作为分配查询的兜底
func groupTerritories(group []validRow) TerritoryLookup {
	own := make(map[string]*string, len(group))
	for _, vr := range group {
		own[vr.customer.CustomerID] = vr.customer.TerritoryID
	}
	return func(customerID string) *string {
		return own[customerID]
	}
}

func (s *importService) materializeRow(ctx context.Context, vr validRow, batchID, operatorID string, lookup TerritoryLookup) (created, skipped int, err error) {
	req, err := NewGenerationRequest(
		vr.rep.RepresentativeID,
		[]string{vr.customer.CustomerID},
		vr.frequency, vr.weekdays, vr.dateRange,
		FromImportBatch(batchID), ByOperator(operatorID),
	)
	if err != nil {
		return 0, 0, err
	}
	dates, err := req.ResolveDates()
	if err != nil {
		return 0, 0, err
	}

	result, err := s.materializer.Materialize(ctx, req, dates, lookup)
	if result != nil {
		created, skipped = len(result.Created), len(result.Skipped)
	}
	return created, skipped, err
}

func materializeFailureReason(err error) string {
	if errors.Is(err, pkgerrors.ErrStoreUnavailable) {
		return "store unavailable"
	}
	if errors.Is(err, ErrInvalidScheduleParameters) {
		return err.Error()
	}
	return "failed to save visit plans"
}

// resolveCodes 批量查询行中出现的工号与客户编码，返回以大写编码为键的映射
func (s *importService) resolveCodes(ctx context.Context, rows []ImportRow) (map[string]*model.Representative, map[string]*model.Customer, error) {
	repCodes := uniqueUpper(rows, func(r ImportRow) string { return r.EmployeeCode })
	custCodes := uniqueUpper(rows, func(r ImportRow) string { return r.CustomerCode })

	repList, err := s.repo.Representative.ListByEmployeeCodes(ctx, repCodes)
	if err != nil {
		s.logger.Error("批量查询代表失败", zap.Error(err))
		return nil, nil, pkgerrors.WrapStore(err)
	}
	custList, err := s.repo.Customer.ListByCodes(ctx, custCodes)
	if err != nil {
		s.logger.Error("批量查询客户失败", zap.Error(err))
		return nil, nil, pkgerrors.WrapStore(err)
	}

	// 仅大小写不同的编码按首条命中，其余记警告
	reps := make(map[string]*model.Representative, len(repList))
	for i := range repList {
		key := codeKey(repList[i].EmployeeCode)
		if _, dup := reps[key]; dup {
			s.logger.Warn("工号仅大小写不同，忽略重复记录", zap.String("employee_code", repList[i].EmployeeCode))
			continue
		}
		reps[key] = &repList[i]
	}
	customers := make(map[string]*model.Customer, len(custList))
	for i := range custList {
		key := codeKey(custList[i].Code)
		if _, dup := customers[key]; dup {
			s.logger.Warn("客户编码仅大小写不同，忽略重复记录", zap.String("customer_code", custList[i].Code))
			continue
		}
		customers[key] = &custList[i]
	}
	return reps, customers, nil
}

// codeKey 工号与客户编码的匹配键，与仓储层的 UPPER 比较一致
func codeKey(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func uniqueUpper(rows []ImportRow, field func(ImportRow) string) []string {
	seen := make(map[string]bool, len(rows))
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		v := codeKey(field(r))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// classify 校验单行，收集该行全部错误原因
func (s *importService) classify(row ImportRow, reps map[string]*model.Representative, customers map[string]*model.Customer) parsedRow {
	var reasons []string

	rep := reps[codeKey(row.EmployeeCode)]
	switch {
	case row.EmployeeCode == "":
		reasons = append(reasons, "missing employee code")
	case rep == nil:
		reasons = append(reasons, "unresolved employee code: "+row.EmployeeCode)
	}

	customer := customers[codeKey(row.CustomerCode)]
	switch {
	case row.CustomerCode == "":
		reasons = append(reasons, "missing customer code")
	case customer == nil:
		reasons = append(reasons, "unresolved customer code: "+row.CustomerCode)
	}

	frequency, err := model.ParseFrequency(row.Frequency)
	if err != nil {
		if row.Frequency == "" {
			reasons = append(reasons, "missing frequency code")
		} else {
			reasons = append(reasons, "unrecognized frequency code: "+row.Frequency)
		}
	}

	weekdays, err := ParseWeekdayList(row.Days)
	if err != nil {
		reasons = append(reasons, "invalid days: "+err.Error())
	}

	start, startErr := parseImportDate(row.StartDate)
	if startErr != nil {
		reasons = append(reasons, "invalid start date: "+row.StartDate)
	}
	end, endErr := parseImportDate(row.EndDate)
	if endErr != nil {
		reasons = append(reasons, "invalid end date: "+row.EndDate)
	}
	dateRange := DateRange{Start: start, End: end}
	if startErr == nil && endErr == nil {
		if err := dateRange.Validate(); err != nil {
			reasons = append(reasons, "start date is after end date")
		} else if s.maxRangeDays > 0 && dateRange.Days() > s.maxRangeDays {
			reasons = append(reasons, fmt.Sprintf("date range exceeds %d days", s.maxRangeDays))
		}
	}

	if len(reasons) > 0 {
		return invalidRow{row: row.Row, reasons: reasons}
	}
	return validRow{
		row:       row.Row,
		rep:       rep,
		customer:  customer,
		frequency: frequency,
		weekdays:  weekdays,
		dateRange: dateRange,
	}
}

// ────────────────────── BuildTemplate ──────────────────────

const (
	templateSheet = "VisitPlans"
	guideSheet    = "Guide"
)

// BuildTemplate 生成导入模板：表头 + 示例行 + 频次下拉，另附填写说明
func (s *importService) BuildTemplate() (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", templateSheet); err != nil {
		return nil, err
	}

	header := make([]interface{}, len(templateHeader))
	for i, h := range templateHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(templateSheet, "A1", &header); err != nil {
		return nil, err
	}
	example := []interface{}{"TDV001", "KH001", "F4", "2,5", "2024-11-01", "2024-11-10"}
	if err := f.SetSheetRow(templateSheet, "A2", &example); err != nil {
		return nil, err
	}

	// 表头加粗
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(templateSheet, "A1", "F1", headerStyle); err != nil {
		return nil, err
	}

	// 日期与星期列按文本存储，避免被 Excel 自动转换
	textStyle, err := f.NewStyle(&excelize.Style{NumFmt: 49})
	if err != nil {
		return nil, err
	}
	if err := f.SetColStyle(templateSheet, "D:F", textStyle); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(templateSheet, "A", "F", 16); err != nil {
		return nil, err
	}

	// 频次下拉
	codes := model.FrequencyCodes()
	options := make([]string, len(codes))
	for i, c := range codes {
		options[i] = string(c)
	}
	lastRow := s.maxRows + 1
	if lastRow < 2 {
		lastRow = 2
	}
	dv := excelize.NewDataValidation(true)
	dv.SetSqref(fmt.Sprintf("C2:C%d", lastRow))
	if err := dv.SetDropList(options); err != nil {
		return nil, err
	}
	if err := f.AddDataValidation(templateSheet, dv); err != nil {
		return nil, err
	}

	if err := s.writeGuide(f); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Error("生成导入模板失败", zap.Error(err))
		return nil, err
	}
	return buf, nil
}

func (s *importService) writeGuide(f *excelize.File) error {
	if _, err := f.NewSheet(guideSheet); err != nil {
		return err
	}

	lines := [][]interface{}{
		{"Column", "Format"},
		{"EmployeeCode", "Representative employee code, e.g. TDV001"},
		{"CustomerCode", "Customer code, e.g. KH001"},
		{"Frequency", "F1 (1x/month), F2 (2x/month), F4 (1x/week), F8 (2x/week), F12 (3x/week)"},
		{"Days", "Comma-separated weekdays: 1=Mon 2=Tue 3=Wed 4=Thu 5=Fri 6=Sat"},
		{"StartDate", "YYYY-MM-DD, YYYY/MM/DD or DD/MM/YYYY"},
		{"EndDate", "Same as StartDate, inclusive"},
	}
	if s.maxRangeDays > 0 {
		lines = append(lines, []interface{}{"Limit", fmt.Sprintf("A row may span at most %d days", s.maxRangeDays)})
	}
	for i, line := range lines {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(guideSheet, cell, &line); err != nil {
			return err
		}
	}
	return f.SetColWidth(guideSheet, "A", "B", 24)
}

// ────────────────────── ListBatches ──────────────────────

func (s *importService) ListBatches(ctx context.Context, req *dto.ImportBatchListRequest) ([]dto.ImportBatchResponse, int64, error) {
	batches, total, err := s.repo.ImportBatch.List(ctx, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询导入历史失败", zap.Error(err))
		return nil, 0, pkgerrors.WrapStore(err)
	}

	result := make([]dto.ImportBatchResponse, len(batches))
	for i, b := range batches {
		result[i] = dto.ImportBatchResponse{
			ID:           b.ImportBatchID,
			FileName:     b.FileName,
			TotalRows:    b.TotalRows,
			SuccessRows:  b.SuccessRows,
			FailedRows:   b.FailedRows,
			CreatedPlans: b.CreatedPlans,
			SkippedPlans: b.SkippedPlans,
			Aborted:      b.Aborted,
			CreatedBy:    b.CreatedBy,
			CreatedAt:    b.CreatedAt.Format(time.RFC3339),
		}
	}
	return result, total, nil
}
