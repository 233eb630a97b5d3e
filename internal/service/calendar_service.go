package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"pharmadms/internal/model"
	"pharmadms/internal/repository"
	pkgerrors "pharmadms/pkg/errors"
)

// CalendarService 代表拜访日历导出
//
// 每条计划导出为一个全天事件，UID 由计划 ID 派生，重复导入日历客户端不会产生重复事件
type CalendarService interface {
	// ExportCalendar 返回 ICS 文本与建议文件名
	ExportCalendar(ctx context.Context, representativeID string, start, end string) (string, string, error)
}

type calendarService struct {
	repo         *repository.Repository
	maxRangeDays int
	logger       *zap.Logger
}

// NewCalendarService 创建 CalendarService 实例
func NewCalendarService(repo *repository.Repository, maxRangeDays int, logger *zap.Logger) CalendarService {
	return &calendarService{repo: repo, maxRangeDays: maxRangeDays, logger: logger}
}

const calendarProductID = "-//pharma-dms//visit-planner//EN"

func (s *calendarService) ExportCalendar(ctx context.Context, representativeID string, start, end string) (string, string, error) {
	startDate, err := model.ParseDate(start)
	if err != nil {
		return "", "", &FieldError{Field: "start_date", Reason: "invalid date " + start}
	}
	endDate, err := model.ParseDate(end)
	if err != nil {
		return "", "", &FieldError{Field: "end_date", Reason: "invalid date " + end}
	}
	dateRange := DateRange{Start: startDate, End: endDate}
	if err := dateRange.Validate(); err != nil {
		return "", "", err
	}
	if s.maxRangeDays > 0 && dateRange.Days() > s.maxRangeDays {
		return "", "", fmt.Errorf("%w: %d days exceeds limit of %d", ErrDateRangeTooLong, dateRange.Days(), s.maxRangeDays)
	}

	rep, err := s.repo.Representative.GetByID(ctx, representativeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", ErrRepresentativeNotFound
		}
		s.logger.Error("查询代表失败", zap.String("representative_id", representativeID), zap.Error(err))
		return "", "", pkgerrors.WrapStore(err)
	}

	plans, err := s.repo.VisitPlan.ListInRange(ctx, representativeID, startDate, endDate)
	if err != nil {
		s.logger.Error("查询拜访计划失败", zap.String("representative_id", representativeID), zap.Error(err))
		return "", "", pkgerrors.WrapStore(err)
	}

	filename := fmt.Sprintf("visit-plans-%s-%s-%s.ics", rep.EmployeeCode, startDate.Format("20060102"), endDate.Format("20060102"))
	return buildCalendar(rep, plans, time.Now().UTC()), filename, nil
}

// buildCalendar 把计划列表序列化为 ICS
func buildCalendar(rep *model.Representative, plans []model.VisitPlan, stamp time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)
	cal.SetName("Visit plans " + rep.EmployeeCode)
	cal.SetXWRCalName("Visit plans " + rep.EmployeeCode)

	for i := range plans {
		p := &plans[i]
		event := cal.AddEvent(p.VisitPlanID + "@visit-planner")
		event.SetDtStampTime(stamp)
		event.SetAllDayStartAt(p.VisitDate.Time)
		event.SetAllDayEndAt(p.VisitDate.AddDays(1).Time)

		summary := "Visit " + p.CustomerID
		if p.Customer != nil {
			summary = fmt.Sprintf("Visit %s %s", p.Customer.Code, p.Customer.Name)
			if p.Customer.Address != "" {
				event.SetLocation(p.Customer.Address)
			}
		}
		event.SetSummary(summary)
		event.SetDescription(fmt.Sprintf("Frequency %s, source %s", p.Frequency, p.Source))
	}

	return cal.Serialize()
}
