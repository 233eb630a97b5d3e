package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"pharmadms/internal/model"
)

// ErrInvalidScheduleParameters 星期集合为空、日期区间颠倒或频次无法识别
var ErrInvalidScheduleParameters = errors.New("invalid schedule parameters")

// ────────────────────── WeekdaySet ──────────────────────

// WeekdaySet 可选拜访日集合，周一至周六，按 time.Weekday 编号（1=周一 … 6=周六）
// 周日不可选
type WeekdaySet struct {
	days [7]bool
	n    int
}

// NewWeekdaySet 由星期构造集合，重复值合并；周日或越界值返回错误
func NewWeekdaySet(days ...time.Weekday) (WeekdaySet, error) {
	var set WeekdaySet
	for _, d := range days {
		if d < time.Monday || d > time.Saturday {
			return WeekdaySet{}, fmt.Errorf("%w: weekday %d out of range 1-6", ErrInvalidScheduleParameters, int(d))
		}
		if !set.days[d] {
			set.days[d] = true
			set.n++
		}
	}
	return set, nil
}

// WeekdaySetFromInts 由整数编号构造集合
func WeekdaySetFromInts(days []int) (WeekdaySet, error) {
	weekdays := make([]time.Weekday, len(days))
	for i, d := range days {
		weekdays[i] = time.Weekday(d)
	}
	return NewWeekdaySet(weekdays...)
}

// ParseWeekdayList 解析 "2,5" 形式的星期列表，允许空白与分号分隔
func ParseWeekdayList(s string) (WeekdaySet, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t'
	})
	if len(fields) == 0 {
		return WeekdaySet{}, errors.New("empty weekday list")
	}

	days := make([]time.Weekday, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return WeekdaySet{}, fmt.Errorf("unparseable weekday %q", f)
		}
		if n < int(time.Monday) || n > int(time.Saturday) {
			return WeekdaySet{}, fmt.Errorf("weekday %d out of range 1-6", n)
		}
		days = append(days, time.Weekday(n))
	}
	return NewWeekdaySet(days...)
}

// Contains 是否包含该星期
func (w WeekdaySet) Contains(d time.Weekday) bool {
	return d >= 0 && int(d) < len(w.days) && w.days[d]
}

// Len 集合大小
func (w WeekdaySet) Len() int { return w.n }

// Ints 升序返回整数编号
func (w WeekdaySet) Ints() []int {
	out := make([]int, 0, w.n)
	for d, ok := range w.days {
		if ok {
			out = append(out, d)
		}
	}
	return out
}

// ────────────────────── DateRange ──────────────────────

// DateRange 闭区间 [Start, End]
type DateRange struct {
	Start model.Date
	End   model.Date
}

// Validate 要求 Start <= End
func (r DateRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("%w: date range is incomplete", ErrInvalidScheduleParameters)
	}
	if r.Start.After(r.End.Time) {
		return fmt.Errorf("%w: start date %s is after end date %s", ErrInvalidScheduleParameters, r.Start, r.End)
	}
	return nil
}

// Days 区间包含的天数
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start.Time).Hours()/24) + 1
}

// ────────────────────── ResolveDates ──────────────────────

// ResolveDates 展开 [range.Start, range.End] 中落在 weekdays 上的所有日期，严格升序且不重复。
// 频次只校验是否可识别，不参与日期筛选。
// 区间内没有匹配日期时返回空切片而非错误。
func ResolveDates(frequency model.FrequencyCode, weekdays WeekdaySet, r DateRange) ([]model.Date, error) {
	if !frequency.IsValid() {
		return nil, fmt.Errorf("%w: unrecognized frequency code %q", ErrInvalidScheduleParameters, string(frequency))
	}
	if weekdays.Len() == 0 {
		return nil, fmt.Errorf("%w: at least one weekday is required", ErrInvalidScheduleParameters)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	dates := make([]model.Date, 0, r.Days()*weekdays.Len()/6+1)
	for d := r.Start; !d.After(r.End.Time); d = d.AddDays(1) {
		if weekdays.Contains(d.Weekday()) {
			dates = append(dates, d)
		}
	}
	return dates, nil
}
