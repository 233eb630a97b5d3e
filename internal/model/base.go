package model

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ── PostgreSQL INT[] 自定义类型 ──

// IntArray 对应 PostgreSQL INT[] 类型，实现 GORM Scanner/Valuer 接口。
type IntArray []int

// Scan 将 PostgreSQL 返回的 {1,2,3} 文本解析为 []int。
func (a *IntArray) Scan(src interface{}) error {
	if src == nil {
		*a = nil
		return nil
	}
	var s string
	switch v := src.(type) {
	case []byte:
		s = string(v)
	case string:
		s = v
	default:
		return fmt.Errorf("IntArray.Scan: unsupported type %T", src)
	}
	s = strings.Trim(s, "{}")
	if s == "" {
		*a = IntArray{}
		return nil
	}
	parts := strings.Split(s, ",")
	arr := make(IntArray, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return fmt.Errorf("IntArray.Scan: invalid element %q: %w", p, err)
		}
		arr = append(arr, n)
	}
	*a = arr
	return nil
}

// Value 将 []int 序列化为 PostgreSQL {1,2,3} 文本。
func (a IntArray) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	parts := make([]string, len(a))
	for i, n := range a {
		parts[i] = strconv.Itoa(n)
	}
	return "{" + strings.Join(parts, ",") + "}", nil
}

// ── 日历日期类型 ──

// DateLayout 日期的标准文本格式
const DateLayout = "2006-01-02"

// Date 不含时分秒的日历日期，对应 PostgreSQL DATE 类型。
// 内部统一存储为 UTC 零点，可直接比较与作为 map 键使用。
type Date struct {
	time.Time
}

// NewDate 按年月日构造日期
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf 取 t 在其自身时区下的日历日期
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate 解析 2006-01-02 格式的日期
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// AddDays 返回 n 天后的日期
func (d Date) AddDays(n int) Date {
	return Date{d.Time.AddDate(0, 0, n)}
}

// String 输出 2006-01-02
func (d Date) String() string {
	return d.Format(DateLayout)
}

// GormDataType 建表时使用的列类型
func (Date) GormDataType() string { return "date" }

// Scan 兼容驱动返回 time.Time 或文本两种形式。
func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = DateOf(v)
		return nil
	case []byte:
		return d.scanText(string(v))
	case string:
		return d.scanText(v)
	default:
		return fmt.Errorf("Date.Scan: unsupported type %T", src)
	}
}

func (d *Date) scanText(s string) error {
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return fmt.Errorf("Date.Scan: invalid date %q: %w", s, err)
	}
	*d = parsed
	return nil
}

// Value 以 2006-01-02 文本写入，PostgreSQL 与 SQLite 均可识别。
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

// MarshalJSON 序列化为 "2006-01-02"
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.String())), nil
}

// UnmarshalJSON 解析 "2006-01-02"
func (d *Date) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("Date.UnmarshalJSON: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// newID 生成主键，写入前由 BeforeCreate 钩子调用
func newID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// BaseModel 通用审计字段（所有业务模型嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy *string   `gorm:"type:uuid"                          json:"created_by,omitempty"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy *string   `gorm:"type:uuid"                          json:"updated_by,omitempty"`
}

// SoftDeleteModel 支持软删除的审计字段
type SoftDeleteModel struct {
	BaseModel
	DeletedAt gorm.DeletedAt `gorm:"index"    json:"deleted_at,omitempty"`
	DeletedBy *string        `gorm:"type:uuid" json:"deleted_by,omitempty"`
}
