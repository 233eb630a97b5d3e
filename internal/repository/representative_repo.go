package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"pharmadms/internal/model"
)

// RepresentativeRepository 医药代表数据访问接口（只读）
type RepresentativeRepository interface {
	GetByID(ctx context.Context, id string) (*model.Representative, error)
	GetByEmployeeCode(ctx context.Context, code string) (*model.Representative, error)
	ListByEmployeeCodes(ctx context.Context, codes []string) ([]model.Representative, error)
}

// representativeRepo RepresentativeRepository 的 GORM 实现
type representativeRepo struct {
	db *gorm.DB
}

// NewRepresentativeRepo 创建 RepresentativeRepository 实例
func NewRepresentativeRepo(db *gorm.DB) RepresentativeRepository {
	return &representativeRepo{db: db}
}

func (r *representativeRepo) GetByID(ctx context.Context, id string) (*model.Representative, error) {
	var rep model.Representative
	err := r.db.WithContext(ctx).
		Where("representative_id = ?", id).
		First(&rep).Error
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

// GetByEmployeeCode 按工号查找代表，工号比较忽略大小写
func (r *representativeRepo) GetByEmployeeCode(ctx context.Context, code string) (*model.Representative, error) {
	var rep model.Representative
	err := r.db.WithContext(ctx).
		Where("UPPER(employee_code) = ?", normalizeCode(code)).
		First(&rep).Error
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

// ListByEmployeeCodes 批量解析工号（忽略大小写），未命中的工号不出现在结果中
func (r *representativeRepo) ListByEmployeeCodes(ctx context.Context, codes []string) ([]model.Representative, error) {
	var reps []model.Representative
	if len(codes) == 0 {
		return reps, nil
	}
	err := r.db.WithContext(ctx).
		Where("UPPER(employee_code) IN ?", normalizeCodes(codes)).
		Find(&reps).Error
	return reps, err
}

// normalizeCode 业务编码统一按去空白后的大写比较，与 migration 中的 UPPER 索引一致
func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func normalizeCodes(codes []string) []string {
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = normalizeCode(c)
	}
	return out
}
