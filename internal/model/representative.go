package model

import "gorm.io/gorm"

// Representative 医药代表表 — 对应 representatives
type Representative struct {
	RepresentativeID string  `gorm:"type:uuid;primaryKey"      json:"representative_id"`
	EmployeeCode     string  `gorm:"type:varchar(30);not null" json:"employee_code"`
	Name             string  `gorm:"type:varchar(100);not null" json:"name"`
	Phone            *string `gorm:"type:varchar(30)"          json:"phone,omitempty"`
	IsActive         bool    `gorm:"not null;default:true"     json:"is_active"`
	SoftDeleteModel
}

// TableName 指定表名
func (Representative) TableName() string { return "representatives" }

// BeforeCreate 生成主键
func (r *Representative) BeforeCreate(*gorm.DB) error {
	newID(&r.RepresentativeID)
	return nil
}
