package model

import "gorm.io/gorm"

// Territory 区域表 — 对应 territories（由客户管理子系统维护）
type Territory struct {
	TerritoryID string `gorm:"type:uuid;primaryKey"         json:"territory_id"`
	Code        string `gorm:"type:varchar(30);not null"    json:"code"`
	Name        string `gorm:"type:varchar(100);not null"   json:"name"`
	BaseModel
}

// TableName 指定表名
func (Territory) TableName() string { return "territories" }

// BeforeCreate 生成主键
func (t *Territory) BeforeCreate(*gorm.DB) error {
	newID(&t.TerritoryID)
	return nil
}
