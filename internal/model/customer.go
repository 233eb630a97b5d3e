package model

import "gorm.io/gorm"

// Customer 药店客户表 — 对应 customers
type Customer struct {
	CustomerID  string  `gorm:"type:uuid;primaryKey"       json:"customer_id"`
	Code        string  `gorm:"type:varchar(30);not null"  json:"code"`
	Name        string  `gorm:"type:varchar(200);not null" json:"name"`
	Address     string  `gorm:"type:varchar(500)"          json:"address,omitempty"`
	TerritoryID *string `gorm:"type:uuid"                  json:"territory_id,omitempty"`
	SoftDeleteModel
}

// TableName 指定表名
func (Customer) TableName() string { return "customers" }

// BeforeCreate 生成主键
func (c *Customer) BeforeCreate(*gorm.DB) error {
	newID(&c.CustomerID)
	return nil
}

// CustomerAssignment 代表-客户分配关系 — 对应 customer_assignments
// 由外部子系统维护，拜访计划引擎只读
type CustomerAssignment struct {
	AssignmentID     string `gorm:"type:uuid;primaryKey"                 json:"assignment_id"`
	RepresentativeID string `gorm:"type:uuid;not null;index"             json:"representative_id"`
	CustomerID       string `gorm:"type:uuid;not null"                   json:"customer_id"`
	SoftDeleteModel

	// 关联
	Customer *Customer `gorm:"foreignKey:CustomerID;references:CustomerID" json:"customer,omitempty"`
}

// TableName 指定表名
func (CustomerAssignment) TableName() string { return "customer_assignments" }

// BeforeCreate 生成主键
func (a *CustomerAssignment) BeforeCreate(*gorm.DB) error {
	newID(&a.AssignmentID)
	return nil
}
