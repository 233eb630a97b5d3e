package model

import "gorm.io/gorm"

// ImportBatch 批量导入记录 — 对应 import_batches
type ImportBatch struct {
	ImportBatchID string `gorm:"type:uuid;primaryKey"        json:"import_batch_id"`
	FileName      string `gorm:"type:varchar(255);not null"  json:"file_name"`
	TotalRows     int    `gorm:"not null;default:0"          json:"total_rows"`
	SuccessRows   int    `gorm:"not null;default:0"          json:"success_rows"`
	FailedRows    int    `gorm:"not null;default:0"          json:"failed_rows"`
	CreatedPlans  int    `gorm:"not null;default:0"          json:"created_plans"`
	SkippedPlans  int    `gorm:"not null;default:0"          json:"skipped_plans"`
	Aborted       bool   `gorm:"not null;default:false"      json:"aborted"`
	BaseModel
}

// TableName 指定表名
func (ImportBatch) TableName() string { return "import_batches" }

// BeforeCreate 生成主键
func (b *ImportBatch) BeforeCreate(*gorm.DB) error {
	newID(&b.ImportBatchID)
	return nil
}
