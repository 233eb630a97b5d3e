package model

import "gorm.io/gorm"

// GenerationLog 计划生成审计记录 — 对应 generation_logs
// 每次生成调用写一条，频次在此作为描述性信息留存
type GenerationLog struct {
	GenerationLogID  string        `gorm:"type:uuid;primaryKey"      json:"generation_log_id"`
	RepresentativeID string        `gorm:"type:uuid;not null"        json:"representative_id"`
	Frequency        FrequencyCode `gorm:"type:varchar(4);not null"  json:"frequency"`
	DaysOfWeek       IntArray      `gorm:"type:int[];not null"       json:"days_of_week"`
	StartDate        Date          `gorm:"not null"                  json:"start_date"`
	EndDate          Date          `gorm:"not null"                  json:"end_date"`
	Source           string        `gorm:"type:varchar(10);not null" json:"source"`
	ImportBatchID    *string       `gorm:"type:uuid"                 json:"import_batch_id,omitempty"`
	CustomerCount    int           `gorm:"not null;default:0"        json:"customer_count"`
	CreatedCount     int           `gorm:"not null;default:0"        json:"created_count"`
	SkippedCount     int           `gorm:"not null;default:0"        json:"skipped_count"`
	BaseModel
}

// TableName 指定表名
func (GenerationLog) TableName() string { return "generation_logs" }

// BeforeCreate 生成主键
func (l *GenerationLog) BeforeCreate(*gorm.DB) error {
	newID(&l.GenerationLogID)
	return nil
}
