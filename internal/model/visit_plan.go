package model

import "gorm.io/gorm"

// 计划来源
const (
	PlanSourceManual = "manual"
	PlanSourceImport = "import"
)

// VisitPlan 拜访计划表 — 对应 visit_plans
// (representative_id, customer_id, visit_date) 唯一
type VisitPlan struct {
	VisitPlanID      string        `gorm:"type:uuid;primaryKey"                                        json:"visit_plan_id"`
	RepresentativeID string        `gorm:"type:uuid;not null;uniqueIndex:uk_visit_plan_rep_cust_date,priority:1" json:"representative_id"`
	CustomerID       string        `gorm:"type:uuid;not null;uniqueIndex:uk_visit_plan_rep_cust_date,priority:2" json:"customer_id"`
	VisitDate        Date          `gorm:"not null;uniqueIndex:uk_visit_plan_rep_cust_date,priority:3"           json:"visit_date"`
	TerritoryID      *string       `gorm:"type:uuid"                                                   json:"territory_id,omitempty"`
	Frequency        FrequencyCode `gorm:"type:varchar(4);not null"                                    json:"frequency"`
	Source           string        `gorm:"type:varchar(10);not null"                                   json:"source"`
	ImportBatchID    *string       `gorm:"type:uuid"                                                   json:"import_batch_id,omitempty"`
	BaseModel

	// 关联
	Customer *Customer `gorm:"foreignKey:CustomerID;references:CustomerID" json:"customer,omitempty"`
}

// TableName 指定表名
func (VisitPlan) TableName() string { return "visit_plans" }

// BeforeCreate 生成主键
func (p *VisitPlan) BeforeCreate(*gorm.DB) error {
	newID(&p.VisitPlanID)
	return nil
}

// VisitPlanKey 计划唯一键
type VisitPlanKey struct {
	CustomerID string
	VisitDate  Date
}

// Key 返回计划在同一代表下的唯一键
func (p *VisitPlan) Key() VisitPlanKey {
	return VisitPlanKey{CustomerID: p.CustomerID, VisitDate: p.VisitDate}
}
