package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Representative RepresentativeRepository
	Customer       CustomerRepository
	Assignment     AssignmentRepository
	VisitPlan      VisitPlanRepository
	ImportBatch    ImportBatchRepository
	GenerationLog  GenerationLogRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Representative: NewRepresentativeRepo(db),
		Customer:       NewCustomerRepo(db),
		Assignment:     NewAssignmentRepo(db),
		VisitPlan:      NewVisitPlanRepo(db),
		ImportBatch:    NewImportBatchRepo(db),
		GenerationLog:  NewGenerationLogRepo(db),
	}
}
