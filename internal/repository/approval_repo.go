package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ApprovalRepository interface {
	Create(ctx context.Context, approval *model.Approval) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Approval, error)
	List(ctx context.Context, status string, page, limit int) ([]model.Approval, int64, error)
	ListByRecord(ctx context.Context, recordID uuid.UUID) ([]model.Approval, error)
	// ListWithRecords preloads the owning record so SLA aggregation can
	// group by entity kind.
	ListWithRecords(ctx context.Context, status string) ([]model.Approval, error)
	Update(ctx context.Context, approval *model.Approval) error
}

type approvalRepository struct {
	db *gorm.DB
}

func NewApprovalRepository(db *gorm.DB) ApprovalRepository {
	return &approvalRepository{db: db}
}

func (r *approvalRepository) Create(ctx context.Context, approval *model.Approval) error {
	return GetDB(ctx, r.db).Create(approval).Error
}

func (r *approvalRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Approval, error) {
	var approval model.Approval
	err := GetDB(ctx, r.db).Preload("Record").Preload("Assignee").First(&approval, "id = ?", id).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &approval, nil
}

func (r *approvalRepository) List(ctx context.Context, status string, page, limit int) ([]model.Approval, int64, error) {
	var approvals []model.Approval
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Approval{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetch := db.Preload("Record").Preload("Assignee").Preload("Decider")
	if status != "" {
		fetch = fetch.Where("status = ?", status)
	}
	if err := fetch.Order("sla_deadline ASC").Offset(offset).Limit(limit).Find(&approvals).Error; err != nil {
		return nil, 0, err
	}

	return approvals, total, nil
}

func (r *approvalRepository) ListByRecord(ctx context.Context, recordID uuid.UUID) ([]model.Approval, error) {
	var approvals []model.Approval
	err := GetDB(ctx, r.db).Preload("Assignee").
		Where("record_id = ?", recordID).
		Order("created_at ASC").
		Find(&approvals).Error
	if err != nil {
		return nil, err
	}
	return approvals, nil
}

func (r *approvalRepository) ListWithRecords(ctx context.Context, status string) ([]model.Approval, error) {
	var approvals []model.Approval
	query := GetDB(ctx, r.db).Preload("Record")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&approvals).Error; err != nil {
		return nil, err
	}
	return approvals, nil
}

func (r *approvalRepository) Update(ctx context.Context, approval *model.Approval) error {
	return GetDB(ctx, r.db).Save(approval).Error
}
