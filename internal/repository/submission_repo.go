package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SubmissionRepository interface {
	Create(ctx context.Context, submission *model.Submission) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Submission, error)
	FindByRFQAndVendor(ctx context.Context, rfqID, vendorID uuid.UUID) (*model.Submission, error)
	ListByRFQ(ctx context.Context, rfqID uuid.UUID) ([]model.Submission, error)
	Update(ctx context.Context, submission *model.Submission) error
}

type submissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Create(ctx context.Context, submission *model.Submission) error {
	return GetDB(ctx, r.db).Create(submission).Error
}

func (r *submissionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Submission, error) {
	var submission model.Submission
	if err := GetDB(ctx, r.db).Preload("Vendor").First(&submission, "id = ?", id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &submission, nil
}

func (r *submissionRepository) FindByRFQAndVendor(ctx context.Context, rfqID, vendorID uuid.UUID) (*model.Submission, error) {
	var submission model.Submission
	err := GetDB(ctx, r.db).First(&submission, "rfq_id = ? AND vendor_id = ?", rfqID, vendorID).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &submission, nil
}

// ListByRFQ returns submissions in submission order; the evaluation
// tie-break depends on it.
func (r *submissionRepository) ListByRFQ(ctx context.Context, rfqID uuid.UUID) ([]model.Submission, error) {
	var submissions []model.Submission
	err := GetDB(ctx, r.db).Preload("Vendor").
		Where("rfq_id = ?", rfqID).
		Order("created_at ASC").
		Find(&submissions).Error
	if err != nil {
		return nil, err
	}
	return submissions, nil
}

func (r *submissionRepository) Update(ctx context.Context, submission *model.Submission) error {
	return GetDB(ctx, r.db).Save(submission).Error
}
