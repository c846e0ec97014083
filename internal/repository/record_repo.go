package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RecordListFilter struct {
	Kind   string
	Status string
	Page   int
	Limit  int
}

// RecordRepository is the storage port for lifecycle records. Status writes
// go through UpdateStatusVersioned so a concurrent writer can never clobber
// a transition computed against a stale status.
type RecordRepository interface {
	Create(ctx context.Context, record *model.ProcurementRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ProcurementRecord, error)
	FindByIDWithHistory(ctx context.Context, id uuid.UUID) (*model.ProcurementRecord, error)
	List(ctx context.Context, filter RecordListFilter) ([]model.ProcurementRecord, int64, error)
	UpdateStatusVersioned(ctx context.Context, id uuid.UUID, status string, expectedVersion int) error
	AppendHistory(ctx context.Context, entry *model.StatusHistory) error
}

type recordRepository struct {
	db *gorm.DB
}

func NewRecordRepository(db *gorm.DB) RecordRepository {
	return &recordRepository{db: db}
}

func (r *recordRepository) Create(ctx context.Context, record *model.ProcurementRecord) error {
	return GetDB(ctx, r.db).Create(record).Error
}

func (r *recordRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ProcurementRecord, error) {
	var record model.ProcurementRecord
	if err := GetDB(ctx, r.db).First(&record, "id = ?", id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &record, nil
}

func (r *recordRepository) FindByIDWithHistory(ctx context.Context, id uuid.UUID) (*model.ProcurementRecord, error) {
	var record model.ProcurementRecord
	err := GetDB(ctx, r.db).
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&record, "id = ?", id).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &record, nil
}

func (r *recordRepository) List(ctx context.Context, filter RecordListFilter) ([]model.ProcurementRecord, int64, error) {
	var records []model.ProcurementRecord
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.ProcurementRecord{})
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	fetch := db
	if filter.Kind != "" {
		fetch = fetch.Where("kind = ?", filter.Kind)
	}
	if filter.Status != "" {
		fetch = fetch.Where("status = ?", filter.Status)
	}
	if err := fetch.Order("created_at DESC").Offset(offset).Limit(filter.Limit).Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

// UpdateStatusVersioned writes the new status only if the version still
// matches the one the caller read. Zero rows affected means a concurrent
// writer got there first.
func (r *recordRepository) UpdateStatusVersioned(ctx context.Context, id uuid.UUID, status string, expectedVersion int) error {
	result := GetDB(ctx, r.db).Model(&model.ProcurementRecord{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(map[string]interface{}{
			"status":  status,
			"version": expectedVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleWrite
	}
	return nil
}

func (r *recordRepository) AppendHistory(ctx context.Context, entry *model.StatusHistory) error {
	return GetDB(ctx, r.db).Create(entry).Error
}
