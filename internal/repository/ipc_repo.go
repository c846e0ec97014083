package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type IpcRepository interface {
	Create(ctx context.Context, ipc *model.IpcRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.IpcRecord, error)
	// ListByContract returns the contract's IPCs in creation order; the
	// ledger arithmetic requires it.
	ListByContract(ctx context.Context, contractID uuid.UUID) ([]model.IpcRecord, error)
	NextSequence(ctx context.Context, contractID uuid.UUID) (int, error)
}

type ipcRepository struct {
	db *gorm.DB
}

func NewIpcRepository(db *gorm.DB) IpcRepository {
	return &ipcRepository{db: db}
}

func (r *ipcRepository) Create(ctx context.Context, ipc *model.IpcRecord) error {
	return GetDB(ctx, r.db).Create(ipc).Error
}

func (r *ipcRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.IpcRecord, error) {
	var ipc model.IpcRecord
	if err := GetDB(ctx, r.db).Preload("Record").First(&ipc, "id = ?", id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &ipc, nil
}

func (r *ipcRepository) ListByContract(ctx context.Context, contractID uuid.UUID) ([]model.IpcRecord, error) {
	var ipcs []model.IpcRecord
	err := GetDB(ctx, r.db).Preload("Record").
		Where("contract_id = ?", contractID).
		Order("sequence ASC").
		Find(&ipcs).Error
	if err != nil {
		return nil, err
	}
	return ipcs, nil
}

func (r *ipcRepository) NextSequence(ctx context.Context, contractID uuid.UUID) (int, error) {
	var max int
	err := GetDB(ctx, r.db).Model(&model.IpcRecord{}).
		Where("contract_id = ?", contractID).
		Select("COALESCE(MAX(sequence), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}
