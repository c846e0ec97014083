package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VendorRepository interface {
	Create(ctx context.Context, vendor *model.Vendor) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Vendor, error)
	List(ctx context.Context, vendorType string, page, limit int) ([]model.Vendor, int64, error)

	// AppendDocument inserts the next version in the (vendor, docType)
	// chain. Existing rows are never touched.
	AppendDocument(ctx context.Context, doc *model.VendorDocument) error
	LatestDocumentVersion(ctx context.Context, vendorID uuid.UUID, docType string) (int, error)
	ListDocuments(ctx context.Context, vendorID uuid.UUID) ([]model.VendorDocument, error)
	ListDocumentVersions(ctx context.Context, vendorID uuid.UUID, docType string) ([]model.VendorDocument, error)
}

type vendorRepository struct {
	db *gorm.DB
}

func NewVendorRepository(db *gorm.DB) VendorRepository {
	return &vendorRepository{db: db}
}

func (r *vendorRepository) Create(ctx context.Context, vendor *model.Vendor) error {
	return GetDB(ctx, r.db).Create(vendor).Error
}

func (r *vendorRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Vendor, error) {
	var vendor model.Vendor
	if err := GetDB(ctx, r.db).First(&vendor, "id = ?", id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &vendor, nil
}

func (r *vendorRepository) List(ctx context.Context, vendorType string, page, limit int) ([]model.Vendor, int64, error) {
	var vendors []model.Vendor
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Vendor{})
	if vendorType != "" {
		query = query.Where("vendor_type = ?", vendorType)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetch := db
	if vendorType != "" {
		fetch = fetch.Where("vendor_type = ?", vendorType)
	}
	if err := fetch.Order("name ASC").Offset(offset).Limit(limit).Find(&vendors).Error; err != nil {
		return nil, 0, err
	}

	return vendors, total, nil
}

func (r *vendorRepository) AppendDocument(ctx context.Context, doc *model.VendorDocument) error {
	return GetDB(ctx, r.db).Create(doc).Error
}

func (r *vendorRepository) LatestDocumentVersion(ctx context.Context, vendorID uuid.UUID, docType string) (int, error) {
	var max int
	err := GetDB(ctx, r.db).Model(&model.VendorDocument{}).
		Where("vendor_id = ? AND doc_type = ?", vendorID, docType).
		Select("COALESCE(MAX(version), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max, nil
}

func (r *vendorRepository) ListDocuments(ctx context.Context, vendorID uuid.UUID) ([]model.VendorDocument, error) {
	var docs []model.VendorDocument
	err := GetDB(ctx, r.db).
		Where("vendor_id = ?", vendorID).
		Order("doc_type ASC, version ASC").
		Find(&docs).Error
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *vendorRepository) ListDocumentVersions(ctx context.Context, vendorID uuid.UUID, docType string) ([]model.VendorDocument, error) {
	var docs []model.VendorDocument
	err := GetDB(ctx, r.db).
		Where("vendor_id = ? AND doc_type = ?", vendorID, docType).
		Order("version ASC").
		Find(&docs).Error
	if err != nil {
		return nil, err
	}
	return docs, nil
}
