package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backend/internal/engine"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
)

var ErrUnknownDocType = errors.New("unknown document type")

var knownDocTypes = map[string]bool{
	model.DocCommercialRegistration: true,
	model.DocVATCertificate:         true,
	model.DocZakatCertificate:       true,
	model.DocGOSICertificate:        true,
	model.DocSaudization:            true,
	model.DocNationalAddress:        true,
	model.DocBankLetter:             true,
	model.DocCompanyProfile:         true,
	model.DocSASOCertificate:        true,
	model.DocSABERCertificate:       true,
	model.DocHSEPlan:                true,
}

// --- DTOs ---

type CreateVendorRequest struct {
	Name          string `json:"name" binding:"required"`
	VendorType    string `json:"vendor_type" binding:"required,oneof=SUPPLIER MANUFACTURER DISTRIBUTOR CONTRACTOR SUBCONTRACTOR CONSULTANT"`
	CRNumber      string `json:"cr_number"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email" binding:"omitempty,email"`
}

type UploadDocumentRequest struct {
	DocType    string `json:"doc_type" binding:"required"`
	FileRef    string `json:"file_ref" binding:"required"`
	ExpiryDate string `json:"expiry_date"` // YYYY-MM-DD, empty for non-expiring types
}

type VendorResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	VendorType    string `json:"vendor_type"`
	CRNumber      string `json:"cr_number,omitempty"`
	ContactPerson string `json:"contact_person,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Email         string `json:"email,omitempty"`
	IsActive      bool   `json:"is_active"`
	CreatedAt     string `json:"created_at"`
}

type DocumentResponse struct {
	ID         string `json:"id"`
	DocType    string `json:"doc_type"`
	Version    int    `json:"version"`
	Status     string `json:"status"`
	ExpiryDate string `json:"expiry_date,omitempty"`
	FileRef    string `json:"file_ref"`
	CreatedAt  string `json:"created_at"`
}

type VendorComplianceResponse struct {
	VendorID       string             `json:"vendor_id"`
	VendorName     string             `json:"vendor_name"`
	VendorType     string             `json:"vendor_type"`
	CompliantCount int                `json:"compliant_count"`
	TotalMandatory int                `json:"total_mandatory"`
	Percent        int                `json:"percent"`
	Breakdown      map[string]string  `json:"breakdown"`
	Documents      []DocumentResponse `json:"documents"`
}

// --- Interface ---

// ComplianceService manages vendors and their regulatory document chains.
// Uploads always append the next version; the summary reduces each chain to
// its current document and grades it against the vendor type's mandatory set.
type ComplianceService interface {
	CreateVendor(ctx context.Context, actor uuid.UUID, req CreateVendorRequest) (VendorResponse, error)
	GetVendor(ctx context.Context, id string) (VendorResponse, error)
	ListVendors(ctx context.Context, vendorType string, page, limit int) ([]VendorResponse, int64, error)
	UploadDocument(ctx context.Context, actor uuid.UUID, vendorID string, req UploadDocumentRequest) (DocumentResponse, error)
	GetComplianceSummary(ctx context.Context, vendorID string) (VendorComplianceResponse, error)
	ListDocumentHistory(ctx context.Context, vendorID, docType string) ([]DocumentResponse, error)
}

type complianceService struct {
	vendorRepo repository.VendorRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
	now        func() time.Time
}

func NewComplianceService(
	vendorRepo repository.VendorRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) ComplianceService {
	return &complianceService{
		vendorRepo: vendorRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
		now:        time.Now,
	}
}

// --- Implementation ---

func (s *complianceService) CreateVendor(ctx context.Context, actor uuid.UUID, req CreateVendorRequest) (VendorResponse, error) {
	vendor := model.Vendor{
		Name:          req.Name,
		VendorType:    req.VendorType,
		CRNumber:      req.CRNumber,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Email:         req.Email,
		IsActive:      true,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.vendorRepo.Create(txCtx, &vendor); err != nil {
			return fmt.Errorf("failed to create vendor: %w", err)
		}
		return s.audit(txCtx, actor, model.ActionCreateVendor, vendor.ID.String(), vendor.Name, map[string]interface{}{
			"vendor_type": vendor.VendorType,
		})
	})
	if err != nil {
		return VendorResponse{}, err
	}

	return toVendorResponse(vendor), nil
}

func (s *complianceService) GetVendor(ctx context.Context, id string) (VendorResponse, error) {
	vendorID, err := uuid.Parse(id)
	if err != nil {
		return VendorResponse{}, fmt.Errorf("invalid vendor id: %w", err)
	}
	vendor, err := s.vendorRepo.FindByID(ctx, vendorID)
	if err != nil {
		return VendorResponse{}, fmt.Errorf("vendor not found: %w", err)
	}
	return toVendorResponse(*vendor), nil
}

func (s *complianceService) ListVendors(ctx context.Context, vendorType string, page, limit int) ([]VendorResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	vendors, total, err := s.vendorRepo.List(ctx, vendorType, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch vendors: %w", err)
	}

	result := make([]VendorResponse, 0, len(vendors))
	for _, vendor := range vendors {
		result = append(result, toVendorResponse(vendor))
	}
	return result, total, nil
}

func (s *complianceService) UploadDocument(ctx context.Context, actor uuid.UUID, vendorID string, req UploadDocumentRequest) (DocumentResponse, error) {
	id, err := uuid.Parse(vendorID)
	if err != nil {
		return DocumentResponse{}, fmt.Errorf("invalid vendor id: %w", err)
	}
	if !knownDocTypes[req.DocType] {
		return DocumentResponse{}, fmt.Errorf("%w: %s", ErrUnknownDocType, req.DocType)
	}
	if _, err := s.vendorRepo.FindByID(ctx, id); err != nil {
		return DocumentResponse{}, fmt.Errorf("vendor not found: %w", err)
	}

	var expiry *time.Time
	if req.ExpiryDate != "" {
		parsed, err := time.Parse("2006-01-02", req.ExpiryDate)
		if err != nil {
			return DocumentResponse{}, fmt.Errorf("invalid expiry date: %w", err)
		}
		expiry = &parsed
	}

	doc := model.VendorDocument{
		VendorID:   id,
		DocType:    req.DocType,
		ExpiryDate: expiry,
		FileRef:    req.FileRef,
		UploadedBy: &actor,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		latest, err := s.vendorRepo.LatestDocumentVersion(txCtx, id, req.DocType)
		if err != nil {
			return fmt.Errorf("failed to resolve document version: %w", err)
		}
		doc.Version = latest + 1
		if err := s.vendorRepo.AppendDocument(txCtx, &doc); err != nil {
			return fmt.Errorf("failed to append document: %w", err)
		}
		return s.audit(txCtx, actor, model.ActionUploadDocument, doc.ID.String(), req.DocType, map[string]interface{}{
			"vendor_id": id.String(),
			"doc_type":  req.DocType,
			"version":   doc.Version,
		})
	})
	if err != nil {
		return DocumentResponse{}, err
	}

	return toDocumentResponse(doc, s.now()), nil
}

func (s *complianceService) GetComplianceSummary(ctx context.Context, vendorID string) (VendorComplianceResponse, error) {
	id, err := uuid.Parse(vendorID)
	if err != nil {
		return VendorComplianceResponse{}, fmt.Errorf("invalid vendor id: %w", err)
	}

	vendor, err := s.vendorRepo.FindByID(ctx, id)
	if err != nil {
		return VendorComplianceResponse{}, fmt.Errorf("vendor not found: %w", err)
	}

	documents, err := s.vendorRepo.ListDocuments(ctx, id)
	if err != nil {
		return VendorComplianceResponse{}, fmt.Errorf("failed to fetch documents: %w", err)
	}

	asOf := s.now()
	required := engine.RequiredDocuments(vendor.VendorType)
	summary := engine.Summarize(required, documents, asOf)

	resp := VendorComplianceResponse{
		VendorID:       vendor.ID.String(),
		VendorName:     vendor.Name,
		VendorType:     vendor.VendorType,
		CompliantCount: summary.CompliantCount,
		TotalMandatory: summary.TotalMandatory,
		Percent:        summary.Percent,
		Breakdown:      summary.Breakdown,
	}
	for _, doc := range engine.CurrentDocuments(documents) {
		resp.Documents = append(resp.Documents, toDocumentResponse(*doc, asOf))
	}
	return resp, nil
}

func (s *complianceService) ListDocumentHistory(ctx context.Context, vendorID, docType string) ([]DocumentResponse, error) {
	id, err := uuid.Parse(vendorID)
	if err != nil {
		return nil, fmt.Errorf("invalid vendor id: %w", err)
	}
	if !knownDocTypes[docType] {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDocType, docType)
	}

	versions, err := s.vendorRepo.ListDocumentVersions(ctx, id, docType)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document versions: %w", err)
	}

	asOf := s.now()
	result := make([]DocumentResponse, 0, len(versions))
	for _, doc := range versions {
		result = append(result, toDocumentResponse(doc, asOf))
	}
	return result, nil
}

func (s *complianceService) audit(ctx context.Context, actor uuid.UUID, action, entityID, entityName string, details map[string]interface{}) error {
	payload, _ := json.Marshal(details)
	entry := model.AuditLog{
		UserID:     &actor,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(payload),
	}
	if err := s.auditRepo.Log(ctx, &entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func toVendorResponse(vendor model.Vendor) VendorResponse {
	return VendorResponse{
		ID:            vendor.ID.String(),
		Name:          vendor.Name,
		VendorType:    vendor.VendorType,
		CRNumber:      vendor.CRNumber,
		ContactPerson: vendor.ContactPerson,
		Phone:         vendor.Phone,
		Email:         vendor.Email,
		IsActive:      vendor.IsActive,
		CreatedAt:     vendor.CreatedAt.Format(time.RFC3339),
	}
}

func toDocumentResponse(doc model.VendorDocument, asOf time.Time) DocumentResponse {
	resp := DocumentResponse{
		ID:        doc.ID.String(),
		DocType:   doc.DocType,
		Version:   doc.Version,
		Status:    engine.ClassifyDocument(&doc, asOf),
		FileRef:   doc.FileRef,
		CreatedAt: doc.CreatedAt.Format(time.RFC3339),
	}
	if doc.ExpiryDate != nil {
		resp.ExpiryDate = doc.ExpiryDate.Format("2006-01-02")
	}
	return resp
}
