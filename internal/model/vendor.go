package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VendorType enum constants
const (
	VendorTypeSupplier      = "SUPPLIER"
	VendorTypeManufacturer  = "MANUFACTURER"
	VendorTypeDistributor   = "DISTRIBUTOR"
	VendorTypeContractor    = "CONTRACTOR"
	VendorTypeSubcontractor = "SUBCONTRACTOR"
	VendorTypeConsultant    = "CONSULTANT"
)

// DocType enum constants. Certificates carry an expiry date; profile-style
// documents (company profile, bank letter) do not.
const (
	DocCommercialRegistration = "COMMERCIAL_REGISTRATION"
	DocVATCertificate         = "VAT_CERTIFICATE"
	DocZakatCertificate       = "ZAKAT_CERTIFICATE"
	DocGOSICertificate        = "GOSI_CERTIFICATE"
	DocSaudization            = "SAUDIZATION_CERTIFICATE"
	DocNationalAddress        = "NATIONAL_ADDRESS"
	DocBankLetter             = "BANK_LETTER"
	DocCompanyProfile         = "COMPANY_PROFILE"
	DocSASOCertificate        = "SASO_CERTIFICATE"
	DocSABERCertificate       = "SABER_CERTIFICATE"
	DocHSEPlan                = "HSE_PLAN"
)

// Vendor represents a qualified or in-qualification supplier/contractor
type Vendor struct {
	ID            uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name          string           `gorm:"type:varchar(255);not null" json:"name"`
	VendorType    string           `gorm:"type:varchar(20);not null;index" json:"vendor_type"`
	CRNumber      string           `gorm:"type:varchar(50)" json:"cr_number"`
	ContactPerson string           `gorm:"type:varchar(255)" json:"contact_person"`
	Phone         string           `gorm:"type:varchar(50)" json:"phone"`
	Email         string           `gorm:"type:varchar(255)" json:"email"`
	IsActive      bool             `gorm:"default:true" json:"is_active"`
	Documents     []VendorDocument `gorm:"foreignKey:VendorID;constraint:OnDelete:CASCADE" json:"documents,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
	DeletedAt     gorm.DeletedAt   `gorm:"index" json:"-"`
}

// VendorDocument is one version in an append-only chain per (vendor, docType).
// Re-upload inserts the next version; rows are never updated or deleted, so
// the current document is always the highest version and rollback is a query.
type VendorDocument struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	VendorID   uuid.UUID  `gorm:"type:uuid;not null;index:idx_vendor_doc_version,unique" json:"vendor_id"`
	DocType    string     `gorm:"type:varchar(40);not null;index:idx_vendor_doc_version,unique" json:"doc_type"`
	Version    int        `gorm:"not null;default:1;index:idx_vendor_doc_version,unique" json:"version"`
	ExpiryDate *time.Time `json:"expiry_date"`                            // nil for doc types that never expire
	FileRef    string     `gorm:"type:varchar(512);not null" json:"file_ref"` // opaque handle owned by external storage
	UploadedBy *uuid.UUID `gorm:"type:uuid" json:"uploaded_by"`
	CreatedAt  time.Time  `json:"created_at"`
}
