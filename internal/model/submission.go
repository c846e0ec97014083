package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ComplianceFlag enum constants: reviewer-assigned technical conformance
const (
	ComplianceYes     = "YES"
	CompliancePartial = "PARTIAL"
	ComplianceNo      = "NO"
)

// SubmissionStatus enum constants
const (
	SubmissionSubmitted   = "SUBMITTED"
	SubmissionUnderReview = "UNDER_REVIEW"
	SubmissionRecommended = "RECOMMENDED"
	SubmissionAwarded     = "AWARDED"
	SubmissionRejected    = "REJECTED"
)

// Submission is a vendor's quotation against one RFQ. A vendor may submit
// at most once per RFQ, and at most one submission per RFQ can be AWARDED.
type Submission struct {
	ID               uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RFQID            uuid.UUID        `gorm:"type:uuid;not null;index:idx_submission_rfq_vendor,unique" json:"rfq_id"`
	VendorID         uuid.UUID        `gorm:"type:uuid;not null;index:idx_submission_rfq_vendor,unique" json:"vendor_id"`
	Vendor           *Vendor          `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`
	ProposedAmount   decimal.Decimal  `gorm:"type:decimal(18,4);not null" json:"proposed_amount"`
	DeliveryTimeDays int              `gorm:"not null;default:0" json:"delivery_time_days"`
	PaymentTerms     string           `gorm:"type:varchar(255)" json:"payment_terms"`
	TechnicalScore   *decimal.Decimal `gorm:"type:decimal(5,2)" json:"technical_score"` // 0-100, nil until evaluated
	ComplianceFlag   string           `gorm:"type:varchar(10);not null;default:'YES'" json:"compliance_flag"`
	Status           string           `gorm:"type:varchar(20);not null;default:'SUBMITTED';index" json:"status"`
	CreatedAt        time.Time        `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}
