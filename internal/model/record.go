package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecordKind enum constants
const (
	KindPurchaseRequest = "PURCHASE_REQUEST"
	KindRFQ             = "RFQ"
	KindContract        = "CONTRACT"
	KindIPC             = "IPC"
	KindInvoice         = "INVOICE"
)

// Status enum constants. Each record kind uses its own subset;
// the valid combinations live in the engine transition tables.
const (
	StatusDraft                  = "DRAFT"
	StatusSubmitted              = "SUBMITTED"
	StatusUnderProcurementReview = "UNDER_PROCUREMENT_REVIEW"
	StatusUnderTechnicalReview   = "UNDER_TECHNICAL_REVIEW"
	StatusIssued                 = "ISSUED"
	StatusOpen                   = "OPEN"
	StatusAwarded                = "AWARDED"
	StatusClosed                 = "CLOSED"
	StatusCanceled               = "CANCELED"
	StatusActive                 = "ACTIVE"
	StatusCompleted              = "COMPLETED"
	StatusTerminated             = "TERMINATED"
	StatusProcurementReview      = "PROCUREMENT_REVIEW"
	StatusTechnicalApproved      = "TECHNICAL_APPROVED"
	StatusFinanceReview          = "FINANCE_REVIEW"
	StatusApproved               = "APPROVED"
	StatusRejected               = "REJECTED"
	StatusPaid                   = "PAID"
)

// Named amount fields stored in ProcurementRecord.Amounts
const (
	AmountEstimated     = "estimatedAmount"
	AmountContractValue = "contractValue"
)

// AmountMap stores named decimal amounts as a JSONB column
type AmountMap map[string]decimal.Decimal

func (m AmountMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *AmountMap) Scan(value interface{}) error {
	if value == nil {
		*m = AmountMap{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported type for AmountMap: %T", value)
	}
	return json.Unmarshal(raw, m)
}

// ProcurementRecord is the lifecycle-bearing entity for purchase requests,
// RFQs, contracts, IPCs and invoices. Version backs optimistic concurrency:
// status writes are conditioned on the version read, never blind.
type ProcurementRecord struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Kind      string          `gorm:"type:varchar(30);not null;index" json:"kind"`
	Status    string          `gorm:"type:varchar(40);not null;index" json:"status"`
	Title     string          `gorm:"type:varchar(255);not null" json:"title"`
	Amounts   AmountMap       `gorm:"type:jsonb;not null;default:'{}'" json:"amounts"`
	Version   int             `gorm:"not null;default:1" json:"version"`
	CreatedBy *uuid.UUID      `gorm:"type:uuid;index" json:"created_by"`
	Creator   *User           `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	History   []StatusHistory `gorm:"foreignKey:RecordID;constraint:OnDelete:CASCADE" json:"history,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// StatusHistory is append-only: one entry per successful transition,
// written in the same transaction as the status change.
type StatusHistory struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RecordID  uuid.UUID `gorm:"type:uuid;not null;index" json:"record_id"`
	Status    string    `gorm:"type:varchar(40);not null" json:"status"`
	Actor     uuid.UUID `gorm:"type:uuid;not null" json:"actor"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// Amount returns a named amount, decimal zero when absent.
func (r *ProcurementRecord) Amount(name string) decimal.Decimal {
	if r.Amounts == nil {
		return decimal.Zero
	}
	return r.Amounts[name]
}
