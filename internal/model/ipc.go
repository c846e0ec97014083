package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IpcRecord is one interim payment certificate claim against a contract.
// Net payable, cumulative value and remaining balance are derived by the
// ledger engine from the stored inputs and never persisted, so there is a
// single source of truth for the arithmetic.
type IpcRecord struct {
	ID           uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ContractID   uuid.UUID          `gorm:"type:uuid;not null;index" json:"contract_id"`
	Contract     *ProcurementRecord `gorm:"foreignKey:ContractID" json:"contract,omitempty"`
	RecordID     uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex" json:"record_id"` // lifecycle record (kind IPC)
	Record       *ProcurementRecord `gorm:"foreignKey:RecordID" json:"record,omitempty"`
	Sequence     int                `gorm:"not null" json:"sequence"` // creation order within the contract
	CurrentValue decimal.Decimal    `gorm:"type:decimal(18,4);not null" json:"current_value"`
	Deductions   decimal.Decimal    `gorm:"type:decimal(18,4);not null;default:0" json:"deductions"`
	PeriodFrom   time.Time          `gorm:"not null" json:"period_from"`
	PeriodTo     time.Time          `gorm:"not null" json:"period_to"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}
