package model

import (
	"time"

	"github.com/google/uuid"
)

// ApprovalStatus enum constants
const (
	ApprovalPending  = "PENDING"
	ApprovalApproved = "APPROVED"
	ApprovalRejected = "REJECTED"
)

// Approval is one pending decision against a procurement record. The SLA
// deadline is fixed at creation — extending it is an explicit recorded
// action, never a silent update. Once the approval leaves PENDING its SLA
// outcome is frozen (DecidedAt is the freeze point).
type Approval struct {
	ID          uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RecordID    uuid.UUID          `gorm:"type:uuid;not null;index" json:"record_id"`
	Record      *ProcurementRecord `gorm:"foreignKey:RecordID" json:"record,omitempty"`
	AssigneeID  uuid.UUID          `gorm:"type:uuid;not null;index" json:"assignee_id"`
	Assignee    *User              `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
	SlaDeadline time.Time          `gorm:"not null;index" json:"sla_deadline"`
	Status      string             `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	DecidedBy   *uuid.UUID         `gorm:"type:uuid" json:"decided_by"`
	Decider     *User              `gorm:"foreignKey:DecidedBy" json:"decider,omitempty"`
	DecidedAt   *time.Time         `json:"decided_at"`
	Comment     string             `gorm:"type:text" json:"comment"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}
