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
	ws "backend/internal/websocket"

	"github.com/google/uuid"
)

var (
	ErrApprovalDecided  = errors.New("approval is already decided")
	ErrDeadlineNotLater = errors.New("new deadline must be after the current one")
	ErrInvalidDecision  = errors.New("decision must be APPROVED or REJECTED")
)

// --- DTOs ---

type CreateApprovalRequest struct {
	RecordID    string `json:"record_id" binding:"required,uuid"`
	AssigneeID  string `json:"assignee_id" binding:"required,uuid"`
	SlaDeadline string `json:"sla_deadline" binding:"required"` // RFC3339
}

type DecideApprovalRequest struct {
	Decision string `json:"decision" binding:"required,oneof=APPROVED REJECTED"`
	Comment  string `json:"comment"`
}

type ExtendSlaRequest struct {
	NewDeadline string `json:"new_deadline" binding:"required"` // RFC3339
	Reason      string `json:"reason" binding:"required"`
}

type ApprovalResponse struct {
	ID           string `json:"id"`
	RecordID     string `json:"record_id"`
	RecordTitle  string `json:"record_title,omitempty"`
	RecordKind   string `json:"record_kind,omitempty"`
	AssigneeID   string `json:"assignee_id"`
	AssigneeName string `json:"assignee_name,omitempty"`
	SlaDeadline  string `json:"sla_deadline"`
	SlaStatus    string `json:"sla_status"`
	Status       string `json:"status"`
	DecidedBy    string `json:"decided_by,omitempty"`
	DecidedAt    string `json:"decided_at,omitempty"`
	Comment      string `json:"comment,omitempty"`
	CreatedAt    string `json:"created_at"`
}

type ReminderOutcome struct {
	ApprovalID string `json:"approval_id"`
	RecordID   string `json:"record_id"`
	AssigneeID string `json:"assignee_id"`
	Overdue    bool   `json:"overdue"`
	Sent       bool   `json:"sent"`
	Error      string `json:"error,omitempty"`
}

type ReminderBatchResponse struct {
	SentAt    string            `json:"sent_at"`
	Reminders []ReminderOutcome `json:"reminders"`
}

// --- Interface ---

// SlaService tracks approval assignments against their deadlines. Deciding
// an approval freezes its SLA outcome; deadline changes only happen through
// ExtendSla, which records the old and new deadline in the audit trail.
type SlaService interface {
	CreateApproval(ctx context.Context, actor uuid.UUID, req CreateApprovalRequest) (ApprovalResponse, error)
	GetApproval(ctx context.Context, id string) (ApprovalResponse, error)
	ListApprovals(ctx context.Context, status string, page, limit int) ([]ApprovalResponse, int64, error)
	ListByRecord(ctx context.Context, recordID string) ([]ApprovalResponse, error)
	Decide(ctx context.Context, actor uuid.UUID, id string, req DecideApprovalRequest) (ApprovalResponse, error)
	ExtendSla(ctx context.Context, actor uuid.UUID, id string, req ExtendSlaRequest) (ApprovalResponse, error)
	Dashboard(ctx context.Context) (engine.SlaSummary, error)
	SendReminders(ctx context.Context, actor uuid.UUID) (ReminderBatchResponse, error)
}

type slaService struct {
	approvalRepo repository.ApprovalRepository
	recordRepo   repository.RecordRepository
	userRepo     repository.UserRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	hub          *ws.Hub
	now          func() time.Time
}

func NewSlaService(
	approvalRepo repository.ApprovalRepository,
	recordRepo repository.RecordRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) SlaService {
	return &slaService{
		approvalRepo: approvalRepo,
		recordRepo:   recordRepo,
		userRepo:     userRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		hub:          hub,
		now:          time.Now,
	}
}

// --- Implementation ---

func (s *slaService) CreateApproval(ctx context.Context, actor uuid.UUID, req CreateApprovalRequest) (ApprovalResponse, error) {
	recordID, err := uuid.Parse(req.RecordID)
	if err != nil {
		return ApprovalResponse{}, fmt.Errorf("invalid record id: %w", err)
	}
	assigneeID, err := uuid.Parse(req.AssigneeID)
	if err != nil {
		return ApprovalResponse{}, fmt.Errorf("invalid assignee id: %w", err)
	}
	deadline, err := time.Parse(time.RFC3339, req.SlaDeadline)
	if err != nil {
		return ApprovalResponse{}, fmt.Errorf("invalid sla deadline: %w", err)
	}
	if !deadline.After(s.now()) {
		return ApprovalResponse{}, fmt.Errorf("sla deadline must be in the future")
	}

	record, err := s.recordRepo.FindByID(ctx, recordID)
	if err != nil {
		return ApprovalResponse{}, fmt.Errorf("record not found: %w", err)
	}
	if _, err := s.userRepo.GetByID(ctx, assigneeID.String()); err != nil {
		return ApprovalResponse{}, fmt.Errorf("assignee not found: %w", err)
	}

	approval := model.Approval{
		RecordID:    recordID,
		AssigneeID:  assigneeID,
		SlaDeadline: deadline,
		Status:      model.ApprovalPending,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.approvalRepo.Create(txCtx, &approval); err != nil {
			return fmt.Errorf("failed to create approval: %w", err)
		}
		return s.audit(txCtx, actor, model.ActionCreateApproval, approval.ID.String(), record.Title, map[string]interface{}{
			"record_id":    recordID.String(),
			"assignee_id":  assigneeID.String(),
			"sla_deadline": deadline.Format(time.RFC3339),
		})
	})
	if err != nil {
		return ApprovalResponse{}, err
	}

	approval.Record = record
	return s.toApprovalResponse(approval), nil
}

func (s *slaService) GetApproval(ctx context.Context, id string) (ApprovalResponse, error) {
	approvalID, err := uuid.Parse(id)
	if err != nil {
		return ApprovalResponse{}, fmt.Errorf("invalid approval id: %w", err)
	}
	approval, err := s.approvalRepo.FindByID(ctx, approvalID)
	if err != nil {
		return ApprovalResponse{}, fmt.Errorf("approval not found: %w", err)
	}
	return s.toApprovalResponse(*approval), nil
}

func (s *slaService) ListApprovals(ctx context.Context, status string, page, limit int) ([]ApprovalResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	approvals, total, err := s.approvalRepo.List(ctx, status, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch approvals: %w", err)
	}

	result := make([]ApprovalResponse, 0, len(approvals))
	for _, approval := range approvals {
		result = append(result, s.toApprovalResponse(approval))
	}
	return result, total, nil
}

func (s *slaService) ListByRecord(ctx context.Context, recordID string) ([]ApprovalResponse, error) {
	id, err := uuid.Parse(recordID)
	if err != nil {
		return nil, fmt.Errorf("invalid record id: %w", err)
	}
	approvals, err := s.approvalRepo.ListByRecord(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch approvals: %w", err)
	}
	result := make([]ApprovalResponse, 0, len(approvals))
	for _, approval := range approvals {
		result = append(result, s.toApprovalResponse(approval))
	}
	return result, nil
}

func (s *slaService) Decide(ctx context.Context, actor uuid.UUID, id string, req DecideApprovalRequest) (ApprovalResponse, error) {
	approvalID, err := uuid.Parse(id)
	if err != nil {
		return ApprovalResponse{}, fmt.Errorf("invalid approval id: %w", err)
	}
	if req.Decision != model.ApprovalApproved && req.Decision != model.ApprovalRejected {
		return ApprovalResponse{}, ErrInvalidDecision
	}

	approval, err := s.approvalRepo.FindByID(ctx, approvalID)
	if err != nil {
		return ApprovalResponse{}, fmt.Errorf("approval not found: %w", err)
	}
	if approval.Status != model.ApprovalPending {
		return ApprovalResponse{}, fmt.Errorf("%w: status is %s", ErrApprovalDecided, approval.Status)
	}

	decidedAt := s.now()
	approval.Status = req.Decision
	approval.DecidedBy = &actor
	approval.DecidedAt = &decidedAt
	approval.Comment = req.Comment

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.approvalRepo.Update(txCtx, approval); err != nil {
			return fmt.Errorf("failed to update approval: %w", err)
		}
		return s.audit(txCtx, actor, model.ActionDecideApproval, approval.ID.String(), "", map[string]interface{}{
			"decision":    req.Decision,
			"was_overdue": approval.SlaDeadline.Before(decidedAt),
		})
	})
	if err != nil {
		return ApprovalResponse{}, err
	}

	return s.toApprovalResponse(*approval), nil
}

func (s *slaService) ExtendSla(ctx context.Context, actor uuid.UUID, id string, req ExtendSlaRequest) (ApprovalResponse, error) {
	approvalID, err := uuid.Parse(id)
	if err != nil {
		return ApprovalResponse{}, fmt.Errorf("invalid approval id: %w", err)
	}
	newDeadline, err := time.Parse(time.RFC3339, req.NewDeadline)
	if err != nil {
		return ApprovalResponse{}, fmt.Errorf("invalid deadline: %w", err)
	}

	approval, err := s.approvalRepo.FindByID(ctx, approvalID)
	if err != nil {
		return ApprovalResponse{}, fmt.Errorf("approval not found: %w", err)
	}
	if approval.Status != model.ApprovalPending {
		return ApprovalResponse{}, fmt.Errorf("%w: status is %s", ErrApprovalDecided, approval.Status)
	}
	if !newDeadline.After(approval.SlaDeadline) {
		return ApprovalResponse{}, ErrDeadlineNotLater
	}

	oldDeadline := approval.SlaDeadline
	approval.SlaDeadline = newDeadline

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.approvalRepo.Update(txCtx, approval); err != nil {
			return fmt.Errorf("failed to update approval: %w", err)
		}
		return s.audit(txCtx, actor, model.ActionExtendSla, approval.ID.String(), "", map[string]interface{}{
			"old_deadline": oldDeadline.Format(time.RFC3339),
			"new_deadline": newDeadline.Format(time.RFC3339),
			"reason":       req.Reason,
		})
	})
	if err != nil {
		return ApprovalResponse{}, err
	}

	return s.toApprovalResponse(*approval), nil
}

func (s *slaService) Dashboard(ctx context.Context) (engine.SlaSummary, error) {
	approvals, err := s.approvalRepo.ListWithRecords(ctx, "")
	if err != nil {
		return engine.SlaSummary{}, fmt.Errorf("failed to fetch approvals: %w", err)
	}
	return engine.AggregateSla(approvals, s.now()), nil
}

// SendReminders notifies assignees of every pending approval and reports
// which ones are overdue. Each reminder stands alone: a failed audit write
// marks that outcome and the rest of the batch still goes out.
func (s *slaService) SendReminders(ctx context.Context, actor uuid.UUID) (ReminderBatchResponse, error) {
	approvals, err := s.approvalRepo.ListWithRecords(ctx, model.ApprovalPending)
	if err != nil {
		return ReminderBatchResponse{}, fmt.Errorf("failed to fetch pending approvals: %w", err)
	}

	sentAt := s.now()
	resp := ReminderBatchResponse{
		SentAt:    sentAt.Format(time.RFC3339),
		Reminders: make([]ReminderOutcome, 0, len(approvals)),
	}

	for _, approval := range approvals {
		overdue := engine.ClassifySla(approval, sentAt) == engine.SlaOverdue
		outcome := ReminderOutcome{
			ApprovalID: approval.ID.String(),
			RecordID:   approval.RecordID.String(),
			AssigneeID: approval.AssigneeID.String(),
			Overdue:    overdue,
			Sent:       true,
		}
		if err := s.audit(ctx, actor, model.ActionSendReminder, approval.ID.String(), "", map[string]interface{}{
			"assignee_id": approval.AssigneeID.String(),
			"overdue":     overdue,
		}); err != nil {
			outcome.Sent = false
			outcome.Error = err.Error()
		} else {
			s.hub.Publish(ws.EventApprovalReminded, map[string]interface{}{
				"approval_id": outcome.ApprovalID,
				"assignee_id": outcome.AssigneeID,
				"overdue":     outcome.Overdue,
			})
		}
		resp.Reminders = append(resp.Reminders, outcome)
	}
	return resp, nil
}

func (s *slaService) audit(ctx context.Context, actor uuid.UUID, action, entityID, entityName string, details map[string]interface{}) error {
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

func (s *slaService) toApprovalResponse(approval model.Approval) ApprovalResponse {
	resp := ApprovalResponse{
		ID:          approval.ID.String(),
		RecordID:    approval.RecordID.String(),
		AssigneeID:  approval.AssigneeID.String(),
		SlaDeadline: approval.SlaDeadline.Format(time.RFC3339),
		SlaStatus:   engine.ClassifySla(approval, s.now()),
		Status:      approval.Status,
		Comment:     approval.Comment,
		CreatedAt:   approval.CreatedAt.Format(time.RFC3339),
	}
	if approval.Record != nil {
		resp.RecordTitle = approval.Record.Title
		resp.RecordKind = approval.Record.Kind
	}
	if approval.Assignee != nil {
		resp.AssigneeName = approval.Assignee.Username
	}
	if approval.DecidedBy != nil {
		resp.DecidedBy = approval.DecidedBy.String()
	}
	if approval.DecidedAt != nil {
		resp.DecidedAt = approval.DecidedAt.Format(time.RFC3339)
	}
	return resp
}
