package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"backend/internal/engine"
	"backend/internal/model"
	"backend/internal/repository"
	ws "backend/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type CreateRecordRequest struct {
	Kind    string            `json:"kind" binding:"required,oneof=PURCHASE_REQUEST RFQ CONTRACT IPC INVOICE"`
	Title   string            `json:"title" binding:"required"`
	Amounts map[string]string `json:"amounts"` // named decimal fields, e.g. estimatedAmount
}

type TransitionRequest struct {
	Status string `json:"status" binding:"required"`
}

type RecordFilter struct {
	Kind   string
	Status string
	Page   int
	Limit  int
}

type HistoryEntryResponse struct {
	Status    string `json:"status"`
	Actor     string `json:"actor"`
	Timestamp string `json:"timestamp"`
}

type RecordResponse struct {
	ID            string                 `json:"id"`
	Kind          string                 `json:"kind"`
	Status        string                 `json:"status"`
	DisplayStatus string                 `json:"display_status"` // external vocabulary (RFQ only differs)
	Title         string                 `json:"title"`
	Amounts       map[string]string      `json:"amounts"`
	Version       int                    `json:"version"`
	NextStatuses  []string               `json:"next_statuses"`
	History       []HistoryEntryResponse `json:"history,omitempty"`
	CreatedAt     string                 `json:"created_at"`
}

// --- Interface ---

// LifecycleService owns every status change. It loads the record with its
// version, asks the engine whether the transition is legal, and writes back
// conditioned on the version being unchanged — a concurrent transition on
// the same record surfaces as repository.ErrStaleWrite for the caller to
// retry.
type LifecycleService interface {
	CreateRecord(ctx context.Context, actor uuid.UUID, req CreateRecordRequest) (RecordResponse, error)
	Transition(ctx context.Context, actor uuid.UUID, id string, requested string) (RecordResponse, error)
	GetRecord(ctx context.Context, id string) (RecordResponse, error)
	ListRecords(ctx context.Context, filter RecordFilter) ([]RecordResponse, int64, error)
}

type lifecycleService struct {
	recordRepo repository.RecordRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
	hub        *ws.Hub
	now        func() time.Time
}

func NewLifecycleService(
	recordRepo repository.RecordRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) LifecycleService {
	return &lifecycleService{
		recordRepo: recordRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
		hub:        hub,
		now:        time.Now,
	}
}

// --- Implementation ---

func (s *lifecycleService) CreateRecord(ctx context.Context, actor uuid.UUID, req CreateRecordRequest) (RecordResponse, error) {
	if !engine.KnownKind(req.Kind) {
		return RecordResponse{}, fmt.Errorf("unknown record kind: %s", req.Kind)
	}

	amounts := model.AmountMap{}
	for name, raw := range req.Amounts {
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return RecordResponse{}, fmt.Errorf("invalid amount %q: %w", name, err)
		}
		amounts[name] = value
	}

	record := model.ProcurementRecord{
		Kind:      req.Kind,
		Status:    engine.InitialStatus(req.Kind),
		Title:     req.Title,
		Amounts:   amounts,
		Version:   1,
		CreatedBy: &actor,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.recordRepo.Create(txCtx, &record); err != nil {
			return fmt.Errorf("failed to create record: %w", err)
		}

		entry := model.StatusHistory{
			RecordID:  record.ID,
			Status:    record.Status,
			Actor:     actor,
			CreatedAt: s.now(),
		}
		if err := s.recordRepo.AppendHistory(txCtx, &entry); err != nil {
			return fmt.Errorf("failed to append history: %w", err)
		}

		return s.audit(txCtx, actor, model.ActionCreateRecord, record.ID.String(), record.Title, map[string]interface{}{
			"kind":   record.Kind,
			"status": record.Status,
		})
	})
	if err != nil {
		return RecordResponse{}, err
	}

	return toRecordResponse(record), nil
}

func (s *lifecycleService) Transition(ctx context.Context, actor uuid.UUID, id string, requested string) (RecordResponse, error) {
	recordID, err := uuid.Parse(id)
	if err != nil {
		return RecordResponse{}, fmt.Errorf("invalid record id: %w", err)
	}

	record, err := s.recordRepo.FindByID(ctx, recordID)
	if err != nil {
		return RecordResponse{}, fmt.Errorf("record not found: %w", err)
	}

	// The external RFQ vocabulary is translated at this boundary; the
	// state machine only sees canonical statuses.
	if record.Kind == model.KindRFQ {
		requested = engine.CanonicalRFQStatus(requested)
	}

	updated, entry, err := engine.Transition(*record, requested, actor, s.now())
	if err != nil {
		return RecordResponse{}, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.recordRepo.UpdateStatusVersioned(txCtx, record.ID, updated.Status, record.Version); err != nil {
			return err
		}
		if err := s.recordRepo.AppendHistory(txCtx, &entry); err != nil {
			return fmt.Errorf("failed to append history: %w", err)
		}
		return s.audit(txCtx, actor, model.ActionTransitionRecord, record.ID.String(), record.Title, map[string]interface{}{
			"kind": record.Kind,
			"from": record.Status,
			"to":   updated.Status,
		})
	})
	if err != nil {
		return RecordResponse{}, err
	}

	updated.Version = record.Version + 1
	s.hub.Publish(ws.EventRecordTransitioned, map[string]interface{}{
		"record_id": record.ID.String(),
		"kind":      record.Kind,
		"from":      record.Status,
		"to":        updated.Status,
	})

	return toRecordResponse(updated), nil
}

func (s *lifecycleService) GetRecord(ctx context.Context, id string) (RecordResponse, error) {
	recordID, err := uuid.Parse(id)
	if err != nil {
		return RecordResponse{}, fmt.Errorf("invalid record id: %w", err)
	}

	record, err := s.recordRepo.FindByIDWithHistory(ctx, recordID)
	if err != nil {
		return RecordResponse{}, fmt.Errorf("record not found: %w", err)
	}
	return toRecordResponse(*record), nil
}

func (s *lifecycleService) ListRecords(ctx context.Context, filter RecordFilter) ([]RecordResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	records, total, err := s.recordRepo.List(ctx, repository.RecordListFilter{
		Kind:   filter.Kind,
		Status: filter.Status,
		Page:   filter.Page,
		Limit:  filter.Limit,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch records: %w", err)
	}

	result := make([]RecordResponse, 0, len(records))
	for _, record := range records {
		result = append(result, toRecordResponse(record))
	}
	return result, total, nil
}

func (s *lifecycleService) audit(ctx context.Context, actor uuid.UUID, action, entityID, entityName string, details map[string]interface{}) error {
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

// --- Mapping ---

func toRecordResponse(record model.ProcurementRecord) RecordResponse {
	amounts := make(map[string]string, len(record.Amounts))
	for name, value := range record.Amounts {
		amounts[name] = value.StringFixed(4)
	}

	display := record.Status
	if record.Kind == model.KindRFQ {
		display = engine.ExternalRFQStatus(record.Status)
	}

	resp := RecordResponse{
		ID:            record.ID.String(),
		Kind:          record.Kind,
		Status:        record.Status,
		DisplayStatus: display,
		Title:         record.Title,
		Amounts:       amounts,
		Version:       record.Version,
		NextStatuses:  engine.NextStatuses(record.Kind, record.Status),
		CreatedAt:     record.CreatedAt.Format(time.RFC3339),
	}

	for _, entry := range record.History {
		resp.History = append(resp.History, HistoryEntryResponse{
			Status:    entry.Status,
			Actor:     entry.Actor.String(),
			Timestamp: entry.CreatedAt.Format(time.RFC3339),
		})
	}

	return resp
}
