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
	"github.com/shopspring/decimal"
)

var (
	ErrContractNotActive = errors.New("contract is not active")
	ErrNotContract       = errors.New("record is not a contract")
)

// --- DTOs ---

type CreateIpcRequest struct {
	Title        string `json:"title" binding:"required"`
	CurrentValue string `json:"current_value" binding:"required"`
	Deductions   string `json:"deductions"`
	PeriodFrom   string `json:"period_from" binding:"required"` // YYYY-MM-DD
	PeriodTo     string `json:"period_to" binding:"required"`
}

type IpcResponse struct {
	ID               string `json:"id"`
	ContractID       string `json:"contract_id"`
	RecordID         string `json:"record_id"`
	Sequence         int    `json:"sequence"`
	Status           string `json:"status"`
	CurrentValue     string `json:"current_value"`
	Deductions       string `json:"deductions"`
	NetPayable       string `json:"net_payable"`
	CumulativeValue  string `json:"cumulative_value"`
	RemainingBalance string `json:"remaining_balance"`
	PercentUsed      string `json:"percent_used"`
	DisplayPercent   string `json:"display_percent"`
	OverCommitted    bool   `json:"over_committed"`
	PeriodFrom       string `json:"period_from"`
	PeriodTo         string `json:"period_to"`
	CreatedAt        string `json:"created_at"`
}

type ContractStatementResponse struct {
	ContractID       string        `json:"contract_id"`
	ContractTitle    string        `json:"contract_title"`
	ContractValue    string        `json:"contract_value"`
	CertifiedToDate  string        `json:"certified_to_date"`
	RemainingBalance string        `json:"remaining_balance"`
	PercentUsed      string        `json:"percent_used"`
	OverCommitted    bool          `json:"over_committed"`
	Ipcs             []IpcResponse `json:"ipcs"`
}

// --- Interface ---

// LedgerService certifies interim payments against contracts. Every IPC is
// both a ledger row (the stored inputs) and a lifecycle record of kind IPC
// that walks the payment review chain; the derived figures are recomputed
// from the stored inputs on every read.
type LedgerService interface {
	CreateIpc(ctx context.Context, actor uuid.UUID, contractID string, req CreateIpcRequest) (IpcResponse, error)
	GetIpc(ctx context.Context, id string) (IpcResponse, error)
	GetContractStatement(ctx context.Context, contractID string) (ContractStatementResponse, error)
}

type ledgerService struct {
	ipcRepo    repository.IpcRepository
	recordRepo repository.RecordRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
	hub        *ws.Hub
	now        func() time.Time
}

func NewLedgerService(
	ipcRepo repository.IpcRepository,
	recordRepo repository.RecordRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) LedgerService {
	return &ledgerService{
		ipcRepo:    ipcRepo,
		recordRepo: recordRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
		hub:        hub,
		now:        time.Now,
	}
}

// --- Implementation ---

func (s *ledgerService) CreateIpc(ctx context.Context, actor uuid.UUID, contractID string, req CreateIpcRequest) (IpcResponse, error) {
	contract, err := s.loadContract(ctx, contractID)
	if err != nil {
		return IpcResponse{}, err
	}
	if contract.Status != model.StatusActive {
		return IpcResponse{}, fmt.Errorf("%w: status is %s", ErrContractNotActive, contract.Status)
	}

	currentValue, err := decimal.NewFromString(req.CurrentValue)
	if err != nil || !currentValue.IsPositive() {
		return IpcResponse{}, fmt.Errorf("invalid current value: %s", req.CurrentValue)
	}

	deductions := decimal.Zero
	if req.Deductions != "" {
		if deductions, err = decimal.NewFromString(req.Deductions); err != nil {
			return IpcResponse{}, fmt.Errorf("invalid deductions: %w", err)
		}
	}

	periodFrom, err := time.Parse("2006-01-02", req.PeriodFrom)
	if err != nil {
		return IpcResponse{}, fmt.Errorf("invalid period_from: %w", err)
	}
	periodTo, err := time.Parse("2006-01-02", req.PeriodTo)
	if err != nil {
		return IpcResponse{}, fmt.Errorf("invalid period_to: %w", err)
	}

	priors, err := s.ipcRepo.ListByContract(ctx, contract.ID)
	if err != nil {
		return IpcResponse{}, fmt.Errorf("failed to fetch prior ipcs: %w", err)
	}

	ipc := model.IpcRecord{
		ContractID:   contract.ID,
		CurrentValue: currentValue,
		Deductions:   deductions,
		PeriodFrom:   periodFrom,
		PeriodTo:     periodTo,
	}

	comp, err := engine.ComputeIpc(contract.Amount(model.AmountContractValue), priors, ipc)
	if err != nil {
		return IpcResponse{}, err
	}

	record := model.ProcurementRecord{
		Kind:      model.KindIPC,
		Status:    engine.InitialStatus(model.KindIPC),
		Title:     req.Title,
		Amounts:   model.AmountMap{"currentValue": currentValue, "deductions": deductions},
		Version:   1,
		CreatedBy: &actor,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.recordRepo.Create(txCtx, &record); err != nil {
			return fmt.Errorf("failed to create ipc record: %w", err)
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

		sequence, err := s.ipcRepo.NextSequence(txCtx, contract.ID)
		if err != nil {
			return fmt.Errorf("failed to compute sequence: %w", err)
		}
		ipc.RecordID = record.ID
		ipc.Sequence = sequence
		if err := s.ipcRepo.Create(txCtx, &ipc); err != nil {
			return fmt.Errorf("failed to create ipc: %w", err)
		}

		return s.audit(txCtx, actor, model.ActionCreateIpc, ipc.ID.String(), req.Title, map[string]interface{}{
			"contract_id":   contract.ID.String(),
			"sequence":      ipc.Sequence,
			"current_value": currentValue.String(),
			"net_payable":   comp.NetPayable.String(),
		})
	})
	if err != nil {
		return IpcResponse{}, err
	}

	ipc.Record = &record
	s.hub.Publish(ws.EventIpcComputed, map[string]interface{}{
		"ipc_id":         ipc.ID.String(),
		"contract_id":    contract.ID.String(),
		"net_payable":    comp.NetPayable.String(),
		"over_committed": comp.OverCommitted,
	})

	return toIpcResponse(ipc, comp), nil
}

func (s *ledgerService) GetIpc(ctx context.Context, id string) (IpcResponse, error) {
	ipcID, err := uuid.Parse(id)
	if err != nil {
		return IpcResponse{}, fmt.Errorf("invalid ipc id: %w", err)
	}

	ipc, err := s.ipcRepo.FindByID(ctx, ipcID)
	if err != nil {
		return IpcResponse{}, fmt.Errorf("ipc not found: %w", err)
	}

	contract, err := s.loadContract(ctx, ipc.ContractID.String())
	if err != nil {
		return IpcResponse{}, err
	}

	all, err := s.ipcRepo.ListByContract(ctx, contract.ID)
	if err != nil {
		return IpcResponse{}, fmt.Errorf("failed to fetch ipcs: %w", err)
	}

	comp, err := engine.ComputeIpc(contract.Amount(model.AmountContractValue), priorsOf(all, ipc.ID), *ipc)
	if err != nil {
		return IpcResponse{}, err
	}
	return toIpcResponse(*ipc, comp), nil
}

// GetContractStatement rebuilds the running position of a contract: every
// IPC with its figures recomputed in sequence, plus the contract totals.
func (s *ledgerService) GetContractStatement(ctx context.Context, contractID string) (ContractStatementResponse, error) {
	contract, err := s.loadContract(ctx, contractID)
	if err != nil {
		return ContractStatementResponse{}, err
	}

	ipcs, err := s.ipcRepo.ListByContract(ctx, contract.ID)
	if err != nil {
		return ContractStatementResponse{}, fmt.Errorf("failed to fetch ipcs: %w", err)
	}

	contractValue := contract.Amount(model.AmountContractValue)
	resp := ContractStatementResponse{
		ContractID:       contract.ID.String(),
		ContractTitle:    contract.Title,
		ContractValue:    contractValue.StringFixed(4),
		CertifiedToDate:  decimal.Zero.StringFixed(4),
		RemainingBalance: contractValue.StringFixed(4),
		PercentUsed:      decimal.Zero.StringFixed(2),
		Ipcs:             make([]IpcResponse, 0, len(ipcs)),
	}

	var last engine.IpcComputation
	for i, ipc := range ipcs {
		comp, err := engine.ComputeIpc(contractValue, ipcs[:i], ipc)
		if err != nil {
			return ContractStatementResponse{}, err
		}
		resp.Ipcs = append(resp.Ipcs, toIpcResponse(ipc, comp))
		last = comp
	}

	if len(ipcs) > 0 {
		resp.CertifiedToDate = last.CumulativeValue.StringFixed(4)
		resp.RemainingBalance = last.RemainingBalance.StringFixed(4)
		resp.PercentUsed = last.PercentUsed.StringFixed(2)
		resp.OverCommitted = last.OverCommitted
	}
	return resp, nil
}

func (s *ledgerService) loadContract(ctx context.Context, contractID string) (*model.ProcurementRecord, error) {
	id, err := uuid.Parse(contractID)
	if err != nil {
		return nil, fmt.Errorf("invalid contract id: %w", err)
	}
	record, err := s.recordRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("contract not found: %w", err)
	}
	if record.Kind != model.KindContract {
		return nil, fmt.Errorf("%w: record %s is a %s", ErrNotContract, record.ID, record.Kind)
	}
	return record, nil
}

func (s *ledgerService) audit(ctx context.Context, actor uuid.UUID, action, entityID, entityName string, details map[string]interface{}) error {
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

// priorsOf returns the IPCs created before the given one, relying on the
// sequence ordering of the input slice.
func priorsOf(ipcs []model.IpcRecord, id uuid.UUID) []model.IpcRecord {
	for i := range ipcs {
		if ipcs[i].ID == id {
			return ipcs[:i]
		}
	}
	return ipcs
}

func toIpcResponse(ipc model.IpcRecord, comp engine.IpcComputation) IpcResponse {
	resp := IpcResponse{
		ID:               ipc.ID.String(),
		ContractID:       ipc.ContractID.String(),
		RecordID:         ipc.RecordID.String(),
		Sequence:         ipc.Sequence,
		CurrentValue:     ipc.CurrentValue.StringFixed(4),
		Deductions:       ipc.Deductions.StringFixed(4),
		NetPayable:       comp.NetPayable.StringFixed(4),
		CumulativeValue:  comp.CumulativeValue.StringFixed(4),
		RemainingBalance: comp.RemainingBalance.StringFixed(4),
		PercentUsed:      comp.PercentUsed.StringFixed(2),
		DisplayPercent:   comp.DisplayPercent.StringFixed(2),
		OverCommitted:    comp.OverCommitted,
		PeriodFrom:       ipc.PeriodFrom.Format("2006-01-02"),
		PeriodTo:         ipc.PeriodTo.Format("2006-01-02"),
		CreatedAt:        ipc.CreatedAt.Format(time.RFC3339),
	}
	if ipc.Record != nil {
		resp.Status = ipc.Record.Status
	}
	return resp
}
