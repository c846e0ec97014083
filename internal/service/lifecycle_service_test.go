package service_test

import (
	"context"
	"testing"

	"backend/internal/engine"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/service"
	ws "backend/internal/websocket"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newLifecycleFixture() (service.LifecycleService, *mockRecordRepo, *mockAuditRepo) {
	recordRepo := newMockRecordRepo()
	auditRepo := &mockAuditRepo{}
	svc := service.NewLifecycleService(recordRepo, auditRepo, &mockTxManager{}, ws.NewHub())
	return svc, recordRepo, auditRepo
}

func TestCreateRecordStartsInInitialStatus(t *testing.T) {
	svc, recordRepo, auditRepo := newLifecycleFixture()
	actor := uuid.New()

	record, err := svc.CreateRecord(context.Background(), actor, service.CreateRecordRequest{
		Kind:    model.KindPurchaseRequest,
		Title:   "Rebar order Q3",
		Amounts: map[string]string{model.AmountEstimated: "250000"},
	})
	require.NoError(t, err)
	require.Equal(t, model.StatusDraft, record.Status)
	require.Equal(t, 1, record.Version)
	require.Equal(t, []string{model.StatusSubmitted}, record.NextStatuses)

	require.Len(t, recordRepo.history, 1)
	require.Equal(t, model.StatusDraft, recordRepo.history[0].Status)
	require.Equal(t, actor, recordRepo.history[0].Actor)

	require.Len(t, auditRepo.entries, 1)
	require.Equal(t, model.ActionCreateRecord, auditRepo.entries[0].Action)
}

func TestCreateRecordRejectsUnknownKind(t *testing.T) {
	svc, _, _ := newLifecycleFixture()

	_, err := svc.CreateRecord(context.Background(), uuid.New(), service.CreateRecordRequest{
		Kind:  "WORK_ORDER",
		Title: "nope",
	})
	require.Error(t, err)
}

func TestCreateRecordRejectsMalformedAmount(t *testing.T) {
	svc, _, _ := newLifecycleFixture()

	_, err := svc.CreateRecord(context.Background(), uuid.New(), service.CreateRecordRequest{
		Kind:    model.KindPurchaseRequest,
		Title:   "bad amount",
		Amounts: map[string]string{model.AmountEstimated: "two hundred"},
	})
	require.Error(t, err)
}

func TestTransitionHappyPath(t *testing.T) {
	svc, recordRepo, auditRepo := newLifecycleFixture()
	actor := uuid.New()

	record := &model.ProcurementRecord{
		Kind:    model.KindPurchaseRequest,
		Status:  model.StatusDraft,
		Title:   "PR-1",
		Version: 1,
	}
	recordRepo.add(record)

	updated, err := svc.Transition(context.Background(), actor, record.ID.String(), model.StatusSubmitted)
	require.NoError(t, err)
	require.Equal(t, model.StatusSubmitted, updated.Status)
	require.Equal(t, 2, updated.Version)

	require.Len(t, recordRepo.history, 1)
	require.Equal(t, model.StatusSubmitted, recordRepo.history[0].Status)
	require.Len(t, auditRepo.entries, 1)
	require.Equal(t, model.ActionTransitionRecord, auditRepo.entries[0].Action)
}

func TestTransitionRejectsIllegalEdge(t *testing.T) {
	svc, recordRepo, _ := newLifecycleFixture()

	record := &model.ProcurementRecord{
		Kind:    model.KindPurchaseRequest,
		Status:  model.StatusDraft,
		Version: 1,
	}
	recordRepo.add(record)

	_, err := svc.Transition(context.Background(), uuid.New(), record.ID.String(), model.StatusApproved)
	require.ErrorIs(t, err, engine.ErrInvalidTransition)
	require.Empty(t, recordRepo.history)
}

func TestTransitionRejectsTerminalState(t *testing.T) {
	svc, recordRepo, _ := newLifecycleFixture()

	record := &model.ProcurementRecord{
		Kind:    model.KindContract,
		Status:  model.StatusCompleted,
		Version: 3,
	}
	recordRepo.add(record)

	_, err := svc.Transition(context.Background(), uuid.New(), record.ID.String(), model.StatusActive)
	require.ErrorIs(t, err, engine.ErrTerminalState)
}

func TestTransitionPropagatesStaleWrite(t *testing.T) {
	svc, recordRepo, _ := newLifecycleFixture()

	record := &model.ProcurementRecord{
		Kind:    model.KindPurchaseRequest,
		Status:  model.StatusDraft,
		Version: 1,
	}
	recordRepo.add(record)
	recordRepo.updateStatusErr = repository.ErrStaleWrite

	_, err := svc.Transition(context.Background(), uuid.New(), record.ID.String(), model.StatusSubmitted)
	require.ErrorIs(t, err, repository.ErrStaleWrite)
}

func TestTransitionAcceptsExternalRFQVocabulary(t *testing.T) {
	svc, recordRepo, _ := newLifecycleFixture()

	record := &model.ProcurementRecord{
		Kind:    model.KindRFQ,
		Status:  model.StatusIssued,
		Version: 1,
	}
	recordRepo.add(record)

	updated, err := svc.Transition(context.Background(), uuid.New(), record.ID.String(), engine.ExternalRFQUnderEvaluation)
	require.NoError(t, err)
	require.Equal(t, model.StatusOpen, updated.Status)
	require.Equal(t, engine.ExternalRFQUnderEvaluation, updated.DisplayStatus)
}

func TestTransitionUnknownRecord(t *testing.T) {
	svc, _, _ := newLifecycleFixture()

	_, err := svc.Transition(context.Background(), uuid.New(), uuid.New().String(), model.StatusSubmitted)
	require.Error(t, err)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestGetRecordIncludesHistory(t *testing.T) {
	svc, recordRepo, _ := newLifecycleFixture()
	actor := uuid.New()

	record := &model.ProcurementRecord{
		Kind:    model.KindPurchaseRequest,
		Status:  model.StatusDraft,
		Version: 1,
	}
	recordRepo.add(record)

	_, err := svc.Transition(context.Background(), actor, record.ID.String(), model.StatusSubmitted)
	require.NoError(t, err)

	got, err := svc.GetRecord(context.Background(), record.ID.String())
	require.NoError(t, err)
	require.Len(t, got.History, 1)
	require.Equal(t, model.StatusSubmitted, got.History[0].Status)
}
