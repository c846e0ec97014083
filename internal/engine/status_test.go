package engine_test

import (
	"testing"
	"time"

	"backend/internal/engine"
	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var allStatuses = []string{
	model.StatusDraft, model.StatusSubmitted, model.StatusUnderProcurementReview,
	model.StatusUnderTechnicalReview, model.StatusIssued, model.StatusOpen,
	model.StatusAwarded, model.StatusClosed, model.StatusCanceled,
	model.StatusActive, model.StatusCompleted, model.StatusTerminated,
	model.StatusProcurementReview, model.StatusTechnicalApproved,
	model.StatusFinanceReview, model.StatusApproved, model.StatusRejected,
	model.StatusPaid,
}

var validEdges = map[string][][2]string{
	model.KindPurchaseRequest: {
		{model.StatusDraft, model.StatusSubmitted},
		{model.StatusSubmitted, model.StatusUnderProcurementReview},
		{model.StatusSubmitted, model.StatusUnderTechnicalReview},
		{model.StatusUnderProcurementReview, model.StatusUnderTechnicalReview},
		{model.StatusUnderProcurementReview, model.StatusApproved},
		{model.StatusUnderProcurementReview, model.StatusRejected},
		{model.StatusUnderTechnicalReview, model.StatusApproved},
		{model.StatusUnderTechnicalReview, model.StatusRejected},
	},
	model.KindRFQ: {
		{model.StatusDraft, model.StatusIssued},
		{model.StatusIssued, model.StatusOpen},
		{model.StatusIssued, model.StatusCanceled},
		{model.StatusOpen, model.StatusAwarded},
		{model.StatusOpen, model.StatusClosed},
		{model.StatusOpen, model.StatusCanceled},
	},
	model.KindContract: {
		{model.StatusDraft, model.StatusActive},
		{model.StatusActive, model.StatusCompleted},
		{model.StatusActive, model.StatusTerminated},
	},
	model.KindIPC: {
		{model.StatusSubmitted, model.StatusProcurementReview},
		{model.StatusSubmitted, model.StatusRejected},
		{model.StatusProcurementReview, model.StatusTechnicalApproved},
		{model.StatusProcurementReview, model.StatusRejected},
		{model.StatusTechnicalApproved, model.StatusFinanceReview},
		{model.StatusTechnicalApproved, model.StatusRejected},
		{model.StatusFinanceReview, model.StatusApproved},
		{model.StatusFinanceReview, model.StatusRejected},
		{model.StatusApproved, model.StatusPaid},
		{model.StatusApproved, model.StatusRejected},
	},
}

func TestTransitionTableExhaustive(t *testing.T) {
	for kind, edges := range validEdges {
		valid := make(map[[2]string]bool, len(edges))
		for _, e := range edges {
			valid[e] = true
		}

		for _, from := range allStatuses {
			for _, to := range allStatuses {
				got := engine.CanTransition(kind, from, to)
				require.Equalf(t, valid[[2]string{from, to}], got,
					"%s: %s -> %s", kind, from, to)
			}
		}
	}
}

func TestInvoiceSharesPaymentFlow(t *testing.T) {
	for _, e := range validEdges[model.KindIPC] {
		require.True(t, engine.CanTransition(model.KindInvoice, e[0], e[1]))
	}
}

func TestTransitionAppendsSingleHistoryEntry(t *testing.T) {
	actor := uuid.New()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	rec := model.ProcurementRecord{
		ID:     uuid.New(),
		Kind:   model.KindRFQ,
		Status: model.StatusDraft,
	}

	updated, entry, err := engine.Transition(rec, model.StatusIssued, actor, now)
	require.NoError(t, err)
	require.Equal(t, model.StatusIssued, updated.Status)
	require.Len(t, updated.History, 1)
	require.Equal(t, model.StatusIssued, entry.Status)
	require.Equal(t, actor, entry.Actor)
	require.Equal(t, now, entry.CreatedAt)

	// input record untouched
	require.Equal(t, model.StatusDraft, rec.Status)
	require.Empty(t, rec.History)
}

func TestTransitionInvalid(t *testing.T) {
	rec := model.ProcurementRecord{Kind: model.KindRFQ, Status: model.StatusDraft}

	_, _, err := engine.Transition(rec, model.StatusAwarded, uuid.New(), time.Now())
	require.ErrorIs(t, err, engine.ErrInvalidTransition)

	var terr *engine.TransitionError
	require.ErrorAs(t, err, &terr)
	require.Equal(t, model.StatusDraft, terr.From)
	require.Equal(t, model.StatusAwarded, terr.To)
}

func TestTransitionOutOfTerminalState(t *testing.T) {
	terminal := map[string][]string{
		model.KindRFQ:             {model.StatusAwarded, model.StatusClosed, model.StatusCanceled},
		model.KindPurchaseRequest: {model.StatusApproved, model.StatusRejected},
		model.KindIPC:             {model.StatusPaid, model.StatusRejected},
		model.KindContract:        {model.StatusCompleted, model.StatusTerminated},
	}

	for kind, statuses := range terminal {
		for _, status := range statuses {
			require.True(t, engine.IsTerminal(kind, status), "%s/%s", kind, status)

			rec := model.ProcurementRecord{Kind: kind, Status: status}
			_, _, err := engine.Transition(rec, model.StatusDraft, uuid.New(), time.Now())
			require.ErrorIs(t, err, engine.ErrTerminalState, "%s/%s", kind, status)
		}
	}
}

func TestInitialStatus(t *testing.T) {
	require.Equal(t, model.StatusDraft, engine.InitialStatus(model.KindPurchaseRequest))
	require.Equal(t, model.StatusDraft, engine.InitialStatus(model.KindRFQ))
	require.Equal(t, model.StatusSubmitted, engine.InitialStatus(model.KindIPC))
	require.Equal(t, model.StatusSubmitted, engine.InitialStatus(model.KindInvoice))
}

func TestRFQVocabularyMappingReversible(t *testing.T) {
	require.Equal(t, engine.ExternalRFQPublished, engine.ExternalRFQStatus(model.StatusIssued))
	require.Equal(t, engine.ExternalRFQUnderEvaluation, engine.ExternalRFQStatus(model.StatusOpen))

	for _, status := range []string{model.StatusDraft, model.StatusIssued, model.StatusOpen, model.StatusAwarded} {
		require.Equal(t, status, engine.CanonicalRFQStatus(engine.ExternalRFQStatus(status)))
	}
}
