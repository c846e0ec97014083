package engine

import (
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
)

// transitions holds the per-kind lifecycle graphs. Any (from, to) pair not
// listed here is rejected; a from-status with no entry is terminal.
var transitions = map[string]map[string][]string{
	model.KindPurchaseRequest: {
		model.StatusDraft:                  {model.StatusSubmitted},
		model.StatusSubmitted:              {model.StatusUnderProcurementReview, model.StatusUnderTechnicalReview},
		model.StatusUnderProcurementReview: {model.StatusUnderTechnicalReview, model.StatusApproved, model.StatusRejected},
		model.StatusUnderTechnicalReview:   {model.StatusApproved, model.StatusRejected},
	},
	model.KindRFQ: {
		model.StatusDraft:  {model.StatusIssued},
		model.StatusIssued: {model.StatusOpen, model.StatusCanceled},
		model.StatusOpen:   {model.StatusAwarded, model.StatusClosed, model.StatusCanceled},
	},
	model.KindContract: {
		model.StatusDraft:  {model.StatusActive},
		model.StatusActive: {model.StatusCompleted, model.StatusTerminated},
	},
	model.KindIPC:     paymentFlow,
	model.KindInvoice: paymentFlow,
}

// paymentFlow is shared by IPCs and invoices: a linear review chain with
// REJECTED reachable from every non-terminal state.
var paymentFlow = map[string][]string{
	model.StatusSubmitted:         {model.StatusProcurementReview, model.StatusRejected},
	model.StatusProcurementReview: {model.StatusTechnicalApproved, model.StatusRejected},
	model.StatusTechnicalApproved: {model.StatusFinanceReview, model.StatusRejected},
	model.StatusFinanceReview:     {model.StatusApproved, model.StatusRejected},
	model.StatusApproved:          {model.StatusPaid, model.StatusRejected},
}

// InitialStatus returns the entry status for a record kind.
func InitialStatus(kind string) string {
	switch kind {
	case model.KindIPC, model.KindInvoice:
		return model.StatusSubmitted
	default:
		return model.StatusDraft
	}
}

// KnownKind reports whether a transition table exists for the kind.
func KnownKind(kind string) bool {
	_, ok := transitions[kind]
	return ok
}

// IsTerminal reports whether the status accepts no further transitions
// for the given kind.
func IsTerminal(kind, status string) bool {
	table, ok := transitions[kind]
	if !ok {
		return false
	}
	return len(table[status]) == 0
}

// CanTransition reports whether the (kind, from, to) edge exists.
func CanTransition(kind, from, to string) bool {
	table, ok := transitions[kind]
	if !ok {
		return false
	}
	for _, next := range table[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses reachable from the current one.
func NextStatuses(kind, from string) []string {
	table, ok := transitions[kind]
	if !ok {
		return nil
	}
	return append([]string(nil), table[from]...)
}

// Transition validates the requested status change and returns the updated
// record together with the history entry to append. The input record is not
// mutated; the caller persists both results atomically.
func Transition(rec model.ProcurementRecord, requested string, actor uuid.UUID, now time.Time) (model.ProcurementRecord, model.StatusHistory, error) {
	if CanTransition(rec.Kind, rec.Status, requested) {
		entry := model.StatusHistory{
			RecordID:  rec.ID,
			Status:    requested,
			Actor:     actor,
			CreatedAt: now,
		}
		rec.Status = requested
		rec.History = append(rec.History, entry)
		return rec, entry, nil
	}

	return rec, model.StatusHistory{}, &TransitionError{
		Kind:     rec.Kind,
		From:     rec.Status,
		To:       requested,
		Terminal: IsTerminal(rec.Kind, rec.Status),
	}
}

// External RFQ vocabulary. User-facing screens historically used
// PUBLISHED/UNDER_EVALUATION where the lifecycle uses ISSUED/OPEN; the
// mapping is a reversible boundary table, the state machine itself only
// ever sees canonical statuses.
const (
	ExternalRFQPublished       = "PUBLISHED"
	ExternalRFQUnderEvaluation = "UNDER_EVALUATION"
)

var rfqExternal = map[string]string{
	model.StatusIssued: ExternalRFQPublished,
	model.StatusOpen:   ExternalRFQUnderEvaluation,
}

var rfqCanonical = map[string]string{
	ExternalRFQPublished:       model.StatusIssued,
	ExternalRFQUnderEvaluation: model.StatusOpen,
}

// ExternalRFQStatus translates a canonical RFQ status to the external
// vocabulary; statuses without an alias pass through unchanged.
func ExternalRFQStatus(status string) string {
	if ext, ok := rfqExternal[status]; ok {
		return ext
	}
	return status
}

// CanonicalRFQStatus is the inverse of ExternalRFQStatus.
func CanonicalRFQStatus(status string) string {
	if canon, ok := rfqCanonical[status]; ok {
		return canon
	}
	return status
}
