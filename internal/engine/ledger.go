package engine

import (
	"fmt"

	"backend/internal/model"

	"github.com/shopspring/decimal"
)

// IpcComputation holds every derived figure for one IPC. PercentUsed is the
// unclamped ratio backing the over-commitment warning; DisplayPercent is
// capped at 100 for rendering.
type IpcComputation struct {
	NetPayable       decimal.Decimal `json:"net_payable"`
	CumulativeValue  decimal.Decimal `json:"cumulative_value"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	PercentUsed      decimal.Decimal `json:"percent_used"`
	DisplayPercent   decimal.Decimal `json:"display_percent"`
	OverCommitted    bool            `json:"over_committed"`
}

// ComputeIpc derives the payment figures for a new IPC against a contract.
// priorIpcs must be the contract's earlier IPCs in creation order; the
// engine never queries storage itself. A cumulative value exceeding the
// contract value is reported as a warning, not rejected — contracts can be
// amended after the fact.
func ComputeIpc(contractValue decimal.Decimal, priorIpcs []model.IpcRecord, ipc model.IpcRecord) (IpcComputation, error) {
	if ipc.Deductions.IsNegative() {
		return IpcComputation{}, fmt.Errorf("%w: got %s", ErrInvalidDeduction, ipc.Deductions.String())
	}
	if ipc.PeriodTo.Before(ipc.PeriodFrom) {
		return IpcComputation{}, fmt.Errorf("%w: %s after %s", ErrInvalidPeriod,
			ipc.PeriodFrom.Format("2006-01-02"), ipc.PeriodTo.Format("2006-01-02"))
	}

	cumulative := ipc.CurrentValue
	for _, prior := range priorIpcs {
		cumulative = cumulative.Add(prior.CurrentValue)
	}

	comp := IpcComputation{
		NetPayable:       ipc.CurrentValue.Sub(ipc.Deductions),
		CumulativeValue:  cumulative,
		RemainingBalance: contractValue.Sub(cumulative),
		OverCommitted:    cumulative.GreaterThan(contractValue),
	}

	if contractValue.IsPositive() {
		comp.PercentUsed = cumulative.Div(contractValue).Mul(hundred)
	}
	comp.DisplayPercent = comp.PercentUsed
	if comp.DisplayPercent.GreaterThan(hundred) {
		comp.DisplayPercent = hundred
	}

	return comp, nil
}
