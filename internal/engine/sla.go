package engine

import (
	"time"

	"backend/internal/model"
)

// SLA classification constants
const (
	SlaOnTrack = "ON_TRACK"
	SlaOverdue = "OVERDUE"
)

// ClassifySla buckets one approval relative to asOf. Only PENDING approvals
// can be overdue — once decided, the SLA outcome is frozen and the approval
// drops out of the overdue count whatever its deadline was.
func ClassifySla(approval model.Approval, asOf time.Time) string {
	if approval.Status == model.ApprovalPending && approval.SlaDeadline.Before(asOf) {
		return SlaOverdue
	}
	return SlaOnTrack
}

// SlaCounts is one on-track/overdue bucket pair.
type SlaCounts struct {
	OnTrack int `json:"on_track"`
	Overdue int `json:"overdue"`
}

// SlaSummary aggregates approval SLA standing for reporting.
type SlaSummary struct {
	Total        int                  `json:"total"`
	Pending      int                  `json:"pending"`
	Decided      int                  `json:"decided"`
	OnTrack      int                  `json:"on_track"`
	Overdue      int                  `json:"overdue"`
	ByEntityType map[string]SlaCounts `json:"by_entity_type"`
}

// AggregateSla computes SLA statistics over a set of approvals. ByEntityType
// groups pending counts by the owning record's kind; approvals whose record
// was not preloaded group under UNKNOWN.
func AggregateSla(approvals []model.Approval, asOf time.Time) SlaSummary {
	summary := SlaSummary{
		Total:        len(approvals),
		ByEntityType: make(map[string]SlaCounts),
	}

	for _, approval := range approvals {
		if approval.Status != model.ApprovalPending {
			summary.Decided++
			continue
		}
		summary.Pending++

		kind := "UNKNOWN"
		if approval.Record != nil {
			kind = approval.Record.Kind
		}
		counts := summary.ByEntityType[kind]

		if ClassifySla(approval, asOf) == SlaOverdue {
			summary.Overdue++
			counts.Overdue++
		} else {
			summary.OnTrack++
			counts.OnTrack++
		}
		summary.ByEntityType[kind] = counts
	}

	return summary
}
