package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"backend/internal/engine"
	"backend/internal/model"
	"backend/internal/service"
	ws "backend/internal/websocket"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type slaFixture struct {
	svc          service.SlaService
	approvalRepo *mockApprovalRepo
	recordRepo   *mockRecordRepo
	userRepo     *mockUserRepo
	auditRepo    *mockAuditRepo
}

func newSlaFixture() *slaFixture {
	f := &slaFixture{
		approvalRepo: newMockApprovalRepo(),
		recordRepo:   newMockRecordRepo(),
		userRepo:     newMockUserRepo(),
		auditRepo:    &mockAuditRepo{},
	}
	f.svc = service.NewSlaService(f.approvalRepo, f.recordRepo, f.userRepo, f.auditRepo, &mockTxManager{}, ws.NewHub())
	return f
}

func (f *slaFixture) addRecord(kind, status string) *model.ProcurementRecord {
	record := &model.ProcurementRecord{
		Kind:   kind,
		Status: status,
		Title:  "Steel supply package",
	}
	f.recordRepo.add(record)
	return record
}

func (f *slaFixture) addUser(username string) *model.User {
	user := &model.User{Username: username, Email: username + "@site.local"}
	_ = f.userRepo.Create(context.Background(), user)
	return user
}

func (f *slaFixture) createApproval(t *testing.T, deadline time.Time) service.ApprovalResponse {
	t.Helper()
	record := f.addRecord(model.KindPurchaseRequest, model.StatusSubmitted)
	assignee := f.addUser("reviewer")

	approval, err := f.svc.CreateApproval(context.Background(), uuid.New(), service.CreateApprovalRequest{
		RecordID:    record.ID.String(),
		AssigneeID:  assignee.ID.String(),
		SlaDeadline: deadline.Format(time.RFC3339),
	})
	require.NoError(t, err)
	return approval
}

// seedApproval inserts an approval directly, bypassing the future-deadline
// guard, so dashboards can be tested against already-overdue rows.
func (f *slaFixture) seedApproval(record *model.ProcurementRecord, status string, deadline time.Time) *model.Approval {
	approval := &model.Approval{
		RecordID:    record.ID,
		Record:      record,
		AssigneeID:  uuid.New(),
		SlaDeadline: deadline,
		Status:      status,
	}
	_ = f.approvalRepo.Create(context.Background(), approval)
	return approval
}

func TestCreateApprovalStartsPendingOnTrack(t *testing.T) {
	f := newSlaFixture()

	approval := f.createApproval(t, time.Now().Add(48*time.Hour))

	require.Equal(t, model.ApprovalPending, approval.Status)
	require.Equal(t, engine.SlaOnTrack, approval.SlaStatus)
	require.Equal(t, "Steel supply package", approval.RecordTitle)

	require.Len(t, f.auditRepo.entries, 1)
	require.Equal(t, model.ActionCreateApproval, f.auditRepo.entries[0].Action)
}

func TestCreateApprovalRejectsPastDeadline(t *testing.T) {
	f := newSlaFixture()
	record := f.addRecord(model.KindPurchaseRequest, model.StatusSubmitted)
	assignee := f.addUser("reviewer")

	_, err := f.svc.CreateApproval(context.Background(), uuid.New(), service.CreateApprovalRequest{
		RecordID:    record.ID.String(),
		AssigneeID:  assignee.ID.String(),
		SlaDeadline: time.Now().Add(-time.Hour).Format(time.RFC3339),
	})
	require.Error(t, err)
}

func TestCreateApprovalRejectsUnknownAssignee(t *testing.T) {
	f := newSlaFixture()
	record := f.addRecord(model.KindPurchaseRequest, model.StatusSubmitted)

	_, err := f.svc.CreateApproval(context.Background(), uuid.New(), service.CreateApprovalRequest{
		RecordID:    record.ID.String(),
		AssigneeID:  uuid.NewString(),
		SlaDeadline: time.Now().Add(48 * time.Hour).Format(time.RFC3339),
	})
	require.Error(t, err)
}

func TestDecideFreezesApproval(t *testing.T) {
	f := newSlaFixture()
	approval := f.createApproval(t, time.Now().Add(48*time.Hour))
	decider := uuid.New()

	decided, err := f.svc.Decide(context.Background(), decider, approval.ID, service.DecideApprovalRequest{
		Decision: model.ApprovalApproved,
		Comment:  "looks complete",
	})
	require.NoError(t, err)
	require.Equal(t, model.ApprovalApproved, decided.Status)
	require.Equal(t, decider.String(), decided.DecidedBy)
	require.NotEmpty(t, decided.DecidedAt)

	// Decided approvals are immutable.
	_, err = f.svc.Decide(context.Background(), decider, approval.ID, service.DecideApprovalRequest{
		Decision: model.ApprovalRejected,
	})
	require.ErrorIs(t, err, service.ErrApprovalDecided)
}

func TestExtendSlaRequiresLaterDeadline(t *testing.T) {
	f := newSlaFixture()
	deadline := time.Now().Add(48 * time.Hour)
	approval := f.createApproval(t, deadline)
	actor := uuid.New()

	_, err := f.svc.ExtendSla(context.Background(), actor, approval.ID, service.ExtendSlaRequest{
		NewDeadline: deadline.Add(-time.Hour).Format(time.RFC3339),
		Reason:      "vendor asked for more time",
	})
	require.ErrorIs(t, err, service.ErrDeadlineNotLater)

	extended, err := f.svc.ExtendSla(context.Background(), actor, approval.ID, service.ExtendSlaRequest{
		NewDeadline: deadline.Add(72 * time.Hour).Format(time.RFC3339),
		Reason:      "vendor asked for more time",
	})
	require.NoError(t, err)
	require.Equal(t, engine.SlaOnTrack, extended.SlaStatus)

	require.Len(t, f.auditRepo.entries, 2)
	last := f.auditRepo.entries[1]
	require.Equal(t, model.ActionExtendSla, last.Action)
	require.Contains(t, last.Details, "vendor asked for more time")
	require.Contains(t, last.Details, "old_deadline")
}

func TestExtendSlaRejectsDecidedApproval(t *testing.T) {
	f := newSlaFixture()
	approval := f.createApproval(t, time.Now().Add(48*time.Hour))

	_, err := f.svc.Decide(context.Background(), uuid.New(), approval.ID, service.DecideApprovalRequest{
		Decision: model.ApprovalRejected,
	})
	require.NoError(t, err)

	_, err = f.svc.ExtendSla(context.Background(), uuid.New(), approval.ID, service.ExtendSlaRequest{
		NewDeadline: time.Now().Add(96 * time.Hour).Format(time.RFC3339),
		Reason:      "late request",
	})
	require.ErrorIs(t, err, service.ErrApprovalDecided)
}

func TestDashboardBucketsByKindAndDeadline(t *testing.T) {
	f := newSlaFixture()
	pr := f.addRecord(model.KindPurchaseRequest, model.StatusSubmitted)
	ipc := f.addRecord(model.KindIPC, model.StatusSubmitted)

	// One overdue PR approval, one on-track per kind, one already decided.
	f.seedApproval(pr, model.ApprovalPending, time.Now().Add(-time.Hour))
	f.seedApproval(pr, model.ApprovalPending, time.Now().Add(48*time.Hour))
	f.seedApproval(ipc, model.ApprovalPending, time.Now().Add(24*time.Hour))
	f.seedApproval(ipc, model.ApprovalApproved, time.Now().Add(-72*time.Hour))

	summary, err := f.svc.Dashboard(context.Background())
	require.NoError(t, err)

	require.Equal(t, 4, summary.Total)
	require.Equal(t, 3, summary.Pending)
	require.Equal(t, 1, summary.Decided)
	require.Equal(t, 1, summary.Overdue)
	require.Equal(t, 2, summary.OnTrack)
	require.Equal(t, engine.SlaCounts{OnTrack: 1, Overdue: 1}, summary.ByEntityType[model.KindPurchaseRequest])
	require.Equal(t, engine.SlaCounts{OnTrack: 1}, summary.ByEntityType[model.KindIPC])
}

func TestSendRemindersCoversPendingOnly(t *testing.T) {
	f := newSlaFixture()
	record := f.addRecord(model.KindPurchaseRequest, model.StatusSubmitted)

	overdue := f.seedApproval(record, model.ApprovalPending, time.Now().Add(-time.Hour))
	f.seedApproval(record, model.ApprovalPending, time.Now().Add(48*time.Hour))
	f.seedApproval(record, model.ApprovalApproved, time.Now().Add(-time.Hour))

	batch, err := f.svc.SendReminders(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Len(t, batch.Reminders, 2)

	overdueFlags := make(map[string]bool, len(batch.Reminders))
	for _, reminder := range batch.Reminders {
		overdueFlags[reminder.ApprovalID] = reminder.Overdue
	}
	require.True(t, overdueFlags[overdue.ID.String()])

	require.Len(t, f.auditRepo.entries, 2)
	require.Equal(t, model.ActionSendReminder, f.auditRepo.entries[0].Action)
}

func TestSendRemindersSurvivesFailedAuditWrite(t *testing.T) {
	f := newSlaFixture()
	record := f.addRecord(model.KindPurchaseRequest, model.StatusSubmitted)

	bad := f.seedApproval(record, model.ApprovalPending, time.Now().Add(-time.Hour))
	f.seedApproval(record, model.ApprovalPending, time.Now().Add(24*time.Hour))
	f.seedApproval(record, model.ApprovalPending, time.Now().Add(48*time.Hour))

	f.auditRepo.LogFunc = func(ctx context.Context, entry *model.AuditLog) error {
		if entry.EntityID == bad.ID.String() {
			return errors.New("insert failed")
		}
		return nil
	}

	batch, err := f.svc.SendReminders(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Len(t, batch.Reminders, 3)

	sent := 0
	for _, reminder := range batch.Reminders {
		if reminder.ApprovalID == bad.ID.String() {
			require.False(t, reminder.Sent)
			require.Contains(t, reminder.Error, "insert failed")
			continue
		}
		require.True(t, reminder.Sent)
		require.Empty(t, reminder.Error)
		sent++
	}
	require.Equal(t, 2, sent)
	require.Len(t, f.auditRepo.entries, 2)
}
