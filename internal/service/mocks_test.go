package service_test

import (
	"context"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
)

// mockTxManager runs the function directly, no transaction semantics.
type mockTxManager struct{}

func (m *mockTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// mockRecordRepo implements repository.RecordRepository
type mockRecordRepo struct {
	records         map[uuid.UUID]*model.ProcurementRecord
	history         []model.StatusHistory
	updateStatusErr error

	UpdateStatusVersionedFunc func(ctx context.Context, id uuid.UUID, status string, expectedVersion int) error
}

func newMockRecordRepo() *mockRecordRepo {
	return &mockRecordRepo{records: make(map[uuid.UUID]*model.ProcurementRecord)}
}

func (m *mockRecordRepo) add(record *model.ProcurementRecord) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	m.records[record.ID] = record
}

func (m *mockRecordRepo) Create(ctx context.Context, record *model.ProcurementRecord) error {
	m.add(record)
	return nil
}

func (m *mockRecordRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ProcurementRecord, error) {
	record, ok := m.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *record
	return &copied, nil
}

func (m *mockRecordRepo) FindByIDWithHistory(ctx context.Context, id uuid.UUID) (*model.ProcurementRecord, error) {
	record, err := m.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, entry := range m.history {
		if entry.RecordID == id {
			record.History = append(record.History, entry)
		}
	}
	return record, nil
}

func (m *mockRecordRepo) List(ctx context.Context, filter repository.RecordListFilter) ([]model.ProcurementRecord, int64, error) {
	var out []model.ProcurementRecord
	for _, record := range m.records {
		if filter.Kind != "" && record.Kind != filter.Kind {
			continue
		}
		if filter.Status != "" && record.Status != filter.Status {
			continue
		}
		out = append(out, *record)
	}
	return out, int64(len(out)), nil
}

func (m *mockRecordRepo) UpdateStatusVersioned(ctx context.Context, id uuid.UUID, status string, expectedVersion int) error {
	if m.UpdateStatusVersionedFunc != nil {
		return m.UpdateStatusVersionedFunc(ctx, id, status, expectedVersion)
	}
	if m.updateStatusErr != nil {
		return m.updateStatusErr
	}
	record, ok := m.records[id]
	if !ok {
		return repository.ErrNotFound
	}
	if record.Version != expectedVersion {
		return repository.ErrStaleWrite
	}
	record.Status = status
	record.Version = expectedVersion + 1
	return nil
}

func (m *mockRecordRepo) AppendHistory(ctx context.Context, entry *model.StatusHistory) error {
	m.history = append(m.history, *entry)
	return nil
}

// mockSubmissionRepo implements repository.SubmissionRepository
type mockSubmissionRepo struct {
	submissions []model.Submission
}

func (m *mockSubmissionRepo) Create(ctx context.Context, submission *model.Submission) error {
	if submission.ID == uuid.Nil {
		submission.ID = uuid.New()
	}
	m.submissions = append(m.submissions, *submission)
	return nil
}

func (m *mockSubmissionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Submission, error) {
	for i := range m.submissions {
		if m.submissions[i].ID == id {
			copied := m.submissions[i]
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockSubmissionRepo) FindByRFQAndVendor(ctx context.Context, rfqID, vendorID uuid.UUID) (*model.Submission, error) {
	for i := range m.submissions {
		if m.submissions[i].RFQID == rfqID && m.submissions[i].VendorID == vendorID {
			copied := m.submissions[i]
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockSubmissionRepo) ListByRFQ(ctx context.Context, rfqID uuid.UUID) ([]model.Submission, error) {
	var out []model.Submission
	for _, sub := range m.submissions {
		if sub.RFQID == rfqID {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (m *mockSubmissionRepo) Update(ctx context.Context, submission *model.Submission) error {
	for i := range m.submissions {
		if m.submissions[i].ID == submission.ID {
			m.submissions[i] = *submission
			return nil
		}
	}
	return repository.ErrNotFound
}

// mockVendorRepo implements repository.VendorRepository
type mockVendorRepo struct {
	vendors   map[uuid.UUID]*model.Vendor
	documents []model.VendorDocument
}

func newMockVendorRepo() *mockVendorRepo {
	return &mockVendorRepo{vendors: make(map[uuid.UUID]*model.Vendor)}
}

func (m *mockVendorRepo) Create(ctx context.Context, vendor *model.Vendor) error {
	if vendor.ID == uuid.Nil {
		vendor.ID = uuid.New()
	}
	m.vendors[vendor.ID] = vendor
	return nil
}

func (m *mockVendorRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Vendor, error) {
	vendor, ok := m.vendors[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *vendor
	return &copied, nil
}

func (m *mockVendorRepo) List(ctx context.Context, vendorType string, page, limit int) ([]model.Vendor, int64, error) {
	var out []model.Vendor
	for _, vendor := range m.vendors {
		if vendorType != "" && vendor.VendorType != vendorType {
			continue
		}
		out = append(out, *vendor)
	}
	return out, int64(len(out)), nil
}

func (m *mockVendorRepo) AppendDocument(ctx context.Context, doc *model.VendorDocument) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	m.documents = append(m.documents, *doc)
	return nil
}

func (m *mockVendorRepo) LatestDocumentVersion(ctx context.Context, vendorID uuid.UUID, docType string) (int, error) {
	latest := 0
	for _, doc := range m.documents {
		if doc.VendorID == vendorID && doc.DocType == docType && doc.Version > latest {
			latest = doc.Version
		}
	}
	return latest, nil
}

func (m *mockVendorRepo) ListDocuments(ctx context.Context, vendorID uuid.UUID) ([]model.VendorDocument, error) {
	var out []model.VendorDocument
	for _, doc := range m.documents {
		if doc.VendorID == vendorID {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (m *mockVendorRepo) ListDocumentVersions(ctx context.Context, vendorID uuid.UUID, docType string) ([]model.VendorDocument, error) {
	var out []model.VendorDocument
	for _, doc := range m.documents {
		if doc.VendorID == vendorID && doc.DocType == docType {
			out = append(out, doc)
		}
	}
	return out, nil
}

// mockIpcRepo implements repository.IpcRepository
type mockIpcRepo struct {
	ipcs []model.IpcRecord
}

func (m *mockIpcRepo) Create(ctx context.Context, ipc *model.IpcRecord) error {
	if ipc.ID == uuid.Nil {
		ipc.ID = uuid.New()
	}
	m.ipcs = append(m.ipcs, *ipc)
	return nil
}

func (m *mockIpcRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.IpcRecord, error) {
	for i := range m.ipcs {
		if m.ipcs[i].ID == id {
			copied := m.ipcs[i]
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockIpcRepo) ListByContract(ctx context.Context, contractID uuid.UUID) ([]model.IpcRecord, error) {
	var out []model.IpcRecord
	for _, ipc := range m.ipcs {
		if ipc.ContractID == contractID {
			out = append(out, ipc)
		}
	}
	return out, nil
}

func (m *mockIpcRepo) NextSequence(ctx context.Context, contractID uuid.UUID) (int, error) {
	max := 0
	for _, ipc := range m.ipcs {
		if ipc.ContractID == contractID && ipc.Sequence > max {
			max = ipc.Sequence
		}
	}
	return max + 1, nil
}

// mockApprovalRepo implements repository.ApprovalRepository
type mockApprovalRepo struct {
	approvals map[uuid.UUID]*model.Approval
}

func newMockApprovalRepo() *mockApprovalRepo {
	return &mockApprovalRepo{approvals: make(map[uuid.UUID]*model.Approval)}
}

func (m *mockApprovalRepo) Create(ctx context.Context, approval *model.Approval) error {
	if approval.ID == uuid.Nil {
		approval.ID = uuid.New()
	}
	m.approvals[approval.ID] = approval
	return nil
}

func (m *mockApprovalRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Approval, error) {
	approval, ok := m.approvals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *approval
	return &copied, nil
}

func (m *mockApprovalRepo) List(ctx context.Context, status string, page, limit int) ([]model.Approval, int64, error) {
	approvals := m.filtered(status)
	return approvals, int64(len(approvals)), nil
}

func (m *mockApprovalRepo) ListByRecord(ctx context.Context, recordID uuid.UUID) ([]model.Approval, error) {
	var out []model.Approval
	for _, approval := range m.approvals {
		if approval.RecordID == recordID {
			out = append(out, *approval)
		}
	}
	return out, nil
}

func (m *mockApprovalRepo) ListWithRecords(ctx context.Context, status string) ([]model.Approval, error) {
	return m.filtered(status), nil
}

func (m *mockApprovalRepo) Update(ctx context.Context, approval *model.Approval) error {
	if _, ok := m.approvals[approval.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *approval
	m.approvals[approval.ID] = &copied
	return nil
}

func (m *mockApprovalRepo) filtered(status string) []model.Approval {
	var out []model.Approval
	for _, approval := range m.approvals {
		if status == "" || approval.Status == status {
			out = append(out, *approval)
		}
	}
	return out
}

// mockUserRepo implements repository.UserRepository
type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	m.users[user.ID.String()] = user
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	for _, user := range m.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepo) List(ctx context.Context, page, limit int) ([]model.User, int64, error) {
	var out []model.User
	for _, user := range m.users {
		out = append(out, *user)
	}
	return out, int64(len(out)), nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *model.User) error {
	m.users[user.ID.String()] = user
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	delete(m.users, id)
	return nil
}

// mockAuditRepo implements repository.AuditRepository
type mockAuditRepo struct {
	entries []model.AuditLog

	LogFunc func(ctx context.Context, entry *model.AuditLog) error
}

func (m *mockAuditRepo) Log(ctx context.Context, entry *model.AuditLog) error {
	if m.LogFunc != nil {
		if err := m.LogFunc(ctx, entry); err != nil {
			return err
		}
	}
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockAuditRepo) List(ctx context.Context, action string, page, limit int) ([]model.AuditLog, int64, error) {
	if action == "" {
		return m.entries, int64(len(m.entries)), nil
	}
	var out []model.AuditLog
	for _, entry := range m.entries {
		if entry.Action == action {
			out = append(out, entry)
		}
	}
	return out, int64(len(out)), nil
}
