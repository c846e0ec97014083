package service_test

import (
	"context"
	"testing"

	"backend/internal/engine"
	"backend/internal/model"
	"backend/internal/service"
	ws "backend/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type evaluationFixture struct {
	svc            service.EvaluationService
	recordRepo     *mockRecordRepo
	submissionRepo *mockSubmissionRepo
	vendorRepo     *mockVendorRepo
	auditRepo      *mockAuditRepo
	rfq            *model.ProcurementRecord
}

func newEvaluationFixture(rfqStatus string) *evaluationFixture {
	recordRepo := newMockRecordRepo()
	submissionRepo := &mockSubmissionRepo{}
	vendorRepo := newMockVendorRepo()
	auditRepo := &mockAuditRepo{}

	rfq := &model.ProcurementRecord{
		Kind:    model.KindRFQ,
		Status:  rfqStatus,
		Title:   "RFQ steel supply",
		Version: 1,
	}
	recordRepo.add(rfq)

	return &evaluationFixture{
		svc:            service.NewEvaluationService(submissionRepo, recordRepo, vendorRepo, auditRepo, &mockTxManager{}, ws.NewHub()),
		recordRepo:     recordRepo,
		submissionRepo: submissionRepo,
		vendorRepo:     vendorRepo,
		auditRepo:      auditRepo,
		rfq:            rfq,
	}
}

func (f *evaluationFixture) addVendor() *model.Vendor {
	vendor := &model.Vendor{Name: "Vendor", VendorType: model.VendorTypeSupplier, IsActive: true}
	_ = f.vendorRepo.Create(context.Background(), vendor)
	return vendor
}

func (f *evaluationFixture) addScoredSubmission(price string, technical string, flag string) model.Submission {
	score := decimal.RequireFromString(technical)
	sub := model.Submission{
		RFQID:          f.rfq.ID,
		VendorID:       uuid.New(),
		ProposedAmount: decimal.RequireFromString(price),
		TechnicalScore: &score,
		ComplianceFlag: flag,
		Status:         model.SubmissionUnderReview,
	}
	_ = f.submissionRepo.Create(context.Background(), &sub)
	return f.submissionRepo.submissions[len(f.submissionRepo.submissions)-1]
}

func TestCreateSubmission(t *testing.T) {
	f := newEvaluationFixture(model.StatusOpen)
	vendor := f.addVendor()

	sub, err := f.svc.CreateSubmission(context.Background(), uuid.New(), f.rfq.ID.String(), service.CreateSubmissionRequest{
		VendorID:         vendor.ID.String(),
		ProposedAmount:   "125000.50",
		DeliveryTimeDays: 45,
	})
	require.NoError(t, err)
	require.Equal(t, model.SubmissionSubmitted, sub.Status)
	require.Equal(t, model.ComplianceYes, sub.ComplianceFlag)
	require.Len(t, f.auditRepo.entries, 1)
}

func TestCreateSubmissionRejectsDuplicateVendor(t *testing.T) {
	f := newEvaluationFixture(model.StatusOpen)
	vendor := f.addVendor()

	req := service.CreateSubmissionRequest{VendorID: vendor.ID.String(), ProposedAmount: "100000"}
	_, err := f.svc.CreateSubmission(context.Background(), uuid.New(), f.rfq.ID.String(), req)
	require.NoError(t, err)

	_, err = f.svc.CreateSubmission(context.Background(), uuid.New(), f.rfq.ID.String(), req)
	require.ErrorIs(t, err, service.ErrDuplicateSubmission)
}

func TestCreateSubmissionRejectsClosedRFQ(t *testing.T) {
	f := newEvaluationFixture(model.StatusDraft)
	vendor := f.addVendor()

	_, err := f.svc.CreateSubmission(context.Background(), uuid.New(), f.rfq.ID.String(), service.CreateSubmissionRequest{
		VendorID:       vendor.ID.String(),
		ProposedAmount: "100000",
	})
	require.ErrorIs(t, err, service.ErrRFQNotOpen)
}

func TestCreateSubmissionRejectsNonRFQRecord(t *testing.T) {
	f := newEvaluationFixture(model.StatusOpen)
	vendor := f.addVendor()

	contract := &model.ProcurementRecord{Kind: model.KindContract, Status: model.StatusActive, Version: 1}
	f.recordRepo.add(contract)

	_, err := f.svc.CreateSubmission(context.Background(), uuid.New(), contract.ID.String(), service.CreateSubmissionRequest{
		VendorID:       vendor.ID.String(),
		ProposedAmount: "100000",
	})
	require.ErrorIs(t, err, service.ErrNotRFQ)
}

func TestScoreSubmission(t *testing.T) {
	f := newEvaluationFixture(model.StatusOpen)
	sub := f.addScoredSubmission("100000", "0", model.ComplianceYes)

	scored, err := f.svc.ScoreSubmission(context.Background(), uuid.New(), sub.ID.String(), service.ScoreSubmissionRequest{
		TechnicalScore: "88.5",
		ComplianceFlag: model.CompliancePartial,
	})
	require.NoError(t, err)
	require.Equal(t, model.SubmissionUnderReview, scored.Status)
	require.NotNil(t, scored.TechnicalScore)
	require.Equal(t, "88.50", *scored.TechnicalScore)
	require.Equal(t, model.CompliancePartial, scored.ComplianceFlag)
}

func TestScoreSubmissionRejectsOutOfRange(t *testing.T) {
	f := newEvaluationFixture(model.StatusOpen)
	sub := f.addScoredSubmission("100000", "0", model.ComplianceYes)

	for _, score := range []string{"-1", "100.01", "abc"} {
		_, err := f.svc.ScoreSubmission(context.Background(), uuid.New(), sub.ID.String(), service.ScoreSubmissionRequest{
			TechnicalScore: score,
			ComplianceFlag: model.ComplianceYes,
		})
		require.Error(t, err, "score %s should be rejected", score)
	}
}

func TestEvaluateRanksByWeightedTotal(t *testing.T) {
	f := newEvaluationFixture(model.StatusOpen)
	strong := f.addScoredSubmission("100000", "90", model.ComplianceYes)
	cheap := f.addScoredSubmission("80000", "80", model.ComplianceYes)

	result, err := f.svc.Evaluate(context.Background(), f.rfq.ID.String(), service.EvaluateRequest{
		TechnicalWeight:  "70",
		CommercialWeight: "30",
	})
	require.NoError(t, err)
	require.Len(t, result.Ranked, 2)

	// strong: technical 90, commercial 100*80000/100000 = 80 -> 87.00
	// cheap:  technical 80, commercial 100            -> 86.00
	require.Equal(t, strong.ID.String(), result.Ranked[0].ID)
	require.Equal(t, "87.00", result.Ranked[0].TotalScore)
	require.Equal(t, cheap.ID.String(), result.Ranked[1].ID)
	require.Equal(t, "86.00", result.Ranked[1].TotalScore)
}

func TestEvaluateRecommendsTopRankedSubmission(t *testing.T) {
	f := newEvaluationFixture(model.StatusOpen)
	strong := f.addScoredSubmission("100000", "90", model.ComplianceYes)
	cheap := f.addScoredSubmission("80000", "80", model.ComplianceYes)

	result, err := f.svc.Evaluate(context.Background(), f.rfq.ID.String(), service.EvaluateRequest{
		TechnicalWeight:  "70",
		CommercialWeight: "30",
	})
	require.NoError(t, err)
	require.Equal(t, strong.ID.String(), result.Ranked[0].ID)
	require.Equal(t, model.SubmissionRecommended, result.Ranked[0].Status)

	stored, err := f.submissionRepo.FindByID(context.Background(), strong.ID)
	require.NoError(t, err)
	require.Equal(t, model.SubmissionRecommended, stored.Status)

	// Commercial-heavy weights flip the ranking; the marker moves with it.
	result, err = f.svc.Evaluate(context.Background(), f.rfq.ID.String(), service.EvaluateRequest{
		TechnicalWeight:  "10",
		CommercialWeight: "90",
	})
	require.NoError(t, err)
	require.Equal(t, cheap.ID.String(), result.Ranked[0].ID)

	demoted, err := f.submissionRepo.FindByID(context.Background(), strong.ID)
	require.NoError(t, err)
	require.Equal(t, model.SubmissionUnderReview, demoted.Status)

	promoted, err := f.submissionRepo.FindByID(context.Background(), cheap.ID)
	require.NoError(t, err)
	require.Equal(t, model.SubmissionRecommended, promoted.Status)
}

func TestEvaluateRejectsBadWeights(t *testing.T) {
	f := newEvaluationFixture(model.StatusOpen)
	f.addScoredSubmission("100000", "90", model.ComplianceYes)

	_, err := f.svc.Evaluate(context.Background(), f.rfq.ID.String(), service.EvaluateRequest{
		TechnicalWeight:  "70",
		CommercialWeight: "40",
	})
	require.ErrorIs(t, err, engine.ErrInvalidWeights)
}

func TestAwardSettlesEverySubmission(t *testing.T) {
	f := newEvaluationFixture(model.StatusOpen)
	winner := f.addScoredSubmission("80000", "85", model.ComplianceYes)
	loser := f.addScoredSubmission("90000", "70", model.ComplianceYes)

	awarded, err := f.svc.Award(context.Background(), uuid.New(), f.rfq.ID.String(), winner.ID.String())
	require.NoError(t, err)
	require.Equal(t, model.SubmissionAwarded, awarded.Status)

	rfq, err := f.recordRepo.FindByID(context.Background(), f.rfq.ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusAwarded, rfq.Status)
	require.Equal(t, 2, rfq.Version)

	settled, err := f.submissionRepo.FindByID(context.Background(), loser.ID)
	require.NoError(t, err)
	require.Equal(t, model.SubmissionRejected, settled.Status)
}

func TestAwardRejectsDisqualifiedSubmission(t *testing.T) {
	f := newEvaluationFixture(model.StatusOpen)
	disqualified := f.addScoredSubmission("80000", "85", model.ComplianceNo)

	_, err := f.svc.Award(context.Background(), uuid.New(), f.rfq.ID.String(), disqualified.ID.String())
	require.ErrorIs(t, err, engine.ErrNotAwardable)
}

func TestAwardRejectsSecondAward(t *testing.T) {
	f := newEvaluationFixture(model.StatusOpen)
	winner := f.addScoredSubmission("80000", "85", model.ComplianceYes)
	other := f.addScoredSubmission("90000", "70", model.ComplianceYes)

	_, err := f.svc.Award(context.Background(), uuid.New(), f.rfq.ID.String(), winner.ID.String())
	require.NoError(t, err)

	// The RFQ moved to AWARDED, so the second attempt is an already-awarded
	// failure, not a generic status rejection.
	_, err = f.svc.Award(context.Background(), uuid.New(), f.rfq.ID.String(), other.ID.String())
	require.ErrorIs(t, err, engine.ErrAlreadyAwarded)
}
