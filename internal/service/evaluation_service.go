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
	ErrDuplicateSubmission = errors.New("vendor already submitted for this rfq")
	ErrRFQNotOpen          = errors.New("rfq is not accepting submissions")
	ErrNotRFQ              = errors.New("record is not an rfq")
)

// --- DTOs ---

type CreateSubmissionRequest struct {
	VendorID         string `json:"vendor_id" binding:"required,uuid"`
	ProposedAmount   string `json:"proposed_amount" binding:"required"`
	DeliveryTimeDays int    `json:"delivery_time_days" binding:"gte=0"`
	PaymentTerms     string `json:"payment_terms"`
}

type ScoreSubmissionRequest struct {
	TechnicalScore string `json:"technical_score" binding:"required"`
	ComplianceFlag string `json:"compliance_flag" binding:"required,oneof=YES PARTIAL NO"`
}

type EvaluateRequest struct {
	TechnicalWeight  string `json:"technical_weight" binding:"required"`
	CommercialWeight string `json:"commercial_weight" binding:"required"`
}

type SubmissionResponse struct {
	ID               string  `json:"id"`
	RFQID            string  `json:"rfq_id"`
	VendorID         string  `json:"vendor_id"`
	VendorName       string  `json:"vendor_name,omitempty"`
	ProposedAmount   string  `json:"proposed_amount"`
	DeliveryTimeDays int     `json:"delivery_time_days"`
	PaymentTerms     string  `json:"payment_terms,omitempty"`
	TechnicalScore   *string `json:"technical_score,omitempty"`
	ComplianceFlag   string  `json:"compliance_flag"`
	Status           string  `json:"status"`
	CreatedAt        string  `json:"created_at"`
}

type RankedSubmissionResponse struct {
	SubmissionResponse
	Rank              int    `json:"rank"`
	CommercialScore   string `json:"commercial_score"`
	TotalScore        string `json:"total_score"`
	Disqualified      bool   `json:"disqualified"`
	NeedsConfirmation bool   `json:"needs_confirmation"`
}

type EvaluationResponse struct {
	RFQID            string                     `json:"rfq_id"`
	TechnicalWeight  string                     `json:"technical_weight"`
	CommercialWeight string                     `json:"commercial_weight"`
	Ranked           []RankedSubmissionResponse `json:"ranked"`
}

// --- Interface ---

// EvaluationService manages RFQ submissions from intake through scoring to
// award. Awarding is a single transaction: the winning submission flips to
// AWARDED, every other open one to REJECTED, and the RFQ record itself
// transitions through the lifecycle machinery with its version check.
type EvaluationService interface {
	CreateSubmission(ctx context.Context, actor uuid.UUID, rfqID string, req CreateSubmissionRequest) (SubmissionResponse, error)
	ScoreSubmission(ctx context.Context, actor uuid.UUID, submissionID string, req ScoreSubmissionRequest) (SubmissionResponse, error)
	ListSubmissions(ctx context.Context, rfqID string) ([]SubmissionResponse, error)
	Evaluate(ctx context.Context, rfqID string, req EvaluateRequest) (EvaluationResponse, error)
	Award(ctx context.Context, actor uuid.UUID, rfqID, submissionID string) (SubmissionResponse, error)
}

type evaluationService struct {
	submissionRepo repository.SubmissionRepository
	recordRepo     repository.RecordRepository
	vendorRepo     repository.VendorRepository
	auditRepo      repository.AuditRepository
	txManager      repository.TransactionManager
	hub            *ws.Hub
	now            func() time.Time
}

func NewEvaluationService(
	submissionRepo repository.SubmissionRepository,
	recordRepo repository.RecordRepository,
	vendorRepo repository.VendorRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) EvaluationService {
	return &evaluationService{
		submissionRepo: submissionRepo,
		recordRepo:     recordRepo,
		vendorRepo:     vendorRepo,
		auditRepo:      auditRepo,
		txManager:      txManager,
		hub:            hub,
		now:            time.Now,
	}
}

// --- Implementation ---

func (s *evaluationService) CreateSubmission(ctx context.Context, actor uuid.UUID, rfqID string, req CreateSubmissionRequest) (SubmissionResponse, error) {
	rfq, err := s.loadRFQ(ctx, rfqID)
	if err != nil {
		return SubmissionResponse{}, err
	}
	if rfq.Status != model.StatusIssued && rfq.Status != model.StatusOpen {
		return SubmissionResponse{}, fmt.Errorf("%w: status is %s", ErrRFQNotOpen, rfq.Status)
	}

	vendorID, err := uuid.Parse(req.VendorID)
	if err != nil {
		return SubmissionResponse{}, fmt.Errorf("invalid vendor id: %w", err)
	}
	if _, err := s.vendorRepo.FindByID(ctx, vendorID); err != nil {
		return SubmissionResponse{}, fmt.Errorf("vendor not found: %w", err)
	}

	amount, err := decimal.NewFromString(req.ProposedAmount)
	if err != nil || !amount.IsPositive() {
		return SubmissionResponse{}, fmt.Errorf("invalid proposed amount: %s", req.ProposedAmount)
	}

	if _, err := s.submissionRepo.FindByRFQAndVendor(ctx, rfq.ID, vendorID); err == nil {
		return SubmissionResponse{}, ErrDuplicateSubmission
	} else if !errors.Is(err, repository.ErrNotFound) {
		return SubmissionResponse{}, err
	}

	submission := model.Submission{
		RFQID:            rfq.ID,
		VendorID:         vendorID,
		ProposedAmount:   amount,
		DeliveryTimeDays: req.DeliveryTimeDays,
		PaymentTerms:     req.PaymentTerms,
		ComplianceFlag:   model.ComplianceYes,
		Status:           model.SubmissionSubmitted,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.submissionRepo.Create(txCtx, &submission); err != nil {
			return fmt.Errorf("failed to create submission: %w", err)
		}
		return s.audit(txCtx, actor, model.ActionCreateSubmission, submission.ID.String(), rfq.Title, map[string]interface{}{
			"rfq_id":          rfq.ID.String(),
			"vendor_id":       vendorID.String(),
			"proposed_amount": amount.String(),
		})
	})
	if err != nil {
		return SubmissionResponse{}, err
	}

	return toSubmissionResponse(submission), nil
}

func (s *evaluationService) ScoreSubmission(ctx context.Context, actor uuid.UUID, submissionID string, req ScoreSubmissionRequest) (SubmissionResponse, error) {
	id, err := uuid.Parse(submissionID)
	if err != nil {
		return SubmissionResponse{}, fmt.Errorf("invalid submission id: %w", err)
	}

	submission, err := s.submissionRepo.FindByID(ctx, id)
	if err != nil {
		return SubmissionResponse{}, fmt.Errorf("submission not found: %w", err)
	}
	if submission.Status == model.SubmissionAwarded || submission.Status == model.SubmissionRejected {
		return SubmissionResponse{}, fmt.Errorf("submission %s is already settled", submission.ID)
	}

	score, err := decimal.NewFromString(req.TechnicalScore)
	if err != nil || score.IsNegative() || score.GreaterThan(decimal.NewFromInt(100)) {
		return SubmissionResponse{}, fmt.Errorf("technical score must be between 0 and 100")
	}

	submission.TechnicalScore = &score
	submission.ComplianceFlag = req.ComplianceFlag
	submission.Status = model.SubmissionUnderReview

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.submissionRepo.Update(txCtx, submission); err != nil {
			return fmt.Errorf("failed to update submission: %w", err)
		}
		return s.audit(txCtx, actor, model.ActionScoreSubmission, submission.ID.String(), "", map[string]interface{}{
			"technical_score": score.String(),
			"compliance_flag": req.ComplianceFlag,
		})
	})
	if err != nil {
		return SubmissionResponse{}, err
	}

	return toSubmissionResponse(*submission), nil
}

func (s *evaluationService) ListSubmissions(ctx context.Context, rfqID string) ([]SubmissionResponse, error) {
	rfq, err := s.loadRFQ(ctx, rfqID)
	if err != nil {
		return nil, err
	}

	submissions, err := s.submissionRepo.ListByRFQ(ctx, rfq.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch submissions: %w", err)
	}

	result := make([]SubmissionResponse, 0, len(submissions))
	for _, sub := range submissions {
		result = append(result, toSubmissionResponse(sub))
	}
	return result, nil
}

// Evaluate computes the commercial and weighted totals for every submission
// of the RFQ and returns them ranked. Scores are re-derived on demand so a
// late submission or corrected technical score can never leave a stale
// ranking behind; the only thing persisted is the RECOMMENDED marker on the
// top-ranked rankable submission, moving with the ranking on re-evaluation.
func (s *evaluationService) Evaluate(ctx context.Context, rfqID string, req EvaluateRequest) (EvaluationResponse, error) {
	rfq, err := s.loadRFQ(ctx, rfqID)
	if err != nil {
		return EvaluationResponse{}, err
	}

	weights, err := parseWeights(req)
	if err != nil {
		return EvaluationResponse{}, err
	}

	submissions, err := s.submissionRepo.ListByRFQ(ctx, rfq.ID)
	if err != nil {
		return EvaluationResponse{}, fmt.Errorf("failed to fetch submissions: %w", err)
	}

	scored, err := engine.Evaluate(submissions, weights)
	if err != nil {
		return EvaluationResponse{}, err
	}
	ranked := engine.Rank(scored)

	if err := s.persistRecommendation(ctx, ranked); err != nil {
		return EvaluationResponse{}, err
	}

	resp := EvaluationResponse{
		RFQID:            rfq.ID.String(),
		TechnicalWeight:  weights.Technical.String(),
		CommercialWeight: weights.Commercial.String(),
		Ranked:           make([]RankedSubmissionResponse, 0, len(ranked)),
	}
	for i, item := range ranked {
		resp.Ranked = append(resp.Ranked, RankedSubmissionResponse{
			SubmissionResponse: toSubmissionResponse(item.Submission),
			Rank:               i + 1,
			CommercialScore:    item.CommercialScore.StringFixed(2),
			TotalScore:         item.TotalScore.StringFixed(2),
			Disqualified:       item.Disqualified,
			NeedsConfirmation:  item.NeedsConfirmation,
		})
	}
	return resp, nil
}

// persistRecommendation marks the top-ranked rankable submission RECOMMENDED
// and demotes any previously recommended sibling back to UNDER_REVIEW. The
// ranked slice is updated in place so responses reflect the stored statuses.
func (s *evaluationService) persistRecommendation(ctx context.Context, ranked []engine.ScoredSubmission) error {
	topID := uuid.Nil
	for _, item := range ranked {
		if !item.Disqualified {
			topID = item.Submission.ID
			break
		}
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for i := range ranked {
			sub := &ranked[i].Submission
			if sub.Status == model.SubmissionAwarded || sub.Status == model.SubmissionRejected {
				continue
			}

			want := sub.Status
			if sub.ID == topID {
				want = model.SubmissionRecommended
			} else if sub.Status == model.SubmissionRecommended {
				want = model.SubmissionUnderReview
			}
			if want == sub.Status {
				continue
			}

			sub.Status = want
			if err := s.submissionRepo.Update(txCtx, sub); err != nil {
				return fmt.Errorf("failed to update submission status: %w", err)
			}
		}
		return nil
	})
}

func (s *evaluationService) Award(ctx context.Context, actor uuid.UUID, rfqID, submissionID string) (SubmissionResponse, error) {
	rfq, err := s.loadRFQ(ctx, rfqID)
	if err != nil {
		return SubmissionResponse{}, err
	}

	winnerID, err := uuid.Parse(submissionID)
	if err != nil {
		return SubmissionResponse{}, fmt.Errorf("invalid submission id: %w", err)
	}

	submissions, err := s.submissionRepo.ListByRFQ(ctx, rfq.ID)
	if err != nil {
		return SubmissionResponse{}, fmt.Errorf("failed to fetch submissions: %w", err)
	}

	if err := engine.CheckAward(rfq.Status, submissions, winnerID); err != nil {
		return SubmissionResponse{}, err
	}

	updated, entry, err := engine.Transition(*rfq, model.StatusAwarded, actor, s.now())
	if err != nil {
		return SubmissionResponse{}, err
	}

	var winner model.Submission
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.recordRepo.UpdateStatusVersioned(txCtx, rfq.ID, updated.Status, rfq.Version); err != nil {
			return err
		}
		if err := s.recordRepo.AppendHistory(txCtx, &entry); err != nil {
			return fmt.Errorf("failed to append history: %w", err)
		}

		for i := range submissions {
			sub := submissions[i]
			if sub.ID == winnerID {
				sub.Status = model.SubmissionAwarded
				winner = sub
			} else {
				sub.Status = model.SubmissionRejected
			}
			if err := s.submissionRepo.Update(txCtx, &sub); err != nil {
				return fmt.Errorf("failed to update submission %s: %w", sub.ID, err)
			}
		}

		return s.audit(txCtx, actor, model.ActionAwardSubmission, winnerID.String(), rfq.Title, map[string]interface{}{
			"rfq_id":    rfq.ID.String(),
			"vendor_id": winner.VendorID.String(),
			"amount":    winner.ProposedAmount.String(),
		})
	})
	if err != nil {
		return SubmissionResponse{}, err
	}

	s.hub.Publish(ws.EventRFQAwarded, map[string]interface{}{
		"rfq_id":        rfq.ID.String(),
		"submission_id": winnerID.String(),
		"vendor_id":     winner.VendorID.String(),
		"amount":        winner.ProposedAmount.String(),
	})

	return toSubmissionResponse(winner), nil
}

func (s *evaluationService) loadRFQ(ctx context.Context, rfqID string) (*model.ProcurementRecord, error) {
	id, err := uuid.Parse(rfqID)
	if err != nil {
		return nil, fmt.Errorf("invalid rfq id: %w", err)
	}
	record, err := s.recordRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("rfq not found: %w", err)
	}
	if record.Kind != model.KindRFQ {
		return nil, fmt.Errorf("%w: record %s is a %s", ErrNotRFQ, record.ID, record.Kind)
	}
	return record, nil
}

func (s *evaluationService) audit(ctx context.Context, actor uuid.UUID, action, entityID, entityName string, details map[string]interface{}) error {
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

func parseWeights(req EvaluateRequest) (engine.Weights, error) {
	technical, err := decimal.NewFromString(req.TechnicalWeight)
	if err != nil {
		return engine.Weights{}, fmt.Errorf("invalid technical weight: %w", err)
	}
	commercial, err := decimal.NewFromString(req.CommercialWeight)
	if err != nil {
		return engine.Weights{}, fmt.Errorf("invalid commercial weight: %w", err)
	}
	weights := engine.Weights{Technical: technical, Commercial: commercial}
	if err := weights.Validate(); err != nil {
		return engine.Weights{}, err
	}
	return weights, nil
}

func toSubmissionResponse(sub model.Submission) SubmissionResponse {
	resp := SubmissionResponse{
		ID:               sub.ID.String(),
		RFQID:            sub.RFQID.String(),
		VendorID:         sub.VendorID.String(),
		ProposedAmount:   sub.ProposedAmount.StringFixed(4),
		DeliveryTimeDays: sub.DeliveryTimeDays,
		PaymentTerms:     sub.PaymentTerms,
		ComplianceFlag:   sub.ComplianceFlag,
		Status:           sub.Status,
		CreatedAt:        sub.CreatedAt.Format(time.RFC3339),
	}
	if sub.Vendor != nil {
		resp.VendorName = sub.Vendor.Name
	}
	if sub.TechnicalScore != nil {
		score := sub.TechnicalScore.StringFixed(2)
		resp.TechnicalScore = &score
	}
	return resp
}
