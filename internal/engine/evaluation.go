package engine

import (
	"fmt"
	"sort"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Weights are percentage shares of the technical and commercial axes.
type Weights struct {
	Technical  decimal.Decimal `json:"technical"`
	Commercial decimal.Decimal `json:"commercial"`
}

// Validate checks the weights sum to exactly 100.
func (w Weights) Validate() error {
	if !w.Technical.Add(w.Commercial).Equal(hundred) {
		return fmt.Errorf("%w: technical %s + commercial %s", ErrInvalidWeights,
			w.Technical.String(), w.Commercial.String())
	}
	if w.Technical.IsNegative() || w.Commercial.IsNegative() {
		return fmt.Errorf("%w: weights must not be negative", ErrInvalidWeights)
	}
	return nil
}

// ScoredSubmission is one submission with its derived evaluation fields.
type ScoredSubmission struct {
	Submission        model.Submission
	TechnicalScore    decimal.Decimal
	CommercialScore   decimal.Decimal
	TotalScore        decimal.Decimal
	Disqualified      bool // complianceFlag NO: excluded from ranking, still reported
	NeedsConfirmation bool // complianceFlag PARTIAL: rankable, confirm before award
}

// Evaluate derives the commercial score and weighted total for every
// submission of one RFQ. The lowest-priced compliant submission scores 100
// on the commercial axis; every other compliant one scores
// 100 * lowest/price. Non-compliant submissions are flagged disqualified
// and carry zero scores.
func Evaluate(submissions []model.Submission, weights Weights) ([]ScoredSubmission, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}

	lowest := lowestCompliantPrice(submissions)

	scored := make([]ScoredSubmission, 0, len(submissions))
	for _, sub := range submissions {
		s := ScoredSubmission{Submission: sub}

		if sub.ComplianceFlag == model.ComplianceNo {
			s.Disqualified = true
			scored = append(scored, s)
			continue
		}
		if sub.TechnicalScore == nil {
			return nil, fmt.Errorf("%w: submission %s", ErrMissingTechnicalScore, sub.ID)
		}

		s.NeedsConfirmation = sub.ComplianceFlag == model.CompliancePartial
		s.TechnicalScore = *sub.TechnicalScore
		if sub.ProposedAmount.IsPositive() && lowest.IsPositive() {
			s.CommercialScore = hundred.Mul(lowest).Div(sub.ProposedAmount)
		}
		// Weighted total on a 0-100 scale: weights are percentages.
		s.TotalScore = s.TechnicalScore.Mul(weights.Technical).
			Add(s.CommercialScore.Mul(weights.Commercial)).
			Div(hundred)
		scored = append(scored, s)
	}

	return scored, nil
}

// Rank orders scored submissions by total score descending; ties break to
// the lower proposed amount, then the earlier submission. Disqualified
// submissions always sort after every rankable one, regardless of price.
func Rank(scored []ScoredSubmission) []ScoredSubmission {
	ranked := append([]ScoredSubmission(nil), scored...)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Disqualified != b.Disqualified {
			return !a.Disqualified
		}
		if a.Disqualified {
			return false
		}
		if !a.TotalScore.Equal(b.TotalScore) {
			return a.TotalScore.GreaterThan(b.TotalScore)
		}
		if !a.Submission.ProposedAmount.Equal(b.Submission.ProposedAmount) {
			return a.Submission.ProposedAmount.LessThan(b.Submission.ProposedAmount)
		}
		return a.Submission.CreatedAt.Before(b.Submission.CreatedAt)
	})
	return ranked
}

// CheckAward verifies the award preconditions: the RFQ is open for
// evaluation, no submission is already awarded, and the chosen submission
// exists and is not disqualified. A second award attempt against an
// already-awarded RFQ fails with ErrAlreadyAwarded, not a generic status
// error.
func CheckAward(rfqStatus string, submissions []model.Submission, submissionID uuid.UUID) error {
	if CanonicalRFQStatus(rfqStatus) == model.StatusAwarded {
		return fmt.Errorf("%w: rfq is already awarded", ErrAlreadyAwarded)
	}
	if CanonicalRFQStatus(rfqStatus) != model.StatusOpen {
		return fmt.Errorf("%w: rfq status is %s", ErrNotAwardable, rfqStatus)
	}

	var target *model.Submission
	for i := range submissions {
		if submissions[i].Status == model.SubmissionAwarded {
			return fmt.Errorf("%w: submission %s", ErrAlreadyAwarded, submissions[i].ID)
		}
		if submissions[i].ID == submissionID {
			target = &submissions[i]
		}
	}

	if target == nil {
		return fmt.Errorf("%w: submission %s does not belong to this rfq", ErrNotAwardable, submissionID)
	}
	if target.ComplianceFlag == model.ComplianceNo {
		return fmt.Errorf("%w: submission %s is disqualified", ErrNotAwardable, submissionID)
	}
	return nil
}

func lowestCompliantPrice(submissions []model.Submission) decimal.Decimal {
	lowest := decimal.Zero
	for _, sub := range submissions {
		if sub.ComplianceFlag == model.ComplianceNo {
			continue
		}
		if lowest.IsZero() || sub.ProposedAmount.LessThan(lowest) {
			lowest = sub.ProposedAmount
		}
	}
	return lowest
}
