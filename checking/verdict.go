package checking

// VerdictReason names the branch of the scoring pipeline that produced a
// verdict, so callers and tests can tell a zero from a zero.
type VerdictReason string

const (
	ReasonFailureAgreement     VerdictReason = "failure_agreement"
	ReasonFailureMismatch      VerdictReason = "failure_mismatch"
	ReasonMalformedResponse    VerdictReason = "malformed_response"
	ReasonReferenceUnavailable VerdictReason = "reference_unavailable"
	ReasonSafetyMismatch       VerdictReason = "safety_mismatch"
	ReasonForgeryDetected      VerdictReason = "forgery_detected"
	ReasonGrossMismatch        VerdictReason = "gross_mismatch"
	ReasonSimilarity           VerdictReason = "similarity"
	ReasonTokenMismatch        VerdictReason = "token_mismatch"
)

// Verdict is the outcome of one check. It is either a bounded numeric score
// or an explicit "could not determine", never a sentinel value.
type Verdict interface {
	GetReason() VerdictReason

	// ScoreValue returns the numeric score and true, or 0 and false when the
	// check was indeterminate and must be excluded from aggregate scoring.
	ScoreValue() (float64, bool)
}

type Scored struct {
	Value  float64
	Reason VerdictReason
}

func (v Scored) GetReason() VerdictReason { return v.Reason }

func (v Scored) ScoreValue() (float64, bool) { return v.Value, true }

type Indeterminate struct {
	Reason VerdictReason
}

func (v Indeterminate) GetReason() VerdictReason { return v.Reason }

func (v Indeterminate) ScoreValue() (float64, bool) { return 0, false }
