package auction

import "fmt"

// ReasonCode is the closed set of rejection reasons reported to an
// acting user. Rejections never carry free text.
type ReasonCode string

const (
	ReasonSalaryLimit       ReasonCode = "EXCEEDS_SALARY_LIMIT"
	ReasonRosterLimit       ReasonCode = "EXCEEDS_ROSTER_LIMITS"
	ReasonInvalidBid        ReasonCode = "INVALID_BID"
	ReasonInvalidNomination ReasonCode = "INVALID_NOMINATION"
	ReasonProcessingError   ReasonCode = "PROCESSING_ERROR"
)

// Rejection is a validation failure on a mutating operation. It is
// non-fatal: state is unchanged apart from a possible timer restart.
type Rejection struct {
	Code ReasonCode
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("auction: rejected (%s)", r.Code)
}

func reject(code ReasonCode) *Rejection {
	return &Rejection{Code: code}
}
