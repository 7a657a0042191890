package allocation

import "errors"

// 以下は呼び出し側の不具合を示す入力エラーです。検証結果とは区別して返却します。
var (
	ErrInvalidMaxCapacity    = errors.New("allocation: max capacity must be between 0 and 100")
	ErrNegativeAllocation    = errors.New("allocation: allocation percentage must not be negative")
	ErrInvalidDateRange      = errors.New("allocation: end date precedes start date")
	ErrMissingEvaluationDate = errors.New("allocation: evaluation date is required")
	ErrForeignAssignment     = errors.New("allocation: assignment belongs to another engineer")
	ErrInconsistentCapacity  = errors.New("allocation: capacity info does not match the engineer's max capacity")
)

// IsInputError は err が入力エラーに該当するかを判定します。
func IsInputError(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrInvalidMaxCapacity),
		errors.Is(err, ErrNegativeAllocation),
		errors.Is(err, ErrInvalidDateRange),
		errors.Is(err, ErrMissingEvaluationDate),
		errors.Is(err, ErrForeignAssignment),
		errors.Is(err, ErrInconsistentCapacity):
		return true
	default:
		return false
	}
}
