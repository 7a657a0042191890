package assignment

import (
	"errors"

	"github.com/ogurasousui/engineer-capacity/internal/core/allocation"
)

var (
	ErrInvalidEngineerID  = errors.New("assignment: invalid engineer id")
	ErrInvalidProjectID   = errors.New("assignment: invalid project id")
	ErrInvalidAllocation  = errors.New("assignment: allocation percentage must be between 0 and 100")
	ErrInvalidDateRange   = errors.New("assignment: end date precedes start date")
	ErrAssignmentNotFound = errors.New("assignment: not found")
	// ErrValidationFailed は ValidationFailedError と errors.Is で一致します。
	ErrValidationFailed = errors.New("assignment: validation failed")
)

// ValidationFailedError は割り当てエンジンが提案を却下したことを表します。
type ValidationFailedError struct {
	Result allocation.ValidationResult
}

func (e *ValidationFailedError) Error() string {
	return ErrValidationFailed.Error() + ": " + e.Result.Summary()
}

// Is は ErrValidationFailed との比較を可能にします。
func (e *ValidationFailedError) Is(target error) bool {
	return target == ErrValidationFailed
}
