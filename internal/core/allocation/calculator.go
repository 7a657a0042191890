package allocation

import (
	"fmt"
	"time"
)

// ComputeCapacity は評価日時点のエンジニアの使用済み・残り稼働率を算出します。
//
// 稼働中の判定は日付単位で行います。EndDate が評価日より厳密に前の割り当てだけを除外し、
// EndDate 未設定や StartDate が未来の割り当ては稼働率を確保しているものとして数えます。
// 合計が MaxCapacity を超えている既存データも受け付け、AvailableCapacity は 0 に丸めます。
func ComputeCapacity(engineer Engineer, assignments []Assignment, evaluationDate time.Time) (CapacityInfo, error) {
	if evaluationDate.IsZero() {
		return CapacityInfo{}, ErrMissingEvaluationDate
	}
	if err := validateEngineer(engineer); err != nil {
		return CapacityInfo{}, err
	}

	today := truncateToDate(evaluationDate)
	active := make([]Assignment, 0, len(assignments))
	used := 0

	for _, a := range assignments {
		if err := validateAssignment(engineer.ID, a); err != nil {
			return CapacityInfo{}, err
		}
		if !isActiveOn(a, today) {
			continue
		}
		used += a.AllocationPercentage
		active = append(active, a)
	}

	available := engineer.MaxCapacity - used
	if available < 0 {
		available = 0
	}

	return CapacityInfo{
		UsedCapacity:      used,
		AvailableCapacity: available,
		ActiveAssignments: active,
	}, nil
}

// IsActiveOn は割り当てが指定日に稼働率を消費しているかを返します。
func IsActiveOn(a Assignment, date time.Time) bool {
	return isActiveOn(a, truncateToDate(date))
}

func isActiveOn(a Assignment, today time.Time) bool {
	if a.EndDate == nil {
		return true
	}
	return !truncateToDate(*a.EndDate).Before(today)
}

func validateEngineer(engineer Engineer) error {
	if engineer.MaxCapacity < 0 || engineer.MaxCapacity > 100 {
		return fmt.Errorf("engineer %q max capacity %d: %w", engineer.ID, engineer.MaxCapacity, ErrInvalidMaxCapacity)
	}
	return nil
}

func validateAssignment(engineerID string, a Assignment) error {
	if a.EngineerID != engineerID {
		return fmt.Errorf("assignment %q: %w", a.ID, ErrForeignAssignment)
	}
	if a.AllocationPercentage < 0 {
		return fmt.Errorf("assignment %q: %w", a.ID, ErrNegativeAllocation)
	}
	return ValidateDateRange(a.StartDate, a.EndDate)
}

// ValidateDateRange は開始日・終了日が共に設定されている場合に順序を検証します。
func ValidateDateRange(start, end *time.Time) error {
	if start == nil || end == nil {
		return nil
	}
	if truncateToDate(*end).Before(truncateToDate(*start)) {
		return ErrInvalidDateRange
	}
	return nil
}

// truncateToDate は UTC の暦日に切り捨てます。同じ瞬間ならロケーションに依らず同じ日になります。
func truncateToDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
