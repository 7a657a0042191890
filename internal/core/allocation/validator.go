package allocation

import (
	"fmt"
	"time"
)

const skillMismatchMessage = "Engineer does not have required skills for this project"

// Validate は新規割り当ての提案を稼働率とスキルの両面から検証します。
//
// 戻り値の ValidationResult が空であれば提案は有効です。入力の不備は error として返し、
// 検証結果とは混同しません。Validate は書き込みを行わず助言的な判定のみを提供するため、
// 永続化層はコミット時点で同じ不変条件を再検証する必要があります。
func Validate(engineer Engineer, project Project, existing []Assignment, proposedAllocationPercentage int, evaluationDate time.Time) (ValidationResult, error) {
	if proposedAllocationPercentage < 0 {
		return nil, fmt.Errorf("proposed allocation %d: %w", proposedAllocationPercentage, ErrNegativeAllocation)
	}

	info, err := ComputeCapacity(engineer, existing, evaluationDate)
	if err != nil {
		return nil, err
	}

	return check(engineer, project, info, proposedAllocationPercentage), nil
}

// ValidateWithCapacity は算出済みの CapacityInfo を用いて検証します。
// 同じスナップショットを表示と検証の両方に使う呼び出し側向けです。
// info は ComputeCapacity の結果と同じ関係 (Available = max(0, MaxCapacity-Used)) を満たす必要があります。
func ValidateWithCapacity(engineer Engineer, project Project, info CapacityInfo, proposedAllocationPercentage int) (ValidationResult, error) {
	if proposedAllocationPercentage < 0 {
		return nil, fmt.Errorf("proposed allocation %d: %w", proposedAllocationPercentage, ErrNegativeAllocation)
	}
	if err := validateEngineer(engineer); err != nil {
		return nil, err
	}
	if err := validateCapacityInfo(engineer, info); err != nil {
		return nil, err
	}
	return check(engineer, project, info, proposedAllocationPercentage), nil
}

func validateCapacityInfo(engineer Engineer, info CapacityInfo) error {
	if info.UsedCapacity < 0 {
		return fmt.Errorf("used capacity %d: %w", info.UsedCapacity, ErrNegativeAllocation)
	}
	want := engineer.MaxCapacity - info.UsedCapacity
	if want < 0 {
		want = 0
	}
	if info.AvailableCapacity != want {
		return fmt.Errorf("available capacity %d with used %d and max %d: %w",
			info.AvailableCapacity, info.UsedCapacity, engineer.MaxCapacity, ErrInconsistentCapacity)
	}
	return nil
}

func check(engineer Engineer, project Project, info CapacityInfo, proposed int) ValidationResult {
	result := make(ValidationResult)

	if proposed > info.AvailableCapacity {
		result[FieldAllocationPercentage] = CapacityExceededMessage(info.AvailableCapacity)
	}

	if len(project.RequiredSkills) > 0 && !IsEligible(project.RequiredSkills, engineer.Skills) {
		result[FieldEngineerID] = skillMismatchMessage
	}

	return result
}

// CapacityExceededMessage は残り稼働率を含む容量超過メッセージを生成します。
func CapacityExceededMessage(available int) string {
	return fmt.Sprintf("Allocation exceeds available capacity (%d%%)", available)
}
