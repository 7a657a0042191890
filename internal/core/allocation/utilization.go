package allocation

import (
	"fmt"
	"math"
)

const (
	highUtilizationThreshold   = 80
	mediumUtilizationThreshold = 50
)

// ReportUtilization は MaxCapacity に対する使用率を 0〜100 の整数で返します。
// MaxCapacity が 0 の場合は 0 とし、超過割り当ては 100 に丸めます。
func ReportUtilization(engineer Engineer, info CapacityInfo) (int, error) {
	if err := validateEngineer(engineer); err != nil {
		return 0, err
	}
	if info.UsedCapacity < 0 {
		return 0, fmt.Errorf("used capacity %d: %w", info.UsedCapacity, ErrNegativeAllocation)
	}
	if engineer.MaxCapacity == 0 {
		return 0, nil
	}

	percent := int(math.Round(float64(info.UsedCapacity) / float64(engineer.MaxCapacity) * 100))
	if percent > 100 {
		percent = 100
	}
	return percent, nil
}

// ClassifyUtilization は使用率を表示用の 3 区分に分類します。各区分の下限は含みます。
func ClassifyUtilization(usagePercent int) UtilizationBand {
	switch {
	case usagePercent >= highUtilizationThreshold:
		return UtilizationHigh
	case usagePercent >= mediumUtilizationThreshold:
		return UtilizationMedium
	default:
		return UtilizationLow
	}
}
