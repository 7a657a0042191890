package allocation_test

import (
	"errors"
	"testing"
	"time"

	"github.com/ogurasousui/engineer-capacity/internal/core/allocation"
	. "github.com/smartystreets/goconvey/convey"
)

func TestValidate(t *testing.T) {
	now := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

	Convey("Given an engineer with 100% capacity and one active 60% assignment", t, func() {
		eng := allocation.Engineer{ID: "eng-1", Skills: []string{"Go", "AWS"}, MaxCapacity: 100}
		project := allocation.Project{ID: "proj-1", RequiredSkills: []string{"Go"}, Status: allocation.ProjectStatusActive}
		existing := []allocation.Assignment{
			{ID: "a-1", EngineerID: "eng-1", ProjectID: "proj-0", AllocationPercentage: 60},
		}

		Convey("When proposing exactly the remaining 40%", func() {
			result, err := allocation.Validate(eng, project, existing, 40, now)

			Convey("Then no errors are reported", func() {
				So(err, ShouldBeNil)
				So(result.Valid(), ShouldBeTrue)
			})
		})

		Convey("When proposing 41%", func() {
			result, err := allocation.Validate(eng, project, existing, 41, now)

			Convey("Then a capacity error mentioning 40 is reported", func() {
				So(err, ShouldBeNil)
				msg, ok := result.Message(allocation.FieldAllocationPercentage)
				So(ok, ShouldBeTrue)
				So(msg, ShouldContainSubstring, "40")
				_, skillErr := result.Message(allocation.FieldEngineerID)
				So(skillErr, ShouldBeFalse)
			})
		})

		Convey("When proposing 0%", func() {
			result, err := allocation.Validate(eng, project, existing, 0, now)

			Convey("Then the proposal is valid", func() {
				So(err, ShouldBeNil)
				So(result.Valid(), ShouldBeTrue)
			})
		})

		Convey("When validating the same input twice", func() {
			first, err1 := allocation.Validate(eng, project, existing, 55, now)
			second, err2 := allocation.Validate(eng, project, existing, 55, now)

			Convey("Then the results are identical", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(first, ShouldResemble, second)
			})
		})

		Convey("When the existing assignment ended before the evaluation date", func() {
			ended := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
			finished := []allocation.Assignment{
				{ID: "a-1", EngineerID: "eng-1", ProjectID: "proj-0", AllocationPercentage: 60, EndDate: &ended},
			}
			result, err := allocation.Validate(eng, project, finished, 100, now)

			Convey("Then the full capacity is available again", func() {
				So(err, ShouldBeNil)
				So(result.Valid(), ShouldBeTrue)
			})
		})

		Convey("When the proposal is negative", func() {
			_, err := allocation.Validate(eng, project, existing, -1, now)

			Convey("Then an input error is returned instead of a validation result", func() {
				So(errors.Is(err, allocation.ErrNegativeAllocation), ShouldBeTrue)
				So(allocation.IsInputError(err), ShouldBeTrue)
			})
		})
	})

	Convey("Given a project requiring AWS and a React engineer", t, func() {
		eng := allocation.Engineer{ID: "eng-2", Skills: []string{"React"}, MaxCapacity: 100}
		project := allocation.Project{ID: "proj-2", RequiredSkills: []string{"AWS"}}

		Convey("When proposing an allocation that fits", func() {
			result, err := allocation.Validate(eng, project, nil, 30, now)

			Convey("Then only the engineerId error is reported", func() {
				So(err, ShouldBeNil)
				_, skillErr := result.Message(allocation.FieldEngineerID)
				So(skillErr, ShouldBeTrue)
				_, capErr := result.Message(allocation.FieldAllocationPercentage)
				So(capErr, ShouldBeFalse)
			})
		})

		Convey("When proposing zero allocation", func() {
			result, err := allocation.Validate(eng, project, nil, 0, now)

			Convey("Then skill matching still applies", func() {
				So(err, ShouldBeNil)
				So(len(result), ShouldEqual, 1)
				_, skillErr := result.Message(allocation.FieldEngineerID)
				So(skillErr, ShouldBeTrue)
			})
		})

		Convey("When the proposal also exceeds capacity", func() {
			eng.MaxCapacity = 20
			result, err := allocation.Validate(eng, project, nil, 30, now)

			Convey("Then both errors are reported", func() {
				So(err, ShouldBeNil)
				So(len(result), ShouldEqual, 2)
			})
		})
	})

	Convey("Given an over-allocated legacy engineer", t, func() {
		eng := allocation.Engineer{ID: "eng-3", MaxCapacity: 100}
		existing := []allocation.Assignment{
			{ID: "a-1", EngineerID: "eng-3", AllocationPercentage: 70},
			{ID: "a-2", EngineerID: "eng-3", AllocationPercentage: 50},
		}

		Convey("When proposing any positive allocation", func() {
			result, err := allocation.Validate(eng, allocation.Project{ID: "proj"}, existing, 1, now)

			Convey("Then the capacity error reports 0% available", func() {
				So(err, ShouldBeNil)
				So(result[allocation.FieldAllocationPercentage], ShouldEqual, allocation.CapacityExceededMessage(0))
			})
		})
	})
}

func TestValidateWithCapacity(t *testing.T) {
	Convey("Given a precomputed capacity snapshot", t, func() {
		eng := allocation.Engineer{ID: "eng-1", MaxCapacity: 100}
		info := allocation.CapacityInfo{UsedCapacity: 75, AvailableCapacity: 25}

		Convey("The boundary is inclusive", func() {
			ok, err := allocation.ValidateWithCapacity(eng, allocation.Project{}, info, 25)
			So(err, ShouldBeNil)
			So(ok.Valid(), ShouldBeTrue)

			over, err := allocation.ValidateWithCapacity(eng, allocation.Project{}, info, 26)
			So(err, ShouldBeNil)
			So(over[allocation.FieldAllocationPercentage], ShouldEqual, "Allocation exceeds available capacity (25%)")
		})

		Convey("An over-allocated snapshot clamped to 0 available is accepted as input", func() {
			legacy := allocation.CapacityInfo{UsedCapacity: 120, AvailableCapacity: 0}
			result, err := allocation.ValidateWithCapacity(eng, allocation.Project{}, legacy, 0)
			So(err, ShouldBeNil)
			So(result.Valid(), ShouldBeTrue)
		})

		Convey("Snapshots that do not match the engineer are rejected as input errors", func() {
			cases := []allocation.CapacityInfo{
				{UsedCapacity: 120, AvailableCapacity: -20},
				{UsedCapacity: 0, AvailableCapacity: 500},
				{UsedCapacity: 30, AvailableCapacity: 30},
			}
			for _, bad := range cases {
				_, err := allocation.ValidateWithCapacity(eng, allocation.Project{}, bad, 0)
				So(errors.Is(err, allocation.ErrInconsistentCapacity), ShouldBeTrue)
				So(allocation.IsInputError(err), ShouldBeTrue)
			}

			_, err := allocation.ValidateWithCapacity(eng, allocation.Project{}, allocation.CapacityInfo{UsedCapacity: -5, AvailableCapacity: 100}, 0)
			So(errors.Is(err, allocation.ErrNegativeAllocation), ShouldBeTrue)
		})
	})
}

func TestValidationResult_Summary(t *testing.T) {
	Convey("Summary lists violations in field order", t, func() {
		result := allocation.ValidationResult{
			allocation.FieldEngineerID:           "Engineer does not have required skills for this project",
			allocation.FieldAllocationPercentage: allocation.CapacityExceededMessage(10),
		}
		So(result.Summary(), ShouldEqual,
			"allocationPercentage: Allocation exceeds available capacity (10%); engineerId: Engineer does not have required skills for this project")
		So(allocation.ValidationResult{}.Summary(), ShouldBeEmpty)
	})
}
