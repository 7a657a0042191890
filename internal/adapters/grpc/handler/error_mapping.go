package handler

import (
	"errors"

	"github.com/ogurasousui/engineer-capacity/internal/core/allocation"
	"github.com/ogurasousui/engineer-capacity/internal/core/assignment"
	"github.com/ogurasousui/engineer-capacity/internal/core/engineer"
	"github.com/ogurasousui/engineer-capacity/internal/core/project"
	"github.com/ogurasousui/engineer-capacity/internal/core/session"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func toStatusError(err error) error {
	var validationErr *assignment.ValidationFailedError

	switch {
	case err == nil:
		return nil
	case errors.As(err, &validationErr):
		return status.Error(codes.FailedPrecondition, validationMessage(validationErr.Result))
	case allocation.IsInputError(err),
		errors.Is(err, engineer.ErrInvalidID),
		errors.Is(err, engineer.ErrInvalidName),
		errors.Is(err, engineer.ErrInvalidEmail),
		errors.Is(err, engineer.ErrInvalidSkill),
		errors.Is(err, engineer.ErrInvalidMaxCapacity),
		errors.Is(err, engineer.ErrInvalidSeniority),
		errors.Is(err, engineer.ErrInvalidPageSize),
		errors.Is(err, engineer.ErrInvalidPageToken),
		errors.Is(err, project.ErrInvalidID),
		errors.Is(err, project.ErrInvalidName),
		errors.Is(err, project.ErrInvalidSkill),
		errors.Is(err, project.ErrInvalidTeamSize),
		errors.Is(err, project.ErrInvalidStatus),
		errors.Is(err, project.ErrInvalidDateRange),
		errors.Is(err, project.ErrInvalidPageSize),
		errors.Is(err, project.ErrInvalidPageToken),
		errors.Is(err, assignment.ErrInvalidEngineerID),
		errors.Is(err, assignment.ErrInvalidProjectID),
		errors.Is(err, assignment.ErrInvalidAllocation),
		errors.Is(err, assignment.ErrInvalidDateRange),
		errors.Is(err, session.ErrInvalidRole):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, engineer.ErrEmailAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, engineer.ErrEngineerNotFound),
		errors.Is(err, project.ErrProjectNotFound),
		errors.Is(err, assignment.ErrAssignmentNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, session.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, session.ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func validationMessage(result allocation.ValidationResult) string {
	return "validation failed: " + result.Summary()
}
