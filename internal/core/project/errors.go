package project

import "errors"

var (
	ErrInvalidID        = errors.New("project: invalid id")
	ErrInvalidName      = errors.New("project: invalid name")
	ErrInvalidSkill     = errors.New("project: invalid required skill")
	ErrInvalidTeamSize  = errors.New("project: invalid team size")
	ErrInvalidStatus    = errors.New("project: invalid status")
	ErrInvalidDateRange = errors.New("project: end date precedes start date")
	ErrInvalidPageSize  = errors.New("project: invalid page size")
	ErrInvalidPageToken = errors.New("project: invalid page token")
	ErrProjectNotFound  = errors.New("project: not found")
)
