package engineer

import "errors"

var (
	ErrInvalidID          = errors.New("engineer: invalid id")
	ErrInvalidName        = errors.New("engineer: invalid name")
	ErrInvalidEmail       = errors.New("engineer: invalid email")
	ErrInvalidSkill       = errors.New("engineer: invalid skill")
	ErrInvalidMaxCapacity = errors.New("engineer: max capacity must be between 0 and 100")
	ErrInvalidSeniority   = errors.New("engineer: invalid seniority")
	ErrInvalidPageSize    = errors.New("engineer: invalid page size")
	ErrInvalidPageToken   = errors.New("engineer: invalid page token")
	ErrEngineerNotFound   = errors.New("engineer: not found")
	ErrEmailAlreadyExists = errors.New("engineer: email already exists")
)
