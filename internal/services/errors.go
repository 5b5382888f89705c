package services

import "errors"

var (
	ErrDuplicateName   = errors.New("username already in use")
	ErrInvalidName     = errors.New("invalid username")
	ErrNotFound        = errors.New("not found")
	ErrEmptyContent    = errors.New("message is empty")
	ErrContentTooLong  = errors.New("message is too long")
	ErrModeratorDenied = errors.New("invalid moderator credential")
)
