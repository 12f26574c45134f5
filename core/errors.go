package core

import "errors"

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrFitFailure      = errors.New("distribution fit failure")
)
