package impl

import "errors"

var (
	ErrEmptyPassword = errors.New("empty password")
	ErrEmptySecret   = errors.New("empty enrollment secret")
)
