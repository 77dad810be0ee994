package service

import "errors"

var (
	ErrNotFound     = errors.New("service: not found")
	ErrInvalidHours = errors.New("service: invalid work hours")
)
