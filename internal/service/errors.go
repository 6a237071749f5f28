package service

import "errors"

var (
	ErrNoSession = errors.New("no session")
	ErrPersist   = errors.New("snapshot not persisted")
)
