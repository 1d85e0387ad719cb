package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrNoParticipants   = errors.New("match has no participants")
	ErrAlreadyProcessed = errors.New("game already processed")
)
