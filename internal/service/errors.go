package service

import (
	"errors"

	"league-elo/internal/domain"
)

var (
	ErrAlreadyProcessed = domain.ErrAlreadyProcessed
	ErrUnknownCategory  = errors.New("unknown leaderboard category")
)
