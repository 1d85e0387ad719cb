package constants

import "time"

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
	GameTimeout        = 15 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second

	// MaxRequestBodyBytes caps participant payloads; a ten player match is a few KiB.
	MaxRequestBodyBytes = 1 << 20
)

const (
	// HistoryLimit bounds both rating and performance history per player.
	HistoryLimit = 50

	DefaultLeaderboardMinGames = 2
	DefaultTopLimit            = 10
	MinGamesForWinRate         = 5
)

const (
	RiotFetchConcurrency = 3
	RiotMaxAttempts      = 3
	RiotDefaultCount     = 3
	RiotMaxCount         = 100
	RiotDefaultRetry     = 1 * time.Second
)
