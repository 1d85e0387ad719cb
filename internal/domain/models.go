package domain

import (
	"strings"
	"time"
)

const (
	UnknownName = "unknown"
	UnknownRole = "UNKNOWN"
)

// Participant is one player's end-of-match statistics in the Riot match-v5
// participant shape. Every counter is optional and reads as zero when absent.
type Participant struct {
	Puuid          string `json:"puuid,omitempty"`
	RiotIDGameName string `json:"riotIdGameName,omitempty"`
	SummonerName   string `json:"summonerName,omitempty"`
	RiotIDTagline  string `json:"riotIdTagline,omitempty"`
	ChampionName   string `json:"championName,omitempty"`

	TeamID int  `json:"teamId"`
	Win    bool `json:"win"`

	IndividualPosition string `json:"individualPosition,omitempty"`
	TeamPosition       string `json:"teamPosition,omitempty"`

	Kills                       int     `json:"kills"`
	Deaths                      int     `json:"deaths"`
	Assists                     int     `json:"assists"`
	TotalMinionsKilled          int     `json:"totalMinionsKilled"`
	NeutralMinionsKilled        int     `json:"neutralMinionsKilled"`
	TimePlayed                  float64 `json:"timePlayed"`
	TotalDamageDealtToChampions int     `json:"totalDamageDealtToChampions"`
	GoldEarned                  int     `json:"goldEarned"`
	VisionScore                 int     `json:"visionScore"`

	DragonKills    int `json:"dragonKills"`
	BaronKills     int `json:"baronKills"`
	TurretKills    int `json:"turretKills"`
	InhibitorKills int `json:"inhibitorKills"`

	DoubleKills int `json:"doubleKills"`
	TripleKills int `json:"tripleKills"`
	QuadraKills int `json:"quadraKills"`
	PentaKills  int `json:"pentaKills"`

	FirstBloodKill   bool `json:"firstBloodKill"`
	FirstBloodAssist bool `json:"firstBloodAssist"`

	Challenges *Challenges `json:"challenges,omitempty"`
}

// Challenges holds the derived metrics the provider computes per participant.
type Challenges struct {
	KillParticipation            float64 `json:"killParticipation"`
	SoloKills                    float64 `json:"soloKills"`
	EffectiveHealAndShielding    float64 `json:"effectiveHealAndShielding"`
	EnemyChampionImmobilizations float64 `json:"enemyChampionImmobilizations"`
	KillsNearEnemyTurret         float64 `json:"killsNearEnemyTurret"`
	LaneMinionsFirst10Minutes    float64 `json:"laneMinionsFirst10Minutes"`
	KillsAfterHiddenWithAlly     float64 `json:"killsAfterHiddenWithAlly"`
	TeamDamagePercentage         float64 `json:"teamDamagePercentage"`
	KillsInAllLanes              float64 `json:"killsInAllLanes"`
	MaxGoldDeficit               float64 `json:"maxGoldDeficit"`
}

// Name returns the first non-empty of the game name, summoner name and tagline.
func (p Participant) Name() string {
	for _, n := range []string{p.RiotIDGameName, p.SummonerName, p.RiotIDTagline} {
		if n = strings.TrimSpace(n); n != "" {
			return n
		}
	}
	return UnknownName
}

func (p Participant) Role() string {
	if p.IndividualPosition != "" {
		return strings.ToUpper(p.IndividualPosition)
	}
	if p.TeamPosition != "" {
		return strings.ToUpper(p.TeamPosition)
	}
	return UnknownRole
}

// Challenge returns the challenges bag, or a zero value when the provider sent none.
func (p Participant) Challenge() Challenges {
	if p.Challenges == nil {
		return Challenges{}
	}
	return *p.Challenges
}

type RatingRecord struct {
	Name         string  `json:"name"`
	Rating       int     `json:"elo"`
	TotalKills   int     `json:"totalKills"`
	TotalAssists int     `json:"totalAssists"`
	TotalDeaths  int     `json:"totalDeaths"`
	TotalGold    int     `json:"totalGold"`
	TotalWins    int     `json:"totalWins"`
	TotalLosses  int     `json:"totalLosses"`
	Games        int     `json:"games"`
	AvgKills     float64 `json:"avgKills"`
	AvgAssists   float64 `json:"avgAssists"`
	AvgDeaths    float64 `json:"avgDeaths"`
	AvgGold      float64 `json:"avgGold"`
	WinLoss      string  `json:"winLoss"`

	RatingHistory      []RatingHistoryEntry      `json:"eloHistory"`
	PerformanceHistory []PerformanceHistoryEntry `json:"performanceHistory"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type RatingHistoryEntry struct {
	ID        string    `json:"id,omitempty"` // nanoid, assigned by the sqlite store
	Seq       int       `json:"seq"`          // games count at the time of the entry
	GameID    string    `json:"gameId"`
	OldRating int       `json:"oldElo"`
	NewRating int       `json:"newElo"`
	Delta     int       `json:"change"`
	Method    string    `json:"method"`
	Timestamp time.Time `json:"timestamp"`
}

type PerformanceHistoryEntry struct {
	ID               string    `json:"id,omitempty"`
	Seq              int       `json:"seq"`
	GameID           string    `json:"gameId"`
	PerformanceScore float64   `json:"performanceScore"`
	Role             string    `json:"role"`
	LaneRank         *int      `json:"laneRank,omitempty"`
	Win              bool      `json:"win"`
	Timestamp        time.Time `json:"timestamp"`
}

// WinRate is wins over games, 0 for a player without games.
func (r *RatingRecord) WinRate() float64 {
	if r.Games == 0 {
		return 0
	}
	return float64(r.TotalWins) / float64(r.Games)
}

// MethodChange is one rating method's verdict for a participant.
type MethodChange struct {
	Delta     int `json:"delta"`
	NewRating int `json:"newRating"`
}

// MatchResult is the per-participant output of one match computation.
type MatchResult struct {
	Name               string                  `json:"name"`
	Team               int                     `json:"team"`
	Win                bool                    `json:"win"`
	Role               string                  `json:"role"`
	OldRating          int                     `json:"oldRating"`
	NewRating          int                     `json:"newRating"`
	Delta              int                     `json:"delta"`
	Method             string                  `json:"method"`
	PerformanceScore   float64                 `json:"performanceScore"`
	LaneRank           *int                    `json:"laneRank,omitempty"`
	LaneRankPercentile *float64                `json:"laneRankPercentile,omitempty"`
	Methods            map[string]MethodChange `json:"methods,omitempty"`
}

// Game is a stored match awaiting or past rating computation.
type Game struct {
	GameID          string        `json:"gameId"`
	MatchID         string        `json:"matchId,omitempty"`
	Source          string        `json:"source"` // "riot", "import", "api"
	GameMode        string        `json:"gameMode,omitempty"`
	StartedAt       time.Time     `json:"startedAt"`
	DurationSeconds int64         `json:"durationSeconds"`
	Participants    []Participant `json:"participants"`
	Results         []MatchResult `json:"results,omitempty"`
	Method          string        `json:"method,omitempty"`
	ProcessedAt     *time.Time    `json:"processedAt,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

const (
	SourceRiot   = "riot"
	SourceImport = "import"
	SourceAPI    = "api"
)

type StoreStats struct {
	Players        int `json:"players"`
	Games          int `json:"games"`
	ProcessedGames int `json:"processedGames"`
	PendingGames   int `json:"pendingGames"`
}
