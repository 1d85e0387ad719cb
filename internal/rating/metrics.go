// Package rating turns one completed match's participant statistics into
// rating changes. Everything here is pure computation over its inputs; loading
// and persisting ratings is the ledger's job.
package rating

import (
	"math"

	"league-elo/internal/config"
	"league-elo/internal/domain"
)

// Objective weights per kill type.
const (
	DragonWeight    = 3
	BaronWeight     = 5
	TurretWeight    = 2
	InhibitorWeight = 4
)

// Normalization scales; dividing by these maps an average player to about 1.
const (
	DamagePerMinuteScale = 500.0
	CSPerMinuteScale     = 8.0
	KDAScale             = 3.0
	VisionPerMinuteScale = 2.0
	ObjectiveScale       = 10.0
	SurvivalScale        = 10.0
	UtilityScale         = 50.0

	// NormalizedCap bounds kda and survival after scaling.
	NormalizedCap = 2.0
)

const (
	MinPerformanceScore = 0.0
	MaxPerformanceScore = 2.0
)

type Metrics struct {
	KDA                    float64 `json:"kda"`
	DamagePerMinute        float64 `json:"damagePerMinute"`
	VisionScorePerMinute   float64 `json:"visionScorePerMinute"`
	CSPerMinute            float64 `json:"csPerMinute"`
	GoldPerMinute          float64 `json:"goldPerMinute"`
	KillParticipation      float64 `json:"killParticipation"`
	ObjectiveParticipation float64 `json:"objectiveParticipation"`
	SurvivalRate           float64 `json:"survivalRate"`
	UtilityScore           float64 `json:"utilityScore"`
	EarlyGamePerformance   float64 `json:"earlyGamePerformance"`
	LateGamePerformance    float64 `json:"lateGamePerformance"`
	TeamFightParticipation float64 `json:"teamFightParticipation"`
	SoloKills              float64 `json:"soloKills"`
	ComebackFactor         float64 `json:"comebackFactor"`
}

// Extract derives the metric bundle for one participant. A participant without
// timePlayed is measured against the match's average duration.
func Extract(p domain.Participant, avgMatchDurationSeconds float64) Metrics {
	played := p.TimePlayed
	if played <= 0 {
		played = avgMatchDurationSeconds
	}
	minutes := math.Max(1, played/60)
	c := p.Challenge()

	return Metrics{
		KDA:                    kda(p.Kills, p.Deaths, p.Assists),
		DamagePerMinute:        float64(p.TotalDamageDealtToChampions) / minutes,
		VisionScorePerMinute:   float64(p.VisionScore) / minutes,
		CSPerMinute:            float64(p.TotalMinionsKilled) / minutes,
		GoldPerMinute:          float64(p.GoldEarned) / minutes,
		KillParticipation:      c.KillParticipation,
		ObjectiveParticipation: objectiveParticipation(p),
		SurvivalRate:           minutes / math.Max(1, float64(p.Deaths)),
		UtilityScore:           c.EffectiveHealAndShielding/100 + c.EnemyChampionImmobilizations*2 + float64(p.VisionScore),
		EarlyGamePerformance:   c.KillsNearEnemyTurret*3 + c.LaneMinionsFirst10Minutes/10 + firstBloodBonus(p),
		LateGamePerformance:    c.KillsAfterHiddenWithAlly*2 + c.TeamDamagePercentage*50,
		TeamFightParticipation: teamFightParticipation(p) + c.KillsInAllLanes,
		SoloKills:              c.SoloKills,
		ComebackFactor:         comebackFactor(c.MaxGoldDeficit),
	}
}

func kda(kills, deaths, assists int) float64 {
	if deaths > 0 {
		return float64(kills+assists) / float64(deaths)
	}
	if kills+assists == 0 {
		return 1
	}
	return float64(kills + assists)
}

func objectiveParticipation(p domain.Participant) float64 {
	return float64(p.DragonKills*DragonWeight + p.BaronKills*BaronWeight + p.TurretKills*TurretWeight + p.InhibitorKills*InhibitorWeight)
}

func firstBloodBonus(p domain.Participant) float64 {
	var bonus float64
	if p.FirstBloodKill {
		bonus += 10
	}
	if p.FirstBloodAssist {
		bonus += 5
	}
	return bonus
}

func teamFightParticipation(p domain.Participant) float64 {
	return float64(p.DoubleKills*2 + p.TripleKills*4 + p.QuadraKills*8 + p.PentaKills*16)
}

func comebackFactor(maxGoldDeficit float64) float64 {
	if maxGoldDeficit > 1000 {
		return math.Log(maxGoldDeficit / 1000)
	}
	return 0
}

// Normalize maps one stat key onto a roughly unit scale.
func Normalize(stat string, m Metrics) float64 {
	switch stat {
	case config.StatDamage:
		return m.DamagePerMinute / DamagePerMinuteScale
	case config.StatFarm:
		return m.CSPerMinute / CSPerMinuteScale
	case config.StatKDA:
		return math.Min(m.KDA/KDAScale, NormalizedCap)
	case config.StatVision:
		return m.VisionScorePerMinute / VisionPerMinuteScale
	case config.StatObjectives:
		return m.ObjectiveParticipation / ObjectiveScale
	case config.StatSurvival:
		return math.Min(m.SurvivalRate/SurvivalScale, NormalizedCap)
	case config.StatUtility:
		return m.UtilityScore / UtilityScale
	}
	return 0
}

// PerformanceScore is the weighted composite of normalized metrics, clamped
// to [0, 2] with 1 meaning an average game.
func PerformanceScore(m Metrics, w config.PerformanceWeights) float64 {
	score := Normalize(config.StatKDA, m)*w.KDA +
		Normalize(config.StatDamage, m)*w.Damage +
		Normalize(config.StatVision, m)*w.Vision +
		Normalize(config.StatObjectives, m)*w.Objectives +
		Normalize(config.StatFarm, m)*w.Farm +
		Normalize(config.StatSurvival, m)*w.Survival +
		Normalize(config.StatUtility, m)*w.Utility
	return clamp(score, MinPerformanceScore, MaxPerformanceScore)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
