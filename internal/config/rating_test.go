package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleRatingFileMatchesDefaults(t *testing.T) {
	r, err := LoadRating(filepath.Join("..", "..", DefaultRatingConfigPath))
	require.NoError(t, err)
	assert.Equal(t, DefaultRating(), r)
}

func TestParseRatingErrors(t *testing.T) {
	valid := `
baseElo: 1000
kFactor: 64
performanceWeights: {kda: 1}
laneStatPriorities:
  MIDDLE: {damage: 1}
`
	tests := []struct {
		name string
		yaml string
	}{
		{name: "unknown key", yaml: valid + "kfactor: 32\n"},
		{name: "zero base", yaml: "baseElo: 0\nkFactor: 64\nperformanceWeights: {kda: 1}\nlaneStatPriorities: {MIDDLE: {damage: 1}}\n"},
		{name: "no weights", yaml: "baseElo: 1000\nkFactor: 64\nlaneStatPriorities: {MIDDLE: {damage: 1}}\n"},
		{name: "missing middle", yaml: "baseElo: 1000\nkFactor: 64\nperformanceWeights: {kda: 1}\nlaneStatPriorities: {TOP: {damage: 1}}\n"},
		{name: "unknown stat", yaml: "baseElo: 1000\nkFactor: 64\nperformanceWeights: {kda: 1}\nlaneStatPriorities: {MIDDLE: {gold: 1}}\n"},
		{name: "unknown method", yaml: valid + "methodPriority: [elo]\n"},
		{name: "duplicate method", yaml: valid + "methodPriority: [hybrid, hybrid]\n"},
		{name: "bonus bounds", yaml: valid + "calculationMethods: {traditional: {minPerformanceBonus: 5, maxPerformanceBonus: -5}}\n"},
		{name: "hybrid without base", yaml: valid + "calculationMethods: {hybrid: {enabled: true}}\n"},
		{name: "traditional without weights", yaml: valid + "calculationMethods: {traditional: {enabled: true, minPerformanceBonus: -20, maxPerformanceBonus: 20}}\n"},
		{name: "traditional without bounds", yaml: valid + "calculationMethods: {traditional: {enabled: true, teamResultWeight: 0.7, performanceWeight: 0.3}}\n"},
		{name: "traditional only enabled", yaml: valid + "calculationMethods: {traditional: {enabled: true}}\n"},
		{name: "traditional negative weight", yaml: valid + "calculationMethods: {traditional: {enabled: true, teamResultWeight: 1, performanceWeight: -0.5, minPerformanceBonus: -20, maxPerformanceBonus: 20}}\n"},
		{name: "lane without weights", yaml: valid + "calculationMethods: {laneComparison: {enabled: true, maxLaneBonus: 20, maxTeamBonus: 20, maxIndividualBonus: 15}}\n"},
		{name: "lane without bonuses", yaml: valid + "calculationMethods: {laneComparison: {enabled: true, laneWeight: 0.4, teamWeight: 0.4, individualWeight: 0.2}}\n"},
		{name: "hybrid without multiplier", yaml: valid + "calculationMethods: {hybrid: {enabled: true, baseEloChange: 20, winBonusReduction: 0.5}}\n"},
		{name: "hybrid without reduction", yaml: valid + "calculationMethods: {hybrid: {enabled: true, baseEloChange: 20, performanceMultiplier: 15}}\n"},
		{name: "not yaml", yaml: "baseElo: [1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRating([]byte(tt.yaml))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestParseRatingDefaultsPriority(t *testing.T) {
	r, err := ParseRating([]byte(`
baseElo: 1200
kFactor: 40
performanceWeights: {kda: 1}
laneStatPriorities:
  MIDDLE: {damage: 1}
`))
	require.NoError(t, err)
	assert.Equal(t, 1200, r.BaseElo)
	assert.Equal(t, AllMethods, r.MethodPriority)
}

func TestCloneIsIndependent(t *testing.T) {
	r := DefaultRating()
	c := r.Clone()
	c.MethodPriority[0] = MethodHybrid
	c.LaneStatPriorities["MIDDLE"][StatDamage] = 9

	assert.Equal(t, MethodTraditional, r.MethodPriority[0])
	assert.Equal(t, 0.35, r.LaneStatPriorities["MIDDLE"][StatDamage])
}

func TestWithAllMethods(t *testing.T) {
	r := DefaultRating()
	all := r.WithAllMethods()

	for _, m := range AllMethods {
		assert.True(t, all.MethodEnabled(m), m)
	}
	assert.False(t, r.MethodEnabled(MethodHybrid))
	assert.False(t, r.MethodEnabled("unknown"))
}

func TestLanePrioritiesFallback(t *testing.T) {
	r := DefaultRating()
	assert.Equal(t, r.LaneStatPriorities["UTILITY"], r.LanePriorities("UTILITY"))
	assert.Equal(t, r.LaneStatPriorities["MIDDLE"], r.LanePriorities("UNKNOWN"))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rating.yaml")
	require.NoError(t, os.WriteFile(path, []byte("baseElo: 1500\nkFactor: 20\nperformanceWeights: {kda: 1}\nlaneStatPriorities: {MIDDLE: {kda: 1}}\n"), 0o600))

	t.Setenv("RATING_CONFIG", path)
	t.Setenv("DB_DRIVER", DriverBolt)

	cfg, err := Load(zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, DriverBolt, cfg.DBDriver)
	assert.Equal(t, 1500, cfg.Rating.BaseElo)
	assert.Equal(t, "8080", cfg.ServerPort)
}

func TestLoadErrors(t *testing.T) {
	t.Run("bad driver", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "postgres")
		_, err := Load(zerolog.Nop())
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("missing rating file", func(t *testing.T) {
		t.Setenv("RATING_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))
		_, err := Load(zerolog.Nop())
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}
