package config

import (
	"bytes"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

const (
	MethodTraditional    = "traditional"
	MethodLaneComparison = "laneComparison"
	MethodHybrid         = "hybrid"
	MethodNone           = "none"
)

// DefaultLaneRole is the lane priority table used for roles without their own entry.
const DefaultLaneRole = "MIDDLE"

const (
	StatDamage     = "damage"
	StatFarm       = "farm"
	StatKDA        = "kda"
	StatVision     = "vision"
	StatObjectives = "objectives"
	StatSurvival   = "survival"
	StatUtility    = "utility"
)

var (
	AllMethods = []string{MethodTraditional, MethodLaneComparison, MethodHybrid}
	AllStats   = []string{StatDamage, StatFarm, StatKDA, StatVision, StatObjectives, StatSurvival, StatUtility}
)

// Rating is the immutable tuning of the rating engine. Values are passed by
// copy; Clone must be used before changing any map or slice field.
type Rating struct {
	BaseElo            int                           `yaml:"baseElo"`
	KFactor            float64                       `yaml:"kFactor"`
	PerformanceWeights PerformanceWeights            `yaml:"performanceWeights"`
	LaneStatPriorities map[string]map[string]float64 `yaml:"laneStatPriorities"`
	MethodPriority     []string                      `yaml:"methodPriority"`
	CalculationMethods CalculationMethods            `yaml:"calculationMethods"`
}

type PerformanceWeights struct {
	KDA        float64 `yaml:"kda"`
	Damage     float64 `yaml:"damage"`
	Vision     float64 `yaml:"vision"`
	Objectives float64 `yaml:"objectives"`
	Farm       float64 `yaml:"farm"`
	Survival   float64 `yaml:"survival"`
	Utility    float64 `yaml:"utility"`
}

func (w PerformanceWeights) sum() float64 {
	return w.KDA + w.Damage + w.Vision + w.Objectives + w.Farm + w.Survival + w.Utility
}

type CalculationMethods struct {
	Traditional    TraditionalMethod    `yaml:"traditional"`
	LaneComparison LaneComparisonMethod `yaml:"laneComparison"`
	Hybrid         HybridMethod         `yaml:"hybrid"`
}

type TraditionalMethod struct {
	Enabled             bool    `yaml:"enabled"`
	TeamResultWeight    float64 `yaml:"teamResultWeight"`
	PerformanceWeight   float64 `yaml:"performanceWeight"`
	MinPerformanceBonus float64 `yaml:"minPerformanceBonus"`
	MaxPerformanceBonus float64 `yaml:"maxPerformanceBonus"`
}

type LaneComparisonMethod struct {
	Enabled            bool    `yaml:"enabled"`
	LaneWeight         float64 `yaml:"laneWeight"`
	TeamWeight         float64 `yaml:"teamWeight"`
	IndividualWeight   float64 `yaml:"individualWeight"`
	MaxLaneBonus       float64 `yaml:"maxLaneBonus"`
	MaxTeamBonus       float64 `yaml:"maxTeamBonus"`
	MaxIndividualBonus float64 `yaml:"maxIndividualBonus"`
}

type HybridMethod struct {
	Enabled               bool    `yaml:"enabled"`
	BaseEloChange         float64 `yaml:"baseEloChange"`
	PerformanceMultiplier float64 `yaml:"performanceMultiplier"`
	WinBonusReduction     float64 `yaml:"winBonusReduction"`
}

func DefaultRating() Rating {
	return Rating{
		BaseElo: 1000,
		KFactor: 64,
		PerformanceWeights: PerformanceWeights{
			KDA:        0.25,
			Damage:     0.2,
			Vision:     0.1,
			Objectives: 0.15,
			Farm:       0.1,
			Survival:   0.1,
			Utility:    0.1,
		},
		LaneStatPriorities: map[string]map[string]float64{
			"TOP":     {StatDamage: 0.3, StatFarm: 0.25, StatKDA: 0.2, StatSurvival: 0.15, StatObjectives: 0.1},
			"JUNGLE":  {StatObjectives: 0.35, StatKDA: 0.2, StatVision: 0.2, StatDamage: 0.15, StatFarm: 0.1},
			"MIDDLE":  {StatDamage: 0.35, StatKDA: 0.25, StatFarm: 0.2, StatVision: 0.1, StatObjectives: 0.1},
			"BOTTOM":  {StatDamage: 0.35, StatFarm: 0.3, StatKDA: 0.2, StatSurvival: 0.15},
			"UTILITY": {StatVision: 0.35, StatUtility: 0.35, StatKDA: 0.2, StatSurvival: 0.1},
		},
		MethodPriority: []string{MethodTraditional, MethodLaneComparison, MethodHybrid},
		CalculationMethods: CalculationMethods{
			Traditional: TraditionalMethod{
				Enabled:             true,
				TeamResultWeight:    0.7,
				PerformanceWeight:   0.3,
				MinPerformanceBonus: -20,
				MaxPerformanceBonus: 20,
			},
			LaneComparison: LaneComparisonMethod{
				Enabled:            false,
				LaneWeight:         0.4,
				TeamWeight:         0.4,
				IndividualWeight:   0.2,
				MaxLaneBonus:       20,
				MaxTeamBonus:       20,
				MaxIndividualBonus: 15,
			},
			Hybrid: HybridMethod{
				Enabled:               false,
				BaseEloChange:         20,
				PerformanceMultiplier: 15,
				WinBonusReduction:     0.5,
			},
		},
	}
}

// LoadRating decodes and validates a YAML rating file. Unknown keys are rejected.
func LoadRating(path string) (Rating, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rating{}, fmt.Errorf("%w: read rating config %s: %v", ErrInvalidConfig, path, err)
	}
	return ParseRating(data)
}

func ParseRating(data []byte) (Rating, error) {
	var r Rating
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&r); err != nil {
		return Rating{}, fmt.Errorf("%w: decode rating config: %v", ErrInvalidConfig, err)
	}

	if len(r.MethodPriority) == 0 {
		r.MethodPriority = slices.Clone(AllMethods)
	}

	if err := r.Validate(); err != nil {
		return Rating{}, err
	}
	return r, nil
}

func (r Rating) Validate() error {
	if r.BaseElo <= 0 {
		return fmt.Errorf("%w: baseElo must be positive", ErrInvalidConfig)
	}
	if r.KFactor <= 0 {
		return fmt.Errorf("%w: kFactor must be positive", ErrInvalidConfig)
	}
	if r.PerformanceWeights.sum() <= 0 {
		return fmt.Errorf("%w: performanceWeights are required", ErrInvalidConfig)
	}
	if _, ok := r.LaneStatPriorities[DefaultLaneRole]; !ok {
		return fmt.Errorf("%w: laneStatPriorities must include %s", ErrInvalidConfig, DefaultLaneRole)
	}
	for role, weights := range r.LaneStatPriorities {
		for stat := range weights {
			if !slices.Contains(AllStats, stat) {
				return fmt.Errorf("%w: laneStatPriorities.%s: unknown stat %q", ErrInvalidConfig, role, stat)
			}
		}
	}

	seen := make(map[string]bool, len(r.MethodPriority))
	for _, m := range r.MethodPriority {
		if !slices.Contains(AllMethods, m) {
			return fmt.Errorf("%w: methodPriority: unknown method %q", ErrInvalidConfig, m)
		}
		if seen[m] {
			return fmt.Errorf("%w: methodPriority: duplicate method %q", ErrInvalidConfig, m)
		}
		seen[m] = true
	}

	t := r.CalculationMethods.Traditional
	if t.MinPerformanceBonus > t.MaxPerformanceBonus {
		return fmt.Errorf("%w: traditional.minPerformanceBonus exceeds maxPerformanceBonus", ErrInvalidConfig)
	}
	return r.CalculationMethods.validateEnabled()
}

// validateEnabled rejects enabled methods whose tuning fields are missing.
func (m CalculationMethods) validateEnabled() error {
	if t := m.Traditional; t.Enabled {
		if t.TeamResultWeight < 0 || t.PerformanceWeight < 0 || t.TeamResultWeight+t.PerformanceWeight <= 0 {
			return fmt.Errorf("%w: traditional.teamResultWeight and performanceWeight are required", ErrInvalidConfig)
		}
		if t.MinPerformanceBonus == 0 && t.MaxPerformanceBonus == 0 {
			return fmt.Errorf("%w: traditional performance bonus bounds are required", ErrInvalidConfig)
		}
	}
	if l := m.LaneComparison; l.Enabled {
		if l.LaneWeight < 0 || l.TeamWeight < 0 || l.IndividualWeight < 0 ||
			l.LaneWeight+l.TeamWeight+l.IndividualWeight <= 0 {
			return fmt.Errorf("%w: laneComparison weights are required", ErrInvalidConfig)
		}
		if l.MaxLaneBonus < 0 || l.MaxTeamBonus < 0 || l.MaxIndividualBonus < 0 ||
			l.MaxLaneBonus+l.MaxTeamBonus+l.MaxIndividualBonus <= 0 {
			return fmt.Errorf("%w: laneComparison max bonuses are required", ErrInvalidConfig)
		}
	}
	if h := m.Hybrid; h.Enabled {
		if h.BaseEloChange <= 0 {
			return fmt.Errorf("%w: hybrid.baseEloChange must be positive", ErrInvalidConfig)
		}
		if h.PerformanceMultiplier <= 0 {
			return fmt.Errorf("%w: hybrid.performanceMultiplier must be positive", ErrInvalidConfig)
		}
		if h.WinBonusReduction <= 0 {
			return fmt.Errorf("%w: hybrid.winBonusReduction must be positive", ErrInvalidConfig)
		}
	}
	return nil
}

// Clone returns a deep copy that can be modified without touching r.
func (r Rating) Clone() Rating {
	c := r
	c.MethodPriority = slices.Clone(r.MethodPriority)
	c.LaneStatPriorities = make(map[string]map[string]float64, len(r.LaneStatPriorities))
	for role, weights := range r.LaneStatPriorities {
		w := make(map[string]float64, len(weights))
		for k, v := range weights {
			w[k] = v
		}
		c.LaneStatPriorities[role] = w
	}
	return c
}

// WithAllMethods returns a clone with every method enabled, for comparison runs.
func (r Rating) WithAllMethods() Rating {
	c := r.Clone()
	c.CalculationMethods.Traditional.Enabled = true
	c.CalculationMethods.LaneComparison.Enabled = true
	c.CalculationMethods.Hybrid.Enabled = true
	return c
}

func (r Rating) MethodEnabled(name string) bool {
	switch name {
	case MethodTraditional:
		return r.CalculationMethods.Traditional.Enabled
	case MethodLaneComparison:
		return r.CalculationMethods.LaneComparison.Enabled
	case MethodHybrid:
		return r.CalculationMethods.Hybrid.Enabled
	}
	return false
}

// LanePriorities returns the weight table for role, falling back to MIDDLE.
func (r Rating) LanePriorities(role string) map[string]float64 {
	if p, ok := r.LaneStatPriorities[role]; ok {
		return p
	}
	return r.LaneStatPriorities[DefaultLaneRole]
}
