package operations

import (
	"staking-timetravel/modules/common/params"
	"staking-timetravel/modules/config"
)

// AnalysisConfig selects the runtime profile and solver settings. Voter scans
// stop after ScanCoefficient times the voter bound.
type AnalysisConfig struct {
	Chain               string `validate:"oneof=polkadot kusama westend"`
	Solver              string `validate:"oneof=seq-phragmen phragmms"`
	BalancingIterations int    `validate:"gte=0"`
	DposPolicy          string `validate:"oneof=pro-rata pareto"`
	ComputeUnbounded    bool
	Feasibility         bool
	ScanCoefficient     int `validate:"gte=1"`
}

func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		Chain:               "polkadot",
		Solver:              "seq-phragmen",
		BalancingIterations: params.DEFAULT_BALANCING_ITERATIONS,
		DposPolicy:          "pro-rata",
		ComputeUnbounded:    true,
		Feasibility:         false,
		ScanCoefficient:     params.NPOS_MAX_ITERATIONS_COEFFICIENT,
	}
}

func NewAnalysisConfig(dataDir ...string) *config.Config[AnalysisConfig] {
	var dir *string
	if len(dataDir) > 0 {
		dir = &dataDir[0]
	}
	return config.New(DefaultAnalysisConfig(), dir)
}
