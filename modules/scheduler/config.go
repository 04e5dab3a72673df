package scheduler

import (
	"staking-timetravel/modules/config"
)

type SchedulerConfig struct {
	// Cron spec, e.g. "@every 6h" or "0 */4 * * *".
	Schedule       string `validate:"required"`
	RunImmediately bool
}

func NewSchedulerConfig(dataDir ...string) *config.Config[SchedulerConfig] {
	var dir *string
	if len(dataDir) > 0 {
		dir = &dataDir[0]
	}
	return config.New(SchedulerConfig{
		Schedule:       "@every 6h",
		RunImmediately: true,
	}, dir)
}
