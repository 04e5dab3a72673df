package report

import (
	"staking-timetravel/modules/common/params"
	"staking-timetravel/modules/config"
)

type OutputConfig struct {
	OutputPath string `validate:"required"`
	// Mirror every row into mongo as well.
	MongoSink bool
}

func NewOutputConfig(dataDir ...string) *config.Config[OutputConfig] {
	var dir *string
	if len(dataDir) > 0 {
		dir = &dataDir[0]
	}
	return config.New(OutputConfig{
		OutputPath: params.DEFAULT_OUTPUT_PATH,
	}, dir)
}
