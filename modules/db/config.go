package db

import "staking-timetravel/modules/config"

type DbConfig struct {
	DbURI    string `validate:"required,startswith=mongodb"`
	DbName   string `validate:"required"`
	Enabled  bool
	TimeoutS int `validate:"gte=1"`
}

func NewDbConfig(dataDir ...string) *config.Config[DbConfig] {
	var dir *string
	if len(dataDir) > 0 {
		dir = &dataDir[0]
	}
	return config.New(DbConfig{
		DbURI:    "mongodb://localhost:27017",
		DbName:   "staking-timetravel",
		Enabled:  false,
		TimeoutS: 10,
	}, dir)
}
