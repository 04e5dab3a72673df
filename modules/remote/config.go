package remote

import (
	"time"

	"staking-timetravel/modules/common/params"
	"staking-timetravel/modules/config"
)

type RemoteConfig struct {
	URI                string `validate:"required,url"`
	ConnectionTimeoutS int    `validate:"gte=1"`
	RequestTimeoutS    int    `validate:"gte=1"`
	RetryDelayMs       int    `validate:"gte=0"`
}

func (c RemoteConfig) ConnectionTimeout() time.Duration {
	return time.Duration(c.ConnectionTimeoutS) * time.Second
}

func (c RemoteConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutS) * time.Second
}

func (c RemoteConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMs) * time.Millisecond
}

func DefaultRemoteConfig() RemoteConfig {
	return RemoteConfig{
		URI:                params.DEFAULT_URI,
		ConnectionTimeoutS: params.DEFAULT_CONNECTION_TIMEOUT_SECS,
		RequestTimeoutS:    params.DEFAULT_REQUEST_TIMEOUT_SECS,
		RetryDelayMs:       1000,
	}
}

func NewRemoteConfig(dataDir ...string) *config.Config[RemoteConfig] {
	var dir *string
	if len(dataDir) > 0 {
		dir = &dataDir[0]
	}
	return config.New(DefaultRemoteConfig(), dir)
}
