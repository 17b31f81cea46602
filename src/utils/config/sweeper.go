package config

import (
	"time"

	"github.com/spf13/viper"
)

type Sweeper struct {
	// Run the sweep inside the serve command
	InProcessEnabled bool

	// Interval of the in-process sweep
	Interval time.Duration

	// Cron schedule of the trigger command
	TriggerSchedule string

	// Sweep endpoint called by the trigger command
	TriggerUrl string

	// Timeout of a single trigger request
	TriggerTimeout time.Duration
}

func setSweeperDefaults() {
	viper.SetDefault("Sweeper.InProcessEnabled", "false")
	viper.SetDefault("Sweeper.Interval", "60s")
	viper.SetDefault("Sweeper.TriggerSchedule", "@every 1m")
	viper.SetDefault("Sweeper.TriggerUrl", "http://127.0.0.1:4000/v1/sweep")
	viper.SetDefault("Sweeper.TriggerTimeout", "55s")
}
