package config

import (
	"time"

	"github.com/spf13/viper"
)

type Redis struct {
	// Empty host disables everything that needs redis
	Host     string
	Port     uint16
	User     string
	Password string
	DB       int

	// Connection configuration
	MinIdleConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

func setRedisDefaults() {
	viper.SetDefault("Redis.Host", "")
	viper.SetDefault("Redis.Port", "6379")
	viper.SetDefault("Redis.User", "")
	viper.SetDefault("Redis.Password", "")
	viper.SetDefault("Redis.DB", "0")
	viper.SetDefault("Redis.MinIdleConns", "1")
	viper.SetDefault("Redis.MaxIdleConns", "5")
	viper.SetDefault("Redis.ConnMaxIdleTime", "10m")
	viper.SetDefault("Redis.ConnMaxLifetime", "1h")
}

func (self *Redis) IsEnabled() bool {
	return self.Host != ""
}
