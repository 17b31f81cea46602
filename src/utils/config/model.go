package config

import (
	"time"

	"github.com/spf13/viper"
)

// Vision-language model used for structuring offers
type Model struct {
	BaseUrl string
	ApiKey  string
	Name    string

	// Hard limit for a single call, not retried
	RequestTimeout time.Duration

	Temperature float32
	MaxTokens   int
}

func setModelDefaults() {
	viper.SetDefault("Model.BaseUrl", "https://ark.cn-beijing.volces.com/api/v3")
	viper.SetDefault("Model.ApiKey", "")
	viper.SetDefault("Model.Name", "")
	viper.SetDefault("Model.RequestTimeout", "30s")
	viper.SetDefault("Model.Temperature", "0.1")
	viper.SetDefault("Model.MaxTokens", "512")
}
