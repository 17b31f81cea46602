package config

import (
	"time"

	"github.com/spf13/viper"
)

type Gateway struct {
	// Address of the public API: webhook and sweep endpoints
	ServerListenAddress string

	// Maximum time a request may take
	ServerRequestTimeout time.Duration

	// Token WhatsApp sends back in the verification handshake
	WebhookVerifyToken string

	// Bearer secret required by the sweep endpoint
	SweepSecret string

	// How long webhook message ids are remembered for deduplication
	DedupTTL time.Duration
}

func setGatewayDefaults() {
	viper.SetDefault("Gateway.ServerListenAddress", "0.0.0.0:4000")
	viper.SetDefault("Gateway.ServerRequestTimeout", "50s")
	viper.SetDefault("Gateway.WebhookVerifyToken", "")
	viper.SetDefault("Gateway.SweepSecret", "")
	viper.SetDefault("Gateway.DedupTTL", "15m")
}
