package config

import (
	"time"

	"github.com/spf13/viper"
)

type WhatsApp struct {
	// Graph API base url, including the version
	ApiUrl string

	// Id of the business phone number messages are sent from
	PhoneNumberId string

	// Permanent access token
	AccessToken string

	// Timeout of a single request
	RequestTimeout time.Duration

	// Outgoing messages limit
	LimiterInterval  time.Duration
	LimiterBurstSize int

	// Retrying failed notices, 0 is no limit
	NoticeMaxElapsedTime time.Duration
	NoticeMaxInterval    time.Duration

	// Max size of a downloaded media file
	MaxMediaSize int64
}

func setWhatsAppDefaults() {
	viper.SetDefault("WhatsApp.ApiUrl", "https://graph.facebook.com/v19.0")
	viper.SetDefault("WhatsApp.PhoneNumberId", "")
	viper.SetDefault("WhatsApp.AccessToken", "")
	viper.SetDefault("WhatsApp.RequestTimeout", "15s")
	viper.SetDefault("WhatsApp.LimiterInterval", "50ms")
	viper.SetDefault("WhatsApp.LimiterBurstSize", "10")
	viper.SetDefault("WhatsApp.NoticeMaxElapsedTime", "20s")
	viper.SetDefault("WhatsApp.NoticeMaxInterval", "5s")
	viper.SetDefault("WhatsApp.MaxMediaSize", "10485760")
}
