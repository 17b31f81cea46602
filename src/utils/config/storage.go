package config

import (
	"time"

	"github.com/spf13/viper"
)

// S3 compatible object storage for product images
type Storage struct {
	Endpoint string
	Region   string

	// Empty bucket disables uploads, images are then only reused from the library
	Bucket       string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool

	// Public urls are built as PublicBaseUrl + "/" + key
	PublicBaseUrl string

	// Set public-read ACL on uploads, for buckets that still use ACLs
	PublicReadAcl bool

	// Prefix of all uploaded objects
	KeyPrefix string

	// Hard limit for a single upload, not retried
	UploadTimeout time.Duration
}

func setStorageDefaults() {
	viper.SetDefault("Storage.Endpoint", "http://127.0.0.1:9000")
	viper.SetDefault("Storage.Region", "eu-central-1")
	viper.SetDefault("Storage.Bucket", "")
	viper.SetDefault("Storage.AccessKey", "")
	viper.SetDefault("Storage.SecretKey", "")
	viper.SetDefault("Storage.UsePathStyle", "true")
	viper.SetDefault("Storage.PublicBaseUrl", "http://127.0.0.1:9000/offer-images")
	viper.SetDefault("Storage.PublicReadAcl", "false")
	viper.SetDefault("Storage.KeyPrefix", "offers")
	viper.SetDefault("Storage.UploadTimeout", "20s")
}
