package config

import (
	"time"

	"github.com/spf13/viper"
)

type Ingest struct {
	// Fragments arriving within this time from the last update are appended to the pending submission
	MergeWindow time.Duration

	// Submission is ready when it wasn't updated for this long
	QuietPeriod time.Duration

	// Added to the quiet period when arming the deferred check
	SafetyMargin time.Duration

	// Submission is ready after this time since creation, even if fragments keep coming
	MaxAccumulation time.Duration

	// Records left in processing state for longer are removed by the sweep
	ProcessingTimeout time.Duration

	// Where deferred checks are scheduled: "local" or "asynq"
	DeferredCheckBackend string

	// Asynq queue used for deferred checks
	DeferredCheckQueue string

	// Offers expire after this time
	OfferValidity time.Duration

	// Send a short confirmation after an offer is created
	ConfirmOffers bool

	// Number of workers processing ready submissions
	NumWorkers int

	// Max number of ready submissions fetched by one sweep
	SweepBatchSize int

	// Max number of structuring model calls per second, 0 is unlimited
	ModelCallsPerSecond int

	// Timeout for storing and deleting pending submissions
	StoreTimeout time.Duration
}

func setIngestDefaults() {
	viper.SetDefault("Ingest.MergeWindow", "20s")
	viper.SetDefault("Ingest.QuietPeriod", "15s")
	viper.SetDefault("Ingest.SafetyMargin", "1s")
	viper.SetDefault("Ingest.MaxAccumulation", "5m")
	viper.SetDefault("Ingest.ProcessingTimeout", "10m")
	viper.SetDefault("Ingest.DeferredCheckBackend", "local")
	viper.SetDefault("Ingest.DeferredCheckQueue", "ingest")
	viper.SetDefault("Ingest.OfferValidity", "168h")
	viper.SetDefault("Ingest.ConfirmOffers", "true")
	viper.SetDefault("Ingest.NumWorkers", "8")
	viper.SetDefault("Ingest.SweepBatchSize", "200")
	viper.SetDefault("Ingest.ModelCallsPerSecond", "5")
	viper.SetDefault("Ingest.StoreTimeout", "10s")
}
