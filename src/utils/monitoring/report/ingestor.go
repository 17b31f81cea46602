package report

import "go.uber.org/atomic"

type IngestorErrors struct {
	StoreFailures         atomic.Uint64 `json:"store_failures"`
	ModelFailures         atomic.Uint64 `json:"model_failures"`
	MediaFetchFailures    atomic.Uint64 `json:"media_fetch_failures"`
	ImageUploadFailures   atomic.Uint64 `json:"image_upload_failures"`
	ImageCatalogFailures  atomic.Uint64 `json:"image_catalog_failures"`
	OfferInsertFailures   atomic.Uint64 `json:"offer_insert_failures"`
	NoticeFailures        atomic.Uint64 `json:"notice_failures"`
	DeferredCheckFailures atomic.Uint64 `json:"deferred_check_failures"`
	SweepFailures         atomic.Uint64 `json:"sweep_failures"`
}

type IngestorState struct {
	FragmentsReceived   atomic.Uint64 `json:"fragments_received"`
	FragmentsMerged     atomic.Uint64 `json:"fragments_merged"`
	FragmentsReplaced   atomic.Uint64 `json:"fragments_replaced"`
	SubmissionsCreated  atomic.Uint64 `json:"submissions_created"`
	DuplicatesDropped   atomic.Uint64 `json:"duplicates_dropped"`
	UnknownSenders      atomic.Uint64 `json:"unknown_senders"`
	DeferredChecksArmed atomic.Uint64 `json:"deferred_checks_armed"`
	DeferredChecksFired atomic.Uint64 `json:"deferred_checks_fired"`
	SweepsRun           atomic.Uint64 `json:"sweeps_run"`

	SubmissionsProcessed atomic.Uint64 `json:"submissions_processed"`
	AlreadyProcessing    atomic.Uint64 `json:"already_processing"`
	OffersCreated        atomic.Uint64 `json:"offers_created"`
	StuckPurged          atomic.Uint64 `json:"stuck_purged"`

	RejectedMissingProduct atomic.Uint64 `json:"rejected_missing_product"`
	RejectedMissingPrice   atomic.Uint64 `json:"rejected_missing_price"`
	RejectedMissingBoth    atomic.Uint64 `json:"rejected_missing_both"`
	RejectedUnclear        atomic.Uint64 `json:"rejected_unclear"`

	ImagesUploaded atomic.Uint64 `json:"images_uploaded"`
	ImagesReused   atomic.Uint64 `json:"images_reused"`

	AverageOffersCreatedPerMinute atomic.Float64 `json:"average_offers_created_per_minute"`
}

type IngestorReport struct {
	State  IngestorState  `json:"state"`
	Errors IngestorErrors `json:"errors"`
}
