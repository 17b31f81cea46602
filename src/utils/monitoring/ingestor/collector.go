package monitor_ingestor

import (
	"go.uber.org/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

type Collector struct {
	monitor *Monitor

	// Run
	UpForSeconds *prometheus.Desc

	// State
	FragmentsReceived    *prometheus.Desc
	FragmentsMerged      *prometheus.Desc
	FragmentsReplaced    *prometheus.Desc
	SubmissionsCreated   *prometheus.Desc
	DuplicatesDropped    *prometheus.Desc
	UnknownSenders       *prometheus.Desc
	DeferredChecksArmed  *prometheus.Desc
	DeferredChecksFired  *prometheus.Desc
	SweepsRun            *prometheus.Desc
	SubmissionsProcessed *prometheus.Desc
	AlreadyProcessing    *prometheus.Desc
	OffersCreated        *prometheus.Desc
	StuckPurged          *prometheus.Desc
	Rejected             *prometheus.Desc
	ImagesUploaded       *prometheus.Desc
	ImagesReused         *prometheus.Desc

	// Errors
	Failures *prometheus.Desc
}

func NewCollector() *Collector {
	return &Collector{
		UpForSeconds: prometheus.NewDesc("up_for_seconds", "", nil, nil),

		FragmentsReceived:    prometheus.NewDesc("ingestor_fragments_received", "", nil, nil),
		FragmentsMerged:      prometheus.NewDesc("ingestor_fragments_merged", "", nil, nil),
		FragmentsReplaced:    prometheus.NewDesc("ingestor_fragments_replaced", "", nil, nil),
		SubmissionsCreated:   prometheus.NewDesc("ingestor_submissions_created", "", nil, nil),
		DuplicatesDropped:    prometheus.NewDesc("ingestor_duplicates_dropped", "", nil, nil),
		UnknownSenders:       prometheus.NewDesc("ingestor_unknown_senders", "", nil, nil),
		DeferredChecksArmed:  prometheus.NewDesc("ingestor_deferred_checks_armed", "", nil, nil),
		DeferredChecksFired:  prometheus.NewDesc("ingestor_deferred_checks_fired", "", nil, nil),
		SweepsRun:            prometheus.NewDesc("ingestor_sweeps_run", "", nil, nil),
		SubmissionsProcessed: prometheus.NewDesc("ingestor_submissions_processed", "", nil, nil),
		AlreadyProcessing:    prometheus.NewDesc("ingestor_already_processing", "", nil, nil),
		OffersCreated:        prometheus.NewDesc("ingestor_offers_created", "", nil, nil),
		StuckPurged:          prometheus.NewDesc("ingestor_stuck_purged", "", nil, nil),
		Rejected:             prometheus.NewDesc("ingestor_rejected", "", []string{"reason"}, nil),
		ImagesUploaded:       prometheus.NewDesc("ingestor_images_uploaded", "", nil, nil),
		ImagesReused:         prometheus.NewDesc("ingestor_images_reused", "", nil, nil),

		Failures: prometheus.NewDesc("ingestor_failures", "", []string{"kind"}, nil),
	}
}

func (self *Collector) WithMonitor(m *Monitor) *Collector {
	self.monitor = m
	return self
}

func (self *Collector) Describe(ch chan<- *prometheus.Desc) {
	// Run
	ch <- self.UpForSeconds

	// State
	ch <- self.FragmentsReceived
	ch <- self.FragmentsMerged
	ch <- self.FragmentsReplaced
	ch <- self.SubmissionsCreated
	ch <- self.DuplicatesDropped
	ch <- self.UnknownSenders
	ch <- self.DeferredChecksArmed
	ch <- self.DeferredChecksFired
	ch <- self.SweepsRun
	ch <- self.SubmissionsProcessed
	ch <- self.AlreadyProcessing
	ch <- self.OffersCreated
	ch <- self.StuckPurged
	ch <- self.Rejected
	ch <- self.ImagesUploaded
	ch <- self.ImagesReused

	// Errors
	ch <- self.Failures
}

func counter(ch chan<- prometheus.Metric, desc *prometheus.Desc, v *atomic.Uint64, labels ...string) {
	ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(v.Load()), labels...)
}

// Collect implements required collect function for all promehteus collectors
func (self *Collector) Collect(ch chan<- prometheus.Metric) {
	// Run
	self.monitor.fill()
	ch <- prometheus.MustNewConstMetric(self.UpForSeconds, prometheus.GaugeValue, float64(self.monitor.Report.Run.State.UpForSeconds.Load()))

	// State
	state := &self.monitor.Report.Ingestor.State
	counter(ch, self.FragmentsReceived, &state.FragmentsReceived)
	counter(ch, self.FragmentsMerged, &state.FragmentsMerged)
	counter(ch, self.FragmentsReplaced, &state.FragmentsReplaced)
	counter(ch, self.SubmissionsCreated, &state.SubmissionsCreated)
	counter(ch, self.DuplicatesDropped, &state.DuplicatesDropped)
	counter(ch, self.UnknownSenders, &state.UnknownSenders)
	counter(ch, self.DeferredChecksArmed, &state.DeferredChecksArmed)
	counter(ch, self.DeferredChecksFired, &state.DeferredChecksFired)
	counter(ch, self.SweepsRun, &state.SweepsRun)
	counter(ch, self.SubmissionsProcessed, &state.SubmissionsProcessed)
	counter(ch, self.AlreadyProcessing, &state.AlreadyProcessing)
	counter(ch, self.OffersCreated, &state.OffersCreated)
	counter(ch, self.StuckPurged, &state.StuckPurged)
	counter(ch, self.Rejected, &state.RejectedMissingProduct, "MISSING_PRODUCT")
	counter(ch, self.Rejected, &state.RejectedMissingPrice, "MISSING_PRICE")
	counter(ch, self.Rejected, &state.RejectedMissingBoth, "MISSING_BOTH")
	counter(ch, self.Rejected, &state.RejectedUnclear, "UNCLEAR_MESSAGE")
	counter(ch, self.ImagesUploaded, &state.ImagesUploaded)
	counter(ch, self.ImagesReused, &state.ImagesReused)

	// Errors
	errors := &self.monitor.Report.Ingestor.Errors
	counter(ch, self.Failures, &errors.StoreFailures, "store")
	counter(ch, self.Failures, &errors.ModelFailures, "model")
	counter(ch, self.Failures, &errors.MediaFetchFailures, "media_fetch")
	counter(ch, self.Failures, &errors.ImageUploadFailures, "image_upload")
	counter(ch, self.Failures, &errors.ImageCatalogFailures, "image_catalog")
	counter(ch, self.Failures, &errors.OfferInsertFailures, "offer_insert")
	counter(ch, self.Failures, &errors.NoticeFailures, "notice")
	counter(ch, self.Failures, &errors.DeferredCheckFailures, "deferred_check")
	counter(ch, self.Failures, &errors.SweepFailures, "sweep")
}
