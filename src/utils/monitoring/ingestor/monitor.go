package monitor_ingestor

import (
	"math"
	"net/http"
	"time"

	"github.com/wochenmarkt/ingestor/src/utils/monitoring/report"
	"github.com/wochenmarkt/ingestor/src/utils/task"

	"github.com/gammazero/deque"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Stores and computes monitor counters
type Monitor struct {
	*task.Task

	Report report.Report

	historySize int

	collector *Collector

	// Offer creation speed
	OffersCreated *deque.Deque[uint64]
}

func NewMonitor() (self *Monitor) {
	self = new(Monitor)

	self.Report = report.Report{
		Run:      &report.RunReport{},
		Ingestor: &report.IngestorReport{},
	}

	// Initialization
	self.Report.Run.State.StartTimestamp.Store(time.Now().Unix())

	self.collector = NewCollector().WithMonitor(self)

	self.Task = task.NewTask(nil, "monitor").
		WithPeriodicSubtaskFunc(time.Minute, self.monitorOffers)

	return self.WithMaxHistorySize(30)
}

func (self *Monitor) GetReport() *report.Report {
	return &self.Report
}

func (self *Monitor) WithMaxHistorySize(maxHistorySize int) *Monitor {
	self.historySize = maxHistorySize
	self.OffersCreated = deque.New[uint64](self.historySize)
	return self
}

func (self *Monitor) GetPrometheusCollector() (collector prometheus.Collector) {
	return self.collector
}

func round(f float64) float64 {
	return math.Round(f*100) / 100
}

// Measure offer creation speed
func (self *Monitor) monitorOffers() (err error) {
	loaded := self.Report.Ingestor.State.OffersCreated.Load()

	self.OffersCreated.PushBack(loaded)
	if self.OffersCreated.Len() > self.historySize {
		self.OffersCreated.PopFront()
	}
	if self.OffersCreated.Len() < 2 {
		return
	}
	value := float64(self.OffersCreated.Back()-self.OffersCreated.Front()) / float64(self.OffersCreated.Len()-1)
	self.Report.Ingestor.State.AverageOffersCreatedPerMinute.Store(round(value))
	return
}

// Too many failing model or store calls mean the pipeline is effectively down
func (self *Monitor) IsOK() bool {
	state := &self.Report.Ingestor.State
	errors := &self.Report.Ingestor.Errors

	processed := state.SubmissionsProcessed.Load()
	if processed < 20 {
		return true
	}
	failed := errors.ModelFailures.Load() + errors.StoreFailures.Load() + errors.OfferInsertFailures.Load()
	return float64(failed)/float64(processed) < 0.5
}

func (self *Monitor) fill() {
	self.Report.Run.State.UpForSeconds.Store(uint64(time.Now().Unix() - self.Report.Run.State.StartTimestamp.Load()))
}

func (self *Monitor) OnGetState(c *gin.Context) {
	self.fill()
	c.JSON(http.StatusOK, &self.Report)
}

func (self *Monitor) OnGetHealth(c *gin.Context) {
	if self.IsOK() {
		c.Status(http.StatusOK)
	} else {
		c.Status(http.StatusServiceUnavailable)
	}
}
