package ingest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wochenmarkt/ingestor/src/utils/config"
	"github.com/wochenmarkt/ingestor/src/utils/model"
	monitor_ingestor "github.com/wochenmarkt/ingestor/src/utils/monitoring/ingestor"
	"github.com/wochenmarkt/ingestor/src/utils/whatsapp"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

const (
	testSender = "491701234567"
	tomatoes   = `{"product_name": "Tomaten", "price": "2.49", "unit": "500g", "description": "Sonnengereifte Tomaten vom Hof", "category": "Gemüse"}`
)

func TestPipelineTestSuite(t *testing.T) {
	suite.Run(t, new(PipelineTestSuite))
}

type PipelineTestSuite struct {
	suite.Suite
	ctx    context.Context
	cancel context.CancelFunc
	config *config.Config

	db       *gorm.DB
	clock    *testClock
	market   *model.Market
	model    *fakeModel
	sender   *fakeSender
	media    *fakeMedia
	uploader *fakeUploader
	monitor  *monitor_ingestor.Monitor

	store     *Store
	merger    *Merger
	processor *Processor
	scheduler *Scheduler
}

func (s *PipelineTestSuite) SetupSuite() {
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.config = config.Default()
	s.config.Ingest.ModelCallsPerSecond = 0
	s.config.Ingest.ConfirmOffers = false
	s.config.Storage.KeyPrefix = "offers"
}

func (s *PipelineTestSuite) TearDownSuite() {
	s.cancel()
}

func (s *PipelineTestSuite) SetupTest() {
	var err error
	s.db, err = newTestDB()
	require.NoError(s.T(), err)

	s.market = &model.Market{Name: "Hofladen Sonnenschein", WhatsappNumber: testSender}
	require.NoError(s.T(), s.db.Create(s.market).Error)

	s.clock = newTestClock()
	s.model = &fakeModel{response: tomatoes}
	s.sender = &fakeSender{}
	s.media = &fakeMedia{media: map[string]*whatsapp.Media{
		"media-1": {ID: "media-1", MimeType: "image/jpeg", Data: []byte{0xff, 0xd8, 0xff, 0xe0}},
		"media-2": {ID: "media-2", MimeType: "image/png", Data: []byte{0x89, 0x50, 0x4e, 0x47}},
	}}
	s.uploader = &fakeUploader{}
	s.monitor = monitor_ingestor.NewMonitor()

	s.store = NewStore(s.db)

	s.merger = NewMerger(s.config).
		WithStore(s.store).
		WithMonitor(s.monitor).
		WithClock(s.clock.Now)

	notifier := NewNotifier(s.config).
		WithSender(s.sender).
		WithMonitor(s.monitor)

	engine := NewEngine(s.config).
		WithModel(s.model).
		WithMonitor(s.monitor)

	resolver := NewResolver(s.config).
		WithStore(s.store).
		WithUploader(s.uploader).
		WithMonitor(s.monitor).
		WithClock(s.clock.Now)

	s.processor = NewProcessor(s.config).
		WithStore(s.store).
		WithEngine(engine).
		WithResolver(resolver).
		WithNotifier(notifier).
		WithMediaFetcher(s.media).
		WithMonitor(s.monitor).
		WithClock(s.clock.Now)

	s.scheduler = NewScheduler(s.config).
		WithStore(s.store).
		WithProcessor(s.processor).
		WithMonitor(s.monitor).
		WithClock(s.clock.Now)
}

func (s *PipelineTestSuite) submit(caption, imageRef, transportId string) *model.PendingSubmission {
	out, err := s.merger.SubmitFragment(s.ctx, &Fragment{
		Sender:             testSender,
		MarketID:           s.market.ID,
		Caption:            caption,
		ImageRef:           imageRef,
		TransportMessageID: transportId,
	})
	require.NoError(s.T(), err)
	require.NotNil(s.T(), out)
	return out
}

func (s *PipelineTestSuite) pending() (out []*model.PendingSubmission) {
	require.NoError(s.T(), s.db.Order("id").Find(&out).Error)
	return
}

func (s *PipelineTestSuite) offers() (out []*model.Offer) {
	require.NoError(s.T(), s.db.Order("id").Find(&out).Error)
	return
}

func (s *PipelineTestSuite) TestMergeWithinWindow() {
	s.submit("Erdbeeren", "", "wamid.1")
	s.clock.Advance(3 * time.Second)
	s.submit("", "media-1", "wamid.2")
	s.clock.Advance(3 * time.Second)
	s.submit("aus eigenem Anbau", "media-2", "wamid.3")
	s.clock.Advance(3 * time.Second)
	s.submit("  ", "", "wamid.4")
	s.clock.Advance(3 * time.Second)
	s.submit("500g 3,50€", "", "wamid.5")

	pending := s.pending()
	require.Len(s.T(), pending, 1)
	assert.Equal(s.T(), "Erdbeeren\naus eigenem Anbau\n500g 3,50€", pending[0].CaptionText())
	assert.Equal(s.T(), "media-2", pending[0].ImageRef.String)
	assert.Equal(s.T(), "wamid.5", pending[0].TransportMessageID)
	assert.Equal(s.T(), s.clock.Now(), pending[0].LastUpdatedAt.UTC())
	assert.Equal(s.T(), int64(5), pending[0].Version)
	assert.Equal(s.T(), uint64(4), s.monitor.Report.Ingestor.State.FragmentsMerged.Load())
}

func (s *PipelineTestSuite) TestStaleFragmentReplaces() {
	s.submit("Spargel 1kg 12€", "media-1", "wamid.1")
	s.clock.Advance(s.config.Ingest.MergeWindow + time.Second)
	s.submit("Rhabarber", "", "wamid.2")

	pending := s.pending()
	require.Len(s.T(), pending, 1)
	assert.Equal(s.T(), "Rhabarber", pending[0].CaptionText())
	assert.False(s.T(), pending[0].HasImage())
	assert.Equal(s.T(), s.clock.Now(), pending[0].CreatedAt.UTC())
	assert.Equal(s.T(), uint64(1), s.monitor.Report.Ingestor.State.FragmentsReplaced.Load())
}

func (s *PipelineTestSuite) TestSendersAreIndependent() {
	other := &model.Market{Name: "Bäckerei Korn", WhatsappNumber: "491709999999"}
	require.NoError(s.T(), s.db.Create(other).Error)

	s.submit("Brot 4€", "", "wamid.1")
	_, err := s.merger.SubmitFragment(s.ctx, &Fragment{
		Sender:             other.WhatsappNumber,
		MarketID:           other.ID,
		Caption:            "Brötchen 0,50€",
		TransportMessageID: "wamid.2",
	})
	require.NoError(s.T(), err)

	pending := s.pending()
	require.Len(s.T(), pending, 2)
	assert.Equal(s.T(), "Brot 4€", pending[0].CaptionText())
	assert.Equal(s.T(), "Brötchen 0,50€", pending[1].CaptionText())
}

func (s *PipelineTestSuite) TestProcessingRecordIsNotMergedInto() {
	first := s.submit("Kirschen", "", "wamid.1")
	require.NoError(s.T(), s.store.MarkProcessing(s.ctx, first, s.clock.Now()))

	second := s.submit("Pflaumen 2€", "", "wamid.2")
	assert.NotEqual(s.T(), first.ID, second.ID)

	pending := s.pending()
	require.Len(s.T(), pending, 2)
	assert.Equal(s.T(), "Kirschen", pending[0].CaptionText())
	assert.Equal(s.T(), "Pflaumen 2€", pending[1].CaptionText())
}

func (s *PipelineTestSuite) TestConcurrentFragmentsKeepAllCaptions() {
	s.submit("Start", "", "wamid.0")

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.merger.SubmitFragment(s.ctx, &Fragment{
				Sender:             testSender,
				MarketID:           s.market.ID,
				Caption:            "Zeile",
				TransportMessageID: "wamid.x",
			})
			assert.NoError(s.T(), err)
		}(i)
	}
	wg.Wait()

	pending := s.pending()
	require.Len(s.T(), pending, 1)
	assert.Equal(s.T(), 6, len(strings.Split(pending[0].CaptionText(), "\n")))
}

func (s *PipelineTestSuite) TestAtMostOnceValidation() {
	s.model.delay = 20 * time.Millisecond
	submission := s.submit("Tomaten 500g 2,49€", "", "wamid.1")
	s.clock.Advance(s.config.Ingest.QuietPeriod)

	var (
		wg       sync.WaitGroup
		mtx      sync.Mutex
		outcomes []Outcome
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			copied := *submission
			outcome, err := s.processor.Process(s.ctx, &copied)
			assert.NoError(s.T(), err)

			mtx.Lock()
			outcomes = append(outcomes, outcome)
			mtx.Unlock()
		}()
	}

	// Sweep races with the direct attempts
	_, err := s.scheduler.Sweep(s.ctx)
	require.NoError(s.T(), err)
	wg.Wait()

	created := 0
	for _, outcome := range outcomes {
		if outcome == OutcomeOfferCreated {
			created++
		}
	}
	assert.LessOrEqual(s.T(), created, 1)
	assert.Equal(s.T(), int32(1), s.model.calls.Load())
	assert.Len(s.T(), s.offers(), 1)
	assert.Empty(s.T(), s.pending())
}

func (s *PipelineTestSuite) TestUnitExtraction() {
	s.model.response = "```json\n" + `{"product_name": "Zitronen", "price": 1.00, "unit": "3 Stück", "description": "Saftige Zitronen", "category": "Obst"}` + "\n```"

	result := s.processor.engine.Validate(s.ctx, "Zitronen 3 Stück 1.00", nil)

	structured, ok := result.(*Structured)
	require.True(s.T(), ok)
	assert.Equal(s.T(), "Zitronen", structured.ProductName)
	assert.Equal(s.T(), "3 Stück", structured.Unit)
	assert.Equal(s.T(), "1.00", structured.Price)
	assert.Equal(s.T(), CategoryFruit, structured.Category)

	input := s.model.lastInput()
	require.Len(s.T(), input, 2)
	assert.Equal(s.T(), schema.System, input[0].Role)
	assert.Contains(s.T(), input[0].Content, "3 Stück")
	assert.Contains(s.T(), input[1].Content, "Zitronen 3 Stück 1.00")
}

func (s *PipelineTestSuite) TestMissingPriceSendsNotice() {
	s.model.response = "INVALID: MISSING_PRICE"
	s.submit("Frische Eier vom Hof", "", "wamid.1")
	s.clock.Advance(s.config.Ingest.QuietPeriod)

	summary, err := s.scheduler.Sweep(s.ctx)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, summary.Processed)
	assert.Equal(s.T(), 0, summary.Succeeded)
	assert.Equal(s.T(), 1, summary.Failed)

	sent := s.sender.messages()
	require.Len(s.T(), sent, 1)
	assert.Equal(s.T(), testSender, sent[0].To)
	assert.True(s.T(), strings.HasPrefix(sent[0].Body, "Ich sehe keinen Preis"))

	assert.Empty(s.T(), s.offers())
	assert.Empty(s.T(), s.pending())
	assert.Equal(s.T(), uint64(1), s.monitor.Report.Ingestor.State.RejectedMissingPrice.Load())
}

func (s *PipelineTestSuite) TestModelErrorIsUnclear() {
	s.model.err = errors.New("deadline exceeded")
	s.submit("Honig 500g 7€", "", "wamid.1")
	s.clock.Advance(s.config.Ingest.QuietPeriod)

	_, err := s.scheduler.Sweep(s.ctx)
	require.NoError(s.T(), err)

	sent := s.sender.messages()
	require.Len(s.T(), sent, 1)
	assert.Equal(s.T(), Notice(ReasonUnclear), sent[0].Body)
	assert.Empty(s.T(), s.offers())
	assert.Empty(s.T(), s.pending())
	assert.Equal(s.T(), uint64(1), s.monitor.Report.Ingestor.Errors.ModelFailures.Load())
}

func (s *PipelineTestSuite) TestLibraryImageReused() {
	entry := &model.ImageLibraryEntry{Url: "https://cdn.example.com/zitronen.jpg", ProductName: "Zitronen", CreatedAt: s.clock.Now()}
	require.NoError(s.T(), s.db.Create(entry).Error)

	s.model.response = `{"product_name": "Zitronen", "price": "1,00", "unit": "3 Stück", "description": "Saftig", "category": "Obst"}`
	s.submit("Zitronen 3 Stück 1.00", "", "wamid.1")
	s.clock.Advance(s.config.Ingest.QuietPeriod)

	summary, err := s.scheduler.Sweep(s.ctx)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, summary.Succeeded)

	offers := s.offers()
	require.Len(s.T(), offers, 1)
	assert.True(s.T(), offers[0].ImageLibraryID.Valid)
	assert.Equal(s.T(), entry.ID, offers[0].ImageLibraryID.Int64)

	assert.Equal(s.T(), int32(0), s.uploader.calls.Load())
	assert.Equal(s.T(), int32(0), s.media.calls.Load())

	// No image part sent to the model
	input := s.model.lastInput()
	require.Len(s.T(), input, 2)
	assert.Empty(s.T(), input[1].MultiContent)
}

func (s *PipelineTestSuite) TestTomatoesEndToEnd() {
	s.submit("Tomaten 500g", "", "wamid.1")
	s.clock.Advance(5 * time.Second)
	s.submit("2.49€", "media-1", "wamid.2")

	pending := s.pending()
	require.Len(s.T(), pending, 1)
	assert.Equal(s.T(), "Tomaten 500g\n2.49€", pending[0].CaptionText())
	assert.Equal(s.T(), "media-1", pending[0].ImageRef.String)

	// Not quiet yet
	s.clock.Advance(10 * time.Second)
	summary, err := s.scheduler.Sweep(s.ctx)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 0, summary.Processed)
	assert.Len(s.T(), s.pending(), 1)

	s.clock.Advance(s.config.Ingest.QuietPeriod + s.config.Ingest.SafetyMargin)
	summary, err = s.scheduler.Sweep(s.ctx)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, summary.Processed)
	assert.Equal(s.T(), 1, summary.Succeeded)
	assert.Equal(s.T(), 0, summary.Failed)

	offers := s.offers()
	require.Len(s.T(), offers, 1)
	offer := offers[0]
	assert.Equal(s.T(), "Tomaten", offer.ProductName)
	assert.Equal(s.T(), "500g", offer.Unit)
	assert.Equal(s.T(), "2.49", offer.Price)
	assert.Equal(s.T(), string(CategoryVegetables), offer.Category)
	assert.Equal(s.T(), model.OfferStatusDraft, offer.Status)
	assert.Equal(s.T(), s.market.ID, offer.MarketID)
	assert.Equal(s.T(), "wamid.2", offer.SourceMessageID)
	assert.Equal(s.T(), s.clock.Now().Add(s.config.Ingest.OfferValidity), offer.ExpiresAt.UTC())

	// Fresh image got uploaded and catalogued
	require.True(s.T(), offer.ImageLibraryID.Valid)
	var entry model.ImageLibraryEntry
	require.NoError(s.T(), s.db.First(&entry, offer.ImageLibraryID.Int64).Error)
	assert.Equal(s.T(), "Tomaten", entry.ProductName)
	assert.True(s.T(), strings.HasPrefix(entry.Url, "https://cdn.example.com/offers/2024/05/"))
	assert.True(s.T(), strings.HasSuffix(entry.Url, ".jpg"))
	assert.Equal(s.T(), int32(1), s.uploader.calls.Load())

	// Image went to the model too
	input := s.model.lastInput()
	require.Len(s.T(), input, 2)
	require.Len(s.T(), input[1].MultiContent, 2)
	assert.Equal(s.T(), schema.ChatMessagePartTypeImageURL, input[1].MultiContent[1].Type)

	assert.Empty(s.T(), s.pending())
}

func (s *PipelineTestSuite) TestImageUploadFailureKeepsOffer() {
	s.uploader.err = errors.New("bucket unavailable")
	s.submit("Tomaten 500g 2.49€", "media-1", "wamid.1")
	s.clock.Advance(s.config.Ingest.QuietPeriod)

	summary, err := s.scheduler.Sweep(s.ctx)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, summary.Succeeded)

	offers := s.offers()
	require.Len(s.T(), offers, 1)
	assert.False(s.T(), offers[0].ImageLibraryID.Valid)
	assert.Equal(s.T(), uint64(1), s.monitor.Report.Ingestor.Errors.ImageUploadFailures.Load())
}

func (s *PipelineTestSuite) TestMediaFetchFailureFallsBackToLibrary() {
	entry := &model.ImageLibraryEntry{Url: "https://cdn.example.com/tomaten.jpg", ProductName: "Tomaten", CreatedAt: s.clock.Now()}
	require.NoError(s.T(), s.db.Create(entry).Error)

	s.submit("Tomaten 500g 2.49€", "media-missing", "wamid.1")
	s.clock.Advance(s.config.Ingest.QuietPeriod)

	_, err := s.scheduler.Sweep(s.ctx)
	require.NoError(s.T(), err)

	offers := s.offers()
	require.Len(s.T(), offers, 1)
	assert.Equal(s.T(), entry.ID, offers[0].ImageLibraryID.Int64)
	assert.Equal(s.T(), uint64(1), s.monitor.Report.Ingestor.Errors.MediaFetchFailures.Load())
}

func (s *PipelineTestSuite) TestDeferredCheckNoOpWhenNotQuiet() {
	s.submit("Tomaten 500g", "", "wamid.1")
	s.clock.Advance(10 * time.Second)
	s.submit("2.49€", "", "wamid.2")
	s.clock.Advance(s.config.Ingest.QuietPeriod - time.Second)

	err := s.scheduler.CheckReady(s.ctx, &DeferredCheck{Sender: testSender, MarketID: s.market.ID})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int32(0), s.model.calls.Load())
	assert.Len(s.T(), s.pending(), 1)

	s.clock.Advance(s.config.Ingest.SafetyMargin + time.Second)
	err = s.scheduler.CheckReady(s.ctx, &DeferredCheck{Sender: testSender, MarketID: s.market.ID})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int32(1), s.model.calls.Load())
	assert.Len(s.T(), s.offers(), 1)
	assert.Empty(s.T(), s.pending())
}

func (s *PipelineTestSuite) TestLocalDeferredCheckFires() {
	clock := func() time.Time { return time.Now().UTC().Add(time.Hour) }
	s.merger.WithClock(time.Now)
	s.scheduler.WithClock(clock)

	deferrer := NewLocalDeferrer(s.config).WithHandler(s.scheduler.CheckReady)
	require.NoError(s.T(), deferrer.Start())
	defer deferrer.StopWait()
	s.scheduler.WithDeferrer(deferrer)

	submission := s.submit("Tomaten 500g 2.49€", "", "wamid.1")
	require.NoError(s.T(), deferrer.Defer(s.ctx, &DeferredCheck{Sender: submission.Sender, MarketID: submission.MarketID}, 10*time.Millisecond))

	require.Eventually(s.T(), func() bool {
		return s.monitor.Report.Ingestor.State.OffersCreated.Load() == 1
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(s.T(), uint64(1), s.monitor.Report.Ingestor.State.DeferredChecksFired.Load())
}

func (s *PipelineTestSuite) TestMaxAccumulationForcesReady() {
	s.submit("Teil 1", "", "wamid.0")
	for i := 0; i < 25; i++ {
		s.clock.Advance(14 * time.Second)
		s.submit("weiter", "", "wamid.x")
	}

	// Never quiet, but accumulated for longer than allowed
	require.Greater(s.T(), 25*14*time.Second, s.config.Ingest.MaxAccumulation)
	summary, err := s.scheduler.Sweep(s.ctx)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, summary.Processed)
	assert.Empty(s.T(), s.pending())
}

func (s *PipelineTestSuite) TestSweepPurgesStuck() {
	submission := s.submit("Kartoffeln 2kg 4,99", "", "wamid.1")
	require.NoError(s.T(), s.store.MarkProcessing(s.ctx, submission, s.clock.Now()))

	s.clock.Advance(s.config.Ingest.ProcessingTimeout + time.Second)
	summary, err := s.scheduler.Sweep(s.ctx)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, summary.Failed)
	assert.Empty(s.T(), s.pending())
	assert.Equal(s.T(), uint64(1), s.monitor.Report.Ingestor.State.StuckPurged.Load())
	assert.Equal(s.T(), int32(0), s.model.calls.Load())
}

func (s *PipelineTestSuite) TestConfirmationNotice() {
	s.config.Ingest.ConfirmOffers = true
	defer func() { s.config.Ingest.ConfirmOffers = false }()

	s.submit("Tomaten 500g 2.49€", "", "wamid.1")
	s.clock.Advance(s.config.Ingest.QuietPeriod)

	_, err := s.scheduler.Sweep(s.ctx)
	require.NoError(s.T(), err)

	sent := s.sender.messages()
	require.Len(s.T(), sent, 1)
	assert.Contains(s.T(), sent[0].Body, "Tomaten")
	assert.Contains(s.T(), sent[0].Body, "2.49")
}

func (s *PipelineTestSuite) TestFragmentMergedAfterReadIsNotLost() {
	s.submit("Tomaten 500g", "", "wamid.1")
	s.clock.Advance(s.config.Ingest.QuietPeriod + time.Second)

	ready, err := s.store.FindReady(s.ctx, s.clock.Now(), s.config.Ingest.QuietPeriod, s.config.Ingest.MaxAccumulation, 10)
	require.NoError(s.T(), err)
	require.Len(s.T(), ready, 1)

	// Still within the merge window, appended to the record that was just read
	s.submit("2.49€", "", "wamid.2")

	outcome, err := s.processor.Process(s.ctx, ready[0])
	require.NoError(s.T(), err)
	assert.Equal(s.T(), OutcomeChanged, outcome)
	assert.Equal(s.T(), int32(0), s.model.calls.Load())

	pending := s.pending()
	require.Len(s.T(), pending, 1)
	assert.False(s.T(), pending[0].Processing)
	assert.Equal(s.T(), "Tomaten 500g\n2.49€", pending[0].CaptionText())

	s.clock.Advance(s.config.Ingest.QuietPeriod)
	summary, err := s.scheduler.Sweep(s.ctx)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, summary.Succeeded)

	input := s.model.lastInput()
	require.Len(s.T(), input, 2)
	assert.Contains(s.T(), input[1].Content, "Tomaten 500g\n2.49€")
	assert.Empty(s.T(), s.pending())
}

func (s *PipelineTestSuite) TestClaimedSubmissionOutlivesCancelledSweep() {
	s.model.delay = 200 * time.Millisecond
	s.submit("Tomaten 500g 2.49€", "", "wamid.1")
	s.clock.Advance(s.config.Ingest.QuietPeriod)

	ctx, cancel := context.WithTimeout(s.ctx, 50*time.Millisecond)
	defer cancel()

	summary, err := s.scheduler.Sweep(ctx)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, summary.Succeeded)
	assert.Equal(s.T(), 0, summary.Failed)

	offers := s.offers()
	require.Len(s.T(), offers, 1)
	assert.Equal(s.T(), "Tomaten", offers[0].ProductName)
	assert.Empty(s.T(), s.pending())
	assert.Equal(s.T(), uint64(0), s.monitor.Report.Ingestor.Errors.StoreFailures.Load())
}

func (s *PipelineTestSuite) TestEngineSkipsModelWhenCancelled() {
	engine := NewEngine(s.config).
		WithModel(s.model).
		WithMonitor(s.monitor)

	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	result := engine.Validate(ctx, "Tomaten 500g 2.49€", nil)
	invalid, ok := result.(*Invalid)
	require.True(s.T(), ok)
	assert.Equal(s.T(), ReasonUnclear, invalid.Reason)
	assert.True(s.T(), errors.Is(invalid.Cause, context.Canceled))
	assert.Equal(s.T(), int32(0), s.model.calls.Load())
}

func (s *PipelineTestSuite) TestNewestLibraryImageReused() {
	older := &model.ImageLibraryEntry{Url: "https://cdn.example.com/tomaten-alt.jpg", ProductName: "Tomaten", CreatedAt: s.clock.Now()}
	require.NoError(s.T(), s.db.Create(older).Error)
	s.clock.Advance(time.Hour)
	newer := &model.ImageLibraryEntry{Url: "https://cdn.example.com/tomaten-neu.jpg", ProductName: "Tomaten", CreatedAt: s.clock.Now()}
	require.NoError(s.T(), s.db.Create(newer).Error)

	s.submit("Tomaten 500g 2.49€", "", "wamid.1")
	s.clock.Advance(s.config.Ingest.QuietPeriod)

	_, err := s.scheduler.Sweep(s.ctx)
	require.NoError(s.T(), err)

	offers := s.offers()
	require.Len(s.T(), offers, 1)
	assert.Equal(s.T(), newer.ID, offers[0].ImageLibraryID.Int64)
}
