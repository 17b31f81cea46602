package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/wochenmarkt/ingestor/src/utils/config"
	"github.com/wochenmarkt/ingestor/src/utils/logger"
	"github.com/wochenmarkt/ingestor/src/utils/model"
	"github.com/wochenmarkt/ingestor/src/utils/monitoring"
	"github.com/wochenmarkt/ingestor/src/utils/vision"
	"github.com/wochenmarkt/ingestor/src/utils/whatsapp"

	"github.com/sirupsen/logrus"
)

type Outcome int

const (
	OutcomeAlreadyProcessing Outcome = iota
	OutcomeChanged
	OutcomeOfferCreated
	OutcomeRejected
	OutcomeFailed
)

func (self Outcome) String() string {
	switch self {
	case OutcomeAlreadyProcessing:
		return "already_processing"
	case OutcomeChanged:
		return "changed"
	case OutcomeOfferCreated:
		return "offer_created"
	case OutcomeRejected:
		return "rejected"
	default:
		return "failed"
	}
}

type MediaFetcher interface {
	FetchMedia(ctx context.Context, mediaId string) (*whatsapp.Media, error)
}

// Turns one ready submission into an offer or a rejection notice.
// Whatever happens the submission is deleted afterwards.
type Processor struct {
	log      *logrus.Entry
	config   *config.Config
	store    *Store
	engine   *Engine
	resolver *Resolver
	notifier *Notifier
	media    MediaFetcher
	monitor  monitoring.Monitor
	now      func() time.Time
}

func NewProcessor(config *config.Config) (self *Processor) {
	self = new(Processor)
	self.config = config
	self.log = logger.NewSublogger("processor")
	self.now = time.Now
	return
}

func (self *Processor) WithStore(store *Store) *Processor {
	self.store = store
	return self
}

func (self *Processor) WithEngine(engine *Engine) *Processor {
	self.engine = engine
	return self
}

func (self *Processor) WithResolver(resolver *Resolver) *Processor {
	self.resolver = resolver
	return self
}

func (self *Processor) WithNotifier(notifier *Notifier) *Processor {
	self.notifier = notifier
	return self
}

func (self *Processor) WithMediaFetcher(media MediaFetcher) *Processor {
	self.media = media
	return self
}

func (self *Processor) WithMonitor(monitor monitoring.Monitor) *Processor {
	self.monitor = monitor
	return self
}

func (self *Processor) WithClock(now func() time.Time) *Processor {
	self.now = now
	return self
}

func (self *Processor) Process(ctx context.Context, submission *model.PendingSubmission) (outcome Outcome, err error) {
	log := self.log.WithField("id", submission.ID).WithField("sender", submission.Sender)

	err = self.store.MarkProcessing(ctx, submission, self.now().UTC())
	if errors.Is(err, ErrAlreadyProcessing) {
		log.Debug("Submission taken by someone else")
		self.monitor.GetReport().Ingestor.State.AlreadyProcessing.Inc()
		return OutcomeAlreadyProcessing, nil
	}
	if errors.Is(err, ErrChanged) {
		// Not ready anymore, the check armed by the newer fragment takes it
		log.Debug("Submission got a new fragment before it was claimed")
		return OutcomeChanged, nil
	}
	if err != nil {
		log.WithError(err).Error("Failed to mark submission as processing")
		self.monitor.GetReport().Ingestor.Errors.StoreFailures.Inc()
		return OutcomeFailed, err
	}

	self.monitor.GetReport().Ingestor.State.SubmissionsProcessed.Inc()
	defer self.delete(log, submission)

	// Claimed record is deleted in the end, so it has to be finished even if the caller gives up
	ctx, cancel := self.detach(ctx)
	defer cancel()

	caption := submission.CaptionText()
	media := self.fetchMedia(ctx, log, submission)

	var image *vision.Image
	if media != nil {
		image = &vision.Image{MimeType: media.MimeType, Data: media.Data}
	}

	var result Result
	if caption == "" && image == nil {
		result = &Invalid{Reason: ReasonUnclear}
	} else {
		result = self.engine.Validate(ctx, caption, image)
	}

	switch result := result.(type) {
	case *Structured:
		return self.onStructured(ctx, log, submission, media, result)
	case *Invalid:
		return self.onInvalid(ctx, log, submission, result)
	default:
		return OutcomeFailed, ErrFailedToParse
	}
}

func (self *Processor) fetchMedia(ctx context.Context, log *logrus.Entry, submission *model.PendingSubmission) *whatsapp.Media {
	if !submission.HasImage() || self.media == nil {
		return nil
	}

	media, err := self.media.FetchMedia(ctx, submission.ImageRef.String)
	if err != nil {
		log.WithError(err).WithField("media_id", submission.ImageRef.String).Warn("Failed to fetch image, continuing without it")
		self.monitor.GetReport().Ingestor.Errors.MediaFetchFailures.Inc()
		return nil
	}
	return media
}

func (self *Processor) onInvalid(ctx context.Context, log *logrus.Entry, submission *model.PendingSubmission, invalid *Invalid) (Outcome, error) {
	log.WithField("reason", invalid.Reason).Info("Submission rejected")

	state := &self.monitor.GetReport().Ingestor.State
	switch invalid.Reason {
	case ReasonMissingProduct:
		state.RejectedMissingProduct.Inc()
	case ReasonMissingPrice:
		state.RejectedMissingPrice.Inc()
	case ReasonMissingBoth:
		state.RejectedMissingBoth.Inc()
	default:
		state.RejectedUnclear.Inc()
	}

	// Errors are already logged and counted
	_ = self.notifier.Notify(ctx, submission.Sender, Notice(invalid.Reason))

	return OutcomeRejected, nil
}

func (self *Processor) onStructured(ctx context.Context, log *logrus.Entry, submission *model.PendingSubmission, media *whatsapp.Media, structured *Structured) (Outcome, error) {
	now := self.now().UTC()

	offer := &model.Offer{
		MarketID:        submission.MarketID,
		ProductName:     structured.ProductName,
		Price:           structured.Price,
		Unit:            structured.Unit,
		Description:     structured.Description,
		Category:        string(structured.Category),
		ImageLibraryID:  self.resolver.ResolveImage(ctx, media, structured.ProductName),
		Status:          model.OfferStatusDraft,
		SourceMessageID: submission.TransportMessageID,
		ExpiresAt:       now.Add(self.config.Ingest.OfferValidity),
		CreatedAt:       now,
	}

	err := self.store.InsertOffer(ctx, offer)
	if err != nil {
		// Content is lost after the submission gets deleted, keep it in logs
		log.WithError(err).
			WithField("caption", submission.CaptionText()).
			WithField("image_ref", submission.ImageRef.String).
			WithField("product", structured.ProductName).
			WithField("price", structured.Price).
			Error("Failed to insert offer")
		self.monitor.GetReport().Ingestor.Errors.OfferInsertFailures.Inc()
		return OutcomeFailed, err
	}

	log.WithField("offer_id", offer.ID).WithField("product", offer.ProductName).Info("Offer created")
	self.monitor.GetReport().Ingestor.State.OffersCreated.Inc()

	if self.config.Ingest.ConfirmOffers {
		_ = self.notifier.Notify(ctx, submission.Sender, ConfirmationNotice(structured))
	}

	return OutcomeOfferCreated, nil
}

func (self *Processor) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if self.config.Ingest.ProcessingTimeout > 0 {
		return context.WithTimeout(ctx, self.config.Ingest.ProcessingTimeout)
	}
	return context.WithCancel(ctx)
}

// Uses its own context, the submission has to go even if processing was cancelled
func (self *Processor) delete(log *logrus.Entry, submission *model.PendingSubmission) {
	ctx := context.Background()
	if self.config.Ingest.StoreTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, self.config.Ingest.StoreTimeout)
		defer cancel()
	}

	err := self.store.Delete(ctx, submission.ID)
	if err != nil {
		log.WithError(err).Error("Failed to delete processed submission")
		self.monitor.GetReport().Ingestor.Errors.StoreFailures.Inc()
	}
}
