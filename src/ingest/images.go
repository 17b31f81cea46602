package ingest

import (
	"context"
	"database/sql"
	"time"

	"github.com/wochenmarkt/ingestor/src/utils/config"
	"github.com/wochenmarkt/ingestor/src/utils/logger"
	"github.com/wochenmarkt/ingestor/src/utils/model"
	"github.com/wochenmarkt/ingestor/src/utils/monitoring"
	"github.com/wochenmarkt/ingestor/src/utils/storage"
	"github.com/wochenmarkt/ingestor/src/utils/whatsapp"

	"github.com/sirupsen/logrus"
)

type Uploader interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (url string, err error)
}

// Picks the image of an offer: a freshly uploaded one or one reused from the library
type Resolver struct {
	log      *logrus.Entry
	config   *config.Storage
	store    *Store
	uploader Uploader
	monitor  monitoring.Monitor
	now      func() time.Time
}

func NewResolver(config *config.Config) (self *Resolver) {
	self = new(Resolver)
	self.config = &config.Storage
	self.log = logger.NewSublogger("images")
	self.now = time.Now
	return
}

func (self *Resolver) WithStore(store *Store) *Resolver {
	self.store = store
	return self
}

func (self *Resolver) WithUploader(uploader Uploader) *Resolver {
	self.uploader = uploader
	return self
}

func (self *Resolver) WithMonitor(monitor monitoring.Monitor) *Resolver {
	self.monitor = monitor
	return self
}

func (self *Resolver) WithClock(now func() time.Time) *Resolver {
	self.now = now
	return self
}

// Library id of the offer's image. Never fails, problems degrade to an offer without image.
func (self *Resolver) ResolveImage(ctx context.Context, media *whatsapp.Media, productName string) (out sql.NullInt64) {
	productName = NormalizeProductName(productName)

	if media != nil && self.uploader != nil {
		return self.ingest(ctx, media, productName)
	}

	entry, err := self.store.FindImage(ctx, productName)
	if err != nil {
		self.log.WithError(err).WithField("product", productName).Error("Failed to look up image library")
		self.monitor.GetReport().Ingestor.Errors.ImageCatalogFailures.Inc()
		return
	}
	if entry == nil {
		return
	}

	self.monitor.GetReport().Ingestor.State.ImagesReused.Inc()
	return sql.NullInt64{Int64: entry.ID, Valid: true}
}

func (self *Resolver) ingest(ctx context.Context, media *whatsapp.Media, productName string) (out sql.NullInt64) {
	now := self.now().UTC()
	key := storage.BuildImageKey(self.config.KeyPrefix, media.MimeType, now)

	url, err := self.uploader.Upload(ctx, key, media.MimeType, media.Data)
	if err != nil {
		self.log.WithError(err).WithField("key", key).Error("Failed to upload image")
		self.monitor.GetReport().Ingestor.Errors.ImageUploadFailures.Inc()
		return
	}

	entry := &model.ImageLibraryEntry{
		Url:         url,
		ProductName: productName,
		CreatedAt:   now,
	}
	err = self.store.InsertImage(ctx, entry)
	if err != nil {
		self.log.WithError(err).WithField("url", url).Error("Failed to catalog image")
		self.monitor.GetReport().Ingestor.Errors.ImageCatalogFailures.Inc()
		return
	}

	self.log.WithField("id", entry.ID).WithField("product", productName).Info("Catalogued new image")
	self.monitor.GetReport().Ingestor.State.ImagesUploaded.Inc()
	return sql.NullInt64{Int64: entry.ID, Valid: true}
}
