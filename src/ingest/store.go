package ingest

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/wochenmarkt/ingestor/src/utils/logger"
	"github.com/wochenmarkt/ingestor/src/utils/model"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Durable state of the pipeline. All coordination between processes goes through here.
type Store struct {
	db  *gorm.DB
	log *logrus.Entry
}

func NewStore(db *gorm.DB) (self *Store) {
	self = new(Store)
	self.db = db
	self.log = logger.NewSublogger("store")
	return
}

// Non-processing submission of the sender in the market, nil if there's none
func (self *Store) FindOpen(ctx context.Context, sender string, marketId int64) (out *model.PendingSubmission, err error) {
	var submission model.PendingSubmission
	err = self.db.WithContext(ctx).
		Where("sender = ? AND market_id = ? AND processing = ?", sender, marketId, false).
		Take(&submission).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return
	}
	return &submission, nil
}

// Inserts a new submission. Fails with ErrConflict if another open one already exists.
func (self *Store) Create(ctx context.Context, submission *model.PendingSubmission) (err error) {
	err = self.db.WithContext(ctx).
		Create(submission).
		Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}
	return
}

// Writes merged content, only if nobody else changed the record since it was read.
// Fails with ErrConflict otherwise.
func (self *Store) UpdateMerge(ctx context.Context, submission *model.PendingSubmission) (err error) {
	result := self.db.WithContext(ctx).
		Model(&model.PendingSubmission{}).
		Where("id = ? AND version = ? AND processing = ?", submission.ID, submission.Version, false).
		Updates(map[string]interface{}{
			"caption":              submission.Caption,
			"image_ref":            submission.ImageRef,
			"transport_message_id": submission.TransportMessageID,
			"created_at":           submission.CreatedAt,
			"last_updated_at":      submission.LastUpdatedAt,
			"version":              gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected != 1 {
		return ErrConflict
	}

	submission.Version++
	return nil
}

// Atomically flips the processing flag, only if the record is still the version that was read.
// Fails with ErrAlreadyProcessing if someone else claimed it first and ErrChanged if a fragment got merged in meantime.
func (self *Store) MarkProcessing(ctx context.Context, submission *model.PendingSubmission, now time.Time) (err error) {
	result := self.db.WithContext(ctx).
		Model(&model.PendingSubmission{}).
		Where("id = ? AND version = ? AND processing = ?", submission.ID, submission.Version, false).
		Updates(map[string]interface{}{
			"processing":            true,
			"processing_started_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected != 1 {
		return self.whyNotClaimed(ctx, submission.ID)
	}

	submission.Processing = true
	submission.ProcessingStartedAt = sql.NullTime{Time: now, Valid: true}
	return nil
}

func (self *Store) whyNotClaimed(ctx context.Context, id int64) error {
	var current model.PendingSubmission
	err := self.db.WithContext(ctx).
		Select("id", "processing").
		Where("id = ?", id).
		Take(&current).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Processed and deleted already
		return ErrAlreadyProcessing
	}
	if err != nil {
		return err
	}
	if current.Processing {
		return ErrAlreadyProcessing
	}
	return ErrChanged
}

func (self *Store) Delete(ctx context.Context, id int64) (err error) {
	return self.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.PendingSubmission{}).
		Error
}

func (self *Store) readyCondition(db *gorm.DB, now time.Time, quietPeriod, maxAccumulation time.Duration) *gorm.DB {
	db = db.Where("processing = ?", false)
	if maxAccumulation > 0 {
		return db.Where("(last_updated_at <= ? OR created_at <= ?)", now.Add(-quietPeriod), now.Add(-maxAccumulation))
	}
	return db.Where("last_updated_at <= ?", now.Add(-quietPeriod))
}

// Submissions that were quiet long enough or accumulated for too long, oldest first
func (self *Store) FindReady(ctx context.Context, now time.Time, quietPeriod, maxAccumulation time.Duration, limit int) (out []*model.PendingSubmission, err error) {
	query := self.readyCondition(self.db.WithContext(ctx), now, quietPeriod, maxAccumulation).
		Order("last_updated_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err = query.Find(&out).Error
	return
}

// Ready submission of the sender in the market, nil if there's none
func (self *Store) FindReadyFor(ctx context.Context, sender string, marketId int64, now time.Time, quietPeriod, maxAccumulation time.Duration) (out *model.PendingSubmission, err error) {
	var submission model.PendingSubmission
	err = self.readyCondition(self.db.WithContext(ctx), now, quietPeriod, maxAccumulation).
		Where("sender = ? AND market_id = ?", sender, marketId).
		Take(&submission).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return
	}
	return &submission, nil
}

// Removes submissions whose processing started before the cutoff and never finished
func (self *Store) PurgeStuck(ctx context.Context, cutoff time.Time) (num int64, err error) {
	result := self.db.WithContext(ctx).
		Where("processing = ? AND processing_started_at <= ?", true, cutoff).
		Delete(&model.PendingSubmission{})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		self.log.WithField("num", result.RowsAffected).WithField("cutoff", cutoff).Warn("Removed stuck submissions")
	}
	return result.RowsAffected, nil
}

// Market whose owner writes from this number, nil if unknown
func (self *Store) FindMarketBySender(ctx context.Context, sender string) (out *model.Market, err error) {
	var market model.Market
	err = self.db.WithContext(ctx).
		Where("whatsapp_number = ?", sender).
		Order("id ASC").
		Take(&market).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return
	}
	return &market, nil
}

// Newest catalogued image of the product, nil if there's none
func (self *Store) FindImage(ctx context.Context, productName string) (out *model.ImageLibraryEntry, err error) {
	var entry model.ImageLibraryEntry
	err = self.db.WithContext(ctx).
		Where("product_name = ?", productName).
		Order("id DESC").
		Take(&entry).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return
	}
	return &entry, nil
}

func (self *Store) InsertImage(ctx context.Context, entry *model.ImageLibraryEntry) (err error) {
	return self.db.WithContext(ctx).
		Create(entry).
		Error
}

func (self *Store) InsertOffer(ctx context.Context, offer *model.Offer) (err error) {
	return self.db.WithContext(ctx).
		Omit(clause.Associations).
		Create(offer).
		Error
}
