package ingest

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/wochenmarkt/ingestor/src/utils/config"
	"github.com/wochenmarkt/ingestor/src/utils/logger"
	"github.com/wochenmarkt/ingestor/src/utils/model"
	"github.com/wochenmarkt/ingestor/src/utils/monitoring"

	"github.com/sirupsen/logrus"
)

const maxMergeAttempts = 5

// Single inbound message
type Fragment struct {
	Sender             string
	MarketID           int64
	Caption            string
	ImageRef           string
	TransportMessageID string
}

// Folds fragments into the sender's pending submission.
// Keeps no state in memory, every fragment is written through to the store.
type Merger struct {
	log     *logrus.Entry
	config  *config.Ingest
	store   *Store
	monitor monitoring.Monitor
	now     func() time.Time
}

func NewMerger(config *config.Config) (self *Merger) {
	self = new(Merger)
	self.config = &config.Ingest
	self.log = logger.NewSublogger("merger")
	self.now = time.Now
	return
}

func (self *Merger) WithStore(store *Store) *Merger {
	self.store = store
	return self
}

func (self *Merger) WithMonitor(monitor monitoring.Monitor) *Merger {
	self.monitor = monitor
	return self
}

func (self *Merger) WithClock(now func() time.Time) *Merger {
	self.now = now
	return self
}

// Creates or updates the open submission of the fragment's sender.
// Concurrent fragments of the same sender are retried until they apply on top of the latest state.
func (self *Merger) SubmitFragment(ctx context.Context, fragment *Fragment) (out *model.PendingSubmission, err error) {
	self.monitor.GetReport().Ingestor.State.FragmentsReceived.Inc()

	fragment.Caption = strings.TrimSpace(fragment.Caption)

	for attempt := 0; attempt < maxMergeAttempts; attempt++ {
		out, err = self.apply(ctx, fragment)
		if !errors.Is(err, ErrConflict) {
			break
		}
		self.log.WithField("sender", fragment.Sender).WithField("attempt", attempt).Debug("Concurrent update, retrying merge")
	}
	if errors.Is(err, ErrConflict) {
		err = ErrTooManyConflicts
	}
	if err != nil {
		self.monitor.GetReport().Ingestor.Errors.StoreFailures.Inc()
		return nil, err
	}

	return
}

func (self *Merger) apply(ctx context.Context, fragment *Fragment) (out *model.PendingSubmission, err error) {
	now := self.now().UTC()

	out, err = self.store.FindOpen(ctx, fragment.Sender, fragment.MarketID)
	if err != nil {
		return
	}

	if out == nil {
		out = &model.PendingSubmission{
			Sender:             fragment.Sender,
			MarketID:           fragment.MarketID,
			Caption:            nullString(fragment.Caption),
			ImageRef:           nullString(fragment.ImageRef),
			TransportMessageID: fragment.TransportMessageID,
			Version:            1,
			CreatedAt:          now,
			LastUpdatedAt:      now,
		}
		err = self.store.Create(ctx, out)
		if err != nil {
			return
		}
		self.monitor.GetReport().Ingestor.State.SubmissionsCreated.Inc()
		return
	}

	if Merge(out, fragment, now, self.config.MergeWindow) {
		self.monitor.GetReport().Ingestor.State.FragmentsMerged.Inc()
	} else {
		self.log.WithField("sender", fragment.Sender).WithField("id", out.ID).Info("Stale submission, replacing its content")
		self.monitor.GetReport().Ingestor.State.FragmentsReplaced.Inc()
	}

	err = self.store.UpdateMerge(ctx, out)
	return
}

// Applies the fragment on the submission. Returns false if the submission was stale and got replaced.
func Merge(submission *model.PendingSubmission, fragment *Fragment, now time.Time, mergeWindow time.Duration) (merged bool) {
	merged = now.Sub(submission.LastUpdatedAt) <= mergeWindow

	if merged {
		if fragment.Caption != "" {
			if existing := submission.CaptionText(); existing != "" {
				submission.Caption = nullString(existing + "\n" + fragment.Caption)
			} else {
				submission.Caption = nullString(fragment.Caption)
			}
		}
		if fragment.ImageRef != "" {
			submission.ImageRef = nullString(fragment.ImageRef)
		}
	} else {
		submission.Caption = nullString(fragment.Caption)
		submission.ImageRef = nullString(fragment.ImageRef)
		submission.CreatedAt = now
	}

	submission.TransportMessageID = fragment.TransportMessageID
	submission.LastUpdatedAt = now
	return
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
