package model

import (
	"database/sql"
	"time"
)

const TablePendingSubmission = "pending_submissions"

// Fragments of one sender's message burst, waiting to be structured into an offer.
// At most one non-processing row exists per (sender, market_id).
type PendingSubmission struct {
	ID                  int64          `gorm:"primaryKey; autoIncrement"`
	Sender              string         `gorm:"not null; uniqueIndex:idx_pending_submissions_open, where:processing = false; comment:WhatsApp id of the sender"`
	MarketID            int64          `gorm:"not null; uniqueIndex:idx_pending_submissions_open, where:processing = false; comment:Market the offer will belong to"`
	Caption             sql.NullString `gorm:"comment:Accumulated caption text"`
	ImageRef            sql.NullString `gorm:"comment:Media id of the last image sent"`
	TransportMessageID  string         `gorm:"not null; comment:Id of the last merged WhatsApp message"`
	Processing          bool           `gorm:"not null; default:false; index:idx_pending_submissions_ready, priority:1"`
	Version             int64          `gorm:"not null; default:1; comment:Incremented on every merge"`
	CreatedAt           time.Time      `gorm:"not null"`
	LastUpdatedAt       time.Time      `gorm:"not null; index:idx_pending_submissions_ready, priority:2"`
	ProcessingStartedAt sql.NullTime
}

func (PendingSubmission) TableName() string {
	return TablePendingSubmission
}

func (self *PendingSubmission) CaptionText() string {
	if !self.Caption.Valid {
		return ""
	}
	return self.Caption.String
}

func (self *PendingSubmission) HasImage() bool {
	return self.ImageRef.Valid && self.ImageRef.String != ""
}
