package model

import (
	"database/sql"
	"time"
)

const TableOffer = "offers"

type OfferStatus string

const (
	OfferStatusDraft     OfferStatus = "draft"
	OfferStatusPublished OfferStatus = "published"
	OfferStatusArchived  OfferStatus = "archived"
)

type Offer struct {
	ID              int64         `gorm:"primaryKey; autoIncrement"`
	MarketID        int64         `gorm:"not null; index"`
	Market          Market        // Can be preloaded by gorm, but isn't by default.
	ProductName     string        `gorm:"not null"`
	Price           string        `gorm:"not null; comment:Decimal with two places"`
	Unit            string        `gorm:"not null"`
	Description     string        `gorm:"not null; default:''"`
	Category        string        `gorm:"not null"`
	ImageLibraryID  sql.NullInt64 `gorm:"index"`
	ImageLibrary    *ImageLibraryEntry
	Status          OfferStatus `gorm:"not null; default:draft"`
	SourceMessageID string      `gorm:"not null; default:''; comment:Last WhatsApp message id of the submission"`
	ExpiresAt       time.Time   `gorm:"not null"`
	CreatedAt       time.Time   `gorm:"not null"`
}

func (Offer) TableName() string {
	return TableOffer
}
