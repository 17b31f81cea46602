package model

import "time"

const TableImageLibrary = "image_library"

// Previously ingested product photo, reused for later offers of the same product
type ImageLibraryEntry struct {
	ID          int64     `gorm:"primaryKey; autoIncrement"`
	Url         string    `gorm:"not null; comment:Permanent public url"`
	ProductName string    `gorm:"not null; index; comment:Normalized product name the image depicts"`
	CreatedAt   time.Time `gorm:"not null"`
}

func (ImageLibraryEntry) TableName() string {
	return TableImageLibrary
}
