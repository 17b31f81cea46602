package model

import "time"

const TableMarket = "markets"

type Market struct {
	ID   int64  `gorm:"primaryKey; autoIncrement"`
	Name string `gorm:"not null"`

	// WhatsApp id (phone number without +) of the shop owner
	WhatsappNumber string `gorm:"index"`

	CreatedAt time.Time
}

func (Market) TableName() string {
	return TableMarket
}
