package model

import "time"

// Link is the core short-link entity stored in Postgres. It is immutable
// after creation; click events reference it by ShortCode.
type Link struct {
	ShortCode string    `json:"shortUrl" gorm:"primaryKey;size:64"`
	LongURL   string    `json:"longUrl" gorm:"type:text;not null"`
	Topic     string    `json:"topic,omitempty" gorm:"size:64;index"`
	AccountID uint      `json:"-" gorm:"not null;index"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

// Account is the authenticated owner of zero or more links. Accounts are
// created or refreshed on Google sign-in and never deleted.
type Account struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:255;not null"`
	Email     string    `json:"email" gorm:"size:255;not null;uniqueIndex"`
	GoogleID  string    `json:"-" gorm:"size:64;uniqueIndex"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
}
