package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Show is a ticketed live event announced on an artist hub. Ticket products
// reference a show; the show itself is plain metadata.
type Show struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UUID      string    `gorm:"type:char(36) CHARACTER SET utf8 COLLATE utf8_bin;uniqueIndex;not null" json:"uuid"`
	ArtistID  uint      `gorm:"index;not null" json:"artist_id"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	Venue     string    `gorm:"type:varchar(255)" json:"venue"`
	City      string    `gorm:"type:varchar(120)" json:"city"`
	StartsAt  time.Time `gorm:"not null;index" json:"starts_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *Show) BeforeCreate(tx *gorm.DB) error {
	if s.UUID == "" {
		s.UUID = uuid.New().String()
	}
	return nil
}
