package models

import "time"

// Character is the in-game character whose storage shed gets scanned. A user may
// own several; names are unique per user and server.
type Character struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	UserID    uint   `gorm:"index;not null;uniqueIndex:idx_user_character"`
	User      User   `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Name      string `gorm:"size:255;not null;uniqueIndex:idx_user_character"`
	Server    string `gorm:"size:128;uniqueIndex:idx_user_character"`
	// Active marks the default character for uploads without an explicit one.
	Active bool   `gorm:"default:true;not null"`
	Scans  []Scan `gorm:"foreignKey:CharacterID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
}
