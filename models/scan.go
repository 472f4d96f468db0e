package models

import (
	"time"
)

// Scan status values.
const (
	ScanPending = "pending"
	ScanDone    = "done"
	ScanFailed  = "failed"
)

// Scan is one uploaded screenshot and the outcome of reading it.
type Scan struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	PublicID    string `gorm:"size:36;uniqueIndex;not null"` // uuid exposed by the API
	UserID      uint   `gorm:"index;not null"`
	CharacterID *uint  `gorm:"index"`
	FileName    string `gorm:"size:255;not null"`
	StorePath   string `gorm:"column:store_path;size:512"` // path relative to UPLOAD_BASE
	ContentType string `gorm:"size:128"`
	// SHA256 of the file, used to skip re-scanning the same screenshot.
	Checksum  string `gorm:"size:64;index"`
	Status    string `gorm:"size:16;default:pending;index;not null"`
	// Kept on failure so the user can review what went wrong.
	FailedReason  string `gorm:"size:255"`
	Text          string `gorm:"type:text"`
	FragmentCount int
	ScannedAt     *time.Time
	Items         []ScanItem `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
