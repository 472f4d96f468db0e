package models

import "time"

// ScanItem is one recognized item quantity of a scan.
type ScanItem struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	ScanID    uint   `gorm:"index;not null;uniqueIndex:idx_scan_item"`
	Item      string `gorm:"size:128;not null;uniqueIndex:idx_scan_item"`
	ItemID    string `gorm:"size:128;index"`
	Quantity  int    `gorm:"not null"`
	// Source is "pattern" or "spatial".
	Source string `gorm:"size:16"`
}
