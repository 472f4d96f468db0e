package store

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"invscan/models"
	"invscan/pkg/inventory"
	"invscan/pkg/ocr"
)

// maxMergedScans bounds how many completed scans LatestInventory folds together.
const maxMergedScans = 50

// EnsureCharacter returns the user's character with name on server, creating it.
func (s *Store) EnsureCharacter(userID uint, name, server string) (*models.Character, error) {
	ch := models.Character{UserID: userID, Name: name, Server: server, Active: true}
	err := s.db.Where("user_id = ? AND name = ? AND server = ?", userID, name, server).FirstOrCreate(&ch).Error
	if err != nil {
		return nil, errors.Wrap(err, "ensure character")
	}
	return &ch, nil
}

// ListCharacters returns the user's characters, oldest first.
func (s *Store) ListCharacters(userID uint) ([]models.Character, error) {
	var out []models.Character
	if err := s.db.Where("user_id = ?", userID).Order("id asc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Character loads one of the user's characters.
func (s *Store) Character(userID, id uint) (*models.Character, error) {
	var ch models.Character
	if err := s.db.Where("user_id = ?", userID).First(&ch, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &ch, nil
}

// CreateScan stores a pending scan and assigns its public id.
func (s *Store) CreateScan(ctx context.Context, scan *models.Scan) error {
	if scan.PublicID == "" {
		scan.PublicID = uuid.NewString()
	}
	scan.Status = models.ScanPending
	if err := s.db.WithContext(ctx).Create(scan).Error; err != nil {
		return errors.Wrap(err, "create scan")
	}
	return nil
}

// FindScanByChecksum returns the user's scan of an identical file, if any.
func (s *Store) FindScanByChecksum(ctx context.Context, userID uint, checksum string) (*models.Scan, error) {
	var sc models.Scan
	err := s.db.WithContext(ctx).Preload("Items").
		Where("user_id = ? AND checksum = ?", userID, checksum).
		Order("id desc").First(&sc).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &sc, nil
}

// CompleteScan records the recognized items and marks the scan done. Items from an
// earlier attempt are replaced.
func (s *Store) CompleteScan(ctx context.Context, id uint, res *ocr.Result) error {
	now := time.Now()
	source := map[string]string{}
	for _, m := range res.Matches {
		if _, ok := source[m.Item]; !ok {
			source[m.Item] = string(m.Source)
		}
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("scan_id = ?", id).Delete(&models.ScanItem{}).Error; err != nil {
			return errors.Wrap(err, "clear items")
		}
		for _, name := range res.Snapshot.Items() {
			item := models.ScanItem{
				ScanID:   id,
				Item:     name,
				ItemID:   inventory.ItemID(name),
				Quantity: res.Snapshot[name],
				Source:   source[name],
			}
			if err := tx.Create(&item).Error; err != nil {
				return errors.Wrapf(err, "store item %s", name)
			}
		}
		upd := tx.Model(&models.Scan{}).Where("id = ?", id).Updates(map[string]any{
			"status":         models.ScanDone,
			"failed_reason":  "",
			"text":           res.Text,
			"fragment_count": len(res.Fragments),
			"scanned_at":     &now,
		})
		if upd.Error != nil {
			return errors.Wrap(upd.Error, "update scan")
		}
		if upd.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// maxReasonBytes matches the failed_reason column size.
const maxReasonBytes = 255

// truncateReason cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncateReason(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// FailScan marks the scan failed and keeps the reason for review.
func (s *Store) FailScan(ctx context.Context, id uint, reason string) error {
	return s.db.WithContext(ctx).Model(&models.Scan{}).Where("id = ?", id).Updates(map[string]any{
		"status":        models.ScanFailed,
		"failed_reason": truncateReason(reason, maxReasonBytes),
	}).Error
}

// Scan loads a scan with its items.
func (s *Store) Scan(ctx context.Context, id uint) (*models.Scan, error) {
	var sc models.Scan
	if err := s.db.WithContext(ctx).Preload("Items").First(&sc, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &sc, nil
}

// ScanByPublicID loads a scan by its uuid.
func (s *Store) ScanByPublicID(ctx context.Context, publicID string) (*models.Scan, error) {
	var sc models.Scan
	if err := s.db.WithContext(ctx).Preload("Items").Where("public_id = ?", publicID).First(&sc).Error; err != nil {
		return nil, notFound(err)
	}
	return &sc, nil
}

// ListScans returns the newest scans first. userID 0 lists every user's scans.
func (s *Store) ListScans(ctx context.Context, userID uint, limit int) ([]models.Scan, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	q := s.db.WithContext(ctx).Model(&models.Scan{}).Preload("Items")
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	var out []models.Scan
	if err := q.Order("id desc").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// LatestInventory folds the user's completed scans oldest to newest, so the most
// recent reading of each item wins. A nil characterID covers all characters.
func (s *Store) LatestInventory(ctx context.Context, userID uint, characterID *uint) (inventory.Snapshot, error) {
	q := s.db.WithContext(ctx).Preload("Items").
		Where("user_id = ? AND status = ?", userID, models.ScanDone)
	if characterID != nil {
		q = q.Where("character_id = ?", *characterID)
	}
	var scans []models.Scan
	if err := q.Order("scanned_at desc, id desc").Limit(maxMergedScans).Find(&scans).Error; err != nil {
		return nil, err
	}
	snaps := make([]inventory.Snapshot, 0, len(scans))
	for i := len(scans) - 1; i >= 0; i-- {
		snaps = append(snaps, SnapshotOf(&scans[i]))
	}
	return inventory.Merge(snaps...), nil
}

// SnapshotOf rebuilds the snapshot stored for a scan.
func SnapshotOf(sc *models.Scan) inventory.Snapshot {
	snap := make(inventory.Snapshot, len(sc.Items))
	for _, it := range sc.Items {
		snap[it.Item] = it.Quantity
	}
	return snap
}

// ScanChecksums maps the checksum of every scan of the user to its status.
func (s *Store) ScanChecksums(ctx context.Context, userID uint) (map[string]string, error) {
	var rows []models.Scan
	err := s.db.WithContext(ctx).Select("checksum", "status").
		Where("user_id = ? AND checksum <> ''", userID).Order("id asc").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		if out[r.Checksum] != models.ScanDone {
			out[r.Checksum] = r.Status
		}
	}
	return out, nil
}

// ScansByStatus returns scans in status, oldest first. userID 0 covers every user.
func (s *Store) ScansByStatus(ctx context.Context, userID uint, status string, limit int) ([]models.Scan, error) {
	q := s.db.WithContext(ctx).Where("status = ?", status)
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []models.Scan
	if err := q.Order("id asc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
