package main

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"invscan/models"
	"invscan/pkg/inventory"
	"invscan/pkg/queue"
	"invscan/pkg/store"
)

var imageExt = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
}

type interpretRequest struct {
	Fragments []inventory.Fragment `json:"fragments"`
	Text      string               `json:"text"`
	Options   *inventory.Options   `json:"options"`
}

// interpretHandler runs the interpreter over recognizer output posted by the caller.
// Fragments take precedence over text. Options fields left out of the body keep
// the configured values.
func interpretHandler(c *gin.Context) {
	opts := inventory.DefaultOptions()
	if cfg != nil {
		opts = cfg.InterpretOptions()
	}
	req := interpretRequest{Options: &opts}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Fragments) == 0 && req.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fragments or text required"})
		return
	}
	table := inventory.DefaultTable()
	if app != nil && app.Table != nil {
		table = app.Table
	}

	var (
		snap    inventory.Snapshot
		matches []inventory.Match
	)
	if len(req.Fragments) > 0 {
		snap, matches = inventory.Explain(req.Fragments, opts, table)
	} else {
		snap = inventory.InterpretText(req.Text, opts, table)
	}
	c.JSON(http.StatusOK, gin.H{"items": snap, "matches": matches, "export": inventory.ExportIDs(snap)})
}

type scanView struct {
	ID           string             `json:"id"`
	Status       string             `json:"status"`
	FileName     string             `json:"file_name"`
	CharacterID  *uint              `json:"character_id,omitempty"`
	Items        inventory.Snapshot `json:"items"`
	FailedReason string             `json:"failed_reason,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	ScannedAt    *time.Time         `json:"scanned_at,omitempty"`
}

func viewOf(sc *models.Scan) scanView {
	return scanView{
		ID:           sc.PublicID,
		Status:       sc.Status,
		FileName:     sc.FileName,
		CharacterID:  sc.CharacterID,
		Items:        store.SnapshotOf(sc),
		FailedReason: sc.FailedReason,
		CreatedAt:    sc.CreatedAt,
		ScannedAt:    sc.ScannedAt,
	}
}

// resolveCharacter returns the character named by the character_id form value, or the
// user's first active character when none is given.
func resolveCharacter(user *models.User, raw string) (*uint, error) {
	id, ok := parseUintParam(raw)
	if !ok {
		return nil, fmt.Errorf("invalid character_id")
	}
	if id != nil {
		if _, err := st.Character(user.ID, *id); err != nil {
			return nil, fmt.Errorf("character not found")
		}
		return id, nil
	}
	chars, err := st.ListCharacters(user.ID)
	if err != nil {
		return nil, err
	}
	for _, ch := range chars {
		if ch.Active {
			cid := ch.ID
			return &cid, nil
		}
	}
	return nil, nil
}

// uploadScanHandler stores a screenshot and scans it, on the queue when Redis is
// configured and inside the request otherwise. An identical file already scanned
// by the user is answered from the stored result.
func uploadScanHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	charID, err := resolveCharacter(user, c.PostForm("character_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file missing"})
		return
	}
	if file.Size > cfg.MaxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("file too large (max %dMB)", cfg.MaxUploadSize>>20)})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file unreadable"})
		return
	}
	data, err := io.ReadAll(io.LimitReader(f, cfg.MaxUploadSize+1))
	f.Close()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file unreadable"})
		return
	}
	ct := http.DetectContentType(data)
	ext, ok := imageExt[ct]
	if !ok {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "only PNG and JPEG screenshots are accepted"})
		return
	}
	sum := sha256.Sum256(data)
	checksum := hex.EncodeToString(sum[:])
	if prev, err := st.FindScanByChecksum(c.Request.Context(), user.ID, checksum); err == nil && prev.Status == models.ScanDone {
		c.JSON(http.StatusOK, gin.H{"duplicate": true, "scan": viewOf(prev)})
		return
	}

	publicID := uuid.NewString()
	relPath := filepath.Join(strconv.FormatUint(uint64(user.ID), 10), publicID+ext)
	fullPath := filepath.Join(uploadBaseDir(), relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "mkdir failed"})
		return
	}
	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}
	sc := &models.Scan{
		PublicID:    publicID,
		UserID:      user.ID,
		CharacterID: charID,
		FileName:    filepath.Base(file.Filename),
		StorePath:   relPath,
		ContentType: ct,
		Checksum:    checksum,
	}
	if err := st.CreateScan(c.Request.Context(), sc); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db save failed"})
		return
	}

	if app.Enqueuer != nil {
		_, err := app.Enqueuer.EnqueueScan(c.Request.Context(), queue.ScanPayload{ScanID: sc.ID, Path: fullPath})
		if err == nil {
			c.JSON(http.StatusAccepted, gin.H{"scan": viewOf(sc)})
			return
		}
		log.Warn().Err(err).Uint("scan_id", sc.ID).Msg("enqueue failed, scanning inline")
	}

	_, err = app.Job.Run(c.Request.Context(), sc.ID, fullPath)
	var scanErr *queue.ScanError
	switch {
	case errors.As(err, &scanErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "scan failed: " + scanErr.Error(), "id": sc.PublicID})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store scan result"})
		return
	}
	done, err := st.Scan(c.Request.Context(), sc.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"scan": viewOf(done)})
}

// listScansHandler returns recent scans; admin sees all, user only own scans.
func listScansHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	owner := user.ID
	if isAdmin(c) {
		owner = 0
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	scans, err := st.ListScans(c.Request.Context(), owner, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	out := make([]scanView, 0, len(scans))
	for i := range scans {
		out = append(out, viewOf(&scans[i]))
	}
	c.JSON(http.StatusOK, out)
}

// getScanHandler returns a single scan if admin or owner.
func getScanHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid scan id"})
		return
	}
	sc, err := st.ScanByPublicID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if !isAdmin(c) && sc.UserID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	view := viewOf(sc)
	if c.Query("text") == "1" {
		c.JSON(http.StatusOK, gin.H{"scan": view, "text": sc.Text, "fragments": sc.FragmentCount})
		return
	}
	c.JSON(http.StatusOK, gin.H{"scan": view})
}

// currentInventory merges the user's completed scans, optionally for one character.
func currentInventory(c *gin.Context) (inventory.Snapshot, bool) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return nil, false
	}
	charID, ok := parseUintParam(c.Query("character_id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid character_id"})
		return nil, false
	}
	snap, err := st.LatestInventory(c.Request.Context(), user.ID, charID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return nil, false
	}
	return snap, true
}

func inventoryHandler(c *gin.Context) {
	snap, ok := currentInventory(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": snap})
}

// exportHandler returns the inventory keyed by calculator item id.
func exportHandler(c *gin.Context) {
	snap, ok := currentInventory(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, inventory.ExportIDs(snap))
}

func craftingHandler(c *gin.Context) {
	snap, ok := currentInventory(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": inventory.Suggest(snap, inventory.DefaultRecipes())})
}
