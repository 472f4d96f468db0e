// Package bot answers Telegram screenshots with the recognized inventory.
package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"invscan/pkg/inventory"
	"invscan/pkg/ocr"
)

const (
	msgStart = `Hi! Send me a screenshot of your inventory or storage shed and I will read the item quantities.

Commands:
/inventory - last recognized inventory
/json - inventory as calculator JSON
/craft - crafting suggestions
/reset - forget the inventory
/help - help`

	msgHelp = `How to use:
1. Open the storage shed or inventory in game
2. Take a screenshot and send it here (as photo or file)
3. Send more screenshots to add the other tabs

Tips:
- Crop to the item grid if you can
- Send PNG as a file for the best result`

	msgSendImage       = "Please send a screenshot (photo or PNG/JPEG file)."
	msgUnknownCommand  = "Unknown command. Use /help."
	msgProcessing      = "Reading screenshot..."
	msgNoInventory     = "No inventory yet. Send a screenshot first."
	msgNothingToCraft  = "Nothing to craft with the current inventory."
	msgReset           = "Inventory cleared."
	msgProcessingError = "Could not read the screenshot. Try a sharper or cropped one."
	msgTooLarge        = "The file is too large."
)

// maxImageBytes bounds downloaded screenshots.
const maxImageBytes = 10 << 20

// Scanner reads an encoded screenshot.
type Scanner interface {
	Scan(ctx context.Context, image []byte) (*ocr.Result, error)
}

// Bot is the Telegram front end.
type Bot struct {
	api     *tgbotapi.BotAPI
	scanner Scanner
	snaps   *Snapshots
	client  *http.Client
}

// NewBot authorizes against the Bot API.
func NewBot(token string, scanner Scanner) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	log.Info().Str("account", api.Self.UserName).Msg("authorized")
	return &Bot{
		api:     api,
		scanner: scanner,
		snaps:   NewSnapshots(),
		client:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Run processes updates until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		b.sendMessage(msg.Chat.ID, b.commandReply(msg.Chat.ID, msg.Command()))
		return
	}
	if fileID, ok := imageFileID(msg); ok {
		b.handleImage(ctx, msg.Chat.ID, fileID)
		return
	}
	if msg.Document != nil && msg.Document.FileSize > maxImageBytes {
		b.sendMessage(msg.Chat.ID, msgTooLarge)
		return
	}
	b.sendMessage(msg.Chat.ID, msgSendImage)
}

// commandReply answers a command for chatID.
func (b *Bot) commandReply(chatID int64, cmd string) string {
	switch cmd {
	case "start":
		return msgStart
	case "help":
		return msgHelp
	case "reset":
		b.snaps.Reset(chatID)
		return msgReset
	case "inventory", "json", "craft":
		snap, ok := b.snaps.Get(chatID)
		if !ok {
			return msgNoInventory
		}
		return renderSnapshot(cmd, snap)
	}
	return msgUnknownCommand
}

// renderSnapshot formats snap for the inventory, json or craft command.
func renderSnapshot(cmd string, snap inventory.Snapshot) string {
	switch cmd {
	case "json":
		data, err := json.MarshalIndent(inventory.ExportIDs(snap), "", "  ")
		if err != nil {
			return msgProcessingError
		}
		return string(data)
	case "craft":
		sugg := inventory.Suggest(snap, inventory.DefaultRecipes())
		if len(sugg) == 0 {
			return msgNothingToCraft
		}
		lines := make([]string, 0, len(sugg))
		for _, s := range sugg {
			lines = append(lines, s.Message)
		}
		return strings.Join(lines, "\n")
	}
	return inventory.Format(snap)
}

// imageFileID picks the largest photo size or a PNG/JPEG document.
func imageFileID(msg *tgbotapi.Message) (string, bool) {
	if len(msg.Photo) > 0 {
		return msg.Photo[len(msg.Photo)-1].FileID, true
	}
	if d := msg.Document; d != nil && d.FileSize <= maxImageBytes {
		switch d.MimeType {
		case "image/png", "image/jpeg":
			return d.FileID, true
		}
	}
	return "", false
}

func (b *Bot) handleImage(ctx context.Context, chatID int64, fileID string) {
	b.sendMessage(chatID, msgProcessing)
	data, err := b.downloadFile(ctx, fileID)
	if err != nil {
		log.Error().Err(err).Int64("chat", chatID).Msg("download failed")
		b.sendMessage(chatID, msgProcessingError)
		return
	}
	res, err := b.scanner.Scan(ctx, data)
	if err != nil {
		log.Error().Err(err).Int64("chat", chatID).Msg("scan failed")
		b.sendMessage(chatID, msgProcessingError)
		return
	}
	log.Info().Int64("chat", chatID).Int("items", len(res.Snapshot)).Dur("took", res.Duration).Msg("screenshot scanned")
	b.sendMessage(chatID, scanReply(res.Snapshot, b.snaps.Merge(chatID, res.Snapshot)))
}

// scanReply reports what one screenshot contributed and the merged total.
func scanReply(scanned, merged inventory.Snapshot) string {
	if len(scanned) == 0 {
		return "No items recognized in this screenshot."
	}
	return fmt.Sprintf("Recognized:\n%s\n\nInventory now has %d items. /inventory to see all.", inventory.Format(scanned), len(merged))
}

// downloadFile fetches a file from Telegram.
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(b.api.Token), nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Error().Err(err).Int64("chat", chatID).Msg("send message")
	}
}
