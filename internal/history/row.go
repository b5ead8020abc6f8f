package history

import (
	"fmt"
	"strconv"
	"time"

	"github.com/pocketgram/core/internal/assets"
	"github.com/pocketgram/core/internal/peers"
	"github.com/pocketgram/core/internal/tg"
)

// Row is the projected history entry the presentation layer binds to.
type Row struct {
	MessageID int32
	Date      int32
	GroupedID int64
	Out       bool

	Sender         tg.PeerRef
	SenderName     string
	ThumbnailColor string
	ThumbnailText  string
	Avatar         string
	PhotoID        int64

	MessageTime string
	MessageText string
	Service     bool

	ForwardedFrom string

	HasMedia          bool
	MediaImage        string
	MediaTitle        string
	MediaText         string
	MediaDownloadable bool
	MediaURL          string
	MediaFileName     string
	MediaSpoiler      bool

	HasPhoto     bool
	PhotoFileID  int64
	PhotoFile    string
	PhotoSpoiler bool

	document *tg.Document
	photo    *tg.Photo
}

// newRow builds the full projection for one message. The sender may be nil
// for anonymous posts; users/chats are the response batches for forwarded-from
// resolution.
func newRow(msg *tg.Message, sender *tg.PeerRecord, users []*tg.User, chats []*tg.Chat, renderer Renderer) *Row {
	row := &Row{
		MessageID: msg.ID,
		Date:      msg.Date,
		GroupedID: msg.GroupedID,
		Out:       msg.Out,
	}

	var senderName string
	var senderID int64
	if sender != nil {
		senderName = sender.DisplayName()
		senderID = sender.Ref.ID
		row.Sender = sender.Ref
		row.PhotoID = sender.PhotoID
	}

	color := assets.Color(senderID)
	row.ThumbnailColor = color
	row.ThumbnailText = assets.Initials(senderName)
	row.SenderName = `<html><span style="color: ` + color + `">` + senderName + `</span></html>`

	stamp := msg.Date
	if msg.EditDate > stamp {
		stamp = msg.EditDate
	}
	row.MessageTime = time.Unix(int64(stamp), 0).Format("15:04")
	row.MessageText = renderer.Render(msg.Body, msg.Entities)

	if msg.Action != "" {
		row.MessageText = msg.Action
		row.Service = true
	}

	if fwd := msg.FwdFrom; fwd != nil {
		name := fwd.FromName
		if name == "" {
			if p := peers.ResolveBatches(fwd.FromID, users, chats); p != nil {
				name = p.DisplayName()
			}
		}
		row.ForwardedFrom = name
	}

	applyMedia(row, msg.Media)

	return row
}

func applyMedia(row *Row, media *tg.Media) {
	if media == nil || media.Kind == tg.MediaNone {
		return
	}

	row.HasMedia = true

	switch media.Kind {
	case tg.MediaPhoto:
		// Photos render inline, not as a media card.
		row.HasMedia = false
		row.photo = media.Photo
		if media.Photo != nil {
			row.PhotoFileID = media.Photo.ID
		}
		row.HasPhoto = row.PhotoFileID != 0
		row.PhotoSpoiler = media.Spoiler
	case tg.MediaContact:
		row.MediaImage = "account"
		row.MediaTitle = media.FirstName + " " + media.LastName
		row.MediaText = media.PhoneNumber
	case tg.MediaUnsupported:
		row.MediaImage = "file"
		row.MediaTitle = "Unsupported media"
		row.MediaText = "update your app"
	case tg.MediaDocument:
		row.MediaImage = "file"
		row.MediaDownloadable = true
		row.document = media.Document

		name := media.Document.FileName()
		if name == "" {
			name = "Unknown file"
		}
		row.MediaTitle = name
		row.MediaFileName = media.Document.FileName()
		if media.Document != nil {
			row.MediaText = sizeText(media.Document.Size)
		}
		row.MediaSpoiler = media.Spoiler
	case tg.MediaWebPage:
		row.MediaImage = "web"
		row.MediaTitle = "Webpage"
		if media.WebPage != nil {
			row.MediaText = media.WebPage.Title
			row.MediaURL = media.WebPage.URL
		}
		if row.MediaText == "" {
			row.MediaText = "unknown link"
		}
	case tg.MediaVenue:
		row.MediaImage = "map-marker"
		row.MediaTitle = "Venue"
		row.MediaText = media.Title
	case tg.MediaGame:
		row.MediaImage = "gamepad-square"
		row.MediaTitle = "Game"
		if media.Game != nil {
			row.MediaText = media.Game.Title
		}
	case tg.MediaInvoice:
		row.MediaImage = "receipt-text"
		row.MediaTitle = media.Title
		row.MediaText = media.Description
	case tg.MediaGeo, tg.MediaGeoLive:
		row.MediaImage = "map-marker"
		if media.Kind == tg.MediaGeoLive {
			row.MediaTitle = "Live geolocation"
		} else {
			row.MediaTitle = "Geolocation"
		}
		if media.Geo != nil {
			row.MediaText = formatCoord(media.Geo.Long) + ", " + formatCoord(media.Geo.Lat)
		}
	case tg.MediaPoll:
		row.MediaImage = "poll"
		row.MediaTitle = "Poll"
		if media.Poll != nil && media.Poll.PublicVoters {
			row.MediaText = "public"
		} else {
			row.MediaText = "anonymous"
		}
	case tg.MediaDice:
		row.MediaImage = "dice-multiple"
		row.MediaTitle = "Dice"
		row.MediaText = media.Value
	}
}

// sizeText renders a byte count at two decimals with binary thresholds.
func sizeText(size int64) string {
	switch {
	case size > 1<<30:
		return fmt.Sprintf("%.2f GB", float64(size)/(1<<30))
	case size > 1<<20:
		return fmt.Sprintf("%.2f MB", float64(size)/(1<<20))
	case size > 1<<10:
		return fmt.Sprintf("%.2f KB", float64(size)/(1<<10))
	default:
		return fmt.Sprintf("%.2f B", float64(size))
	}
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
