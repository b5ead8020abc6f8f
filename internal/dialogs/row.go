package dialogs

import (
	"strconv"
	"time"

	"github.com/pocketgram/core/internal/assets"
	"github.com/pocketgram/core/internal/folders"
	"github.com/pocketgram/core/internal/tg"
)

// Row is the projected conversation entry the presentation layer binds to.
// One row per distinct peer, mutated in place on push updates.
type Row struct {
	Peer   *tg.PeerRecord
	Pinned bool
	Silent bool

	// Folders holds the indexes of the folders the peer belongs to,
	// against the folder list snapshot the membership was computed with.
	Folders []int

	Title          string
	Tooltip        string
	ThumbnailColor string
	ThumbnailText  string
	Avatar         string
	PhotoID        int64

	MessageTime        string
	MessageText        string
	MessageOut         bool
	MessageSenderName  string
	MessageSenderColor string
}

// newRow builds the full projection for a dialog entry. The last message and
// its sender may be nil when the server did not deliver them.
func newRow(peer *tg.PeerRecord, dlg *tg.Dialog, msg *tg.Message, sender *tg.PeerRecord, folderList []folders.Folder) *Row {
	row := &Row{
		Peer:   peer,
		Pinned: dlg.Pinned,
		Silent: dlg.Silent,
	}
	peer.ApplyDialog(dlg)

	row.Folders = membership(peer, folderList)

	if peer.IsUser() {
		row.Title = peer.DisplayName()
		row.Tooltip = "user"
	} else {
		row.Title = peer.Title
		if peer.ParticipantsCount != nil {
			row.Tooltip = strconv.FormatInt(int64(*peer.ParticipantsCount), 10)
			if peer.IsChannel() {
				row.Tooltip += " subscribers"
			} else {
				row.Tooltip += " members"
			}
		} else if peer.IsChannel() {
			row.Tooltip = "channel"
		} else {
			row.Tooltip = "chat"
		}
	}

	row.ThumbnailColor = assets.Color(peer.Ref.ID)
	row.ThumbnailText = assets.Initials(row.Title)
	row.PhotoID = peer.PhotoID

	row.applyMessage(msg, sender)

	return row
}

// applyMessage recomputes the last-message projection fields in place.
func (r *Row) applyMessage(msg *tg.Message, sender *tg.PeerRecord) {
	if msg == nil {
		r.MessageTime = ""
		r.MessageText = ""
		r.MessageOut = false
		r.MessageSenderName = ""
		r.MessageSenderColor = assets.Color(0)
		return
	}

	stamp := msg.Date
	if msg.EditDate > stamp {
		stamp = msg.EditDate
	}
	r.MessageTime = time.Unix(int64(stamp), 0).Format("15:04")
	r.MessageOut = msg.Out

	var senderName string
	if msg.Out {
		if msg.Action != "" {
			senderName = "You"
		}
	} else if sender.IsUser() {
		senderName = sender.FirstName
	} else if sender != nil {
		senderName = sender.Title
	}
	if senderName != "" {
		if msg.Action == "" {
			senderName += ": "
		} else {
			senderName += " "
		}
	}
	r.MessageSenderName = senderName

	var senderID int64
	if sender != nil {
		senderID = sender.Ref.ID
	}
	r.MessageSenderColor = assets.Color(senderID)

	text := msg.Body
	if msg.Media != nil && msg.Media.Kind != tg.MediaNone {
		if text != "" {
			text += ", "
		}
		text += "Attachment"
	}
	if msg.Action != "" {
		text = msg.Action
	}
	r.MessageText = text
}

// membership evaluates the peer against every folder in the snapshot.
func membership(peer *tg.PeerRecord, folderList []folders.Folder) []int {
	var out []int
	for i := range folderList {
		if folders.Matches(folderList[i].Filter, peer) {
			out = append(out, i)
		}
	}
	return out
}
