// Package history maintains the per-conversation message history: two
// pagination cursors around the last-read position, push-update merging,
// message sending with media uploads, and document downloads.
package history

import (
	"sync"

	"github.com/pocketgram/core/internal/assets"
	"github.com/pocketgram/core/internal/bus"
	"github.com/pocketgram/core/internal/config"
	"github.com/pocketgram/core/internal/peers"
	"github.com/pocketgram/core/internal/tg"
	"go.uber.org/zap"
)

// exhaustedOffset is the terminal cursor value for one fetch direction.
const exhaustedOffset = -1

// Engine is the message-history engine for the currently selected
// conversation. All mutation happens under one lock; every bus event
// describes a completed delta.
type Engine struct {
	mu       sync.Mutex
	bus      *bus.Bus
	logger   *zap.Logger
	pool     *peers.Pool
	cache    *assets.Cache
	renderer Renderer
	batch    int32

	client       tg.Client
	removeClient func()
	userID       int64

	peer *tg.PeerRecord

	// Two cursors around the last-read position. The newer cursor extends
	// the tail, the older cursor the head.
	newerRequestID int64
	olderRequestID int64
	newerOffset    int32
	olderOffset    int32

	rows []*Row

	// download correlation id -> message id
	downloads map[int64]int32
	// downloadsRoot overrides the user downloads directory when set
	downloadsRoot string

	// single upload slot plus the media pending for the next send
	uploadID int64
	media    *tg.InputMedia

	// provisional send id -> body, for the server echo
	sent map[int64]string
}

// NewEngine creates a detached history engine. The asset cache and renderer
// may be nil; a nil renderer falls back to PlainRenderer.
func NewEngine(b *bus.Bus, logger *zap.Logger, pool *peers.Pool, cache *assets.Cache, renderer Renderer, batchSize int32) *Engine {
	if renderer == nil {
		renderer = PlainRenderer{}
	}
	if batchSize <= 0 {
		batchSize = config.DefaultBatchSize
	}
	return &Engine{
		bus:       b,
		logger:    logger,
		pool:      pool,
		cache:     cache,
		renderer:  renderer,
		batch:     batchSize,
		downloads: make(map[int64]int32),
		sent:      make(map[int64]string),
	}
}

// SetClient attaches the engine to a protocol client, resetting all state.
func (e *Engine) SetClient(client tg.Client) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.removeClient != nil {
		e.removeClient()
		e.removeClient = nil
	}

	e.client = client
	e.userID = 0
	e.resetLocked()
	e.cancelUploadLocked()

	if client == nil {
		return
	}

	if client.Authorized() {
		e.userID = client.UserID()
	}
	e.removeClient = client.AddEventHandler(e.handleEvent)
}

// SetPeer selects the conversation: both cursors reset to the last-read
// position and one fetch fires in each direction.
func (e *Engine) SetPeer(peer *tg.PeerRecord) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.resetLocked()
	e.downloads = make(map[int64]int32)
	e.cancelUploadLocked()

	e.peer = peer
	if !peer.Valid() {
		return
	}

	e.olderOffset = readHighWater(peer)
	e.newerOffset = e.olderOffset
	e.fetchOlderLocked()
	e.fetchNewerLocked()
}

// Peer returns the currently selected conversation peer.
func (e *Engine) Peer() *tg.PeerRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.peer
}

// Rows returns a snapshot of the projected rows in chronological order.
func (e *Engine) Rows() []Row {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Row, len(e.rows))
	for i, r := range e.rows {
		out[i] = *r
	}
	return out
}

// MergesWithPrevious reports whether the row at index visually merges with
// its predecessor: same sender and either the same media group or, outside
// channels, a gap under five minutes.
func (e *Engine) MergesWithPrevious(index int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if index < 1 || index >= len(e.rows) {
		return false
	}
	curr, prev := e.rows[index], e.rows[index-1]

	if !curr.Sender.Equal(prev.Sender) {
		return false
	}
	if curr.GroupedID != 0 && curr.GroupedID == prev.GroupedID {
		return true
	}
	if !e.peer.IsChannel() && curr.Date-prev.Date < 300 {
		return true
	}
	return false
}

// FetchOlder requests the page preceding the oldest loaded message.
func (e *Engine) FetchOlder() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fetchOlderLocked()
}

// FetchNewer requests the page following the newest loaded message.
func (e *Engine) FetchNewer() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fetchNewerLocked()
}

// RevealSpoiler handles a link activation on the row at index: when the link
// sits inside a hidden spoiler span, the span is revealed in place.
func (e *Engine) RevealSpoiler(link string, index int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if index < 0 || index >= len(e.rows) {
		return
	}
	row := e.rows[index]

	if out, changed := revealSpoiler(row.MessageText, link); changed {
		row.MessageText = out
		e.bus.Publish("history.row_changed", bus.Index{Index: index})
	}
}

// AvatarReady patches the avatar path onto every row owned by the sender
// with the given photo asset.
func (e *Engine) AvatarReady(assetID int64, path string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, row := range e.rows {
		if row.PhotoID != assetID {
			continue
		}
		row.Avatar = path
		e.bus.Publish("history.row_changed", bus.Index{Index: i})
	}
}

// PhotoReady patches the thumbnail path onto every row showing the photo.
func (e *Engine) PhotoReady(assetID int64, path string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, row := range e.rows {
		if row.PhotoFileID != assetID {
			continue
		}
		row.PhotoFile = path
		e.bus.Publish("history.row_changed", bus.Index{Index: i})
	}
}

func (e *Engine) resetLocked() {
	if len(e.rows) > 0 {
		e.rows = nil
		e.bus.Publish("history.reset", nil)
	}
	e.peer = nil
	e.newerRequestID = 0
	e.olderRequestID = 0
	e.newerOffset = 0
	e.olderOffset = 0
}

func readHighWater(peer *tg.PeerRecord) int32 {
	hw := peer.ReadInboxMaxID
	if peer.ReadOutboxMaxID > hw {
		hw = peer.ReadOutboxMaxID
	}
	return hw
}

func (e *Engine) fetchNewerLocked() {
	if e.client == nil || !e.client.Authorized() || !e.peer.Valid() {
		return
	}
	if e.newerRequestID != 0 || e.newerOffset == exhaustedOffset {
		return
	}
	e.newerRequestID = e.client.FetchHistory(e.peer, e.newerOffset, -e.batch, e.batch)
}

func (e *Engine) fetchOlderLocked() {
	if e.client == nil || !e.client.Authorized() || !e.peer.Valid() {
		return
	}
	if e.olderRequestID != 0 || e.olderOffset == exhaustedOffset {
		return
	}
	e.olderRequestID = e.client.FetchHistory(e.peer, e.olderOffset, 0, e.batch)
}

func (e *Engine) handleEvent(evt tg.Event) {
	switch ev := evt.(type) {
	case tg.AuthorizedEvent:
		e.authorized(ev.UserID)
	case tg.HistoryEvent:
		e.historyResponse(ev.Payload, ev.RequestID)
	case tg.UpdateEvent:
		e.pushUpdate(ev)
	case tg.ShortUpdateEvent:
		e.shortUpdate(ev.Update, ev.RequestID)
	case tg.FileDownloadedEvent:
		e.fileDownloaded(ev.RequestID, ev.Path)
	case tg.FileDownloadCanceledEvent:
		e.fileDownloadCanceled(ev.RequestID)
	case tg.UploadProgressEvent:
		e.uploadProgress(ev.UploadID, ev.Percent)
	case tg.UploadedEvent:
		e.uploaded(ev.UploadID, ev.File)
	case tg.UploadCanceledEvent:
		e.uploadCanceled(ev.UploadID)
	}
}

func (e *Engine) authorized(userID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.userID != userID {
		e.resetLocked()
		e.cancelUploadLocked()
		e.downloads = make(map[int64]int32)
		e.userID = userID
	}
}

func (e *Engine) historyResponse(payload *tg.HistoryPayload, requestID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if payload == nil {
		return
	}

	switch requestID {
	case e.newerRequestID:
		e.handleNewerLocked(payload)
		e.newerRequestID = 0
	case e.olderRequestID:
		e.handleOlderLocked(payload)
		e.olderRequestID = 0
	}
}

// handleNewerLocked appends a page at the tail. The payload arrives newest
// first and is reversed to chronological order.
func (e *Engine) handleNewerLocked(payload *tg.HistoryPayload) {
	e.pool.Absorb(payload.Users, payload.Chats)

	if len(payload.Messages) == 0 {
		e.newerOffset = exhaustedOffset
		return
	}

	rows := e.projectPageLocked(payload)

	oldOffset := e.newerOffset
	newOffset := payload.Messages[0].ID
	if e.newerOffset != newOffset && len(payload.Messages) == int(e.batch) {
		e.newerOffset = newOffset
	} else {
		e.newerOffset = exhaustedOffset
	}

	oldSize := len(e.rows)
	e.rows = append(e.rows, rows...)
	e.bus.Publish("history.rows_inserted", bus.Range{First: oldSize, Last: len(e.rows) - 1})
	if oldSize > 0 {
		// The former tail row may now merge with its new successor.
		e.bus.Publish("history.row_changed", bus.Index{Index: oldSize - 1})
	}

	if readHighWater(e.peer) == oldOffset {
		e.bus.Publish("history.scroll_to", bus.Scroll{Index: len(e.rows) - 1})
	}

	e.requestAssetsLocked(payload, rows)
}

// handleOlderLocked prepends a page at the head.
func (e *Engine) handleOlderLocked(payload *tg.HistoryPayload) {
	e.pool.Absorb(payload.Users, payload.Chats)

	if len(payload.Messages) == 0 {
		e.olderOffset = exhaustedOffset
		return
	}

	rows := e.projectPageLocked(payload)

	oldOffset := e.olderOffset
	newOffset := payload.Messages[len(payload.Messages)-1].ID
	if e.olderOffset != newOffset && len(payload.Messages) == int(e.batch) {
		e.olderOffset = newOffset
	} else {
		e.olderOffset = exhaustedOffset
	}

	oldSize := len(e.rows)
	e.rows = append(rows, e.rows...)
	e.bus.Publish("history.rows_inserted", bus.Range{First: 0, Last: len(rows) - 1})
	if oldSize > 0 {
		e.bus.Publish("history.row_changed", bus.Index{Index: len(rows)})
	}

	if readHighWater(e.peer) == oldOffset {
		e.bus.Publish("history.scroll_to", bus.Scroll{Index: len(e.rows) - 1})
	} else {
		e.bus.Publish("history.scroll_to", bus.Scroll{Index: len(rows)})
	}

	e.requestAssetsLocked(payload, rows)
}

// projectPageLocked builds rows for a payload page in chronological order.
func (e *Engine) projectPageLocked(payload *tg.HistoryPayload) []*Row {
	rows := make([]*Row, 0, len(payload.Messages))
	for i := len(payload.Messages) - 1; i >= 0; i-- {
		msg := payload.Messages[i]
		sender := e.resolveSenderLocked(msg.FromID, payload.Users, payload.Chats)
		rows = append(rows, newRow(msg, sender, payload.Users, payload.Chats, e.renderer))
	}
	return rows
}

// resolveSenderLocked finds the message sender, falling back to the
// conversation peer for channel feeds and self chats.
func (e *Engine) resolveSenderLocked(from tg.PeerRef, users []*tg.User, chats []*tg.Chat) *tg.PeerRecord {
	if !from.Valid() {
		return e.peer
	}
	if sender := peers.ResolveBatches(from, users, chats); sender != nil {
		return sender
	}
	return e.pool.Resolve(from)
}

func (e *Engine) requestAssetsLocked(payload *tg.HistoryPayload, rows []*Row) {
	if e.cache == nil {
		return
	}
	for _, u := range payload.Users {
		e.cache.RequestAvatar(tg.RecordFromUser(u))
	}
	for _, c := range payload.Chats {
		e.cache.RequestAvatar(tg.RecordFromChat(c))
	}
	for _, row := range rows {
		if row.photo != nil {
			e.cache.RequestPhoto(row.photo)
		}
	}
}

func (e *Engine) pushUpdate(ev tg.UpdateEvent) {
	if ev.Update == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	switch ev.Update.Kind {
	case tg.UpdateNewMessage, tg.UpdateNewChannelMessage:
		e.newMessageLocked(ev.Update.Message, ev.Users, ev.Chats)
	case tg.UpdateEditMessage, tg.UpdateEditChannelMessage:
		e.editMessageLocked(ev.Update.Message, ev.Users, ev.Chats)
	case tg.UpdateDeleteChannelMessages:
		if !e.peer.IsChat() || e.peer.Ref.ID != ev.Update.ChannelID {
			return
		}
		e.deleteMessagesLocked(ev.Update.MessageIDs)
	case tg.UpdateDeleteMessages:
		e.deleteMessagesLocked(ev.Update.MessageIDs)
	}
}

func (e *Engine) newMessageLocked(msg *tg.Message, users []*tg.User, chats []*tg.Chat) {
	// New messages only merge once the newer cursor caught up.
	if msg == nil || e.newerOffset != exhaustedOffset {
		return
	}
	if !e.peer.Valid() || !e.peer.Ref.Equal(msg.PeerID) {
		return
	}

	m := *msg
	sender := e.resolveSenderLocked(m.FromID, users, chats)
	if sender != nil && e.client != nil {
		m.Out = sender.Ref.ID == e.client.UserID()
	}

	e.appendRowLocked(newRow(&m, sender, users, chats, e.renderer), sender)
	e.bus.Publish("history.scroll_new", nil)
}

// appendRowLocked appends one pushed row and requests its assets.
func (e *Engine) appendRowLocked(row *Row, sender *tg.PeerRecord) {
	oldSize := len(e.rows)
	e.rows = append(e.rows, row)
	e.bus.Publish("history.rows_inserted", bus.Range{First: oldSize, Last: oldSize})
	if oldSize > 0 {
		e.bus.Publish("history.row_changed", bus.Index{Index: oldSize - 1})
	}

	if e.cache != nil {
		if sender != nil {
			e.cache.RequestAvatar(sender)
		}
		if row.photo != nil {
			e.cache.RequestPhoto(row.photo)
		}
	}
}

func (e *Engine) editMessageLocked(msg *tg.Message, users []*tg.User, chats []*tg.Chat) {
	if msg == nil || !e.peer.Valid() || !e.peer.Ref.Equal(msg.PeerID) {
		return
	}

	rowIndex := -1
	for i, row := range e.rows {
		if row.MessageID == msg.ID {
			rowIndex = i
			break
		}
	}
	if rowIndex == -1 {
		return
	}

	m := *msg
	sender := e.resolveSenderLocked(m.FromID, users, chats)
	if sender != nil && e.client != nil {
		m.Out = sender.Ref.ID == e.client.UserID()
	}

	row := newRow(&m, sender, users, chats, e.renderer)
	e.rows[rowIndex] = row
	e.bus.Publish("history.row_changed", bus.Index{Index: rowIndex})

	if e.cache != nil {
		if sender != nil {
			e.cache.RequestAvatar(sender)
		}
		if row.photo != nil {
			e.cache.RequestPhoto(row.photo)
		}
	}
}

func (e *Engine) deleteMessagesLocked(ids []int32) {
	remaining := make(map[int32]struct{}, len(ids))
	for _, id := range ids {
		remaining[id] = struct{}{}
	}

	for i := 0; i < len(e.rows); i++ {
		if _, ok := remaining[e.rows[i].MessageID]; !ok {
			continue
		}
		delete(remaining, e.rows[i].MessageID)
		e.rows = append(e.rows[:i], e.rows[i+1:]...)
		e.bus.Publish("history.row_removed", bus.Index{Index: i})
		i--
	}
}

func (e *Engine) shortUpdate(su *tg.ShortUpdate, requestID int64) {
	if su == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.newerOffset != exhaustedOffset || !e.peer.Valid() || e.client == nil {
		return
	}

	var fromID int64
	msg := tg.Message{
		ID:     su.ID,
		PeerID: e.peer.Ref,
		Date:   su.Date,
		Out:    su.Out,
		Body:   su.Body,
		Media:  su.Media,
	}

	switch su.Kind {
	case tg.ShortSentMessage:
		body, ok := e.sent[requestID]
		if !ok {
			return
		}
		delete(e.sent, requestID)

		msg.Body = body
		msg.Out = true
		fromID = e.client.UserID()

		e.bus.Publish("history.sent", msg)
	case tg.ShortMessage:
		if !e.peer.IsUser() || su.UserID != e.peer.Ref.ID {
			return
		}
		if su.Out {
			fromID = e.client.UserID()
		} else {
			fromID = su.UserID
		}
	case tg.ShortChatMessage:
		if !e.peer.IsChat() || su.ChatID != e.peer.Ref.ID {
			return
		}
		fromID = su.FromID
	default:
		return
	}

	sender := e.pool.ResolveID(fromID)
	if sender != nil {
		msg.FromID = sender.Ref
	}

	e.appendRowLocked(newRow(&msg, sender, nil, nil, e.renderer), sender)
	e.bus.Publish("history.scroll_new", nil)
}
