// Package dialogs maintains the ordered, paginated conversation list: it
// merges fetch responses and push updates into projected rows and keeps
// pinned conversations ahead of the reordering window.
package dialogs

import (
	"sync"

	"github.com/pocketgram/core/internal/assets"
	"github.com/pocketgram/core/internal/bus"
	"github.com/pocketgram/core/internal/config"
	"github.com/pocketgram/core/internal/folders"
	"github.com/pocketgram/core/internal/peers"
	"github.com/pocketgram/core/internal/tg"
	"go.uber.org/zap"
)

// Engine is the conversation-list engine. All mutation happens under one
// lock; every bus event describes a completed delta.
type Engine struct {
	mu     sync.Mutex
	bus    *bus.Bus
	logger *zap.Logger
	pool   *peers.Pool
	cache  *assets.Cache
	batch  int32

	client       tg.Client
	removeClient func()
	userID       int64

	requestID int64
	offset    tg.DialogOffset
	exhausted bool

	folderList []folders.Folder

	rows []*Row
	// lastPinned is the running high-water mark of the last pinned row
	// position. It only grows; unpinned rows reorder to just below it.
	lastPinned int
}

// NewEngine creates a detached conversation-list engine. The asset cache may
// be nil when avatars are not wanted.
func NewEngine(b *bus.Bus, logger *zap.Logger, pool *peers.Pool, cache *assets.Cache, batchSize int32) *Engine {
	if batchSize <= 0 {
		batchSize = config.DefaultBatchSize
	}
	return &Engine{
		bus:        b,
		logger:     logger,
		pool:       pool,
		cache:      cache,
		batch:      batchSize,
		lastPinned: -1,
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

	if client == nil {
		return
	}

	e.removeClient = client.AddEventHandler(e.handleEvent)

	if client.Authorized() {
		e.userID = client.UserID()
		e.fetchLocked()
	}
}

// FoldersChanged installs a new folder list snapshot and recomputes the
// membership of every loaded row.
func (e *Engine) FoldersChanged(list []folders.Folder) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.folderList = list
	for i, row := range e.rows {
		row.Folders = membership(row.Peer, list)
		e.bus.Publish("dialogs.row_changed", bus.Index{Index: i})
	}
}

// InFolder reports whether the row at index belongs to the folder. An absent
// folder list or an out-of-range index is permissive.
func (e *Engine) InFolder(index, folder int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.folderList) == 0 || folder < 0 || folder >= len(e.folderList) {
		return true
	}
	if index < 0 || index >= len(e.rows) {
		return true
	}
	for _, f := range e.rows[index].Folders {
		if f == folder {
			return true
		}
	}
	return false
}

// Rows returns a snapshot of the projected rows in display order.
func (e *Engine) Rows() []Row {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Row, len(e.rows))
	for i, r := range e.rows {
		out[i] = *r
	}
	return out
}

// FetchNext requests the next conversations page. No-op while a request is
// in flight or once the list is exhausted.
func (e *Engine) FetchNext() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fetchLocked()
}

// Refresh drops all rows and restarts pagination from the top.
func (e *Engine) Refresh() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetLocked()
	e.fetchLocked()
}

// AvatarReady patches the avatar path onto the row owning the asset.
func (e *Engine) AvatarReady(assetID int64, path string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, row := range e.rows {
		if row.PhotoID != assetID {
			continue
		}
		row.Avatar = path
		e.bus.Publish("dialogs.row_changed", bus.Index{Index: i})
		break
	}
}

func (e *Engine) resetLocked() {
	if len(e.rows) > 0 {
		e.rows = nil
		e.bus.Publish("dialogs.reset", nil)
	}
	e.requestID = 0
	e.offset = tg.DialogOffset{}
	e.exhausted = false
	e.lastPinned = -1
}

func (e *Engine) fetchLocked() {
	if e.client == nil || !e.client.Authorized() {
		return
	}
	if e.requestID != 0 || e.exhausted {
		return
	}
	e.requestID = e.client.FetchDialogs(e.offset, e.batch)
}

func (e *Engine) handleEvent(evt tg.Event) {
	switch ev := evt.(type) {
	case tg.AuthorizedEvent:
		e.authorized(ev.UserID)
	case tg.DialogsEvent:
		e.dialogsResponse(ev.Payload, ev.RequestID)
	case tg.UpdateEvent:
		e.pushUpdate(ev)
	case tg.ShortUpdateEvent:
		e.shortUpdate(ev.Update)
	}
}

func (e *Engine) authorized(userID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.userID != userID {
		e.resetLocked()
		e.userID = userID
		e.fetchLocked()
	}
}

func (e *Engine) dialogsResponse(payload *tg.DialogsPayload, requestID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if requestID != e.requestID || payload == nil {
		return
	}
	e.requestID = 0

	switch payload.Kind {
	case tg.DialogsFull, tg.DialogsNotModified:
		e.offset = tg.DialogOffset{}
		e.exhausted = true
	case tg.DialogsSlice:
		e.offset = payload.Offset
	}

	e.pool.Absorb(payload.Users, payload.Chats)

	if len(payload.Dialogs) == 0 {
		e.offset = tg.DialogOffset{}
		e.exhausted = true
		return
	}

	added := make([]*Row, 0, len(payload.Dialogs))
	for i, dlg := range payload.Dialogs {
		if dlg.Pinned && len(e.rows)+i > e.lastPinned {
			e.lastPinned = len(e.rows) + i
		}

		msg := findTopMessage(payload.Messages, dlg)

		peer := peers.ResolveBatches(dlg.Peer, payload.Users, payload.Chats)
		if peer == nil {
			peer = &tg.PeerRecord{Ref: dlg.Peer}
		}

		var sender *tg.PeerRecord
		if msg != nil {
			sender = peers.ResolveBatches(msg.FromID, payload.Users, payload.Chats)
		}

		added = append(added, newRow(peer, dlg, msg, sender, e.folderList))
	}

	first := len(e.rows)
	e.rows = append(e.rows, added...)
	e.bus.Publish("dialogs.rows_inserted", bus.Range{First: first, Last: len(e.rows) - 1})

	e.logger.Debug("dialogs page merged",
		zap.Int("added", len(added)), zap.Int("total", len(e.rows)), zap.Bool("exhausted", e.exhausted))

	if e.cache != nil {
		for _, u := range payload.Users {
			e.cache.RequestAvatar(tg.RecordFromUser(u))
		}
		for _, c := range payload.Chats {
			e.cache.RequestAvatar(tg.RecordFromChat(c))
		}
	}

	e.fetchLocked()
}

// findTopMessage locates the dialog's referenced last message in the response
// batch, scanning newest entries last.
func findTopMessage(messages []*tg.Message, dlg *tg.Dialog) *tg.Message {
	for i := len(messages) - 1; i >= 0; i-- {
		m := messages[i]
		if m.PeerID.Equal(dlg.Peer) && m.ID == dlg.TopMessage {
			return m
		}
	}
	return nil
}

func (e *Engine) pushUpdate(ev tg.UpdateEvent) {
	if ev.Update == nil || ev.Update.Message == nil {
		return
	}
	switch ev.Update.Kind {
	case tg.UpdateNewMessage, tg.UpdateNewChannelMessage:
	default:
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Pushes interleaved with an unfinished pagination pass are dropped.
	if !e.exhausted {
		return
	}

	msg := *ev.Update.Message

	rowIndex := e.findRowLocked(msg.PeerID)
	if rowIndex == -1 {
		return
	}
	row := e.rows[rowIndex]

	sender := peers.ResolveBatches(msg.FromID, ev.Users, ev.Chats)
	if sender == nil && msg.FromID.Valid() {
		sender = e.pool.Resolve(msg.FromID)
	}
	if !msg.FromID.Valid() {
		// Channel feed or self chat: the conversation peer speaks.
		sender = row.Peer
	}

	if sender != nil && e.client != nil {
		msg.Out = sender.Ref.ID == e.client.UserID()
	}

	e.applyRowMessageLocked(rowIndex, &msg, sender)
}

func (e *Engine) shortUpdate(su *tg.ShortUpdate) {
	if su == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.exhausted || e.client == nil {
		return
	}

	var peerRef tg.PeerRef
	var fromID int64

	switch {
	case su.UserID != 0:
		peerRef = tg.PeerRef{Kind: tg.PeerUser, ID: su.UserID}
		if su.Out {
			fromID = e.client.UserID()
		} else {
			fromID = su.UserID
		}
	case su.ChatID != 0:
		peerRef = tg.PeerRef{Kind: tg.PeerChat, ID: su.ChatID}
		fromID = su.FromID
	default:
		return
	}

	rowIndex := e.findRowLocked(peerRef)
	if rowIndex == -1 {
		return
	}

	sender := e.pool.ResolveID(fromID)

	msg := tg.Message{
		ID:     su.ID,
		PeerID: peerRef,
		Date:   su.Date,
		Out:    su.Out,
		Body:   su.Body,
		Media:  su.Media,
	}
	if sender != nil {
		msg.FromID = sender.Ref
	}

	e.applyRowMessageLocked(rowIndex, &msg, sender)
}

// applyRowMessageLocked recomputes the row's message projection, emits the
// change, raises a notification and floats the row below the pinned block.
func (e *Engine) applyRowMessageLocked(rowIndex int, msg *tg.Message, sender *tg.PeerRecord) {
	row := e.rows[rowIndex]
	row.applyMessage(msg, sender)
	e.bus.Publish("dialogs.row_changed", bus.Index{Index: rowIndex})

	if !row.MessageOut {
		e.bus.Publish("notify.message", bus.Notification{
			PeerID:     row.Peer.Ref.ID,
			Title:      row.Title,
			SenderName: row.MessageSenderName,
			Preview:    row.MessageText,
			Silent:     row.Silent,
		})
	}

	if row.Pinned {
		return
	}

	target := e.lastPinned + 1
	if rowIndex <= target {
		return
	}

	moved := e.rows[rowIndex]
	e.rows = append(e.rows[:rowIndex], e.rows[rowIndex+1:]...)
	rest := append([]*Row{moved}, e.rows[target:]...)
	e.rows = append(e.rows[:target], rest...)
	e.bus.Publish("dialogs.row_moved", bus.Move{From: rowIndex, To: target})
}

func (e *Engine) findRowLocked(ref tg.PeerRef) int {
	for i, row := range e.rows {
		if row.Peer.Ref.Equal(ref) {
			return i
		}
	}
	return -1
}
