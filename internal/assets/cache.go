// Package assets implements the deduplicating, persisted download cache for
// avatar and photo assets, plus the pure display-identity helpers derived
// from peer records.
package assets

import (
	"os"
	"sync"

	"github.com/pocketgram/core/internal/bus"
	"github.com/pocketgram/core/internal/session"
	"github.com/pocketgram/core/internal/store"
	"github.com/pocketgram/core/internal/tg"
	"go.uber.org/zap"
)

// Ledger keys in the session settings store.
const (
	keyDownloadedAvatars = "DownloadedAvatars"
	keyDownloadedPhotos  = "DownloadedPhotos"
)

// Cache ensures a locally usable image file exists for each requested asset,
// deduplicates concurrent requests by content id, and persists the
// downloaded-id ledger across restarts.
type Cache struct {
	mu     sync.Mutex
	db     *store.DB
	bus    *bus.Bus
	logger *zap.Logger

	client        tg.Client
	removeHandler func()
	userID        int64

	// correlation id -> asset id, and the reverse, per namespace. The
	// reverse maps enforce at most one outstanding download per asset.
	avatarByReq   map[int64]int64
	avatarPending map[int64]int64
	photoByReq    map[int64]int64
	photoPending  map[int64]int64

	downloadedAvatars map[int64]struct{}
	downloadedPhotos  map[int64]struct{}
}

// NewCache creates a cache persisting its ledger into db.
func NewCache(db *store.DB, b *bus.Bus, logger *zap.Logger) *Cache {
	return &Cache{
		db:                db,
		bus:               b,
		logger:            logger,
		avatarByReq:       make(map[int64]int64),
		avatarPending:     make(map[int64]int64),
		photoByReq:        make(map[int64]int64),
		photoPending:      make(map[int64]int64),
		downloadedAvatars: make(map[int64]struct{}),
		downloadedPhotos:  make(map[int64]struct{}),
	}
}

// SetClient attaches the cache to a protocol client. Any previous client is
// detached and its ledger flushed; pending requests are dropped and the
// persisted ledger reloaded for the new identity.
func (c *Cache) SetClient(client tg.Client) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		if c.removeHandler != nil {
			c.removeHandler()
			c.removeHandler = nil
		}
		c.saveLedgerLocked()
	}

	c.client = client
	c.userID = 0
	c.clearPendingLocked()

	if client == nil {
		return
	}

	c.userID = client.UserID()
	c.loadLedgerLocked()

	dir := client.SessionDir()
	if err := os.MkdirAll(session.AvatarsDir(dir), 0700); err != nil {
		c.logger.Warn("create avatars dir", zap.Error(err))
	}
	if err := os.MkdirAll(session.PhotosDir(dir), 0700); err != nil {
		c.logger.Warn("create photos dir", zap.Error(err))
	}

	c.removeHandler = client.AddEventHandler(c.handleEvent)
}

// Flush persists the downloaded-id ledger.
func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saveLedgerLocked()
}

func (c *Cache) handleEvent(evt tg.Event) {
	switch e := evt.(type) {
	case tg.AuthorizedEvent:
		c.authorized(e.UserID)
	case tg.FileDownloadedEvent:
		c.fileDownloaded(e.RequestID, e.Path)
	case tg.FileDownloadCanceledEvent:
		c.downloadCanceled(e.RequestID)
	}
}

func (c *Cache) authorized(userID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.userID != userID {
		c.clearPendingLocked()
		c.userID = userID
	}
}

// RequestAvatar ensures the peer's profile photo is available locally.
// Returns the asset id, or 0 when there is nothing to fetch. If the asset is
// already in the ledger the ready event fires synchronously with no network
// call; an in-flight request for the same asset is suppressed.
func (c *Cache) RequestAvatar(peer *tg.PeerRecord) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil || !c.client.Authorized() || !peer.Valid() || peer.PhotoID == 0 {
		return 0
	}

	id := peer.PhotoID
	raw := session.AvatarRawPath(c.client.SessionDir(), id)

	if _, done := c.downloadedAvatars[id]; done {
		c.bus.Publish("assets.avatar_ready", bus.AssetReady{AssetID: id, Path: raw + ".png"})
		return id
	}
	if _, inflight := c.avatarPending[id]; inflight {
		return id
	}

	reqID := c.client.DownloadFile(raw, tg.FileRef{Peer: peer})
	c.avatarByReq[reqID] = id
	c.avatarPending[id] = reqID
	return id
}

// RequestPhoto ensures a message photo's thumbnail is available locally.
// Same contract as RequestAvatar, separate namespace and ledger.
func (c *Cache) RequestPhoto(photo *tg.Photo) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil || !c.client.Authorized() || photo == nil || photo.ID == 0 {
		return 0
	}

	id := photo.ID
	raw := session.PhotoRawPath(c.client.SessionDir(), id)

	if _, done := c.downloadedPhotos[id]; done {
		c.bus.Publish("assets.photo_ready", bus.AssetReady{AssetID: id, Path: raw + ".thumbnail.jpg"})
		return id
	}
	if _, inflight := c.photoPending[id]; inflight {
		return id
	}

	reqID := c.client.DownloadFile(raw, tg.FileRef{Photo: photo})
	c.photoByReq[reqID] = id
	c.photoPending[id] = reqID
	return id
}

func (c *Cache) fileDownloaded(reqID int64, rawPath string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if assetID, ok := c.avatarByReq[reqID]; ok {
		delete(c.avatarByReq, reqID)
		delete(c.avatarPending, assetID)

		out := rawPath + ".png"
		if err := RenderAvatar(rawPath, out); err != nil {
			// Not fatal: the asset stays not-downloaded and may be retried.
			c.logger.Warn("avatar render failed", zap.Int64("asset", assetID), zap.Error(err))
			return
		}

		c.downloadedAvatars[assetID] = struct{}{}
		c.saveLedgerLocked()
		c.bus.Publish("assets.avatar_ready", bus.AssetReady{AssetID: assetID, Path: out})
		return
	}

	if assetID, ok := c.photoByReq[reqID]; ok {
		delete(c.photoByReq, reqID)
		delete(c.photoPending, assetID)

		out := rawPath + ".thumbnail.jpg"
		if err := RenderThumbnail(rawPath, out); err != nil {
			c.logger.Warn("thumbnail render failed", zap.Int64("asset", assetID), zap.Error(err))
			return
		}

		c.downloadedPhotos[assetID] = struct{}{}
		c.saveLedgerLocked()
		c.bus.Publish("assets.photo_ready", bus.AssetReady{AssetID: assetID, Path: out})
	}
}

func (c *Cache) downloadCanceled(reqID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if assetID, ok := c.avatarByReq[reqID]; ok {
		delete(c.avatarByReq, reqID)
		delete(c.avatarPending, assetID)
	}
	if assetID, ok := c.photoByReq[reqID]; ok {
		delete(c.photoByReq, reqID)
		delete(c.photoPending, assetID)
	}
}

func (c *Cache) clearPendingLocked() {
	c.avatarByReq = make(map[int64]int64)
	c.avatarPending = make(map[int64]int64)
	c.photoByReq = make(map[int64]int64)
	c.photoPending = make(map[int64]int64)
}

func (c *Cache) saveLedgerLocked() {
	if c.db == nil || c.client == nil {
		return
	}
	if err := c.db.SetIDSet(keyDownloadedAvatars, setToSlice(c.downloadedAvatars)); err != nil {
		c.logger.Warn("persist avatar ledger", zap.Error(err))
	}
	if err := c.db.SetIDSet(keyDownloadedPhotos, setToSlice(c.downloadedPhotos)); err != nil {
		c.logger.Warn("persist photo ledger", zap.Error(err))
	}
}

func (c *Cache) loadLedgerLocked() {
	if c.db == nil {
		return
	}

	c.downloadedAvatars = make(map[int64]struct{})
	c.downloadedPhotos = make(map[int64]struct{})

	avatars, err := c.db.GetIDSet(keyDownloadedAvatars)
	if err != nil {
		c.logger.Warn("load avatar ledger", zap.Error(err))
	}
	for _, id := range avatars {
		c.downloadedAvatars[id] = struct{}{}
	}

	photos, err := c.db.GetIDSet(keyDownloadedPhotos)
	if err != nil {
		c.logger.Warn("load photo ledger", zap.Error(err))
	}
	for _, id := range photos {
		c.downloadedPhotos[id] = struct{}{}
	}
}

func setToSlice(set map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}
