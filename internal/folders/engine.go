package folders

import (
	"sync"

	"github.com/pocketgram/core/internal/bus"
	"github.com/pocketgram/core/internal/tg"
	"go.uber.org/zap"
)

// Folder is one resolved entry of the folder list: the raw filter plus its
// display projection.
type Folder struct {
	Filter *tg.DialogFilter
	Title  string
	Icon   string
}

// Engine maintains the folder list. A single forward cursor, fetched once per
// identity; the resolved list is broadcast on "folders.changed" so the
// conversation list can recompute memberships.
type Engine struct {
	mu     sync.Mutex
	bus    *bus.Bus
	logger *zap.Logger

	client        tg.Client
	removeHandler func()
	userID        int64
	requestID     int64

	folders []Folder
}

// NewEngine creates a detached folder-list engine.
func NewEngine(b *bus.Bus, logger *zap.Logger) *Engine {
	return &Engine{bus: b, logger: logger}
}

// SetClient attaches the engine to a protocol client, resetting all state.
func (e *Engine) SetClient(client tg.Client) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.removeHandler != nil {
		e.removeHandler()
		e.removeHandler = nil
	}

	e.client = client
	e.userID = 0
	e.resetLocked()

	if client == nil {
		return
	}

	e.removeHandler = client.AddEventHandler(e.handleEvent)

	if client.Authorized() {
		e.userID = client.UserID()
		e.fetchLocked()
	}
}

// Folders returns a snapshot of the resolved folder list.
func (e *Engine) Folders() []Folder {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Folder, len(e.folders))
	copy(out, e.folders)
	return out
}

// Refresh drops the list and refetches it.
func (e *Engine) Refresh() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetLocked()
	e.fetchLocked()
}

// FetchNext issues the folder-list request when nothing is loaded or
// in flight. The list is a single page.
func (e *Engine) FetchNext() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fetchLocked()
}

func (e *Engine) fetchLocked() {
	if e.client == nil || !e.client.Authorized() {
		return
	}
	if e.requestID != 0 || len(e.folders) > 0 {
		return
	}
	e.requestID = e.client.FetchFolders()
}

func (e *Engine) resetLocked() {
	e.folders = nil
	e.requestID = 0
}

func (e *Engine) handleEvent(evt tg.Event) {
	switch ev := evt.(type) {
	case tg.AuthorizedEvent:
		e.authorized(ev.UserID)
	case tg.FoldersEvent:
		e.foldersResponse(ev.Filters, ev.RequestID)
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

func (e *Engine) foldersResponse(filters []*tg.DialogFilter, requestID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if requestID != e.requestID {
		return
	}
	e.requestID = 0

	if len(filters) == 0 {
		return
	}

	rows := make([]Folder, 0, len(filters))
	for _, f := range filters {
		rows = append(rows, resolveFolder(f))
	}
	e.folders = append(e.folders, rows...)

	e.logger.Debug("folder list loaded", zap.Int("count", len(e.folders)))

	snapshot := make([]Folder, len(e.folders))
	copy(snapshot, e.folders)
	e.bus.Publish("folders.changed", snapshot)
}

func resolveFolder(f *tg.DialogFilter) Folder {
	title := f.Title
	if f.Kind == tg.FilterDefault {
		title = "All chats"
	}
	return Folder{Filter: f, Title: title, Icon: IconFor(f)}
}
