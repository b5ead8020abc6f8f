package app

import (
	"github.com/pocketgram/core/internal/bus"
	"github.com/pocketgram/core/internal/dialogs"
	"github.com/pocketgram/core/internal/folders"
	"github.com/pocketgram/core/internal/history"
)

// Bridge forwards cross-engine bus events: folder definitions into the
// conversation list, and rendered assets into both list engines.
type Bridge struct {
	bus     *bus.Bus
	dialogs *dialogs.Engine
	history *history.Engine

	done chan struct{}
	stop []func()
}

// NewBridge creates a bridge between the given engines.
func NewBridge(b *bus.Bus, d *dialogs.Engine, h *history.Engine) *Bridge {
	return &Bridge{bus: b, dialogs: d, history: h, done: make(chan struct{})}
}

// Start launches the forwarding goroutines.
func (br *Bridge) Start() {
	foldersCh, unsubFolders := br.bus.Subscribe("folders.changed", 16)
	assetsCh, unsubAssets := br.bus.Subscribe("assets.", 64)
	br.stop = append(br.stop, unsubFolders, unsubAssets)

	go func() {
		for {
			select {
			case <-br.done:
				return
			case evt := <-foldersCh:
				if list, ok := evt.Payload.([]folders.Folder); ok {
					br.dialogs.FoldersChanged(list)
				}
			}
		}
	}()

	go func() {
		for {
			select {
			case <-br.done:
				return
			case evt := <-assetsCh:
				ready, ok := evt.Payload.(bus.AssetReady)
				if !ok {
					continue
				}
				switch evt.Kind {
				case "assets.avatar_ready":
					br.dialogs.AvatarReady(ready.AssetID, ready.Path)
					br.history.AvatarReady(ready.AssetID, ready.Path)
				case "assets.photo_ready":
					br.history.PhotoReady(ready.AssetID, ready.Path)
				}
			}
		}
	}()
}

// Stop unsubscribes and terminates the forwarding goroutines.
func (br *Bridge) Stop() {
	close(br.done)
	for _, unsub := range br.stop {
		unsub()
	}
	br.stop = nil
}
