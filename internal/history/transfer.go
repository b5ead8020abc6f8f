package history

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pocketgram/core/internal/bus"
	"github.com/pocketgram/core/internal/tg"
	"go.uber.org/zap"
)

// downloadsSubdir is created under the user's downloads directory.
const downloadsSubdir = "Pocketgram"

// SendMessage sends the body plus any pending uploaded media to the selected
// conversation. No-op while an upload is still running or when there is
// nothing to send.
func (e *Engine) SendMessage(body string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.client == nil || !e.client.Authorized() || !e.peer.Valid() {
		return
	}
	if e.uploadID != 0 {
		return
	}
	if body == "" && (e.media == nil || e.media.File == nil) {
		return
	}

	reqID := e.client.SendMessage(e.peer, body, e.media)
	e.sent[reqID] = body
	e.cancelUploadLocked()
}

// UploadFile starts uploading a local file as the media for the next send.
// Any previous upload is canceled first; the slot holds one file.
func (e *Engine) UploadFile(path string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.client == nil || path == "" {
		return
	}

	e.cancelUploadLocked()

	media := &tg.InputMedia{Kind: tg.InputMediaDocument}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png":
		media.Kind = tg.InputMediaPhoto
	default:
		media.Attributes = []tg.DocAttr{{Kind: tg.DocAttrFilename, FileName: filepath.Base(path)}}
	}

	e.media = media
	e.uploadID = e.client.UploadFile(path)
	e.bus.Publish("history.upload_progress", int32(0))
}

// CancelUpload drops the pending media and cancels any running upload.
func (e *Engine) CancelUpload() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelUploadLocked()
}

func (e *Engine) cancelUploadLocked() {
	e.media = nil
	if e.uploadID != 0 && e.client != nil {
		e.client.CancelUpload(e.uploadID)
	}
	e.uploadID = 0
	e.bus.Publish("history.upload_progress", int32(-1))
}

func (e *Engine) uploadProgress(uploadID int64, percent int32) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if uploadID != e.uploadID {
		return
	}
	e.bus.Publish("history.upload_progress", percent)
}

func (e *Engine) uploaded(uploadID int64, file *tg.InputFile) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if uploadID != e.uploadID {
		return
	}
	e.uploadID = 0
	if e.media != nil {
		e.media.File = file
	}
	e.bus.Publish("history.upload_progress", int32(100))
}

func (e *Engine) uploadCanceled(uploadID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if uploadID != e.uploadID {
		return
	}
	e.uploadID = 0
	e.cancelUploadLocked()
}

// DownloadFile starts downloading the document attached to the row at index
// into the downloads directory, choosing a name that does not collide with
// existing files.
func (e *Engine) DownloadFile(index int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.client == nil || !e.client.Authorized() || !e.peer.Valid() {
		return
	}
	if index < 0 || index >= len(e.rows) {
		return
	}
	row := e.rows[index]
	if row.document == nil {
		return
	}

	e.cancelDownloadLocked(index)

	root := e.downloadsRoot
	if root == "" {
		root = downloadsDir()
	}
	dir := filepath.Join(root, downloadsSubdir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		e.logger.Warn("create downloads dir", zap.Error(err))
		return
	}

	name := row.MediaFileName
	if name == "" {
		name = fmt.Sprintf("%d", time.Now().UnixMilli())
	}

	dest := filepath.Join(dir, uniqueName(dir, name))

	reqID := e.client.DownloadFile(dest, tg.FileRef{Document: row.document})
	e.downloads[reqID] = row.MessageID
	e.bus.Publish("history.download", bus.DownloadState{MessageID: row.MessageID, State: 0})
}

// CancelDownload cancels the download running for the row at index.
func (e *Engine) CancelDownload(index int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if index < 0 || index >= len(e.rows) {
		return
	}
	e.cancelDownloadLocked(index)
}

func (e *Engine) cancelDownloadLocked(index int) {
	if e.client == nil {
		return
	}

	messageID := e.rows[index].MessageID
	for reqID, mid := range e.downloads {
		if mid != messageID {
			continue
		}
		delete(e.downloads, reqID)
		e.client.CancelDownload(reqID)
	}
	e.bus.Publish("history.download", bus.DownloadState{MessageID: messageID, State: -1})
}

func (e *Engine) fileDownloaded(requestID int64, path string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	messageID, ok := e.downloads[requestID]
	if !ok {
		return
	}
	delete(e.downloads, requestID)

	e.bus.Publish("history.download", bus.DownloadState{
		MessageID: messageID,
		State:     1,
		Path:      "file://" + path,
	})
}

func (e *Engine) fileDownloadCanceled(requestID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	messageID, ok := e.downloads[requestID]
	if !ok {
		return
	}
	delete(e.downloads, requestID)

	e.bus.Publish("history.download", bus.DownloadState{MessageID: messageID, State: -1})
}

// uniqueName appends " (n)" before the extension until the name does not
// collide with an existing file in dir.
func uniqueName(dir, name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	candidate := name
	for i := 1; ; i++ {
		if _, err := os.Stat(filepath.Join(dir, candidate)); os.IsNotExist(err) {
			return candidate
		}
		candidate = fmt.Sprintf("%s (%d)%s", stem, i, ext)
	}
}

func downloadsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "Downloads")
}
